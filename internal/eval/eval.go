// Package eval implements the tree-walking evaluator described in
// spec.md §4.5: lexical scopes with cell-like mutable `let` bindings,
// first-class closures, and score/clip construction semantics. Runtime
// errors halt evaluation immediately (a structured *RuntimeError),
// unlike every earlier stage which collects diagnostics and continues.
package eval

import (
	"fmt"
	"sort"

	"github.com/tako0614/takomusic/internal/ast"
	"github.com/tako0614/takomusic/internal/diag"
	"github.com/tako0614/takomusic/internal/resolver"
	"github.com/tako0614/takomusic/internal/token"
	"github.com/tako0614/takomusic/internal/value"
)

// maxCallDepth bounds recursion (spec.md §4.5: "call depth is bounded by
// a fixed limit (e.g. 512)").
const maxCallDepth = 512

// maxForIterations bounds the stdlib `range` safety valve (spec.md §5).
const maxForIterations = 10000

// RuntimeError is the structured exception a halted evaluation carries.
type RuntimeError struct {
	Code    string
	Message string
	Pos     token.Position
}

func (e *RuntimeError) Error() string { return fmt.Sprintf("%s: %s", e.Code, e.Message) }

func rtErr(code string, pos token.Position, format string, args ...interface{}) *RuntimeError {
	return &RuntimeError{Code: code, Message: fmt.Sprintf(format, args...), Pos: pos}
}

// returnSignal is the non-local control-flow value a `return` statement
// raises; it is caught at the call boundary and is distinct from
// *RuntimeError (spec.md §4.5: "a return signal ... caught at the call
// boundary").
type returnSignal struct {
	value value.Value
}

func (returnSignal) Error() string { return "return (not an error)" }

// Evaluator holds the module table and diagnostics sink for one
// compilation; it is not safe for concurrent reuse across compilations
// (spec.md §5: each compilation owns its own evaluator scope chain).
type Evaluator struct {
	bag      *diag.Bag
	modules  map[string]*resolver.Module
	compiled map[string]*value.Scope // module key -> its top-level scope
	depth    int
}

func NewEvaluator(mods []*resolver.Module, bag *diag.Bag) *Evaluator {
	byKey := make(map[string]*resolver.Module, len(mods))
	for _, m := range mods {
		byKey[m.Key] = m
	}
	return &Evaluator{bag: bag, modules: byKey, compiled: make(map[string]*value.Scope)}
}

// Evaluate loads every module in dependency order and calls the entry
// module's exported `main` with zero arguments (spec.md §4.5).
func (ev *Evaluator) Evaluate(mods []*resolver.Module, entryKey string) (value.Value, error) {
	var entryScope *value.Scope
	for _, m := range mods {
		scope, err := ev.loadModule(m)
		if err != nil {
			return nil, err
		}
		if m.Key == entryKey {
			entryScope = scope
		}
	}
	if entryScope == nil {
		return nil, rtErr("non-callable", token.Position{}, "entry module %q not found", entryKey)
	}
	b := entryScope.Lookup("main")
	if b == nil {
		return nil, rtErr("non-callable", token.Position{}, "entry module has no exported main")
	}
	fn, ok := b.Value.(value.Function)
	if !ok {
		return nil, rtErr("non-callable", token.Position{}, "main is not a function")
	}
	return ev.call(fn, nil, nil, token.Position{})
}

func (ev *Evaluator) loadModule(m *resolver.Module) (scope *value.Scope, err error) {
	if s, ok := ev.compiled[m.Key]; ok {
		return s, nil
	}
	root := value.NewScope(nil)
	ev.defineIntrinsics(root)

	for _, imp := range m.Program.Imports {
		dep, ok := ev.modules[canonicalImportKey(m, imp)]
		if !ok {
			continue // resolver already diagnosed this
		}
		depScope, err := ev.loadModule(dep)
		if err != nil {
			return nil, err
		}
		if imp.Namespace != "" {
			ns := value.NewObject()
			for key := range dep.Exports {
				if b := depScope.Lookup(key); b != nil {
					ns.Set(key, b.Value)
				}
			}
			root.Define(imp.Namespace, value.ObjectValue{Object: ns}, false)
			continue
		}
		for _, name := range imp.Names {
			if b := depScope.Lookup(name); b != nil {
				root.Define(name, b.Value, false)
			}
		}
	}

	for _, d := range m.Program.Body {
		if err := ev.bindDecl(root, d); err != nil {
			return nil, err
		}
	}
	ev.compiled[m.Key] = root
	return root, nil
}

// canonicalImportKey finds which resolved module satisfies m's import,
// matching by the `from` specifier via each candidate module's own Key
// (resolver keys std: modules by their specifier and host modules by
// the provider's canonical key).
func canonicalImportKey(m *resolver.Module, imp *ast.ImportDecl) string {
	return imp.From
}

func (ev *Evaluator) bindDecl(scope *value.Scope, d ast.Decl) error {
	switch v := d.(type) {
	case *ast.FnDecl:
		fn := value.Function{Name: v.Name, Body: v.Body, Captured: scope}
		for _, p := range v.Params {
			fn.Params = append(fn.Params, value.Param{Name: p.Name, Type: p.Type})
		}
		scope.Define(v.Name, fn, false)
	case *ast.ConstDecl:
		val, err := ev.evalExpr(scope, v.Init)
		if err != nil {
			return err
		}
		if v.Target.Name != "" {
			scope.Define(v.Target.Name, val, v.Mutable)
		} else {
			arr, ok := val.(value.ArrayValue)
			for i, name := range v.Target.Elements {
				var elem value.Value = value.Null{}
				if ok {
					elem = arr.Get(int64(i))
				}
				scope.Define(name, elem, v.Mutable)
			}
		}
	}
	return nil
}

// call invokes fn with positional args and named kwargs, enforcing the
// call-depth limit and the positional-then-named binding rule (spec.md
// §4.5).
func (ev *Evaluator) call(fn value.Function, args []value.Value, named map[string]value.Value, pos token.Position) (value.Value, error) {
	if fn.Native != nil {
		return fn.Native(args, named)
	}
	ev.depth++
	defer func() { ev.depth-- }()
	if ev.depth > maxCallDepth {
		return nil, rtErr("stack-overflow", pos, "call stack exceeded depth %d", maxCallDepth)
	}

	callScope := value.NewScope(fn.Captured)
	remaining := make(map[string]bool, len(fn.Params))
	for _, p := range fn.Params {
		remaining[p.Name] = true
	}
	for i, p := range fn.Params {
		if i < len(args) {
			callScope.Define(p.Name, args[i], true)
			delete(remaining, p.Name)
		}
	}
	for name, v := range named {
		if !remaining[name] {
			if contains(fn.Params, name) {
				return nil, rtErr("unknown-named-argument", pos, "argument %q already bound positionally", name)
			}
			return nil, rtErr("unknown-named-argument", pos, "function has no parameter named %q", name)
		}
		callScope.Define(name, v, true)
		delete(remaining, name)
	}
	if len(remaining) > 0 {
		var missing []string
		for name := range remaining {
			missing = append(missing, name)
		}
		sort.Strings(missing)
		return nil, rtErr("missing-argument", pos, "missing required argument %q", missing[0])
	}

	body, _ := fn.Body.(*ast.Block)
	result, err := ev.execBlock(callScope, body)
	if err != nil {
		if rs, ok := err.(returnSignal); ok {
			return rs.value, nil
		}
		return nil, err
	}
	_ = result
	return value.Null{}, nil
}

func contains(params []value.Param, name string) bool {
	for _, p := range params {
		if p.Name == name {
			return true
		}
	}
	return false
}

func (ev *Evaluator) execBlock(scope *value.Scope, b *ast.Block) (value.Value, error) {
	if b == nil {
		return value.Null{}, nil
	}
	for _, stmt := range b.Stmts {
		if _, err := ev.execStmt(scope, stmt); err != nil {
			return nil, err
		}
	}
	return value.Null{}, nil
}

func (ev *Evaluator) execStmt(scope *value.Scope, s ast.Stmt) (value.Value, error) {
	switch v := s.(type) {
	case *ast.ReturnStmt:
		var rv value.Value = value.Null{}
		if v.Value != nil {
			val, err := ev.evalExpr(scope, v.Value)
			if err != nil {
				return nil, err
			}
			rv = val
		}
		return nil, returnSignal{value: rv}
	case *ast.IfStmt:
		cond, err := ev.evalExpr(scope, v.Cond)
		if err != nil {
			return nil, err
		}
		if cond.Truthy() {
			return ev.execBlock(value.NewScope(scope), v.Then)
		} else if v.Else != nil {
			return ev.execBlock(value.NewScope(scope), v.Else)
		}
		return value.Null{}, nil
	case *ast.ForStmt:
		return ev.execFor(scope, v)
	case *ast.DeclStmt:
		return value.Null{}, ev.bindDecl(scope, v.Decl)
	case *ast.AssignmentStmt:
		return ev.execAssign(scope, v)
	case *ast.ExprStmt:
		_, err := ev.evalExpr(scope, v.X)
		return value.Null{}, err
	case *ast.BlockStmt:
		return ev.execBlock(value.NewScope(scope), v.Body)
	default:
		return value.Null{}, nil
	}
}

func (ev *Evaluator) execFor(scope *value.Scope, f *ast.ForStmt) (value.Value, error) {
	iterable, err := ev.evalExpr(scope, f.Iterable)
	if err != nil {
		return nil, err
	}
	rng, ok := iterable.(value.RangeValue)
	if !ok {
		return value.Null{}, nil
	}
	count := 0
	for _, n := range rng.Values() {
		count++
		if count > maxForIterations {
			return nil, rtErr("invalid-operation", f.Pos(), "for loop exceeded safety limit of %d iterations", maxForIterations)
		}
		inner := value.NewScope(scope)
		inner.Define(f.Name, value.Number(n), true)
		if _, err := ev.execBlock(inner, f.Body); err != nil {
			return nil, err
		}
	}
	return value.Null{}, nil
}

func (ev *Evaluator) execAssign(scope *value.Scope, a *ast.AssignmentStmt) (value.Value, error) {
	val, err := ev.evalExpr(scope, a.Value)
	if err != nil {
		return nil, err
	}
	switch target := a.Target.(type) {
	case *ast.Identifier:
		b := scope.Lookup(target.Name)
		if b == nil {
			return nil, rtErr("invalid-operation", a.Pos(), "assignment to undefined binding %q", target.Name)
		}
		b.Value = val
	case *ast.IndexExpr:
		base, err := ev.evalExpr(scope, target.X)
		if err != nil {
			return nil, err
		}
		idx, err := ev.evalExpr(scope, target.Index)
		if err != nil {
			return nil, err
		}
		arr, ok := base.(value.ArrayValue)
		if !ok {
			return nil, rtErr("invalid-operation", a.Pos(), "index assignment target is not an array")
		}
		arr.Set(toInt(idx), val)
	case *ast.MemberExpr:
		base, err := ev.evalExpr(scope, target.X)
		if err != nil {
			return nil, err
		}
		obj, ok := base.(value.ObjectValue)
		if !ok {
			return nil, rtErr("invalid-operation", a.Pos(), "member assignment target is not an object")
		}
		obj.Set(target.Name, val)
	default:
		return nil, rtErr("invalid-operation", a.Pos(), "invalid assignment target")
	}
	return value.Null{}, nil
}

func toInt(v value.Value) int64 {
	switch n := v.(type) {
	case value.Number:
		return int64(n)
	case value.RatValue:
		return n.N / n.D
	default:
		return 0
	}
}

func templateCoerce(v value.Value) string {
	switch n := v.(type) {
	case value.RatValue:
		return n.Rat.DecimalString(3)
	default:
		return v.String()
	}
}

