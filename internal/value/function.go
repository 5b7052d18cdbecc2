package value

import "fmt"

// Binding is one scope slot: a value plus the mutable flag that is the
// sole authority on whether AssignmentStmt may target it (spec.md §9
// Open Question (c); §3.4: "evaluator treats [let bindings] as cell
// updates rather than rebindings").
type Binding struct {
	Value   Value
	Mutable bool
}

// Scope is a lexical chain of name→Binding maps. Child scopes hold a
// reference (not a copy) to their parent, and closures capture a Scope
// by shared reference (spec.md §3.4).
type Scope struct {
	vars   map[string]*Binding
	parent *Scope
}

func NewScope(parent *Scope) *Scope {
	return &Scope{vars: make(map[string]*Binding), parent: parent}
}

// Define creates a new binding in this scope, shadowing any of the same
// name in an ancestor.
func (s *Scope) Define(name string, v Value, mutable bool) {
	s.vars[name] = &Binding{Value: v, Mutable: mutable}
}

// Lookup walks the chain outward and returns the binding, or nil.
func (s *Scope) Lookup(name string) *Binding {
	for cur := s; cur != nil; cur = cur.parent {
		if b, ok := cur.vars[name]; ok {
			return b
		}
	}
	return nil
}

// Names returns every name visible from this scope, nearest scope first.
func (s *Scope) Names() []string {
	seen := make(map[string]bool)
	var out []string
	for cur := s; cur != nil; cur = cur.parent {
		for name := range cur.vars {
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	return out
}

// Param mirrors ast.Param without importing the ast package from value,
// keeping the dependency direction eval → value rather than circular.
type Param struct {
	Name string
	Type string
}

// NativeHandler is the extension hook described by spec.md §4.5: "a
// function value can carry a native handler invoked with the same
// argument convention", used by host integrations outside the core
// (see internal/nativeext).
type NativeHandler func(args []Value, named map[string]Value) (Value, error)

// Function is a closure (Body/Captured set, Native nil) or a native
// handler (Native set, Body nil).
type Function struct {
	Name      string
	Params    []Param
	Body      interface{} // *ast.Block, kept as interface{} to avoid an import cycle
	Captured  *Scope
	Native    NativeHandler
}

func (Function) Kind() Kind     { return KindFunction }
func (Function) Truthy() bool   { return true }
func (f Function) String() string {
	if f.Name != "" {
		return fmt.Sprintf("fn %s(...)", f.Name)
	}
	return "fn(...)"
}
