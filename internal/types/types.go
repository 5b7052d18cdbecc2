// Package types implements the nominal, non-inferring type checker
// described in spec.md §4.4. It never rewrites the AST; its output is a
// diagnostics list, and its types are advisory for the evaluator.
package types

import (
	"fmt"
	"sort"

	"github.com/tako0614/takomusic/internal/ast"
	"github.com/tako0614/takomusic/internal/diag"
	"github.com/tako0614/takomusic/internal/resolver"
	"github.com/tako0614/takomusic/internal/token"
)

// Kind is one of the checker's nominal kinds (spec.md §4.4).
type Kind string

const (
	Number     Kind = "Number"
	StringK    Kind = "String"
	BoolK      Kind = "Bool"
	NullK      Kind = "Null"
	Pitch      Kind = "Pitch"
	Dur        Kind = "Dur" // == Time == Rat
	Pos        Kind = "Pos"
	ClipK      Kind = "Clip"
	ScoreK     Kind = "Score"
	ArrayK     Kind = "Array"
	TupleK     Kind = "Tuple"
	ObjectK    Kind = "Object"
	RangeK     Kind = "Range"
	CurveK     Kind = "Curve"
	RngK       Kind = "Rng"
	LyricK     Kind = "Lyric"
	LyricTokenK Kind = "LyricToken"
	FunctionK  Kind = "Function"
	EnumK      Kind = "Enum"
	EnumVariantK Kind = "EnumVariant"
	Unknown    Kind = "Unknown"
)

// Type is a checker-level type: a Kind plus, for Array/Function, the
// element/return type.
type Type struct {
	Kind Kind
	Elem *Type // Array<T> element type
}

func T(k Kind) Type { return Type{Kind: k} }
func ArrayOf(elem Type) Type { return Type{Kind: ArrayK, Elem: &elem} }

func (t Type) String() string {
	if t.Kind == ArrayK && t.Elem != nil {
		return fmt.Sprintf("Array<%s>", t.Elem.String())
	}
	return string(t.Kind)
}

// Unifiable reports whether a and b can stand in the same position
// (e.g. as match arms); Unknown unifies with anything.
func Unifiable(a, b Type) bool {
	if a.Kind == Unknown || b.Kind == Unknown {
		return true
	}
	return a.Kind == b.Kind
}

// env is a lexical symbol table mirroring the runtime Scope shape, but
// holding Types instead of Values.
type env struct {
	vars    map[string]Type
	mutable map[string]bool
	parent  *env
}

func newEnv(parent *env) *env {
	return &env{vars: make(map[string]Type), mutable: make(map[string]bool), parent: parent}
}

// define records a binding; mutable mirrors the `let`/`const` distinction
// that is the sole mutation authority at runtime (spec.md §9 Open
// Question (c)) — the checker enforces it here so the evaluator can
// trust AssignmentStmt targets without re-deriving mutability.
func (e *env) define(name string, t Type, mutable bool) {
	e.vars[name] = t
	e.mutable[name] = mutable
}

func (e *env) lookup(name string) (Type, bool) {
	for cur := e; cur != nil; cur = cur.parent {
		if t, ok := cur.vars[name]; ok {
			return t, true
		}
	}
	return Type{}, false
}

func (e *env) isMutable(name string) bool {
	for cur := e; cur != nil; cur = cur.parent {
		if _, ok := cur.vars[name]; ok {
			return cur.mutable[name]
		}
	}
	return false
}

func (e *env) names() []string {
	var out []string
	for cur := e; cur != nil; cur = cur.parent {
		for name := range cur.vars {
			out = append(out, name)
		}
	}
	return out
}

// Checker runs one pass per module, writing diagnostics into bag.
type Checker struct {
	bag *diag.Bag
}

func NewChecker(bag *diag.Bag) *Checker { return &Checker{bag: bag} }

// Check runs the checker over every module, in dependency order, so
// each module's imports are already bound by the time it is checked.
func (c *Checker) Check(mods []*resolver.Module) {
	exported := make(map[string]map[string]Type) // module key -> name -> type
	for _, mod := range mods {
		root := newEnv(nil)
		c.bindStdlibKnownSignatures(root)
		for _, imp := range mod.Program.Imports {
			depTypes, ok := exported[imp.From]
			if !ok {
				continue // resolver already reported module-not-found
			}
			if imp.Namespace != "" {
				continue // namespace imports are Unknown-typed member bags
			}
			for _, name := range imp.Names {
				if t, ok := depTypes[name]; ok {
					root.define(name, t, false)
				} else {
					root.define(name, T(Unknown), false)
				}
			}
		}
		moduleExports := make(map[string]Type)
		for _, d := range mod.Program.Body {
			c.declareTopLevel(root, d, moduleExports)
		}
		for _, d := range mod.Program.Body {
			c.checkDecl(root, d)
		}
		exported[mod.Key] = moduleExports
	}
}

// bindStdlibKnownSignatures binds the handful of stdlib identifiers the
// checker can usefully type ahead of the evaluator's real intrinsics
// (spec.md §4.4: "Imports of std:* names bind the known signatures
// embedded in the checker").
func (c *Checker) bindStdlibKnownSignatures(root *env) {
	root.define("MAJOR", ArrayOf(T(Number)), false)
	root.define("MINOR", ArrayOf(T(Number)), false)
}

func (c *Checker) declareTopLevel(root *env, d ast.Decl, exports map[string]Type) {
	switch v := d.(type) {
	case *ast.FnDecl:
		t := T(FunctionK)
		root.define(v.Name, t, false)
		if v.Exported {
			exports[v.Name] = t
		}
	case *ast.ConstDecl:
		t := c.typeFromAnnotation(v.Type)
		if v.Target.Name != "" {
			root.define(v.Target.Name, t, v.Mutable)
			if v.Exported {
				exports[v.Target.Name] = t
			}
		} else {
			for _, name := range v.Target.Elements {
				root.define(name, T(Unknown), v.Mutable)
			}
		}
	case *ast.EnumDecl:
		root.define(v.Name, T(EnumK), false)
		if v.Exported {
			exports[v.Name] = T(EnumK)
		}
	}
}

func (c *Checker) typeFromAnnotation(name string) Type {
	switch name {
	case "Number":
		return T(Number)
	case "String":
		return T(StringK)
	case "Bool":
		return T(BoolK)
	case "Pitch":
		return T(Pitch)
	case "Dur", "Time":
		return T(Dur)
	case "Pos":
		return T(Pos)
	case "Clip":
		return T(ClipK)
	case "Score":
		return T(ScoreK)
	case "Curve":
		return T(CurveK)
	case "Array":
		return Type{Kind: ArrayK, Elem: &Type{Kind: Unknown}}
	case "Lyric":
		return T(LyricK)
	case "Rng":
		return T(RngK)
	default:
		return T(Unknown)
	}
}

func (c *Checker) dpos(p token.Position) *diag.Position {
	return &diag.Position{Line: p.Line, Column: p.Column}
}

func (c *Checker) checkDecl(root *env, d ast.Decl) {
	switch v := d.(type) {
	case *ast.FnDecl:
		fnEnv := newEnv(root)
		for _, p := range v.Params {
			fnEnv.define(p.Name, c.typeFromAnnotation(p.Type), false)
		}
		c.checkBlock(fnEnv, v.Body)
	case *ast.ConstDecl:
		c.exprType(root, v.Init)
	}
}

func (c *Checker) checkBlock(e *env, b *ast.Block) {
	if b == nil {
		return
	}
	for _, s := range b.Stmts {
		c.checkStmt(e, s)
	}
}

func (c *Checker) checkStmt(e *env, s ast.Stmt) {
	switch v := s.(type) {
	case *ast.ReturnStmt:
		if v.Value != nil {
			c.exprType(e, v.Value)
		}
	case *ast.IfStmt:
		c.exprType(e, v.Cond)
		c.checkBlock(newEnv(e), v.Then)
		if v.Else != nil {
			c.checkBlock(newEnv(e), v.Else)
		}
	case *ast.ForStmt:
		c.exprType(e, v.Iterable)
		inner := newEnv(e)
		inner.define(v.Name, T(Number), false)
		c.checkBlock(inner, v.Body)
	case *ast.DeclStmt:
		t := c.exprType(e, v.Decl.Init)
		if v.Decl.Target.Name != "" {
			e.define(v.Decl.Target.Name, t, v.Decl.Mutable)
		} else {
			for _, name := range v.Decl.Target.Elements {
				e.define(name, T(Unknown), v.Decl.Mutable)
			}
		}
	case *ast.AssignmentStmt:
		if ident, ok := v.Target.(*ast.Identifier); ok {
			if _, ok := e.lookup(ident.Name); !ok {
				c.bag.Errorf("undefined-symbol", "", c.dpos(ident.Pos()), "undefined symbol %q%s", ident.Name, c.suggest(e, ident.Name))
			} else if !e.isMutable(ident.Name) {
				c.bag.Errorf("type-mismatch", "", c.dpos(ident.Pos()), "cannot assign to immutable binding %q (declared with const)", ident.Name)
			}
		} else {
			c.exprType(e, v.Target)
		}
		c.exprType(e, v.Value)
	case *ast.ExprStmt:
		c.exprType(e, v.X)
	case *ast.BlockStmt:
		c.checkBlock(newEnv(e), v.Body)
	}
}

// exprType computes (and records diagnostics for) the type of x.
func (c *Checker) exprType(e *env, x ast.Expr) Type {
	if x == nil {
		return T(Unknown)
	}
	switch v := x.(type) {
	case *ast.NumberLit:
		if v.IsFloat {
			return T(Number)
		}
		return T(Number) // bare int literal; Number / Number yields Dur (a Rat) in binaryType
	case *ast.StringLit:
		return T(StringK)
	case *ast.TemplateLiteral:
		for _, seg := range v.Segments {
			if seg.Expr != nil {
				c.exprType(e, seg.Expr)
			}
		}
		return T(StringK)
	case *ast.BoolLit:
		return T(BoolK)
	case *ast.NullLit:
		return T(NullK)
	case *ast.PitchLit:
		return T(Pitch)
	case *ast.DurationLit:
		return T(Dur)
	case *ast.BarBeatLit:
		return T(Pos)
	case *ast.Identifier:
		if t, ok := e.lookup(v.Name); ok {
			return t
		}
		c.bag.Errorf("undefined-symbol", "", c.dpos(v.Pos()), "undefined symbol %q%s", v.Name, c.suggest(e, v.Name))
		return T(Unknown)
	case *ast.ArrayLit:
		var elem Type = T(Unknown)
		if len(v.Elements) > 0 {
			elem = c.exprType(e, v.Elements[0])
		}
		for _, el := range v.Elements[1:] {
			c.exprType(e, el)
		}
		return ArrayOf(elem)
	case *ast.TupleLit:
		for _, el := range v.Elements {
			c.exprType(e, el)
		}
		return T(TupleK)
	case *ast.ObjectLit:
		for _, f := range v.Fields {
			c.exprType(e, f.Value)
		}
		return T(ObjectK)
	case *ast.MemberExpr:
		c.exprType(e, v.X)
		return T(Unknown)
	case *ast.IndexExpr:
		baseT := c.exprType(e, v.X)
		c.exprType(e, v.Index)
		if baseT.Kind == ArrayK && baseT.Elem != nil {
			return *baseT.Elem
		}
		return T(Unknown)
	case *ast.CallExpr:
		c.exprType(e, v.Callee)
		for _, a := range v.Args {
			c.exprType(e, a.Value)
		}
		return c.callSpecific(e, v)
	case *ast.UnaryExpr:
		return c.exprType(e, v.X)
	case *ast.BinaryExpr:
		return c.binaryType(e, v)
	case *ast.MatchExpr:
		return c.matchType(e, v)
	case *ast.RangeExpr:
		c.exprType(e, v.From)
		c.exprType(e, v.To)
		return T(RangeK)
	case *ast.FnLit:
		inner := newEnv(e)
		for _, p := range v.Params {
			inner.define(p.Name, c.typeFromAnnotation(p.Type), false)
		}
		c.checkBlock(inner, v.Body)
		return T(FunctionK)
	case *ast.ScoreExpr:
		c.checkScoreExpr(e, v)
		return T(ScoreK)
	case *ast.ClipExpr:
		c.checkClipExpr(e, v)
		return T(ClipK)
	default:
		return T(Unknown)
	}
}

// callSpecific applies the musical-construct argument-type checks from
// spec.md §4.4 for a handful of well-known call forms; everything else
// is Unknown-typed since the checker has no function-signature inference.
func (c *Checker) callSpecific(e *env, call *ast.CallExpr) Type {
	name, ok := call.Callee.(*ast.Identifier)
	if !ok {
		return T(Unknown)
	}
	switch name.Name {
	case "note":
		if len(call.Args) >= 1 {
			c.expectKind(e, call.Args[0].Value, Pitch, "expected-pitch")
		}
		if len(call.Args) >= 2 {
			c.expectKind(e, call.Args[1].Value, Dur, "expected-duration")
		}
		return T(Unknown)
	case "rest":
		if len(call.Args) >= 1 {
			c.expectKind(e, call.Args[0].Value, Dur, "expected-duration")
		}
		return T(Unknown)
	default:
		return T(Unknown)
	}
}

func (c *Checker) expectKind(e *env, x ast.Expr, want Kind, code string) {
	got := c.exprType(e, x)
	if got.Kind == Unknown || got.Kind == want {
		return
	}
	c.bag.Errorf(code, "", c.dpos(x.Pos()), "expected %s, found %s", want, got)
}

func (c *Checker) binaryType(e *env, b *ast.BinaryExpr) Type {
	left := c.exprType(e, b.Left)
	right := c.exprType(e, b.Right)
	switch b.Op {
	case token.PLUS:
		return c.plusType(e, b, left, right)
	case token.MINUS:
		switch {
		case left.Kind == Pos && right.Kind == Dur:
			return T(Pos)
		case left.Kind == Pos && right.Kind == Pos:
			return T(Dur)
		case left.Kind == Unknown || right.Kind == Unknown:
			return T(Unknown)
		case left.Kind == Number && right.Kind == Number:
			return T(Number)
		case left.Kind == Dur && right.Kind == Dur:
			return T(Dur)
		default:
			c.bag.Errorf("type-mismatch", "", c.dpos(b.Pos()), "invalid operands to '-': %s and %s", left, right)
			return T(Unknown)
		}
	case token.STAR:
		if left.Kind == Dur && right.Kind == Number || left.Kind == Number && right.Kind == Dur {
			return T(Dur)
		}
		if left.Kind == Number && right.Kind == Number {
			return T(Number)
		}
		return T(Unknown)
	case token.SLASH:
		if left.Kind == Dur && right.Kind == Dur {
			return T(Number)
		}
		if left.Kind == Dur || right.Kind == Dur || left.Kind == Number && right.Kind == Number {
			return T(Dur)
		}
		return T(Unknown)
	case token.EQ, token.NEQ, token.LT, token.LE, token.GT, token.GE, token.AND, token.OR:
		return T(BoolK)
	default:
		return T(Unknown)
	}
}

func (c *Checker) plusType(e *env, b *ast.BinaryExpr, left, right Type) Type {
	switch {
	case left.Kind == Pos && right.Kind == Dur:
		return T(Pos)
	case left.Kind == Dur && right.Kind == Pos:
		return T(Pos)
	case left.Kind == Pos && right.Kind == Pos:
		c.bag.Error("type-mismatch", "", c.dpos(b.Pos()), "Pos + Pos is not defined")
		return T(Unknown)
	case left.Kind == Unknown || right.Kind == Unknown:
		return T(Unknown)
	case left.Kind == Number && right.Kind == Number:
		return T(Number)
	case left.Kind == StringK && right.Kind == StringK:
		return T(StringK)
	case left.Kind == Dur && right.Kind == Dur:
		return T(Dur)
	default:
		c.bag.Errorf("type-mismatch", "", c.dpos(b.Pos()), "invalid operands to '+': %s and %s", left, right)
		return T(Unknown)
	}
}

func (c *Checker) matchType(e *env, m *ast.MatchExpr) Type {
	c.exprType(e, m.Head)
	var result Type
	first := true
	for _, arm := range m.Arms {
		if arm.Pattern != nil {
			c.exprType(e, arm.Pattern)
		}
		if arm.Low != nil {
			c.exprType(e, arm.Low)
			c.exprType(e, arm.High)
		}
		rt := c.exprType(e, arm.Result)
		if first {
			result = rt
			first = false
			continue
		}
		if !Unifiable(result, rt) {
			c.bag.Errorf("type-mismatch", "", c.dpos(arm.Result.Pos()), "match arms have incompatible types: %s and %s", result, rt)
			result = T(Unknown)
		}
	}
	return result
}

// checkScoreExpr validates a score body in two passes since spec.md §4.2
// allows `meta`/`tempo`/`meter`/`sound`/`track`/`marker(…)` items in any
// order: a `track` referencing a `sound` declared later in the same body
// is legal source, so every SoundDeclItem must be collected before any
// TrackDeclItem is checked against it (mirroring the forward-declare-
// then-check shape declareTopLevel/checkDecl already use at module
// scope).
func (c *Checker) checkScoreExpr(e *env, s *ast.ScoreExpr) {
	soundIDs := make(map[string]bool)
	soundKindByID := make(map[string]string)
	for _, item := range s.Items {
		v, ok := item.(*ast.SoundDeclItem)
		if !ok {
			continue
		}
		if soundIDs[v.ID] {
			c.bag.Errorf("duplicate-sound-id", "", c.dpos(v.Pos()), "duplicate sound id %q", v.ID)
		}
		soundIDs[v.ID] = true
		soundKindByID[v.ID] = v.Kind
	}

	for _, item := range s.Items {
		switch v := item.(type) {
		case *ast.MetaBlock:
			for _, f := range v.Fields {
				c.exprType(e, f.Value)
			}
		case *ast.TempoBlock:
			for _, p := range v.Points {
				c.expectKind(e, p.At, Pos, "expected-position")
				c.exprType(e, p.BPM)
				if p.Unit != nil {
					c.expectKind(e, p.Unit, Dur, "expected-duration")
				}
			}
		case *ast.MeterBlock:
			for _, p := range v.Points {
				c.expectKind(e, p.At, Pos, "expected-position")
				c.exprType(e, p.Num)
				c.exprType(e, p.Den)
			}
		case *ast.SoundDeclItem:
			for _, f := range v.Fields {
				c.exprType(e, f.Value)
			}
		case *ast.TrackDeclItem:
			if v.Sound != "" && !soundIDs[v.Sound] {
				c.bag.Errorf("unknown-sound", "", c.dpos(v.Pos()), "track %q references unknown sound %q", v.Name, v.Sound)
			} else if v.Sound != "" {
				c.checkRoleSoundKind(v.Role, soundKindByID[v.Sound], v.Pos())
			}
			for _, pl := range v.Placements {
				c.expectKind(e, pl.At, Pos, "expected-position")
				got := c.exprType(e, pl.Clip)
				if got.Kind != Unknown && got.Kind != ClipK {
					c.bag.Errorf("expected-clip", "", c.dpos(pl.Clip.Pos()), "place target must be a Clip, found %s", got)
				}
			}
		case *ast.ScoreMarkerItem:
			if v.At != nil {
				c.expectKind(e, v.At, Pos, "expected-position")
			}
			if v.Kind != nil {
				c.exprType(e, v.Kind)
			}
			if v.Label != nil {
				c.exprType(e, v.Label)
			}
		}
	}
}

func (c *Checker) checkRoleSoundKind(role, kind string, pos token.Position) {
	compatible := map[string]string{
		"instrument": "instrument",
		"drumKit":    "Drums",
		"vocal":      "vocal",
		"fx":         "fx",
	}
	want, known := compatible[kind]
	if !known {
		return
	}
	roleMatches := role == want || role == "" ||
		(kind == "drumKit" && role == "Drums") ||
		(kind == "instrument" && role == "instrument") ||
		(kind == "vocal" && role == "vocal") ||
		role == "fx"
	if !roleMatches {
		c.bag.Warningf("role-mismatch", "", c.dpos(pos), "track role %q does not match sound kind %q", role, kind)
	}
}

func (c *Checker) checkClipExpr(e *env, clip *ast.ClipExpr) {
	for _, stmt := range clip.Stmts {
		switch v := stmt.(type) {
		case *ast.AtStmt:
			c.expectKind(e, v.Pos_, Pos, "expected-position")
		case *ast.RestStmt:
			c.expectKind(e, v.Dur, Dur, "expected-duration")
		case *ast.NoteStmt:
			c.expectKind(e, v.Pitch, Pitch, "expected-pitch")
			c.expectKind(e, v.Dur, Dur, "expected-duration")
			for _, a := range v.Args {
				c.exprType(e, a.Value)
			}
		case *ast.ChordStmt:
			c.exprType(e, v.Pitches)
			c.expectKind(e, v.Dur, Dur, "expected-duration")
		case *ast.HitStmt:
			c.exprType(e, v.Key)
			c.expectKind(e, v.Dur, Dur, "expected-duration")
		case *ast.BreathStmt:
			c.expectKind(e, v.Dur, Dur, "expected-duration")
		case *ast.ArpStmt:
			c.exprType(e, v.Pitches)
			c.expectKind(e, v.Unit, Dur, "expected-duration")
		case *ast.TripletStmt:
			c.exprType(e, v.N)
			if v.InTime != nil {
				c.exprType(e, v.InTime)
			}
			inner := &ast.ClipExpr{Stmts: v.Body}
			c.checkClipExpr(e, inner)
		case *ast.CCStmt:
			c.exprType(e, v.Controller)
			c.exprType(e, v.Value)
		case *ast.AutomationStmt:
			c.exprType(e, v.Param)
			c.exprType(e, v.Curve)
		case *ast.MarkerStmt:
			if v.Kind != nil {
				c.exprType(e, v.Kind)
			}
			if v.Label != nil {
				c.exprType(e, v.Label)
			}
		}
	}
}

// suggest computes a small edit-distance-based "did you mean" string
// for an undefined-symbol diagnostic (spec.md §4.4).
func (c *Checker) suggest(e *env, name string) string {
	candidates := e.names()
	sort.Strings(candidates)
	best := ""
	bestDist := 3 // only suggest within a small edit distance
	for _, cand := range candidates {
		d := editDistance(name, cand)
		if d < bestDist {
			bestDist = d
			best = cand
		}
	}
	if best == "" {
		return ""
	}
	return fmt.Sprintf(" (did you mean %q?)", best)
}

func editDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		cur[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			cur[j] = min3(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(rb)]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

