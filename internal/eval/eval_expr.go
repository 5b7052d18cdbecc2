package eval

import (
	"math"
	"strings"

	"github.com/tako0614/takomusic/internal/ast"
	"github.com/tako0614/takomusic/internal/token"
	"github.com/tako0614/takomusic/internal/value"
)

func (ev *Evaluator) evalExpr(scope *value.Scope, x ast.Expr) (value.Value, error) {
	switch v := x.(type) {
	case *ast.NumberLit:
		if v.IsFloat {
			return value.Number(v.Float), nil
		}
		// Plain integer literals stay Number here; § 9's
		// integer-to-rational coercion happens at the `/` dispatch
		// site (div below), not at literal evaluation.
		return value.Number(v.Int), nil
	case *ast.StringLit:
		return value.String(v.Value), nil
	case *ast.BoolLit:
		return value.Bool(v.Value), nil
	case *ast.NullLit:
		return value.Null{}, nil
	case *ast.PitchLit:
		return value.PitchValue{Pitch: value.Pitch{MIDI: v.MIDI, Cents: v.Cents}}, nil
	case *ast.DurationLit:
		return value.RatValue{Rat: value.NewRat(v.Num, v.Den)}, nil
	case *ast.BarBeatLit:
		return value.PosValue{Pos: value.PosFromRef(value.PosRef{Bar: v.Bar, Beat: v.Beat})}, nil
	case *ast.Identifier:
		b := scope.Lookup(v.Name)
		if b == nil {
			return nil, rtErr("non-callable", v.Pos(), "undefined symbol %q", v.Name)
		}
		return b.Value, nil
	case *ast.TemplateLiteral:
		return ev.evalTemplate(scope, v)
	case *ast.ArrayLit:
		return ev.evalArrayLit(scope, v)
	case *ast.TupleLit:
		return ev.evalArrayLit(scope, &ast.ArrayLit{Elements: v.Elements})
	case *ast.ObjectLit:
		return ev.evalObjectLit(scope, v)
	case *ast.MemberExpr:
		return ev.evalMember(scope, v)
	case *ast.IndexExpr:
		return ev.evalIndex(scope, v)
	case *ast.CallExpr:
		return ev.evalCall(scope, v)
	case *ast.UnaryExpr:
		return ev.evalUnary(scope, v)
	case *ast.BinaryExpr:
		return ev.evalBinary(scope, v)
	case *ast.RangeExpr:
		return ev.evalRange(scope, v)
	case *ast.MatchExpr:
		return ev.evalMatch(scope, v)
	case *ast.FnLit:
		fn := value.Function{Body: v.Body, Captured: scope}
		for _, p := range v.Params {
			fn.Params = append(fn.Params, value.Param{Name: p.Name, Type: p.Type})
		}
		return fn, nil
	case *ast.ScoreExpr:
		return ev.evalScore(scope, v)
	case *ast.ClipExpr:
		return ev.evalClip(scope, v)
	default:
		return value.Null{}, nil
	}
}

func (ev *Evaluator) evalTemplate(scope *value.Scope, t *ast.TemplateLiteral) (value.Value, error) {
	var sb strings.Builder
	for _, seg := range t.Segments {
		sb.WriteString(seg.Static)
		if seg.Expr != nil {
			v, err := ev.evalExpr(scope, seg.Expr)
			if err != nil {
				return nil, err
			}
			sb.WriteString(templateCoerce(v))
		}
	}
	return value.String(sb.String()), nil
}

func (ev *Evaluator) evalArrayLit(scope *value.Scope, a *ast.ArrayLit) (value.Value, error) {
	arr := value.NewArray()
	for i, elExpr := range a.Elements {
		v, err := ev.evalExpr(scope, elExpr)
		if err != nil {
			return nil, err
		}
		isSpread := i < len(a.SpreadMask) && a.SpreadMask[i]
		if isSpread {
			if src, ok := v.(value.ArrayValue); ok {
				arr.Elements = append(arr.Elements, src.Elements...)
				continue
			}
		}
		arr.Elements = append(arr.Elements, v)
	}
	return value.ArrayValue{Array: arr}, nil
}

func (ev *Evaluator) evalObjectLit(scope *value.Scope, o *ast.ObjectLit) (value.Value, error) {
	obj := value.NewObject()
	for _, f := range o.Fields {
		if f.Spread {
			v, err := ev.evalExpr(scope, f.Value)
			if err != nil {
				return nil, err
			}
			if src, ok := v.(value.ObjectValue); ok {
				for _, k := range src.Keys() {
					val, _ := src.Get(k)
					obj.Set(k, val)
				}
			}
			continue
		}
		v, err := ev.evalExpr(scope, f.Value)
		if err != nil {
			return nil, err
		}
		obj.Set(f.Key, v)
	}
	return value.ObjectValue{Object: obj}, nil
}

func (ev *Evaluator) evalMember(scope *value.Scope, m *ast.MemberExpr) (value.Value, error) {
	base, err := ev.evalExpr(scope, m.X)
	if err != nil {
		return nil, err
	}
	switch b := base.(type) {
	case value.ArrayValue:
		if m.Name == "length" {
			return value.Number(b.Len()), nil
		}
	case value.ObjectValue:
		if v, ok := b.Get(m.Name); ok {
			return v, nil
		}
		return value.Null{}, nil
	case value.Lyric:
		if m.Name == "tokens" {
			arr := value.NewArray()
			for _, tok := range b.Tokens {
				arr.Elements = append(arr.Elements, tok)
			}
			return value.ArrayValue{Array: arr}, nil
		}
	}
	return value.Null{}, nil
}

func (ev *Evaluator) evalIndex(scope *value.Scope, ix *ast.IndexExpr) (value.Value, error) {
	base, err := ev.evalExpr(scope, ix.X)
	if err != nil {
		return nil, err
	}
	idx, err := ev.evalExpr(scope, ix.Index)
	if err != nil {
		return nil, err
	}
	arr, ok := base.(value.ArrayValue)
	if !ok {
		return value.Null{}, nil
	}
	return arr.Get(toInt(idx)), nil
}

func (ev *Evaluator) evalUnary(scope *value.Scope, u *ast.UnaryExpr) (value.Value, error) {
	x, err := ev.evalExpr(scope, u.X)
	if err != nil {
		return nil, err
	}
	switch u.Op {
	case token.MINUS:
		switch v := x.(type) {
		case value.Number:
			return -v, nil
		case value.RatValue:
			return value.RatValue{Rat: v.Rat.Neg()}, nil
		}
		return nil, rtErr("invalid-operation", u.Pos(), "cannot negate %s", x.Kind())
	case token.NOT:
		return value.Bool(!x.Truthy()), nil
	default:
		return nil, rtErr("invalid-operation", u.Pos(), "unsupported unary operator")
	}
}

func (ev *Evaluator) evalRange(scope *value.Scope, r *ast.RangeExpr) (value.Value, error) {
	from, err := ev.evalExpr(scope, r.From)
	if err != nil {
		return nil, err
	}
	to, err := ev.evalExpr(scope, r.To)
	if err != nil {
		return nil, err
	}
	return value.RangeValue{Range: value.Range{From: toInt(from), To: toInt(to)}}, nil
}

func (ev *Evaluator) evalMatch(scope *value.Scope, m *ast.MatchExpr) (value.Value, error) {
	head, err := ev.evalExpr(scope, m.Head)
	if err != nil {
		return nil, err
	}
	for _, arm := range m.Arms {
		if arm.Default {
			return ev.evalExpr(scope, arm.Result)
		}
		if arm.RangeEq {
			lo, err := ev.evalExpr(scope, arm.Low)
			if err != nil {
				return nil, err
			}
			hi, err := ev.evalExpr(scope, arm.High)
			if err != nil {
				return nil, err
			}
			n := toInt(head)
			if n >= toInt(lo) && n <= toInt(hi) {
				return ev.evalExpr(scope, arm.Result)
			}
			continue
		}
		pat, err := ev.evalExpr(scope, arm.Pattern)
		if err != nil {
			return nil, err
		}
		if valuesEqual(head, pat) {
			return ev.evalExpr(scope, arm.Result)
		}
	}
	return value.Null{}, nil
}

func valuesEqual(a, b value.Value) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	switch av := a.(type) {
	case value.Number:
		return av == b.(value.Number)
	case value.String:
		return av == b.(value.String)
	case value.Bool:
		return av == b.(value.Bool)
	case value.RatValue:
		return av.Rat.Equal(b.(value.RatValue).Rat)
	default:
		return a.String() == b.String()
	}
}

func (ev *Evaluator) evalBinary(scope *value.Scope, b *ast.BinaryExpr) (value.Value, error) {
	left, err := ev.evalExpr(scope, b.Left)
	if err != nil {
		return nil, err
	}
	right, err := ev.evalExpr(scope, b.Right)
	if err != nil {
		return nil, err
	}
	switch b.Op {
	case token.PLUS:
		return ev.add(left, right, b.Pos())
	case token.MINUS:
		return ev.sub(left, right, b.Pos())
	case token.STAR:
		return ev.mul(left, right, b.Pos())
	case token.SLASH:
		return ev.div(left, right, b.Pos())
	case token.PERCENT:
		return numericOp(left, right, func(a, c float64) float64 {
			if c == 0 {
				return 0
			}
			return float64(int64(a) % int64(c))
		})
	case token.EQ:
		return value.Bool(valuesEqual(left, right)), nil
	case token.NEQ:
		return value.Bool(!valuesEqual(left, right)), nil
	case token.LT, token.LE, token.GT, token.GE:
		return compareOp(left, right, b.Op)
	case token.AND:
		return value.Bool(left.Truthy() && right.Truthy()), nil
	case token.OR:
		return value.Bool(left.Truthy() || right.Truthy()), nil
	case token.COALESCE:
		if left.Kind() == value.KindNull {
			return right, nil
		}
		return left, nil
	default:
		return nil, rtErr("invalid-operation", b.Pos(), "unsupported operator %s", b.Op)
	}
}

// add implements `Pos + Dur`, `Dur + Dur`, `Number + Number`,
// `String + String` per spec.md §4.4/§4.5; `Pos + Pos` is rejected.
func (ev *Evaluator) add(left, right value.Value, pos token.Position) (value.Value, error) {
	if lp, ok := left.(value.PosValue); ok {
		if rd, ok := right.(value.RatValue); ok {
			return value.PosValue{Pos: lp.AddDur(rd.Rat)}, nil
		}
		if _, ok := right.(value.PosValue); ok {
			return nil, rtErr("pos-plus-pos", pos, "Pos + Pos is not defined")
		}
	}
	if rp, ok := right.(value.PosValue); ok {
		if ld, ok := left.(value.RatValue); ok {
			return value.PosValue{Pos: rp.AddDur(ld.Rat)}, nil
		}
	}
	if ls, ok := left.(value.String); ok {
		if rs, ok := right.(value.String); ok {
			return value.String(string(ls) + string(rs)), nil
		}
	}
	if lr, ok := left.(value.RatValue); ok {
		if rr, ok := right.(value.RatValue); ok {
			return value.RatValue{Rat: lr.Rat.Add(rr.Rat)}, nil
		}
	}
	return numericOp(left, right, func(a, b float64) float64 { return a + b })
}

func (ev *Evaluator) sub(left, right value.Value, pos token.Position) (value.Value, error) {
	if lp, ok := left.(value.PosValue); ok {
		if rd, ok := right.(value.RatValue); ok {
			return value.PosValue{Pos: lp.SubDur(rd.Rat)}, nil
		}
		if rp, ok := right.(value.PosValue); ok {
			return subPos(lp, rp, pos)
		}
	}
	if lr, ok := left.(value.RatValue); ok {
		if rr, ok := right.(value.RatValue); ok {
			return value.RatValue{Rat: lr.Rat.Sub(rr.Rat)}, nil
		}
	}
	return numericOp(left, right, func(a, b float64) float64 { return a - b })
}

// subPos implements `Pos - Pos -> Dur`, resolving both sides to rationals
// first when possible; a fully symbolic subtraction is rejected since
// the evaluator alone cannot resolve it without a meter map.
func subPos(a, b value.PosValue, pos token.Position) (value.Value, error) {
	if a.Kind == value.PosKindRat && b.Kind == value.PosKindRat {
		return value.RatValue{Rat: a.Rat.Sub(b.Rat)}, nil
	}
	return nil, rtErr("invalid-operation", pos, "cannot subtract symbolic positions before normalization")
}

func (ev *Evaluator) mul(left, right value.Value, pos token.Position) (value.Value, error) {
	if lr, ok := left.(value.RatValue); ok {
		if rn, ok := right.(value.Number); ok {
			return value.RatValue{Rat: lr.Rat.Mul(value.NewRat(int64(rn), 1))}, nil
		}
	}
	if rr, ok := right.(value.RatValue); ok {
		if ln, ok := left.(value.Number); ok {
			return value.RatValue{Rat: rr.Rat.Mul(value.NewRat(int64(ln), 1))}, nil
		}
	}
	return numericOp(left, right, func(a, b float64) float64 { return a * b })
}

func (ev *Evaluator) div(left, right value.Value, pos token.Position) (value.Value, error) {
	if lr, ok := left.(value.RatValue); ok {
		if rr, ok := right.(value.RatValue); ok {
			result, ok := lr.Rat.Div(rr.Rat)
			if !ok {
				return nil, rtErr("divide-by-zero", pos, "division by zero")
			}
			return value.RatValue{Rat: result}, nil
		}
	}
	// § 9's integer-to-rational coercion: `/` between two integer-valued
	// Numbers produces a Dur (Rat), not a float — checked here at the
	// operator, not at literal evaluation.
	if ln, ok := left.(value.Number); ok {
		if rn, ok := right.(value.Number); ok && isWholeNumber(ln) && isWholeNumber(rn) {
			if rn == 0 {
				return nil, rtErr("divide-by-zero", pos, "division by zero")
			}
			return value.RatValue{Rat: value.NewRat(int64(ln), int64(rn))}, nil
		}
	}
	rf := toFloat(right)
	if rf == 0 {
		return nil, rtErr("divide-by-zero", pos, "division by zero")
	}
	return value.Number(toFloat(left) / rf), nil
}

func isWholeNumber(n value.Number) bool {
	f := float64(n)
	return f == math.Trunc(f)
}

func toFloat(v value.Value) float64 {
	switch n := v.(type) {
	case value.Number:
		return float64(n)
	case value.RatValue:
		return n.Rat.Float64()
	default:
		return 0
	}
}

func numericOp(left, right value.Value, f func(a, b float64) float64) (value.Value, error) {
	return value.Number(f(toFloat(left), toFloat(right))), nil
}

func compareOp(left, right value.Value, op token.Type) (value.Value, error) {
	a, b := toFloat(left), toFloat(right)
	switch op {
	case token.LT:
		return value.Bool(a < b), nil
	case token.LE:
		return value.Bool(a <= b), nil
	case token.GT:
		return value.Bool(a > b), nil
	case token.GE:
		return value.Bool(a >= b), nil
	default:
		return value.Bool(false), nil
	}
}

func (ev *Evaluator) evalCall(scope *value.Scope, c *ast.CallExpr) (value.Value, error) {
	callee, err := ev.evalExpr(scope, c.Callee)
	if err != nil {
		return nil, err
	}
	fn, ok := callee.(value.Function)
	if !ok {
		return nil, rtErr("non-callable", c.Pos(), "value is not callable")
	}
	var positional []value.Value
	named := make(map[string]value.Value)
	for _, a := range c.Args {
		v, err := ev.evalExpr(scope, a.Value)
		if err != nil {
			return nil, err
		}
		if a.Name == "" {
			positional = append(positional, v)
		} else {
			named[a.Name] = v
		}
	}
	return ev.call(fn, positional, named, c.Pos())
}
