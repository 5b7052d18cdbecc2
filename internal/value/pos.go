package value

// PosRef is a symbolic position expressed as `<bar>:<beat>`, resolved
// against a score's meter map only at IR-normalization time (spec.md
// §3.2, §4.6).
type PosRef struct {
	Bar  int
	Beat int
}

// PosExpr is a symbolic position plus an additive duration offset,
// produced when `Pos + Dur` is applied to a still-symbolic base
// (spec.md §4.5: "the result is a PosExpr carrying the offset
// additively so that multiple additions combine").
type PosExpr struct {
	Base   PosRef
	Offset Rat
}

// Add folds another offset into this PosExpr in place of allocating a
// new symbolic layer, so repeated `pos + dur + dur` stays flat.
func (p PosExpr) Add(d Rat) PosExpr {
	return PosExpr{Base: p.Base, Offset: p.Offset.Add(d)}
}

// Pos is the tagged union described by spec.md §3.2's PosAtom: either an
// already-resolved Rat, a symbolic PosRef, or a symbolic PosExpr.
type Pos struct {
	Kind PosKind
	Rat  Rat
	Ref  PosRef
	Expr PosExpr
}

type PosKind int

const (
	PosKindRat PosKind = iota
	PosKindRef
	PosKindExpr
)

func PosFromRat(r Rat) Pos   { return Pos{Kind: PosKindRat, Rat: r} }
func PosFromRef(ref PosRef) Pos { return Pos{Kind: PosKindRef, Ref: ref} }
func PosFromExpr(e PosExpr) Pos { return Pos{Kind: PosKindExpr, Expr: e} }

// AddDur implements `Pos + Dur → Pos` from spec.md §4.4/§4.5.
func (p Pos) AddDur(d Rat) Pos {
	switch p.Kind {
	case PosKindRat:
		return PosFromRat(p.Rat.Add(d))
	case PosKindRef:
		return PosFromExpr(PosExpr{Base: p.Ref, Offset: d})
	default: // PosKindExpr
		return PosFromExpr(p.Expr.Add(d))
	}
}

// SubDur implements `Pos - Dur → Pos`.
func (p Pos) SubDur(d Rat) Pos { return p.AddDur(d.Neg()) }

// String renders whichever form the position currently holds.
func (p Pos) String() string {
	switch p.Kind {
	case PosKindRat:
		return p.Rat.String()
	case PosKindRef:
		return ratPosRefString(p.Ref)
	default:
		return ratPosRefString(p.Expr.Base) + "+" + p.Expr.Offset.String()
	}
}

func ratPosRefString(r PosRef) string {
	return RatFromInt(int64(r.Bar)).String() + ":" + RatFromInt(int64(r.Beat)).String()
}
