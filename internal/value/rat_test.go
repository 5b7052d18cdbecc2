package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRatReducesAndAdds(t *testing.T) {
	r := NewRat(2, 4)
	assert.Equal(t, int64(1), r.N)
	assert.Equal(t, int64(2), r.D)

	sum := NewRat(1, 2).Add(NewRat(1, 4))
	assert.Equal(t, NewRat(3, 4), sum)
}

func TestRatDivByZeroIsRejected(t *testing.T) {
	_, ok := NewRat(1, 2).Div(NewRat(0, 1))
	assert.False(t, ok)
}

func TestRatNegativeDenominatorNormalizes(t *testing.T) {
	r := NewRat(1, -2)
	assert.Equal(t, int64(-1), r.N)
	assert.Equal(t, int64(2), r.D)
}

func TestPosAddDurOnSymbolicBaseProducesPosExpr(t *testing.T) {
	p := PosFromRef(PosRef{Bar: 2, Beat: 1})
	p2 := p.AddDur(NewRat(1, 4)).AddDur(NewRat(1, 4))
	assert.Equal(t, PosKindExpr, p2.Kind)
	assert.Equal(t, NewRat(1, 2), p2.Expr.Offset)
	assert.Equal(t, PosRef{Bar: 2, Beat: 1}, p2.Expr.Base)
}

func TestClipConcatAssociativity(t *testing.T) {
	a := Clip{Events: []ClipEvent{{Kind: EventNote, Start: RatFromInt(0), Dur: NewRat(1, 4)}}}
	b := Clip{Events: []ClipEvent{{Kind: EventNote, Start: RatFromInt(0), Dur: NewRat(1, 4)}}}
	c := Clip{Events: []ClipEvent{{Kind: EventNote, Start: RatFromInt(0), Dur: NewRat(1, 4)}}}

	left := Concat(Concat(a, b), c)
	right := Concat(a, Concat(b, c))
	assert.Equal(t, len(left.Events), len(right.Events))
	for i := range left.Events {
		assert.True(t, left.Events[i].Start.Equal(right.Events[i].Start))
	}
}

func TestRepeatLinearity(t *testing.T) {
	quarter := NewRat(1, 4)
	c := Clip{Events: []ClipEvent{{Kind: EventNote, Start: RatFromInt(0), Dur: quarter}}, Length: &quarter}
	r := Repeat(c, 4)
	assert.True(t, r.Length.Equal(NewRat(1, 1)))

	empty := Repeat(c, 0)
	assert.True(t, empty.Length.IsZero())
}

func TestTransposeComposition(t *testing.T) {
	c := Clip{Events: []ClipEvent{{Kind: EventNote, Start: RatFromInt(0), Dur: NewRat(1, 4), Pitch: Pitch{MIDI: 60}}}}
	left := Transpose(Transpose(c, 2), 3)
	right := Transpose(c, 5)
	assert.Equal(t, right.Events[0].Pitch.MIDI, left.Events[0].Pitch.MIDI)
}

func TestReverseInvolution(t *testing.T) {
	length := NewRat(1, 1)
	c := Clip{
		Length: &length,
		Events: []ClipEvent{
			{Kind: EventNote, Start: RatFromInt(0), Dur: NewRat(1, 4), Pitch: Pitch{MIDI: 60}},
			{Kind: EventNote, Start: NewRat(1, 4), Dur: NewRat(1, 4), Pitch: Pitch{MIDI: 64}},
		},
	}
	twice := Reverse(Reverse(c))
	assert.Equal(t, len(c.Events), len(twice.Events))
	for i := range c.Events {
		assert.Equal(t, c.Events[i].Pitch.MIDI, twice.Events[i].Pitch.MIDI)
		assert.True(t, c.Events[i].Start.Equal(twice.Events[i].Start))
	}
}
