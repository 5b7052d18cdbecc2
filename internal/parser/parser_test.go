package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tako0614/takomusic/internal/ast"
	"github.com/tako0614/takomusic/internal/diag"
)

func mustParse(t *testing.T, src string) (*ast.Program, *diag.Bag) {
	t.Helper()
	bag := diag.NewBag()
	prog, err := Parse(src, "test.tako", bag)
	require.NoError(t, err)
	return prog, bag
}

func TestParseFnDecl(t *testing.T) {
	prog, bag := mustParse(t, `fn add(a: Number, b: Number) -> Number { return a + b; }`)
	require.False(t, bag.HasErrors(), bag.All())
	require.Len(t, prog.Body, 1)
	fn, ok := prog.Body[0].(*ast.FnDecl)
	require.True(t, ok)
	assert.Equal(t, "add", fn.Name)
	require.Len(t, fn.Params, 2)
	assert.Equal(t, "Number", fn.Params[0].Type)
	assert.Equal(t, "Number", fn.ReturnType)
	require.Len(t, fn.Body.Stmts, 1)
	ret, ok := fn.Body.Stmts[0].(*ast.ReturnStmt)
	require.True(t, ok)
	bin, ok := ret.Value.(*ast.BinaryExpr)
	require.True(t, ok)
	_, isIdentA := bin.Left.(*ast.Identifier)
	assert.True(t, isIdentA)
}

func TestParseConstAndImport(t *testing.T) {
	prog, bag := mustParse(t, "import core from \"std:core\";\nconst x = 1 + 2 * 3;")
	require.False(t, bag.HasErrors(), bag.All())
	require.Len(t, prog.Imports, 1)
	assert.Equal(t, "std:core", prog.Imports[0].From)
	require.Len(t, prog.Body, 1)
	decl, ok := prog.Body[0].(*ast.ConstDecl)
	require.True(t, ok)
	assert.Equal(t, "x", decl.Target.Name)
	bin, ok := decl.Init.(*ast.BinaryExpr)
	require.True(t, ok)
	_, isMulRight := bin.Right.(*ast.BinaryExpr)
	assert.True(t, isMulRight, "multiplication should bind tighter than addition")
}

func TestParseScoreExpr(t *testing.T) {
	src := `
const s = score {
	meta { title: "Song" }
	tempo { 0 -> 120; }
	meter { 0 -> 4/4; }
	sound "piano" kind instrument { program: 0 }
	track "Lead" role instrument sound "piano" {
		place 0 clip { note(C4, q); rest(q); };
	}
};`
	prog, bag := mustParse(t, src)
	require.False(t, bag.HasErrors(), bag.All())
	require.Len(t, prog.Body, 1)
	decl := prog.Body[0].(*ast.ConstDecl)
	score, ok := decl.Init.(*ast.ScoreExpr)
	require.True(t, ok)
	require.Len(t, score.Items, 5)
	track, ok := score.Items[4].(*ast.TrackDeclItem)
	require.True(t, ok)
	assert.Equal(t, "Lead", track.Name)
	require.Len(t, track.Placements, 1)
	clip, ok := track.Placements[0].Clip.(*ast.ClipExpr)
	require.True(t, ok)
	require.Len(t, clip.Stmts, 2)
	note, ok := clip.Stmts[0].(*ast.NoteStmt)
	require.True(t, ok)
	pitch, ok := note.Pitch.(*ast.PitchLit)
	require.True(t, ok)
	assert.Equal(t, 60, pitch.MIDI)
}

func TestParseMatchExpr(t *testing.T) {
	prog, bag := mustParse(t, `const y = match (x) { 1 -> "one", 2..4 -> "few", else -> "many" };`)
	require.False(t, bag.HasErrors(), bag.All())
	decl := prog.Body[0].(*ast.ConstDecl)
	m, ok := decl.Init.(*ast.MatchExpr)
	require.True(t, ok)
	require.Len(t, m.Arms, 3)
	assert.True(t, m.Arms[1].RangeEq)
	assert.True(t, m.Arms[2].Default)
}

func TestParseErrorRecoversAndContinues(t *testing.T) {
	prog, bag := mustParse(t, "fn broken( { } fn ok() { return 1; }")
	assert.True(t, bag.HasErrors())
	require.Len(t, prog.Body, 2)
	fn, ok := prog.Body[1].(*ast.FnDecl)
	require.True(t, ok)
	assert.Equal(t, "ok", fn.Name)
}
