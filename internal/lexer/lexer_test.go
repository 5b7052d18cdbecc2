package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tako0614/takomusic/internal/token"
)

func typesOf(t *testing.T, toks []token.Token) []token.Type {
	t.Helper()
	var out []token.Type
	for _, tok := range toks {
		out = append(out, tok.Type)
	}
	return out
}

func TestTokenizeKeywordsAndPunctuators(t *testing.T) {
	toks, err := Tokenize(`fn main() { return 1 + 2; }`, "test.tako")
	require.NoError(t, err)
	assert.Equal(t, []token.Type{
		token.FN, token.IDENT, token.LPAREN, token.RPAREN, token.LBRACE,
		token.RETURN, token.INT, token.PLUS, token.INT, token.SEMI, token.RBRACE,
		token.EOF,
	}, typesOf(t, toks))
}

func TestTokenizePitchLiteral(t *testing.T) {
	cases := []struct {
		src  string
		midi int
	}{
		{"C4", 60},
		{"D#5", 75},
		{"Eb-1", 3},
		{"A0", 21},
	}
	for _, c := range cases {
		toks, err := Tokenize(c.src, "t")
		require.NoError(t, err)
		require.Equal(t, token.PITCH, toks[0].Type, c.src)
		assert.Equal(t, c.midi, toks[0].PitchMIDI, c.src)
	}
}

func TestTokenizeDurationLiteral(t *testing.T) {
	cases := []struct {
		src string
		num int64
		den int64
	}{
		{"q", 1, 4},
		{"q.", 3, 8},
		{"q..", 7, 16},
		{"e", 1, 8},
		{"w", 1, 1},
	}
	for _, c := range cases {
		toks, err := Tokenize(c.src, "t")
		require.NoError(t, err)
		require.Equal(t, token.DURATION, toks[0].Type, c.src)
		assert.Equal(t, c.num, toks[0].DurNum, c.src)
		assert.Equal(t, c.den, toks[0].DurDen, c.src)
	}
}

func TestTokenizeBarBeat(t *testing.T) {
	toks, err := Tokenize("2:1", "t")
	require.NoError(t, err)
	require.Equal(t, token.BARBEAT, toks[0].Type)
	assert.Equal(t, 2, toks[0].BarBeatBar)
	assert.Equal(t, 1, toks[0].BarBeatVal)
}

func TestTokenizeRatioIsNotBarBeat(t *testing.T) {
	toks, err := Tokenize("3/2", "t")
	require.NoError(t, err)
	assert.Equal(t, []token.Type{token.INT, token.SLASH, token.INT, token.EOF}, typesOf(t, toks))
}

func TestTokenizeStringEscapes(t *testing.T) {
	toks, err := Tokenize(`"a\nb\tc\"d"`, "t")
	require.NoError(t, err)
	require.Equal(t, token.STRING, toks[0].Type)
	assert.Equal(t, "a\nb\tc\"d", toks[0].Literal)
}

func TestTokenizeTemplateLiteral(t *testing.T) {
	toks, err := Tokenize(`"Price: \$${5 + 5}"`, "t")
	require.NoError(t, err)
	require.Equal(t, token.TEMPLATE, toks[0].Type)
	require.Len(t, toks[0].Template, 2)
	assert.Equal(t, "Price: $", toks[0].Template[0].Static)
	assert.Equal(t, "5 + 5", toks[0].Template[0].Expr)
	assert.Equal(t, "", toks[0].Template[1].Static)
}

func TestTokenizeUnterminatedString(t *testing.T) {
	_, err := Tokenize(`"abc`, "t")
	require.Error(t, err)
	lexErr, ok := err.(*LexError)
	require.True(t, ok)
	assert.Equal(t, "unterminated-string", lexErr.Code)
}

func TestTokenizeComments(t *testing.T) {
	toks, err := Tokenize("1 // comment\n/* block */ 2", "t")
	require.NoError(t, err)
	assert.Equal(t, []token.Type{token.INT, token.INT, token.EOF}, typesOf(t, toks))
}

func TestTokenizeOperators(t *testing.T) {
	toks, err := Tokenize("&& || ?? == != <= >= .. ..= -> !", "t")
	require.NoError(t, err)
	assert.Equal(t, []token.Type{
		token.AND, token.OR, token.COALESCE, token.EQ, token.NEQ,
		token.LE, token.GE, token.RANGE, token.RANGEEQ, token.ARROW, token.NOT,
		token.EOF,
	}, typesOf(t, toks))
}

func TestTokenizeIdentifierNotConfusedWithPitch(t *testing.T) {
	toks, err := Tokenize("Bass4", "t")
	require.NoError(t, err)
	require.Equal(t, token.IDENT, toks[0].Type)
	assert.Equal(t, "Bass4", toks[0].Literal)
}
