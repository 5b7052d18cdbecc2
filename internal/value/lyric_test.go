package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegmentLyricSplitsWordsAndStripsMarkers(t *testing.T) {
	lyric := SegmentLyric("All# good friends")
	assert.Equal(t, "All# good friends", lyric.Text)
	require.Len(t, lyric.Tokens, 3)
	assert.Equal(t, "All", lyric.Tokens[0].Text)
	assert.Equal(t, "good", lyric.Tokens[1].Text)
	assert.Equal(t, "friends", lyric.Tokens[2].Text)
}

func TestSegmentLyricHandlesEmptyInput(t *testing.T) {
	lyric := SegmentLyric("")
	assert.Empty(t, lyric.Tokens)
	assert.Equal(t, "", lyric.Text)
}

func TestSegmentLyricConvertsRockBandHyphenMarker(t *testing.T) {
	lyric := SegmentLyric("Ex= Girl- friend")
	require.NotEmpty(t, lyric.Tokens)
	for _, tok := range lyric.Tokens {
		assert.NotContains(t, tok.Text, "=")
	}
}
