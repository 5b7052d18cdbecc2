package value

import (
	"strings"

	"github.com/clipperhouse/uax29/v2/words"
)

// cleanRockBandMarker converts the "=" stand-in for a literal hyphen
// back to "-", and trims a trailing non-pitched/range-divider marker
// (#, ^, %) at the very end of the text, the Rock Band vocal-chart
// marker cleanup. A marker left attached to an
// interior word is instead dropped below once uax29 segments it off as
// its own word-boundary token.
func cleanRockBandMarker(s string) string {
	s = strings.TrimSuffix(s, "#")
	s = strings.TrimSuffix(s, "^")
	s = strings.TrimSuffix(s, "%")
	return strings.ReplaceAll(s, "=", "-")
}

func hasLetterOrDigit(s string) bool {
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return true
		}
	}
	return false
}

// SegmentLyric Unicode-word-segments lyric text (clipperhouse/uax29's
// word boundary algorithm) into timed LyricToken values, after the Rock
// Band hyphen/marker cleanup above; tokens made only of punctuation are
// dropped, and syllables are not rejoined. Tokens are spaced
// evenly across one whole note; a vocal track re-times them once
// attached to notes.
func SegmentLyric(text string) Lyric {
	cleaned := cleanRockBandMarker(text)

	var syllables []string
	seg := words.NewSegmenter([]byte(cleaned))
	for seg.Next() {
		w := strings.TrimSpace(string(seg.Value()))
		if w == "" || !hasLetterOrDigit(w) {
			continue
		}
		syllables = append(syllables, w)
	}

	tokens := make([]LyricToken, len(syllables))
	for i, w := range syllables {
		tokens[i] = LyricToken{Text: w, Offset: NewRat(int64(i), int64(len(syllables)))}
	}
	return Lyric{Text: text, Tokens: tokens}
}
