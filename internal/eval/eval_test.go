package eval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tako0614/takomusic/internal/diag"
	"github.com/tako0614/takomusic/internal/resolver"
	"github.com/tako0614/takomusic/internal/source"
	"github.com/tako0614/takomusic/internal/stdlib"
	"github.com/tako0614/takomusic/internal/value"
)

func run(t *testing.T, src string) (value.Value, *diag.Bag) {
	t.Helper()
	provider := source.NewComposite(stdlib.NewProvider(), source.NewMapProvider(nil))
	bag := diag.NewBag()
	mods := resolver.Resolve(src, "main", provider, bag)
	require.False(t, bag.HasErrors(), bag.All())
	ev := NewEvaluator(mods, bag)
	v, err := ev.Evaluate(mods, "main")
	require.NoError(t, err)
	return v, bag
}

func TestEvalArithmeticRatDivision(t *testing.T) {
	v, _ := run(t, `export fn main() -> Rat { return 3/2; }`)
	rv, ok := v.(value.RatValue)
	require.True(t, ok)
	assert.Equal(t, int64(3), rv.N)
	assert.Equal(t, int64(2), rv.D)
}

func TestEvalDivideByZeroHalts(t *testing.T) {
	provider := source.NewComposite(stdlib.NewProvider(), source.NewMapProvider(nil))
	bag := diag.NewBag()
	mods := resolver.Resolve(`export fn main() -> Rat { return 1/0; }`, "main", provider, bag)
	ev := NewEvaluator(mods, bag)
	_, err := ev.Evaluate(mods, "main")
	require.Error(t, err)
	rerr, ok := err.(*RuntimeError)
	require.True(t, ok)
	assert.Equal(t, "divide-by-zero", rerr.Code)
}

func TestEvalClosureAndRecursion(t *testing.T) {
	v, _ := run(t, `
		fn fact(n) -> Number {
			if (n <= 1) { return 1; }
			return n * fact(n - 1);
		}
		export fn main() -> Number { return fact(5); }
	`)
	assert.Equal(t, value.Number(120), v)
}

func TestEvalStackOverflowIsReported(t *testing.T) {
	provider := source.NewComposite(stdlib.NewProvider(), source.NewMapProvider(nil))
	bag := diag.NewBag()
	mods := resolver.Resolve(`
		fn loop(n) -> Number { return loop(n + 1); }
		export fn main() -> Number { return loop(0); }
	`, "main", provider, bag)
	ev := NewEvaluator(mods, bag)
	_, err := ev.Evaluate(mods, "main")
	require.Error(t, err)
	rerr, ok := err.(*RuntimeError)
	require.True(t, ok)
	assert.Equal(t, "stack-overflow", rerr.Code)
}

func TestEvalMissingArgumentIsDeterministic(t *testing.T) {
	provider := source.NewComposite(stdlib.NewProvider(), source.NewMapProvider(nil))
	bag := diag.NewBag()
	mods := resolver.Resolve(`
		fn needsBoth(a, b) -> Number { return a + b; }
		export fn main() -> Number { return needsBoth(1); }
	`, "main", provider, bag)
	ev := NewEvaluator(mods, bag)
	_, err := ev.Evaluate(mods, "main")
	require.Error(t, err)
	rerr, ok := err.(*RuntimeError)
	require.True(t, ok)
	assert.Equal(t, "missing-argument", rerr.Code)
}

func TestEvalForLoopOverInclusiveRange(t *testing.T) {
	v, _ := run(t, `
		export fn main() -> Number {
			let total = 0;
			for (i in 1..4) { total = total + i; }
			return total;
		}
	`)
	assert.Equal(t, value.Number(10), v)
}

func TestEvalScoreConstructsTracksAndSounds(t *testing.T) {
	v, _ := run(t, `
		export fn main() -> Score {
			return score {
				meta { title: "Demo" }
				tempo { 0 -> 120; }
				meter { 0 -> 4/4; }
				sound "piano" kind instrument { label: "Grand" }
				track "Lead" role instrument sound "piano" {
					place 0 clip { note(C4, q); rest(q); };
				}
			};
		}
	`)
	sc, ok := v.(value.Score)
	require.True(t, ok)
	assert.Equal(t, "Demo", sc.Meta.Title)
	require.Len(t, sc.Sounds, 1)
	assert.Equal(t, "piano", sc.Sounds[0].ID)
	require.Len(t, sc.Tracks, 1)
	require.Len(t, sc.Tracks[0].Placements, 1)
	clip := sc.Tracks[0].Placements[0].Clip
	require.Len(t, clip.Events, 1)
	assert.Equal(t, value.EventNote, clip.Events[0].Kind)
	assert.Equal(t, 60, clip.Events[0].Pitch.MIDI)
	require.NotNil(t, clip.Length)
	assert.Equal(t, value.NewRat(1, 2), *clip.Length)
}

func TestEvalClipCursorAdvancesThroughRestAndNote(t *testing.T) {
	v, _ := run(t, `
		export fn main() -> Clip {
			return clip { rest(q); note(C4, q); };
		}
	`)
	clip, ok := v.(value.Clip)
	require.True(t, ok)
	require.Len(t, clip.Events, 1)
	assert.True(t, clip.Events[0].Start.Equal(value.NewRat(1, 4)))
}

func TestEvalVocalLyricSegmentsWords(t *testing.T) {
	v, bag := run(t, `
		import lyric from "std:vocal";
		export fn main() -> Lyric {
			return lyric("Hello world");
		}
	`)
	require.False(t, bag.HasErrors(), bag.All())
	lyr, ok := v.(value.Lyric)
	require.True(t, ok)
	assert.Equal(t, "Hello world", lyr.Text)
	require.Len(t, lyr.Tokens, 2)
	assert.Equal(t, "Hello", lyr.Tokens[0].Text)
	assert.Equal(t, "world", lyr.Tokens[1].Text)
}

func TestEvalTemplateLiteralFormatsIntegerSumWithoutDecimals(t *testing.T) {
	v, bag := run(t, `
		export fn main() -> String {
			return "Price: \$${5 + 5}";
		}
	`)
	require.False(t, bag.HasErrors(), bag.All())
	s, ok := v.(value.String)
	require.True(t, ok)
	assert.Equal(t, "Price: $10", string(s))
}

func TestEvalTripletScalesAutomationSpanInsteadOfPanicking(t *testing.T) {
	v, bag := run(t, `
		import linear from "std:curves";
		export fn main() -> Clip {
			return clip {
				triplet(3, inTime: 1) {
					automation("volume", linear(0, 1));
				}
			};
		}
	`)
	require.False(t, bag.HasErrors(), bag.All())
	clip, ok := v.(value.Clip)
	require.True(t, ok)
	require.Len(t, clip.Events, 1)
	assert.Equal(t, value.EventAutomation, clip.Events[0].Kind)
}
