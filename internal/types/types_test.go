package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tako0614/takomusic/internal/diag"
	"github.com/tako0614/takomusic/internal/resolver"
	"github.com/tako0614/takomusic/internal/source"
	"github.com/tako0614/takomusic/internal/stdlib"
)

func checkSource(t *testing.T, src string) *diag.Bag {
	t.Helper()
	provider := source.NewComposite(stdlib.NewProvider(), source.NewMapProvider(nil))
	bag := diag.NewBag()
	mods := resolver.Resolve(src, "main", provider, bag)
	NewChecker(bag).Check(mods)
	return bag
}

func hasCode(bag *diag.Bag, code string) bool {
	for _, d := range bag.All() {
		if d.Code == code {
			return true
		}
	}
	return false
}

func TestCheckUndefinedSymbol(t *testing.T) {
	bag := checkSource(t, `export fn main() -> Number { return undeclaredName; }`)
	require.True(t, hasCode(bag, "undefined-symbol"))
}

func TestCheckAssignToConstIsRejected(t *testing.T) {
	bag := checkSource(t, `export fn main() -> Number { const x = 1; x = 2; return x; }`)
	assert.True(t, hasCode(bag, "type-mismatch"))
}

func TestCheckLetReassignIsAccepted(t *testing.T) {
	bag := checkSource(t, `export fn main() -> Number { let x = 1; x = 2; return x; }`)
	assert.False(t, hasCode(bag, "type-mismatch"))
}

func TestCheckRestRequiresDuration(t *testing.T) {
	bag := checkSource(t, `export fn main() -> Score {
		return score {
			track "T" {
				place 0 clip { rest(2:1); }
			}
		};
	}`)
	assert.True(t, hasCode(bag, "expected-duration"))
}

func TestCheckUnknownSoundOnTrack(t *testing.T) {
	bag := checkSource(t, `export fn main() -> Score {
		return score {
			track "T" sound "missing" { place 0 clip { note(C4, q); } }
		};
	}`)
	assert.True(t, hasCode(bag, "unknown-sound"))
}

func TestCheckDuplicateSoundID(t *testing.T) {
	bag := checkSource(t, `export fn main() -> Score {
		return score {
			sound "p" kind instrument { program: 0 }
			sound "p" kind instrument { program: 1 }
		};
	}`)
	assert.True(t, hasCode(bag, "duplicate-sound-id"))
}

func TestCheckTrackMayReferenceSoundDeclaredLaterInScoreBody(t *testing.T) {
	bag := checkSource(t, `export fn main() -> Score {
		return score {
			track "T" sound "p" { place 0 clip { note(C4, q); } }
			sound "p" kind instrument { program: 0 }
		};
	}`)
	assert.False(t, hasCode(bag, "unknown-sound"))
}
