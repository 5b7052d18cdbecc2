package midi

import (
	"testing"

	"github.com/tako0614/takomusic/internal/diag"
	"github.com/tako0614/takomusic/internal/ir"
	"github.com/tako0614/takomusic/legacy"
)

func sampleDoc() *ir.Document {
	dur := ir.Rat{N: 1, D: 4}
	return &ir.Document{
		Tako:     ir.Tako{IRVersion: 4},
		TempoMap: []ir.TempoPoint{{At: ir.Rat{N: 0, D: 1}, BPM: 120, Unit: ir.Rat{N: 1, D: 4}}},
		MeterMap: []ir.MeterPoint{{At: ir.Rat{N: 0, D: 1}, Numerator: 4, Denominator: 4}},
		Sounds: []ir.SoundDecl{
			{ID: "piano", Kind: "instrument", Family: "piano"},
			{ID: "kit", Kind: "drumKit"},
		},
		Tracks: []ir.Track{
			{
				Name: "Lead", Role: "Instrument", Sound: "piano",
				Placements: []ir.Placement{{Clip: ir.ClipLike{Events: []ir.Event{
					{Type: "note", Start: ir.Rat{N: 0, D: 1}, Dur: &dur, Pitch: &ir.Pitch{MIDI: 60}},
					{Type: "note", Start: ir.Rat{N: 1, D: 4}, Dur: &dur, Pitch: &ir.Pitch{MIDI: 64}, Lyric: "la"},
				}}}},
			},
			{
				Name: "Drums", Role: "Drums", Sound: "kit",
				Placements: []ir.Placement{{Clip: ir.ClipLike{Events: []ir.Event{
					{Type: "drumHit", Start: ir.Rat{N: 0, D: 1}, Dur: &dur, Key: "kick"},
					{Type: "drumHit", Start: ir.Rat{N: 0, D: 1}, Dur: &dur, Key: "unknownPad"},
				}}}},
			},
		},
		Markers: []ir.Marker{{Pos: ir.Rat{N: 0, D: 1}, Kind: "section", Label: "Intro"}},
	}
}

func TestRenderProducesOneTrackPerInstrumentPlusConductorAndMarkers(t *testing.T) {
	doc := sampleDoc()
	bag := diag.NewBag()
	out, err := Render(doc, bag)
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	// conductor + lead + drums + markers
	if len(out.Tracks) != 4 {
		t.Errorf("len(out.Tracks) = %d, want 4", len(out.Tracks))
	}
}

func TestRenderWarnsOnUnmappedDrumKey(t *testing.T) {
	doc := sampleDoc()
	bag := diag.NewBag()
	if _, err := Render(doc, bag); err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	found := false
	for _, d := range bag.All() {
		if d.Code == "unmapped-drum-key" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected an unmapped-drum-key diagnostic, got %v", bag.All())
	}
}

func TestRenderRejectsEmptyDocument(t *testing.T) {
	if _, err := Render(&ir.Document{}, diag.NewBag()); err == nil {
		t.Error("expected an error for a document with no tracks")
	}
}

func TestRatToTicksConvertsWholeNotesTo1920(t *testing.T) {
	if got := ratToTicks(ir.Rat{N: 1, D: 1}); got != 1920 {
		t.Errorf("ratToTicks(1/1) = %d, want 1920", got)
	}
	if got := ratToTicks(ir.Rat{N: 1, D: 4}); got != 480 {
		t.Errorf("ratToTicks(1/4) = %d, want 480", got)
	}
}

func TestDrumKeyPrefersSoundDeclaredMapping(t *testing.T) {
	sound := ir.SoundDecl{DrumKeys: map[string]int{"kick": 40}}
	key, ok := drumKeyToGM(sound, "kick")
	if !ok || key != 40 {
		t.Errorf("drumKeyToGM(declared) = (%d, %v), want (40, true)", key, ok)
	}

	key, ok = drumKeyToGM(ir.SoundDecl{}, "kick")
	if !ok || key != legacy.BassDrum1 {
		t.Errorf("drumKeyToGM(fallback) = (%d, %v), want (%d, true)", key, ok, legacy.BassDrum1)
	}
}
