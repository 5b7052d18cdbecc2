package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/tako0614/takomusic/internal/diag"
	"github.com/tako0614/takomusic/internal/ir"
)

func TestDiagnosticsRendersCodeAndMessage(t *testing.T) {
	bag := diag.NewBag()
	bag.Error("bad-pitch", "main.tako", &diag.Position{Line: 2, Column: 3}, "pitch out of range")
	bag.Warning("unmapped-drum-key", "", nil, "no GM mapping")

	var buf bytes.Buffer
	Diagnostics(&buf, bag)
	out := buf.String()

	if !strings.Contains(out, "bad-pitch") {
		t.Errorf("output missing diagnostic code: %q", out)
	}
	if !strings.Contains(out, "pitch out of range") {
		t.Errorf("output missing message: %q", out)
	}
	if !strings.Contains(out, "main.tako:2:3") {
		t.Errorf("output missing location: %q", out)
	}
	if !strings.Contains(out, "no GM mapping") {
		t.Errorf("output missing warning message: %q", out)
	}
}

func TestPianoRollRendersOneLinePerTrack(t *testing.T) {
	dur := ir.Rat{N: 1, D: 4}
	doc := &ir.Document{
		Tracks: []ir.Track{
			{Name: "Lead", Role: "Instrument", Sound: "piano", Placements: []ir.Placement{
				{Clip: ir.ClipLike{Events: []ir.Event{{Type: "note", Start: ir.Rat{N: 0, D: 1}, Dur: &dur}}}},
			}},
			{Name: "Drums", Role: "Drums", Sound: "kit"},
		},
	}

	var buf bytes.Buffer
	PianoRoll(&buf, doc, 16)
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("len(lines) = %d, want 2", len(lines))
	}
	if !strings.Contains(lines[0], "Lead") {
		t.Errorf("first line missing track name: %q", lines[0])
	}
	if !strings.Contains(lines[1], "Drums") {
		t.Errorf("second line missing track name: %q", lines[1])
	}
}

func TestTrackColorVariesByIndex(t *testing.T) {
	a := trackColor(0, 4)
	b := trackColor(1, 4)
	if a.Hex() == b.Hex() {
		t.Errorf("expected distinct colors for different track indices, got %s for both", a.Hex())
	}
}
