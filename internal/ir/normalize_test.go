package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tako0614/takomusic/internal/diag"
	"github.com/tako0614/takomusic/internal/value"
)

func TestNormalizeResolvesBarBeatAgainstMeterMap(t *testing.T) {
	segs := []meterSeg{{at: value.RatFromInt(0), numerator: 4, denominator: 4}}
	pos := resolvePosRef(segs, value.PosRef{Bar: 2, Beat: 1})
	assert.True(t, pos.Equal(value.RatFromInt(1)), pos.String())
}

func TestNormalizePlacementShiftsEventsByAt(t *testing.T) {
	sc := value.Score{
		Tracks: []value.Track{
			{
				Name: "Lead", RoleOf: value.RoleInstrument, Sound: "piano",
				Placements: []value.Placement{
					{
						At: value.PosFromRat(value.RatFromInt(1)),
						Clip: value.Clip{
							Events: []value.ClipEvent{
								{Kind: value.EventNote, Start: value.RatFromInt(0), Dur: value.NewRat(1, 4), Pitch: value.Pitch{MIDI: 60}},
							},
						},
					},
				},
			},
		},
	}
	bag := diag.NewBag()
	doc := Normalize(sc, bag)
	require.Len(t, doc.Tracks, 1)
	require.Len(t, doc.Tracks[0].Placements, 1)
	events := doc.Tracks[0].Placements[0].Clip.Events
	require.Len(t, events, 1)
	assert.Equal(t, Rat{N: 1, D: 1}, events[0].Start)
}

func TestNormalizeWarnsOnOverlap(t *testing.T) {
	sc := value.Score{
		Tracks: []value.Track{
			{
				Name: "Lead", RoleOf: value.RoleInstrument, Sound: "piano",
				Placements: []value.Placement{
					{
						At: value.PosFromRat(value.RatFromInt(0)),
						Clip: value.Clip{
							Events: []value.ClipEvent{
								{Kind: value.EventNote, Start: value.RatFromInt(0), Dur: value.NewRat(1, 2), Pitch: value.Pitch{MIDI: 60}},
								{Kind: value.EventNote, Start: value.NewRat(1, 4), Dur: value.NewRat(1, 2), Pitch: value.Pitch{MIDI: 62}},
							},
						},
					},
				},
			},
		},
	}
	bag := diag.NewBag()
	Normalize(sc, bag)
	found := false
	for _, d := range bag.All() {
		if d.Code == "overlapping-events" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestMarshalProducesIRVersion4(t *testing.T) {
	doc := &Document{Tako: Tako{IRVersion: 4}}
	data, err := Marshal(doc)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"irVersion": 4`)
}
