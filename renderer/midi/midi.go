// Package midi renders a normalized IR document (internal/ir) into a
// Standard MIDI File. It generalizes leafo-songtool's
// GeneralMidiExporter — which collected TrackInfo/MidiEvent structs
// from a parsed chart file and emitted them as a General MIDI file —
// to instead walk an ir.Document's tracks, placements and events.
// Where the teacher logged problems with log.Printf and kept going,
// this renderer reports an unmapped drum key or controller name as a
// warning on a diag.Bag, matching every earlier pipeline stage; a
// channel budget overrun is returned as an error.
package midi

import (
	"fmt"
	"sort"

	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/tako0614/takomusic/internal/diag"
	"github.com/tako0614/takomusic/internal/ir"
)

// ticksPerQuarter is the MIDI file's time division. 480 matches the
// resolution leafo-songtool's exporter inherited from Rock Band MIDI
// sources; a whole note is therefore 1920 ticks.
const ticksPerQuarter = 480
const ticksPerWhole = ticksPerQuarter * 4

// drumChannel is the General MIDI percussion channel.
const drumChannel uint8 = 9

// ratToTicks converts an IR rational (measured in whole notes) to an
// absolute MIDI tick count, truncating any remainder below one tick.
func ratToTicks(r ir.Rat) uint32 {
	if r.D == 0 {
		return 0
	}
	ticks := r.N * int64(ticksPerWhole) / r.D
	if ticks < 0 {
		return 0
	}
	return uint32(ticks)
}

// Render builds a Standard MIDI File from doc. Problems that don't
// prevent rendering (an unmapped drum key or controller name) are
// recorded as warnings on bag; a sound with an unset or unknown family
// gets Acoustic Grand Piano without a warning. Only running out of the
// 16 available MIDI channels halts rendering.
func Render(doc *ir.Document, bag *diag.Bag) (*smf.SMF, error) {
	if len(doc.Tracks) == 0 {
		return nil, fmt.Errorf("midi: document has no tracks to render")
	}

	out := smf.NewSMF1()
	out.TimeFormat = smf.MetricTicks(ticksPerQuarter)
	out.Add(buildConductorTrack(doc))

	soundByID := make(map[string]ir.SoundDecl, len(doc.Sounds))
	for _, s := range doc.Sounds {
		soundByID[s.ID] = s
	}

	nextChannel := uint8(0)
	for _, t := range doc.Tracks {
		sound := soundByID[t.Sound]
		isDrum := t.Role == "Drums" || sound.Kind == "drumKit"

		var channel, program uint8
		if isDrum {
			channel = drumChannel
		} else {
			if nextChannel == drumChannel {
				nextChannel++
			}
			if nextChannel > 15 {
				return nil, fmt.Errorf("midi: track %q needs a 17th MIDI channel, only 16 are available", t.Name)
			}
			channel = nextChannel
			nextChannel++
			program = programForFamily(sound.Family)
		}

		spec := trackSpec{
			Name:    t.Name,
			Channel: channel,
			Program: program,
		}
		spec.Events = buildTrackEvents(t, sound, channel, bag)
		out.Add(createMidiTrack(spec))
	}

	if len(doc.Markers) > 0 {
		out.Add(buildMarkerTrack(doc))
	}

	return out, nil
}

// buildConductorTrack is track 0: tempo and meter, generalizing
// SetupTimingTrackFromChart's chart-sourced tempo/time-signature walk
// to read directly from the already-resolved IR tempo/meter maps.
func buildConductorTrack(doc *ir.Document) smf.Track {
	track := smf.Track{}
	track = append(track, smf.Event{Delta: 0, Message: smf.Message(smf.MetaTrackSequenceName("Conductor"))})

	type stamped struct {
		time    uint32
		message smf.Message
	}
	var events []stamped

	if len(doc.TempoMap) == 0 {
		events = append(events, stamped{0, smf.Message(smf.MetaTempo(120.0))})
	}
	for _, p := range doc.TempoMap {
		events = append(events, stamped{ratToTicks(p.At), smf.Message(smf.MetaTempo(p.BPM))})
	}

	if len(doc.MeterMap) == 0 {
		events = append(events, stamped{0, smf.Message(smf.MetaTimeSig(4, 4, 24, 8))})
	}
	for _, m := range doc.MeterMap {
		events = append(events, stamped{ratToTicks(m.At), smf.Message(smf.MetaTimeSig(uint8(m.Numerator), denominatorPowerOfTwo(m.Denominator), 24, 8))})
	}

	sort.Slice(events, func(i, j int) bool { return events[i].time < events[j].time })

	var lastTime uint32
	for _, e := range events {
		delta := e.time - lastTime
		track = append(track, smf.Event{Delta: delta, Message: e.message})
		lastTime = e.time
	}
	track = append(track, smf.Event{Delta: 0, Message: smf.EOT})
	return track
}

// buildMarkerTrack renders the document's top-level markers (rehearsal
// marks, section boundaries) as lyric-style text events on their own
// track, since they carry no channel or instrument of their own.
func buildMarkerTrack(doc *ir.Document) smf.Track {
	track := smf.Track{}
	track = append(track, smf.Event{Delta: 0, Message: smf.Message(smf.MetaTrackSequenceName("Markers"))})

	type stamped struct {
		time uint32
		text string
	}
	marks := make([]stamped, 0, len(doc.Markers))
	for _, m := range doc.Markers {
		marks = append(marks, stamped{ratToTicks(m.Pos), markerText(m)})
	}
	sort.Slice(marks, func(i, j int) bool { return marks[i].time < marks[j].time })

	var lastTime uint32
	for _, m := range marks {
		delta := m.time - lastTime
		track = append(track, smf.Event{Delta: delta, Message: smf.Message(smf.MetaLyric(m.text))})
		lastTime = m.time
	}
	track = append(track, smf.Event{Delta: 0, Message: smf.EOT})
	return track
}

func markerText(m ir.Marker) string {
	if m.Label != "" {
		return m.Label
	}
	return m.Kind
}

// denominatorPowerOfTwo converts a plain meter denominator (4, 8, 16,
// ...) to the log2 form smf.MetaTimeSig expects, mirroring
// SetupTimingTrackFromChart's inverse conversion ("Convert from log2 to
// actual value") on the way back out.
func denominatorPowerOfTwo(den int) uint8 {
	var log2 uint8
	for d := den; d > 1; d >>= 1 {
		log2++
	}
	return log2
}
