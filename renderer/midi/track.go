package midi

import (
	"sort"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/tako0614/takomusic/internal/diag"
	"github.com/tako0614/takomusic/internal/ir"
)

// trackEvent is an absolute-time MIDI message, the same shape as
// leafo-songtool's MidiEvent.
type trackEvent struct {
	Time    uint32
	Message smf.Message
}

// trackSpec mirrors leafo-songtool's TrackInfo: everything
// createMidiTrack needs to emit one complete MIDI track.
type trackSpec struct {
	Name    string
	Channel uint8
	Program uint8
	Events  []trackEvent
}

// createMidiTrack builds a complete MIDI track from a trackSpec. This
// is gm_export.go's createMidiTrack unchanged in shape: track-name meta
// first, a program change unless the track is on the percussion
// channel, events sorted with lyrics before note-offs before note-ons
// at a shared tick, delta-encoded, terminated with an end-of-track
// meta event.
func createMidiTrack(spec trackSpec) smf.Track {
	track := smf.Track{}
	track = append(track, smf.Event{Delta: 0, Message: smf.Message(smf.MetaTrackSequenceName(spec.Name))})

	if spec.Channel != drumChannel {
		track = append(track, smf.Event{Delta: 0, Message: smf.Message(midi.ProgramChange(spec.Channel, spec.Program))})
	}

	events := make([]trackEvent, len(spec.Events))
	copy(events, spec.Events)
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].Time == events[j].Time {
			isLyric1 := events[i].Message.Type() == smf.MetaLyricMsg
			isLyric2 := events[j].Message.Type() == smf.MetaLyricMsg
			if isLyric1 && !isLyric2 {
				return true
			}
			if !isLyric1 && isLyric2 {
				return false
			}

			var ch1, note1, vel1 uint8
			var ch2, note2, vel2 uint8
			isNoteOff1 := events[i].Message.GetNoteOff(&ch1, &note1, &vel1)
			isNoteOn2 := events[j].Message.GetNoteOn(&ch2, &note2, &vel2)
			if (isNoteOff1 || (isNoteOn2 && vel2 == 0)) && ch1 == ch2 && note1 == note2 {
				return true
			}
			return false
		}
		return events[i].Time < events[j].Time
	})

	var lastTime uint32
	for _, e := range events {
		delta := e.Time - lastTime
		track = append(track, smf.Event{Delta: delta, Message: e.Message})
		lastTime = e.Time
	}
	track = append(track, smf.Event{Delta: 0, Message: smf.EOT})
	return track
}

// defaultVelocity matches AddChartDrumTracks's "chart files don't have
// velocity info" fallback of a flat 100.
const defaultVelocity = 100

func velocityOf(v *float64) uint8 {
	if v == nil {
		return defaultVelocity
	}
	scaled := *v * 127
	if scaled < 1 {
		return 1
	}
	if scaled > 127 {
		return 127
	}
	return uint8(scaled)
}

// buildTrackEvents walks every placement's already-spliced, already-
// sorted clip events and converts each one to the MIDI messages it
// implies, the same per-event-kind dispatch vocals.go/pro_bass.go/
// drums.go each specialized for one Rock Band part, generalized here
// to every ir.Event type a track can carry.
func buildTrackEvents(t ir.Track, sound ir.SoundDecl, channel uint8, bag *diag.Bag) []trackEvent {
	var events []trackEvent
	for _, pl := range t.Placements {
		for _, e := range pl.Clip.Events {
			switch e.Type {
			case "note":
				events = append(events, noteEvents(channel, uint8(clampMIDI(e.Pitch.MIDI)), e.Start, *e.Dur, e.Velocity)...)
				if e.Lyric != "" {
					events = append(events, trackEvent{Time: ratToTicks(e.Start), Message: smf.Message(smf.MetaLyric(e.Lyric))})
				}
			case "chord":
				for _, p := range e.Pitches {
					events = append(events, noteEvents(channel, uint8(clampMIDI(p.MIDI)), e.Start, *e.Dur, e.Velocity)...)
				}
			case "drumHit":
				key, ok := drumKeyToGM(sound, e.Key)
				if !ok {
					bag.Warningf("unmapped-drum-key", "", nil, "track %q: no GM mapping for drum key %q", t.Name, e.Key)
					continue
				}
				events = append(events, noteEvents(drumChannel, key, e.Start, *e.Dur, e.Velocity)...)
			case "breath":
				events = append(events, trackEvent{
					Time:    ratToTicks(e.Start),
					Message: smf.Message(midi.ControlChange(channel, ccBreath, velocityOf(e.Intensity))),
				})
			case "control":
				cc, ok := ccNumberForName(e.Kind_)
				if !ok {
					bag.Warningf("unmapped-control", "", nil, "track %q: no GM controller for %q", t.Name, e.Kind_)
					continue
				}
				events = append(events, trackEvent{
					Time:    ratToTicks(e.Start),
					Message: smf.Message(midi.ControlChange(channel, cc, dataToMIDI(e.Data))),
				})
			case "automation":
				cc, ok := ccNumberForName(e.Param)
				if !ok {
					bag.Warningf("unmapped-control", "", nil, "track %q: no GM controller for automation parameter %q", t.Name, e.Param)
					continue
				}
				events = append(events, sampleAutomation(channel, cc, e)...)
			case "marker":
				events = append(events, trackEvent{Time: ratToTicks(*e.Pos), Message: smf.Message(smf.MetaLyric(markerText(ir.Marker{Kind: e.MarkerKind, Label: e.Label})))})
			}
		}
	}
	return events
}

func noteEvents(channel, key uint8, start ir.Rat, dur ir.Rat, velocity *float64) []trackEvent {
	onTime := ratToTicks(start)
	end := ir.Rat{N: start.N*dur.D + dur.N*start.D, D: start.D * dur.D}
	offTime := ratToTicks(end)
	if offTime <= onTime {
		offTime = onTime + 1
	}
	return []trackEvent{
		{Time: onTime, Message: smf.Message(midi.NoteOn(channel, key, velocityOf(velocity)))},
		{Time: offTime, Message: smf.Message(midi.NoteOff(channel, key))},
	}
}

// automationSteps bounds how finely a curve ramp is sampled into
// discrete CC messages: enough resolution to sound continuous without
// producing an unbounded MIDI stream for a long automation span.
const automationSteps = 32

func sampleAutomation(channel, cc uint8, e ir.Event) []trackEvent {
	if e.End == nil || e.Curve == nil || len(e.Curve.Points) == 0 {
		return nil
	}
	start := ratToTicks(e.Start)
	end := ratToTicks(*e.End)
	if end <= start {
		return nil
	}
	span := end - start
	steps := automationSteps
	if uint32(steps) > span {
		steps = int(span)
	}
	if steps < 1 {
		steps = 1
	}
	out := make([]trackEvent, 0, steps+1)
	for i := 0; i <= steps; i++ {
		frac := float64(i) / float64(steps)
		tick := start + uint32(frac*float64(span))
		t := e.Curve.Points[0].T + frac*(e.Curve.Points[len(e.Curve.Points)-1].T-e.Curve.Points[0].T)
		v := sampleCurve(e.Curve, t)
		out = append(out, trackEvent{Time: tick, Message: smf.Message(midi.ControlChange(channel, cc, clampCC(v)))})
	}
	return out
}

func sampleCurve(c *ir.Curve, t float64) float64 {
	pts := c.Points
	if len(pts) == 0 {
		return 0
	}
	if t <= pts[0].T {
		return pts[0].V
	}
	if t >= pts[len(pts)-1].T {
		return pts[len(pts)-1].V
	}
	for i := 1; i < len(pts); i++ {
		if t <= pts[i].T {
			span := pts[i].T - pts[i-1].T
			if span == 0 {
				return pts[i].V
			}
			frac := (t - pts[i-1].T) / span
			return pts[i-1].V + frac*(pts[i].V-pts[i-1].V)
		}
	}
	return pts[len(pts)-1].V
}

func clampCC(v float64) uint8 {
	scaled := v * 127
	if scaled < 0 {
		return 0
	}
	if scaled > 127 {
		return 127
	}
	return uint8(scaled)
}

func dataToMIDI(data interface{}) uint8 {
	switch v := data.(type) {
	case float64:
		return clampCC(v)
	case int:
		return clampCC(float64(v))
	default:
		return 0
	}
}

func clampMIDI(n int) int {
	if n < 0 {
		return 0
	}
	if n > 127 {
		return 127
	}
	return n
}
