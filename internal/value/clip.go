package value

import "fmt"

// EventKind tags a ClipEvent (spec.md §3.2/§6.3).
type EventKind string

const (
	EventNote       EventKind = "note"
	EventChord      EventKind = "chord"
	EventDrumHit    EventKind = "drumHit"
	EventBreath     EventKind = "breath"
	EventControl    EventKind = "control"
	EventAutomation EventKind = "automation"
	EventMarker     EventKind = "marker"
)

// ClipEvent is one entry in a Clip's event list. Start/End are
// clip-relative positions, tracked as absolute rationals throughout
// evaluation (spec.md §4.6 step 2) so placement splicing is a single
// offset add.
type ClipEvent struct {
	Kind    EventKind
	Start   Rat
	Dur     Rat // valid for note/chord/drumHit/breath
	Pitch   Pitch
	Pitches []Pitch // valid for chord
	Key     string  // valid for drumHit
	Velocity *float64
	Voice    string
	Techniques []string
	Lyric      string
	Intensity  *float64 // valid for breath

	// control
	ControlKind string
	ControlData Value

	// automation
	Param      string
	End        Rat
	Curve      Curve

	// marker
	MarkerKind  string
	MarkerLabel string

	Ext map[string]Value
}

// Clip is `{ events, length? }` (spec.md §3.2).
type Clip struct {
	Events []ClipEvent
	Length *Rat
}

func (Clip) Kind() Kind     { return KindClip }
func (Clip) Truthy() bool   { return true }
func (c Clip) String() string {
	return fmt.Sprintf("clip(events=%d)", len(c.Events))
}

// Concat appends b's events after a's, shifting b's positions by a's
// length (falls back to the max event end when length is unset). Used
// by std:transform's `concat`, whose associativity is a testable
// property (spec.md §8).
func Concat(a, b Clip) Clip {
	shift := a.effectiveLength()
	out := Clip{Events: make([]ClipEvent, 0, len(a.Events)+len(b.Events))}
	out.Events = append(out.Events, a.Events...)
	for _, e := range b.Events {
		e.Start = e.Start.Add(shift)
		if e.Kind == EventAutomation {
			e.End = e.End.Add(shift)
		}
		out.Events = append(out.Events, e)
	}
	if a.Length != nil && b.Length != nil {
		l := a.Length.Add(*b.Length)
		out.Length = &l
	}
	return out
}

func (c Clip) effectiveLength() Rat {
	if c.Length != nil {
		return *c.Length
	}
	max := RatFromInt(0)
	for _, e := range c.Events {
		end := e.Start
		if e.Kind != EventMarker && e.Kind != EventControl {
			end = e.Start.Add(e.Dur)
		}
		if end.Cmp(max) > 0 {
			max = end
		}
	}
	return max
}

// Repeat builds n back-to-back copies of c (spec.md §8: "repeat
// linearity", `repeat(c, 0)` is the empty clip).
func Repeat(c Clip, n int64) Clip {
	if n <= 0 {
		zero := RatFromInt(0)
		return Clip{Length: &zero}
	}
	out := c
	for i := int64(1); i < n; i++ {
		out = Concat(out, c)
	}
	return out
}

// Transpose shifts every pitched event's MIDI value by semitones
// (composition law in spec.md §8).
func Transpose(c Clip, semitones int) Clip {
	out := Clip{Length: c.Length}
	out.Events = make([]ClipEvent, len(c.Events))
	for i, e := range c.Events {
		switch e.Kind {
		case EventNote:
			e.Pitch.MIDI += semitones
		case EventChord:
			shifted := make([]Pitch, len(e.Pitches))
			for j, p := range e.Pitches {
				p.MIDI += semitones
				shifted[j] = p
			}
			e.Pitches = shifted
		}
		out.Events[i] = e
	}
	return out
}

// Reverse flips event order and positions within a fixed length, an
// involution on pitched clips per spec.md §8.
func Reverse(c Clip) Clip {
	length := c.effectiveLength()
	out := Clip{Length: &length}
	out.Events = make([]ClipEvent, len(c.Events))
	for i, e := range c.Events {
		end := e.Start
		if e.Kind != EventMarker && e.Kind != EventControl {
			end = e.Start.Add(e.Dur)
		}
		e.Start = length.Sub(end)
		out.Events[len(c.Events)-1-i] = e
	}
	return out
}
