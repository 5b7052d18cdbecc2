package ir

import (
	"sort"

	"github.com/tako0614/takomusic/internal/diag"
	"github.com/tako0614/takomusic/internal/value"
)

// meterSeg is one meter-map entry with its "at" already resolved to an
// absolute whole-note Rat; segments are kept sorted ascending by at.
type meterSeg struct {
	at          value.Rat
	numerator   int
	denominator int
}

// typePriority orders same-instant events so time-carrying events
// precede automation/marker (spec.md §4.6 step 4).
func typePriority(k value.EventKind) int {
	switch k {
	case value.EventNote, value.EventChord, value.EventDrumHit, value.EventBreath:
		return 0
	case value.EventControl:
		return 1
	case value.EventAutomation:
		return 2
	case value.EventMarker:
		return 3
	default:
		return 9
	}
}

// Normalize turns an evaluated Score into the canonical IR document
// (spec.md §4.6). It never mutates sc; diagnostics (overlap warnings,
// negative/zero duration) are appended to bag.
func Normalize(sc value.Score, bag *diag.Bag) *Document {
	segs := buildMeterSegments(sc.MeterMap)
	resolve := func(p value.Pos) value.Rat { return resolvePos(segs, p) }

	doc := &Document{
		Tako: Tako{IRVersion: 4},
		Meta: Meta{
			Title: sc.Meta.Title, Artist: sc.Meta.Artist,
			Album: sc.Meta.Album, Copyright: sc.Meta.Copyright,
			Ext: extToJSON(sc.Meta.Ext),
		},
	}

	for _, t := range sc.TempoMap {
		doc.TempoMap = append(doc.TempoMap, TempoPoint{At: ratOf(resolve(t.At)), BPM: t.BPM, Unit: ratOf(t.Unit)})
	}
	for _, m := range sc.MeterMap {
		doc.MeterMap = append(doc.MeterMap, MeterPoint{At: ratOf(resolve(m.At)), Numerator: m.Numerator, Denominator: m.Denominator})
	}
	for _, s := range sc.Sounds {
		doc.Sounds = append(doc.Sounds, SoundDecl{
			ID: s.ID, Kind: string(s.KindOf), Label: s.Label, Family: s.Family,
			Tags: s.Tags, Range: s.Range, Transposition: s.Transposition,
			DrumKeys: s.DrumKeys, Ext: extToJSON(s.Ext),
		})
	}
	for _, m := range sc.Markers {
		doc.Markers = append(doc.Markers, Marker{Pos: ratOf(resolve(m.At)), Kind: m.Kind, Label: m.Label})
	}

	for _, t := range sc.Tracks {
		track := Track{Name: t.Name, Role: string(t.RoleOf), Sound: t.Sound}
		if obj, ok := t.Mix.(value.ObjectValue); ok {
			track.Mix = objectToJSON(obj)
		}
		for _, pl := range t.Placements {
			at := resolve(pl.At)
			events := spliceEvents(pl.Clip, at)
			validateEvents(bag, t.Name, events)
			sortEvents(events)
			clip := ClipLike{Events: eventsToWire(events)}
			if pl.Clip.Length != nil {
				l := pl.Clip.Length.Add(at)
				clip.Length = &Rat{N: l.N, D: l.D}
			}
			track.Placements = append(track.Placements, Placement{At: ratOf(at), Clip: clip})
		}
		doc.Tracks = append(doc.Tracks, track)
	}

	return doc
}

// buildMeterSegments resolves each meter-map entry's "at" to an
// absolute whole-note Rat, then sorts ascending. A symbolic (bar:beat)
// entry is resolved against the entries declared before it; a symbolic
// first entry is placed at 0. A score with no meter declarations
// defaults to 4/4.
func buildMeterSegments(mm []value.MeterEvent) []meterSeg {
	if len(mm) == 0 {
		return []meterSeg{{at: value.RatFromInt(0), numerator: 4, denominator: 4}}
	}
	segs := make([]meterSeg, 0, len(mm))
	for _, m := range mm {
		at := value.RatFromInt(0)
		if m.At.Kind == value.PosKindRat {
			at = m.At.Rat
		} else if len(segs) > 0 {
			at = resolvePos(segs, m.At)
		}
		segs = append(segs, meterSeg{at: at, numerator: m.Numerator, denominator: m.Denominator})
	}
	sort.Slice(segs, func(i, j int) bool { return segs[i].at.Cmp(segs[j].at) < 0 })
	return segs
}

// resolvePos implements spec.md §4.6 step 1: a Rat is already absolute;
// a PosRef walks the meter map bar by bar; a PosExpr resolves its base
// then adds the offset.
func resolvePos(segs []meterSeg, p value.Pos) value.Rat {
	switch p.Kind {
	case value.PosKindRat:
		return p.Rat
	case value.PosKindRef:
		return resolvePosRef(segs, p.Ref)
	default:
		base := resolvePosRef(segs, p.Expr.Base)
		return base.Add(p.Expr.Offset)
	}
}

func resolvePosRef(segs []meterSeg, ref value.PosRef) value.Rat {
	pos := value.RatFromInt(0)
	segIdx := 0
	for bar := 1; bar < ref.Bar; bar++ {
		for segIdx+1 < len(segs) && segs[segIdx+1].at.Cmp(pos) <= 0 {
			segIdx++
		}
		barLen := value.NewRat(int64(segs[segIdx].numerator), int64(segs[segIdx].denominator))
		pos = pos.Add(barLen)
	}
	for segIdx+1 < len(segs) && segs[segIdx+1].at.Cmp(pos) <= 0 {
		segIdx++
	}
	beatOffset := value.NewRat(int64(ref.Beat-1), int64(segs[segIdx].denominator))
	return pos.Add(beatOffset)
}

// spliceEvents shifts every event in c by at (spec.md §4.6 step 2).
func spliceEvents(c value.Clip, at value.Rat) []value.ClipEvent {
	out := make([]value.ClipEvent, len(c.Events))
	for i, e := range c.Events {
		e.Start = e.Start.Add(at)
		if e.Kind == value.EventAutomation {
			e.End = e.End.Add(at)
		}
		out[i] = e
	}
	return out
}

// validateEvents implements spec.md §4.6 step 3: non-overlap (warning),
// non-negative start (no diagnostic code named for this beyond
// negative-duration, so a negative start is folded into that code too),
// and non-zero duration for time-carrying events (warning).
func validateEvents(bag *diag.Bag, trackName string, events []value.ClipEvent) {
	timeCarrying := make([]value.ClipEvent, 0, len(events))
	for _, e := range events {
		switch e.Kind {
		case value.EventNote, value.EventChord, value.EventDrumHit, value.EventBreath:
			if e.Dur.Negative() || e.Start.Negative() {
				bag.Errorf("negative-duration", "", nil, "track %q has a negative duration or start", trackName)
			} else if e.Dur.IsZero() {
				bag.Warningf("overlapping-events", "", nil, "track %q has a zero-duration event at %s", trackName, e.Start.String())
			}
			timeCarrying = append(timeCarrying, e)
		}
	}
	sort.Slice(timeCarrying, func(i, j int) bool { return timeCarrying[i].Start.Cmp(timeCarrying[j].Start) < 0 })
	for i := 1; i < len(timeCarrying); i++ {
		prevEnd := timeCarrying[i-1].Start.Add(timeCarrying[i-1].Dur)
		if prevEnd.Cmp(timeCarrying[i].Start) > 0 {
			bag.Warningf("overlapping-events", "", nil, "track %q has overlapping events at %s", trackName, timeCarrying[i].Start.String())
		}
	}
}

// sortEvents implements spec.md §4.6 step 4: stable sort by (start,
// type-priority).
func sortEvents(events []value.ClipEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		if c := events[i].Start.Cmp(events[j].Start); c != 0 {
			return c < 0
		}
		return typePriority(events[i].Kind) < typePriority(events[j].Kind)
	})
}

func eventsToWire(events []value.ClipEvent) []Event {
	out := make([]Event, 0, len(events))
	for _, e := range events {
		out = append(out, eventToWire(e))
	}
	return out
}

func eventToWire(e value.ClipEvent) Event {
	w := Event{Start: ratOf(e.Start), Velocity: e.Velocity, Voice: e.Voice, Techniques: e.Techniques, Lyric: e.Lyric, Intensity: e.Intensity, Ext: extToJSON(e.Ext)}
	switch e.Kind {
	case value.EventNote:
		w.Type = "note"
		w.Pitch = &Pitch{MIDI: e.Pitch.MIDI, Cents: e.Pitch.Cents}
		d := ratOf(e.Dur)
		w.Dur = &d
	case value.EventChord:
		w.Type = "chord"
		for _, p := range e.Pitches {
			w.Pitches = append(w.Pitches, Pitch{MIDI: p.MIDI, Cents: p.Cents})
		}
		d := ratOf(e.Dur)
		w.Dur = &d
	case value.EventDrumHit:
		w.Type = "drumHit"
		w.Key = e.Key
		d := ratOf(e.Dur)
		w.Dur = &d
	case value.EventBreath:
		w.Type = "breath"
		d := ratOf(e.Dur)
		w.Dur = &d
	case value.EventControl:
		w.Type = "control"
		w.Kind_ = e.ControlKind
		w.Data = valueToJSON(e.ControlData)
	case value.EventAutomation:
		w.Type = "automation"
		w.Param = e.Param
		end := ratOf(e.End)
		w.End = &end
		pts := make([]CurvePoint, 0, len(e.Curve.Points))
		for _, p := range e.Curve.Points {
			pts = append(pts, CurvePoint{T: p.T, V: p.V})
		}
		w.Curve = &Curve{Kind: "piecewiseLinear", Points: pts}
	case value.EventMarker:
		w.Type = "marker"
		pos := ratOf(e.Start)
		w.Pos = &pos
		w.MarkerKind = e.MarkerKind
		w.Label = e.MarkerLabel
	}
	return w
}

func extToJSON(ext map[string]value.Value) map[string]interface{} {
	if len(ext) == 0 {
		return nil
	}
	out := make(map[string]interface{}, len(ext))
	for k, v := range ext {
		out[k] = valueToJSON(v)
	}
	return out
}

func objectToJSON(o value.ObjectValue) map[string]interface{} {
	out := make(map[string]interface{}, o.Len())
	for _, k := range o.Keys() {
		v, _ := o.Get(k)
		out[k] = valueToJSON(v)
	}
	return out
}

// valueToJSON renders a runtime Value as a plain JSON-able Go value for
// the IR's free-form ext/data/mix slots.
func valueToJSON(v value.Value) interface{} {
	switch x := v.(type) {
	case value.Number:
		return float64(x)
	case value.String:
		return string(x)
	case value.Bool:
		return bool(x)
	case value.Null:
		return nil
	case value.RatValue:
		return ratOf(x.Rat)
	case value.ArrayValue:
		out := make([]interface{}, x.Len())
		for i := int64(0); i < x.Len(); i++ {
			out[i] = valueToJSON(x.Get(i))
		}
		return out
	case value.ObjectValue:
		return objectToJSON(x)
	default:
		return v.String()
	}
}
