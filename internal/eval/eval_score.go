package eval

import (
	"github.com/tako0614/takomusic/internal/ast"
	"github.com/tako0614/takomusic/internal/value"
)

// ratOf coerces a runtime value to a Rat, lifting bare numbers as whole
// counts (spec.md §4.4: "a bare int literal behaves as Rat under /").
func ratOf(v value.Value) value.Rat {
	switch n := v.(type) {
	case value.RatValue:
		return n.Rat
	case value.Number:
		return value.RatFromInt(int64(n))
	default:
		return value.RatFromInt(0)
	}
}

// posOf coerces a runtime value to a Pos, accepting an already-resolved
// Rat/Number as a shorthand for PosFromRat (spec.md §4.2's `place <pos>`
// accepts either a bar:beat literal or a plain duration offset).
func posOf(v value.Value) value.Pos {
	switch n := v.(type) {
	case value.PosValue:
		return n.Pos
	default:
		return value.PosFromRat(ratOf(v))
	}
}

func stringOf(v value.Value) string {
	if s, ok := v.(value.String); ok {
		return string(s)
	}
	return v.String()
}

func (ev *Evaluator) evalScore(scope *value.Scope, se *ast.ScoreExpr) (value.Value, error) {
	sc := value.Score{Meta: value.Meta{Ext: map[string]value.Value{}}}
	soundIDs := make(map[string]bool)

	for _, item := range se.Items {
		switch it := item.(type) {
		case *ast.MetaBlock:
			for _, f := range it.Fields {
				v, err := ev.evalExpr(scope, f.Value)
				if err != nil {
					return nil, err
				}
				switch f.Key {
				case "title":
					sc.Meta.Title = stringOf(v)
				case "artist":
					sc.Meta.Artist = stringOf(v)
				case "album":
					sc.Meta.Album = stringOf(v)
				case "copyright":
					sc.Meta.Copyright = stringOf(v)
				default:
					sc.Meta.Ext[f.Key] = v
				}
			}
		case *ast.TempoBlock:
			for _, p := range it.Points {
				at, err := ev.evalExpr(scope, p.At)
				if err != nil {
					return nil, err
				}
				bpmV, err := ev.evalExpr(scope, p.BPM)
				if err != nil {
					return nil, err
				}
				unit := value.NewRat(1, 4)
				if p.Unit != nil {
					u, err := ev.evalExpr(scope, p.Unit)
					if err != nil {
						return nil, err
					}
					unit = ratOf(u)
				}
				sc.TempoMap = append(sc.TempoMap, value.TempoEvent{At: posOf(at), BPM: toFloat(bpmV), Unit: unit})
			}
		case *ast.MeterBlock:
			for _, p := range it.Points {
				at, err := ev.evalExpr(scope, p.At)
				if err != nil {
					return nil, err
				}
				num, err := ev.evalExpr(scope, p.Num)
				if err != nil {
					return nil, err
				}
				den, err := ev.evalExpr(scope, p.Den)
				if err != nil {
					return nil, err
				}
				sc.MeterMap = append(sc.MeterMap, value.MeterEvent{
					At: posOf(at), Numerator: int(toInt(num)), Denominator: int(toInt(den)),
				})
			}
		case *ast.SoundDeclItem:
			if soundIDs[it.ID] {
				return nil, rtErr("duplicate-sound-id", it.Pos(), "duplicate sound id %q", it.ID)
			}
			soundIDs[it.ID] = true
			decl := value.SoundDecl{ID: it.ID, KindOf: value.SoundKind(it.Kind), Ext: map[string]value.Value{}}
			for _, f := range it.Fields {
				v, err := ev.evalExpr(scope, f.Value)
				if err != nil {
					return nil, err
				}
				switch f.Key {
				case "label":
					decl.Label = stringOf(v)
				case "family":
					decl.Family = stringOf(v)
				case "transposition":
					decl.Transposition = int(toInt(v))
				default:
					decl.Ext[f.Key] = v
				}
			}
			sc.Sounds = append(sc.Sounds, decl)
		case *ast.TrackDeclItem:
			tr := value.Track{Name: it.Name, RoleOf: value.Role(it.Role), Sound: it.Sound}
			for _, pl := range it.Placements {
				at, err := ev.evalExpr(scope, pl.At)
				if err != nil {
					return nil, err
				}
				clipV, err := ev.evalExpr(scope, pl.Clip)
				if err != nil {
					return nil, err
				}
				clip, ok := clipV.(value.Clip)
				if !ok {
					return nil, rtErr("invalid-operation", pl.Clip.Pos(), "placement value is not a clip")
				}
				tr.Placements = append(tr.Placements, value.Placement{At: posOf(at), Clip: clip})
			}
			sc.Tracks = append(sc.Tracks, tr)
		case *ast.ScoreMarkerItem:
			at, err := ev.evalExpr(scope, it.At)
			if err != nil {
				return nil, err
			}
			kind, err := ev.evalExpr(scope, it.Kind)
			if err != nil {
				return nil, err
			}
			label, err := ev.evalExpr(scope, it.Label)
			if err != nil {
				return nil, err
			}
			sc.Markers = append(sc.Markers, value.MarkerEvent{At: posOf(at), Kind: stringOf(kind), Label: stringOf(label)})
		}
	}
	return sc, nil
}

// clipArgs evaluates a ClipStmt's trailing named arguments into a map.
func (ev *Evaluator) clipArgs(scope *value.Scope, args []ast.Arg) (map[string]value.Value, error) {
	out := make(map[string]value.Value, len(args))
	for _, a := range args {
		v, err := ev.evalExpr(scope, a.Value)
		if err != nil {
			return nil, err
		}
		out[a.Name] = v
	}
	return out, nil
}

func optFloat(args map[string]value.Value, key string) *float64 {
	if v, ok := args[key]; ok {
		f := toFloat(v)
		return &f
	}
	return nil
}

func optString(args map[string]value.Value, key string) string {
	if v, ok := args[key]; ok {
		return stringOf(v)
	}
	return ""
}

func optStrings(args map[string]value.Value, key string) []string {
	v, ok := args[key]
	if !ok {
		return nil
	}
	arr, ok := v.(value.ArrayValue)
	if !ok {
		return nil
	}
	out := make([]string, 0, arr.Len())
	for i := int64(0); i < arr.Len(); i++ {
		out = append(out, stringOf(arr.Get(i)))
	}
	return out
}

func (ev *Evaluator) evalClip(scope *value.Scope, ce *ast.ClipExpr) (value.Value, error) {
	events, length, err := ev.evalClipStmts(scope, ce.Stmts)
	if err != nil {
		return nil, err
	}
	return value.Clip{Events: events, Length: &length}, nil
}

// evalClipStmts runs a cursor-based interpretation of a clip body
// starting at a local zero and returns the accumulated events plus the
// cursor's final position as the clip's length (spec.md §4.5: note,
// rest, chord, hit, breath, and arp advance the cursor; at relocates it;
// cc, automation, and marker leave it untouched).
func (ev *Evaluator) evalClipStmts(scope *value.Scope, stmts []ast.ClipStmt) ([]value.ClipEvent, value.Rat, error) {
	var events []value.ClipEvent
	cursor := value.RatFromInt(0)

	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *ast.AtStmt:
			v, err := ev.evalExpr(scope, s.Pos_)
			if err != nil {
				return nil, value.Rat{}, err
			}
			cursor = ratOf(v)

		case *ast.RestStmt:
			dv, err := ev.evalExpr(scope, s.Dur)
			if err != nil {
				return nil, value.Rat{}, err
			}
			cursor = cursor.Add(ratOf(dv))

		case *ast.NoteStmt:
			pv, err := ev.evalExpr(scope, s.Pitch)
			if err != nil {
				return nil, value.Rat{}, err
			}
			dv, err := ev.evalExpr(scope, s.Dur)
			if err != nil {
				return nil, value.Rat{}, err
			}
			pitch, ok := pv.(value.PitchValue)
			if !ok {
				return nil, value.Rat{}, rtErr("invalid-operation", s.Pos(), "note() requires a pitch")
			}
			dur := ratOf(dv)
			args, err := ev.clipArgs(scope, s.Args)
			if err != nil {
				return nil, value.Rat{}, err
			}
			events = append(events, value.ClipEvent{
				Kind: value.EventNote, Start: cursor, Dur: dur, Pitch: pitch.Pitch,
				Velocity: optFloat(args, "velocity"), Voice: optString(args, "voice"),
				Techniques: optStrings(args, "techniques"),
			})
			cursor = cursor.Add(dur)

		case *ast.ChordStmt:
			pv, err := ev.evalExpr(scope, s.Pitches)
			if err != nil {
				return nil, value.Rat{}, err
			}
			dv, err := ev.evalExpr(scope, s.Dur)
			if err != nil {
				return nil, value.Rat{}, err
			}
			arr, ok := pv.(value.ArrayValue)
			if !ok {
				return nil, value.Rat{}, rtErr("invalid-operation", s.Pos(), "chord() requires an array of pitches")
			}
			pitches := make([]value.Pitch, 0, arr.Len())
			for i := int64(0); i < arr.Len(); i++ {
				if p, ok := arr.Get(i).(value.PitchValue); ok {
					pitches = append(pitches, p.Pitch)
				}
			}
			dur := ratOf(dv)
			args, err := ev.clipArgs(scope, s.Args)
			if err != nil {
				return nil, value.Rat{}, err
			}
			events = append(events, value.ClipEvent{
				Kind: value.EventChord, Start: cursor, Dur: dur, Pitches: pitches,
				Velocity: optFloat(args, "velocity"), Voice: optString(args, "voice"),
			})
			cursor = cursor.Add(dur)

		case *ast.HitStmt:
			kv, err := ev.evalExpr(scope, s.Key)
			if err != nil {
				return nil, value.Rat{}, err
			}
			dv, err := ev.evalExpr(scope, s.Dur)
			if err != nil {
				return nil, value.Rat{}, err
			}
			dur := ratOf(dv)
			args, err := ev.clipArgs(scope, s.Args)
			if err != nil {
				return nil, value.Rat{}, err
			}
			events = append(events, value.ClipEvent{
				Kind: value.EventDrumHit, Start: cursor, Dur: dur, Key: stringOf(kv),
				Velocity: optFloat(args, "velocity"),
			})
			cursor = cursor.Add(dur)

		case *ast.BreathStmt:
			dv, err := ev.evalExpr(scope, s.Dur)
			if err != nil {
				return nil, value.Rat{}, err
			}
			dur := ratOf(dv)
			args, err := ev.clipArgs(scope, s.Args)
			if err != nil {
				return nil, value.Rat{}, err
			}
			events = append(events, value.ClipEvent{
				Kind: value.EventBreath, Start: cursor, Dur: dur, Intensity: optFloat(args, "intensity"),
			})
			cursor = cursor.Add(dur)

		case *ast.ArpStmt:
			pv, err := ev.evalExpr(scope, s.Pitches)
			if err != nil {
				return nil, value.Rat{}, err
			}
			uv, err := ev.evalExpr(scope, s.Unit)
			if err != nil {
				return nil, value.Rat{}, err
			}
			dir := "up"
			if s.Dir != nil {
				dv, err := ev.evalExpr(scope, s.Dir)
				if err != nil {
					return nil, value.Rat{}, err
				}
				dir = stringOf(dv)
			}
			arr, ok := pv.(value.ArrayValue)
			if !ok {
				return nil, value.Rat{}, rtErr("invalid-operation", s.Pos(), "arp() requires an array of pitches")
			}
			pitches := make([]value.Pitch, 0, arr.Len())
			for i := int64(0); i < arr.Len(); i++ {
				if p, ok := arr.Get(i).(value.PitchValue); ok {
					pitches = append(pitches, p.Pitch)
				}
			}
			if dir == "down" {
				for l, r := 0, len(pitches)-1; l < r; l, r = l+1, r-1 {
					pitches[l], pitches[r] = pitches[r], pitches[l]
				}
			}
			unit := ratOf(uv)
			for _, p := range pitches {
				events = append(events, value.ClipEvent{Kind: value.EventNote, Start: cursor, Dur: unit, Pitch: p})
				cursor = cursor.Add(unit)
			}

		case *ast.TripletStmt:
			nv, err := ev.evalExpr(scope, s.N)
			if err != nil {
				return nil, value.Rat{}, err
			}
			inTime := value.RatFromInt(2)
			if s.InTime != nil {
				iv, err := ev.evalExpr(scope, s.InTime)
				if err != nil {
					return nil, value.Rat{}, err
				}
				inTime = ratOf(iv)
			}
			n := ratOf(nv)
			factor, ok := inTime.Div(n)
			if !ok {
				return nil, value.Rat{}, rtErr("divide-by-zero", s.Pos(), "triplet() requires a nonzero note count")
			}
			innerEvents, _, err := ev.evalClipStmts(scope, s.Body)
			if err != nil {
				return nil, value.Rat{}, err
			}
			var total value.Rat
			for _, e := range innerEvents {
				e.Start = cursor.Add(e.Start.Mul(factor))
				switch e.Kind {
				case value.EventMarker, value.EventControl:
					// no duration/span field to scale
				case value.EventAutomation:
					// Dur is unset for automation events; scale the
					// End span instead, same as Start.
					e.End = cursor.Add(e.End.Mul(factor))
					if span := e.End.Sub(cursor); span.Cmp(total) > 0 {
						total = span
					}
				default:
					e.Dur = e.Dur.Mul(factor)
					end := e.Start.Sub(cursor).Add(e.Dur)
					if end.Cmp(total) > 0 {
						total = end
					}
				}
				events = append(events, e)
			}
			cursor = cursor.Add(total)

		case *ast.CCStmt:
			cv, err := ev.evalExpr(scope, s.Controller)
			if err != nil {
				return nil, value.Rat{}, err
			}
			vv, err := ev.evalExpr(scope, s.Value)
			if err != nil {
				return nil, value.Rat{}, err
			}
			events = append(events, value.ClipEvent{
				Kind: value.EventControl, Start: cursor, ControlKind: stringOf(cv), ControlData: vv,
			})

		case *ast.AutomationStmt:
			pv, err := ev.evalExpr(scope, s.Param)
			if err != nil {
				return nil, value.Rat{}, err
			}
			cv, err := ev.evalExpr(scope, s.Curve)
			if err != nil {
				return nil, value.Rat{}, err
			}
			curve, _ := cv.(value.CurveValue)
			args, err := ev.clipArgs(scope, s.Args)
			if err != nil {
				return nil, value.Rat{}, err
			}
			start := cursor
			if v, ok := args["start"]; ok {
				start = ratOf(v)
			}
			end := start
			if v, ok := args["end"]; ok {
				end = ratOf(v)
			}
			events = append(events, value.ClipEvent{
				Kind: value.EventAutomation, Start: start, End: end, Param: stringOf(pv), Curve: curve.Curve,
			})

		case *ast.MarkerStmt:
			kv, err := ev.evalExpr(scope, s.Kind)
			if err != nil {
				return nil, value.Rat{}, err
			}
			lv, err := ev.evalExpr(scope, s.Label)
			if err != nil {
				return nil, value.Rat{}, err
			}
			events = append(events, value.ClipEvent{
				Kind: value.EventMarker, Start: cursor, MarkerKind: stringOf(kv), MarkerLabel: stringOf(lv),
			})
		}
	}
	return events, cursor, nil
}
