package value

import "fmt"

// SoundKind is the enumerated `kind` of a SoundDecl (spec.md §3.2).
type SoundKind string

const (
	SoundInstrument SoundKind = "instrument"
	SoundDrumKit    SoundKind = "drumKit"
	SoundVocal      SoundKind = "vocal"
	SoundFX         SoundKind = "fx"
)

// SoundDecl is `sound "id" kind <kind> { ... }` evaluated to a value.
type SoundDecl struct {
	ID            string
	KindOf        SoundKind
	Label         string
	Family        string
	Tags          []string
	Range         [2]int
	Transposition int
	DrumKeys      map[string]int
	VocalHints    map[string]Value
	Ext           map[string]Value
}

// Role is the enumerated `role` of a Track (spec.md §3.2).
type Role string

const (
	RoleInstrument Role = "Instrument"
	RoleDrums      Role = "Drums"
	RoleVocal      Role = "Vocal"
	RoleAutomation Role = "Automation"
)

// CompatibleSoundKind reports whether role and kind are compatible per
// spec.md §4.4 (Automation is unrestricted).
func (r Role) CompatibleSoundKind(k SoundKind) bool {
	switch r {
	case RoleInstrument:
		return k == SoundInstrument
	case RoleDrums:
		return k == SoundDrumKit
	case RoleVocal:
		return k == SoundVocal
	case RoleAutomation:
		return true
	default:
		return false
	}
}

// Placement is one `place <pos> <clip>` entry, with Pos already
// resolved to an absolute Rat relative to the track origin once
// normalization runs (evaluation keeps it as a Pos which may still be
// symbolic).
type Placement struct {
	At   Pos
	Clip Clip
}

// Track is `{ name, role, sound, mix?, placements }` (spec.md §3.2).
type Track struct {
	Name       string
	RoleOf     Role
	Sound      string
	Mix        Value
	Placements []Placement
}

// TempoEvent is one `Pos -> bpm [unit: Dur]` entry.
type TempoEvent struct {
	At   Pos
	BPM  float64
	Unit Rat // defaults to 1/4 when unspecified
}

// MeterEvent is one `Pos -> num/den` entry.
type MeterEvent struct {
	At            Pos
	Numerator     int
	Denominator   int
}

// MarkerEvent is a top-level score marker.
type MarkerEvent struct {
	At    Pos
	Kind  string
	Label string
}

// Meta carries the known `meta { ... }` fields plus an overflow bag for
// unrecognized keys (spec.md §4.5 step 1).
type Meta struct {
	Title     string
	Artist    string
	Album     string
	Copyright string
	Ext       map[string]Value
}

// Score is `{ meta, tempoMap, meterMap, sounds, tracks, markers }`
// (spec.md §3.2).
type Score struct {
	Meta      Meta
	TempoMap  []TempoEvent
	MeterMap  []MeterEvent
	Sounds    []SoundDecl
	Tracks    []Track
	Markers   []MarkerEvent
}

func (Score) Kind() Kind     { return KindScore }
func (Score) Truthy() bool   { return true }
func (s Score) String() string {
	return fmt.Sprintf("score(tracks=%d,sounds=%d)", len(s.Tracks), len(s.Sounds))
}
