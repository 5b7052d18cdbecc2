// Package ir implements the normalizer described in spec.md §4.6: it
// turns an evaluated Score into the canonical, fully-resolved IR
// document (version 4) described in spec.md §6.3. Normalize is a pure
// function — it never mutates the Score it is given.
package ir

import (
	jsoniter "github.com/json-iterator/go"

	"github.com/tako0614/takomusic/internal/value"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Rat is the wire form of value.Rat: `{ n, d }`.
type Rat struct {
	N int64 `json:"n"`
	D int64 `json:"d"`
}

func ratOf(r value.Rat) Rat { return Rat{N: r.N, D: r.D} }

type Tako struct {
	IRVersion int `json:"irVersion"`
}

type Meta struct {
	Title     string                 `json:"title,omitempty"`
	Artist    string                 `json:"artist,omitempty"`
	Album     string                 `json:"album,omitempty"`
	Copyright string                 `json:"copyright,omitempty"`
	Ext       map[string]interface{} `json:"ext,omitempty"`
}

type TempoPoint struct {
	At   Rat     `json:"at"`
	BPM  float64 `json:"bpm"`
	Unit Rat     `json:"unit"`
}

type MeterPoint struct {
	At          Rat `json:"at"`
	Numerator   int `json:"numerator"`
	Denominator int `json:"denominator"`
}

type SoundDecl struct {
	ID            string                 `json:"id"`
	Kind          string                 `json:"kind"`
	Label         string                 `json:"label,omitempty"`
	Family        string                 `json:"family,omitempty"`
	Tags          []string               `json:"tags,omitempty"`
	Range         [2]int                 `json:"range,omitempty"`
	Transposition int                    `json:"transposition,omitempty"`
	DrumKeys      map[string]int         `json:"drumKeys,omitempty"`
	Ext           map[string]interface{} `json:"ext,omitempty"`
}

type Pitch struct {
	MIDI  int `json:"midi"`
	Cents int `json:"cents,omitempty"`
}

type CurvePoint struct {
	T float64 `json:"t"`
	V float64 `json:"v"`
}

type Curve struct {
	Kind   string       `json:"kind"`
	Points []CurvePoint `json:"points"`
}

// Event is the canonical discriminated-union wire shape for one clip
// event; unused fields are omitted per Type (spec.md §6.3).
type Event struct {
	Type       string                 `json:"type"`
	Start      Rat                    `json:"start,omitempty"`
	Dur        *Rat                   `json:"dur,omitempty"`
	Pitch      *Pitch                 `json:"pitch,omitempty"`
	Pitches    []Pitch                `json:"pitches,omitempty"`
	Key        string                 `json:"key,omitempty"`
	Velocity   *float64               `json:"velocity,omitempty"`
	Voice      string                 `json:"voice,omitempty"`
	Techniques []string               `json:"techniques,omitempty"`
	Lyric      string                 `json:"lyric,omitempty"`
	Intensity  *float64               `json:"intensity,omitempty"`
	Kind_      string                 `json:"kind,omitempty"`
	Data       interface{}            `json:"data,omitempty"`
	Param      string                 `json:"param,omitempty"`
	End        *Rat                   `json:"end,omitempty"`
	Curve      *Curve                 `json:"curve,omitempty"`
	Pos        *Rat                   `json:"pos,omitempty"`
	MarkerKind string                 `json:"markerKind,omitempty"`
	Label      string                 `json:"label,omitempty"`
	Ext        map[string]interface{} `json:"ext,omitempty"`
}

type ClipLike struct {
	Events []Event `json:"events"`
	Length *Rat    `json:"length,omitempty"`
}

type Placement struct {
	At   Rat      `json:"at"`
	Clip ClipLike `json:"clip"`
}

type Track struct {
	Name       string                 `json:"name"`
	Role       string                 `json:"role"`
	Sound      string                 `json:"sound"`
	Mix        map[string]interface{} `json:"mix,omitempty"`
	Placements []Placement            `json:"placements"`
}

type Marker struct {
	Pos   Rat    `json:"pos"`
	Kind  string `json:"kind"`
	Label string `json:"label"`
}

// Document is the top-level IR document (spec.md §6.3).
type Document struct {
	Tako      Tako         `json:"tako"`
	Meta      Meta         `json:"meta"`
	TempoMap  []TempoPoint `json:"tempoMap"`
	MeterMap  []MeterPoint `json:"meterMap"`
	Sounds    []SoundDecl  `json:"sounds"`
	Tracks    []Track      `json:"tracks"`
	Markers   []Marker     `json:"markers"`
}

// Marshal renders doc to its canonical JSON encoding.
func Marshal(doc *Document) ([]byte, error) {
	return json.MarshalIndent(doc, "", "  ")
}
