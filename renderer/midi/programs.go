package midi

// programForFamily maps a SoundDecl's free-form `family` string to a
// General MIDI program number (0-indexed). This table has no teacher
// precedent — leafo-songtool only ever emitted a fixed handful of
// hard-coded programs (gmBassProgram = 33 in pro_bass.go, gmOboe = 68
// in vocals.go) for Rock Band's fixed instrument slots — but it keeps
// the same "named GM constant per slot" convention general_midi.go
// uses for its percussion key map, extended to melodic programs so any
// sound family a score declares gets a reasonable GM voice instead of
// always falling back to Acoustic Grand Piano.
const (
	gmAcousticGrandPiano uint8 = 0
	gmElectricPiano      uint8 = 4
	gmDrawbarOrgan       uint8 = 16
	gmAcousticGuitarNylon uint8 = 24
	gmElectricGuitarClean uint8 = 27
	gmElectricGuitarDist uint8 = 30
	gmFingeredBass       uint8 = 33
	gmViolin             uint8 = 40
	gmStringEnsemble     uint8 = 48
	gmChoirAahs          uint8 = 52
	gmTrumpet            uint8 = 56
	gmBrassSection       uint8 = 61
	gmSopranoSax         uint8 = 64
	gmOboeProgram        uint8 = 68
	gmClarinet           uint8 = 71
	gmFlute              uint8 = 73
	gmSynthLead          uint8 = 80
	gmSynthPad           uint8 = 88
)

var familyPrograms = map[string]uint8{
	"piano":        gmAcousticGrandPiano,
	"keys":         gmElectricPiano,
	"organ":        gmDrawbarOrgan,
	"guitar":       gmAcousticGuitarNylon,
	"electric-guitar": gmElectricGuitarClean,
	"distortion-guitar": gmElectricGuitarDist,
	"bass":         gmFingeredBass,
	"strings":      gmStringEnsemble,
	"violin":       gmViolin,
	"choir":        gmChoirAahs,
	"brass":        gmBrassSection,
	"trumpet":      gmTrumpet,
	"sax":          gmSopranoSax,
	"oboe":         gmOboeProgram,
	"clarinet":     gmClarinet,
	"flute":        gmFlute,
	"synth-lead":   gmSynthLead,
	"synth-pad":    gmSynthPad,
}

// programForFamily returns the GM program for a sound's family,
// defaulting to Acoustic Grand Piano when the family is unset or
// unrecognized — the same default General MIDI itself assigns a
// channel with no program change.
func programForFamily(family string) uint8 {
	if p, ok := familyPrograms[family]; ok {
		return p
	}
	return gmAcousticGrandPiano
}
