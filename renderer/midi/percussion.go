package midi

import (
	"github.com/tako0614/takomusic/internal/ir"
	"github.com/tako0614/takomusic/legacy"
)

// ccBreath is General MIDI's breath-controller CC number, used for
// EventBreath intensity the way a wind instrument's breath signal
// would drive it.
const ccBreath uint8 = 2

// ccNames maps the free-form controller/automation-parameter names
// TakoMusic scores use to their standard GM CC numbers.
var ccNames = map[string]uint8{
	"modulation": 1,
	"breath":     2,
	"volume":     7,
	"pan":        10,
	"expression": 11,
	"sustain":    64,
	"brightness": 74,
}

func ccNumberForName(name string) (uint8, bool) {
	cc, ok := ccNames[name]
	return cc, ok
}

// defaultDrumKeys maps common drum-hit key names to their GM
// percussion note, reusing the percussion key constants
// general_midi.go defines (AcousticBassDrum, AcousticSnare, ...). This
// is the fallback used when a score's SoundDecl doesn't declare its
// own drumKeys table.
var defaultDrumKeys = map[string]uint8{
	"kick":        legacy.BassDrum1,
	"kick2":       legacy.AcousticBassDrum,
	"snare":       legacy.AcousticSnare,
	"snareRim":    legacy.SideStick,
	"clap":        legacy.HandClap,
	"hihat":       legacy.ClosedHiHat,
	"hihatOpen":   legacy.OpenHiHat,
	"hihatPedal":  legacy.PedalHiHat,
	"ride":        legacy.RideCymbal1,
	"rideBell":    legacy.RideBell,
	"crash":       legacy.CrashCymbal1,
	"crash2":      legacy.CrashCymbal2,
	"china":       legacy.ChineseCymbal,
	"splash":      legacy.SplashCymbal,
	"tom1":        legacy.HighTom,
	"tom2":        legacy.HiMidTom,
	"tom3":        legacy.LowMidTom,
	"tom4":        legacy.LowTom,
	"floorTom":    legacy.LowFloorTom,
	"floorTom2":   legacy.HighFloorTom,
	"cowbell":     legacy.Cowbell,
	"tambourine":  legacy.Tambourine,
}

// drumKeyToGM resolves a drumHit event's key string to a GM percussion
// note number, preferring the sound's own declared drumKeys (spec.md's
// SoundDecl.drumKeys) over the built-in fallback table.
func drumKeyToGM(sound ir.SoundDecl, key string) (uint8, bool) {
	if v, ok := sound.DrumKeys[key]; ok {
		return uint8(v), true
	}
	gm, ok := defaultDrumKeys[key]
	return gm, ok
}
