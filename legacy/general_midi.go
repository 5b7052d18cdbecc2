package legacy

// General MIDI Drum/Percussion Key Map
// Reference: https://computermusicresource.com/GM.Percussion.KeyMap.html
const (
	AcousticBassDrum = 35 // B0 - Acoustic Bass Drum
	BassDrum1        = 36 // C1 - Bass Drum 1
	SideStick        = 37 // C#1 - Side Stick
	AcousticSnare    = 38 // D1 - Acoustic Snare
	HandClap         = 39 // Eb1 - Hand Clap
	ElectricSnare    = 40 // E1 - Electric Snare
	LowFloorTom      = 41 // F1 - Low Floor Tom
	ClosedHiHat      = 42 // F#1 - Closed Hi Hat
	HighFloorTom     = 43 // G1 - High Floor Tom
	PedalHiHat       = 44 // Ab1 - Pedal Hi-Hat
	LowTom           = 45 // A1 - Low Tom
	OpenHiHat        = 46 // Bb1 - Open Hi-Hat
	LowMidTom        = 47 // B1 - Low-Mid Tom
	HiMidTom         = 48 // C2 - Hi Mid Tom
	CrashCymbal1     = 49 // C#2 - Crash Cymbal 1
	HighTom          = 50 // D2 - High Tom
	RideCymbal1      = 51 // Eb2 - Ride Cymbal 1
	ChineseCymbal    = 52 // E2 - Chinese Cymbal
	RideBell         = 53 // F2 - Ride Bell
	Tambourine       = 54 // F#2 - Tambourine
	SplashCymbal     = 55 // G2 - Splash Cymbal
	Cowbell          = 56 // Ab2 - Cowbell
	CrashCymbal2     = 57 // A2 - Crash Cymbal 2
	Vibraslap        = 58 // Bb2 - Vibraslap
	RideCymbal2      = 59 // B2 - Ride Cymbal 2
	HiBongo          = 60 // C3 - Hi Bongo
	LowBongo         = 61 // C#3 - Low Bongo
	MuteHiConga      = 62 // D3 - Mute Hi Conga
	OpenHiConga      = 63 // Eb3 - Open Hi Conga
	LowConga         = 64 // E3 - Low Conga
	HighTimbale      = 65 // F3 - High Timbale
	LowTimbale       = 66 // F#3 - Low Timbale
	HighAgogo        = 67 // G3 - High Agogo
	LowAgogo         = 68 // Ab3 - Low Agogo
	Cabasa           = 69 // A3 - Cabasa
	Maracas          = 70 // Bb3 - Maracas
	ShortWhistle     = 71 // B3 - Short Whistle
	LongWhistle      = 72 // C4 - Long Whistle
	ShortGuiro       = 73 // C#4 - Short Guiro
	LongGuiro        = 74 // D4 - Long Guiro
	Claves           = 75 // Eb4 - Claves
	HiWoodBlock      = 76 // E4 - Hi Wood Block
	LowWoodBlock     = 77 // F4 - Low Wood Block
	MuteCuica        = 78 // F#4 - Mute Cuica
	OpenCuica        = 79 // G4 - Open Cuica
	MuteTriangle     = 80 // Ab4 - Mute Triangle
	OpenTriangle     = 81 // A4 - Open Triangle
)
