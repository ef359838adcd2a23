package sequencer

import "fmt"

// Sound identifies an instrument row. Row order is fixed.
type Sound int

const (
	Clap Sound = iota
	HighHat
	KickDrum
	Maracas
	RimShot
	SnareDrum

	NumSounds = 6
)

var soundNames = [NumSounds]string{
	"clap",
	"highHat",
	"kickDrum",
	"maracas",
	"rimShot",
	"snareDrum",
}

var soundLabels = [NumSounds]string{
	"Clap",
	"Hi-hat",
	"Kick",
	"Maracas",
	"Rimshot",
	"Snare",
}

// Sounds returns every row in order
func Sounds() []Sound {
	out := make([]Sound, NumSounds)
	for i := range out {
		out[i] = Sound(i)
	}
	return out
}

func (s Sound) Valid() bool { return s >= 0 && s < NumSounds }

func (s Sound) String() string {
	if !s.Valid() {
		return fmt.Sprintf("Sound(%d)", int(s))
	}
	return soundNames[s]
}

// Label is the short display name
func (s Sound) Label() string {
	if !s.Valid() {
		return s.String()
	}
	return soundLabels[s]
}

// SamplePath is where the sound's sample lives on the web backend
func (s Sound) SamplePath() string {
	files := [NumSounds]string{
		"clap.mp3",
		"high_hat.mp3",
		"kick_drum.mp3",
		"maracas.mp3",
		"rim_shot.mp3",
		"snare_drum.mp3",
	}
	if !s.Valid() {
		return ""
	}
	return "/app/assets/audio/" + files[s]
}

// Samples maps each sound name to its sample path
func Samples() map[string]string {
	out := make(map[string]string, NumSounds)
	for _, s := range Sounds() {
		out[s.String()] = s.SamplePath()
	}
	return out
}

// DrumKit maps the sound rows to MIDI notes
type DrumKit struct {
	Name  string
	Notes [NumSounds]uint8
}

// Note returns the MIDI note for a row
func (k DrumKit) Note(s Sound) uint8 {
	if !s.Valid() {
		return 0
	}
	return k.Notes[s]
}

// Kits contains all available drum kit mappings
var Kits = map[string]DrumKit{
	"gm": {
		Name: "General MIDI",
		Notes: [NumSounds]uint8{
			39, // Clap
			42, // Closed HH
			36, // Kick
			70, // Maracas
			37, // Rimshot
			38, // Snare
		},
	},
	"rd8": {
		Name: "Behringer RD-8",
		Notes: [NumSounds]uint8{
			39, // Clap (CP)
			42, // Closed HH (CH)
			36, // Kick (BD)
			70, // Maracas (MA)
			37, // Rimshot (RS)
			40, // Snare (SD) - RD-8 uses 40, not 38
		},
	},
	"tr8s": {
		Name: "Roland TR-8S",
		Notes: [NumSounds]uint8{
			39, // Clap
			42, // Closed HH
			36, // Kick
			70, // Maracas
			37, // Rimshot
			38, // Snare
		},
	},
	"er1": {
		Name: "Korg ER-1",
		Notes: [NumSounds]uint8{
			39, // Hand Clap (PCM)
			42, // Closed HH (PCM)
			36, // Perc Synth 1
			46, // Open HH (PCM), no maracas voice
			40, // Perc Synth 3
			38, // Perc Synth 2
		},
	},
}

// KitNames returns the list of available kit names
func KitNames() []string {
	return []string{"gm", "rd8", "tr8s", "er1"}
}

// GetKit returns a kit by name, defaulting to GM if not found
func GetKit(name string) DrumKit {
	if kit, ok := Kits[name]; ok {
		return kit
	}
	return Kits[DefaultKit]
}

// DefaultKit is the default kit name
const DefaultKit = "gm"
