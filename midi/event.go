package midi

// MIDI message types
const (
	NoteOn  uint8 = 0x90
	NoteOff uint8 = 0x80
)

// Drum channel is 10 (9 zero-based) on General MIDI gear
const DrumChannel uint8 = 9

// Event represents a MIDI event in the sequencer
type Event struct {
	Type     uint8 // NoteOn, NoteOff
	Channel  uint8 // zero-based
	Note     uint8
	Velocity uint8
}
