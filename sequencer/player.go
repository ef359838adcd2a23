package sequencer

import (
	"fmt"
	"math"
	"time"

	"beatmachine/debug"
	"beatmachine/midi"
)

// NoteSender delivers MIDI events to an output
type NoteSender interface {
	Send(ev midi.Event) error
}

// MIDIPlayer plays sounds as drum notes through a kit mapping
type MIDIPlayer struct {
	out     NoteSender
	kit     DrumKit
	channel uint8 // zero-based
}

// NewMIDIPlayer creates a player; channel is 1-16
func NewMIDIPlayer(out NoteSender, kit DrumKit, channel int) *MIDIPlayer {
	if channel < 1 || channel > 16 {
		channel = int(midi.DrumChannel) + 1
	}
	return &MIDIPlayer{out: out, kit: kit, channel: uint8(channel - 1)}
}

// Trigger sends a note-on for the sound. Hits for a future time are
// delayed until then.
func (p *MIDIPlayer) Trigger(s Sound, at time.Time, velocity float64) error {
	if !s.Valid() {
		return fmt.Errorf("no note for %s", s)
	}
	ev := midi.Event{
		Type:     midi.NoteOn,
		Channel:  p.channel,
		Note:     p.kit.Note(s),
		Velocity: MIDIVelocity(velocity),
	}

	if wait := time.Until(at); wait > time.Millisecond {
		time.AfterFunc(wait, func() {
			if err := p.out.Send(ev); err != nil {
				debug.Log("player", "delayed %s: %v", s, err)
			}
		})
		return nil
	}
	return p.out.Send(ev)
}

// MIDIVelocity scales 0..1 to 1..127
func MIDIVelocity(v float64) uint8 {
	scaled := math.Round(v * 127)
	if scaled < 1 {
		return 1
	}
	if scaled > 127 {
		return 127
	}
	return uint8(scaled)
}

// Mute discards every hit; used when no MIDI port is available
type Mute struct{}

func (Mute) Trigger(Sound, time.Time, float64) error { return nil }
