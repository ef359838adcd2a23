package sequencer

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"beatmachine/debug"
	"beatmachine/midi"
)

type fakeSender struct {
	mu     sync.Mutex
	events []midi.Event
	sent   chan struct{}
}

func newFakeSender() *fakeSender {
	return &fakeSender{sent: make(chan struct{}, 16)}
}

func (f *fakeSender) Send(ev midi.Event) error {
	f.mu.Lock()
	f.events = append(f.events, ev)
	f.mu.Unlock()
	f.sent <- struct{}{}
	return nil
}

func (f *fakeSender) all() []midi.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]midi.Event(nil), f.events...)
}

func TestMIDIPlayerTrigger(t *testing.T) {
	out := newFakeSender()
	p := NewMIDIPlayer(out, GetKit("gm"), 10)

	if err := p.Trigger(SnareDrum, time.Now(), 1.0); err != nil {
		t.Fatalf("Trigger: %v", err)
	}

	events := out.all()
	if len(events) != 1 {
		t.Fatalf("got %d events", len(events))
	}
	want := midi.Event{Type: midi.NoteOn, Channel: 9, Note: 38, Velocity: 127}
	if events[0] != want {
		t.Errorf("event = %+v, want %+v", events[0], want)
	}
}

func TestMIDIPlayerDelaysFutureHits(t *testing.T) {
	out := newFakeSender()
	p := NewMIDIPlayer(out, GetKit("gm"), 1)

	if err := p.Trigger(KickDrum, time.Now().Add(30*time.Millisecond), 0.5); err != nil {
		t.Fatalf("Trigger: %v", err)
	}
	if len(out.all()) != 0 {
		t.Fatal("future hit sent immediately")
	}

	select {
	case <-out.sent:
	case <-time.After(time.Second):
		t.Fatal("delayed hit never sent")
	}
	ev := out.all()[0]
	if ev.Channel != 0 || ev.Note != 36 || ev.Velocity != 64 {
		t.Errorf("event = %+v", ev)
	}
}

type closedSender struct{}

func (closedSender) Send(midi.Event) error { return midi.ErrClosed }

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestMIDIPlayerLogsDelayedSendError(t *testing.T) {
	var logs syncBuffer
	debug.EnableWriter(&logs)
	defer debug.Disable()

	p := NewMIDIPlayer(closedSender{}, GetKit("gm"), 10)
	if err := p.Trigger(HighHat, time.Now().Add(20*time.Millisecond), 1); err != nil {
		t.Fatalf("Trigger: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for !strings.Contains(logs.String(), midi.ErrClosed.Error()) {
		if time.Now().After(deadline) {
			t.Fatalf("send error not logged: %q", logs.String())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestMIDIPlayerBadChannelUsesDrums(t *testing.T) {
	out := newFakeSender()
	p := NewMIDIPlayer(out, GetKit("gm"), 0)
	p.Trigger(Clap, time.Time{}, 0.8)
	if ev := out.all()[0]; ev.Channel != midi.DrumChannel {
		t.Errorf("channel = %d, want %d", ev.Channel, midi.DrumChannel)
	}
}

func TestMIDIPlayerInvalidSound(t *testing.T) {
	p := NewMIDIPlayer(newFakeSender(), GetKit("gm"), 10)
	if err := p.Trigger(Sound(42), time.Now(), 1); err == nil {
		t.Error("expected error for unknown sound")
	}
}

func TestMIDIVelocity(t *testing.T) {
	tests := []struct {
		in   float64
		want uint8
	}{
		{0, 1},
		{-1, 1},
		{0.5, 64},
		{1, 127},
		{2, 127},
	}
	for _, tt := range tests {
		if got := MIDIVelocity(tt.in); got != tt.want {
			t.Errorf("MIDIVelocity(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestMuteIgnoresHits(t *testing.T) {
	var p Player = Mute{}
	if err := p.Trigger(Clap, time.Now(), 1); err != nil {
		t.Errorf("Mute.Trigger: %v", err)
	}
}
