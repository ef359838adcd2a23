package midi

import (
	"errors"
	"fmt"
	"sync"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver

	"beatmachine/debug"
)

// ErrNoPort is returned when no output port matches
var ErrNoPort = errors.New("midi output port not found")

// ErrClosed is returned when sending on a closed output
var ErrClosed = errors.New("midi output closed")

// How long to wait for the driver to enumerate ports (CoreMIDI can hang)
const portScanTimeout = 3 * time.Second

// DefaultGate is how long a triggered drum note is held
const DefaultGate = 50 * time.Millisecond

// ListOutPorts returns the names of all MIDI output ports
func ListOutPorts() ([]string, error) {
	outs, err := outPorts()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(outs))
	for i, out := range outs {
		names[i] = out.String()
	}
	return names, nil
}

func outPorts() ([]drivers.Out, error) {
	ch := make(chan []drivers.Out, 1)
	go func() {
		ch <- gomidi.GetOutPorts()
	}()

	select {
	case outs := <-ch:
		return outs, nil
	case <-time.After(portScanTimeout):
		return nil, fmt.Errorf("timed out listing midi ports after %s", portScanTimeout)
	}
}

// Output sends drum hits to a MIDI port
type Output struct {
	name   string
	send   func(gomidi.Message) error
	gate   time.Duration
	mu     sync.Mutex
	closed bool
	timers map[*time.Timer]Event // pending note-offs
}

// OpenOutput opens the named port. An empty name picks the first port.
func OpenOutput(portName string, gate time.Duration) (*Output, error) {
	outs, err := outPorts()
	if err != nil {
		return nil, err
	}

	for _, port := range outs {
		if portName != "" && port.String() != portName {
			continue
		}
		send, err := gomidi.SendTo(port)
		if err != nil {
			return nil, fmt.Errorf("open port %s: %w", port.String(), err)
		}
		debug.Log("midi", "opened output %q", port.String())
		return NewOutput(port.String(), send, gate), nil
	}

	if portName == "" {
		return nil, ErrNoPort
	}
	return nil, fmt.Errorf("%w: %s", ErrNoPort, portName)
}

// NewOutput wraps a raw send function
func NewOutput(name string, send func(gomidi.Message) error, gate time.Duration) *Output {
	if gate <= 0 {
		gate = DefaultGate
	}
	return &Output{
		name:   name,
		send:   send,
		gate:   gate,
		timers: make(map[*time.Timer]Event),
	}
}

// Name is the port name
func (o *Output) Name() string {
	return o.name
}

// Send writes an event. Note-ons get a matching note-off after the gate.
func (o *Output) Send(ev Event) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return ErrClosed
	}

	switch ev.Type {
	case NoteOn:
		if err := o.send(gomidi.NoteOn(ev.Channel, ev.Note, ev.Velocity)); err != nil {
			return fmt.Errorf("note on %d: %w", ev.Note, err)
		}
		var t *time.Timer
		t = time.AfterFunc(o.gate, func() {
			o.mu.Lock()
			defer o.mu.Unlock()
			if _, ok := o.timers[t]; !ok {
				return
			}
			delete(o.timers, t)
			o.send(gomidi.NoteOff(ev.Channel, ev.Note))
		})
		o.timers[t] = ev
	case NoteOff:
		if err := o.send(gomidi.NoteOff(ev.Channel, ev.Note)); err != nil {
			return fmt.Errorf("note off %d: %w", ev.Note, err)
		}
	default:
		return fmt.Errorf("unsupported midi event type 0x%02x", ev.Type)
	}
	return nil
}

// Close flushes pending note-offs and stops accepting events
func (o *Output) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return nil
	}
	o.closed = true
	// Send pending note-offs now so nothing hangs
	var firstErr error
	for t, ev := range o.timers {
		t.Stop()
		if err := o.send(gomidi.NoteOff(ev.Channel, ev.Note)); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	o.timers = nil
	return firstErr
}

// CloseDriver releases the MIDI driver; call once at exit
func CloseDriver() {
	gomidi.CloseDriver()
}
