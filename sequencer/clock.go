package sequencer

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"beatmachine/debug"
)

// DefaultTempo is the step length in seconds
const DefaultTempo = 0.3

// ErrInvalidTempo is returned for a non-positive tempo
var ErrInvalidTempo = errors.New("tempo must be positive")

// TickFunc is called once per step with the step's scheduled time
type TickFunc func(at time.Time, step int)

// Scheduler drives ticks at a tempo-controlled rate
type Scheduler interface {
	Start(steps int, fn TickFunc)
	Stop()
	SetTempo(tempo float64) error
	Tempo() float64
}

// Clock is a Scheduler backed by a goroutine and wall-clock timers.
// Tempo is the length of one step in seconds.
type Clock struct {
	tempo    float64
	running  bool
	stopChan chan struct{}
	done     chan struct{}
	retempo  chan struct{}
	mu       sync.Mutex

	now   func() time.Time
	after func(time.Duration) <-chan time.Time
}

// NewClock creates a stopped clock
func NewClock(tempo float64) *Clock {
	if tempo <= 0 {
		tempo = DefaultTempo
	}
	return &Clock{
		tempo:   tempo,
		retempo: make(chan struct{}, 1),
		now:     time.Now,
		after:   time.After,
	}
}

// Tempo returns the current step length in seconds
func (c *Clock) Tempo() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tempo
}

// SetTempo changes the step length. A running loop reschedules the
// pending step from the last step time.
func (c *Clock) SetTempo(tempo float64) error {
	if tempo <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidTempo, tempo)
	}
	c.mu.Lock()
	c.tempo = tempo
	c.mu.Unlock()

	select {
	case c.retempo <- struct{}{}:
	default:
	}
	return nil
}

// Running reports whether a loop is active
func (c *Clock) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Start begins ticking from step 0, cycling over steps. Starting a
// running clock does nothing.
func (c *Clock) Start(steps int, fn TickFunc) {
	if steps < 1 || fn == nil {
		return
	}

	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return
	}
	c.running = true
	c.stopChan = make(chan struct{})
	c.done = make(chan struct{})
	stop, done := c.stopChan, c.done
	c.mu.Unlock()

	go c.loop(steps, fn, stop, done)
}

// Stop ends the loop and waits for it to exit, so a later Start never
// overlaps the old loop.
func (c *Clock) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	close(c.stopChan)
	done := c.done
	c.mu.Unlock()

	<-done
}

func (c *Clock) loop(steps int, fn TickFunc, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	step := 0
	next := c.now()
	for {
		select {
		case <-stop:
			return
		default:
		}

		fn(next, step)
		debug.LogEvery(64, "clock", "step %d", step)

		prev := next
	waiting:
		for {
			var wait time.Duration
			next, wait = c.nextTick(prev)
			select {
			case <-stop:
				return
			case <-c.retempo:
			case <-c.after(wait):
				break waiting
			}
		}

		step = (step + 1) % steps
	}
}

// nextTick schedules against the previous step time so jitter doesn't
// accumulate. A late step fires now.
func (c *Clock) nextTick(prev time.Time) (time.Time, time.Duration) {
	c.mu.Lock()
	stepDuration := time.Duration(c.tempo * float64(time.Second))
	c.mu.Unlock()

	next := prev.Add(stepDuration)
	wait := next.Sub(c.now())
	if wait < 0 {
		return c.now(), 0
	}
	return next, wait
}
