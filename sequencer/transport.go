package sequencer

import (
	"math/rand"
	"sync"
	"time"

	"beatmachine/debug"
)

// Velocity range for triggered hits; slightly randomized so repeated
// patterns don't sound mechanical.
const (
	MinVelocity = 0.5
	MaxVelocity = 1.0
)

// Player triggers a sound at a time with a velocity in (0, 1]
type Player interface {
	Trigger(s Sound, at time.Time, velocity float64) error
}

// StepFunc reports the highlighted column; -1 means none (stopped)
type StepFunc func(col int)

// Transport plays a grid through a Scheduler and a Player. It has two
// states, stopped and playing, guarded by a flag.
type Transport struct {
	sched  Scheduler
	player Player
	onStep StepFunc

	opMu sync.Mutex // serializes Play/Stop so runs never overlap

	mu       sync.Mutex
	grid     *Grid
	playing  bool
	playhead int
	rng      *rand.Rand
}

// NewTransport creates a stopped transport
func NewTransport(grid *Grid, sched Scheduler, player Player) *Transport {
	return &Transport{
		sched:    sched,
		player:   player,
		grid:     grid,
		playhead: -1,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SetRand replaces the velocity source (tests)
func (t *Transport) SetRand(r *rand.Rand) {
	t.mu.Lock()
	t.rng = r
	t.mu.Unlock()
}

// OnStep sets the column highlight callback
func (t *Transport) OnStep(fn StepFunc) {
	t.mu.Lock()
	t.onStep = fn
	t.mu.Unlock()
}

// SetGrid swaps the grid read on each tick
func (t *Transport) SetGrid(g *Grid) {
	t.mu.Lock()
	t.grid = g
	t.mu.Unlock()
}

// Grid returns the grid currently played
func (t *Transport) Grid() *Grid {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.grid
}

// Play starts the scheduler. Playing twice is a no-op.
func (t *Transport) Play() {
	t.opMu.Lock()
	defer t.opMu.Unlock()

	t.mu.Lock()
	if t.playing {
		t.mu.Unlock()
		return
	}
	t.playing = true
	steps := t.grid.Cols()
	t.mu.Unlock()

	debug.Log("transport", "play steps=%d tempo=%v", steps, t.sched.Tempo())
	t.sched.Start(steps, t.tick)
}

// Stop halts the scheduler and clears the playhead. Stopping twice is
// a no-op.
func (t *Transport) Stop() {
	t.opMu.Lock()
	defer t.opMu.Unlock()

	t.mu.Lock()
	if !t.playing {
		t.mu.Unlock()
		return
	}
	t.playing = false
	t.playhead = -1
	onStep := t.onStep
	t.mu.Unlock()

	// Waits for the run to finish; tick only takes mu
	t.sched.Stop()
	debug.Log("transport", "stop")

	if onStep != nil {
		onStep(-1)
	}
}

// Toggle flips between playing and stopped (the play/pause button)
func (t *Transport) Toggle() {
	if t.Playing() {
		t.Stop()
	} else {
		t.Play()
	}
}

// Playing reports the transport state
func (t *Transport) Playing() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.playing
}

// Playhead is the column last played, -1 when stopped
func (t *Transport) Playhead() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.playhead
}

// SetTempo forwards to the scheduler, which owns validation
func (t *Transport) SetTempo(tempo float64) error {
	debug.Log("transport", "tempo %v", tempo)
	return t.sched.SetTempo(tempo)
}

// Tempo returns the scheduler's tempo
func (t *Transport) Tempo() float64 {
	return t.sched.Tempo()
}

// tick plays one column: every active row is triggered at the tick's
// time, then the column is reported for highlighting.
func (t *Transport) tick(at time.Time, step int) {
	t.mu.Lock()
	if !t.playing {
		t.mu.Unlock()
		return
	}
	col := step % t.grid.Cols()
	column := t.grid.Column(col)
	velocities := make([]float64, len(column))
	for i := range column {
		if column[i] {
			velocities[i] = MinVelocity + t.rng.Float64()*(MaxVelocity-MinVelocity)
		}
	}
	t.playhead = col
	onStep := t.onStep
	t.mu.Unlock()

	for row, on := range column {
		if !on {
			continue
		}
		if err := t.player.Trigger(Sound(row), at, velocities[row]); err != nil {
			debug.Log("transport", "trigger %s: %v", Sound(row), err)
		}
	}

	if onStep != nil {
		onStep(col)
	}
}
