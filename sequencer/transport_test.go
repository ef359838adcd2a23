package sequencer

import (
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"
)

type fakeScheduler struct {
	mu     sync.Mutex
	starts int
	stops  int
	steps  int
	fn     TickFunc
	tempo  float64
}

func (f *fakeScheduler) Start(steps int, fn TickFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts++
	f.steps = steps
	f.fn = fn
}

func (f *fakeScheduler) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
}

func (f *fakeScheduler) SetTempo(tempo float64) error {
	if tempo <= 0 {
		return ErrInvalidTempo
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tempo = tempo
	return nil
}

func (f *fakeScheduler) Tempo() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tempo
}

func (f *fakeScheduler) tick(step int) {
	f.mu.Lock()
	fn := f.fn
	f.mu.Unlock()
	fn(time.Unix(100, 0), step)
}

type hit struct {
	sound    Sound
	at       time.Time
	velocity float64
}

type recordingPlayer struct {
	mu   sync.Mutex
	hits []hit
}

func (p *recordingPlayer) Trigger(s Sound, at time.Time, velocity float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hits = append(p.hits, hit{s, at, velocity})
	return nil
}

func (p *recordingPlayer) take() []hit {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := p.hits
	p.hits = nil
	return out
}

func newTestTransport(t *testing.T) (*Transport, *fakeScheduler, *recordingPlayer) {
	t.Helper()
	sched := &fakeScheduler{tempo: DefaultTempo}
	player := &recordingPlayer{}
	tr := NewTransport(NewGrid(NumSounds, DefaultSteps), sched, player)
	tr.SetRand(rand.New(rand.NewSource(1)))
	return tr, sched, player
}

func TestPlayTwiceStartsOnce(t *testing.T) {
	tr, sched, _ := newTestTransport(t)

	tr.Play()
	tr.Play()

	if sched.starts != 1 {
		t.Errorf("starts = %d, want 1", sched.starts)
	}
	if sched.steps != DefaultSteps {
		t.Errorf("steps = %d, want %d", sched.steps, DefaultSteps)
	}
	if !tr.Playing() {
		t.Error("should be playing")
	}
}

func TestStopTwiceStopsOnce(t *testing.T) {
	tr, sched, _ := newTestTransport(t)

	tr.Stop()
	if sched.stops != 0 {
		t.Errorf("stopping a stopped transport called Stop %d times", sched.stops)
	}

	tr.Play()
	tr.Stop()
	tr.Stop()
	if sched.stops != 1 {
		t.Errorf("stops = %d, want 1", sched.stops)
	}
	if tr.Playing() {
		t.Error("should be stopped")
	}
}

func TestToggleAlternates(t *testing.T) {
	tr, sched, _ := newTestTransport(t)

	tr.Toggle()
	tr.Toggle()
	tr.Toggle()

	if sched.starts != 2 || sched.stops != 1 {
		t.Errorf("starts=%d stops=%d, want 2 and 1", sched.starts, sched.stops)
	}
	if !tr.Playing() {
		t.Error("odd number of toggles should leave it playing")
	}
}

func TestTickTriggersActiveRows(t *testing.T) {
	tr, sched, player := newTestTransport(t)
	g := tr.Grid()
	g.Toggle(int(Clap), 2)
	g.Toggle(int(SnareDrum), 2)
	g.Toggle(int(Maracas), 4)

	var steps []int
	tr.OnStep(func(col int) { steps = append(steps, col) })

	tr.Play()
	sched.tick(2)

	hits := player.take()
	if len(hits) != 2 {
		t.Fatalf("got %d hits, want 2", len(hits))
	}
	if hits[0].sound != Clap || hits[1].sound != SnareDrum {
		t.Errorf("hits = %v", hits)
	}
	for _, h := range hits {
		if h.velocity < MinVelocity || h.velocity >= MaxVelocity {
			t.Errorf("velocity %v outside [%v, %v)", h.velocity, MinVelocity, MaxVelocity)
		}
		if !h.at.Equal(time.Unix(100, 0)) {
			t.Errorf("hit at %v, want the tick time", h.at)
		}
	}
	if tr.Playhead() != 2 {
		t.Errorf("Playhead() = %d, want 2", tr.Playhead())
	}

	sched.tick(3)
	if hits := player.take(); len(hits) != 0 {
		t.Errorf("empty column triggered %d hits", len(hits))
	}

	if len(steps) != 2 || steps[0] != 2 || steps[1] != 3 {
		t.Errorf("highlighted steps = %v, want [2 3]", steps)
	}
}

func TestTickReadsCurrentGrid(t *testing.T) {
	tr, sched, player := newTestTransport(t)
	tr.Play()

	sched.tick(0)
	if len(player.take()) != 0 {
		t.Fatal("empty grid should be silent")
	}

	tr.Grid().Toggle(int(KickDrum), 0)
	sched.tick(0)
	if hits := player.take(); len(hits) != 1 || hits[0].sound != KickDrum {
		t.Errorf("edit while playing not heard: %v", hits)
	}

	g := NewGrid(NumSounds, DefaultSteps)
	g.Toggle(int(RimShot), 1)
	tr.SetGrid(g)
	sched.tick(1)
	if hits := player.take(); len(hits) != 1 || hits[0].sound != RimShot {
		t.Errorf("swapped grid not heard: %v", hits)
	}
}

func TestStopClearsPlayhead(t *testing.T) {
	tr, sched, player := newTestTransport(t)
	tr.Grid().Toggle(0, 5)

	var last int
	tr.OnStep(func(col int) { last = col })

	tr.Play()
	sched.tick(5)
	if last != 5 {
		t.Fatalf("last step = %d, want 5", last)
	}

	tr.Stop()
	if tr.Playhead() != -1 {
		t.Errorf("Playhead() = %d after stop, want -1", tr.Playhead())
	}
	if last != -1 {
		t.Errorf("stop should clear the highlight, got %d", last)
	}

	player.take()
	sched.tick(5)
	if hits := player.take(); len(hits) != 0 {
		t.Errorf("late tick after stop triggered %d hits", len(hits))
	}
}

func TestSetTempoForwards(t *testing.T) {
	tr, sched, _ := newTestTransport(t)

	if err := tr.SetTempo(0.15); err != nil {
		t.Fatalf("SetTempo: %v", err)
	}
	if sched.Tempo() != 0.15 || tr.Tempo() != 0.15 {
		t.Errorf("tempo = %v", tr.Tempo())
	}
	if err := tr.SetTempo(0); !errors.Is(err, ErrInvalidTempo) {
		t.Errorf("SetTempo(0) err = %v, want ErrInvalidTempo", err)
	}
}
