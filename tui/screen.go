package tui

import (
	"sync"

	"beatmachine/beats"
	"beatmachine/sequencer"
)

// Screen is the state the machine renders into. It implements
// sequencer.Presenter and is safe to drive from the clock goroutine;
// every change is announced on Updates.
type Screen struct {
	mu            sync.Mutex
	grid          *sequencer.Grid
	playhead      int
	saveEnabled   bool
	deleteEnabled bool
	errors        []string
	clearName     bool

	library  []beats.Beat
	selected int // -1 when the grid doesn't match a saved beat

	updates chan struct{}
}

var _ sequencer.Presenter = (*Screen)(nil)

// NewScreen creates an empty screen
func NewScreen() *Screen {
	return &Screen{
		playhead: -1,
		selected: -1,
		updates:  make(chan struct{}, 1),
	}
}

// Updates signals that the screen changed
func (s *Screen) Updates() <-chan struct{} {
	return s.updates
}

func (s *Screen) notify() {
	select {
	case s.updates <- struct{}{}:
	default:
	}
}

func (s *Screen) RenderGrid(g *sequencer.Grid, playhead int) {
	s.mu.Lock()
	s.grid = g
	s.playhead = playhead
	s.mu.Unlock()
	s.notify()
}

func (s *Screen) SetSaveEnabled(enabled bool) {
	s.mu.Lock()
	s.saveEnabled = enabled
	s.mu.Unlock()
	s.notify()
}

func (s *Screen) SetDeleteEnabled(enabled bool) {
	s.mu.Lock()
	s.deleteEnabled = enabled
	s.mu.Unlock()
	s.notify()
}

func (s *Screen) ShowErrors(msgs []string) {
	s.mu.Lock()
	s.errors = append([]string(nil), msgs...)
	s.mu.Unlock()
	s.notify()
}

func (s *Screen) ClearName() {
	s.mu.Lock()
	s.clearName = true
	s.mu.Unlock()
	s.notify()
}

// takeClearName reports and resets a pending ClearName
func (s *Screen) takeClearName() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.clearName
	s.clearName = false
	return v
}

// SetLibrary replaces the saved beat list, keeping the selection on
// the same beat id when it is still present
func (s *Screen) SetLibrary(list []beats.Beat) {
	s.mu.Lock()
	var selID int64 = -1
	if s.selected >= 0 && s.selected < len(s.library) {
		if id, ok := s.library[s.selected].ID(); ok {
			selID = id
		}
	}
	s.library = append([]beats.Beat(nil), list...)
	s.selected = -1
	for i, b := range s.library {
		if id, ok := b.ID(); ok && id == selID {
			s.selected = i
		}
	}
	s.mu.Unlock()
	s.notify()
}

// BeatSaved adds a freshly saved beat and selects it
func (s *Screen) BeatSaved(b beats.Beat) {
	s.mu.Lock()
	s.library = append(s.library, b)
	s.selected = len(s.library) - 1
	s.mu.Unlock()
	s.notify()
}

// BeatDeleted drops b from the library
func (s *Screen) BeatDeleted(b beats.Beat) {
	id, ok := b.ID()
	if !ok {
		return
	}
	s.mu.Lock()
	for i, lb := range s.library {
		if lid, _ := lb.ID(); lid == id {
			s.library = append(s.library[:i], s.library[i+1:]...)
			break
		}
	}
	s.selected = -1
	s.mu.Unlock()
	s.notify()
}

// Unselect clears the library selection after a hand edit
func (s *Screen) Unselect() {
	s.mu.Lock()
	s.selected = -1
	s.mu.Unlock()
	s.notify()
}

// step moves the selection by delta, wrapping, and returns the beat
func (s *Screen) step(delta int) (beats.Beat, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.library)
	if n == 0 {
		return beats.Beat{}, false
	}
	switch {
	case s.selected < 0 && delta > 0:
		s.selected = 0
	case s.selected < 0:
		s.selected = n - 1
	default:
		s.selected = ((s.selected+delta)%n + n) % n
	}
	return s.library[s.selected], true
}

type snapshot struct {
	grid          *sequencer.Grid
	playhead      int
	saveEnabled   bool
	deleteEnabled bool
	errors        []string
	names         []string
	selected      int
}

func (s *Screen) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, len(s.library))
	for i, b := range s.library {
		names[i] = b.Name
	}
	return snapshot{
		grid:          s.grid,
		playhead:      s.playhead,
		saveEnabled:   s.saveEnabled,
		deleteEnabled: s.deleteEnabled,
		errors:        append([]string(nil), s.errors...),
		names:         names,
		selected:      s.selected,
	}
}
