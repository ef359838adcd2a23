package sequencer

import (
	"context"
	"errors"
	"strings"
	"sync"

	"beatmachine/beats"
	"beatmachine/debug"
)

// User-facing save errors
const (
	MsgPleaseLogIn = "Please log in"
	MsgSaveFailed  = "Could not save beat"
)

// ErrNoService is returned by Save and Delete when no backend is wired
var ErrNoService = errors.New("no beat service configured")

// Presenter is the view the machine drives
type Presenter interface {
	RenderGrid(g *Grid, playhead int)
	SetSaveEnabled(enabled bool)
	SetDeleteEnabled(enabled bool)
	ShowErrors(msgs []string)
	ClearName()
}

// BeatService persists beats
type BeatService interface {
	Save(ctx context.Context, name, sound string) (beats.Beat, error)
	Delete(ctx context.Context, id int64) error
}

// MachineOptions wires a Machine
type MachineOptions struct {
	Rows, Steps int // default NumSounds x 10
	Beat        beats.Beat
	Scheduler   Scheduler
	Player      Player
	Service     BeatService
	View        Presenter

	OnSave     func(beats.Beat) // after a successful save
	OnDelete   func(beats.Beat) // after a successful delete
	OnUnselect func()           // the grid was edited by hand
}

// DefaultSteps is the number of columns in a new grid
const DefaultSteps = 10

// Machine is the beat editor: a grid, its transport, and save/delete
// against the backend.
type Machine struct {
	grid      *Grid
	transport *Transport
	service   BeatService
	view      Presenter

	onSave     func(beats.Beat)
	onDelete   func(beats.Beat)
	onUnselect func()

	mu   sync.Mutex
	beat beats.Beat
}

// NewMachine builds the grid (from the beat's sound when it has one),
// the transport, and disables save and delete.
func NewMachine(opts MachineOptions) *Machine {
	if opts.Rows < 1 {
		opts.Rows = NumSounds
	}
	if opts.Steps < 1 {
		opts.Steps = DefaultSteps
	}
	if opts.Scheduler == nil {
		opts.Scheduler = NewClock(DefaultTempo)
	}
	if opts.Player == nil {
		opts.Player = Mute{}
	}

	m := &Machine{
		grid:       gridFor(opts.Rows, opts.Steps, opts.Beat),
		service:    opts.Service,
		view:       opts.View,
		onSave:     opts.OnSave,
		onDelete:   opts.OnDelete,
		onUnselect: opts.OnUnselect,
		beat:       opts.Beat,
	}
	m.transport = NewTransport(m.grid, opts.Scheduler, opts.Player)
	m.transport.OnStep(m.renderStep)

	m.disableSave()
	m.render()
	return m
}

func gridFor(rows, steps int, b beats.Beat) *Grid {
	if b.Sound != "" {
		g, err := ParseGrid(rows, steps, b.Sound)
		if err == nil {
			return g
		}
		debug.Log("machine", "beat %q has unusable sound: %v", b.Name, err)
	}
	return NewGrid(rows, steps)
}

// Grid is the grid being edited
func (m *Machine) Grid() *Grid {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.grid
}

// Transport exposes play state and tempo
func (m *Machine) Transport() *Transport {
	return m.transport
}

// Beat is the beat being edited
func (m *Machine) Beat() beats.Beat {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.beat
}

// Toggle flips one cell. Hand edits deselect the loaded beat and make
// the pattern savable.
func (m *Machine) Toggle(row, col int) error {
	if err := m.Grid().Toggle(row, col); err != nil {
		return err
	}
	if m.onUnselect != nil {
		m.onUnselect()
	}
	if m.view != nil {
		m.view.SetSaveEnabled(true)
	}
	m.render()
	return nil
}

// Clear turns off every cell
func (m *Machine) Clear() {
	m.Grid().Clear()
	m.render()
}

// HandlePlayClick toggles playback
func (m *Machine) HandlePlayClick() {
	m.transport.Toggle()
	if !m.transport.Playing() {
		m.render()
	}
}

// ChangeTempo forwards to the transport
func (m *Machine) ChangeTempo(tempo float64) error {
	return m.transport.SetTempo(tempo)
}

// ChangeBeat replaces the grid wholesale with the beat's pattern
func (m *Machine) ChangeBeat(b beats.Beat) {
	m.mu.Lock()
	g := gridFor(m.grid.Rows(), m.grid.Cols(), b)
	m.grid = g
	m.beat = b
	m.mu.Unlock()

	m.transport.SetGrid(g)
	if m.view != nil {
		m.view.SetDeleteEnabled(b.Saved())
	}
	m.render()
}

// Save posts the grid under name. Failures are rendered into the
// error list and re-enable saving; the error is also returned.
func (m *Machine) Save(ctx context.Context, name string) error {
	sound := m.Grid().Serialize()

	m.disableSave()
	if m.view != nil {
		m.view.ClearName()
		m.view.ShowErrors(nil)
	}

	if m.service == nil {
		m.handleSaveError(ErrNoService)
		return ErrNoService
	}

	saved, err := m.service.Save(ctx, name, sound)
	if err != nil {
		m.handleSaveError(err)
		return err
	}

	debug.Log("machine", "saved beat %s as %q", saved.State, saved.Name)
	m.mu.Lock()
	m.beat = saved
	m.mu.Unlock()
	if m.view != nil {
		m.view.SetDeleteEnabled(saved.Saved())
	}
	if m.onSave != nil {
		m.onSave(saved)
	}
	return nil
}

// SaveErrorMessages turns a save failure into error list items
func SaveErrorMessages(err error) []string {
	var msgs []string

	var verr *beats.ValidationError
	var aerr *beats.AuthRequiredError
	var rerr *beats.ResponseError
	if errors.As(err, &rerr) {
		if v := rerr.Validation(beats.FieldName); v != nil {
			msgs = append(msgs, "Name "+strings.Join(v.Messages, ", "))
		}
		if v := rerr.Validation(beats.FieldSound); v != nil {
			msgs = append(msgs, "Sound "+strings.Join(v.Messages, ", "))
		}
		if rerr.AuthRequired() {
			msgs = append(msgs, MsgPleaseLogIn)
		}
	} else {
		if errors.As(err, &verr) {
			msgs = append(msgs, capitalize(verr.Field)+" "+strings.Join(verr.Messages, ", "))
		}
		if errors.As(err, &aerr) {
			msgs = append(msgs, MsgPleaseLogIn)
		}
	}

	if len(msgs) == 0 {
		msgs = append(msgs, MsgSaveFailed)
	}
	return msgs
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func (m *Machine) handleSaveError(err error) {
	debug.Log("machine", "save failed: %v", err)
	if m.view == nil {
		return
	}
	m.view.ShowErrors(SaveErrorMessages(err))
	m.view.SetSaveEnabled(true)
}

// Delete removes the current beat from the backend. An unsaved beat
// has nothing to delete.
func (m *Machine) Delete(ctx context.Context) error {
	b := m.Beat()
	id, ok := b.ID()
	if !ok {
		return nil
	}
	if m.service == nil {
		return ErrNoService
	}

	if err := m.service.Delete(ctx, id); err != nil {
		debug.Log("machine", "delete %d failed: %v", id, err)
		return err
	}

	m.mu.Lock()
	m.beat.State = beats.Unsaved
	m.mu.Unlock()
	if m.view != nil {
		m.view.SetDeleteEnabled(false)
	}
	if m.onDelete != nil {
		m.onDelete(b)
	}
	return nil
}

// Close stops playback
func (m *Machine) Close() {
	m.transport.Stop()
}

func (m *Machine) disableSave() {
	if m.view == nil {
		return
	}
	m.view.SetDeleteEnabled(false)
	m.view.SetSaveEnabled(false)
}

func (m *Machine) render() {
	m.renderStep(m.transport.Playhead())
}

func (m *Machine) renderStep(col int) {
	if m.view == nil {
		return
	}
	m.view.RenderGrid(m.Grid(), col)
}
