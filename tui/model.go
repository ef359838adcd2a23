package tui

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"beatmachine/beats"
	"beatmachine/sequencer"
	"beatmachine/theme"
	"beatmachine/widgets"
)

// TempoStep is how much +/- change the step duration, in seconds
const TempoStep = 0.05

const requestTimeout = 10 * time.Second

// Library lists saved beats
type Library interface {
	List(ctx context.Context) ([]beats.Beat, error)
}

type Model struct {
	Machine *sequencer.Machine
	Library Library
	Theme   *theme.Theme
	Screen  *Screen

	cursorRow int
	cursorCol int
	naming    bool
	input     textinput.Model
	status    string
	quitting  bool
}

// UpdateMsg is sent when the screen changes
type UpdateMsg struct{}

type libraryMsg struct {
	list []beats.Beat
	err  error
}

type savedMsg struct{ err error }

type deletedMsg struct{ err error }

func NewModel(machine *sequencer.Machine, library Library, screen *Screen, th *theme.Theme) Model {
	in := textinput.New()
	in.Placeholder = "beat name"
	in.CharLimit = 64
	in.Prompt = "Name: "
	return Model{
		Machine: machine,
		Library: library,
		Theme:   th,
		Screen:  screen,
		input:   in,
	}
}

func ListenForUpdates(screen *Screen) tea.Cmd {
	return func() tea.Msg {
		<-screen.Updates()
		return UpdateMsg{}
	}
}

func loadLibrary(lib Library) tea.Cmd {
	if lib == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		list, err := lib.List(ctx)
		return libraryMsg{list: list, err: err}
	}
}

func saveBeat(m *sequencer.Machine, name string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return savedMsg{err: m.Save(ctx, name)}
	}
}

func deleteBeat(m *sequencer.Machine) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return deletedMsg{err: m.Delete(ctx)}
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		ListenForUpdates(m.Screen),
		loadLibrary(m.Library),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.naming {
			return m.updateNaming(msg)
		}
		return m.updateGrid(msg)

	case UpdateMsg:
		if m.Screen.takeClearName() {
			m.input.SetValue("")
		}
		return m, ListenForUpdates(m.Screen)

	case libraryMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("could not load beats: %v", msg.err)
			return m, nil
		}
		m.Screen.SetLibrary(msg.list)
		m.status = fmt.Sprintf("%d saved beats", len(msg.list))

	case savedMsg:
		if msg.err == nil {
			m.status = "saved " + m.Machine.Beat().Name
		} else {
			m.status = ""
		}

	case deletedMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("delete failed: %v", msg.err)
		} else {
			m.status = "deleted"
		}
	}

	return m, nil
}

func (m Model) updateNaming(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.naming = false
		m.input.Blur()
		return m, nil
	case "enter":
		m.naming = false
		m.input.Blur()
		return m, saveBeat(m.Machine, strings.TrimSpace(m.input.Value()))
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updateGrid(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	g := m.Machine.Grid()

	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		m.Machine.Close()
		return m, tea.Quit

	case "h", "left":
		m.cursorCol = max(0, m.cursorCol-1)
	case "l", "right":
		m.cursorCol = min(g.Cols()-1, m.cursorCol+1)
	case "k", "up":
		m.cursorRow = max(0, m.cursorRow-1)
	case "j", "down":
		m.cursorRow = min(g.Rows()-1, m.cursorRow+1)

	case " ", "space", "enter":
		if err := m.Machine.Toggle(m.cursorRow, m.cursorCol); err != nil {
			m.status = err.Error()
		}

	case "p":
		m.Machine.HandlePlayClick()

	case "+", "=":
		m.changeTempo(-TempoStep)
	case "-", "_":
		m.changeTempo(TempoStep)

	case "c":
		m.Machine.Clear()

	case "s":
		if !m.Screen.snapshot().saveEnabled {
			return m, nil
		}
		m.naming = true
		return m, m.input.Focus()

	case "d":
		if !m.Screen.snapshot().deleteEnabled {
			return m, nil
		}
		return m, deleteBeat(m.Machine)

	case "[":
		if b, ok := m.Screen.step(-1); ok {
			m.Machine.ChangeBeat(b)
		}
	case "]":
		if b, ok := m.Screen.step(1); ok {
			m.Machine.ChangeBeat(b)
		}

	case "r":
		return m, loadLibrary(m.Library)
	}

	return m, nil
}

// changeTempo adjusts seconds per step; "+" shortens the step
func (m *Model) changeTempo(delta float64) {
	tempo := math.Round((m.Machine.Transport().Tempo()+delta)*100) / 100
	if err := m.Machine.ChangeTempo(tempo); err != nil {
		m.status = err.Error()
		return
	}
	m.status = ""
}

var keyHelp = []widgets.KeySection{
	{Keys: []widgets.KeyBinding{
		{Key: "hjkl/arrows", Desc: "move"},
		{Key: "space", Desc: "toggle step"},
		{Key: "p", Desc: "play/stop"},
		{Key: "+/-", Desc: "tempo"},
		{Key: "c", Desc: "clear"},
		{Key: "s", Desc: "save"},
		{Key: "d", Desc: "delete"},
		{Key: "[ ]", Desc: "browse beats"},
		{Key: "r", Desc: "reload beats"},
		{Key: "q", Desc: "quit"},
	}},
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	snap := m.Screen.snapshot()
	tr := m.Machine.Transport()

	headerStyle := lipgloss.NewStyle().Foreground(m.Theme.Accent())
	dimStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())

	playState := "STOP"
	if tr.Playing() {
		playState = "PLAY"
	}
	title := m.Machine.Beat().Name
	if title == "" {
		title = "untitled"
	}
	header := headerStyle.Render(fmt.Sprintf("beatmachine  %s  %.2fs/step  %s", playState, tr.Tempo(), title))

	labels := make([]string, 0, sequencer.NumSounds)
	for _, s := range sequencer.Sounds() {
		labels = append(labels, s.Label())
	}
	view := widgets.GridView{
		Labels:    labels,
		Playhead:  snap.playhead,
		CursorRow: m.cursorRow,
		CursorCol: m.cursorCol,
	}
	if snap.grid != nil {
		view.Cells = snap.grid
	}
	grid := widgets.RenderGrid(view, m.Theme)

	buttons := widgets.RenderButton("Save", snap.saveEnabled, m.Theme) + "   " +
		widgets.RenderButton("Delete", snap.deleteEnabled, m.Theme)

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(header)
	out.WriteString("\n\n")
	out.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		grid, "    ", widgets.RenderList(snap.names, snap.selected, m.Theme)))
	out.WriteString("\n\n")
	out.WriteString(buttons)
	if m.naming {
		out.WriteString("\n")
		out.WriteString(m.input.View())
	}
	if errs := widgets.RenderErrors(snap.errors, m.Theme); errs != "" {
		out.WriteString("\n")
		out.WriteString(errs)
	}
	if m.status != "" {
		out.WriteString("\n")
		out.WriteString(dimStyle.Render(m.status))
	}
	out.WriteString("\n\n")
	out.WriteString(dimStyle.Render(widgets.RenderKeyHelp(keyHelp)))

	return out.String()
}
