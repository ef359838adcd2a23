package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"beatmachine/theme"
)

// Cells is a read-only view of a step grid
type Cells interface {
	Rows() int
	Cols() int
	IsActive(row, col int) bool
}

// GridView describes one frame of the step grid
type GridView struct {
	Cells     Cells
	Labels    []string // one per row
	Playhead  int      // -1 when stopped
	CursorRow int
	CursorCol int
}

// RenderGrid draws the grid with row labels on the left and a step
// ruler underneath.
func RenderGrid(v GridView, th *theme.Theme) string {
	if v.Cells == nil {
		return ""
	}
	sym := th.Symbols
	rows, cols := v.Cells.Rows(), v.Cells.Cols()

	labelWidth := 0
	for _, l := range v.Labels {
		labelWidth = max(labelWidth, lipgloss.Width(l))
	}
	labelStyle := lipgloss.NewStyle().Foreground(th.FG()).Width(labelWidth + 2)
	dimStyle := lipgloss.NewStyle().Foreground(th.Muted())
	cursorStyle := lipgloss.NewStyle().Foreground(th.Cursor()).Bold(true)
	playStyle := lipgloss.NewStyle().Foreground(th.Success())

	var lines []string
	for row := 0; row < rows; row++ {
		var line strings.Builder
		label := ""
		if row < len(v.Labels) {
			label = v.Labels[row]
		}
		line.WriteString(labelStyle.Render(label))

		rowStyle := lipgloss.NewStyle().Foreground(th.RowColor(row, rows))
		for col := 0; col < cols; col++ {
			active := v.Cells.IsActive(row, col)
			cursor := row == v.CursorRow && col == v.CursorCol

			var cell string
			switch {
			case cursor && active:
				cell = cursorStyle.Render(string(sym.CursorActive))
			case cursor:
				cell = cursorStyle.Render(string(sym.CursorEmpty))
			case active && col == v.Playhead:
				cell = playStyle.Render(string(sym.StepActive))
			case active:
				cell = rowStyle.Render(string(sym.StepActive))
			case col == v.Playhead:
				cell = playStyle.Render(string(sym.StepPlayhead))
			default:
				cell = dimStyle.Render(string(sym.StepEmpty))
			}
			line.WriteString(cell)
			line.WriteString(" ")
		}
		lines = append(lines, strings.TrimRight(line.String(), " "))
	}

	var ruler strings.Builder
	ruler.WriteString(strings.Repeat(" ", labelWidth+2))
	for col := 0; col < cols; col++ {
		mark := fmt.Sprintf("%d", (col+1)%10)
		if col == v.Playhead {
			ruler.WriteString(playStyle.Render(mark))
		} else {
			ruler.WriteString(dimStyle.Render(mark))
		}
		ruler.WriteString(" ")
	}
	lines = append(lines, strings.TrimRight(ruler.String(), " "))

	return strings.Join(lines, "\n")
}

// RenderButton renders "■ Label" when enabled and a dimmed "□ Label"
// otherwise
func RenderButton(label string, enabled bool, th *theme.Theme) string {
	if enabled {
		return lipgloss.NewStyle().Foreground(th.Accent()).
			Render(fmt.Sprintf("%c %s", th.Symbols.Enabled, label))
	}
	return lipgloss.NewStyle().Foreground(th.Muted()).
		Render(fmt.Sprintf("%c %s", th.Symbols.Disabled, label))
}

// RenderErrors renders one bullet per message
func RenderErrors(msgs []string, th *theme.Theme) string {
	if len(msgs) == 0 {
		return ""
	}
	style := lipgloss.NewStyle().Foreground(th.Warning())
	lines := make([]string, len(msgs))
	for i, msg := range msgs {
		lines[i] = style.Render("  • " + msg)
	}
	return strings.Join(lines, "\n")
}

// RenderList renders names with the selected one highlighted
func RenderList(names []string, selected int, th *theme.Theme) string {
	if len(names) == 0 {
		return lipgloss.NewStyle().Foreground(th.Muted()).Render("  (no saved beats)")
	}
	sel := lipgloss.NewStyle().Foreground(th.Success())
	dim := lipgloss.NewStyle().Foreground(th.FG())
	lines := make([]string, len(names))
	for i, name := range names {
		if i == selected {
			lines[i] = sel.Render("▸ " + name)
		} else {
			lines[i] = dim.Render("  " + name)
		}
	}
	return strings.Join(lines, "\n")
}

// RenderKeyHelp formats key bindings in a friendly way
func RenderKeyHelp(sections []KeySection) string {
	var lines []string
	for _, sec := range sections {
		if sec.Title != "" {
			lines = append(lines, sec.Title)
		}
		for _, k := range sec.Keys {
			lines = append(lines, fmt.Sprintf("  %-12s %s", k.Key, k.Desc))
		}
	}
	return strings.Join(lines, "\n")
}

// KeySection groups related key bindings
type KeySection struct {
	Title string
	Keys  []KeyBinding
}

// KeyBinding is a single key and its description
type KeyBinding struct {
	Key  string
	Desc string
}
