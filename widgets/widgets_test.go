package widgets

import (
	"strings"
	"testing"

	"beatmachine/theme"
)

type fakeCells struct {
	rows, cols int
	on         map[[2]int]bool
}

func (f fakeCells) Rows() int                  { return f.rows }
func (f fakeCells) Cols() int                  { return f.cols }
func (f fakeCells) IsActive(row, col int) bool { return f.on[[2]int{row, col}] }

func TestRenderGridLines(t *testing.T) {
	th := theme.New(nil)
	cells := fakeCells{rows: 2, cols: 3, on: map[[2]int]bool{{0, 1}: true}}

	out := RenderGrid(GridView{
		Cells:     cells,
		Labels:    []string{"kick", "snare"},
		Playhead:  -1,
		CursorRow: 1,
		CursorCol: 2,
	}, th)

	lines := strings.Split(out, "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 2 rows + ruler:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[0], "kick") || !strings.Contains(lines[0], "●") {
		t.Errorf("row 0 = %q", lines[0])
	}
	if !strings.Contains(lines[1], "○") {
		t.Errorf("row 1 should show the cursor: %q", lines[1])
	}
	if strings.Contains(out, "▶") {
		t.Error("stopped grid should not show a playhead")
	}
}

func TestRenderGridPlayhead(t *testing.T) {
	th := theme.New(nil)
	cells := fakeCells{rows: 1, cols: 4, on: map[[2]int]bool{}}

	out := RenderGrid(GridView{Cells: cells, Playhead: 2, CursorRow: -1, CursorCol: -1}, th)
	if strings.Count(out, "▶") != 1 {
		t.Errorf("want one playhead marker:\n%s", out)
	}
}

func TestRenderGridNil(t *testing.T) {
	if got := RenderGrid(GridView{}, theme.New(nil)); got != "" {
		t.Errorf("nil cells rendered %q", got)
	}
}

func TestRenderButton(t *testing.T) {
	th := theme.New(nil)
	if got := RenderButton("Save", true, th); !strings.Contains(got, "■ Save") {
		t.Errorf("enabled = %q", got)
	}
	if got := RenderButton("Save", false, th); !strings.Contains(got, "□ Save") {
		t.Errorf("disabled = %q", got)
	}
}

func TestRenderErrors(t *testing.T) {
	th := theme.New(nil)
	if got := RenderErrors(nil, th); got != "" {
		t.Errorf("no errors rendered %q", got)
	}
	got := RenderErrors([]string{"Name has already been taken"}, th)
	if strings.Count(got, "•") != 1 || !strings.Contains(got, "Name has already been taken") {
		t.Errorf("got %q", got)
	}
}

func TestRenderList(t *testing.T) {
	th := theme.New(nil)
	got := RenderList([]string{"one", "two"}, 1, th)
	if !strings.Contains(got, "▸ two") || strings.Contains(got, "▸ one") {
		t.Errorf("got %q", got)
	}
	if !strings.Contains(RenderList(nil, -1, th), "no saved beats") {
		t.Error("empty list should say so")
	}
}

func TestRenderKeyHelp(t *testing.T) {
	out := RenderKeyHelp([]KeySection{{
		Title: "Grid",
		Keys:  []KeyBinding{{Key: "space", Desc: "toggle"}},
	}})
	if out != "Grid\n  space        toggle" {
		t.Errorf("got %q", out)
	}
}
