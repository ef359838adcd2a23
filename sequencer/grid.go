package sequencer

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// Serialized cell symbols
const (
	CellOff = '0'
	CellOn  = '1'
)

var (
	ErrInvalidIndex = errors.New("invalid grid index")
	ErrFormat       = errors.New("invalid grid format")
)

// IndexError reports a row/col outside the grid
type IndexError struct {
	Row, Col   int
	Rows, Cols int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("cell (%d,%d) outside %dx%d grid", e.Row, e.Col, e.Rows, e.Cols)
}

func (e *IndexError) Unwrap() error { return ErrInvalidIndex }

// FormatError reports a serialized grid that doesn't fit the dimensions
type FormatError struct {
	Want   int // expected cell count
	Got    int // input length
	Offset int // first bad symbol, -1 if the length was wrong
}

func (e *FormatError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("bad cell symbol at offset %d", e.Offset)
	}
	return fmt.Sprintf("want %d cells, got %d", e.Want, e.Got)
}

func (e *FormatError) Unwrap() error { return ErrFormat }

// Grid is the activation matrix: rows are sounds, columns are steps.
// Dimensions never change after NewGrid. A Grid is safe for concurrent
// use; the UI toggles cells while the clock reads columns.
type Grid struct {
	rows  int
	cols  int
	cells [][]bool // [col][row]
	mu    sync.RWMutex
}

// NewGrid creates an all-off grid
func NewGrid(rows, cols int) *Grid {
	if rows < 1 || cols < 1 {
		panic(fmt.Sprintf("sequencer: bad grid size %dx%d", rows, cols))
	}
	g := &Grid{rows: rows, cols: cols, cells: make([][]bool, cols)}
	for c := range g.cells {
		g.cells[c] = make([]bool, rows)
	}
	return g
}

// ParseGrid builds a grid from its serialized form
func ParseGrid(rows, cols int, s string) (*Grid, error) {
	g := NewGrid(rows, cols)
	if err := g.Deserialize(s); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *Grid) Rows() int { return g.rows }
func (g *Grid) Cols() int { return g.cols }

// Len is the number of cells (and serialized symbols)
func (g *Grid) Len() int { return g.rows * g.cols }

func (g *Grid) inBounds(row, col int) bool {
	return row >= 0 && row < g.rows && col >= 0 && col < g.cols
}

// Toggle flips a single cell
func (g *Grid) Toggle(row, col int) error {
	if !g.inBounds(row, col) {
		return &IndexError{Row: row, Col: col, Rows: g.rows, Cols: g.cols}
	}
	g.mu.Lock()
	g.cells[col][row] = !g.cells[col][row]
	g.mu.Unlock()
	return nil
}

// IsActive reports whether a cell is on. Out of range cells are off.
func (g *Grid) IsActive(row, col int) bool {
	if !g.inBounds(row, col) {
		return false
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.cells[col][row]
}

// Column returns a copy of one step's flags, indexed by row
func (g *Grid) Column(col int) []bool {
	if col < 0 || col >= g.cols {
		return nil
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]bool, g.rows)
	copy(out, g.cells[col])
	return out
}

// Clear turns every cell off
func (g *Grid) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for c := range g.cells {
		for r := range g.cells[c] {
			g.cells[c][r] = false
		}
	}
}

// Empty reports whether no cell is on
func (g *Grid) Empty() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for c := range g.cells {
		for _, on := range g.cells[c] {
			if on {
				return false
			}
		}
	}
	return true
}

// Serialize encodes the grid column-major, one symbol per cell:
// col0row0, col0row1, ..., col1row0, ...
func (g *Grid) Serialize() string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var b strings.Builder
	b.Grow(g.rows * g.cols)
	for c := 0; c < g.cols; c++ {
		for r := 0; r < g.rows; r++ {
			if g.cells[c][r] {
				b.WriteByte(CellOn)
			} else {
				b.WriteByte(CellOff)
			}
		}
	}
	return b.String()
}

// String is the serialized form
func (g *Grid) String() string {
	return g.Serialize()
}

// Deserialize replaces the grid contents with a serialized pattern.
// The grid is left untouched on error.
func (g *Grid) Deserialize(s string) error {
	if len(s) != g.Len() {
		return &FormatError{Want: g.Len(), Got: len(s), Offset: -1}
	}
	for i := 0; i < len(s); i++ {
		if s[i] != CellOff && s[i] != CellOn {
			return &FormatError{Want: g.Len(), Got: len(s), Offset: i}
		}
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	for i := 0; i < len(s); i++ {
		g.cells[i/g.rows][i%g.rows] = s[i] == CellOn
	}
	return nil
}

// ValidPattern checks a serialized pattern against the dimensions
// without building a grid.
func ValidPattern(rows, cols int, s string) error {
	return NewGrid(rows, cols).Deserialize(s)
}

// Clone returns an independent copy
func (g *Grid) Clone() *Grid {
	out := NewGrid(g.rows, g.cols)
	g.mu.RLock()
	defer g.mu.RUnlock()
	for c := range g.cells {
		copy(out.cells[c], g.cells[c])
	}
	return out
}

// Equal compares dimensions and every flag
func (g *Grid) Equal(o *Grid) bool {
	if o == nil || g.rows != o.rows || g.cols != o.cols {
		return false
	}
	return g.Serialize() == o.Serialize()
}
