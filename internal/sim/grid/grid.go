// Package grid holds the client-local crafting placement grid.
package grid

import (
	"errors"
	"fmt"

	"craftguard/internal/sim/item"
)

const (
	SmallWidth = 2
	BenchWidth = 3
)

var ErrSlotOutOfRange = errors.New("grid: slot out of range")

// Grid is a square placement grid indexed row-major. Its width is fixed at
// construction; there is no way to resize it.
type Grid struct {
	holder string
	width  int
	slots  []item.Stack
}

// New panics on a non-positive width: a grid without cells is a programming error.
func New(holder string, width int) *Grid {
	if width <= 0 {
		panic(fmt.Sprintf("grid: invalid width %d", width))
	}
	g := &Grid{holder: holder, width: width, slots: make([]item.Stack, width*width)}
	for i := range g.slots {
		g.slots[i] = item.Air
	}
	return g
}

// NewSmall is the 2x2 grid every player carries.
func NewSmall(holder string) *Grid { return New(holder, SmallWidth) }

// NewBench is the 3x3 grid of a crafting table.
func NewBench(holder string) *Grid { return New(holder, BenchWidth) }

func (g *Grid) Name() string   { return "Crafting" }
func (g *Grid) Holder() string { return g.holder }
func (g *Grid) Width() int     { return g.width }
func (g *Grid) Size() int      { return len(g.slots) }

func (g *Grid) Item(slot int) (item.Stack, error) {
	if slot < 0 || slot >= len(g.slots) {
		return item.Air, fmt.Errorf("%w: %d", ErrSlotOutOfRange, slot)
	}
	return g.slots[slot].Clone(), nil
}

func (g *Grid) SetItem(slot int, s item.Stack) error {
	if slot < 0 || slot >= len(g.slots) {
		return fmt.Errorf("%w: %d", ErrSlotOutOfRange, slot)
	}
	if s.IsEmpty() {
		s = item.Air
	}
	g.slots[slot] = s.Clone()
	return nil
}

func (g *Grid) Clear(slot int) error { return g.SetItem(slot, item.Air) }

func (g *Grid) IsSlotEmpty(slot int) bool {
	if slot < 0 || slot >= len(g.slots) {
		return true
	}
	return g.slots[slot].IsEmpty()
}

// Contents returns a copy of every slot in row-major order.
func (g *Grid) Contents() []item.Stack { return item.Clone(g.slots) }

// Trim returns the minimal bounding rectangle of non-empty cells, re-indexed
// from (0,0) as rows of columns. Cells inside the rectangle that are empty hold
// item.Air. An empty grid trims to zero rows.
func (g *Grid) Trim() [][]item.Stack {
	return TrimCells(g.slots, g.width)
}

// TrimCells trims an arbitrary row-major square of cells.
func TrimCells(cells []item.Stack, width int) [][]item.Stack {
	minX, maxX := width, -1
	minY, maxY := width, -1
	for y := 0; y < width; y++ {
		for x := 0; x < width; x++ {
			i := y*width + x
			if i >= len(cells) || cells[i].IsEmpty() {
				continue
			}
			minX, maxX = min(minX, x), max(maxX, x)
			minY, maxY = min(minY, y), max(maxY, y)
		}
	}
	if maxX < 0 {
		return [][]item.Stack{}
	}

	out := make([][]item.Stack, maxY-minY+1)
	for y := range out {
		row := make([]item.Stack, maxX-minX+1)
		for x := range row {
			row[x] = item.Air
			src := cells[(y+minY)*width+(x+minX)]
			if !src.IsEmpty() {
				row[x] = src.Clone()
			}
		}
		out[y] = row
	}
	return out
}
