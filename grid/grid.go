// Package grid maps a 2-D (row, column) cursor space over a hex dump onto byte offsets.
//
// Each row shows bytesPerRow bytes as pairs of nybble columns, grouped by groupSize bytes with a
// separator column after every group, followed by one ASCII column per byte.
package grid

import (
	"errors"
	"fmt"
)

type Unit int

const (
	TopNybble Unit = iota
	BottomNybble
	ASCIIChar
	Separator
)

func (u Unit) String() string {
	switch u {
	case TopNybble:
		return "top"
	case BottomNybble:
		return "bottom"
	case ASCIIChar:
		return "ascii"
	case Separator:
		return "separator"
	}
	return fmt.Sprintf("unit(%d)", int(u))
}

// Column describes one display column of a row.
type Column struct {
	DisplayColumn int
	ByteOffset    int
	Unit          Unit
}

var ErrInvalidGeometry = errors.New("grid: bytesPerRow must be a positive multiple of groupSize")

type Grid struct {
	bytesPerRow int
	groupSize   int
	columns     []Column
}

// New builds the column map for (bytesPerRow, groupSize).
func New(bytesPerRow, groupSize int) (*Grid, error) {
	if bytesPerRow <= 0 || groupSize <= 0 || bytesPerRow%groupSize != 0 {
		return nil, fmt.Errorf("%w: bytesPerRow=%d groupSize=%d", ErrInvalidGeometry, bytesPerRow, groupSize)
	}

	g := &Grid{
		bytesPerRow: bytesPerRow,
		groupSize:   groupSize,
		columns:     make([]Column, 0, ColumnCount(bytesPerRow, groupSize)),
	}

	add := func(offset int, unit Unit) {
		g.columns = append(g.columns, Column{
			DisplayColumn: len(g.columns),
			ByteOffset:    offset,
			Unit:          unit,
		})
	}

	for b := 0; b < bytesPerRow; b += groupSize {
		for sub := 0; sub < groupSize; sub++ {
			add(b+sub, TopNybble)
			add(b+sub, BottomNybble)
		}
		// separators sit on the group's last byte so hit-testing still yields an address:
		add(b+groupSize-1, Separator)
	}

	for b := 0; b < bytesPerRow; b++ {
		add(b, ASCIIChar)
	}

	return g, nil
}

// MustNew is New for geometries known to be valid.
func MustNew(bytesPerRow, groupSize int) *Grid {
	g, err := New(bytesPerRow, groupSize)
	if err != nil {
		panic(err)
	}
	return g
}

// ColumnCount is 2*bytesPerRow nybbles + one separator per group + bytesPerRow ascii chars.
func ColumnCount(bytesPerRow, groupSize int) int {
	return 2*bytesPerRow + bytesPerRow/groupSize + bytesPerRow
}

func (g *Grid) BytesPerRow() int { return g.bytesPerRow }
func (g *Grid) GroupSize() int   { return g.groupSize }
func (g *Grid) ColumnCount() int { return len(g.columns) }

// Columns returns the column descriptors in display order.
func (g *Grid) Columns() []Column {
	c := make([]Column, len(g.columns))
	copy(c, g.columns)
	return c
}

// Column returns the descriptor at display column col.
func (g *Grid) Column(col int) (Column, bool) {
	if col < 0 || col >= len(g.columns) {
		return Column{}, false
	}
	return g.columns[col], true
}

// ColumnOf finds the display column showing unit for byteOffset.
func (g *Grid) ColumnOf(byteOffset int, unit Unit) (int, bool) {
	for _, c := range g.columns {
		if c.ByteOffset == byteOffset && c.Unit == unit {
			return c.DisplayColumn, true
		}
	}
	return 0, false
}

// ClampColumn keeps a column inside [0, ColumnCount).
func (g *Grid) ClampColumn(col int) int {
	if col < 0 {
		return 0
	}
	if col >= len(g.columns) {
		return len(g.columns) - 1
	}
	return col
}
