package views

import (
	"errors"
	"fmt"
)

// DisplayUnit is one rendered column of a hex row.
type DisplayUnit struct {
	Char    byte `json:"c"`
	Changed bool `json:"d,omitempty"`

	// OverlayID is the index of the closest symbol at or below the unit's address, or -1.
	OverlayID int `json:"s"`
}

// Row is derived display data; it is rebuilt whenever the snapshot or symbol table changes.
type Row struct {
	Address  uint32        `json:"address"`
	RawBytes []byte        `json:"raw"`
	Units    []DisplayUnit `json:"units,omitempty"`

	// Text is used by rows that are not hex grids (disassembly, registers, palette).
	Text    string `json:"text,omitempty"`
	Changed bool   `json:"changed,omitempty"`
}

// Window is the block of target memory a view asks for.
type Window struct {
	Address     uint32 `json:"address"`
	RowCount    uint32 `json:"rowCount"`
	BytesPerRow uint32 `json:"bytesPerRow"`
}

// MaxWindowSize bounds the bytes a single view may ask for.
const MaxWindowSize = 1 << 20

var ErrBadWindow = errors.New("views: bad window")

// Size is only meaningful for a window that passes Validate.
func (w Window) Size() uint32 { return w.RowCount * w.BytesPerRow }

// Validate rejects empty windows, windows over MaxWindowSize and windows running past the top of
// the address space.
func (w Window) Validate() error {
	if w.RowCount == 0 || w.BytesPerRow == 0 {
		return fmt.Errorf("%w: %d rows of %d bytes", ErrBadWindow, w.RowCount, w.BytesPerRow)
	}
	size := uint64(w.RowCount) * uint64(w.BytesPerRow)
	if size > MaxWindowSize {
		return fmt.Errorf("%w: %d rows of %d bytes exceeds %d bytes", ErrBadWindow, w.RowCount, w.BytesPerRow, MaxWindowSize)
	}
	if uint64(w.Address)+size > 1<<32 {
		return fmt.Errorf("%w: $%x+%d past end of address space", ErrBadWindow, w.Address, size)
	}
	return nil
}

// Overlaps reports whether [address, address+size) intersects the window.
func (w Window) Overlaps(address, size uint32) bool {
	a0, a1 := uint64(address), uint64(address)+uint64(size)
	w0, w1 := uint64(w.Address), uint64(w.Address)+uint64(w.Size())
	return !(a1 <= w0 || w1 <= a0)
}
