package engine

import (
	"errors"
	"fmt"
	"strings"

	"hrsync/grid"
	"hrsync/memory"
	"hrsync/views"
)

// disasmStep is the instruction alignment used when scrolling disassembly backwards.
const disasmStep = 2

// Navigate moves the cursor. Moving past the first or last row scrolls the window, unless a request
// is already outstanding. Scrolling never goes below address 0.
func (c *Controller) Navigate(slot memory.Slot, m grid.Move) error {
	v, err := c.View(slot)
	if err != nil {
		return err
	}

	w := v.Window()
	scroll := 0
	if g := v.Grid(); g != nil {
		var next grid.Cursor
		next, scroll = g.Navigate(v.Cursor(), int(w.RowCount), m)
		v.SetCursor(next)
		c.changed(v)
	} else {
		switch m {
		case grid.MoveUp:
			scroll = -1
		case grid.MoveDown:
			scroll = 1
		case grid.MovePageUp:
			scroll = -int(w.RowCount)
		case grid.MovePageDown:
			scroll = int(w.RowCount)
		}
	}

	if scroll == 0 {
		return nil
	}
	if v.Outstanding() != 0 {
		tracef("slot %s: scroll suppressed while id=%d outstanding", slot, v.Outstanding())
		return nil
	}

	address := c.scrollAddress(v, w, scroll)
	if address == w.Address {
		return nil
	}
	w.Address = address
	// an explicit move stops following the locked expression:
	if expr, locked := v.LockedExpression(); locked {
		v.SetLockedExpression(expr, false)
	}
	return c.requestWindow(v, w, false)
}

func (c *Controller) scrollAddress(v *views.ViewState, w views.Window, rows int) uint32 {
	switch v.Kind() {
	case views.KindPalette, views.KindHardware:
		// fixed hardware windows do not scroll
		return w.Address
	case views.KindDisassembly:
		if rows > 0 {
			// step forward by whole instructions as currently decoded:
			n := v.RowCount()
			if rows < n {
				if row, ok := v.Row(rows); ok {
					return row.Address
				}
			}
			if n > 0 {
				last, _ := v.Row(n - 1)
				return last.Address + uint32(len(last.RawBytes))
			}
		}
		return grid.Shift(w.Address, rows, disasmStep)
	}
	return grid.Shift(w.Address, rows, int(w.BytesPerRow))
}

// SetCursor places the cursor, clamped to the grid.
func (c *Controller) SetCursor(slot memory.Slot, cursor grid.Cursor) error {
	v, err := c.View(slot)
	if err != nil {
		return err
	}
	if v.Grid() == nil {
		return ErrNotAGridView
	}
	v.SetCursor(cursor)
	c.changed(v)
	return nil
}

func (c *Controller) CursorPosition(slot memory.Slot) (row, col int) {
	v, err := c.View(slot)
	if err != nil {
		return 0, 0
	}
	cur := v.Cursor()
	return cur.Row, cur.Col
}

// Click moves the cursor to the cell under pixel (x, y).
func (c *Controller) Click(slot memory.Slot, layout grid.Layout, x, y int) error {
	v, err := c.View(slot)
	if err != nil {
		return err
	}
	g := v.Grid()
	if g == nil {
		return ErrNotAGridView
	}
	cur, ok := layout.Hit(g, int(v.Window().RowCount), x, y)
	if !ok {
		return nil
	}
	v.SetCursor(cur)
	c.changed(v)
	return nil
}

// SetMode switches a hex view between byte, word and long grouping.
func (c *Controller) SetMode(slot memory.Slot, groupSize int) error {
	v, err := c.View(slot)
	if err != nil {
		return err
	}
	old := v.Grid()
	if old == nil {
		return ErrNotAGridView
	}
	if old.GroupSize() == groupSize {
		return nil
	}

	g, err := grid.New(old.BytesPerRow(), groupSize)
	if err != nil {
		return err
	}
	v.SetGrid(g)
	v.Recompute(c.symbols)
	c.changed(v)
	return nil
}

// ApplyEdit writes one byte at offset within the view's snapshot. The local snapshot is updated at
// once; other views overlapping the byte are re-requested.
func (c *Controller) ApplyEdit(slot memory.Slot, offset uint32, value uint8) error {
	return c.ApplyEdits(slot, offset, []byte{value})
}

// ApplyEdits writes data at offset within the view's snapshot as a single target write.
func (c *Controller) ApplyEdits(slot memory.Slot, offset uint32, data []byte) error {
	v, err := c.View(slot)
	if err != nil {
		return err
	}
	if v.Outstanding() != 0 {
		return ErrEditWhileStale
	}
	if !c.isConnected() {
		return ErrDisconnected
	}
	if len(data) == 0 {
		return nil
	}

	cur := v.Current()
	if uint64(offset)+uint64(len(data)) > uint64(cur.Size()) {
		return fmt.Errorf("%w: offset %d, length %d, size %d", ErrEditOutOfRange, offset, len(data), cur.Size())
	}

	address := cur.BaseAddress() + offset
	if err = c.transport.SendWriteCommand(address, data); err != nil {
		return fmt.Errorf("engine: slot %s: write $%06x: %w", slot, address, err)
	}

	for i, b := range data {
		v.SetByte(offset+uint32(i), b)
	}
	v.Recompute(c.symbols)
	c.changed(v)

	c.relatedMemoryChanged(address, uint32(len(data)), slot)
	return nil
}

// EditKey types key at the cursor: a hex digit replaces the nybble under a nybble column, any
// printable key replaces the byte under an ASCII column. The cursor then moves right.
func (c *Controller) EditKey(slot memory.Slot, key rune) error {
	v, err := c.View(slot)
	if err != nil {
		return err
	}
	g := v.Grid()
	if g == nil {
		return ErrNotAGridView
	}

	cur := v.Cursor()
	col, ok := g.Column(cur.Col)
	if !ok {
		return nil
	}
	if col.Unit == grid.Separator {
		return c.Navigate(slot, grid.MoveRight)
	}

	offset := uint32(cur.Row)*uint32(g.BytesPerRow()) + uint32(col.ByteOffset)
	snap := v.Current()
	if offset >= snap.Size() {
		return fmt.Errorf("%w: offset %d, size %d", ErrEditOutOfRange, offset, snap.Size())
	}

	value, ok := grid.EditByte(col.Unit, snap.Get(offset), key)
	if !ok {
		return nil
	}
	if err = c.ApplyEdit(slot, offset, value); err != nil {
		return err
	}
	return c.Navigate(slot, grid.MoveRight)
}

// Tooltip describes the address under (row, col), with the nearest symbol when there is one.
func (c *Controller) Tooltip(slot memory.Slot, row, col int) (string, bool) {
	v, err := c.View(slot)
	if err != nil {
		return "", false
	}
	r, ok := v.Row(row)
	if !ok {
		return "", false
	}

	address := r.Address
	if g := v.Grid(); g != nil {
		column, ok := g.Column(col)
		if !ok || column.Unit == grid.Separator {
			return "", false
		}
		address += uint32(column.ByteOffset)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Address: $%x", address)
	if c.symbols != nil {
		if sym, ok := c.symbols.FindLowerOrEqual(address); ok {
			fmt.Fprintf(&sb, "\nSymbol: $%x %s", sym.Address, sym.Name)
			if off := address - sym.Address; off != 0 {
				fmt.Fprintf(&sb, "+$%x", off)
			}
		}
	}
	return sb.String(), true
}

// Follow moves the view to the address held in the big-endian long under the cursor.
func (c *Controller) Follow(slot memory.Slot) error {
	v, err := c.View(slot)
	if err != nil {
		return err
	}
	g := v.Grid()
	if g == nil {
		return ErrNotAGridView
	}

	cur := v.Cursor()
	r, ok := v.Row(cur.Row)
	if !ok {
		return fmt.Errorf("%w: row %d", ErrNoPointer, cur.Row)
	}
	column, ok := g.Column(cur.Col)
	if !ok || column.Unit == grid.Separator {
		return fmt.Errorf("%w: column %d", ErrNoPointer, cur.Col)
	}
	at := r.Address + uint32(column.ByteOffset)
	target, ok := v.Current().ReadU32(at)
	if !ok {
		return fmt.Errorf("%w: $%x", ErrNoPointer, at)
	}

	v.SetLockedExpression(fmt.Sprintf("$%x", target), false)
	w := v.Window()
	w.Address = target
	return c.requestWindow(v, w, false)
}

// IsQuiet reports whether err is one of the expected outcomes that callers only trace.
func IsQuiet(err error) bool {
	return errors.Is(err, ErrStaleResponse) || errors.Is(err, ErrDisconnected) || errors.Is(err, ErrEditWhileStale)
}
