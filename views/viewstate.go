package views

import (
	"hrsync/grid"
	"hrsync/memory"
	"sync"
	"time"
)

type Kind int

const (
	KindMemory Kind = iota
	KindDisassembly
	KindGraphics
	KindPalette
	KindHardware
)

func (k Kind) String() string {
	switch k {
	case KindMemory:
		return "memory"
	case KindDisassembly:
		return "disassembly"
	case KindGraphics:
		return "graphics"
	case KindPalette:
		return "palette"
	case KindHardware:
		return "hardware"
	}
	return "unknown"
}

type Options struct {
	Kind    Kind
	Decoder Decoder
	Window  Window

	// Grid is set for hex panes; views without a grid scroll on every up/down move.
	Grid *grid.Grid

	// Diffing views keep the pre-run snapshot so changed bytes can be flagged after a stop.
	Diffing bool
}

// ViewState is the synchronisation state of one view. It is mutated only by the sync controller;
// the lock lets renderers read rows from other goroutines.
type ViewState struct {
	lock sync.RWMutex

	slot    memory.Slot
	kind    Kind
	decoder Decoder
	grid    *grid.Grid
	diffing bool

	window      Window
	outstanding uint64
	requestedAt time.Time
	stale       bool

	current  memory.Snapshot
	previous memory.Snapshot

	lockedExpression string
	locked           bool

	cursor grid.Cursor
	rows   []Row

	isClean bool
}

func NewViewState(slot memory.Slot, opts Options) *ViewState {
	v := &ViewState{
		slot:    slot,
		kind:    opts.Kind,
		decoder: opts.Decoder,
		grid:    opts.Grid,
		diffing: opts.Diffing,
		window:  opts.Window,
		stale:   true,
	}
	if v.window.RowCount == 0 {
		v.window.RowCount = 1
	}
	if v.grid != nil && v.window.BytesPerRow == 0 {
		v.window.BytesPerRow = uint32(v.grid.BytesPerRow())
	}
	return v
}

func (v *ViewState) Slot() memory.Slot { return v.slot }
func (v *ViewState) Kind() Kind        { return v.kind }
func (v *ViewState) IsDiffing() bool   { return v.diffing }

func (v *ViewState) Window() Window {
	v.lock.RLock()
	defer v.lock.RUnlock()
	return v.window
}

// SetWindow changes the desired window without issuing anything.
func (v *ViewState) SetWindow(w Window) {
	v.lock.Lock()
	defer v.lock.Unlock()
	v.window = w
	v.cursor = v.clampCursor(v.cursor)
}

func (v *ViewState) Outstanding() uint64 {
	v.lock.RLock()
	defer v.lock.RUnlock()
	return v.outstanding
}

// RequestedAt is when the outstanding request was issued.
func (v *ViewState) RequestedAt() time.Time {
	v.lock.RLock()
	defer v.lock.RUnlock()
	return v.requestedAt
}

// IsCurrent is false while a request is outstanding or the snapshot is known to be out of date.
func (v *ViewState) IsCurrent() bool {
	v.lock.RLock()
	defer v.lock.RUnlock()
	return v.outstanding == 0 && !v.stale
}

// HasWindowData reports whether the current snapshot exactly covers the desired window.
func (v *ViewState) HasWindowData() bool {
	v.lock.RLock()
	defer v.lock.RUnlock()
	return v.current.Matches(v.window.Address, v.window.Size())
}

// BeginRequest records w as the requested window and id as the outstanding request.
func (v *ViewState) BeginRequest(w Window, id uint64, at time.Time) {
	v.lock.Lock()
	defer v.lock.Unlock()
	v.window = w
	v.outstanding = id
	v.requestedAt = at
	v.stale = true
	v.cursor = v.clampCursor(v.cursor)
}

// MarkStale flags the displayed data as possibly out of date without touching it.
func (v *ViewState) MarkStale() {
	v.lock.Lock()
	defer v.lock.Unlock()
	v.stale = true
	v.isClean = false
}

// AbandonRequest forgets the outstanding id; its response will be dropped when it arrives.
func (v *ViewState) AbandonRequest() {
	v.lock.Lock()
	defer v.lock.Unlock()
	v.outstanding = 0
	v.stale = true
	v.isClean = false
}

// Accept replaces the current snapshot with a validated response.
func (v *ViewState) Accept(s memory.Snapshot) {
	v.lock.Lock()
	defer v.lock.Unlock()
	v.current = s
	v.outstanding = 0
	v.stale = false
}

func (v *ViewState) Current() memory.Snapshot {
	v.lock.RLock()
	defer v.lock.RUnlock()
	return v.current
}

func (v *ViewState) Previous() memory.Snapshot {
	v.lock.RLock()
	defer v.lock.RUnlock()
	return v.previous
}

// RetainPrevious keeps the current snapshot as the diff baseline.
func (v *ViewState) RetainPrevious() {
	v.lock.Lock()
	defer v.lock.Unlock()
	v.previous = v.current
}

// SetByte optimistically replaces one byte of the current snapshot.
func (v *ViewState) SetByte(offset uint32, value uint8) bool {
	v.lock.Lock()
	defer v.lock.Unlock()
	if offset >= v.current.Size() {
		return false
	}
	v.current = v.current.WithByte(offset, value)
	return true
}

// Recompute rebuilds the rows from the snapshots and marks the view dirty.
func (v *ViewState) Recompute(symbols SymbolLookup) {
	v.lock.Lock()
	defer v.lock.Unlock()

	if v.decoder == nil {
		v.rows = nil
	} else {
		v.rows = v.decoder.Decode(DecodeInput{
			Window:   v.window,
			Current:  v.current,
			Previous: v.previous,
			Symbols:  symbols,
		})
	}
	v.cursor = v.clampCursor(v.cursor)
	v.isClean = false
}

func (v *ViewState) RowCount() int {
	v.lock.RLock()
	defer v.lock.RUnlock()
	return len(v.rows)
}

func (v *ViewState) Row(i int) (Row, bool) {
	v.lock.RLock()
	defer v.lock.RUnlock()
	if i < 0 || i >= len(v.rows) {
		return Row{}, false
	}
	return v.rows[i], true
}

func (v *ViewState) Rows() []Row {
	v.lock.RLock()
	defer v.lock.RUnlock()
	rows := make([]Row, len(v.rows))
	copy(rows, v.rows)
	return rows
}

func (v *ViewState) Grid() *grid.Grid {
	v.lock.RLock()
	defer v.lock.RUnlock()
	return v.grid
}

// SetGrid swaps the column layout (display mode change) and re-targets the hex decoder.
func (v *ViewState) SetGrid(g *grid.Grid) {
	v.lock.Lock()
	defer v.lock.Unlock()
	v.grid = g
	if hd, ok := v.decoder.(*HexDecoder); ok {
		hd.Grid = g
	}
	v.cursor = v.clampCursor(v.cursor)
}

func (v *ViewState) Cursor() grid.Cursor {
	v.lock.RLock()
	defer v.lock.RUnlock()
	return v.cursor
}

func (v *ViewState) SetCursor(c grid.Cursor) {
	v.lock.Lock()
	defer v.lock.Unlock()
	v.cursor = v.clampCursor(c)
	v.isClean = false
}

func (v *ViewState) clampCursor(c grid.Cursor) grid.Cursor {
	if v.grid == nil {
		return grid.Cursor{}
	}
	return v.grid.Clamp(c, int(v.window.RowCount))
}

// LockedExpression returns the address expression and whether the view follows it.
func (v *ViewState) LockedExpression() (string, bool) {
	v.lock.RLock()
	defer v.lock.RUnlock()
	return v.lockedExpression, v.locked
}

func (v *ViewState) SetLockedExpression(expression string, locked bool) {
	v.lock.Lock()
	defer v.lock.Unlock()
	v.lockedExpression = expression
	v.locked = locked && expression != ""
}

// Dirtyable:
func (v *ViewState) IsDirty() bool {
	v.lock.RLock()
	defer v.lock.RUnlock()
	return !v.isClean
}

func (v *ViewState) ClearDirty() {
	v.lock.Lock()
	defer v.lock.Unlock()
	v.isClean = true
}

func (v *ViewState) MarkDirty() {
	v.lock.Lock()
	defer v.lock.Unlock()
	v.isClean = false
}
