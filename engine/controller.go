package engine

import (
	"errors"
	"fmt"
	"log"
	"time"

	"hrsync/grid"
	"hrsync/memory"
	"hrsync/tracker"
	"hrsync/views"
)

// Controller decides when each view requests memory and whether an arriving response may be applied.
// It holds no data itself; every view's state lives in its ViewState. All methods must be called from
// one goroutine (see Loop).
type Controller struct {
	transport Transport
	target    TargetState
	evaluator Evaluator
	symbols   views.SymbolLookup
	tracker   *tracker.Tracker
	stats     *Stats

	views     [memory.SlotCount]*views.ViewState
	observers []ViewObserver

	now func() time.Time
}

type Config struct {
	Transport Transport
	Target    TargetState
	Evaluator Evaluator
	Symbols   views.SymbolLookup

	// Tracker must be the one the transport issues ids from.
	Tracker *tracker.Tracker
	Stats   *Stats
}

func NewController(cfg Config) *Controller {
	c := &Controller{
		transport: cfg.Transport,
		target:    cfg.Target,
		evaluator: cfg.Evaluator,
		symbols:   cfg.Symbols,
		tracker:   cfg.Tracker,
		stats:     cfg.Stats,
		now:       time.Now,
	}
	if c.tracker == nil {
		c.tracker = tracker.New()
	}
	if c.stats == nil {
		c.stats = NewStats()
	}
	return c
}

func (c *Controller) Stats() *Stats { return c.stats }

// AddView registers a view under its slot, replacing any previous view for that slot.
func (c *Controller) AddView(v *views.ViewState) {
	c.views[v.Slot()] = v
	v.Recompute(c.symbols)
}

func (c *Controller) View(slot memory.Slot) (*views.ViewState, error) {
	if !slot.IsValid() || c.views[slot] == nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknownSlot, slot)
	}
	return c.views[slot], nil
}

// Views lists the registered views in slot order.
func (c *Controller) Views() []*views.ViewState {
	list := make([]*views.ViewState, 0, len(c.views))
	for _, v := range c.views {
		if v != nil {
			list = append(list, v)
		}
	}
	return list
}

func (c *Controller) Subscribe(o ViewObserver) {
	c.observers = append(c.observers, o)
}

func (c *Controller) changed(v *views.ViewState) {
	v.MarkDirty()
	for _, o := range c.observers {
		o(v)
	}
}

func (c *Controller) isConnected() bool {
	return c.target != nil && c.target.IsConnected() && c.transport != nil
}

// RequestWindow asks for rowCount rows of bytesPerRow bytes at address. Asking again for the window
// that is already outstanding or already held is a no-op.
func (c *Controller) RequestWindow(slot memory.Slot, address, rowCount, bytesPerRow uint32) error {
	v, err := c.View(slot)
	if err != nil {
		return err
	}
	return c.requestWindow(v, views.Window{Address: address, RowCount: rowCount, BytesPerRow: bytesPerRow}, false)
}

// matchGrid rebuilds a grid view's columns when the window's row width changes, keeping the group
// size. Rows always span exactly one window row.
func (c *Controller) matchGrid(v *views.ViewState, w views.Window) error {
	g := v.Grid()
	if g == nil || uint32(g.BytesPerRow()) == w.BytesPerRow {
		return nil
	}
	ng, err := grid.New(int(w.BytesPerRow), g.GroupSize())
	if err != nil {
		return fmt.Errorf("%w: slot %s: %v", ErrInvalidGeometry, v.Slot(), err)
	}
	v.SetGrid(ng)
	v.Recompute(c.symbols)
	c.changed(v)
	return nil
}

// Refresh re-requests the view's current window unconditionally.
func (c *Controller) Refresh(slot memory.Slot) error {
	v, err := c.View(slot)
	if err != nil {
		return err
	}
	return c.requestWindow(v, v.Window(), true)
}

func (c *Controller) requestWindow(v *views.ViewState, w views.Window, force bool) error {
	if err := w.Validate(); err != nil {
		return fmt.Errorf("%w: slot %s: %v", ErrInvalidGeometry, v.Slot(), err)
	}
	if err := c.matchGrid(v, w); err != nil {
		return err
	}

	if !force && w == v.Window() && (v.Outstanding() != 0 || (v.IsCurrent() && v.HasWindowData())) {
		return nil
	}

	if !c.isConnected() {
		// keep showing the last snapshot; it is only marked stale.
		v.SetWindow(w)
		v.MarkStale()
		c.changed(v)
		return ErrDisconnected
	}

	id, err := c.transport.RequestMemory(v.Slot(), w.Address, w.Size())
	if err != nil {
		v.SetWindow(w)
		v.AbandonRequest()
		c.changed(v)
		return fmt.Errorf("engine: slot %s: request $%x+%d: %w", v.Slot(), w.Address, w.Size(), err)
	}

	c.stats.issue()
	v.BeginRequest(w, id, c.now())
	tracef("slot %s: request id=%d $%06x+%d", v.Slot(), id, w.Address, w.Size())
	c.changed(v)
	return nil
}

// OnResponse applies a response if it answers the slot's latest request and covers exactly the
// requested window.
func (c *Controller) OnResponse(slot memory.Slot, id uint64, snap memory.Snapshot) error {
	v, err := c.View(slot)
	if err != nil {
		return err
	}

	if id == 0 || id != v.Outstanding() || !c.tracker.IsCurrent(slot, id) {
		c.stats.dropStale()
		tracef("slot %s: dropped stale response id=%d (outstanding %d)", slot, id, v.Outstanding())
		return ErrStaleResponse
	}

	w := v.Window()
	if !snap.Matches(w.Address, w.Size()) {
		c.stats.dropMismatch()
		v.AbandonRequest()
		c.changed(v)
		tracef("slot %s: dropped response id=%d for $%06x+%d, window is $%06x+%d",
			slot, id, snap.BaseAddress(), snap.Size(), w.Address, w.Size())
		return ErrWindowMismatch
	}

	c.stats.accept(c.now().Sub(v.RequestedAt()))
	v.Accept(snap)
	v.Recompute(c.symbols)
	tracef("slot %s: accepted id=%d", slot, id)
	c.changed(v)
	return nil
}

// Deliver is OnResponse for transport completions: a window mismatch is followed by a fresh request.
func (c *Controller) Deliver(slot memory.Slot, id uint64, snap memory.Snapshot) {
	err := c.OnResponse(slot, id, snap)
	switch {
	case err == nil, errors.Is(err, ErrStaleResponse):
	case errors.Is(err, ErrWindowMismatch):
		if err = c.Refresh(slot); err != nil && !errors.Is(err, ErrDisconnected) {
			log.Printf("engine: slot %s: re-request after mismatch: %v\n", slot, err)
		}
	default:
		log.Printf("engine: slot %s: response id=%d: %v\n", slot, id, err)
	}
}

// OnRequestFailed forgets a request the transport could not complete so the next trigger retries it.
func (c *Controller) OnRequestFailed(slot memory.Slot, id uint64, cause error) {
	v, err := c.View(slot)
	if err != nil {
		return
	}
	c.stats.fail()
	if id != v.Outstanding() {
		return
	}
	log.Printf("engine: slot %s: request id=%d failed: %v\n", slot, id, cause)
	v.AbandonRequest()
	c.changed(v)
}

// OnTargetStopped re-resolves locked expressions and re-requests every view.
func (c *Controller) OnTargetStopped() {
	for _, v := range c.Views() {
		w := v.Window()
		if expr, locked := v.LockedExpression(); locked {
			if address, ok := c.evaluate(expr); ok {
				w.Address = address
			} else {
				log.Printf("engine: slot %s: locked expression %q did not resolve\n", v.Slot(), expr)
			}
		}
		if err := c.requestWindow(v, w, true); err != nil && !errors.Is(err, ErrDisconnected) {
			log.Printf("engine: slot %s: %v\n", v.Slot(), err)
		}
	}
}

// OnTargetStarted keeps each diffing view's snapshot as the baseline for the next stop.
func (c *Controller) OnTargetStarted() {
	for _, v := range c.Views() {
		if v.IsDiffing() {
			v.RetainPrevious()
		}
		v.MarkStale()
		c.changed(v)
	}
}

// OnRelatedMemoryChanged re-requests every view whose window overlaps [address, address+size).
func (c *Controller) OnRelatedMemoryChanged(address, size uint32) {
	c.relatedMemoryChanged(address, size, memory.SlotCount)
}

func (c *Controller) relatedMemoryChanged(address, size uint32, except memory.Slot) {
	for _, v := range c.Views() {
		if v.Slot() == except || !v.Window().Overlaps(address, size) {
			continue
		}
		if err := c.requestWindow(v, v.Window(), true); err != nil && !errors.Is(err, ErrDisconnected) {
			log.Printf("engine: slot %s: %v\n", v.Slot(), err)
		}
	}
}

// OnConnectionChanged re-requests everything on connect. On disconnect outstanding requests are
// abandoned and every view keeps its last snapshot, marked stale.
func (c *Controller) OnConnectionChanged(connected bool) {
	if connected {
		if c.target != nil && c.target.IsRunning() {
			for _, v := range c.Views() {
				v.MarkStale()
				c.changed(v)
			}
			return
		}
		c.OnTargetStopped()
		return
	}

	for _, v := range c.Views() {
		v.AbandonRequest()
		c.changed(v)
	}
}

// SymbolTableChanged rebuilds rows so symbol overlays follow the new table. Nothing is re-requested.
func (c *Controller) SymbolTableChanged() {
	for _, v := range c.Views() {
		v.Recompute(c.symbols)
		c.changed(v)
	}
}

func (c *Controller) evaluate(expression string) (uint32, bool) {
	if c.evaluator == nil {
		return 0, false
	}
	return c.evaluator.Evaluate(expression)
}

// SetRowCount resizes the view's window; the same row count is a no-op.
func (c *Controller) SetRowCount(slot memory.Slot, rowCount uint32) error {
	v, err := c.View(slot)
	if err != nil {
		return err
	}
	w := v.Window()
	if w.RowCount == rowCount {
		return nil
	}
	w.RowCount = rowCount
	return c.requestWindow(v, w, true)
}

// SetExpression moves the view to the address expression resolves to. A locked view re-resolves
// the expression every time the target stops.
func (c *Controller) SetExpression(slot memory.Slot, expression string, locked bool) error {
	v, err := c.View(slot)
	if err != nil {
		return err
	}

	address, ok := c.evaluate(expression)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnresolvedExpression, expression)
	}

	v.SetLockedExpression(expression, locked)
	w := v.Window()
	w.Address = address
	return c.requestWindow(v, w, false)
}

// IsCurrent reports whether the slot's view shows confirmed data for its window.
func (c *Controller) IsCurrent(slot memory.Slot) bool {
	v, err := c.View(slot)
	if err != nil {
		return false
	}
	return v.IsCurrent()
}

func (c *Controller) GetRowCount(slot memory.Slot) int {
	v, err := c.View(slot)
	if err != nil {
		return 0
	}
	return v.RowCount()
}

func (c *Controller) GetRow(slot memory.Slot, index int) (views.Row, bool) {
	v, err := c.View(slot)
	if err != nil {
		return views.Row{}, false
	}
	return v.Row(index)
}
