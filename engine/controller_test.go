package engine

import (
	"errors"
	"testing"

	"hrsync/grid"
	"hrsync/memory"
	"hrsync/symbols"
	"hrsync/tracker"
	"hrsync/views"
)

type fakeRequest struct {
	slot    memory.Slot
	id      uint64
	address uint32
	size    uint32
}

type fakeWrite struct {
	address uint32
	data    []byte
}

type fakeTransport struct {
	tracker  *tracker.Tracker
	requests []fakeRequest
	writes   []fakeWrite
	err      error
}

func (f *fakeTransport) RequestMemory(slot memory.Slot, address, size uint32) (uint64, error) {
	if f.err != nil {
		return 0, f.err
	}
	id := f.tracker.Issue(slot)
	f.requests = append(f.requests, fakeRequest{slot: slot, id: id, address: address, size: size})
	return id, nil
}

func (f *fakeTransport) SendWriteCommand(address uint32, data []byte) error {
	if f.err != nil {
		return f.err
	}
	f.writes = append(f.writes, fakeWrite{address: address, data: append([]byte(nil), data...)})
	return nil
}

func (f *fakeTransport) last() fakeRequest {
	return f.requests[len(f.requests)-1]
}

type fakeTarget struct {
	connected bool
	running   bool
}

func (f *fakeTarget) IsConnected() bool { return f.connected }
func (f *fakeTarget) IsRunning() bool   { return f.running }

type fixture struct {
	t         *testing.T
	c         *Controller
	transport *fakeTransport
	target    *fakeTarget
	symbols   *symbols.Table
	registers symbols.Registers
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tr := tracker.New()
	f := &fixture{
		t:         t,
		transport: &fakeTransport{tracker: tr},
		target:    &fakeTarget{connected: true},
		symbols:   symbols.NewTable(),
		registers: symbols.Registers{},
	}
	f.c = NewController(Config{
		Transport: f.transport,
		Target:    f.target,
		Evaluator: &symbols.Evaluator{Symbols: f.symbols, Registers: f.registers},
		Symbols:   f.symbols,
		Tracker:   tr,
	})
	return f
}

func (f *fixture) addMemoryPane(slot memory.Slot) *views.ViewState {
	f.t.Helper()
	v := NewMemoryPane(slot, 0, 16, grid.MustNew(16, 1))
	f.c.AddView(v)
	return v
}

// respond answers the transport's last request with bytes whose value is their offset plus seed.
func (f *fixture) respond(req fakeRequest, seed byte) error {
	return f.c.OnResponse(req.slot, req.id, memory.NewSnapshot(req.address, fill(req.size, seed)))
}

func fill(size uint32, seed byte) []byte {
	b := make([]byte, size)
	for i := range b {
		b[i] = seed + byte(i)
	}
	return b
}

func TestController_OnlyLatestResponseApplies(t *testing.T) {
	const n = 5
	tests := []struct {
		name  string
		order []int
	}{
		{"reverse", []int{4, 3, 2, 1, 0}},
		{"in order", []int{0, 1, 2, 3, 4}},
		{"second newest first", []int{3, 0, 4, 2, 1}},
		{"latest in the middle", []int{1, 3, 4, 0, 2}},
		{"latest last", []int{2, 0, 3, 1, 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			v := f.addMemoryPane(memory.MemoryView0)

			for i := 0; i < n; i++ {
				if err := f.c.RequestWindow(memory.MemoryView0, uint32(0x1000+i*0x100), 4, 16); err != nil {
					t.Fatalf("RequestWindow() error = %v", err)
				}
			}
			if len(f.transport.requests) != n {
				t.Fatalf("transport calls got = %d, want %d", len(f.transport.requests), n)
			}

			for _, i := range tt.order {
				req := f.transport.requests[i]
				err := f.respond(req, byte(i))
				if i == n-1 {
					if err != nil {
						t.Errorf("OnResponse(id=%d) error = %v, want nil", req.id, err)
					}
					continue
				}
				if !errors.Is(err, ErrStaleResponse) {
					t.Errorf("OnResponse(id=%d) got = %v, want %v", req.id, err, ErrStaleResponse)
				}
			}

			cur := v.Current()
			if cur.BaseAddress() != 0x1400 {
				t.Errorf("BaseAddress() got = %#x, want %#x", cur.BaseAddress(), 0x1400)
			}
			if cur.Get(0) != n-1 {
				t.Errorf("Get(0) got = %d, want %d", cur.Get(0), n-1)
			}
			if !v.IsCurrent() {
				t.Error("IsCurrent() got = false, want true")
			}
			if s := f.c.Stats().Snapshot(); s.Accepted != 1 || s.Stale != n-1 {
				t.Errorf("Stats() got = %+v, want 1 accepted and %d stale", s, n-1)
			}
		})
	}
}

// TestController_WindowGeometry covers window shapes that must be rejected before anything is sent,
// and a row width change that must carry the grid along.
func TestController_WindowGeometry(t *testing.T) {
	tests := []struct {
		name        string
		address     uint32
		rowCount    uint32
		bytesPerRow uint32
		wantErr     error
	}{
		{name: "overflowing row count", address: 0x1000, rowCount: 0x10000001, bytesPerRow: 16, wantErr: ErrInvalidGeometry},
		{name: "over maximum", address: 0x1000, rowCount: views.MaxWindowSize/16 + 1, bytesPerRow: 16, wantErr: ErrInvalidGeometry},
		{name: "zero rows", address: 0x1000, rowCount: 0, bytesPerRow: 16, wantErr: ErrInvalidGeometry},
		{name: "zero width", address: 0x1000, rowCount: 4, bytesPerRow: 0, wantErr: ErrInvalidGeometry},
		{name: "past end of address space", address: 0xfffffff0, rowCount: 2, bytesPerRow: 16, wantErr: ErrInvalidGeometry},
		{name: "width not a multiple of group", address: 0x1000, rowCount: 4, bytesPerRow: 6, wantErr: ErrInvalidGeometry},
		{name: "at maximum", address: 0x1000, rowCount: views.MaxWindowSize / 16, bytesPerRow: 16},
		{name: "narrower rows", address: 0x1000, rowCount: 4, bytesPerRow: 8},
		{name: "wider rows", address: 0x1000, rowCount: 2, bytesPerRow: 32},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			v := f.addMemoryPane(memory.MemoryView0)
			if tt.name == "width not a multiple of group" {
				if err := f.c.SetMode(memory.MemoryView0, 4); err != nil {
					t.Fatal(err)
				}
			}
			before := v.Window()

			err := f.c.RequestWindow(memory.MemoryView0, tt.address, tt.rowCount, tt.bytesPerRow)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("RequestWindow() got = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				if len(f.transport.requests) != 0 {
					t.Errorf("transport calls got = %d, want 0", len(f.transport.requests))
				}
				if w := v.Window(); w != before {
					t.Errorf("Window() got = %+v, want %+v unchanged", w, before)
				}
				if got := v.Grid().BytesPerRow(); got != int(before.BytesPerRow) {
					t.Errorf("grid BytesPerRow() got = %d, want %d", got, before.BytesPerRow)
				}
				return
			}

			req := f.transport.last()
			if req.size != tt.rowCount*tt.bytesPerRow {
				t.Fatalf("request size got = %d, want %d", req.size, tt.rowCount*tt.bytesPerRow)
			}
			if got := v.Grid().BytesPerRow(); got != int(tt.bytesPerRow) {
				t.Errorf("grid BytesPerRow() got = %d, want %d", got, tt.bytesPerRow)
			}
			if tt.rowCount > 64 {
				return
			}
			if err = f.respond(req, 0); err != nil {
				t.Fatalf("OnResponse() error = %v", err)
			}
			if got := v.RowCount(); got != int(tt.rowCount) {
				t.Fatalf("RowCount() got = %d, want %d", got, tt.rowCount)
			}
			for i := 0; i < v.RowCount(); i++ {
				row, _ := v.Row(i)
				if uint32(len(row.RawBytes)) != tt.bytesPerRow {
					t.Errorf("row %d raw length got = %d, want %d", i, len(row.RawBytes), tt.bytesPerRow)
				}
				if want := tt.address + uint32(i)*tt.bytesPerRow; row.Address != want {
					t.Errorf("row %d address got = %#x, want %#x", i, row.Address, want)
				}
			}
		})
	}
}

func TestController_SetRowCountGeometry(t *testing.T) {
	tests := []struct {
		name     string
		rowCount uint32
		wantErr  error
		wantSize uint32
	}{
		{name: "grow", rowCount: 32, wantSize: 32 * 16},
		{name: "same is a no-op", rowCount: 16},
		{name: "zero", rowCount: 0, wantErr: ErrInvalidGeometry},
		{name: "overflowing", rowCount: 0x10000001, wantErr: ErrInvalidGeometry},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			v := f.addMemoryPane(memory.MemoryView0)

			err := f.c.SetRowCount(memory.MemoryView0, tt.rowCount)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("SetRowCount() got = %v, want %v", err, tt.wantErr)
			}
			if tt.wantSize == 0 {
				if len(f.transport.requests) != 0 {
					t.Errorf("transport calls got = %d, want 0", len(f.transport.requests))
				}
				if v.Window().RowCount != 16 {
					t.Errorf("RowCount got = %d, want 16 unchanged", v.Window().RowCount)
				}
				return
			}
			if got := f.transport.last().size; got != tt.wantSize {
				t.Errorf("request size got = %d, want %d", got, tt.wantSize)
			}
		})
	}
}

func TestController_RequestWindowIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.addMemoryPane(memory.MemoryView1)

	for i := 0; i < 3; i++ {
		if err := f.c.RequestWindow(memory.MemoryView1, 0x1000, 10, 16); err != nil {
			t.Fatalf("RequestWindow() error = %v", err)
		}
	}
	if len(f.transport.requests) != 1 {
		t.Fatalf("transport calls while outstanding got = %d, want 1", len(f.transport.requests))
	}

	if err := f.respond(f.transport.last(), 0); err != nil {
		t.Fatalf("OnResponse() error = %v", err)
	}
	if err := f.c.RequestWindow(memory.MemoryView1, 0x1000, 10, 16); err != nil {
		t.Fatalf("RequestWindow() error = %v", err)
	}
	if len(f.transport.requests) != 1 {
		t.Errorf("transport calls once current got = %d, want 1", len(f.transport.requests))
	}

	req := f.transport.last()
	if req.address != 0x1000 || req.size != 160 {
		t.Errorf("request got = $%x+%d, want $1000+160", req.address, req.size)
	}
}

func TestController_LateResponseIsDropped(t *testing.T) {
	f := newFixture(t)
	v := f.addMemoryPane(memory.MemoryView0)

	// burn ids so the next two are 4 and 5:
	for i := 0; i < 3; i++ {
		f.transport.tracker.Issue(memory.Disassembly)
	}
	_ = f.c.RequestWindow(memory.MemoryView0, 0x100, 1, 16)
	_ = f.c.RequestWindow(memory.MemoryView0, 0x200, 1, 16)
	old, latest := f.transport.requests[0], f.transport.requests[1]
	if old.id != 4 || latest.id != 5 {
		t.Fatalf("ids got = %d,%d, want 4,5", old.id, latest.id)
	}

	if err := f.respond(latest, 0x50); err != nil {
		t.Fatalf("OnResponse(5) error = %v", err)
	}
	if err := f.respond(old, 0x40); !errors.Is(err, ErrStaleResponse) {
		t.Errorf("OnResponse(4) got = %v, want %v", err, ErrStaleResponse)
	}
	if got := v.Current().Get(0); got != 0x50 {
		t.Errorf("Get(0) got = %#x, want %#x", got, 0x50)
	}
}

func TestController_OnResponse(t *testing.T) {
	tests := []struct {
		name     string
		id       func(req fakeRequest) uint64
		address  func(req fakeRequest) uint32
		size     func(req fakeRequest) uint32
		wantErr  error
		wantSnap bool
	}{
		{
			name:     "match",
			id:       func(req fakeRequest) uint64 { return req.id },
			address:  func(req fakeRequest) uint32 { return req.address },
			size:     func(req fakeRequest) uint32 { return req.size },
			wantSnap: true,
		},
		{
			name:    "zero id",
			id:      func(req fakeRequest) uint64 { return 0 },
			address: func(req fakeRequest) uint32 { return req.address },
			size:    func(req fakeRequest) uint32 { return req.size },
			wantErr: ErrStaleResponse,
		},
		{
			name:    "future id",
			id:      func(req fakeRequest) uint64 { return req.id + 1 },
			address: func(req fakeRequest) uint32 { return req.address },
			size:    func(req fakeRequest) uint32 { return req.size },
			wantErr: ErrStaleResponse,
		},
		{
			name:    "wrong base",
			id:      func(req fakeRequest) uint64 { return req.id },
			address: func(req fakeRequest) uint32 { return req.address + 16 },
			size:    func(req fakeRequest) uint32 { return req.size },
			wantErr: ErrWindowMismatch,
		},
		{
			name:    "short",
			id:      func(req fakeRequest) uint64 { return req.id },
			address: func(req fakeRequest) uint32 { return req.address },
			size:    func(req fakeRequest) uint32 { return req.size - 1 },
			wantErr: ErrWindowMismatch,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			v := f.addMemoryPane(memory.MemoryView2)
			if err := f.c.RequestWindow(memory.MemoryView2, 0x800, 2, 16); err != nil {
				t.Fatalf("RequestWindow() error = %v", err)
			}
			req := f.transport.last()

			snap := memory.NewSnapshot(tt.address(req), fill(tt.size(req), 1))
			err := f.c.OnResponse(req.slot, tt.id(req), snap)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("OnResponse() got = %v, want %v", err, tt.wantErr)
			}
			if got := !v.Current().IsEmpty(); got != tt.wantSnap {
				t.Errorf("snapshot applied got = %v, want %v", got, tt.wantSnap)
			}
			if tt.wantErr == ErrWindowMismatch && v.Outstanding() != 0 {
				t.Errorf("Outstanding() got = %d, want 0 after mismatch", v.Outstanding())
			}
		})
	}
}

func TestController_DeliverReRequestsAfterMismatch(t *testing.T) {
	f := newFixture(t)
	f.addMemoryPane(memory.MemoryView0)
	_ = f.c.RequestWindow(memory.MemoryView0, 0x800, 1, 16)
	req := f.transport.last()

	f.c.Deliver(req.slot, req.id, memory.NewSnapshot(0x900, fill(16, 0)))

	if len(f.transport.requests) != 2 {
		t.Fatalf("transport calls got = %d, want 2", len(f.transport.requests))
	}
	if again := f.transport.last(); again.address != 0x800 || again.id == req.id {
		t.Errorf("re-request got = %+v, want a new id for $800", again)
	}
}

func TestController_OnTargetStoppedResolvesLockedExpression(t *testing.T) {
	f := newFixture(t)
	f.symbols.Set([]symbols.Symbol{{Name: "symbol_foo", Address: 0x400c}})
	v := f.addMemoryPane(memory.MemoryView3)
	v.SetLockedExpression("symbol_foo+4", true)

	f.c.OnTargetStopped()

	req := f.transport.last()
	if req.address != 0x4010 {
		t.Errorf("request address got = %#x, want %#x", req.address, 0x4010)
	}
	if v.Window().Address != 0x4010 {
		t.Errorf("Window().Address got = %#x, want %#x", v.Window().Address, 0x4010)
	}

	// a register-relative lock follows the register:
	f.registers["a0"] = 0x2000
	if err := f.c.SetExpression(memory.MemoryView3, "a0", true); err != nil {
		t.Fatalf("SetExpression() error = %v", err)
	}
	f.registers["a0"] = 0x3000
	f.c.OnTargetStopped()
	if got := f.transport.last().address; got != 0x3000 {
		t.Errorf("request address got = %#x, want %#x", got, 0x3000)
	}
}

func TestController_SetExpressionUnresolved(t *testing.T) {
	f := newFixture(t)
	f.addMemoryPane(memory.MemoryView0)

	err := f.c.SetExpression(memory.MemoryView0, "nowhere", true)
	if !errors.Is(err, ErrUnresolvedExpression) {
		t.Errorf("SetExpression() got = %v, want %v", err, ErrUnresolvedExpression)
	}
	if len(f.transport.requests) != 0 {
		t.Errorf("transport calls got = %d, want 0", len(f.transport.requests))
	}
}

func TestController_DiffAcrossRun(t *testing.T) {
	f := newFixture(t)
	v := f.addMemoryPane(memory.MemoryView0)

	_ = f.c.RequestWindow(memory.MemoryView0, 0x100, 1, 16)
	if err := f.respond(f.transport.last(), 0); err != nil {
		t.Fatal(err)
	}

	f.target.running = true
	f.c.OnTargetStarted()
	if v.IsCurrent() {
		t.Error("IsCurrent() while running got = true, want false")
	}
	f.target.running = false
	f.c.OnTargetStopped()

	req := f.transport.last()
	data := fill(req.size, 0)
	data[3] = 0xee
	if err := f.c.OnResponse(req.slot, req.id, memory.NewSnapshot(req.address, data)); err != nil {
		t.Fatal(err)
	}

	row, ok := f.c.GetRow(memory.MemoryView0, 0)
	if !ok {
		t.Fatal("GetRow(0) got = false")
	}
	g := v.Grid()
	for i, u := range row.Units {
		col, _ := g.Column(i)
		want := col.Unit != grid.Separator && col.ByteOffset == 3
		if u.Changed != want {
			t.Errorf("unit %d (byte %d, %v) Changed got = %v, want %v", i, col.ByteOffset, col.Unit, u.Changed, want)
		}
	}
}

func TestController_Disconnect(t *testing.T) {
	f := newFixture(t)
	v := f.addMemoryPane(memory.MemoryView0)
	_ = f.c.RequestWindow(memory.MemoryView0, 0x100, 1, 16)
	if err := f.respond(f.transport.last(), 7); err != nil {
		t.Fatal(err)
	}
	_ = f.c.Refresh(memory.MemoryView0)
	pending := f.transport.last()

	f.target.connected = false
	f.c.OnConnectionChanged(false)

	if v.Outstanding() != 0 {
		t.Errorf("Outstanding() got = %d, want 0", v.Outstanding())
	}
	if err := f.respond(pending, 9); !errors.Is(err, ErrStaleResponse) {
		t.Errorf("OnResponse() after disconnect got = %v, want %v", err, ErrStaleResponse)
	}
	if v.Current().Get(0) != 7 {
		t.Errorf("snapshot got = %d, want the last one kept", v.Current().Get(0))
	}
	if err := f.c.RequestWindow(memory.MemoryView0, 0x200, 1, 16); !errors.Is(err, ErrDisconnected) {
		t.Errorf("RequestWindow() got = %v, want %v", err, ErrDisconnected)
	}
	if err := f.c.ApplyEdit(memory.MemoryView0, 0, 1); !errors.Is(err, ErrDisconnected) {
		t.Errorf("ApplyEdit() got = %v, want %v", err, ErrDisconnected)
	}

	calls := len(f.transport.requests)
	f.target.connected = true
	f.c.OnConnectionChanged(true)
	if len(f.transport.requests) != calls+1 {
		t.Fatalf("transport calls on connect got = %d, want %d", len(f.transport.requests), calls+1)
	}
	if got := f.transport.last().address; got != 0x200 {
		t.Errorf("request address on connect got = %#x, want %#x", got, 0x200)
	}
}

func TestController_ConnectWhileRunningOnlyMarksStale(t *testing.T) {
	f := newFixture(t)
	v := f.addMemoryPane(memory.MemoryView0)
	f.target.running = true

	f.c.OnConnectionChanged(true)

	if len(f.transport.requests) != 0 {
		t.Errorf("transport calls got = %d, want 0", len(f.transport.requests))
	}
	if v.IsCurrent() {
		t.Error("IsCurrent() got = true, want false")
	}
}

func TestController_OnRelatedMemoryChanged(t *testing.T) {
	f := newFixture(t)
	f.addMemoryPane(memory.MemoryView0)
	f.addMemoryPane(memory.MemoryView1)
	_ = f.c.RequestWindow(memory.MemoryView0, 0x1000, 1, 16)
	_ = f.c.RequestWindow(memory.MemoryView1, 0x2000, 1, 16)
	for _, req := range f.transport.requests {
		if err := f.respond(req, 0); err != nil {
			t.Fatal(err)
		}
	}
	calls := len(f.transport.requests)

	f.c.OnRelatedMemoryChanged(0x200f, 1)

	if len(f.transport.requests) != calls+1 {
		t.Fatalf("transport calls got = %d, want %d", len(f.transport.requests), calls+1)
	}
	if got := f.transport.last().slot; got != memory.MemoryView1 {
		t.Errorf("re-requested slot got = %v, want %v", got, memory.MemoryView1)
	}
}

func TestController_RequestFailure(t *testing.T) {
	f := newFixture(t)
	v := f.addMemoryPane(memory.MemoryView0)
	_ = f.c.RequestWindow(memory.MemoryView0, 0x100, 1, 16)
	req := f.transport.last()

	f.c.OnRequestFailed(req.slot, req.id, errors.New("timeout"))
	if v.Outstanding() != 0 {
		t.Errorf("Outstanding() got = %d, want 0", v.Outstanding())
	}

	f.transport.err = errors.New("queue closed")
	if err := f.c.Refresh(memory.MemoryView0); err == nil {
		t.Error("Refresh() got = nil, want error")
	}
	if v.Outstanding() != 0 {
		t.Errorf("Outstanding() got = %d, want 0", v.Outstanding())
	}
}

func TestController_SetRowCount(t *testing.T) {
	f := newFixture(t)
	f.addMemoryPane(memory.MemoryView0)
	_ = f.c.RequestWindow(memory.MemoryView0, 0x100, 4, 16)

	if err := f.c.SetRowCount(memory.MemoryView0, 4); err != nil {
		t.Fatal(err)
	}
	if len(f.transport.requests) != 1 {
		t.Errorf("transport calls for same row count got = %d, want 1", len(f.transport.requests))
	}

	if err := f.c.SetRowCount(memory.MemoryView0, 8); err != nil {
		t.Fatal(err)
	}
	if got := f.transport.last().size; got != 128 {
		t.Errorf("request size got = %d, want 128", got)
	}
}

func TestController_UnknownSlot(t *testing.T) {
	f := newFixture(t)
	if err := f.c.RequestWindow(memory.Graphics, 0, 1, 1); !errors.Is(err, ErrUnknownSlot) {
		t.Errorf("RequestWindow() got = %v, want %v", err, ErrUnknownSlot)
	}
	if _, ok := f.c.GetRow(memory.Slot(99), 0); ok {
		t.Error("GetRow() on invalid slot got = true, want false")
	}
}

func TestController_SymbolTableChanged(t *testing.T) {
	f := newFixture(t)
	f.addMemoryPane(memory.MemoryView0)
	_ = f.c.RequestWindow(memory.MemoryView0, 0x100, 1, 16)
	if err := f.respond(f.transport.last(), 0); err != nil {
		t.Fatal(err)
	}
	calls := len(f.transport.requests)

	f.symbols.Set([]symbols.Symbol{{Name: "buf", Address: 0x100}})
	f.c.SymbolTableChanged()

	if len(f.transport.requests) != calls {
		t.Errorf("transport calls got = %d, want %d", len(f.transport.requests), calls)
	}
	row, _ := f.c.GetRow(memory.MemoryView0, 0)
	if row.Units[0].OverlayID != 0 {
		t.Errorf("OverlayID got = %d, want 0", row.Units[0].OverlayID)
	}
}
