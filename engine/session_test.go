package engine

import (
	"context"
	"testing"
	"time"

	"hrsync/grid"
	"hrsync/memory"
	"hrsync/target"
	"hrsync/target/mock"
)

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// startSession runs a session with a private mock target attached.
func startSession(t *testing.T, configPath string) (*Session, *mock.Target) {
	t.Helper()
	s, err := NewSession(SessionConfig{ConfigPath: configPath})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	<-s.Ready()

	tgt := mock.NewTarget()
	drv := &mock.Driver{Target: tgt}
	s.Target.Attach(mock.NewQueue(tgt, time.Millisecond), target.NamedDriverDevicePair{
		NamedDriver: target.NamedDriver{Name: "mock", Driver: drv},
		Device:      mock.DeviceDescriptor{},
	})
	return s, tgt
}

func current(s *Session, slot memory.Slot) func() bool {
	return func() bool {
		v := s.ViewModel.panes[slot.String()].view
		return v.IsCurrent() && v.Outstanding() == 0
	}
}

func TestSession_SyncsWithTarget(t *testing.T) {
	s, tgt := startSession(t, "")
	tgt.Memory.Write(0x1000, []byte{0xde, 0xad, 0xbe, 0xef})

	eventually(t, "connected", s.Target.IsConnected)
	eventually(t, "initial sync", current(s, memory.MemoryView0))

	err := s.Loop.Do(context.Background(), func() error {
		return s.Controller.RequestWindow(memory.MemoryView0, 0x1000, 2, 16)
	})
	if err != nil {
		t.Fatal(err)
	}
	eventually(t, "window at $1000", func() bool {
		v := s.ViewModel.panes["memory0"].view
		return v.IsCurrent() && v.Current().BaseAddress() == 0x1000
	})

	v := s.ViewModel.panes["memory0"].view
	if got := v.Current().Slice(0, 4); string(got) != "\xde\xad\xbe\xef" {
		t.Errorf("Slice() got = % x, want de ad be ef", got)
	}

	// edit goes to the target and shows locally at once:
	err = s.Loop.Do(context.Background(), func() error {
		if err := s.Controller.ApplyEdit(memory.MemoryView0, 1, 0x42); err != nil {
			return err
		}
		if got := v.Current().Get(1); got != 0x42 {
			t.Errorf("Get(1) got = %#x, want %#x", got, 0x42)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("ApplyEdit() error = %v", err)
	}
	eventually(t, "write reached target", func() bool {
		return tgt.Memory.Read(0x1001, 1)[0] == 0x42
	})

	// running marks the view stale; stopping fetches again and flags changes:
	if err = s.Target.Continue(); err != nil {
		t.Fatal(err)
	}
	eventually(t, "running", s.Target.IsRunning)
	// the run state change and its effect on views happen in one loop step:
	_ = s.Loop.Do(context.Background(), func() error { return nil })
	if v.IsCurrent() {
		t.Error("IsCurrent() while running got = true, want false")
	}
	tgt.Memory.Write(0x1003, []byte{0x00})
	if err = s.Target.Break(); err != nil {
		t.Fatal(err)
	}
	eventually(t, "resync after stop", func() bool {
		return !s.Target.IsRunning() && v.IsCurrent() && v.Current().Get(3) == 0x00
	})

	row, _ := v.Row(0)
	g := v.Grid()
	for i, u := range row.Units {
		col, _ := g.Column(i)
		if col.Unit == grid.Separator {
			continue
		}
		want := col.ByteOffset == 3
		if u.Changed != want {
			t.Errorf("unit %d byte %d Changed got = %v, want %v", i, col.ByteOffset, u.Changed, want)
		}
	}

	if st := s.Controller.Stats().Snapshot(); st.Accepted == 0 || st.Issued < st.Accepted {
		t.Errorf("Stats() got = %+v", st)
	}
}

func TestSession_Disconnect(t *testing.T) {
	s, _ := startSession(t, "")
	eventually(t, "initial sync", current(s, memory.MemoryView0))
	v := s.ViewModel.panes["memory0"].view
	before := v.Current()

	s.Target.Disconnect()
	eventually(t, "disconnected", func() bool { return !s.Target.IsConnected() })

	err := s.Loop.Do(context.Background(), func() error {
		return s.Controller.RequestWindow(memory.MemoryView0, 0x2000, 1, 16)
	})
	if !IsQuiet(err) {
		t.Errorf("RequestWindow() got = %v, want %v", err, ErrDisconnected)
	}
	if v.IsCurrent() {
		t.Error("IsCurrent() got = true, want false")
	}
	if v.Current().Size() != before.Size() {
		t.Errorf("snapshot size got = %d, want %d kept", v.Current().Size(), before.Size())
	}
	if err = s.Target.Break(); err != ErrNotConnected {
		t.Errorf("Break() got = %v, want %v", err, ErrNotConnected)
	}
}
