package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestLoop_RunsInOrder(t *testing.T) {
	l := NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = l.Run(ctx) }()

	var got []int
	var wg sync.WaitGroup
	wg.Add(100)
	for i := 0; i < 100; i++ {
		i := i
		l.Post(func() {
			got = append(got, i)
			wg.Done()
		})
	}
	wg.Wait()

	for i, v := range got {
		if v != i {
			t.Fatalf("got[%d] = %d, want %d", i, v, i)
		}
	}
}

func TestLoop_DoSurvivesPanic(t *testing.T) {
	l := NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = l.Run(ctx) }()

	l.Post(func() { panic("boom") })

	want := errors.New("after")
	if err := l.Do(ctx, func() error { return want }); err != want {
		t.Errorf("Do() got = %v, want %v", err, want)
	}
}

func TestLoop_DoHonoursContext(t *testing.T) {
	l := NewLoop()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	// nothing runs the loop:
	if err := l.Do(ctx, func() error { return nil }); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Do() got = %v, want %v", err, context.DeadlineExceeded)
	}

	runCtx, stop := context.WithCancel(context.Background())
	stop()
	if err := l.Run(runCtx); !errors.Is(err, context.Canceled) {
		t.Errorf("Run() got = %v, want %v", err, context.Canceled)
	}
}
