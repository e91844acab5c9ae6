package engine

import (
	"context"
	"sync"

	"hrsync/util"
)

// Loop runs posted functions one at a time on a single goroutine. Everything that touches the
// Controller goes through it: transport completions, run state changes and UI commands.
type Loop struct {
	lock    sync.Mutex
	pending []func()
	wake    chan struct{}
}

func NewLoop() *Loop {
	return &Loop{wake: make(chan struct{}, 1)}
}

// Post queues f without blocking.
func (l *Loop) Post(f func()) {
	l.lock.Lock()
	l.pending = append(l.pending, f)
	l.lock.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Do runs f on the loop and waits for its result.
func (l *Loop) Do(ctx context.Context, f func() error) error {
	result := make(chan error, 1)
	l.Post(func() { result <- f() })
	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run processes posted functions until ctx is done. A panicking function is logged and skipped.
func (l *Loop) Run(ctx context.Context) error {
	for {
		l.lock.Lock()
		batch := l.pending
		l.pending = nil
		l.lock.Unlock()

		for _, f := range batch {
			l.run(f)
		}
		if len(batch) > 0 {
			continue
		}

		select {
		case <-l.wake:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (l *Loop) run(f func()) {
	defer func() {
		if err := recover(); err != nil {
			util.LogPanic(err)
		}
	}()
	f()
}
