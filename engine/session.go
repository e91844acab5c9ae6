package engine

import (
	"context"
	"time"

	"hrsync/memory"
	"hrsync/symbols"
	"hrsync/tracker"
)

const statsInterval = time.Second

// SessionConfig shapes a Session.
type SessionConfig struct {
	Panes PaneOptions

	// ConfigPath is where config.json lives; empty disables load and save.
	ConfigPath string

	Symbols *symbols.Table
}

// Session wires the loop, transport, controller, target model and view models together.
type Session struct {
	Loop       *Loop
	Tracker    *tracker.Tracker
	Dispatcher *Dispatcher
	Target     *TargetModel
	Controller *Controller
	ViewModel  *ViewModel

	Symbols *symbols.Table

	registers symbols.Registers
	ready     chan struct{}
}

func NewSession(cfg SessionConfig) (*Session, error) {
	s := &Session{
		Loop:      NewLoop(),
		Tracker:   tracker.New(),
		Symbols:   cfg.Symbols,
		registers: symbols.Registers{},
		ready:     make(chan struct{}),
	}
	if s.Symbols == nil {
		s.Symbols = symbols.NewTable()
	}

	s.Dispatcher = NewDispatcher(s.Tracker,
		func(slot memory.Slot, id uint64, snap memory.Snapshot) {
			s.Loop.Post(func() { s.Controller.Deliver(slot, id, snap) })
		},
		func(slot memory.Slot, id uint64, err error) {
			s.Loop.Post(func() { s.Controller.OnRequestFailed(slot, id, err) })
		},
	)
	s.Target = NewTargetModel(s.Loop, s.Dispatcher)

	s.Controller = NewController(Config{
		Transport: s.Dispatcher,
		Target:    s.Target,
		Evaluator: &symbols.Evaluator{Symbols: s.Symbols, Registers: s.registers},
		Symbols:   s.Symbols,
		Tracker:   s.Tracker,
	})
	s.Target.ProvideController(s.Controller)

	panes, err := DefaultPanes(cfg.Panes)
	if err != nil {
		return nil, err
	}
	for _, v := range panes {
		s.Controller.AddView(v)
	}

	s.ViewModel = NewViewModel(s.Loop, s.Controller, s.Target, cfg.ConfigPath)
	return s, nil
}

// SetRegisters replaces the register values locked expressions may refer to.
func (s *Session) SetRegisters(regs map[string]uint32) {
	s.Loop.Post(func() {
		for k := range s.registers {
			delete(s.registers, k)
		}
		for k, v := range regs {
			s.registers[k] = v
		}
	})
}

// SetSymbols replaces the symbol table contents and refreshes symbol overlays.
func (s *Session) SetSymbols(syms []symbols.Symbol) {
	s.Symbols.Set(syms)
	s.Loop.Post(s.Controller.SymbolTableChanged)
}

// Ready is closed once Run has restored the configuration.
func (s *Session) Ready() <-chan struct{} { return s.ready }

// Run starts the loop, initialises the view models and keeps detecting devices until ctx is done.
func (s *Session) Run(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		errc <- s.Loop.Run(ctx)
	}()

	s.ViewModel.Init(ctx)
	close(s.ready)
	go s.ViewModel.targetViewModel.DetectPeriodically(ctx)
	go func() {
		t := time.NewTicker(statsInterval)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				s.ViewModel.UpdateStats()
			case <-ctx.Done():
				return
			}
		}
	}()

	err := <-errc
	s.Target.Disconnect()
	return err
}
