package engine

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"hrsync/target"
)

var ErrNotConnected = errors.New("engine: no target connected")
var ErrNoRunControl = errors.New("engine: target cannot be stopped or resumed")

// TargetModel owns the connection to the target and reports connectivity and run state changes to
// the controller through the loop.
type TargetModel struct {
	loop       *Loop
	dispatcher *Dispatcher
	controller *Controller

	lock    sync.Mutex
	queue   target.Queue
	pair    target.NamedDriverDevicePair
	running bool

	onChange func()
}

func NewTargetModel(loop *Loop, dispatcher *Dispatcher) *TargetModel {
	return &TargetModel{loop: loop, dispatcher: dispatcher}
}

// ProvideController wires the controller that receives connection and run state events.
func (m *TargetModel) ProvideController(c *Controller) {
	m.controller = c
}

// OnChange registers a callback run on the loop after every connection or run state change.
func (m *TargetModel) OnChange(f func()) {
	m.onChange = f
}

func (m *TargetModel) IsConnected() bool {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.queue != nil
}

func (m *TargetModel) IsRunning() bool {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.queue != nil && m.running
}

func (m *TargetModel) Device() (target.NamedDriverDevicePair, bool) {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.pair, m.queue != nil
}

func (m *TargetModel) IsConnectedTo(pair target.NamedDriverDevicePair) bool {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.queue != nil && m.pair.NamedDriver.Name == pair.NamedDriver.Name && m.pair.Device.GetId() == pair.Device.GetId()
}

// Connect opens the device and attaches its queue. Connecting to the current device is a no-op.
func (m *TargetModel) Connect(pair target.NamedDriverDevicePair) error {
	if m.IsConnectedTo(pair) {
		return nil
	}
	if m.IsConnected() {
		m.Disconnect()
	}

	log.Printf("engine: connect: open: driver='%s', device='%s'\n", pair.NamedDriver.Name, pair.Device.GetDisplayName())
	q, err := pair.NamedDriver.Driver.Open(pair.Device)
	if err != nil {
		return fmt.Errorf("engine: connect %s: %w", pair.NamedDriver.Name, err)
	}
	m.Attach(q, pair)
	return nil
}

// Attach uses an already opened queue.
func (m *TargetModel) Attach(q target.Queue, pair target.NamedDriverDevicePair) {
	m.lock.Lock()
	m.queue = q
	m.pair = pair
	m.running = false
	m.lock.Unlock()

	m.dispatcher.SetQueue(q)

	if n, ok := q.(target.RunStateNotifier); ok {
		go m.watchRunState(q, n.RunStates())
	}
	go func() {
		// wait for the queue to be closed:
		<-q.Closed()
		log.Printf("engine: connection closed: driver='%s'\n", pair.NamedDriver.Name)
		m.loop.Post(func() { m.detached(q) })
	}()

	m.loop.Post(func() {
		if m.controller != nil {
			m.controller.OnConnectionChanged(true)
		}
		m.notify()
	})
}

func (m *TargetModel) watchRunState(q target.Queue, states <-chan target.RunState) {
	for state := range states {
		state := state
		m.loop.Post(func() { m.setRunState(q, state) })
	}
}

func (m *TargetModel) setRunState(q target.Queue, state target.RunState) {
	m.lock.Lock()
	if m.queue != q {
		m.lock.Unlock()
		return
	}
	wasRunning := m.running
	m.running = state == target.Running
	m.lock.Unlock()

	if wasRunning == (state == target.Running) {
		return
	}
	if m.controller != nil {
		if state == target.Running {
			m.controller.OnTargetStarted()
		} else {
			m.controller.OnTargetStopped()
		}
	}
	m.notify()
}

func (m *TargetModel) detached(q target.Queue) {
	m.lock.Lock()
	if m.queue != q {
		m.lock.Unlock()
		return
	}
	m.queue = nil
	m.pair = target.NamedDriverDevicePair{}
	m.running = false
	m.lock.Unlock()

	m.dispatcher.SetQueue(nil)
	if m.controller != nil {
		m.controller.OnConnectionChanged(false)
	}
	m.notify()
}

// Disconnect enqueues a close; the controller is told once the queue has shut down.
func (m *TargetModel) Disconnect() {
	m.lock.Lock()
	q := m.queue
	m.lock.Unlock()
	if q == nil {
		return
	}

	err := q.Enqueue(target.CommandWithCompletion{Command: &target.CloseCommand{}})
	if err != nil {
		log.Printf("engine: disconnect: enqueue closecommand: %v\n", err)
	}
}

func (m *TargetModel) runController() (target.RunController, error) {
	m.lock.Lock()
	q := m.queue
	m.lock.Unlock()
	if q == nil {
		return nil, ErrNotConnected
	}
	rc, ok := q.(target.RunController)
	if !ok {
		return nil, ErrNoRunControl
	}
	return rc, nil
}

func (m *TargetModel) Break() error {
	rc, err := m.runController()
	if err != nil {
		return err
	}
	return rc.Break()
}

func (m *TargetModel) Continue() error {
	rc, err := m.runController()
	if err != nil {
		return err
	}
	return rc.Continue()
}

func (m *TargetModel) notify() {
	if m.onChange != nil {
		m.onChange()
	}
}
