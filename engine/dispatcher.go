package engine

import (
	"sync"

	"hrsync/memory"
	"hrsync/target"
	"hrsync/tracker"
)

// Dispatcher is the Transport over a target.Queue. Ids come from the shared tracker; completions are
// handed to the deliver and fail callbacks, which normally post onto the Loop.
type Dispatcher struct {
	tracker *tracker.Tracker

	lock  sync.Mutex
	queue target.Queue

	deliver func(slot memory.Slot, id uint64, snap memory.Snapshot)
	fail    func(slot memory.Slot, id uint64, err error)
}

func NewDispatcher(t *tracker.Tracker, deliver func(memory.Slot, uint64, memory.Snapshot), fail func(memory.Slot, uint64, error)) *Dispatcher {
	return &Dispatcher{tracker: t, deliver: deliver, fail: fail}
}

func (d *Dispatcher) SetQueue(q target.Queue) {
	d.lock.Lock()
	d.queue = q
	d.lock.Unlock()
}

func (d *Dispatcher) Queue() target.Queue {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.queue
}

type readTag struct {
	slot memory.Slot
	id   uint64
}

func (d *Dispatcher) RequestMemory(slot memory.Slot, address, size uint32) (uint64, error) {
	q := d.Queue()
	if q == nil {
		return 0, ErrDisconnected
	}

	id := d.tracker.Issue(slot)
	tag := readTag{slot: slot, id: id}
	seq := q.MakeReadCommands([]target.Read{{
		Address: address,
		Size:    size,
		Extra:   tag,
		Completion: func(rsp target.Response) {
			t := rsp.Extra.(readTag)
			d.deliver(t.slot, t.id, memory.NewSnapshot(rsp.Address, rsp.Data))
		},
	}}, func(cmd target.Command, err error) {
		if err != nil && d.fail != nil {
			d.fail(tag.slot, tag.id, err)
		}
	})

	if err := seq.EnqueueTo(q); err != nil {
		return 0, err
	}
	return id, nil
}

func (d *Dispatcher) SendWriteCommand(address uint32, data []byte) error {
	q := d.Queue()
	if q == nil {
		return ErrDisconnected
	}

	buf := make([]byte, len(data))
	copy(buf, data)
	return q.MakeWriteCommands([]target.Write{{Address: address, Data: buf}}, func(cmd target.Command, err error) {
		if err != nil {
			tracef("write $%06x: %v", address, err)
		}
	}).EnqueueTo(q)
}
