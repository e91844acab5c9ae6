package tracker

import (
	"hrsync/memory"
	"sync"
)

// Tracker hands out request ids. Ids start at 1 and strictly increase across all slots; 0 means
// "no request". Only the most recently issued id of a slot is current.
type Tracker struct {
	lock sync.Mutex

	next uint64
	last map[memory.Slot]uint64
}

func New() *Tracker {
	return &Tracker{
		next: 1,
		last: make(map[memory.Slot]uint64),
	}
}

// Issue returns a fresh id for slot and makes it the slot's current id.
func (t *Tracker) Issue(slot memory.Slot) uint64 {
	defer t.lock.Unlock()
	t.lock.Lock()

	id := t.next
	t.next++
	t.last[slot] = id
	return id
}

// IsCurrent reports whether id is the last id issued for slot.
func (t *Tracker) IsCurrent(slot memory.Slot, id uint64) bool {
	if id == 0 {
		return false
	}

	defer t.lock.Unlock()
	t.lock.Lock()

	return t.last[slot] == id
}

// Last returns the last id issued for slot, or 0.
func (t *Tracker) Last(slot memory.Slot) uint64 {
	defer t.lock.Unlock()
	t.lock.Lock()

	return t.last[slot]
}
