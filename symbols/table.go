// Package symbols holds the target's symbol table and the address expression evaluator used to
// resolve locked view addresses.
package symbols

import (
	"sort"
	"strings"
	"sync"
)

type Symbol struct {
	Name    string
	Address uint32
	Size    uint32

	// Index is the symbol's position in address order; views use it as an overlay id.
	Index int
}

// Table is a goroutine-safe symbol table kept in address order.
type Table struct {
	lock sync.RWMutex

	byAddress []Symbol
	byName    map[string]int
}

func NewTable(syms ...Symbol) *Table {
	t := &Table{}
	t.Set(syms)
	return t
}

// Set replaces the table contents.
func (t *Table) Set(syms []Symbol) {
	sorted := make([]Symbol, len(syms))
	copy(sorted, syms)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Address < sorted[j].Address
	})

	byName := make(map[string]int, len(sorted))
	for i := range sorted {
		sorted[i].Index = i
		byName[strings.ToLower(sorted[i].Name)] = i
	}

	t.lock.Lock()
	t.byAddress = sorted
	t.byName = byName
	t.lock.Unlock()
}

func (t *Table) Count() int {
	t.lock.RLock()
	defer t.lock.RUnlock()
	return len(t.byAddress)
}

// Find looks a symbol up by name, ignoring case.
func (t *Table) Find(name string) (Symbol, bool) {
	t.lock.RLock()
	defer t.lock.RUnlock()

	i, ok := t.byName[strings.ToLower(name)]
	if !ok {
		return Symbol{}, false
	}
	return t.byAddress[i], true
}

// FindLowerOrEqual returns the symbol with the highest address that is <= address.
func (t *Table) FindLowerOrEqual(address uint32) (Symbol, bool) {
	t.lock.RLock()
	defer t.lock.RUnlock()

	i := sort.Search(len(t.byAddress), func(i int) bool {
		return t.byAddress[i].Address > address
	})
	if i == 0 {
		return Symbol{}, false
	}
	return t.byAddress[i-1], true
}
