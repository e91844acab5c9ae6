package engine

import (
	"hrsync/memory"
	"hrsync/views"
)

// Transport fetches and writes target memory. RequestMemory returns immediately with the request id;
// the data arrives later through the controller's OnResponse.
type Transport interface {
	RequestMemory(slot memory.Slot, address, size uint32) (uint64, error)
	SendWriteCommand(address uint32, data []byte) error
}

// TargetState reports the link and execution state of the target.
type TargetState interface {
	IsConnected() bool
	IsRunning() bool
}

// Evaluator resolves address expressions such as "symbol_foo+4" or "a0".
type Evaluator interface {
	Evaluate(expression string) (uint32, bool)
}

// ViewObserver is told when a view has new rows or state to show.
type ViewObserver func(v *views.ViewState)
