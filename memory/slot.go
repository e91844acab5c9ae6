package memory

import "fmt"

// Slot identifies one independent view's data channel to the target.
type Slot int

const (
	MemoryView0 Slot = iota
	MemoryView1
	MemoryView2
	MemoryView3
	Disassembly
	Graphics
	GraphicsPalette
	HardwareMMU
	HardwareVideo
	HardwareMFP

	SlotCount
)

// MemoryViewCount is the number of independent memory panes.
const MemoryViewCount = 4

var slotNames = [SlotCount]string{
	MemoryView0:     "memory0",
	MemoryView1:     "memory1",
	MemoryView2:     "memory2",
	MemoryView3:     "memory3",
	Disassembly:     "disasm",
	Graphics:        "graphics",
	GraphicsPalette: "palette",
	HardwareMMU:     "hw-mmu",
	HardwareVideo:   "hw-video",
	HardwareMFP:     "hw-mfp",
}

func (s Slot) String() string {
	if s < 0 || s >= SlotCount {
		return fmt.Sprintf("slot(%d)", int(s))
	}
	return slotNames[s]
}

func (s Slot) IsValid() bool { return s >= 0 && s < SlotCount }

// MemoryView returns the slot of the i'th memory pane.
func MemoryView(i int) Slot {
	return MemoryView0 + Slot(i)
}

// ParseSlot finds a slot by its String() name.
func ParseSlot(name string) (Slot, bool) {
	for i, n := range slotNames {
		if n == name {
			return Slot(i), true
		}
	}
	return 0, false
}
