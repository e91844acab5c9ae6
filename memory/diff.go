package memory

// Changed compares the byte at address between two snapshots.
// An address missing from either snapshot is never reported as changed, so a first load
// against an empty previous snapshot highlights nothing.
func Changed(previous, current Snapshot, address uint32) bool {
	pb, ok := previous.ByteAt(address)
	if !ok {
		return false
	}
	cb, ok := current.ByteAt(address)
	if !ok {
		return false
	}
	return pb != cb
}

// ChangedRange reports the per-byte changed flags for [address, address+n).
func ChangedRange(previous, current Snapshot, address uint32, n int) []bool {
	flags := make([]bool, n)
	for i := range flags {
		flags[i] = Changed(previous, current, address+uint32(i))
	}
	return flags
}
