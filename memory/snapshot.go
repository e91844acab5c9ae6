package memory

// Snapshot is a contiguous block of target memory captured at BaseAddress.
// A Snapshot is never mutated once built; edits produce a new Snapshot via WithByte.
type Snapshot struct {
	baseAddress uint32
	data        []byte
}

// Empty is the zero Snapshot; it contains no addresses.
var Empty = Snapshot{}

// NewSnapshot copies data so callers may reuse their buffer.
func NewSnapshot(baseAddress uint32, data []byte) Snapshot {
	d := make([]byte, len(data))
	copy(d, data)
	return Snapshot{baseAddress: baseAddress, data: d}
}

func (s Snapshot) BaseAddress() uint32 { return s.baseAddress }
func (s Snapshot) Size() uint32        { return uint32(len(s.data)) }
func (s Snapshot) IsEmpty() bool       { return len(s.data) == 0 }

// HasAddress reports whether baseAddress <= address < baseAddress+size.
func (s Snapshot) HasAddress(address uint32) bool {
	if address < s.baseAddress {
		return false
	}
	return uint64(address-s.baseAddress) < uint64(len(s.data))
}

// ByteAt reads the byte at an absolute address; ok is false outside the snapshot.
func (s Snapshot) ByteAt(address uint32) (b uint8, ok bool) {
	if !s.HasAddress(address) {
		return 0, false
	}
	return s.data[address-s.baseAddress], true
}

// Get reads the byte at an offset relative to BaseAddress.
func (s Snapshot) Get(offset uint32) uint8 {
	return s.data[offset]
}

// Bytes returns a copy of the snapshot contents.
func (s Snapshot) Bytes() []byte {
	d := make([]byte, len(s.data))
	copy(d, s.data)
	return d
}

// Slice returns up to n bytes starting at offset; it is shorter when the snapshot ends first.
func (s Snapshot) Slice(offset, n uint32) []byte {
	if offset >= uint32(len(s.data)) {
		return nil
	}
	end := uint64(offset) + uint64(n)
	if end > uint64(len(s.data)) {
		end = uint64(len(s.data))
	}
	return s.data[offset:end]
}

// ReadU16 reads a big-endian word at an absolute address.
func (s Snapshot) ReadU16(address uint32) (uint16, bool) {
	hi, ok1 := s.ByteAt(address)
	lo, ok2 := s.ByteAt(address + 1)
	if !ok1 || !ok2 {
		return 0, false
	}
	return uint16(hi)<<8 | uint16(lo), true
}

// ReadU32 reads a big-endian long at an absolute address.
func (s Snapshot) ReadU32(address uint32) (uint32, bool) {
	hi, ok1 := s.ReadU16(address)
	lo, ok2 := s.ReadU16(address + 2)
	if !ok1 || !ok2 {
		return 0, false
	}
	return uint32(hi)<<16 | uint32(lo), true
}

// WithByte returns a copy of s with the byte at offset replaced.
func (s Snapshot) WithByte(offset uint32, value uint8) Snapshot {
	n := s.Bytes()
	n[offset] = value
	return Snapshot{baseAddress: s.baseAddress, data: n}
}

// Matches reports whether the snapshot covers exactly [address, address+size).
func (s Snapshot) Matches(address, size uint32) bool {
	return s.baseAddress == address && uint32(len(s.data)) == size
}
