package views

import (
	"fmt"
	"hrsync/memory"
)

type BitplaneMode int

const (
	FourPlanes BitplaneMode = iota
	TwoPlanes
	OnePlane
)

// BytesPerChunk is the size of one 16-pixel chunk in the mode.
func (m BitplaneMode) BytesPerChunk() uint32 {
	switch m {
	case FourPlanes:
		return 8
	case TwoPlanes:
		return 4
	case OnePlane:
		return 2
	}
	return 0
}

// GraphicsWindow computes the bitmap window for width 16-pixel chunks and height lines.
func GraphicsWindow(address uint32, width, height uint32, mode BitplaneMode) Window {
	return Window{
		Address:     address,
		RowCount:    height,
		BytesPerRow: width * mode.BytesPerChunk(),
	}
}

// BitmapDecoder slices the snapshot into one row of raw bytes per scanline. Unpacking the
// bitplanes into pixels is left to the renderer.
type BitmapDecoder struct{}

func (BitmapDecoder) Decode(in DecodeInput) []Row {
	cur := in.Current
	bpr := in.Window.BytesPerRow
	if cur.IsEmpty() || bpr == 0 {
		return nil
	}

	rows := make([]Row, 0, cur.Size()/bpr)
	for offset := uint32(0); offset+bpr <= cur.Size(); offset += bpr {
		raw := make([]byte, bpr)
		copy(raw, cur.Slice(offset, bpr))
		addr := cur.BaseAddress() + offset
		rows = append(rows, Row{
			Address:  addr,
			RawBytes: raw,
			Changed:  anyChanged(in.Previous, cur, addr, bpr),
		})
	}
	return rows
}

// PaletteAddress is the hardware palette; 16 big-endian words.
const (
	PaletteAddress = 0xff8240
	PaletteSize    = 32
)

// PaletteDecoder decodes the 16 hardware palette entries to "#rrggbb" text rows.
type PaletteDecoder struct {
	// STE palettes carry a 4th bit per gun in bit 3; plain ST only uses bits 0-2.
	STE bool
}

func (d PaletteDecoder) Decode(in DecodeInput) []Row {
	cur := in.Current
	rows := make([]Row, 0, PaletteSize/2)
	for addr := cur.BaseAddress(); cur.HasAddress(addr + 1); addr += 2 {
		w, _ := cur.ReadU16(addr)
		r := d.gun(uint8(w>>8) & 0xf)
		g := d.gun(uint8(w>>4) & 0xf)
		b := d.gun(uint8(w) & 0xf)
		rows = append(rows, Row{
			Address:  addr,
			RawBytes: []byte{uint8(w >> 8), uint8(w)},
			Text:     fmt.Sprintf("#%02x%02x%02x", r, g, b),
			Changed:  anyChanged(in.Previous, cur, addr, 2),
		})
	}
	return rows
}

func (d PaletteDecoder) gun(n uint8) uint8 {
	if d.STE {
		v := (n&7)<<1 | (n>>3)&1
		return v * 17
	}
	return uint8(uint16(n&7) * 255 / 7)
}

func anyChanged(prev, cur memory.Snapshot, address, n uint32) bool {
	for i := uint32(0); i < n; i++ {
		if memory.Changed(prev, cur, address+i) {
			return true
		}
	}
	return false
}
