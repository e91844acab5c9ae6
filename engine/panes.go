package engine

import (
	"hrsync/grid"
	"hrsync/memory"
	"hrsync/views"
)

const (
	DefaultBytesPerRow = 16
	DefaultGroupSize   = 1
	DefaultRowCount    = 16

	DefaultDisasmRows = 24

	// DefaultScreenAddress is where the ST's default screen memory starts on a 1MB machine.
	DefaultScreenAddress = 0xf8000
	DefaultScreenWidth   = 20 // 16-pixel chunks
	DefaultScreenHeight  = 200
)

// PaneOptions shapes the standard set of panes.
type PaneOptions struct {
	BytesPerRow  int
	GroupSize    int
	RowCount     uint32
	Disassembler views.Disassembler
	Registers    *views.RegisterTable
	STE          bool
}

func (o *PaneOptions) defaults() {
	if o.BytesPerRow <= 0 {
		o.BytesPerRow = DefaultBytesPerRow
	}
	if o.GroupSize <= 0 {
		o.GroupSize = DefaultGroupSize
	}
	if o.RowCount == 0 {
		o.RowCount = DefaultRowCount
	}
	if o.Registers == nil {
		o.Registers = views.DefaultRegisterTable()
	}
}

// NewMemoryPane is a diffing hex view.
func NewMemoryPane(slot memory.Slot, address uint32, rowCount uint32, g *grid.Grid) *views.ViewState {
	return views.NewViewState(slot, views.Options{
		Kind:    views.KindMemory,
		Decoder: &views.HexDecoder{Grid: g},
		Grid:    g,
		Diffing: true,
		Window: views.Window{
			Address:     address,
			RowCount:    rowCount,
			BytesPerRow: uint32(g.BytesPerRow()),
		},
	})
}

// DefaultPanes builds four memory panes, the disassembly pane, the graphics bitmap and palette
// panes, and one hardware pane per register block.
func DefaultPanes(o PaneOptions) ([]*views.ViewState, error) {
	o.defaults()

	g, err := grid.New(o.BytesPerRow, o.GroupSize)
	if err != nil {
		return nil, err
	}

	panes := make([]*views.ViewState, 0, memory.SlotCount)
	for i := 0; i < memory.MemoryViewCount; i++ {
		panes = append(panes, NewMemoryPane(memory.MemoryView(i), 0, o.RowCount, g))
	}

	panes = append(panes, views.NewViewState(memory.Disassembly, views.Options{
		Kind:    views.KindDisassembly,
		Decoder: &views.DisasmDecoder{Disassembler: o.Disassembler},
		Window: views.Window{
			RowCount:    DefaultDisasmRows,
			BytesPerRow: views.MaxInstructionBytes,
		},
	}))

	panes = append(panes, views.NewViewState(memory.Graphics, views.Options{
		Kind:    views.KindGraphics,
		Decoder: views.BitmapDecoder{},
		Diffing: true,
		Window:  views.GraphicsWindow(DefaultScreenAddress, DefaultScreenWidth, DefaultScreenHeight, views.FourPlanes),
	}))

	panes = append(panes, views.NewViewState(memory.GraphicsPalette, views.Options{
		Kind:    views.KindPalette,
		Decoder: views.PaletteDecoder{STE: o.STE},
		Diffing: true,
		Window:  views.Window{Address: views.PaletteAddress, RowCount: 1, BytesPerRow: views.PaletteSize},
	}))

	for _, b := range o.Registers.Blocks {
		panes = append(panes, views.NewViewState(b.Slot, views.Options{
			Kind:    views.KindHardware,
			Decoder: &views.RegisterDecoder{Block: b},
			Diffing: true,
			Window:  b.Window(),
		}))
	}

	return panes, nil
}
