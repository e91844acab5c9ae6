package views

import (
	"hrsync/grid"
	"hrsync/memory"
)

// HexDecoder renders memory pane rows over an address grid.
type HexDecoder struct {
	Grid *grid.Grid
}

func (d *HexDecoder) Decode(in DecodeInput) []Row {
	cur := in.Current
	if cur.IsEmpty() || d.Grid == nil {
		return nil
	}

	bpr := uint32(d.Grid.BytesPerRow())
	columns := d.Grid.Columns()

	rows := make([]Row, 0, (cur.Size()+bpr-1)/bpr)
	for offset := uint32(0); offset < cur.Size(); offset += bpr {
		row := Row{
			Address:  cur.BaseAddress() + offset,
			RawBytes: make([]byte, bpr),
			Units:    make([]DisplayUnit, len(columns)),
		}
		copy(row.RawBytes, cur.Slice(offset, bpr))

		for i, col := range columns {
			addr := row.Address + uint32(col.ByteOffset)
			b := row.RawBytes[col.ByteOffset]

			u := DisplayUnit{
				Char:      grid.Char(col.Unit, b),
				OverlayID: -1,
			}
			if col.Unit != grid.Separator {
				u.Changed = memory.Changed(in.Previous, cur, addr)
				u.OverlayID = overlayID(in.Symbols, addr)
			}
			row.Units[i] = u
		}

		rows = append(rows, row)
	}
	return rows
}
