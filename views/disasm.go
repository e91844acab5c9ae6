package views

import "fmt"

// Disassembler decodes one instruction at address from data. The instruction tables live
// outside this module; length must be at least 1 when data is not empty.
type Disassembler interface {
	Disassemble(data []byte, address uint32) (length int, text string)
}

// WordDisassembler is the fallback disassembler that emits one "dc.w" per 16-bit word.
type WordDisassembler struct{}

func (WordDisassembler) Disassemble(data []byte, _ uint32) (int, string) {
	switch len(data) {
	case 0:
		return 0, ""
	case 1:
		return 1, fmt.Sprintf("dc.b $%02x", data[0])
	}
	return 2, fmt.Sprintf("dc.w $%02x%02x", data[0], data[1])
}

// MaxInstructionBytes is the longest 68000 instruction; a disassembly window fetches this many
// bytes per row so that every requested row can be decoded.
const MaxInstructionBytes = 10

// DisasmDecoder produces one row per decoded instruction, up to the window's row count.
type DisasmDecoder struct {
	Disassembler Disassembler
}

func (d *DisasmDecoder) Decode(in DecodeInput) []Row {
	cur := in.Current
	if cur.IsEmpty() {
		return nil
	}

	dis := d.Disassembler
	if dis == nil {
		dis = WordDisassembler{}
	}

	n := in.Window.RowCount
	if n > cur.Size() {
		n = cur.Size()
	}
	rows := make([]Row, 0, n)
	offset := uint32(0)
	for uint32(len(rows)) < in.Window.RowCount && offset < cur.Size() {
		addr := cur.BaseAddress() + offset
		data := cur.Slice(offset, MaxInstructionBytes)
		n, text := dis.Disassemble(data, addr)
		if n <= 0 {
			break
		}

		raw := make([]byte, n)
		copy(raw, data)

		text = labelFor(in.Symbols, addr) + text
		rows = append(rows, Row{
			Address:  addr,
			RawBytes: raw,
			Text:     text,
		})
		offset += uint32(n)
	}
	return rows
}

func labelFor(lookup SymbolLookup, address uint32) string {
	if lookup == nil {
		return ""
	}
	sym, ok := lookup.FindLowerOrEqual(address)
	if !ok || sym.Address != address {
		return ""
	}
	return sym.Name + ": "
}
