package views

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"hrsync/memory"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

type Register struct {
	Name   string `yaml:"name"`
	Offset uint32 `yaml:"offset"`
	Size   uint32 `yaml:"size"`
}

// RegisterBlock is one contiguous hardware area fetched through its own slot.
type RegisterBlock struct {
	SlotName  string     `yaml:"slot"`
	Name      string     `yaml:"name"`
	Address   uint32     `yaml:"address"`
	Size      uint32     `yaml:"size"`
	Registers []Register `yaml:"registers"`

	Slot memory.Slot `yaml:"-"`
}

// Window fetches the whole block as a single row.
func (b *RegisterBlock) Window() Window {
	return Window{Address: b.Address, RowCount: 1, BytesPerRow: b.Size}
}

type RegisterTable struct {
	Blocks []*RegisterBlock `yaml:"blocks"`
}

var ErrBadRegisterTable = errors.New("views: bad register table")

//go:embed registers.yaml
var defaultRegisters []byte

// DefaultRegisterTable is the built-in MMU/Video/MFP table.
func DefaultRegisterTable() *RegisterTable {
	t, err := ParseRegisterTable(bytes.NewReader(defaultRegisters))
	if err != nil {
		panic(err)
	}
	return t
}

// LoadRegisterTable reads a YAML register table from path.
func LoadRegisterTable(path string) (*RegisterTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseRegisterTable(f)
}

func ParseRegisterTable(r io.Reader) (*RegisterTable, error) {
	t := &RegisterTable{}
	if err := yaml.NewDecoder(r).Decode(t); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadRegisterTable, err)
	}

	seen := make(map[memory.Slot]bool)
	for _, b := range t.Blocks {
		slot, ok := memory.ParseSlot(b.SlotName)
		if !ok {
			return nil, fmt.Errorf("%w: block %q: unknown slot %q", ErrBadRegisterTable, b.Name, b.SlotName)
		}
		if seen[slot] {
			return nil, fmt.Errorf("%w: block %q: slot %q used twice", ErrBadRegisterTable, b.Name, b.SlotName)
		}
		seen[slot] = true
		b.Slot = slot

		for _, reg := range b.Registers {
			if reg.Size == 0 || reg.Size > 4 || reg.Offset+reg.Size > b.Size {
				return nil, fmt.Errorf("%w: register %s.%s outside block", ErrBadRegisterTable, b.Name, reg.Name)
			}
		}
	}
	return t, nil
}

// Block finds the block fetched through slot.
func (t *RegisterTable) Block(slot memory.Slot) (*RegisterBlock, bool) {
	for _, b := range t.Blocks {
		if b.Slot == slot {
			return b, true
		}
	}
	return nil, false
}

// RegisterDecoder produces one "NAME $addr = $value" row per register of a block.
type RegisterDecoder struct {
	Block *RegisterBlock
}

func (d *RegisterDecoder) Decode(in DecodeInput) []Row {
	cur := in.Current
	if cur.IsEmpty() {
		return nil
	}

	rows := make([]Row, 0, len(d.Block.Registers))
	for _, reg := range d.Block.Registers {
		addr := d.Block.Address + reg.Offset
		raw := make([]byte, 0, reg.Size)
		value := uint32(0)
		ok := true
		for i := uint32(0); i < reg.Size; i++ {
			b, has := cur.ByteAt(addr + i)
			if !has {
				ok = false
				break
			}
			raw = append(raw, b)
			value = value<<8 | uint32(b)
		}
		if !ok {
			continue
		}

		rows = append(rows, Row{
			Address:  addr,
			RawBytes: raw,
			Text:     fmt.Sprintf("%-20s $%06x = $%0*x", reg.Name, addr, int(reg.Size*2), value),
			Changed:  anyChanged(in.Previous, cur, addr, reg.Size),
		})
	}
	return rows
}
