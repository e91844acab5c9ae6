package views

import (
	"hrsync/memory"
	"hrsync/symbols"
)

// SymbolLookup is the part of the symbol table that row decoding needs.
type SymbolLookup interface {
	FindLowerOrEqual(address uint32) (symbols.Symbol, bool)
}

// DecodeInput is everything a Decoder may look at when producing rows.
type DecodeInput struct {
	Window   Window
	Current  memory.Snapshot
	Previous memory.Snapshot
	Symbols  SymbolLookup
}

// Decoder turns a view's snapshot into display rows. Each view kind plugs in its own.
type Decoder interface {
	Decode(in DecodeInput) []Row
}

type DecoderFunc func(in DecodeInput) []Row

func (f DecoderFunc) Decode(in DecodeInput) []Row { return f(in) }

func overlayID(lookup SymbolLookup, address uint32) int {
	if lookup == nil {
		return -1
	}
	sym, ok := lookup.FindLowerOrEqual(address)
	if !ok {
		return -1
	}
	return sym.Index
}
