package grid

// EditByte computes the byte that results from typing key over a column of the given unit.
// Nybble columns accept hex digits only; ASCII columns accept printable characters.
func EditByte(unit Unit, old uint8, key rune) (uint8, bool) {
	switch unit {
	case TopNybble:
		v, ok := hexValue(key)
		if !ok {
			return old, false
		}
		return old&0x0f | v<<4, true
	case BottomNybble:
		v, ok := hexValue(key)
		if !ok {
			return old, false
		}
		return old&0xf0 | v, true
	case ASCIIChar:
		if key < 32 || key > 0xff {
			return old, false
		}
		return uint8(key), true
	}
	return old, false
}

func hexValue(key rune) (uint8, bool) {
	switch {
	case key >= '0' && key <= '9':
		return uint8(key - '0'), true
	case key >= 'a' && key <= 'f':
		return uint8(key-'a') + 10, true
	case key >= 'A' && key <= 'F':
		return uint8(key-'A') + 10, true
	}
	return 0, false
}

const toHex = "0123456789abcdef"

// Char renders one column of byte b.
func Char(unit Unit, b uint8) byte {
	switch unit {
	case TopNybble:
		return toHex[b>>4]
	case BottomNybble:
		return toHex[b&0xf]
	case ASCIIChar:
		if b >= 32 && b < 128 {
			return b
		}
		return '.'
	}
	return ' '
}
