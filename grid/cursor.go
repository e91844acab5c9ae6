package grid

type Move int

const (
	MoveLeft Move = iota
	MoveRight
	MoveUp
	MoveDown
	MovePageUp
	MovePageDown
)

var moveNames = map[string]Move{
	"left":     MoveLeft,
	"right":    MoveRight,
	"up":       MoveUp,
	"down":     MoveDown,
	"pageup":   MovePageUp,
	"pagedown": MovePageDown,
}

// ParseMove accepts "left", "right", "up", "down", "pageup" and "pagedown".
func ParseMove(s string) (Move, bool) {
	m, ok := moveNames[s]
	return m, ok
}

type Cursor struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Navigate moves the cursor within rowCount buffered rows.
// When the cursor is already on the edge row it stays put and scroll reports how many rows the
// window would have to shift (negative is towards lower addresses); scroll is 0 otherwise.
func (g *Grid) Navigate(c Cursor, rowCount int, m Move) (next Cursor, scroll int) {
	if rowCount < 1 {
		rowCount = 1
	}
	next = c
	last := rowCount - 1

	switch m {
	case MoveLeft:
		next.Col = g.ClampColumn(c.Col - 1)
	case MoveRight:
		next.Col = g.ClampColumn(c.Col + 1)
	case MoveUp:
		if c.Row > 0 {
			next.Row = c.Row - 1
		} else {
			scroll = -1
		}
	case MoveDown:
		if c.Row < last {
			next.Row = c.Row + 1
		} else {
			scroll = 1
		}
	case MovePageUp:
		if c.Row > 0 {
			next.Row = 0
		} else {
			scroll = -rowCount
		}
	case MovePageDown:
		if c.Row < last {
			next.Row = last
		} else {
			scroll = rowCount
		}
	}

	return
}

// Clamp keeps the cursor inside rowCount rows and the grid's columns.
func (g *Grid) Clamp(c Cursor, rowCount int) Cursor {
	if c.Row >= rowCount {
		c.Row = rowCount - 1
	}
	if c.Row < 0 {
		c.Row = 0
	}
	c.Col = g.ClampColumn(c.Col)
	return c
}

// Shift moves address by rows*bytesPerRow, clamping at 0 and at the top of the address space.
func Shift(address uint32, rows int, bytesPerRow int) uint32 {
	delta := int64(rows) * int64(bytesPerRow)
	n := int64(address) + delta
	if n < 0 {
		return 0
	}
	if n > 0xffffffff {
		return 0xffffffff
	}
	return uint32(n)
}
