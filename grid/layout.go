package grid

// Layout carries the font metrics a renderer supplies so that pixel positions can be mapped back
// to grid cells. The grid owns no fonts itself.
type Layout struct {
	CharWidth  int
	LineHeight int
	BorderX    int
	BorderY    int

	// AddressChars is the width of the address gutter printed before column 0.
	AddressChars int
}

// RowAt maps a y pixel coordinate to a row index.
func (l Layout) RowAt(y int) int {
	if l.LineHeight <= 0 {
		return 0
	}
	return (y - l.BorderY) / l.LineHeight
}

// ColumnX is the left pixel of a display column.
func (l Layout) ColumnX(col int) int {
	return l.BorderX + (l.AddressChars+col)*l.CharWidth
}

// Hit maps a pixel to a (row, column) cell; ok is false outside the populated area.
func (l Layout) Hit(g *Grid, rowCount int, x, y int) (c Cursor, ok bool) {
	if l.CharWidth <= 0 || y < l.BorderY {
		return Cursor{}, false
	}
	row := l.RowAt(y)
	if row < 0 || row >= rowCount {
		return Cursor{}, false
	}
	rel := x - l.ColumnX(0)
	if rel < 0 {
		return Cursor{}, false
	}
	col := rel / l.CharWidth
	if col >= g.ColumnCount() {
		return Cursor{}, false
	}
	return Cursor{Row: row, Col: col}, true
}
