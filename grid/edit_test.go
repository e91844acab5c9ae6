package grid

import "testing"

func TestEditByte(t *testing.T) {
	tests := []struct {
		name   string
		unit   Unit
		old    uint8
		key    rune
		want   uint8
		wantOk bool
	}{
		{name: "top nybble", unit: TopNybble, old: 0x12, key: 'a', want: 0xa2, wantOk: true},
		{name: "bottom nybble", unit: BottomNybble, old: 0x12, key: 'F', want: 0x1f, wantOk: true},
		{name: "non-hex ignored", unit: TopNybble, old: 0x12, key: 'g', want: 0x12},
		{name: "ascii", unit: ASCIIChar, old: 0x00, key: 'z', want: 0x7a, wantOk: true},
		{name: "ascii control ignored", unit: ASCIIChar, old: 0x00, key: '\t', want: 0x00},
		{name: "separator", unit: Separator, old: 0x55, key: '1', want: 0x55},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := EditByte(tt.unit, tt.old, tt.key)
			if got != tt.want || ok != tt.wantOk {
				t.Errorf("EditByte() got = %02x,%v, want %02x,%v", got, ok, tt.want, tt.wantOk)
			}
		})
	}
}

func TestChar(t *testing.T) {
	if Char(TopNybble, 0xa5) != 'a' || Char(BottomNybble, 0xa5) != '5' {
		t.Errorf("Char() nybbles wrong")
	}
	if Char(ASCIIChar, 'Q') != 'Q' || Char(ASCIIChar, 0x90) != '.' || Char(ASCIIChar, 0x01) != '.' {
		t.Errorf("Char() ascii wrong")
	}
	if Char(Separator, 0x41) != ' ' {
		t.Errorf("Char() separator wrong")
	}
}

func TestLayout_Hit(t *testing.T) {
	g := MustNew(16, 1)
	l := Layout{CharWidth: 8, LineHeight: 12, BorderX: 4, BorderY: 4, AddressChars: 10}

	c, ok := l.Hit(g, 5, l.ColumnX(3)+2, 4+12*2+1)
	if !ok || c.Row != 2 || c.Col != 3 {
		t.Errorf("Hit() got = %+v,%v, want {2 3},true", c, ok)
	}
	if _, ok := l.Hit(g, 5, 0, 20); ok {
		t.Errorf("Hit() in address gutter should fail")
	}
	if _, ok := l.Hit(g, 5, l.ColumnX(0), 4+12*5); ok {
		t.Errorf("Hit() below the last row should fail")
	}
	if _, ok := l.Hit(g, 5, l.ColumnX(g.ColumnCount()), 10); ok {
		t.Errorf("Hit() right of the last column should fail")
	}
}
