package symbols

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []Symbol
		wantErr bool
	}{
		{
			name:  "nm with type",
			input: "00001000 T start\n0000400c D symbol_foo\n",
			want:  []Symbol{{Name: "start", Address: 0x1000}, {Name: "symbol_foo", Address: 0x400c}},
		},
		{
			name:  "prefixes and size",
			input: "# comment\n\n$78000 screen 7d00\n0x10 vec\n",
			want:  []Symbol{{Name: "screen", Address: 0x78000, Size: 0x7d00}, {Name: "vec", Address: 0x10}},
		},
		{name: "missing name", input: "1000\n", wantErr: true},
		{name: "bad address", input: "xyz start\n", wantErr: true},
		{name: "bad size", input: "1000 start big\n", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(strings.NewReader(tt.input))
			if tt.wantErr {
				if !errors.Is(err, ErrBadSymbolLine) {
					t.Errorf("Parse() error = %v, want %v", err, ErrBadSymbolLine)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Parse() got = %+v, want %+v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Parse()[%d] got = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prog.sym")
	if err := os.WriteFile(path, []byte("00001000 T start\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	syms, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	tbl := NewTable(syms...)
	if s, ok := tbl.Find("START"); !ok || s.Address != 0x1000 {
		t.Errorf("Find() got = %+v, %v", s, ok)
	}
	if _, err = LoadFile(filepath.Join(t.TempDir(), "missing.sym")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("LoadFile() missing error = %v", err)
	}
}
