package symbols

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

var ErrBadSymbolLine = errors.New("symbols: bad symbol line")

// LoadFile reads an nm-style symbol listing from path.
func LoadFile(path string) ([]Symbol, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads lines of the form "address [type] name [size]" with a hex address.
// Blank lines and lines starting with '#' or ';' are skipped.
func Parse(r io.Reader) ([]Symbol, error) {
	var syms []Symbol

	s := bufio.NewScanner(r)
	n := 0
	for s.Scan() {
		n++
		line := strings.TrimSpace(s.Text())
		if line == "" || line[0] == '#' || line[0] == ';' {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, fmt.Errorf("%w %d: %q", ErrBadSymbolLine, n, line)
		}
		addr, err := strconv.ParseUint(strings.TrimPrefix(strings.TrimPrefix(fields[0], "$"), "0x"), 16, 32)
		if err != nil {
			return nil, fmt.Errorf("%w %d: %v", ErrBadSymbolLine, n, err)
		}

		rest := fields[1:]
		// single letter nm type column:
		if len(rest) > 1 && len(rest[0]) == 1 {
			rest = rest[1:]
		}
		sym := Symbol{Name: rest[0], Address: uint32(addr)}
		if len(rest) > 1 {
			size, err := strconv.ParseUint(strings.TrimPrefix(rest[1], "0x"), 16, 32)
			if err != nil {
				return nil, fmt.Errorf("%w %d: %v", ErrBadSymbolLine, n, err)
			}
			sym.Size = uint32(size)
		}
		syms = append(syms, sym)
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return syms, nil
}
