package symbols

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrEmptyExpression = errors.New("symbols: empty expression")
	ErrUnknownTerm     = errors.New("symbols: unknown symbol or register")
	ErrBadNumber       = errors.New("symbols: bad number")
)

// RegisterSource supplies current CPU register values by name, e.g. "a0" or "pc".
type RegisterSource interface {
	Register(name string) (uint32, bool)
}

// Evaluator resolves address expressions such as "$4000", "symbol_foo+4" or "a0-$10".
// Terms are numbers ($hex, 0xhex, decimal), register names and symbol names joined by + and -.
type Evaluator struct {
	Symbols   *Table
	Registers RegisterSource
}

// Evaluate implements the expression evaluator contract used by locked views.
func (e *Evaluator) Evaluate(expression string) (uint32, bool) {
	v, err := e.Parse(expression)
	return v, err == nil
}

// Parse evaluates expression and reports why it failed.
func (e *Evaluator) Parse(expression string) (uint32, error) {
	s := strings.TrimSpace(expression)
	if s == "" {
		return 0, ErrEmptyExpression
	}

	var total uint32
	sign := uint32(1)
	start := 0
	for i := 0; i <= len(s); i++ {
		if i < len(s) && s[i] != '+' && s[i] != '-' {
			continue
		}
		term := strings.TrimSpace(s[start:i])
		// a leading sign has an empty term before it:
		if term == "" && start == 0 && i < len(s) {
			if s[i] == '-' {
				sign = ^uint32(0)
			}
			start = i + 1
			continue
		}
		v, err := e.term(term)
		if err != nil {
			return 0, err
		}
		total += sign * v
		if i < len(s) {
			if s[i] == '-' {
				sign = ^uint32(0)
			} else {
				sign = 1
			}
		}
		start = i + 1
	}
	return total, nil
}

func (e *Evaluator) term(t string) (uint32, error) {
	if t == "" {
		return 0, ErrEmptyExpression
	}

	switch {
	case t[0] == '$':
		return parseUint(t[1:], 16)
	case strings.HasPrefix(t, "0x") || strings.HasPrefix(t, "0X"):
		return parseUint(t[2:], 16)
	case t[0] >= '0' && t[0] <= '9':
		return parseUint(t, 10)
	}

	if e.Registers != nil {
		if v, ok := e.Registers.Register(strings.ToLower(t)); ok {
			return v, nil
		}
	}
	if e.Symbols != nil {
		if sym, ok := e.Symbols.Find(t); ok {
			return sym.Address, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownTerm, t)
}

func parseUint(s string, base int) (uint32, error) {
	v, err := strconv.ParseUint(s, base, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadNumber, s)
	}
	return uint32(v), nil
}

// Registers is a simple RegisterSource backed by a map.
type Registers map[string]uint32

func (r Registers) Register(name string) (uint32, bool) {
	v, ok := r[name]
	return v, ok
}
