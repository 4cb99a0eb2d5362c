// Package sm83 decodes Game Boy (LR35902/SM83) machine instructions.
// Opcodes are classified by an ordered table of bit-pattern rules grouped by
// block number (the top two bits of the opcode).
package sm83

import (
	"fmt"
	"math/bits"
)

// Pattern is an 8-bit opcode template. Each of its eight positions is '0',
// '1' or '.' (wildcard). Position 0 corresponds to bit 7.
type Pattern struct {
	text  string
	mask  byte // 1 where the template holds a literal bit
	value byte // literal bits, zero under wildcards
}

// ParsePattern parses a template such as "00..0001".
func ParsePattern(s string) (Pattern, error) {
	if len(s) != 8 {
		return Pattern{}, fmt.Errorf("pattern %q: want 8 positions, got %d", s, len(s))
	}
	p := Pattern{text: s}
	for idx := 0; idx < 8; idx++ {
		bit := byte(1) << (7 - idx)
		switch s[idx] {
		case '.':
		case '0':
			p.mask |= bit
		case '1':
			p.mask |= bit
			p.value |= bit
		default:
			return Pattern{}, fmt.Errorf("pattern %q: invalid position %d (%q)", s, idx, s[idx])
		}
	}
	return p, nil
}

// MustPattern is like ParsePattern but panics on a malformed template.
// It is meant for the static rule tables.
func MustPattern(s string) Pattern {
	p, err := ParsePattern(s)
	if err != nil {
		panic(err)
	}
	return p
}

// Match reports whether every literal position of p equals the corresponding
// bit of b.
func (p Pattern) Match(b byte) bool {
	return b&p.mask == p.value
}

// Wildcards returns the number of wildcard positions.
func (p Pattern) Wildcards() int {
	return 8 - bits.OnesCount8(p.mask)
}

// Expand returns every byte value matched by p in ascending order.
func (p Pattern) Expand() []byte {
	out := make([]byte, 0, 1<<p.Wildcards())
	for v := 0; v < 256; v++ {
		if p.Match(byte(v)) {
			out = append(out, byte(v))
		}
	}
	return out
}

func (p Pattern) String() string {
	return p.text
}
