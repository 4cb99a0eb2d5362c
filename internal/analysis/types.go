// Package analysis turns a traversal result into an annotated listing.
package analysis

import (
	"fmt"
	"strings"

	"gbdis/internal/sm83"
)

// Line is one row of a listing: an instruction, a decode failure, or a label.
type Line struct {
	Addr        sm83.Addr
	Bytes       []byte
	Inst        sm83.Instruction
	Mnemonic    string
	Operands    []string
	Label       string // set on label rows only
	Err         error  // set on rows whose decoding failed
	Annotations []string
}

// IsLabel reports whether l is a label row.
func (l Line) IsLabel() bool {
	return l.Label != ""
}

func (l *Line) annotate(format string, args ...any) {
	l.Annotations = append(l.Annotations, fmt.Sprintf(format, args...))
}

// String formats the row with fixed columns. Colour is applied afterwards by
// the renderer.
func (l Line) String() string {
	if l.IsLabel() {
		if len(l.Annotations) > 0 {
			return fmt.Sprintf("%s:%-*s ; %s", l.Label, max(0, 40-len(l.Label)), "", strings.Join(l.Annotations, ", "))
		}
		return l.Label + ":"
	}

	var raw strings.Builder
	for i, b := range l.Bytes {
		if i > 0 {
			raw.WriteByte(' ')
		}
		fmt.Fprintf(&raw, "%02x", b)
	}

	mnemonic, operands := l.Mnemonic, strings.Join(l.Operands, ", ")
	annotations := l.Annotations
	if l.Err != nil {
		mnemonic, operands = "db", raw.String()
		if len(l.Bytes) > 0 {
			operands = fmt.Sprintf("$%02X", l.Bytes[0])
		}
		annotations = append([]string{l.Err.Error()}, annotations...)
	}

	base := fmt.Sprintf("    %04x  %-9s %-5s %-24s", uint32(l.Addr), raw.String(), mnemonic, operands)
	if len(annotations) > 0 {
		return fmt.Sprintf("%s ; %s", base, strings.Join(annotations, ", "))
	}
	return strings.TrimRight(base, " ")
}
