package analysis

import "gbdis/internal/sm83"

// ReadString reads the printable run starting at addr, stopping at a NUL,
// an unprintable byte or maxLen bytes. It fails for runs shorter than
// MinStringLength.
func ReadString(image []byte, addr sm83.Addr, maxLen int) (string, bool) {
	if uint64(addr) >= uint64(len(image)) {
		return "", false
	}
	end := min(len(image), int(addr)+maxLen)
	n := 0
	for _, c := range image[addr:end] {
		if c < 0x20 || c >= 0x7F {
			break
		}
		n++
	}
	if n < MinStringLength {
		return "", false
	}
	return string(image[addr : int(addr)+n]), true
}

// StringAnnotator shows the text a 16-bit immediate points at when it
// addresses printable bytes in ROM.
type StringAnnotator struct {
	Image []byte
}

func (a StringAnnotator) Annotate(lines []Line) []Line {
	for i := range lines {
		line := &lines[i]
		if line.IsLabel() || line.Err != nil || line.Inst.Flow != sm83.FlowNext {
			continue
		}
		for _, o := range line.Inst.Operands {
			if o.Kind != sm83.KindImm16 || o.Value >= 0x8000 {
				continue
			}
			if s, ok := ReadString(a.Image, sm83.Addr(o.Value), MaxStringLength); ok {
				line.annotate("%q", s)
			}
		}
	}
	return lines
}
