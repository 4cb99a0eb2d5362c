package analysis

import (
	"gbdis/internal/cart"
	"gbdis/internal/sm83"
)

// HeaderAnnotator marks the cartridge entry point and flags code that was
// reached inside the header data, which usually means a bad jump.
type HeaderAnnotator struct {
	Header *cart.Header
}

func (a HeaderAnnotator) Annotate(lines []Line) []Line {
	if a.Header == nil {
		return lines
	}
	for i := range lines {
		if lines[i].IsLabel() {
			continue
		}
		switch pc := lines[i].Addr; {
		case pc == sm83.Addr(cart.EntryOffset):
			lines[i].annotate("entry point of %q", a.Header.Title)
		case pc >= HeaderStart && pc < HeaderEnd:
			lines[i].annotate("inside cartridge header")
		}
	}
	return lines
}
