package analysis

import (
	"errors"
	"log/slog"

	"gbdis/internal/sm83"
)

// HardwareAnnotator names memory-mapped registers and region bases accessed
// through absolute or high-page operands.
type HardwareAnnotator struct{}

func (HardwareAnnotator) Annotate(lines []Line) []Line {
	for i := range lines {
		if lines[i].IsLabel() || lines[i].Err != nil {
			continue
		}
		for _, o := range lines[i].Inst.Operands {
			if o.Kind != sm83.KindAddress && o.Kind != sm83.KindHighAddress {
				continue
			}
			name, err := sm83.SymbolicAddress(o.Value)
			if err != nil {
				if !errors.Is(err, sm83.ErrUnknownAddress) {
					slog.Debug("symbol lookup failed", "addr", o.Value, "error", err)
				}
				continue
			}
			lines[i].annotate("%s", name)
		}
	}
	return lines
}
