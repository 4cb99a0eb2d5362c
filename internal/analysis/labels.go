package analysis

import (
	"fmt"
	"slices"
	"strings"

	"gbdis/internal/sm83"
	"gbdis/internal/traverse"
)

// LabelAnnotator names every address that control reaches other than by
// falling through. Call targets become sub_XXXX, jump targets loc_XXXX and
// seeded vectors take their vector name. A label row is inserted before each
// named row and jump operands are rewritten to the label.
type LabelAnnotator struct {
	Result *traverse.Result
}

// Labels computes the label of every addressed target in the result,
// whether or not it decoded.
func (a LabelAnnotator) Labels() map[sm83.Addr]string {
	labels := make(map[sm83.Addr]string)
	for _, pc := range a.Result.Entries {
		if name, ok := vectorNames[pc]; ok {
			labels[pc] = name
		} else {
			labels[pc] = fmt.Sprintf("entry_%04x", uint32(pc))
		}
	}
	for _, pc := range a.Result.Addresses() {
		eff := a.Result.Instructions[pc].Effect(pc)
		switch eff.Kind {
		case sm83.Call:
			if _, named := labels[eff.Target]; !named || strings.HasPrefix(labels[eff.Target], "loc_") {
				if name, ok := vectorNames[eff.Target]; ok {
					labels[eff.Target] = name
				} else {
					labels[eff.Target] = fmt.Sprintf("sub_%04x", uint32(eff.Target))
				}
			}
		case sm83.Unconditional, sm83.Conditional:
			if _, named := labels[eff.Target]; !named {
				labels[eff.Target] = fmt.Sprintf("loc_%04x", uint32(eff.Target))
			}
		}
	}
	return labels
}

// xrefs maps each target to the sorted addresses that jump or call to it.
func (a LabelAnnotator) xrefs() map[sm83.Addr][]sm83.Addr {
	refs := make(map[sm83.Addr][]sm83.Addr)
	for _, pc := range a.Result.Addresses() {
		eff := a.Result.Instructions[pc].Effect(pc)
		switch eff.Kind {
		case sm83.Call, sm83.Unconditional, sm83.Conditional:
			refs[eff.Target] = append(refs[eff.Target], pc)
		}
	}
	return refs
}

func (a LabelAnnotator) Annotate(lines []Line) []Line {
	labels := a.Labels()
	refs := a.xrefs()

	out := make([]Line, 0, len(lines)+len(labels))
	for _, line := range lines {
		if line.IsLabel() {
			out = append(out, line)
			continue
		}
		if name, ok := labels[line.Addr]; ok {
			label := Line{Addr: line.Addr, Label: name}
			if from := refs[line.Addr]; len(from) > 0 {
				label.annotate("xref %s", formatXrefs(from))
			}
			out = append(out, label)
		}
		if line.Err == nil {
			a.rewriteTarget(&line, labels)
		}
		out = append(out, line)
	}
	return out
}

func (a LabelAnnotator) rewriteTarget(line *Line, labels map[sm83.Addr]string) {
	eff := line.Inst.Effect(line.Addr)
	switch eff.Kind {
	case sm83.Call, sm83.Unconditional, sm83.Conditional:
	default:
		return
	}
	name, ok := labels[eff.Target]
	if !ok {
		return
	}
	for i, o := range line.Inst.Operands {
		switch o.Kind {
		case sm83.KindImm16, sm83.KindRelative, sm83.KindVector:
			if i < len(line.Operands) {
				line.Operands = slices.Clone(line.Operands)
				line.Operands[i] = name
			}
			return
		}
	}
}

func formatXrefs(from []sm83.Addr) string {
	slices.Sort(from)
	parts := make([]string, 0, MaxXrefs+1)
	for i, pc := range from {
		if i == MaxXrefs {
			parts = append(parts, fmt.Sprintf("+%d", len(from)-MaxXrefs))
			break
		}
		parts = append(parts, fmt.Sprintf("$%04X", uint32(pc)))
	}
	return strings.Join(parts, " ")
}
