package analysis

import (
	"slices"

	"gbdis/internal/traverse"
)

// BuildListing returns one row per visited or failed address, in address
// order. image supplies the byte shown for failed rows.
func BuildListing(res *traverse.Result, image []byte) []Line {
	addrs := append(res.Addresses(), res.ErrorAddresses()...)
	slices.Sort(addrs)

	lines := make([]Line, 0, len(addrs))
	for _, pc := range addrs {
		if err, failed := res.Errors[pc]; failed {
			line := Line{Addr: pc, Err: err}
			if uint64(pc) < uint64(len(image)) {
				line.Bytes = []byte{image[pc]}
			}
			lines = append(lines, line)
			continue
		}
		inst := res.Instructions[pc]
		lines = append(lines, Line{
			Addr:     pc,
			Bytes:    inst.Bytes(),
			Inst:     inst,
			Mnemonic: inst.Mnemonic,
			Operands: inst.OperandStrings(pc),
		})
	}
	return lines
}
