package sm83

import (
	"fmt"
	"strings"
)

// Addr is an address in the program image. It is wider than the 16-bit bus
// so that pc+length never wraps during traversal arithmetic.
type Addr uint32

// MaxAddr is the last address on the CPU bus. Code above it is only
// reachable through bank switching, which traversal does not model.
const MaxAddr Addr = 0xFFFF

// Flow classifies how an instruction transfers control.
type Flow uint8

const (
	FlowNext              Flow = iota // falls through
	FlowJump                          // jp n16, jr e8
	FlowBranch                        // jp cc,n16, jr cc,e8
	FlowCall                          // call, call cc, rst
	FlowReturn                        // ret, reti
	FlowConditionalReturn             // ret cc
	FlowIndirect                      // jp hl
)

// Instruction is a decoded instruction. It depends only on the bytes it was
// decoded from, never on its address.
type Instruction struct {
	Opcode   byte // for prefixed instructions, the byte after $CB
	Prefixed bool
	Mnemonic string
	Operands []Operand
	Length   int
	Flow     Flow
	Raw      [3]byte // encoded bytes; only the first Length are meaningful
}

// Bytes returns the encoded bytes.
func (i Instruction) Bytes() []byte {
	return i.Raw[:i.Length]
}

// String renders the instruction without resolving relative operands.
func (i Instruction) String() string {
	return i.render(i.operandStrings(func(o Operand) string { return o.String() }))
}

// Format renders the instruction as if located at pc, so jr displacements
// show their absolute target.
func (i Instruction) Format(pc Addr) string {
	return i.render(i.OperandStrings(pc))
}

// OperandStrings renders each operand as if the instruction were located at pc.
func (i Instruction) OperandStrings(pc Addr) []string {
	return i.operandStrings(func(o Operand) string {
		if o.Kind == KindRelative {
			return fmt.Sprintf("$%04X", uint16(relativeTarget(pc, i.Length, o.Offset)))
		}
		return o.String()
	})
}

func (i Instruction) operandStrings(operand func(Operand) string) []string {
	if len(i.Operands) == 0 {
		return nil
	}
	parts := make([]string, len(i.Operands))
	for idx, o := range i.Operands {
		parts[idx] = operand(o)
	}
	return parts
}

func (i Instruction) render(operands []string) string {
	if len(operands) == 0 {
		return i.Mnemonic
	}
	return i.Mnemonic + " " + strings.Join(operands, ", ")
}

// EffectKind is the statically known shape of an instruction's successors.
type EffectKind uint8

const (
	Sequential    EffectKind = iota // Next only
	Unconditional                   // Target only
	Conditional                     // Target and Next
	Call                            // Target and the return address Next
	Terminal                        // no statically known successor
)

func (k EffectKind) String() string {
	switch k {
	case Sequential:
		return "sequential"
	case Unconditional:
		return "unconditional"
	case Conditional:
		return "conditional"
	case Call:
		return "call"
	case Terminal:
		return "terminal"
	}
	return fmt.Sprintf("EffectKind(%d)", uint8(k))
}

// Effect is the control-flow effect of an instruction at a given address.
type Effect struct {
	Kind   EffectKind
	Target Addr
	Next   Addr
}

// Successors returns the addresses control may reach next.
func (e Effect) Successors() []Addr {
	switch e.Kind {
	case Sequential:
		return []Addr{e.Next}
	case Unconditional:
		return []Addr{e.Target}
	case Conditional, Call:
		if e.Target == e.Next {
			return []Addr{e.Next}
		}
		return []Addr{e.Target, e.Next}
	}
	return nil
}

// Effect computes the control-flow effect of i located at pc.
func (i Instruction) Effect(pc Addr) Effect {
	next := pc + Addr(i.Length)
	switch i.Flow {
	case FlowJump:
		return Effect{Kind: Unconditional, Target: i.target(pc), Next: next}
	case FlowBranch:
		return Effect{Kind: Conditional, Target: i.target(pc), Next: next}
	case FlowCall:
		return Effect{Kind: Call, Target: i.target(pc), Next: next}
	case FlowReturn, FlowIndirect:
		return Effect{Kind: Terminal, Next: next}
	}
	// FlowNext and FlowConditionalReturn only continue in line.
	return Effect{Kind: Sequential, Next: next}
}

func (i Instruction) target(pc Addr) Addr {
	for _, o := range i.Operands {
		switch o.Kind {
		case KindImm16, KindVector:
			return Addr(o.Value)
		case KindRelative:
			return relativeTarget(pc, i.Length, o.Offset)
		}
	}
	return 0
}

// relativeTarget wraps within the 16-bit address space like the CPU does.
func relativeTarget(pc Addr, length int, offset int8) Addr {
	return Addr(uint16(int32(pc) + int32(length) + int32(offset)))
}
