package sm83

import "fmt"

// OperandKind classifies a decoded operand.
type OperandKind uint8

const (
	KindRegister    OperandKind = iota // a, bc, sp
	KindIndirect                       // [hl], [bc], [hl+], [c]
	KindCondition                      // nz, z, nc, c
	KindImm8                           // n8
	KindImm16                          // n16, also jump and call targets
	KindAddress                        // [n16]
	KindHighAddress                    // [$FF00+n8]; Value holds the full address
	KindRelative                       // e8 displacement of jr
	KindSPOffset                       // sp+e8
	KindSignedImm8                     // e8 of add sp
	KindBit                            // bit index of bit/res/set
	KindVector                         // rst target
)

// Operand is one symbolic operand of an Instruction.
type Operand struct {
	Kind   OperandKind
	Name   string // register or condition name
	Value  uint16 // immediate, address, bit index or vector
	Offset int8   // signed displacement for KindRelative, KindSPOffset and KindSignedImm8
}

// String renders the operand in a position independent form. Relative
// displacements are shown signed; Instruction.Format resolves them.
func (o Operand) String() string {
	switch o.Kind {
	case KindRegister, KindCondition:
		return o.Name
	case KindIndirect:
		return "[" + o.Name + "]"
	case KindImm8:
		return fmt.Sprintf("$%02X", o.Value)
	case KindImm16:
		return fmt.Sprintf("$%04X", o.Value)
	case KindAddress, KindHighAddress:
		return fmt.Sprintf("[$%04X]", o.Value)
	case KindRelative, KindSignedImm8:
		return fmt.Sprintf("%+d", o.Offset)
	case KindSPOffset:
		return fmt.Sprintf("sp%+d", o.Offset)
	case KindBit:
		return fmt.Sprintf("%d", o.Value)
	case KindVector:
		return fmt.Sprintf("$%02X", o.Value)
	}
	return "?"
}

var (
	r8Names     = [8]string{"b", "c", "d", "e", "h", "l", "hl", "a"}
	r16Names    = [4]string{"bc", "de", "hl", "sp"}
	r16MemNames = [4]string{"bc", "de", "hl+", "hl-"}
	r16StkNames = [4]string{"bc", "de", "hl", "af"}
	condNames   = [4]string{"nz", "z", "nc", "c"}
)

// R8 decodes a 3-bit register field. Code 6 is the byte addressed by HL and
// is returned as an indirect operand, never as the register pair.
func R8(code byte) (Operand, error) {
	if code > 7 {
		return Operand{}, &InvalidOperandCodeError{Decoder: "r8", Code: code}
	}
	if code == 6 {
		return Operand{Kind: KindIndirect, Name: r8Names[code]}, nil
	}
	return Operand{Kind: KindRegister, Name: r8Names[code]}, nil
}

// R16 decodes a 2-bit register pair field.
func R16(code byte) (Operand, error) {
	if code > 3 {
		return Operand{}, &InvalidOperandCodeError{Decoder: "r16", Code: code}
	}
	return Operand{Kind: KindRegister, Name: r16Names[code]}, nil
}

// R16Mem decodes a 2-bit memory pointer field. Codes 2 and 3 address through
// HL with post-increment and post-decrement.
func R16Mem(code byte) (Operand, error) {
	if code > 3 {
		return Operand{}, &InvalidOperandCodeError{Decoder: "r16mem", Code: code}
	}
	return Operand{Kind: KindIndirect, Name: r16MemNames[code]}, nil
}

// R16Stk decodes the register pair field of push and pop.
func R16Stk(code byte) (Operand, error) {
	if code > 3 {
		return Operand{}, &InvalidOperandCodeError{Decoder: "r16stk", Code: code}
	}
	return Operand{Kind: KindRegister, Name: r16StkNames[code]}, nil
}

// Cond decodes a 2-bit branch condition: zero clear, zero set, carry clear,
// carry set.
func Cond(code byte) (Operand, error) {
	if code > 3 {
		return Operand{}, &InvalidOperandCodeError{Decoder: "cond", Code: code}
	}
	return Operand{Kind: KindCondition, Name: condNames[code]}, nil
}
