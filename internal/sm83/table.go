package sm83

// operandFunc extracts one operand from the opcode and its trailing bytes.
type operandFunc func(op byte, imm []byte) (Operand, error)

// rule classifies opcodes matching pattern. size is the number of trailing
// operand bytes consumed after the opcode.
type rule struct {
	pattern  Pattern
	mnemonic string
	size     int
	flow     Flow
	operands []operandFunc
	prefix   bool                            // operand byte selects a rule of prefixTable
	check    func(op byte, imm []byte) error // rejects unmodeled operand forms
}

func newRule(pattern, mnemonic string, size int, flow Flow, operands ...operandFunc) rule {
	return rule{
		pattern:  MustPattern(pattern),
		mnemonic: mnemonic,
		size:     size,
		flow:     flow,
		operands: operands,
	}
}

func fixed(o Operand) operandFunc {
	return func(byte, []byte) (Operand, error) { return o, nil }
}

var (
	regA  = fixed(Operand{Kind: KindRegister, Name: "a"})
	regHL = fixed(Operand{Kind: KindRegister, Name: "hl"})
	regSP = fixed(Operand{Kind: KindRegister, Name: "sp"})
	memC  = fixed(Operand{Kind: KindIndirect, Name: "c"})
)

func reg8(shift uint) operandFunc {
	return func(op byte, _ []byte) (Operand, error) { return R8(op >> shift & 0x07) }
}

func reg16(op byte, _ []byte) (Operand, error)    { return R16(op >> 4 & 0x03) }
func reg16Mem(op byte, _ []byte) (Operand, error) { return R16Mem(op >> 4 & 0x03) }
func reg16Stk(op byte, _ []byte) (Operand, error) { return R16Stk(op >> 4 & 0x03) }
func cond(op byte, _ []byte) (Operand, error)     { return Cond(op >> 3 & 0x03) }

func imm8(_ byte, imm []byte) (Operand, error) {
	return Operand{Kind: KindImm8, Value: uint16(imm[0])}, nil
}

// imm16 reads the byte after the opcode as the low half.
func imm16(_ byte, imm []byte) (Operand, error) {
	return Operand{Kind: KindImm16, Value: le16(imm)}, nil
}

func addr16(_ byte, imm []byte) (Operand, error) {
	return Operand{Kind: KindAddress, Value: le16(imm)}, nil
}

func high8(_ byte, imm []byte) (Operand, error) {
	return Operand{Kind: KindHighAddress, Value: 0xFF00 | uint16(imm[0])}, nil
}

func rel8(_ byte, imm []byte) (Operand, error) {
	return Operand{Kind: KindRelative, Offset: int8(imm[0])}, nil
}

func simm8(_ byte, imm []byte) (Operand, error) {
	return Operand{Kind: KindSignedImm8, Offset: int8(imm[0])}, nil
}

func spOffset(_ byte, imm []byte) (Operand, error) {
	return Operand{Kind: KindSPOffset, Name: "sp", Offset: int8(imm[0])}, nil
}

func vector(op byte, _ []byte) (Operand, error) {
	return Operand{Kind: KindVector, Value: uint16(op & 0x38)}, nil
}

func bitIndex(op byte, _ []byte) (Operand, error) {
	return Operand{Kind: KindBit, Value: uint16(op >> 3 & 0x07)}, nil
}

func le16(imm []byte) uint16 {
	return uint16(imm[1])<<8 | uint16(imm[0])
}

// stopRule accepts only the canonical two-byte encoding $10 $00.
func stopRule() rule {
	r := newRule("00010000", "stop", 1, FlowNext)
	r.check = func(op byte, imm []byte) error {
		if imm[0] != 0x00 {
			return &UnsupportedInstructionError{
				Opcode:   op,
				Block:    0,
				Mnemonic: "stop",
				Reason:   "second byte must be $00",
			}
		}
		return nil
	}
	return r
}

func prefixRule() rule {
	r := newRule("11001011", "prefix", 1, FlowNext)
	r.prefix = true
	return r
}

// table holds the unprefixed rules by block. Inside a block, literal
// templates come first and templates with fewer wildcards precede those with
// more, so a general rule never shadows a narrower one.
var table = [4][]rule{
	// Block 0: misc, 16-bit loads and arithmetic, relative jumps.
	{
		newRule("00000000", "nop", 0, FlowNext),
		newRule("00001000", "ld", 2, FlowNext, addr16, regSP),
		newRule("00000111", "rlca", 0, FlowNext),
		newRule("00001111", "rrca", 0, FlowNext),
		newRule("00010111", "rla", 0, FlowNext),
		newRule("00011111", "rra", 0, FlowNext),
		newRule("00100111", "daa", 0, FlowNext),
		newRule("00101111", "cpl", 0, FlowNext),
		newRule("00110111", "scf", 0, FlowNext),
		newRule("00111111", "ccf", 0, FlowNext),
		newRule("00011000", "jr", 1, FlowJump, rel8),
		stopRule(),
		newRule("001..000", "jr", 1, FlowBranch, cond, rel8),
		newRule("00..0001", "ld", 2, FlowNext, reg16, imm16),
		newRule("00..0010", "ld", 0, FlowNext, reg16Mem, regA),
		newRule("00..1010", "ld", 0, FlowNext, regA, reg16Mem),
		newRule("00..0011", "inc", 0, FlowNext, reg16),
		newRule("00..1011", "dec", 0, FlowNext, reg16),
		newRule("00..1001", "add", 0, FlowNext, regHL, reg16),
		newRule("00...100", "inc", 0, FlowNext, reg8(3)),
		newRule("00...101", "dec", 0, FlowNext, reg8(3)),
		newRule("00...110", "ld", 1, FlowNext, reg8(3), imm8),
	},
	// Block 1: 8-bit register to register loads.
	{
		newRule("01110110", "halt", 0, FlowNext),
		newRule("01......", "ld", 0, FlowNext, reg8(3), reg8(0)),
	},
	// Block 2: 8-bit ALU against a register.
	{
		newRule("10000...", "add", 0, FlowNext, regA, reg8(0)),
		newRule("10001...", "adc", 0, FlowNext, regA, reg8(0)),
		newRule("10010...", "sub", 0, FlowNext, regA, reg8(0)),
		newRule("10011...", "sbc", 0, FlowNext, regA, reg8(0)),
		newRule("10100...", "and", 0, FlowNext, regA, reg8(0)),
		newRule("10101...", "xor", 0, FlowNext, regA, reg8(0)),
		newRule("10110...", "or", 0, FlowNext, regA, reg8(0)),
		newRule("10111...", "cp", 0, FlowNext, regA, reg8(0)),
	},
	// Block 3: immediates, control flow, stack, high-page loads.
	{
		newRule("11000110", "add", 1, FlowNext, regA, imm8),
		newRule("11001110", "adc", 1, FlowNext, regA, imm8),
		newRule("11010110", "sub", 1, FlowNext, regA, imm8),
		newRule("11011110", "sbc", 1, FlowNext, regA, imm8),
		newRule("11100110", "and", 1, FlowNext, regA, imm8),
		newRule("11101110", "xor", 1, FlowNext, regA, imm8),
		newRule("11110110", "or", 1, FlowNext, regA, imm8),
		newRule("11111110", "cp", 1, FlowNext, regA, imm8),
		newRule("11001001", "ret", 0, FlowReturn),
		newRule("11011001", "reti", 0, FlowReturn),
		newRule("11000011", "jp", 2, FlowJump, imm16),
		newRule("11101001", "jp", 0, FlowIndirect, regHL),
		newRule("11001101", "call", 2, FlowCall, imm16),
		prefixRule(),
		newRule("11100010", "ldh", 0, FlowNext, memC, regA),
		newRule("11100000", "ldh", 1, FlowNext, high8, regA),
		newRule("11101010", "ld", 2, FlowNext, addr16, regA),
		newRule("11110010", "ldh", 0, FlowNext, regA, memC),
		newRule("11110000", "ldh", 1, FlowNext, regA, high8),
		newRule("11111010", "ld", 2, FlowNext, regA, addr16),
		newRule("11101000", "add", 1, FlowNext, regSP, simm8),
		newRule("11111000", "ld", 1, FlowNext, regHL, spOffset),
		newRule("11111001", "ld", 0, FlowNext, regSP, regHL),
		newRule("11110011", "di", 0, FlowNext),
		newRule("11111011", "ei", 0, FlowNext),
		newRule("110..000", "ret", 0, FlowConditionalReturn, cond),
		newRule("110..010", "jp", 2, FlowBranch, cond, imm16),
		newRule("110..100", "call", 2, FlowCall, cond, imm16),
		newRule("11..0001", "pop", 0, FlowNext, reg16Stk),
		newRule("11..0101", "push", 0, FlowNext, reg16Stk),
		newRule("11...111", "rst", 0, FlowCall, vector),
	},
}

// prefixTable holds the rules for the byte following $CB, grouped the same
// way. Every one of its 256 values is defined.
var prefixTable = [4][]rule{
	{
		newRule("00000...", "rlc", 0, FlowNext, reg8(0)),
		newRule("00001...", "rrc", 0, FlowNext, reg8(0)),
		newRule("00010...", "rl", 0, FlowNext, reg8(0)),
		newRule("00011...", "rr", 0, FlowNext, reg8(0)),
		newRule("00100...", "sla", 0, FlowNext, reg8(0)),
		newRule("00101...", "sra", 0, FlowNext, reg8(0)),
		newRule("00110...", "swap", 0, FlowNext, reg8(0)),
		newRule("00111...", "srl", 0, FlowNext, reg8(0)),
	},
	{newRule("01......", "bit", 0, FlowNext, bitIndex, reg8(0))},
	{newRule("10......", "res", 0, FlowNext, bitIndex, reg8(0))},
	{newRule("11......", "set", 0, FlowNext, bitIndex, reg8(0))},
}
