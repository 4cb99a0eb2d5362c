package sm83

// PrefixOpcode introduces the second opcode table.
const PrefixOpcode = 0xCB

// Block returns the encoding block of an opcode: its top two bits.
func Block(op byte) int {
	return int(op >> 6)
}

// lookup returns the first rule of rules matching op.
func lookup(rules []rule, op byte) (rule, bool) {
	for _, r := range rules {
		if r.pattern.Match(op) {
			return r, true
		}
	}
	return rule{}, false
}

// DecodeInstruction decodes the instruction starting at pos. It reads one to
// three bytes and never reads outside image.
func DecodeInstruction(image []byte, pos Addr) (Instruction, error) {
	if uint64(pos) >= uint64(len(image)) {
		return Instruction{}, &TruncatedInstructionError{Pos: pos, Need: 1, Size: len(image)}
	}
	op := image[pos]
	block := Block(op)
	r, ok := lookup(table[block], op)
	if !ok {
		return Instruction{}, &UnknownOpcodeError{Opcode: op, Block: block}
	}

	imm, err := operandBytes(image, pos, 1+r.size)
	if err != nil {
		return Instruction{}, err
	}
	if r.prefix {
		return decodePrefixed(imm[0])
	}
	inst, err := build(r, op, imm)
	if err != nil {
		return Instruction{}, err
	}
	inst.Raw[0] = op
	copy(inst.Raw[1:], imm)
	inst.Length = 1 + r.size
	return inst, nil
}

func decodePrefixed(op byte) (Instruction, error) {
	block := Block(op)
	r, ok := lookup(prefixTable[block], op)
	if !ok {
		return Instruction{}, &UnknownOpcodeError{Opcode: op, Block: block, Prefixed: true}
	}
	inst, err := build(r, op, nil)
	if err != nil {
		return Instruction{}, err
	}
	inst.Prefixed = true
	inst.Raw[0] = PrefixOpcode
	inst.Raw[1] = op
	inst.Length = 2
	return inst, nil
}

// operandBytes returns the bytes following the opcode at pos for an encoding
// of n bytes in total.
func operandBytes(image []byte, pos Addr, n int) ([]byte, error) {
	end := uint64(pos) + uint64(n)
	if end > uint64(len(image)) {
		return nil, &TruncatedInstructionError{Pos: pos, Need: n, Size: len(image)}
	}
	return image[uint64(pos)+1 : end], nil
}

func build(r rule, op byte, imm []byte) (Instruction, error) {
	if r.check != nil {
		if err := r.check(op, imm); err != nil {
			return Instruction{}, err
		}
	}
	inst := Instruction{
		Opcode:   op,
		Mnemonic: r.mnemonic,
		Flow:     r.flow,
	}
	if len(r.operands) > 0 {
		inst.Operands = make([]Operand, 0, len(r.operands))
	}
	for _, decode := range r.operands {
		o, err := decode(op, imm)
		if err != nil {
			return Instruction{}, err
		}
		inst.Operands = append(inst.Operands, o)
	}
	return inst, nil
}
