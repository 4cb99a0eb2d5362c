package sm83

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is checks against the typed decode errors.
var (
	ErrUnknownOpcode          = errors.New("unknown opcode")
	ErrUnsupportedInstruction = errors.New("unsupported instruction")
	ErrInvalidOperandCode     = errors.New("invalid operand code")
	ErrTruncatedInstruction   = errors.New("truncated instruction")
	ErrUnknownAddress         = errors.New("unknown address")
)

// UnknownOpcodeError reports an opcode that matches no rule of its block.
type UnknownOpcodeError struct {
	Opcode   byte
	Block    int
	Prefixed bool
}

func (e *UnknownOpcodeError) Error() string {
	if e.Prefixed {
		return fmt.Sprintf("unknown opcode $CB $%02X (block %d)", e.Opcode, e.Block)
	}
	return fmt.Sprintf("unknown opcode $%02X (block %d)", e.Opcode, e.Block)
}

func (e *UnknownOpcodeError) Unwrap() error { return ErrUnknownOpcode }

// UnsupportedInstructionError reports a recognised opcode whose operand form
// is not modeled.
type UnsupportedInstructionError struct {
	Opcode   byte
	Block    int
	Mnemonic string
	Reason   string
}

func (e *UnsupportedInstructionError) Error() string {
	return fmt.Sprintf("unsupported instruction %s (opcode $%02X, block %d): %s",
		e.Mnemonic, e.Opcode, e.Block, e.Reason)
}

func (e *UnsupportedInstructionError) Unwrap() error { return ErrUnsupportedInstruction }

// InvalidOperandCodeError reports an operand sub-field outside the domain of
// its decoder. It means a rule was paired with the wrong decoder.
type InvalidOperandCodeError struct {
	Decoder string
	Code    byte
}

func (e *InvalidOperandCodeError) Error() string {
	return fmt.Sprintf("invalid %s operand code %d", e.Decoder, e.Code)
}

func (e *InvalidOperandCodeError) Unwrap() error { return ErrInvalidOperandCode }

// TruncatedInstructionError reports an instruction whose encoding runs past
// the end of the image.
type TruncatedInstructionError struct {
	Pos  Addr
	Need int // bytes the encoding needs starting at Pos
	Size int // image length
}

func (e *TruncatedInstructionError) Error() string {
	return fmt.Sprintf("truncated instruction at $%04X: need %d byte(s), image has %d",
		e.Pos, e.Need, e.Size)
}

func (e *TruncatedInstructionError) Unwrap() error { return ErrTruncatedInstruction }

// UnknownAddressError is returned by SymbolicAddress for unnamed addresses.
type UnknownAddressError struct {
	Addr uint16
}

func (e *UnknownAddressError) Error() string {
	return fmt.Sprintf("no symbol for address $%04X", e.Addr)
}

func (e *UnknownAddressError) Unwrap() error { return ErrUnknownAddress }
