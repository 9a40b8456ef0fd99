package vm

import "fmt"

// ErrorKind enumerates every distinct way a VM cycle can fail. Values mirror
// the taxonomy of the reference implementation's VMError enum: memory
// faults, decoding faults, execution faults, the single resource fault
// (gas), and the halt sentinel.
type ErrorKind int

const (
	// ErrNone is never returned; it exists so the zero value of VMError is
	// not a confusing stand-in for a real error kind.
	ErrNone ErrorKind = iota
	ErrNotYetImplemented

	// memory faults
	ErrReadBadMemory
	ErrWroteBadMemory
	ErrWroteReadOnlyMemory
	ErrUnalignedMemoryAddition
	ErrConflictingMemoryAddition

	// decoding faults
	ErrDecodingOverrun
	ErrInvalidOpcode
	ErrInvalidOpcodeEncoding

	// execution faults
	ErrDivideByZero
	ErrWroteUnwriteableArgument
	ErrWrongSizeExpectation
	ErrTooBigSizeExpectation

	// resource
	ErrOutOfGas

	// sentinel, translated to a clean halt by the executor
	ErrInternalVMStop
)

func (k ErrorKind) String() string {
	switch k {
	case ErrNone:
		return "none"
	case ErrNotYetImplemented:
		return "not yet implemented"
	case ErrReadBadMemory:
		return "read from unmapped memory"
	case ErrWroteBadMemory:
		return "write to unmapped memory"
	case ErrWroteReadOnlyMemory:
		return "write to read-only memory"
	case ErrUnalignedMemoryAddition:
		return "memory section base not aligned to section size"
	case ErrConflictingMemoryAddition:
		return "memory section overlaps an existing section"
	case ErrDecodingOverrun:
		return "ran out of bytes while decoding"
	case ErrInvalidOpcode:
		return "invalid opcode"
	case ErrInvalidOpcodeEncoding:
		return "invalid opcode encoding"
	case ErrDivideByZero:
		return "divide by zero or quotient overflow"
	case ErrWroteUnwriteableArgument:
		return "wrote to an unwriteable argument"
	case ErrWrongSizeExpectation:
		return "wrong size expectation"
	case ErrTooBigSizeExpectation:
		return "value too large for requested size"
	case ErrOutOfGas:
		return "out of gas"
	case ErrInternalVMStop:
		return "internal vm stop"
	default:
		return "unknown vm error"
	}
}

// VMError is the single error type returned by every opcode handler and by
// the decode/execute pipeline. Kind is always set; Addr/Byte carry payload
// for the kinds that need one (mirroring VMError::ReadBadMemory(u32) and
// friends in the reference implementation).
type VMError struct {
	Kind ErrorKind
	Addr uint32 // valid for memory faults
	Byte byte   // valid for ErrInvalidOpcode
}

func (e *VMError) Error() string {
	switch e.Kind {
	case ErrReadBadMemory, ErrWroteBadMemory, ErrWroteReadOnlyMemory:
		return fmt.Sprintf("%s at 0x%08X", e.Kind, e.Addr)
	case ErrInvalidOpcode:
		return fmt.Sprintf("%s: 0x%02X", e.Kind, e.Byte)
	default:
		return e.Kind.String()
	}
}

// Is lets callers use errors.Is(err, vm.ErrOutOfGasErr) style matching
// against kind alone, ignoring payload.
func (e *VMError) Is(target error) bool {
	other, ok := target.(*VMError)
	if !ok {
		return false
	}
	return e.Kind == other.Kind
}

func newErr(kind ErrorKind) *VMError {
	return &VMError{Kind: kind}
}

func newMemErr(kind ErrorKind, addr uint32) *VMError {
	return &VMError{Kind: kind, Addr: addr}
}

func newOpcodeErr(b byte) *VMError {
	return &VMError{Kind: ErrInvalidOpcode, Byte: b}
}

// Sentinel instances for errors.Is comparisons against a fixed kind.
var (
	ErrOutOfGasErr       = newErr(ErrOutOfGas)
	ErrInternalVMStopErr = newErr(ErrInternalVMStop)
	ErrDivideByZeroErr   = newErr(ErrDivideByZero)
)
