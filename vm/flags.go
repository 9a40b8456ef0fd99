package vm

import "math/bits"

// Flags models the subset of EFLAGS this emulator implements: CF, PF, AF,
// ZF, SF, OF, DF. Everything else is architecturally present but not
// tracked, per spec Non-goals (protected mode, segment flags, etc).
type Flags struct {
	CF bool
	PF bool
	AF bool
	ZF bool
	SF bool
	OF bool
	DF bool
}

// EFLAGS bit positions for the modeled flags, matching real IA-32 layout so
// serialize/deserialize round-trip through PUSHF/POPF/LAHF/SAHF correctly.
const (
	eflagsCF = 1 << 0
	eflagsR1 = 1 << 1 // reserved, always reads as 1
	eflagsPF = 1 << 2
	eflagsAF = 1 << 4
	eflagsZF = 1 << 6
	eflagsSF = 1 << 7
	eflagsDF = 1 << 10
	eflagsOF = 1 << 11
)

// ComputeZero reports whether result is zero.
func ComputeZero(result uint32) bool {
	return result == 0
}

// ComputeParity returns the even-parity of the low 8 bits of result: true
// when the number of set bits among bits 0..7 is even.
func ComputeParity(result uint32) bool {
	return bits.OnesCount8(uint8(result))%2 == 0
}

// ComputeSign8/16/32 report whether the high bit of the given-width result
// is set.
func ComputeSign8(result uint32) bool  { return uint8(result)&0x80 != 0 }
func ComputeSign16(result uint32) bool { return uint16(result)&0x8000 != 0 }
func ComputeSign32(result uint32) bool { return result&0x80000000 != 0 }

// ComputeSign dispatches on width.
func ComputeSign(result uint32, size ValueSize) bool {
	switch size {
	case SizeByte:
		return ComputeSign8(result)
	case SizeWord:
		return ComputeSign16(result)
	default:
		return ComputeSign32(result)
	}
}

// computeAdjust computes AF: carry/borrow between bits 3 and 4 of the raw
// (untruncated) operands, independent of operation width.
func computeAdjust(a, b, result uint32) bool {
	return ((a ^ b ^ result) & 0x10) != 0
}

// Serialize packs the modeled flags into an EFLAGS-shaped word. Reserved
// bit 1 is set per real hardware and per spec open-question #4 ("canonical
// bit 1 = 1, others 0 for unmodeled") so PUSHF output is deterministic.
func (f Flags) Serialize() uint32 {
	var v uint32 = eflagsR1
	if f.CF {
		v |= eflagsCF
	}
	if f.PF {
		v |= eflagsPF
	}
	if f.AF {
		v |= eflagsAF
	}
	if f.ZF {
		v |= eflagsZF
	}
	if f.SF {
		v |= eflagsSF
	}
	if f.DF {
		v |= eflagsDF
	}
	if f.OF {
		v |= eflagsOF
	}
	return v
}

// Deserialize loads the modeled flags from an EFLAGS-shaped word, ignoring
// every bit this emulator does not model.
func (f *Flags) Deserialize(v uint32) {
	f.CF = v&eflagsCF != 0
	f.PF = v&eflagsPF != 0
	f.AF = v&eflagsAF != 0
	f.ZF = v&eflagsZF != 0
	f.SF = v&eflagsSF != 0
	f.DF = v&eflagsDF != 0
	f.OF = v&eflagsOF != 0
}

// updateArith sets ZF/SF/PF for size from result, and AF from the raw
// (unmasked) operands. CF and OF are the caller's responsibility since they
// depend on the specific operation (add vs sub vs shift).
func (f *Flags) updateArith(a, b, result uint32, size ValueSize) {
	masked := result & sizeMask(size)
	f.ZF = ComputeZero(masked)
	f.SF = ComputeSign(masked, size)
	f.PF = ComputeParity(masked)
	f.AF = computeAdjust(a, b, result)
}

func sizeMask(size ValueSize) uint32 {
	switch size {
	case SizeByte:
		return 0xFF
	case SizeWord:
		return 0xFFFF
	default:
		return 0xFFFFFFFF
	}
}
