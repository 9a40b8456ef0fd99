package vm

// ValueSize tags the width of a SizedValue or an ArgLocation's operand.
type ValueSize uint8

const (
	SizeNone  ValueSize = 0
	SizeByte  ValueSize = 1
	SizeWord  ValueSize = 2
	SizeDword ValueSize = 4
)

// Bytes returns the width in bytes, 0 for SizeNone.
func (s ValueSize) Bytes() uint32 {
	return uint32(s)
}

// SizedValue is a tagged 32-bit-at-most value: {None, Byte, Word, Dword}.
// Conversions are explicit: exact (fails on tag mismatch), zero-extend,
// sign-extend, and silent truncate, matching the reference implementation's
// SizedValue enum and its u8_exact/u16_zx/u32_sx/convert_size_trunc family.
type SizedValue struct {
	size ValueSize
	raw  uint32
}

// NoneValue is the None variant.
var NoneValue = SizedValue{size: SizeNone}

func ByteValue(v uint8) SizedValue  { return SizedValue{size: SizeByte, raw: uint32(v)} }
func WordValue(v uint16) SizedValue { return SizedValue{size: SizeWord, raw: uint32(v)} }
func DwordValue(v uint32) SizedValue { return SizedValue{size: SizeDword, raw: v} }

func (v SizedValue) Size() ValueSize { return v.size }
func (v SizedValue) IsNone() bool    { return v.size == SizeNone }

// Raw returns the underlying bits masked to the tagged width. Useful for
// code that already knows the size and just wants the number (flag
// computation, comparisons).
func (v SizedValue) Raw() uint32 {
	switch v.size {
	case SizeByte:
		return v.raw & 0xFF
	case SizeWord:
		return v.raw & 0xFFFF
	case SizeDword:
		return v.raw
	default:
		return 0
	}
}

func (v SizedValue) U8Exact() (uint8, error) {
	if v.size != SizeByte {
		return 0, newErr(ErrWrongSizeExpectation)
	}
	return uint8(v.raw), nil
}

func (v SizedValue) U16Exact() (uint16, error) {
	if v.size != SizeWord {
		return 0, newErr(ErrWrongSizeExpectation)
	}
	return uint16(v.raw), nil
}

func (v SizedValue) U32Exact() (uint32, error) {
	if v.size != SizeDword {
		return 0, newErr(ErrWrongSizeExpectation)
	}
	return v.raw, nil
}

// U32ZeroExtend widens to 32 bits with zero extension regardless of tag.
func (v SizedValue) U32ZeroExtend() uint32 {
	return v.Raw()
}

// U32SignExtend widens to 32 bits with sign extension from the tagged width.
func (v SizedValue) U32SignExtend() uint32 {
	switch v.size {
	case SizeByte:
		return uint32(int32(int8(uint8(v.raw))))
	case SizeWord:
		return uint32(int32(int16(uint16(v.raw))))
	case SizeDword:
		return v.raw
	default:
		return 0
	}
}

// Truncate narrows v to size, discarding high bits silently. Asking for a
// wider size keeps the same bits and retags them at that size (a zero
// extension); SizeNone or an unknown size yields NoneValue.
func (v SizedValue) Truncate(size ValueSize) SizedValue {
	switch size {
	case SizeNone:
		return NoneValue
	case SizeByte:
		return ByteValue(uint8(v.raw))
	case SizeWord:
		return WordValue(uint16(v.raw))
	case SizeDword:
		return DwordValue(v.raw)
	default:
		return NoneValue
	}
}

// ConvertZeroExtend widens/narrows v to size using zero extension,
// rejecting a narrowing truncation that would discard non-zero bits. This
// backs ArgLocation writes to Address/RegisterValue/RegisterAddress, which
// the reference implementation resolves through convert_size_zx and
// surfaces ErrTooBigSizeExpectation when the value does not fit.
func (v SizedValue) ConvertZeroExtend(size ValueSize) (SizedValue, error) {
	wide := v.Raw()
	switch size {
	case SizeNone:
		return NoneValue, nil
	case SizeByte:
		if wide > 0xFF {
			return NoneValue, newErr(ErrTooBigSizeExpectation)
		}
		return ByteValue(uint8(wide)), nil
	case SizeWord:
		if wide > 0xFFFF {
			return NoneValue, newErr(ErrTooBigSizeExpectation)
		}
		return WordValue(uint16(wide)), nil
	case SizeDword:
		return DwordValue(wide), nil
	default:
		return NoneValue, nil
	}
}
