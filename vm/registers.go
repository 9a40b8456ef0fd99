package vm

// Canonical 32-bit general purpose register indices, in encoding order.
const (
	RegEAX uint8 = 0
	RegECX uint8 = 1
	RegEDX uint8 = 2
	RegEBX uint8 = 3
	RegESP uint8 = 4
	RegEBP uint8 = 5
	RegESI uint8 = 6
	RegEDI uint8 = 7
)

var reg32Names = [8]string{"eax", "ecx", "edx", "ebx", "esp", "ebp", "esi", "edi"}
var reg16Names = [8]string{"ax", "cx", "dx", "bx", "sp", "bp", "si", "di"}
var reg8Names = [8]string{"al", "cl", "dl", "bl", "ah", "ch", "dh", "bh"}

// RegisterName returns the architectural name of a register at the given
// encoded index and size, for diagnostics.
func RegisterName(idx uint8, size ValueSize) string {
	switch size {
	case SizeByte:
		return reg8Names[idx&0x7]
	case SizeWord:
		return reg16Names[idx&0x7]
	default:
		return reg32Names[idx&0x7]
	}
}

// GetReg resolves a numerical register index and size to a SizedValue,
// implementing the encoded-index high-byte-alias scheme: for byte size,
// idx&0x4 != 0 selects the second byte (AH/CH/DH/BH) of register idx&0x3;
// otherwise it selects the low byte (AL/CL/DL/BL) of register idx.
func (s *VMState) GetReg(idx uint8, size ValueSize) SizedValue {
	r := idx & 0x7
	switch size {
	case SizeNone:
		return NoneValue
	case SizeByte:
		if idx&0x4 == 0 {
			return ByteValue(uint8(s.Regs[r] & 0xFF))
		}
		return ByteValue(uint8((s.Regs[idx&0x3] >> 8) & 0xFF))
	case SizeWord:
		return WordValue(uint16(s.Regs[r] & 0xFFFF))
	default:
		return DwordValue(s.Regs[r])
	}
}

// SetReg writes value into the register selected by idx, sizing the write
// from value's own tag and masking/shifting the target register's other
// bytes untouched.
func (s *VMState) SetReg(idx uint8, value SizedValue) {
	r := idx & 0x7
	switch value.Size() {
	case SizeNone:
		return
	case SizeByte:
		v, _ := value.U8Exact()
		if idx&0x4 == 0 {
			s.Regs[r] = (s.Regs[r] &^ 0xFF) | uint32(v)
		} else {
			lo := idx & 0x3
			s.Regs[lo] = (s.Regs[lo] &^ 0xFF00) | (uint32(v) << 8)
		}
	case SizeWord:
		v, _ := value.U16Exact()
		s.Regs[r] = (s.Regs[r] &^ 0xFFFF) | uint32(v)
	case SizeDword:
		v, _ := value.U32Exact()
		s.Regs[r] = v
	}
}
