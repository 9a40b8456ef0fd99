package vm

// ArgKind tags which variant of ArgLocation is populated.
type ArgKind uint8

const (
	ArgNone ArgKind = iota
	ArgImmediate
	ArgAddress
	ArgRegisterValue
	ArgRegisterAddress
	ArgModRMAddress
	ArgSIBAddress
)

// ArgLocation is the decoder's resolved-but-not-yet-read/written operand
// location, a tagged union mirroring spec's six (plus None) ArgLocation
// variants. Only the fields relevant to Kind are meaningful.
type ArgLocation struct {
	Kind ArgKind
	Size ValueSize

	Imm SizedValue // ArgImmediate

	Addr uint32 // ArgAddress / resolved RegisterAddress target (diagnostic)
	Reg  uint8  // ArgRegisterValue / ArgRegisterAddress

	// ModRM / SIB addressing
	Offset    int32
	HasOffset bool
	Base      uint8
	HasBase   bool
	Scale     uint8
	Index     uint8
	HasIndex  bool
}

// ImmediateArg builds an ArgLocation for an immediate value.
func ImmediateArg(v SizedValue) ArgLocation {
	return ArgLocation{Kind: ArgImmediate, Size: v.Size(), Imm: v}
}

// AddressArg builds an ArgLocation for an absolute memory address.
func AddressArg(addr uint32, size ValueSize) ArgLocation {
	return ArgLocation{Kind: ArgAddress, Size: size, Addr: addr}
}

// RegisterValueArg builds an ArgLocation referring directly to a register.
func RegisterValueArg(reg uint8, size ValueSize) ArgLocation {
	return ArgLocation{Kind: ArgRegisterValue, Size: size, Reg: reg}
}

// RegisterAddressArg builds an ArgLocation addressing memory indirectly
// through the full 32-bit value of a register.
func RegisterAddressArg(reg uint8, size ValueSize) ArgLocation {
	return ArgLocation{Kind: ArgRegisterAddress, Size: size, Reg: reg}
}

// effectiveAddress computes the ModRM/SIB effective address: base +
// index*scale + offset, with absent components as zero, all arithmetic
// wrapping modulo 2^32 (Go's uint32 arithmetic already wraps).
func (a ArgLocation) effectiveAddress(state *VMState) uint32 {
	var addr uint32
	if a.HasOffset {
		addr = uint32(a.Offset)
	}
	if a.HasBase {
		addr += state.Regs[a.Base&0x7]
	}
	if a.Kind == ArgSIBAddress && a.HasIndex {
		addr += state.Regs[a.Index&0x7] * uint32(a.Scale)
	}
	return addr
}

// IsMemory reports whether resolving this location touches memory (used to
// charge the MemoryAccess gas surcharge).
func (a ArgLocation) IsMemory() bool {
	switch a.Kind {
	case ArgAddress, ArgRegisterAddress, ArgModRMAddress, ArgSIBAddress:
		return true
	default:
		return false
	}
}

// IsWriteable reports whether set_arg-equivalent is legal for this
// location; only an Immediate is not.
func (a ArgLocation) IsWriteable() bool {
	return a.Kind != ArgImmediate
}

// GetArg resolves arg into its current value.
func (s *VM) GetArg(arg ArgLocation) (SizedValue, error) {
	switch arg.Kind {
	case ArgNone:
		return NoneValue, nil
	case ArgImmediate:
		return arg.Imm, nil
	case ArgAddress:
		return s.Memory.GetSized(arg.Addr, arg.Size)
	case ArgRegisterValue:
		return s.State.GetReg(arg.Reg, arg.Size), nil
	case ArgRegisterAddress:
		addr := s.State.GetReg(arg.Reg, SizeDword).Raw()
		return s.Memory.GetSized(addr, arg.Size)
	case ArgModRMAddress, ArgSIBAddress:
		return s.Memory.GetSized(arg.effectiveAddress(&s.State), arg.Size)
	default:
		return NoneValue, newErr(ErrWrongSizeExpectation)
	}
}

// GetArgAddress resolves arg to the address it refers to, used by LEA
// which must not dereference memory. Immediates/RegisterValue have no
// address and return (0, false).
func (s *VM) GetArgAddress(arg ArgLocation) (uint32, bool) {
	switch arg.Kind {
	case ArgAddress:
		return arg.Addr, true
	case ArgRegisterAddress:
		return s.State.GetReg(arg.Reg, SizeDword).Raw(), true
	case ArgModRMAddress, ArgSIBAddress:
		return arg.effectiveAddress(&s.State), true
	default:
		return 0, false
	}
}

// SetArg resolves arg and stores v into it. Writing an Immediate is an
// implementation error (ErrWroteUnwriteableArgument). Address/
// RegisterValue/RegisterAddress writes zero-extend v to fit, failing if it
// does not fit; ModRM/SIB writes truncate silently, matching spec §3 and
// §4.3.
func (s *VM) SetArg(arg ArgLocation, v SizedValue) error {
	switch arg.Kind {
	case ArgNone:
		return nil
	case ArgImmediate:
		return newErr(ErrWroteUnwriteableArgument)
	case ArgAddress:
		sized, err := v.ConvertZeroExtend(arg.Size)
		if err != nil {
			return err
		}
		return s.Memory.SetSized(arg.Addr, sized)
	case ArgRegisterValue:
		sized, err := v.ConvertZeroExtend(arg.Size)
		if err != nil {
			return err
		}
		s.State.SetReg(arg.Reg, sized)
		return nil
	case ArgRegisterAddress:
		sized, err := v.ConvertZeroExtend(arg.Size)
		if err != nil {
			return err
		}
		addr := s.State.GetReg(arg.Reg, SizeDword).Raw()
		return s.Memory.SetSized(addr, sized)
	case ArgModRMAddress, ArgSIBAddress:
		sized := v.Truncate(arg.Size)
		return s.Memory.SetSized(arg.effectiveAddress(&s.State), sized)
	default:
		return newErr(ErrWrongSizeExpectation)
	}
}
