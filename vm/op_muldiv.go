package vm

func registerMulDiv(t *OpcodeTable) {
	setOp(t, 0xF6, false, false, 4, Opcode{
		Function: mulOp, HasModRM: true, GasCostTier: GasModerate,
		ArgSize: [MaxArgs]ValueSize{SizeByte}, ArgSource: [MaxArgs]ArgSource{ArgSrcModRM}, Mnemonic: "mul",
	})
	setOp(t, 0xF7, false, false, 4, Opcode{
		Function: mulOp, HasModRM: true, GasCostTier: GasModerate,
		ArgSize: [MaxArgs]ValueSize{SizeDword}, ArgSource: [MaxArgs]ArgSource{ArgSrcModRM}, Mnemonic: "mul",
	})
	setOp(t, 0xF7, false, true, 4, Opcode{
		Function: mulOp, HasModRM: true, GasCostTier: GasModerate,
		ArgSize: [MaxArgs]ValueSize{SizeWord}, ArgSource: [MaxArgs]ArgSource{ArgSrcModRM}, Mnemonic: "mul",
	})

	setOp(t, 0xF6, false, false, 5, Opcode{
		Function: imul1Op, HasModRM: true, GasCostTier: GasModerate,
		ArgSize: [MaxArgs]ValueSize{SizeByte}, ArgSource: [MaxArgs]ArgSource{ArgSrcModRM}, Mnemonic: "imul",
	})
	setOp(t, 0xF7, false, false, 5, Opcode{
		Function: imul1Op, HasModRM: true, GasCostTier: GasModerate,
		ArgSize: [MaxArgs]ValueSize{SizeDword}, ArgSource: [MaxArgs]ArgSource{ArgSrcModRM}, Mnemonic: "imul",
	})
	setOp(t, 0xF7, false, true, 5, Opcode{
		Function: imul1Op, HasModRM: true, GasCostTier: GasModerate,
		ArgSize: [MaxArgs]ValueSize{SizeWord}, ArgSource: [MaxArgs]ArgSource{ArgSrcModRM}, Mnemonic: "imul",
	})

	setOp(t, 0xF6, false, false, 6, Opcode{
		Function: divOp, HasModRM: true, GasCostTier: GasModerate,
		ArgSize: [MaxArgs]ValueSize{SizeByte}, ArgSource: [MaxArgs]ArgSource{ArgSrcModRM}, Mnemonic: "div",
	})
	setOp(t, 0xF7, false, false, 6, Opcode{
		Function: divOp, HasModRM: true, GasCostTier: GasModerate,
		ArgSize: [MaxArgs]ValueSize{SizeDword}, ArgSource: [MaxArgs]ArgSource{ArgSrcModRM}, Mnemonic: "div",
	})
	setOp(t, 0xF7, false, true, 6, Opcode{
		Function: divOp, HasModRM: true, GasCostTier: GasModerate,
		ArgSize: [MaxArgs]ValueSize{SizeWord}, ArgSource: [MaxArgs]ArgSource{ArgSrcModRM}, Mnemonic: "div",
	})

	setOp(t, 0xF6, false, false, 7, Opcode{
		Function: idivOp, HasModRM: true, GasCostTier: GasModerate,
		ArgSize: [MaxArgs]ValueSize{SizeByte}, ArgSource: [MaxArgs]ArgSource{ArgSrcModRM}, Mnemonic: "idiv",
	})
	setOp(t, 0xF7, false, false, 7, Opcode{
		Function: idivOp, HasModRM: true, GasCostTier: GasModerate,
		ArgSize: [MaxArgs]ValueSize{SizeDword}, ArgSource: [MaxArgs]ArgSource{ArgSrcModRM}, Mnemonic: "idiv",
	})
	setOp(t, 0xF7, false, true, 7, Opcode{
		Function: idivOp, HasModRM: true, GasCostTier: GasModerate,
		ArgSize: [MaxArgs]ValueSize{SizeWord}, ArgSource: [MaxArgs]ArgSource{ArgSrcModRM}, Mnemonic: "idiv",
	})

	setOp(t, 0xAF, true, false, 0, Opcode{
		Function: imul2Op, HasModRM: true, GasCostTier: GasModerate,
		ArgSize:   [MaxArgs]ValueSize{SizeDword, SizeDword},
		ArgSource: [MaxArgs]ArgSource{ArgSrcModRMReg, ArgSrcModRM},
		Mnemonic:  "imul",
	})
	setOp(t, 0xAF, true, true, 0, Opcode{
		Function: imul2Op, HasModRM: true, GasCostTier: GasModerate,
		ArgSize:   [MaxArgs]ValueSize{SizeWord, SizeWord},
		ArgSource: [MaxArgs]ArgSource{ArgSrcModRMReg, ArgSrcModRM},
		Mnemonic:  "imul",
	})

	setOp(t, 0x69, false, false, 0, Opcode{
		Function: imul3Op, HasModRM: true, GasCostTier: GasModerate,
		ArgSize:   [MaxArgs]ValueSize{SizeDword, SizeDword, SizeDword},
		ArgSource: [MaxArgs]ArgSource{ArgSrcModRMReg, ArgSrcModRM, ArgSrcImmediateValue},
		Mnemonic:  "imul",
	})
	setOp(t, 0x69, false, true, 0, Opcode{
		Function: imul3Op, HasModRM: true, GasCostTier: GasModerate,
		ArgSize:   [MaxArgs]ValueSize{SizeWord, SizeWord, SizeWord},
		ArgSource: [MaxArgs]ArgSource{ArgSrcModRMReg, ArgSrcModRM, ArgSrcImmediateValue},
		Mnemonic:  "imul",
	})
	setOp(t, 0x6B, false, false, 0, Opcode{
		Function: imul3Op, HasModRM: true, GasCostTier: GasModerate,
		ArgSize:   [MaxArgs]ValueSize{SizeDword, SizeDword, SizeByte},
		ArgSource: [MaxArgs]ArgSource{ArgSrcModRMReg, ArgSrcModRM, ArgSrcImmediateValue},
		Mnemonic:  "imul",
	})
	setOp(t, 0x6B, false, true, 0, Opcode{
		Function: imul3Op, HasModRM: true, GasCostTier: GasModerate,
		ArgSize:   [MaxArgs]ValueSize{SizeWord, SizeWord, SizeByte},
		ArgSource: [MaxArgs]ArgSource{ArgSrcModRMReg, ArgSrcModRM, ArgSrcImmediateValue},
		Mnemonic:  "imul",
	})
}

func signExtend64(raw uint32, size ValueSize) int64 {
	switch size {
	case SizeByte:
		return int64(int8(raw))
	case SizeWord:
		return int64(int16(raw))
	default:
		return int64(int32(raw))
	}
}

func mulOp(vmi *VM, slot *PipelineSlot, hv Hypervisor) error {
	arg := slot.Args[0]
	size := arg.Size
	src, err := vmi.GetArg(arg)
	if err != nil {
		return err
	}
	a := uint64(vmi.State.GetReg(RegEAX, size).Raw())
	b := uint64(src.Raw())
	product := a * b

	var cf bool
	switch size {
	case SizeByte:
		vmi.State.SetReg(RegEAX, WordValue(uint16(product)))
		cf = product>>8 != 0
	case SizeWord:
		vmi.State.SetReg(RegEAX, WordValue(uint16(product)))
		vmi.State.SetReg(RegEDX, WordValue(uint16(product>>16)))
		cf = product>>16 != 0
	default:
		vmi.State.Regs[RegEAX] = uint32(product)
		vmi.State.Regs[RegEDX] = uint32(product >> 32)
		cf = product>>32 != 0
	}
	vmi.State.Flags.CF, vmi.State.Flags.OF = cf, cf
	return nil
}

func imul1Op(vmi *VM, slot *PipelineSlot, hv Hypervisor) error {
	arg := slot.Args[0]
	size := arg.Size
	src, err := vmi.GetArg(arg)
	if err != nil {
		return err
	}
	a := signExtend64(vmi.State.GetReg(RegEAX, size).Raw(), size)
	b := signExtend64(src.Raw(), size)
	product := a * b
	lo := uint32(product) & sizeMask(size)

	switch size {
	case SizeByte:
		vmi.State.SetReg(RegEAX, WordValue(uint16(product)))
	case SizeWord:
		vmi.State.SetReg(RegEAX, WordValue(uint16(product)))
		vmi.State.SetReg(RegEDX, WordValue(uint16(product>>16)))
	default:
		vmi.State.Regs[RegEAX] = uint32(product)
		vmi.State.Regs[RegEDX] = uint32(product >> 32)
	}
	cf := signExtend64(lo, size) != product
	vmi.State.Flags.CF, vmi.State.Flags.OF = cf, cf
	return nil
}

func imul2Op(vmi *VM, slot *PipelineSlot, hv Hypervisor) error {
	dest := slot.Args[0]
	size := dest.Size
	a, err := vmi.GetArg(dest)
	if err != nil {
		return err
	}
	b, err := vmi.GetArg(slot.Args[1])
	if err != nil {
		return err
	}
	product := signExtend64(a.Raw(), size) * signExtend64(b.Raw(), size)
	lo := uint32(product) & sizeMask(size)
	cf := signExtend64(lo, size) != product
	vmi.State.Flags.CF, vmi.State.Flags.OF = cf, cf
	return vmi.SetArg(dest, sizedOf(size, lo))
}

func imul3Op(vmi *VM, slot *PipelineSlot, hv Hypervisor) error {
	dest := slot.Args[0]
	size := dest.Size
	a, err := vmi.GetArg(slot.Args[1])
	if err != nil {
		return err
	}
	b, err := vmi.GetArg(slot.Args[2])
	if err != nil {
		return err
	}
	product := signExtend64(a.Raw(), size) * signExtend64(b.U32SignExtend(), size)
	lo := uint32(product) & sizeMask(size)
	cf := signExtend64(lo, size) != product
	vmi.State.Flags.CF, vmi.State.Flags.OF = cf, cf
	return vmi.SetArg(dest, sizedOf(size, lo))
}

// divOp and idivOp leave flags unmodified: real hardware defines them as
// undefined after a divide, and there is no canonical value worth
// fabricating.
func divOp(vmi *VM, slot *PipelineSlot, hv Hypervisor) error {
	arg := slot.Args[0]
	size := arg.Size
	divisor, err := vmi.GetArg(arg)
	if err != nil {
		return err
	}
	dv := divisor.Raw()
	if dv == 0 {
		return newErr(ErrDivideByZero)
	}
	switch size {
	case SizeByte:
		ax := uint64(vmi.State.GetReg(RegEAX, SizeWord).Raw())
		q, r := ax/uint64(dv), ax%uint64(dv)
		if q > 0xFF {
			return newErr(ErrDivideByZero)
		}
		vmi.State.SetReg(RegEAX, WordValue(uint16(q)|uint16(r)<<8))
	case SizeWord:
		dxax := uint64(vmi.State.GetReg(RegEDX, SizeWord).Raw())<<16 | uint64(vmi.State.GetReg(RegEAX, SizeWord).Raw())
		q, r := dxax/uint64(dv), dxax%uint64(dv)
		if q > 0xFFFF {
			return newErr(ErrDivideByZero)
		}
		vmi.State.SetReg(RegEAX, WordValue(uint16(q)))
		vmi.State.SetReg(RegEDX, WordValue(uint16(r)))
	default:
		dividend := uint64(vmi.State.Regs[RegEDX])<<32 | uint64(vmi.State.Regs[RegEAX])
		q, r := dividend/uint64(dv), dividend%uint64(dv)
		if q > 0xFFFFFFFF {
			return newErr(ErrDivideByZero)
		}
		vmi.State.Regs[RegEAX] = uint32(q)
		vmi.State.Regs[RegEDX] = uint32(r)
	}
	return nil
}

func idivOp(vmi *VM, slot *PipelineSlot, hv Hypervisor) error {
	arg := slot.Args[0]
	size := arg.Size
	divisor, err := vmi.GetArg(arg)
	if err != nil {
		return err
	}
	dv := signExtend64(divisor.Raw(), size)
	if dv == 0 {
		return newErr(ErrDivideByZero)
	}
	switch size {
	case SizeByte:
		ax := int64(int16(vmi.State.GetReg(RegEAX, SizeWord).Raw()))
		q, r := ax/dv, ax%dv
		if q > 127 || q < -128 {
			return newErr(ErrDivideByZero)
		}
		vmi.State.SetReg(RegEAX, WordValue(uint16(uint8(int8(q)))|uint16(uint8(int8(r)))<<8))
	case SizeWord:
		dxax := int64(int32(uint32(vmi.State.GetReg(RegEDX, SizeWord).Raw())<<16 | uint32(vmi.State.GetReg(RegEAX, SizeWord).Raw())))
		q, r := dxax/dv, dxax%dv
		if q > 32767 || q < -32768 {
			return newErr(ErrDivideByZero)
		}
		vmi.State.SetReg(RegEAX, WordValue(uint16(int16(q))))
		vmi.State.SetReg(RegEDX, WordValue(uint16(int16(r))))
	default:
		dividend := int64(uint64(vmi.State.Regs[RegEDX])<<32 | uint64(vmi.State.Regs[RegEAX]))
		q, r := dividend/dv, dividend%dv
		if q > int64(int32(0x7FFFFFFF)) || q < int64(int32(-0x80000000)) {
			return newErr(ErrDivideByZero)
		}
		vmi.State.Regs[RegEAX] = uint32(int32(q))
		vmi.State.Regs[RegEDX] = uint32(int32(r))
	}
	return nil
}
