package vm

// registerAluFamily installs the six standard encodings shared by every
// ALU mnemonic that has one: r/m8,r8 / r/m32(16),r32(16) / r8,r/m8 /
// r32(16),r/m32(16) / AL,imm8 / eAX,imm32(16).
func registerAluFamily(t *OpcodeTable, base byte, fn OpcodeFunc, name string) {
	setOp(t, base+0, false, false, 0, Opcode{
		Function: fn, HasModRM: true, GasCostTier: GasVeryLow,
		ArgSize:   [MaxArgs]ValueSize{SizeByte, SizeByte},
		ArgSource: [MaxArgs]ArgSource{ArgSrcModRM, ArgSrcModRMReg},
		Mnemonic:  name,
	})
	setOp(t, base+1, false, false, 0, Opcode{
		Function: fn, HasModRM: true, GasCostTier: GasVeryLow,
		ArgSize:   [MaxArgs]ValueSize{SizeDword, SizeDword},
		ArgSource: [MaxArgs]ArgSource{ArgSrcModRM, ArgSrcModRMReg},
		Mnemonic:  name,
	})
	setOp(t, base+1, false, true, 0, Opcode{
		Function: fn, HasModRM: true, GasCostTier: GasVeryLow,
		ArgSize:   [MaxArgs]ValueSize{SizeWord, SizeWord},
		ArgSource: [MaxArgs]ArgSource{ArgSrcModRM, ArgSrcModRMReg},
		Mnemonic:  name,
	})
	setOp(t, base+2, false, false, 0, Opcode{
		Function: fn, HasModRM: true, GasCostTier: GasVeryLow,
		ArgSize:   [MaxArgs]ValueSize{SizeByte, SizeByte},
		ArgSource: [MaxArgs]ArgSource{ArgSrcModRMReg, ArgSrcModRM},
		Mnemonic:  name,
	})
	setOp(t, base+3, false, false, 0, Opcode{
		Function: fn, HasModRM: true, GasCostTier: GasVeryLow,
		ArgSize:   [MaxArgs]ValueSize{SizeDword, SizeDword},
		ArgSource: [MaxArgs]ArgSource{ArgSrcModRMReg, ArgSrcModRM},
		Mnemonic:  name,
	})
	setOp(t, base+3, false, true, 0, Opcode{
		Function: fn, HasModRM: true, GasCostTier: GasVeryLow,
		ArgSize:   [MaxArgs]ValueSize{SizeWord, SizeWord},
		ArgSource: [MaxArgs]ArgSource{ArgSrcModRMReg, ArgSrcModRM},
		Mnemonic:  name,
	})
	setOp(t, base+4, false, false, 0, Opcode{
		Function: fn, GasCostTier: GasVeryLow,
		ArgSize:   [MaxArgs]ValueSize{SizeByte, SizeByte},
		ArgSource: [MaxArgs]ArgSource{ArgSrcAccumulator, ArgSrcImmediateValue},
		Mnemonic:  name,
	})
	setOp(t, base+5, false, false, 0, Opcode{
		Function: fn, GasCostTier: GasVeryLow,
		ArgSize:   [MaxArgs]ValueSize{SizeDword, SizeDword},
		ArgSource: [MaxArgs]ArgSource{ArgSrcAccumulator, ArgSrcImmediateValue},
		Mnemonic:  name,
	})
	setOp(t, base+5, false, true, 0, Opcode{
		Function: fn, GasCostTier: GasVeryLow,
		ArgSize:   [MaxArgs]ValueSize{SizeWord, SizeWord},
		ArgSource: [MaxArgs]ArgSource{ArgSrcAccumulator, ArgSrcImmediateValue},
		Mnemonic:  name,
	})
}

// aluGroupFuncs/aluGroupNames map a ModR/M /r group value to the handler
// shared by the 0x80/0x81/0x83 immediate-group opcodes, which multiplex
// eight different mnemonics onto the same three opcode bytes.
var aluGroupFuncs = [8]OpcodeFunc{addOp, orOp, adcOp, sbbOp, andOp, subOp, xorOp, cmpOp}
var aluGroupNames = [8]string{"add", "or", "adc", "sbb", "and", "sub", "xor", "cmp"}

func registerAluImmGroups(t *OpcodeTable) {
	t.markGroup(0x80, false)
	t.markGroup(0x81, false)
	t.markGroup(0x83, false)
	for g := 0; g < 8; g++ {
		setOp(t, 0x80, false, false, g, Opcode{
			Function: aluGroupFuncs[g], HasModRM: true, GasCostTier: GasVeryLow,
			ArgSize:   [MaxArgs]ValueSize{SizeByte, SizeByte},
			ArgSource: [MaxArgs]ArgSource{ArgSrcModRM, ArgSrcImmediateValue},
			Mnemonic:  aluGroupNames[g],
		})
		setOp(t, 0x81, false, false, g, Opcode{
			Function: aluGroupFuncs[g], HasModRM: true, GasCostTier: GasVeryLow,
			ArgSize:   [MaxArgs]ValueSize{SizeDword, SizeDword},
			ArgSource: [MaxArgs]ArgSource{ArgSrcModRM, ArgSrcImmediateValue},
			Mnemonic:  aluGroupNames[g],
		})
		setOp(t, 0x81, false, true, g, Opcode{
			Function: aluGroupFuncs[g], HasModRM: true, GasCostTier: GasVeryLow,
			ArgSize:   [MaxArgs]ValueSize{SizeWord, SizeWord},
			ArgSource: [MaxArgs]ArgSource{ArgSrcModRM, ArgSrcImmediateValue},
			Mnemonic:  aluGroupNames[g],
		})
		setOp(t, 0x83, false, false, g, Opcode{
			Function: aluGroupFuncs[g], HasModRM: true, GasCostTier: GasVeryLow,
			ArgSize:   [MaxArgs]ValueSize{SizeDword, SizeByte},
			ArgSource: [MaxArgs]ArgSource{ArgSrcModRM, ArgSrcImmediateValue},
			Mnemonic:  aluGroupNames[g],
		})
		setOp(t, 0x83, false, true, g, Opcode{
			Function: aluGroupFuncs[g], HasModRM: true, GasCostTier: GasVeryLow,
			ArgSize:   [MaxArgs]ValueSize{SizeWord, SizeByte},
			ArgSource: [MaxArgs]ArgSource{ArgSrcModRM, ArgSrcImmediateValue},
			Mnemonic:  aluGroupNames[g],
		})
	}
}

func registerArithmetic(t *OpcodeTable) {
	registerAluFamily(t, 0x00, addOp, "add")
	registerAluFamily(t, 0x10, adcOp, "adc")
	registerAluFamily(t, 0x28, subOp, "sub")
	registerAluFamily(t, 0x18, sbbOp, "sbb")
	registerAluFamily(t, 0x38, cmpOp, "cmp")
	registerAluImmGroups(t)

	// INC/DEC short forms, 32-bit only (these byte ranges are REX
	// prefixes in 64-bit mode; this emulator never runs in 64-bit mode).
	setRange(t, 0x40, false, false, Opcode{
		Function: incOp, GasCostTier: GasVeryLow,
		ArgSize:   [MaxArgs]ValueSize{SizeDword},
		ArgSource: [MaxArgs]ArgSource{ArgSrcRegisterSuffix},
		Mnemonic:  "inc",
	})
	setRange(t, 0x48, false, false, Opcode{
		Function: decOp, GasCostTier: GasVeryLow,
		ArgSize:   [MaxArgs]ValueSize{SizeDword},
		ArgSource: [MaxArgs]ArgSource{ArgSrcRegisterSuffix},
		Mnemonic:  "dec",
	})

	// INC/DEC/NEG via the 0xFE (8-bit) and 0xF6/0xF7 (test/not/neg/mul/
	// imul/div/idiv, registered here only for /3 neg; the rest in
	// registerLogic and registerMulDiv) groups.
	t.markGroup(0xFE, false)
	setOp(t, 0xFE, false, false, 0, Opcode{
		Function: incOp, HasModRM: true, GasCostTier: GasVeryLow,
		ArgSize:   [MaxArgs]ValueSize{SizeByte},
		ArgSource: [MaxArgs]ArgSource{ArgSrcModRM},
		Mnemonic:  "inc",
	})
	setOp(t, 0xFE, false, false, 1, Opcode{
		Function: decOp, HasModRM: true, GasCostTier: GasVeryLow,
		ArgSize:   [MaxArgs]ValueSize{SizeByte},
		ArgSource: [MaxArgs]ArgSource{ArgSrcModRM},
		Mnemonic:  "dec",
	})
	setOp(t, 0xFF, false, false, 0, Opcode{
		Function: incOp, HasModRM: true, GasCostTier: GasVeryLow,
		ArgSize:   [MaxArgs]ValueSize{SizeDword},
		ArgSource: [MaxArgs]ArgSource{ArgSrcModRM},
		Mnemonic:  "inc",
	})
	setOp(t, 0xFF, false, true, 0, Opcode{
		Function: incOp, HasModRM: true, GasCostTier: GasVeryLow,
		ArgSize:   [MaxArgs]ValueSize{SizeWord},
		ArgSource: [MaxArgs]ArgSource{ArgSrcModRM},
		Mnemonic:  "inc",
	})
	setOp(t, 0xFF, false, false, 1, Opcode{
		Function: decOp, HasModRM: true, GasCostTier: GasVeryLow,
		ArgSize:   [MaxArgs]ValueSize{SizeDword},
		ArgSource: [MaxArgs]ArgSource{ArgSrcModRM},
		Mnemonic:  "dec",
	})
	setOp(t, 0xFF, false, true, 1, Opcode{
		Function: decOp, HasModRM: true, GasCostTier: GasVeryLow,
		ArgSize:   [MaxArgs]ValueSize{SizeWord},
		ArgSource: [MaxArgs]ArgSource{ArgSrcModRM},
		Mnemonic:  "dec",
	})

	t.markGroup(0xF6, false)
	t.markGroup(0xF7, false)
	setOp(t, 0xF6, false, false, 3, Opcode{
		Function: negOp, HasModRM: true, GasCostTier: GasVeryLow,
		ArgSize:   [MaxArgs]ValueSize{SizeByte},
		ArgSource: [MaxArgs]ArgSource{ArgSrcModRM},
		Mnemonic:  "neg",
	})
	setOp(t, 0xF7, false, false, 3, Opcode{
		Function: negOp, HasModRM: true, GasCostTier: GasVeryLow,
		ArgSize:   [MaxArgs]ValueSize{SizeDword},
		ArgSource: [MaxArgs]ArgSource{ArgSrcModRM},
		Mnemonic:  "neg",
	})
	setOp(t, 0xF7, false, true, 3, Opcode{
		Function: negOp, HasModRM: true, GasCostTier: GasVeryLow,
		ArgSize:   [MaxArgs]ValueSize{SizeWord},
		ArgSource: [MaxArgs]ArgSource{ArgSrcModRM},
		Mnemonic:  "neg",
	})

	// CMPXCHG (two-byte), XADD (two-byte)
	setOp(t, 0xB0, true, false, 0, Opcode{
		Function: cmpxchgOp, HasModRM: true, GasCostTier: GasLow,
		ArgSize:   [MaxArgs]ValueSize{SizeByte, SizeByte},
		ArgSource: [MaxArgs]ArgSource{ArgSrcModRM, ArgSrcModRMReg},
		Mnemonic:  "cmpxchg",
	})
	setOp(t, 0xB1, true, false, 0, Opcode{
		Function: cmpxchgOp, HasModRM: true, GasCostTier: GasLow,
		ArgSize:   [MaxArgs]ValueSize{SizeDword, SizeDword},
		ArgSource: [MaxArgs]ArgSource{ArgSrcModRM, ArgSrcModRMReg},
		Mnemonic:  "cmpxchg",
	})
	setOp(t, 0xB1, true, true, 0, Opcode{
		Function: cmpxchgOp, HasModRM: true, GasCostTier: GasLow,
		ArgSize:   [MaxArgs]ValueSize{SizeWord, SizeWord},
		ArgSource: [MaxArgs]ArgSource{ArgSrcModRM, ArgSrcModRMReg},
		Mnemonic:  "cmpxchg",
	})
	setOp(t, 0xC0, true, false, 0, Opcode{
		Function: xaddOp, HasModRM: true, GasCostTier: GasLow,
		ArgSize:   [MaxArgs]ValueSize{SizeByte, SizeByte},
		ArgSource: [MaxArgs]ArgSource{ArgSrcModRM, ArgSrcModRMReg},
		Mnemonic:  "xadd",
	})
	setOp(t, 0xC1, true, false, 0, Opcode{
		Function: xaddOp, HasModRM: true, GasCostTier: GasLow,
		ArgSize:   [MaxArgs]ValueSize{SizeDword, SizeDword},
		ArgSource: [MaxArgs]ArgSource{ArgSrcModRM, ArgSrcModRMReg},
		Mnemonic:  "xadd",
	})
	setOp(t, 0xC1, true, true, 0, Opcode{
		Function: xaddOp, HasModRM: true, GasCostTier: GasLow,
		ArgSize:   [MaxArgs]ValueSize{SizeWord, SizeWord},
		ArgSource: [MaxArgs]ArgSource{ArgSrcModRM, ArgSrcModRMReg},
		Mnemonic:  "xadd",
	})
}

func addOp(vmi *VM, slot *PipelineSlot, hv Hypervisor) error {
	dest, a, b, err := binaryArgs(vmi, slot)
	if err != nil {
		return err
	}
	size := dest.Size
	bw := b.U32SignExtend()
	result, cf, of := addWithFlags(size, a.Raw(), bw)
	vmi.State.Flags.updateArith(a.Raw(), bw, result, size)
	vmi.State.Flags.CF, vmi.State.Flags.OF = cf, of
	return vmi.SetArg(dest, sizedOf(size, result))
}

func adcOp(vmi *VM, slot *PipelineSlot, hv Hypervisor) error {
	dest, a, b, err := binaryArgs(vmi, slot)
	if err != nil {
		return err
	}
	size := dest.Size
	bw := b.U32SignExtend()
	result, cf, of := addWithCarryFlags(size, a.Raw(), bw, vmi.State.Flags.CF)
	vmi.State.Flags.updateArith(a.Raw(), bw, result, size)
	vmi.State.Flags.CF, vmi.State.Flags.OF = cf, of
	return vmi.SetArg(dest, sizedOf(size, result))
}

func subOp(vmi *VM, slot *PipelineSlot, hv Hypervisor) error {
	dest, a, b, err := binaryArgs(vmi, slot)
	if err != nil {
		return err
	}
	size := dest.Size
	bw := b.U32SignExtend()
	result, cf, of := subWithFlags(size, a.Raw(), bw)
	vmi.State.Flags.updateArith(a.Raw(), bw, result, size)
	vmi.State.Flags.CF, vmi.State.Flags.OF = cf, of
	return vmi.SetArg(dest, sizedOf(size, result))
}

func sbbOp(vmi *VM, slot *PipelineSlot, hv Hypervisor) error {
	dest, a, b, err := binaryArgs(vmi, slot)
	if err != nil {
		return err
	}
	size := dest.Size
	bw := b.U32SignExtend()
	result, cf, of := subWithBorrowFlags(size, a.Raw(), bw, vmi.State.Flags.CF)
	vmi.State.Flags.updateArith(a.Raw(), bw, result, size)
	vmi.State.Flags.CF, vmi.State.Flags.OF = cf, of
	return vmi.SetArg(dest, sizedOf(size, result))
}

func cmpOp(vmi *VM, slot *PipelineSlot, hv Hypervisor) error {
	dest, a, b, err := binaryArgs(vmi, slot)
	if err != nil {
		return err
	}
	size := dest.Size
	bw := b.U32SignExtend()
	result, cf, of := subWithFlags(size, a.Raw(), bw)
	vmi.State.Flags.updateArith(a.Raw(), bw, result, size)
	vmi.State.Flags.CF, vmi.State.Flags.OF = cf, of
	return nil
}

func incOp(vmi *VM, slot *PipelineSlot, hv Hypervisor) error {
	dest := slot.Args[0]
	a, err := vmi.GetArg(dest)
	if err != nil {
		return err
	}
	size := dest.Size
	result, _, of := addWithFlags(size, a.Raw(), 1)
	vmi.State.Flags.updateArith(a.Raw(), 1, result, size)
	vmi.State.Flags.OF = of
	return vmi.SetArg(dest, sizedOf(size, result))
}

func decOp(vmi *VM, slot *PipelineSlot, hv Hypervisor) error {
	dest := slot.Args[0]
	a, err := vmi.GetArg(dest)
	if err != nil {
		return err
	}
	size := dest.Size
	result, _, of := subWithFlags(size, a.Raw(), 1)
	vmi.State.Flags.updateArith(a.Raw(), 1, result, size)
	vmi.State.Flags.OF = of
	return vmi.SetArg(dest, sizedOf(size, result))
}

func negOp(vmi *VM, slot *PipelineSlot, hv Hypervisor) error {
	dest := slot.Args[0]
	a, err := vmi.GetArg(dest)
	if err != nil {
		return err
	}
	size := dest.Size
	result, cf, of := subWithFlags(size, 0, a.Raw())
	vmi.State.Flags.updateArith(0, a.Raw(), result, size)
	vmi.State.Flags.CF, vmi.State.Flags.OF = cf, of
	return vmi.SetArg(dest, sizedOf(size, result))
}

func cmpxchgOp(vmi *VM, slot *PipelineSlot, hv Hypervisor) error {
	dest := slot.Args[0]
	size := dest.Size
	destVal, err := vmi.GetArg(dest)
	if err != nil {
		return err
	}
	acc := vmi.State.GetReg(RegEAX, size)
	result, cf, of := subWithFlags(size, acc.Raw(), destVal.Raw())
	vmi.State.Flags.updateArith(acc.Raw(), destVal.Raw(), result, size)
	vmi.State.Flags.CF, vmi.State.Flags.OF = cf, of
	if vmi.State.Flags.ZF {
		src, err := vmi.GetArg(slot.Args[1])
		if err != nil {
			return err
		}
		return vmi.SetArg(dest, src)
	}
	vmi.State.SetReg(RegEAX, destVal)
	return nil
}

func xaddOp(vmi *VM, slot *PipelineSlot, hv Hypervisor) error {
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
	result, cf, of := addWithFlags(size, a.Raw(), b.Raw())
	vmi.State.Flags.updateArith(a.Raw(), b.Raw(), result, size)
	vmi.State.Flags.CF, vmi.State.Flags.OF = cf, of
	if err := vmi.SetArg(slot.Args[1], a); err != nil {
		return err
	}
	return vmi.SetArg(dest, sizedOf(size, result))
}
