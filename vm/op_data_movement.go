package vm

import "math/bits"

func registerDataMovement(t *OpcodeTable) {
	// MOV r/m8, r8 / r8, r/m8
	setOp(t, 0x88, false, false, 0, Opcode{
		Function: movOp, HasModRM: true, GasCostTier: GasVeryLow,
		ArgSize:   [MaxArgs]ValueSize{SizeByte, SizeByte},
		ArgSource: [MaxArgs]ArgSource{ArgSrcModRM, ArgSrcModRMReg},
		Mnemonic:  "mov",
	})
	setOp(t, 0x8A, false, false, 0, Opcode{
		Function: movOp, HasModRM: true, GasCostTier: GasVeryLow,
		ArgSize:   [MaxArgs]ValueSize{SizeByte, SizeByte},
		ArgSource: [MaxArgs]ArgSource{ArgSrcModRMReg, ArgSrcModRM},
		Mnemonic:  "mov",
	})
	// MOV r/m32, r32 and 16-bit (0x66) form
	setOp(t, 0x89, false, false, 0, Opcode{
		Function: movOp, HasModRM: true, GasCostTier: GasVeryLow,
		ArgSize:   [MaxArgs]ValueSize{SizeDword, SizeDword},
		ArgSource: [MaxArgs]ArgSource{ArgSrcModRM, ArgSrcModRMReg},
		Mnemonic:  "mov",
	})
	setOp(t, 0x89, false, true, 0, Opcode{
		Function: movOp, HasModRM: true, GasCostTier: GasVeryLow,
		ArgSize:   [MaxArgs]ValueSize{SizeWord, SizeWord},
		ArgSource: [MaxArgs]ArgSource{ArgSrcModRM, ArgSrcModRMReg},
		Mnemonic:  "mov",
	})
	setOp(t, 0x8B, false, false, 0, Opcode{
		Function: movOp, HasModRM: true, GasCostTier: GasVeryLow,
		ArgSize:   [MaxArgs]ValueSize{SizeDword, SizeDword},
		ArgSource: [MaxArgs]ArgSource{ArgSrcModRMReg, ArgSrcModRM},
		Mnemonic:  "mov",
	})
	setOp(t, 0x8B, false, true, 0, Opcode{
		Function: movOp, HasModRM: true, GasCostTier: GasVeryLow,
		ArgSize:   [MaxArgs]ValueSize{SizeWord, SizeWord},
		ArgSource: [MaxArgs]ArgSource{ArgSrcModRMReg, ArgSrcModRM},
		Mnemonic:  "mov",
	})

	// MOV r8, imm8 / r32(16), imm32(16)
	setRange(t, 0xB0, false, false, Opcode{
		Function: movOp, GasCostTier: GasVeryLow,
		ArgSize:   [MaxArgs]ValueSize{SizeByte, SizeByte},
		ArgSource: [MaxArgs]ArgSource{ArgSrcRegisterSuffix, ArgSrcImmediateValue},
		Mnemonic:  "mov",
	})
	setRange(t, 0xB8, false, false, Opcode{
		Function: movOp, GasCostTier: GasVeryLow,
		ArgSize:   [MaxArgs]ValueSize{SizeDword, SizeDword},
		ArgSource: [MaxArgs]ArgSource{ArgSrcRegisterSuffix, ArgSrcImmediateValue},
		Mnemonic:  "mov",
	})
	setRange(t, 0xB8, false, true, Opcode{
		Function: movOp, GasCostTier: GasVeryLow,
		ArgSize:   [MaxArgs]ValueSize{SizeWord, SizeWord},
		ArgSource: [MaxArgs]ArgSource{ArgSrcRegisterSuffix, ArgSrcImmediateValue},
		Mnemonic:  "mov",
	})

	// MOV r/m8, imm8 (group /0) and r/m32(16), imm32(16) (group /0)
	t.markGroup(0xC6, false)
	setOp(t, 0xC6, false, false, 0, Opcode{
		Function: movOp, HasModRM: true, GasCostTier: GasVeryLow,
		ArgSize:   [MaxArgs]ValueSize{SizeByte, SizeByte},
		ArgSource: [MaxArgs]ArgSource{ArgSrcModRM, ArgSrcImmediateValue},
		Mnemonic:  "mov",
	})
	t.markGroup(0xC7, false)
	setOp(t, 0xC7, false, false, 0, Opcode{
		Function: movOp, HasModRM: true, GasCostTier: GasVeryLow,
		ArgSize:   [MaxArgs]ValueSize{SizeDword, SizeDword},
		ArgSource: [MaxArgs]ArgSource{ArgSrcModRM, ArgSrcImmediateValue},
		Mnemonic:  "mov",
	})
	setOp(t, 0xC7, false, true, 0, Opcode{
		Function: movOp, HasModRM: true, GasCostTier: GasVeryLow,
		ArgSize:   [MaxArgs]ValueSize{SizeWord, SizeWord},
		ArgSource: [MaxArgs]ArgSource{ArgSrcModRM, ArgSrcImmediateValue},
		Mnemonic:  "mov",
	})

	// MOV AL/EAX, moffs and moffs, AL/EAX
	setOp(t, 0xA0, false, false, 0, Opcode{
		Function: movToAcc, GasCostTier: GasVeryLow,
		ArgSize:   [MaxArgs]ValueSize{SizeByte},
		ArgSource: [MaxArgs]ArgSource{ArgSrcImmediateAddress},
		Mnemonic:  "mov",
	})
	setOp(t, 0xA1, false, false, 0, Opcode{
		Function: movToAcc, GasCostTier: GasVeryLow,
		ArgSize:   [MaxArgs]ValueSize{SizeDword},
		ArgSource: [MaxArgs]ArgSource{ArgSrcImmediateAddress},
		Mnemonic:  "mov",
	})
	setOp(t, 0xA2, false, false, 0, Opcode{
		Function: movFromAcc, GasCostTier: GasVeryLow,
		ArgSize:   [MaxArgs]ValueSize{SizeByte},
		ArgSource: [MaxArgs]ArgSource{ArgSrcImmediateAddress},
		Mnemonic:  "mov",
	})
	setOp(t, 0xA3, false, false, 0, Opcode{
		Function: movFromAcc, GasCostTier: GasVeryLow,
		ArgSize:   [MaxArgs]ValueSize{SizeDword},
		ArgSource: [MaxArgs]ArgSource{ArgSrcImmediateAddress},
		Mnemonic:  "mov",
	})

	// MOVZX/MOVSX (two-byte opcodes)
	setOp(t, 0xB6, true, false, 0, Opcode{
		Function: movzxOp, HasModRM: true, GasCostTier: GasVeryLow,
		ArgSize:   [MaxArgs]ValueSize{SizeDword, SizeByte},
		ArgSource: [MaxArgs]ArgSource{ArgSrcModRMReg, ArgSrcModRM},
		Mnemonic:  "movzx",
	})
	setOp(t, 0xB7, true, false, 0, Opcode{
		Function: movzxOp, HasModRM: true, GasCostTier: GasVeryLow,
		ArgSize:   [MaxArgs]ValueSize{SizeDword, SizeWord},
		ArgSource: [MaxArgs]ArgSource{ArgSrcModRMReg, ArgSrcModRM},
		Mnemonic:  "movzx",
	})
	setOp(t, 0xBE, true, false, 0, Opcode{
		Function: movsxOp, HasModRM: true, GasCostTier: GasVeryLow,
		ArgSize:   [MaxArgs]ValueSize{SizeDword, SizeByte},
		ArgSource: [MaxArgs]ArgSource{ArgSrcModRMReg, ArgSrcModRM},
		Mnemonic:  "movsx",
	})
	setOp(t, 0xBF, true, false, 0, Opcode{
		Function: movsxOp, HasModRM: true, GasCostTier: GasVeryLow,
		ArgSize:   [MaxArgs]ValueSize{SizeDword, SizeWord},
		ArgSource: [MaxArgs]ArgSource{ArgSrcModRMReg, ArgSrcModRM},
		Mnemonic:  "movsx",
	})

	// XCHG
	setOp(t, 0x86, false, false, 0, Opcode{
		Function: xchgOp, HasModRM: true, GasCostTier: GasVeryLow,
		ArgSize:   [MaxArgs]ValueSize{SizeByte, SizeByte},
		ArgSource: [MaxArgs]ArgSource{ArgSrcModRM, ArgSrcModRMReg},
		Mnemonic:  "xchg",
	})
	setOp(t, 0x87, false, false, 0, Opcode{
		Function: xchgOp, HasModRM: true, GasCostTier: GasVeryLow,
		ArgSize:   [MaxArgs]ValueSize{SizeDword, SizeDword},
		ArgSource: [MaxArgs]ArgSource{ArgSrcModRM, ArgSrcModRMReg},
		Mnemonic:  "xchg",
	})
	setOp(t, 0x87, false, true, 0, Opcode{
		Function: xchgOp, HasModRM: true, GasCostTier: GasVeryLow,
		ArgSize:   [MaxArgs]ValueSize{SizeWord, SizeWord},
		ArgSource: [MaxArgs]ArgSource{ArgSrcModRM, ArgSrcModRMReg},
		Mnemonic:  "xchg",
	})
	setOp(t, 0x90, false, false, 0, Opcode{Function: nop, GasCostTier: GasVeryLow, Mnemonic: "nop"})
	fillOverrideGroups(t, composeIndex(0x90, false, false, 0)) // 0x66 nop decodes the same as plain nop
	for i := byte(0x91); i <= 0x97; i++ {
		setOp(t, i, false, false, 0, Opcode{
			Function: xchgOp, GasCostTier: GasVeryLow,
			ArgSize:   [MaxArgs]ValueSize{SizeDword, SizeDword},
			ArgSource: [MaxArgs]ArgSource{ArgSrcAccumulator, ArgSrcRegisterSuffix},
			Mnemonic:  "xchg",
		})
	}

	// LEA
	setOp(t, 0x8D, false, false, 0, Opcode{
		Function: leaOp, HasModRM: true, GasCostTier: GasVeryLow,
		ArgSize:   [MaxArgs]ValueSize{SizeDword, SizeDword},
		ArgSource: [MaxArgs]ArgSource{ArgSrcModRMReg, ArgSrcModRM},
		Mnemonic:  "lea",
	})

	// BSWAP
	setRange(t, 0xC8, true, false, Opcode{
		Function: bswapOp, GasCostTier: GasVeryLow,
		ArgSize:   [MaxArgs]ValueSize{SizeDword},
		ArgSource: [MaxArgs]ArgSource{ArgSrcRegisterSuffix},
		Mnemonic:  "bswap",
	})
}

func movOp(vmi *VM, slot *PipelineSlot, hv Hypervisor) error {
	v, err := vmi.GetArg(slot.Args[1])
	if err != nil {
		return err
	}
	return vmi.SetArg(slot.Args[0], v)
}

func movToAcc(vmi *VM, slot *PipelineSlot, hv Hypervisor) error {
	v, err := vmi.GetArg(slot.Args[0])
	if err != nil {
		return err
	}
	vmi.State.SetReg(RegEAX, v)
	return nil
}

func movFromAcc(vmi *VM, slot *PipelineSlot, hv Hypervisor) error {
	v := vmi.State.GetReg(RegEAX, slot.Args[0].Size)
	return vmi.SetArg(slot.Args[0], v)
}

func movzxOp(vmi *VM, slot *PipelineSlot, hv Hypervisor) error {
	v, err := vmi.GetArg(slot.Args[1])
	if err != nil {
		return err
	}
	return vmi.SetArg(slot.Args[0], DwordValue(v.U32ZeroExtend()))
}

func movsxOp(vmi *VM, slot *PipelineSlot, hv Hypervisor) error {
	v, err := vmi.GetArg(slot.Args[1])
	if err != nil {
		return err
	}
	return vmi.SetArg(slot.Args[0], DwordValue(v.U32SignExtend()))
}

func xchgOp(vmi *VM, slot *PipelineSlot, hv Hypervisor) error {
	a, err := vmi.GetArg(slot.Args[0])
	if err != nil {
		return err
	}
	b, err := vmi.GetArg(slot.Args[1])
	if err != nil {
		return err
	}
	if err := vmi.SetArg(slot.Args[0], b); err != nil {
		return err
	}
	return vmi.SetArg(slot.Args[1], a)
}

func leaOp(vmi *VM, slot *PipelineSlot, hv Hypervisor) error {
	addr, ok := vmi.GetArgAddress(slot.Args[1])
	if !ok {
		return newErr(ErrInvalidOpcodeEncoding)
	}
	return vmi.SetArg(slot.Args[0], sizedOf(slot.Args[0].Size, addr))
}

func bswapOp(vmi *VM, slot *PipelineSlot, hv Hypervisor) error {
	v, err := vmi.GetArg(slot.Args[0])
	if err != nil {
		return err
	}
	raw, err := v.U32Exact()
	if err != nil {
		return err
	}
	return vmi.SetArg(slot.Args[0], DwordValue(bits.ReverseBytes32(raw)))
}
