package vm

func registerStack(t *OpcodeTable) {
	setRange(t, 0x50, false, false, Opcode{
		Function: pushOp, GasCostTier: GasLow,
		ArgSize:   [MaxArgs]ValueSize{SizeDword},
		ArgSource: [MaxArgs]ArgSource{ArgSrcRegisterSuffix},
		Mnemonic:  "push",
	})
	setRange(t, 0x50, false, true, Opcode{
		Function: pushOp, GasCostTier: GasLow,
		ArgSize:   [MaxArgs]ValueSize{SizeWord},
		ArgSource: [MaxArgs]ArgSource{ArgSrcRegisterSuffix},
		Mnemonic:  "push",
	})
	setRange(t, 0x58, false, false, Opcode{
		Function: popOp, GasCostTier: GasLow,
		ArgSize:   [MaxArgs]ValueSize{SizeDword},
		ArgSource: [MaxArgs]ArgSource{ArgSrcRegisterSuffix},
		Mnemonic:  "pop",
	})
	setRange(t, 0x58, false, true, Opcode{
		Function: popOp, GasCostTier: GasLow,
		ArgSize:   [MaxArgs]ValueSize{SizeWord},
		ArgSource: [MaxArgs]ArgSource{ArgSrcRegisterSuffix},
		Mnemonic:  "pop",
	})

	setOp(t, 0x68, false, false, 0, Opcode{
		Function: pushOp, GasCostTier: GasLow,
		ArgSize:   [MaxArgs]ValueSize{SizeDword},
		ArgSource: [MaxArgs]ArgSource{ArgSrcImmediateValue},
		Mnemonic:  "push",
	})
	setOp(t, 0x68, false, true, 0, Opcode{
		Function: pushOp, GasCostTier: GasLow,
		ArgSize:   [MaxArgs]ValueSize{SizeWord},
		ArgSource: [MaxArgs]ArgSource{ArgSrcImmediateValue},
		Mnemonic:  "push",
	})
	setOp(t, 0x6A, false, false, 0, Opcode{
		Function: pushImm8Op, GasCostTier: GasLow,
		ArgSize:   [MaxArgs]ValueSize{SizeByte},
		ArgSource: [MaxArgs]ArgSource{ArgSrcImmediateValue},
		Mnemonic:  "push",
	})

	t.markGroup(0xFF, false)
	setOp(t, 0xFF, false, false, 6, Opcode{
		Function: pushOp, HasModRM: true, GasCostTier: GasLow,
		ArgSize:   [MaxArgs]ValueSize{SizeDword},
		ArgSource: [MaxArgs]ArgSource{ArgSrcModRM},
		Mnemonic:  "push",
	})
	t.markGroup(0x8F, false)
	setOp(t, 0x8F, false, false, 0, Opcode{
		Function: popOp, HasModRM: true, GasCostTier: GasLow,
		ArgSize:   [MaxArgs]ValueSize{SizeDword},
		ArgSource: [MaxArgs]ArgSource{ArgSrcModRM},
		Mnemonic:  "pop",
	})

	setOp(t, 0x60, false, false, 0, Opcode{Function: pushaOp, GasCostTier: GasModerate, Mnemonic: "pusha"})
	setOp(t, 0x60, false, true, 0, Opcode{Function: pushaOp, GasCostTier: GasModerate, Mnemonic: "pusha"})
	setOp(t, 0x61, false, false, 0, Opcode{Function: popaOp, GasCostTier: GasModerate, Mnemonic: "popa"})
	setOp(t, 0x61, false, true, 0, Opcode{Function: popaOp, GasCostTier: GasModerate, Mnemonic: "popa"})

	setOp(t, 0x9C, false, false, 0, Opcode{Function: pushfOp, GasCostTier: GasLow, Mnemonic: "pushf"})
	setOp(t, 0x9C, false, true, 0, Opcode{Function: pushfOp, GasCostTier: GasLow, Mnemonic: "pushf"})
	setOp(t, 0x9D, false, false, 0, Opcode{Function: popfOp, GasCostTier: GasLow, Mnemonic: "popf"})
	setOp(t, 0x9D, false, true, 0, Opcode{Function: popfOp, GasCostTier: GasLow, Mnemonic: "popf"})

	setOp(t, 0x9F, false, false, 0, Opcode{Function: lahfOp, GasCostTier: GasVeryLow, Mnemonic: "lahf"})
	setOp(t, 0x9E, false, false, 0, Opcode{Function: sahfOp, GasCostTier: GasVeryLow, Mnemonic: "sahf"})

	setOp(t, 0xC8, false, false, 0, Opcode{
		Function: enterOp, GasCostTier: GasModerate,
		ArgSize:   [MaxArgs]ValueSize{SizeWord, SizeByte},
		ArgSource: [MaxArgs]ArgSource{ArgSrcImmediateValue, ArgSrcImmediateValue},
		Mnemonic:  "enter",
	})
	setOp(t, 0xC9, false, false, 0, Opcode{Function: leaveOp, GasCostTier: GasLow, Mnemonic: "leave"})
}

func pushValue(vmi *VM, v SizedValue) error {
	newEsp := vmi.State.Regs[RegESP] - v.Size().Bytes()
	if err := vmi.Memory.SetSized(newEsp, v); err != nil {
		return err
	}
	vmi.State.Regs[RegESP] = newEsp
	return nil
}

func popValue(vmi *VM, size ValueSize) (SizedValue, error) {
	esp := vmi.State.Regs[RegESP]
	v, err := vmi.Memory.GetSized(esp, size)
	if err != nil {
		return NoneValue, err
	}
	vmi.State.Regs[RegESP] = esp + size.Bytes()
	return v, nil
}

func pushOp(vmi *VM, slot *PipelineSlot, hv Hypervisor) error {
	v, err := vmi.GetArg(slot.Args[0])
	if err != nil {
		return err
	}
	return pushValue(vmi, v)
}

func pushImm8Op(vmi *VM, slot *PipelineSlot, hv Hypervisor) error {
	v, err := vmi.GetArg(slot.Args[0])
	if err != nil {
		return err
	}
	size := SizeDword
	if slot.SizeOverride {
		size = SizeWord
	}
	return pushValue(vmi, sizedOf(size, v.U32SignExtend()))
}

func popOp(vmi *VM, slot *PipelineSlot, hv Hypervisor) error {
	v, err := popValue(vmi, slot.Args[0].Size)
	if err != nil {
		return err
	}
	return vmi.SetArg(slot.Args[0], v)
}

var pushaRegs = [8]uint8{RegEAX, RegECX, RegEDX, RegEBX, RegESP, RegEBP, RegESI, RegEDI}

func pushaOp(vmi *VM, slot *PipelineSlot, hv Hypervisor) error {
	size := SizeDword
	if slot.SizeOverride {
		size = SizeWord
	}
	originalESP := vmi.State.Regs[RegESP]
	for _, r := range pushaRegs {
		v := vmi.State.GetReg(r, size)
		if r == RegESP {
			v = sizedOf(size, originalESP)
		}
		if err := pushValue(vmi, v); err != nil {
			return err
		}
	}
	return nil
}

func popaOp(vmi *VM, slot *PipelineSlot, hv Hypervisor) error {
	size := SizeDword
	if slot.SizeOverride {
		size = SizeWord
	}
	for i := len(pushaRegs) - 1; i >= 0; i-- {
		v, err := popValue(vmi, size)
		if err != nil {
			return err
		}
		if pushaRegs[i] == RegESP {
			continue
		}
		vmi.State.SetReg(pushaRegs[i], v)
	}
	return nil
}

func pushfOp(vmi *VM, slot *PipelineSlot, hv Hypervisor) error {
	size := SizeDword
	if slot.SizeOverride {
		size = SizeWord
	}
	return pushValue(vmi, sizedOf(size, vmi.State.Flags.Serialize()))
}

func popfOp(vmi *VM, slot *PipelineSlot, hv Hypervisor) error {
	size := SizeDword
	if slot.SizeOverride {
		size = SizeWord
	}
	v, err := popValue(vmi, size)
	if err != nil {
		return err
	}
	vmi.State.Flags.Deserialize(v.U32ZeroExtend())
	return nil
}

func lahfOp(vmi *VM, slot *PipelineSlot, hv Hypervisor) error {
	ah := byte(vmi.State.Flags.Serialize() & 0xFF)
	vmi.State.SetReg(4, ByteValue(ah))
	return nil
}

func sahfOp(vmi *VM, slot *PipelineSlot, hv Hypervisor) error {
	ah, err := vmi.State.GetReg(4, SizeByte).U8Exact()
	if err != nil {
		return err
	}
	f := &vmi.State.Flags
	f.CF = ah&eflagsCF != 0
	f.PF = ah&eflagsPF != 0
	f.AF = ah&eflagsAF != 0
	f.ZF = ah&eflagsZF != 0
	f.SF = ah&eflagsSF != 0
	return nil
}

func enterOp(vmi *VM, slot *PipelineSlot, hv Hypervisor) error {
	frameSize, err := vmi.GetArg(slot.Args[0])
	if err != nil {
		return err
	}
	nesting, err := vmi.GetArg(slot.Args[1])
	if err != nil {
		return err
	}
	level, _ := nesting.U8Exact()
	level &= 0x1F

	if err := pushValue(vmi, DwordValue(vmi.State.Regs[RegEBP])); err != nil {
		return err
	}
	frameTemp := vmi.State.Regs[RegESP]
	for i := uint8(1); i < level; i++ {
		vmi.State.Regs[RegEBP] -= 4
		v, err := vmi.Memory.GetU32(vmi.State.Regs[RegEBP])
		if err != nil {
			return err
		}
		if err := pushValue(vmi, DwordValue(v)); err != nil {
			return err
		}
	}
	if level > 0 {
		if err := pushValue(vmi, DwordValue(frameTemp)); err != nil {
			return err
		}
	}
	vmi.State.Regs[RegEBP] = frameTemp
	vmi.State.Regs[RegESP] -= frameSize.U32ZeroExtend()
	return nil
}

func leaveOp(vmi *VM, slot *PipelineSlot, hv Hypervisor) error {
	vmi.State.Regs[RegESP] = vmi.State.Regs[RegEBP]
	v, err := popValue(vmi, SizeDword)
	if err != nil {
		return err
	}
	vmi.State.Regs[RegEBP], _ = v.U32Exact()
	return nil
}
