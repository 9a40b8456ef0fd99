package vm

// registerMisc installs HLT, software interrupts, and the sign-extending
// accumulator-widening opcodes (CBW/CWDE, CWD/CDQ) that the distilled spec
// left out of its opcode table but a complete IA-32 subset needs (supplied
// from general knowledge of the architecture, same category as the BCD
// adjust opcodes in op_bcd.go).
func registerMisc(t *OpcodeTable) {
	setOp(t, 0xF4, false, false, 0, Opcode{Function: hltOp, GasCostTier: GasNone, Mnemonic: "hlt"})
	fillOverrideGroups(t, composeIndex(0xF4, false, false, 0)) // 0x66 hlt decodes the same as plain hlt
	setOp(t, 0xCD, false, false, 0, Opcode{
		Function: intOp, GasCostTier: GasHigh,
		ArgSize: [MaxArgs]ValueSize{SizeByte}, ArgSource: [MaxArgs]ArgSource{ArgSrcImmediateValue}, Mnemonic: "int",
	})
	setOp(t, 0xCC, false, false, 0, Opcode{Function: int3Op, GasCostTier: GasHigh, Mnemonic: "int3"})
	setOp(t, 0x98, false, false, 0, Opcode{Function: cbwCwdeOp, GasCostTier: GasVeryLow, Mnemonic: "cwde"})
	setOp(t, 0x98, false, true, 0, Opcode{Function: cbwCwdeOp, GasCostTier: GasVeryLow, Mnemonic: "cbw"})
	setOp(t, 0x99, false, false, 0, Opcode{Function: cwdCdqOp, GasCostTier: GasVeryLow, Mnemonic: "cdq"})
	setOp(t, 0x99, false, true, 0, Opcode{Function: cwdCdqOp, GasCostTier: GasVeryLow, Mnemonic: "cwd"})
}

func hltOp(vmi *VM, slot *PipelineSlot, hv Hypervisor) error {
	return ErrInternalVMStopErr
}

func intOp(vmi *VM, slot *PipelineSlot, hv Hypervisor) error {
	v, err := vmi.GetArg(slot.Args[0])
	if err != nil {
		return err
	}
	num, _ := v.U8Exact()
	return hv.Interrupt(&vmi.State, num)
}

func int3Op(vmi *VM, slot *PipelineSlot, hv Hypervisor) error {
	return hv.Interrupt(&vmi.State, 3)
}

func cbwCwdeOp(vmi *VM, slot *PipelineSlot, hv Hypervisor) error {
	if slot.SizeOverride {
		al, _ := vmi.State.GetReg(RegEAX, SizeByte).U8Exact()
		vmi.State.SetReg(RegEAX, WordValue(uint16(int16(int8(al)))))
		return nil
	}
	ax, _ := vmi.State.GetReg(RegEAX, SizeWord).U16Exact()
	vmi.State.SetReg(RegEAX, DwordValue(uint32(int32(int16(ax)))))
	return nil
}

func cwdCdqOp(vmi *VM, slot *PipelineSlot, hv Hypervisor) error {
	if slot.SizeOverride {
		ax, _ := vmi.State.GetReg(RegEAX, SizeWord).U16Exact()
		var dx uint16
		if int16(ax) < 0 {
			dx = 0xFFFF
		}
		vmi.State.SetReg(RegEDX, WordValue(dx))
		return nil
	}
	eax := vmi.State.GetReg(RegEAX, SizeDword).Raw()
	var edx uint32
	if int32(eax) < 0 {
		edx = 0xFFFFFFFF
	}
	vmi.State.SetReg(RegEDX, DwordValue(edx))
	return nil
}
