package vm

// registerBCD installs the packed/unpacked BCD adjust opcodes. Their
// adjustment rules are the fixed, ad-hoc ones defined by the architecture
// rather than anything spec.md specifies; absent spec guidance, these
// follow the textbook IA-32 algorithms (the same ones qx86-rs's original
// implements).
func registerBCD(t *OpcodeTable) {
	setOp(t, 0x37, false, false, 0, Opcode{Function: aaaOp, GasCostTier: GasLow, Mnemonic: "aaa"})
	setOp(t, 0x3F, false, false, 0, Opcode{Function: aasOp, GasCostTier: GasLow, Mnemonic: "aas"})
	setOp(t, 0x27, false, false, 0, Opcode{Function: daaOp, GasCostTier: GasLow, Mnemonic: "daa"})
	setOp(t, 0x2F, false, false, 0, Opcode{Function: dasOp, GasCostTier: GasLow, Mnemonic: "das"})
	setOp(t, 0xD4, false, false, 0, Opcode{
		Function: aamOp, GasCostTier: GasModerate,
		ArgSize: [MaxArgs]ValueSize{SizeByte}, ArgSource: [MaxArgs]ArgSource{ArgSrcImmediateValue}, Mnemonic: "aam",
	})
	setOp(t, 0xD5, false, false, 0, Opcode{
		Function: aadOp, GasCostTier: GasModerate,
		ArgSize: [MaxArgs]ValueSize{SizeByte}, ArgSource: [MaxArgs]ArgSource{ArgSrcImmediateValue}, Mnemonic: "aad",
	})
}

const regAH = 4

func aaaOp(vmi *VM, slot *PipelineSlot, hv Hypervisor) error {
	al, _ := vmi.State.GetReg(RegEAX, SizeByte).U8Exact()
	ah, _ := vmi.State.GetReg(regAH, SizeByte).U8Exact()
	if al&0x0F > 9 || vmi.State.Flags.AF {
		al += 6
		ah++
		vmi.State.Flags.AF = true
		vmi.State.Flags.CF = true
	} else {
		vmi.State.Flags.AF = false
		vmi.State.Flags.CF = false
	}
	al &= 0x0F
	vmi.State.SetReg(RegEAX, ByteValue(al))
	vmi.State.SetReg(regAH, ByteValue(ah))
	return nil
}

func aasOp(vmi *VM, slot *PipelineSlot, hv Hypervisor) error {
	al, _ := vmi.State.GetReg(RegEAX, SizeByte).U8Exact()
	ah, _ := vmi.State.GetReg(regAH, SizeByte).U8Exact()
	if al&0x0F > 9 || vmi.State.Flags.AF {
		al -= 6
		ah--
		vmi.State.Flags.AF = true
		vmi.State.Flags.CF = true
	} else {
		vmi.State.Flags.AF = false
		vmi.State.Flags.CF = false
	}
	al &= 0x0F
	vmi.State.SetReg(RegEAX, ByteValue(al))
	vmi.State.SetReg(regAH, ByteValue(ah))
	return nil
}

func daaOp(vmi *VM, slot *PipelineSlot, hv Hypervisor) error {
	al, _ := vmi.State.GetReg(RegEAX, SizeByte).U8Exact()
	oldAL := al
	oldCF := vmi.State.Flags.CF
	cf := false
	af := vmi.State.Flags.AF
	if al&0x0F > 9 || af {
		cf = uint16(al)+6 > 0xFF || oldCF
		al += 6
		af = true
	} else {
		af = false
	}
	if oldAL > 0x99 || oldCF {
		al += 0x60
		cf = true
	}
	vmi.State.Flags.CF = cf
	vmi.State.Flags.AF = af
	vmi.State.Flags.SF = ComputeSign8(uint32(al))
	vmi.State.Flags.ZF = ComputeZero(uint32(al))
	vmi.State.Flags.PF = ComputeParity(uint32(al))
	vmi.State.SetReg(RegEAX, ByteValue(al))
	return nil
}

func dasOp(vmi *VM, slot *PipelineSlot, hv Hypervisor) error {
	al, _ := vmi.State.GetReg(RegEAX, SizeByte).U8Exact()
	oldAL := al
	oldCF := vmi.State.Flags.CF
	cf := false
	af := vmi.State.Flags.AF
	if al&0x0F > 9 || af {
		cf = al < 6 || oldCF
		al -= 6
		af = true
	} else {
		af = false
	}
	if oldAL > 0x99 || oldCF {
		al -= 0x60
		cf = true
	}
	vmi.State.Flags.CF = cf
	vmi.State.Flags.AF = af
	vmi.State.Flags.SF = ComputeSign8(uint32(al))
	vmi.State.Flags.ZF = ComputeZero(uint32(al))
	vmi.State.Flags.PF = ComputeParity(uint32(al))
	vmi.State.SetReg(RegEAX, ByteValue(al))
	return nil
}

func aamOp(vmi *VM, slot *PipelineSlot, hv Hypervisor) error {
	base, err := vmi.GetArg(slot.Args[0])
	if err != nil {
		return err
	}
	b, _ := base.U8Exact()
	if b == 0 {
		return ErrDivideByZeroErr
	}
	al, _ := vmi.State.GetReg(RegEAX, SizeByte).U8Exact()
	ah := al / b
	al = al % b
	vmi.State.SetReg(RegEAX, ByteValue(al))
	vmi.State.SetReg(regAH, ByteValue(ah))
	vmi.State.Flags.SF = ComputeSign8(uint32(al))
	vmi.State.Flags.ZF = ComputeZero(uint32(al))
	vmi.State.Flags.PF = ComputeParity(uint32(al))
	return nil
}

func aadOp(vmi *VM, slot *PipelineSlot, hv Hypervisor) error {
	base, err := vmi.GetArg(slot.Args[0])
	if err != nil {
		return err
	}
	b, _ := base.U8Exact()
	al, _ := vmi.State.GetReg(RegEAX, SizeByte).U8Exact()
	ah, _ := vmi.State.GetReg(regAH, SizeByte).U8Exact()
	al = byte(uint16(ah)*uint16(b)+uint16(al)) & 0xFF
	vmi.State.SetReg(RegEAX, ByteValue(al))
	vmi.State.SetReg(regAH, ByteValue(0))
	vmi.State.Flags.SF = ComputeSign8(uint32(al))
	vmi.State.Flags.ZF = ComputeZero(uint32(al))
	vmi.State.Flags.PF = ComputeParity(uint32(al))
	return nil
}
