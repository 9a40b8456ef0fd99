package vm

func registerLogic(t *OpcodeTable) {
	registerAluFamily(t, 0x08, orOp, "or")
	registerAluFamily(t, 0x20, andOp, "and")
	registerAluFamily(t, 0x30, xorOp, "xor")

	setOp(t, 0x84, false, false, 0, Opcode{
		Function: testOp, HasModRM: true, GasCostTier: GasVeryLow,
		ArgSize:   [MaxArgs]ValueSize{SizeByte, SizeByte},
		ArgSource: [MaxArgs]ArgSource{ArgSrcModRM, ArgSrcModRMReg},
		Mnemonic:  "test",
	})
	setOp(t, 0x85, false, false, 0, Opcode{
		Function: testOp, HasModRM: true, GasCostTier: GasVeryLow,
		ArgSize:   [MaxArgs]ValueSize{SizeDword, SizeDword},
		ArgSource: [MaxArgs]ArgSource{ArgSrcModRM, ArgSrcModRMReg},
		Mnemonic:  "test",
	})
	setOp(t, 0x85, false, true, 0, Opcode{
		Function: testOp, HasModRM: true, GasCostTier: GasVeryLow,
		ArgSize:   [MaxArgs]ValueSize{SizeWord, SizeWord},
		ArgSource: [MaxArgs]ArgSource{ArgSrcModRM, ArgSrcModRMReg},
		Mnemonic:  "test",
	})
	setOp(t, 0xA8, false, false, 0, Opcode{
		Function: testOp, GasCostTier: GasVeryLow,
		ArgSize:   [MaxArgs]ValueSize{SizeByte, SizeByte},
		ArgSource: [MaxArgs]ArgSource{ArgSrcAccumulator, ArgSrcImmediateValue},
		Mnemonic:  "test",
	})
	setOp(t, 0xA9, false, false, 0, Opcode{
		Function: testOp, GasCostTier: GasVeryLow,
		ArgSize:   [MaxArgs]ValueSize{SizeDword, SizeDword},
		ArgSource: [MaxArgs]ArgSource{ArgSrcAccumulator, ArgSrcImmediateValue},
		Mnemonic:  "test",
	})
	setOp(t, 0xA9, false, true, 0, Opcode{
		Function: testOp, GasCostTier: GasVeryLow,
		ArgSize:   [MaxArgs]ValueSize{SizeWord, SizeWord},
		ArgSource: [MaxArgs]ArgSource{ArgSrcAccumulator, ArgSrcImmediateValue},
		Mnemonic:  "test",
	})
	setOp(t, 0xF6, false, false, 0, Opcode{
		Function: testOp, HasModRM: true, GasCostTier: GasVeryLow,
		ArgSize:   [MaxArgs]ValueSize{SizeByte, SizeByte},
		ArgSource: [MaxArgs]ArgSource{ArgSrcModRM, ArgSrcImmediateValue},
		Mnemonic:  "test",
	})
	setOp(t, 0xF7, false, false, 0, Opcode{
		Function: testOp, HasModRM: true, GasCostTier: GasVeryLow,
		ArgSize:   [MaxArgs]ValueSize{SizeDword, SizeDword},
		ArgSource: [MaxArgs]ArgSource{ArgSrcModRM, ArgSrcImmediateValue},
		Mnemonic:  "test",
	})
	setOp(t, 0xF7, false, true, 0, Opcode{
		Function: testOp, HasModRM: true, GasCostTier: GasVeryLow,
		ArgSize:   [MaxArgs]ValueSize{SizeWord, SizeWord},
		ArgSource: [MaxArgs]ArgSource{ArgSrcModRM, ArgSrcImmediateValue},
		Mnemonic:  "test",
	})

	setOp(t, 0xF6, false, false, 2, Opcode{
		Function: notOp, HasModRM: true, GasCostTier: GasVeryLow,
		ArgSize:   [MaxArgs]ValueSize{SizeByte},
		ArgSource: [MaxArgs]ArgSource{ArgSrcModRM},
		Mnemonic:  "not",
	})
	setOp(t, 0xF7, false, false, 2, Opcode{
		Function: notOp, HasModRM: true, GasCostTier: GasVeryLow,
		ArgSize:   [MaxArgs]ValueSize{SizeDword},
		ArgSource: [MaxArgs]ArgSource{ArgSrcModRM},
		Mnemonic:  "not",
	})
	setOp(t, 0xF7, false, true, 2, Opcode{
		Function: notOp, HasModRM: true, GasCostTier: GasVeryLow,
		ArgSize:   [MaxArgs]ValueSize{SizeWord},
		ArgSource: [MaxArgs]ArgSource{ArgSrcModRM},
		Mnemonic:  "not",
	})
}

// updateLogic sets ZF/SF/PF from a bitwise result and clears CF/OF/AF, the
// flag behavior shared by AND/OR/XOR/TEST. AF is architecturally undefined
// after a logical instruction; this emulator models it as cleared.
func updateLogic(f *Flags, result uint32, size ValueSize) {
	masked := result & sizeMask(size)
	f.ZF = ComputeZero(masked)
	f.SF = ComputeSign(masked, size)
	f.PF = ComputeParity(masked)
	f.AF = false
	f.CF = false
	f.OF = false
}

func andOp(vmi *VM, slot *PipelineSlot, hv Hypervisor) error {
	dest, a, b, err := binaryArgs(vmi, slot)
	if err != nil {
		return err
	}
	size := dest.Size
	result := a.Raw() & b.U32SignExtend()
	updateLogic(&vmi.State.Flags, result, size)
	return vmi.SetArg(dest, sizedOf(size, result))
}

func orOp(vmi *VM, slot *PipelineSlot, hv Hypervisor) error {
	dest, a, b, err := binaryArgs(vmi, slot)
	if err != nil {
		return err
	}
	size := dest.Size
	result := a.Raw() | b.U32SignExtend()
	updateLogic(&vmi.State.Flags, result, size)
	return vmi.SetArg(dest, sizedOf(size, result))
}

func xorOp(vmi *VM, slot *PipelineSlot, hv Hypervisor) error {
	dest, a, b, err := binaryArgs(vmi, slot)
	if err != nil {
		return err
	}
	size := dest.Size
	result := a.Raw() ^ b.U32SignExtend()
	updateLogic(&vmi.State.Flags, result, size)
	return vmi.SetArg(dest, sizedOf(size, result))
}

func testOp(vmi *VM, slot *PipelineSlot, hv Hypervisor) error {
	dest, a, b, err := binaryArgs(vmi, slot)
	if err != nil {
		return err
	}
	size := dest.Size
	result := a.Raw() & b.U32SignExtend()
	updateLogic(&vmi.State.Flags, result, size)
	return nil
}

func notOp(vmi *VM, slot *PipelineSlot, hv Hypervisor) error {
	dest := slot.Args[0]
	a, err := vmi.GetArg(dest)
	if err != nil {
		return err
	}
	return vmi.SetArg(dest, sizedOf(dest.Size, ^a.Raw()))
}
