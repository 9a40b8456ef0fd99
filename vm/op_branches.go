package vm

// Every control-flow-altering opcode is tagged JumpConditional, whether or
// not its target is statically known: the dumb, sequential pipeline
// executor must never run a slot decoded from straight-line bytes that
// turned out not to be what actually executes next, so filling always
// stops right after one of these. PipelineSize mostly sets how often
// decoding re-runs (see decoder.go), so stopping early here costs nothing but an
// extra FillPipeline call; the reference implementation makes the same
// call even for the obviously-not-a-branch HLT opcode.
func registerBranches(t *OpcodeTable) {
	setOp(t, 0xEB, false, false, 0, Opcode{
		Function: jmpOp, GasCostTier: GasLow, JumpBehavior: JumpConditional,
		ArgSize: [MaxArgs]ValueSize{SizeByte}, ArgSource: [MaxArgs]ArgSource{ArgSrcJumpRel}, Mnemonic: "jmp",
	})
	setOp(t, 0xE9, false, false, 0, Opcode{
		Function: jmpOp, GasCostTier: GasLow, JumpBehavior: JumpConditional,
		ArgSize: [MaxArgs]ValueSize{SizeDword}, ArgSource: [MaxArgs]ArgSource{ArgSrcJumpRel}, Mnemonic: "jmp",
	})
	setOp(t, 0xE9, false, true, 0, Opcode{
		Function: jmpOp, GasCostTier: GasLow, JumpBehavior: JumpConditional,
		ArgSize: [MaxArgs]ValueSize{SizeWord}, ArgSource: [MaxArgs]ArgSource{ArgSrcJumpRel}, Mnemonic: "jmp",
	})
	t.markGroup(0xFF, false)
	setOp(t, 0xFF, false, false, 4, Opcode{
		Function: jmpIndirectOp, HasModRM: true, GasCostTier: GasLow, JumpBehavior: JumpConditional,
		ArgSize: [MaxArgs]ValueSize{SizeDword}, ArgSource: [MaxArgs]ArgSource{ArgSrcModRM}, Mnemonic: "jmp",
	})

	for cc := byte(0); cc < 16; cc++ {
		setOp(t, 0x70+cc, false, false, 0, Opcode{
			Function: jccOp, GasCostTier: GasLow, JumpBehavior: JumpConditional,
			ArgSize: [MaxArgs]ValueSize{SizeByte}, ArgSource: [MaxArgs]ArgSource{ArgSrcJumpRel}, Mnemonic: "jcc",
		})
		setOp(t, 0x80+cc, true, false, 0, Opcode{
			Function: jccOp, GasCostTier: GasLow, JumpBehavior: JumpConditional,
			ArgSize: [MaxArgs]ValueSize{SizeDword}, ArgSource: [MaxArgs]ArgSource{ArgSrcJumpRel}, Mnemonic: "jcc",
		})
		setOp(t, 0x80+cc, true, true, 0, Opcode{
			Function: jccOp, GasCostTier: GasLow, JumpBehavior: JumpConditional,
			ArgSize: [MaxArgs]ValueSize{SizeWord}, ArgSource: [MaxArgs]ArgSource{ArgSrcJumpRel}, Mnemonic: "jcc",
		})
	}

	setOp(t, 0xE3, false, false, 0, Opcode{
		Function: jecxzOp, GasCostTier: GasLow, JumpBehavior: JumpConditional,
		ArgSize: [MaxArgs]ValueSize{SizeByte}, ArgSource: [MaxArgs]ArgSource{ArgSrcJumpRel}, Mnemonic: "jecxz",
	})

	setOp(t, 0xE8, false, false, 0, Opcode{
		Function: callOp, GasCostTier: GasLow, JumpBehavior: JumpConditional,
		ArgSize: [MaxArgs]ValueSize{SizeDword}, ArgSource: [MaxArgs]ArgSource{ArgSrcJumpRel}, Mnemonic: "call",
	})
	setOp(t, 0xFF, false, false, 2, Opcode{
		Function: callIndirectOp, HasModRM: true, GasCostTier: GasLow, JumpBehavior: JumpConditional,
		ArgSize: [MaxArgs]ValueSize{SizeDword}, ArgSource: [MaxArgs]ArgSource{ArgSrcModRM}, Mnemonic: "call",
	})

	setOp(t, 0xC3, false, false, 0, Opcode{
		Function: retOp, GasCostTier: GasLow, JumpBehavior: JumpConditional, Mnemonic: "ret",
	})
	setOp(t, 0xC2, false, false, 0, Opcode{
		Function: retImmOp, GasCostTier: GasLow, JumpBehavior: JumpConditional,
		ArgSize: [MaxArgs]ValueSize{SizeWord}, ArgSource: [MaxArgs]ArgSource{ArgSrcImmediateValue}, Mnemonic: "ret",
	})
}

// branchTo sets EIP so that, after cycle()'s unconditional EIP +=
// slot.EIPSize, the VM lands exactly on target. A size-override prefix on
// the branch truncates the result to 16 bits (spec §6, instruction encoding).
func branchTo(vmi *VM, slot *PipelineSlot, target uint32) {
	eip := target - uint32(slot.EIPSize)
	if slot.SizeOverride {
		eip &= 0xFFFF
	}
	vmi.State.EIP = eip
}

func jmpOp(vmi *VM, slot *PipelineSlot, hv Hypervisor) error {
	target, err := vmi.GetArg(slot.Args[0])
	if err != nil {
		return err
	}
	branchTo(vmi, slot, target.Raw())
	return nil
}

func jmpIndirectOp(vmi *VM, slot *PipelineSlot, hv Hypervisor) error {
	target, err := vmi.GetArg(slot.Args[0])
	if err != nil {
		return err
	}
	branchTo(vmi, slot, target.Raw())
	return nil
}

func jccOp(vmi *VM, slot *PipelineSlot, hv Hypervisor) error {
	if !conditionMatches(slot.OpcodeByte, vmi.State.Flags) {
		return nil
	}
	target, err := vmi.GetArg(slot.Args[0])
	if err != nil {
		return err
	}
	branchTo(vmi, slot, target.Raw())
	return nil
}

func jecxzOp(vmi *VM, slot *PipelineSlot, hv Hypervisor) error {
	if vmi.State.Regs[RegECX] != 0 {
		return nil
	}
	target, err := vmi.GetArg(slot.Args[0])
	if err != nil {
		return err
	}
	branchTo(vmi, slot, target.Raw())
	return nil
}

func callOp(vmi *VM, slot *PipelineSlot, hv Hypervisor) error {
	target, err := vmi.GetArg(slot.Args[0])
	if err != nil {
		return err
	}
	retAddr := vmi.State.EIP + uint32(slot.EIPSize)
	if err := pushValue(vmi, DwordValue(retAddr)); err != nil {
		return err
	}
	branchTo(vmi, slot, target.Raw())
	return nil
}

func callIndirectOp(vmi *VM, slot *PipelineSlot, hv Hypervisor) error {
	target, err := vmi.GetArg(slot.Args[0])
	if err != nil {
		return err
	}
	retAddr := vmi.State.EIP + uint32(slot.EIPSize)
	if err := pushValue(vmi, DwordValue(retAddr)); err != nil {
		return err
	}
	branchTo(vmi, slot, target.Raw())
	return nil
}

func retOp(vmi *VM, slot *PipelineSlot, hv Hypervisor) error {
	target, err := popValue(vmi, SizeDword)
	if err != nil {
		return err
	}
	branchTo(vmi, slot, target.Raw())
	return nil
}

func retImmOp(vmi *VM, slot *PipelineSlot, hv Hypervisor) error {
	target, err := popValue(vmi, SizeDword)
	if err != nil {
		return err
	}
	extra, err := vmi.GetArg(slot.Args[0])
	if err != nil {
		return err
	}
	vmi.State.Regs[RegESP] += extra.U32ZeroExtend()
	branchTo(vmi, slot, target.Raw())
	return nil
}
