package vm

// registerFlagsControl installs the single-flag-bit set/clear/complement
// opcodes.
func registerFlagsControl(t *OpcodeTable) {
	setOp(t, 0xF8, false, false, 0, Opcode{Function: clcOp, GasCostTier: GasVeryLow, Mnemonic: "clc"})
	setOp(t, 0xF9, false, false, 0, Opcode{Function: stcOp, GasCostTier: GasVeryLow, Mnemonic: "stc"})
	setOp(t, 0xF5, false, false, 0, Opcode{Function: cmcOp, GasCostTier: GasVeryLow, Mnemonic: "cmc"})
	setOp(t, 0xFC, false, false, 0, Opcode{Function: cldOp, GasCostTier: GasVeryLow, Mnemonic: "cld"})
	setOp(t, 0xFD, false, false, 0, Opcode{Function: stdOp, GasCostTier: GasVeryLow, Mnemonic: "std"})
}

func clcOp(vmi *VM, slot *PipelineSlot, hv Hypervisor) error {
	vmi.State.Flags.CF = false
	return nil
}

func stcOp(vmi *VM, slot *PipelineSlot, hv Hypervisor) error {
	vmi.State.Flags.CF = true
	return nil
}

func cmcOp(vmi *VM, slot *PipelineSlot, hv Hypervisor) error {
	vmi.State.Flags.CF = !vmi.State.Flags.CF
	return nil
}

func cldOp(vmi *VM, slot *PipelineSlot, hv Hypervisor) error {
	vmi.State.Flags.DF = false
	return nil
}

func stdOp(vmi *VM, slot *PipelineSlot, hv Hypervisor) error {
	vmi.State.Flags.DF = true
	return nil
}
