package vm

// registerCondMoveSet installs CMOVcc and SETcc for all 16 condition codes
// (spec §4.6 condition-code table, shared with Jcc via condition.go).
func registerCondMoveSet(t *OpcodeTable) {
	for cc := byte(0); cc < 16; cc++ {
		setOp(t, 0x40+cc, true, false, 0, Opcode{
			Function: cmovOp, HasModRM: true, GasCostTier: GasLow,
			ArgSize:   [MaxArgs]ValueSize{SizeDword, SizeDword},
			ArgSource: [MaxArgs]ArgSource{ArgSrcModRMReg, ArgSrcModRM}, Mnemonic: "cmovcc",
		})
		setOp(t, 0x40+cc, true, true, 0, Opcode{
			Function: cmovOp, HasModRM: true, GasCostTier: GasLow,
			ArgSize:   [MaxArgs]ValueSize{SizeWord, SizeWord},
			ArgSource: [MaxArgs]ArgSource{ArgSrcModRMReg, ArgSrcModRM}, Mnemonic: "cmovcc",
		})
		setOp(t, 0x90+cc, true, false, 0, Opcode{
			Function: setccOp, HasModRM: true, GasCostTier: GasVeryLow,
			ArgSize:   [MaxArgs]ValueSize{SizeByte},
			ArgSource: [MaxArgs]ArgSource{ArgSrcModRM}, Mnemonic: "setcc",
		})
	}
}

func cmovOp(vmi *VM, slot *PipelineSlot, hv Hypervisor) error {
	if !conditionMatches(slot.OpcodeByte, vmi.State.Flags) {
		return nil
	}
	v, err := vmi.GetArg(slot.Args[1])
	if err != nil {
		return err
	}
	return vmi.SetArg(slot.Args[0], v)
}

func setccOp(vmi *VM, slot *PipelineSlot, hv Hypervisor) error {
	v := uint8(0)
	if conditionMatches(slot.OpcodeByte, vmi.State.Flags) {
		v = 1
	}
	return vmi.SetArg(slot.Args[0], ByteValue(v))
}
