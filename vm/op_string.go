package vm

// registerStringOps installs the implicit-operand string instructions:
// MOVS/LODS/STOS/CMPS/SCAS, each addressing memory through ESI and/or EDI
// and honoring DF for auto-increment direction. All accept the REP (0xF3)
// prefix; only CMPS/SCAS additionally accept REPNE (0xF2), since REPNE's
// ZF-based early exit only makes sense for a compare (spec §4.6).
func registerStringOps(t *OpcodeTable) {
	reg := func(opByte byte, override bool, size ValueSize, fn OpcodeFunc, name string, srcs [MaxArgs]ArgSource, repneValid bool) {
		setOp(t, opByte, false, override, 0, Opcode{
			Function: fn, GasCostTier: GasLow, RepValid: true, RepneValid: repneValid,
			ArgSize: [MaxArgs]ValueSize{size, size}, ArgSource: srcs, Mnemonic: name,
		})
	}

	reg(0xA4, false, SizeByte, movsOp, "movs", [MaxArgs]ArgSource{ArgSrcDestIndex, ArgSrcSourceIndex}, false)
	reg(0xA5, false, SizeDword, movsOp, "movs", [MaxArgs]ArgSource{ArgSrcDestIndex, ArgSrcSourceIndex}, false)
	reg(0xA5, true, SizeWord, movsOp, "movs", [MaxArgs]ArgSource{ArgSrcDestIndex, ArgSrcSourceIndex}, false)

	reg(0xAC, false, SizeByte, lodsOp, "lods", [MaxArgs]ArgSource{ArgSrcAccumulator, ArgSrcSourceIndex}, false)
	reg(0xAD, false, SizeDword, lodsOp, "lods", [MaxArgs]ArgSource{ArgSrcAccumulator, ArgSrcSourceIndex}, false)
	reg(0xAD, true, SizeWord, lodsOp, "lods", [MaxArgs]ArgSource{ArgSrcAccumulator, ArgSrcSourceIndex}, false)

	reg(0xAA, false, SizeByte, stosOp, "stos", [MaxArgs]ArgSource{ArgSrcDestIndex, ArgSrcAccumulator}, false)
	reg(0xAB, false, SizeDword, stosOp, "stos", [MaxArgs]ArgSource{ArgSrcDestIndex, ArgSrcAccumulator}, false)
	reg(0xAB, true, SizeWord, stosOp, "stos", [MaxArgs]ArgSource{ArgSrcDestIndex, ArgSrcAccumulator}, false)

	// CMPS/SCAS are the only string ops REPNE (0xF2) is valid on, since
	// REPNE's ZF-based early exit is only meaningful for a compare.
	reg(0xA6, false, SizeByte, cmpsOp, "cmps", [MaxArgs]ArgSource{ArgSrcSourceIndex, ArgSrcDestIndex}, true)
	reg(0xA7, false, SizeDword, cmpsOp, "cmps", [MaxArgs]ArgSource{ArgSrcSourceIndex, ArgSrcDestIndex}, true)
	reg(0xA7, true, SizeWord, cmpsOp, "cmps", [MaxArgs]ArgSource{ArgSrcSourceIndex, ArgSrcDestIndex}, true)

	reg(0xAE, false, SizeByte, scasOp, "scas", [MaxArgs]ArgSource{ArgSrcAccumulator, ArgSrcDestIndex}, true)
	reg(0xAF, false, SizeDword, scasOp, "scas", [MaxArgs]ArgSource{ArgSrcAccumulator, ArgSrcDestIndex}, true)
	reg(0xAF, true, SizeWord, scasOp, "scas", [MaxArgs]ArgSource{ArgSrcAccumulator, ArgSrcDestIndex}, true)
}

// advanceIndex moves the given register by size bytes, backward when DF is
// set, matching the auto-increment/decrement behavior of every string op.
func advanceIndex(vmi *VM, reg uint8, size ValueSize) {
	delta := size.Bytes()
	if vmi.State.Flags.DF {
		vmi.State.Regs[reg] -= delta
	} else {
		vmi.State.Regs[reg] += delta
	}
}

func movsOp(vmi *VM, slot *PipelineSlot, hv Hypervisor) error {
	size := slot.Args[0].Size
	v, err := vmi.GetArg(slot.Args[1])
	if err != nil {
		return err
	}
	if err := vmi.SetArg(slot.Args[0], v); err != nil {
		return err
	}
	advanceIndex(vmi, RegESI, size)
	advanceIndex(vmi, RegEDI, size)
	return nil
}

func lodsOp(vmi *VM, slot *PipelineSlot, hv Hypervisor) error {
	size := slot.Args[0].Size
	v, err := vmi.GetArg(slot.Args[1])
	if err != nil {
		return err
	}
	if err := vmi.SetArg(slot.Args[0], v); err != nil {
		return err
	}
	advanceIndex(vmi, RegESI, size)
	return nil
}

func stosOp(vmi *VM, slot *PipelineSlot, hv Hypervisor) error {
	size := slot.Args[0].Size
	v, err := vmi.GetArg(slot.Args[1])
	if err != nil {
		return err
	}
	if err := vmi.SetArg(slot.Args[0], v); err != nil {
		return err
	}
	advanceIndex(vmi, RegEDI, size)
	return nil
}

func cmpsOp(vmi *VM, slot *PipelineSlot, hv Hypervisor) error {
	size := slot.Args[0].Size
	a, err := vmi.GetArg(slot.Args[0])
	if err != nil {
		return err
	}
	b, err := vmi.GetArg(slot.Args[1])
	if err != nil {
		return err
	}
	result, cf, of := subWithFlags(size, a.Raw(), b.Raw())
	vmi.State.Flags.updateArith(a.Raw(), b.Raw(), result, size)
	vmi.State.Flags.CF = cf
	vmi.State.Flags.OF = of
	advanceIndex(vmi, RegESI, size)
	advanceIndex(vmi, RegEDI, size)
	return nil
}

func scasOp(vmi *VM, slot *PipelineSlot, hv Hypervisor) error {
	size := slot.Args[0].Size
	a, err := vmi.GetArg(slot.Args[0])
	if err != nil {
		return err
	}
	b, err := vmi.GetArg(slot.Args[1])
	if err != nil {
		return err
	}
	result, cf, of := subWithFlags(size, a.Raw(), b.Raw())
	vmi.State.Flags.updateArith(a.Raw(), b.Raw(), result, size)
	vmi.State.Flags.CF = cf
	vmi.State.Flags.OF = of
	advanceIndex(vmi, RegEDI, size)
	return nil
}

// isStringCompare reports whether the wrapped opcode's termination also
// depends on ZF (CMPS/SCAS), as opposed to ECX alone (MOVS/LODS/STOS).
func isStringCompare(opcodeByte byte) bool {
	switch opcodeByte {
	case 0xA6, 0xA7, 0xAE, 0xAF:
		return true
	default:
		return false
	}
}

// runRep drives the loop body a REP/REPNE meta-opcode slot wraps, charging
// RepGasCost per iteration itself rather than relying on cycle()'s
// per-slot pre-charge (which is zeroed for these slots), mirroring the
// reference implementation's repe()/repne() iteration-level accounting.
func runRep(vmi *VM, slot *PipelineSlot, hv Hypervisor, repWhileEqual bool) error {
	compare := isStringCompare(slot.OpcodeByte)
	for vmi.State.Regs[RegECX] != 0 {
		if slot.RepGasCost > vmi.State.GasRemaining {
			return ErrOutOfGasErr
		}
		vmi.State.GasRemaining -= slot.RepGasCost
		if err := slot.RepFunction(vmi, slot, hv); err != nil {
			return err
		}
		vmi.State.Regs[RegECX]--
		if compare {
			if repWhileEqual && !vmi.State.Flags.ZF {
				break
			}
			if !repWhileEqual && vmi.State.Flags.ZF {
				break
			}
		}
	}
	return nil
}

func repeHandler(vmi *VM, slot *PipelineSlot, hv Hypervisor) error {
	return runRep(vmi, slot, hv, true)
}

func repneHandler(vmi *VM, slot *PipelineSlot, hv Hypervisor) error {
	return runRep(vmi, slot, hv, false)
}
