package vm

import "math/bits"

// registerBitOps installs BT/BTS/BTR/BTC (register-index and immediate-index
// group forms) and BSF/BSR.
func registerBitOps(t *OpcodeTable) {
	regForm := func(opByte byte, fn OpcodeFunc, name string) {
		setOp(t, opByte, true, false, 0, Opcode{
			Function: fn, HasModRM: true, GasCostTier: GasLow,
			ArgSize:   [MaxArgs]ValueSize{SizeDword, SizeDword},
			ArgSource: [MaxArgs]ArgSource{ArgSrcModRM, ArgSrcModRMReg}, Mnemonic: name,
		})
		setOp(t, opByte, true, true, 0, Opcode{
			Function: fn, HasModRM: true, GasCostTier: GasLow,
			ArgSize:   [MaxArgs]ValueSize{SizeWord, SizeWord},
			ArgSource: [MaxArgs]ArgSource{ArgSrcModRM, ArgSrcModRMReg}, Mnemonic: name,
		})
	}
	regForm(0xA3, btOp, "bt")
	regForm(0xAB, btsOp, "bts")
	regForm(0xB3, btrOp, "btr")
	regForm(0xBB, btcOp, "btc")

	t.markGroup(0xBA, true)
	immFuncs := [8]OpcodeFunc{nil, nil, nil, nil, btOp, btsOp, btrOp, btcOp}
	immNames := [8]string{"", "", "", "", "bt", "bts", "btr", "btc"}
	for g := 4; g <= 7; g++ {
		setOp(t, 0xBA, true, false, g, Opcode{
			Function: immFuncs[g], HasModRM: true, GasCostTier: GasLow,
			ArgSize:   [MaxArgs]ValueSize{SizeDword, SizeByte},
			ArgSource: [MaxArgs]ArgSource{ArgSrcModRM, ArgSrcImmediateValue}, Mnemonic: immNames[g],
		})
		setOp(t, 0xBA, true, true, g, Opcode{
			Function: immFuncs[g], HasModRM: true, GasCostTier: GasLow,
			ArgSize:   [MaxArgs]ValueSize{SizeWord, SizeByte},
			ArgSource: [MaxArgs]ArgSource{ArgSrcModRM, ArgSrcImmediateValue}, Mnemonic: immNames[g],
		})
	}

	setOp(t, 0xBC, true, false, 0, Opcode{
		Function: bsfOp, HasModRM: true, GasCostTier: GasModerate,
		ArgSize:   [MaxArgs]ValueSize{SizeDword, SizeDword},
		ArgSource: [MaxArgs]ArgSource{ArgSrcModRMReg, ArgSrcModRM}, Mnemonic: "bsf",
	})
	setOp(t, 0xBC, true, true, 0, Opcode{
		Function: bsfOp, HasModRM: true, GasCostTier: GasModerate,
		ArgSize:   [MaxArgs]ValueSize{SizeWord, SizeWord},
		ArgSource: [MaxArgs]ArgSource{ArgSrcModRMReg, ArgSrcModRM}, Mnemonic: "bsf",
	})
	setOp(t, 0xBD, true, false, 0, Opcode{
		Function: bsrOp, HasModRM: true, GasCostTier: GasModerate,
		ArgSize:   [MaxArgs]ValueSize{SizeDword, SizeDword},
		ArgSource: [MaxArgs]ArgSource{ArgSrcModRMReg, ArgSrcModRM}, Mnemonic: "bsr",
	})
	setOp(t, 0xBD, true, true, 0, Opcode{
		Function: bsrOp, HasModRM: true, GasCostTier: GasModerate,
		ArgSize:   [MaxArgs]ValueSize{SizeWord, SizeWord},
		ArgSource: [MaxArgs]ArgSource{ArgSrcModRMReg, ArgSrcModRM}, Mnemonic: "bsr",
	})
}

func bitOpCommon(vmi *VM, slot *PipelineSlot, mutate func(val, mask uint32) uint32) error {
	dest := slot.Args[0]
	size := dest.Size
	a, err := vmi.GetArg(dest)
	if err != nil {
		return err
	}
	idxArg, err := vmi.GetArg(slot.Args[1])
	if err != nil {
		return err
	}
	bits := size.Bytes() * 8
	n := idxArg.Raw() % bits
	mask := uint32(1) << n
	vmi.State.Flags.CF = a.Raw()&mask != 0
	if mutate == nil {
		return nil
	}
	return vmi.SetArg(dest, sizedOf(size, mutate(a.Raw(), mask)))
}

func btOp(vmi *VM, slot *PipelineSlot, hv Hypervisor) error {
	return bitOpCommon(vmi, slot, nil)
}

func btsOp(vmi *VM, slot *PipelineSlot, hv Hypervisor) error {
	return bitOpCommon(vmi, slot, func(val, mask uint32) uint32 { return val | mask })
}

func btrOp(vmi *VM, slot *PipelineSlot, hv Hypervisor) error {
	return bitOpCommon(vmi, slot, func(val, mask uint32) uint32 { return val &^ mask })
}

func btcOp(vmi *VM, slot *PipelineSlot, hv Hypervisor) error {
	return bitOpCommon(vmi, slot, func(val, mask uint32) uint32 { return val ^ mask })
}

func bsfOp(vmi *VM, slot *PipelineSlot, hv Hypervisor) error {
	size := slot.Args[1].Size
	src, err := vmi.GetArg(slot.Args[1])
	if err != nil {
		return err
	}
	val := src.Raw()
	if val == 0 {
		vmi.State.Flags.ZF = true
		return nil
	}
	vmi.State.Flags.ZF = false
	idx := bits.TrailingZeros32(val)
	return vmi.SetArg(slot.Args[0], sizedOf(size, uint32(idx)))
}

func bsrOp(vmi *VM, slot *PipelineSlot, hv Hypervisor) error {
	size := slot.Args[1].Size
	src, err := vmi.GetArg(slot.Args[1])
	if err != nil {
		return err
	}
	val := src.Raw()
	if val == 0 {
		vmi.State.Flags.ZF = true
		return nil
	}
	vmi.State.Flags.ZF = false
	idx := bits.Len32(val) - 1
	return vmi.SetArg(slot.Args[0], sizedOf(size, uint32(idx)))
}
