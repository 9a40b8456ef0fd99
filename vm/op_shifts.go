package vm

var shiftGroupFuncs = [8]OpcodeFunc{rolOp, rorOp, rclOp, rcrOp, shlOp, shrOp, shlOp, sarOp}
var shiftGroupNames = [8]string{"rol", "ror", "rcl", "rcr", "shl", "shr", "shl", "sar"}

func registerShifts(t *OpcodeTable) {
	t.markGroup(0xC0, false)
	t.markGroup(0xC1, false)
	t.markGroup(0xD0, false)
	t.markGroup(0xD1, false)
	t.markGroup(0xD2, false)
	t.markGroup(0xD3, false)
	for g := 0; g < 8; g++ {
		fn, name := shiftGroupFuncs[g], shiftGroupNames[g]
		setOp(t, 0xC0, false, false, g, Opcode{
			Function: fn, HasModRM: true, GasCostTier: GasLow,
			ArgSize:   [MaxArgs]ValueSize{SizeByte, SizeByte},
			ArgSource: [MaxArgs]ArgSource{ArgSrcModRM, ArgSrcImmediateValue},
			Mnemonic:  name,
		})
		setOp(t, 0xC1, false, false, g, Opcode{
			Function: fn, HasModRM: true, GasCostTier: GasLow,
			ArgSize:   [MaxArgs]ValueSize{SizeDword, SizeByte},
			ArgSource: [MaxArgs]ArgSource{ArgSrcModRM, ArgSrcImmediateValue},
			Mnemonic:  name,
		})
		setOp(t, 0xC1, false, true, g, Opcode{
			Function: fn, HasModRM: true, GasCostTier: GasLow,
			ArgSize:   [MaxArgs]ValueSize{SizeWord, SizeByte},
			ArgSource: [MaxArgs]ArgSource{ArgSrcModRM, ArgSrcImmediateValue},
			Mnemonic:  name,
		})
		setOp(t, 0xD0, false, false, g, Opcode{
			Function: fn, HasModRM: true, GasCostTier: GasLow,
			ArgSize:   [MaxArgs]ValueSize{SizeByte},
			ArgSource: [MaxArgs]ArgSource{ArgSrcModRM},
			Mnemonic:  name,
		})
		setOp(t, 0xD1, false, false, g, Opcode{
			Function: fn, HasModRM: true, GasCostTier: GasLow,
			ArgSize:   [MaxArgs]ValueSize{SizeDword},
			ArgSource: [MaxArgs]ArgSource{ArgSrcModRM},
			Mnemonic:  name,
		})
		setOp(t, 0xD1, false, true, g, Opcode{
			Function: fn, HasModRM: true, GasCostTier: GasLow,
			ArgSize:   [MaxArgs]ValueSize{SizeWord},
			ArgSource: [MaxArgs]ArgSource{ArgSrcModRM},
			Mnemonic:  name,
		})
		setOp(t, 0xD2, false, false, g, Opcode{
			Function: fn, HasModRM: true, GasCostTier: GasLow,
			ArgSize:   [MaxArgs]ValueSize{SizeByte, SizeByte},
			ArgSource: [MaxArgs]ArgSource{ArgSrcModRM, ArgSrcCounterReg},
			Mnemonic:  name,
		})
		setOp(t, 0xD3, false, false, g, Opcode{
			Function: fn, HasModRM: true, GasCostTier: GasLow,
			ArgSize:   [MaxArgs]ValueSize{SizeDword, SizeByte},
			ArgSource: [MaxArgs]ArgSource{ArgSrcModRM, ArgSrcCounterReg},
			Mnemonic:  name,
		})
		setOp(t, 0xD3, false, true, g, Opcode{
			Function: fn, HasModRM: true, GasCostTier: GasLow,
			ArgSize:   [MaxArgs]ValueSize{SizeWord, SizeByte},
			ArgSource: [MaxArgs]ArgSource{ArgSrcModRM, ArgSrcCounterReg},
			Mnemonic:  name,
		})
	}
}

func shiftCount(vmi *VM, slot *PipelineSlot) (uint32, error) {
	if slot.Args[1].Kind == ArgNone {
		return 1, nil
	}
	v, err := vmi.GetArg(slot.Args[1])
	if err != nil {
		return 0, err
	}
	return rotateCount(v.Raw()), nil
}

func b2u(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

func shlOp(vmi *VM, slot *PipelineSlot, hv Hypervisor) error {
	dest := slot.Args[0]
	size := dest.Size
	a, err := vmi.GetArg(dest)
	if err != nil {
		return err
	}
	count, err := shiftCount(vmi, slot)
	if err != nil {
		return err
	}
	if count == 0 {
		return nil
	}
	bits := size.Bytes() * 8
	mask := sizeMask(size)
	val := a.Raw() & mask

	var result uint32
	var cf bool
	if count >= bits {
		result = 0
		cf = count == bits && val&1 != 0
	} else {
		cf = (val>>(bits-count))&1 != 0
		result = (val << count) & mask
	}
	vmi.State.Flags.CF = cf
	if count == 1 {
		vmi.State.Flags.OF = ComputeSign(result, size) != cf
	}
	vmi.State.Flags.ZF = ComputeZero(result)
	vmi.State.Flags.SF = ComputeSign(result, size)
	vmi.State.Flags.PF = ComputeParity(result)
	return vmi.SetArg(dest, sizedOf(size, result))
}

func shrOp(vmi *VM, slot *PipelineSlot, hv Hypervisor) error {
	dest := slot.Args[0]
	size := dest.Size
	a, err := vmi.GetArg(dest)
	if err != nil {
		return err
	}
	count, err := shiftCount(vmi, slot)
	if err != nil {
		return err
	}
	if count == 0 {
		return nil
	}
	bits := size.Bytes() * 8
	mask := sizeMask(size)
	val := a.Raw() & mask

	var result uint32
	var cf bool
	if count >= bits {
		result = 0
		cf = count == bits && (val>>(bits-1))&1 != 0
	} else {
		cf = (val>>(count-1))&1 != 0
		result = val >> count
	}
	vmi.State.Flags.CF = cf
	if count == 1 {
		vmi.State.Flags.OF = ComputeSign(val, size)
	}
	vmi.State.Flags.ZF = ComputeZero(result)
	vmi.State.Flags.SF = ComputeSign(result, size)
	vmi.State.Flags.PF = ComputeParity(result)
	return vmi.SetArg(dest, sizedOf(size, result))
}

func sarOp(vmi *VM, slot *PipelineSlot, hv Hypervisor) error {
	dest := slot.Args[0]
	size := dest.Size
	a, err := vmi.GetArg(dest)
	if err != nil {
		return err
	}
	count, err := shiftCount(vmi, slot)
	if err != nil {
		return err
	}
	if count == 0 {
		return nil
	}
	bits := size.Bytes() * 8
	mask := sizeMask(size)
	val := a.Raw() & mask
	signed := signExtend64(val, size)

	var result uint32
	var cf bool
	if count >= bits {
		if signed < 0 {
			result = mask
			cf = true
		} else {
			result = 0
			cf = false
		}
	} else {
		cf = (val>>(count-1))&1 != 0
		result = uint32(signed>>count) & mask
	}
	vmi.State.Flags.CF = cf
	if count == 1 {
		vmi.State.Flags.OF = false
	}
	vmi.State.Flags.ZF = ComputeZero(result)
	vmi.State.Flags.SF = ComputeSign(result, size)
	vmi.State.Flags.PF = ComputeParity(result)
	return vmi.SetArg(dest, sizedOf(size, result))
}

func rolOp(vmi *VM, slot *PipelineSlot, hv Hypervisor) error {
	dest := slot.Args[0]
	size := dest.Size
	a, err := vmi.GetArg(dest)
	if err != nil {
		return err
	}
	count, err := shiftCount(vmi, slot)
	if err != nil {
		return err
	}
	if count == 0 {
		return nil
	}
	bits := size.Bytes() * 8
	mask := sizeMask(size)
	val := a.Raw() & mask
	n := count % bits

	result := val
	if n != 0 {
		result = ((val << n) | (val >> (bits - n))) & mask
	}
	cf := result&1 != 0
	vmi.State.Flags.CF = cf
	if count == 1 {
		vmi.State.Flags.OF = ComputeSign(result, size) != cf
	}
	return vmi.SetArg(dest, sizedOf(size, result))
}

func rorOp(vmi *VM, slot *PipelineSlot, hv Hypervisor) error {
	dest := slot.Args[0]
	size := dest.Size
	a, err := vmi.GetArg(dest)
	if err != nil {
		return err
	}
	count, err := shiftCount(vmi, slot)
	if err != nil {
		return err
	}
	if count == 0 {
		return nil
	}
	bits := size.Bytes() * 8
	mask := sizeMask(size)
	val := a.Raw() & mask
	n := count % bits

	result := val
	if n != 0 {
		result = ((val >> n) | (val << (bits - n))) & mask
	}
	cf := ComputeSign(result, size)
	vmi.State.Flags.CF = cf
	if count == 1 {
		msb := (result >> (bits - 1)) & 1
		msb2 := (result >> (bits - 2)) & 1
		vmi.State.Flags.OF = (msb ^ msb2) != 0
	}
	return vmi.SetArg(dest, sizedOf(size, result))
}

func rclOp(vmi *VM, slot *PipelineSlot, hv Hypervisor) error {
	dest := slot.Args[0]
	size := dest.Size
	a, err := vmi.GetArg(dest)
	if err != nil {
		return err
	}
	count, err := shiftCount(vmi, slot)
	if err != nil {
		return err
	}
	if count == 0 {
		return nil
	}
	bits := size.Bytes() * 8
	mask := sizeMask(size)
	val := a.Raw() & mask
	cf := vmi.State.Flags.CF
	n := count % (bits + 1)
	for i := uint32(0); i < n; i++ {
		newCF := (val>>(bits-1))&1 != 0
		val = ((val << 1) | b2u(cf)) & mask
		cf = newCF
	}
	vmi.State.Flags.CF = cf
	if count == 1 {
		vmi.State.Flags.OF = ComputeSign(val, size) != cf
	}
	return vmi.SetArg(dest, sizedOf(size, val))
}

func rcrOp(vmi *VM, slot *PipelineSlot, hv Hypervisor) error {
	dest := slot.Args[0]
	size := dest.Size
	a, err := vmi.GetArg(dest)
	if err != nil {
		return err
	}
	count, err := shiftCount(vmi, slot)
	if err != nil {
		return err
	}
	if count == 0 {
		return nil
	}
	bits := size.Bytes() * 8
	mask := sizeMask(size)
	val := a.Raw() & mask

	var ofAtCountOne bool
	if count == 1 {
		msb := (val >> (bits - 1)) & 1
		msb2 := (val >> (bits - 2)) & 1
		ofAtCountOne = (msb ^ msb2) != 0
	}

	cf := vmi.State.Flags.CF
	n := count % (bits + 1)
	for i := uint32(0); i < n; i++ {
		newCF := val&1 != 0
		val = (val >> 1) | (b2u(cf) << (bits - 1))
		val &= mask
		cf = newCF
	}
	vmi.State.Flags.CF = cf
	if count == 1 {
		vmi.State.Flags.OF = ofAtCountOne
	}
	return vmi.SetArg(dest, sizedOf(size, val))
}
