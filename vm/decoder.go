package vm

// PipelineSize is the number of instructions decoded ahead of execution in
// one FillPipeline call. For code that does not rewrite its own upcoming
// instructions it only changes how often decoding re-runs (spec §4.4); a
// store into bytes already decoded in the current batch is not seen until
// the next fill.
const PipelineSize = 16

// cursor is a little-endian byte reader over VM memory used only during
// decode. Any failed read is reported as ErrDecodingOverrun: running off
// the end of mapped memory mid-instruction is a decode fault, distinct
// from a bad memory operand fault raised during execution.
type cursor struct {
	mem  *Memory
	addr uint32
}

func (c *cursor) u8() (byte, error) {
	b, err := c.mem.GetU8(c.addr)
	if err != nil {
		return 0, newMemErr(ErrDecodingOverrun, c.addr)
	}
	c.addr++
	return b, nil
}

func (c *cursor) peek() (byte, error) {
	b, err := c.mem.GetU8(c.addr)
	if err != nil {
		return 0, newMemErr(ErrDecodingOverrun, c.addr)
	}
	return b, nil
}

func (c *cursor) u32() (uint32, error) {
	var v uint32
	for i := uint(0); i < 4; i++ {
		b, err := c.u8()
		if err != nil {
			return 0, err
		}
		v |= uint32(b) << (8 * i)
	}
	return v, nil
}

// FillPipeline decodes up to len(slots) instructions starting at
// vmi.State.EIP, stopping early after any opcode tagged JumpConditional
// (its EIP cannot be predicted without executing it) or on the first
// decode error. A decode error that occurs after at least one instruction
// was already decoded is swallowed for this call; the caller executes
// what was decoded and the next FillPipeline call re-encounters and
// reports the same error with nothing pending ahead of it (spec §4.4,
// "decoding errors short-circuit only after the already-decoded valid
// prefix ... has been returned for execution").
func FillPipeline(vmi *VM, table *OpcodeTable, slots []PipelineSlot) (int, error) {
	addr := vmi.State.EIP
	n := 0
	for n < len(slots) {
		slot, consumed, err := decodeOne(vmi, table, addr)
		if err != nil {
			if n == 0 {
				return 0, err
			}
			return n, nil
		}
		slots[n] = slot
		addr += uint32(consumed)
		n++
		if slot.jumpBehavior == JumpConditional {
			break
		}
	}
	return n, nil
}

func decodeOne(vmi *VM, table *OpcodeTable, start uint32) (PipelineSlot, uint32, error) {
	c := &cursor{mem: vmi.Memory, addr: start}

	sizeOverride := false
	repPrefix := byte(0) // 0, 0xF2, or 0xF3

prefixLoop:
	for {
		b, err := c.peek()
		if err != nil {
			return PipelineSlot{}, 0, err
		}
		switch b {
		case 0x66:
			sizeOverride = true
			c.addr++
		case 0xF2, 0xF3:
			repPrefix = b
			c.addr++
		default:
			break prefixLoop
		}
	}

	if repPrefix != 0 {
		return decodeRep(vmi, table, start, c, sizeOverride, repPrefix)
	}

	desc, opcodeByte, err := decodeOpcodeAndArgs(table, c, sizeOverride)
	if err != nil {
		return PipelineSlot{}, 0, err
	}

	slot, err := buildSlot(vmi, table, desc, opcodeByte, start, c, sizeOverride)
	if err != nil {
		return PipelineSlot{}, 0, err
	}
	return slot, uint32(slot.EIPSize), nil
}

// decodedInsn is the intermediate shape shared by a normal instruction and
// the instruction wrapped by a REP/REPNE prefix.
type decodedInsn struct {
	desc   Opcode
	args   [MaxArgs]ArgLocation
	hasRel bool
	relIdx int
	relVal int32
}

func decodeOpcodeAndArgs(table *OpcodeTable, c *cursor, sizeOverride bool) (Opcode, byte, error) {
	twoByte := false
	b, err := c.u8()
	if err != nil {
		return Opcode{}, 0, err
	}
	if b == 0x0F {
		twoByte = true
		b, err = c.u8()
		if err != nil {
			return Opcode{}, 0, err
		}
	}
	opcodeByte := b

	group := 0
	if table.usesGroup(opcodeByte, twoByte) {
		mb, err := c.peek()
		if err != nil {
			return Opcode{}, 0, err
		}
		group = int((mb >> 3) & 0x7)
	}
	idx := composeIndex(opcodeByte, twoByte, sizeOverride, group)
	return table.entries[idx], opcodeByte, nil
}

// decodeModRMAndSIB consumes the ModR/M byte (and SIB/displacement if
// present), returning the reg field and the resolved r/m operand location
// (size left as SizeNone; caller fills in the correct operand width).
func decodeModRMAndSIB(c *cursor) (regField uint8, rm ArgLocation, err error) {
	mb, err := c.u8()
	if err != nil {
		return 0, ArgLocation{}, err
	}
	mod := mb >> 6
	reg := (mb >> 3) & 0x7
	rmField := mb & 0x7

	if mod == 3 {
		return reg, RegisterValueArg(rmField, SizeNone), nil
	}

	if rmField == 4 {
		sib, err := c.u8()
		if err != nil {
			return 0, ArgLocation{}, err
		}
		scale := uint8(1) << (sib >> 6)
		idxField := (sib >> 3) & 0x7
		baseField := sib & 0x7

		loc := ArgLocation{Kind: ArgSIBAddress, Scale: scale}
		if idxField != 4 {
			loc.HasIndex = true
			loc.Index = idxField
		}
		if mod == 0 && baseField == 5 {
			disp, err := c.u32()
			if err != nil {
				return 0, ArgLocation{}, err
			}
			loc.HasOffset = true
			loc.Offset = int32(disp)
		} else {
			loc.HasBase = true
			loc.Base = baseField
			switch mod {
			case 1:
				d, err := c.u8()
				if err != nil {
					return 0, ArgLocation{}, err
				}
				loc.HasOffset = true
				loc.Offset = int32(int8(d))
			case 2:
				d, err := c.u32()
				if err != nil {
					return 0, ArgLocation{}, err
				}
				loc.HasOffset = true
				loc.Offset = int32(d)
			}
		}
		return reg, loc, nil
	}

	if mod == 0 && rmField == 5 {
		disp, err := c.u32()
		if err != nil {
			return 0, ArgLocation{}, err
		}
		return reg, ArgLocation{Kind: ArgModRMAddress, HasOffset: true, Offset: int32(disp)}, nil
	}

	loc := ArgLocation{Kind: ArgModRMAddress, HasBase: true, Base: rmField}
	switch mod {
	case 1:
		d, err := c.u8()
		if err != nil {
			return 0, ArgLocation{}, err
		}
		loc.HasOffset = true
		loc.Offset = int32(int8(d))
	case 2:
		d, err := c.u32()
		if err != nil {
			return 0, ArgLocation{}, err
		}
		loc.HasOffset = true
		loc.Offset = int32(d)
	}
	return reg, loc, nil
}

// decodeArgs consumes ModR/M (if desc.HasModRM), then every declared
// operand in order, returning the resolved locations and, if one operand
// was ArgSrcJumpRel, the raw relative value to resolve against the final
// instruction length once it is known.
func decodeArgs(c *cursor, desc Opcode, opcodeByte byte) (decodedInsn, error) {
	var out decodedInsn
	out.desc = desc
	out.relIdx = -1

	var modrmLoc ArgLocation
	var regField uint8
	if desc.HasModRM {
		var err error
		regField, modrmLoc, err = decodeModRMAndSIB(c)
		if err != nil {
			return decodedInsn{}, err
		}
	}

	for i := 0; i < MaxArgs; i++ {
		size := desc.ArgSize[i]
		switch desc.ArgSource[i] {
		case ArgSrcNone:
			continue
		case ArgSrcModRM:
			loc := modrmLoc
			loc.Size = size
			out.args[i] = loc
		case ArgSrcModRMReg:
			out.args[i] = RegisterValueArg(regField, size)
		case ArgSrcImmediateValue:
			v, err := readImmediate(c, size)
			if err != nil {
				return decodedInsn{}, err
			}
			out.args[i] = ImmediateArg(v)
		case ArgSrcImmediateAddress:
			addr, err := c.u32()
			if err != nil {
				return decodedInsn{}, err
			}
			out.args[i] = AddressArg(addr, size)
		case ArgSrcRegisterSuffix:
			out.args[i] = RegisterValueArg(opcodeByte&0x7, size)
		case ArgSrcAccumulator:
			out.args[i] = RegisterValueArg(RegEAX, size)
		case ArgSrcCounterReg:
			out.args[i] = RegisterValueArg(RegECX, SizeByte)
		case ArgSrcSourceIndex:
			out.args[i] = RegisterAddressArg(RegESI, size)
		case ArgSrcDestIndex:
			out.args[i] = RegisterAddressArg(RegEDI, size)
		case ArgSrcJumpRel:
			var rel int32
			switch size {
			case SizeByte:
				b, err := c.u8()
				if err != nil {
					return decodedInsn{}, err
				}
				rel = int32(int8(b))
			case SizeWord:
				lo, err := c.u8()
				if err != nil {
					return decodedInsn{}, err
				}
				hi, err := c.u8()
				if err != nil {
					return decodedInsn{}, err
				}
				rel = int32(int16(uint16(lo) | uint16(hi)<<8))
			default:
				v, err := c.u32()
				if err != nil {
					return decodedInsn{}, err
				}
				rel = int32(v)
			}
			out.hasRel = true
			out.relIdx = i
			out.relVal = rel
		}
	}
	return out, nil
}

func readImmediate(c *cursor, size ValueSize) (SizedValue, error) {
	switch size {
	case SizeByte:
		b, err := c.u8()
		return ByteValue(b), err
	case SizeWord:
		lo, err := c.u8()
		if err != nil {
			return NoneValue, err
		}
		hi, err := c.u8()
		if err != nil {
			return NoneValue, err
		}
		return WordValue(uint16(lo) | uint16(hi)<<8), nil
	case SizeDword:
		v, err := c.u32()
		return DwordValue(v), err
	default:
		return NoneValue, nil
	}
}

func buildSlot(vmi *VM, table *OpcodeTable, desc Opcode, opcodeByte byte, start uint32, c *cursor, sizeOverride bool) (PipelineSlot, error) {
	insn, err := decodeArgs(c, desc, opcodeByte)
	if err != nil {
		return PipelineSlot{}, err
	}

	eipSize := c.addr - start
	if insn.hasRel {
		target := start + eipSize + uint32(insn.relVal)
		insn.args[insn.relIdx] = ImmediateArg(DwordValue(target))
	}

	slot := PipelineSlot{
		Function:     desc.Function,
		Args:         insn.args,
		EIPSize:      uint8(eipSize),
		SizeOverride: sizeOverride,
		OpcodeByte:   opcodeByte,
		jumpBehavior: desc.JumpBehavior,
	}
	slot.GasCost = gasCostFor(vmi, desc, insn.args, start)
	return slot, nil
}

func gasCostFor(vmi *VM, desc Opcode, args [MaxArgs]ArgLocation, start uint32) uint64 {
	cost := vmi.Charger.Cost(desc.GasCostTier)
	for _, a := range args {
		if a.IsMemory() {
			cost += vmi.Charger.Cost(GasMemoryAccess)
			break
		}
	}
	if desc.JumpBehavior == JumpConditional {
		cost += vmi.Charger.Cost(GasConditionalBranch)
	}
	if desc.HasModRM {
		cost += vmi.Charger.Cost(GasModRMSurcharge)
	}
	if Writable(start) {
		cost += vmi.Charger.Cost(GasWriteableMemoryExec)
	}
	return cost
}

// decodeRep decodes the string opcode following a REP/REPNE prefix and
// wraps it into a meta-opcode slot whose Function is repeHandler or
// repneHandler; the inner opcode's function and per-iteration gas cost
// ride along in RepFunction/RepGasCost (spec §4.6, §9).
func decodeRep(vmi *VM, table *OpcodeTable, start uint32, c *cursor, sizeOverride bool, prefix byte) (PipelineSlot, uint32, error) {
	desc, opcodeByte, err := decodeOpcodeAndArgs(table, c, sizeOverride)
	if err != nil {
		return PipelineSlot{}, 0, err
	}
	if prefix == 0xF2 {
		if !desc.RepneValid {
			return PipelineSlot{}, 0, newErr(ErrInvalidOpcodeEncoding)
		}
	} else if !desc.RepValid {
		return PipelineSlot{}, 0, newErr(ErrInvalidOpcodeEncoding)
	}

	slot, err := buildSlot(vmi, table, desc, opcodeByte, start, c, sizeOverride)
	if err != nil {
		return PipelineSlot{}, 0, err
	}

	innerGas := slot.GasCost
	slot.RepFunction = slot.Function
	slot.RepGasCost = innerGas
	if prefix == 0xF3 {
		slot.Function = repeHandler
	} else {
		slot.Function = repneHandler
	}
	slot.GasCost = 0
	slot.jumpBehavior = JumpNone
	return slot, uint32(slot.EIPSize), nil
}
