package vm

// Execute runs the VM until it halts, runs out of gas, or hits an error,
// filling and draining the pipeline in PipelineSize batches (spec §4.4,
// §6). The boolean result is true only on a clean halt (HLT executed, or
// the hypervisor requested termination); any returned error means the VM
// stopped mid-program and ErrorEIP records where.
func (vmi *VM) Execute(hv Hypervisor) (halted bool, err error) {
	slots := make([]PipelineSlot, PipelineSize)
	for {
		n, ferr := FillPipeline(vmi, vmi.table, slots)
		if ferr != nil {
			vmi.ErrorEIP = vmi.State.EIP
			return false, ferr
		}
		if n == 0 {
			return true, nil
		}
		for i := 0; i < n; i++ {
			h, cerr := vmi.cycle(&slots[i], hv)
			if cerr != nil {
				if verr, ok := cerr.(*VMError); ok && verr.Kind == ErrInternalVMStop {
					return true, nil
				}
				vmi.ErrorEIP = vmi.State.EIP
				return false, cerr
			}
			if h {
				return true, nil
			}
		}
	}
}

// Step executes exactly one instruction, the single-step entry point a
// debugger front end drives (spec §6).
func (vmi *VM) Step(hv Hypervisor) (halted bool, err error) {
	var slots [1]PipelineSlot
	n, ferr := FillPipeline(vmi, vmi.table, slots[:])
	if ferr != nil {
		vmi.ErrorEIP = vmi.State.EIP
		return false, ferr
	}
	if n == 0 {
		return true, nil
	}
	h, cerr := vmi.cycle(&slots[0], hv)
	if cerr != nil {
		if verr, ok := cerr.(*VMError); ok && verr.Kind == ErrInternalVMStop {
			return true, nil
		}
		vmi.ErrorEIP = vmi.State.EIP
		return false, cerr
	}
	return h, nil
}

// cycle charges gas for one decoded slot before running it, so a program
// can never pay for part of an instruction: OutOfGas is raised pre-charge
// and EIP is left exactly where it was before the slot ran (spec §4.9).
func (vmi *VM) cycle(slot *PipelineSlot, hv Hypervisor) (halted bool, err error) {
	if slot.GasCost > vmi.State.GasRemaining {
		return false, ErrOutOfGasErr
	}
	vmi.State.GasRemaining -= slot.GasCost

	if err := slot.Function(vmi, slot, hv); err != nil {
		return false, err
	}
	vmi.State.EIP += uint32(slot.EIPSize)
	return false, nil
}
