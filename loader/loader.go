// Package loader is the thin bridge between a raw program image and a
// vm.VM: installing the memory section it lands in, copying it in, and
// setting up EIP and gas. Parsing/assembling the image itself is an
// external collaborator's job (spec §1(a)); this package only ever
// consumes already-raw bytes.
package loader

import (
	"fmt"

	"github.com/gasvm/x86emu/vm"
)

// Options controls where and how a program image is installed.
type Options struct {
	// Base is the address the image is loaded at and EIP is set to.
	Base uint32
	// ReadOnly installs the image in the read-only half of the address
	// space (top address bit clear) instead of the writable half.
	ReadOnly bool
	// SectionSize is the size of the memory section installed to hold
	// the image, rounded up by the caller to a vm.PageSize multiple.
	SectionSize uint32
	// StackBase and StackSize describe an additional writable section
	// reserved for the stack, installed only when StackSize is non-zero;
	// ESP is then set to StackBase+StackSize.
	StackBase uint32
	StackSize uint32
	// InitialGas seeds machine.State.GasRemaining.
	InitialGas uint64
}

// Load installs a program image into a fresh VM's memory per opts and
// leaves it ready to Execute: the image's section (and, if requested, a
// stack section) are installed, image bytes are copied in, EIP is set to
// opts.Base, ESP to the top of the stack section, and GasRemaining to
// opts.InitialGas.
func Load(machine *vm.VM, image []byte, opts Options) error {
	if opts.ReadOnly && vm.Writable(opts.Base) {
		return fmt.Errorf("loader: read-only load requested at writable address 0x%08X", opts.Base)
	}
	if !opts.ReadOnly && !vm.Writable(opts.Base) {
		return fmt.Errorf("loader: writable load requested at read-only address 0x%08X", opts.Base)
	}

	if err := machine.Memory.AddSection(pageAlignDown(opts.Base), opts.SectionSize); err != nil {
		return fmt.Errorf("loader: installing image section: %w", err)
	}

	if opts.ReadOnly {
		if err := machine.Memory.CopyInReadOnly(opts.Base, image); err != nil {
			return fmt.Errorf("loader: loading read-only image: %w", err)
		}
	} else {
		if err := machine.CopyIntoMemory(opts.Base, image); err != nil {
			return fmt.Errorf("loader: loading image: %w", err)
		}
	}

	if opts.StackSize != 0 {
		if err := machine.Memory.AddSection(pageAlignDown(opts.StackBase), opts.StackSize); err != nil {
			return fmt.Errorf("loader: installing stack section: %w", err)
		}
		machine.State.Regs[vm.RegESP] = opts.StackBase + opts.StackSize
	}

	machine.State.EIP = opts.Base
	machine.State.GasRemaining = opts.InitialGas
	return nil
}

func pageAlignDown(addr uint32) uint32 {
	return addr &^ (vm.PageSize - 1)
}
