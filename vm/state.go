package vm

import "github.com/google/uuid"

// VMState is the architecturally observable state of a running machine:
// registers, instruction pointer, flags, and remaining gas. This is
// exactly what a Hypervisor callback is handed a mutable reference to.
type VMState struct {
	Regs         [8]uint32
	EIP          uint32
	Flags        Flags
	GasRemaining uint64
}

// VM is the complete machine: its observable State plus the memory it
// owns exclusively, diagnostic error_eip, and the gas schedule in effect.
// A VM is single-owner and single-threaded, per spec §5: there is never
// more than one Execute/Step call active on a given VM at a time.
type VM struct {
	State     VMState
	Memory    *Memory
	ErrorEIP  uint32
	Charger   *GasCharger
	SessionID uuid.UUID

	table *OpcodeTable
}

// NewVM returns a VM with no memory installed, the default gas schedule,
// and a fresh session identifier for diagnostics/tracing.
func NewVM() *VM {
	return &VM{
		Memory:    NewMemory(),
		Charger:   DefaultGasCharger(),
		SessionID: uuid.New(),
		table:     Opcodes(),
	}
}

// CopyIntoMemory loads bytes into a pre-allocated page starting at base,
// the host-facing entry point for program loading named in spec §6.
func (vm *VM) CopyIntoMemory(base uint32, data []byte) error {
	return vm.Memory.CopyIn(base, data)
}
