// Package hypervisor ships reference vm.Hypervisor implementations, the
// way the teacher's vm/syscall.go ExecuteSWI is the one place that turns a
// software interrupt into a host-side effect. Nothing in the vm package
// depends on this package; these are implementations a CLI or test wires
// in, never callbacks vm invokes on itself.
package hypervisor

import (
	"log"

	"github.com/gasvm/x86emu/diag"
	"github.com/gasvm/x86emu/vm"
)

// Logging records one line per interrupt through a diag logger and never
// halts execution, the way ExecuteSWI's debugging-support handlers
// (SWI_DEBUG_PRINT, SWI_DUMP_REGISTERS, ...) write diagnostics and let the
// guest program continue.
type Logging struct {
	Logger *log.Logger
}

// NewLogging builds a Logging hypervisor with a diag-wrapped logger
// prefixed "hypervisor".
func NewLogging() *Logging {
	return &Logging{Logger: diag.New("hypervisor")}
}

// Interrupt logs the interrupt number and the machine's EIP and always
// returns nil: logging a syscall is never a VM integrity failure.
func (l *Logging) Interrupt(state *vm.VMState, num uint8) error {
	if l.Logger != nil {
		l.Logger.Printf("interrupt 0x%02X at EIP=0x%08X", num, state.EIP)
	}
	return nil
}

// exitInterrupt is the one interrupt number Terminate treats specially,
// chosen to sit in the same "system information / control" range as the
// teacher's SWI_EXIT.
const exitInterrupt = 0x20

// Terminate maps interrupt 0x20 to a guest exit request: it records the
// guest's exit code and sets Halted, which the CLI checks after Execute
// returns to distinguish a clean guest exit from running out of gas or
// hitting HLT. Interrupt returns nil in that case too, so it does not stop
// the VM; the guest keeps executing after the interrupt. Every other interrupt number is a no-op, matching
// ExecuteSWI's default case for an interrupt this hypervisor doesn't
// implement, except that an unimplemented interrupt here never errors —
// a sandboxed guest's unknown syscalls must not be able to abort the host.
type Terminate struct {
	Halted   bool
	ExitCode uint32
}

// Interrupt implements vm.Hypervisor.
func (t *Terminate) Interrupt(state *vm.VMState, num uint8) error {
	if num != exitInterrupt {
		return nil
	}
	t.Halted = true
	t.ExitCode = state.Regs[vm.RegEAX]
	return nil
}
