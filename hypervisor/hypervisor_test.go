package hypervisor_test

import (
	"bytes"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gasvm/x86emu/hypervisor"
	"github.com/gasvm/x86emu/vm"
)

func TestLoggingRecordsInterrupt(t *testing.T) {
	var buf bytes.Buffer
	h := &hypervisor.Logging{Logger: log.New(&buf, "", 0)}

	state := &vm.VMState{EIP: 0x80001234}
	require.NoError(t, h.Interrupt(state, 0x03))

	out := buf.String()
	assert.Contains(t, out, "0x03")
	assert.Contains(t, out, "80001234")
}

func TestLoggingNilLoggerIsSafe(t *testing.T) {
	h := &hypervisor.Logging{}
	require.NoError(t, h.Interrupt(&vm.VMState{}, 0x01))
}

func TestTerminateOnExitInterrupt(t *testing.T) {
	h := &hypervisor.Terminate{}
	state := &vm.VMState{}
	state.Regs[vm.RegEAX] = 7

	require.NoError(t, h.Interrupt(state, 0x20))
	assert.True(t, h.Halted)
	assert.Equal(t, uint32(7), h.ExitCode)
}

func TestTerminateIgnoresOtherInterrupts(t *testing.T) {
	h := &hypervisor.Terminate{}
	require.NoError(t, h.Interrupt(&vm.VMState{}, 0x03))
	assert.False(t, h.Halted)
}
