package vm_test

import (
	"testing"

	"github.com/gasvm/x86emu/vm"
)

func TestBranch_UnconditionalJmpSkipsInstruction(t *testing.T) {
	const base = 0x80000000
	code := []byte{
		0xB8, 0x00, 0x00, 0x00, 0x00, // 0x00: mov eax,0
		0xEB, 0x05, // 0x05: jmp +5 -> target = 0x05+2+5 = 0x0C
		0xB8, 0x01, 0x00, 0x00, 0x00, // 0x07: mov eax,1 (skipped)
		0xB8, 0x02, 0x00, 0x00, 0x00, // 0x0C: mov eax,2
		0xF4, // 0x11: hlt
	}
	m := newScenarioVM(t, base, code)

	halted, err := m.Execute(vm.NopHypervisor{})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !halted {
		t.Fatal("expected halted")
	}
	if m.State.Regs[vm.RegEAX] != 2 {
		t.Errorf("EAX = %d, want 2 (jump must skip the mov eax,1)", m.State.Regs[vm.RegEAX])
	}
}

func TestBranch_JccTakenWhenConditionHolds(t *testing.T) {
	const base = 0x80000000
	code := []byte{0x74, 0x10} // je +0x10
	m := newScenarioVM(t, base, code)
	m.State.Flags.ZF = true

	halted, err := m.Step(vm.NopHypervisor{})
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if halted {
		t.Fatal("unexpected halt")
	}
	want := uint32(base + 2 + 0x10)
	if m.State.EIP != want {
		t.Errorf("EIP = 0x%08X, want 0x%08X (branch taken)", m.State.EIP, want)
	}
}

func TestBranch_JccNotTakenWhenConditionFails(t *testing.T) {
	const base = 0x80000000
	code := []byte{0x74, 0x10} // je +0x10
	m := newScenarioVM(t, base, code)
	m.State.Flags.ZF = false

	halted, err := m.Step(vm.NopHypervisor{})
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if halted {
		t.Fatal("unexpected halt")
	}
	want := uint32(base + 2)
	if m.State.EIP != want {
		t.Errorf("EIP = 0x%08X, want 0x%08X (branch not taken, fell through)", m.State.EIP, want)
	}
}

func TestBranch_Jecxz(t *testing.T) {
	const base = 0x80000000
	code := []byte{0xE3, 0x04} // jecxz +4
	m := newScenarioVM(t, base, code)
	m.State.Regs[vm.RegECX] = 0

	halted, err := m.Step(vm.NopHypervisor{})
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if halted {
		t.Fatal("unexpected halt")
	}
	want := uint32(base + 2 + 4)
	if m.State.EIP != want {
		t.Errorf("EIP = 0x%08X, want 0x%08X (ECX==0 must branch)", m.State.EIP, want)
	}
}

func TestBranch_SizeOverrideJmpTruncatesEIPTo16Bits(t *testing.T) {
	const base = 0x80000000
	code := []byte{0x66, 0xE9, 0x10, 0x00} // jmp rel16 +0x10 (operand-size override)
	m := newScenarioVM(t, base, code)

	halted, err := m.Step(vm.NopHypervisor{})
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if halted {
		t.Fatal("unexpected halt")
	}
	want := uint32(0x0014) // (base+4+0x10) & 0xFFFF, not the full 32-bit target
	if m.State.EIP != want {
		t.Errorf("EIP = 0x%08X, want 0x%08X (size-override jmp must truncate to 16 bits)", m.State.EIP, want)
	}
}

func TestBranch_SizeOverrideJccTruncatesEIPTo16Bits(t *testing.T) {
	const base = 0x80000000
	code := []byte{0x66, 0x0F, 0x84, 0x10, 0x00} // je rel16 +0x10 (two-byte opcode, operand-size override)
	m := newScenarioVM(t, base, code)
	m.State.Flags.ZF = true

	halted, err := m.Step(vm.NopHypervisor{})
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if halted {
		t.Fatal("unexpected halt")
	}
	want := uint32(0x0015) // (base+5+0x10) & 0xFFFF, not the full 32-bit target
	if m.State.EIP != want {
		t.Errorf("EIP = 0x%08X, want 0x%08X (size-override jcc must truncate to 16 bits)", m.State.EIP, want)
	}
}

func TestBranch_PlainJmpDoesNotTruncate(t *testing.T) {
	const base = 0x80000000
	code := []byte{0xE9, 0x10, 0x00, 0x00, 0x00} // jmp rel32 +0x10, no override prefix
	m := newScenarioVM(t, base, code)

	halted, err := m.Step(vm.NopHypervisor{})
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if halted {
		t.Fatal("unexpected halt")
	}
	want := uint32(base + 5 + 0x10)
	if m.State.EIP != want {
		t.Errorf("EIP = 0x%08X, want 0x%08X (no override prefix, EIP must not truncate)", m.State.EIP, want)
	}
}

func TestBranch_CallRetRoundTrip(t *testing.T) {
	const base = 0x80000000
	code := []byte{
		0xBC, 0x00, 0x01, 0x00, 0x80, // 0x00: mov esp,0x80000100
		0xE8, 0x06, 0x00, 0x00, 0x00, // 0x05: call +6 -> target = 0x05+5+6 = 0x10
		0xB8, 0x99, 0x00, 0x00, 0x00, // 0x0A: mov eax,0x99 (return lands here)
		0xF4, // 0x0F: hlt
	}
	// Lay the callee at 0x10: set bl then ret.
	callee := []byte{
		0xB3, 0x07, // 0x10: mov bl,7
		0xC3, // 0x12: ret
	}
	full := append(append([]byte{}, code...), callee...)
	m := newScenarioVM(t, base, full)

	halted, err := m.Execute(vm.NopHypervisor{})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !halted {
		t.Fatal("expected halted")
	}
	if bl := m.State.GetReg(vm.RegEBX, vm.SizeByte); bl.Raw() != 7 {
		t.Errorf("BL = %d, want 7 (callee must have run)", bl.Raw())
	}
	if m.State.Regs[vm.RegEAX] != 0x99 {
		t.Errorf("EAX = 0x%08X, want 0x99 (ret must land after the call)", m.State.Regs[vm.RegEAX])
	}
	if m.State.Regs[vm.RegESP] != 0x80000100 {
		t.Errorf("ESP = 0x%08X, want 0x80000100 (return address popped)", m.State.Regs[vm.RegESP])
	}
}
