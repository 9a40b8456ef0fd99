package vm_test

import (
	"testing"

	"github.com/gasvm/x86emu/vm"
)

func TestLogic_AndOrXorNot(t *testing.T) {
	const base = 0x80000000
	code := []byte{
		0xB8, 0x00, 0xFF, 0x00, 0xFF, // mov eax,0xFF00FF00
		0xBB, 0xFF, 0x00, 0xFF, 0x00, // mov ebx,0x00FF00FF
		0x21, 0xD8, // and eax,ebx -> 0
		0x09, 0xD8, // or eax,ebx  -> 0x00FF00FF
		0x31, 0xC0, // xor eax,eax -> 0
		0xF7, 0xD0, // not eax -> 0xFFFFFFFF
		0xF4, // hlt
	}
	m := newScenarioVM(t, base, code)

	halted, err := m.Execute(vm.NopHypervisor{})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !halted {
		t.Fatal("expected halted")
	}
	if m.State.Regs[vm.RegEAX] != 0xFFFFFFFF {
		t.Errorf("EAX = 0x%08X, want 0xFFFFFFFF", m.State.Regs[vm.RegEAX])
	}
}

func TestLogic_AndSetsZeroFlag(t *testing.T) {
	const base = 0x80000000
	code := []byte{
		0xB8, 0x00, 0xFF, 0x00, 0xFF, // mov eax,0xFF00FF00
		0xBB, 0xFF, 0x00, 0xFF, 0x00, // mov ebx,0x00FF00FF
		0x21, 0xD8, // and eax,ebx -> 0
	}
	m := newScenarioVM(t, base, code)

	for i := 0; i < 3; i++ {
		if _, err := m.Step(vm.NopHypervisor{}); err != nil {
			t.Fatalf("Step %d: %v", i, err)
		}
	}
	if m.State.Regs[vm.RegEAX] != 0 {
		t.Errorf("EAX = 0x%08X, want 0", m.State.Regs[vm.RegEAX])
	}
	if !m.State.Flags.ZF {
		t.Error("expected ZF set after and producing zero")
	}
}

func TestShift_ShlComputesCarryAndResult(t *testing.T) {
	const base = 0x80000000
	code := []byte{
		0xB8, 0x01, 0x00, 0x00, 0x80, // mov eax,0x80000001
		0xD1, 0xE0, // shl eax,1
		0xF4, // hlt
	}
	m := newScenarioVM(t, base, code)

	halted, err := m.Execute(vm.NopHypervisor{})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !halted {
		t.Fatal("expected halted")
	}
	if m.State.Regs[vm.RegEAX] != 0x00000002 {
		t.Errorf("EAX = 0x%08X, want 0x00000002", m.State.Regs[vm.RegEAX])
	}
	if !m.State.Flags.CF {
		t.Error("expected CF set (bit shifted out was 1)")
	}
}

func TestBitOps_Bt(t *testing.T) {
	const base = 0x80000000
	code := []byte{
		0xB8, 0x04, 0x00, 0x00, 0x00, // mov eax,4 (bit 2 set)
		0x0F, 0xBA, 0xE0, 0x02, // bt eax,2
		0xF4, // hlt
	}
	m := newScenarioVM(t, base, code)

	halted, err := m.Execute(vm.NopHypervisor{})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !halted {
		t.Fatal("expected halted")
	}
	if !m.State.Flags.CF {
		t.Error("expected CF set to the tested bit's value")
	}
}

func TestFlagsControl_ClcStcCmc(t *testing.T) {
	const base = 0x80000000
	code := []byte{0xF8, 0xF9, 0xF5} // clc; stc; cmc
	m := newScenarioVM(t, base, code)
	m.State.Flags.CF = true

	if _, err := m.Step(vm.NopHypervisor{}); err != nil {
		t.Fatalf("Step (clc): %v", err)
	}
	if m.State.Flags.CF {
		t.Error("expected CF clear after clc")
	}
	if _, err := m.Step(vm.NopHypervisor{}); err != nil {
		t.Fatalf("Step (stc): %v", err)
	}
	if !m.State.Flags.CF {
		t.Error("expected CF set after stc")
	}
	if _, err := m.Step(vm.NopHypervisor{}); err != nil {
		t.Fatalf("Step (cmc): %v", err)
	}
	if m.State.Flags.CF {
		t.Error("expected CF clear after cmc")
	}
}

func TestMisc_CbwCwdeSignExtend(t *testing.T) {
	const base = 0x80000000
	code := []byte{
		0xB8, 0x00, 0x00, 0x00, 0x00, // mov eax,0
		0xB0, 0x80, // mov al,0x80
		0x66, 0x98, // cbw -> ax = 0xFF80
		0x98, // cwde -> eax = 0xFFFFFF80
		0xF4, // hlt
	}
	m := newScenarioVM(t, base, code)

	halted, err := m.Execute(vm.NopHypervisor{})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !halted {
		t.Fatal("expected halted")
	}
	if m.State.Regs[vm.RegEAX] != 0xFFFFFF80 {
		t.Errorf("EAX = 0x%08X, want 0xFFFFFF80", m.State.Regs[vm.RegEAX])
	}
}

func TestBCD_Aaa(t *testing.T) {
	const base = 0x80000000
	code := []byte{
		0xB0, 0x0F, // mov al,0x0f
		0xB4, 0x00, // mov ah,0
		0x37, // aaa
		0xF4, // hlt
	}
	m := newScenarioVM(t, base, code)

	halted, err := m.Execute(vm.NopHypervisor{})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !halted {
		t.Fatal("expected halted")
	}
	if al := m.State.GetReg(vm.RegEAX, vm.SizeByte); al.Raw() != 0x05 {
		t.Errorf("AL = 0x%02X, want 0x05", al.Raw())
	}
	if ah := m.State.GetReg(vm.RegEAX|0x4, vm.SizeByte); ah.Raw() != 0x01 {
		t.Errorf("AH = 0x%02X, want 0x01", ah.Raw())
	}
	if !m.State.Flags.AF || !m.State.Flags.CF {
		t.Error("expected AF and CF set after carrying adjustment")
	}
}

func TestCondMoveSet_SetccAndCmovcc(t *testing.T) {
	const base = 0x80000000
	code := []byte{
		0xB8, 0x05, 0x00, 0x00, 0x00, // mov eax,5
		0xBB, 0x05, 0x00, 0x00, 0x00, // mov ebx,5
		0x39, 0xD8, // cmp eax,ebx -> ZF=1
		0x0F, 0x94, 0xC1, // sete cl
		0x0F, 0x44, 0xD0, // cmovz edx,eax
		0xF4, // hlt
	}
	m := newScenarioVM(t, base, code)

	halted, err := m.Execute(vm.NopHypervisor{})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !halted {
		t.Fatal("expected halted")
	}
	if cl := m.State.GetReg(vm.RegECX, vm.SizeByte); cl.Raw() != 1 {
		t.Errorf("CL = %d, want 1", cl.Raw())
	}
	if m.State.Regs[vm.RegEDX] != 5 {
		t.Errorf("EDX = %d, want 5 (cmovz must have fired)", m.State.Regs[vm.RegEDX])
	}
}
