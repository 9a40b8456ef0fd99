package vm_test

import (
	"errors"
	"testing"

	"github.com/gasvm/x86emu/vm"
)

// newScenarioVM installs one writable 64 KiB page at 0x80000000, copies
// code in at codeAddr (which must fall within that page), and seeds enough
// gas that none of these short programs can run out before reaching hlt.
func newScenarioVM(t *testing.T, codeAddr uint32, code []byte) *vm.VM {
	t.Helper()
	m := vm.NewVM()
	if err := m.Memory.AddSection(0x80000000, vm.PageSize); err != nil {
		t.Fatalf("AddSection: %v", err)
	}
	if err := m.Memory.CopyIn(codeAddr, code); err != nil {
		t.Fatalf("CopyIn: %v", err)
	}
	m.State.EIP = codeAddr
	m.State.GasRemaining = 1_000_000
	return m
}

func TestScenario_MovAndStack(t *testing.T) {
	const base = 0x80000000
	code := []byte{
		0xB0, 0x11, // mov al,0x11
		0xB4, 0x22, // mov ah,0x22
		0xB2, 0x33, // mov dl,0x33
		0xB7, 0x44, // mov bh,0x44
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
	if m.State.Regs[vm.RegEAX] != 0x00002211 {
		t.Errorf("EAX = 0x%08X, want 0x00002211", m.State.Regs[vm.RegEAX])
	}
	if dl := m.State.GetReg(vm.RegEDX, vm.SizeByte); dl.Raw() != 0x33 {
		t.Errorf("DL = 0x%02X, want 0x33", dl.Raw())
	}
	if bh := m.State.GetReg(vm.RegEBX|0x4, vm.SizeByte); bh.Raw() != 0x44 {
		t.Errorf("BH = 0x%02X, want 0x44", bh.Raw())
	}
	wantEIP := base + uint32(len(code)) - 1 // halted at the hlt byte itself
	if m.State.EIP != wantEIP {
		t.Errorf("EIP = 0x%08X, want 0x%08X", m.State.EIP, wantEIP)
	}
}

func TestScenario_PushPop(t *testing.T) {
	const base = 0x80000000
	code := []byte{
		0xBC, 0x00, 0x01, 0x00, 0x80, // mov esp,0x80000100
		0x68, 0x78, 0x56, 0x34, 0x12, // push 0x12345678
		0x58, // pop eax
		0xBB, 0x00, 0x10, 0x00, 0x80, // mov ebx,0x80001000
		0xC7, 0x03, 0xCC, 0xDD, 0xEE, 0xFF, // mov dword[ebx],0xffeeddcc
		0xFF, 0x33, // push dword[ebx]
		0x59, // pop ecx
		0x53, // push ebx
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
	if m.State.Regs[vm.RegEAX] != 0x12345678 {
		t.Errorf("EAX = 0x%08X, want 0x12345678", m.State.Regs[vm.RegEAX])
	}
	if m.State.Regs[vm.RegECX] != 0xFFEEDDCC {
		t.Errorf("ECX = 0x%08X, want 0xFFEEDDCC", m.State.Regs[vm.RegECX])
	}
	if m.State.Regs[vm.RegESP] != 0x800000FC {
		t.Errorf("ESP = 0x%08X, want 0x800000FC", m.State.Regs[vm.RegESP])
	}
	top, err := m.Memory.GetU32(0x800000FC)
	if err != nil {
		t.Fatalf("GetU32: %v", err)
	}
	if top != 0x80001000 {
		t.Errorf("memory at ESP = 0x%08X, want 0x80001000", top)
	}
}

func TestScenario_ArithmeticFlags(t *testing.T) {
	const base = 0x80000000
	code := []byte{
		0xB8, 0xFF, 0xFF, 0xFF, 0x7F, // mov eax,0x7FFFFFFF
		0xBB, 0xFF, 0xFF, 0xFF, 0x7F, // mov ebx,0x7FFFFFFF
		0x01, 0xD8, // add eax,ebx
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
	if m.State.Regs[vm.RegEAX] != 0xFFFFFFFE {
		t.Errorf("EAX = 0x%08X, want 0xFFFFFFFE", m.State.Regs[vm.RegEAX])
	}
	f := m.State.Flags
	if !f.OF || !f.AF || !f.SF {
		t.Errorf("flags = %+v, want OF,AF,SF set", f)
	}
	if f.CF || f.ZF || f.PF {
		t.Errorf("flags = %+v, want CF,ZF,PF clear", f)
	}
}

func TestScenario_SignedCompare(t *testing.T) {
	const base = 0x80000000
	code := []byte{
		0xB0, 0xFE, // mov al,0xFE
		0xB1, 0xFF, // mov cl,0xFF
		0x38, 0xC8, // cmp al,cl
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
	if al := m.State.GetReg(vm.RegEAX, vm.SizeByte); al.Raw() != 0xFE {
		t.Errorf("AL = 0x%02X, want 0xFE (unchanged)", al.Raw())
	}
	f := m.State.Flags
	if !f.CF || !f.SF || !f.AF || !f.PF {
		t.Errorf("flags = %+v, want CF,SF,AF,PF set", f)
	}
	if f.ZF || f.OF {
		t.Errorf("flags = %+v, want ZF,OF clear", f)
	}
}

func TestScenario_RepMovsb(t *testing.T) {
	const dataAddr = 0x80000002
	const codeAddr = 0x80000020

	code := []byte{
		0xBE, 0x02, 0x00, 0x00, 0x80, // mov esi,0x80000002
		0xBF, 0x00, 0x00, 0x00, 0x80, // mov edi,0x80000000
		0xB9, 0x04, 0x00, 0x00, 0x00, // mov ecx,4
		0xF3, 0xA4, // rep movsb
		0xF4, // hlt
	}
	m := newScenarioVM(t, codeAddr, code)
	if err := m.Memory.CopyIn(dataAddr, []byte{0x11, 0x22, 0x33, 0x44}); err != nil {
		t.Fatalf("CopyIn data: %v", err)
	}

	halted, err := m.Execute(vm.NopHypervisor{})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !halted {
		t.Fatal("expected halted")
	}
	if m.State.Regs[vm.RegEDI] != 0x80000004 {
		t.Errorf("EDI = 0x%08X, want 0x80000004", m.State.Regs[vm.RegEDI])
	}
	if m.State.Regs[vm.RegESI] != 0x80000006 {
		t.Errorf("ESI = 0x%08X, want 0x80000006", m.State.Regs[vm.RegESI])
	}
	if m.State.Regs[vm.RegECX] != 0 {
		t.Errorf("ECX = %d, want 0", m.State.Regs[vm.RegECX])
	}
	dest, err := m.Memory.GetU32(0x80000000)
	if err != nil {
		t.Fatalf("GetU32: %v", err)
	}
	if dest != 0x44332211 {
		t.Errorf("memory at 0x80000000 = 0x%08X, want 0x44332211", dest)
	}
}

func TestScenario_RepneCmpsb(t *testing.T) {
	const dataAddr = 0x80000000
	const codeAddr = 0x80000020

	code := []byte{
		0xBE, 0x00, 0x00, 0x00, 0x80, // mov esi,0x80000000
		0xBF, 0x04, 0x00, 0x00, 0x80, // mov edi,0x80000004
		0xB9, 0x04, 0x00, 0x00, 0x00, // mov ecx,4
		0xF2, 0xA6, // repne cmpsb
		0xF4, // hlt
	}
	m := newScenarioVM(t, codeAddr, code)
	if err := m.Memory.CopyIn(dataAddr, []byte{0x11, 0x22, 0x33, 0x44, 0x99, 0x88, 0x33, 0x77}); err != nil {
		t.Fatalf("CopyIn data: %v", err)
	}

	halted, err := m.Execute(vm.NopHypervisor{})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !halted {
		t.Fatal("expected halted")
	}
	// REPNE repeats while ZF==0 (unequal) and stops as soon as a match sets
	// ZF: offsets 0 and 1 differ, offset 2 matches, so only 3 iterations run.
	if m.State.Regs[vm.RegECX] != 1 {
		t.Errorf("ECX = %d, want 1 (REPNE must stop at the first match)", m.State.Regs[vm.RegECX])
	}
	if m.State.Regs[vm.RegESI] != 0x80000003 {
		t.Errorf("ESI = 0x%08X, want 0x80000003", m.State.Regs[vm.RegESI])
	}
}

func TestScenario_RepneOnMovsbFails(t *testing.T) {
	const base = 0x80000000
	code := []byte{0xF2, 0xA4} // repne movsb: REPNE is only valid on CMPS/SCAS
	m := newScenarioVM(t, base, code)

	halted, err := m.Execute(vm.NopHypervisor{})
	if halted {
		t.Fatal("expected not halted")
	}
	var verr *vm.VMError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want *vm.VMError", err)
	}
	if verr.Kind != vm.ErrInvalidOpcodeEncoding {
		t.Errorf("Kind = %v, want ErrInvalidOpcodeEncoding", verr.Kind)
	}
}

func TestScenario_DivideByZero(t *testing.T) {
	const base = 0x80000000
	code := []byte{
		0x66, 0xB8, 0x0A, 0x00, // mov ax,10
		0x66, 0xBB, 0x00, 0x00, // mov bx,0
		0x66, 0xF7, 0xF3, // div bx
		0xF4, // hlt
	}
	m := newScenarioVM(t, base, code)

	halted, err := m.Execute(vm.NopHypervisor{})
	if halted {
		t.Fatal("expected not halted")
	}
	if !errors.Is(err, vm.ErrDivideByZeroErr) {
		t.Fatalf("err = %v, want ErrDivideByZero", err)
	}
	wantEIP := base + 8 // div bx starts right after the two 4-byte movs
	if m.ErrorEIP != wantEIP {
		t.Errorf("ErrorEIP = 0x%08X, want 0x%08X", m.ErrorEIP, wantEIP)
	}
}

func TestScenario_UndefinedOpcode(t *testing.T) {
	const base = 0x80000000
	code := []byte{0x90, 0x90, 0x0F, 0x0B, 0x90}
	m := newScenarioVM(t, base, code)

	halted, err := m.Execute(vm.NopHypervisor{})
	if halted {
		t.Fatal("expected not halted")
	}
	var verr *vm.VMError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want *vm.VMError", err)
	}
	if verr.Kind != vm.ErrInvalidOpcode {
		t.Errorf("Kind = %v, want ErrInvalidOpcode", verr.Kind)
	}
	wantEIP := base + 2 // the two leading nops, then the 0x0F escape
	if m.ErrorEIP != wantEIP {
		t.Errorf("ErrorEIP = 0x%08X, want 0x%08X", m.ErrorEIP, wantEIP)
	}
}
