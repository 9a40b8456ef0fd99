package vm_test

import (
	"testing"

	"github.com/gasvm/x86emu/vm"
)

// program is a small reusable mix of data movement, arithmetic, and memory
// access, used to exercise determinism and gas accounting without
// duplicating a scenario's exact byte sequence.
var program = []byte{
	0xB8, 0x10, 0x00, 0x00, 0x00, // mov eax,0x10
	0xBB, 0x03, 0x00, 0x00, 0x00, // mov ebx,3
	0x01, 0xD8, // add eax,ebx
	0x29, 0xD8, // sub eax,ebx
	0xF4, // hlt
}

func runProgram(t *testing.T) *vm.VM {
	t.Helper()
	m := newScenarioVM(t, 0x80000000, program)
	halted, err := m.Execute(vm.NopHypervisor{})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !halted {
		t.Fatal("expected halted")
	}
	return m
}

func TestDeterminism(t *testing.T) {
	a := runProgram(t)
	b := runProgram(t)
	if a.State != b.State {
		t.Errorf("identical programs produced different states:\n%+v\n%+v", a.State, b.State)
	}
}

func TestGasMonotonicity(t *testing.T) {
	m := newScenarioVM(t, 0x80000000, program)
	const initial = 1_000_000
	m.State.GasRemaining = initial

	var prev uint64 = initial
	for {
		halted, err := m.Step(vm.NopHypervisor{})
		if err != nil {
			t.Fatalf("Step: %v", err)
		}
		if m.State.GasRemaining > prev {
			t.Fatalf("gas increased: %d -> %d", prev, m.State.GasRemaining)
		}
		prev = m.State.GasRemaining
		if halted {
			break
		}
	}
	if prev >= initial {
		t.Error("expected some gas to have been charged")
	}
}

func TestGasExhaustionIsResumable(t *testing.T) {
	m := newScenarioVM(t, 0x80000000, program)
	m.State.GasRemaining = 0

	halted, err := m.Execute(vm.NopHypervisor{})
	if halted {
		t.Fatal("expected not halted")
	}
	if err != vm.ErrOutOfGasErr {
		t.Fatalf("err = %v, want ErrOutOfGas", err)
	}
	startEIP := m.State.EIP
	if startEIP != 0x80000000 {
		t.Errorf("EIP moved despite no gas: 0x%08X", startEIP)
	}

	m.State.GasRemaining = 1_000_000
	halted, err = m.Execute(vm.NopHypervisor{})
	if err != nil {
		t.Fatalf("resumed Execute: %v", err)
	}
	if !halted {
		t.Fatal("expected halted after resuming with gas")
	}
}

func TestMemorySafety_WriteToReadOnlyHalf(t *testing.T) {
	m := vm.NewVM()
	if err := m.Memory.AddSection(0x80000000, vm.PageSize); err != nil {
		t.Fatalf("AddSection: %v", err)
	}
	if err := m.Memory.SetU8(0x00001000, 0x42); err == nil {
		t.Fatal("expected write to read-only half to fail")
	}
}

func TestMemorySafety_WriteToUnmappedPage(t *testing.T) {
	m := vm.NewVM()
	if err := m.Memory.SetU8(0x80000000, 0x42); err == nil {
		t.Fatal("expected write to unmapped page to fail")
	}
}

func TestEIPAdvance(t *testing.T) {
	// mov eax,imm32 is a fixed 5-byte non-branching instruction.
	code := []byte{0xB8, 0x01, 0x00, 0x00, 0x00, 0xF4}
	m := newScenarioVM(t, 0x80000000, code)

	before := m.State.EIP
	halted, err := m.Step(vm.NopHypervisor{})
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if halted {
		t.Fatal("unexpected halt on first instruction")
	}
	if got, want := m.State.EIP-before, uint32(5); got != want {
		t.Errorf("EIP advanced by %d, want %d", got, want)
	}
}

func TestPushfPopfRoundTrip(t *testing.T) {
	code := []byte{0x9C, 0x9D, 0xF4} // pushf; popf; hlt
	m := newScenarioVM(t, 0x80000000, code)
	m.State.Regs[vm.RegESP] = 0x80000100
	m.State.Flags = vm.Flags{CF: true, PF: false, AF: true, ZF: true, SF: false, OF: true, DF: false}
	want := m.State.Flags

	halted, err := m.Execute(vm.NopHypervisor{})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !halted {
		t.Fatal("expected halted")
	}
	if m.State.Flags != want {
		t.Errorf("flags after pushf/popf = %+v, want %+v", m.State.Flags, want)
	}
}

func TestLahfSahfRoundTrip(t *testing.T) {
	code := []byte{0x9F, 0x9E, 0xF4} // lahf; sahf; hlt
	m := newScenarioVM(t, 0x80000000, code)
	m.State.Flags = vm.Flags{CF: true, PF: true, AF: false, ZF: true, SF: true, OF: true, DF: true}
	// SAHF only restores CF/PF/AF/ZF/SF (the low byte of flags); OF and DF
	// are never encoded in AH and must be left untouched by the round trip.
	want := m.State.Flags

	halted, err := m.Execute(vm.NopHypervisor{})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !halted {
		t.Fatal("expected halted")
	}
	if m.State.Flags != want {
		t.Errorf("flags after lahf/sahf = %+v, want %+v", m.State.Flags, want)
	}
}

func TestSignZeroExtendIdentities(t *testing.T) {
	cases := []struct {
		name string
		v    vm.SizedValue
	}{
		{"byte positive", vm.ByteValue(0x42)},
		{"byte negative", vm.ByteValue(0xFE)},
		{"word positive", vm.WordValue(0x1234)},
		{"word negative", vm.WordValue(0x8001)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			zx := tc.v.U32ZeroExtend()
			sx := tc.v.U32SignExtend()

			mask := uint32(0xFF)
			if tc.v.Size() == vm.SizeWord {
				mask = 0xFFFF
			}
			if sx&mask != zx&mask {
				t.Errorf("sx&mask = 0x%X, zx&mask = 0x%X, want equal", sx&mask, zx&mask)
			}

			highBitSet := tc.v.Raw()&((mask+1)>>1) != 0
			allOnesAbove := sx&^mask == ^uint32(0)&^mask
			if highBitSet != allOnesAbove {
				t.Errorf("high bit set = %v but sign-extended high bits all-ones = %v", highBitSet, allOnesAbove)
			}
		})
	}
}
