package loader

import (
	"testing"

	"github.com/gasvm/x86emu/vm"
)

func TestLoadWritableImage(t *testing.T) {
	machine := vm.NewVM()
	image := []byte{0xF4} // hlt

	opts := Options{
		Base:        0x80000000,
		SectionSize: vm.PageSize,
		StackBase:   0x80010000,
		StackSize:   vm.PageSize,
		InitialGas:  1000,
	}
	if err := Load(machine, image, opts); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if machine.State.EIP != opts.Base {
		t.Errorf("EIP = 0x%08X, want 0x%08X", machine.State.EIP, opts.Base)
	}
	if machine.State.GasRemaining != 1000 {
		t.Errorf("GasRemaining = %d, want 1000", machine.State.GasRemaining)
	}
	want := opts.StackBase + opts.StackSize
	if machine.State.Regs[vm.RegESP] != want {
		t.Errorf("ESP = 0x%08X, want 0x%08X", machine.State.Regs[vm.RegESP], want)
	}

	b, err := machine.Memory.GetU8(opts.Base)
	if err != nil || b != 0xF4 {
		t.Errorf("image byte at base = %02X, %v; want F4, nil", b, err)
	}
}

func TestLoadReadOnlyImage(t *testing.T) {
	machine := vm.NewVM()
	image := []byte{0x90, 0x90, 0xF4}

	opts := Options{
		Base:        0,
		ReadOnly:    true,
		SectionSize: vm.PageSize,
	}
	if err := Load(machine, image, opts); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	for i, want := range image {
		got, err := machine.Memory.GetU8(uint32(i))
		if err != nil || got != want {
			t.Errorf("byte %d = %02X, %v; want %02X, nil", i, got, err, want)
		}
	}

	if err := machine.Memory.SetU8(0, 0xCC); err == nil {
		t.Error("expected write to read-only section to fail")
	}
}

func TestLoadRejectsMismatchedHalf(t *testing.T) {
	machine := vm.NewVM()
	opts := Options{Base: 0x80000000, ReadOnly: true, SectionSize: vm.PageSize}
	if err := Load(machine, []byte{0x90}, opts); err == nil {
		t.Error("expected error loading read-only image into writable half")
	}
}
