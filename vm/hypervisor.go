package vm

// Hypervisor is the single capability the embedding host exposes to the
// VM: handling an INT/INT3. The VM holds it only for the duration of one
// call; it is never stored across calls (spec §4.8, §9 "Cyclic borrowing
// between VM and hypervisor").
type Hypervisor interface {
	Interrupt(state *VMState, num uint8) error
}

// NopHypervisor answers every interrupt with success and no side effects.
// Useful for tests that exercise INT/INT3 decoding without caring about
// host behavior.
type NopHypervisor struct{}

func (NopHypervisor) Interrupt(*VMState, uint8) error { return nil }
