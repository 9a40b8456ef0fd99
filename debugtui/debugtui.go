// Package debugtui is a small tcell+tview inspector for a vm.VM: registers,
// flags, and a memory page, refreshed after each single step. It carries
// none of the teacher debugger's breakpoints, watchpoints, expression
// evaluator, or command history — those let a host script or pause at an
// address, which is out of scope for a sandboxed, deterministic executor
// meant to run to completion or to a gas fault. What's kept is the
// panel-layout idiom of the teacher's TUI: bordered TextViews refreshed by
// one RefreshAll, driven by a handful of key bindings.
package debugtui

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/gasvm/x86emu/vm"
)

// Inspector is a read-only view of a vm.VM plus single-step control. It
// never mutates the machine except by calling Step.
type Inspector struct {
	Machine    *vm.VM
	Hypervisor vm.Hypervisor

	App        *tview.Application
	MainLayout *tview.Flex

	RegisterView *tview.TextView
	FlagsView    *tview.TextView
	MemoryView   *tview.TextView
	OutputView   *tview.TextView

	// MemoryAddress is the start of the memory displayed in MemoryView;
	// while it is zero the view starts at the 16-byte row holding EIP. It
	// can be paged with PgUp/PgDn.
	MemoryAddress uint32

	lastErr error
}

// New builds an Inspector over machine, reporting interrupts to hv (pass
// vm.NopHypervisor{} to silently ignore them).
func New(machine *vm.VM, hv vm.Hypervisor) *Inspector {
	ins := &Inspector{
		Machine:    machine,
		Hypervisor: hv,
		App:        tview.NewApplication(),
	}
	ins.initializeViews()
	ins.buildLayout()
	ins.setupKeyBindings()
	return ins
}

func (ins *Inspector) initializeViews() {
	ins.RegisterView = tview.NewTextView().SetDynamicColors(true)
	ins.RegisterView.SetBorder(true).SetTitle(" Registers ")

	ins.FlagsView = tview.NewTextView().SetDynamicColors(true)
	ins.FlagsView.SetBorder(true).SetTitle(" Flags ")

	ins.MemoryView = tview.NewTextView().SetDynamicColors(true).SetWrap(false)
	ins.MemoryView.SetBorder(true).SetTitle(" Memory ")

	ins.OutputView = tview.NewTextView().SetDynamicColors(true).SetWrap(true)
	ins.OutputView.SetBorder(true).SetTitle(" Output ")
}

func (ins *Inspector) buildLayout() {
	top := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(ins.RegisterView, 0, 1, false).
		AddItem(ins.FlagsView, 20, 0, false)

	left := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(top, 8, 0, false).
		AddItem(ins.MemoryView, 0, 1, false)

	ins.MainLayout = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(left, 0, 4, false).
		AddItem(ins.OutputView, 6, 0, false)
}

func (ins *Inspector) setupKeyBindings() {
	ins.App.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyF11:
			ins.step()
			return nil
		case tcell.KeyPgUp:
			ins.MemoryAddress -= vm.PageSize
			ins.RefreshAll()
			return nil
		case tcell.KeyPgDn:
			ins.MemoryAddress += vm.PageSize
			ins.RefreshAll()
			return nil
		case tcell.KeyCtrlC:
			ins.App.Stop()
			return nil
		case tcell.KeyCtrlL:
			ins.RefreshAll()
			return nil
		}
		return event
	})
}

// step single-steps the machine once and refreshes every view, appending
// any resulting error (including a clean halt) to the output log instead
// of tearing down the TUI.
func (ins *Inspector) step() {
	halted, err := ins.Machine.Step(ins.Hypervisor)
	if err != nil {
		ins.lastErr = err
		ins.WriteOutput(fmt.Sprintf("[red]step: %v[white]\n", err))
	} else if halted {
		ins.WriteOutput("[yellow]halted[white]\n")
	}
	ins.RefreshAll()
}

// WriteOutput appends a line to the output log view.
func (ins *Inspector) WriteOutput(text string) {
	_, _ = ins.OutputView.Write([]byte(text))
	ins.OutputView.ScrollToEnd()
}

// RefreshAll redraws every panel from current machine state.
func (ins *Inspector) RefreshAll() {
	ins.updateRegisterView()
	ins.updateFlagsView()
	ins.updateMemoryView()
	ins.App.Draw()
}

func (ins *Inspector) updateRegisterView() {
	s := &ins.Machine.State
	var lines []string
	for row := 0; row < 2; row++ {
		var cols []string
		for col := 0; col < 4; col++ {
			idx := uint8(row*4 + col)
			cols = append(cols, fmt.Sprintf("%s: 0x%08X", vm.RegisterName(idx, vm.SizeDword), s.Regs[idx]))
		}
		lines = append(lines, strings.Join(cols, "  "))
	}
	lines = append(lines, fmt.Sprintf("eip: 0x%08X  gas: %d", s.EIP, s.GasRemaining))
	ins.RegisterView.SetText(strings.Join(lines, "\n"))
}

func (ins *Inspector) updateFlagsView() {
	f := ins.Machine.State.Flags
	flag := func(name string, set bool) string {
		if set {
			return fmt.Sprintf("[green]%s[white]", name)
		}
		return fmt.Sprintf("[gray]%s[white]", strings.ToLower(name))
	}
	lines := []string{
		flag("CF", f.CF), flag("PF", f.PF), flag("AF", f.AF),
		flag("ZF", f.ZF), flag("SF", f.SF), flag("DF", f.DF), flag("OF", f.OF),
	}
	ins.FlagsView.SetText(strings.Join(lines, "\n"))
}

func (ins *Inspector) updateMemoryView() {
	addr := ins.MemoryAddress
	if addr == 0 {
		addr = ins.Machine.State.EIP &^ 0xF
	}

	var lines []string
	for row := 0; row < 16; row++ {
		rowAddr := addr + uint32(row*16)
		bytes, err := ins.Machine.Memory.GetBytes(rowAddr, 16)
		if err != nil {
			lines = append(lines, fmt.Sprintf("0x%08X: <unmapped>", rowAddr))
			continue
		}
		var hex []string
		var ascii strings.Builder
		for _, b := range bytes {
			hex = append(hex, fmt.Sprintf("%02X", b))
			if b >= 32 && b < 127 {
				ascii.WriteByte(b)
			} else {
				ascii.WriteByte('.')
			}
		}
		lines = append(lines, fmt.Sprintf("0x%08X: %s  %s", rowAddr, strings.Join(hex, " "), ascii.String()))
	}
	ins.MemoryView.SetText(strings.Join(lines, "\n"))
}

// Run starts the inspector's event loop. F11 single-steps, PgUp/PgDn pages
// the memory view, Ctrl-L redraws, Ctrl-C exits.
func (ins *Inspector) Run() error {
	ins.RefreshAll()
	ins.WriteOutput("[green]x86emu inspector[white]\n")
	ins.WriteOutput("F11: step   PgUp/PgDn: page memory   Ctrl-L: redraw   Ctrl-C: quit\n")
	return ins.App.SetRoot(ins.MainLayout, true).Run()
}

// Stop tears down the inspector's event loop.
func (ins *Inspector) Stop() {
	ins.App.Stop()
}

// LastError returns the error (if any) from the most recent Step call.
func (ins *Inspector) LastError() error {
	return ins.lastErr
}
