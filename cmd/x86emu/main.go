// Command x86emu loads a raw IA-32 program image and runs it under the
// sandboxed, gas-metered executor in package vm.
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gasvm/x86emu/config"
	"github.com/gasvm/x86emu/debugtui"
	"github.com/gasvm/x86emu/hypervisor"
	"github.com/gasvm/x86emu/loader"
	"github.com/gasvm/x86emu/vm"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "x86emu",
		Short: "Sandboxed, gas-metered IA-32 instruction emulator",
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config.toml (defaults to the platform config dir)")

	var traceInterrupts bool
	var gasOverride uint64

	runCmd := &cobra.Command{
		Use:   "run [image]",
		Short: "Load a raw program image and run it to completion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, machine, err := setup(configPath, args[0], gasOverride)
			if err != nil {
				return err
			}

			var hv vm.Hypervisor
			term := &hypervisor.Terminate{}
			if traceInterrupts {
				hv = &loggingAndTerminate{log: hypervisor.NewLogging(), term: term}
			} else {
				hv = term
			}

			halted, runErr := machine.Execute(hv)
			printOutcome(cfg, machine, term, halted, runErr)
			if runErr != nil {
				return runErr
			}
			return nil
		},
	}
	runCmd.Flags().BoolVar(&traceInterrupts, "trace-interrupts", false, "Log every interrupt delivered to the guest")
	runCmd.Flags().Uint64Var(&gasOverride, "gas", 0, "Override initial gas (0 = use config)")

	stepCmd := &cobra.Command{
		Use:   "step [image]",
		Short: "Load a program image and single-step it in an interactive inspector",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, machine, err := setup(configPath, args[0], gasOverride)
			if err != nil {
				return err
			}
			ins := debugtui.New(machine, &hypervisor.Terminate{})
			return ins.Run()
		},
	}
	stepCmd.Flags().Uint64Var(&gasOverride, "gas", 0, "Override initial gas (0 = use config)")

	gasCmd := &cobra.Command{
		Use:   "gas-schedule",
		Short: "Print the effective gas schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			charger := cfg.GasCharger()
			tiers := []struct {
				name string
				tier vm.GasCost
			}{
				{"none", vm.GasNone}, {"very_low", vm.GasVeryLow}, {"low", vm.GasLow},
				{"moderate", vm.GasModerate}, {"high", vm.GasHigh},
				{"conditional_branch", vm.GasConditionalBranch}, {"memory_access", vm.GasMemoryAccess},
				{"writeable_memory_exec", vm.GasWriteableMemoryExec}, {"modrm_surcharge", vm.GasModRMSurcharge},
			}
			for _, t := range tiers {
				fmt.Printf("%-24s %d\n", t.name, charger.Cost(t.tier))
			}
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, stepCmd, gasCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loggingAndTerminate composes interrupt logging with the exit-interrupt
// convention, so --trace-interrupts doesn't forfeit a clean guest exit.
type loggingAndTerminate struct {
	log  *hypervisor.Logging
	term *hypervisor.Terminate
}

func (lt *loggingAndTerminate) Interrupt(state *vm.VMState, num uint8) error {
	if err := lt.log.Interrupt(state, num); err != nil {
		return err
	}
	return lt.term.Interrupt(state, num)
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFrom(path)
}

func setup(configPath, imagePath string, gasOverride uint64) (*config.Config, *vm.VM, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	image, err := os.ReadFile(imagePath) // #nosec G304 -- user-supplied image path
	if err != nil {
		return nil, nil, fmt.Errorf("reading image: %w", err)
	}

	entry, err := parseEntryPoint(cfg.Execution.EntryPoint)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing entry_point: %w", err)
	}

	machine := vm.NewVM()
	machine.Charger = cfg.GasCharger()

	sectionSize := pageAlign(uint32(len(image)))
	if sectionSize == 0 {
		sectionSize = vm.PageSize
	}

	opts := loader.Options{
		Base:        entry,
		ReadOnly:    cfg.Execution.ReadOnlyLoad,
		SectionSize: sectionSize,
		StackBase:   0x80000000,
		StackSize:   cfg.Execution.StackSize,
		InitialGas:  cfg.Execution.InitialGas,
	}
	if opts.ReadOnly {
		// A read-only image still needs a writable stack somewhere in the
		// high half; base it at the start of that half.
		opts.StackBase = 0x80000000
	} else {
		// A writable image gets its stack just above its own section.
		opts.StackBase = entry + sectionSize
	}
	if gasOverride != 0 {
		opts.InitialGas = gasOverride
	}

	if err := loader.Load(machine, image, opts); err != nil {
		return nil, nil, fmt.Errorf("loading image: %w", err)
	}

	return cfg, machine, nil
}

func parseEntryPoint(s string) (uint32, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}

func pageAlign(n uint32) uint32 {
	return (n + vm.PageSize - 1) &^ (vm.PageSize - 1)
}

func printOutcome(cfg *config.Config, machine *vm.VM, term *hypervisor.Terminate, halted bool, runErr error) {
	_ = cfg
	switch {
	case runErr != nil:
		fmt.Printf("fault at EIP=0x%08X: %v\n", machine.ErrorEIP, runErr)
	case term.Halted:
		fmt.Printf("exited with code %d (gas remaining: %d)\n", term.ExitCode, machine.State.GasRemaining)
	case halted:
		fmt.Printf("halted (gas remaining: %d)\n", machine.State.GasRemaining)
	default:
		fmt.Printf("ran out of gas at EIP=0x%08X\n", machine.State.EIP)
	}
}
