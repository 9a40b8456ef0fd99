// Package config loads and saves the emulator's TOML configuration,
// structured the same way as the teacher's Config: nested sections with
// toml tags, a DefaultConfig constructor, and Load/Save helpers.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"

	"github.com/gasvm/x86emu/vm"
)

// Config represents the emulator's tunable settings: how much gas a run
// starts with and where, what each gas tier costs, and where traces go.
type Config struct {
	Execution struct {
		InitialGas   uint64 `toml:"initial_gas"`
		StackSize    uint32 `toml:"stack_size"`
		EntryPoint   string `toml:"entry_point"`
		ReadOnlyLoad bool   `toml:"read_only_load"`
	} `toml:"execution"`

	Gas struct {
		VeryLow             uint64 `toml:"very_low"`
		Low                 uint64 `toml:"low"`
		Moderate            uint64 `toml:"moderate"`
		High                uint64 `toml:"high"`
		ConditionalBranch   uint64 `toml:"conditional_branch"`
		MemoryAccess        uint64 `toml:"memory_access"`
		WriteableMemoryExec uint64 `toml:"writeable_memory_exec"`
		ModRMSurcharge      uint64 `toml:"modrm_surcharge"`
	} `toml:"gas"`

	Memory struct {
		PageSize uint32 `toml:"page_size"`
	} `toml:"memory"`

	Trace struct {
		Enabled    bool   `toml:"enabled"`
		OutputFile string `toml:"output_file"`
		MaxEntries int    `toml:"max_entries"`
	} `toml:"trace"`
}

// DefaultConfig returns a Config seeded with DefaultGasCharger's schedule
// and a million-unit gas budget, matching the reference test schedule in
// vm.DefaultGasCharger.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Execution.InitialGas = 1_000_000
	cfg.Execution.StackSize = 0x10000
	cfg.Execution.EntryPoint = "0x80000000"
	cfg.Execution.ReadOnlyLoad = false

	cfg.Gas.VeryLow = 1
	cfg.Gas.Low = 4
	cfg.Gas.Moderate = 10
	cfg.Gas.High = 20
	cfg.Gas.ConditionalBranch = 10
	cfg.Gas.MemoryAccess = 1
	cfg.Gas.WriteableMemoryExec = 15
	cfg.Gas.ModRMSurcharge = 1

	cfg.Memory.PageSize = 0x10000

	cfg.Trace.Enabled = false
	cfg.Trace.OutputFile = "trace.log"
	cfg.Trace.MaxEntries = 100000

	return cfg
}

// GasCharger builds a vm.GasCharger from the [gas] section, letting a host
// retune pricing without a rebuild.
func (c *Config) GasCharger() *vm.GasCharger {
	g := &vm.GasCharger{}
	g.Costs[vm.GasNone] = 0
	g.Costs[vm.GasVeryLow] = c.Gas.VeryLow
	g.Costs[vm.GasLow] = c.Gas.Low
	g.Costs[vm.GasModerate] = c.Gas.Moderate
	g.Costs[vm.GasHigh] = c.Gas.High
	g.Costs[vm.GasConditionalBranch] = c.Gas.ConditionalBranch
	g.Costs[vm.GasMemoryAccess] = c.Gas.MemoryAccess
	g.Costs[vm.GasWriteableMemoryExec] = c.Gas.WriteableMemoryExec
	g.Costs[vm.GasModRMSurcharge] = c.Gas.ModRMSurcharge
	return g
}

// GetConfigPath returns the platform-specific config file path, mirroring
// the teacher's GetConfigPath exactly except for the app directory name.
func GetConfigPath() string {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		configDir = filepath.Join(configDir, "x86emu")

	case "darwin", "linux":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.toml"
		}
		configDir = filepath.Join(homeDir, ".config", "x86emu")

	default:
		return "config.toml"
	}

	if err := os.MkdirAll(configDir, 0750); err != nil {
		return "config.toml"
	}

	return filepath.Join(configDir, "config.toml")
}

// Load loads configuration from the default config file.
func Load() (*Config, error) {
	return LoadFrom(GetConfigPath())
}

// LoadFrom loads configuration from path, falling back to defaults when the
// file does not exist.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Save saves configuration to the default config file.
func (c *Config) Save() error {
	return c.SaveTo(GetConfigPath())
}

// SaveTo saves configuration to path.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path) // #nosec G304 -- user config file path
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}
