package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gasvm/x86emu/vm"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Execution.InitialGas != 1_000_000 {
		t.Errorf("Expected InitialGas=1000000, got %d", cfg.Execution.InitialGas)
	}
	if cfg.Execution.StackSize != 0x10000 {
		t.Errorf("Expected StackSize=0x10000, got %d", cfg.Execution.StackSize)
	}
	if cfg.Execution.EntryPoint != "0x80000000" {
		t.Errorf("Expected EntryPoint=0x80000000, got %s", cfg.Execution.EntryPoint)
	}

	if cfg.Gas.Low != 4 {
		t.Errorf("Expected Gas.Low=4, got %d", cfg.Gas.Low)
	}
	if cfg.Gas.ConditionalBranch != 10 {
		t.Errorf("Expected Gas.ConditionalBranch=10, got %d", cfg.Gas.ConditionalBranch)
	}

	if cfg.Memory.PageSize != vm.PageSize {
		t.Errorf("Expected PageSize=%d, got %d", vm.PageSize, cfg.Memory.PageSize)
	}

	if cfg.Trace.MaxEntries != 100000 {
		t.Errorf("Expected MaxEntries=100000, got %d", cfg.Trace.MaxEntries)
	}
}

func TestGasChargerMatchesDefault(t *testing.T) {
	cfg := DefaultConfig()
	got := cfg.GasCharger()
	want := vm.DefaultGasCharger()

	for tier := vm.GasCost(0); tier < vm.GasModRMSurcharge+1; tier++ {
		if got.Cost(tier) != want.Cost(tier) {
			t.Errorf("tier %d: got %d, want %d", tier, got.Cost(tier), want.Cost(tier))
		}
	}
}

func TestGetConfigPath(t *testing.T) {
	path := GetConfigPath()

	if path == "" {
		t.Error("GetConfigPath returned empty string")
	}
	if filepath.Base(path) != "config.toml" {
		t.Errorf("Expected path to end with config.toml, got %s", path)
	}
}

func TestSaveAndLoad(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "test_config.toml")

	cfg := DefaultConfig()
	cfg.Execution.InitialGas = 5_000_000
	cfg.Trace.Enabled = true
	cfg.Gas.High = 99

	if err := cfg.SaveTo(configPath); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Fatal("Config file was not created")
	}

	loaded, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if loaded.Execution.InitialGas != 5_000_000 {
		t.Errorf("Expected InitialGas=5000000, got %d", loaded.Execution.InitialGas)
	}
	if !loaded.Trace.Enabled {
		t.Error("Expected Trace.Enabled=true")
	}
	if loaded.Gas.High != 99 {
		t.Errorf("Expected Gas.High=99, got %d", loaded.Gas.High)
	}
}

func TestLoadNonExistent(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "nonexistent.toml")

	cfg, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("LoadFrom should not error on non-existent file: %v", err)
	}
	if cfg.Execution.InitialGas != 1_000_000 {
		t.Error("Expected default config when file doesn't exist")
	}
}

func TestLoadInvalidTOML(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "invalid.toml")

	invalidTOML := `
[execution]
initial_gas = "not a number"
`
	if err := os.WriteFile(configPath, []byte(invalidTOML), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	if _, err := LoadFrom(configPath); err == nil {
		t.Error("Expected error when loading invalid TOML")
	}
}

func TestSaveCreatesDirectory(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "subdir1", "subdir2", "config.toml")

	cfg := DefaultConfig()
	if err := cfg.SaveTo(configPath); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Error("Config file was not created")
	}
}
