package latency

import (
	"encoding/json"
	"fmt"
	"os"
)

// Config holds execution latency values per instruction class.
type Config struct {
	// ALULatency is the execution latency for basic ALU operations
	// (LDI, ADDI, ADD, SUB). Default: 1 cycle.
	ALULatency uint64 `json:"alu_latency"`

	// MultiplyLatency is the latency for integer multiply. Default: 3 cycles.
	MultiplyLatency uint64 `json:"multiply_latency"`

	// BranchLatency is the execution latency for branch instructions
	// (JMP, BNZ, BZ). Default: 1 cycle.
	BranchLatency uint64 `json:"branch_latency"`

	// LoadLatency is the issue latency for loads, before any memory-system
	// latency is added. Default: 1 cycle.
	LoadLatency uint64 `json:"load_latency"`

	// StoreLatency is the issue latency for stores, before any
	// memory-system latency is added. Default: 1 cycle.
	StoreLatency uint64 `json:"store_latency"`

	// OutputLatency is the latency for console output. Default: 1 cycle.
	OutputLatency uint64 `json:"output_latency"`
}

// DefaultConfig returns a Config with the default latency values.
func DefaultConfig() *Config {
	return &Config{
		ALULatency:      1,
		MultiplyLatency: 3,
		BranchLatency:   1,
		LoadLatency:     1,
		StoreLatency:    1,
		OutputLatency:   1,
	}
}

// LoadConfig loads a Config from a JSON file. Fields absent from the
// file keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read latency config file: %w", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse latency config: %w", err)
	}

	return config, nil
}

// SaveConfig writes a Config to a JSON file.
func (c *Config) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize latency config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write latency config file: %w", err)
	}

	return nil
}

// Validate checks that all latency values are valid (> 0).
func (c *Config) Validate() error {
	if c.ALULatency == 0 {
		return fmt.Errorf("alu_latency must be > 0")
	}
	if c.MultiplyLatency == 0 {
		return fmt.Errorf("multiply_latency must be > 0")
	}
	if c.BranchLatency == 0 {
		return fmt.Errorf("branch_latency must be > 0")
	}
	if c.LoadLatency == 0 {
		return fmt.Errorf("load_latency must be > 0")
	}
	if c.StoreLatency == 0 {
		return fmt.Errorf("store_latency must be > 0")
	}
	if c.OutputLatency == 0 {
		return fmt.Errorf("output_latency must be > 0")
	}
	return nil
}

// Clone returns a deep copy of the Config.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}
