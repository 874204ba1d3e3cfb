// Package latency provides instruction timing lookups for the detailed
// execution model. Values are configured via Config.
package latency

import (
	"github.com/sarchlab/phasesim/insts"
)

// Table provides instruction latency lookups.
type Table struct {
	config *Config
}

// NewTable creates a latency table with default timing values.
func NewTable() *Table {
	return &Table{
		config: DefaultConfig(),
	}
}

// NewTableWithConfig creates a latency table with a custom configuration.
func NewTableWithConfig(config *Config) *Table {
	return &Table{
		config: config,
	}
}

// Latency returns the execution latency in cycles for the given opcode.
// Memory-system latency for loads and stores is added by the memory
// system, not here.
func (t *Table) Latency(op insts.Op) uint64 {
	switch op {
	case insts.OpLDI, insts.OpADDI, insts.OpADD, insts.OpSUB:
		return t.config.ALULatency

	case insts.OpMUL:
		return t.config.MultiplyLatency

	case insts.OpJMP, insts.OpBNZ, insts.OpBZ:
		return t.config.BranchLatency

	case insts.OpLD:
		return t.config.LoadLatency

	case insts.OpST:
		return t.config.StoreLatency

	case insts.OpOUT:
		return t.config.OutputLatency

	default:
		return 1
	}
}

// IsMemoryOp returns true if the opcode accesses memory.
func (t *Table) IsMemoryOp(op insts.Op) bool {
	return op == insts.OpLD || op == insts.OpST
}

// IsLoadOp returns true if the opcode is a load.
func (t *Table) IsLoadOp(op insts.Op) bool {
	return op == insts.OpLD
}

// IsStoreOp returns true if the opcode is a store.
func (t *Table) IsStoreOp(op insts.Op) bool {
	return op == insts.OpST
}

// IsBranchOp returns true if the opcode is a branch.
func (t *Table) IsBranchOp(op insts.Op) bool {
	switch op {
	case insts.OpJMP, insts.OpBNZ, insts.OpBZ:
		return true
	default:
		return false
	}
}

// Config returns the current timing configuration.
func (t *Table) Config() *Config {
	return t.config
}
