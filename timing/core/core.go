// Package core provides the detailed in-order execution model.
//
// The core holds one instruction in flight and charges its full cost
// (fetch, execute, memory) in cycles before retiring it. Architectural
// state mutates only at retirement, so an in-flight instruction can be
// squashed at any cycle boundary without losing committed work. That is
// what makes execution-model switches safe at instruction boundaries.
package core

import (
	"fmt"

	"github.com/sarchlab/phasesim/emu"
	"github.com/sarchlab/phasesim/insts"
	"github.com/sarchlab/phasesim/timing/latency"
)

// MemorySystem supplies access costs for fetch and data traffic. The
// board's memory system implements it; tests may substitute a fixed-cost
// stub.
type MemorySystem interface {
	// FetchLatency returns the cycle cost of fetching at addr.
	FetchLatency(addr uint64) uint64
	// AccessLatency returns the cycle cost of a data access at addr.
	AccessLatency(addr uint64, write bool) uint64
}

// Statistics holds performance counters for the core.
type Statistics struct {
	// Cycles is the total number of cycles simulated.
	Cycles uint64 `json:"cycles"`
	// Instructions is the number of instructions retired.
	Instructions uint64 `json:"instructions"`
	// Loads is the number of retired loads.
	Loads uint64 `json:"loads"`
	// Stores is the number of retired stores.
	Stores uint64 `json:"stores"`
	// Branches is the number of retired branches.
	Branches uint64 `json:"branches"`
	// BranchesTaken is the number of retired taken branches.
	BranchesTaken uint64 `json:"branches_taken"`
	// MemCycles is the portion of Cycles charged by the memory system.
	MemCycles uint64 `json:"mem_cycles"`
}

// CPI returns cycles per instruction, or 0 before any retirement.
func (s Statistics) CPI() float64 {
	if s.Instructions == 0 {
		return 0
	}
	return float64(s.Cycles) / float64(s.Instructions)
}

// IPC returns instructions per cycle, or 0 before any cycle.
func (s Statistics) IPC() float64 {
	if s.Cycles == 0 {
		return 0
	}
	return float64(s.Instructions) / float64(s.Cycles)
}

// pendingInst is the single in-flight instruction.
type pendingInst struct {
	inst *insts.Instruction
	pc   uint64
}

// Core is the detailed execution model over shared architectural state.
type Core struct {
	regFile *emu.RegFile
	memory  *emu.Memory
	decoder *insts.Decoder
	table   *latency.Table
	memsys  MemorySystem
	console *emu.Console
	counter *emu.Counter

	pending   *pendingInst
	remaining uint64

	halted   bool
	exitCode int64
	stats    Statistics
}

// CoreOption is a functional option for configuring the Core.
type CoreOption func(*Core)

// WithLatencyTable sets a custom latency table.
func WithLatencyTable(table *latency.Table) CoreOption {
	return func(c *Core) {
		c.table = table
	}
}

// WithMemorySystem routes fetch and data traffic through a memory system.
func WithMemorySystem(ms MemorySystem) CoreOption {
	return func(c *Core) {
		c.memsys = ms
	}
}

// WithConsole attaches an output device for OUT instructions.
func WithConsole(console *emu.Console) CoreOption {
	return func(c *Core) {
		c.console = console
	}
}

// WithCounter attaches a shared retired-instruction counter.
func WithCounter(counter *emu.Counter) CoreOption {
	return func(c *Core) {
		c.counter = counter
	}
}

// NewCore creates a detailed core over the given architectural state.
// The register file and memory are shared with any other execution model
// of the same core.
func NewCore(regFile *emu.RegFile, memory *emu.Memory, opts ...CoreOption) *Core {
	c := &Core{
		regFile: regFile,
		memory:  memory,
		decoder: insts.NewDecoder(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.table == nil {
		c.table = latency.NewTable()
	}
	if c.console == nil {
		c.console = emu.NewConsole()
	}
	if c.counter == nil {
		c.counter = emu.NewCounter()
	}

	return c
}

// SetPC sets the program counter.
func (c *Core) SetPC(pc uint64) {
	c.regFile.PC = pc
}

// Halted returns true if the core has retired HALT.
func (c *Core) Halted() bool {
	return c.halted
}

// SetHalted overwrites the halt state. Used when restoring checkpointed
// state.
func (c *Core) SetHalted(halted bool, exitCode int64) {
	c.halted = halted
	c.exitCode = exitCode
}

// ExitCode returns the exit status after HALT.
func (c *Core) ExitCode() int64 {
	return c.exitCode
}

// InstructionCount returns the number of instructions retired on the
// shared counter.
func (c *Core) InstructionCount() uint64 {
	return c.counter.Count()
}

// Stats returns the core's performance counters.
func (c *Core) Stats() Statistics {
	return c.stats
}

// ResetStats clears the performance counters. The in-flight instruction
// and architectural state are untouched.
func (c *Core) ResetStats() {
	c.stats = Statistics{}
}

// Drain squashes the in-flight instruction. Nothing architectural has
// happened for it yet, so the PC still points at it and the next active
// execution model re-issues it.
func (c *Core) Drain() {
	c.pending = nil
	c.remaining = 0
}

// Tick advances the core by one cycle.
func (c *Core) Tick() error {
	if c.halted {
		return nil
	}

	c.stats.Cycles++

	if c.pending == nil {
		if err := c.issue(); err != nil {
			return err
		}
	}

	c.remaining--
	if c.remaining == 0 {
		return c.retire()
	}
	return nil
}

// Run executes cycles until the core halts or an error occurs. Returns
// the exit code.
func (c *Core) Run() (int64, error) {
	for !c.halted {
		if err := c.Tick(); err != nil {
			return -1, err
		}
	}
	return c.exitCode, nil
}

// RunCycles executes at most the given number of cycles. Returns true
// if the core is still running afterwards.
func (c *Core) RunCycles(cycles uint64) (bool, error) {
	for i := uint64(0); i < cycles && !c.halted; i++ {
		if err := c.Tick(); err != nil {
			return false, err
		}
	}
	return !c.halted, nil
}

// issue fetches and decodes the instruction at PC and charges its full
// cost. The cost is fetch latency plus execution latency plus, for
// memory operations, the data-side cost at the address computed from
// the current register values.
func (c *Core) issue() error {
	pc := c.regFile.PC

	if !c.memory.InRange(pc, insts.WordBytes) {
		return fmt.Errorf("fetch out of range at PC=0x%X", pc)
	}

	word := c.memory.Read32(pc)
	inst := c.decoder.Decode(word)
	if inst.Op == insts.OpUnknown {
		return fmt.Errorf("unknown instruction at PC=0x%X", pc)
	}

	total := c.table.Latency(inst.Op)

	if c.memsys != nil {
		fetch := c.memsys.FetchLatency(pc)
		total += fetch
		c.stats.MemCycles += fetch
	}

	if c.table.IsMemoryOp(inst.Op) {
		addr := c.regFile.ReadReg(inst.Rn) + uint64(inst.Imm)
		if !c.memory.InRange(addr, 8) {
			return fmt.Errorf("%s out of range: addr=0x%X at PC=0x%X",
				inst.Op, addr, pc)
		}
		if c.memsys != nil {
			mem := c.memsys.AccessLatency(addr, c.table.IsStoreOp(inst.Op))
			total += mem
			c.stats.MemCycles += mem
		}
	}

	if total == 0 {
		total = 1
	}

	c.pending = &pendingInst{inst: inst, pc: pc}
	c.remaining = total
	return nil
}

// retire commits the in-flight instruction: this is the only place the
// detailed model mutates architectural state.
func (c *Core) retire() error {
	inst := c.pending.inst
	pc := c.pending.pc
	c.pending = nil

	switch inst.Op {
	case insts.OpNOP:
		c.regFile.PC = pc + insts.WordBytes

	case insts.OpHALT:
		c.regFile.PC = pc + insts.WordBytes
		c.halted = true
		c.exitCode = int64(c.regFile.ReadReg(0))

	case insts.OpLDI:
		c.regFile.WriteReg(inst.Rd, uint64(inst.Imm))
		c.regFile.PC = pc + insts.WordBytes

	case insts.OpADDI:
		c.regFile.WriteReg(inst.Rd, c.regFile.ReadReg(inst.Rn)+uint64(inst.Imm))
		c.regFile.PC = pc + insts.WordBytes

	case insts.OpADD:
		c.regFile.WriteReg(inst.Rd, c.regFile.ReadReg(inst.Rn)+c.regFile.ReadReg(inst.Rm))
		c.regFile.PC = pc + insts.WordBytes

	case insts.OpSUB:
		c.regFile.WriteReg(inst.Rd, c.regFile.ReadReg(inst.Rn)-c.regFile.ReadReg(inst.Rm))
		c.regFile.PC = pc + insts.WordBytes

	case insts.OpMUL:
		c.regFile.WriteReg(inst.Rd, c.regFile.ReadReg(inst.Rn)*c.regFile.ReadReg(inst.Rm))
		c.regFile.PC = pc + insts.WordBytes

	case insts.OpLD:
		addr := c.regFile.ReadReg(inst.Rn) + uint64(inst.Imm)
		c.regFile.WriteReg(inst.Rd, c.memory.Read64(addr))
		c.stats.Loads++
		c.regFile.PC = pc + insts.WordBytes

	case insts.OpST:
		addr := c.regFile.ReadReg(inst.Rn) + uint64(inst.Imm)
		c.memory.Write64(addr, c.regFile.ReadReg(inst.Rd))
		c.stats.Stores++
		c.regFile.PC = pc + insts.WordBytes

	case insts.OpJMP:
		c.stats.Branches++
		c.stats.BranchesTaken++
		c.regFile.PC = uint64(int64(pc) + inst.BranchOffset)

	case insts.OpBNZ:
		c.stats.Branches++
		if c.regFile.ReadReg(inst.Rd) != 0 {
			c.stats.BranchesTaken++
			c.regFile.PC = uint64(int64(pc) + inst.BranchOffset)
		} else {
			c.regFile.PC = pc + insts.WordBytes
		}

	case insts.OpBZ:
		c.stats.Branches++
		if c.regFile.ReadReg(inst.Rd) == 0 {
			c.stats.BranchesTaken++
			c.regFile.PC = uint64(int64(pc) + inst.BranchOffset)
		} else {
			c.regFile.PC = pc + insts.WordBytes
		}

	case insts.OpOUT:
		c.console.Append(c.regFile.ReadReg(inst.Rd))
		c.regFile.PC = pc + insts.WordBytes

	default:
		return fmt.Errorf("unknown instruction at PC=0x%X", pc)
	}

	c.stats.Instructions++
	c.counter.Add(1)
	return nil
}
