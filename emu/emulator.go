// Package emu provides the architectural state of the simulated machine
// and its functional execution model.
package emu

import (
	"fmt"

	"github.com/sarchlab/phasesim/insts"
)

// StepResult represents the result of executing a single instruction.
type StepResult struct {
	// Halted is true if the core has stopped (HALT executed).
	Halted bool

	// ExitCode is the exit status if Halted is true.
	ExitCode int64

	// Err is set if an error occurred during execution.
	Err error
}

// Emulator executes instructions functionally: one instruction per
// step, no timing. It is the fast-forward execution model.
type Emulator struct {
	regFile *RegFile
	memory  *Memory
	decoder *insts.Decoder
	console *Console
	counter *Counter

	halted   bool
	exitCode int64
}

// EmulatorOption is a functional option for configuring the Emulator.
type EmulatorOption func(*Emulator)

// WithConsole attaches an output device for OUT instructions.
func WithConsole(c *Console) EmulatorOption {
	return func(e *Emulator) {
		e.console = c
	}
}

// WithCounter attaches a shared retired-instruction counter.
func WithCounter(c *Counter) EmulatorOption {
	return func(e *Emulator) {
		e.counter = c
	}
}

// NewEmulator creates a functional emulator over the given architectural
// state. The register file and memory are shared with any other
// execution model of the same core.
func NewEmulator(regFile *RegFile, memory *Memory, opts ...EmulatorOption) *Emulator {
	e := &Emulator{
		regFile: regFile,
		memory:  memory,
		decoder: insts.NewDecoder(),
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.console == nil {
		e.console = NewConsole()
	}
	if e.counter == nil {
		e.counter = NewCounter()
	}

	return e
}

// RegFile returns the emulator's register file.
func (e *Emulator) RegFile() *RegFile {
	return e.regFile
}

// Memory returns the emulator's memory.
func (e *Emulator) Memory() *Memory {
	return e.memory
}

// Console returns the emulator's output device.
func (e *Emulator) Console() *Console {
	return e.console
}

// InstructionCount returns the number of instructions retired on the
// shared counter.
func (e *Emulator) InstructionCount() uint64 {
	return e.counter.Count()
}

// Halted reports whether the core has executed HALT.
func (e *Emulator) Halted() bool {
	return e.halted
}

// SetHalted overwrites the halt state. Used when restoring checkpointed
// state.
func (e *Emulator) SetHalted(halted bool, exitCode int64) {
	e.halted = halted
	e.exitCode = exitCode
}

// ExitCode returns the exit status after HALT.
func (e *Emulator) ExitCode() int64 {
	return e.exitCode
}

// Drain is a no-op: the functional model completes every instruction
// within its step and never holds in-flight work.
func (e *Emulator) Drain() {}

// Step executes a single instruction. Stepping a halted core does
// nothing and reports the halt.
func (e *Emulator) Step() StepResult {
	if e.halted {
		return StepResult{Halted: true, ExitCode: e.exitCode}
	}

	// Fetch
	if !e.memory.InRange(e.regFile.PC, insts.WordBytes) {
		return StepResult{Err: fmt.Errorf("fetch out of range at PC=0x%X", e.regFile.PC)}
	}
	word := e.memory.Read32(e.regFile.PC)

	// Decode
	inst := e.decoder.Decode(word)

	// Execute
	result := e.execute(inst)

	if result.Err == nil {
		e.counter.Add(1)
	}

	return result
}

// Tick advances the core by one step. It satisfies the execution-model
// contract shared with the timing core.
func (e *Emulator) Tick() error {
	return e.Step().Err
}

// Run executes instructions until the program halts or an error occurs.
func (e *Emulator) Run() (int64, error) {
	for {
		result := e.Step()
		if result.Err != nil {
			return -1, result.Err
		}
		if result.Halted {
			return result.ExitCode, nil
		}
	}
}

// execute dispatches and executes a decoded instruction.
func (e *Emulator) execute(inst *insts.Instruction) StepResult {
	switch inst.Op {
	case insts.OpNOP:
		e.regFile.PC += insts.WordBytes

	case insts.OpHALT:
		e.regFile.PC += insts.WordBytes
		e.halted = true
		e.exitCode = int64(e.regFile.ReadReg(0))
		return StepResult{Halted: true, ExitCode: e.exitCode}

	case insts.OpLDI:
		e.regFile.WriteReg(inst.Rd, uint64(inst.Imm))
		e.regFile.PC += insts.WordBytes

	case insts.OpADDI:
		v := e.regFile.ReadReg(inst.Rn) + uint64(inst.Imm)
		e.regFile.WriteReg(inst.Rd, v)
		e.regFile.PC += insts.WordBytes

	case insts.OpADD:
		v := e.regFile.ReadReg(inst.Rn) + e.regFile.ReadReg(inst.Rm)
		e.regFile.WriteReg(inst.Rd, v)
		e.regFile.PC += insts.WordBytes

	case insts.OpSUB:
		v := e.regFile.ReadReg(inst.Rn) - e.regFile.ReadReg(inst.Rm)
		e.regFile.WriteReg(inst.Rd, v)
		e.regFile.PC += insts.WordBytes

	case insts.OpMUL:
		v := e.regFile.ReadReg(inst.Rn) * e.regFile.ReadReg(inst.Rm)
		e.regFile.WriteReg(inst.Rd, v)
		e.regFile.PC += insts.WordBytes

	case insts.OpLD:
		addr := e.regFile.ReadReg(inst.Rn) + uint64(inst.Imm)
		if !e.memory.InRange(addr, 8) {
			return StepResult{Err: fmt.Errorf(
				"load out of range: addr=0x%X at PC=0x%X", addr, e.regFile.PC)}
		}
		e.regFile.WriteReg(inst.Rd, e.memory.Read64(addr))
		e.regFile.PC += insts.WordBytes

	case insts.OpST:
		addr := e.regFile.ReadReg(inst.Rn) + uint64(inst.Imm)
		if !e.memory.InRange(addr, 8) {
			return StepResult{Err: fmt.Errorf(
				"store out of range: addr=0x%X at PC=0x%X", addr, e.regFile.PC)}
		}
		e.memory.Write64(addr, e.regFile.ReadReg(inst.Rd))
		e.regFile.PC += insts.WordBytes

	case insts.OpJMP:
		e.regFile.PC = uint64(int64(e.regFile.PC) + inst.BranchOffset)

	case insts.OpBNZ:
		if e.regFile.ReadReg(inst.Rd) != 0 {
			e.regFile.PC = uint64(int64(e.regFile.PC) + inst.BranchOffset)
		} else {
			e.regFile.PC += insts.WordBytes
		}

	case insts.OpBZ:
		if e.regFile.ReadReg(inst.Rd) == 0 {
			e.regFile.PC = uint64(int64(e.regFile.PC) + inst.BranchOffset)
		} else {
			e.regFile.PC += insts.WordBytes
		}

	case insts.OpOUT:
		e.console.Append(e.regFile.ReadReg(inst.Rd))
		e.regFile.PC += insts.WordBytes

	default:
		return StepResult{Err: fmt.Errorf("unknown instruction at PC=0x%X", e.regFile.PC)}
	}

	return StepResult{}
}
