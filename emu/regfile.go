// Package emu provides the architectural state of the simulated machine
// and its functional execution model.
package emu

import "github.com/sarchlab/phasesim/insts"

// RegFile represents the register file: 16 general-purpose registers
// and the program counter. Register 15 is the zero register and always
// reads as 0.
type RegFile struct {
	// X holds general-purpose registers r0-r15.
	// X[15] is the zero register; writes to it are ignored.
	X [insts.NumRegs]uint64

	// PC is the program counter.
	PC uint64
}

// ReadReg reads a register value. The zero register returns 0.
func (r *RegFile) ReadReg(reg uint8) uint64 {
	if reg >= insts.RegZero {
		return 0
	}
	return r.X[reg]
}

// WriteReg writes a value to a register. Writes to the zero register
// are ignored.
func (r *RegFile) WriteReg(reg uint8, value uint64) {
	if reg >= insts.RegZero {
		return
	}
	r.X[reg] = value
}

// Snapshot returns a copy of all register values including the PC.
func (r *RegFile) Snapshot() [insts.NumRegs]uint64 {
	return r.X
}

// Restore overwrites all register values.
func (r *RegFile) Restore(regs [insts.NumRegs]uint64) {
	r.X = regs
}

// Reset zeroes all registers and the PC.
func (r *RegFile) Reset() {
	r.X = [insts.NumRegs]uint64{}
	r.PC = 0
}
