package board

import (
	"github.com/sarchlab/phasesim/insts"
)

// CoreState is one core slot's architectural state as pure data.
type CoreState struct {
	Regs     [insts.NumRegs]uint64 `json:"regs"`
	PC       uint64                `json:"pc"`
	Halted   bool                  `json:"halted"`
	ExitCode int64                 `json:"exit_code"`
	Retired  uint64                `json:"retired"`
}

// State is a whole-machine snapshot as pure serializable data. Memory
// pages travel separately through the checkpoint store; everything
// else the machine needs to resume is here.
type State struct {
	// ActiveGroup is the execution-model group that was active at
	// capture time.
	ActiveGroup string `json:"active_group"`

	// MemoryCapacity is the addressable memory size in bytes. A
	// restore into a machine with a different capacity is rejected.
	MemoryCapacity uint64 `json:"memory_capacity"`

	Cores []CoreState `json:"cores"`

	// ConsoleOutput is the output stream written so far, so a
	// restored run continues it.
	ConsoleOutput []uint64 `json:"console_output"`
}

// Retired returns the lead core's retired-instruction count at capture
// time.
func (s *State) Retired() uint64 {
	if len(s.Cores) == 0 {
		return 0
	}
	return s.Cores[0].Retired
}
