// Package board assembles the simulated machine: architectural state,
// both execution-model groups, the memory system, and the registry
// that switches between them. The board is what the engine ticks and
// what checkpoints capture.
package board

import (
	"fmt"

	"github.com/sarchlab/phasesim/emu"
	"github.com/sarchlab/phasesim/stats"
	"github.com/sarchlab/phasesim/timing/core"
)

// Board is the assembled machine.
type Board struct {
	config *Config

	memory  *emu.Memory
	console *emu.Console

	regFiles []*emu.RegFile
	counters []*emu.Counter

	emulators   []*emu.Emulator
	timingCores []*core.Core

	memSys   *MemorySystem
	registry *Registry
}

// Config returns the configuration the board was built from.
func (b *Board) Config() *Config {
	return b.config
}

// Memory returns the machine's memory.
func (b *Board) Memory() *emu.Memory {
	return b.memory
}

// Console returns the machine's output device.
func (b *Board) Console() *emu.Console {
	return b.console
}

// MemorySystem returns the machine's memory system.
func (b *Board) MemorySystem() *MemorySystem {
	return b.memSys
}

// Registry returns the execution-model registry.
func (b *Board) Registry() *Registry {
	return b.registry
}

// CoreCount returns the number of logical core slots.
func (b *Board) CoreCount() int {
	return len(b.regFiles)
}

// SetEntry points every core slot's PC at the entry address.
func (b *Board) SetEntry(pc uint64) {
	for _, rf := range b.regFiles {
		rf.PC = pc
	}
}

// Retired returns the lead core's retired-instruction count. Triggers
// fire against this stream; it is continuous across model switches
// because both models of a slot share one counter.
func (b *Board) Retired() uint64 {
	return b.counters[0].Count()
}

// TickActive advances every non-halted core of the active group one
// step.
func (b *Board) TickActive() error {
	for i, c := range b.registry.Active().Cores {
		if c.Halted() {
			continue
		}
		if err := c.Tick(); err != nil {
			return fmt.Errorf("core %d: %w", i, err)
		}
	}
	return nil
}

// AllHalted reports whether every core of the active group has halted.
func (b *Board) AllHalted() bool {
	for _, c := range b.registry.Active().Cores {
		if !c.Halted() {
			return false
		}
	}
	return true
}

// ExitCode returns the lead core's exit status.
func (b *Board) ExitCode() int64 {
	return b.registry.Active().Cores[0].ExitCode()
}

// SnapshotState deep-copies the machine's architectural state into a
// pure-data State. Memory pages are captured separately through
// Memory().WriteImage; cache tags are deliberately excluded.
func (b *Board) SnapshotState() *State {
	state := &State{
		ActiveGroup:    b.registry.ActiveName(),
		MemoryCapacity: b.memory.Capacity(),
		Cores:          make([]CoreState, len(b.regFiles)),
		ConsoleOutput:  b.console.Values(),
	}

	active := b.registry.Active()
	for i := range b.regFiles {
		state.Cores[i] = CoreState{
			Regs:     b.regFiles[i].Snapshot(),
			PC:       b.regFiles[i].PC,
			Halted:   active.Cores[i].Halted(),
			ExitCode: active.Cores[i].ExitCode(),
			Retired:  b.counters[i].Count(),
		}
	}

	return state
}

// RestoreState installs a snapshot back into the machine: registers,
// counters, halt state on both model variants, the console stream, and
// the active group. Memory is restored separately through
// Memory().ReadImage.
func (b *Board) RestoreState(state *State) error {
	if state.MemoryCapacity != b.memory.Capacity() {
		return fmt.Errorf(
			"state captured with %d bytes of memory, machine has %d",
			state.MemoryCapacity, b.memory.Capacity())
	}
	if len(state.Cores) != len(b.regFiles) {
		return fmt.Errorf(
			"state has %d core slots, machine has %d",
			len(state.Cores), len(b.regFiles))
	}

	for i, cs := range state.Cores {
		b.regFiles[i].Restore(cs.Regs)
		b.regFiles[i].PC = cs.PC
		b.counters[i].Set(cs.Retired)
		b.emulators[i].SetHalted(cs.Halted, cs.ExitCode)
		b.timingCores[i].SetHalted(cs.Halted, cs.ExitCode)
		b.timingCores[i].Drain()
	}

	b.console.Restore(state.ConsoleOutput)

	if state.ActiveGroup != "" {
		if err := b.registry.Switch(state.ActiveGroup); err != nil {
			return err
		}
	}

	return nil
}

// StatsSnapshot gathers every counter the machine exposes. The board
// is the stats provider the sink dumps from.
func (b *Board) StatsSnapshot() stats.Snapshot {
	snapshot := stats.Snapshot{
		Retired: b.Retired(),
	}

	for i, tc := range b.timingCores {
		snapshot.Cores = append(snapshot.Cores, stats.CoreStats{
			Slot:  i,
			Stats: tc.Stats(),
		})
	}

	if l1 := b.memSys.L1(); l1 != nil {
		snapshot.Caches = append(snapshot.Caches, stats.CacheStats{
			Level: "l1",
			Stats: l1.Stats(),
		})
	}
	if l2 := b.memSys.L2(); l2 != nil {
		snapshot.Caches = append(snapshot.Caches, stats.CacheStats{
			Level: "l2",
			Stats: l2.Stats(),
		})
	}

	return snapshot
}

// ResetStats zeroes the timing cores' and caches' counters. Cache tag
// state and architectural state are untouched.
func (b *Board) ResetStats() {
	for _, tc := range b.timingCores {
		tc.ResetStats()
	}
	b.memSys.ResetStats()
}
