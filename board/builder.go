package board

import (
	"fmt"

	"github.com/sarchlab/phasesim/emu"
	"github.com/sarchlab/phasesim/timing/core"
	"github.com/sarchlab/phasesim/timing/latency"
)

// Builder assembles a Board from a Config.
type Builder struct {
	config   *Config
	latTable *latency.Table
}

// NewBuilder creates a builder with the default configuration.
func NewBuilder() *Builder {
	return &Builder{}
}

// WithConfig sets the configuration to build from.
func (b *Builder) WithConfig(cfg *Config) *Builder {
	b.config = cfg
	return b
}

// WithLatencyTable overrides the latency table the config would
// otherwise select.
func (b *Builder) WithLatencyTable(t *latency.Table) *Builder {
	b.latTable = t
	return b
}

// Build validates the configuration and assembles the machine: shared
// architectural state per core slot, the memory system, and both
// execution-model groups, with the fast group active.
func (b *Builder) Build() (*Board, error) {
	cfg := b.config
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid board config: %w", err)
	}

	capacity, err := cfg.CapacityBytes()
	if err != nil {
		return nil, err
	}

	table, err := b.buildLatencyTable(cfg)
	if err != nil {
		return nil, err
	}

	board := &Board{
		config:  cfg,
		memory:  emu.NewMemory(capacity),
		console: emu.NewConsole(),
		memSys:  NewMemorySystem(cfg),
	}
	board.registry = NewRegistry(board.memSys)

	fastGroup := &Group{Name: GroupFast, Kind: ModelFast}
	detailedGroup := &Group{Name: GroupDetailed, Kind: ModelDetailed}

	for i := 0; i < cfg.Cores; i++ {
		regFile := &emu.RegFile{}
		counter := emu.NewCounter()

		emulator := emu.NewEmulator(regFile, board.memory,
			emu.WithConsole(board.console),
			emu.WithCounter(counter))

		timingCore := core.NewCore(regFile, board.memory,
			core.WithLatencyTable(table),
			core.WithMemorySystem(board.memSys),
			core.WithConsole(board.console),
			core.WithCounter(counter))

		board.regFiles = append(board.regFiles, regFile)
		board.counters = append(board.counters, counter)
		board.emulators = append(board.emulators, emulator)
		board.timingCores = append(board.timingCores, timingCore)

		fastGroup.Cores = append(fastGroup.Cores, emulator)
		detailedGroup.Cores = append(detailedGroup.Cores, timingCore)
	}

	if err := board.registry.Register(fastGroup); err != nil {
		return nil, err
	}
	if err := board.registry.Register(detailedGroup); err != nil {
		return nil, err
	}
	if err := board.registry.Switch(GroupFast); err != nil {
		return nil, err
	}

	return board, nil
}

func (b *Builder) buildLatencyTable(cfg *Config) (*latency.Table, error) {
	if b.latTable != nil {
		return b.latTable, nil
	}
	if cfg.Latency != nil {
		return latency.NewTableWithConfig(cfg.Latency), nil
	}
	if cfg.LatencyPath != "" {
		latCfg, err := latency.LoadConfig(cfg.LatencyPath)
		if err != nil {
			return nil, err
		}
		if err := latCfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid latency config: %w", err)
		}
		return latency.NewTableWithConfig(latCfg), nil
	}
	return latency.NewTable(), nil
}
