// Package cmd wires the phasesim command-line interface.
package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sarchlab/phasesim/board"
	"github.com/sarchlab/phasesim/simpoint"
	"github.com/sarchlab/phasesim/stats"
	"github.com/sarchlab/phasesim/workloads"
)

var (
	logLevel   string
	configPath string

	binaryPath     string
	simpointsPath  string
	weightsPath    string
	intervalLength uint64
	warmupLength   uint64
	checkpointDir  string
)

var rootCmd = &cobra.Command{
	Use:   "phasesim",
	Short: "Sampled simulation driver for the phasesim CPU simulator",
	Long: `phasesim estimates full-program performance by simulating only a
handful of representative intervals (SimPoints) in detail, fast-forwarding
the rest in a functional execution model.

A capture run fast-forwards the whole program and checkpoints the machine
at each sampled interval's boundary. A restore run loads one checkpoint,
warms the detailed model up, and measures that interval.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		logrus.SetLevel(level)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"log verbosity (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"board config YAML file (defaults apply when omitted)")
}

// Execute runs the CLI. Errors carry a user-visible message and a
// non-zero exit through main.
func Execute() error {
	return rootCmd.Execute()
}

// buildBoard assembles the machine from the configured board config
// and installs the workload binary.
func buildBoard() (*board.Board, error) {
	cfg := board.DefaultConfig()
	if configPath != "" {
		loaded, err := board.LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	b, err := board.NewBuilder().WithConfig(cfg).Build()
	if err != nil {
		return nil, err
	}

	program, err := workloads.Load(binaryPath)
	if err != nil {
		return nil, err
	}
	program.LoadInto(b.Memory())
	b.SetEntry(program.Entry)

	return b, nil
}

// loadSet parses the descriptor input files.
func loadSet() (*simpoint.Set, error) {
	return simpoint.LoadFiles(
		simpointsPath, weightsPath, intervalLength, warmupLength)
}

// printReport writes a short human-readable summary of the sink's
// measurement records.
func printReport(cmd *cobra.Command, sink *stats.Sink) {
	for _, record := range sink.Records() {
		if record.Phase != stats.PhaseMeasurement &&
			record.Phase != stats.PhaseRun {
			continue
		}
		for _, cs := range record.Snapshot.Cores {
			cmd.Printf(
				"core %d: %d instructions, %d cycles, CPI %.3f\n",
				cs.Slot, cs.Stats.Instructions, cs.Stats.Cycles,
				cs.Stats.CPI())
		}
		for _, cache := range record.Snapshot.Caches {
			cmd.Printf(
				"%s: %d hits, %d misses, hit rate %.1f%%\n",
				cache.Level, cache.Stats.Hits, cache.Stats.Misses,
				cache.Stats.HitRate()*100)
		}
	}
}
