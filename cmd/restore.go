package cmd

import (
	"github.com/spf13/cobra"

	"github.com/sarchlab/phasesim/sampling"
	"github.com/sarchlab/phasesim/stats"
)

var (
	simPointIndex int
	statsFile     string
)

var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Restore one sampled interval's checkpoint and measure it",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := buildBoard()
		if err != nil {
			return err
		}

		set, err := loadSet()
		if err != nil {
			return err
		}

		sink := stats.NewSink(b)
		controller := sampling.NewController(b, set, sink, checkpointDir)

		if err := controller.Restore(simPointIndex); err != nil {
			return err
		}

		if statsFile != "" {
			if err := sink.WriteFile(statsFile); err != nil {
				return err
			}
			cmd.Printf("wrote measurement records to %s\n", statsFile)
		}

		printReport(cmd, sink)
		return nil
	},
}

func init() {
	restoreCmd.Flags().StringVar(&binaryPath, "binary", "",
		"workload binary (PSIM format)")
	restoreCmd.Flags().StringVar(&simpointsPath, "simpoints", "",
		"sampled interval numbers, one per line")
	restoreCmd.Flags().StringVar(&weightsPath, "weights", "",
		"interval weights, paired line by line with --simpoints")
	restoreCmd.Flags().Uint64Var(&intervalLength, "interval", 1_000_000,
		"interval length in instructions")
	restoreCmd.Flags().Uint64Var(&warmupLength, "warmup", 0,
		"warmup length in instructions")
	restoreCmd.Flags().StringVar(&checkpointDir, "checkpoint-dir", "",
		"directory to read checkpoints from")
	restoreCmd.Flags().IntVar(&simPointIndex, "simpoint-index", 0,
		"index of the sampled interval to restore")
	restoreCmd.Flags().StringVar(&statsFile, "stats-file", "",
		"write measurement records to this JSON file")

	for _, flag := range []string{"binary", "simpoints", "weights", "checkpoint-dir"} {
		_ = restoreCmd.MarkFlagRequired(flag)
	}

	rootCmd.AddCommand(restoreCmd)
}
