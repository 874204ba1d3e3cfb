package cmd

import (
	"github.com/spf13/cobra"

	"github.com/sarchlab/phasesim/sampling"
	"github.com/sarchlab/phasesim/stats"
)

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Fast-forward the workload and checkpoint every sampled interval",
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

		captured, err := controller.Capture()
		if err != nil {
			return err
		}

		cmd.Printf("captured %d of %d checkpoints under %s\n",
			captured, set.Len(), checkpointDir)
		return nil
	},
}

func init() {
	captureCmd.Flags().StringVar(&binaryPath, "binary", "",
		"workload binary (PSIM format)")
	captureCmd.Flags().StringVar(&simpointsPath, "simpoints", "",
		"sampled interval numbers, one per line")
	captureCmd.Flags().StringVar(&weightsPath, "weights", "",
		"interval weights, paired line by line with --simpoints")
	captureCmd.Flags().Uint64Var(&intervalLength, "interval", 1_000_000,
		"interval length in instructions")
	captureCmd.Flags().Uint64Var(&warmupLength, "warmup", 0,
		"warmup length in instructions")
	captureCmd.Flags().StringVar(&checkpointDir, "checkpoint-dir", "",
		"directory to write checkpoints into")

	for _, flag := range []string{"binary", "simpoints", "weights", "checkpoint-dir"} {
		_ = captureCmd.MarkFlagRequired(flag)
	}

	rootCmd.AddCommand(captureCmd)
}
