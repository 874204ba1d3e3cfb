package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sarchlab/phasesim/board"
	"github.com/sarchlab/phasesim/engine"
	"github.com/sarchlab/phasesim/stats"
)

var (
	runModel string
	maxInsts uint64
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the workload start to finish in one execution model",
	Long: `Run executes the whole workload without sampling, in either the fast
functional model or the detailed timing model, and prints a statistics
report. Useful for comparing the two models on short workloads.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var group string
		switch runModel {
		case "fast":
			group = board.GroupFast
		case "detailed":
			group = board.GroupDetailed
		default:
			return fmt.Errorf("unknown model %q, want fast or detailed", runModel)
		}

		b, err := buildBoard()
		if err != nil {
			return err
		}
		if err := b.Registry().Switch(group); err != nil {
			return err
		}

		eng := engine.New(b, engine.NewDispatcher(),
			engine.WithMaxInsts(maxInsts))
		reason, err := eng.Run()
		if err != nil {
			return err
		}

		sink := stats.NewSink(b)
		sink.Dump(stats.PhaseRun, -1)

		cmd.Printf("stopped: %s, retired %d instructions, exit code %d\n",
			reason, b.Retired(), b.ExitCode())
		printReport(cmd, sink)
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&binaryPath, "binary", "",
		"workload binary (PSIM format)")
	runCmd.Flags().StringVar(&runModel, "model", "fast",
		"execution model (fast or detailed)")
	runCmd.Flags().Uint64Var(&maxInsts, "max-insts", 0,
		"stop after this many retired instructions (0 = run to completion)")

	_ = runCmd.MarkFlagRequired("binary")

	rootCmd.AddCommand(runCmd)
}
