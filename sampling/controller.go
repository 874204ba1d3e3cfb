package sampling

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/phasesim/board"
	"github.com/sarchlab/phasesim/checkpoint"
	"github.com/sarchlab/phasesim/engine"
	"github.com/sarchlab/phasesim/simpoint"
	"github.com/sarchlab/phasesim/stats"
)

// Controller drives one sampled-simulation process invocation: either
// a capture run over the whole program or a restore run for one
// interval index. It owns the descriptor set and the current phase;
// the board, checkpoint store, and statistics sink are opaque
// collaborators.
type Controller struct {
	board *board.Board
	set   *simpoint.Set
	sink  *stats.Sink
	dir   string

	phase   Phase
	restore *restoreHandler
}

// NewController creates a controller over the given machine,
// descriptor set, statistics sink, and checkpoint directory.
func NewController(
	b *board.Board,
	set *simpoint.Set,
	sink *stats.Sink,
	dir string,
) *Controller {
	return &Controller{
		board: b,
		set:   set,
		sink:  sink,
		dir:   dir,
		phase: PhaseFastForward,
	}
}

// Phase returns the controller's current phase.
func (c *Controller) Phase() Phase {
	if c.restore != nil {
		return c.restore.phase
	}
	return c.phase
}

// Capture fast-forwards the whole program, writing one checkpoint per
// descriptor at its capture boundary. Returns the number of
// checkpoints written. The run ends after the last capture or when the
// workload exits, whichever comes first; a workload that exits early
// simply yields fewer checkpoints.
func (c *Controller) Capture() (int, error) {
	if err := c.board.Registry().Switch(board.GroupFast); err != nil {
		return 0, err
	}

	handler := newCaptureHandler(c.dir, c.set, c.board, c.sink)
	first, err := handler.firstTrigger()
	if err != nil {
		return 0, err
	}

	dispatcher := engine.NewDispatcher()
	dispatcher.Register(engine.TriggerIntervalBegin, handler)
	dispatcher.Arm(first)

	logrus.WithFields(logrus.Fields{
		"simpoints": c.set.Len(),
		"dir":       c.dir,
	}).Info("capture run starting")

	reason, err := engine.New(c.board, dispatcher).Run()
	if err != nil {
		return handler.captured(), err
	}

	if reason == engine.StopHalted && handler.captured() < c.set.Len() {
		logrus.WithFields(logrus.Fields{
			"captured":  handler.captured(),
			"simpoints": c.set.Len(),
		}).Warn("workload exited before all capture boundaries")
	}

	c.phase = PhaseDone
	return handler.captured(), nil
}

// Restore replays the sampled interval at the given index: load its
// checkpoint, switch to the detailed group, run warmup (discarded),
// then measure the interval and dump its record. Index validation
// happens before the checkpoint store is touched.
func (c *Controller) Restore(index int) error {
	desc, err := c.set.At(index)
	if err != nil {
		return err
	}

	state, err := checkpoint.Load(c.dir, index, c.board.Memory())
	if err != nil {
		return err
	}
	if err := c.board.RestoreState(state); err != nil {
		return err
	}
	if err := c.board.Registry().Switch(board.GroupDetailed); err != nil {
		return err
	}

	base := c.board.Retired()

	// A zero warmup skips the Warmup phase entirely; statistics are
	// still reset so measurement never includes prior counters.
	start := PhaseWarmup
	firstBoundary := base + desc.Warmup
	if desc.Warmup == 0 {
		c.sink.Reset()
		start = PhaseMeasurement
		firstBoundary = base + desc.IntervalLength
	}

	c.restore = newRestoreHandler(desc, c.sink, start)

	dispatcher := engine.NewDispatcher()
	dispatcher.Register(engine.TriggerInstLimit, c.restore)
	dispatcher.Arm(engine.ExitTrigger{
		Count: firstBoundary,
		Kind:  engine.TriggerInstLimit,
	})

	logrus.WithFields(logrus.Fields{
		"index":    index,
		"restored": base,
		"warmup":   desc.Warmup,
		"interval": desc.IntervalLength,
	}).Info("restore run starting")

	reason, err := engine.New(c.board, dispatcher).Run()
	if err != nil {
		return err
	}
	if reason != engine.StopTerminated {
		return fmt.Errorf(
			"workload ended in phase %s before the interval completed (%s)",
			c.restore.phase, reason)
	}

	return nil
}
