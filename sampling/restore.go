package sampling

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/phasesim/engine"
	"github.com/sarchlab/phasesim/simpoint"
	"github.com/sarchlab/phasesim/stats"
)

// restoreHandler advances one restored interval through its phase
// boundaries: the warmup fire discards warmup statistics and arms the
// measurement boundary, the measurement fire dumps the interval's
// record and terminates.
type restoreHandler struct {
	desc  simpoint.Descriptor
	sink  *stats.Sink
	phase Phase
}

// newRestoreHandler creates a restore handler starting in the given
// phase (Warmup, or Measurement when the descriptor's warmup is zero).
func newRestoreHandler(desc simpoint.Descriptor, sink *stats.Sink, start Phase) *restoreHandler {
	return &restoreHandler{
		desc:  desc,
		sink:  sink,
		phase: start,
	}
}

// OnFire advances the phase machine one boundary.
func (h *restoreHandler) OnFire(t engine.ExitTrigger) (engine.Decision, error) {
	switch h.phase {
	case PhaseWarmup:
		h.sink.Dump(stats.PhaseWarmup, h.desc.Index)
		h.sink.Reset()
		h.phase = PhaseMeasurement

		logrus.WithFields(logrus.Fields{
			"index": h.desc.Index,
			"count": t.Count,
		}).Info("warmup complete, entering measurement")

		return engine.Decision{
			Next: &engine.ExitTrigger{
				Count: t.Count + h.desc.IntervalLength,
				Kind:  engine.TriggerInstLimit,
			},
		}, nil

	case PhaseMeasurement:
		h.sink.Dump(stats.PhaseMeasurement, h.desc.Index)
		h.phase = PhaseDone

		logrus.WithFields(logrus.Fields{
			"index": h.desc.Index,
			"count": t.Count,
		}).Info("measurement complete")

		return engine.Decision{Terminate: true}, nil

	default:
		return engine.Decision{}, fmt.Errorf(
			"trigger fired in phase %s", h.phase)
	}
}
