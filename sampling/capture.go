package sampling

import (
	"github.com/sirupsen/logrus"

	"github.com/sarchlab/phasesim/board"
	"github.com/sarchlab/phasesim/checkpoint"
	"github.com/sarchlab/phasesim/engine"
	"github.com/sarchlab/phasesim/simpoint"
	"github.com/sarchlab/phasesim/stats"
)

// captureHandler checkpoints the machine at each descriptor's capture
// boundary. Checkpoint indices auto-increment from 0 in capture order;
// the handler re-arms itself per descriptor and terminates the run
// after the last one.
type captureHandler struct {
	dir   string
	set   *simpoint.Set
	board *board.Board
	sink  *stats.Sink

	next int
}

// newCaptureHandler creates a capture handler with its collaborators
// passed explicitly; it captures no ambient simulation state.
func newCaptureHandler(
	dir string,
	set *simpoint.Set,
	b *board.Board,
	sink *stats.Sink,
) *captureHandler {
	return &captureHandler{
		dir:   dir,
		set:   set,
		board: b,
		sink:  sink,
	}
}

// firstTrigger returns the trigger for the first descriptor's capture
// boundary.
func (h *captureHandler) firstTrigger() (engine.ExitTrigger, error) {
	first, err := h.set.At(0)
	if err != nil {
		return engine.ExitTrigger{}, err
	}
	return engine.ExitTrigger{
		Count: first.CheckpointStart(),
		Kind:  engine.TriggerIntervalBegin,
	}, nil
}

// captured returns the number of checkpoints written so far.
func (h *captureHandler) captured() int {
	return h.next
}

// OnFire saves the checkpoint for the current descriptor, resets
// statistics at the boundary, and arms the next descriptor's capture
// boundary if one remains.
func (h *captureHandler) OnFire(t engine.ExitTrigger) (engine.Decision, error) {
	index := h.next
	desc, err := h.set.At(index)
	if err != nil {
		return engine.Decision{}, err
	}

	logrus.WithFields(logrus.Fields{
		"index":   index,
		"retired": h.board.Retired(),
		"start":   desc.IntervalStart,
	}).Info("capture boundary reached")

	state := h.board.SnapshotState()
	if err := checkpoint.Save(h.dir, index, state, h.board.Memory()); err != nil {
		return engine.Decision{}, err
	}
	h.sink.Reset()
	h.next++

	if h.next >= h.set.Len() {
		return engine.Decision{Terminate: true}, nil
	}

	nextDesc, err := h.set.At(h.next)
	if err != nil {
		return engine.Decision{}, err
	}
	return engine.Decision{
		Next: &engine.ExitTrigger{
			Count: nextDesc.CheckpointStart(),
			Kind:  engine.TriggerIntervalBegin,
		},
	}, nil
}
