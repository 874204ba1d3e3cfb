// Package sampling orchestrates sampled-simulation runs: capture runs
// that checkpoint the machine at every sampled interval's boundary,
// and restore runs that replay one interval in the detailed model.
//
// The controller is a state machine over FastForward, Warmup,
// Measurement, and Done. Phases advance monotonically; every
// transition happens at a trigger-fire suspension point, exactly once;
// failures abort the run rather than being retried.
package sampling

// Phase is the controller's position in the sampled run.
type Phase int

// Phases, in advance order.
const (
	// PhaseFastForward: the fast group executes; capture runs live
	// here for their whole duration.
	PhaseFastForward Phase = iota

	// PhaseWarmup: the detailed group executes to prime
	// microarchitectural state; its statistics are discarded.
	PhaseWarmup

	// PhaseMeasurement: the detailed group executes the sampled
	// interval; its statistics become the measurement record.
	PhaseMeasurement

	// PhaseDone is terminal.
	PhaseDone
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseFastForward:
		return "fast-forward"
	case PhaseWarmup:
		return "warmup"
	case PhaseMeasurement:
		return "measurement"
	case PhaseDone:
		return "done"
	default:
		return "unknown"
	}
}
