// Package engine drives the simulated machine as a discrete-event
// scheduler over retired-instruction counts.
//
// The engine advances simulated time strictly monotonically and
// suspends only at ticks where an armed ExitTrigger fires; those fires
// are the sole points where control leaves simulated execution. All
// triggers due at a count fire before the tick that would retire the
// next instruction, so a zero-distance trigger fires without advancing
// simulated time.
package engine

import (
	"github.com/sirupsen/logrus"
)

// Machine is the engine's view of the simulated machine: tick the
// active execution-model group and report progress. The board
// implements it.
type Machine interface {
	// Retired returns the machine's retired-instruction count.
	Retired() uint64

	// TickActive advances the active execution-model group one step.
	TickActive() error

	// AllHalted reports whether every core of the active group has
	// halted.
	AllHalted() bool
}

// StopReason says why a run ended.
type StopReason int

// Stop reasons.
const (
	// StopTerminated: a trigger handler asked to terminate.
	StopTerminated StopReason = iota

	// StopHalted: the workload halted on every core.
	StopHalted

	// StopInstLimit: the absolute instruction limit was reached.
	StopInstLimit
)

// String returns the stop reason name.
func (r StopReason) String() string {
	switch r {
	case StopTerminated:
		return "terminated"
	case StopHalted:
		return "halted"
	case StopInstLimit:
		return "inst-limit"
	default:
		return "unknown"
	}
}

// Engine runs the machine until a handler terminates, the workload
// halts, or an optional instruction limit is reached.
type Engine struct {
	machine    Machine
	dispatcher *Dispatcher
	maxInsts   uint64
}

// Option is a functional option for configuring the Engine.
type Option func(*Engine)

// WithMaxInsts bounds the run at an absolute retired-instruction count.
// Zero means unbounded.
func WithMaxInsts(n uint64) Option {
	return func(e *Engine) {
		e.maxInsts = n
	}
}

// New creates an engine over the given machine and dispatcher.
func New(machine Machine, dispatcher *Dispatcher, opts ...Option) *Engine {
	e := &Engine{
		machine:    machine,
		dispatcher: dispatcher,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes until a stop condition. Trigger fires happen before the
// tick at their count; the machine never advances past an armed trigger
// without the trigger's handler running first.
func (e *Engine) Run() (StopReason, error) {
	for {
		retired := e.machine.Retired()

		terminate, err := e.dispatcher.fireDue(retired)
		if err != nil {
			return StopTerminated, err
		}
		if terminate {
			logrus.WithField("retired", retired).Debug("run terminated by handler")
			return StopTerminated, nil
		}

		if e.machine.AllHalted() {
			logrus.WithField("retired", retired).Debug("workload halted")
			return StopHalted, nil
		}
		if e.maxInsts > 0 && retired >= e.maxInsts {
			logrus.WithField("retired", retired).Debug("instruction limit reached")
			return StopInstLimit, nil
		}

		if err := e.machine.TickActive(); err != nil {
			return StopTerminated, err
		}
	}
}
