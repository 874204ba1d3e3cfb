package engine

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// ErrNoHandler reports a fired trigger whose kind has no registered
// handler.
var ErrNoHandler = errors.New("no handler registered for trigger kind")

// Decision is a handler's verdict after consuming a fired trigger.
type Decision struct {
	// Terminate stops the run with success.
	Terminate bool

	// Next, when non-nil, is re-armed with the engine before control
	// returns to simulated execution.
	Next *ExitTrigger
}

// Handler consumes fired triggers. Implementations are explicit state
// objects: each fire advances the handler's own state machine and
// returns what should happen next.
type Handler interface {
	OnFire(t ExitTrigger) (Decision, error)
}

// Dispatcher owns the armed-trigger queue and the kind-to-handler
// registration table. The engine suspends into it at every trigger
// fire.
type Dispatcher struct {
	handlers map[TriggerKind]Handler
	queue    triggerQueue
	seq      uint64
}

// NewDispatcher creates a dispatcher with no handlers and no armed
// triggers.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		handlers: make(map[TriggerKind]Handler),
	}
}

// Register installs the handler for a trigger kind, replacing any
// previous registration of that kind.
func (d *Dispatcher) Register(kind TriggerKind, h Handler) {
	d.handlers[kind] = h
}

// Arm schedules a trigger. Triggers due at the same count fire in
// arming order.
func (d *Dispatcher) Arm(t ExitTrigger) {
	logrus.WithFields(logrus.Fields{
		"kind":  t.Kind,
		"count": t.Count,
	}).Debug("trigger armed")
	d.queue.push(t, d.seq)
	d.seq++
}

// Pending returns the number of armed triggers.
func (d *Dispatcher) Pending() int {
	return d.queue.Len()
}

// fireDue consumes every trigger due at or before the given retired
// count, dispatching each to its handler and re-arming any follow-up
// trigger the handler returns. It reports whether a handler asked to
// terminate.
func (d *Dispatcher) fireDue(retired uint64) (terminate bool, err error) {
	for {
		next, ok := d.queue.peek()
		if !ok || next.Count > retired {
			return false, nil
		}

		t := d.queue.pop()
		handler, ok := d.handlers[t.Kind]
		if !ok {
			return false, fmt.Errorf("%w: %s at count %d", ErrNoHandler, t.Kind, t.Count)
		}

		logrus.WithFields(logrus.Fields{
			"kind":    t.Kind,
			"count":   t.Count,
			"retired": retired,
		}).Debug("trigger fired")

		decision, err := handler.OnFire(t)
		if err != nil {
			return false, err
		}
		if decision.Next != nil {
			d.Arm(*decision.Next)
		}
		if decision.Terminate {
			return true, nil
		}
	}
}
