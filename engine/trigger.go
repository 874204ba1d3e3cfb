package engine

import "container/heap"

// TriggerKind distinguishes independent trigger streams. Handlers
// register per kind; the phase controller's protocol never arms two
// different kinds concurrently.
type TriggerKind int

// Trigger kinds.
const (
	// TriggerIntervalBegin fires at checkpoint-capture boundaries
	// during a capture run.
	TriggerIntervalBegin TriggerKind = iota

	// TriggerInstLimit fires at warmup and measurement boundaries
	// during a restore run.
	TriggerInstLimit
)

// String returns the trigger kind name.
func (k TriggerKind) String() string {
	switch k {
	case TriggerIntervalBegin:
		return "interval-begin"
	case TriggerInstLimit:
		return "inst-limit"
	default:
		return "unknown"
	}
}

// ExitTrigger is a one-shot suspension point: when the machine's
// retired-instruction count reaches Count, the engine suspends and
// hands control to the handler registered for Kind. A fired trigger is
// consumed; the handler re-arms explicitly if another is needed.
type ExitTrigger struct {
	// Count is the absolute retired-instruction count at which the
	// trigger fires.
	Count uint64

	// Kind selects the handler that receives the fire.
	Kind TriggerKind
}

// armedTrigger is a pending trigger with its arming sequence number, so
// triggers due at the same count fire in arming order.
type armedTrigger struct {
	trigger ExitTrigger
	seq     uint64
}

// triggerQueue is a min-heap of armed triggers ordered by fire count,
// then arming order.
type triggerQueue []armedTrigger

func (q triggerQueue) Len() int { return len(q) }

func (q triggerQueue) Less(i, j int) bool {
	if q[i].trigger.Count != q[j].trigger.Count {
		return q[i].trigger.Count < q[j].trigger.Count
	}
	return q[i].seq < q[j].seq
}

func (q triggerQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *triggerQueue) Push(x any) {
	*q = append(*q, x.(armedTrigger))
}

func (q *triggerQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// push arms a trigger, preserving FIFO order among equal counts.
func (q *triggerQueue) push(t ExitTrigger, seq uint64) {
	heap.Push(q, armedTrigger{trigger: t, seq: seq})
}

// peek returns the earliest armed trigger without consuming it.
func (q triggerQueue) peek() (ExitTrigger, bool) {
	if len(q) == 0 {
		return ExitTrigger{}, false
	}
	return q[0].trigger, true
}

// pop consumes the earliest armed trigger.
func (q *triggerQueue) pop() ExitTrigger {
	return heap.Pop(q).(armedTrigger).trigger
}
