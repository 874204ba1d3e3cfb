package engine_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/phasesim/engine"
)

// fakeMachine retires one instruction per tick and halts at haltAt.
type fakeMachine struct {
	retired uint64
	haltAt  uint64
}

func (m *fakeMachine) Retired() uint64 { return m.retired }

func (m *fakeMachine) TickActive() error {
	m.retired++
	return nil
}

func (m *fakeMachine) AllHalted() bool {
	return m.haltAt > 0 && m.retired >= m.haltAt
}

// recordingHandler records every fire and replays scripted decisions.
type recordingHandler struct {
	fired     []engine.ExitTrigger
	decisions []engine.Decision
	err       error
}

func (h *recordingHandler) OnFire(t engine.ExitTrigger) (engine.Decision, error) {
	h.fired = append(h.fired, t)
	if h.err != nil {
		return engine.Decision{}, h.err
	}
	if len(h.decisions) == 0 {
		return engine.Decision{}, nil
	}
	d := h.decisions[0]
	h.decisions = h.decisions[1:]
	return d, nil
}

var _ = Describe("Engine", func() {
	var (
		machine    *fakeMachine
		dispatcher *engine.Dispatcher
		handler    *recordingHandler
	)

	BeforeEach(func() {
		machine = &fakeMachine{}
		dispatcher = engine.NewDispatcher()
		handler = &recordingHandler{}
		dispatcher.Register(engine.TriggerInstLimit, handler)
	})

	It("fires a trigger at its exact count", func() {
		dispatcher.Arm(engine.ExitTrigger{Count: 10, Kind: engine.TriggerInstLimit})
		handler.decisions = []engine.Decision{{Terminate: true}}

		reason, err := engine.New(machine, dispatcher).Run()

		Expect(err).ToNot(HaveOccurred())
		Expect(reason).To(Equal(engine.StopTerminated))
		Expect(handler.fired).To(HaveLen(1))
		Expect(handler.fired[0].Count).To(Equal(uint64(10)))
		Expect(machine.retired).To(Equal(uint64(10)),
			"trigger must fire before the tick past its count")
	})

	It("fires a zero-count trigger without advancing simulated time", func() {
		dispatcher.Arm(engine.ExitTrigger{Count: 0, Kind: engine.TriggerInstLimit})
		handler.decisions = []engine.Decision{{Terminate: true}}

		reason, err := engine.New(machine, dispatcher).Run()

		Expect(err).ToNot(HaveOccurred())
		Expect(reason).To(Equal(engine.StopTerminated))
		Expect(machine.retired).To(Equal(uint64(0)))
	})

	It("re-arms the handler's next trigger before resuming", func() {
		dispatcher.Arm(engine.ExitTrigger{Count: 5, Kind: engine.TriggerInstLimit})
		handler.decisions = []engine.Decision{
			{Next: &engine.ExitTrigger{Count: 12, Kind: engine.TriggerInstLimit}},
			{Terminate: true},
		}

		reason, err := engine.New(machine, dispatcher).Run()

		Expect(err).ToNot(HaveOccurred())
		Expect(reason).To(Equal(engine.StopTerminated))
		Expect(handler.fired).To(HaveLen(2))
		Expect(handler.fired[0].Count).To(Equal(uint64(5)))
		Expect(handler.fired[1].Count).To(Equal(uint64(12)))
		Expect(machine.retired).To(Equal(uint64(12)))
		Expect(dispatcher.Pending()).To(Equal(0),
			"every armed trigger was consumed")
	})

	It("fires same-count triggers in arming order", func() {
		var order []engine.TriggerKind
		first := handlerFunc(func(t engine.ExitTrigger) (engine.Decision, error) {
			order = append(order, t.Kind)
			return engine.Decision{}, nil
		})
		second := handlerFunc(func(t engine.ExitTrigger) (engine.Decision, error) {
			order = append(order, t.Kind)
			return engine.Decision{Terminate: true}, nil
		})
		dispatcher.Register(engine.TriggerIntervalBegin, first)
		dispatcher.Register(engine.TriggerInstLimit, second)
		dispatcher.Arm(engine.ExitTrigger{Count: 3, Kind: engine.TriggerIntervalBegin})
		dispatcher.Arm(engine.ExitTrigger{Count: 3, Kind: engine.TriggerInstLimit})

		_, err := engine.New(machine, dispatcher).Run()

		Expect(err).ToNot(HaveOccurred())
		Expect(order).To(Equal([]engine.TriggerKind{
			engine.TriggerIntervalBegin,
			engine.TriggerInstLimit,
		}))
	})

	It("stops when the workload halts", func() {
		machine.haltAt = 7

		reason, err := engine.New(machine, dispatcher).Run()

		Expect(err).ToNot(HaveOccurred())
		Expect(reason).To(Equal(engine.StopHalted))
		Expect(machine.retired).To(Equal(uint64(7)))
	})

	It("stops at the instruction limit", func() {
		reason, err := engine.New(machine, dispatcher,
			engine.WithMaxInsts(25)).Run()

		Expect(err).ToNot(HaveOccurred())
		Expect(reason).To(Equal(engine.StopInstLimit))
		Expect(machine.retired).To(Equal(uint64(25)))
	})

	It("fails when a fired trigger has no handler", func() {
		bare := engine.NewDispatcher()
		bare.Arm(engine.ExitTrigger{Count: 1, Kind: engine.TriggerInstLimit})

		_, err := engine.New(machine, bare).Run()

		Expect(errors.Is(err, engine.ErrNoHandler)).To(BeTrue())
	})

	It("propagates handler errors", func() {
		handlerErr := errors.New("checkpoint write failed")
		handler.err = handlerErr
		dispatcher.Arm(engine.ExitTrigger{Count: 2, Kind: engine.TriggerInstLimit})

		_, err := engine.New(machine, dispatcher).Run()

		Expect(errors.Is(err, handlerErr)).To(BeTrue())
	})
})

// handlerFunc adapts a function to the Handler interface.
type handlerFunc func(engine.ExitTrigger) (engine.Decision, error)

func (f handlerFunc) OnFire(t engine.ExitTrigger) (engine.Decision, error) {
	return f(t)
}
