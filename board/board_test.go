package board_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/phasesim/board"
	"github.com/sarchlab/phasesim/workloads"
)

var _ = Describe("Board", func() {
	var b *board.Board

	BeforeEach(func() {
		b = buildTestBoard(nil)
	})

	It("ticks the active group and reports progress", func() {
		installProgram(b, workloads.CountUp(20))

		for !b.AllHalted() {
			Expect(b.TickActive()).To(Succeed())
		}

		Expect(b.Retired()).To(Equal(uint64(20)))
		Expect(b.ExitCode()).To(Equal(int64(0)))
	})

	It("produces identical results on both execution models", func() {
		run := func(group string) (uint64, []uint64) {
			b := buildTestBoard(nil)
			installProgram(b, workloads.Fibonacci(10))
			Expect(b.Registry().Switch(group)).To(Succeed())
			for !b.AllHalted() {
				Expect(b.TickActive()).To(Succeed())
			}
			return b.Retired(), b.Console().Values()
		}

		fastRetired, fastOut := run(board.GroupFast)
		detailedRetired, detailedOut := run(board.GroupDetailed)

		Expect(detailedRetired).To(Equal(fastRetired))
		Expect(detailedOut).To(Equal(fastOut))
		Expect(fastOut).To(Equal([]uint64{55}))
	})

	Describe("state snapshot", func() {
		It("round-trips architectural state", func() {
			installProgram(b, workloads.StridedSum(8, 2))
			for i := 0; i < 15; i++ {
				Expect(b.TickActive()).To(Succeed())
			}

			state := b.SnapshotState()
			Expect(state.ActiveGroup).To(Equal(board.GroupFast))
			Expect(state.Retired()).To(Equal(uint64(15)))
			Expect(state.MemoryCapacity).To(Equal(b.Memory().Capacity()))

			// Run further, then restore and compare.
			for i := 0; i < 10; i++ {
				Expect(b.TickActive()).To(Succeed())
			}
			Expect(b.Retired()).To(Equal(uint64(25)))

			Expect(b.RestoreState(state)).To(Succeed())
			Expect(b.Retired()).To(Equal(uint64(15)))
			Expect(b.SnapshotState()).To(Equal(state))
		})

		It("resumes identically after a restore", func() {
			installProgram(b, workloads.StridedSum(8, 2))
			for i := 0; i < 15; i++ {
				Expect(b.TickActive()).To(Succeed())
			}
			state := b.SnapshotState()

			for !b.AllHalted() {
				Expect(b.TickActive()).To(Succeed())
			}
			wantOut := b.Console().Values()
			wantRetired := b.Retired()

			Expect(b.RestoreState(state)).To(Succeed())
			for !b.AllHalted() {
				Expect(b.TickActive()).To(Succeed())
			}

			Expect(b.Console().Values()).To(Equal(wantOut))
			Expect(b.Retired()).To(Equal(wantRetired))
		})

		It("rejects a snapshot with a different memory capacity", func() {
			state := b.SnapshotState()
			state.MemoryCapacity = 123456

			Expect(b.RestoreState(state)).ToNot(Succeed())
		})
	})

	Describe("statistics provider", func() {
		It("gathers per-core and per-cache counters", func() {
			installProgram(b, workloads.StridedSum(16, 1))
			Expect(b.Registry().Switch(board.GroupDetailed)).To(Succeed())
			for !b.AllHalted() {
				Expect(b.TickActive()).To(Succeed())
			}

			snapshot := b.StatsSnapshot()
			Expect(snapshot.Cores).To(HaveLen(1))
			Expect(snapshot.Cores[0].Stats.Instructions).To(BeNumerically(">", 0))
			Expect(snapshot.Cores[0].Stats.Loads).To(Equal(uint64(16)))
			Expect(snapshot.Caches).To(HaveLen(1))
			Expect(snapshot.Caches[0].Stats.Hits).To(BeNumerically(">", 0))
		})

		It("resets counters without touching architectural state", func() {
			installProgram(b, workloads.CountUp(50))
			Expect(b.Registry().Switch(board.GroupDetailed)).To(Succeed())
			for b.Retired() < 10 {
				Expect(b.TickActive()).To(Succeed())
			}

			b.ResetStats()

			snapshot := b.StatsSnapshot()
			Expect(snapshot.Cores[0].Stats.Cycles).To(Equal(uint64(0)))
			Expect(snapshot.Cores[0].Stats.Instructions).To(Equal(uint64(0)))
			Expect(b.Retired()).To(Equal(uint64(10)),
				"retired count is architectural, not a statistic")
		})
	})
})
