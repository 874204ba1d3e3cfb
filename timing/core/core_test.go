package core_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/phasesim/emu"
	"github.com/sarchlab/phasesim/insts"
	"github.com/sarchlab/phasesim/timing/core"
)

// fixedMemSys charges constant costs for fetch and data accesses.
type fixedMemSys struct {
	fetch uint64
	data  uint64
}

func (m *fixedMemSys) FetchLatency(addr uint64) uint64              { return m.fetch }
func (m *fixedMemSys) AccessLatency(addr uint64, write bool) uint64 { return m.data }

func loadWords(m *emu.Memory, addr uint64, words ...uint32) {
	for i, w := range words {
		m.Write32(addr+uint64(i)*insts.WordBytes, w)
	}
}

var _ = Describe("Core", func() {
	var (
		regFile *emu.RegFile
		memory  *emu.Memory
		console *emu.Console
		counter *emu.Counter
		c       *core.Core
	)

	BeforeEach(func() {
		regFile = &emu.RegFile{}
		memory = emu.NewMemory(1 << 20)
		console = emu.NewConsole()
		counter = emu.NewCounter()
		c = core.NewCore(regFile, memory,
			core.WithConsole(console),
			core.WithCounter(counter),
		)
	})

	Describe("Single instruction timing", func() {
		It("should retire an ALU instruction in one cycle", func() {
			loadWords(memory, 0x1000, insts.EncodeADDI(0, 15, 5))
			c.SetPC(0x1000)

			Expect(c.Tick()).To(Succeed())

			Expect(regFile.ReadReg(0)).To(Equal(uint64(5)))
			Expect(c.Stats().Cycles).To(Equal(uint64(1)))
			Expect(c.Stats().Instructions).To(Equal(uint64(1)))
		})

		It("should spread a multiply over its latency", func() {
			loadWords(memory, 0x1000, insts.EncodeMUL(0, 1, 2))
			regFile.WriteReg(1, 6)
			regFile.WriteReg(2, 7)
			c.SetPC(0x1000)

			Expect(c.Tick()).To(Succeed())
			Expect(regFile.ReadReg(0)).To(Equal(uint64(0)), "no commit mid-flight")
			Expect(c.Tick()).To(Succeed())
			Expect(c.Tick()).To(Succeed())

			Expect(regFile.ReadReg(0)).To(Equal(uint64(42)))
			Expect(c.Stats().Cycles).To(Equal(uint64(3)))
			Expect(c.Stats().Instructions).To(Equal(uint64(1)))
		})

		It("should charge fetch latency from the memory system", func() {
			loadWords(memory, 0x1000, insts.EncodeADDI(0, 15, 1))
			c = core.NewCore(regFile, memory,
				core.WithCounter(counter),
				core.WithMemorySystem(&fixedMemSys{fetch: 2}),
			)
			c.SetPC(0x1000)

			// 2 fetch + 1 exec
			Expect(c.Tick()).To(Succeed())
			Expect(c.Stats().Instructions).To(Equal(uint64(0)))
			Expect(c.Tick()).To(Succeed())
			Expect(c.Tick()).To(Succeed())

			Expect(c.Stats().Instructions).To(Equal(uint64(1)))
			Expect(c.Stats().MemCycles).To(Equal(uint64(2)))
		})

		It("should charge data latency for loads", func() {
			loadWords(memory, 0x1000, insts.EncodeLD(0, 1, 0))
			memory.Write64(0x2000, 99)
			regFile.WriteReg(1, 0x2000)
			c = core.NewCore(regFile, memory,
				core.WithCounter(counter),
				core.WithMemorySystem(&fixedMemSys{fetch: 1, data: 4}),
			)
			c.SetPC(0x1000)

			// 1 fetch + 1 issue + 4 data = 6 cycles
			halted, err := c.RunCycles(6)
			Expect(err).To(BeNil())
			Expect(halted).To(BeTrue())
			Expect(c.Stats().Instructions).To(Equal(uint64(1)))
			Expect(regFile.ReadReg(0)).To(Equal(uint64(99)))
		})
	})

	Describe("Program execution", func() {
		It("should produce the same results as functional execution", func() {
			// r1 = 10; r2 = 32; r3 = r1 + r2; OUT r3; r0 = 0; HALT
			program := []uint32{
				insts.EncodeLDI(1, 10),
				insts.EncodeLDI(2, 32),
				insts.EncodeADD(3, 1, 2),
				insts.EncodeOUT(3),
				insts.EncodeLDI(0, 0),
				insts.EncodeHALT(),
			}
			loadWords(memory, 0x1000, program...)
			c.SetPC(0x1000)

			code, err := c.Run()

			Expect(err).To(BeNil())
			Expect(code).To(Equal(int64(0)))
			Expect(regFile.ReadReg(3)).To(Equal(uint64(42)))
			Expect(console.Values()).To(Equal([]uint64{42}))
			Expect(counter.Count()).To(Equal(uint64(6)))
		})

		It("should execute a countdown loop", func() {
			loadWords(memory, 0x1000,
				insts.EncodeLDI(1, 3),
				insts.EncodeADDI(1, 1, -1),
				insts.EncodeBNZ(1, -1),
				insts.EncodeHALT(),
			)
			c.SetPC(0x1000)

			_, err := c.Run()

			Expect(err).To(BeNil())
			Expect(c.Stats().Branches).To(Equal(uint64(3)))
			Expect(c.Stats().BranchesTaken).To(Equal(uint64(2)))
			Expect(counter.Count()).To(Equal(uint64(8)))
		})

		It("should count loads and stores", func() {
			loadWords(memory, 0x1000,
				insts.EncodeLDI(1, 0x20),
				insts.EncodeST(1, 1, 0),
				insts.EncodeLD(2, 1, 0),
				insts.EncodeHALT(),
			)
			c.SetPC(0x1000)

			_, err := c.Run()

			Expect(err).To(BeNil())
			Expect(c.Stats().Loads).To(Equal(uint64(1)))
			Expect(c.Stats().Stores).To(Equal(uint64(1)))
			Expect(regFile.ReadReg(2)).To(Equal(uint64(0x20)))
		})

		It("should report CPI", func() {
			loadWords(memory, 0x1000,
				insts.EncodeMUL(1, 2, 3),
				insts.EncodeHALT(),
			)
			c.SetPC(0x1000)

			_, err := c.Run()

			Expect(err).To(BeNil())
			// MUL 3 cycles + HALT 1 cycle over 2 instructions
			Expect(c.Stats().CPI()).To(BeNumerically("~", 2.0, 1e-9))
			Expect(c.Stats().IPC()).To(BeNumerically("~", 0.5, 1e-9))
		})
	})

	Describe("Drain", func() {
		It("should squash the in-flight instruction without committing", func() {
			loadWords(memory, 0x1000, insts.EncodeMUL(0, 1, 2), insts.EncodeHALT())
			regFile.WriteReg(1, 6)
			regFile.WriteReg(2, 7)
			c.SetPC(0x1000)

			Expect(c.Tick()).To(Succeed())
			c.Drain()

			Expect(regFile.ReadReg(0)).To(Equal(uint64(0)))
			Expect(regFile.PC).To(Equal(uint64(0x1000)))
			Expect(counter.Count()).To(Equal(uint64(0)))
		})

		It("should re-issue the squashed instruction on the next tick", func() {
			loadWords(memory, 0x1000, insts.EncodeMUL(0, 1, 2), insts.EncodeHALT())
			regFile.WriteReg(1, 6)
			regFile.WriteReg(2, 7)
			c.SetPC(0x1000)

			Expect(c.Tick()).To(Succeed())
			c.Drain()
			_, err := c.Run()

			Expect(err).To(BeNil())
			Expect(regFile.ReadReg(0)).To(Equal(uint64(42)))
			Expect(counter.Count()).To(Equal(uint64(2)))
		})
	})

	Describe("Faults", func() {
		It("should fault on an unknown instruction", func() {
			loadWords(memory, 0x1000, 0x00000000)
			c.SetPC(0x1000)

			Expect(c.Tick()).To(HaveOccurred())
		})

		It("should fault on an out-of-range load address", func() {
			loadWords(memory, 0x1000, insts.EncodeLD(0, 1, 0))
			regFile.WriteReg(1, 1<<20)
			c.SetPC(0x1000)

			err := c.Tick()

			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("out of range"))
		})
	})

	Describe("Halting", func() {
		It("should stop ticking after HALT", func() {
			loadWords(memory, 0x1000, insts.EncodeHALT())
			regFile.WriteReg(0, 4)
			c.SetPC(0x1000)

			_, err := c.Run()
			Expect(err).To(BeNil())
			cyclesAtHalt := c.Stats().Cycles

			Expect(c.Tick()).To(Succeed())

			Expect(c.Halted()).To(BeTrue())
			Expect(c.ExitCode()).To(Equal(int64(4)))
			Expect(c.Stats().Cycles).To(Equal(cyclesAtHalt))
		})
	})

	Describe("ResetStats", func() {
		It("should zero counters without touching architectural state", func() {
			loadWords(memory, 0x1000, insts.EncodeLDI(1, 7), insts.EncodeHALT())
			c.SetPC(0x1000)
			_, err := c.Run()
			Expect(err).To(BeNil())

			c.ResetStats()

			Expect(c.Stats().Cycles).To(Equal(uint64(0)))
			Expect(c.Stats().Instructions).To(Equal(uint64(0)))
			Expect(regFile.ReadReg(1)).To(Equal(uint64(7)))
			Expect(counter.Count()).To(Equal(uint64(2)))
		})
	})
})
