package latency_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/phasesim/insts"
	"github.com/sarchlab/phasesim/timing/latency"
)

var _ = Describe("Latency", func() {
	var table *latency.Table

	BeforeEach(func() {
		table = latency.NewTable()
	})

	Describe("Default Timing Values", func() {
		It("should have correct ALU latency", func() {
			Expect(table.Config().ALULatency).To(Equal(uint64(1)))
		})

		It("should have correct multiply latency", func() {
			Expect(table.Config().MultiplyLatency).To(Equal(uint64(3)))
		})

		It("should have correct branch latency", func() {
			Expect(table.Config().BranchLatency).To(Equal(uint64(1)))
		})
	})

	Describe("Latency lookup", func() {
		It("should return ALU latency for ADD and ADDI", func() {
			Expect(table.Latency(insts.OpADD)).To(Equal(uint64(1)))
			Expect(table.Latency(insts.OpADDI)).To(Equal(uint64(1)))
		})

		It("should return multiply latency for MUL", func() {
			Expect(table.Latency(insts.OpMUL)).To(Equal(uint64(3)))
		})

		It("should return branch latency for branches", func() {
			Expect(table.Latency(insts.OpJMP)).To(Equal(uint64(1)))
			Expect(table.Latency(insts.OpBNZ)).To(Equal(uint64(1)))
		})

		It("should return 1 cycle for opcodes without a class", func() {
			Expect(table.Latency(insts.OpNOP)).To(Equal(uint64(1)))
			Expect(table.Latency(insts.OpHALT)).To(Equal(uint64(1)))
		})
	})

	Describe("Instruction classification", func() {
		It("should classify memory operations", func() {
			Expect(table.IsMemoryOp(insts.OpLD)).To(BeTrue())
			Expect(table.IsMemoryOp(insts.OpST)).To(BeTrue())
			Expect(table.IsMemoryOp(insts.OpADD)).To(BeFalse())
		})

		It("should classify loads and stores", func() {
			Expect(table.IsLoadOp(insts.OpLD)).To(BeTrue())
			Expect(table.IsLoadOp(insts.OpST)).To(BeFalse())
			Expect(table.IsStoreOp(insts.OpST)).To(BeTrue())
		})

		It("should classify branches", func() {
			Expect(table.IsBranchOp(insts.OpJMP)).To(BeTrue())
			Expect(table.IsBranchOp(insts.OpBZ)).To(BeTrue())
			Expect(table.IsBranchOp(insts.OpLD)).To(BeFalse())
		})
	})

	Describe("Configuration", func() {
		It("should validate the default config", func() {
			Expect(latency.DefaultConfig().Validate()).To(Succeed())
		})

		It("should reject a zero latency", func() {
			config := latency.DefaultConfig()
			config.ALULatency = 0
			Expect(config.Validate()).To(HaveOccurred())
		})

		It("should clone without sharing", func() {
			config := latency.DefaultConfig()
			clone := config.Clone()
			clone.ALULatency = 99
			Expect(config.ALULatency).To(Equal(uint64(1)))
		})

		It("should round-trip through a JSON file", func() {
			dir := GinkgoT().TempDir()
			path := filepath.Join(dir, "latency.json")

			config := latency.DefaultConfig()
			config.MultiplyLatency = 5
			Expect(config.SaveConfig(path)).To(Succeed())

			loaded, err := latency.LoadConfig(path)
			Expect(err).To(BeNil())
			Expect(loaded.MultiplyLatency).To(Equal(uint64(5)))
			Expect(loaded.ALULatency).To(Equal(uint64(1)))
		})

		It("should keep defaults for fields absent from the file", func() {
			dir := GinkgoT().TempDir()
			path := filepath.Join(dir, "partial.json")
			Expect(os.WriteFile(path, []byte(`{"multiply_latency": 7}`), 0644)).To(Succeed())

			loaded, err := latency.LoadConfig(path)
			Expect(err).To(BeNil())
			Expect(loaded.MultiplyLatency).To(Equal(uint64(7)))
			Expect(loaded.BranchLatency).To(Equal(uint64(1)))
		})

		It("should fail on a missing file", func() {
			_, err := latency.LoadConfig("/nonexistent/latency.json")
			Expect(err).To(HaveOccurred())
		})

		It("should use a custom config in the table", func() {
			config := latency.DefaultConfig()
			config.ALULatency = 2
			table := latency.NewTableWithConfig(config)
			Expect(table.Latency(insts.OpADD)).To(Equal(uint64(2)))
		})
	})
})
