package checkpoint_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/phasesim/board"
	"github.com/sarchlab/phasesim/checkpoint"
	"github.com/sarchlab/phasesim/emu"
)

var _ = Describe("Checkpoint store", func() {
	var (
		dir   string
		mem   *emu.Memory
		state *board.State
	)

	BeforeEach(func() {
		dir = filepath.Join(GinkgoT().TempDir(), "checkpoints")

		mem = emu.NewMemory(1 << 20)
		mem.Write64(0x100, 0xDEADBEEF)
		mem.Write64(0x8000, 42)

		state = &board.State{
			ActiveGroup:    board.GroupFast,
			MemoryCapacity: mem.Capacity(),
			Cores: []board.CoreState{{
				PC:      0x40,
				Retired: 2_000_000,
			}},
			ConsoleOutput: []uint64{7, 11},
		}
		state.Cores[0].Regs[3] = 99
	})

	It("lays checkpoints out as cpt.SimPoint<N>", func() {
		Expect(checkpoint.Path(dir, 0)).To(
			Equal(filepath.Join(dir, "cpt.SimPoint0")))
		Expect(checkpoint.Path(dir, 13)).To(
			Equal(filepath.Join(dir, "cpt.SimPoint13")))
	})

	It("round-trips state and memory", func() {
		Expect(checkpoint.Save(dir, 0, state, mem)).To(Succeed())
		Expect(checkpoint.Exists(dir, 0)).To(BeTrue())

		restored := emu.NewMemory(1 << 20)
		loaded, err := checkpoint.Load(dir, 0, restored)

		Expect(err).ToNot(HaveOccurred())
		Expect(loaded).To(Equal(state))
		Expect(restored.Read64(0x100)).To(Equal(uint64(0xDEADBEEF)))
		Expect(restored.Read64(0x8000)).To(Equal(uint64(42)))
		Expect(restored.PageCount()).To(Equal(mem.PageCount()))
	})

	It("fails with ErrNotFound for a missing index", func() {
		Expect(checkpoint.Save(dir, 0, state, mem)).To(Succeed())

		_, err := checkpoint.Load(dir, 2, emu.NewMemory(1<<20))

		Expect(errors.Is(err, checkpoint.ErrNotFound)).To(BeTrue())
	})

	It("fails with ErrIncompatible on a memory capacity mismatch", func() {
		Expect(checkpoint.Save(dir, 0, state, mem)).To(Succeed())

		_, err := checkpoint.Load(dir, 0, emu.NewMemory(2<<20))

		Expect(errors.Is(err, checkpoint.ErrIncompatible)).To(BeTrue())
	})

	Describe("corruption", func() {
		JustBeforeEach(func() {
			Expect(checkpoint.Save(dir, 0, state, mem)).To(Succeed())
		})

		It("rejects unparseable metadata", func() {
			path := filepath.Join(checkpoint.Path(dir, 0), "metadata.json")
			Expect(os.WriteFile(path, []byte("{not json"), 0644)).To(Succeed())

			_, err := checkpoint.Load(dir, 0, emu.NewMemory(1<<20))
			Expect(errors.Is(err, checkpoint.ErrCorrupt)).To(BeTrue())
		})

		It("rejects a missing memory image", func() {
			path := filepath.Join(checkpoint.Path(dir, 0), "memory.bin")
			Expect(os.Remove(path)).To(Succeed())

			_, err := checkpoint.Load(dir, 0, emu.NewMemory(1<<20))
			Expect(errors.Is(err, checkpoint.ErrCorrupt)).To(BeTrue())
		})

		It("rejects a truncated memory image", func() {
			path := filepath.Join(checkpoint.Path(dir, 0), "memory.bin")
			data, err := os.ReadFile(path)
			Expect(err).ToNot(HaveOccurred())
			Expect(os.WriteFile(path, data[:len(data)/2], 0644)).To(Succeed())

			_, err = checkpoint.Load(dir, 0, emu.NewMemory(1<<20))
			Expect(errors.Is(err, checkpoint.ErrCorrupt)).To(BeTrue())
		})

		It("rejects a future major format version", func() {
			path := filepath.Join(checkpoint.Path(dir, 0), "metadata.json")
			data, err := os.ReadFile(path)
			Expect(err).ToNot(HaveOccurred())

			tampered := strings.Replace(string(data),
				`"format_version": "1.0.0"`, `"format_version": "2.0.0"`, 1)
			Expect(tampered).ToNot(Equal(string(data)))
			Expect(os.WriteFile(path, []byte(tampered), 0644)).To(Succeed())

			_, err = checkpoint.Load(dir, 0, emu.NewMemory(1<<20))
			Expect(errors.Is(err, checkpoint.ErrCorrupt)).To(BeTrue())
		})
	})

	It("never mutates an existing checkpoint, writing siblings", func() {
		Expect(checkpoint.Save(dir, 0, state, mem)).To(Succeed())
		before, err := os.ReadFile(
			filepath.Join(checkpoint.Path(dir, 0), "metadata.json"))
		Expect(err).ToNot(HaveOccurred())

		state.Cores[0].Retired = 3_000_000
		Expect(checkpoint.Save(dir, 1, state, mem)).To(Succeed())

		after, err := os.ReadFile(
			filepath.Join(checkpoint.Path(dir, 0), "metadata.json"))
		Expect(err).ToNot(HaveOccurred())
		Expect(after).To(Equal(before))
	})

	It("leaves no staging directory behind", func() {
		Expect(checkpoint.Save(dir, 0, state, mem)).To(Succeed())

		entries, err := os.ReadDir(dir)
		Expect(err).ToNot(HaveOccurred())
		Expect(entries).To(HaveLen(1))
		Expect(entries[0].Name()).To(Equal("cpt.SimPoint0"))
	})
})
