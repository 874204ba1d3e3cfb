package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/phasesim/emu"
)

var _ = Describe("Console", func() {
	It("should collect appended values in order", func() {
		c := emu.NewConsole()
		c.Append(1)
		c.Append(2)
		c.Append(3)
		Expect(c.Values()).To(Equal([]uint64{1, 2, 3}))
		Expect(c.Len()).To(Equal(3))
	})

	It("should restore a previous stream", func() {
		c := emu.NewConsole()
		c.Append(9)
		c.Restore([]uint64{4, 5})
		Expect(c.Values()).To(Equal([]uint64{4, 5}))
	})

	It("should return an independent copy from Values", func() {
		c := emu.NewConsole()
		c.Append(1)
		vs := c.Values()
		vs[0] = 42
		Expect(c.Values()).To(Equal([]uint64{1}))
	})
})

var _ = Describe("Counter", func() {
	It("should accumulate retired instructions", func() {
		c := emu.NewCounter()
		c.Add(3)
		c.Add(4)
		Expect(c.Count()).To(Equal(uint64(7)))
	})

	It("should allow overwriting for state restore", func() {
		c := emu.NewCounter()
		c.Add(10)
		c.Set(1000)
		Expect(c.Count()).To(Equal(uint64(1000)))
	})
})
