package sim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Freq", func() {
	It("should calculate the period", func() {
		f := 4 * Hz
		Expect(f.Period()).To(BeNumerically("~", 0.25, 1e-12))
	})

	It("should calculate this tick", func() {
		f := 4 * Hz
		Expect(f.ThisTick(0.1)).To(BeNumerically("~", 0.25, 1e-12))
		Expect(f.ThisTick(0.25)).To(BeNumerically("~", 0.25, 1e-12))
	})

	It("should calculate next tick", func() {
		f := 4 * Hz
		Expect(f.NextTick(0.25)).To(BeNumerically("~", 0.5, 1e-12))
		Expect(f.NextTick(0.26)).To(BeNumerically("~", 0.5, 1e-12))
	})

	It("should count cycles", func() {
		f := 4 * Hz
		Expect(f.Cycle(1.0)).To(Equal(uint64(4)))
	})
})
