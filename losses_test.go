// Copyright (c) 2024 Akxen Labs

package nemde_test

import (
	"github.com/akxen/nemde-go"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Loss model", func() {
	rawSegments := []nemde.LossSegment{
		{Limit: 0, Factor: -0.03},
		{Limit: 100, Factor: 0.03},
	}

	Context("segment parsing", func() {
		It("walks limits into start-end-factor form", func() {
			parsed := nemde.ParseLossSegments(rawSegments, 100)
			Expect(parsed).To(Equal([]nemde.ParsedLossSegment{
				{Start: -100, End: 0, Factor: -0.03},
				{Start: 0, End: 100, Factor: 0.03},
			}))
		})
	})

	Context("loss integration", func() {
		parsed := nemde.ParseLossSegments(rawSegments, 100)

		It("integrates positive flow", func() {
			loss, err := nemde.LossEstimate(parsed, 20)
			Expect(err).To(BeNil())
			Expect(loss).To(BeNumerically("~", 0.6, 1e-9))
		})

		It("integrates negative flow", func() {
			loss, err := nemde.LossEstimate(parsed, -50)
			Expect(err).To(BeNil())
			Expect(loss).To(BeNumerically("~", 1.5, 1e-9))
		})

		It("is zero at zero flow", func() {
			loss, err := nemde.LossEstimate(parsed, 0)
			Expect(err).To(BeNil())
			Expect(loss).To(BeZero())
		})

		It("splits segments that cross the origin", func() {
			// One segment [-100, 100] at factor 0.02: integrating to 30
			// only covers the positive portion of the segment.
			crossing := []nemde.ParsedLossSegment{{Start: -100, End: 100, Factor: 0.02}}
			loss, err := nemde.LossEstimate(crossing, 30)
			Expect(err).To(BeNil())
			Expect(loss).To(BeNumerically("~", 0.6, 1e-9))
		})
	})

	Context("SOS2 breakpoints", func() {
		It("produces one more breakpoint than segments", func() {
			breakpoints, err := nemde.LossModelBreakpoints(rawSegments, 100)
			Expect(err).To(BeNil())
			Expect(breakpoints).To(HaveLen(len(rawSegments) + 1))
		})

		It("anchors breakpoint 0 at -LossLowerLimit", func() {
			breakpoints, err := nemde.LossModelBreakpoints(rawSegments, 100)
			Expect(err).To(BeNil())
			Expect(breakpoints[0].X).To(Equal(-100.0))
			Expect(breakpoints[0].Y).To(BeNumerically("~", 3.0, 1e-9))
		})

		It("integrates to zero loss at the zero-flow breakpoint", func() {
			breakpoints, err := nemde.LossModelBreakpoints(rawSegments, 100)
			Expect(err).To(BeNil())
			Expect(breakpoints[1].X).To(Equal(0.0))
			Expect(breakpoints[1].Y).To(BeZero())
			Expect(breakpoints[2]).To(Equal(nemde.LossBreakpoint{X: 100, Y: 3.0}))
		})
	})
})
