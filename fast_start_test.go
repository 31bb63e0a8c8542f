// Copyright (c) 2024 Akxen Labs

package nemde_test

import (
	"github.com/akxen/nemde-go"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Fast start profile", func() {
	profile := func(mode int, modeTime float64) nemde.FastStartProfile {
		return nemde.FastStartProfile{
			MinLoadingMW:    60,
			CurrentMode:     mode,
			CurrentModeTime: modeTime,
			T1:              10, T2: 10, T3: 20, T4: 20,
		}
	}

	Context("mode advance", func() {
		It("keeps mode 0 units in mode 0", func() {
			mode, err := profile(0, 3).EffectiveMode()
			Expect(err).To(BeNil())
			Expect(mode).To(Equal(0))
		})

		It("advances mode 1 into mode 2 across the T1 boundary", func() {
			p := profile(1, 6)
			mode, err := p.EffectiveMode()
			Expect(err).To(BeNil())
			Expect(mode).To(Equal(2))

			modeTime, err := p.EffectiveModeTime()
			Expect(err).To(BeNil())
			Expect(modeTime).To(Equal(1.0))
		})

		It("stays within mode 3 when T3 has time left", func() {
			p := profile(3, 2)
			mode, err := p.EffectiveMode()
			Expect(err).To(BeNil())
			Expect(mode).To(Equal(3))

			modeTime, err := p.EffectiveModeTime()
			Expect(err).To(BeNil())
			Expect(modeTime).To(Equal(7.0))
		})

		It("advances mode 3 into mode 4 across the T3 boundary", func() {
			p := profile(3, 18)
			mode, err := p.EffectiveMode()
			Expect(err).To(BeNil())
			Expect(mode).To(Equal(4))

			modeTime, err := p.EffectiveModeTime()
			Expect(err).To(BeNil())
			Expect(modeTime).To(Equal(3.0))
		})
	})

	Context("ramping capability", func() {
		It("follows the startup trajectory from mode 1", func() {
			// 4 minutes of T1 remain; the unit then spends 1 minute on the
			// T2 trajectory at 6 MW/min.
			capability := profile(1, 6).ModeOneRampCapability(120)
			Expect(capability).To(BeNumerically("~", 6.0, 1e-9))
		})

		It("reaches min loading immediately when T2 is zero", func() {
			p := profile(1, 6)
			p.T2 = 0
			capability := p.ModeOneRampCapability(120)
			// Min loading plus 1 minute of ramping at 2 MW/min.
			Expect(capability).To(BeNumerically("~", 62.0, 1e-9))
		})

		It("completes the trajectory from mode 2 and ramps beyond", func() {
			// 4 minutes of T2 remain (24 MW), then 1 minute at 2 MW/min.
			capability := profile(2, 6).ModeTwoRampCapability(120)
			Expect(capability).To(BeNumerically("~", 26.0, 1e-9))
		})

		It("reconstructs initial MW from the trajectory position", func() {
			Expect(profile(2, 5).ModeTwoInitialMW()).To(Equal(30.0))
		})
	})
})
