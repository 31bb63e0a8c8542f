// Copyright (c) 2024 Akxen Labs

package nemde_test

import (
	"github.com/akxen/nemde-go"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func regTrapezium() nemde.Trapezium {
	return nemde.Trapezium{
		EnablementMin:  0,
		LowBreakpoint:  20,
		HighBreakpoint: 80,
		EnablementMax:  100,
		MaxAvail:       40,
	}
}

func floatp(v float64) *float64 { return &v }

var _ = Describe("FCAS trapezium", func() {
	Context("AGC enablement scaling", func() {
		It("raises EnablementMin and re-derives the low breakpoint", func() {
			p := nemde.FCASParams{
				TradeType:  nemde.TradeType_R5RE,
				TraderType: nemde.TraderType_Generator,
				Trapezium:  regTrapezium(),
				LMW:        floatp(10),
			}
			scaled := nemde.ScaledTrapezium(p)
			// LHS slope is 2; inverting at MaxAvail=40 from the new
			// x-intercept 10 gives 30. The RHS side is untouched.
			Expect(scaled.EnablementMin).To(Equal(10.0))
			Expect(scaled.LowBreakpoint).To(Equal(30.0))
			Expect(scaled.HighBreakpoint).To(Equal(80.0))
			Expect(scaled.MaxAvail).To(Equal(40.0))
		})

		It("caps MaxAvail when the shifted sides intersect below it", func() {
			p := nemde.FCASParams{
				TradeType:  nemde.TradeType_R5RE,
				TraderType: nemde.TraderType_Generator,
				Trapezium:  regTrapezium(),
				LMW:        floatp(70),
			}
			scaled := nemde.ScaledTrapezium(p)
			// Lines y=2(x-70) and y=-2(x-100) cross at (85, 30).
			Expect(scaled.MaxAvail).To(Equal(30.0))
			Expect(scaled.EnablementMin).To(Equal(70.0))
			Expect(scaled.LowBreakpoint).To(Equal(85.0))
			Expect(scaled.HighBreakpoint).To(Equal(85.0))
		})

		It("leaves the trapezium alone when the limit is not binding", func() {
			p := nemde.FCASParams{
				TradeType:  nemde.TradeType_R5RE,
				TraderType: nemde.TraderType_Generator,
				Trapezium:  regTrapezium(),
				LMW:        floatp(-10),
			}
			Expect(nemde.ScaledTrapezium(p)).To(Equal(regTrapezium()))
		})

		It("lowers EnablementMax symmetrically on the RHS", func() {
			p := nemde.FCASParams{
				TradeType:  nemde.TradeType_L5RE,
				TraderType: nemde.TraderType_Generator,
				Trapezium:  regTrapezium(),
				HMW:        floatp(90),
			}
			scaled := nemde.ScaledTrapezium(p)
			Expect(scaled.EnablementMax).To(Equal(90.0))
			Expect(scaled.HighBreakpoint).To(Equal(70.0))
			Expect(scaled.LowBreakpoint).To(Equal(20.0))
		})
	})

	Context("AGC ramp rate scaling", func() {
		It("caps MaxAvail at the interval ramp capability", func() {
			p := nemde.FCASParams{
				TradeType:  nemde.TradeType_R5RE,
				TraderType: nemde.TraderType_Generator,
				Trapezium:  regTrapezium(),
				AGCRampUp:  floatp(240), // 20 MW over 5 minutes
			}
			scaled := nemde.ScaledTrapezium(p)
			Expect(scaled.MaxAvail).To(Equal(20.0))
			Expect(scaled.LowBreakpoint).To(Equal(10.0))
			Expect(scaled.HighBreakpoint).To(Equal(90.0))
		})

		It("scales load R5RE against the downward SCADA rate", func() {
			p := nemde.FCASParams{
				TradeType:   nemde.TradeType_R5RE,
				TraderType:  nemde.TraderType_Load,
				Trapezium:   regTrapezium(),
				AGCRampUp:   floatp(240),
				AGCRampDown: floatp(120), // 10 MW over 5 minutes
			}
			scaled := nemde.ScaledTrapezium(p)
			Expect(scaled.MaxAvail).To(Equal(10.0))
		})

		It("ignores absent and zero ramp rates", func() {
			p := nemde.FCASParams{
				TradeType:  nemde.TradeType_R5RE,
				TraderType: nemde.TraderType_Generator,
				Trapezium:  regTrapezium(),
			}
			Expect(nemde.ScaledTrapezium(p).MaxAvail).To(Equal(40.0))

			p.AGCRampUp = floatp(0)
			Expect(nemde.ScaledTrapezium(p).MaxAvail).To(Equal(40.0))
		})
	})

	Context("UIGF scaling", func() {
		It("caps contingency offers of semi-dispatchable plant", func() {
			p := nemde.FCASParams{
				TradeType:    nemde.TradeType_R6SE,
				TraderType:   nemde.TraderType_Generator,
				Trapezium:    regTrapezium(),
				SemiDispatch: true,
				UIGF:         floatp(90),
			}
			scaled := nemde.ScaledTrapezium(p)
			Expect(scaled.EnablementMax).To(Equal(90.0))
		})

		It("does not scale contingency offers of scheduled plant", func() {
			p := nemde.FCASParams{
				TradeType:  nemde.TradeType_R6SE,
				TraderType: nemde.TraderType_Generator,
				Trapezium:  regTrapezium(),
				UIGF:       floatp(90),
			}
			Expect(nemde.ScaledTrapezium(p)).To(Equal(regTrapezium()))
		})
	})

	Context("availability", func() {
		baseParams := func() nemde.FCASParams {
			p := nemde.FCASParams{
				TradeType:      nemde.TradeType_R6SE,
				TraderType:     nemde.TraderType_Generator,
				Trapezium:      regTrapezium(),
				EnergyMaxAvail: floatp(100),
				InitialMW:      floatp(50),
			}
			p.QuantityBands[0] = 10
			return p
		}

		It("is available when every condition holds", func() {
			Expect(nemde.FCASAvailability(baseParams())).To(BeTrue())
		})

		It("fails when the energy offer cannot reach EnablementMin", func() {
			p := baseParams()
			p.Trapezium.EnablementMin = 50
			p.Trapezium.LowBreakpoint = 60
			p.EnergyMaxAvail = floatp(40)
			Expect(nemde.FCASAvailability(p)).To(BeFalse())
		})

		It("fails when MaxAvail is zero", func() {
			p := baseParams()
			p.Trapezium.MaxAvail = 0
			Expect(nemde.FCASAvailability(p)).To(BeFalse())
		})

		It("fails when every quantity band is zero", func() {
			p := baseParams()
			p.QuantityBands[0] = 0
			Expect(nemde.FCASAvailability(p)).To(BeFalse())
		})

		It("fails when the unit operates outside the enablement envelope", func() {
			p := baseParams()
			p.InitialMW = floatp(150)
			Expect(nemde.FCASAvailability(p)).To(BeFalse())
		})

		It("requires AGC for regulation services only", func() {
			p := baseParams()
			p.TradeType = nemde.TradeType_R5RE
			p.AGCStatus = "0"
			Expect(nemde.FCASAvailability(p)).To(BeFalse())

			p.AGCStatus = "1"
			Expect(nemde.FCASAvailability(p)).To(BeTrue())

			p.TradeType = nemde.TradeType_R6SE
			p.AGCStatus = "0"
			Expect(nemde.FCASAvailability(p)).To(BeTrue())
		})
	})

	Context("slope coefficients", func() {
		It("computes upper and lower coefficients", func() {
			t := regTrapezium()
			Expect(*nemde.UpperSlopeCoefficient(t)).To(Equal(0.5))
			Expect(*nemde.LowerSlopeCoefficient(t)).To(Equal(0.5))
		})

		It("is undefined when MaxAvail is zero", func() {
			t := regTrapezium()
			t.MaxAvail = 0
			Expect(nemde.UpperSlopeCoefficient(t)).To(BeNil())
			Expect(nemde.LowerSlopeCoefficient(t)).To(BeNil())
		})
	})
})
