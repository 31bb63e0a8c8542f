// Copyright (c) 2024 Akxen Labs

package model_test

import (
	"github.com/akxen/nemde-go"
	"github.com/akxen/nemde-go/internal/analysis"
	"github.com/akxen/nemde-go/internal/casetest"
	"github.com/akxen/nemde-go/model"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

///////////////////////////////////////////////////////////////////////////////

func solveCase(b *casetest.Builder) (*nemde.CaseInputs, *nemde.Solution) {
	cf, err := nemde.ParseCasefile(b.Build())
	Expect(err).To(BeNil())

	inputs, err := nemde.Preprocess(cf, nemde.PreprocessOptions{})
	Expect(err).To(BeNil())

	m, err := model.Build(inputs)
	Expect(err).To(BeNil())

	sr, err := model.Solve(m)
	Expect(err).To(BeNil())

	return inputs, model.Extract(m, sr)
}

func regionByID(sol *nemde.Solution, id string) nemde.RegionSolution {
	for _, r := range sol.RegionSolution {
		if r.RegionID == id {
			return r
		}
	}
	Fail("region " + id + " not in solution")
	return nemde.RegionSolution{}
}

func traderByID(sol *nemde.Solution, id string) nemde.TraderSolution {
	for _, t := range sol.TraderSolution {
		if t.TraderID == id {
			return t
		}
	}
	Fail("trader " + id + " not in solution")
	return nemde.TraderSolution{}
}

// expectPowerBalance checks the quantified per-region invariants against
// the independent analysis recomputation.
func expectPowerBalance(in *nemde.CaseInputs, sol *nemde.Solution) {
	totalGeneration, totalCleared := 0.0, 0.0
	for _, region := range in.Regions {
		r := regionByID(sol, region)

		clearedDemand, err := analysis.ClearedDemand(in, sol, region)
		Expect(err).To(BeNil())
		Expect(r.ClearedDemand).To(BeNumerically("~", clearedDemand, 0.1))

		netExport := analysis.NetExport(in, sol, region)
		Expect(r.DispatchedGeneration).To(BeNumerically("~",
			r.FixedDemand+r.DispatchedLoad+netExport, 0.1))

		totalGeneration += r.DispatchedGeneration
		totalCleared += r.ClearedDemand
	}
	Expect(totalGeneration).To(BeNumerically("~", totalCleared, 0.1))
}

///////////////////////////////////////////////////////////////////////////////

var _ = Describe("Dispatch scenarios", func() {
	It("dispatches a trivial single region", func() {
		b := casetest.New()
		b.Regions = []casetest.Region{{ID: "NSW1", InitialDemand: 50}}
		b.Traders = []casetest.Trader{{
			ID: "GEN_A", Region: "NSW1", Type: "GENERATOR", InitialMW: 50,
			Offers: []casetest.Offer{casetest.EnergyOffer("ENOF", 50, 40)},
		}}

		in, sol := solveCase(b)

		Expect(traderByID(sol, "GEN_A").EnergyTarget).To(BeNumerically("~", 50, 1e-4))
		r := regionByID(sol, "NSW1")
		Expect(r.DispatchedGeneration).To(BeNumerically("~", 50, 1e-4))
		Expect(r.ClearedDemand).To(BeNumerically("~", 50, 1e-4))
		Expect(r.NetExport).To(BeNumerically("~", 0, 1e-6))
		Expect(r.SurplusGeneration).To(BeNumerically("~", 0, 1e-6))
		Expect(sol.PeriodSolution.TotalObjective).To(BeNumerically("~", 2000, 1))

		expectPowerBalance(in, sol)
	})

	It("routes cheap generation over a lossy interconnector", func() {
		b := casetest.New()
		b.Regions = []casetest.Region{
			{ID: "NSW1", InitialDemand: 80},
			{ID: "VIC1", InitialDemand: 80},
		}
		b.Traders = []casetest.Trader{
			{
				ID: "GEN_A", Region: "NSW1", Type: "GENERATOR", InitialMW: 80,
				Offers: []casetest.Offer{casetest.EnergyOffer("ENOF", 100, 30)},
			},
			{
				ID: "GEN_B", Region: "VIC1", Type: "GENERATOR", InitialMW: 80,
				Offers: []casetest.Offer{casetest.EnergyOffer("ENOF", 100, 50)},
			},
		}
		b.Interconnectors = []casetest.Interconnector{{
			ID: "N-V", From: "NSW1", To: "VIC1",
			LowerLimit: 200, UpperLimit: 200,
			LossShare: 0.5, LossLowerLimit: 100,
			Segments: []casetest.Segment{{Limit: 0, Factor: -0.03}, {Limit: 100, Factor: 0.03}},
		}}

		in, sol := solveCase(b)

		// The cheap unit runs to its cap: roughly 20 MW heads south.
		Expect(traderByID(sol, "GEN_A").EnergyTarget).To(BeNumerically("~", 100, 0.5))
		ic := sol.InterconnectorSolution[0]
		Expect(ic.Flow).To(BeNumerically("~", 20, 1.0))
		Expect(ic.Losses).To(BeNumerically("~", 0.6, 0.1))

		Expect(regionByID(sol, "VIC1").FixedDemand).To(BeNumerically("~", 80, 1e-6))
		expectPowerBalance(in, sol)
	})

	It("binds dispatch at the ramp limit", func() {
		b := casetest.New()
		b.Regions = []casetest.Region{{ID: "NSW1", InitialDemand: 150}}
		cheap := casetest.EnergyOffer("ENOF", 200, 10)
		cheap.RampUp = casetest.Float(120)
		cheap.RampDn = casetest.Float(120)
		b.Traders = []casetest.Trader{
			{
				ID: "GEN_A", Region: "NSW1", Type: "GENERATOR", InitialMW: 100,
				Offers: []casetest.Offer{cheap},
			},
			{
				ID: "GEN_B", Region: "NSW1", Type: "GENERATOR", InitialMW: 40,
				Offers: []casetest.Offer{casetest.EnergyOffer("ENOF", 100, 100)},
			},
		}

		in, sol := solveCase(b)

		// Max increase over the interval is 120/12 = 10 MW.
		Expect(traderByID(sol, "GEN_A").EnergyTarget).To(BeNumerically("~", 110, 1e-3))
		Expect(sol.PeriodSolution.TotalRampRateViolation).To(BeNumerically("~", 0, 1e-6))
		expectPowerBalance(in, sol)
	})

	It("fixes unavailable FCAS offers to zero", func() {
		b := casetest.New()
		b.Regions = []casetest.Region{{ID: "NSW1", InitialDemand: 30}}
		energy := casetest.EnergyOffer("ENOF", 40, 40)
		raiseReg := casetest.EnergyOffer("R5RE", 20, 1)
		raiseReg.EnablementMin = casetest.Float(50)
		raiseReg.LowBreakpoint = casetest.Float(60)
		raiseReg.HighBreakpoint = casetest.Float(80)
		raiseReg.EnablementMax = casetest.Float(100)
		b.Traders = []casetest.Trader{{
			ID: "GEN_A", Region: "NSW1", Type: "GENERATOR", InitialMW: 60,
			AGCStatus: "1",
			Offers:    []casetest.Offer{energy, raiseReg},
		}}

		in, sol := solveCase(b)

		key := nemde.OfferKey{TraderID: "GEN_A", TradeType: nemde.TradeType_R5RE}
		Expect(in.FCASAvailability[key]).To(BeFalse())
		Expect(traderByID(sol, "GEN_A").R5RegTarget).To(BeNumerically("~", 0, 1e-6))
	})

	It("decomposes reverse MNSP flow with the direction binary", func() {
		b := casetest.New()
		b.Regions = []casetest.Region{
			{ID: "NSW1", InitialDemand: 50},
			{ID: "VIC1", InitialDemand: 60},
		}
		b.Traders = []casetest.Trader{
			{
				ID: "GEN_A", Region: "NSW1", Type: "GENERATOR", InitialMW: 50,
				Offers: []casetest.Offer{casetest.EnergyOffer("ENOF", 100, 100)},
			},
			{
				ID: "GEN_B", Region: "VIC1", Type: "GENERATOR", InitialMW: 90,
				Offers: []casetest.Offer{casetest.EnergyOffer("ENOF", 150, 20)},
			},
		}
		fromOffer := casetest.MNSPOffer{RegionID: "NSW1", MaxAvail: 50, RampUp: 600, RampDn: 600}
		fromOffer.PriceBands[0] = 1
		fromOffer.QuantityBands[0] = 50
		toOffer := casetest.MNSPOffer{RegionID: "VIC1", MaxAvail: 50, RampUp: 600, RampDn: 600}
		toOffer.PriceBands[0] = 1
		toOffer.QuantityBands[0] = 50
		b.Interconnectors = []casetest.Interconnector{{
			ID: "MNSP1", From: "NSW1", To: "VIC1", MNSP: true,
			InitialMW:  -30,
			LowerLimit: 50, UpperLimit: 50,
			LossShare: 0.5, LossLowerLimit: 60,
			Segments:        []casetest.Segment{{Limit: 0, Factor: -0.02}, {Limit: 60, Factor: 0.02}},
			FromRegionLFExp: 1.05, FromRegionLFImp: 1.03,
			ToRegionLFExp: 1.04, ToRegionLFImp: 1.02,
			Offers: []casetest.MNSPOffer{fromOffer, toOffer},
		}}

		in, sol := solveCase(b)

		// Cheap VIC generation serves NSW through the link: flow reverses.
		ic := sol.InterconnectorSolution[0]
		Expect(ic.Flow).To(BeNumerically("<", 0))
		expectPowerBalance(in, sol)
	})

	It("activates a single SOS2 interval for the solved flow", func() {
		b := casetest.New()
		b.Regions = []casetest.Region{
			{ID: "NSW1", InitialDemand: 60},
			{ID: "VIC1", InitialDemand: 40},
		}
		b.Traders = []casetest.Trader{
			{
				ID: "GEN_A", Region: "NSW1", Type: "GENERATOR", InitialMW: 100,
				Offers: []casetest.Offer{casetest.EnergyOffer("ENOF", 100, 10)},
			},
			{
				ID: "GEN_B", Region: "VIC1", Type: "GENERATOR", InitialMW: 5,
				Offers: []casetest.Offer{casetest.EnergyOffer("ENOF", 100, 200)},
			},
		}
		b.Interconnectors = []casetest.Interconnector{{
			ID: "N-V", From: "NSW1", To: "VIC1",
			LowerLimit: 100, UpperLimit: 100,
			LossShare: 0.5, LossLowerLimit: 100,
			Segments: []casetest.Segment{
				{Limit: -60, Factor: -0.05},
				{Limit: -20, Factor: -0.02},
				{Limit: 20, Factor: 0.01},
				{Limit: 60, Factor: 0.03},
				{Limit: 100, Factor: 0.05},
			},
		}}

		in, sol := solveCase(b)

		// GEN_A covers both regions: ~40 MW flows south, landing in the
		// [20, 60] breakpoint interval.
		ic := sol.InterconnectorSolution[0]
		Expect(ic.Flow).To(BeNumerically(">", 20))
		Expect(ic.Flow).To(BeNumerically("<", 60))

		// Loss must interpolate the breakpoints at 20 and 60:
		// y(20)=0.2, y(60)=1.4.
		expected := 0.2 + (ic.Flow-20)/(60-20)*(1.4-0.2)
		Expect(ic.Losses).To(BeNumerically("~", expected, 1e-3))
		expectPowerBalance(in, sol)
	})

	It("breaks ties between price-tied generators proportionally", func() {
		b := casetest.New()
		b.Regions = []casetest.Region{{ID: "NSW1", InitialDemand: 60}}
		b.Traders = []casetest.Trader{
			{
				ID: "GEN_A", Region: "NSW1", Type: "GENERATOR", InitialMW: 30,
				Offers: []casetest.Offer{casetest.EnergyOffer("ENOF", 100, 25)},
			},
			{
				ID: "GEN_B", Region: "NSW1", Type: "GENERATOR", InitialMW: 30,
				Offers: []casetest.Offer{casetest.EnergyOffer("ENOF", 100, 25)},
			},
		}

		in, sol := solveCase(b)
		Expect(in.PriceTiedGenerators).To(HaveLen(1))

		// Equal bands at equal prices split the 60 MW evenly.
		Expect(traderByID(sol, "GEN_A").EnergyTarget).To(BeNumerically("~", 30, 0.1))
		Expect(traderByID(sol, "GEN_B").EnergyTarget).To(BeNumerically("~", 30, 0.1))
	})

	It("enforces the fast start inflexibility profile", func() {
		b := casetest.New()
		b.Regions = []casetest.Region{{ID: "NSW1", InitialDemand: 100}}
		offer := casetest.EnergyOffer("ENOF", 100, 10)
		b.Traders = []casetest.Trader{
			{
				ID: "FAST_A", Region: "NSW1", Type: "GENERATOR", InitialMW: 0,
				FastStart: &casetest.FastStart{
					MinLoadingMW:    60,
					CurrentMode:     casetest.Int(1),
					CurrentModeTime: casetest.Float(2),
					T1:              10, T2: 10, T3: 20, T4: 20,
				},
				Offers: []casetest.Offer{offer},
			},
			{
				ID: "GEN_B", Region: "NSW1", Type: "GENERATOR", InitialMW: 100,
				Offers: []casetest.Offer{casetest.EnergyOffer("ENOF", 200, 80)},
			},
		}

		in, sol := solveCase(b)

		// Still synchronising at interval end: output pinned to zero
		// despite the cheap offer.
		Expect(traderByID(sol, "FAST_A").EnergyTarget).To(BeNumerically("~", 0, 1e-4))
		Expect(sol.PeriodSolution.TotalFastStartViolation).To(BeNumerically("~", 0, 1e-6))
		expectPowerBalance(in, sol)
	})

	It("honours generic constraints with violation pricing", func() {
		b := casetest.New()
		b.Regions = []casetest.Region{{ID: "NSW1", InitialDemand: 100}}
		b.Traders = []casetest.Trader{
			{
				ID: "GEN_A", Region: "NSW1", Type: "GENERATOR", InitialMW: 90,
				Offers: []casetest.Offer{casetest.EnergyOffer("ENOF", 200, 10)},
			},
			{
				ID: "GEN_B", Region: "NSW1", Type: "GENERATOR", InitialMW: 10,
				Offers: []casetest.Offer{casetest.EnergyOffer("ENOF", 100, 90)},
			},
		}
		b.Constraints = []casetest.Constraint{{
			ID: "#GEN_A_E", Type: "LE", ViolationPrice: 360000, RHS: 70,
			TraderFactors: []casetest.TraderFactor{{TraderID: "GEN_A", TradeType: "ENOF", Factor: 1}},
		}}

		in, sol := solveCase(b)

		// The constraint caps GEN_A at 70; GEN_B covers the rest.
		Expect(traderByID(sol, "GEN_A").EnergyTarget).To(BeNumerically("~", 70, 1e-3))
		Expect(traderByID(sol, "GEN_B").EnergyTarget).To(BeNumerically("~", 30, 1e-3))
		Expect(sol.PeriodSolution.TotalGenericViolation).To(BeNumerically("~", 0, 1e-6))
		expectPowerBalance(in, sol)
	})
})
