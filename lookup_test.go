// Copyright (c) 2024 Akxen Labs

package nemde_test

import (
	"github.com/akxen/nemde-go"
	"github.com/akxen/nemde-go/internal/casetest"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func buildTwoRegionCase() *casetest.Builder {
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
	b.Interconnectors = []casetest.Interconnector{
		{
			ID: "N-V", From: "NSW1", To: "VIC1",
			LowerLimit: 200, UpperLimit: 200,
			LossShare: 0.6, LossLowerLimit: 100,
			Segments: []casetest.Segment{{Limit: 0, Factor: -0.03}, {Limit: 100, Factor: 0.03}},
		},
	}
	b.Constraints = []casetest.Constraint{
		{
			ID: "#GEN_A_E", Type: "LE", ViolationPrice: 360000, RHS: 95,
			TraderFactors: []casetest.TraderFactor{{TraderID: "GEN_A", TradeType: "ENOF", Factor: 1}},
		},
	}
	return b
}

var _ = Describe("Casefile", func() {
	Context("parsing", func() {
		It("rejects documents without a NEMSPDCaseFile root", func() {
			_, err := nemde.ParseCasefile([]byte(`{"foo": 1}`))
			Expect(err).To(MatchError(nemde.ErrCasefileValue))
		})

		It("parses a synthetic casefile and enumerates indices", func() {
			cf, err := nemde.ParseCasefile(buildTwoRegionCase().Build())
			Expect(err).To(BeNil())

			Expect(cf.RegionIDs()).To(Equal([]string{"NSW1", "VIC1"}))
			Expect(cf.TraderIDs()).To(Equal([]string{"GEN_A", "GEN_B"}))
			Expect(cf.InterconnectorIDs()).To(Equal([]string{"N-V"}))
			Expect(cf.MNSPIDs()).To(BeEmpty())
			Expect(cf.GenericConstraintIDs()).To(Equal([]string{"#GEN_A_E"}))

			offers := cf.TraderOfferIndex()
			Expect(offers).To(HaveLen(2))
			Expect(offers[0]).To(Equal(nemde.OfferKey{TraderID: "GEN_A", TradeType: nemde.TradeType_ENOF}))

			gcVars := cf.GCTraderVariableIndex()
			Expect(gcVars).To(Equal([]nemde.OfferKey{{TraderID: "GEN_A", TradeType: nemde.TradeType_ENOF}}))
		})

		It("normalizes singleton collections to lists", func() {
			// A single trader renders as an object, not a one-element array.
			b := buildTwoRegionCase()
			b.Traders = b.Traders[:1]
			cf, err := nemde.ParseCasefile(b.Build())
			Expect(err).To(BeNil())
			Expect(cf.TraderIDs()).To(Equal([]string{"GEN_A"}))
		})

		It("reads initial conditions and loss model attributes", func() {
			cf, err := nemde.ParseCasefile(buildTwoRegionCase().Build())
			Expect(err).To(BeNil())

			initialMW, err := cf.TraderInitialConditions("InitialMW")
			Expect(err).To(BeNil())
			Expect(initialMW).To(HaveKeyWithValue("GEN_A", 80.0))

			lossShare, err := cf.LossModelFloats("@LossShare")
			Expect(err).To(BeNil())
			Expect(lossShare).To(HaveKeyWithValue("N-V", 0.6))

			segments, err := cf.LossModelSegments("N-V")
			Expect(err).To(BeNil())
			Expect(segments).To(HaveLen(2))
			Expect(segments[1]).To(Equal(nemde.LossSegment{Limit: 100, Factor: 0.03}))
		})

		It("reads generic constraint LHS terms and reference RHS", func() {
			cf, err := nemde.ParseCasefile(buildTwoRegionCase().Build())
			Expect(err).To(BeNil())

			terms, err := cf.GenericConstraintLHSTerms()
			Expect(err).To(BeNil())
			Expect(terms).To(HaveKey("#GEN_A_E"))
			Expect(terms["#GEN_A_E"].Traders).To(HaveKeyWithValue(
				nemde.OfferKey{TraderID: "GEN_A", TradeType: nemde.TradeType_ENOF}, 1.0))

			rhs, err := cf.ReferenceConstraintRHS("0")
			Expect(err).To(BeNil())
			Expect(rhs).To(HaveKeyWithValue("#GEN_A_E", 95.0))
		})
	})

	Context("intervention status", func() {
		It("is 0 for both modes when no intervention occurred", func() {
			cf, err := nemde.ParseCasefile(buildTwoRegionCase().Build())
			Expect(err).To(BeNil())

			status, err := cf.InterventionStatus(nemde.RunMode_Physical)
			Expect(err).To(BeNil())
			Expect(status).To(Equal("0"))

			status, err = cf.InterventionStatus(nemde.RunMode_Pricing)
			Expect(err).To(BeNil())
			Expect(status).To(Equal("0"))
		})

		It("splits physical and pricing when an intervention occurred", func() {
			b := buildTwoRegionCase()
			b.Intervention = true
			cf, err := nemde.ParseCasefile(b.Build())
			Expect(err).To(BeNil())

			status, err := cf.InterventionStatus(nemde.RunMode_Physical)
			Expect(err).To(BeNil())
			Expect(status).To(Equal("1"))

			status, err = cf.InterventionStatus(nemde.RunMode_Pricing)
			Expect(err).To(BeNil())
			Expect(status).To(Equal("0"))
		})
	})

	Context("generic constraint ids", func() {
		It("are unique across the collection", func() {
			b := buildTwoRegionCase()
			b.Constraints = append(b.Constraints, casetest.Constraint{
				ID: "#GEN_B_E", Type: "LE", ViolationPrice: 360000, RHS: 90,
				TraderFactors: []casetest.TraderFactor{{TraderID: "GEN_B", TradeType: "ENOF", Factor: 1}},
			})
			cf, err := nemde.ParseCasefile(b.Build())
			Expect(err).To(BeNil())

			ids := cf.GenericConstraintIDs()
			seen := make(map[string]bool)
			for _, id := range ids {
				Expect(seen[id]).To(BeFalse(), "duplicate constraint id %s", id)
				seen[id] = true
			}
		})
	})

	Context("failure semantics", func() {
		It("reports missing required attributes", func() {
			cf, err := nemde.ParseCasefile(buildTwoRegionCase().Build())
			Expect(err).To(BeNil())
			_, err = cf.CaseFloat("@NoSuchPrice")
			Expect(err).To(MatchError(nemde.ErrMissingAttribute))
		})
	})
})

var _ = Describe("Updater", func() {
	It("replaces an attribute through a predicate path", func() {
		cf, err := nemde.ParseCasefile(buildTwoRegionCase().Build())
		Expect(err).To(BeNil())

		err = cf.ApplyPatches([]nemde.Patch{{
			Path: "NEMSPDCaseFile.NemSpdInputs.PeriodCollection.Period." +
				"TraderPeriodCollection.TraderPeriod[?(@TraderID=='GEN_A')]." +
				"TradeCollection.Trade[?(@TradeType=='ENOF')].@BandAvail1",
			Value: 20.0,
		}})
		Expect(err).To(BeNil())

		bands, err := cf.TraderQuantityBands()
		Expect(err).To(BeNil())
		Expect(bands[nemde.BandKey{TraderID: "GEN_A", TradeType: nemde.TradeType_ENOF, Band: 1}]).To(Equal(20.0))
	})

	It("resolves list index selectors", func() {
		cf, err := nemde.ParseCasefile(buildTwoRegionCase().Build())
		Expect(err).To(BeNil())

		err = cf.ApplyPatches([]nemde.Patch{{
			Path: "NEMSPDCaseFile.NemSpdInputs.PeriodCollection.Period." +
				"TraderPeriodCollection.TraderPeriod[1]." +
				"TradeCollection.Trade[0].@MaxAvail",
			Value: 60.0,
		}})
		Expect(err).To(BeNil())

		maxAvail, err := cf.TraderTradeFloats("@MaxAvail")
		Expect(err).To(BeNil())
		Expect(maxAvail[nemde.OfferKey{TraderID: "GEN_B", TradeType: nemde.TradeType_ENOF}]).To(Equal(60.0))
	})

	It("fails when a path does not resolve uniquely", func() {
		cf, err := nemde.ParseCasefile(buildTwoRegionCase().Build())
		Expect(err).To(BeNil())

		err = cf.ApplyPatches([]nemde.Patch{{
			Path: "NEMSPDCaseFile.NemSpdInputs.PeriodCollection.Period." +
				"TraderPeriodCollection.TraderPeriod.@RegionID",
			Value: "SA1",
		}})
		Expect(err).To(MatchError(nemde.ErrCasefileUpdaterLookup))
	})

	It("leaves the casefile bit-identical for an empty patch list", func() {
		cf, err := nemde.ParseCasefile(buildTwoRegionCase().Build())
		Expect(err).To(BeNil())

		before, err := cf.MarshalJSON()
		Expect(err).To(BeNil())
		Expect(cf.ApplyPatches(nil)).To(BeNil())
		after, err := cf.MarshalJSON()
		Expect(err).To(BeNil())
		Expect(after).To(Equal(before))
	})
})
