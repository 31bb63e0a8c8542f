// Copyright (c) 2024 Akxen Labs

package nemde_test

import (
	"reflect"

	"github.com/akxen/nemde-go"
	"github.com/akxen/nemde-go/internal/casetest"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Preprocess", func() {
	Context("price-tied bands", func() {
		It("pairs same-region generator bands at equal prices", func() {
			b := buildTwoRegionCase()
			// Put GEN_B in the same region at GEN_A's price.
			b.Traders[1].Region = "NSW1"
			b.Traders[1].Offers = []casetest.Offer{casetest.EnergyOffer("ENOF", 100, 30)}
			cf, err := nemde.ParseCasefile(b.Build())
			Expect(err).To(BeNil())

			in, err := nemde.Preprocess(cf, nemde.PreprocessOptions{})
			Expect(err).To(BeNil())
			Expect(in.PriceTiedGenerators).To(HaveLen(1))

			pair := in.PriceTiedGenerators[0]
			Expect(pair.A.TraderID).To(Equal("GEN_A"))
			Expect(pair.B.TraderID).To(Equal("GEN_B"))
			Expect(pair.A.Band).To(Equal(1))
		})

		It("ignores cross-region and zero-quantity ties", func() {
			b := buildTwoRegionCase()
			b.Traders[1].Offers = []casetest.Offer{casetest.EnergyOffer("ENOF", 100, 30)}
			cf, err := nemde.ParseCasefile(b.Build())
			Expect(err).To(BeNil())

			in, err := nemde.Preprocess(cf, nemde.PreprocessOptions{})
			Expect(err).To(BeNil())
			// GEN_B sits in VIC1: no pair despite the equal price.
			Expect(in.PriceTiedGenerators).To(BeEmpty())
		})
	})

	Context("MNSP region loss indicator", func() {
		It("assigns the sending end by initial flow sign", func() {
			b := buildTwoRegionCase()
			b.Interconnectors[0].MNSP = true
			b.Interconnectors[0].InitialMW = -30
			b.Interconnectors[0].FromRegionLFExp = 1.05
			b.Interconnectors[0].FromRegionLFImp = 1.03
			b.Interconnectors[0].ToRegionLFExp = 1.04
			b.Interconnectors[0].ToRegionLFImp = 1.02
			b.Interconnectors[0].Offers = []casetest.MNSPOffer{
				{RegionID: "NSW1", MaxAvail: 50, RampUp: 600, RampDn: 600},
				{RegionID: "VIC1", MaxAvail: 50, RampUp: 600, RampDn: 600},
			}
			cf, err := nemde.ParseCasefile(b.Build())
			Expect(err).To(BeNil())

			in, err := nemde.Preprocess(cf, nemde.PreprocessOptions{})
			Expect(err).To(BeNil())
			Expect(in.MNSPRegionLossIndicator["N-V"]["NSW1"]).To(Equal(0.0))
			Expect(in.MNSPRegionLossIndicator["N-V"]["VIC1"]).To(Equal(1.0))
		})
	})

	Context("loss preprocessing", func() {
		It("computes initial loss estimates and breakpoints", func() {
			b := buildTwoRegionCase()
			b.Interconnectors[0].InitialMW = 20
			cf, err := nemde.ParseCasefile(b.Build())
			Expect(err).To(BeNil())

			in, err := nemde.Preprocess(cf, nemde.PreprocessOptions{})
			Expect(err).To(BeNil())
			Expect(in.InterconnectorInitialLoss["N-V"]).To(BeNumerically("~", 0.6, 1e-9))

			breakpoints := in.InterconnectorLossBreakpoints["N-V"]
			Expect(breakpoints).To(HaveLen(3))
			Expect(breakpoints[0].X).To(Equal(-100.0))
			Expect(breakpoints[1].Y).To(BeZero())
		})
	})

	Context("determinism", func() {
		It("yields an identical bundle on repeated preprocessing", func() {
			data := buildTwoRegionCase().Build()
			cf1, err := nemde.ParseCasefile(data)
			Expect(err).To(BeNil())
			cf2, err := nemde.ParseCasefile(data)
			Expect(err).To(BeNil())

			in1, err := nemde.Preprocess(cf1, nemde.PreprocessOptions{})
			Expect(err).To(BeNil())
			in2, err := nemde.Preprocess(cf2, nemde.PreprocessOptions{})
			Expect(err).To(BeNil())
			Expect(reflect.DeepEqual(in1, in2)).To(BeTrue())
		})
	})

	Context("FCAS availability map", func() {
		It("marks offers unavailable by enablement min", func() {
			b := buildTwoRegionCase()
			offer := casetest.EnergyOffer("R5RE", 20, 1)
			offer.EnablementMin = casetest.Float(50)
			offer.LowBreakpoint = casetest.Float(60)
			offer.HighBreakpoint = casetest.Float(80)
			offer.EnablementMax = casetest.Float(100)
			b.Traders[0].AGCStatus = "1"
			b.Traders[0].InitialMW = 60
			b.Traders[0].Offers[0].MaxAvail = 40 // energy offer cannot reach EnablementMin
			b.Traders[0].Offers = append(b.Traders[0].Offers, offer)

			cf, err := nemde.ParseCasefile(b.Build())
			Expect(err).To(BeNil())
			in, err := nemde.Preprocess(cf, nemde.PreprocessOptions{})
			Expect(err).To(BeNil())

			key := nemde.OfferKey{TraderID: "GEN_A", TradeType: nemde.TradeType_R5RE}
			Expect(in.FCASAvailability[key]).To(BeFalse())
		})
	})
})
