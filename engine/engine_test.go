// Copyright (c) 2024 Akxen Labs

package engine_test

import (
	"fmt"

	"github.com/segmentio/encoding/json"

	"github.com/akxen/nemde-go"
	"github.com/akxen/nemde-go/engine"
	"github.com/akxen/nemde-go/internal/casetest"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

///////////////////////////////////////////////////////////////////////////////

// memoryStore backs case_id lookups in tests.
type memoryStore map[string][]byte

func (s memoryStore) GetCasefile(caseID string) ([]byte, error) {
	data, ok := s[caseID]
	if !ok {
		return nil, fmt.Errorf("case %s not stored", caseID)
	}
	return data, nil
}

func singleRegionCase() *casetest.Builder {
	b := casetest.New()
	b.Regions = []casetest.Region{{ID: "NSW1", InitialDemand: 50}}
	b.Traders = []casetest.Trader{{
		ID: "GEN_A", Region: "NSW1", Type: "GENERATOR", InitialMW: 50,
		RefEnergyTarget: casetest.Float(50),
		Offers:          []casetest.Offer{casetest.EnergyOffer("ENOF", 50, 40)},
	}}
	return b
}

///////////////////////////////////////////////////////////////////////////////

var _ = Describe("Engine", func() {
	Context("user input validation", func() {
		It("rejects case_data combined with case_id", func() {
			request := []byte(`{"case_id": "20201101001", "case_data": {"x": 1}, "options": {}}`)
			_, err := (&engine.Engine{}).Run(request)
			Expect(err).To(MatchError(nemde.ErrCasefileOptions))
		})

		It("rejects case_data combined with patches", func() {
			request := []byte(`{"case_data": {"x": 1}, "patches": [{"path": "a.b", "value": 1}], "options": {}}`)
			_, err := (&engine.Engine{}).Run(request)
			Expect(err).To(MatchError(nemde.ErrCasefileOptions))
		})

		It("rejects unknown run modes and formats", func() {
			request := []byte(`{"case_data": {"x": 1}, "options": {"run_mode": "hypothetical"}}`)
			_, err := (&engine.Engine{}).Run(request)
			Expect(err).To(MatchError(nemde.ErrCasefileOptions))

			request = []byte(`{"case_data": {"x": 1}, "options": {"solution_format": "excel"}}`)
			_, err = (&engine.Engine{}).Run(request)
			Expect(err).To(MatchError(nemde.ErrCasefileOptions))
		})

		It("requires one of case_id or case_data", func() {
			_, err := (&engine.Engine{}).Run([]byte(`{"options": {}}`))
			Expect(err).To(MatchError(nemde.ErrCasefileOptions))
		})
	})

	Context("running inline case data", func() {
		It("solves and serializes a standard solution", func() {
			input := engine.UserInput{
				CaseData: singleRegionCase().Build(),
				Options:  engine.Options{RunMode: "physical", SolutionFormat: "standard"},
			}
			request, err := json.Marshal(&input)
			Expect(err).To(BeNil())

			result, err := (&engine.Engine{}).Run(request)
			Expect(err).To(BeNil())
			Expect(result.Standard).ToNot(BeNil())
			Expect(result.Validation).To(BeNil())
			Expect(result.Standard.TraderSolution[0].EnergyTarget).To(BeNumerically("~", 50, 1e-4))
		})

		It("produces the validation shape on request", func() {
			input := engine.UserInput{
				CaseData: singleRegionCase().Build(),
				Options:  engine.Options{SolutionFormat: "validation"},
			}
			request, err := json.Marshal(&input)
			Expect(err).To(BeNil())

			result, err := (&engine.Engine{}).Run(request)
			Expect(err).To(BeNil())
			Expect(result.Validation).ToNot(BeNil())

			target := result.Validation.TraderSolution[0].EnergyTarget
			Expect(target.Actual).To(Equal(50.0))
			Expect(target.AbsDifference).To(BeNumerically("~", 0, 1e-4))
		})
	})

	Context("running by case id", func() {
		It("resolves the casefile from the store and applies patches", func() {
			store := memoryStore{"20201101001": singleRegionCase().Build()}
			input := engine.UserInput{
				CaseID: "20201101001",
				Patches: []nemde.Patch{{
					Path: "NEMSPDCaseFile.NemSpdInputs.PeriodCollection.Period." +
						"TraderPeriodCollection.TraderPeriod[?(@TraderID=='GEN_A')]." +
						"TradeCollection.Trade[?(@TradeType=='ENOF')].@MaxAvail",
					Value: 45.0,
				}},
				Options: engine.Options{},
			}
			request, err := json.Marshal(&input)
			Expect(err).To(BeNil())

			result, err := (&engine.Engine{Store: store}).Run(request)
			Expect(err).To(BeNil())
			// The patched cap binds below demand; the shortfall is priced,
			// not infeasible.
			Expect(result.Standard.TraderSolution[0].EnergyTarget).To(BeNumerically("~", 45, 1e-3))
		})

		It("fails without a store", func() {
			request := []byte(`{"case_id": "20201101001", "options": {}}`)
			_, err := (&engine.Engine{}).Run(request)
			Expect(err).To(MatchError(nemde.ErrCasefileNotFound))
		})
	})

	Context("solution serialization", func() {
		It("round-trips every scalar through JSON", func() {
			input := engine.UserInput{
				CaseData: singleRegionCase().Build(),
				Options:  engine.Options{},
			}
			request, err := json.Marshal(&input)
			Expect(err).To(BeNil())

			result, err := (&engine.Engine{}).Run(request)
			Expect(err).To(BeNil())

			data, err := json.Marshal(result)
			Expect(err).To(BeNil())

			var decoded nemde.Solution
			Expect(json.Unmarshal(data, &decoded)).To(BeNil())
			Expect(decoded.PeriodSolution.TotalObjective).To(Equal(result.Standard.PeriodSolution.TotalObjective))
			Expect(decoded.RegionSolution[0].ClearedDemand).To(Equal(result.Standard.RegionSolution[0].ClearedDemand))
			Expect(decoded.TraderSolution[0].EnergyTarget).To(Equal(result.Standard.TraderSolution[0].EnergyTarget))
		})
	})
})
