// Copyright (c) 2024 Akxen Labs

package report_test

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/akxen/nemde-go"
	"github.com/akxen/nemde-go/internal/report"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestReport(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Report Suite")
}

func sampleSolution() *nemde.Solution {
	return &nemde.Solution{
		PeriodSolution: nemde.PeriodSolution{CaseID: "20201101001", Intervention: "0"},
		RegionSolution: []nemde.RegionSolution{{
			RegionID: "NSW1", CaseID: "20201101001", Intervention: "0",
			DispatchedGeneration: 50, FixedDemand: 50, ClearedDemand: 50,
		}},
		TraderSolution: []nemde.TraderSolution{{
			TraderID: "GEN_A", CaseID: "20201101001", Intervention: "0",
			EnergyTarget: 50, R6Target: 5,
		}},
		InterconnectorSolution: []nemde.InterconnectorSolution{{
			InterconnectorID: "N-V", CaseID: "20201101001", Intervention: "0",
			Flow: 20, Losses: 0.6,
		}},
	}
}

var _ = Describe("CSV writers", func() {
	It("writes the region table with a header row", func() {
		var buf bytes.Buffer
		Expect(report.WriteRegionCSV(&buf, sampleSolution())).To(BeNil())

		rows, err := csv.NewReader(&buf).ReadAll()
		Expect(err).To(BeNil())
		Expect(rows).To(HaveLen(2))
		Expect(rows[0][0]).To(Equal("case_id"))
		Expect(rows[1][1]).To(Equal("NSW1"))
		Expect(rows[1][3]).To(Equal("50"))
	})

	It("writes the trader table", func() {
		var buf bytes.Buffer
		Expect(report.WriteTraderCSV(&buf, sampleSolution())).To(BeNil())

		rows, err := csv.NewReader(&buf).ReadAll()
		Expect(err).To(BeNil())
		Expect(rows).To(HaveLen(2))
		Expect(rows[1][1]).To(Equal("GEN_A"))
		Expect(rows[1][4]).To(Equal("5"))
	})

	It("writes the interconnector table", func() {
		var buf bytes.Buffer
		Expect(report.WriteInterconnectorCSV(&buf, sampleSolution())).To(BeNil())

		rows, err := csv.NewReader(&buf).ReadAll()
		Expect(err).To(BeNil())
		Expect(rows[1][3]).To(Equal("20"))
		Expect(rows[1][4]).To(Equal("0.6"))
	})
})

var _ = Describe("Parquet writers", func() {
	It("writes a non-empty trader parquet file", func() {
		var buf bytes.Buffer
		Expect(report.WriteTraderParquet(&buf, sampleSolution())).To(BeNil())
		// PAR1 magic at the head of the file.
		Expect(buf.Len()).To(BeNumerically(">", 8))
		Expect(buf.Bytes()[:4]).To(Equal([]byte("PAR1")))
	})

	It("writes a non-empty region parquet file", func() {
		var buf bytes.Buffer
		Expect(report.WriteRegionParquet(&buf, sampleSolution())).To(BeNil())
		Expect(buf.Bytes()[:4]).To(Equal([]byte("PAR1")))
	})
})
