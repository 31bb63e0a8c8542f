// Copyright (c) 2024 Akxen Labs

package casedb_test

import (
	"testing"

	"github.com/akxen/nemde-go/internal/casedb"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestCasedb(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Casedb Suite")
}

var _ = Describe("Store", func() {
	It("round-trips casefiles through an in-memory database", func() {
		store, err := casedb.Open("")
		Expect(err).To(BeNil())
		defer store.Close()

		body := []byte(`{"NEMSPDCaseFile": {"NemSpdInputs": {}}}`)
		Expect(store.PutCasefile("20201101001", body)).To(BeNil())

		got, err := store.GetCasefile("20201101001")
		Expect(err).To(BeNil())
		Expect(got).To(Equal(body))
	})

	It("reports missing casefiles", func() {
		store, err := casedb.Open("")
		Expect(err).To(BeNil())
		defer store.Close()

		_, err = store.GetCasefile("20991231288")
		Expect(err).ToNot(BeNil())
	})

	It("lists case ids by day prefix", func() {
		store, err := casedb.Open("")
		Expect(err).To(BeNil())
		defer store.Close()

		for _, id := range []string{"20201101002", "20201101001", "20201102001"} {
			Expect(store.PutCasefile(id, []byte("{}"))).To(BeNil())
		}

		ids, err := store.ListCases("20201101")
		Expect(err).To(BeNil())
		Expect(ids).To(Equal([]string{"20201101001", "20201101002"}))
	})

	It("stores solutions keyed by case and run mode", func() {
		store, err := casedb.Open("")
		Expect(err).To(BeNil())
		defer store.Close()

		Expect(store.PutSolution("20201101001", "physical", []byte(`{"ok": true}`))).To(BeNil())
		got, err := store.GetSolution("20201101001", "physical")
		Expect(err).To(BeNil())
		Expect(got).To(Equal([]byte(`{"ok": true}`)))

		_, err = store.GetSolution("20201101001", "pricing")
		Expect(err).ToNot(BeNil())
	})
})
