// Copyright (c) 2024 Akxen Labs

package nemweb_test

import (
	"archive/zip"
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/akxen/nemde-go/nemweb"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestNemweb(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Nemweb Suite")
}

var _ = Describe("Case ids", func() {
	It("parses the date component", func() {
		date, err := nemweb.CaseDate("20201101042")
		Expect(err).To(BeNil())
		Expect(date.Year()).To(Equal(2020))
		Expect(int(date.Month())).To(Equal(11))
		Expect(date.Day()).To(Equal(1))
	})

	It("parses the interval ordinal", func() {
		interval, err := nemweb.CaseInterval("20201101042")
		Expect(err).To(BeNil())
		Expect(interval).To(Equal(42))
	})

	It("maps interval end times to case ids", func() {
		loc := time.FixedZone("AEST", 10*3600)
		t := time.Date(2020, 11, 1, 4, 5, 0, 0, loc)
		Expect(nemweb.CaseIDForTime(t)).To(Equal("20201101049"))

		t = time.Date(2020, 11, 1, 0, 5, 0, 0, loc)
		Expect(nemweb.CaseIDForTime(t)).To(Equal("20201101001"))

		t = time.Date(2020, 11, 1, 23, 57, 0, 0, loc)
		Expect(nemweb.CaseIDForTime(t)).To(Equal("20201101288"))
	})

	It("rejects malformed ids", func() {
		_, err := nemweb.CaseDate("20201101")
		Expect(err).ToNot(BeNil())

		_, err = nemweb.CaseInterval("20201101999")
		Expect(err).ToNot(BeNil())
	})
})

var _ = Describe("Client", func() {
	It("builds the daily archive URL", func() {
		client := nemweb.NewClient("")
		date := time.Date(2020, 11, 1, 0, 0, 0, 0, time.UTC)
		Expect(client.ArchiveURL(date)).To(Equal(
			"https://nemweb.com.au/Data_Archive/Wholesale_Electricity/NEMDE/2020/NEMDE_2020_11/NEMDE_Market_Data/NEMDE_Files/NemSpdOutputs_20201101_loaded.zip"))
	})

	It("fetches and extracts a daily archive", func() {
		var buf bytes.Buffer
		zw := zip.NewWriter(&buf)
		for _, name := range []string{
			"NEMSPDOutputs_2020110100100.loaded",
			"NEMSPDOutputs_2020110100200.loaded",
			"README.txt",
		} {
			w, err := zw.Create(name)
			Expect(err).To(BeNil())
			_, err = w.Write([]byte(`{"NEMSPDCaseFile": {}}`))
			Expect(err).To(BeNil())
		}
		Expect(zw.Close()).To(BeNil())

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write(buf.Bytes())
		}))
		defer server.Close()

		client := nemweb.NewClient(server.URL)
		entries, err := client.FetchArchive(time.Date(2020, 11, 1, 0, 0, 0, 0, time.UTC))
		Expect(err).To(BeNil())
		Expect(entries).To(HaveLen(2))
		Expect(entries[0].CaseID).To(Equal("20201101001"))
		Expect(entries[1].CaseID).To(Equal("20201101002"))
		Expect(string(entries[0].Data)).To(ContainSubstring("NEMSPDCaseFile"))
	})
})
