// Copyright (c) 2024 Akxen Labs

package nemde_test

import (
	"os"
	"path/filepath"

	"github.com/akxen/nemde-go"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Document files", func() {
	It("round-trips a compressed casefile through disk", func() {
		dir, err := os.MkdirTemp("", "nemde-io")
		Expect(err).To(BeNil())
		defer os.RemoveAll(dir)

		data := buildTwoRegionCase().Build()
		name := filepath.Join(dir, "20201101001.json.zst")
		Expect(nemde.WriteDocumentFile(name, data)).To(BeNil())

		got, err := nemde.ReadDocumentFile(name, false)
		Expect(err).To(BeNil())
		Expect(got).To(Equal(data))

		cf, err := nemde.ReadCasefileFile(name, false)
		Expect(err).To(BeNil())
		Expect(cf.RegionIDs()).To(Equal([]string{"NSW1", "VIC1"}))
	})

	It("writes plain JSON when the name has no zstd suffix", func() {
		dir, err := os.MkdirTemp("", "nemde-io")
		Expect(err).To(BeNil())
		defer os.RemoveAll(dir)

		data := buildTwoRegionCase().Build()
		name := filepath.Join(dir, "case.json")
		Expect(nemde.WriteDocumentFile(name, data)).To(BeNil())

		raw, err := os.ReadFile(name)
		Expect(err).To(BeNil())
		Expect(raw).To(Equal(data))
	})

	It("creates missing parent directories", func() {
		dir, err := os.MkdirTemp("", "nemde-io")
		Expect(err).To(BeNil())
		defer os.RemoveAll(dir)

		name := filepath.Join(dir, "2020", "11", "case.json")
		Expect(nemde.WriteDocumentFile(name, []byte("{}"))).To(BeNil())
		_, err = os.Stat(name)
		Expect(err).To(BeNil())
	})
})
