// Copyright (c) 2024 Akxen Labs

package nemde_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestNemde(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Nemde Suite")
}
