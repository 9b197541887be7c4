package linters_test

import (
	"testing"

	"golang.org/x/tools/go/analysis/analysistest"

	"github.com/cafoot/client/tools/linters"
)

func TestAnalyzer(t *testing.T) {
	analysistest.Run(t, analysistest.TestData(), linters.Analyzer, "a")
}
