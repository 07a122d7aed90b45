package harness

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// RunWithGolden runs the scenario, fails the test on any failed assertion
// and compares the text report with testdata/golden/<name>.golden.
//
// Regenerate golden files with: go test ./internal/harness -update
func RunWithGolden(t *testing.T, s *Scenario) error {
	t.Helper()

	result, err := Run(context.Background(), s)
	if err != nil {
		return err
	}
	for _, msg := range result.Errors {
		t.Error(msg)
	}
	return AssertGolden(t, s.Name, result)
}

// AssertGolden compares an existing result's report with its golden file.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	report, err := result.Report()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, report)
	return nil
}
