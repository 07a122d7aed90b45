package harness

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/roach88/patcheck/internal/ir"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // assertion type
	Subject  string // what was checked, e.g. "rule M.S.1 in a.gds"
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "%s assertion failed for %s: ", e.Type, e.Subject)
	fmt.Fprintf(&buf, "expected %s, got %s", e.Expected, e.Actual)
	return buf.String()
}

// EvaluateAssertions checks every assertion and returns the failures in
// assertion order.
func EvaluateAssertions(r *Result, assertions []Assertion) []error {
	var errs []error
	for _, a := range assertions {
		var err error
		switch a.Type {
		case AssertTally:
			err = assertTally(r, a)
		case AssertDiagnostic:
			err = assertDiagnostic(r, a)
		case AssertStatus:
			err = assertStatus(r, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// assertTally sums the rule's tallies over the matching files and cells.
func assertTally(r *Result, a Assertion) error {
	rule := ir.NormalizeName(a.Rule)

	var got ir.Tally
	for k, t := range r.Run.Tallies {
		if k.Rule == rule && matchUnit(k.File, k.Cell, a) {
			got = got.Add(t)
		}
	}
	if got == *a.Expect {
		return nil
	}
	return &AssertionError{
		Type:     AssertTally,
		Subject:  subject("rule "+rule, a),
		Expected: formatTally(*a.Expect),
		Actual:   formatTally(got),
	}
}

// assertDiagnostic counts diagnostics with the given code.
func assertDiagnostic(r *Result, a Assertion) error {
	got := 0
	for _, d := range r.Run.Diagnostics {
		if string(d.Code) == a.Code && matchUnit(d.File, d.Cell, a) {
			got++
		}
	}
	if got == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertDiagnostic,
		Subject:  subject(a.Code, a),
		Expected: fmt.Sprintf("%d", a.Count),
		Actual:   fmt.Sprintf("%d", got),
	}
}

func assertStatus(r *Result, a Assertion) error {
	if r.Summary.Status == a.Status {
		return nil
	}
	return &AssertionError{
		Type:     AssertStatus,
		Subject:  "run",
		Expected: a.Status,
		Actual:   fmt.Sprintf("%s (%s)", r.Summary.Status, r.Summary.Overall),
	}
}

func matchUnit(file, cell string, a Assertion) bool {
	if a.File != "" && filepath.Base(file) != a.File {
		return false
	}
	return a.Cell == "" || cell == a.Cell
}

func subject(what string, a Assertion) string {
	if a.File != "" {
		what += " in " + a.File
	}
	if a.Cell != "" {
		what += "/" + a.Cell
	}
	return what
}

func formatTally(t ir.Tally) string {
	return fmt.Sprintf("good.pass=%d good.fail=%d bad.pass=%d bad.fail=%d",
		t.GoodPass, t.GoodFail, t.BadPass, t.BadFail)
}
