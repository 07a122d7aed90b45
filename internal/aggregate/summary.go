package aggregate

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"
)

// Run status values.
const (
	StatusPassed     = "PASSED"
	StatusFailed     = "FAILED"
	StatusIncomplete = "INCOMPLETE"
)

// Summary describes a run for reports and the result store.
type Summary struct {
	RunID     string    `json:"run_id"`
	Host      string    `json:"host"`
	StartedAt time.Time `json:"started_at"`
	RuleFile  string    `json:"rule_file"`
	Inputs    []string  `json:"inputs"`
	Totals    Totals    `json:"totals"`
	Status    string    `json:"status"`
	Overall   string    `json:"overall"`
}

// NewSummary computes totals and status for a result.
// The run fails when any pattern did not behave as intended. Otherwise it
// is incomplete when any file or cell was aborted.
func NewSummary(runID, host string, startedAt time.Time, ruleFile string, inputs []string, r *Result) Summary {
	tot := r.Totals()
	status := StatusPassed
	switch {
	case tot.Fail > 0:
		status = StatusFailed
	case tot.Aborted > 0:
		status = StatusIncomplete
	}
	return Summary{
		RunID:     runID,
		Host:      host,
		StartedAt: startedAt,
		RuleFile:  ruleFile,
		Inputs:    inputs,
		Totals:    tot,
		Status:    status,
		Overall:   fmt.Sprintf("%d of %d patterns behaved as intended", tot.Pass, tot.Patterns),
	}
}

// WriteText renders the summary block, the per-(rule, file, cell) table and
// any diagnostics.
func WriteText(w io.Writer, s Summary, r *Result) error {
	var b strings.Builder

	fmt.Fprintf(&b, "Run:      %s\n", s.RunID)
	fmt.Fprintf(&b, "Host:     %s\n", s.Host)
	fmt.Fprintf(&b, "Started:  %s\n", s.StartedAt.UTC().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Rules:    %s\n", s.RuleFile)
	fmt.Fprintf(&b, "Inputs:   %s\n", strings.Join(s.Inputs, ", "))
	fmt.Fprintf(&b, "Status:   %s (%s)\n", s.Status, s.Overall)
	fmt.Fprintf(&b, "Patterns: %d good, %d bad, %d pass, %d fail\n",
		s.Totals.Good, s.Totals.Bad, s.Totals.Pass, s.Totals.Fail)
	b.WriteString("\n")

	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RULE\tFILE\tCELL\tGOOD\tBAD\tGOOD.PASS\tGOOD.FAIL\tBAD.PASS\tBAD.FAIL")
	for _, row := range r.Rows() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%d\t%d\n",
			row.Rule, row.File, row.Cell,
			row.GoodPatterns, row.BadPatterns,
			row.GoodPass, row.GoodFail, row.BadPass, row.BadFail)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(r.Diagnostics) > 0 {
		b.WriteString("\nDiagnostics:\n")
		for _, d := range r.Diagnostics {
			fmt.Fprintf(&b, "  %s\n", d)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}
