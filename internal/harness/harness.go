package harness

import (
	"bytes"
	"context"
	"fmt"

	"github.com/roach88/patcheck/internal/aggregate"
	"github.com/roach88/patcheck/internal/engine"
	"github.com/roach88/patcheck/internal/layout"
	"github.com/roach88/patcheck/internal/svrf"
	"github.com/roach88/patcheck/internal/testutil"
)

// Host is the host name recorded for scenario runs.
const Host = "harness"

// Result is the outcome of running a scenario.
type Result struct {
	Scenario string
	Summary  aggregate.Summary
	Run      *aggregate.Result

	// Errors lists failed assertions. Empty means the scenario passed.
	Errors []string
}

// Passed reports whether every assertion held.
func (r *Result) Passed() bool {
	return len(r.Errors) == 0
}

// Report renders the run the way "patcheck run" prints it.
func (r *Result) Report() ([]byte, error) {
	var buf bytes.Buffer
	if err := aggregate.WriteText(&buf, r.Summary, r.Run); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Run validates the scenario's layouts against its rule deck and evaluates
// its assertions. The run uses a fixed run ID, start time and host.
//
// Options are passed to the engine after the harness defaults, so callers
// can override the convention or the worker count. An error is returned
// only when the run itself cannot complete; failed assertions are recorded
// in Result.Errors.
func Run(ctx context.Context, s *Scenario, opts ...engine.Option) (*Result, error) {
	rules, err := svrf.ParseFile(s.Rules)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
	}

	registry := layout.NewRegistry()
	files, err := registry.Expand(s.Layouts)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
	}

	opts = append([]engine.Option{
		engine.WithDecoder(registry),
		engine.WithLogger(testutil.DiscardLogger()),
	}, opts...)
	eng := engine.New(rules, opts...)

	run, err := eng.Run(ctx, files)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
	}

	runID := testutil.FixedRunID(s.RunID).Generate()
	res := &Result{
		Scenario: s.Name,
		Summary:  aggregate.NewSummary(runID, Host, testutil.Epoch, s.Rules, s.Layouts, run),
		Run:      run,
	}
	for _, err := range EvaluateAssertions(res, s.Assertions) {
		res.Errors = append(res.Errors, err.Error())
	}
	return res, nil
}
