package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/patcheck/internal/engine"
	"github.com/roach88/patcheck/internal/harness"
)

// ScenarioOutcome is one scenario's entry in the JSON payload.
type ScenarioOutcome struct {
	Name     string   `json:"name"`
	Path     string   `json:"path"`
	Passed   bool     `json:"passed"`
	Errors   []string `json:"errors,omitempty"`
	Patterns int      `json:"patterns"`
}

// NewScenarioCommand creates the scenario command.
func NewScenarioCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scenario <scenario.yaml>...",
		Short: "Run regression scenarios and check their assertions",
		Long: `Run regression scenarios: a rule deck, layouts and the tallies,
diagnostics and status they must produce. Paths inside a scenario are
relative to the scenario file.

Exits 1 when any assertion fails.

Example:
  patcheck scenario testdata/scenarios/*.yaml`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios(rootOpts, args, cmd)
		},
	}
	return cmd
}

func runScenarios(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	cfg, err := loadConfig(opts)
	if err != nil {
		return commandError(formatter, ErrCodeConfig, "invalid config", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var outcomes []ScenarioOutcome
	failed := 0
	for _, path := range paths {
		s, err := harness.LoadScenario(path)
		if err != nil {
			return commandError(formatter, ErrCodeScenario, "failed to load scenario", err)
		}
		formatter.VerboseLog("Running scenario %s (%s)", s.Name, path)

		res, err := harness.Run(ctx, s,
			engine.WithConvention(cfg.Convention),
			engine.WithWorkers(cfg.Workers),
		)
		if err != nil {
			return commandError(formatter, ErrCodeScenario, fmt.Sprintf("scenario %s could not run", s.Name), err)
		}
		if !res.Passed() {
			failed++
		}
		outcomes = append(outcomes, ScenarioOutcome{
			Name:     s.Name,
			Path:     path,
			Passed:   res.Passed(),
			Errors:   res.Errors,
			Patterns: res.Summary.Totals.Patterns,
		})
	}

	if formatter.Format == "json" {
		if err := formatter.Success(outcomes); err != nil {
			return err
		}
	} else {
		w := formatter.Writer
		for _, o := range outcomes {
			status := "PASS"
			if !o.Passed {
				status = "FAIL"
			}
			fmt.Fprintf(w, "%s  %s (%d patterns)\n", status, o.Name, o.Patterns)
			for _, e := range o.Errors {
				fmt.Fprintf(w, "      %s\n", e)
			}
		}
		fmt.Fprintf(w, "\n%d of %d scenarios passed\n", len(outcomes)-failed, len(outcomes))
	}

	if failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d scenarios failed", failed, len(outcomes)))
	}
	return nil
}
