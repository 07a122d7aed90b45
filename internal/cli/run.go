package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/patcheck/internal/aggregate"
	"github.com/roach88/patcheck/internal/engine"
	"github.com/roach88/patcheck/internal/layout"
	"github.com/roach88/patcheck/internal/store"
	"github.com/roach88/patcheck/internal/svrf"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Rules    string
	Database string
	Workers  int
	Strict   bool

	// RunIDs allows overriding the run ID generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	RunIDs engine.RunIDGenerator

	// Clock allows overriding the run start time (for testing).
	// If nil, defaults to SystemClock.
	Clock engine.Clock

	// Host overrides the recorded host name (for testing).
	Host string
}

// RunReport is the JSON payload of the run command.
type RunReport struct {
	Summary     aggregate.Summary      `json:"summary"`
	Rows        []aggregate.Row        `json:"rows"`
	Diagnostics []aggregate.Diagnostic `json:"diagnostics"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run --rules <deck> <layout-dir|file>...",
		Short: "Validate regression layouts against a rule deck",
		Long: `Validate regression layouts against the rule checks of an SVRF deck.

Directories are scanned (not recursively) for layout files; files are used
as given. Every cell of every layout is checked and the per-rule tallies are
printed. With --db the run is also recorded in a SQLite history database.

Example:
  patcheck run --rules drc.svrf ./regression
  patcheck run --rules drc.svrf --db runs.db --strict a.gds b.gds`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidation(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Rules, "rules", "", "path to SVRF rule deck (required)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record the run in this SQLite database")
	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "files processed in parallel (default from config, else CPU count)")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "exit 1 when any pattern misbehaves or a layout unit aborts")
	_ = cmd.MarkFlagRequired("rules")

	return cmd
}

func runValidation(opts *RunOptions, inputs []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return commandError(formatter, ErrCodeConfig, "invalid config", err)
	}
	if cmd.Flags().Changed("workers") {
		cfg.Workers = opts.Workers
	}
	if opts.Database != "" {
		cfg.Database = opts.Database
	}
	if cfg.Workers < 1 {
		return commandError(formatter, ErrCodeGeneric, fmt.Sprintf("--workers must be at least 1, got %d", cfg.Workers), nil)
	}

	rules, err := svrf.ParseFile(opts.Rules)
	if err != nil {
		return commandError(formatter, ErrCodeRuleDeck, "failed to read rule deck", err)
	}
	logger.Info("rule deck loaded", "path", opts.Rules, "rules", len(rules))
	logger.Debug("declared rules", "names", svrf.Names(rules))

	registry := layout.NewRegistry()
	if len(cfg.Extensions) > 0 {
		registry = registry.Only(cfg.Extensions...)
	}
	files, err := registry.Expand(inputs)
	if err != nil {
		return commandError(formatter, ErrCodeNotFound, "failed to read layout inputs", err)
	}
	if len(files) == 0 {
		return commandError(formatter, ErrCodeNoFiles, fmt.Sprintf("no layout files found (extensions %v)", registry.Extensions()), nil)
	}

	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	runIDs := opts.RunIDs
	if runIDs == nil {
		runIDs = engine.UUIDv7Generator{}
	}
	clock := opts.Clock
	if clock == nil {
		clock = engine.SystemClock{}
	}
	host := opts.Host
	if host == "" {
		host, _ = os.Hostname()
	}

	eng := engine.New(rules,
		engine.WithConvention(cfg.Convention),
		engine.WithWorkers(cfg.Workers),
		engine.WithDecoder(registry),
		engine.WithLogger(logger),
	)

	runID := runIDs.Generate()
	started := clock.Now()
	logger.Info("run starting", "run_id", runID, "files", len(files), "workers", cfg.Workers)

	result, err := eng.Run(ctx, files)
	switch {
	case errors.Is(err, engine.ErrNoUsableInput):
		var details []string
		if result != nil {
			for _, d := range result.Diagnostics {
				details = append(details, d.String())
			}
		}
		_ = formatter.Error(ErrCodeNoUsableInput, "no layout cell could be validated", details)
		return WrapExitError(ExitCommandError, ErrCodeNoUsableInput+": no layout cell could be validated", err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return commandError(formatter, ErrCodeCancelled, "run interrupted", err)
	case err != nil:
		return commandError(formatter, ErrCodeGeneric, "run failed", err)
	}

	summary := aggregate.NewSummary(runID, host, started, opts.Rules, inputs, result)

	if cfg.Database != "" {
		if err := saveRun(ctx, cfg.Database, summary, result, logger); err != nil {
			return commandError(formatter, ErrCodeStore, "failed to record run", err)
		}
	}

	if formatter.Format == "json" {
		rows := result.Rows()
		if rows == nil {
			rows = []aggregate.Row{}
		}
		diags := result.Diagnostics
		if diags == nil {
			diags = []aggregate.Diagnostic{}
		}
		if err := formatter.SuccessRun(runID, RunReport{Summary: summary, Rows: rows, Diagnostics: diags}); err != nil {
			return err
		}
	} else if err := aggregate.WriteText(formatter.Writer, summary, result); err != nil {
		return err
	}

	if opts.Strict {
		switch summary.Status {
		case aggregate.StatusFailed:
			return NewExitError(ExitFailure, fmt.Sprintf("%d of %d patterns did not behave as intended",
				summary.Totals.Fail, summary.Totals.Patterns))
		case aggregate.StatusIncomplete:
			return NewExitError(ExitFailure, fmt.Sprintf("%d layout units aborted", summary.Totals.Aborted))
		}
	}
	return nil
}

func saveRun(ctx context.Context, path string, sum aggregate.Summary, r *aggregate.Result, logger *slog.Logger) error {
	st, err := store.Open(path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
	}()

	if err := st.SaveRun(ctx, sum, r); err != nil {
		return err
	}
	logger.Info("run recorded", "db", path, "run_id", sum.RunID)
	return nil
}
