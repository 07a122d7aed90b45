package cli

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/patcheck/internal/aggregate"
	"github.com/roach88/patcheck/internal/ir"
	"github.com/roach88/patcheck/internal/store"
)

const timeLayout = "2006-01-02 15:04:05"

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Limit    int
	RunID    string
	Rule     string
}

// RunDetail is the JSON payload of history --run.
type RunDetail struct {
	Run         store.Run              `json:"run"`
	Rows        []aggregate.Row        `json:"rows"`
	Diagnostics []aggregate.Diagnostic `json:"diagnostics"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history --db <path>",
		Short: "Show recorded validation runs",
		Long: `Show runs recorded with "patcheck run --db".

Without flags the most recent runs are listed, oldest first. With --run the
tallies and diagnostics of that run are printed. With --rule the rule's
tally in each recent run is printed, to spot regressions of one check.

Example:
  patcheck history --db runs.db --limit 5
  patcheck history --db runs.db --run 0192f4d2-...
  patcheck history --db runs.db --rule M.S.1`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "number of runs to list (0 for all)")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "show the rows of this run")
	cmd.Flags().StringVar(&opts.Rule, "rule", "", "show this rule's tally per run")
	_ = cmd.MarkFlagRequired("db")
	cmd.MarkFlagsMutuallyExclusive("run", "rule")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	// Opening would create an empty database; history only reads.
	if _, err := os.Stat(opts.Database); err != nil {
		return commandError(formatter, ErrCodeNotFound, fmt.Sprintf("database not found: %s", opts.Database), err)
	}
	st, err := store.Open(opts.Database)
	if err != nil {
		return commandError(formatter, ErrCodeStore, "failed to open database", err)
	}
	defer st.Close()

	switch {
	case opts.RunID != "":
		return showRun(formatter, st, opts.RunID, cmd)
	case opts.Rule != "":
		return showRule(formatter, st, opts, cmd)
	}

	runs, err := st.ListRuns(cmd.Context(), opts.Limit)
	if err != nil {
		return commandError(formatter, ErrCodeStore, "failed to list runs", err)
	}
	if formatter.Format == "json" {
		return formatter.Success(runs)
	}
	if len(runs) == 0 {
		fmt.Fprintln(formatter.Writer, "No runs recorded")
		return nil
	}

	rows := make([][]string, len(runs))
	for i, r := range runs {
		rows[i] = []string{
			r.ID, r.StartedAt.UTC().Format(timeLayout), r.Status,
			strconv.Itoa(r.Files), strconv.Itoa(r.Cells),
			strconv.Itoa(r.Tally.Pass()), strconv.Itoa(r.Tally.Fail()), r.RuleFile,
		}
	}
	return formatter.Table([]string{"RUN", "STARTED", "STATUS", "FILES", "CELLS", "PASS", "FAIL", "RULES"}, rows)
}

func showRun(formatter *OutputFormatter, st *store.Store, id string, cmd *cobra.Command) error {
	ctx := cmd.Context()

	run, err := st.GetRun(ctx, id)
	if errors.Is(err, store.ErrRunNotFound) {
		return commandError(formatter, ErrCodeNotFound, fmt.Sprintf("run not found: %s", id), err)
	}
	if err != nil {
		return commandError(formatter, ErrCodeStore, "failed to read run", err)
	}
	tallies, err := st.LoadTallies(ctx, id)
	if err != nil {
		return commandError(formatter, ErrCodeStore, "failed to read tallies", err)
	}
	diags, err := st.LoadDiagnostics(ctx, id)
	if err != nil {
		return commandError(formatter, ErrCodeStore, "failed to read diagnostics", err)
	}

	if formatter.Format == "json" {
		return formatter.SuccessRun(run.ID, RunDetail{Run: run, Rows: tallies, Diagnostics: diags})
	}

	w := formatter.Writer
	fmt.Fprintf(w, "Run:      %s\n", run.ID)
	fmt.Fprintf(w, "Host:     %s\n", run.Host)
	fmt.Fprintf(w, "Started:  %s\n", run.StartedAt.UTC().Format(timeLayout))
	fmt.Fprintf(w, "Rules:    %s\n", run.RuleFile)
	fmt.Fprintf(w, "Status:   %s\n\n", run.Status)

	rows := make([][]string, len(tallies))
	for i, r := range tallies {
		rows[i] = append([]string{r.Rule, r.File, r.Cell}, tallyCells(r.GoodPass, r.GoodFail, r.BadPass, r.BadFail)...)
	}
	if err := formatter.Table([]string{"RULE", "FILE", "CELL", "GOOD.PASS", "GOOD.FAIL", "BAD.PASS", "BAD.FAIL"}, rows); err != nil {
		return err
	}

	if len(diags) > 0 {
		fmt.Fprintln(w, "\nDiagnostics:")
		for _, d := range diags {
			fmt.Fprintf(w, "  %s\n", d)
		}
	}
	return nil
}

func showRule(formatter *OutputFormatter, st *store.Store, opts *HistoryOptions, cmd *cobra.Command) error {
	rule := ir.NormalizeName(opts.Rule)
	points, err := st.RuleHistory(cmd.Context(), rule, opts.Limit)
	if err != nil {
		return commandError(formatter, ErrCodeStore, "failed to read rule history", err)
	}
	if formatter.Format == "json" {
		return formatter.Success(points)
	}
	if len(points) == 0 {
		fmt.Fprintf(formatter.Writer, "No runs recorded rule %s\n", rule)
		return nil
	}

	rows := make([][]string, len(points))
	for i, p := range points {
		t := p.Tally
		rows[i] = append([]string{p.RunID, p.StartedAt.UTC().Format(timeLayout)},
			tallyCells(t.GoodPass, t.GoodFail, t.BadPass, t.BadFail)...)
	}
	return formatter.Table([]string{"RUN", "STARTED", "GOOD.PASS", "GOOD.FAIL", "BAD.PASS", "BAD.FAIL"}, rows)
}

func tallyCells(counts ...int) []string {
	out := make([]string, len(counts))
	for i, n := range counts {
		out[i] = strconv.Itoa(n)
	}
	return out
}
