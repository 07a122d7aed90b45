package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/patcheck/internal/aggregate"
	"github.com/roach88/patcheck/internal/ir"
)

// ErrRunNotFound is returned when a run ID has no stored run.
var ErrRunNotFound = errors.New("run not found")

// Run is a stored run summary.
type Run struct {
	Seq       int64     `json:"seq"`
	ID        string    `json:"id"`
	Host      string    `json:"host"`
	StartedAt time.Time `json:"started_at"`
	RuleFile  string    `json:"rule_file"`
	Inputs    []string  `json:"inputs"`
	Status    string    `json:"status"`
	Tally     ir.Tally  `json:"tally"`
	Files     int       `json:"files"`
	Cells     int       `json:"cells"`
	Aborted   int       `json:"aborted"`
	Warnings  int       `json:"warnings"`
}

// SaveRun writes the run summary, its tallies and its diagnostics in one
// transaction. Saving a run ID twice fails.
func (s *Store) SaveRun(ctx context.Context, sum aggregate.Summary, r *aggregate.Result) (err error) {
	inputs, err := marshalInputs(sum.Inputs)
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save run: begin: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	t := sum.Totals
	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, host, started_at, rule_file, inputs, status,
		 good_pass, good_fail, bad_pass, bad_fail, files, cells, aborted, warnings)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		sum.RunID,
		sum.Host,
		formatTime(sum.StartedAt),
		sum.RuleFile,
		inputs,
		sum.Status,
		t.Tally.GoodPass,
		t.Tally.GoodFail,
		t.Tally.BadPass,
		t.Tally.BadFail,
		t.Files,
		t.Cells,
		t.Aborted,
		t.Warnings,
	)
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}

	order := make(map[string]int, len(r.Rules))
	for i, rr := range r.Rules {
		order[rr.Name] = i
	}
	for _, row := range r.Rows() {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO tallies
			(run_id, rule_order, rule, comment, file, cell, good_pass, good_fail, bad_pass, bad_fail)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			sum.RunID,
			order[row.Rule],
			row.Rule,
			row.Comment,
			row.File,
			row.Cell,
			row.GoodPass,
			row.GoodFail,
			row.BadPass,
			row.BadFail,
		)
		if err != nil {
			return fmt.Errorf("save tally %s/%s/%s: %w", row.Rule, row.File, row.Cell, err)
		}
	}

	for i, d := range r.Diagnostics {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO diagnostics (run_id, ord, code, file, cell, message, fatal)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, sum.RunID, i, string(d.Code), d.File, d.Cell, d.Message, boolToInt(d.Fatal))
		if err != nil {
			return fmt.Errorf("save diagnostic: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("save run: commit: %w", err)
	}
	return nil
}

const runColumns = `seq, id, host, started_at, rule_file, inputs, status,
	good_pass, good_fail, bad_pass, bad_fail, files, cells, aborted, warnings`

// ListRuns returns the most recent limit runs in insertion order. A limit
// of zero or less returns every run.
//
// Returns an empty slice (not nil) if no runs are stored.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+runColumns+` FROM (
			SELECT `+runColumns+` FROM runs ORDER BY seq DESC LIMIT ?
		) ORDER BY seq ASC
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// GetRun returns one run by ID.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return run, err
}

// LoadTallies returns a run's rows in report order: rule declaration
// order, then file, then cell.
func (s *Store) LoadTallies(ctx context.Context, runID string) ([]aggregate.Row, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT rule, comment, file, cell, good_pass, good_fail, bad_pass, bad_fail
		FROM tallies
		WHERE run_id = ?
		ORDER BY rule_order ASC, file COLLATE BINARY ASC, cell COLLATE BINARY ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query tallies: %w", err)
	}
	defer rows.Close()

	out := []aggregate.Row{}
	for rows.Next() {
		var row aggregate.Row
		if err := rows.Scan(&row.Rule, &row.Comment, &row.File, &row.Cell,
			&row.GoodPass, &row.GoodFail, &row.BadPass, &row.BadFail); err != nil {
			return nil, fmt.Errorf("scan tally: %w", err)
		}
		t := row.Tally()
		row.GoodPatterns, row.BadPatterns = t.Good(), t.Bad()
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tallies: %w", err)
	}
	return out, nil
}

// LoadDiagnostics returns a run's diagnostics in stored order.
func (s *Store) LoadDiagnostics(ctx context.Context, runID string) ([]aggregate.Diagnostic, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT code, file, cell, message, fatal
		FROM diagnostics
		WHERE run_id = ?
		ORDER BY ord ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query diagnostics: %w", err)
	}
	defer rows.Close()

	out := []aggregate.Diagnostic{}
	for rows.Next() {
		var (
			d     aggregate.Diagnostic
			code  string
			fatal int
		)
		if err := rows.Scan(&code, &d.File, &d.Cell, &d.Message, &fatal); err != nil {
			return nil, fmt.Errorf("scan diagnostic: %w", err)
		}
		d.Code = ir.ErrorCode(code)
		d.Fatal = fatal != 0
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate diagnostics: %w", err)
	}
	return out, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(sc rowScanner) (Run, error) {
	var (
		run       Run
		startedAt string
		inputs    string
	)
	err := sc.Scan(&run.Seq, &run.ID, &run.Host, &startedAt, &run.RuleFile, &inputs, &run.Status,
		&run.Tally.GoodPass, &run.Tally.GoodFail, &run.Tally.BadPass, &run.Tally.BadFail,
		&run.Files, &run.Cells, &run.Aborted, &run.Warnings)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}

	if run.StartedAt, err = parseTime(startedAt); err != nil {
		return Run{}, err
	}
	if run.Inputs, err = unmarshalInputs(inputs); err != nil {
		return Run{}, err
	}
	return run, nil
}

// RulePoint is one rule's tally summed over the cells of one run.
type RulePoint struct {
	RunID     string    `json:"run_id"`
	StartedAt time.Time `json:"started_at"`
	Tally     ir.Tally  `json:"tally"`
}

// RuleHistory returns the rule's tally in each of the most recent limit
// runs that recorded it, oldest first. A limit of zero or less returns
// every such run.
func (s *Store) RuleHistory(ctx context.Context, rule string, limit int) ([]RulePoint, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, gp, gf, bp, bf FROM (
			SELECT r.seq, r.id, r.started_at,
				SUM(t.good_pass) AS gp, SUM(t.good_fail) AS gf,
				SUM(t.bad_pass) AS bp, SUM(t.bad_fail) AS bf
			FROM tallies t JOIN runs r ON r.id = t.run_id
			WHERE t.rule = ?
			GROUP BY r.seq, r.id, r.started_at
			ORDER BY r.seq DESC
			LIMIT ?
		) ORDER BY seq ASC
	`, rule, limit)
	if err != nil {
		return nil, fmt.Errorf("query rule history: %w", err)
	}
	defer rows.Close()

	out := []RulePoint{}
	for rows.Next() {
		var (
			p         RulePoint
			startedAt string
		)
		if err := rows.Scan(&p.RunID, &startedAt,
			&p.Tally.GoodPass, &p.Tally.GoodFail, &p.Tally.BadPass, &p.Tally.BadFail); err != nil {
			return nil, fmt.Errorf("scan rule history: %w", err)
		}
		if p.StartedAt, err = parseTime(startedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rule history: %w", err)
	}
	return out, nil
}
