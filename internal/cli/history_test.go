package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/patcheck/internal/engine"
	"github.com/roach88/patcheck/internal/store"
	"github.com/roach88/patcheck/internal/testutil"
)

func historyOutput(t *testing.T, format, db, runID string, extra ...string) (string, error) {
	t.Helper()

	buf := &bytes.Buffer{}
	cmd := NewHistoryCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	args := []string{"--db", db}
	if runID != "" {
		args = append(args, "--run", runID)
	}
	cmd.SetArgs(append(args, extra...))

	err := cmd.Execute()
	return buf.String(), err
}

// recordRuns stores n fixture runs with IDs run-1..run-n a minute apart.
func recordRuns(t *testing.T, dir string, n int) string {
	t.Helper()

	deck := writeDeck(t, dir)
	gds := testutil.WriteFixtureGDS(t, dir, "squares.gds")
	testutil.WriteFile(t, dir, "broken.gds", []byte("GDS?"))
	db := filepath.Join(dir, "runs.db")

	var ids []string
	for i := 1; i <= n; i++ {
		ids = append(ids, fmt.Sprintf("run-%d", i))
	}
	gen := engine.NewFixedGenerator(ids...)
	clock := testutil.NewSteppingClock(testutil.Epoch, time.Minute)

	for i := 0; i < n; i++ {
		cmd := &cobra.Command{}
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		opts := &RunOptions{
			RootOptions: &RootOptions{Format: "text"},
			Rules:       deck,
			Database:    db,
			RunIDs:      gen,
			Clock:       clock,
			Host:        testHost,
		}
		require.NoError(t, runValidation(opts, []string{gds, filepath.Join(dir, "broken.gds")}, cmd))
	}
	return db
}

func TestHistoryList(t *testing.T) {
	db := recordRuns(t, t.TempDir(), 3)

	out, err := historyOutput(t, "text", db, "")
	require.NoError(t, err)
	assert.Contains(t, out, "RUN")
	assert.Contains(t, out, "2025-03-14 09:26:53")
	assert.Contains(t, out, "2025-03-14 09:28:53")
	assert.Less(t, bytes.Index([]byte(out), []byte("run-1")), bytes.Index([]byte(out), []byte("run-3")),
		"runs are listed oldest first")
}

func TestHistoryListLimitJSON(t *testing.T) {
	db := recordRuns(t, t.TempDir(), 3)

	out, err := historyOutput(t, "json", db, "", "--limit", "2")
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   []store.Run `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data, 2)
	assert.Equal(t, "run-2", resp.Data[0].ID)
	assert.Equal(t, "run-3", resp.Data[1].ID)
	assert.Equal(t, 1, resp.Data[1].Files)
	assert.Equal(t, 1, resp.Data[1].Aborted)
	assert.Equal(t, 2, resp.Data[1].Tally.Pass())
}

func TestHistoryShowRun(t *testing.T) {
	db := recordRuns(t, t.TempDir(), 1)

	out, err := historyOutput(t, "text", db, "run-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Run:      run-1")
	assert.Contains(t, out, "Host:     "+testHost)
	assert.Contains(t, out, "Status:   FAILED")
	assert.Contains(t, out, "check_name")
	assert.Contains(t, out, "SQUARES")
	assert.Contains(t, out, "Diagnostics:")
	assert.Contains(t, out, "broken.gds")
}

func TestHistoryShowRunJSON(t *testing.T) {
	db := recordRuns(t, t.TempDir(), 1)

	out, err := historyOutput(t, "json", db, "run-1")
	require.NoError(t, err)

	var resp struct {
		RunID string    `json:"run_id"`
		Data  RunDetail `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "run-1", resp.RunID)
	assert.Equal(t, "run-1", resp.Data.Run.ID)
	require.Len(t, resp.Data.Rows, 2)
	assert.Equal(t, "check_name", resp.Data.Rows[0].Rule)
	assert.Equal(t, 1, resp.Data.Rows[0].GoodFail)
	require.Len(t, resp.Data.Diagnostics, 1)
	assert.True(t, resp.Data.Diagnostics[0].Fatal)
}

func TestHistoryUnknownRun(t *testing.T) {
	db := recordRuns(t, t.TempDir(), 1)

	out, err := historyOutput(t, "text", db, "run-9")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E005]: run not found: run-9")
}

func TestHistoryMissingDatabase(t *testing.T) {
	db := filepath.Join(t.TempDir(), "none.db")

	out, err := historyOutput(t, "text", db, "")
	require.Error(t, err)
	assert.Contains(t, out, "Error [E005]")
	assert.NoFileExists(t, db, "history never creates a database")
}

func TestHistoryMissingDBFlag(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewHistoryCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestHistoryRule(t *testing.T) {
	db := recordRuns(t, t.TempDir(), 3)

	out, err := historyOutput(t, "text", db, "", "--rule", "check_name", "--limit", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "GOOD.PASS")
	assert.NotContains(t, out, "run-1")
	assert.Contains(t, out, "run-2")
	assert.Contains(t, out, "run-3")

	out, err = historyOutput(t, "json", db, "", "--rule", "check_name")
	require.NoError(t, err)
	var resp struct {
		Data []store.RulePoint `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data, 3)
	for _, p := range resp.Data {
		assert.Equal(t, 4, p.Tally.Total())
	}
}

func TestHistoryRuleUnknown(t *testing.T) {
	db := recordRuns(t, t.TempDir(), 1)

	out, err := historyOutput(t, "text", db, "", "--rule", "NOPE")
	require.NoError(t, err)
	assert.Equal(t, "No runs recorded rule NOPE\n", out)
}

func TestHistoryRunAndRuleExclusive(t *testing.T) {
	db := recordRuns(t, t.TempDir(), 1)

	_, err := historyOutput(t, "text", db, "run-1", "--rule", "check_name")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "none of the others can be")
}
