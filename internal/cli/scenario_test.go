package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/patcheck/internal/testutil"
)

func writeScenarioFiles(t *testing.T, dir, status string) string {
	t.Helper()
	writeDeck(t, dir)
	testutil.WriteFixtureGDS(t, dir, "squares.gds")
	return testutil.WriteFile(t, dir, "squares.yaml", []byte(`
name: squares
description: fixture layout against the test deck
rules: drc.svrf
layouts: [squares.gds]
assertions:
  - type: tally
    rule: check_name
    expect: {good_pass: 1, good_fail: 1, bad_pass: 1, bad_fail: 1}
  - type: status
    status: `+status+`
`))
}

func TestScenarioPass(t *testing.T) {
	path := writeScenarioFiles(t, t.TempDir(), "FAILED")

	buf := &bytes.Buffer{}
	cmd := NewScenarioCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{path})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "PASS  squares (4 patterns)")
	assert.Contains(t, buf.String(), "1 of 1 scenarios passed")
}

func TestScenarioFail(t *testing.T) {
	path := writeScenarioFiles(t, t.TempDir(), "PASSED")

	buf := &bytes.Buffer{}
	cmd := NewScenarioCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{path})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string            `json:"status"`
		Data   []ScenarioOutcome `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.False(t, resp.Data[0].Passed)
	require.Len(t, resp.Data[0].Errors, 1)
	assert.Contains(t, resp.Data[0].Errors[0], "status assertion failed")
}

func TestScenarioInvalidFile(t *testing.T) {
	path := testutil.WriteFile(t, t.TempDir(), "bad.yaml", []byte("name: bad\n"))

	buf := &bytes.Buffer{}
	cmd := NewScenarioCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{path})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, buf.String(), "Error [E009]")
}

func TestScenarioMissingFile(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewScenarioCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{filepath.Join(t.TempDir(), "none.yaml")})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, buf.String(), "Error [E009]")
}
