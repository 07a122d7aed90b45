// Package testutil holds helpers shared by package tests: fixture layout
// files, deterministic clocks and run IDs, and a quiet logger.
package testutil

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/roach88/patcheck/internal/ir"
	"github.com/roach88/patcheck/internal/layout"
)

// FixtureRule is the rule named by the fixture cell's label.
const FixtureRule = "check_name"

// FixtureRules declares the fixture rule plus one rule the fixture never
// uses.
func FixtureRules() []ir.RuleSpec {
	return []ir.RuleSpec{
		{Name: FixtureRule, Comment: "Fixture rule check"},
		{Name: "M.S.1", Comment: "Minimum spacing between M >= 0.100"},
	}
}

// WriteFixtureGDS writes the canonical fixture library to dir/name and
// returns the path.
func WriteFixtureGDS(t testing.TB, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := layout.WriteGDSFile(path, layout.FixtureLibrary()); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

// WriteFile writes raw bytes to dir/name and returns the path.
func WriteFile(t testing.TB, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

// WriteLibrary writes lib as GDSII to dir/name and returns the path.
func WriteLibrary(t testing.TB, dir, name string, lib *layout.Library) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := layout.WriteGDSFile(path, lib); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

// DiscardLogger returns a logger that drops every record.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
