package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/patcheck/internal/layout"
)

// FixtureResult is the JSON payload of the fixture command.
type FixtureResult struct {
	Path  string   `json:"path"`
	Cells []string `json:"cells"`
}

// NewFixtureCommand creates the fixture command.
func NewFixtureCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fixture <out.gds>",
		Short: "Write the reference regression layout",
		Long: `Write a small GDSII layout that exercises every outcome.

The cell SQUARES holds four patterns in one zone labelled check_name:
x=8 is good and passes, x=4 is good but flagged, x=-4 is bad but missed
and x=-8 is bad and flagged. Running it against a deck that declares
check_name gives one pattern in each bucket.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFixture(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runFixture(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	lib := layout.FixtureLibrary()
	if err := layout.WriteGDSFile(path, lib); err != nil {
		return commandError(formatter, ErrCodeWriteFailed, fmt.Sprintf("failed to write %s", path), err)
	}

	res := FixtureResult{Path: path}
	for _, c := range lib.Cells {
		res.Cells = append(res.Cells, c.Name)
	}
	if formatter.Format == "json" {
		return formatter.Success(res)
	}
	fmt.Fprintf(formatter.Writer, "Wrote %s (cells: %v)\n", path, res.Cells)
	return nil
}
