package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/patcheck/internal/ir"
	"github.com/roach88/patcheck/internal/svrf"
)

// NewRulesCommand creates the rules command.
func NewRulesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules <deck>",
		Short: "List the rule checks declared in an SVRF deck",
		Long: `List the rule checks of an SVRF deck with their @ descriptions.

Only blocks that start with an @ comment are rule checks; these are the
names patcheck expects on rule-zone labels.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRules(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runRules(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	rules, err := svrf.ParseFile(path)
	if err != nil {
		return commandError(formatter, ErrCodeRuleDeck, "failed to read rule deck", err)
	}
	formatter.VerboseLog("Parsed %d rule check(s) from %s", len(rules), path)

	if formatter.Format == "json" {
		if rules == nil {
			rules = []ir.RuleSpec{}
		}
		return formatter.Success(rules)
	}

	if len(rules) == 0 {
		fmt.Fprintf(formatter.Writer, "No rule checks in %s\n", path)
		return nil
	}
	rows := make([][]string, len(rules))
	for i, r := range rules {
		rows[i] = []string{r.Name, r.Comment}
	}
	return formatter.Table([]string{"RULE", "DESCRIPTION"}, rows)
}
