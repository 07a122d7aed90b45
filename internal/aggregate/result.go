package aggregate

import (
	"sort"

	"github.com/roach88/patcheck/internal/ir"
)

// RuleResult is one rule's comment and its tally in every processed cell.
type RuleResult struct {
	Name     string
	Comment  string
	Declared bool
	Cells    map[Unit]ir.Tally
}

// Total sums the rule's tallies over all cells.
func (rr RuleResult) Total() ir.Tally {
	var sum ir.Tally
	for _, t := range rr.Cells {
		sum = sum.Add(t)
	}
	return sum
}

// Result is the aggregate of a run.
type Result struct {
	// Rules lists declared rules in declaration order, then undeclared
	// rules found in layouts, by name.
	Rules []RuleResult

	// Tallies holds every (rule, file, cell) tally.
	Tallies map[ir.Key]ir.Tally

	// Units lists processed (file, cell) pairs, sorted.
	Units []Unit

	// Files lists files that decoded successfully, sorted.
	Files []string

	// Diagnostics lists aborted units and warnings, sorted.
	Diagnostics []Diagnostic
}

// Row is one flattened (rule, file, cell) line of a report.
type Row struct {
	Rule         string `json:"rule"`
	Comment      string `json:"comment"`
	File         string `json:"file"`
	Cell         string `json:"cell"`
	GoodPatterns int    `json:"good_patterns"`
	BadPatterns  int    `json:"bad_patterns"`
	GoodPass     int    `json:"good_pass"`
	GoodFail     int    `json:"good_fail"`
	BadPass      int    `json:"bad_pass"`
	BadFail      int    `json:"bad_fail"`
}

// Tally returns the row's counters as a tally.
func (r Row) Tally() ir.Tally {
	return ir.Tally{GoodPass: r.GoodPass, GoodFail: r.GoodFail, BadPass: r.BadPass, BadFail: r.BadFail}
}

// Rows flattens the result in rule order, then file, then cell.
func (r *Result) Rows() []Row {
	var rows []Row
	for _, rr := range r.Rules {
		units := make([]Unit, 0, len(rr.Cells))
		for u := range rr.Cells {
			units = append(units, u)
		}
		sort.Slice(units, func(i, j int) bool { return unitLess(units[i], units[j]) })

		for _, u := range units {
			t := rr.Cells[u]
			rows = append(rows, Row{
				Rule:         rr.Name,
				Comment:      rr.Comment,
				File:         u.File,
				Cell:         u.Cell,
				GoodPatterns: t.Good(),
				BadPatterns:  t.Bad(),
				GoodPass:     t.GoodPass,
				GoodFail:     t.GoodFail,
				BadPass:      t.BadPass,
				BadFail:      t.BadFail,
			})
		}
	}
	return rows
}

// Totals are run-level counts over every tally.
type Totals struct {
	Patterns int      `json:"patterns"`
	Good     int      `json:"good"`
	Bad      int      `json:"bad"`
	Pass     int      `json:"pass"`
	Fail     int      `json:"fail"`
	Tally    ir.Tally `json:"tally"`
	Rules    int      `json:"rules"`
	Files    int      `json:"files"`
	Cells    int      `json:"cells"`
	Aborted  int      `json:"aborted"`
	Warnings int      `json:"warnings"`
}

// Totals folds every stored tally.
func (r *Result) Totals() Totals {
	all := make([]ir.Tally, 0, len(r.Tallies))
	for _, t := range r.Tallies {
		all = append(all, t)
	}
	sum := Fold(all...)

	tot := Totals{
		Patterns: sum.Total(),
		Good:     sum.Good(),
		Bad:      sum.Bad(),
		Pass:     sum.Pass(),
		Fail:     sum.Fail(),
		Tally:    sum,
		Rules:    len(r.Rules),
		Files:    len(r.Files),
		Cells:    len(r.Units),
	}
	for _, d := range r.Diagnostics {
		if d.Fatal {
			tot.Aborted++
		} else {
			tot.Warnings++
		}
	}
	return tot
}

// Rule returns the named rule's result.
func (r *Result) Rule(name string) (RuleResult, bool) {
	for _, rr := range r.Rules {
		if rr.Name == name {
			return rr, true
		}
	}
	return RuleResult{}, false
}
