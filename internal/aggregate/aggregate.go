// Package aggregate folds per-(file, cell) tallies into a run-wide result.
//
// Every tally is stored under a composite ir.Key. Adding tallies is
// associative and commutative, so cell results may arrive in any order
// from any number of workers; the Accumulator mutex is the only
// synchronisation point.
package aggregate

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/roach88/patcheck/internal/ir"
)

// Unit identifies one processed (file, cell) pair.
type Unit struct {
	File string `json:"file"`
	Cell string `json:"cell"`
}

// CellResult is the outcome of validating one cell.
type CellResult struct {
	File string
	Cell string

	// Tallies holds one tally per rule name resolved in the cell.
	Tallies map[string]ir.Tally

	// Warnings are non-fatal findings from association.
	Warnings []*ir.Error

	// Layers is the number of distinct (layer, purpose) pairs in the cell.
	Layers int
}

// Diagnostic records an aborted unit or a warning.
type Diagnostic struct {
	Code    ir.ErrorCode `json:"code"`
	File    string       `json:"file,omitempty"`
	Cell    string       `json:"cell,omitempty"`
	Message string       `json:"message"`
	Fatal   bool         `json:"fatal"`
}

func (d Diagnostic) String() string {
	loc := d.File
	if d.Cell != "" {
		loc += "/" + d.Cell
	}
	return fmt.Sprintf("%s %s: %s", d.Code, loc, d.Message)
}

// Fold sums tallies. The result does not depend on argument order.
func Fold(tallies ...ir.Tally) ir.Tally {
	var sum ir.Tally
	for _, t := range tallies {
		sum = sum.Add(t)
	}
	return sum
}

// Accumulator collects cell results for one run. It is safe for concurrent use.
type Accumulator struct {
	mu       sync.Mutex
	rules    []ir.RuleSpec
	declared map[string]bool
	tallies  map[ir.Key]ir.Tally
	units    map[Unit]bool
	files    map[string]bool
	unknown  map[string]bool
	diags    []Diagnostic
}

// NewAccumulator creates an accumulator for the declared rule set.
func NewAccumulator(rules []ir.RuleSpec) *Accumulator {
	declared := make(map[string]bool, len(rules))
	for _, r := range rules {
		declared[r.Name] = true
	}
	return &Accumulator{
		rules:    rules,
		declared: declared,
		tallies:  make(map[ir.Key]ir.Tally),
		units:    make(map[Unit]bool),
		files:    make(map[string]bool),
		unknown:  make(map[string]bool),
	}
}

// Add records a cell's tallies. Every declared rule receives a tally for the
// cell, zero when the rule had no patterns there. Rules resolved in the cell
// but not declared are kept and reported with an UNKNOWN_RULE warning.
func (a *Accumulator) Add(r CellResult) {
	a.mu.Lock()
	defer a.mu.Unlock()

	u := Unit{File: r.File, Cell: r.Cell}
	a.units[u] = true
	a.files[r.File] = true

	for _, rule := range a.rules {
		k := ir.Key{Rule: rule.Name, File: r.File, Cell: r.Cell}
		a.tallies[k] = a.tallies[k].Add(r.Tallies[rule.Name])
	}

	for name, t := range r.Tallies {
		if a.declared[name] {
			continue
		}
		k := ir.Key{Rule: name, File: r.File, Cell: r.Cell}
		a.tallies[k] = a.tallies[k].Add(t)
		a.unknown[name] = true
		a.diags = append(a.diags, Diagnostic{
			Code:    ir.CodeUnknownRule,
			File:    r.File,
			Cell:    r.Cell,
			Message: fmt.Sprintf("rule %q is not declared in the rule file", name),
		})
	}

	for _, w := range r.Warnings {
		a.diags = append(a.diags, Diagnostic{
			Code:    w.Code,
			File:    r.File,
			Cell:    r.Cell,
			Message: w.Message,
		})
	}
}

// AddFile marks a file as processed even if it contained no cells.
func (a *Accumulator) AddFile(file string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.files[file] = true
}

// Fail records an aborted file or cell. Errors that are not *ir.Error are
// recorded with an empty code.
func (a *Accumulator) Fail(file, cell string, err error) {
	d := Diagnostic{File: file, Cell: cell, Message: err.Error(), Fatal: true}

	var e *ir.Error
	if errors.As(err, &e) {
		d.Code = e.Code
		d.Message = e.Message
		if e.Role != "" && e.Index >= 0 {
			d.Message = fmt.Sprintf("%s (%s %d)", e.Message, e.Role, e.Index)
		}
		if e.Err != nil {
			d.Message += ": " + e.Err.Error()
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.diags = append(a.diags, d)
}

// Result snapshots the accumulated state. Diagnostics and units are sorted so
// the result does not depend on the order cells were added.
func (a *Accumulator) Result() *Result {
	a.mu.Lock()
	defer a.mu.Unlock()

	r := &Result{
		Tallies: make(map[ir.Key]ir.Tally, len(a.tallies)),
	}
	for k, t := range a.tallies {
		r.Tallies[k] = t
	}

	for u := range a.units {
		r.Units = append(r.Units, u)
	}
	sort.Slice(r.Units, func(i, j int) bool { return unitLess(r.Units[i], r.Units[j]) })

	for f := range a.files {
		r.Files = append(r.Files, f)
	}
	sort.Strings(r.Files)

	for _, rs := range a.rules {
		r.Rules = append(r.Rules, a.ruleResult(rs, true))
	}
	var unknown []string
	for name := range a.unknown {
		unknown = append(unknown, name)
	}
	sort.Strings(unknown)
	for _, name := range unknown {
		r.Rules = append(r.Rules, a.ruleResult(ir.RuleSpec{Name: name}, false))
	}

	r.Diagnostics = append([]Diagnostic(nil), a.diags...)
	sort.SliceStable(r.Diagnostics, func(i, j int) bool {
		di, dj := r.Diagnostics[i], r.Diagnostics[j]
		if di.File != dj.File {
			return di.File < dj.File
		}
		if di.Cell != dj.Cell {
			return di.Cell < dj.Cell
		}
		if di.Code != dj.Code {
			return di.Code < dj.Code
		}
		return di.Message < dj.Message
	})

	return r
}

func (a *Accumulator) ruleResult(rs ir.RuleSpec, declared bool) RuleResult {
	rr := RuleResult{
		Name:     rs.Name,
		Comment:  rs.Comment,
		Declared: declared,
		Cells:    make(map[Unit]ir.Tally),
	}
	for k, t := range a.tallies {
		if k.Rule == rs.Name {
			rr.Cells[Unit{File: k.File, Cell: k.Cell}] = t
		}
	}
	return rr
}

func unitLess(a, b Unit) bool {
	if a.File != b.File {
		return a.File < b.File
	}
	return a.Cell < b.Cell
}
