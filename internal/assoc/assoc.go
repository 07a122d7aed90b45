package assoc

import (
	"fmt"
	"sort"

	"github.com/roach88/patcheck/internal/extract"
	"github.com/roach88/patcheck/internal/geom"
	"github.com/roach88/patcheck/internal/ir"
)

// Association maps rule names to the patterns found in their zones for one cell.
type Association struct {
	Cell string

	// Rules lists resolved rule names in the order their first zone appeared.
	Rules []string

	// Patterns maps each resolved rule name to its patterns in source order.
	Patterns map[string][]ir.Pattern

	// Warnings holds non-fatal findings such as zone name collisions.
	Warnings []*ir.Error
}

// For returns the patterns associated with a rule name, or nil.
func (a *Association) For(rule string) []ir.Pattern {
	return a.Patterns[rule]
}

// Count returns the number of (rule, pattern) associations in the cell.
func (a *Association) Count() int {
	n := 0
	for _, ps := range a.Patterns {
		n += len(ps)
	}
	return n
}

// Associate resolves every zone in m to a rule name and collects its patterns.
//
// The result depends only on m, so calling Associate twice on the same
// markers yields equal associations.
func Associate(m extract.Markers) (*Association, error) {
	a := &Association{
		Cell:     m.Cell,
		Patterns: make(map[string][]ir.Pattern),
	}
	if len(m.Zones) == 0 {
		return a, nil
	}

	patterns, err := centroids(m)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]map[int]bool)
	for zi, zone := range m.Zones {
		name, err := resolveName(m, zi, zone)
		if err != nil {
			return nil, err
		}

		inside := patternsIn(zone.Points, patterns)

		if _, dup := seen[name]; !dup {
			seen[name] = make(map[int]bool, len(inside))
			a.Rules = append(a.Rules, name)
			a.Patterns[name] = []ir.Pattern{}
		} else {
			a.Warnings = append(a.Warnings, &ir.Error{
				Code:    ir.CodeZoneNameCollision,
				Message: fmt.Sprintf("zone resolves to %q already used by an earlier zone; pattern lists merged", name),
				Cell:    m.Cell,
				Role:    "zone",
				Index:   zi,
			})
		}

		a.Patterns[name] = merge(a.Patterns[name], inside, seen[name])
	}

	return a, nil
}

// centroids computes every pattern centroid once per cell.
func centroids(m extract.Markers) ([]ir.Pattern, error) {
	out := make([]ir.Pattern, 0, len(m.Patterns))
	for i, p := range m.Patterns {
		c, err := geom.Centroid(p.Points)
		if err != nil {
			return nil, ir.NewDegenerateError(m.Cell, "pattern", i, err)
		}
		out = append(out, ir.Pattern{Index: i, Polygon: p, Centroid: c})
	}
	return out, nil
}

// resolveName names one zone from the cell's labels.
func resolveName(m extract.Markers, zi int, zone ir.Polygon) (string, error) {
	center, err := geom.Centroid(zone.Points)
	if err != nil {
		return "", ir.NewDegenerateError(m.Cell, "zone", zi, err)
	}
	if len(m.Labels) == 0 {
		return "", ir.NewUnresolvedError(m.Cell, zi)
	}

	for _, l := range m.Labels {
		if geom.Contains(zone.Points, l.Origin) {
			return ir.NormalizeName(l.Text), nil
		}
	}

	nearest := 0
	best := center.DistanceSq(m.Labels[0].Origin)
	for i, l := range m.Labels[1:] {
		if d := center.DistanceSq(l.Origin); d < best {
			best = d
			nearest = i + 1
		}
	}
	return ir.NormalizeName(m.Labels[nearest].Text), nil
}

func patternsIn(zone geom.Ring, patterns []ir.Pattern) []ir.Pattern {
	var inside []ir.Pattern
	for _, p := range patterns {
		if geom.Contains(zone, p.Centroid) {
			inside = append(inside, p)
		}
	}
	return inside
}

// merge appends add to list, skipping patterns already present, and keeps
// the result in source order.
func merge(list, add []ir.Pattern, present map[int]bool) []ir.Pattern {
	grew := false
	for _, p := range add {
		if present[p.Index] {
			continue
		}
		present[p.Index] = true
		list = append(list, p)
		grew = true
	}
	if grew {
		sort.SliceStable(list, func(i, j int) bool { return list[i].Index < list[j].Index })
	}
	return list
}
