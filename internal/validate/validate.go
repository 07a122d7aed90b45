// Package validate classifies test patterns as good or bad and checks each
// against the ground-truth error markers.
package validate

import (
	"github.com/roach88/patcheck/internal/geom"
	"github.com/roach88/patcheck/internal/ir"
)

// Class is the expected behaviour of a pattern.
type Class int

const (
	// Bad patterns are expected to trigger an error marker.
	Bad Class = iota
	// Good patterns are expected to stay clean.
	Good
)

func (c Class) String() string {
	if c == Good {
		return "good"
	}
	return "bad"
}

// Classify returns Good for patterns whose centroid lies strictly right of
// the y-axis and Bad otherwise, including x == 0.
func Classify(p ir.Pattern) Class {
	if p.Centroid.X > 0 {
		return Good
	}
	return Bad
}

// HasError reports whether the polygon overlaps any error marker.
func HasError(p ir.Polygon, markers []ir.Polygon) bool {
	for _, m := range markers {
		if geom.Overlap(p.Points, m.Points) {
			return true
		}
	}
	return false
}

// Outcome is the verdict for a single pattern.
type Outcome struct {
	Index    int
	Centroid geom.Point
	Class    Class
	HasError bool
}

// Pass reports whether the pattern behaved as intended.
func (o Outcome) Pass() bool {
	return (o.Class == Good) != o.HasError
}

// Outcomes returns one verdict per pattern, in input order.
func Outcomes(patterns []ir.Pattern, markers []ir.Polygon) []Outcome {
	out := make([]Outcome, len(patterns))
	for i, p := range patterns {
		out[i] = Outcome{
			Index:    p.Index,
			Centroid: p.Centroid,
			Class:    Classify(p),
			HasError: HasError(p.Polygon, markers),
		}
	}
	return out
}

// Tally counts outcomes into the four buckets.
func Tally(outcomes []Outcome) ir.Tally {
	var t ir.Tally
	for _, o := range outcomes {
		switch {
		case o.Class == Good && !o.HasError:
			t.GoodPass++
		case o.Class == Good:
			t.GoodFail++
		case o.HasError:
			t.BadPass++
		default:
			t.BadFail++
		}
	}
	return t
}

// Validate classifies every pattern and counts it into exactly one bucket.
// An empty pattern list yields the zero tally.
func Validate(patterns []ir.Pattern, markers []ir.Polygon) ir.Tally {
	return Tally(Outcomes(patterns, markers))
}
