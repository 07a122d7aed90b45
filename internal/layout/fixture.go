package layout

import (
	"math"

	"github.com/roach88/patcheck/internal/geom"
	"github.com/roach88/patcheck/internal/ir"
)

// Fixture layer numbers. Drawn shapes and the expected-error outlines are
// carried alongside the role layers, as in real regression decks.
const (
	fixtureDrawnLayer     = 100
	fixtureOutlineLayer   = 0
	fixtureCellName       = "SQUARES"
	fixtureRuleName       = "check_name"
	fixturePatternSide    = 1.0
	fixtureZoneMargin     = 1.0
	fixtureZoneHalfHeight = 1.0
)

// fixtureMarkerSide gives error markers half the pattern area.
var fixtureMarkerSide = math.Sqrt(0.5)

// Rect returns an axis-aligned rectangle centred on (cx, cy).
func Rect(cx, cy, w, h float64, layer, purpose int) ir.Polygon {
	return ir.Polygon{
		Points: geom.Ring{
			geom.Pt(cx-w/2, cy-h/2),
			geom.Pt(cx+w/2, cy-h/2),
			geom.Pt(cx+w/2, cy+h/2),
			geom.Pt(cx-w/2, cy+h/2),
		},
		Layer:   layer,
		Purpose: purpose,
	}
}

// FixtureCell builds the canonical regression cell: four 1x1 patterns
// centred at x = 4, 8, -4, -8; error markers at x = 4 and x = -8; one zone
// spanning x in [-9, 9]; and the label "check_name" at (0, -0.5).
//
// Validated under the default convention it yields one pattern in each
// bucket: good.pass (x=8), good.fail (x=4), bad.pass (x=-8), bad.fail (x=-4).
func FixtureCell() ir.Cell {
	centers := []float64{4, 8, -4, -8}
	cell := ir.Cell{Name: fixtureCellName}

	for _, cx := range centers {
		cell.Polygons = append(cell.Polygons, Rect(cx, 0, fixturePatternSide, fixturePatternSide, fixtureDrawnLayer, 0))
	}
	for _, layer := range []int{255, fixtureOutlineLayer} {
		for _, cx := range centers {
			cell.Polygons = append(cell.Polygons, Rect(cx, 0, fixturePatternSide, fixturePatternSide, layer, 0))
		}
	}
	for _, cx := range []float64{4, -8} {
		cell.Polygons = append(cell.Polygons, Rect(cx, 0, fixtureMarkerSide, fixtureMarkerSide, 0, 1))
	}

	minX, maxX := -8-fixtureZoneMargin, 8+fixtureZoneMargin
	cell.Polygons = append(cell.Polygons, ir.Polygon{
		Points: geom.Ring{
			geom.Pt(minX, -fixtureZoneHalfHeight),
			geom.Pt(maxX, -fixtureZoneHalfHeight),
			geom.Pt(maxX, fixtureZoneHalfHeight),
			geom.Pt(minX, fixtureZoneHalfHeight),
		},
		Layer:   255,
		Purpose: 1,
	})

	cell.Labels = []ir.Label{{
		Origin:  geom.Pt(0, -0.5),
		Text:    fixtureRuleName,
		Layer:   22,
		Purpose: 22,
	}}

	return cell
}

// FixtureLibrary wraps FixtureCell in a library with micron user units and
// nanometre database units.
func FixtureLibrary() *Library {
	return &Library{
		Name:           "PATCHECK_FIXTURE",
		DBUnitInUser:   1e-3,
		DBUnitInMeters: 1e-9,
		Cells:          []ir.Cell{FixtureCell()},
	}
}
