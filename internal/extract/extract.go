// Package extract partitions a cell's raw polygons and labels into the
// semantic roles used by pattern validation. It does no geometry.
package extract

import (
	"github.com/roach88/patcheck/internal/ir"
)

// Convention maps each semantic role to its (layer, purpose) pair.
type Convention struct {
	ErrorMarker ir.LayerPurpose `json:"error_marker"`
	RuleZone    ir.LayerPurpose `json:"rule_zone"`
	Pattern     ir.LayerPurpose `json:"pattern"`
	RuleLabel   ir.LayerPurpose `json:"rule_label"`
}

// DefaultConvention returns the standard regression-layout convention:
// error markers on 0.1, rule zones on 255.1, patterns on 255.0 and
// rule-name labels on 22.22.
func DefaultConvention() Convention {
	return Convention{
		ErrorMarker: ir.LayerPurpose{Layer: 0, Purpose: 1},
		RuleZone:    ir.LayerPurpose{Layer: 255, Purpose: 1},
		Pattern:     ir.LayerPurpose{Layer: 255, Purpose: 0},
		RuleLabel:   ir.LayerPurpose{Layer: 22, Purpose: 22},
	}
}

// Markers is one cell's geometry split by role, each in source order.
type Markers struct {
	Cell         string
	ErrorMarkers []ir.Polygon
	Zones        []ir.Polygon
	Patterns     []ir.Polygon
	Labels       []ir.Label

	layers map[ir.LayerPurpose]bool
}

// Layers returns the number of distinct (layer, purpose) pairs with
// polygons, including pairs that have no role in the convention.
func (m Markers) Layers() int {
	return len(m.layers)
}

// Extract partitions the cell's polygons and labels by the convention.
// A convention may map two roles to the same pair; the polygon then appears
// in both role views.
func Extract(cell ir.Cell, conv Convention) Markers {
	m := Markers{
		Cell:   cell.Name,
		layers: make(map[ir.LayerPurpose]bool),
	}

	for _, p := range cell.Polygons {
		lp := p.LP()
		m.layers[lp] = true

		if lp == conv.ErrorMarker {
			m.ErrorMarkers = append(m.ErrorMarkers, p)
		}
		if lp == conv.RuleZone {
			m.Zones = append(m.Zones, p)
		}
		if lp == conv.Pattern {
			m.Patterns = append(m.Patterns, p)
		}
	}

	for _, l := range cell.Labels {
		if l.LP() == conv.RuleLabel {
			m.Labels = append(m.Labels, l)
		}
	}

	return m
}
