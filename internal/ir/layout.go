package ir

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/patcheck/internal/geom"
)

// LayerPurpose identifies a semantic role in a layout by its
// (layer, purpose) pair. GDSII calls purpose "datatype" for polygons
// and "texttype" for labels.
type LayerPurpose struct {
	Layer   int `json:"layer" yaml:"layer"`
	Purpose int `json:"purpose" yaml:"purpose"`
}

// String renders the pair as "layer.purpose", e.g. "255.1".
func (lp LayerPurpose) String() string {
	return fmt.Sprintf("%d.%d", lp.Layer, lp.Purpose)
}

// Polygon is a layout shape tagged with its layer and purpose.
type Polygon struct {
	Points  geom.Ring
	Layer   int
	Purpose int
}

// LP returns the polygon's (layer, purpose) pair.
func (p Polygon) LP() LayerPurpose {
	return LayerPurpose{Layer: p.Layer, Purpose: p.Purpose}
}

// Label is a text annotation anchored at a single point.
type Label struct {
	Origin  geom.Point
	Text    string
	Layer   int
	Purpose int
}

// LP returns the label's (layer, purpose) pair.
func (l Label) LP() LayerPurpose {
	return LayerPurpose{Layer: l.Layer, Purpose: l.Purpose}
}

// Cell is a named container of polygons and labels, in source order.
type Cell struct {
	Name     string
	Polygons []Polygon
	Labels   []Label
}

// Pattern is a pattern-marking polygon together with its position among the
// cell's pattern polygons and its centroid.
type Pattern struct {
	Index    int
	Polygon  Polygon
	Centroid geom.Point
}

// RuleSpec is one named design-rule check and its descriptive comment.
type RuleSpec struct {
	Name    string `json:"name"`
	Comment string `json:"comment"`
}

// NormalizeName trims whitespace and applies Unicode NFC normalisation so
// label text and rule-file names compare equal when they render the same.
func NormalizeName(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
