package layout

import (
	"context"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/patcheck/internal/geom"
	"github.com/roach88/patcheck/internal/ir"
)

// YAMLDecoder reads hand-written layout fixtures:
//
//	name: LIB
//	cells:
//	  - name: TOP
//	    polygons:
//	      - {layer: 255, purpose: 0, points: [[0, 0], [1, 0], [1, 1], [0, 1]]}
//	    labels:
//	      - {text: M.S.1, layer: 22, purpose: 22, origin: [0.5, 0.5]}
//
// Coordinates are in user units.
type YAMLDecoder struct{}

type yamlLibrary struct {
	Name  string     `yaml:"name"`
	Cells []yamlCell `yaml:"cells"`
}

type yamlCell struct {
	Name     string        `yaml:"name"`
	Polygons []yamlPolygon `yaml:"polygons"`
	Labels   []yamlLabel   `yaml:"labels"`
}

type yamlPolygon struct {
	Layer   int          `yaml:"layer"`
	Purpose int          `yaml:"purpose"`
	Points  [][2]float64 `yaml:"points"`
}

type yamlLabel struct {
	Text    string     `yaml:"text"`
	Layer   int        `yaml:"layer"`
	Purpose int        `yaml:"purpose"`
	Origin  [2]float64 `yaml:"origin"`
}

// Decode opens path and reads it as a YAML layout.
func (YAMLDecoder) Decode(ctx context.Context, path string) (*Library, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open layout: %w", err)
	}
	defer f.Close()

	return ReadYAML(ctx, f)
}

// ReadYAML decodes a YAML layout.
func ReadYAML(ctx context.Context, r io.Reader) (*Library, error) {
	var doc yamlLibrary
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse yaml layout: %w", err)
	}

	lib := &Library{Name: doc.Name, DBUnitInUser: 1e-3, DBUnitInMeters: 1e-9}
	for _, yc := range doc.Cells {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cell := ir.Cell{Name: yc.Name}
		for _, yp := range yc.Polygons {
			pts := make(geom.Ring, len(yp.Points))
			for i, xy := range yp.Points {
				pts[i] = geom.Pt(xy[0], xy[1])
			}
			cell.Polygons = append(cell.Polygons, ir.Polygon{Points: pts, Layer: yp.Layer, Purpose: yp.Purpose})
		}
		for _, yl := range yc.Labels {
			cell.Labels = append(cell.Labels, ir.Label{
				Origin:  geom.Pt(yl.Origin[0], yl.Origin[1]),
				Text:    yl.Text,
				Layer:   yl.Layer,
				Purpose: yl.Purpose,
			})
		}
		lib.Cells = append(lib.Cells, cell)
	}
	return lib, nil
}
