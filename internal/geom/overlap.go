package geom

import (
	"github.com/tdewolff/canvas"
)

// Overlap reports whether two simple polygons share a region of non-zero area.
//
// The bounding boxes are compared first; only when they overlap is the exact
// boolean intersection computed. Polygons that merely touch along an edge or
// at a vertex produce an empty intersection and do not overlap.
func Overlap(a, b Ring) bool {
	if len(a) < 3 || len(b) < 3 {
		return false
	}
	if !Bounds(a).Overlaps(Bounds(b)) {
		return false
	}
	return !toPath(a).And(toPath(b)).Empty()
}

// toPath converts a ring to a closed canvas path.
func toPath(r Ring) *canvas.Path {
	p := &canvas.Path{}
	p.MoveTo(r[0].X, r[0].Y)
	for _, pt := range r[1:] {
		p.LineTo(pt.X, pt.Y)
	}
	p.Close()
	return p
}
