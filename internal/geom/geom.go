// Package geom holds the planar predicates the validator needs: centroid,
// point containment, bounding boxes and exact polygon overlap.
//
// Coordinates are layout user units. A Ring is an ordered vertex list whose
// closing edge (last vertex back to the first) is implicit.
package geom

import (
	"errors"
	"math"
)

// ErrDegenerate is returned when a ring has no well-defined centroid:
// fewer than three vertices, zero signed area, or non-finite coordinates.
var ErrDegenerate = errors.New("degenerate geometry: zero-area polygon")

// Point is a 2D coordinate in layout units.
type Point struct {
	X float64
	Y float64
}

// Pt is shorthand for Point{x, y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// DistanceSq returns the squared Euclidean distance between p and q.
func (p Point) DistanceSq(q Point) float64 {
	d := p.Sub(q)
	return d.X*d.X + d.Y*d.Y
}

// Ring is a simple polygon boundary with an implicit closing edge.
type Ring []Point

// Rect is an axis-aligned bounding box.
type Rect struct {
	Min Point
	Max Point
}

// Overlaps reports whether r and o share at least one point.
// Touching edges count as overlap.
func (r Rect) Overlaps(o Rect) bool {
	return r.Min.X <= o.Max.X && o.Min.X <= r.Max.X &&
		r.Min.Y <= o.Max.Y && o.Min.Y <= r.Max.Y
}

// Bounds returns the bounding box of the ring. An empty ring yields the zero Rect.
func Bounds(r Ring) Rect {
	if len(r) == 0 {
		return Rect{}
	}
	b := Rect{Min: r[0], Max: r[0]}
	for _, pt := range r[1:] {
		b.Min.X = math.Min(b.Min.X, pt.X)
		b.Min.Y = math.Min(b.Min.Y, pt.Y)
		b.Max.X = math.Max(b.Max.X, pt.X)
		b.Max.Y = math.Max(b.Max.Y, pt.Y)
	}
	return b
}

// SignedArea returns the shoelace area of the ring.
// Positive for counter-clockwise rings.
func SignedArea(r Ring) float64 {
	if len(r) < 3 {
		return 0
	}
	origin := r[0]
	var area float64
	for i := range r {
		a := r[i].Sub(origin)
		b := r[(i+1)%len(r)].Sub(origin)
		area += a.X*b.Y - b.X*a.Y
	}
	return area / 2
}

// Centroid returns the area centroid of the ring using the shoelace formula.
//
// Vertices are translated to the first vertex before accumulation so large
// layout coordinates do not lose precision. Returns ErrDegenerate instead of
// dividing by a zero area.
func Centroid(r Ring) (Point, error) {
	if len(r) < 3 {
		return Point{}, ErrDegenerate
	}

	area := SignedArea(r)
	if area == 0 || math.IsNaN(area) || math.IsInf(area, 0) {
		return Point{}, ErrDegenerate
	}

	origin := r[0]
	var cx, cy float64
	for i := range r {
		a := r[i].Sub(origin)
		b := r[(i+1)%len(r)].Sub(origin)
		cross := a.X*b.Y - b.X*a.Y
		cx += (a.X + b.X) * cross
		cy += (a.Y + b.Y) * cross
	}

	c := Point{
		X: origin.X + cx/(6*area),
		Y: origin.Y + cy/(6*area),
	}
	if math.IsNaN(c.X) || math.IsNaN(c.Y) || math.IsInf(c.X, 0) || math.IsInf(c.Y, 0) {
		return Point{}, ErrDegenerate
	}
	return c, nil
}

// Contains reports whether pt lies inside the ring using the non-zero
// winding rule. Points on an edge or vertex are inside.
func Contains(r Ring, pt Point) bool {
	if len(r) < 3 {
		return false
	}

	winding := 0
	for i := range r {
		p0 := r[i]
		p1 := r[(i+1)%len(r)]
		if onSegment(p0, p1, pt) {
			return true
		}
		winding += edgeWinding(p0, p1, pt)
	}
	return winding != 0
}

// edgeWinding is the contribution of edge p0->p1 to the winding number
// of pt, counting upward crossings left of pt and downward crossings right of it.
func edgeWinding(p0, p1, pt Point) int {
	if p0.Y <= pt.Y {
		if p1.Y > pt.Y && isLeft(p0, p1, pt) > 0 {
			return 1
		}
		return 0
	}
	if p1.Y <= pt.Y && isLeft(p0, p1, pt) < 0 {
		return -1
	}
	return 0
}

// isLeft is positive when pt is left of the line p0->p1, negative when right.
func isLeft(p0, p1, pt Point) float64 {
	return (p1.X-p0.X)*(pt.Y-p0.Y) - (pt.X-p0.X)*(p1.Y-p0.Y)
}

func onSegment(p0, p1, pt Point) bool {
	if isLeft(p0, p1, pt) != 0 {
		return false
	}
	return pt.X >= math.Min(p0.X, p1.X) && pt.X <= math.Max(p0.X, p1.X) &&
		pt.Y >= math.Min(p0.Y, p1.Y) && pt.Y <= math.Max(p0.Y, p1.Y)
}
