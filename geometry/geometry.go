// Package geometry holds the planar shapes the rest of landgrid works in:
// points, axis-aligned rectangles, closed contours, polygons with holes and
// multipolygons, plus the exact containment tests on them.
package geometry

import "math"

type Point struct {
	X float64
	Y float64
}

// IsPointInside reports whether q lies within tolerance of p.
func (p Point) IsPointInside(q Point, tolerance float64) bool {
	if tolerance < 0 {
		return false
	}
	dx := q.X - p.X
	dy := q.Y - p.Y
	return dx*dx+dy*dy <= tolerance*tolerance
}

// Contour is a closed ring. The closing point is kept as supplied.
type Contour struct {
	Points []Point
}

func NewContour(points []Point) Contour {
	return Contour{Points: points}
}

// Contains is an even-odd crossing test. Points exactly on an edge may go
// either way; callers that care use a tolerance through DistanceTo.
func (c Contour) Contains(q Point) bool {
	n := len(c.Points)
	if n < 3 {
		return false
	}
	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := c.Points[i], c.Points[j]
		if (a.Y > q.Y) != (b.Y > q.Y) {
			x := (b.X-a.X)*(q.Y-a.Y)/(b.Y-a.Y) + a.X
			if q.X < x {
				inside = !inside
			}
		}
	}
	return inside
}

// DistanceTo returns the smallest distance from q to any edge of the contour,
// including the implicit edge from the last point back to the first.
// An empty contour is infinitely far away.
func (c Contour) DistanceTo(q Point) float64 {
	n := len(c.Points)
	switch n {
	case 0:
		return math.Inf(1)
	case 1:
		return math.Hypot(q.X-c.Points[0].X, q.Y-c.Points[0].Y)
	}
	best := math.Inf(1)
	for i := 0; i < n; i++ {
		d := segmentDistance(q, c.Points[i], c.Points[(i+1)%n])
		if d < best {
			best = d
		}
	}
	return best
}

func segmentDistance(q, a, b Point) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return math.Hypot(q.X-a.X, q.Y-a.Y)
	}
	t := ((q.X-a.X)*dx + (q.Y-a.Y)*dy) / l2
	t = math.Max(0, math.Min(1, t))
	px := a.X + t*dx
	py := a.Y + t*dy
	return math.Hypot(q.X-px, q.Y-py)
}

// Polygon is one exterior contour and zero or more holes.
type Polygon struct {
	Outer Contour
	Inner []Contour
}

// Contours returns the exterior followed by the holes.
func (p Polygon) Contours() []Contour {
	out := make([]Contour, 0, 1+len(p.Inner))
	out = append(out, p.Outer)
	return append(out, p.Inner...)
}

// IsPointInside reports whether q is inside the polygon (and outside every
// hole), or within tolerance of any of its contours. A polygon whose exterior
// has fewer than three points contains nothing.
func (p Polygon) IsPointInside(q Point, tolerance float64) bool {
	if len(p.Outer.Points) < 3 {
		return false
	}
	if tolerance >= 0 {
		for _, c := range p.Contours() {
			if c.DistanceTo(q) <= tolerance {
				return true
			}
		}
	}
	if !p.Outer.Contains(q) {
		return false
	}
	for _, hole := range p.Inner {
		if hole.Contains(q) {
			return false
		}
	}
	return true
}

type MultiPolygon struct {
	Parts []Polygon
}

func (mp MultiPolygon) IsPointInside(q Point, tolerance float64) bool {
	for _, part := range mp.Parts {
		if part.IsPointInside(q, tolerance) {
			return true
		}
	}
	return false
}

// Bounded is implemented by records that carry a precomputed bounding
// rectangle in front of their exact geometry.
type Bounded interface {
	IsPointInside(p Point, tolerance float64) bool
	BoundingRect() Rect
}
