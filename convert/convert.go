// Package convert maps orb geometry into landgrid's planar types.
//
// Rings become closed contours with their point order and closing point kept.
// Polygons keep ring 0 as the exterior and every later ring as a hole.
// Multipolygons are converted one polygon per worker and reassembled in input
// order.
package convert

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/sourcegraph/conc/iter"

	"b00m.in/landgrid/geometry"
)

// ErrUnsupportedGeometry is returned for geometry kinds that cannot become a
// parcel. It marks a per-record skip, not a failed batch.
var ErrUnsupportedGeometry = errors.New("convert: unsupported geometry")

func Point(p orb.Point) geometry.Point {
	return geometry.Point{X: p.X(), Y: p.Y()}
}

func Contour(r orb.Ring) geometry.Contour {
	points := make([]geometry.Point, len(r))
	for i, p := range r {
		points[i] = Point(p)
	}
	return geometry.NewContour(points)
}

// LineContour reads a line string as a ring; the closing edge is implicit.
func LineContour(ls orb.LineString) geometry.Contour {
	return Contour(orb.Ring(ls))
}

// Polygon converts the exterior then attaches the holes. A polygon without
// rings converts to an empty exterior.
func Polygon(p orb.Polygon) geometry.Polygon {
	var poly geometry.Polygon
	if len(p) == 0 {
		return poly
	}
	poly.Outer = Contour(p[0])
	if len(p) > 1 {
		poly.Inner = make([]geometry.Contour, 0, len(p)-1)
		for _, ring := range p[1:] {
			poly.Inner = append(poly.Inner, Contour(ring))
		}
	}
	return poly
}

// RingBounds is the bound of a raw ring, or ok == false when the ring is too
// small to enclose anything.
func RingBounds(r orb.Ring) (geometry.Rect, bool) {
	if len(r) < 3 {
		return geometry.Rect{}, false
	}
	b := r.Bound()
	if b.IsEmpty() {
		return geometry.Rect{}, false
	}
	return geometry.NewRect(b.Min.X(), b.Min.Y(), b.Max.X(), b.Max.Y()), true
}

// BoundedPolygon converts p and returns the bound of its exterior ring.
// A degenerate exterior still converts; only the bound is missing.
func BoundedPolygon(p orb.Polygon) (geometry.Polygon, geometry.Rect, bool) {
	if len(p) == 0 {
		return Polygon(p), geometry.Rect{}, false
	}
	bounds, ok := RingBounds(p[0])
	return Polygon(p), bounds, ok
}

// Converter runs multipolygon conversion on a bounded worker pool.
// Workers <= 0 means GOMAXPROCS.
type Converter struct {
	Workers int
}

var defaultConverter = &Converter{}

func NewConverter(workers int) *Converter {
	return &Converter{Workers: workers}
}

func (c *Converter) mapper() iter.Mapper[orb.Polygon, boundedPart] {
	var workers int
	if c != nil && c.Workers > 0 {
		workers = c.Workers
	}
	return iter.Mapper[orb.Polygon, boundedPart]{MaxGoroutines: workers}
}

type boundedPart struct {
	poly   geometry.Polygon
	bounds geometry.Rect
	ok     bool
}

func (c *Converter) MultiPolygon(mp orb.MultiPolygon) geometry.MultiPolygon {
	parts := c.mapper().Map(mp, func(p *orb.Polygon) boundedPart {
		return boundedPart{poly: Polygon(*p)}
	})
	out := geometry.MultiPolygon{Parts: make([]geometry.Polygon, len(parts))}
	for i, part := range parts {
		out.Parts[i] = part.poly
	}
	return out
}

// BoundedMultiPolygon converts every part and aggregates the bounds of the
// parts that have one. When none do, the returned rect is degenerate.
func (c *Converter) BoundedMultiPolygon(mp orb.MultiPolygon) (geometry.MultiPolygon, geometry.Rect) {
	parts := c.mapper().Map(mp, func(p *orb.Polygon) boundedPart {
		poly, bounds, ok := BoundedPolygon(*p)
		return boundedPart{poly: poly, bounds: bounds, ok: ok}
	})
	out := geometry.MultiPolygon{Parts: make([]geometry.Polygon, len(parts))}
	rects := make([]geometry.Rect, 0, len(parts))
	for i, part := range parts {
		out.Parts[i] = part.poly
		if part.ok {
			rects = append(rects, part.bounds)
		}
	}
	return out, geometry.AggregateBounds(rects)
}

func MultiPolygon(mp orb.MultiPolygon) geometry.MultiPolygon {
	return defaultConverter.MultiPolygon(mp)
}

func BoundedMultiPolygon(mp orb.MultiPolygon) (geometry.MultiPolygon, geometry.Rect) {
	return defaultConverter.BoundedMultiPolygon(mp)
}

// AsMultiPolygon accepts only multipolygon geometry.
func AsMultiPolygon(g orb.Geometry) (orb.MultiPolygon, error) {
	switch v := g.(type) {
	case orb.MultiPolygon:
		return v, nil
	case nil:
		return nil, fmt.Errorf("%w: no geometry", ErrUnsupportedGeometry)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedGeometry, g.GeoJSONType())
	}
}

// OrbPoint is the inverse of Point.
func OrbPoint(p geometry.Point) orb.Point {
	return orb.Point{p.X, p.Y}
}

func OrbRing(c geometry.Contour) orb.Ring {
	r := make(orb.Ring, len(c.Points))
	for i, p := range c.Points {
		r[i] = OrbPoint(p)
	}
	return r
}

// OrbMultiPolygon maps a multipolygon back into orb for encoders that only
// speak orb, such as WKB.
func OrbMultiPolygon(mp geometry.MultiPolygon) orb.MultiPolygon {
	out := make(orb.MultiPolygon, 0, len(mp.Parts))
	for _, part := range mp.Parts {
		poly := make(orb.Polygon, 0, 1+len(part.Inner))
		for _, c := range part.Contours() {
			poly = append(poly, OrbRing(c))
		}
		out = append(out, poly)
	}
	return out
}
