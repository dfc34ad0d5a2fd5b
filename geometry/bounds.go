package geometry

import "math"

// Rect is an axis-aligned rectangle. A rect with a min greater than its max
// on either axis is degenerate and contains nothing.
type Rect struct {
	XMin float64
	YMin float64
	XMax float64
	YMax float64
}

func NewRect(xmin, ymin, xmax, ymax float64) Rect {
	return Rect{XMin: xmin, YMin: ymin, XMax: xmax, YMax: ymax}
}

// Empty returns the aggregation seed: largest mins, smallest maxes.
func Empty() Rect {
	return Rect{
		XMin: math.MaxFloat64,
		YMin: math.MaxFloat64,
		XMax: -math.MaxFloat64,
		YMax: -math.MaxFloat64,
	}
}

func (r Rect) IsEmpty() bool {
	return r.XMin > r.XMax || r.YMin > r.YMax
}

// Contains is inclusive on every edge.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.XMin && p.X <= r.XMax && p.Y >= r.YMin && p.Y <= r.YMax
}

// ContainsWithin tests p against r grown by tolerance on every side.
// Negative tolerances do not shrink the rect, and an inverted rect contains
// nothing whatever the tolerance.
func (r Rect) ContainsWithin(p Point, tolerance float64) bool {
	if r.IsEmpty() {
		return false
	}
	if tolerance <= 0 {
		return r.Contains(p)
	}
	return p.X >= r.XMin-tolerance && p.X <= r.XMax+tolerance &&
		p.Y >= r.YMin-tolerance && p.Y <= r.YMax+tolerance
}

// Extend returns the smallest rect covering r and o. Degenerate inputs take
// part in the fold like any other, so callers filter them first.
func (r Rect) Extend(o Rect) Rect {
	return Rect{
		XMin: math.Min(r.XMin, o.XMin),
		YMin: math.Min(r.YMin, o.YMin),
		XMax: math.Max(r.XMax, o.XMax),
		YMax: math.Max(r.YMax, o.YMax),
	}
}

func (r Rect) Width() float64  { return r.XMax - r.XMin }
func (r Rect) Height() float64 { return r.YMax - r.YMin }

// PointBounds expands p by buffer on all sides. A negative buffer produces an
// inverted rect that contains nothing; it is not rejected.
func PointBounds(p Point, buffer float64) Rect {
	return Rect{
		XMin: p.X - buffer,
		YMin: p.Y - buffer,
		XMax: p.X + buffer,
		YMax: p.Y + buffer,
	}
}

// AggregateBounds folds rects into one covering rect. No input yields the
// degenerate Empty rect, which callers must read as "no bounds".
func AggregateBounds(rects []Rect) Rect {
	out := Empty()
	for _, r := range rects {
		out = out.Extend(r)
	}
	return out
}
