package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unitSquare() Contour {
	return NewContour([]Point{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0, 0}})
}

func TestPointBounds(t *testing.T) {
	r := PointBounds(Point{X: 100, Y: 200}, 0.05)
	assert.InDelta(t, 99.95, r.XMin, 1e-9)
	assert.InDelta(t, 199.95, r.YMin, 1e-9)
	assert.InDelta(t, 100.05, r.XMax, 1e-9)
	assert.InDelta(t, 200.05, r.YMax, 1e-9)
	assert.True(t, r.Contains(Point{X: 100, Y: 200}))
	assert.False(t, r.IsEmpty())
}

func TestPointBounds_ZeroBuffer(t *testing.T) {
	r := PointBounds(Point{X: 3, Y: 4}, 0)
	assert.True(t, r.Contains(Point{X: 3, Y: 4}))
	assert.False(t, r.Contains(Point{X: 3.0000001, Y: 4}))
}

func TestPointBounds_NegativeBufferContainsNothing(t *testing.T) {
	r := PointBounds(Point{X: 3, Y: 4}, -1)
	assert.True(t, r.IsEmpty())
	assert.False(t, r.Contains(Point{X: 3, Y: 4}))
	assert.False(t, r.ContainsWithin(Point{X: 3, Y: 4}, 0.5))
	assert.False(t, r.ContainsWithin(Point{X: 3, Y: 4}, 2), "tolerance past the inversion")
	assert.False(t, Empty().ContainsWithin(Point{}, 1e300))
}

func TestAggregateBounds(t *testing.T) {
	tests := []struct {
		name  string
		rects []Rect
		want  Rect
	}{
		{
			name:  "single",
			rects: []Rect{NewRect(0, 0, 1, 1)},
			want:  NewRect(0, 0, 1, 1),
		},
		{
			name:  "disjoint",
			rects: []Rect{NewRect(0, 0, 1, 1), NewRect(5, -2, 6, 0.5)},
			want:  NewRect(0, -2, 6, 1),
		},
		{
			name:  "nested",
			rects: []Rect{NewRect(-10, -10, 10, 10), NewRect(0, 0, 1, 1)},
			want:  NewRect(-10, -10, 10, 10),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AggregateBounds(tt.rects))
		})
	}
}

func TestAggregateBounds_EmptyInputIsDegenerate(t *testing.T) {
	r := AggregateBounds(nil)
	assert.True(t, r.IsEmpty())
	assert.Equal(t, Empty(), r)
	assert.False(t, r.Contains(Point{}))
}

func TestRect_ContainsIsInclusive(t *testing.T) {
	r := NewRect(0, 0, 1, 1)
	for _, p := range []Point{{0, 0}, {1, 1}, {0, 1}, {1, 0}, {0.5, 0}} {
		assert.True(t, r.Contains(p), "%v", p)
	}
	assert.False(t, r.Contains(Point{X: -0.0001, Y: 0.5}))
}

func TestRect_ContainsWithin(t *testing.T) {
	r := NewRect(0, 0, 1, 1)
	assert.False(t, r.Contains(Point{X: 1.1, Y: 0.5}))
	assert.True(t, r.ContainsWithin(Point{X: 1.1, Y: 0.5}, 0.2))
	assert.False(t, r.ContainsWithin(Point{X: 1.1, Y: 0.5}, 0.05))
	assert.True(t, r.ContainsWithin(Point{X: 0.5, Y: 0.5}, -1))
}

func TestPoint_IsPointInside(t *testing.T) {
	p := Point{X: 1, Y: 1}
	assert.True(t, p.IsPointInside(Point{X: 1, Y: 1}, 0))
	assert.True(t, p.IsPointInside(Point{X: 1.3, Y: 1.4}, 0.51))
	assert.False(t, p.IsPointInside(Point{X: 1.3, Y: 1.4}, 0.49))
	assert.False(t, p.IsPointInside(Point{X: 1, Y: 1}, -0.1))
}

func TestContour_Contains(t *testing.T) {
	c := unitSquare()
	assert.True(t, c.Contains(Point{X: 0.5, Y: 0.5}))
	assert.False(t, c.Contains(Point{X: 1.5, Y: 0.5}))
	assert.False(t, c.Contains(Point{X: 0.5, Y: -0.5}))

	degenerate := NewContour([]Point{{0, 0}, {1, 1}})
	assert.False(t, degenerate.Contains(Point{X: 0.5, Y: 0.5}))
}

func TestContour_DistanceTo(t *testing.T) {
	c := unitSquare()
	assert.InDelta(t, 0.5, c.DistanceTo(Point{X: 1.5, Y: 0.5}), 1e-12)
	assert.InDelta(t, 0.25, c.DistanceTo(Point{X: 0.5, Y: 0.25}), 1e-12)
	assert.InDelta(t, math.Sqrt2, c.DistanceTo(Point{X: 2, Y: 2}), 1e-12)
	assert.True(t, math.IsInf(Contour{}.DistanceTo(Point{}), 1))
}

func TestContour_DistanceToUsesClosingEdge(t *testing.T) {
	open := NewContour([]Point{{0, 0}, {1, 0}, {1, 1}, {0, 1}})
	assert.InDelta(t, 0.1, open.DistanceTo(Point{X: -0.1, Y: 0.5}), 1e-12)
}

func TestPolygon_IsPointInside(t *testing.T) {
	hole := NewContour([]Point{{0.25, 0.25}, {0.75, 0.25}, {0.75, 0.75}, {0.25, 0.75}, {0.25, 0.25}})
	poly := Polygon{
		Outer: NewContour([]Point{{0, 0}, {2, 0}, {2, 2}, {0, 2}, {0, 0}}),
		Inner: []Contour{hole},
	}

	tests := []struct {
		name string
		p    Point
		tol  float64
		want bool
	}{
		{"inside body", Point{X: 1.5, Y: 1.5}, 0, true},
		{"inside hole", Point{X: 0.5, Y: 0.5}, 0, false},
		{"inside hole near its edge", Point{X: 0.5, Y: 0.27}, 0.05, true},
		{"outside", Point{X: 3, Y: 3}, 0, false},
		{"outside within tolerance", Point{X: 2.05, Y: 1}, 0.1, true},
		{"on exterior edge", Point{X: 2, Y: 1}, 0, true},
		{"negative tolerance inside", Point{X: 1.5, Y: 1.5}, -1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, poly.IsPointInside(tt.p, tt.tol))
		})
	}
}

func TestPolygon_DegenerateExteriorContainsNothing(t *testing.T) {
	poly := Polygon{Outer: NewContour([]Point{{0, 0}, {1, 1}})}
	assert.False(t, poly.IsPointInside(Point{X: 0.5, Y: 0.5}, 1))
}

func TestPolygon_ContoursOrder(t *testing.T) {
	a := NewContour([]Point{{1, 1}})
	b := NewContour([]Point{{2, 2}})
	poly := Polygon{Outer: unitSquare(), Inner: []Contour{a, b}}
	cs := poly.Contours()
	require.Len(t, cs, 3)
	assert.Equal(t, unitSquare(), cs[0])
	assert.Equal(t, a, cs[1])
	assert.Equal(t, b, cs[2])
}

func TestMultiPolygon_IsPointInside(t *testing.T) {
	far := Polygon{Outer: NewContour([]Point{{10, 10}, {11, 10}, {11, 11}, {10, 11}})}
	mp := MultiPolygon{Parts: []Polygon{{Outer: unitSquare()}, far}}
	assert.True(t, mp.IsPointInside(Point{X: 0.5, Y: 0.5}, 0))
	assert.True(t, mp.IsPointInside(Point{X: 10.5, Y: 10.5}, 0))
	assert.False(t, mp.IsPointInside(Point{X: 5, Y: 5}, 0))
	assert.False(t, MultiPolygon{}.IsPointInside(Point{}, 1))
}
