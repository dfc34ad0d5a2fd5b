package cache

import "b00m.in/landgrid/geometry"

func (e *Encoder) Point(p geometry.Point) {
	e.Float64(p.X)
	e.Float64(p.Y)
}

func (e *Encoder) Rect(r geometry.Rect) {
	e.Float64(r.XMin)
	e.Float64(r.YMin)
	e.Float64(r.XMax)
	e.Float64(r.YMax)
}

func (e *Encoder) Contour(c geometry.Contour) {
	e.Len(len(c.Points), c.Points == nil)
	for _, p := range c.Points {
		e.Point(p)
	}
}

func (e *Encoder) Polygon(p geometry.Polygon) {
	e.Contour(p.Outer)
	e.Len(len(p.Inner), p.Inner == nil)
	for _, c := range p.Inner {
		e.Contour(c)
	}
}

func (e *Encoder) MultiPolygon(mp geometry.MultiPolygon) {
	e.Len(len(mp.Parts), mp.Parts == nil)
	for _, p := range mp.Parts {
		e.Polygon(p)
	}
}

func (d *Decoder) Point() geometry.Point {
	return geometry.Point{X: d.Float64(), Y: d.Float64()}
}

func (d *Decoder) Rect() geometry.Rect {
	return geometry.Rect{XMin: d.Float64(), YMin: d.Float64(), XMax: d.Float64(), YMax: d.Float64()}
}

func (d *Decoder) Contour() geometry.Contour {
	n, isNil := d.Len(16)
	if isNil {
		return geometry.Contour{}
	}
	points := make([]geometry.Point, n)
	for i := range points {
		points[i] = d.Point()
	}
	return geometry.NewContour(points)
}

func (d *Decoder) Polygon() geometry.Polygon {
	var p geometry.Polygon
	p.Outer = d.Contour()
	n, isNil := d.Len(1)
	if isNil {
		return p
	}
	p.Inner = make([]geometry.Contour, n)
	for i := range p.Inner {
		p.Inner[i] = d.Contour()
	}
	return p
}

func (d *Decoder) MultiPolygon() geometry.MultiPolygon {
	var mp geometry.MultiPolygon
	n, isNil := d.Len(2)
	if isNil {
		return mp
	}
	mp.Parts = make([]geometry.Polygon, n)
	for i := range mp.Parts {
		mp.Parts[i] = d.Polygon()
	}
	return mp
}
