// Package address holds address roll records and their point geometry.
package address

import (
	"fmt"

	"b00m.in/landgrid/geometry"
	"b00m.in/landgrid/ingest"
)

// DefaultBuffer is how far, in map units, an address point's bounding box
// reaches past the point on every side.
const DefaultBuffer = 0.05

// Address is one row of the address roll. It is not modified after ingestion.
type Address struct {
	Label  string
	Status string
	Lat    float64
	Lon    float64
	X      float64
	Y      float64
}

// Columns names the CSV header for each Address field.
type Columns struct {
	Label  string `mapstructure:"label" yaml:"label"`
	Status string `mapstructure:"status" yaml:"status"`
	Lat    string `mapstructure:"lat" yaml:"lat"`
	Lon    string `mapstructure:"lon" yaml:"lon"`
	X      string `mapstructure:"x" yaml:"x"`
	Y      string `mapstructure:"y" yaml:"y"`
}

func DefaultColumns() Columns {
	return Columns{
		Label:  "FULLADDRES",
		Status: "STATUS",
		Lat:    "wgs84_y",
		Lon:    "wgs84_x",
		X:      "espg3857_x",
		Y:      "espg3857_y",
	}
}

func (c Columns) withDefaults() Columns {
	d := DefaultColumns()
	if c.Label == "" {
		c.Label = d.Label
	}
	if c.Status == "" {
		c.Status = d.Status
	}
	if c.Lat == "" {
		c.Lat = d.Lat
	}
	if c.Lon == "" {
		c.Lon = d.Lon
	}
	if c.X == "" {
		c.X = d.X
	}
	if c.Y == "" {
		c.Y = d.Y
	}
	return c
}

func (c Columns) names() []string {
	return []string{c.Label, c.Status, c.Lat, c.Lon, c.X, c.Y}
}

func (c Columns) decode(r ingest.Row) (Address, error) {
	var a Address
	var err error
	if a.Label, err = r.String(c.Label); err != nil {
		return a, err
	}
	if a.Status, err = r.String(c.Status); err != nil {
		return a, err
	}
	floats := []struct {
		col string
		dst *float64
	}{
		{c.Lat, &a.Lat},
		{c.Lon, &a.Lon},
		{c.X, &a.X},
		{c.Y, &a.Y},
	}
	for _, f := range floats {
		if *f.dst, err = r.Float(f.col); err != nil {
			return a, err
		}
	}
	return a, nil
}

type Addresses struct {
	Records []Address
}

func (a *Addresses) Len() int {
	if a == nil {
		return 0
	}
	return len(a.Records)
}

// FromCSV reads an address roll. Rows that do not decode are dropped and
// counted in the returned report; file and header problems are errors.
func FromCSV(path string, cols Columns, opts ingest.Options) (*Addresses, ingest.Report, error) {
	f, err := ingest.OpenFile(path)
	if err != nil {
		return nil, ingest.Report{}, err
	}
	defer f.Close()

	if opts.Source == "" {
		opts.Source = path
	}
	cols = cols.withDefaults()
	out := &Addresses{}
	report, err := ingest.ReadCSV(f, cols.names(), func(r ingest.Row) error {
		a, err := cols.decode(r)
		if err != nil {
			return err
		}
		out.Records = append(out.Records, a)
		return nil
	}, opts)
	if err != nil {
		return nil, report, fmt.Errorf("address: read %s: %w", path, err)
	}
	return out, report, nil
}

// AddressPoint couples an address with its planar point and the box used to
// prune point queries. Selected belongs to the presentation layer.
type AddressPoint struct {
	Address  Address
	Geometry geometry.Point
	Bounds   geometry.Rect
	Selected bool
}

func NewAddressPoint(a Address, buffer float64) AddressPoint {
	p := geometry.Point{X: a.X, Y: a.Y}
	return AddressPoint{
		Address:  a,
		Geometry: p,
		Bounds:   geometry.PointBounds(p, buffer),
	}
}

// IsPointInside reports whether p is within tolerance of the address point.
// The bounding box is checked first.
func (ap AddressPoint) IsPointInside(p geometry.Point, tolerance float64) bool {
	if !ap.Bounds.ContainsWithin(p, tolerance) {
		return false
	}
	return ap.Geometry.IsPointInside(p, tolerance)
}

func (ap AddressPoint) BoundingRect() geometry.Rect {
	return ap.Bounds
}

type AddressPoints struct {
	Records []AddressPoint
}

// NewAddressPoints converts every address, keeping row order.
func NewAddressPoints(a *Addresses, buffer float64) *AddressPoints {
	out := &AddressPoints{}
	if a == nil {
		return out
	}
	out.Records = make([]AddressPoint, len(a.Records))
	for i, rec := range a.Records {
		out.Records[i] = NewAddressPoint(rec, buffer)
	}
	return out
}

func (ap *AddressPoints) Len() int {
	if ap == nil {
		return 0
	}
	return len(ap.Records)
}

// Query returns the indexes of the points within tolerance of p.
func (ap *AddressPoints) Query(p geometry.Point, tolerance float64) []int {
	if ap == nil {
		return nil
	}
	var hits []int
	for i := range ap.Records {
		if ap.Records[i].IsPointInside(p, tolerance) {
			hits = append(hits, i)
		}
	}
	return hits
}
