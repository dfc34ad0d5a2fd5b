// Package parcel holds land parcels read from a GeoJSON FeatureCollection:
// who owns them and the multipolygon they cover.
package parcel

import (
	"errors"
	"fmt"
	"strings"

	"github.com/paulmach/orb/geojson"
	"github.com/spf13/cast"

	"b00m.in/landgrid/convert"
	"b00m.in/landgrid/geometry"
	"b00m.in/landgrid/ingest"
)

// ErrMissingID is returned for a feature without a usable owner id.
var ErrMissingID = errors.New("parcel: missing owner id")

// Owner identifies who holds a parcel. Name is nil when the source has none,
// which is not the same as an empty name.
type Owner struct {
	Name *string
	ID   string
}

// Fields names the feature properties the owner is read from.
type Fields struct {
	Name string `mapstructure:"name" yaml:"name"`
	ID   string `mapstructure:"id" yaml:"id"`
}

func DefaultFields() Fields {
	return Fields{Name: "NAME", ID: "MapNum"}
}

func (f Fields) withDefaults() Fields {
	d := DefaultFields()
	if f.Name == "" {
		f.Name = d.Name
	}
	if f.ID == "" {
		f.ID = d.ID
	}
	return f
}

// OwnerFromProperties reads the owner of a feature. Numbers are accepted for
// either field and formatted as strings.
func OwnerFromProperties(props geojson.Properties, fields Fields) (Owner, error) {
	fields = fields.withDefaults()
	var o Owner

	raw, ok := props[fields.ID]
	if !ok || raw == nil {
		return o, fmt.Errorf("%w: no %q property", ErrMissingID, fields.ID)
	}
	id, err := cast.ToStringE(raw)
	if err != nil {
		return o, fmt.Errorf("%w: %q: %w", ErrMissingID, fields.ID, err)
	}
	if strings.TrimSpace(id) == "" {
		return o, fmt.Errorf("%w: %q is empty", ErrMissingID, fields.ID)
	}
	o.ID = id

	if raw, ok := props[fields.Name]; ok && raw != nil {
		name, err := cast.ToStringE(raw)
		if err != nil {
			return o, fmt.Errorf("parcel: %q: %w", fields.Name, err)
		}
		o.Name = &name
	}
	return o, nil
}

// Parcel is one owned area. Bounds covers every non-degenerate part of the
// geometry. Selected belongs to the presentation layer.
type Parcel struct {
	Owner    Owner
	Geometry geometry.MultiPolygon
	Bounds   geometry.Rect
	Selected bool
}

// FromFeature builds a parcel from a MultiPolygon feature. The error names a
// drop reason through ingest.Reject.
func FromFeature(f *geojson.Feature, fields Fields, conv *convert.Converter) (Parcel, error) {
	owner, err := OwnerFromProperties(f.Properties, fields)
	if err != nil {
		return Parcel{}, ingest.Reject("missing_id", err)
	}
	mp, err := convert.AsMultiPolygon(f.Geometry)
	if err != nil {
		return Parcel{}, ingest.Reject("unsupported_geometry", err)
	}
	g, bounds := conv.BoundedMultiPolygon(mp)
	return Parcel{Owner: owner, Geometry: g, Bounds: bounds}, nil
}

// IsPointInside checks the bounding box first and only then the polygons.
func (p Parcel) IsPointInside(q geometry.Point, tolerance float64) bool {
	if !p.Bounds.ContainsWithin(q, tolerance) {
		return false
	}
	return p.Geometry.IsPointInside(q, tolerance)
}

func (p Parcel) BoundingRect() geometry.Rect {
	return p.Bounds
}

type Parcels struct {
	Records []Parcel
}

func (ps *Parcels) Len() int {
	if ps == nil {
		return 0
	}
	return len(ps.Records)
}

// FromGeoJSON streams a FeatureCollection into parcels in file order.
// Features without an owner id or with non-multipolygon geometry are dropped
// and counted in the report.
func FromGeoJSON(path string, fields Fields, conv *convert.Converter, opts ingest.Options) (*Parcels, ingest.Report, error) {
	f, err := ingest.OpenFile(path)
	if err != nil {
		return nil, ingest.Report{}, err
	}
	defer f.Close()

	if opts.Source == "" {
		opts.Source = path
	}
	out := &Parcels{}
	report, err := ingest.StreamFeatures(f, func(feat *geojson.Feature) error {
		p, err := FromFeature(feat, fields, conv)
		if err != nil {
			return err
		}
		out.Records = append(out.Records, p)
		return nil
	}, opts)
	if err != nil {
		return nil, report, fmt.Errorf("parcel: read %s: %w", path, err)
	}
	return out, report, nil
}

// Query returns the indexes of the parcels containing p, or within tolerance
// of one of their contours.
func (ps *Parcels) Query(p geometry.Point, tolerance float64) []int {
	if ps == nil {
		return nil
	}
	var hits []int
	for i := range ps.Records {
		if ps.Records[i].IsPointInside(p, tolerance) {
			hits = append(hits, i)
		}
	}
	return hits
}

// Bounds aggregates the bounds of every parcel that has one.
func (ps *Parcels) Bounds() geometry.Rect {
	if ps == nil {
		return geometry.Empty()
	}
	rects := make([]geometry.Rect, 0, len(ps.Records))
	for _, p := range ps.Records {
		if !p.Bounds.IsEmpty() {
			rects = append(rects, p.Bounds)
		}
	}
	return geometry.AggregateBounds(rects)
}
