package parquet

import (
	"encoding/json"
	"fmt"

	"b00m.in/landgrid/geometry"
)

// GeoKey is the file metadata key GeoParquet readers look for.
const GeoKey = "geo"

const (
	geoVersion     = "1.1.0"
	geometryColumn = "geometry"
)

// Geo is the GeoParquet file metadata record.
type Geo struct {
	Version       string `json:"version"`
	PrimaryColumn string `json:"primary_column"`
	Columns       struct {
		Geometry struct {
			Encoding      string    `json:"encoding"`
			GeometryTypes []string  `json:"geometry_types"`
			Bbox          []float64 `json:"bbox,omitempty"`
			Covering      *Covering `json:"covering,omitempty"`
		} `json:"geometry"`
	} `json:"columns"`
}

// Covering names the per-row bounding box columns.
type Covering struct {
	Bbox struct {
		Xmin []string `json:"xmin"`
		Ymin []string `json:"ymin"`
		Xmax []string `json:"xmax"`
		Ymax []string `json:"ymax"`
	} `json:"bbox"`
}

func newGeo(geometryType string, bounds geometry.Rect, covered bool) *Geo {
	g := &Geo{Version: geoVersion, PrimaryColumn: geometryColumn}
	g.Columns.Geometry.Encoding = "WKB"
	g.Columns.Geometry.GeometryTypes = []string{geometryType}
	if !bounds.IsEmpty() {
		g.Columns.Geometry.Bbox = []float64{bounds.XMin, bounds.YMin, bounds.XMax, bounds.YMax}
	}
	if covered {
		c := &Covering{}
		c.Bbox.Xmin = []string{colXMin}
		c.Bbox.Ymin = []string{colYMin}
		c.Bbox.Xmax = []string{colXMax}
		c.Bbox.Ymax = []string{colYMax}
		g.Columns.Geometry.Covering = c
	}
	return g
}

// Bounds returns the collection bbox, or false when the file has none.
func (g *Geo) Bounds() (geometry.Rect, bool) {
	if g == nil || len(g.Columns.Geometry.Bbox) != 4 {
		return geometry.Rect{}, false
	}
	fs := g.Columns.Geometry.Bbox
	return geometry.NewRect(fs[0], fs[1], fs[2], fs[3]), true
}

func (g *Geo) marshal() (string, error) {
	b, err := json.Marshal(g)
	if err != nil {
		return "", fmt.Errorf("parquet: geo metadata: %w", err)
	}
	return string(b), nil
}

func parseGeo(s string) (*Geo, error) {
	g := &Geo{}
	if err := json.Unmarshal([]byte(s), g); err != nil {
		return nil, fmt.Errorf("parquet: geo metadata: %w", err)
	}
	return g, nil
}
