// Package parquet exports address points and parcels as GeoParquet and reads
// them back. Geometry is stored as WKB with a "geo" metadata record that
// carries the collection bbox.
package parquet

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	pq "github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/paulmach/orb/encoding/wkb"

	"b00m.in/landgrid/address"
	"b00m.in/landgrid/convert"
	"b00m.in/landgrid/geometry"
	"b00m.in/landgrid/parcel"
)

const (
	colLabel     = "label"
	colStatus    = "status"
	colLat       = "lat"
	colLon       = "lon"
	colX         = "x"
	colY         = "y"
	colOwnerName = "owner_name"
	colOwnerID   = "owner_id"
	colXMin      = "xmin"
	colYMin      = "ymin"
	colXMax      = "xmax"
	colYMax      = "ymax"
)

var addressSchema = arrow.NewSchema([]arrow.Field{
	{Name: colLabel, Type: arrow.BinaryTypes.String},
	{Name: colStatus, Type: arrow.BinaryTypes.String},
	{Name: colLat, Type: arrow.PrimitiveTypes.Float64},
	{Name: colLon, Type: arrow.PrimitiveTypes.Float64},
	{Name: colX, Type: arrow.PrimitiveTypes.Float64},
	{Name: colY, Type: arrow.PrimitiveTypes.Float64},
	{Name: geometryColumn, Type: arrow.BinaryTypes.Binary},
}, nil)

var parcelSchema = arrow.NewSchema([]arrow.Field{
	{Name: colOwnerName, Type: arrow.BinaryTypes.String, Nullable: true},
	{Name: colOwnerID, Type: arrow.BinaryTypes.String},
	{Name: geometryColumn, Type: arrow.BinaryTypes.Binary},
	{Name: colXMin, Type: arrow.PrimitiveTypes.Float64, Nullable: true},
	{Name: colYMin, Type: arrow.PrimitiveTypes.Float64, Nullable: true},
	{Name: colXMax, Type: arrow.PrimitiveTypes.Float64, Nullable: true},
	{Name: colYMax, Type: arrow.PrimitiveTypes.Float64, Nullable: true},
}, nil)

// WriteOptions tune the exported file.
type WriteOptions struct {
	// Compression is one of snappy, zstd, gzip or none. Empty means zstd.
	Compression string `mapstructure:"compression" yaml:"compression"`
}

func (o WriteOptions) codec() (compress.Compression, error) {
	switch o.Compression {
	case "", "zstd":
		return compress.Codecs.Zstd, nil
	case "snappy":
		return compress.Codecs.Snappy, nil
	case "gzip":
		return compress.Codecs.Gzip, nil
	case "none":
		return compress.Codecs.Uncompressed, nil
	default:
		return compress.Codecs.Uncompressed, fmt.Errorf("parquet: unknown compression %q", o.Compression)
	}
}

// WriteAddressPoints exports points to path as GeoParquet Point geometry.
func WriteAddressPoints(path string, points *address.AddressPoints, opts WriteOptions) error {
	b := array.NewRecordBuilder(memory.DefaultAllocator, addressSchema)
	defer b.Release()

	label := b.Field(0).(*array.StringBuilder)
	status := b.Field(1).(*array.StringBuilder)
	lat := b.Field(2).(*array.Float64Builder)
	lon := b.Field(3).(*array.Float64Builder)
	x := b.Field(4).(*array.Float64Builder)
	y := b.Field(5).(*array.Float64Builder)
	geom := b.Field(6).(*array.BinaryBuilder)

	bounds := geometry.Empty()
	var records []address.AddressPoint
	if points != nil {
		records = points.Records
	}
	for _, ap := range records {
		raw, err := wkb.Marshal(convert.OrbPoint(ap.Geometry))
		if err != nil {
			return fmt.Errorf("parquet: %q: %w", ap.Address.Label, err)
		}
		label.Append(ap.Address.Label)
		status.Append(ap.Address.Status)
		lat.Append(ap.Address.Lat)
		lon.Append(ap.Address.Lon)
		x.Append(ap.Address.X)
		y.Append(ap.Address.Y)
		geom.Append(raw)
		bounds = bounds.Extend(geometry.PointBounds(ap.Geometry, 0))
	}

	rec := b.NewRecord()
	defer rec.Release()
	return writeRecord(path, rec, newGeo("Point", bounds, false), opts)
}

// WriteParcels exports parcels to path as GeoParquet MultiPolygon geometry
// with a per-row bbox covering. Parcels without bounds get null bbox cells.
func WriteParcels(path string, parcels *parcel.Parcels, opts WriteOptions) error {
	if parcels == nil {
		parcels = &parcel.Parcels{}
	}
	b := array.NewRecordBuilder(memory.DefaultAllocator, parcelSchema)
	defer b.Release()

	name := b.Field(0).(*array.StringBuilder)
	id := b.Field(1).(*array.StringBuilder)
	geom := b.Field(2).(*array.BinaryBuilder)
	box := []*array.Float64Builder{
		b.Field(3).(*array.Float64Builder),
		b.Field(4).(*array.Float64Builder),
		b.Field(5).(*array.Float64Builder),
		b.Field(6).(*array.Float64Builder),
	}

	for _, p := range parcels.Records {
		raw, err := wkb.Marshal(convert.OrbMultiPolygon(p.Geometry))
		if err != nil {
			return fmt.Errorf("parquet: parcel %s: %w", p.Owner.ID, err)
		}
		if p.Owner.Name != nil {
			name.Append(*p.Owner.Name)
		} else {
			name.AppendNull()
		}
		id.Append(p.Owner.ID)
		geom.Append(raw)
		if p.Bounds.IsEmpty() {
			for _, fb := range box {
				fb.AppendNull()
			}
			continue
		}
		box[0].Append(p.Bounds.XMin)
		box[1].Append(p.Bounds.YMin)
		box[2].Append(p.Bounds.XMax)
		box[3].Append(p.Bounds.YMax)
	}

	rec := b.NewRecord()
	defer rec.Release()
	return writeRecord(path, rec, newGeo("MultiPolygon", parcels.Bounds(), true), opts)
}

// writeRecord writes rec to a temporary file next to path and renames it
// into place once the footer is written.
func writeRecord(path string, rec arrow.Record, geo *Geo, opts WriteOptions) error {
	codec, err := opts.codec()
	if err != nil {
		return err
	}
	meta, err := geo.marshal()
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("parquet: %w", err)
	}
	temp, err := os.CreateTemp(dir, ".landgrid-export-")
	if err != nil {
		return fmt.Errorf("parquet: %w", err)
	}
	tempName := temp.Name()
	fail := func(err error) error {
		temp.Close()
		os.Remove(tempName)
		return fmt.Errorf("parquet: write %s: %w", path, err)
	}

	props := pq.NewWriterProperties(
		pq.WithCompression(codec),
		pq.WithCreatedBy("landgrid"),
	)
	w, err := pqarrow.NewFileWriter(rec.Schema(), temp, props, pqarrow.DefaultWriterProps())
	if err != nil {
		return fail(err)
	}
	if err := w.AppendKeyValueMetadata(GeoKey, meta); err != nil {
		w.Close()
		return fail(err)
	}
	if err := w.Write(rec); err != nil {
		w.Close()
		return fail(err)
	}
	if err := w.Close(); err != nil {
		return fail(err)
	}
	// the writer closes its sink; a second close only reports that.
	if err := temp.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		return fail(err)
	}
	if err := os.Chmod(tempName, 0o644); err != nil {
		return fail(err)
	}
	if err := os.Rename(tempName, path); err != nil {
		return fail(err)
	}
	return nil
}
