package parquet

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"b00m.in/landgrid/address"
	"b00m.in/landgrid/convert"
	"b00m.in/landgrid/geometry"
	"b00m.in/landgrid/ingest"
	"b00m.in/landgrid/parcel"
)

func samplePoints() *address.AddressPoints {
	return address.NewAddressPoints(&address.Addresses{Records: []address.Address{
		{Label: "12 Main St", Status: "Active", Lat: 40, Lon: -75, X: 100, Y: 200},
		{Label: "14 Main St", Status: "Retired", Lat: 40.1, Lon: -75.1, X: -10, Y: 250},
	}}, address.DefaultBuffer)
}

func sampleParcels() *parcel.Parcels {
	name := "Smith, J"
	mp := orb.MultiPolygon{
		{{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}}, {{2, 2}, {4, 2}, {4, 4}, {2, 4}, {2, 2}}},
		{{{20, 20}, {21, 20}, {21, 21}, {20, 20}}},
	}
	g1, b1 := convert.BoundedMultiPolygon(mp)
	g2, b2 := convert.BoundedMultiPolygon(orb.MultiPolygon{{{{-5, -5}, {-4, -5}, {-4, -4}, {-5, -5}}}})
	return &parcel.Parcels{Records: []parcel.Parcel{
		{Owner: parcel.Owner{Name: &name, ID: "P-1"}, Geometry: g1, Bounds: b1},
		{Owner: parcel.Owner{ID: "P-2"}, Geometry: g2, Bounds: b2},
	}}
}

func TestAddressPoints_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "addresses.parquet")
	points := samplePoints()
	require.NoError(t, WriteAddressPoints(path, points, WriteOptions{}))

	got, report, err := ReadAddresses(context.Background(), path, ingest.Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Kept)
	assert.Zero(t, report.Dropped)
	require.Equal(t, 2, got.Len())
	for i, rec := range got.Records {
		assert.Equal(t, points.Records[i].Address, rec)
	}

	geo, ok := KeyInMetadata(path, GeoKey)
	require.True(t, ok)
	assert.Equal(t, "geometry", geo.PrimaryColumn)
	assert.Equal(t, "WKB", geo.Columns.Geometry.Encoding)
	assert.Equal(t, []string{"Point"}, geo.Columns.Geometry.GeometryTypes)
	bounds, ok := geo.Bounds()
	require.True(t, ok)
	assert.Equal(t, geometry.NewRect(-10, 200, 100, 250), bounds)
	assert.Nil(t, geo.Columns.Geometry.Covering)
}

func TestParcels_RoundTrip(t *testing.T) {
	for _, compression := range []string{"", "snappy", "gzip", "none"} {
		t.Run(compression, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "parcels.parquet")
			parcels := sampleParcels()
			require.NoError(t, WriteParcels(path, parcels, WriteOptions{Compression: compression}))

			got, report, err := ReadParcels(context.Background(), path, convert.NewConverter(2), ingest.Options{})
			require.NoError(t, err)
			assert.Equal(t, 2, report.Kept)
			assert.Equal(t, parcels, got)

			geo, ok := KeyInMetadata(path, GeoKey)
			require.True(t, ok)
			bounds, ok := geo.Bounds()
			require.True(t, ok)
			assert.Equal(t, geometry.NewRect(-5, -5, 21, 21), bounds)
			require.NotNil(t, geo.Columns.Geometry.Covering)
			assert.Equal(t, []string{"xmin"}, geo.Columns.Geometry.Covering.Bbox.Xmin)
		})
	}
}

func TestWriteParcels_UnknownCompression(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parcels.parquet")
	err := WriteParcels(path, sampleParcels(), WriteOptions{Compression: "lz5"})
	require.Error(t, err)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestReadParcels_DropsRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parcels.parquet")
	parcels := sampleParcels()
	parcels.Records = append(parcels.Records, parcel.Parcel{Owner: parcel.Owner{ID: ""}, Bounds: geometry.Empty()})
	require.NoError(t, WriteParcels(path, parcels, WriteOptions{}))

	got, report, err := ReadParcels(context.Background(), path, nil, ingest.Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, got.Len())
	assert.Equal(t, 3, report.Read)
	assert.Equal(t, map[string]int{"missing_id": 1}, report.Reasons)
}

// writeRawParcels writes rows whose cells are taken as given, including WKB
// that does not decode.
func writeRawParcels(t *testing.T, path string, ids []string, geoms [][]byte) {
	t.Helper()
	b := array.NewRecordBuilder(memory.DefaultAllocator, parcelSchema)
	defer b.Release()
	for i := range ids {
		b.Field(0).(*array.StringBuilder).AppendNull()
		b.Field(1).(*array.StringBuilder).Append(ids[i])
		b.Field(2).(*array.BinaryBuilder).Append(geoms[i])
		for f := 3; f < 7; f++ {
			b.Field(f).(*array.Float64Builder).AppendNull()
		}
	}
	rec := b.NewRecord()
	defer rec.Release()
	require.NoError(t, writeRecord(path, rec, newGeo("MultiPolygon", geometry.Empty(), true), WriteOptions{}))
}

func TestReadParcels_OwnerCheckedBeforeGeometry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parcels.parquet")
	good, err := wkb.Marshal(orb.MultiPolygon{{{{0, 0}, {1, 0}, {1, 1}, {0, 0}}}})
	require.NoError(t, err)
	junk := []byte("not wkb")
	writeRawParcels(t, path,
		[]string{"", " ", "P-9", "P-9"},
		[][]byte{junk, junk, junk, good})

	got, report, err := ReadParcels(context.Background(), path, nil, ingest.Options{})
	require.NoError(t, err)
	require.Equal(t, 1, got.Len())
	assert.Equal(t, "P-9", got.Records[0].Owner.ID)
	assert.Equal(t, map[string]int{"missing_id": 2, "decode": 1}, report.Reasons)
}

func TestRead_Errors(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	_, _, err := ReadParcels(ctx, filepath.Join(dir, "absent.parquet"), nil, ingest.Options{})
	assert.True(t, errors.Is(err, ingest.ErrSource))

	junk := filepath.Join(dir, "junk.parquet")
	require.NoError(t, os.WriteFile(junk, []byte("not a parquet file at all"), 0o644))
	_, _, err = ReadAddresses(ctx, junk, ingest.Options{})
	assert.True(t, errors.Is(err, ingest.ErrMalformedContainer))

	_, ok := KeyInMetadata(junk, GeoKey)
	assert.False(t, ok)

	// an address file read as parcels lacks the owner columns
	addrs := filepath.Join(dir, "addresses.parquet")
	require.NoError(t, WriteAddressPoints(addrs, samplePoints(), WriteOptions{}))
	_, _, err = ReadParcels(ctx, addrs, nil, ingest.Options{})
	assert.True(t, errors.Is(err, ingest.ErrMalformedContainer))
}

func TestDescribe(t *testing.T) {
	path := filepath.Join(t.TempDir(), "addresses.parquet")
	require.NoError(t, WriteAddressPoints(path, samplePoints(), WriteOptions{}))

	info, err := Describe(path)
	require.NoError(t, err)
	assert.Equal(t, int64(2), info.Rows)
	assert.Equal(t, 1, info.RowGroups)
	assert.Contains(t, info.KeyValues, GeoKey)
	require.Len(t, info.Columns, 7)
	assert.Equal(t, "label", info.Columns[0].Path)
	assert.Equal(t, int64(2), info.Columns[0].Values)
}

func TestGeo_Bounds(t *testing.T) {
	var g *Geo
	_, ok := g.Bounds()
	assert.False(t, ok)

	g = newGeo("Point", geometry.Empty(), false)
	_, ok = g.Bounds()
	assert.False(t, ok, "an empty collection has no bbox")

	s, err := newGeo("Point", geometry.NewRect(1, 2, 3, 4), true).marshal()
	require.NoError(t, err)
	back, err := parseGeo(s)
	require.NoError(t, err)
	r, ok := back.Bounds()
	require.True(t, ok)
	assert.Equal(t, geometry.NewRect(1, 2, 3, 4), r)
	assert.Equal(t, geoVersion, back.Version)
}
