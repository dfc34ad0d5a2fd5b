package parquet

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/metadata"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/apache/arrow-go/v18/parquet/schema"
	"github.com/paulmach/orb/encoding/wkb"
	"github.com/paulmach/orb/geojson"

	"b00m.in/landgrid/address"
	"b00m.in/landgrid/convert"
	"b00m.in/landgrid/ingest"
	"b00m.in/landgrid/logging"
	"b00m.in/landgrid/parcel"
)

const batchSize = 64 * 1024

// FileInfo summarises a parquet file without reading its pages.
type FileInfo struct {
	Path      string
	Version   string
	CreatedBy string
	Rows      int64
	RowGroups int
	Columns   []ColumnInfo
	KeyValues map[string]string
}

type ColumnInfo struct {
	Path           string
	Type           string
	Compression    string
	Values         int64
	NullCount      int64
	Min, Max       string
	CompressedSize int64
}

// Describe reads the footer of a parquet file.
func Describe(path string) (*FileInfo, error) {
	rdr, err := file.OpenParquetFile(path, false)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ingest.ErrSource, err)
	}
	defer rdr.Close()

	fileMetadata := rdr.MetaData()
	info := &FileInfo{
		Path:      path,
		Version:   fmt.Sprint(fileMetadata.Version()),
		CreatedBy: fileMetadata.GetCreatedBy(),
		Rows:      rdr.NumRows(),
		RowGroups: rdr.NumRowGroups(),
		KeyValues: map[string]string{},
	}
	if kv := fileMetadata.KeyValueMetadata(); kv != nil {
		keys, values := kv.Keys(), kv.Values()
		for i := 0; i < kv.Len(); i++ {
			info.KeyValues[keys[i]] = values[i]
		}
	}

	for c := 0; c < fileMetadata.Schema.NumColumns(); c++ {
		descr := fileMetadata.Schema.Column(c)
		col := ColumnInfo{Path: descr.Path(), Type: fmt.Sprint(descr.PhysicalType())}
		if descr.ConvertedType() != schema.ConvertedTypes.None {
			col.Type += "/" + fmt.Sprint(descr.ConvertedType())
		}
		for r := 0; r < rdr.NumRowGroups(); r++ {
			chunkMeta, err := rdr.RowGroup(r).MetaData().ColumnChunk(c)
			if err != nil {
				return nil, fmt.Errorf("parquet: %s: column %d: %w", path, c, err)
			}
			col.Compression = fmt.Sprint(chunkMeta.Compression())
			col.Values += chunkMeta.NumValues()
			col.CompressedSize += chunkMeta.TotalCompressedSize()
			if set, _ := chunkMeta.StatsSet(); !set || r > 0 {
				continue
			}
			stats, err := chunkMeta.Statistics()
			if err != nil {
				return nil, fmt.Errorf("parquet: %s: column %d: %w", path, c, err)
			}
			if stats.HasMinMax() {
				col.Min = fmt.Sprint(metadata.GetStatValue(stats.Type(), stats.EncodeMin()))
				col.Max = fmt.Sprint(metadata.GetStatValue(stats.Type(), stats.EncodeMax()))
			}
			if stats.HasNullCount() {
				col.NullCount = stats.NullCount()
			}
		}
		info.Columns = append(info.Columns, col)
	}
	return info, nil
}

// KeyInMetadata returns the GeoParquet record stored under key, if the file
// has one that parses.
func KeyInMetadata(path, key string) (*Geo, bool) {
	rdr, err := file.OpenParquetFile(path, false)
	if err != nil {
		return nil, false
	}
	defer rdr.Close()

	kv := rdr.MetaData().KeyValueMetadata()
	if kv == nil {
		return nil, false
	}
	value := kv.FindValue(key)
	if value == nil {
		return nil, false
	}
	g, err := parseGeo(*value)
	if err != nil {
		return nil, false
	}
	return g, true
}

// table is a parquet file loaded as arrow records, with columns looked up by
// name.
type table struct {
	records []arrow.Record
}

func readTable(ctx context.Context, path string, required ...string) (*table, error) {
	f, err := ingest.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	rdr, err := file.NewParquetReader(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ingest.ErrMalformedContainer, err)
	}
	defer rdr.Close()

	fr, err := pqarrow.NewFileReader(rdr, pqarrow.ArrowReadProperties{BatchSize: batchSize}, memory.DefaultAllocator)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ingest.ErrMalformedContainer, err)
	}
	tbl, err := fr.ReadTable(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ingest.ErrMalformedContainer, err)
	}
	defer tbl.Release()

	var missing []string
	for _, name := range required {
		if len(tbl.Schema().FieldIndices(name)) == 0 {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing columns %s", ingest.ErrMalformedContainer, strings.Join(missing, ", "))
	}

	t := &table{}
	tr := array.NewTableReader(tbl, batchSize)
	defer tr.Release()
	for tr.Next() {
		rec := tr.Record()
		rec.Retain()
		t.records = append(t.records, rec)
	}
	return t, nil
}

func (t *table) release() {
	for _, rec := range t.records {
		rec.Release()
	}
}

// each calls fn for every row with a lookup for its cells.
func (t *table) each(fn func(row cells)) {
	for _, rec := range t.records {
		cols := map[string]arrow.Array{}
		for i, f := range rec.Schema().Fields() {
			cols[f.Name] = rec.Column(i)
		}
		for i := 0; i < int(rec.NumRows()); i++ {
			fn(cells{cols: cols, row: i})
		}
	}
}

var errNullCell = errors.New("null cell")

type cells struct {
	cols map[string]arrow.Array
	row  int
}

func (c cells) isNull(name string) bool {
	col, ok := c.cols[name]
	return !ok || col.IsNull(c.row)
}

func (c cells) String(name string) (string, error) {
	if c.isNull(name) {
		return "", fmt.Errorf("%s: %w", name, errNullCell)
	}
	switch col := c.cols[name].(type) {
	case *array.String:
		return col.Value(c.row), nil
	case *array.LargeString:
		return col.Value(c.row), nil
	case *array.Binary:
		return string(col.Value(c.row)), nil
	default:
		return "", fmt.Errorf("%s: unexpected type %s", name, col.DataType())
	}
}

func (c cells) Float(name string) (float64, error) {
	if c.isNull(name) {
		return 0, fmt.Errorf("%s: %w", name, errNullCell)
	}
	switch col := c.cols[name].(type) {
	case *array.Float64:
		return col.Value(c.row), nil
	case *array.Float32:
		return float64(col.Value(c.row)), nil
	default:
		return 0, fmt.Errorf("%s: unexpected type %s", name, col.DataType())
	}
}

func (c cells) Bytes(name string) ([]byte, error) {
	if c.isNull(name) {
		return nil, fmt.Errorf("%s: %w", name, errNullCell)
	}
	switch col := c.cols[name].(type) {
	case *array.Binary:
		return col.Value(c.row), nil
	default:
		return nil, fmt.Errorf("%s: unexpected type %s", name, col.DataType())
	}
}

// ReadAddresses loads the address columns of a file written by
// WriteAddressPoints. Rows with null or mistyped cells are dropped.
func ReadAddresses(ctx context.Context, path string, opts ingest.Options) (*address.Addresses, ingest.Report, error) {
	log := logging.OrDefault(opts.Logger)
	var report ingest.Report
	t, err := readTable(ctx, path, colLabel, colStatus, colLat, colLon, colX, colY)
	if err != nil {
		return nil, report, fmt.Errorf("parquet: read %s: %w", path, err)
	}
	defer t.release()

	out := &address.Addresses{}
	index := 0
	t.each(func(c cells) {
		if opts.Ticker != nil {
			opts.Ticker.Tick()
		}
		a, err := decodeAddress(c)
		if err != nil {
			log.Debug("record dropped", logging.Int("row", index), logging.Err(err))
			report.Drop("decode")
		} else {
			out.Records = append(out.Records, a)
			report.Keep()
		}
		index++
	})
	report.Log(log, path)
	return out, report, nil
}

func decodeAddress(c cells) (address.Address, error) {
	var a address.Address
	var err error
	if a.Label, err = c.String(colLabel); err != nil {
		return a, err
	}
	if a.Status, err = c.String(colStatus); err != nil {
		return a, err
	}
	for _, f := range []struct {
		col string
		dst *float64
	}{{colLat, &a.Lat}, {colLon, &a.Lon}, {colX, &a.X}, {colY, &a.Y}} {
		if *f.dst, err = c.Float(f.col); err != nil {
			return a, err
		}
	}
	return a, nil
}

// parquetFields maps the exported owner columns onto feature properties so
// rows go through the same checks as GeoJSON features.
var parquetFields = parcel.Fields{Name: colOwnerName, ID: colOwnerID}

// ReadParcels loads a file written by WriteParcels. Each row is dropped on
// the same grounds as a GeoJSON feature: no owner id, geometry that is not a
// multipolygon, or WKB that does not decode. Bounds are recomputed from the
// geometry rather than taken from the bbox columns.
func ReadParcels(ctx context.Context, path string, conv *convert.Converter, opts ingest.Options) (*parcel.Parcels, ingest.Report, error) {
	log := logging.OrDefault(opts.Logger)
	var report ingest.Report
	t, err := readTable(ctx, path, colOwnerID, geometryColumn)
	if err != nil {
		return nil, report, fmt.Errorf("parquet: read %s: %w", path, err)
	}
	defer t.release()

	out := &parcel.Parcels{}
	index := 0
	t.each(func(c cells) {
		if opts.Ticker != nil {
			opts.Ticker.Tick()
		}
		p, err := decodeParcel(c, conv)
		if err != nil {
			log.Debug("record dropped", logging.Int("row", index), logging.Err(err))
			report.Drop(ingest.DropReason(err))
		} else {
			out.Records = append(out.Records, p)
			report.Keep()
		}
		index++
	})
	report.Log(log, path)
	return out, report, nil
}

// decodeParcel checks the owner before touching the geometry, so a row with
// neither is dropped as missing_id like its GeoJSON counterpart.
func decodeParcel(c cells, conv *convert.Converter) (parcel.Parcel, error) {
	props := geojson.Properties{}
	for _, name := range []string{colOwnerName, colOwnerID} {
		if c.isNull(name) {
			continue
		}
		s, err := c.String(name)
		if err != nil {
			return parcel.Parcel{}, ingest.Reject("decode", err)
		}
		props[name] = s
	}
	if _, err := parcel.OwnerFromProperties(props, parquetFields); errors.Is(err, parcel.ErrMissingID) {
		return parcel.Parcel{}, ingest.Reject("missing_id", err)
	}

	raw, err := c.Bytes(geometryColumn)
	if err != nil {
		return parcel.Parcel{}, ingest.Reject("decode", err)
	}
	g, err := wkb.Unmarshal(raw)
	if err != nil {
		return parcel.Parcel{}, ingest.Reject("decode", err)
	}
	f := geojson.NewFeature(g)
	f.Properties = props
	return parcel.FromFeature(f, parquetFields, conv)
}
