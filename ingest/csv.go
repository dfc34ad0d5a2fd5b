package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cast"

	"b00m.in/landgrid/logging"
)

// Options carries the ambient collaborators of one ingestion call.
type Options struct {
	Logger logging.Logger
	Ticker Ticker
	// Source names the input in log lines.
	Source string
}

// Row is one data line of a delimited file, addressed by header name.
type Row struct {
	Line    int
	columns map[string]int
	record  []string
}

func (r Row) String(column string) (string, error) {
	idx, ok := r.columns[column]
	if !ok {
		return "", fmt.Errorf("unknown column %q", column)
	}
	if idx >= len(r.record) {
		return "", fmt.Errorf("line %d: missing field %q", r.Line, column)
	}
	return r.record[idx], nil
}

func (r Row) Float(column string) (float64, error) {
	s, err := r.String(column)
	if err != nil {
		return 0, err
	}
	v, err := cast.ToFloat64E(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("line %d: field %q: %w", r.Line, column, err)
	}
	return v, nil
}

// ReadCSV maps the header onto column names, checks that every required
// column is present and hands each data row to fn. A row that cannot be
// parsed, whose field count differs from the header's, or for which fn
// returns an error, is dropped and counted.
func ReadCSV(r io.Reader, required []string, fn func(Row) error, opts Options) (Report, error) {
	log := logging.OrDefault(opts.Logger)
	tick := orNop(opts.Ticker)
	var report Report

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return report, fmt.Errorf("%w: no header row", ErrMalformedContainer)
		}
		return report, fmt.Errorf("%w: header: %w", ErrMalformedContainer, err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		columns[strings.TrimSpace(name)] = i
	}
	var missing []string
	for _, name := range required {
		if _, ok := columns[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return report, fmt.Errorf("%w: missing columns %s", ErrMalformedContainer, strings.Join(missing, ", "))
	}

	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		tick.Tick()
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				log.Debug("record dropped", logging.Int("line", pe.Line), logging.Err(err))
				report.Drop("parse")
				continue
			}
			return report, fmt.Errorf("%w: %w", ErrSource, err)
		}
		line, _ := cr.FieldPos(0)
		if len(record) != len(header) {
			log.Debug("record dropped", logging.Int("line", line),
				logging.Int("fields", len(record)), logging.Int("want", len(header)))
			report.Drop("parse")
			continue
		}
		if err := fn(Row{Line: line, columns: columns, record: record}); err != nil {
			log.Debug("record dropped", logging.Int("line", line), logging.Err(err))
			report.Drop("decode")
			continue
		}
		report.Keep()
	}
	report.Log(log, opts.Source)
	return report, nil
}
