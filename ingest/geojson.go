package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/paulmach/orb/geojson"

	"b00m.in/landgrid/logging"
)

// StreamFeatures walks a GeoJSON FeatureCollection one feature at a time.
// Only the envelope has to be well formed: each element of "features" is
// decoded on its own, and one that does not decode as a feature, or that fn
// rejects, is dropped and counted.
func StreamFeatures(r io.Reader, fn func(*geojson.Feature) error, opts Options) (Report, error) {
	log := logging.OrDefault(opts.Logger)
	tick := orNop(opts.Ticker)
	var report Report

	dec := json.NewDecoder(r)
	if err := expectDelim(dec, '{'); err != nil {
		return report, err
	}

	var sawFeatures bool
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return report, malformed(err)
		}
		key, _ := tok.(string)
		switch key {
		case "type":
			var typ string
			if err := dec.Decode(&typ); err != nil {
				return report, malformed(err)
			}
			if !strings.EqualFold(typ, "FeatureCollection") {
				return report, fmt.Errorf("%w: type %q is not a FeatureCollection", ErrMalformedContainer, typ)
			}
		case "features":
			sawFeatures = true
			if err := expectDelim(dec, '['); err != nil {
				return report, err
			}
			index := 0
			for dec.More() {
				var raw json.RawMessage
				if err := dec.Decode(&raw); err != nil {
					return report, malformed(err)
				}
				tick.Tick()
				if err := decodeFeature(raw, fn); err != nil {
					log.Debug("record dropped", logging.Int("feature", index), logging.Err(err))
					report.Drop(DropReason(err))
				} else {
					report.Keep()
				}
				index++
			}
			if err := expectDelim(dec, ']'); err != nil {
				return report, err
			}
		default:
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return report, malformed(err)
			}
		}
	}
	if err := expectDelim(dec, '}'); err != nil {
		return report, err
	}
	if !sawFeatures {
		return report, fmt.Errorf("%w: no features array", ErrMalformedContainer)
	}
	report.Log(log, opts.Source)
	return report, nil
}

// RejectError lets fn name why it refused a feature.
type RejectError struct {
	Reason string
	Err    error
}

func (e *RejectError) Error() string { return e.Reason + ": " + e.Err.Error() }
func (e *RejectError) Unwrap() error { return e.Err }

func Reject(reason string, err error) error {
	return &RejectError{Reason: reason, Err: err}
}

var errNotFeature = errors.New("not a feature")

func decodeFeature(raw json.RawMessage, fn func(*geojson.Feature) error) error {
	f, err := geojson.UnmarshalFeature(raw)
	if err != nil {
		return Reject("decode", err)
	}
	if !strings.EqualFold(f.Type, "Feature") {
		return Reject("decode", errNotFeature)
	}
	return fn(f)
}

// DropReason is the reason named by Reject, or "rejected" for any other error.
func DropReason(err error) string {
	var re *RejectError
	if errors.As(err, &re) {
		return re.Reason
	}
	return "rejected"
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return malformed(err)
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("%w: expected %q, got %v", ErrMalformedContainer, want, tok)
	}
	return nil
}

func malformed(err error) error {
	if errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return fmt.Errorf("%w: %w", ErrMalformedContainer, err)
}
