// Package ingest reads source files row by row. Container problems (missing
// file, bad header, broken feature collection envelope) fail the call; a bad
// row or feature is dropped, counted and logged, and the batch carries on.
package ingest

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"b00m.in/landgrid/logging"
)

var (
	// ErrSource wraps open/read failures of the source file.
	ErrSource = errors.New("ingest: source unavailable")
	// ErrMalformedContainer marks a file whose overall structure is unusable.
	ErrMalformedContainer = errors.New("ingest: malformed container")
)

// Report counts what happened to each item of one ingestion call.
type Report struct {
	Read    int
	Kept    int
	Dropped int
	Reasons map[string]int
}

func (r *Report) Keep() {
	r.Read++
	r.Kept++
}

func (r *Report) Drop(reason string) {
	r.Read++
	r.Dropped++
	if r.Reasons == nil {
		r.Reasons = make(map[string]int)
	}
	r.Reasons[reason]++
}

// Merge adds o's counts to r.
func (r *Report) Merge(o Report) {
	r.Read += o.Read
	r.Kept += o.Kept
	r.Dropped += o.Dropped
	for k, v := range o.Reasons {
		if r.Reasons == nil {
			r.Reasons = make(map[string]int)
		}
		r.Reasons[k] += v
	}
}

func (r Report) String() string {
	s := fmt.Sprintf("read %d, kept %d, dropped %d", r.Read, r.Kept, r.Dropped)
	keys := make([]string, 0, len(r.Reasons))
	for k := range r.Reasons {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		s += fmt.Sprintf(", %s=%d", k, r.Reasons[k])
	}
	return s
}

// Log emits the totals of one ingestion call at info level.
func (r Report) Log(log logging.Logger, source string) {
	log.Info("records dropped",
		logging.String("source", source),
		logging.Int("read", r.Read),
		logging.Int("kept", r.Kept),
		logging.Int("dropped", r.Dropped))
}

// Ticker is told about every item as it is read; the CLI hangs a spinner on it.
type Ticker interface {
	Tick()
}

type nopTicker struct{}

func (nopTicker) Tick() {}

func orNop(t Ticker) Ticker {
	if t == nil {
		return nopTicker{}
	}
	return t
}

// OpenFile opens a source file, mapping failures onto ErrSource.
func OpenFile(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSource, err)
	}
	return f, nil
}
