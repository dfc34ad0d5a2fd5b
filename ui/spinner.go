package ui

import (
	"fmt"
	"sync/atomic"

	"github.com/pterm/pterm"
)

const spinEvery = 1000

// Spinner shows how many records ingestion has read. It satisfies
// ingest.Ticker and may be shared by concurrent ingestion calls. The zero
// value counts without printing.
type Spinner struct {
	printer *pterm.SpinnerPrinter
	label   string
	count   atomic.Int64
}

func StartSpinner(label string) (*Spinner, error) {
	printer, err := pterm.DefaultSpinner.Start(label)
	if err != nil {
		return nil, err
	}
	return &Spinner{printer: printer, label: label}, nil
}

func (s *Spinner) Tick() {
	n := s.count.Add(1)
	if s.printer != nil && n%spinEvery == 0 {
		s.printer.UpdateText(fmt.Sprintf("%s: %d records", s.label, n))
	}
}

func (s *Spinner) Count() int { return int(s.count.Load()) }

func (s *Spinner) Success(msg string) {
	if s.printer != nil {
		s.printer.Success(msg)
	}
}

func (s *Spinner) Fail(msg string) {
	if s.printer != nil {
		s.printer.Fail(msg)
	}
}
