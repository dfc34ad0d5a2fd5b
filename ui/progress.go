package ui

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/pterm/pterm"
)

// ProgressWriter counts bytes as a concurrent downloader writes them and
// reports the running total through Progress.
type ProgressWriter struct {
	Written  int64
	Writer   io.WriterAt
	Size     int64
	Progress func(written, size int64)
}

func (pw *ProgressWriter) WriteAt(p []byte, off int64) (int, error) {
	n, err := pw.Writer.WriteAt(p, off)
	written := atomic.AddInt64(&pw.Written, int64(n))
	if pw.Progress != nil {
		pw.Progress(written, pw.Size)
	}
	return n, err
}

// Percent is written as a share of size, 0 when size is unknown.
func Percent(written, size int64) float64 {
	if size <= 0 {
		return 0
	}
	return float64(written) * 100 / float64(size)
}

func ByteCountDecimal(b int64) string {
	const unit = 1000
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "kMGTPE"[exp])
}

// ProgressBar is a pterm bar fed from ProgressWriter callbacks. The bar
// counts kilobytes so that large objects fit its int total.
type ProgressBar struct {
	mu   sync.Mutex
	bar  *pterm.ProgressbarPrinter
	last int
}

func StartProgressBar(title string, size int64) (*ProgressBar, error) {
	bar, err := pterm.DefaultProgressbar.
		WithTotal(int(size/1000) + 1).
		WithTitle(title).
		Start()
	if err != nil {
		return nil, err
	}
	return &ProgressBar{bar: bar}, nil
}

// Update moves the bar to written. Calls may arrive out of order from
// concurrent parts; the bar never moves backwards.
func (p *ProgressBar) Update(written, _ int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	kb := int(written / 1000)
	if kb > p.last {
		p.bar.Add(kb - p.last)
		p.last = kb
	}
}

func (p *ProgressBar) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bar.Stop()
}
