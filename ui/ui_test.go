package ui

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByteCountDecimal(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{999, "999 B"},
		{1000, "1.0 kB"},
		{1500, "1.5 kB"},
		{991368715, "991.4 MB"},
		{2_000_000_000_000, "2.0 TB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ByteCountDecimal(tt.in), "%d", tt.in)
	}
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 50.0, Percent(5, 10))
	assert.Zero(t, Percent(5, 0))
}

func TestProgressWriter(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "out"))
	require.NoError(t, err)
	defer f.Close()

	var mu sync.Mutex
	var seen []int64
	pw := &ProgressWriter{Writer: f, Size: 40, Progress: func(written, size int64) {
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, int64(40), size)
		seen = append(seen, written)
	}}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := pw.WriteAt(bytes.Repeat([]byte{byte('a' + i)}, 10), int64(i*10))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(40), pw.Written)
	assert.Len(t, seen, 4)
	assert.Contains(t, seen, int64(40))

	got, err := os.ReadFile(f.Name())
	require.NoError(t, err)
	assert.Equal(t, "aaaaaaaaaabbbbbbbbbbccccccccccdddddddddd", string(got))
}

func TestSpinner_ZeroValueCounts(t *testing.T) {
	var s Spinner
	for i := 0; i < 2500; i++ {
		s.Tick()
	}
	assert.Equal(t, 2500, s.Count())
	s.Success("done")
	s.Fail("failed")
}

func TestSpinner_SharedTicks(t *testing.T) {
	var s Spinner
	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				s.Tick()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 2000, s.Count())
}

type fakeRows int

func (f fakeRows) Len() int           { return int(f) }
func (f fakeRows) Headers() []string  { return []string{"index", "square"} }
func (f fakeRows) Row(i int) []string { return []string{strconv.Itoa(i), strconv.Itoa(i * i)} }

func TestRenderTable(t *testing.T) {
	pterm.DisableStyling()
	defer pterm.EnableStyling()

	var buf bytes.Buffer
	require.NoError(t, RenderTable(&buf, fakeRows(5), 3))
	out := buf.String()
	assert.Contains(t, out, "index")
	assert.Contains(t, out, "square")
	assert.Contains(t, out, "4")
	assert.NotContains(t, out, "16")
	assert.Contains(t, out, "3 of 5 rows")

	buf.Reset()
	require.NoError(t, RenderTable(&buf, fakeRows(5), 0))
	assert.Contains(t, buf.String(), "16")
	assert.NotContains(t, buf.String(), "of 5 rows")
}

func TestRenderPairs(t *testing.T) {
	pterm.DisableStyling()
	defer pterm.EnableStyling()

	var buf bytes.Buffer
	require.NoError(t, RenderPairs(&buf, [][2]string{{"parcels", "12"}, {"addresses", "7"}}))
	assert.Contains(t, buf.String(), "parcels")
	assert.Contains(t, buf.String(), "12")
}
