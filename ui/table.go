package ui

import (
	"fmt"
	"io"

	"github.com/pterm/pterm"
)

// Rows is anything that can be shown as a table.
type Rows interface {
	Len() int
	Headers() []string
	Row(i int) []string
}

// RenderTable writes up to limit rows of t, all of them when limit <= 0, and
// a footer line when rows were left out.
func RenderTable(w io.Writer, t Rows, limit int) error {
	n := t.Len()
	shown := n
	if limit > 0 && limit < n {
		shown = limit
	}
	data := make(pterm.TableData, 0, shown+1)
	data = append(data, t.Headers())
	for i := 0; i < shown; i++ {
		data = append(data, t.Row(i))
	}
	out, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, out); err != nil {
		return err
	}
	if shown < n {
		_, err = fmt.Fprintf(w, "%d of %d rows\n", shown, n)
	}
	return err
}

// RenderPairs writes a two column key/value table.
func RenderPairs(w io.Writer, pairs [][2]string) error {
	data := make(pterm.TableData, 0, len(pairs))
	for _, p := range pairs {
		data = append(data, []string{p[0], p[1]})
	}
	out, err := pterm.DefaultTable.WithData(data).Srender()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, out)
	return err
}
