// Package render presents validation reports as HTML, Markdown or JSON.
package render

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/duynguyendang/shaclreport/pkg/report"
)

// DisplayLimit is the number of triples shown in the triples table.
const DisplayLimit = 20

// ErrUnknownFormat is returned by ParseFormat.
var ErrUnknownFormat = errors.New("unknown output format")

// Format selects a presenter.
type Format string

const (
	FormatHTML     Format = "html"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
)

// ParseFormat accepts html, markdown (or md) and json. Empty means JSON.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "html":
		return FormatHTML, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// ContentType returns the MIME type for f.
func (f Format) ContentType() string {
	switch f {
	case FormatHTML:
		return "text/html; charset=utf-8"
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	default:
		return "application/json; charset=utf-8"
	}
}

// Table is a grid of display strings.
type Table struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// TableFromRows lays out query rows under the given variables, keeping at
// most limit rows. A limit of zero or less keeps all of them.
func TableFromRows(vars []string, rows []map[string]string, limit int) Table {
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	t := Table{Columns: vars, Rows: make([][]string, 0, len(rows))}
	for _, row := range rows {
		cells := make([]string, len(vars))
		for i, v := range vars {
			cells[i] = row[v]
		}
		t.Rows = append(t.Rows, cells)
	}
	return t
}

// TableFromBindings lays out bindings as subject, predicate, object rows.
func TableFromBindings(bindings []report.Binding, limit int) Table {
	if limit > 0 && len(bindings) > limit {
		bindings = bindings[:limit]
	}
	t := Table{Columns: []string{"s", "p", "o"}, Rows: make([][]string, 0, len(bindings))}
	for _, b := range bindings {
		t.Rows = append(t.Rows, []string{b.Subject, b.Predicate, b.Object})
	}
	return t
}

// Document is everything a presenter shows.
type Document struct {
	Title   string         `json:"title"`
	Report  *report.Report `json:"report"`
	Triples Table          `json:"triples"`
}

// Write renders doc to w in format f.
func Write(w io.Writer, f Format, doc Document) error {
	switch f {
	case FormatHTML:
		return HTML(w, doc)
	case FormatMarkdown:
		out, err := Markdown(doc)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, out)
		return err
	case FormatJSON:
		return JSON(w, doc)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, string(f))
}

// JSON writes doc as indented JSON.
func JSON(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// Text writes t as space-aligned columns for terminals.
func Text(w io.Writer, t Table) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(t.Columns, "\t"))
	for _, row := range t.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}
