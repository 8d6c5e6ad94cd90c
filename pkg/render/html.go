package render

import (
	"html/template"
	"io"
	"strings"

	"github.com/duynguyendang/shaclreport/pkg/report"
)

var pageTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; margin-bottom: 1.5em; }
th, td { border: 1px solid #999; padding: 0.3em 0.6em; text-align: left; vertical-align: top; }
th { background: #eee; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<section id="summary">
<h3>Validation Report: {{len .Groups}} results</h3>
<p>{{.ResultCount}} results across {{len .Groups}} focus nodes, {{.BindingCount}} triples read.</p>
{{- if .Counts}}
<h2>Results per {{.CheckedLabel}}</h2>
<table>
<thead><tr><th>{{.CheckedLabel}}</th><th>Count</th></tr></thead>
<tbody>
{{- range .Counts}}
<tr><td>{{.Value}}</td><td>{{.Count}}</td></tr>
{{- end}}
</tbody>
</table>
{{- end}}
</section>
<section id="focus-nodes">
{{- range .Groups}}
<h2>{{.FocusNode}}</h2>
<table class="focus-group">
<thead><tr><th>result</th>{{range .Columns}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody>
{{- range .Rows}}
<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
{{- end}}
</tbody>
</table>
{{- end}}
</section>
{{- if .Triples.Rows}}
<section id="triples">
<h2>Triples</h2>
<table>
<thead><tr>{{range .TripleHeaders}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody>
{{- range .Triples.Rows}}
<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
{{- end}}
</tbody>
</table>
</section>
{{- end}}
</body>
</html>
`))

type groupView struct {
	FocusNode string
	Columns   []string
	Rows      [][]string
}

type pageView struct {
	Title         string
	BindingCount  int
	ResultCount   int
	CheckedLabel  string
	Counts        []report.ValueCount
	Groups        []groupView
	Triples       Table
	TripleHeaders []string
}

// HTML writes doc as a standalone HTML page: a summary of results per
// checked property, one table per focus node, then the triples table.
func HTML(w io.Writer, doc Document) error {
	return pageTemplate.Execute(w, newPageView(doc))
}

func newPageView(doc Document) pageView {
	v := pageView{
		Title:         doc.Title,
		Triples:       doc.Triples,
		TripleHeaders: upper(doc.Triples.Columns),
	}
	if v.Title == "" {
		v.Title = "SHACL Validation Report"
	}

	r := doc.Report
	if r == nil {
		return v
	}
	v.BindingCount = r.BindingCount
	v.ResultCount = r.ResultCount()
	v.CheckedLabel = Compact(r.Config.CheckedPropertyPredicate)
	v.Counts = r.Counts.Sorted()
	for i := range v.Counts {
		v.Counts[i].Value = Compact(v.Counts[i].Value)
	}

	for _, g := range r.Groups {
		v.Groups = append(v.Groups, newGroupView(g, r.Config.FocusNodePredicate))
	}
	return v
}

// newGroupView lays out a focus group with one column per predicate, in the
// order predicates were first seen. The focus node itself is the heading, so
// its column is left out.
func newGroupView(g report.FocusGroup, focusKey string) groupView {
	v := groupView{FocusNode: g.FocusNode}

	var preds []string
	seen := map[string]struct{}{focusKey: {}}
	for _, rec := range g.Records {
		for _, p := range rec.Predicates() {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			preds = append(preds, p)
		}
	}
	for _, p := range preds {
		v.Columns = append(v.Columns, Compact(p))
	}

	for _, rec := range g.Records {
		row := make([]string, 0, len(preds)+1)
		row = append(row, rec.Subject)
		for _, p := range preds {
			val, _ := rec.Get(p)
			row = append(row, Compact(val))
		}
		v.Rows = append(v.Rows, row)
	}
	return v
}

func upper(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = strings.ToUpper(c)
	}
	return out
}
