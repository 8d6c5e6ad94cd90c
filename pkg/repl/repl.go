// Package repl runs an interactive SPARQL shell over one dataset.
package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/duynguyendang/shaclreport/internal/manager"
	"github.com/duynguyendang/shaclreport/pkg/export"
	"github.com/duynguyendang/shaclreport/pkg/render"
	"github.com/duynguyendang/shaclreport/pkg/service"
	"github.com/duynguyendang/shaclreport/pkg/sparql"
)

// DisplayLimit is the number of rows printed per query.
const DisplayLimit = 10

// Backend is the part of the report service the shell drives.
type Backend interface {
	Dataset(id string) (manager.DatasetMetadata, error)
	Query(ctx context.Context, id, query string) (*sparql.Result, error)
	Predicates(id, near string, limit int) ([]string, error)
	Triples(ctx context.Context, id string, limit int) (render.Table, error)
	RenderReport(ctx context.Context, id string, format render.Format, w io.Writer) error
	Graph(ctx context.Context, id string) (*export.D3Graph, error)
	Source(id string) ([]byte, error)
}

var commands = []string{"help", "predicates", "triples", "report", "export", "source", "history", "exit", "quit"}

const helpText = `Commands:
  predicates [near]   list predicates, ranked by similarity to near
  triples [n]         show the first n stored triples
  report [format]     render the validation report (markdown, html, json)
  export FILE         save the report graph as D3 JSON
  source              print the loaded document
  history             list the queries run in this session
  exit, quit          leave the shell
Anything starting with SELECT, PREFIX or BASE runs as SPARQL. A query may span
lines until its braces balance.`

// REPL reads commands and queries from in and writes results to out.
type REPL struct {
	backend   Backend
	datasetID string
	in        io.Reader
	out       io.Writer
	session   *Session
}

// New creates a shell over datasetID.
func New(backend Backend, datasetID string, in io.Reader, out io.Writer) *REPL {
	return &REPL{
		backend:   backend,
		datasetID: datasetID,
		in:        in,
		out:       out,
		session:   NewSession(),
	}
}

// Session returns the shell's session state.
func (r *REPL) Session() *Session {
	return r.session
}

// Run loops until exit, end of input or ctx cancellation.
func (r *REPL) Run(ctx context.Context) error {
	meta, err := r.backend.Dataset(r.datasetID)
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "--- %s (%d triples) ---\n", meta.Name, meta.Triples)
	fmt.Fprintln(r.out, "Type 'help' for commands, 'exit' to stop.")

	scanner := bufio.NewScanner(r.in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var pending strings.Builder
	for {
		if pending.Len() == 0 {
			fmt.Fprint(r.out, "> ")
		} else {
			fmt.Fprint(r.out, ". ")
		}
		if !scanner.Scan() {
			break
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if pending.Len() > 0 {
			pending.WriteString("\n")
			pending.WriteString(line)
			if balanced(pending.String()) {
				r.runQuery(ctx, pending.String())
				pending.Reset()
			}
			continue
		}
		if line == "" {
			continue
		}
		if isQuery(line) {
			if balanced(line) {
				r.runQuery(ctx, line)
			} else {
				pending.WriteString(line)
			}
			continue
		}
		if !r.runCommand(ctx, line) {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	fmt.Fprintln(r.out, "Bye!")
	return nil
}

// runCommand executes one shell command and reports whether to keep going.
func (r *REPL) runCommand(ctx context.Context, line string) bool {
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(name) {
	case "exit", "quit":
		return false
	case "help":
		fmt.Fprintln(r.out, helpText)
	case "predicates":
		preds, err := r.backend.Predicates(r.datasetID, arg, 0)
		if err != nil {
			r.fail(err)
			break
		}
		for _, p := range preds {
			fmt.Fprintf(r.out, " - %s\n", p)
		}
	case "triples":
		n := DisplayLimit
		if arg != "" {
			v, err := strconv.Atoi(arg)
			if err != nil || v <= 0 {
				fmt.Fprintln(r.out, "Usage: triples [n]")
				break
			}
			n = v
		}
		table, err := r.backend.Triples(ctx, r.datasetID, n)
		if err != nil {
			r.fail(err)
			break
		}
		_ = render.Text(r.out, table)
	case "report":
		format := render.FormatMarkdown
		if arg != "" {
			f, err := render.ParseFormat(arg)
			if err != nil {
				r.fail(err)
				break
			}
			format = f
		}
		if err := r.backend.RenderReport(ctx, r.datasetID, format, r.out); err != nil {
			r.fail(err)
		}
	case "export":
		if arg == "" {
			fmt.Fprintln(r.out, "Usage: export FILE")
			break
		}
		graph, err := r.backend.Graph(ctx, r.datasetID)
		if err != nil {
			r.fail(err)
			break
		}
		if err := export.SaveD3Graph(graph, arg); err != nil {
			r.fail(err)
			break
		}
		fmt.Fprintf(r.out, "Exported %d nodes and %d links to %s\n", len(graph.Nodes), len(graph.Links), arg)
	case "source":
		src, err := r.backend.Source(r.datasetID)
		if err != nil {
			r.fail(err)
			break
		}
		fmt.Fprintln(r.out, strings.TrimRight(string(src), "\n"))
	case "history":
		for i, q := range r.session.History {
			fmt.Fprintf(r.out, "%3d  %s\n", i+1, strings.Join(strings.Fields(q), " "))
		}
	default:
		fmt.Fprintf(r.out, "Unknown command %q.", name)
		if m := service.FindBySimilarity(strings.ToLower(name), commands, 1); len(m) > 0 {
			fmt.Fprintf(r.out, " Did you mean %q?", m[0].Value)
		}
		fmt.Fprintln(r.out)
	}
	return true
}

func (r *REPL) runQuery(ctx context.Context, query string) {
	res, err := r.backend.Query(ctx, r.datasetID, query)
	if err != nil {
		r.fail(err)
		return
	}
	r.session.Record(query, res)

	if len(res.Rows) == 0 {
		fmt.Fprintln(r.out, "[No results]")
		return
	}
	fmt.Fprintf(r.out, "Found %d results:\n", len(res.Rows))
	_ = render.Text(r.out, render.TableFromRows(res.Variables, res.Rows, DisplayLimit))
	if len(res.Rows) > DisplayLimit {
		fmt.Fprintf(r.out, "... and %d more\n", len(res.Rows)-DisplayLimit)
	}
}

func (r *REPL) fail(err error) {
	fmt.Fprintf(r.out, "Error: %v\n", err)
}

// isQuery reports whether line starts a SPARQL query.
func isQuery(line string) bool {
	word, _, _ := strings.Cut(line, " ")
	switch strings.ToUpper(word) {
	case "SELECT", "PREFIX", "BASE":
		return true
	}
	return false
}

// balanced reports whether every '{' outside IRIs and strings is closed and
// at least one group was opened.
func balanced(q string) bool {
	depth, opened := 0, false
	inIRI, inString := false, false
	for i := 0; i < len(q); i++ {
		c := q[i]
		switch {
		case inString:
			if c == '"' {
				inString = false
			}
		case inIRI:
			if c == '>' {
				inIRI = false
			}
		case c == '"':
			inString = true
		case c == '<':
			// a comparison operator is followed by a space or '='
			inIRI = i+1 < len(q) && q[i+1] != ' ' && q[i+1] != '='
		case c == '{':
			depth++
			opened = true
		case c == '}':
			depth--
		}
	}
	return opened && depth <= 0
}
