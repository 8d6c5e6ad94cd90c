package sparql

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"strings"

	"github.com/duynguyendang/shaclreport/pkg/meb"
	"github.com/duynguyendang/shaclreport/pkg/rdf"
)

// Source is the store a query is evaluated against. Empty arguments are wildcards.
type Source interface {
	ScanContext(ctx context.Context, s, p, o string) iter.Seq2[meb.Fact, error]
}

// Result holds the solutions of a query. Row values are display strings:
// the IRI, "_:label" for blank nodes, or a literal's lexical form.
// Variables left unbound by a solution are absent from its row.
type Result struct {
	Variables []string            `json:"variables"`
	Rows      []map[string]string `json:"rows"`
}

// solution maps variable names to encoded terms.
type solution map[string]string

// Execute parses and evaluates src.
func Execute(ctx context.Context, src Source, query string) (*Result, error) {
	q, err := Parse(query)
	if err != nil {
		return nil, err
	}
	return Eval(ctx, src, q)
}

// Eval evaluates a parsed query with a nested-loop join over the patterns
// in the order they were written.
func Eval(ctx context.Context, src Source, q *Query) (*Result, error) {
	solutions := []solution{{}}

	for _, pat := range q.Patterns {
		var next []solution
		for _, sol := range solutions {
			matched, err := joinPattern(ctx, src, pat, sol)
			if err != nil {
				return nil, err
			}
			next = append(next, matched...)
		}
		solutions = next
		if len(solutions) == 0 {
			break
		}
	}

	kept := solutions[:0]
	for _, sol := range solutions {
		if passesFilters(q.Filters, sol) {
			kept = append(kept, sol)
		}
	}

	res := project(q, kept)
	slog.Debug("sparql query evaluated",
		"patterns", len(q.Patterns),
		"filters", len(q.Filters),
		"rows", len(res.Rows),
	)
	return res, nil
}

// joinPattern extends sol with every fact matching pat.
func joinPattern(ctx context.Context, src Source, pat Pattern, sol solution) ([]solution, error) {
	nodes := [3]Node{pat.Subject, pat.Predicate, pat.Object}
	var args [3]string
	for i, n := range nodes {
		if !n.IsVar() {
			args[i] = n.Term
		} else if v, ok := sol[n.Var]; ok {
			args[i] = v
		}
	}

	var out []solution
	for fact, err := range src.ScanContext(ctx, args[0], args[1], args[2]) {
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", pat, err)
		}
		values := [3]string{fact.Subject, fact.Predicate, fact.Object}

		ext := make(solution, len(sol)+3)
		for k, v := range sol {
			ext[k] = v
		}
		consistent := true
		for i, n := range nodes {
			if !n.IsVar() {
				continue
			}
			// A variable repeated inside one pattern must match itself.
			if prev, ok := ext[n.Var]; ok && prev != values[i] {
				consistent = false
				break
			}
			ext[n.Var] = values[i]
		}
		if consistent {
			out = append(out, ext)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// passesFilters treats a filter over an unbound variable as false.
func passesFilters(filters []Filter, sol solution) bool {
	for _, f := range filters {
		left, ok := operand(f.Left, sol)
		if !ok {
			return false
		}
		switch f.Op {
		case OpRegex:
			if !f.Regex.MatchString(rdf.Display(left)) {
				return false
			}
		case OpEqual, OpNotEqual:
			right, ok := operand(f.Right, sol)
			if !ok {
				return false
			}
			if (left == right) != (f.Op == OpEqual) {
				return false
			}
		}
	}
	return true
}

func operand(n Node, sol solution) (string, bool) {
	if !n.IsVar() {
		return n.Term, true
	}
	v, ok := sol[n.Var]
	return v, ok
}

func project(q *Query, sols []solution) *Result {
	vars := q.ProjectedVars()
	res := &Result{Variables: vars, Rows: make([]map[string]string, 0, len(sols))}

	seen := make(map[string]struct{})
	skipped := 0
	for _, sol := range sols {
		row := make(map[string]string, len(vars))
		for _, v := range vars {
			if term, ok := sol[v]; ok {
				row[v] = rdf.Display(term)
			}
		}
		if q.Distinct {
			key := distinctKey(vars, sol)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
		}
		if skipped < q.Offset {
			skipped++
			continue
		}
		if q.Limit >= 0 && len(res.Rows) >= q.Limit {
			break
		}
		res.Rows = append(res.Rows, row)
	}
	return res
}

// distinctKey compares encoded terms so a literal and an IRI with the same
// text stay distinct.
func distinctKey(vars []string, sol solution) string {
	var b strings.Builder
	for _, v := range vars {
		if term, ok := sol[v]; ok {
			b.WriteString(term)
		}
		b.WriteByte(0)
	}
	return b.String()
}
