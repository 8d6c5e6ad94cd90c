// Package sparql evaluates a subset of SPARQL SELECT queries (basic graph
// patterns with simple filters) against the triple store.
package sparql

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrSyntax is returned for malformed queries and for syntax outside the
// supported subset.
var ErrSyntax = errors.New("sparql syntax error")

func syntaxErr(pos int, msg string) error {
	return fmt.Errorf("%w at offset %d: %s", ErrSyntax, pos, msg)
}

const (
	rdfType    = "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"
	xsdInteger = "http://www.w3.org/2001/XMLSchema#integer"
	xsdDecimal = "http://www.w3.org/2001/XMLSchema#decimal"
	xsdBoolean = "http://www.w3.org/2001/XMLSchema#boolean"
)

// Node is one position of a triple pattern: a variable or a constant term
// in the store's encoded form.
type Node struct {
	Var  string
	Term string
}

// IsVar reports whether n is a variable.
func (n Node) IsVar() bool { return n.Var != "" }

func (n Node) String() string {
	if n.IsVar() {
		return "?" + n.Var
	}
	return n.Term
}

// Pattern is a triple pattern.
type Pattern struct {
	Subject, Predicate, Object Node
}

func (p Pattern) String() string {
	return fmt.Sprintf("%s %s %s", p.Subject, p.Predicate, p.Object)
}

// FilterOp is the comparison a Filter performs.
type FilterOp int

const (
	OpEqual FilterOp = iota
	OpNotEqual
	OpRegex
)

// Filter removes solutions that do not satisfy a comparison.
type Filter struct {
	Op    FilterOp
	Left  Node
	Right Node           // for OpEqual and OpNotEqual
	Regex *regexp.Regexp // for OpRegex
}

// Query is a parsed SELECT query.
type Query struct {
	Prefixes  map[string]string
	Variables []string // projection; empty when Star
	Star      bool
	Distinct  bool
	Patterns  []Pattern
	Filters   []Filter
	Limit     int // -1 means no limit
	Offset    int
}

// ProjectedVars returns the variables a result row may carry, in order.
// For SELECT * that is every named variable in pattern order.
func (q *Query) ProjectedVars() []string {
	if !q.Star {
		return q.Variables
	}
	seen := make(map[string]struct{})
	var vars []string
	for _, p := range q.Patterns {
		for _, n := range []Node{p.Subject, p.Predicate, p.Object} {
			if !n.IsVar() || isBlankVar(n.Var) {
				continue
			}
			if _, ok := seen[n.Var]; ok {
				continue
			}
			seen[n.Var] = struct{}{}
			vars = append(vars, n.Var)
		}
	}
	return vars
}

// Blank nodes in a pattern behave as variables that are never projected.
func isBlankVar(v string) bool { return strings.HasPrefix(v, "_:") }

// ResultQuery returns the query that selects every triple about the
// resources linked from a report through resultPredicate.
func ResultQuery(resultPredicate string) string {
	return fmt.Sprintf("SELECT ?s ?p ?o WHERE { ?report <%s> ?s . ?s ?p ?o . }", resultPredicate)
}
