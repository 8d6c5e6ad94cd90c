package repl

import "github.com/duynguyendang/shaclreport/pkg/sparql"

// maxHistory bounds the remembered queries.
const maxHistory = 20

// Session keeps the query state across REPL lines.
type Session struct {
	// LastQuery is the most recent query that ran without error.
	LastQuery string

	// LastResult holds its rows.
	LastResult *sparql.Result

	// History lists executed queries, oldest first.
	History []string
}

// NewSession creates an empty session.
func NewSession() *Session {
	return &Session{History: make([]string, 0)}
}

// Record stores a successful query and its result.
func (s *Session) Record(query string, res *sparql.Result) {
	s.LastQuery = query
	s.LastResult = res
	s.History = append(s.History, query)

	if len(s.History) > maxHistory {
		s.History = s.History[len(s.History)-maxHistory:]
	}
}

// HasResult returns true if a query has run.
func (s *Session) HasResult() bool {
	return s.LastResult != nil
}
