package report

import (
	"fmt"
	"strings"
)

// Default projection variables of the report query.
const (
	DefaultSubjectVar   = "s"
	DefaultPredicateVar = "p"
	DefaultObjectVar    = "o"
)

// BindingsFromRows flattens query rows into Bindings using the named
// projection variables. Variable names may be given with or without "?".
func BindingsFromRows(rows []map[string]string, subjectVar, predicateVar, objectVar string) ([]Binding, error) {
	sv := strings.TrimPrefix(subjectVar, "?")
	pv := strings.TrimPrefix(predicateVar, "?")
	ov := strings.TrimPrefix(objectVar, "?")

	bindings := make([]Binding, 0, len(rows))
	for i, row := range rows {
		s, ok := row[sv]
		if !ok {
			return nil, fmt.Errorf("row %d: variable ?%s is unbound", i, sv)
		}
		p, ok := row[pv]
		if !ok {
			return nil, fmt.Errorf("row %d: variable ?%s is unbound", i, pv)
		}
		o, ok := row[ov]
		if !ok {
			return nil, fmt.Errorf("row %d: variable ?%s is unbound", i, ov)
		}
		bindings = append(bindings, Binding{Subject: s, Predicate: p, Object: o})
	}
	return bindings, nil
}
