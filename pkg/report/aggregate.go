package report

import (
	"encoding/json"
	"sort"
)

// AggregateBySubject groups bindings by subject. Records come back in order of
// first appearance of their subject. A repeated (subject, predicate) pair keeps
// the object of its last occurrence.
func AggregateBySubject(bindings []Binding) []*SubjectRecord {
	records := make([]*SubjectRecord, 0)
	index := make(map[string]*SubjectRecord)

	for _, b := range bindings {
		rec, ok := index[b.Subject]
		if !ok {
			rec = newSubjectRecord(b.Subject)
			index[b.Subject] = rec
			records = append(records, rec)
		}
		rec.set(b.Predicate, b.Object)
	}

	return records
}

// GroupByFocusNode groups records by the value stored under focusNodeKey.
// Records without the key are left out. An empty value is a valid focus node.
func GroupByFocusNode(records []*SubjectRecord, focusNodeKey string) []FocusGroup {
	groups := make([]FocusGroup, 0)
	index := make(map[string]int)

	for _, rec := range records {
		node, ok := rec.Get(focusNodeKey)
		if !ok {
			continue
		}
		i, seen := index[node]
		if !seen {
			i = len(groups)
			index[node] = i
			groups = append(groups, FocusGroup{FocusNode: node})
		}
		groups[i].Records = append(groups[i].Records, rec)
	}

	return groups
}

// CountByPredicateValue tallies how many records carry each value of predicateKey.
func CountByPredicateValue(records []*SubjectRecord, predicateKey string) PredicateCounts {
	counts := newPredicateCounts()
	for _, rec := range records {
		if v, ok := rec.Get(predicateKey); ok {
			counts.inc(v)
		}
	}
	return counts
}

func sortValueCounts(vc []ValueCount) {
	sort.SliceStable(vc, func(i, j int) bool {
		if vc[i].Count != vc[j].Count {
			return vc[i].Count > vc[j].Count
		}
		return vc[i].Value < vc[j].Value
	})
}

// MarshalJSON encodes the counts as an ordered list of entries.
func (pc PredicateCounts) MarshalJSON() ([]byte, error) {
	return json.Marshal(pc.Entries())
}
