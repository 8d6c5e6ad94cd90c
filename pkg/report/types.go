// Package report reshapes flat query bindings into a SHACL validation report.
//
// The pipeline has three pure stages:
//
//	bindings := report.BindingsFromRows(rows, "s", "p", "o")
//	records := report.AggregateBySubject(bindings)
//	groups := report.GroupByFocusNode(records, cfg.FocusNodePredicate)
//	counts := report.CountByPredicateValue(records, cfg.CheckedPropertyPredicate)
//
// Build runs all three and returns a Report for presenters.
package report

// Binding is one flattened query row.
type Binding struct {
	Subject   string `json:"subject"`
	Predicate string `json:"predicate"`
	Object    string `json:"object"`
}

// SubjectRecord is the property bag of one subject.
// The subject identity lives outside Fields, so a predicate named "subject"
// is stored like any other predicate.
type SubjectRecord struct {
	Subject string            `json:"subject"`
	Fields  map[string]string `json:"fields"`

	// order of first sighting of each predicate
	order []string
}

func newSubjectRecord(subject string) *SubjectRecord {
	return &SubjectRecord{
		Subject: subject,
		Fields:  make(map[string]string),
	}
}

// set stores object under predicate, overwriting any earlier value.
func (r *SubjectRecord) set(predicate, object string) {
	if _, ok := r.Fields[predicate]; !ok {
		r.order = append(r.order, predicate)
	}
	r.Fields[predicate] = object
}

// Get returns the value stored under predicate.
func (r *SubjectRecord) Get(predicate string) (string, bool) {
	v, ok := r.Fields[predicate]
	return v, ok
}

// Predicates returns the record's predicates in first-seen order.
func (r *SubjectRecord) Predicates() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// FocusGroup is the list of result records that share a focus node.
type FocusGroup struct {
	FocusNode string           `json:"focusNode"`
	Records   []*SubjectRecord `json:"records"`
}

// ValueCount is one entry of a PredicateCounts summary.
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// PredicateCounts maps each distinct value of a predicate to the number of
// records carrying it. Iteration via Entries follows first-seen order.
type PredicateCounts struct {
	counts map[string]int
	order  []string
}

func newPredicateCounts() PredicateCounts {
	return PredicateCounts{counts: make(map[string]int)}
}

func (pc *PredicateCounts) inc(value string) {
	if _, ok := pc.counts[value]; !ok {
		pc.order = append(pc.order, value)
	}
	pc.counts[value]++
}

// Count returns the tally for value.
func (pc PredicateCounts) Count(value string) int {
	return pc.counts[value]
}

// Len returns the number of distinct values.
func (pc PredicateCounts) Len() int {
	return len(pc.order)
}

// Total returns the sum of all counts.
func (pc PredicateCounts) Total() int {
	total := 0
	for _, c := range pc.counts {
		total += c
	}
	return total
}

// Map returns a copy of the counts as a plain map.
func (pc PredicateCounts) Map() map[string]int {
	out := make(map[string]int, len(pc.counts))
	for k, v := range pc.counts {
		out[k] = v
	}
	return out
}

// Entries returns the counts in first-seen order.
func (pc PredicateCounts) Entries() []ValueCount {
	out := make([]ValueCount, 0, len(pc.order))
	for _, v := range pc.order {
		out = append(out, ValueCount{Value: v, Count: pc.counts[v]})
	}
	return out
}

// Sorted returns the counts by frequency (descending), ties broken by value.
func (pc PredicateCounts) Sorted() []ValueCount {
	out := pc.Entries()
	sortValueCounts(out)
	return out
}
