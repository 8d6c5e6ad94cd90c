package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scenarioBindings() []Binding {
	return []Binding{
		{Subject: "A", Predicate: "type", Object: "Result"},
		{Subject: "A", Predicate: "focusNode", Object: "N1"},
		{Subject: "B", Predicate: "type", Object: "Result"},
		{Subject: "B", Predicate: "focusNode", Object: "N1"},
		{Subject: "C", Predicate: "type", Object: "Result"},
		{Subject: "C", Predicate: "focusNode", Object: "N2"},
	}
}

func subjects(records []*SubjectRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Subject
	}
	return out
}

func TestAggregateBySubject_Scenario(t *testing.T) {
	records := AggregateBySubject(scenarioBindings())

	require.Len(t, records, 3)
	assert.Equal(t, []string{"A", "B", "C"}, subjects(records))
	for _, r := range records {
		assert.Equal(t, "Result", r.Fields["type"])
		assert.Contains(t, r.Fields, "focusNode")
		assert.Equal(t, []string{"type", "focusNode"}, r.Predicates())
	}
}

func TestAggregateBySubject_Empty(t *testing.T) {
	records := AggregateBySubject(nil)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestAggregateBySubject_OnePerDistinctSubject(t *testing.T) {
	bindings := []Binding{
		{Subject: "x", Predicate: "p1", Object: "1"},
		{Subject: "y", Predicate: "p1", Object: "2"},
		{Subject: "x", Predicate: "p2", Object: "3"},
		{Subject: "z", Predicate: "p1", Object: "4"},
		{Subject: "y", Predicate: "p2", Object: "5"},
	}
	records := AggregateBySubject(bindings)

	assert.Equal(t, []string{"x", "y", "z"}, subjects(records))
	assert.Equal(t, map[string]string{"p1": "1", "p2": "3"}, records[0].Fields)
	assert.Equal(t, map[string]string{"p1": "2", "p2": "5"}, records[1].Fields)
	assert.Equal(t, map[string]string{"p1": "4"}, records[2].Fields)
}

func TestAggregateBySubject_LastWriteWins(t *testing.T) {
	records := AggregateBySubject([]Binding{
		{Subject: "A", Predicate: "msg", Object: "first"},
		{Subject: "A", Predicate: "other", Object: "x"},
		{Subject: "A", Predicate: "msg", Object: "second"},
	})

	require.Len(t, records, 1)
	assert.Equal(t, "second", records[0].Fields["msg"])
	// overwrite keeps the original position
	assert.Equal(t, []string{"msg", "other"}, records[0].Predicates())
}

func TestAggregateBySubject_SubjectPredicateDoesNotClobberIdentity(t *testing.T) {
	records := AggregateBySubject([]Binding{
		{Subject: "A", Predicate: "subject", Object: "not-A"},
	})

	require.Len(t, records, 1)
	assert.Equal(t, "A", records[0].Subject)
	assert.Equal(t, "not-A", records[0].Fields["subject"])
}

func TestAggregateBySubject_AcceptsEmptyStrings(t *testing.T) {
	records := AggregateBySubject([]Binding{{}})

	require.Len(t, records, 1)
	assert.Equal(t, "", records[0].Subject)
	assert.Equal(t, map[string]string{"": ""}, records[0].Fields)
}

func TestGroupByFocusNode_Scenario(t *testing.T) {
	groups := GroupByFocusNode(AggregateBySubject(scenarioBindings()), "focusNode")

	require.Len(t, groups, 2)
	assert.Equal(t, "N1", groups[0].FocusNode)
	assert.Equal(t, []string{"A", "B"}, subjects(groups[0].Records))
	assert.Equal(t, "N2", groups[1].FocusNode)
	assert.Equal(t, []string{"C"}, subjects(groups[1].Records))
}

func TestGroupByFocusNode_ExcludesRecordsWithoutKey(t *testing.T) {
	records := AggregateBySubject([]Binding{
		{Subject: "A", Predicate: "focusNode", Object: "N1"},
		{Subject: "B", Predicate: "type", Object: "Result"},
		{Subject: "C", Predicate: "focusNode", Object: "N1"},
	})

	groups := GroupByFocusNode(records, "focusNode")

	require.Len(t, groups, 1)
	assert.Equal(t, []string{"A", "C"}, subjects(groups[0].Records))
}

func TestGroupByFocusNode_EmptyFocusNodeIsValid(t *testing.T) {
	records := AggregateBySubject([]Binding{
		{Subject: "A", Predicate: "focusNode", Object: ""},
		{Subject: "B", Predicate: "focusNode", Object: ""},
		{Subject: "C", Predicate: "focusNode", Object: "0"},
	})

	groups := GroupByFocusNode(records, "focusNode")

	require.Len(t, groups, 2)
	assert.Equal(t, "", groups[0].FocusNode)
	assert.Equal(t, []string{"A", "B"}, subjects(groups[0].Records))
	assert.Equal(t, "0", groups[1].FocusNode)
}

func TestGroupByFocusNode_ConservesRecords(t *testing.T) {
	bindings := []Binding{
		{Subject: "r1", Predicate: "fn", Object: "a"},
		{Subject: "r2", Predicate: "fn", Object: "b"},
		{Subject: "r3", Predicate: "x", Object: "y"},
		{Subject: "r4", Predicate: "fn", Object: "a"},
		{Subject: "r5", Predicate: "fn", Object: "c"},
		{Subject: "r6", Predicate: "fn", Object: "b"},
	}
	records := AggregateBySubject(bindings)
	groups := GroupByFocusNode(records, "fn")

	seen := make(map[*SubjectRecord]int)
	for _, g := range groups {
		for _, r := range g.Records {
			seen[r]++
			assert.Equal(t, g.FocusNode, r.Fields["fn"])
		}
	}

	withKey := 0
	for _, r := range records {
		if _, ok := r.Fields["fn"]; ok {
			withKey++
			assert.Equal(t, 1, seen[r], "record %s must be in exactly one group", r.Subject)
		} else {
			assert.Zero(t, seen[r])
		}
	}
	assert.Len(t, seen, withKey)
	assert.Equal(t, []string{"a", "b", "c"}, []string{groups[0].FocusNode, groups[1].FocusNode, groups[2].FocusNode})
}

func TestGroupByFocusNode_DoesNotMutateRecords(t *testing.T) {
	records := AggregateBySubject(scenarioBindings())
	before := make([]map[string]string, len(records))
	for i, r := range records {
		before[i] = r.Fields
	}

	_ = GroupByFocusNode(records, "focusNode")
	_ = CountByPredicateValue(records, "type")

	for i, r := range records {
		assert.Equal(t, before[i], r.Fields)
	}
}

func TestCountByPredicateValue_Scenario(t *testing.T) {
	counts := CountByPredicateValue(AggregateBySubject(scenarioBindings()), "type")

	assert.Equal(t, map[string]int{"Result": 3}, counts.Map())
	assert.Equal(t, 3, counts.Total())
}

func TestCountByPredicateValue_SumEqualsRecordsWithKey(t *testing.T) {
	records := AggregateBySubject([]Binding{
		{Subject: "A", Predicate: "path", Object: "name"},
		{Subject: "B", Predicate: "path", Object: "email"},
		{Subject: "C", Predicate: "path", Object: "name"},
		{Subject: "D", Predicate: "other", Object: "x"},
	})

	counts := CountByPredicateValue(records, "path")

	assert.Equal(t, 3, counts.Total())
	assert.Equal(t, 2, counts.Count("name"))
	assert.Equal(t, 1, counts.Count("email"))
	assert.Equal(t, 0, counts.Count("missing"))
	assert.Equal(t, []ValueCount{{"name", 2}, {"email", 1}}, counts.Entries())
}

func TestCountByPredicateValue_CountsRecordsMissingFocusNode(t *testing.T) {
	records := AggregateBySubject([]Binding{
		{Subject: "A", Predicate: "focusNode", Object: "N1"},
		{Subject: "A", Predicate: "type", Object: "Result"},
		{Subject: "B", Predicate: "type", Object: "Result"},
	})

	groups := GroupByFocusNode(records, "focusNode")
	counts := CountByPredicateValue(records, "type")

	require.Len(t, groups, 1)
	assert.Len(t, groups[0].Records, 1)
	assert.Equal(t, 2, counts.Count("Result"))
}

func TestCountByPredicateValue_Sorted(t *testing.T) {
	records := AggregateBySubject([]Binding{
		{Subject: "1", Predicate: "k", Object: "b"},
		{Subject: "2", Predicate: "k", Object: "c"},
		{Subject: "3", Predicate: "k", Object: "c"},
		{Subject: "4", Predicate: "k", Object: "a"},
	})

	counts := CountByPredicateValue(records, "k")

	assert.Equal(t, []ValueCount{{"c", 2}, {"a", 1}, {"b", 1}}, counts.Sorted())
}

func TestEmptyInputYieldsEmptyOutputs(t *testing.T) {
	records := AggregateBySubject([]Binding{})
	groups := GroupByFocusNode(records, "focusNode")
	counts := CountByPredicateValue(records, "type")

	assert.Empty(t, records)
	assert.Empty(t, groups)
	assert.Zero(t, counts.Len())
	assert.Empty(t, counts.Map())
}

func TestOperationsAreIdempotent(t *testing.T) {
	bindings := scenarioBindings()

	r1 := AggregateBySubject(bindings)
	r2 := AggregateBySubject(bindings)
	assert.Equal(t, r1, r2)

	assert.Equal(t, GroupByFocusNode(r1, "focusNode"), GroupByFocusNode(r1, "focusNode"))
	assert.Equal(t, CountByPredicateValue(r1, "type"), CountByPredicateValue(r1, "type"))
}
