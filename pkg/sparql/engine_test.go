package sparql

import (
	"context"
	"iter"
	"testing"

	"github.com/duynguyendang/shaclreport/pkg/meb"
	"github.com/duynguyendang/shaclreport/pkg/meb/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memSource is a slice-backed Source.
type memSource []meb.Fact

func (m memSource) ScanContext(ctx context.Context, s, p, o string) iter.Seq2[meb.Fact, error] {
	return func(yield func(meb.Fact, error) bool) {
		for _, f := range m {
			if err := ctx.Err(); err != nil {
				yield(meb.Fact{}, err)
				return
			}
			if (s != "" && f.Subject != s) || (p != "" && f.Predicate != p) || (o != "" && f.Object != o) {
				continue
			}
			if !yield(f, nil) {
				return
			}
		}
	}
}

func sh(local string) string { return "<" + shNS + local + ">" }

var reportFacts = memSource{
	meb.NewFact("<urn:report>", sh("result"), "<urn:r1>"),
	meb.NewFact("<urn:report>", sh("result"), "_:r2"),
	meb.NewFact("<urn:r1>", sh("focusNode"), "<urn:alice>"),
	meb.NewFact("<urn:r1>", sh("resultPath"), "<urn:name>"),
	meb.NewFact("_:r2", sh("focusNode"), "<urn:alice>"),
	meb.NewFact("_:r2", sh("resultPath"), "<urn:age>"),
	meb.NewFact("_:r2", sh("resultMessage"), `"Too young"@en`),
	meb.NewFact("<urn:other>", sh("focusNode"), "<urn:bob>"),
}

const defaultQuery = `PREFIX sh: <http://www.w3.org/ns/shacl#>
SELECT ?s ?p ?o WHERE { ?report sh:result ?s . ?s ?p ?o . }`

func TestExecute_DefaultQuery(t *testing.T) {
	res, err := Execute(context.Background(), reportFacts, defaultQuery)
	require.NoError(t, err)

	assert.Equal(t, []string{"s", "p", "o"}, res.Variables)
	assert.Equal(t, []map[string]string{
		{"s": "urn:r1", "p": shNS + "focusNode", "o": "urn:alice"},
		{"s": "urn:r1", "p": shNS + "resultPath", "o": "urn:name"},
		{"s": "_:r2", "p": shNS + "focusNode", "o": "urn:alice"},
		{"s": "_:r2", "p": shNS + "resultPath", "o": "urn:age"},
		{"s": "_:r2", "p": shNS + "resultMessage", "o": "Too young"},
	}, res.Rows)
}

func TestExecute_Filters(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  int
	}{
		{"equal iri", `SELECT ?s WHERE { ?s ?p ?o FILTER(?o = <urn:alice>) }`, 2},
		{"not equal", `SELECT ?s WHERE { ?s ?p ?o FILTER(?p != <` + shNS + `focusNode>) }`, 5},
		{"regex on literal", `SELECT ?s WHERE { ?s ?p ?o FILTER regex(?o, "young", "i") }`, 1},
		{"regex on iri", `SELECT ?s WHERE { ?s ?p ?o FILTER regex(?s, "^urn:r[0-9]") }`, 2},
		{"lang literal equal", `SELECT ?s WHERE { ?s ?p ?o FILTER(?o = "Too young"@en) }`, 1},
		{"plain does not match lang", `SELECT ?s WHERE { ?s ?p ?o FILTER(?o = "Too young") }`, 0},
		{"unbound variable drops row", `SELECT ?s WHERE { ?s ?p ?o FILTER(?zzz = 1) }`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Execute(context.Background(), reportFacts, tt.query)
			require.NoError(t, err)
			assert.Len(t, res.Rows, tt.want)
		})
	}
}

func TestExecute_DistinctLimitOffset(t *testing.T) {
	res, err := Execute(context.Background(), reportFacts,
		`SELECT DISTINCT ?f WHERE { ?r <`+shNS+`focusNode> ?f }`)
	require.NoError(t, err)
	assert.Equal(t, []map[string]string{{"f": "urn:alice"}, {"f": "urn:bob"}}, res.Rows)

	res, err = Execute(context.Background(), reportFacts, `SELECT ?s WHERE { ?s ?p ?o } LIMIT 2 OFFSET 1`)
	require.NoError(t, err)
	assert.Equal(t, []map[string]string{{"s": "urn:report"}, {"s": "urn:r1"}}, res.Rows)

	res, err = Execute(context.Background(), reportFacts, `SELECT ?s WHERE { ?s ?p ?o } LIMIT 0`)
	require.NoError(t, err)
	assert.Empty(t, res.Rows)
	assert.NotNil(t, res.Rows)
}

func TestExecute_StarAndBlankVariables(t *testing.T) {
	res, err := Execute(context.Background(), reportFacts,
		`SELECT * WHERE { _:x <`+shNS+`focusNode> ?f . _:x <`+shNS+`resultPath> ?path }`)
	require.NoError(t, err)
	assert.Equal(t, []string{"f", "path"}, res.Variables)
	assert.ElementsMatch(t, []map[string]string{
		{"f": "urn:alice", "path": "urn:name"},
		{"f": "urn:alice", "path": "urn:age"},
	}, res.Rows)
}

func TestExecute_RepeatedVariable(t *testing.T) {
	src := memSource{
		meb.NewFact("<urn:a>", "<urn:p>", "<urn:a>"),
		meb.NewFact("<urn:a>", "<urn:p>", "<urn:b>"),
	}
	res, err := Execute(context.Background(), src, `SELECT ?x WHERE { ?x <urn:p> ?x }`)
	require.NoError(t, err)
	assert.Equal(t, []map[string]string{{"x": "urn:a"}}, res.Rows)
}

func TestExecute_UnboundProjection(t *testing.T) {
	res, err := Execute(context.Background(), reportFacts, `SELECT ?s ?missing WHERE { ?s <`+shNS+`resultPath> ?o }`)
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)
	_, ok := res.Rows[0]["missing"]
	assert.False(t, ok)
}

func TestExecute_NoMatch(t *testing.T) {
	res, err := Execute(context.Background(), reportFacts, `SELECT ?s WHERE { ?s <urn:nothing> ?o . ?o ?p ?v }`)
	require.NoError(t, err)
	assert.Empty(t, res.Rows)
}

func TestExecute_SyntaxError(t *testing.T) {
	_, err := Execute(context.Background(), reportFacts, `ASK { ?s ?p ?o }`)
	assert.ErrorIs(t, err, ErrSyntax)
}

func TestExecute_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Execute(ctx, reportFacts, defaultQuery)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExecute_OverStore(t *testing.T) {
	s, err := meb.NewMEBStore(store.InMemoryConfig())
	require.NoError(t, err)
	defer s.Close()

	_, err = s.AddFactBatch(reportFacts)
	require.NoError(t, err)

	res, err := Execute(context.Background(), s, defaultQuery)
	require.NoError(t, err)
	assert.Len(t, res.Rows, 5)
	assert.Contains(t, res.Rows, map[string]string{"s": "_:r2", "p": shNS + "resultMessage", "o": "Too young"})
}
