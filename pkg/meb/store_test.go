package meb

import (
	"context"
	"testing"

	"github.com/duynguyendang/shaclreport/pkg/meb/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *MEBStore {
	t.Helper()
	s, err := NewMEBStore(store.InMemoryConfig())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func collect(t *testing.T, s *MEBStore, subj, pred, obj string) []Fact {
	t.Helper()
	var out []Fact
	for f, err := range s.Scan(subj, pred, obj) {
		require.NoError(t, err)
		out = append(out, f)
	}
	return out
}

var sample = []Fact{
	NewFact("<urn:r1>", "<urn:focus>", "<urn:n1>"),
	NewFact("<urn:r1>", "<urn:path>", "<urn:name>"),
	NewFact("<urn:r2>", "<urn:focus>", "<urn:n1>"),
	NewFact("<urn:r2>", "<urn:path>", "<urn:age>"),
	NewFact("<urn:r3>", "<urn:msg>", `"too short"@en`),
}

func TestAddFactBatch_Scan(t *testing.T) {
	s := newTestStore(t)

	n, err := s.AddFactBatch(sample)
	require.NoError(t, err)
	assert.Equal(t, len(sample), n)
	assert.Equal(t, uint64(len(sample)), s.Count())

	tests := []struct {
		name          string
		subj, pred, o string
		want          int
	}{
		{"all", "", "", "", 5},
		{"by subject", "<urn:r1>", "", "", 2},
		{"by subject and predicate", "<urn:r1>", "<urn:path>", "", 1},
		{"by object", "", "", "<urn:n1>", 2},
		{"by predicate", "", "<urn:focus>", "", 2},
		{"by predicate and object", "", "<urn:path>", "<urn:age>", 1},
		{"fully bound", "<urn:r2>", "<urn:path>", "<urn:age>", 1},
		{"subject and object", "<urn:r2>", "", "<urn:n1>", 1},
		{"unknown term", "<urn:nope>", "", "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := collect(t, s, tt.subj, tt.pred, tt.o)
			assert.Len(t, got, tt.want)
			for _, f := range got {
				if tt.subj != "" {
					assert.Equal(t, tt.subj, f.Subject)
				}
				if tt.pred != "" {
					assert.Equal(t, tt.pred, f.Predicate)
				}
				if tt.o != "" {
					assert.Equal(t, tt.o, f.Object)
				}
			}
		})
	}
}

func TestAddFactBatch_SkipsDuplicates(t *testing.T) {
	s := newTestStore(t)

	f := NewFact("<urn:a>", "<urn:p>", `"x"`)
	n, err := s.AddFactBatch([]Fact{f, f})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = s.AddFactBatch([]Fact{f})
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, uint64(1), s.Count())
	assert.Len(t, collect(t, s, "", "", ""), 1)
}

func TestAddFactBatch_Validation(t *testing.T) {
	s := newTestStore(t)

	_, err := s.AddFactBatch(nil)
	assert.ErrorIs(t, err, ErrEmptyBatch)

	_, err = s.AddFactBatch([]Fact{{Subject: "<urn:a>", Predicate: "<urn:p>"}})
	assert.ErrorIs(t, err, ErrInvalidFact)

	assert.ErrorIs(t, s.AddFact(Fact{Predicate: "<urn:p>", Object: "1"}), ErrInvalidFact)
}

func TestScanContext_Cancelled(t *testing.T) {
	s := newTestStore(t)
	_, err := s.AddFactBatch(sample)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var gotErr error
	for _, err := range s.ScanContext(ctx, "", "", "") {
		gotErr = err
		break
	}
	assert.ErrorIs(t, gotErr, context.Canceled)
}

func TestContains(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.AddFact(sample[0]))

	ok, err := s.Contains(sample[0])
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Contains(sample[1])
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetAllPredicates(t *testing.T) {
	s := newTestStore(t)

	preds, err := s.GetAllPredicates()
	require.NoError(t, err)
	assert.Empty(t, preds)

	_, err = s.AddFactBatch(sample)
	require.NoError(t, err)

	preds, err = s.GetAllPredicates()
	require.NoError(t, err)
	assert.Equal(t, []string{"<urn:focus>", "<urn:msg>", "<urn:path>"}, preds)
}

func TestMetadata(t *testing.T) {
	s := newTestStore(t)

	v, err := s.GetMetadata("name")
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, s.SetMetadata("name", "report.ttl"))
	require.NoError(t, s.SetMetadata("format", "turtle"))

	v, err = s.GetMetadata("name")
	require.NoError(t, err)
	assert.Equal(t, "report.ttl", v)

	all, err := s.Metadata()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"name": "report.ttl", "format": "turtle"}, all)
}

func TestSource(t *testing.T) {
	s := newTestStore(t)

	got, err := s.GetSource()
	require.NoError(t, err)
	assert.Nil(t, got)

	doc := []byte("@prefix sh: <http://www.w3.org/ns/shacl#> .\n")
	require.NoError(t, s.SetSource(doc))

	got, err = s.GetSource()
	require.NoError(t, err)
	assert.Equal(t, doc, got)
}

func TestRecalculateStats(t *testing.T) {
	s := newTestStore(t)
	_, err := s.AddFactBatch(sample)
	require.NoError(t, err)

	s.numFacts.Store(42)
	n, err := s.RecalculateStats()
	require.NoError(t, err)
	assert.Equal(t, uint64(len(sample)), n)
	assert.Equal(t, n, s.Count())
}

func TestReset(t *testing.T) {
	s := newTestStore(t)
	_, err := s.AddFactBatch(sample)
	require.NoError(t, err)

	require.NoError(t, s.Reset())
	assert.Zero(t, s.Count())
	assert.Empty(t, collect(t, s, "", "", ""))
}

func TestOpen_Persists(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(dir, nil)
	require.NoError(t, err)
	_, err = s.AddFactBatch(sample)
	require.NoError(t, err)
	require.NoError(t, s.SetSource([]byte("src")))
	require.NoError(t, s.Close())

	s, err = Open(dir, nil)
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, uint64(len(sample)), s.Count())
	assert.Len(t, collect(t, s, "<urn:r2>", "", ""), 2)
	src, err := s.GetSource()
	require.NoError(t, err)
	assert.Equal(t, "src", string(src))
}
