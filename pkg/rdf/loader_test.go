package rdf

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/duynguyendang/shaclreport/pkg/meb"
	"github.com/duynguyendang/shaclreport/pkg/meb/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const reportTTL = `@prefix sh: <http://www.w3.org/ns/shacl#> .
@prefix ex: <http://example.org/> .

ex:report a sh:ValidationReport ;
    sh:conforms false ;
    sh:result ex:r1, ex:r2 .

ex:r1 a sh:ValidationResult ;
    sh:focusNode ex:alice ;
    sh:resultPath ex:name ;
    sh:resultMessage "Missing name"@en .

ex:r2 a sh:ValidationResult ;
    sh:focusNode ex:alice ;
    sh:resultPath ex:age .
`

type sliceWriter struct {
	facts   []meb.Fact
	batches int
}

func (w *sliceWriter) AddFactBatch(facts []meb.Fact) (int, error) {
	w.batches++
	w.facts = append(w.facts, facts...)
	return len(facts), nil
}

func TestLoad_Turtle(t *testing.T) {
	w := &sliceWriter{}
	stats, err := Load(context.Background(), strings.NewReader(reportTTL), FormatTurtle, w, 4)
	require.NoError(t, err)

	assert.Equal(t, 11, stats.Parsed)
	assert.Equal(t, 11, stats.Stored)
	assert.Equal(t, 3, w.batches)

	assert.Contains(t, w.facts, meb.NewFact(
		"<http://example.org/report>",
		"<http://www.w3.org/ns/shacl#result>",
		"<http://example.org/r2>",
	))
	assert.Contains(t, w.facts, meb.NewFact(
		"<http://example.org/r1>",
		"<http://www.w3.org/ns/shacl#resultMessage>",
		`"Missing name"@en`,
	))
}

func TestLoad_NTriples(t *testing.T) {
	doc := `<http://ex/a> <http://ex/p> "v" .
_:b1 <http://ex/p> <http://ex/a> .
`
	w := &sliceWriter{}
	stats, err := Load(context.Background(), strings.NewReader(doc), FormatNTriples, w, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Parsed)
	assert.Equal(t, `"v"`, w.facts[0].Object)
	assert.Equal(t, "_:b1", w.facts[1].Subject)
}

func TestLoad_SyntaxError(t *testing.T) {
	_, err := Load(context.Background(), strings.NewReader("ex:a ex:b ."), FormatTurtle, &sliceWriter{}, 0)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestLoad_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Load(ctx, strings.NewReader(reportTTL), FormatTurtle, &sliceWriter{}, 0)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoad_IntoStore(t *testing.T) {
	s, err := meb.NewMEBStore(store.InMemoryConfig())
	require.NoError(t, err)
	defer s.Close()

	stats, err := Load(context.Background(), strings.NewReader(reportTTL), FormatTurtle, s, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(stats.Stored), s.Count())

	var results []string
	for f, err := range s.Scan("<http://example.org/report>", "<http://www.w3.org/ns/shacl#result>", "") {
		require.NoError(t, err)
		results = append(results, Display(f.Object))
	}
	assert.ElementsMatch(t, []string{"http://example.org/r1", "http://example.org/r2"}, results)
}

func TestFormats(t *testing.T) {
	f, err := FormatFromFilename("report.TTL")
	require.NoError(t, err)
	assert.Equal(t, FormatTurtle, f)

	f, err = FormatFromFilename("dump.nt")
	require.NoError(t, err)
	assert.Equal(t, FormatNTriples, f)

	_, err = FormatFromFilename("report.jsonld")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	f, err = ParseFormat("text/turtle")
	require.NoError(t, err)
	assert.Equal(t, FormatTurtle, f)

	_, err = ParseFormat("rdf/xml")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = Load(context.Background(), strings.NewReader(""), Format("xml"), &sliceWriter{}, 0)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestWriteNTriples(t *testing.T) {
	facts := []meb.Fact{
		meb.NewFact("<http://ex/a>", "<http://ex/p>", `"hi"@en`),
		meb.NewFact("_:b0", "<http://ex/p>", "<http://ex/a>"),
	}
	var buf bytes.Buffer
	require.NoError(t, WriteNTriples(&buf, facts))

	w := &sliceWriter{}
	_, err := Load(context.Background(), &buf, FormatNTriples, w, 0)
	require.NoError(t, err)
	require.Len(t, w.facts, 2)
	assert.Equal(t, facts[0], w.facts[0])
	assert.Equal(t, "<http://ex/a>", w.facts[1].Object)
}
