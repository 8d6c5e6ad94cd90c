package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const reportTTL = `@prefix sh: <http://www.w3.org/ns/shacl#> .
@prefix ex: <http://example.org/> .

ex:report sh:result ex:r1, ex:r2 .
ex:r1 sh:focusNode ex:alice ; sh:resultPath ex:name .
ex:r2 sh:focusNode ex:bob ; sh:resultPath ex:name .
`

// run executes the CLI against dataDir and returns stdout.
func run(t *testing.T, dataDir string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(append([]string{"--data-dir", dataDir, "--log-level", "error"}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestLoadQueryReport(t *testing.T) {
	dir := t.TempDir()
	dataDir := filepath.Join(dir, "data")
	ttl := filepath.Join(dir, "report.ttl")
	require.NoError(t, os.WriteFile(ttl, []byte(reportTTL), 0o644))

	out, err := run(t, dataDir, "load", "--id", "r1", ttl)
	require.NoError(t, err)
	var meta struct {
		ID      string `json:"id"`
		Name    string `json:"name"`
		Triples int    `json:"triples"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &meta))
	assert.Equal(t, "r1", meta.ID)
	assert.Equal(t, "report.ttl", meta.Name)
	assert.Equal(t, 6, meta.Triples)

	out, err = run(t, dataDir, "query", "r1", "SELECT ?r WHERE { ?r <http://www.w3.org/ns/shacl#resultPath> ?p }")
	require.NoError(t, err)
	var res struct {
		Rows []map[string]string `json:"rows"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Len(t, res.Rows, 2)

	out, err = run(t, dataDir, "query", "--table", "r1", "SELECT ?f WHERE { ?r <http://www.w3.org/ns/shacl#focusNode> ?f }")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "f"))
	assert.Contains(t, out, "http://example.org/bob")

	out, err = run(t, dataDir, "report", "--format", "markdown", "r1")
	require.NoError(t, err)
	assert.Contains(t, out, "Validation Report")

	htmlPath := filepath.Join(dir, "report.html")
	_, err = run(t, dataDir, "report", "--out", htmlPath, "r1")
	require.NoError(t, err)
	html, err := os.ReadFile(htmlPath)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(html), `class="focus-group"`))

	out, err = run(t, dataDir, "graph", "r1")
	require.NoError(t, err)
	var graph struct {
		Nodes []json.RawMessage `json:"nodes"`
		Links []json.RawMessage `json:"links"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &graph))
	assert.Len(t, graph.Nodes, 5)
	assert.Len(t, graph.Links, 4)

	root := newRootCmd()
	var shell bytes.Buffer
	root.SetOut(&shell)
	root.SetIn(strings.NewReader("triples 1\nexit\n"))
	root.SetArgs([]string{"--data-dir", dataDir, "repl", "r1"})
	require.NoError(t, root.ExecuteContext(context.Background()))
	assert.Contains(t, shell.String(), "--- report.ttl (6 triples) ---")

	out, err = run(t, dataDir, "datasets")
	require.NoError(t, err)
	assert.Contains(t, out, "report.ttl")

	out, err = run(t, dataDir, "datasets", "export", "r1")
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 6)

	out, err = run(t, dataDir, "datasets", "rm", "r1")
	require.NoError(t, err)
	assert.Contains(t, out, "deleted r1")
}

func TestCommandErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := run(t, dir, "load", filepath.Join(dir, "missing.ttl"))
	assert.Error(t, err)

	_, err = run(t, dir, "load", filepath.Join(dir, "report.rdf"))
	assert.Error(t, err)

	_, err = run(t, dir, "report", "--format", "pdf", "r1")
	assert.Error(t, err)

	_, err = run(t, dir, "query", "nope", "SELECT * WHERE { ?s ?p ?o }")
	assert.Error(t, err)

	_, err = run(t, dir, "--log-format", "xml", "datasets")
	assert.Error(t, err)
}

func TestReadQuery(t *testing.T) {
	q, err := readQuery("-", strings.NewReader("SELECT * WHERE { ?s ?p ?o }"))
	require.NoError(t, err)
	assert.Equal(t, "SELECT * WHERE { ?s ?p ?o }", q)

	path := filepath.Join(t.TempDir(), "q.rq")
	require.NoError(t, os.WriteFile(path, []byte("SELECT ?s WHERE { ?s ?p ?o }"), 0o644))
	q, err = readQuery("@"+path, nil)
	require.NoError(t, err)
	assert.Equal(t, "SELECT ?s WHERE { ?s ?p ?o }", q)

	q, err = readQuery("SELECT", nil)
	require.NoError(t, err)
	assert.Equal(t, "SELECT", q)
}
