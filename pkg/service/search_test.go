package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var shaclPredicates = []string{
	"http://www.w3.org/ns/shacl#focusNode",
	"http://www.w3.org/ns/shacl#resultPath",
	"http://www.w3.org/ns/shacl#resultMessage",
	"http://www.w3.org/ns/shacl#resultSeverity",
	"http://www.w3.org/ns/shacl#sourceShape",
}

func TestTokenize(t *testing.T) {
	tokens := tokenize("http://www.w3.org/ns/shacl#resultPath")
	assert.True(t, tokens["result"])
	assert.True(t, tokens["path"])
	assert.True(t, tokens["shacl"])
	assert.False(t, tokens["ns"], "short tokens are dropped from long strings")

	short := tokenize("sh:path")
	assert.True(t, short["sh"])
}

func TestFindBySimilarity(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"exact", "http://www.w3.org/ns/shacl#focusNode", "http://www.w3.org/ns/shacl#focusNode"},
		{"substring", "sourceshape", "http://www.w3.org/ns/shacl#sourceShape"},
		{"typo", "resultPth", "http://www.w3.org/ns/shacl#resultPath"},
		{"keywords", "severity result", "http://www.w3.org/ns/shacl#resultSeverity"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FindBySimilarity(tt.query, shaclPredicates, 0)
			require.NotEmpty(t, got)
			assert.Equal(t, tt.want, got[0].Value)
		})
	}
}

func TestFindBySimilarity_Limits(t *testing.T) {
	assert.Nil(t, FindBySimilarity("", shaclPredicates, 0))
	assert.Nil(t, FindBySimilarity("path", nil, 0))

	got := FindBySimilarity("result", shaclPredicates, 2)
	assert.Len(t, got, 2)
	for _, m := range got {
		assert.Equal(t, 0.95, m.Score)
	}

	assert.Empty(t, FindBySimilarity("zzzzqqqq", shaclPredicates, 0))
}
