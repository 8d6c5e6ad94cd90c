package service

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/agext/levenshtein"
)

// DefaultSuggestionLimit caps FindBySimilarity when no limit is given.
const DefaultSuggestionLimit = 10

// minSimilarity filters out irrelevant candidates.
const minSimilarity = 0.3

// Match is a candidate string with its similarity to a query.
type Match struct {
	Value string  `json:"value"`
	Score float64 `json:"score"`
}

// FindBySimilarity ranks candidates by similarity to query, combining
// substring matching, Levenshtein distance and token-wise fuzzy matching.
// Ties keep candidate order.
func FindBySimilarity(query string, candidates []string, limit int) []Match {
	if query == "" || len(candidates) == 0 {
		return nil
	}
	if limit <= 0 {
		limit = DefaultSuggestionLimit
	}

	queryLower := strings.ToLower(query)
	queryTokens := tokenize(query)

	var results []Match
	for _, c := range candidates {
		if c == "" {
			continue
		}
		score := similarity(queryLower, queryTokens, c)
		if score > minSimilarity {
			results = append(results, Match{Value: c, Score: score})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

// similarity returns a score between 0 and 1.
func similarity(queryLower string, queryTokens map[string]bool, candidate string) float64 {
	candLower := strings.ToLower(candidate)

	if queryLower == candLower {
		return 1.0
	}
	if strings.Contains(candLower, queryLower) {
		return 0.95
	}

	// Whole-string distance catches near-complete IRIs.
	globalScore := normalizedScore(queryLower, candLower)

	// Token-wise distance catches keywords and typos: "resultpth" vs sh:resultPath.
	candTokens := tokenize(candidate)
	total := 0.0
	for qt := range queryTokens {
		best := 0.0
		if candTokens[qt] {
			best = 1.0
		} else {
			for ct := range candTokens {
				if s := normalizedScore(qt, ct); s > best {
					best = s
				}
			}
		}
		total += best
	}
	tokenScore := 0.0
	if len(queryTokens) > 0 {
		tokenScore = total / float64(len(queryTokens))
	}

	return math.Max(globalScore, tokenScore)
}

func normalizedScore(a, b string) float64 {
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 0
	}
	score := 1.0 - float64(levenshtein.Distance(a, b, nil))/float64(maxLen)
	if score < 0 {
		return 0
	}
	return score
}

// tokenize splits s into unique lower-case tokens on separators and
// camelCase boundaries. Tokens shorter than three characters are dropped
// from long strings.
func tokenize(s string) map[string]bool {
	tokens := make(map[string]bool)
	var current strings.Builder

	emit := func() {
		if current.Len() == 0 {
			return
		}
		token := strings.ToLower(current.String())
		if len(token) > 2 || len(s) < 10 {
			tokens[token] = true
		}
		current.Reset()
	}

	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsNumber(r) {
			emit()
			continue
		}
		if unicode.IsUpper(r) && current.Len() > 0 {
			emit()
		}
		current.WriteRune(r)
	}
	emit()
	return tokens
}
