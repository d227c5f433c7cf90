package domain

import "strings"

// Lexical retrieval bounds. Fuzzy matching is unreliable on very short or
// very long queries, so the channel rejects both outright.
const (
	MinQueryRunes          = 2
	MaxQueryTokens         = 6
	InOrderMaxTokens       = 3
	TokenCoverageThreshold = 0.7

	MaxTitleCandidates  = 30
	MaxAuthorCandidates = 10
	MaxBooksPerAuthor   = 15
)

// Similarity tiers for lexical matching.
const (
	SimilarityExact     = 1.0
	SimilarityPrefix    = 0.8
	SimilaritySubstring = 0.6
)

// Lexical scores per similarity tier. The scales of the three retrieval
// channels (lexical 10-15, keyword 8-13, semantic 0-1) are deliberately
// disjoint; normalizing them to a common range would change ranking
// outcomes.
const (
	scoreExact     = 15.0
	scorePrefix    = 12.0
	scoreSubstring = 10.0

	// Author-name matches resolve to books at a discount.
	authorScoreFactor = 0.9
)

// Similarity compares a normalized query against a normalized field and
// returns the match tier: identical 1.0, prefix 0.8, substring 0.6,
// otherwise 0 (excluded).
func Similarity(query, field string) float64 {
	if query == "" || field == "" {
		return 0
	}
	switch {
	case field == query:
		return SimilarityExact
	case strings.HasPrefix(field, query):
		return SimilarityPrefix
	case strings.Contains(field, query):
		return SimilaritySubstring
	default:
		return 0
	}
}

// LexicalScore maps a similarity tier to the channel score. Similarity
// below the substring tier yields 0 and the candidate is dropped.
func LexicalScore(similarity float64) float64 {
	switch {
	case similarity >= SimilarityExact:
		return scoreExact
	case similarity >= SimilarityPrefix:
		return scorePrefix
	case similarity >= SimilaritySubstring:
		return scoreSubstring
	default:
		return 0
	}
}

// LexicalMatchType maps a similarity tier to its provenance label.
func LexicalMatchType(similarity float64) MatchType {
	switch {
	case similarity >= SimilarityExact:
		return MatchExact
	case similarity >= SimilarityPrefix:
		return MatchStartsWith
	default:
		return MatchContains
	}
}

// AuthorScore maps an author-name similarity tier to the candidate score
// for the author's books.
func AuthorScore(similarity float64) float64 {
	return LexicalScore(similarity) * authorScoreFactor
}

// TokenCoverage returns the fraction of query tokens present in the
// normalized field. Used as the candidate filter for queries of more than
// InOrderMaxTokens tokens.
func TokenCoverage(tokens []string, field string) float64 {
	if len(tokens) == 0 {
		return 0
	}
	present := 0
	for _, tok := range tokens {
		if strings.Contains(field, tok) {
			present++
		}
	}
	return float64(present) / float64(len(tokens))
}
