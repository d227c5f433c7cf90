package domain

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Description keyword scoring weights.
const (
	MaxDescriptionCandidates = 10

	descriptionBase  = 8.0
	properNounWeight = 2.0
	commonTermWeight = 0.5
	multiProperBonus = 1.0
	repeatBonus      = 0.2
	repeatBonusCap   = 2.0

	minProperNounRunes = 3
	minCommonTermRunes = 4
)

// stopWords is the fixed bilingual (English/Vietnamese) stop-word list
// applied to description keyword extraction. Vietnamese entries are stored
// accent-stripped because tokens are normalized before the lookup.
var stopWords = map[string]struct{}{
	// English
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {},
	"is": {}, "are": {}, "was": {}, "were": {}, "be": {}, "been": {},
	"of": {}, "in": {}, "on": {}, "at": {}, "to": {}, "for": {},
	"with": {}, "from": {}, "by": {}, "about": {}, "into": {}, "that": {},
	"this": {}, "these": {}, "those": {}, "it": {}, "its": {}, "as": {},
	"have": {}, "has": {}, "had": {}, "not": {}, "his": {}, "her": {},
	"their": {}, "they": {}, "them": {}, "who": {}, "what": {}, "which": {},
	// Vietnamese (accent-stripped)
	"va": {}, "la": {}, "cua": {}, "nhung": {}, "mot": {}, "cac": {},
	"duoc": {}, "trong": {}, "cho": {}, "voi": {}, "nguoi": {}, "khong": {},
	"nay": {}, "khi": {}, "den": {}, "ve": {}, "co": {}, "da": {},
	"se": {}, "nhu": {}, "thi": {}, "tai": {}, "tu": {}, "ra": {},
}

// QueryTerm is a significant term extracted from a search query. Proper
// nouns (capitalized tokens, likely character or place names) are exempted
// from the stop-word and length filters applied to common words.
type QueryTerm struct {
	Text       string
	ProperNoun bool
}

// ExtractKeywords tokenizes a raw query and keeps the significant terms:
// capitalized tokens of at least 3 runes are treated as proper nouns and
// always kept; other tokens must be at least 4 runes and not stop words.
// Terms are normalized and deduplicated. Returns nil when nothing survives.
func ExtractKeywords(query string) []QueryTerm {
	var terms []QueryTerm
	seen := make(map[string]struct{})

	for _, raw := range strings.Fields(query) {
		trimmed := strings.Trim(raw, ".,!?;:'\"-()[]{}")
		if trimmed == "" {
			continue
		}

		text := Normalize(trimmed)
		if text == "" {
			continue
		}
		if _, dup := seen[text]; dup {
			continue
		}

		proper := isCapitalized(trimmed) && utf8.RuneCountInString(trimmed) >= minProperNounRunes
		if !proper {
			if utf8.RuneCountInString(text) < minCommonTermRunes {
				continue
			}
			if _, stop := stopWords[text]; stop {
				continue
			}
		}

		seen[text] = struct{}{}
		terms = append(terms, QueryTerm{Text: text, ProperNoun: proper})
	}

	return terms
}

// isCapitalized reports whether the token's first rune is upper case.
func isCapitalized(token string) bool {
	r, _ := utf8.DecodeRuneInString(token)
	return unicode.IsUpper(r)
}

// ScoreDescription scores a description against the extracted query terms
// with word-boundary matching:
//
//	8.0 base
//	+2.0 per distinct matched proper noun
//	+0.5 per distinct matched common term
//	+1.0 when at least two distinct proper nouns matched
//	+0.2 per occurrence beyond the first of each term, capped at +2.0
//
// Returns the score and the number of distinct terms matched; a score of 0
// means nothing matched.
func ScoreDescription(description string, terms []QueryTerm) (float64, int) {
	if len(terms) == 0 {
		return 0, 0
	}

	normalized := Normalize(description)

	var properMatches, commonMatches int
	var frequency float64
	for _, term := range terms {
		count := countWordOccurrences(normalized, term.Text)
		if count == 0 {
			continue
		}
		if term.ProperNoun {
			properMatches++
		} else {
			commonMatches++
		}
		frequency += repeatBonus * float64(count-1)
	}

	matched := properMatches + commonMatches
	if matched == 0 {
		return 0, 0
	}
	if frequency > repeatBonusCap {
		frequency = repeatBonusCap
	}

	score := descriptionBase +
		properNounWeight*float64(properMatches) +
		commonTermWeight*float64(commonMatches) +
		frequency
	if properMatches >= 2 {
		score += multiProperBonus
	}

	return score, matched
}

// countWordOccurrences counts word-boundary-anchored occurrences of term
// in normalized text.
func countWordOccurrences(text, term string) int {
	if term == "" {
		return 0
	}
	re, err := regexp.Compile(`\b` + regexp.QuoteMeta(term) + `\b`)
	if err != nil {
		return 0
	}
	return len(re.FindAllStringIndex(text, -1))
}
