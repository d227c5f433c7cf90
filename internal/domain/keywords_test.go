package domain

import "testing"

func TestExtractKeywords(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		expected []QueryTerm
	}{
		{
			name:  "proper noun kept even when short-ish",
			query: "Ron and the war",
			expected: []QueryTerm{
				{Text: "ron", ProperNoun: true},
			},
		},
		{
			name:  "stop words discarded",
			query: "the and with from",
			// all stop words, none capitalized long enough... "the" is not capitalized
		},
		{
			name:  "common token needs four runes",
			query: "cat dragon",
			expected: []QueryTerm{
				{Text: "dragon", ProperNoun: false},
			},
		},
		{
			name:  "capitalized stop word kept as proper noun",
			query: "The Hobbit",
			expected: []QueryTerm{
				{Text: "the", ProperNoun: true},
				{Text: "hobbit", ProperNoun: true},
			},
		},
		{
			name:  "punctuation trimmed",
			query: `"Harry," said Hermione.`,
			expected: []QueryTerm{
				{Text: "harry", ProperNoun: true},
				{Text: "said", ProperNoun: false},
				{Text: "hermione", ProperNoun: true},
			},
		},
		{
			name:  "duplicates collapsed",
			query: "dragon Dragon dragon",
			expected: []QueryTerm{
				{Text: "dragon", ProperNoun: false},
			},
		},
		{
			name:  "vietnamese stop words filtered",
			query: "của những kiếm khách",
			expected: []QueryTerm{
				{Text: "kiem", ProperNoun: false},
				{Text: "khach", ProperNoun: false},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractKeywords(tt.query)
			if len(got) != len(tt.expected) {
				t.Fatalf("ExtractKeywords(%q) = %v, want %v", tt.query, got, tt.expected)
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Errorf("term %d = %+v, want %+v", i, got[i], tt.expected[i])
				}
			}
		})
	}
}

func TestExtractKeywords_ShortVietnameseCommon(t *testing.T) {
	// "kiếm" normalizes to "kiem" (4 runes) and survives; "võ" is too short.
	terms := ExtractKeywords("võ kiếm")
	if len(terms) != 1 || terms[0].Text != "kiem" {
		t.Errorf("expected [kiem], got %v", terms)
	}
}

func TestScoreDescription(t *testing.T) {
	tests := []struct {
		name        string
		description string
		terms       []QueryTerm
		expected    float64
		matched     int
	}{
		{
			name:        "single proper noun once",
			description: "A story about Harry growing up.",
			terms:       []QueryTerm{{Text: "harry", ProperNoun: true}},
			expected:    8.0 + 2.0,
			matched:     1,
		},
		{
			name:        "proper noun repeated three times",
			description: "Harry meets Harry's future self, and Harry laughs.",
			terms:       []QueryTerm{{Text: "harry", ProperNoun: true}},
			expected:    8.0 + 2.0 + 0.4, // two repeats beyond the first
			matched:     1,
		},
		{
			name:        "two proper nouns get multi bonus",
			description: "Harry and Hermione travel north.",
			terms: []QueryTerm{
				{Text: "harry", ProperNoun: true},
				{Text: "hermione", ProperNoun: true},
			},
			expected: 8.0 + 2.0 + 2.0 + 1.0,
			matched:  2,
		},
		{
			name:        "common terms weighted lower",
			description: "A dragon guards the castle.",
			terms: []QueryTerm{
				{Text: "dragon", ProperNoun: false},
				{Text: "castle", ProperNoun: false},
			},
			expected: 8.0 + 0.5 + 0.5,
			matched:  2,
		},
		{
			name:        "frequency bonus capped",
			description: "dragon dragon dragon dragon dragon dragon dragon dragon dragon dragon dragon dragon dragon dragon",
			terms:       []QueryTerm{{Text: "dragon", ProperNoun: false}},
			expected:    8.0 + 0.5 + 2.0, // 13 repeats would be 2.6, capped at 2.0
			matched:     1,
		},
		{
			name:        "word boundary prevents partial match",
			description: "The harrying of the north.",
			terms:       []QueryTerm{{Text: "harry", ProperNoun: true}},
			expected:    0,
			matched:     0,
		},
		{
			name:        "no terms",
			description: "Anything at all.",
			terms:       nil,
			expected:    0,
			matched:     0,
		},
		{
			name:        "accent-insensitive match",
			description: "Kiếm khách giang hồ.",
			terms:       []QueryTerm{{Text: "kiem", ProperNoun: false}},
			expected:    8.0 + 0.5,
			matched:     1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, matched := ScoreDescription(tt.description, tt.terms)
			if !almostEqual(score, tt.expected) {
				t.Errorf("score = %v, want %v", score, tt.expected)
			}
			if matched != tt.matched {
				t.Errorf("matched = %d, want %d", matched, tt.matched)
			}
		})
	}
}

func almostEqual(a, b float64) bool {
	const tolerance = 1e-9
	diff := a - b
	return diff < tolerance && diff > -tolerance
}
