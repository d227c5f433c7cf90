package domain

// MatchType records which retrieval channel produced a candidate's
// winning score.
type MatchType string

const (
	MatchExact              MatchType = "exact"
	MatchStartsWith         MatchType = "starts_with"
	MatchContains           MatchType = "contains"
	MatchAuthor             MatchType = "author_match"
	MatchSemantic           MatchType = "semantic"
	MatchDescriptionKeyword MatchType = "description_keyword"
)

// ScoredCandidate is a book identifier proposed by a retrieval channel,
// with the score and provenance it was proposed at.
type ScoredCandidate struct {
	BookID    string    `json:"book_id"`
	Score     float64   `json:"score"`
	MatchType MatchType `json:"match_type"`
}

// CandidateSet deduplicates candidates by book id, keeping the maximum
// score across channels. It is request-scoped and not safe for concurrent
// use; each pipeline execution builds its own.
type CandidateSet struct {
	entries map[string]ScoredCandidate
	order   []string
}

// NewCandidateSet creates an empty candidate set.
func NewCandidateSet() *CandidateSet {
	return &CandidateSet{entries: make(map[string]ScoredCandidate)}
}

// Add inserts a candidate, or replaces the existing entry only if the new
// score is strictly greater. The winning channel's match type is retained
// as provenance; equal scores never downgrade an existing entry.
func (s *CandidateSet) Add(c ScoredCandidate) {
	existing, ok := s.entries[c.BookID]
	if !ok {
		s.entries[c.BookID] = c
		s.order = append(s.order, c.BookID)
		return
	}
	if c.Score > existing.Score {
		s.entries[c.BookID] = c
	}
}

// AddAll inserts every candidate in the list.
func (s *CandidateSet) AddAll(candidates []ScoredCandidate) {
	for _, c := range candidates {
		s.Add(c)
	}
}

// Get returns the retained candidate for a book id.
func (s *CandidateSet) Get(bookID string) (ScoredCandidate, bool) {
	c, ok := s.entries[bookID]
	return c, ok
}

// Len returns the number of distinct book ids in the set.
func (s *CandidateSet) Len() int {
	return len(s.entries)
}

// IDs returns the book ids in first-insertion order.
func (s *CandidateSet) IDs() []string {
	ids := make([]string, len(s.order))
	copy(ids, s.order)
	return ids
}

// List returns the retained candidates in first-insertion order.
func (s *CandidateSet) List() []ScoredCandidate {
	out := make([]ScoredCandidate, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.entries[id])
	}
	return out
}

// MergeCandidates max-reduces the outputs of the retrieval channels into a
// single set. Channels are independent evidence sources: one strong signal
// dominates, scores are never summed across channels.
func MergeCandidates(channels ...[]ScoredCandidate) *CandidateSet {
	set := NewCandidateSet()
	for _, channel := range channels {
		set.AddAll(channel)
	}
	return set
}
