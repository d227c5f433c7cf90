package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"go.uber.org/zap"

	"book-search-service/internal/domain"
)

// retrieveCandidates fans the query out to the three retrieval channels
// concurrently and max-merges their outputs. The channels have no data
// dependency on one another; the merge is the join barrier.
//
// Failure semantics per channel: the semantic retriever crosses a network
// boundary and degrades to an empty contribution; lexical and keyword
// matching run against the catalog store, where a failure is a genuine
// store fault and fails the request.
func (s *SearchService) retrieveCandidates(ctx context.Context, query string) (*domain.CandidateSet, error) {
	var (
		lexical, keyword, semantic []domain.ScoredCandidate
		lexicalErr, keywordErr     error
	)

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		lexical, lexicalErr = s.lexicalCandidates(ctx, query)
	}()
	go func() {
		defer wg.Done()
		keyword, keywordErr = s.keywordCandidates(ctx, query)
	}()
	go func() {
		defer wg.Done()
		semantic = s.semanticCandidates(ctx, query)
	}()
	wg.Wait()

	if lexicalErr != nil {
		return nil, fmt.Errorf("lexical retrieval: %w", lexicalErr)
	}
	if keywordErr != nil {
		return nil, fmt.Errorf("keyword retrieval: %w", keywordErr)
	}

	return domain.MergeCandidates(lexical, keyword, semantic), nil
}

// lexicalCandidates finds books whose title, slug, or author name
// approximately matches the query, scored by similarity tier.
func (s *SearchService) lexicalCandidates(ctx context.Context, query string) ([]domain.ScoredCandidate, error) {
	normalized := domain.Normalize(query)
	if utf8.RuneCountInString(normalized) < domain.MinQueryRunes {
		return nil, nil
	}

	tokens := strings.Fields(normalized)
	if len(tokens) > domain.MaxQueryTokens {
		return nil, nil
	}

	lexicalQuery := domain.LexicalQuery{
		Tokens:     tokens,
		AllInOrder: len(tokens) <= domain.InOrderMaxTokens,
	}

	set := domain.NewCandidateSet()

	titleQuery := lexicalQuery
	titleQuery.Limit = domain.MaxTitleCandidates
	entries, err := s.repo.SearchLexical(ctx, titleQuery)
	if err != nil {
		return nil, err
	}

	for _, entry := range entries {
		title := domain.Normalize(entry.Title)
		slug := domain.Normalize(strings.ReplaceAll(entry.Slug, "-", " "))

		// Longer queries use a coverage filter instead of in-order matching
		// to bound false negatives.
		if !lexicalQuery.AllInOrder &&
			domain.TokenCoverage(tokens, title) < domain.TokenCoverageThreshold &&
			domain.TokenCoverage(tokens, slug) < domain.TokenCoverageThreshold {
			continue
		}

		similarity := domain.Similarity(normalized, title)
		if sim := domain.Similarity(normalized, slug); sim > similarity {
			similarity = sim
		}
		if similarity < domain.SimilaritySubstring {
			continue
		}

		set.Add(domain.ScoredCandidate{
			BookID:    entry.BookID,
			Score:     domain.LexicalScore(similarity),
			MatchType: domain.LexicalMatchType(similarity),
		})
	}

	if err := s.authorCandidates(ctx, lexicalQuery, normalized, set); err != nil {
		return nil, err
	}

	return set.List(), nil
}

// authorCandidates resolves matching author names to their authored books.
// Candidates are added through the set's max semantics, so an author match
// never downgrades a stronger title match for the same book.
func (s *SearchService) authorCandidates(ctx context.Context, q domain.LexicalQuery, normalized string, set *domain.CandidateSet) error {
	authorQuery := q
	authorQuery.Limit = domain.MaxAuthorCandidates
	authors, err := s.repo.SearchAuthors(ctx, authorQuery)
	if err != nil {
		return err
	}
	if len(authors) == 0 {
		return nil
	}

	matched := make([]string, 0, len(authors))
	scores := make(map[string]float64, len(authors))
	for _, author := range authors {
		similarity := domain.Similarity(normalized, domain.Normalize(author.Name))
		if similarity < domain.SimilaritySubstring {
			continue
		}
		matched = append(matched, author.AuthorID)
		scores[author.AuthorID] = domain.AuthorScore(similarity)
	}
	if len(matched) == 0 {
		return nil
	}

	booksByAuthor, err := s.repo.BookIDsByAuthors(ctx, matched, domain.MaxBooksPerAuthor)
	if err != nil {
		return err
	}

	for authorID, bookIDs := range booksByAuthor {
		for _, bookID := range bookIDs {
			set.Add(domain.ScoredCandidate{
				BookID:    bookID,
				Score:     scores[authorID],
				MatchType: domain.MatchAuthor,
			})
		}
	}

	return nil
}

// keywordCandidates scores books whose description contains significant
// query terms with word-boundary semantics.
func (s *SearchService) keywordCandidates(ctx context.Context, query string) ([]domain.ScoredCandidate, error) {
	terms := domain.ExtractKeywords(query)
	if len(terms) == 0 {
		return nil, nil
	}

	termTexts := make([]string, len(terms))
	for i, t := range terms {
		termTexts[i] = t.Text
	}

	entries, err := s.repo.SearchDescriptions(ctx, termTexts, domain.MaxDescriptionCandidates)
	if err != nil {
		return nil, err
	}

	candidates := make([]domain.ScoredCandidate, 0, len(entries))
	for _, entry := range entries {
		score, matched := domain.ScoreDescription(entry.Description, terms)
		if matched == 0 {
			continue
		}
		candidates = append(candidates, domain.ScoredCandidate{
			BookID:    entry.BookID,
			Score:     score,
			MatchType: domain.MatchDescriptionKeyword,
		})
	}

	return candidates, nil
}

// semanticCandidates queries the external vector similarity service.
// Semantic signal is additive, not required: any failure is logged and
// the channel contributes nothing. The call carries its own timeout since
// it crosses a network boundary.
func (s *SearchService) semanticCandidates(ctx context.Context, query string) []domain.ScoredCandidate {
	ctx, cancel := context.WithTimeout(ctx, s.semanticTimeout)
	defer cancel()

	hits, err := s.vector.Search(ctx, query, domain.SemanticTopK)
	if err != nil {
		s.logger.Warn("semantic retrieval degraded", zap.Error(err))
		return nil
	}

	// Multiple chunks of one book collapse to the best-scoring chunk via
	// the set's max semantics.
	set := domain.NewCandidateSet()
	for _, hit := range hits {
		if hit.EntityType != domain.SemanticEntityBook {
			continue
		}
		if hit.Score < domain.SemanticMinScore {
			continue
		}
		set.Add(domain.ScoredCandidate{
			BookID:    hit.EntityID,
			Score:     hit.Score,
			MatchType: domain.MatchSemantic,
		})
	}

	return set.List()
}
