// Package service provides application use cases.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"book-search-service/internal/domain"
)

// SearchService runs the retrieval-merge-rank-paginate pipeline. It holds
// no per-request state; every execution builds and discards its own
// candidate set.
type SearchService struct {
	repo            domain.CatalogRepository
	vector          domain.VectorSearcher
	cache           domain.Cache
	cacheTTL        time.Duration
	semanticTimeout time.Duration
	logger          *zap.Logger
}

// NewSearchService creates a new SearchService. cache may be nil to
// disable result-page caching.
func NewSearchService(
	repo domain.CatalogRepository,
	vector domain.VectorSearcher,
	cache domain.Cache,
	cacheTTL time.Duration,
	semanticTimeout time.Duration,
	logger *zap.Logger,
) *SearchService {
	return &SearchService{
		repo:            repo,
		vector:          vector,
		cache:           cache,
		cacheTTL:        cacheTTL,
		semanticTimeout: semanticTimeout,
		logger:          logger,
	}
}

// Search turns a free-text query plus structured filters into a page of
// scored book results.
//
// Pipeline: the three retrieval channels run concurrently against the
// same query; their candidates are max-merged per book id; the merged id
// allowlist plus the structured filters are applied against the catalog
// in one query; aggregates are attached; the enriched list is sorted and
// sliced. A failed semantic channel degrades to an empty contribution,
// a failed catalog query fails the request.
func (s *SearchService) Search(ctx context.Context, params domain.SearchParams) (*domain.SearchResultPage, error) {
	params.Validate()

	if page, ok := s.cachedPage(ctx, params); ok {
		return page, nil
	}

	s.logger.Debug("searching books",
		zap.String("query", params.Query),
		zap.Strings("genres", params.GenreSlugs),
		zap.Int("page", params.Page),
		zap.Int("page_size", params.PageSize),
	)

	// With an empty query the channels have nothing to match; the request
	// becomes a pure filter browse with no candidate allowlist.
	var merged *domain.CandidateSet
	if domain.Normalize(params.Query) != "" {
		var err error
		merged, err = s.retrieveCandidates(ctx, params.Query)
		if err != nil {
			return nil, err
		}
		if merged.Len() == 0 {
			return domain.EmptyPage(params), nil
		}
	}

	filter := domain.CatalogFilter{
		AuthorID: params.AuthorID,
		Tags:     params.Tags,
	}
	if merged != nil {
		filter.CandidateIDs = merged.IDs()
	}

	if len(params.GenreSlugs) > 0 {
		genreIDs, err := s.repo.ResolveGenreIDs(ctx, params.GenreSlugs)
		if err != nil {
			return nil, fmt.Errorf("resolving genre slugs: %w", err)
		}
		// An unknown genre matches nothing, it is not an error.
		if len(genreIDs) == 0 {
			return domain.EmptyPage(params), nil
		}
		filter.GenreIDs = genreIDs
	}

	books, err := s.repo.FindPublished(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("fetching catalog entries: %w", err)
	}
	if len(books) == 0 {
		return domain.EmptyPage(params), nil
	}

	items, err := s.enrich(ctx, books, merged)
	if err != nil {
		return nil, err
	}

	domain.SortItems(items, params.SortBy, params.SortOrder)

	page := domain.NewSearchResultPage(
		domain.PageSlice(items, params.Page, params.PageSize),
		len(items),
		params,
	)

	s.storePage(ctx, params, page)

	s.logger.Debug("search completed",
		zap.Int("total_matches", page.TotalMatches),
		zap.Int("count", len(page.Items)),
	)

	return page, nil
}

// enrich attaches per-book aggregates and the winning candidate score to
// each hydrated book. Missing aggregates default to zero.
func (s *SearchService) enrich(ctx context.Context, books []*domain.Book, merged *domain.CandidateSet) ([]*domain.SearchResultItem, error) {
	ids := make([]string, len(books))
	for i, b := range books {
		ids[i] = b.ID
	}

	chapters, err := s.repo.ChapterCounts(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("counting chapters: %w", err)
	}

	reviews, err := s.repo.ReviewAggregates(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("aggregating reviews: %w", err)
	}

	items := make([]*domain.SearchResultItem, 0, len(books))
	for _, b := range books {
		item := &domain.SearchResultItem{
			Book: b,
			Stats: domain.BookStats{
				ChapterCount: chapters[b.ID],
			},
		}
		if agg, ok := reviews[b.ID]; ok {
			item.Stats.AverageRating = agg.AverageRating
			item.Stats.ReviewCount = agg.ReviewCount
		}
		if merged != nil {
			if c, ok := merged.Get(b.ID); ok {
				item.Score = c.Score
				item.MatchType = c.MatchType
			}
		}
		items = append(items, item)
	}

	return items, nil
}

// cachedPage returns a previously cached page for these params, if any.
// Cache failures degrade to direct execution.
func (s *SearchService) cachedPage(ctx context.Context, params domain.SearchParams) (*domain.SearchResultPage, bool) {
	if s.cache == nil {
		return nil, false
	}

	data, err := s.cache.Get(ctx, params.CacheKey())
	if err != nil || data == nil {
		return nil, false
	}

	var page domain.SearchResultPage
	if err := json.Unmarshal(data, &page); err != nil {
		s.logger.Warn("discarding undecodable cached page", zap.Error(err))
		return nil, false
	}

	return &page, true
}

// storePage caches a result page. Failures are logged and ignored.
func (s *SearchService) storePage(ctx context.Context, params domain.SearchParams, page *domain.SearchResultPage) {
	if s.cache == nil {
		return
	}

	data, err := json.Marshal(page)
	if err != nil {
		s.logger.Warn("failed to encode page for cache", zap.Error(err))
		return
	}

	if err := s.cache.Set(ctx, params.CacheKey(), data, s.cacheTTL); err != nil {
		s.logger.Warn("failed to cache result page", zap.Error(err))
	}
}

// Stats returns catalog-wide counters for the dashboard.
func (s *SearchService) Stats(ctx context.Context) (*domain.CatalogStats, error) {
	return s.repo.Stats(ctx)
}
