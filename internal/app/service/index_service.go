package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"book-search-service/internal/domain"
)

// IndexService keeps the vector service's document index in sync with the
// published catalog. It pushes title + description documents in batches;
// the embedding and index internals stay on the vector service's side.
type IndexService struct {
	repo      domain.CatalogRepository
	indexer   domain.VectorIndexer
	searcher  domain.VectorSearcher
	batchSize int
	logger    *zap.Logger

	// mu serializes Sync runs: the scheduler and the manual reindex
	// endpoint can both trigger one, and the distributed lock only
	// arbitrates between replicas, not within a process.
	mu       sync.Mutex
	lastSync time.Time
}

// NewIndexService creates a new IndexService.
func NewIndexService(
	repo domain.CatalogRepository,
	indexer domain.VectorIndexer,
	searcher domain.VectorSearcher,
	batchSize int,
	logger *zap.Logger,
) *IndexService {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &IndexService{
		repo:      repo,
		indexer:   indexer,
		searcher:  searcher,
		batchSize: batchSize,
		logger:    logger,
	}
}

// IndexResult holds the outcome of one sync run.
type IndexResult struct {
	Count    int
	Duration time.Duration
}

// Sync pushes books updated since the last successful run to the vector
// index. The first run since process start pushes the whole published
// catalog.
func (s *IndexService) Sync(ctx context.Context) (*IndexResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	since := s.lastSync

	s.logger.Info("starting vector index sync", zap.Time("updated_after", since))

	total := 0
	cursor := since
	cursorID := ""
	for {
		books, err := s.repo.ListForIndexing(ctx, cursor, cursorID, s.batchSize)
		if err != nil {
			return nil, fmt.Errorf("listing books for indexing: %w", err)
		}
		if len(books) == 0 {
			break
		}

		docs := make([]domain.IndexDocument, len(books))
		for i, b := range books {
			docs[i] = domain.IndexDocument{
				EntityID:   b.ID,
				EntityType: domain.SemanticEntityBook,
				Title:      b.Title,
				Text:       b.Description,
				Tags:       b.Tags,
			}
		}

		if err := s.indexer.IndexDocuments(ctx, docs); err != nil {
			return nil, fmt.Errorf("pushing documents to vector index: %w", err)
		}

		total += len(books)
		last := books[len(books)-1]
		cursor, cursorID = last.UpdatedAt, last.ID

		if len(books) < s.batchSize {
			break
		}
	}

	s.lastSync = start
	result := &IndexResult{Count: total, Duration: time.Since(start)}

	s.logger.Info("vector index sync completed",
		zap.Int("count", result.Count),
		zap.Duration("duration", result.Duration),
	)

	return result, nil
}

// VectorHealth verifies the vector service is reachable.
func (s *IndexService) VectorHealth(ctx context.Context) error {
	return s.searcher.HealthCheck(ctx)
}
