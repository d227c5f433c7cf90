package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"book-search-service/internal/domain"
)

// indexingRepo serves ListForIndexing from a fixed catalog ordered by
// (updated_at, id), honoring the tuple cursor and limit the way the real
// store does.
type indexingRepo struct {
	fakeRepo
	catalog []*domain.Book
}

func (r *indexingRepo) ListForIndexing(_ context.Context, updatedAfter time.Time, afterID string, limit int) ([]*domain.Book, error) {
	var out []*domain.Book
	for _, b := range r.catalog {
		if b.UpdatedAt.Before(updatedAfter) {
			continue
		}
		if b.UpdatedAt.Equal(updatedAfter) && b.ID <= afterID {
			continue
		}
		out = append(out, b)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// fakeIndexer records every pushed batch.
type fakeIndexer struct {
	batches [][]domain.IndexDocument
	err     error
}

func (f *fakeIndexer) IndexDocuments(_ context.Context, docs []domain.IndexDocument) error {
	if f.err != nil {
		return f.err
	}
	f.batches = append(f.batches, docs)
	return nil
}

func indexableBook(id, title string, updatedAt time.Time) *domain.Book {
	return &domain.Book{
		ID:          id,
		Title:       title,
		Slug:        title,
		Description: "about " + title,
		Status:      domain.BookStatusPublished,
		UpdatedAt:   updatedAt,
	}
}

func TestIndexSync_Batches(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	repo := &indexingRepo{catalog: []*domain.Book{
		indexableBook("b1", "one", base.Add(1*time.Minute)),
		indexableBook("b2", "two", base.Add(2*time.Minute)),
		indexableBook("b3", "three", base.Add(3*time.Minute)),
	}}
	indexer := &fakeIndexer{}
	svc := NewIndexService(repo, indexer, &fakeVector{}, 2, zap.NewNop())

	result, err := svc.Sync(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, result.Count)
	require.Len(t, indexer.batches, 2, "three books with batch size two")
	assert.Len(t, indexer.batches[0], 2)
	assert.Len(t, indexer.batches[1], 1)

	first := indexer.batches[0][0]
	assert.Equal(t, "b1", first.EntityID)
	assert.Equal(t, domain.SemanticEntityBook, first.EntityType)
	assert.Equal(t, "one", first.Title)
	assert.Equal(t, "about one", first.Text)
}

func TestIndexSync_SecondRunIsIncremental(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	repo := &indexingRepo{catalog: []*domain.Book{
		indexableBook("b1", "one", base),
	}}
	indexer := &fakeIndexer{}
	svc := NewIndexService(repo, indexer, &fakeVector{}, 100, zap.NewNop())

	first, err := svc.Sync(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, first.Count)

	// Nothing changed since the first run.
	second, err := svc.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, second.Count)
	assert.Len(t, indexer.batches, 1)
}

func TestIndexSync_EqualTimestampsSpanBatches(t *testing.T) {
	// Bulk imports leave many rows with the same updated_at. The id
	// component of the cursor must carry the pagination across a batch
	// boundary inside such a group.
	stamp := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	repo := &indexingRepo{catalog: []*domain.Book{
		indexableBook("b1", "one", stamp),
		indexableBook("b2", "two", stamp),
		indexableBook("b3", "three", stamp),
	}}
	indexer := &fakeIndexer{}
	svc := NewIndexService(repo, indexer, &fakeVector{}, 2, zap.NewNop())

	result, err := svc.Sync(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, result.Count)
	require.Len(t, indexer.batches, 2)

	var ids []string
	for _, batch := range indexer.batches {
		for _, doc := range batch {
			ids = append(ids, doc.EntityID)
		}
	}
	assert.ElementsMatch(t, []string{"b1", "b2", "b3"}, ids, "no book skipped or pushed twice")
}

func TestIndexSync_ConcurrentRunsSerialize(t *testing.T) {
	// The scheduler and the manual reindex endpoint can both trigger a
	// run; overlapping runs must not interleave cursors and double-push.
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	repo := &indexingRepo{catalog: []*domain.Book{
		indexableBook("b1", "one", base.Add(1*time.Minute)),
		indexableBook("b2", "two", base.Add(2*time.Minute)),
		indexableBook("b3", "three", base.Add(3*time.Minute)),
	}}
	indexer := &fakeIndexer{}
	svc := NewIndexService(repo, indexer, &fakeVector{}, 2, zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Sync(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	total := 0
	for _, batch := range indexer.batches {
		total += len(batch)
	}
	assert.Equal(t, 3, total, "the second run starts after the first and sees nothing new")
}

func TestIndexSync_PushFailurePropagates(t *testing.T) {
	repo := &indexingRepo{catalog: []*domain.Book{
		indexableBook("b1", "one", time.Now()),
	}}
	indexer := &fakeIndexer{err: errors.New("connection refused")}
	svc := NewIndexService(repo, indexer, &fakeVector{}, 100, zap.NewNop())

	_, err := svc.Sync(context.Background())
	require.Error(t, err)
}
