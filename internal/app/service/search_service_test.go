package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"book-search-service/internal/domain"
)

// fakeRepo is an in-memory CatalogRepository that records which fetch and
// enrichment calls the pipeline made.
type fakeRepo struct {
	lexical      []domain.LexicalEntry
	authors      []domain.AuthorEntry
	bookIDs      map[string][]string
	descriptions []domain.DescriptionEntry
	genreIDs     map[string]string
	books        []*domain.Book
	chapters     map[string]int
	reviews      map[string]domain.ReviewAggregate

	findPublishedCalls int
	chapterCountCalls  int
	reviewAggCalls     int
	lastFilter         domain.CatalogFilter

	findPublishedErr error
	searchLexicalErr error
	searchDescErr    error
}

func (r *fakeRepo) SearchLexical(_ context.Context, _ domain.LexicalQuery) ([]domain.LexicalEntry, error) {
	return r.lexical, r.searchLexicalErr
}

func (r *fakeRepo) SearchAuthors(_ context.Context, _ domain.LexicalQuery) ([]domain.AuthorEntry, error) {
	return r.authors, nil
}

func (r *fakeRepo) BookIDsByAuthors(_ context.Context, authorIDs []string, perAuthor int) (map[string][]string, error) {
	out := make(map[string][]string)
	for _, id := range authorIDs {
		books := r.bookIDs[id]
		if len(books) > perAuthor {
			books = books[:perAuthor]
		}
		out[id] = books
	}
	return out, nil
}

func (r *fakeRepo) SearchDescriptions(_ context.Context, _ []string, _ int) ([]domain.DescriptionEntry, error) {
	return r.descriptions, r.searchDescErr
}

func (r *fakeRepo) ResolveGenreIDs(_ context.Context, slugs []string) ([]string, error) {
	var ids []string
	for _, slug := range slugs {
		if id, ok := r.genreIDs[slug]; ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (r *fakeRepo) FindPublished(_ context.Context, f domain.CatalogFilter) ([]*domain.Book, error) {
	r.findPublishedCalls++
	r.lastFilter = f
	if r.findPublishedErr != nil {
		return nil, r.findPublishedErr
	}

	allow := map[string]bool{}
	for _, id := range f.CandidateIDs {
		allow[id] = true
	}
	genres := map[string]bool{}
	for _, id := range f.GenreIDs {
		genres[id] = true
	}

	var out []*domain.Book
	for _, b := range r.books {
		if !b.IsPublished() {
			continue
		}
		if f.CandidateIDs != nil && !allow[b.ID] {
			continue
		}
		if f.AuthorID != "" && b.Author.ID != f.AuthorID {
			continue
		}
		if len(f.GenreIDs) > 0 && !hasGenre(b, genres) {
			continue
		}
		if len(f.Tags) > 0 && !hasAnyTag(b, f.Tags) {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func hasGenre(b *domain.Book, genres map[string]bool) bool {
	for _, g := range b.Genres {
		if genres[g.ID] {
			return true
		}
	}
	return false
}

func hasAnyTag(b *domain.Book, tags []string) bool {
	have := map[string]bool{}
	for _, t := range b.Tags {
		have[t] = true
	}
	for _, t := range tags {
		if have[t] {
			return true
		}
	}
	return false
}

func (r *fakeRepo) ChapterCounts(_ context.Context, _ []string) (map[string]int, error) {
	r.chapterCountCalls++
	return r.chapters, nil
}

func (r *fakeRepo) ReviewAggregates(_ context.Context, _ []string) (map[string]domain.ReviewAggregate, error) {
	r.reviewAggCalls++
	return r.reviews, nil
}

func (r *fakeRepo) ListForIndexing(_ context.Context, _ time.Time, _ string, _ int) ([]*domain.Book, error) {
	return nil, nil
}

func (r *fakeRepo) Stats(_ context.Context) (*domain.CatalogStats, error) {
	return &domain.CatalogStats{TotalBooks: int64(len(r.books))}, nil
}

// fakeVector is a canned VectorSearcher.
type fakeVector struct {
	hits  []domain.VectorHit
	err   error
	calls int
}

func (v *fakeVector) Search(_ context.Context, _ string, _ int) ([]domain.VectorHit, error) {
	v.calls++
	if v.err != nil {
		return nil, v.err
	}
	return v.hits, nil
}

func (v *fakeVector) HealthCheck(_ context.Context) error {
	return v.err
}

func newTestService(repo *fakeRepo, vector *fakeVector) *SearchService {
	return NewSearchService(repo, vector, nil, 0, time.Second, zap.NewNop())
}

func publishedBook(id, title, slug string) *domain.Book {
	return &domain.Book{
		ID:     id,
		Title:  title,
		Slug:   slug,
		Status: domain.BookStatusPublished,
	}
}

func TestSearch_EmptyMerge_ShortCircuits(t *testing.T) {
	repo := &fakeRepo{}
	vector := &fakeVector{}
	svc := newTestService(repo, vector)

	page, err := svc.Search(context.Background(), domain.SearchParams{Query: "nothing matches"})

	require.NoError(t, err)
	assert.Equal(t, 0, page.TotalMatches)
	assert.Empty(t, page.Items)

	// The filter/fetch/enrich stages must not run at all.
	assert.Equal(t, 0, repo.findPublishedCalls)
	assert.Equal(t, 0, repo.chapterCountCalls)
	assert.Equal(t, 0, repo.reviewAggCalls)
}

func TestSearch_HarryScenario(t *testing.T) {
	titleBook := publishedBook("b1", "Harry Potter", "harry-potter")
	descBook := publishedBook("b2", "The Boy Wizard", "the-boy-wizard")
	descBook.Description = "Harry discovers magic. Harry learns fast, and Harry makes friends."

	repo := &fakeRepo{
		lexical:      []domain.LexicalEntry{{BookID: "b1", Title: titleBook.Title, Slug: titleBook.Slug}},
		descriptions: []domain.DescriptionEntry{{BookID: "b2", Description: descBook.Description}},
		books:        []*domain.Book{titleBook, descBook},
		chapters:     map[string]int{"b1": 7, "b2": 12},
		reviews:      map[string]domain.ReviewAggregate{"b1": {AverageRating: 4.5, ReviewCount: 10}},
	}
	svc := newTestService(repo, &fakeVector{})

	page, err := svc.Search(context.Background(), domain.SearchParams{Query: "Harry"})

	require.NoError(t, err)
	require.Equal(t, 2, page.TotalMatches)
	require.Len(t, page.Items, 2)

	// "harry" is a prefix of "harry potter": tier 0.8 → 12.0, starts_with.
	first := page.Items[0]
	assert.Equal(t, "b1", first.Book.ID)
	assert.Equal(t, 12.0, first.Score)
	assert.Equal(t, domain.MatchStartsWith, first.MatchType)
	assert.Equal(t, 7, first.Stats.ChapterCount)
	assert.Equal(t, 4.5, first.Stats.AverageRating)

	// Proper noun matched three times: 8.0 + 2.0 + 2×0.2 = 10.4.
	second := page.Items[1]
	assert.Equal(t, "b2", second.Book.ID)
	assert.InDelta(t, 10.4, second.Score, 1e-9)
	assert.Equal(t, domain.MatchDescriptionKeyword, second.MatchType)
	// No reviews is a valid state, not a fault.
	assert.Equal(t, 0.0, second.Stats.AverageRating)
	assert.Equal(t, 0, second.Stats.ReviewCount)
}

func TestSearch_SemanticFailureDegrades(t *testing.T) {
	book := publishedBook("b1", "Harry Potter", "harry-potter")
	repo := &fakeRepo{
		lexical: []domain.LexicalEntry{{BookID: "b1", Title: book.Title, Slug: book.Slug}},
		books:   []*domain.Book{book},
	}
	vector := &fakeVector{err: errors.New("deadline exceeded")}
	svc := newTestService(repo, vector)

	page, err := svc.Search(context.Background(), domain.SearchParams{Query: "Harry"})

	require.NoError(t, err, "a degraded semantic channel must never fail the request")
	assert.Equal(t, 1, page.TotalMatches)
	assert.Equal(t, 1, vector.calls)
}

func TestSearch_CatalogFaultPropagates(t *testing.T) {
	repo := &fakeRepo{
		lexical:          []domain.LexicalEntry{{BookID: "b1", Title: "Harry Potter", Slug: "harry-potter"}},
		findPublishedErr: errors.New("connection refused"),
	}
	svc := newTestService(repo, &fakeVector{})

	_, err := svc.Search(context.Background(), domain.SearchParams{Query: "Harry"})
	require.Error(t, err)
}

func TestSearch_LexicalStoreFaultPropagates(t *testing.T) {
	repo := &fakeRepo{searchLexicalErr: errors.New("connection refused")}
	svc := newTestService(repo, &fakeVector{})

	_, err := svc.Search(context.Background(), domain.SearchParams{Query: "Harry"})
	require.Error(t, err)
}

func TestSearch_UnknownGenre(t *testing.T) {
	book := publishedBook("b1", "Harry Potter", "harry-potter")
	repo := &fakeRepo{
		lexical:  []domain.LexicalEntry{{BookID: "b1", Title: book.Title, Slug: book.Slug}},
		books:    []*domain.Book{book},
		genreIDs: map[string]string{"fantasy": "g1"},
	}
	svc := newTestService(repo, &fakeVector{})

	page, err := svc.Search(context.Background(), domain.SearchParams{
		Query:      "Harry",
		GenreSlugs: []string{"unknown-slug"},
	})

	require.NoError(t, err)
	assert.Equal(t, 0, page.TotalMatches)
	assert.Equal(t, 0, repo.findPublishedCalls, "an empty genre resolution must skip the fetch")
}

func TestSearch_SemanticChannel(t *testing.T) {
	book := publishedBook("b-sem", "Distant Echoes", "distant-echoes")
	repo := &fakeRepo{books: []*domain.Book{book}}
	vector := &fakeVector{hits: []domain.VectorHit{
		{EntityID: "b-sem", EntityType: "book", ChunkID: "c1", Score: 0.72},
		{EntityID: "b-sem", EntityType: "book", ChunkID: "c2", Score: 0.91},
		{EntityID: "a-9", EntityType: "author", Score: 0.95},
		{EntityID: "b-low", EntityType: "book", Score: 0.42},
	}}
	svc := newTestService(repo, vector)

	page, err := svc.Search(context.Background(), domain.SearchParams{Query: "echoes of a distant war"})

	require.NoError(t, err)
	require.Equal(t, 1, page.TotalMatches)

	item := page.Items[0]
	assert.Equal(t, "b-sem", item.Book.ID)
	assert.Equal(t, 0.91, item.Score, "highest-scoring chunk wins")
	assert.Equal(t, domain.MatchSemantic, item.MatchType)
}

func TestSearch_AuthorMatchResolvesToBooks(t *testing.T) {
	b1 := publishedBook("b1", "First Novel", "first-novel")
	b2 := publishedBook("b2", "Second Novel", "second-novel")
	repo := &fakeRepo{
		authors: []domain.AuthorEntry{{AuthorID: "a1", Name: "Nguyễn Nhật Ánh"}},
		bookIDs: map[string][]string{"a1": {"b1", "b2"}},
		books:   []*domain.Book{b1, b2},
	}
	svc := newTestService(repo, &fakeVector{})

	page, err := svc.Search(context.Background(), domain.SearchParams{Query: "nguyen nhat anh"})

	require.NoError(t, err)
	require.Equal(t, 2, page.TotalMatches)
	for _, item := range page.Items {
		assert.Equal(t, domain.MatchAuthor, item.MatchType)
		assert.Equal(t, 13.5, item.Score, "identical author name scores 15.0 × 0.9")
	}
}

func TestSearch_FilterOnlyBrowse(t *testing.T) {
	b1 := publishedBook("b1", "First Novel", "first-novel")
	b1.Author = domain.AuthorSummary{ID: "a1", Name: "Author One"}
	b2 := publishedBook("b2", "Second Novel", "second-novel")
	b2.Author = domain.AuthorSummary{ID: "a2", Name: "Author Two"}

	repo := &fakeRepo{books: []*domain.Book{b1, b2}}
	vector := &fakeVector{}
	svc := newTestService(repo, vector)

	page, err := svc.Search(context.Background(), domain.SearchParams{AuthorID: "a1"})

	require.NoError(t, err)
	assert.Equal(t, 1, page.TotalMatches)
	assert.Equal(t, "b1", page.Items[0].Book.ID)
	assert.Nil(t, repo.lastFilter.CandidateIDs, "empty query must not impose an allowlist")
	assert.Equal(t, 0, vector.calls, "retrieval channels are skipped without a query")
}

func TestSearch_RatingSortAsc(t *testing.T) {
	books := []*domain.Book{
		publishedBook("b1", "Harry One", "harry-one"),
		publishedBook("b2", "Harry Two", "harry-two"),
		publishedBook("b3", "Harry Three", "harry-three"),
	}
	repo := &fakeRepo{
		lexical: []domain.LexicalEntry{
			{BookID: "b1", Title: "Harry One", Slug: "harry-one"},
			{BookID: "b2", Title: "Harry Two", Slug: "harry-two"},
			{BookID: "b3", Title: "Harry Three", Slug: "harry-three"},
		},
		books: books,
		reviews: map[string]domain.ReviewAggregate{
			"b1": {AverageRating: 5, ReviewCount: 1},
			"b2": {AverageRating: 3, ReviewCount: 1},
			"b3": {AverageRating: 4, ReviewCount: 1},
		},
	}
	svc := newTestService(repo, &fakeVector{})

	page, err := svc.Search(context.Background(), domain.SearchParams{
		Query:     "Harry",
		SortBy:    domain.SortFieldRating,
		SortOrder: domain.SortOrderAsc,
	})

	require.NoError(t, err)
	require.Len(t, page.Items, 3)
	ratings := []float64{
		page.Items[0].Stats.AverageRating,
		page.Items[1].Stats.AverageRating,
		page.Items[2].Stats.AverageRating,
	}
	assert.Equal(t, []float64{3, 4, 5}, ratings)
}

func TestSearch_PaginationWindow(t *testing.T) {
	var books []*domain.Book
	var lexical []domain.LexicalEntry
	titles := []string{"Harry A", "Harry B", "Harry C", "Harry D", "Harry E"}
	for i, title := range titles {
		id := string(rune('1' + i))
		b := publishedBook("b"+id, title, "harry-"+id)
		books = append(books, b)
		lexical = append(lexical, domain.LexicalEntry{BookID: b.ID, Title: b.Title, Slug: b.Slug})
	}
	repo := &fakeRepo{lexical: lexical, books: books}
	svc := newTestService(repo, &fakeVector{})

	page, err := svc.Search(context.Background(), domain.SearchParams{
		Query:    "Harry",
		Page:     2,
		PageSize: 2,
	})

	require.NoError(t, err)
	assert.Equal(t, 5, page.TotalMatches)
	assert.Equal(t, 3, page.TotalPages)
	require.Len(t, page.Items, 2)
	// All five share the prefix tier, so ties order by book id: page 2 is b3, b4.
	assert.Equal(t, "b3", page.Items[0].Book.ID)
	assert.Equal(t, "b4", page.Items[1].Book.ID)
}

// fakeCache is a map-backed Cache.
type fakeCache struct {
	data map[string][]byte
}

func (c *fakeCache) Get(_ context.Context, key string) ([]byte, error) {
	return c.data[key], nil
}

func (c *fakeCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.data[key] = value
	return nil
}

func (c *fakeCache) Delete(_ context.Context, key string) error {
	delete(c.data, key)
	return nil
}

func (c *fakeCache) Clear(_ context.Context) error {
	c.data = map[string][]byte{}
	return nil
}

func TestSearch_CachedPageSkipsPipeline(t *testing.T) {
	book := publishedBook("b1", "Harry Potter", "harry-potter")
	repo := &fakeRepo{
		lexical: []domain.LexicalEntry{{BookID: "b1", Title: book.Title, Slug: book.Slug}},
		books:   []*domain.Book{book},
	}
	cache := &fakeCache{data: map[string][]byte{}}
	svc := NewSearchService(repo, &fakeVector{}, cache, time.Minute, time.Second, zap.NewNop())

	params := domain.SearchParams{Query: "Harry"}

	first, err := svc.Search(context.Background(), params)
	require.NoError(t, err)
	require.Equal(t, 1, first.TotalMatches)
	require.Equal(t, 1, repo.findPublishedCalls)

	second, err := svc.Search(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, first.TotalMatches, second.TotalMatches)
	assert.Equal(t, 1, repo.findPublishedCalls, "second call must be served from cache")
}
