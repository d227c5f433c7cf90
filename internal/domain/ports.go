package domain

import (
	"context"
	"time"
)

// LexicalQuery describes a candidate lookup against the title/slug or
// author-name index. With AllInOrder every token must appear in order
// (short queries); otherwise entries matching any token are returned and
// the caller applies the coverage threshold.
type LexicalQuery struct {
	Tokens     []string
	AllInOrder bool
	Limit      int
}

// LexicalEntry is a title/slug index row.
type LexicalEntry struct {
	BookID string
	Title  string
	Slug   string
}

// AuthorEntry is an author-name index row.
type AuthorEntry struct {
	AuthorID string
	Name     string
}

// DescriptionEntry is a description index row.
type DescriptionEntry struct {
	BookID      string
	Description string
}

// CatalogFilter is the structured constraint set applied during filter &
// fetch. Empty fields are not applied; CandidateIDs nil means no allowlist
// (filter-only browse).
type CatalogFilter struct {
	CandidateIDs []string
	GenreIDs     []string
	AuthorID     string
	Tags         []string
}

// ReviewAggregate holds the batched review statistics for one book.
type ReviewAggregate struct {
	AverageRating float64
	ReviewCount   int
}

// CatalogStats holds catalog-wide counters for the ops dashboard.
type CatalogStats struct {
	TotalBooks int64
	ByStatus   map[string]int64
}

// CatalogRepository is the boundary to the catalog store.
// Implementation: internal/infra/postgres.
type CatalogRepository interface {
	// SearchLexical finds published books whose title or slug matches the
	// lexical query.
	SearchLexical(ctx context.Context, q LexicalQuery) ([]LexicalEntry, error)

	// SearchAuthors finds authors whose name matches the lexical query.
	SearchAuthors(ctx context.Context, q LexicalQuery) ([]AuthorEntry, error)

	// BookIDsByAuthors returns up to perAuthor published book ids for each
	// given author.
	BookIDsByAuthors(ctx context.Context, authorIDs []string, perAuthor int) (map[string][]string, error)

	// SearchDescriptions finds published books whose description contains
	// any of the terms with word-boundary semantics.
	SearchDescriptions(ctx context.Context, terms []string, limit int) ([]DescriptionEntry, error)

	// ResolveGenreIDs maps genre slugs to internal ids. Unknown slugs
	// resolve to nothing; that is not an error.
	ResolveGenreIDs(ctx context.Context, slugs []string) ([]string, error)

	// FindPublished hydrates full published, non-deleted books matching
	// the filter in a single query. Pagination is not applied here.
	FindPublished(ctx context.Context, f CatalogFilter) ([]*Book, error)

	// ChapterCounts returns chapter counts per book for the id set.
	ChapterCounts(ctx context.Context, bookIDs []string) (map[string]int, error)

	// ReviewAggregates returns review count and average rating (one
	// decimal) per book for the id set.
	ReviewAggregates(ctx context.Context, bookIDs []string) (map[string]ReviewAggregate, error)

	// ListForIndexing returns published books past the (updatedAfter,
	// afterID) cursor in (updated_at, id) order for vector index
	// synchronization. The id component keeps books sharing a timestamp
	// from being skipped across batch boundaries.
	ListForIndexing(ctx context.Context, updatedAfter time.Time, afterID string, limit int) ([]*Book, error)

	// Stats returns catalog-wide counters.
	Stats(ctx context.Context) (*CatalogStats, error)
}

// VectorHit is one nearest-neighbor document from the vector similarity
// service, with the distance already converted to a similarity in [0,1].
type VectorHit struct {
	EntityID   string
	EntityType string
	ChunkID    string
	Score      float64
}

// Semantic retrieval bounds.
const (
	SemanticTopK     = 30
	SemanticMinScore = 0.5

	// SemanticEntityBook identifies book-type documents in hit metadata.
	SemanticEntityBook = "book"
)

// VectorSearcher is the boundary to the external embedding + vector
// similarity service. Implementation: internal/infra/vector.
type VectorSearcher interface {
	// Search returns up to topK nearest documents for the query.
	Search(ctx context.Context, query string, topK int) ([]VectorHit, error)

	// HealthCheck verifies the service is accessible.
	HealthCheck(ctx context.Context) error
}

// IndexDocument is one book pushed to the vector service's document index.
type IndexDocument struct {
	EntityID   string   `json:"entity_id"`
	EntityType string   `json:"entity_type"`
	Title      string   `json:"title"`
	Text       string   `json:"text"`
	Tags       []string `json:"tags,omitempty"`
}

// VectorIndexer pushes documents to the vector service's index.
type VectorIndexer interface {
	IndexDocuments(ctx context.Context, docs []IndexDocument) error
}

// Cache defines the interface for caching serialized result pages.
// Implementation: internal/infra/redis.
type Cache interface {
	// Get retrieves a value by key. Returns nil if not found.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with the given TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value by key.
	Delete(ctx context.Context, key string) error

	// Clear removes all cached values.
	Clear(ctx context.Context) error
}
