package postgres

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"book-search-service/internal/domain"
)

// Repository implements domain.CatalogRepository using PostgreSQL.
//
// Accent-insensitive matching goes through immutable_unaccent, the wrapper
// the search-index migration installs. The trigram indexes are built over
// the same expression, and Postgres matches expression indexes
// syntactically, so the queries and the indexes must spell it identically.
// All patterns are bound as parameters; user input never reaches the SQL
// text.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// SearchLexical finds published books whose title or slug matches the
// lexical query.
//
// With AllInOrder a single '%t1%t2%t3%' pattern requires every token in
// sequence. Otherwise any single token qualifies a row and the caller
// applies its coverage threshold on the returned entries.
func (r *Repository) SearchLexical(ctx context.Context, q domain.LexicalQuery) ([]domain.LexicalEntry, error) {
	if len(q.Tokens) == 0 {
		return nil, nil
	}

	query := r.db.WithContext(ctx).
		Model(&BookModel{}).
		Select("id", "title", "slug").
		Where("status = ?", string(domain.BookStatusPublished))

	// Slugs are hyphen-joined; fold hyphens into spaces so one pattern
	// covers both columns.
	matchable := "immutable_unaccent(lower(title)) LIKE ? OR immutable_unaccent(lower(replace(slug, '-', ' '))) LIKE ?"
	if q.AllInOrder {
		pattern := "%" + strings.Join(q.Tokens, "%") + "%"
		query = query.Where(matchable, pattern, pattern)
	} else {
		var conds *gorm.DB
		for _, token := range q.Tokens {
			pattern := "%" + token + "%"
			cond := r.db.Where(matchable, pattern, pattern)
			if conds == nil {
				conds = cond
			} else {
				conds = conds.Or(cond)
			}
		}
		query = query.Where(conds)
	}

	var rows []struct {
		ID    string
		Title string
		Slug  string
	}
	if err := query.Limit(q.Limit).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("searching titles: %w", err)
	}

	entries := make([]domain.LexicalEntry, len(rows))
	for i, row := range rows {
		entries[i] = domain.LexicalEntry{BookID: row.ID, Title: row.Title, Slug: row.Slug}
	}

	return entries, nil
}

// SearchAuthors finds authors whose name matches the lexical query.
func (r *Repository) SearchAuthors(ctx context.Context, q domain.LexicalQuery) ([]domain.AuthorEntry, error) {
	if len(q.Tokens) == 0 {
		return nil, nil
	}

	query := r.db.WithContext(ctx).Model(&AuthorModel{}).Select("id", "name")

	if q.AllInOrder {
		query = query.Where("immutable_unaccent(lower(name)) LIKE ?", "%"+strings.Join(q.Tokens, "%")+"%")
	} else {
		var conds *gorm.DB
		for _, token := range q.Tokens {
			cond := r.db.Where("immutable_unaccent(lower(name)) LIKE ?", "%"+token+"%")
			if conds == nil {
				conds = cond
			} else {
				conds = conds.Or(cond)
			}
		}
		query = query.Where(conds)
	}

	var rows []struct {
		ID   string
		Name string
	}
	if err := query.Limit(q.Limit).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("searching authors: %w", err)
	}

	entries := make([]domain.AuthorEntry, len(rows))
	for i, row := range rows {
		entries[i] = domain.AuthorEntry{AuthorID: row.ID, Name: row.Name}
	}

	return entries, nil
}

// BookIDsByAuthors returns up to perAuthor published book ids for each
// given author, most viewed first.
func (r *Repository) BookIDsByAuthors(ctx context.Context, authorIDs []string, perAuthor int) (map[string][]string, error) {
	out := make(map[string][]string, len(authorIDs))

	for _, authorID := range authorIDs {
		var ids []string
		err := r.db.WithContext(ctx).
			Model(&BookModel{}).
			Where("author_id = ? AND status = ?", authorID, string(domain.BookStatusPublished)).
			Order("views DESC").
			Limit(perAuthor).
			Pluck("id", &ids).Error
		if err != nil {
			return nil, fmt.Errorf("listing books for author %s: %w", authorID, err)
		}
		out[authorID] = ids
	}

	return out, nil
}

// SearchDescriptions finds published books whose description contains any
// of the terms as a whole word. The repository returns the raw
// descriptions; the caller computes the keyword scores.
func (r *Repository) SearchDescriptions(ctx context.Context, terms []string, limit int) ([]domain.DescriptionEntry, error) {
	if len(terms) == 0 {
		return nil, nil
	}

	var conds *gorm.DB
	for _, term := range terms {
		normalized := domain.Normalize(term)
		if normalized == "" {
			continue
		}
		// \m and \M are PostgreSQL's word-boundary anchors.
		pattern := `\m` + regexp.QuoteMeta(normalized) + `\M`
		cond := r.db.Where("immutable_unaccent(lower(description)) ~ ?", pattern)
		if conds == nil {
			conds = cond
		} else {
			conds = conds.Or(cond)
		}
	}
	if conds == nil {
		return nil, nil
	}

	var rows []struct {
		ID          string
		Description string
	}
	err := r.db.WithContext(ctx).
		Model(&BookModel{}).
		Select("id", "description").
		Where("status = ?", string(domain.BookStatusPublished)).
		Where(conds).
		Order("views DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("searching descriptions: %w", err)
	}

	entries := make([]domain.DescriptionEntry, len(rows))
	for i, row := range rows {
		entries[i] = domain.DescriptionEntry{BookID: row.ID, Description: row.Description}
	}

	return entries, nil
}

// ResolveGenreIDs maps genre slugs to ids. Unknown slugs resolve to
// nothing; the caller decides what an empty resolution means.
func (r *Repository) ResolveGenreIDs(ctx context.Context, slugs []string) ([]string, error) {
	if len(slugs) == 0 {
		return nil, nil
	}

	var ids []string
	err := r.db.WithContext(ctx).
		Model(&GenreModel{}).
		Where("slug IN ?", slugs).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("resolving genre slugs: %w", err)
	}

	return ids, nil
}

// FindPublished hydrates published books matching the filter in a single
// query, author and genres preloaded.
func (r *Repository) FindPublished(ctx context.Context, f domain.CatalogFilter) ([]*domain.Book, error) {
	query := r.db.WithContext(ctx).
		Model(&BookModel{}).
		Preload("Author").
		Preload("Genres").
		Where("status = ?", string(domain.BookStatusPublished))

	if f.CandidateIDs != nil {
		if len(f.CandidateIDs) == 0 {
			return nil, nil
		}
		query = query.Where("id IN ?", f.CandidateIDs)
	}
	if f.AuthorID != "" {
		query = query.Where("author_id = ?", f.AuthorID)
	}
	if len(f.GenreIDs) > 0 {
		query = query.Where(
			"EXISTS (SELECT 1 FROM book_genres bg WHERE bg.book_id = books.id AND bg.genre_id IN ?)",
			f.GenreIDs,
		)
	}
	if len(f.Tags) > 0 {
		query = query.Where("tags && ?", pq.StringArray(f.Tags))
	}

	var models []BookModel
	if err := query.Find(&models).Error; err != nil {
		return nil, fmt.Errorf("fetching books: %w", err)
	}

	return ToDomainSlice(models), nil
}

// ChapterCounts returns chapter counts per book in one grouped query.
func (r *Repository) ChapterCounts(ctx context.Context, bookIDs []string) (map[string]int, error) {
	if len(bookIDs) == 0 {
		return map[string]int{}, nil
	}

	var rows []struct {
		BookID string
		Count  int
	}
	err := r.db.WithContext(ctx).
		Model(&ChapterModel{}).
		Select("book_id", "COUNT(*) AS count").
		Where("book_id IN ?", bookIDs).
		Group("book_id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("counting chapters: %w", err)
	}

	out := make(map[string]int, len(rows))
	for _, row := range rows {
		out[row.BookID] = row.Count
	}

	return out, nil
}

// ReviewAggregates returns review count and average rating per book in
// one grouped query. The average is rounded to one decimal in SQL.
func (r *Repository) ReviewAggregates(ctx context.Context, bookIDs []string) (map[string]domain.ReviewAggregate, error) {
	if len(bookIDs) == 0 {
		return map[string]domain.ReviewAggregate{}, nil
	}

	var rows []struct {
		BookID        string
		ReviewCount   int
		AverageRating float64
	}
	err := r.db.WithContext(ctx).
		Model(&ReviewModel{}).
		Select("book_id", "COUNT(*) AS review_count", "ROUND(AVG(rating)::numeric, 1) AS average_rating").
		Where("book_id IN ?", bookIDs).
		Group("book_id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("aggregating reviews: %w", err)
	}

	out := make(map[string]domain.ReviewAggregate, len(rows))
	for _, row := range rows {
		out[row.BookID] = domain.ReviewAggregate{
			AverageRating: row.AverageRating,
			ReviewCount:   row.ReviewCount,
		}
	}

	return out, nil
}

// ListForIndexing returns published books past the cursor, oldest first,
// for vector index synchronization. The cursor is the (updated_at, id)
// tuple of the last row seen: bulk imports give many rows the same
// timestamp, and a timestamp-only cursor would skip the rest of such a
// group when a batch boundary splits it.
func (r *Repository) ListForIndexing(ctx context.Context, updatedAfter time.Time, afterID string, limit int) ([]*domain.Book, error) {
	var models []BookModel
	err := r.db.WithContext(ctx).
		Model(&BookModel{}).
		// id is compared as text so the initial empty cursor needs no
		// uuid cast.
		Where("status = ? AND (updated_at, id::text) > (?, ?)", string(domain.BookStatusPublished), updatedAfter, afterID).
		Order("updated_at ASC, id::text ASC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("listing books for indexing: %w", err)
	}

	return ToDomainSlice(models), nil
}

// Stats returns catalog-wide counters.
func (r *Repository) Stats(ctx context.Context) (*domain.CatalogStats, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&BookModel{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("counting books: %w", err)
	}

	var rows []struct {
		Status string
		Count  int64
	}
	err := r.db.WithContext(ctx).
		Model(&BookModel{}).
		Select("status", "COUNT(*) AS count").
		Group("status").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("counting books by status: %w", err)
	}

	byStatus := make(map[string]int64, len(rows))
	for _, row := range rows {
		byStatus[row.Status] = row.Count
	}

	return &domain.CatalogStats{TotalBooks: total, ByStatus: byStatus}, nil
}
