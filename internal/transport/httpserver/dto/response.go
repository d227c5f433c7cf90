package dto

import (
	"time"

	"book-search-service/internal/app/service"
	"book-search-service/internal/domain"
)

// AuthorResponse is the author block carried on each result.
type AuthorResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// GenreResponse is one genre block carried on each result.
type GenreResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// BookResponse represents a single book result.
type BookResponse struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Slug        string   `json:"slug"`
	Description string   `json:"description,omitempty"`
	CoverURL    string   `json:"cover_url,omitempty"`
	Tags        []string `json:"tags,omitempty"`

	Author AuthorResponse  `json:"author"`
	Genres []GenreResponse `json:"genres,omitempty"`

	Views int `json:"views"`
	Likes int `json:"likes"`

	// Aggregates
	ChapterCount  int     `json:"chapter_count"`
	AverageRating float64 `json:"average_rating"`
	ReviewCount   int     `json:"review_count"`

	// Retrieval outcome
	Score     float64 `json:"score"`
	MatchType string  `json:"match_type,omitempty"`

	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// FromResultItem converts a domain.SearchResultItem to BookResponse.
func FromResultItem(item domain.SearchResultItem) BookResponse {
	b := item.Book

	genres := make([]GenreResponse, len(b.Genres))
	for i, g := range b.Genres {
		genres[i] = GenreResponse{ID: g.ID, Name: g.Name, Slug: g.Slug}
	}

	return BookResponse{
		ID:            b.ID,
		Title:         b.Title,
		Slug:          b.Slug,
		Description:   b.Description,
		CoverURL:      b.CoverURL,
		Tags:          b.Tags,
		Author:        AuthorResponse{ID: b.Author.ID, Name: b.Author.Name},
		Genres:        genres,
		Views:         b.Views,
		Likes:         b.Likes,
		ChapterCount:  item.Stats.ChapterCount,
		AverageRating: item.Stats.AverageRating,
		ReviewCount:   item.Stats.ReviewCount,
		Score:         item.Score,
		MatchType:     string(item.MatchType),
		CreatedAt:     b.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     b.UpdatedAt.Format(time.RFC3339),
	}
}

// SearchResponse represents the search results response.
type SearchResponse struct {
	Results    []BookResponse `json:"results"`
	Pagination PaginationMeta `json:"pagination"`
}

// PaginationMeta holds pagination metadata.
type PaginationMeta struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalPages int `json:"total_pages"`
}

// FromResultPage converts a domain.SearchResultPage to SearchResponse.
func FromResultPage(page *domain.SearchResultPage) SearchResponse {
	results := make([]BookResponse, len(page.Items))
	for i, item := range page.Items {
		results[i] = FromResultItem(*item)
	}

	return SearchResponse{
		Results: results,
		Pagination: PaginationMeta{
			Total:      page.TotalMatches,
			Page:       page.Page,
			PageSize:   page.PageSize,
			TotalPages: page.TotalPages,
		},
	}
}

// ReindexResponse represents the response for a manual reindex.
type ReindexResponse struct {
	Count    int    `json:"count"`
	Duration string `json:"duration"`
}

// FromIndexResult converts a service.IndexResult to ReindexResponse.
func FromIndexResult(r *service.IndexResult) ReindexResponse {
	return ReindexResponse{
		Count:    r.Count,
		Duration: r.Duration.String(),
	}
}

// VectorHealthResponse reports the vector service's reachability.
type VectorHealthResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string      `json:"error"`
	Code    string      `json:"code,omitempty"`
	Details interface{} `json:"details,omitempty"`
}
