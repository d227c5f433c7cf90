// Package domain contains the core business logic and entities.
// This package has no infrastructure dependencies.
package domain

import (
	"math"
	"time"
)

// BookStatus represents the publication state of a book.
type BookStatus string

const (
	BookStatusDraft     BookStatus = "draft"
	BookStatusPublished BookStatus = "published"
	BookStatusArchived  BookStatus = "archived"
)

// AuthorSummary is the denormalized author information carried on a book.
type AuthorSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// GenreSummary is the denormalized genre information carried on a book.
type GenreSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Book is the hydrated catalog entry. It is read-only from the search
// engine's perspective; the catalog store owns its lifecycle.
type Book struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Description string     `json:"description"`
	CoverURL    string     `json:"cover_url,omitempty"`
	Status      BookStatus `json:"status"`
	Tags        []string   `json:"tags,omitempty"`

	Author AuthorSummary  `json:"author"`
	Genres []GenreSummary `json:"genres,omitempty"`

	// Counters maintained by the catalog store
	Views int `json:"views"`
	Likes int `json:"likes"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsPublished returns true if the book is visible to readers.
func (b *Book) IsPublished() bool {
	return b.Status == BookStatusPublished
}

// BookStats holds per-book aggregates computed at search time.
// Zero values are valid: a book with no chapters or reviews is not a fault.
type BookStats struct {
	ChapterCount  int     `json:"chapter_count"`
	AverageRating float64 `json:"average_rating"`
	ReviewCount   int     `json:"review_count"`
}

// RoundRating rounds an average rating to one decimal place.
func RoundRating(v float64) float64 {
	return math.Round(v*10) / 10
}

// SearchResultItem is the unit returned to callers: a catalog entry plus
// its aggregates and the winning retrieval score.
type SearchResultItem struct {
	Book      *Book     `json:"book"`
	Stats     BookStats `json:"stats"`
	Score     float64   `json:"score"`
	MatchType MatchType `json:"match_type,omitempty"`
}
