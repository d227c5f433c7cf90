// Package dto provides Data Transfer Objects for HTTP requests and responses.
package dto

import (
	"strings"

	"book-search-service/internal/domain"
)

// SearchRequest represents the query parameters for searching books.
// Genres and Tags accept comma-separated lists.
type SearchRequest struct {
	Query    string `query:"query" validate:"max=200"`
	Genres   string `query:"genres" validate:"max=500"`
	Tags     string `query:"tags" validate:"max=500"`
	AuthorID string `query:"author_id" validate:"omitempty,uuid4"`
	SortBy   string `query:"sortBy" validate:"omitempty,oneof=score views likes rating createdAt updatedAt"`
	Order    string `query:"order" validate:"omitempty,oneof=asc desc"`
	Page     int    `query:"page" validate:"omitempty,min=1"`
	Limit    int    `query:"limit" validate:"omitempty,min=1,max=100"`
}

// HasFilters reports whether any structured filter is present.
func (r *SearchRequest) HasFilters() bool {
	return splitList(r.Genres) != nil || splitList(r.Tags) != nil || r.AuthorID != ""
}

// ToSearchParams converts SearchRequest to domain.SearchParams.
func (r *SearchRequest) ToSearchParams() domain.SearchParams {
	params := domain.DefaultSearchParams()

	params.Query = r.Query
	params.GenreSlugs = splitList(r.Genres)
	params.Tags = splitList(r.Tags)
	params.AuthorID = r.AuthorID

	if r.SortBy != "" {
		params.SortBy = domain.SortField(r.SortBy)
	}
	if r.Order != "" {
		params.SortOrder = domain.SortOrder(r.Order)
	}
	if r.Page > 0 {
		params.Page = r.Page
	}
	if r.Limit > 0 {
		params.PageSize = r.Limit
	}

	return params
}

// splitList splits a comma-separated parameter, dropping empty elements.
func splitList(s string) []string {
	if s == "" {
		return nil
	}

	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}

	return out
}
