package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"
)

// SortOrder represents the sort direction.
type SortOrder string

const (
	SortOrderAsc  SortOrder = "asc"
	SortOrderDesc SortOrder = "desc"
)

// SortField represents the field to sort results by. Values match the
// REST sortBy parameter 1:1.
type SortField string

const (
	SortFieldScore     SortField = "score"
	SortFieldViews     SortField = "views"
	SortFieldLikes     SortField = "likes"
	SortFieldRating    SortField = "rating"
	SortFieldCreatedAt SortField = "createdAt"
	SortFieldUpdatedAt SortField = "updatedAt"
)

// knownSortFields guards the fallback: unknown sort keys sort by score.
var knownSortFields = map[SortField]struct{}{
	SortFieldScore:     {},
	SortFieldViews:     {},
	SortFieldLikes:     {},
	SortFieldRating:    {},
	SortFieldCreatedAt: {},
	SortFieldUpdatedAt: {},
}

// SearchParams holds the search query, structured filters, sorting and
// pagination for one pipeline execution.
type SearchParams struct {
	Query string

	GenreSlugs []string
	AuthorID   string
	Tags       []string

	SortBy    SortField
	SortOrder SortOrder

	Page     int // 1-indexed
	PageSize int
}

// DefaultSearchParams returns search params with sensible defaults.
func DefaultSearchParams() SearchParams {
	return SearchParams{
		SortBy:    SortFieldScore,
		SortOrder: SortOrderDesc,
		Page:      1,
		PageSize:  20,
	}
}

// Validate clamps params to acceptable bounds. This is bound correction,
// not request validation; structurally invalid requests are rejected at
// the transport layer before the pipeline runs.
func (p *SearchParams) Validate() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
	if _, ok := knownSortFields[p.SortBy]; !ok {
		p.SortBy = SortFieldScore
	}
	if p.SortOrder != SortOrderAsc && p.SortOrder != SortOrderDesc {
		p.SortOrder = SortOrderDesc
	}
}

// HasFilters returns true if any structured filter is set.
func (p *SearchParams) HasFilters() bool {
	return len(p.GenreSlugs) > 0 || p.AuthorID != "" || len(p.Tags) > 0
}

// Offset calculates the pagination offset.
func (p *SearchParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// CacheKey returns a stable key for caching this request's result page.
func (p *SearchParams) CacheKey() string {
	var sb strings.Builder
	sb.WriteString(Normalize(p.Query))
	sb.WriteByte('|')
	sb.WriteString(strings.Join(sortedCopy(p.GenreSlugs), ","))
	sb.WriteByte('|')
	sb.WriteString(p.AuthorID)
	sb.WriteByte('|')
	sb.WriteString(strings.Join(sortedCopy(p.Tags), ","))
	sb.WriteByte('|')
	sb.WriteString(string(p.SortBy))
	sb.WriteByte('|')
	sb.WriteString(string(p.SortOrder))
	sb.WriteByte('|')
	sb.WriteString(strconv.Itoa(p.Page))
	sb.WriteByte('|')
	sb.WriteString(strconv.Itoa(p.PageSize))

	sum := sha256.Sum256([]byte(sb.String()))
	return "search:" + hex.EncodeToString(sum[:])
}

func sortedCopy(values []string) []string {
	out := make([]string, len(values))
	copy(out, values)
	sort.Strings(out)
	return out
}

// SearchResultPage is one page of the sorted, filtered result list.
type SearchResultPage struct {
	Items        []*SearchResultItem `json:"items"`
	TotalMatches int                 `json:"total_matches"`
	Page         int                 `json:"page"`
	PageSize     int                 `json:"page_size"`
	TotalPages   int                 `json:"total_pages"`
}

// NewSearchResultPage builds a page with calculated pagination metadata.
// totalMatches is the length of the full sorted list, computed pre-slice.
func NewSearchResultPage(items []*SearchResultItem, totalMatches int, params SearchParams) *SearchResultPage {
	totalPages := totalMatches / params.PageSize
	if totalMatches%params.PageSize > 0 {
		totalPages++
	}

	if items == nil {
		items = []*SearchResultItem{}
	}

	return &SearchResultPage{
		Items:        items,
		TotalMatches: totalMatches,
		Page:         params.Page,
		PageSize:     params.PageSize,
		TotalPages:   totalPages,
	}
}

// EmptyPage returns a well-formed empty page for the given params.
// Empty results are not errors.
func EmptyPage(params SearchParams) *SearchResultPage {
	return NewSearchResultPage(nil, 0, params)
}

// SortItems orders items by the chosen field and direction. Ties break on
// ascending book id regardless of direction, so pagination is
// deterministic.
func SortItems(items []*SearchResultItem, by SortField, order SortOrder) {
	sort.SliceStable(items, func(i, j int) bool {
		ki, kj := sortKey(items[i], by), sortKey(items[j], by)
		if ki == kj {
			return items[i].Book.ID < items[j].Book.ID
		}
		if order == SortOrderAsc {
			return ki < kj
		}
		return ki > kj
	})
}

// sortKey projects an item onto the numeric sort axis for the field.
func sortKey(item *SearchResultItem, by SortField) float64 {
	switch by {
	case SortFieldViews:
		return float64(item.Book.Views)
	case SortFieldLikes:
		return float64(item.Book.Likes)
	case SortFieldRating:
		return item.Stats.AverageRating
	case SortFieldCreatedAt:
		return float64(item.Book.CreatedAt.UnixNano())
	case SortFieldUpdatedAt:
		return float64(item.Book.UpdatedAt.UnixNano())
	default:
		return item.Score
	}
}

// PageSlice returns the contiguous window [offset, offset+pageSize) of the
// sorted list. Windows past the end yield an empty slice.
func PageSlice(items []*SearchResultItem, page, pageSize int) []*SearchResultItem {
	start := (page - 1) * pageSize
	if start >= len(items) {
		return []*SearchResultItem{}
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
