package shared

import "math"

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// Page is an offset-based page request (1-indexed)
type Page struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// NewPage clamps page and limit into their allowed ranges
func NewPage(page, limit int) Page {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	if page > math.MaxInt/limit {
		page = math.MaxInt / limit
	}
	return Page{Page: page, Limit: limit}
}

// Skip is the number of items before this page. It saturates at
// math.MaxInt instead of overflowing.
func (p Page) Skip() int {
	if p.Page < 1 || p.Limit <= 0 {
		return 0
	}
	if p.Page-1 > math.MaxInt/p.Limit {
		return math.MaxInt
	}
	return (p.Page - 1) * p.Limit
}

// Slice applies the page to n items and returns the [start, end) bounds
func (p Page) Slice(n int) (int, int) {
	start := p.Skip()
	if start < 0 || start > n {
		start = n
	}
	end := start + p.Limit
	if end < start || end > n || p.Limit <= 0 {
		end = n
	}
	return start, end
}

// Pagination describes where a page sits within the full result
type Pagination struct {
	Current int   `json:"current"`
	Pages   int   `json:"pages"`
	Total   int64 `json:"total"`
	HasNext bool  `json:"hasNext"`
	HasPrev bool  `json:"hasPrev"`
}

// Paginate builds the pagination summary for total items
func (p Page) Paginate(total int64) Pagination {
	pages := 0
	if p.Limit > 0 {
		pages = int(math.Ceil(float64(total) / float64(p.Limit)))
	}
	return Pagination{
		Current: p.Page,
		Pages:   pages,
		Total:   total,
		HasNext: p.Page < pages,
		HasPrev: p.Page > 1,
	}
}
