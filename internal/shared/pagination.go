package shared

import "math"

// Pagination contains metadata for paginated listings.
type Pagination struct {
	Page       int
	PerPage    int
	Total      int
	TotalPages int
}

// NewPagination computes pagination metadata.
func NewPagination(page, perPage, total int) Pagination {
	if perPage <= 0 {
		perPage = 10
	}
	if page <= 0 {
		page = 1
	}
	if total < 0 {
		total = 0
	}
	totalPages := int(math.Ceil(float64(total) / float64(perPage)))
	return Pagination{Page: page, PerPage: perPage, Total: total, TotalPages: totalPages}
}

// LastPage is the highest navigable page, at least 1.
func (p Pagination) LastPage() int {
	if p.TotalPages < 1 {
		return 1
	}
	return p.TotalPages
}

// InRange reports whether page can be navigated to.
func (p Pagination) InRange(page int) bool {
	return page >= 1 && page <= p.LastPage()
}

// Start is the 1-based index of the first record on the current page.
func (p Pagination) Start() int {
	if p.Total == 0 {
		return 0
	}
	return (p.Page-1)*p.PerPage + 1
}

// End is the 1-based index of the last record on the current page.
func (p Pagination) End() int {
	end := p.Page * p.PerPage
	if end > p.Total {
		end = p.Total
	}
	if end < p.Start() {
		return p.Start()
	}
	return end
}
