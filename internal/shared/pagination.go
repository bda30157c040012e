package shared

import (
	"math"
	"net/http"
	"net/url"
	"strconv"
)

// DefaultPerPage is used when a listing asks for a page without a size.
const DefaultPerPage = 20

// MaxPerPage caps the page size accepted from clients.
const MaxPerPage = 200

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
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	if page <= 0 {
		page = 1
	}
	totalPages := int(math.Ceil(float64(total) / float64(perPage)))
	return Pagination{Page: page, PerPage: perPage, Total: total, TotalPages: totalPages}
}

// PaginationFromQuery reads page and per_page. ok is false when neither is set,
// meaning the caller wants the full listing.
func PaginationFromQuery(q url.Values, total int) (p Pagination, ok bool) {
	rawPage, rawSize := q.Get("page"), q.Get("per_page")
	if rawPage == "" && rawSize == "" {
		return Pagination{}, false
	}
	page, _ := strconv.Atoi(rawPage)
	perPage, _ := strconv.Atoi(rawSize)
	return NewPagination(page, perPage, total), true
}

// Bounds returns the slice window [start, end) of the current page.
func (p Pagination) Bounds() (start, end int) {
	start = (p.Page - 1) * p.PerPage
	if start > p.Total {
		start = p.Total
	}
	end = start + p.PerPage
	if end > p.Total {
		end = p.Total
	}
	return start, end
}

// WriteHeaders exposes the pagination metadata as response headers.
func (p Pagination) WriteHeaders(w http.ResponseWriter) {
	h := w.Header()
	h.Set("X-Total-Count", strconv.Itoa(p.Total))
	h.Set("X-Page", strconv.Itoa(p.Page))
	h.Set("X-Per-Page", strconv.Itoa(p.PerPage))
	h.Set("X-Total-Pages", strconv.Itoa(p.TotalPages))
}
