package shared

import (
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewPaginationDefaults(t *testing.T) {
	p := NewPagination(0, 0, 45)
	require.Equal(t, Pagination{Page: 1, PerPage: DefaultPerPage, Total: 45, TotalPages: 3}, p)
	require.Equal(t, MaxPerPage, NewPagination(1, 10_000, 1).PerPage)
}

func TestPaginationBounds(t *testing.T) {
	cases := []struct {
		page, perPage, total int
		start, end           int
	}{
		{1, 10, 25, 0, 10},
		{3, 10, 25, 20, 25},
		{4, 10, 25, 25, 25},
		{1, 10, 0, 0, 0},
	}
	for _, tc := range cases {
		start, end := NewPagination(tc.page, tc.perPage, tc.total).Bounds()
		require.Equal(t, tc.start, start)
		require.Equal(t, tc.end, end)
	}
}

func TestPaginationFromQuery(t *testing.T) {
	_, ok := PaginationFromQuery(url.Values{}, 10)
	require.False(t, ok)

	p, ok := PaginationFromQuery(url.Values{"page": {"2"}, "per_page": {"3"}}, 10)
	require.True(t, ok)
	require.Equal(t, Pagination{Page: 2, PerPage: 3, Total: 10, TotalPages: 4}, p)

	rec := httptest.NewRecorder()
	p.WriteHeaders(rec)
	require.Equal(t, "10", rec.Header().Get("X-Total-Count"))
	require.Equal(t, "4", rec.Header().Get("X-Total-Pages"))
}
