package api

import (
	"net/http/httptest"
	"testing"
)

func TestParsePagination(t *testing.T) {
	tests := []struct {
		query       string
		wantPage    int
		wantPerPage int
	}{
		{"", 1, 25},
		{"?page=3&per_page=10", 3, 10},
		{"?per_page=100", 1, 100},
		{"?per_page=1000", 1, 100},
		{"?page=0&per_page=-5", 1, 25},
		{"?page=abc&per_page=xyz", 1, 25},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			p := ParsePagination(httptest.NewRequest("GET", "/api/incidents"+tt.query, nil))
			if p.Page != tt.wantPage || p.PerPage != tt.wantPerPage {
				t.Errorf("got page=%d per_page=%d, want %d/%d", p.Page, p.PerPage, tt.wantPage, tt.wantPerPage)
			}
		})
	}
}

func TestPaginationParams_Offset(t *testing.T) {
	if got := (PaginationParams{Page: 1, PerPage: 50}).Offset(); got != 0 {
		t.Errorf("first page offset = %d, want 0", got)
	}
	if got := (PaginationParams{Page: 4, PerPage: 25}).Offset(); got != 75 {
		t.Errorf("fourth page offset = %d, want 75", got)
	}
}

func TestPaginationParams_TotalPages(t *testing.T) {
	tests := []struct {
		perPage int
		total   int64
		want    int
	}{
		{50, 0, 0},
		{50, 50, 1},
		{50, 51, 2},
		{10, 95, 10},
		{0, 10, 0},
		{25, -1, 0},
	}
	for _, tt := range tests {
		if got := (PaginationParams{Page: 1, PerPage: tt.perPage}).TotalPages(tt.total); got != tt.want {
			t.Errorf("TotalPages(%d) with per_page=%d = %d, want %d", tt.total, tt.perPage, got, tt.want)
		}
	}
}

func TestPaginationParams_Meta(t *testing.T) {
	got := (PaginationParams{Page: 2, PerPage: 25}).Meta(60)
	want := PaginationMeta{Page: 2, PerPage: 25, Total: 60, TotalPages: 3}
	if got != want {
		t.Errorf("Meta(60) = %+v, want %+v", got, want)
	}
}
