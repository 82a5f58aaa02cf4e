package api

import (
	"net/http"
	"strconv"
)

// Report rows carry descriptions and media lists, so pages stay small
const (
	defaultPage          = 1
	defaultReportPerPage = 25
	maxReportPerPage     = 100
)

// PaginationParams holds the page and per_page query values of a report list.
type PaginationParams struct {
	Page    int
	PerPage int
}

// ParsePagination reads page and per_page for a report list.
// Missing or non-positive values fall back to page 1 and 25 per page;
// per_page is capped at 100.
func ParsePagination(r *http.Request) PaginationParams {
	q := r.URL.Query()
	p := PaginationParams{
		Page:    positiveQueryInt(q.Get("page"), defaultPage),
		PerPage: positiveQueryInt(q.Get("per_page"), defaultReportPerPage),
	}
	if p.PerPage > maxReportPerPage {
		p.PerPage = maxReportPerPage
	}
	return p
}

func positiveQueryInt(v string, fallback int) int {
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return n
	}
	return fallback
}

// Offset is the number of reports skipped before this page.
func (p PaginationParams) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// TotalPages is how many pages total reports fill.
func (p PaginationParams) TotalPages(total int64) int {
	if p.PerPage <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(p.PerPage) - 1) / int64(p.PerPage))
}

// Meta builds the pagination block of a report list response.
func (p PaginationParams) Meta(total int64) PaginationMeta {
	return PaginationMeta{
		Page:       p.Page,
		PerPage:    p.PerPage,
		Total:      total,
		TotalPages: p.TotalPages(total),
	}
}
