package common

import "net/http"

// Pagination holds pagination metadata for list responses.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalItems int `json:"total_items"`
}

// ParsePagination extracts page and per-page parameters from the query.
func ParsePagination(r *http.Request, defaultPerPage int) (page, perPage int) {
	page = QueryInt(r, "page", 1)
	if page < 1 {
		page = 1
	}
	perPage = QueryInt(r, "limit", defaultPerPage)
	if perPage < 1 {
		perPage = defaultPerPage
	}
	return
}
