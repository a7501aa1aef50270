// Package paging parses page/limit query parameters for paged API
// lists and converts them into Mongo skip/limit windows.
package paging

import (
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/query"
)

// DefaultPageSize is the number of rows returned when the caller does
// not ask for a specific limit.
const DefaultPageSize = 50

// MaxPageSize caps per-request limits so a single call cannot drag an
// unbounded result set through the API.
const MaxPageSize = 200

// ParsePage extracts the 1-based "page" query parameter.
// Returns 1 if not present or invalid.
func ParsePage(r *http.Request) int {
	s := query.Get(r, "page")
	if s == "" {
		return 1
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// ParseLimit extracts the "limit" query parameter, clamped to
// [1, MaxPageSize]. Returns DefaultPageSize if not present or invalid.
func ParseLimit(r *http.Request) int64 {
	s := query.Get(r, "limit")
	if s == "" {
		return DefaultPageSize
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return DefaultPageSize
	}
	if n > MaxPageSize {
		return MaxPageSize
	}
	return int64(n)
}

// Skip converts a 1-based page and a limit into the number of rows to
// skip.
func Skip(page int, limit int64) int64 {
	return int64(page-1) * limit
}

// Pages returns how many pages a result set of total rows spans at the
// given limit. Zero rows is one (empty) page.
func Pages(total, limit int64) int {
	if limit <= 0 {
		return 1
	}
	pages := int((total + limit - 1) / limit)
	if pages < 1 {
		return 1
	}
	return pages
}
