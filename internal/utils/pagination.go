// Package utils holds small helpers shared across layers, free of any
// domain logic.
package utils

import "strconv"

// AtoiDefault converts s to an int, returning def when s is empty or not a
// valid integer.
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// ParsePagination parses page and page_size query values, applying the API's
// defaults (page 1, size 20) and the hard cap of 100 items per page.
func ParsePagination(pageStr, sizeStr string) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = AtoiDefault(pageStr, defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = AtoiDefault(sizeStr, defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}
