package utils

import (
	"math"
	"net/url"
	"strconv"

	"github.com/yukikurage/issue-tracker-ui/internal/constants"
)

// PaginationParams is an offset window over a task listing.
// Skip is always a non-negative multiple of Limit.
type PaginationParams struct {
	Skip  int
	Limit int
}

// DefaultPagination returns the first page with the default page size.
func DefaultPagination() PaginationParams {
	return PaginationParams{Skip: 0, Limit: constants.DefaultPageSize}
}

// GetPaginationParams extracts skip/limit from a query string and normalizes them
func GetPaginationParams(values url.Values) PaginationParams {
	skip, _ := strconv.Atoi(values.Get("skip"))
	limit, err := strconv.Atoi(values.Get("limit"))
	if err != nil {
		limit = constants.DefaultPageSize
	}
	return Normalize(skip, limit)
}

// Normalize clamps limit into range and rounds skip down to a page boundary.
func Normalize(skip, limit int) PaginationParams {
	if limit < 1 || limit > constants.MaxPageSize {
		limit = constants.DefaultPageSize
	}
	if skip < 0 {
		skip = 0
	}
	skip -= skip % limit

	return PaginationParams{Skip: skip, Limit: limit}
}

// Page returns the 1-based page number.
func (p PaginationParams) Page() int {
	return p.Skip/p.Limit + 1
}

// MaxPage is the highest page whose skip still fits in an int.
func (p PaginationParams) MaxPage() int {
	if p.Limit < 1 {
		return 1
	}
	return (math.MaxInt-p.Limit)/p.Limit + 1
}

// WithPage returns the window for page (1-based), clamped to [1, MaxPage].
func (p PaginationParams) WithPage(page int) PaginationParams {
	page = max(1, min(page, p.MaxPage()))
	return PaginationParams{Skip: (page - 1) * p.Limit, Limit: p.Limit}
}

// PageCount returns ceil(total/limit).
func PageCount(total, limit int) int {
	if total <= 0 || limit <= 0 {
		return 0
	}
	pages := total / limit
	if total%limit > 0 {
		pages++
	}
	return pages
}
