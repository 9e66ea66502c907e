package domain

// PaginationParams carries page/limit values from the HTTP layer to the service layer.
// Page is 1-indexed. Limit is capped at 100 by NewPaginationParams.
type PaginationParams struct {
	// Page is the current page number, starting at 1.
	Page int
	// Limit is the maximum number of items to return.
	Limit int
}

// NewPaginationParams builds a PaginationParams from optional HTTP query params.
// Nil pointers fall back to sane defaults (page=1, limit=20).
// The limit is capped at 100 to prevent runaway responses.
func NewPaginationParams(page, limit *int) PaginationParams {
	p := PaginationParams{Page: 1, Limit: 20}
	if page != nil && *page >= 1 {
		p.Page = *page
	}
	if limit != nil && *limit >= 1 {
		p.Limit = *limit
		if p.Limit > 100 {
			p.Limit = 100
		}
	}
	return p
}

// Offset returns the zero-based index of the first item on the page.
func (p PaginationParams) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Window returns the [start, end) bounds of the page within a list of total
// items. Pages past the end yield an empty window.
func (p PaginationParams) Window(total int) (start, end int) {
	start = min(p.Offset(), total)
	end = min(start+p.Limit, total)
	return start, end
}
