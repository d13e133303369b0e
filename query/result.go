package query

// Pagination describes a window over a larger result set.
type Pagination struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Pages int   `json:"pages"`
}

// Result is the fixed response shape of paginated list endpoints.
type Result[T any] struct {
	Data       []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// NewPagination computes pages as ceil(total/limit).
func NewPagination(total int64, page, limit int) Pagination {
	page, limit = normalize(page, limit)
	pages := 0
	if total > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Pagination{Total: total, Page: page, Limit: limit, Pages: pages}
}

// NewResult wraps rows with their pagination metadata. Data is never nil so
// an empty page encodes as [].
func NewResult[T any](rows []T, total int64, page, limit int) Result[T] {
	if rows == nil {
		rows = []T{}
	}
	return Result[T]{Data: rows, Pagination: NewPagination(total, page, limit)}
}
