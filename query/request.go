package query

import (
	"math"
	"net/url"
	"strconv"
	"strings"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100

	// MaxPage keeps (page-1)*limit within int for any accepted limit.
	MaxPage = math.MaxInt / MaxLimit
)

// Order is a sort direction.
type Order string

const (
	Asc  Order = "ASC"
	Desc Order = "DESC"
)

// ParseOrder returns Asc only for "ASC" (any case); everything else is Desc.
func ParseOrder(v string) Order {
	if strings.EqualFold(strings.TrimSpace(v), string(Asc)) {
		return Asc
	}
	return Desc
}

// ParseIntOrDefault parses a positive integer, returning fallback for empty,
// malformed or non-positive input.
func ParseIntOrDefault(v string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

// Request is a validated list request. Filters only ever contains
// allow-listed columns with non-empty values.
type Request struct {
	Page    int
	Limit   int
	Search  string
	SortBy  Column
	Order   Order
	Filters map[Column]string

	// Paginated is set when the caller sent page or limit. Without it list
	// endpoints return every matching row.
	Paginated bool
}

// ParseRequest reads pagination, sort, search and filter parameters from a
// query string. Unknown parameters are ignored.
func ParseRequest(v url.Values) Request {
	req := Request{
		Page:      ParseIntOrDefault(v.Get("page"), DefaultPage),
		Limit:     ParseIntOrDefault(v.Get("limit"), DefaultLimit),
		Search:    strings.TrimSpace(v.Get("search")),
		SortBy:    SortColumn(v.Get("sortBy")),
		Order:     ParseOrder(v.Get("order")),
		Filters:   make(map[Column]string),
		Paginated: v.Has("page") || v.Has("limit"),
	}
	if req.Limit > MaxLimit {
		req.Limit = MaxLimit
	}
	if req.Page > MaxPage {
		req.Page = MaxPage
	}
	for param := range v {
		c, ok := FilterColumn(param)
		if !ok {
			continue
		}
		if val := strings.TrimSpace(v.Get(param)); val != "" {
			req.Filters[c] = val
		}
	}
	return req
}

// Offset is the number of rows skipped before the requested page.
func (r Request) Offset() int {
	page, limit := normalize(r.Page, r.Limit)
	return (page - 1) * limit
}

// UserID returns the userId filter value, if any.
func (r Request) UserID() (string, bool) {
	v, ok := r.Filters[ColUserID]
	return v, ok
}
