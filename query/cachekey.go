package query

import (
	"encoding/json"
	"strconv"
)

// CacheKey returns "<resource>:" followed by the JSON of the canonical
// request. Only parameters that affect the generated SQL are included, so
// unrelated query-string noise cannot mint new keys.
func CacheKey(r Resource, req Request) string {
	page, limit := normalize(req.Page, req.Limit)
	sortBy := req.SortBy
	if sortBy.IsZero() || !r.Has(sortBy) {
		sortBy = ColID
	}
	order := Desc
	if req.Order == Asc {
		order = Asc
	}

	params := map[string]string{
		"sortBy": sortBy.name,
		"order":  string(order),
	}
	if req.Paginated {
		params["page"] = strconv.Itoa(page)
		params["limit"] = strconv.Itoa(limit)
	}
	if req.Search != "" && len(r.search) > 0 {
		params["search"] = req.Search
	}
	for c, v := range req.Filters {
		if r.Has(c) {
			params[c.param] = v
		}
	}

	// map keys are marshalled in sorted order
	b, _ := json.Marshal(params)
	return r.name + ":" + string(b)
}
