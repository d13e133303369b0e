package query

import (
	"fmt"
	"slices"
	"strings"
)

// Plan is the SQL generated for one list request. CountSQL and ListSQL bind
// Args; DataSQL binds DataArgs, which is Args followed by limit and offset.
type Plan struct {
	CountSQL string
	ListSQL  string
	DataSQL  string
	Args     []any
	DataArgs []any
	Page     int
	Limit    int
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Build translates req into parameterized SQL against r. Only Columns that
// belong to r are ever written into the statement; every value is bound.
func Build(r Resource, req Request) Plan {
	page, limit := normalize(req.Page, req.Limit)

	var (
		conds []string
		args  []any
	)
	if req.Search != "" && len(r.search) > 0 {
		args = append(args, "%"+likeEscaper.Replace(req.Search)+"%")
		n := len(args)
		ors := make([]string, len(r.search))
		for i, c := range r.search {
			ors[i] = fmt.Sprintf("%s ILIKE $%d", c.name, n)
		}
		conds = append(conds, "("+strings.Join(ors, " OR ")+")")
	}

	for _, c := range r.columns {
		val, ok := req.Filters[c]
		if !ok {
			val, ok = r.defaultFor(c)
		}
		if !ok {
			continue
		}
		args = append(args, val)
		conds = append(conds, fmt.Sprintf("%s = $%d", c.name, len(args)))
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	sortBy := req.SortBy
	if sortBy.IsZero() || !r.Has(sortBy) {
		sortBy = ColID
	}
	order := Desc
	if req.Order == Asc {
		order = Asc
	}
	orderBy := fmt.Sprintf(" ORDER BY %s %s", sortBy.name, order)
	if sortBy != ColID {
		// keep page boundaries stable when the sort column has duplicates
		orderBy += fmt.Sprintf(", %s %s", ColID.name, order)
	}

	list := "SELECT " + r.selectList() + " FROM " + r.table + where + orderBy
	return Plan{
		CountSQL: "SELECT COUNT(*) FROM " + r.table + where,
		ListSQL:  list,
		DataSQL:  list + fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2),
		Args:     args,
		DataArgs: append(slices.Clone(args), limit, (page-1)*limit),
		Page:     page,
		Limit:    limit,
	}
}

func (r Resource) defaultFor(c Column) (string, bool) {
	for _, d := range r.defaults {
		if d.col == c {
			return d.value, true
		}
	}
	return "", false
}

func normalize(page, limit int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if page > MaxPage {
		page = MaxPage
	}
	return page, limit
}
