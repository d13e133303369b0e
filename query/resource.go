package query

import (
	"slices"
	"strings"
)

// Resource describes a table the builder may query: what it selects, which
// columns free-text search covers and which filters apply implicitly.
type Resource struct {
	name     string
	table    string
	columns  []Column
	search   []Column
	defaults []defaultFilter
}

type defaultFilter struct {
	col   Column
	value string
}

// Name is the logical resource name, used as the cache key prefix.
func (r Resource) Name() string { return r.name }

// Table is the SQL table name.
func (r Resource) Table() string { return r.table }

// Has reports whether the resource selects c.
func (r Resource) Has(c Column) bool { return slices.Contains(r.columns, c) }

// SearchColumns returns the columns covered by free-text search.
func (r Resource) SearchColumns() []Column { return slices.Clone(r.search) }

func (r Resource) selectList() string {
	names := make([]string, len(r.columns))
	for i, c := range r.columns {
		names[i] = c.name
	}
	return strings.Join(names, ", ")
}

var (
	Questions = Resource{
		name:  "questions",
		table: "questions",
		columns: []Column{
			ColID, ColCategory, ColQuestion, ColOptions, ColCorrectAnswer,
			ColExplanation, ColOptionExplanations, ColSource, ColCreatedAt,
		},
		search: []Column{ColCategory, ColQuestion},
	}

	Categories = Resource{
		name:    "categories",
		table:   "categories",
		columns: []Column{ColID, ColName, ColTopic, ColDescription, ColCreatedAt},
		search:  []Column{ColName, ColTopic, ColDescription},
	}

	Users = Resource{
		name:    "users",
		table:   "users",
		columns: []Column{ColID, ColUsername, ColRole, ColStatus, ColCreatedAt},
		search:  []Column{ColUsername},
	}

	// SubmittedQuestions lists only pending submissions unless the caller
	// asks for a status explicitly.
	SubmittedQuestions = Resource{
		name:  "submitted_questions",
		table: "submitted_questions",
		columns: []Column{
			ColID, ColUserID, ColCategory, ColQuestion, ColOptions,
			ColCorrectAnswer, ColExplanation, ColStatus, ColCreatedAt,
		},
		search:   []Column{ColCategory, ColQuestion},
		defaults: []defaultFilter{{col: ColStatus, value: "pending"}},
	}

	Feedback = Resource{
		name:  "feedback",
		table: "feedback",
		columns: []Column{
			ColID, ColUserID, ColQuestionID, ColType, ColPriority,
			ColMessage, ColStatus, ColCreatedAt,
		},
		search: []Column{ColMessage},
	}
)

// SelectList returns the resource's column list, each qualified with alias
// when alias is non-empty. Rows selected this way scan into the matching
// model with pgx.RowToStructByName.
func (r Resource) SelectList(alias string) string {
	if alias == "" {
		return r.selectList()
	}
	names := make([]string, len(r.columns))
	for i, c := range r.columns {
		names[i] = alias + "." + c.name
	}
	return strings.Join(names, ", ")
}
