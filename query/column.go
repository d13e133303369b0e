package query

import "strings"

// Column is a column identifier that may be written into generated SQL.
// Its fields are unexported so the only Columns that exist are the ones
// declared in this package; request input is mapped onto them, never
// interpolated.
type Column struct {
	name  string
	param string
}

// String returns the SQL identifier.
func (c Column) String() string { return c.name }

// Param returns the request parameter name for the column.
func (c Column) Param() string { return c.param }

// IsZero reports whether c is the zero Column.
func (c Column) IsZero() bool { return c.name == "" }

func col(name, param string) Column { return Column{name: name, param: param} }

var (
	ColID                 = col("id", "id")
	ColCreatedAt          = col("created_at", "createdAt")
	ColCategory           = col("category", "category")
	ColQuestion           = col("question", "question")
	ColOptions            = col("options", "options")
	ColCorrectAnswer      = col("correct_answer", "correctAnswer")
	ColExplanation        = col("explanation", "explanation")
	ColOptionExplanations = col("option_explanations", "optionExplanations")
	ColSource             = col("source", "source")
	ColName               = col("name", "name")
	ColTopic              = col("topic", "topic")
	ColDescription        = col("description", "description")
	ColUsername           = col("username", "username")
	ColRole               = col("role", "role")
	ColStatus             = col("status", "status")
	ColUserID             = col("user_id", "userId")
	ColQuestionID         = col("question_id", "questionId")
	ColType               = col("type", "type")
	ColPriority           = col("priority", "priority")
	ColMessage            = col("message", "message")
)

// sortable maps accepted sortBy values onto columns. Both the SQL and the
// request spelling are accepted.
var sortable = index(
	ColID, ColCreatedAt, ColCategory, ColQuestion, ColUsername, ColRole,
	ColStatus, ColName, ColTopic, ColType, ColPriority,
)

// filterable maps request parameters onto exact-match filter columns.
var filterable = map[string]Column{
	ColRole.param:     ColRole,
	ColStatus.param:   ColStatus,
	ColCategory.param: ColCategory,
	ColType.param:     ColType,
	ColPriority.param: ColPriority,
	ColTopic.param:    ColTopic,
	ColUserID.param:   ColUserID,
}

func index(cols ...Column) map[string]Column {
	m := make(map[string]Column, len(cols)*2)
	for _, c := range cols {
		m[c.name] = c
		m[c.param] = c
	}
	return m
}

// SortColumn resolves a sortBy value. Unknown values resolve to ColID.
func SortColumn(v string) Column {
	if c, ok := sortable[strings.TrimSpace(v)]; ok {
		return c
	}
	return ColID
}

// FilterColumn resolves a filter parameter name against the filter allow-list.
func FilterColumn(param string) (Column, bool) {
	c, ok := filterable[param]
	return c, ok
}
