package core

import "strings"

// QueryType is the classified statement verb.
type QueryType string

const (
	QuerySelect QueryType = "SELECT"
	QueryInsert QueryType = "INSERT"
	QueryUpdate QueryType = "UPDATE"
	QueryDelete QueryType = "DELETE"
	QueryCreate QueryType = "CREATE"
	QueryDrop   QueryType = "DROP"
	QueryAlter  QueryType = "ALTER"
	QueryOther  QueryType = "OTHER"
)

var classifiedVerbs = []QueryType{
	QuerySelect, QueryInsert, QueryUpdate, QueryDelete,
	QueryCreate, QueryDrop, QueryAlter,
}

// ClassifyStatement matches the leading SQL verb, ignoring case and leading
// whitespace. Anything else is OTHER.
func ClassifyStatement(sql string) QueryType {
	q := strings.ToUpper(strings.TrimSpace(sql))
	for _, v := range classifiedVerbs {
		if strings.HasPrefix(q, string(v)) {
			return v
		}
	}
	return QueryOther
}

// SupportsPlan reports whether a plan is retrieved for this statement type.
func (t QueryType) SupportsPlan() bool {
	switch t {
	case QuerySelect, QueryInsert, QueryUpdate, QueryDelete:
		return true
	}
	return false
}

// SupportsPlanAnalysis reports whether the plan may re-run the statement
// under instrumentation. Only SELECT is safe to execute twice.
func (t QueryType) SupportsPlanAnalysis() bool {
	return t == QuerySelect
}
