package service

import (
	"context"
	"database/sql"
	"fmt"

	"queryproxy/internal/core"
)

// QueryResult is the bundle returned to the caller after a successful
// execution. Suspicion and feedback are not part of it; those are decided
// later by the detached analysis.
type QueryResult struct {
	Rows         []map[string]any `json:"rows"`
	Fields       []string         `json:"fields"`
	AffectedRows int64            `json:"affectedRows"`
	InsertID     *int64           `json:"insertId"`
	ExecTimeMs   int64            `json:"execTime"`
	QueryType    core.QueryType   `json:"queryType"`
}

// QueryExecutor runs a tenant's statement verbatim against an opened pool.
// It never owns the pool; the caller opens and closes it.
type QueryExecutor struct{}

func NewQueryExecutor() *QueryExecutor {
	return &QueryExecutor{}
}

// Execute classifies and runs the statement. SELECT and unclassified
// statements go through the row path; data/schema mutations go through the
// exec path so affected rows and insert ids are captured.
func (e *QueryExecutor) Execute(ctx context.Context, pool *sql.DB, sqlText string) (*QueryResult, error) {
	qt := core.ClassifyStatement(sqlText)
	result := &QueryResult{
		Rows:      []map[string]any{},
		Fields:    []string{},
		QueryType: qt,
	}

	switch qt {
	case core.QuerySelect, core.QueryOther:
		rows, err := pool.QueryContext(ctx, sqlText)
		if err != nil {
			return nil, fmt.Errorf("execution error: %w", err)
		}
		defer rows.Close()

		data, columns, err := scanRows(rows)
		if err != nil {
			return nil, fmt.Errorf("execution error: %w", err)
		}
		result.Rows = data
		result.Fields = columns

	default:
		res, err := pool.ExecContext(ctx, sqlText)
		if err != nil {
			return nil, fmt.Errorf("execution error: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil {
			result.AffectedRows = n
		}
		if id, err := res.LastInsertId(); err == nil && id > 0 {
			result.InsertID = &id
		}
	}

	return result, nil
}

// RetrievePlan fetches the execution plan when the statement type supports
// one. SELECT re-runs under EXPLAIN ANALYZE; INSERT/UPDATE/DELETE get a
// static EXPLAIN. Any failure degrades to nil and never fails the request.
func (e *QueryExecutor) RetrievePlan(ctx context.Context, pool *sql.DB, qt core.QueryType, sqlText string) *core.Explanation {
	if !qt.SupportsPlan() {
		return nil
	}

	kind := "EXPLAIN"
	stmt := "EXPLAIN " + sqlText
	if qt.SupportsPlanAnalysis() {
		kind = "ANALYZE"
		stmt = "EXPLAIN ANALYZE " + sqlText
	}

	rows, err := pool.QueryContext(ctx, stmt)
	if err != nil {
		return nil
	}
	defer rows.Close()

	data, _, err := scanRows(rows)
	if err != nil {
		return nil
	}

	return &core.Explanation{Type: kind, Data: data}
}

// scanRows maps a generic result set into JSON-friendly rows. []byte values
// become strings so column text is not base64-mangled on the wire.
func scanRows(rows *sql.Rows) ([]map[string]any, []string, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}

	data := []map[string]any{}
	for rows.Next() {
		values := make([]any, len(columns))
		valuePtrs := make([]any, len(columns))
		for i := range columns {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, nil, err
		}

		rowMap := make(map[string]any, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				rowMap[col] = string(b)
			} else {
				rowMap[col] = values[i]
			}
		}
		data = append(data, rowMap)
	}

	return data, columns, rows.Err()
}
