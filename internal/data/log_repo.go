package data

import (
	"context"
	"database/sql"
	"encoding/json"

	"queryproxy/internal/core"
)

type LogRepo struct {
	db *sql.DB
}

func NewLogRepo(db *sql.DB) *LogRepo {
	return &LogRepo{db: db}
}

func (r *LogRepo) Create(ctx context.Context, entry *core.QueryLog) error {
	feedback := entry.Feedback
	if feedback == nil {
		feedback = []core.FeedbackItem{}
	}
	feedbackJSON, err := json.Marshal(feedback)
	if err != nil {
		return err
	}

	var errText sql.NullString
	if entry.Error != "" {
		errText = sql.NullString{String: entry.Error, Valid: true}
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO query_logs (user_id, query_text, execution_time_ms, suspicious, feedback, query_type, affected_rows, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)`,
		entry.UserID, entry.QueryText, entry.ExecutionTimeMs, entry.Suspicious,
		string(feedbackJSON), string(entry.QueryType), entry.AffectedRows, errText)
	if err != nil {
		return err
	}
	if id, err := res.LastInsertId(); err == nil {
		entry.ID = id
	}
	return nil
}

// GetRecent returns the user's newest records first.
func (r *LogRepo) GetRecent(ctx context.Context, userID string, limit int) ([]core.QueryLog, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, query_text, execution_time_ms, suspicious, feedback, query_type, affected_rows, error, created_at
		FROM query_logs
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := []core.QueryLog{}
	for rows.Next() {
		var entry core.QueryLog
		var feedbackJSON string
		var errText sql.NullString
		var queryType string
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.QueryText, &entry.ExecutionTimeMs,
			&entry.Suspicious, &feedbackJSON, &queryType, &entry.AffectedRows, &errText, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entry.QueryType = core.QueryType(queryType)
		if errText.Valid {
			entry.Error = errText.String
		}
		if err := json.Unmarshal([]byte(feedbackJSON), &entry.Feedback); err != nil {
			entry.Feedback = []core.FeedbackItem{}
		}
		logs = append(logs, entry)
	}
	return logs, rows.Err()
}

// ClearByUser deletes all of one user's records and reports how many.
func (r *LogRepo) ClearByUser(ctx context.Context, userID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM query_logs WHERE user_id = ?`, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *LogRepo) Stats(ctx context.Context, userID string) (*core.UsageStats, error) {
	var s core.UsageStats
	err := r.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN suspicious = 1 THEN 1 ELSE 0 END), 0),
			COALESCE(AVG(execution_time_ms), 0),
			COALESCE(SUM(CASE WHEN created_at >= datetime('now', '-1 day') THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN created_at >= datetime('now', '-1 hour') THEN 1 ELSE 0 END), 0)
		FROM query_logs
		WHERE user_id = ?`, userID).
		Scan(&s.TotalQueries, &s.SuspiciousQueries, &s.AvgExecutionTime, &s.Queries24h, &s.Queries1h)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *LogRepo) TypeBreakdown(ctx context.Context, userID string) ([]core.TypeBreakdown, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT query_type, COUNT(*), COALESCE(AVG(execution_time_ms), 0)
		FROM query_logs
		WHERE user_id = ?
		GROUP BY query_type
		ORDER BY COUNT(*) DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	breakdown := []core.TypeBreakdown{}
	for rows.Next() {
		var b core.TypeBreakdown
		var queryType string
		if err := rows.Scan(&queryType, &b.Count, &b.AvgTime); err != nil {
			return nil, err
		}
		b.QueryType = core.QueryType(queryType)
		breakdown = append(breakdown, b)
	}
	return breakdown, rows.Err()
}
