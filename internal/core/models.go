package core

import (
	"time"
)

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	APIKey       string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// TenantConfig holds one user's target database parameters. The JSON field
// names follow the dashboard wire format.
type TenantConfig struct {
	UserID    string    `json:"USER_ID"`
	Host      string    `json:"DB_HOST"`
	Port      int       `json:"DB_PORT"`
	User      string    `json:"DB_USER"`
	Password  string    `json:"DB_PASS"`
	Database  string    `json:"DB_NAME"`
	UpdatedAt time.Time `json:"-"`
}

// Usable reports whether the config has the fields a connection cannot be
// built without. Port and password have defaults.
func (c *TenantConfig) Usable() bool {
	return c.Host != "" && c.User != "" && c.Database != ""
}

type FeedbackItem struct {
	Type     string `json:"type"`
	Severity string `json:"severity,omitempty"`
	Message  string `json:"message"`
}

// QueryLog is one query attempt. Immutable once written; rows are only ever
// deleted in bulk per user.
type QueryLog struct {
	ID              int64          `json:"id"`
	UserID          string         `json:"user_id"`
	QueryText       string         `json:"query_text"`
	ExecutionTimeMs int64          `json:"execution_time_ms"`
	Suspicious      bool           `json:"suspicious"`
	Feedback        []FeedbackItem `json:"feedback"`
	QueryType       QueryType      `json:"query_type"`
	AffectedRows    int64          `json:"affected_rows"`
	Error           string         `json:"error,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
}

// Explanation is a retrieved execution plan. Type is "EXPLAIN" for static
// plans and "ANALYZE" when the statement was re-run under instrumentation.
type Explanation struct {
	Type string           `json:"type"`
	Data []map[string]any `json:"data"`
}

// AnalysisRequest is the payload sent to the external risk analyzer.
type AnalysisRequest struct {
	SQL         string       `json:"sql"`
	ExecTimeMs  int64        `json:"exec_time_ms"`
	Explanation *Explanation `json:"explanation"`
	Error       string       `json:"error,omitempty"`
}

// AnalysisVerdict is the analyzer's scoring result.
type AnalysisVerdict struct {
	Suspicious bool           `json:"suspicious"`
	Feedback   []FeedbackItem `json:"feedback"`
}

// UsageStats aggregates one user's query history.
type UsageStats struct {
	TotalQueries      int64   `json:"total_queries"`
	SuspiciousQueries int64   `json:"suspicious_queries"`
	AvgExecutionTime  float64 `json:"avg_execution_time"`
	Queries24h        int64   `json:"queries_24h"`
	Queries1h         int64   `json:"queries_1h"`
}

type TypeBreakdown struct {
	QueryType QueryType `json:"query_type"`
	Count     int64     `json:"count"`
	AvgTime   float64   `json:"avg_time"`
}
