package core

import "context"

// UserRepository defines storage operations for user accounts and their API
// keys. Lookups return (nil, nil) when no row matches.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByAPIKey(ctx context.Context, key string) (*User, error)
	SetAPIKey(ctx context.Context, userID, key string) error
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
}

// ConfigRepository defines storage operations for tenant database configs.
// Save replaces the whole config; there is no partial update.
type ConfigRepository interface {
	Save(ctx context.Context, cfg *TenantConfig) error
	GetByUserID(ctx context.Context, userID string) (*TenantConfig, error)
}

// LogRepository defines storage operations for query attempt records.
type LogRepository interface {
	Create(ctx context.Context, entry *QueryLog) error
	GetRecent(ctx context.Context, userID string, limit int) ([]QueryLog, error)
	ClearByUser(ctx context.Context, userID string) (int64, error)
	Stats(ctx context.Context, userID string) (*UsageStats, error)
	TypeBreakdown(ctx context.Context, userID string) ([]TypeBreakdown, error)
}

// Analyzer scores a statement's risk. Implementations must honor ctx
// cancellation; callers bound every call with a timeout.
type Analyzer interface {
	Analyze(ctx context.Context, req *AnalysisRequest) (*AnalysisVerdict, error)
}
