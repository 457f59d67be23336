package data

import (
	"context"
	"database/sql"

	"queryproxy/internal/core"
)

// ConfigRepo stores tenant database configs. Passwords arrive already
// encrypted; this layer never sees plaintext credentials.
type ConfigRepo struct {
	db *sql.DB
}

func NewConfigRepo(db *sql.DB) *ConfigRepo {
	return &ConfigRepo{db: db}
}

// Save replaces the user's config wholesale.
func (r *ConfigRepo) Save(ctx context.Context, cfg *core.TenantConfig) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tenant_configs (user_id, db_host, db_port, db_user, db_pass_enc, db_name, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(user_id) DO UPDATE SET
			db_host = excluded.db_host,
			db_port = excluded.db_port,
			db_user = excluded.db_user,
			db_pass_enc = excluded.db_pass_enc,
			db_name = excluded.db_name,
			updated_at = CURRENT_TIMESTAMP`,
		cfg.UserID, cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database)
	return err
}

func (r *ConfigRepo) GetByUserID(ctx context.Context, userID string) (*core.TenantConfig, error) {
	var cfg core.TenantConfig
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, db_host, db_port, db_user, db_pass_enc, db_name, updated_at FROM tenant_configs WHERE user_id = ?`,
		userID).
		Scan(&cfg.UserID, &cfg.Host, &cfg.Port, &cfg.User, &cfg.Password, &cfg.Database, &cfg.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}
