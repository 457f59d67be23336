package data

import (
	"context"
	"database/sql"

	"queryproxy/internal/core"
)

type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) Create(ctx context.Context, u *core.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, username, email, password_hash, api_key, created_at) VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)`,
		u.ID, u.Username, u.Email, u.PasswordHash, u.APIKey)
	return err
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*core.User, error) {
	return r.getOne(ctx, `SELECT id, username, email, password_hash, api_key, created_at FROM users WHERE id = ?`, id)
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*core.User, error) {
	return r.getOne(ctx, `SELECT id, username, email, password_hash, api_key, created_at FROM users WHERE email = ?`, email)
}

// GetByAPIKey resolves the owner of an issued key. Empty keys never match:
// every account starts with api_key = ''.
func (r *UserRepo) GetByAPIKey(ctx context.Context, key string) (*core.User, error) {
	if key == "" {
		return nil, nil
	}
	return r.getOne(ctx, `SELECT id, username, email, password_hash, api_key, created_at FROM users WHERE api_key = ? AND api_key <> ''`, key)
}

// SetAPIKey overwrites any previously issued key. One active key per user.
func (r *UserRepo) SetAPIKey(ctx context.Context, userID, key string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET api_key = ? WHERE id = ?`, key, userID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *UserRepo) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET password_hash = ? WHERE id = ?`, passwordHash, userID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *UserRepo) getOne(ctx context.Context, query string, arg any) (*core.User, error) {
	var u core.User
	err := r.db.QueryRowContext(ctx, query, arg).
		Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.APIKey, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
