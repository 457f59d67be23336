package data

import (
	"database/sql"

	_ "modernc.org/sqlite"
)

// Open initializes the SQLite metadata store and runs migrations.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// SQLite allows a single writer; one connection avoids SQLITE_BUSY and
	// keeps :memory: databases coherent across the pool.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func runMigrations(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		api_key TEXT NOT NULL DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_users_api_key ON users(api_key) WHERE api_key <> '';

	CREATE TABLE IF NOT EXISTS tenant_configs (
		user_id TEXT PRIMARY KEY,
		db_host TEXT NOT NULL,
		db_port INTEGER NOT NULL DEFAULT 3306,
		db_user TEXT NOT NULL,
		db_pass_enc TEXT NOT NULL DEFAULT '',
		db_name TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS query_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		query_text TEXT NOT NULL,
		execution_time_ms INTEGER NOT NULL,
		suspicious INTEGER NOT NULL DEFAULT 0,
		feedback TEXT NOT NULL DEFAULT '[]',
		query_type TEXT NOT NULL DEFAULT 'OTHER',
		affected_rows INTEGER NOT NULL DEFAULT 0,
		error TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_query_logs_user ON query_logs(user_id, created_at);
	`
	_, err := db.Exec(schema)
	return err
}
