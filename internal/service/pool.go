package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"

	"queryproxy/internal/core"
)

const (
	// poolMaxConns bounds each ephemeral pool. Pools live for one statement
	// execution, so this is a per-request cap, not a shared budget.
	poolMaxConns = 10

	dialTimeout = 5 * time.Second

	defaultTenantPort = 3306
)

// tenantDriver is swapped for a mock driver in tests.
var tenantDriver = "mysql"

// PoolOpener opens a ping-verified connection pool for a tenant config.
// The caller owns the returned pool and must close it exactly once.
type PoolOpener func(ctx context.Context, cfg *core.TenantConfig) (*sql.DB, error)

// TenantDSN builds the driver DSN for a tenant's target database.
func TenantDSN(cfg *core.TenantConfig) string {
	port := cfg.Port
	if port == 0 {
		port = defaultTenantPort
	}

	mc := mysql.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = fmt.Sprintf("%s:%d", cfg.Host, port)
	mc.DBName = cfg.Database
	mc.Timeout = dialTimeout
	mc.ParseTime = true
	return mc.FormatDSN()
}

// OpenTenantPool opens a bounded pool to the tenant's database and verifies
// liveness with one ping. A failed ping closes the handle and returns a
// connectivity error; the pool must not be reused after that.
func OpenTenantPool(ctx context.Context, cfg *core.TenantConfig) (*sql.DB, error) {
	db, err := sql.Open(tenantDriver, TenantDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("open tenant pool: %w", err)
	}

	db.SetMaxOpenConns(poolMaxConns)
	db.SetMaxIdleConns(poolMaxConns)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	return db, nil
}
