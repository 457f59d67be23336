package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"queryproxy/internal/core"
)

func useMockDriver(t *testing.T) {
	t.Helper()
	prev := tenantDriver
	tenantDriver = "sqlmock"
	t.Cleanup(func() { tenantDriver = prev })
}

func TestTenantDSN(t *testing.T) {
	cfg := &core.TenantConfig{Host: "db.local", Port: 3307, User: "app", Password: "pw", Database: "orders"}
	dsn := TenantDSN(cfg)
	assert.Contains(t, dsn, "app:pw@tcp(db.local:3307)/orders")
	assert.Contains(t, dsn, "parseTime=true")

	// Port defaults to 3306 when unset
	cfg.Port = 0
	assert.Contains(t, TenantDSN(cfg), "db.local:3306")
}

func TestOpenTenantPoolPingAndClose(t *testing.T) {
	useMockDriver(t)

	cfg := &core.TenantConfig{Host: "db.local", Port: 3306, User: "app", Database: "orders"}
	_, mock, err := sqlmock.NewWithDSN(TenantDSN(cfg), sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	mock.ExpectPing()
	mock.ExpectClose()

	pool, err := OpenTenantPool(context.Background(), cfg)
	require.NoError(t, err)
	require.NotNil(t, pool)

	require.NoError(t, pool.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOpenTenantPoolPingFailureClosesPool(t *testing.T) {
	useMockDriver(t)

	cfg := &core.TenantConfig{Host: "down.local", Port: 3306, User: "app", Database: "orders"}
	_, mock, err := sqlmock.NewWithDSN(TenantDSN(cfg), sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	mock.ExpectClose()

	pool, err := OpenTenantPool(context.Background(), cfg)
	require.Error(t, err)
	assert.Nil(t, pool)
	assert.True(t, strings.Contains(err.Error(), "database connection failed"))

	// The failed handle was closed before returning; nothing leaked
	assert.NoError(t, mock.ExpectationsWereMet())
}
