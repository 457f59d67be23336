package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyStatement(t *testing.T) {
	cases := []struct {
		sql  string
		want QueryType
	}{
		{"SELECT 1", QuerySelect},
		{"select 1", QuerySelect},
		{"Select 1", QuerySelect},
		{"  select id FROM users", QuerySelect},
		{"\n\tINSERT INTO t VALUES (1)", QueryInsert},
		{"update t set a=1", QueryUpdate},
		{"DELETE FROM t", QueryDelete},
		{"create table t (id int)", QueryCreate},
		{"DROP TABLE t", QueryDrop},
		{"alter table t add c int", QueryAlter},
		{"SHOW TABLES", QueryOther},
		{"EXPLAIN SELECT 1", QueryOther},
		{"with cte as (select 1) select * from cte", QueryOther},
		{"", QueryOther},
		{"   ", QueryOther},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, ClassifyStatement(tc.sql), "sql=%q", tc.sql)
	}
}

func TestQueryTypePlanRules(t *testing.T) {
	planned := map[QueryType]bool{
		QuerySelect: true,
		QueryInsert: true,
		QueryUpdate: true,
		QueryDelete: true,
		QueryCreate: false,
		QueryDrop:   false,
		QueryAlter:  false,
		QueryOther:  false,
	}
	for qt, want := range planned {
		assert.Equal(t, want, qt.SupportsPlan(), "type=%s", qt)
	}

	for qt := range planned {
		assert.Equal(t, qt == QuerySelect, qt.SupportsPlanAnalysis(), "type=%s", qt)
	}
}

func TestTenantConfigUsable(t *testing.T) {
	cfg := &TenantConfig{Host: "db.local", User: "app", Database: "orders"}
	assert.True(t, cfg.Usable())

	assert.False(t, (&TenantConfig{User: "app", Database: "orders"}).Usable())
	assert.False(t, (&TenantConfig{Host: "db.local", Database: "orders"}).Usable())
	assert.False(t, (&TenantConfig{Host: "db.local", User: "app"}).Usable())
}
