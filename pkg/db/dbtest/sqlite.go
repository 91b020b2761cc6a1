// Package dbtest opens throwaway sqlite databases shaped like the Postgres
// schema, for repository and service tests.
package dbtest

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Schema mirrors pkg/migrate/migrations with sqlite column types.
var Schema = []string{
	`CREATE TABLE products (
		id TEXT PRIMARY KEY,
		sku TEXT NOT NULL,
		name TEXT NOT NULL,
		brand TEXT,
		category TEXT NOT NULL,
		price_cents INTEGER NOT NULL,
		multiplier TEXT,
		formulary_tier TEXT,
		is_active BOOLEAN NOT NULL DEFAULT 1,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE insurance_plans (
		id TEXT PRIMARY KEY,
		carrier TEXT NOT NULL,
		plan_name TEXT NOT NULL,
		frequency TEXT NOT NULL DEFAULT 'annual',
		covered_tiers TEXT,
		config TEXT NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT 1,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE quotes (
		id TEXT PRIMARY KEY,
		status TEXT NOT NULL,
		version INTEGER NOT NULL DEFAULT 1,
		staff_id TEXT,
		patient_first_name TEXT NOT NULL DEFAULT '',
		patient_last_name TEXT NOT NULL DEFAULT '',
		patient_email TEXT,
		patient TEXT NOT NULL,
		carrier TEXT NOT NULL DEFAULT 'none',
		plan_name TEXT,
		insurance TEXT NOT NULL,
		exam TEXT NOT NULL,
		eyeglasses TEXT NOT NULL,
		contacts TEXT NOT NULL,
		presentation_method TEXT,
		signatures TEXT,
		cancellation_reason TEXT,
		pricing TEXT,
		grand_total_cents INTEGER,
		expires_at DATETIME,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE quote_transitions (
		id TEXT PRIMARY KEY,
		quote_id TEXT NOT NULL,
		from_status TEXT NOT NULL,
		to_status TEXT NOT NULL,
		actor TEXT,
		reason TEXT,
		pricing TEXT NOT NULL,
		created_at DATETIME
	)`,
	`CREATE TABLE outbox_events (
		id TEXT PRIMARY KEY,
		event_type TEXT NOT NULL,
		aggregate_type TEXT NOT NULL,
		aggregate_id TEXT NOT NULL,
		payload TEXT NOT NULL,
		created_at DATETIME,
		published_at DATETIME,
		attempt_count INTEGER NOT NULL DEFAULT 0,
		last_error TEXT
	)`,
	`CREATE TABLE outbox_dlq (
		id TEXT PRIMARY KEY,
		event_id TEXT NOT NULL,
		event_type TEXT NOT NULL,
		aggregate_type TEXT NOT NULL,
		aggregate_id TEXT NOT NULL,
		payload_json TEXT NOT NULL,
		error_reason TEXT NOT NULL,
		error_message TEXT,
		attempt_count INTEGER NOT NULL DEFAULT 0,
		failed_at DATETIME,
		created_at DATETIME
	)`,
}

// Open returns an isolated in-memory database with the schema applied.
func Open(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, stmt := range Schema {
		if err := conn.Exec(stmt).Error; err != nil {
			t.Fatalf("apply schema: %v", err)
		}
	}
	return conn
}
