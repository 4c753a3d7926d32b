// Package dbtest opens throwaway sqlite databases with the full schema for tests.
package dbtest

import (
	"fmt"
	"path/filepath"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/angelmondragon/orderdesk-backend/pkg/db"
	"github.com/angelmondragon/orderdesk-backend/pkg/db/models"
)

// Open returns a migrated sqlite database backed by a file in t.TempDir.
// Write transactions take the database lock at BEGIN and wait on contention,
// so concurrent tests serialize instead of failing with SQLITE_BUSY.
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	return open(t, "immediate")
}

// OpenDeferred is Open without the lock at BEGIN. Only single statements are
// serialized, so concurrent callers interleave between statements the way they
// do against postgres at READ COMMITTED.
func OpenDeferred(t testing.TB) *gorm.DB {
	t.Helper()
	return open(t, "deferred")
}

func open(t testing.TB, txlock string) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_txlock=%s&_foreign_keys=on",
		filepath.Join(t.TempDir(), "orderdesk.db"), txlock)
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return conn
}

// Client wraps Open in a db.Client for service tests.
func Client(t testing.TB) (*db.Client, *gorm.DB) {
	t.Helper()
	conn := Open(t)
	return db.NewFromGorm(conn), conn
}
