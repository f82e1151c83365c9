package services

import (
	"fmt"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/murmurwatch/murmur-backend/internal/db"
	"github.com/murmurwatch/murmur-backend/internal/logger"
)

// newTestDB opens a test-scoped in-memory sqlite database with the full
// schema migrated. The shared cache keeps the database alive across the
// connections gorm pools.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := gormDB.AutoMigrate(db.AllModels()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gormDB
}

func testLogger() *logger.Logger {
	return logger.NewNop()
}
