package db

import (
	"testing"

	"gorm.io/gorm"

	"a11yhub/internal/models"
)

// OpenTestDB returns a migrated in-memory database with the canonical roles
// and permissions seeded. It is closed when the test ends.
func OpenTestDB(t testing.TB) *gorm.DB {
	t.Helper()

	conn, err := OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("failed to open sqlite in-memory db: %v", err)
	}
	if err := models.SeedRolesAndPermissions(conn); err != nil {
		t.Fatalf("failed to seed roles: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return conn
}
