package db

import (
	"testing"

	"gestao-app/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func seedTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := AutoMigrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gdb
}

func TestSeedAdminCreatesBootstrapAccount(t *testing.T) {
	gdb := seedTestDB(t)
	if err := SeedAdmin(gdb); err != nil {
		t.Fatalf("seed: %v", err)
	}
	var admin models.User
	if err := gdb.Where("is_admin = ?", true).First(&admin).Error; err != nil {
		t.Fatalf("admin missing: %v", err)
	}
	if admin.Username != "admin" {
		t.Fatalf("username = %s", admin.Username)
	}
}

func TestSeedAdminIsIdempotent(t *testing.T) {
	gdb := seedTestDB(t)
	if err := SeedAdmin(gdb); err != nil {
		t.Fatalf("first seed: %v", err)
	}
	if err := SeedAdmin(gdb); err != nil {
		t.Fatalf("second seed: %v", err)
	}
	var count int64
	gdb.Model(&models.User{}).Where("is_admin = ?", true).Count(&count)
	if count != 1 {
		t.Fatalf("admins = %d, want 1", count)
	}
}

func TestSeedAdminReplacesSoftDeletedAdmin(t *testing.T) {
	gdb := seedTestDB(t)
	if err := SeedAdmin(gdb); err != nil {
		t.Fatalf("seed: %v", err)
	}
	var admin models.User
	if err := gdb.Where("is_admin = ?", true).First(&admin).Error; err != nil {
		t.Fatalf("admin: %v", err)
	}
	if err := admin.SoftDelete(gdb); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	// With no active admin left, seeding must create a new one.
	if err := SeedAdmin(gdb); err != nil {
		t.Fatalf("re-seed: %v", err)
	}
	var active int64
	models.ActiveUsers(gdb).Where("is_admin = ?", true).Count(&active)
	if active != 1 {
		t.Fatalf("active admins = %d, want 1", active)
	}
}
