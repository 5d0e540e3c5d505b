package database

import (
	"testing"

	"github.com/hoaxify/hoaxify/internal/models"
	"github.com/hoaxify/hoaxify/pkg/crypto"
	"gorm.io/gorm"
)

func TestOpenSQLiteMemory(t *testing.T) {
	db := openTestDB(t)

	if err := db.Exec("SELECT 1").Error; err != nil {
		t.Fatalf("expected health query to succeed: %v", err)
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open(Config{Driver: "oracle"}); err == nil {
		t.Fatal("expected unsupported driver error")
	}
}

func TestAutoMigrateAndSeedData(t *testing.T) {
	db := openTestDB(t)

	if err := AutoMigrateAndSeed(db, 25); err != nil {
		t.Fatalf("auto migrate and seed failed: %v", err)
	}

	var userCount int64
	if err := db.Model(&models.User{}).Where("inactive = ?", false).Count(&userCount).Error; err != nil {
		t.Fatalf("count users: %v", err)
	}
	if userCount != 25 {
		t.Fatalf("expected 25 active users, got %d", userCount)
	}

	var first models.User
	if err := db.Where("email = ?", "user1@mail.com").First(&first).Error; err != nil {
		t.Fatalf("load seeded user: %v", err)
	}
	if !crypto.VerifyPassword(first.Password, SeedPassword) {
		t.Fatal("expected seeded password to verify")
	}

	if err := AutoMigrateAndSeed(db, 25); err != nil {
		t.Fatalf("second seed failed: %v", err)
	}
	if err := db.Model(&models.User{}).Count(&userCount).Error; err != nil {
		t.Fatalf("count users: %v", err)
	}
	if userCount != 25 {
		t.Fatalf("expected seeding to be skipped, got %d users", userCount)
	}
}

func TestAutoMigrateWithoutSeed(t *testing.T) {
	db := openTestDB(t)

	if err := AutoMigrateAndSeed(db, 0); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	var userCount int64
	if err := db.Model(&models.User{}).Count(&userCount).Error; err != nil {
		t.Fatalf("count users: %v", err)
	}
	if userCount != 0 {
		t.Fatalf("expected no users, got %d", userCount)
	}
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := Open(Config{Driver: "sqlite", DSN: "file:" + t.Name() + "?mode=memory&cache=shared&_foreign_keys=1"})
	if err != nil {
		t.Fatalf("open database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	return db
}
