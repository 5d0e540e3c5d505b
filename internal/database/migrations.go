package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/hoaxify/hoaxify/internal/models"
	"github.com/hoaxify/hoaxify/pkg/crypto"
)

// SeedPassword is the plaintext password assigned to seeded accounts.
const SeedPassword = "P4ssword"

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Token{},
		&models.Hoax{},
		&models.FileAttachment{},
	)
}

// SeedUsers inserts count active users named user1..userN. It does nothing
// when any user already exists.
func SeedUsers(db *gorm.DB, count int) error {
	var existing int64
	if err := db.Model(&models.User{}).Count(&existing).Error; err != nil {
		return err
	}
	if existing > 0 {
		return nil
	}

	hash, err := crypto.HashPassword(SeedPassword)
	if err != nil {
		return err
	}

	users := make([]models.User, 0, count)
	for i := 1; i <= count; i++ {
		users = append(users, models.User{
			Username: fmt.Sprintf("user%d", i),
			Email:    fmt.Sprintf("user%d@mail.com", i),
			Password: hash,
		})
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&users).Error; err != nil {
			return err
		}
		// gorm skips zero-value fields that carry a default tag, so activation is applied explicitly.
		ids := make([]uint, 0, len(users))
		for _, user := range users {
			ids = append(ids, user.ID)
		}
		return tx.Model(&models.User{}).Where("id IN ?", ids).Update("inactive", false).Error
	})
}
