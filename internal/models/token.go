package models

import (
	"time"

	"gorm.io/gorm"
)

// Token is an opaque bearer credential issued at login.
type Token struct {
	Token      string    `gorm:"primaryKey;size:128" json:"-"`
	UserID     uint      `gorm:"not null;index" json:"-"`
	LastUsedAt time.Time `gorm:"not null;index" json:"-"`
}

// BeforeCreate stamps LastUsedAt when the caller did not.
func (t *Token) BeforeCreate(tx *gorm.DB) error {
	if t.LastUsedAt.IsZero() {
		t.LastUsedAt = time.Now().UTC()
	}
	return nil
}
