package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/hoaxify/hoaxify/internal/models"
)

func TestIsUniqueViolationDriverErrors(t *testing.T) {
	require.False(t, IsUniqueViolation(nil))
	require.False(t, IsUniqueViolation(errors.New("boom")))
	require.True(t, IsUniqueViolation(gorm.ErrDuplicatedKey))
	require.True(t, IsUniqueViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})))
	require.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	require.True(t, IsUniqueViolation(&mysql.MySQLError{Number: 1062}))
	require.False(t, IsUniqueViolation(&mysql.MySQLError{Number: 1452}))
}

func TestIsUniqueViolationSQLite(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, AutoMigrate(db))

	require.NoError(t, db.Create(&models.User{Username: "user1", Email: "dup@mail.com", Password: "x"}).Error)
	err := db.Create(&models.User{Username: "user2", Email: "dup@mail.com", Password: "x"}).Error
	require.Error(t, err)
	require.True(t, IsUniqueViolation(err))
}

func TestIsNotFound(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, AutoMigrate(db))

	err := db.First(&models.User{}, 42).Error
	require.True(t, IsNotFound(err))
	require.False(t, IsNotFound(errors.New("other")))
}
