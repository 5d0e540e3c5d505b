package database

import (
	"database/sql"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Config contains database connection options.
type Config struct {
	Driver string
	Path   string // SQLite database path when Driver == sqlite
	DSN    string // Optional DSN override

	Host     string
	Port     int
	Name     string
	User     string
	Password string
	Options  map[string]string
}

// Open initialises a gorm.DB for sqlite (the default), postgres or mysql.
func Open(cfg Config) (*gorm.DB, error) {
	driver := normaliseDriver(cfg.Driver)

	dial, err := dialector(driver, cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dial, gormConfig())
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	if driver == "sqlite" {
		// cascades on users rely on sqlite enforcing foreign keys
		if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil && !errors.Is(err, sql.ErrConnDone) {
			return nil, fmt.Errorf("sqlite: enable foreign keys: %w", err)
		}
	}

	return db, nil
}

// AutoMigrateAndSeed convenience helper used during application start-up. A
// positive seedUsers inserts that many active demo accounts into an empty
// users table.
func AutoMigrateAndSeed(db *gorm.DB, seedUsers int) error {
	if db == nil {
		return errors.New("nil database handle")
	}

	if err := AutoMigrate(db); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	if seedUsers > 0 {
		if err := SeedUsers(db, seedUsers); err != nil {
			return fmt.Errorf("seed data: %w", err)
		}
	}

	return nil
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	}
}
