package checks

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/hoaxify/hoaxify/internal/models"
	"github.com/hoaxify/hoaxify/internal/monitoring"
)

const defaultDatabaseTimeout = 2 * time.Second

// Database pings the connection pool and confirms the Hoaxify tables exist.
// A reachable database with missing tables reports degraded.
func Database(db *gorm.DB, timeout time.Duration) monitoring.Check {
	return monitoring.NewCheck("database", func(ctx context.Context) monitoring.ProbeResult {
		start := time.Now()
		if db == nil {
			return monitoring.ProbeResult{Status: monitoring.StatusDown, Details: "database not configured"}
		}

		probeCtx, cancel := context.WithTimeout(ctx, chooseTimeout(timeout, defaultDatabaseTimeout))
		defer cancel()

		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(probeCtx)
		}
		if err != nil {
			return monitoring.ResultFromError("database", err, time.Since(start))
		}

		migrator := db.WithContext(probeCtx).Migrator()
		var missing []string
		for _, model := range []any{&models.User{}, &models.Token{}, &models.Hoax{}, &models.FileAttachment{}} {
			if !migrator.HasTable(model) {
				missing = append(missing, fmt.Sprintf("%T", model))
			}
		}

		result := monitoring.ProbeResult{Status: monitoring.StatusUp, Duration: time.Since(start)}
		if len(missing) > 0 {
			result.Status = monitoring.StatusDegraded
			result.Details = "missing tables: " + strings.Join(missing, ", ")
		}
		return result
	})
}

func chooseTimeout(provided, fallback time.Duration) time.Duration {
	if provided <= 0 {
		return fallback
	}
	return provided
}
