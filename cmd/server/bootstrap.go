package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/hoaxify/hoaxify/internal/api"
	"github.com/hoaxify/hoaxify/internal/app"
	"github.com/hoaxify/hoaxify/internal/app/maintenance"
	iauth "github.com/hoaxify/hoaxify/internal/auth"
	"github.com/hoaxify/hoaxify/internal/cache"
	"github.com/hoaxify/hoaxify/internal/database"
	"github.com/hoaxify/hoaxify/internal/middleware"
	"github.com/hoaxify/hoaxify/internal/monitoring"
	"github.com/hoaxify/hoaxify/internal/monitoring/checks"
	"github.com/hoaxify/hoaxify/internal/services"
	"github.com/hoaxify/hoaxify/internal/storage"
	"github.com/hoaxify/hoaxify/pkg/i18n"
	"github.com/hoaxify/hoaxify/pkg/logger"
	"github.com/hoaxify/hoaxify/pkg/mail"
)

const probeTimeout = 2 * time.Second

// runtimeStack bundles long-lived services used by the HTTP server.
type runtimeStack struct {
	DB        *gorm.DB
	Redis     *cache.RedisStore
	Files     *storage.FileService
	Tokens    *iauth.TokenService
	Users     *services.UserService
	Hoaxes    *services.HoaxService
	Jobs      *monitoring.JobTracker
	Health    *monitoring.HealthManager
	Cleaner   *maintenance.Cleaner
	RateStore middleware.RateStore
	Router    *gin.Engine
}

// bootstrapRuntime initialises the database, upload folders, caches, services, and the HTTP router.
func bootstrapRuntime(ctx context.Context, cfg *app.Config, log *zap.Logger) (*runtimeStack, error) {
	return bootstrapWithFS(ctx, cfg, afero.NewOsFs(), log)
}

func bootstrapWithFS(ctx context.Context, cfg *app.Config, fs afero.Fs, log *zap.Logger) (*runtimeStack, error) {
	stack := &runtimeStack{}
	var err error
	success := false

	defer func() {
		if !success {
			stack.Shutdown(context.Background(), log)
		}
	}()

	// enable gin debug mode
	if debug, _ := os.LookupEnv("GIN_DEBUG"); debug != "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	stack.DB, err = initialiseDatabase(cfg)
	if err != nil {
		return nil, err
	}

	stack.Files, err = storage.NewFileService(fs, stack.DB, cfg.FileServiceConfig())
	if err != nil {
		return nil, fmt.Errorf("initialise file service: %w", err)
	}
	if err := stack.Files.CreateFolders(); err != nil {
		return nil, fmt.Errorf("create upload folders: %w", err)
	}

	if cfg.Cache.Redis.Enabled {
		if stack.Redis, err = cache.NewRedisStore(ctx, cfg.Cache.RedisClientConfig()); err != nil {
			log.Warn("redis unavailable; falling back to in-memory rate limiting", zap.Error(err))
			stack.Redis = nil
		} else {
			log.Info("redis connected", zap.String("addr", cfg.Cache.Redis.Address))
		}
	}

	stack.Tokens, err = iauth.NewTokenService(stack.DB, cfg.Auth.TokenServiceConfig())
	if err != nil {
		return nil, fmt.Errorf("initialise token service: %w", err)
	}

	mailer, err := mail.NewSMTPMailer(cfg.Email.SMTPSettings())
	if err != nil {
		return nil, fmt.Errorf("initialise mailer: %w", err)
	}
	if !cfg.Email.SMTP.Enabled {
		log.Warn("smtp disabled; activation and password reset emails will not be delivered")
	}

	emails := services.NewEmailService(mailer,
		services.WithEmailBaseURL(cfg.Server.ClientURL),
		services.WithEmailFrom(cfg.Email.SMTP.From),
	)

	stack.Users, err = services.NewUserService(stack.DB, stack.Files, emails, stack.Tokens)
	if err != nil {
		return nil, fmt.Errorf("initialise user service: %w", err)
	}

	stack.Hoaxes, err = services.NewHoaxService(stack.DB, stack.Files)
	if err != nil {
		return nil, fmt.Errorf("initialise hoax service: %w", err)
	}

	if stack.Redis != nil {
		stack.RateStore = middleware.NewCacheRateStore(stack.Redis)
	} else {
		stack.RateStore = middleware.NewMemoryRateStore()
	}

	stack.Jobs = monitoring.NewJobTracker()
	stack.Cleaner = maintenance.NewCleaner(stack.Tokens, stack.Files,
		maintenance.WithTracker(stack.Jobs),
		maintenance.WithTokenSchedule(cfg.Maintenance.TokenSchedule),
		maintenance.WithAttachmentSchedule(cfg.Maintenance.AttachmentSchedule),
	)
	if err := stack.Cleaner.Start(); err != nil {
		return nil, fmt.Errorf("start maintenance jobs: %w", err)
	}

	stack.Health = monitoring.NewHealthManager()
	stack.Health.RegisterLiveness(checks.Maintenance(stack.Jobs, 0))
	stack.Health.RegisterReadiness(checks.Database(stack.DB, probeTimeout))
	stack.Health.RegisterReadiness(checks.Uploads(fs, stack.Files.ProfileFolder(), stack.Files.AttachmentFolder()))
	if stack.Redis != nil {
		stack.Health.RegisterReadiness(checks.Redis(stack.Redis, probeTimeout))
	}

	stack.Router, err = api.NewRouter(api.Dependencies{
		Users:     stack.Users,
		Hoaxes:    stack.Hoaxes,
		Files:     stack.Files,
		Tokens:    stack.Tokens,
		Health:    stack.Health,
		RateStore: stack.RateStore,
		Catalog:   i18n.Default(),
	}, api.Options{
		AllowedOrigins:    cfg.CORS.AllowedOrigins,
		HSTS:              cfg.Server.HSTS,
		AuthRateLimit:     cfg.RateLimit.AuthRequests,
		AuthRateWindow:    cfg.RateLimit.AuthWindow,
		MaxAttachmentSize: cfg.Upload.MaxAttachmentSize,
		MetricsEnabled:    cfg.Monitoring.Prometheus.Enabled,
	})
	if err != nil {
		return nil, fmt.Errorf("build api router: %w", err)
	}

	success = true
	return stack, nil
}

// Shutdown gracefully stops background jobs and releases resources.
func (s *runtimeStack) Shutdown(ctx context.Context, log *zap.Logger) {
	if s == nil {
		return
	}

	if s.Cleaner != nil {
		<-s.Cleaner.Stop().Done()
	}

	if closer, ok := s.RateStore.(interface{ Close() error }); ok {
		_ = closer.Close()
	}

	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			log.Warn("redis shutdown", zap.Error(err))
		}
	}

	if s.DB != nil {
		closeDatabase(s.DB, log)
	}
}

func initialiseDatabase(cfg *app.Config) (*gorm.DB, error) {
	dbCfg := cfg.Database.ConnectionConfig()
	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := database.AutoMigrateAndSeed(db, cfg.Database.SeedUsers); err != nil {
		return nil, fmt.Errorf("auto-migrate database: %w", err)
	}

	logger.WithModule("database").Info("database connected", zap.String("driver", dbCfg.Driver))
	return db, nil
}

func closeDatabase(db *gorm.DB, log *zap.Logger) {
	if db == nil {
		return
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Warn("failed to obtain underlying sql DB for closing", zap.Error(err))
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Warn("failed to close database", zap.Error(err))
	}
}
