package api

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	iauth "github.com/hoaxify/hoaxify/internal/auth"
	"github.com/hoaxify/hoaxify/internal/handlers"
	"github.com/hoaxify/hoaxify/internal/middleware"
	"github.com/hoaxify/hoaxify/internal/monitoring"
	"github.com/hoaxify/hoaxify/internal/services"
	"github.com/hoaxify/hoaxify/internal/storage"
	"github.com/hoaxify/hoaxify/pkg/i18n"
)

// APIPrefix is the versioned mount point of every JSON route.
const APIPrefix = "/api/1.0"

// profileImageMaxAge is the Cache-Control max-age for /images responses.
const profileImageMaxAge = 365 * 24 * time.Hour

// Options tunes the HTTP surface.
type Options struct {
	AllowedOrigins    []string
	HSTS              bool
	AuthRateLimit     int
	AuthRateWindow    time.Duration
	MaxAttachmentSize int64
	MetricsEnabled    bool
}

// Dependencies are the services the routes delegate to.
type Dependencies struct {
	Users     *services.UserService
	Hoaxes    *services.HoaxService
	Files     *storage.FileService
	Tokens    *iauth.TokenService
	Health    *monitoring.HealthManager
	RateStore middleware.RateStore
	Catalog   *i18n.Catalog
}

func (d Dependencies) validate() error {
	switch {
	case d.Users == nil:
		return fmt.Errorf("user service must be provided")
	case d.Hoaxes == nil:
		return fmt.Errorf("hoax service must be provided")
	case d.Files == nil:
		return fmt.Errorf("file service must be provided")
	case d.Tokens == nil:
		return fmt.Errorf("token service must be provided")
	}
	return nil
}

// NewRouter builds the Gin engine, wires middleware and registers all routes.
func NewRouter(deps Dependencies, opts Options) (*gin.Engine, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if deps.Catalog == nil {
		deps.Catalog = i18n.Default()
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders(opts.HSTS))
	r.Use(middleware.CORS(opts.AllowedOrigins))
	r.Use(middleware.Locale(deps.Catalog))
	r.Use(middleware.TokenAuth(deps.Tokens))

	registerHealthRoutes(r, handlers.NewHealthHandler(deps.Health))

	api := r.Group(APIPrefix)
	api.Use(middleware.Pagination())

	authLimit := middleware.RateLimit(deps.RateStore, opts.AuthRateLimit, opts.AuthRateWindow)
	registerAuthRoutes(api, handlers.NewAuthHandler(deps.Users, deps.Tokens), handlers.NewPasswordResetHandler(deps.Users), authLimit)
	registerUserRoutes(api, handlers.NewUserHandler(deps.Users), handlers.NewHoaxHandler(deps.Hoaxes))
	registerHoaxRoutes(api, handlers.NewHoaxHandler(deps.Hoaxes), handlers.NewAttachmentHandler(deps.Files, opts.MaxAttachmentSize))

	images := r.Group("/images")
	images.Use(cacheControl(profileImageMaxAge))
	images.StaticFS("/", deps.Files.ProfileFS())

	if opts.MetricsEnabled {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	// NotFound fallback
	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}

func cacheControl(maxAge time.Duration) gin.HandlerFunc {
	value := fmt.Sprintf("public, max-age=%d", int64(maxAge.Seconds()))
	return func(c *gin.Context) {
		c.Header("Cache-Control", value)
		c.Next()
	}
}
