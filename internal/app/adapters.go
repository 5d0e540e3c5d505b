package app

import (
	"strings"

	"github.com/hoaxify/hoaxify/internal/auth"
	"github.com/hoaxify/hoaxify/internal/cache"
	"github.com/hoaxify/hoaxify/internal/database"
	"github.com/hoaxify/hoaxify/internal/storage"
	"github.com/hoaxify/hoaxify/pkg/mail"
)

// ConnectionConfig selects the host parameters matching Driver.
func (c DatabaseConfig) ConnectionConfig() database.Config {
	cfg := database.Config{
		Driver: strings.ToLower(strings.TrimSpace(c.Driver)),
		Path:   strings.TrimSpace(c.Path),
		DSN:    strings.TrimSpace(c.DSN),
	}

	var host DBAuthConfig
	switch cfg.Driver {
	case "postgres", "postgresql":
		host = c.Postgres
	case "mysql", "mariadb":
		host = c.MySQL
	default:
		return cfg
	}

	cfg.Host = strings.TrimSpace(host.Host)
	cfg.Port = host.Port
	cfg.Name = strings.TrimSpace(host.Database)
	cfg.User = strings.TrimSpace(host.Username)
	cfg.Password = host.Password
	cfg.Options = host.Options
	return cfg
}

// TokenServiceConfig fills unset token settings with the auth package defaults.
func (c AuthConfig) TokenServiceConfig() auth.TokenConfig {
	cfg := auth.TokenConfig{TTL: c.TokenTTL, Length: c.TokenLength}
	if cfg.TTL <= 0 {
		cfg.TTL = auth.DefaultTokenTTL
	}
	if cfg.Length <= 0 {
		cfg.Length = auth.DefaultTokenLength
	}
	return cfg
}

// RedisClientConfig trims the connection strings for the shared rate limit store.
func (c CacheConfig) RedisClientConfig() cache.RedisConfig {
	r := c.Redis
	return cache.RedisConfig{
		Address:  strings.TrimSpace(r.Address),
		Username: strings.TrimSpace(r.Username),
		Password: r.Password,
		DB:       r.DB,
		TLS:      r.TLS,
		Timeout:  r.Timeout,
	}
}

// SMTPSettings converts EmailConfig to the mail package representation.
func (c EmailConfig) SMTPSettings() mail.SMTPSettings {
	s := c.SMTP
	return mail.SMTPSettings{
		Enabled:    s.Enabled,
		Host:       strings.TrimSpace(s.Host),
		Port:       s.Port,
		Username:   s.Username,
		Password:   s.Password,
		From:       s.From,
		UseTLS:     s.UseTLS,
		SkipVerify: s.SkipVerify,
		Timeout:    s.Timeout,
	}
}

// FileServiceConfig joins the upload layout with the orphaned attachment age.
func (c *Config) FileServiceConfig() storage.Config {
	return storage.Config{
		UploadDir:        c.Upload.Dir,
		ProfileDir:       c.Upload.ProfileDir,
		AttachmentDir:    c.Upload.AttachmentDir,
		AttachmentMaxAge: c.Maintenance.AttachmentMaxAge,
	}
}
