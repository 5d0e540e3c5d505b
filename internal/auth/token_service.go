package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/hoaxify/hoaxify/internal/models"
	"github.com/hoaxify/hoaxify/pkg/crypto"
	"github.com/hoaxify/hoaxify/pkg/metrics"
)

const (
	// DefaultTokenTTL is how long a token stays valid after its last use.
	DefaultTokenTTL = 7 * 24 * time.Hour
	// DefaultTokenLength is the number of random bytes behind each token.
	DefaultTokenLength = 32
)

// ErrInvalidToken is returned when a token is unknown or has expired.
var ErrInvalidToken = errors.New("token: invalid or expired")

// TokenConfig describes tunable behaviour for the TokenService.
type TokenConfig struct {
	TTL    time.Duration
	Length int
	Clock  func() time.Time
}

// TokenService issues opaque bearer tokens and validates them against a
// sliding expiry window measured from LastUsedAt.
type TokenService struct {
	db       *gorm.DB
	ttl      time.Duration
	tokenLen int
	now      func() time.Time
}

// NewTokenService constructs a token manager backed by the provided database.
func NewTokenService(db *gorm.DB, cfg TokenConfig) (*TokenService, error) {
	if db == nil {
		return nil, errors.New("token service: db is required")
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	length := cfg.Length
	if length <= 0 {
		length = DefaultTokenLength
	}

	clock := time.Now
	if cfg.Clock != nil {
		clock = cfg.Clock
	}
	// sqlite stores times as offset-bearing text and compares them lexically.
	now := func() time.Time { return clock().UTC() }

	return &TokenService{
		db:       db,
		ttl:      ttl,
		tokenLen: length,
		now:      now,
	}, nil
}

// TTL returns the sliding expiry window.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// CreateToken stores a fresh token for user and returns it.
func (s *TokenService) CreateToken(ctx context.Context, user *models.User) (string, error) {
	if user == nil || user.ID == 0 {
		return "", errors.New("token service: user is required")
	}

	value, err := crypto.GenerateToken(s.tokenLen)
	if err != nil {
		return "", fmt.Errorf("token service: generate token: %w", err)
	}

	token := &models.Token{
		Token:      value,
		UserID:     user.ID,
		LastUsedAt: s.now(),
	}
	if err := s.db.WithContext(ctx).Create(token).Error; err != nil {
		return "", fmt.Errorf("token service: create token: %w", err)
	}

	metrics.TokensIssued.Inc()
	return value, nil
}

// Verify returns the owning user id of a token used within the TTL window and
// refreshes its LastUsedAt. Unknown or stale tokens yield ErrInvalidToken.
func (s *TokenService) Verify(ctx context.Context, value string) (uint, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, ErrInvalidToken
	}

	now := s.now()
	var token models.Token
	err := s.db.WithContext(ctx).
		Where("token = ? AND last_used_at >= ?", value, now.Add(-s.ttl)).
		Take(&token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrInvalidToken
		}
		return 0, fmt.Errorf("token service: load token: %w", err)
	}

	if err := s.db.WithContext(ctx).
		Model(&models.Token{}).
		Where("token = ?", value).
		Update("last_used_at", now).Error; err != nil {
		return 0, fmt.Errorf("token service: refresh token: %w", err)
	}

	return token.UserID, nil
}

// DeleteToken removes a single token. Removing an absent token is not an error.
func (s *TokenService) DeleteToken(ctx context.Context, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}

	if err := s.db.WithContext(ctx).Where("token = ?", value).Delete(&models.Token{}).Error; err != nil {
		return fmt.Errorf("token service: delete token: %w", err)
	}
	return nil
}

// ClearTokens removes every token owned by userID.
func (s *TokenService) ClearTokens(ctx context.Context, userID uint) error {
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.Token{}).Error; err != nil {
		return fmt.Errorf("token service: clear tokens: %w", err)
	}
	return nil
}

// CleanupExpired deletes tokens idle for longer than the TTL and returns how many were removed.
func (s *TokenService) CleanupExpired(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.ttl)

	result := s.db.WithContext(ctx).Where("last_used_at < ?", cutoff).Delete(&models.Token{})
	if result.Error != nil {
		return 0, fmt.Errorf("token service: cleanup expired: %w", result.Error)
	}

	if result.RowsAffected > 0 {
		metrics.SweepRemovals.WithLabelValues("tokens").Add(float64(result.RowsAffected))
	}
	return result.RowsAffected, nil
}
