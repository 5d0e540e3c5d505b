package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/hoaxify/hoaxify/internal/database/testutil"
	"github.com/hoaxify/hoaxify/internal/models"
)

func TestCreateTokenStoresTimestamp(t *testing.T) {
	db, svc, clock := setupTokenService(t)
	user := createTestUser(t, db, "user1")

	token, err := svc.CreateToken(context.Background(), user)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	var stored models.Token
	require.NoError(t, db.Take(&stored, "token = ?", token).Error)
	require.Equal(t, user.ID, stored.UserID)
	require.True(t, stored.LastUsedAt.Equal(clock.Now()))

	other, err := svc.CreateToken(context.Background(), user)
	require.NoError(t, err)
	require.NotEqual(t, token, other)
}

func TestCreateTokenRequiresUser(t *testing.T) {
	_, svc, _ := setupTokenService(t)

	_, err := svc.CreateToken(context.Background(), nil)
	require.Error(t, err)
}

func TestVerifyRefreshesLastUsedAt(t *testing.T) {
	db, svc, clock := setupTokenService(t)
	user := createTestUser(t, db, "user1")

	token, err := svc.CreateToken(context.Background(), user)
	require.NoError(t, err)

	clock.Advance(6 * 24 * time.Hour)

	userID, err := svc.Verify(context.Background(), token)
	require.NoError(t, err)
	require.Equal(t, user.ID, userID)

	var stored models.Token
	require.NoError(t, db.Take(&stored, "token = ?", token).Error)
	require.True(t, stored.LastUsedAt.Equal(clock.Now()))

	// The window slides from the last use, not from creation.
	clock.Advance(6 * 24 * time.Hour)
	_, err = svc.Verify(context.Background(), token)
	require.NoError(t, err)
}

func TestVerifyAcceptsExactlySevenDays(t *testing.T) {
	db, svc, clock := setupTokenService(t)
	user := createTestUser(t, db, "user1")

	token, err := svc.CreateToken(context.Background(), user)
	require.NoError(t, err)

	clock.Advance(7 * 24 * time.Hour)

	_, err = svc.Verify(context.Background(), token)
	require.NoError(t, err)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	db, svc, clock := setupTokenService(t)
	user := createTestUser(t, db, "user1")

	token, err := svc.CreateToken(context.Background(), user)
	require.NoError(t, err)

	clock.Advance(7*24*time.Hour + time.Second)

	_, err = svc.Verify(context.Background(), token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestExpiryHoldsAcrossOffsetChange(t *testing.T) {
	db, svc, clock := setupTokenService(t)
	user := createTestUser(t, db, "user1")

	edt := time.FixedZone("EDT", -4*60*60)
	est := time.FixedZone("EST", -5*60*60)

	// 01:30 EDT on the night clocks fall back.
	clock.Set(time.Date(2024, 11, 3, 5, 30, 0, 0, time.UTC).In(edt))
	expired, err := svc.CreateToken(context.Background(), user)
	require.NoError(t, err)
	swept, err := svc.CreateToken(context.Background(), user)
	require.NoError(t, err)

	// 01:10 EST a week later reads earlier on the wall clock but is 40 minutes past expiry.
	clock.Set(time.Date(2024, 11, 10, 6, 10, 0, 0, time.UTC).In(est))

	_, err = svc.Verify(context.Background(), expired)
	require.ErrorIs(t, err, ErrInvalidToken)

	removed, err := svc.CleanupExpired(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 2, removed)

	var count int64
	require.NoError(t, db.Model(&models.Token{}).Where("token = ?", swept).Count(&count).Error)
	require.Zero(t, count)
}

func TestVerifyRejectsUnknownToken(t *testing.T) {
	_, svc, _ := setupTokenService(t)

	_, err := svc.Verify(context.Background(), "does-not-exist")
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.Verify(context.Background(), "  ")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestDeleteToken(t *testing.T) {
	db, svc, _ := setupTokenService(t)
	user := createTestUser(t, db, "user1")

	token, err := svc.CreateToken(context.Background(), user)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteToken(context.Background(), token))
	require.NoError(t, svc.DeleteToken(context.Background(), token))

	_, err = svc.Verify(context.Background(), token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestClearTokensOnlyAffectsOwner(t *testing.T) {
	db, svc, _ := setupTokenService(t)
	user1 := createTestUser(t, db, "user1")
	user2 := createTestUser(t, db, "user2")

	for i := 0; i < 3; i++ {
		_, err := svc.CreateToken(context.Background(), user1)
		require.NoError(t, err)
	}
	kept, err := svc.CreateToken(context.Background(), user2)
	require.NoError(t, err)

	require.NoError(t, svc.ClearTokens(context.Background(), user1.ID))

	var count int64
	require.NoError(t, db.Model(&models.Token{}).Where("user_id = ?", user1.ID).Count(&count).Error)
	require.Zero(t, count)

	_, err = svc.Verify(context.Background(), kept)
	require.NoError(t, err)
}

func TestCleanupExpiredRemovesStaleTokens(t *testing.T) {
	db, svc, clock := setupTokenService(t)
	user := createTestUser(t, db, "user1")

	stale, err := svc.CreateToken(context.Background(), user)
	require.NoError(t, err)

	clock.Advance(5 * 24 * time.Hour)
	fresh, err := svc.CreateToken(context.Background(), user)
	require.NoError(t, err)

	clock.Advance(3 * 24 * time.Hour)

	removed, err := svc.CleanupExpired(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 1, removed)

	var remaining []models.Token
	require.NoError(t, db.Find(&remaining).Error)
	require.Len(t, remaining, 1)
	require.Equal(t, fresh, remaining[0].Token)
	require.NotEqual(t, stale, remaining[0].Token)
}

func TestNewTokenServiceDefaults(t *testing.T) {
	_, err := NewTokenService(nil, TokenConfig{})
	require.Error(t, err)

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewTokenService(db, TokenConfig{})
	require.NoError(t, err)
	require.Equal(t, DefaultTokenTTL, svc.TTL())
}

func setupTokenService(t *testing.T) (*gorm.DB, *TokenService, *testClock) {
	t.Helper()

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	clock := &testClock{current: time.Date(2024, 1, 3, 9, 0, 0, 0, time.UTC)}

	svc, err := NewTokenService(db, TokenConfig{
		TTL:    7 * 24 * time.Hour,
		Length: 24,
		Clock:  clock.Now,
	})
	require.NoError(t, err)

	return db, svc, clock
}

func createTestUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()

	user := &models.User{
		Username: username,
		Email:    username + "@mail.com",
		Password: "hash",
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

type testClock struct {
	mu      sync.Mutex
	current time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(d)
}

func (c *testClock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = now
}
