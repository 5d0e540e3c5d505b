package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/hoaxify/hoaxify/internal/auth"
	"github.com/hoaxify/hoaxify/internal/database/testutil"
	"github.com/hoaxify/hoaxify/internal/models"
	"github.com/hoaxify/hoaxify/internal/storage"
	"github.com/hoaxify/hoaxify/pkg/mail/mailtest"
)

type serviceFixture struct {
	db     *gorm.DB
	fs     afero.Fs
	mailer *mailtest.Recorder
	files  *storage.FileService
	tokens *auth.TokenService
	users  *UserService
	hoaxes *HoaxService
	now    time.Time
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	fs := afero.NewMemMapFs()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	files, err := storage.NewFileService(fs, db, storage.Config{UploadDir: "uploads", Clock: clock})
	require.NoError(t, err)
	require.NoError(t, files.CreateFolders())

	tokens, err := auth.NewTokenService(db, auth.TokenConfig{Clock: clock})
	require.NoError(t, err)

	mailer := &mailtest.Recorder{}
	users, err := NewUserService(db, files, NewEmailService(mailer, WithEmailFrom("noreply@hoaxify.test")), tokens)
	require.NoError(t, err)

	hoaxes, err := NewHoaxService(db, files, WithHoaxClock(clock))
	require.NoError(t, err)

	return &serviceFixture{
		db:     db,
		fs:     fs,
		mailer: mailer,
		files:  files,
		tokens: tokens,
		users:  users,
		hoaxes: hoaxes,
		now:    now,
	}
}

// addUser inserts a user directly. Active users can log in straight away.
func (f *serviceFixture) addUser(t *testing.T, username string, active bool) *models.User {
	t.Helper()

	require.NoError(t, f.users.Create(context.Background(), CreateUserInput{
		Username: username,
		Email:    username + "@mail.com",
		Password: "P4ssword",
	}))

	user, err := f.users.FindByEmail(context.Background(), username+"@mail.com")
	require.NoError(t, err)

	if active {
		require.NoError(t, f.db.Model(user).Updates(map[string]any{"inactive": false, "activation_token": ""}).Error)
		user.Inactive = false
		user.ActivationToken = ""
	}
	return user
}

func (f *serviceFixture) addHoax(t *testing.T, user *models.User, content string) *models.Hoax {
	t.Helper()

	hoax, err := f.hoaxes.Create(context.Background(), CreateHoaxInput{Content: content}, user.ID)
	require.NoError(t, err)
	return hoax
}

func encodedPNG(t *testing.T) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(1, 1, color.RGBA{G: 255, A: 255})

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}
