package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/hoaxify/hoaxify/internal/api"
	iauth "github.com/hoaxify/hoaxify/internal/auth"
	sharedtestutil "github.com/hoaxify/hoaxify/internal/database/testutil"
	"github.com/hoaxify/hoaxify/internal/middleware"
	"github.com/hoaxify/hoaxify/internal/models"
	"github.com/hoaxify/hoaxify/internal/monitoring"
	"github.com/hoaxify/hoaxify/internal/monitoring/checks"
	"github.com/hoaxify/hoaxify/internal/services"
	"github.com/hoaxify/hoaxify/internal/storage"
	"github.com/hoaxify/hoaxify/pkg/crypto"
	"github.com/hoaxify/hoaxify/pkg/mail/mailtest"
)

// DefaultPassword satisfies every password rule and is used by AddUser.
const DefaultPassword = "P4ssword"

// Clock is a settable time source shared by the services under test.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Env encapsulates a fully-wired API instance backed by an in-memory database
// and filesystem for handler tests.
type Env struct {
	T      *testing.T
	DB     *gorm.DB
	FS     afero.Fs
	Router *gin.Engine
	Mailer *mailtest.Recorder
	Clock  *Clock
	Files  *storage.FileService
	Tokens *iauth.TokenService
	Users  *services.UserService
	Hoaxes *services.HoaxService
}

// EnvOption customises NewEnv.
type EnvOption func(*api.Options)

// WithAuthRateLimit enables the /auth rate limit.
func WithAuthRateLimit(requests int, window time.Duration) EnvOption {
	return func(o *api.Options) {
		o.AuthRateLimit = requests
		o.AuthRateWindow = window
	}
}

// WithMaxAttachmentSize overrides the upload cap.
func WithMaxAttachmentSize(size int64) EnvOption {
	return func(o *api.Options) {
		o.MaxAttachmentSize = size
	}
}

// NewEnv provisions a fresh handler test environment with migrations applied.
func NewEnv(t *testing.T, opts ...EnvOption) *Env {
	t.Helper()

	gin.SetMode(gin.TestMode)

	db := sharedtestutil.MustOpenTestDB(t, sharedtestutil.WithAutoMigrate())
	fs := afero.NewMemMapFs()
	clock := &Clock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}

	files, err := storage.NewFileService(fs, db, storage.Config{UploadDir: "uploads", Clock: clock.Now})
	require.NoError(t, err)
	require.NoError(t, files.CreateFolders())

	tokens, err := iauth.NewTokenService(db, iauth.TokenConfig{Clock: clock.Now})
	require.NoError(t, err)

	mailer := &mailtest.Recorder{}
	users, err := services.NewUserService(db, files, services.NewEmailService(mailer), tokens)
	require.NoError(t, err)

	hoaxes, err := services.NewHoaxService(db, files, services.WithHoaxClock(clock.Now))
	require.NoError(t, err)

	health := monitoring.NewHealthManager()
	health.RegisterReadiness(checks.Database(db, time.Second))
	health.RegisterReadiness(checks.Uploads(fs, files.ProfileFolder(), files.AttachmentFolder()))

	rateStore := middleware.NewMemoryRateStore()
	t.Cleanup(func() { _ = rateStore.Close() })

	options := api.Options{MetricsEnabled: true}
	for _, opt := range opts {
		opt(&options)
	}

	router, err := api.NewRouter(api.Dependencies{
		Users:     users,
		Hoaxes:    hoaxes,
		Files:     files,
		Tokens:    tokens,
		Health:    health,
		RateStore: rateStore,
	}, options)
	require.NoError(t, err)

	return &Env{
		T:      t,
		DB:     db,
		FS:     fs,
		Router: router,
		Mailer: mailer,
		Clock:  clock,
		Files:  files,
		Tokens: tokens,
		Users:  users,
		Hoaxes: hoaxes,
	}
}

// AddUser inserts an active user named username with DefaultPassword.
func (e *Env) AddUser(username string) *models.User {
	e.T.Helper()
	return e.addUser(username, false)
}

// AddInactiveUser inserts a user that has not redeemed its activation token.
func (e *Env) AddInactiveUser(username string) *models.User {
	e.T.Helper()
	return e.addUser(username, true)
}

func (e *Env) addUser(username string, inactive bool) *models.User {
	e.T.Helper()

	hashed, err := crypto.HashPassword(DefaultPassword)
	require.NoError(e.T, err)
	activation, err := crypto.RandomString(16)
	require.NoError(e.T, err)

	user := &models.User{
		Username:        username,
		Email:           username + "@mail.com",
		Password:        hashed,
		ActivationToken: activation,
	}
	require.NoError(e.T, e.DB.Create(user).Error)

	if !inactive {
		require.NoError(e.T, e.DB.Model(user).Updates(map[string]any{"inactive": false, "activation_token": ""}).Error)
		user.Inactive = false
		user.ActivationToken = ""
	} else {
		user.Inactive = true
	}
	return user
}

// Token issues a bearer token for user.
func (e *Env) Token(user *models.User) string {
	e.T.Helper()

	token, err := e.Tokens.CreateToken(context.Background(), user)
	require.NoError(e.T, err)
	return token
}

// AddHoax stores a hoax authored by user.
func (e *Env) AddHoax(user *models.User, content string) *models.Hoax {
	e.T.Helper()

	hoax, err := e.Hoaxes.Create(context.Background(), services.CreateHoaxInput{Content: content}, user.ID)
	require.NoError(e.T, err)
	return hoax
}

// Request executes an HTTP request against the test router, applying JSON
// encoding and the bearer token when provided.
func (e *Env) Request(method, path string, body any, token string) *httptest.ResponseRecorder {
	e.T.Helper()
	return e.RequestWithHeaders(method, path, body, token, nil)
}

// RequestWithHeaders is Request with extra headers, such as Accept-Language.
func (e *Env) RequestWithHeaders(method, path string, body any, token string, headers map[string]string) *httptest.ResponseRecorder {
	e.T.Helper()

	var buf *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(e.T, err)
		buf = bytes.NewBuffer(data)
	} else {
		buf = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, path, buf)
	require.NoError(e.T, err)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	w := httptest.NewRecorder()
	e.Router.ServeHTTP(w, req)
	return w
}

// Upload posts data as the multipart "file" field.
func (e *Env) Upload(path, filename string, data []byte) *httptest.ResponseRecorder {
	e.T.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(e.T, err)
	_, err = part.Write(data)
	require.NoError(e.T, err)
	require.NoError(e.T, writer.Close())

	req, err := http.NewRequest(http.MethodPost, path, &body)
	require.NoError(e.T, err)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	w := httptest.NewRecorder()
	e.Router.ServeHTTP(w, req)
	return w
}

// ErrorResponse mirrors the error body written by the API.
type ErrorResponse struct {
	Path             string            `json:"path"`
	Timestamp        int64             `json:"timestamp"`
	Message          string            `json:"message"`
	ValidationErrors map[string]string `json:"validationErrors"`
}

// MessageResponse mirrors the {message} success body.
type MessageResponse struct {
	Message string `json:"message"`
}

// Decode unmarshals the recorder body into a T.
func Decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}
