package handlers_test

import (
	"net/http"
	"path"
	"strconv"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/hoaxify/hoaxify/internal/handlers/testutil"
	"github.com/hoaxify/hoaxify/internal/models"
	"github.com/hoaxify/hoaxify/internal/services"
)

func hoaxPath(id uint) string {
	return "/api/1.0/hoaxes/" + strconv.FormatUint(uint64(id), 10)
}

func TestSubmitHoax(t *testing.T) {
	env := testutil.NewEnv(t)
	user := env.AddUser("user1")
	token := env.Token(user)

	w := env.Request(http.MethodPost, "/api/1.0/hoaxes", map[string]string{"content": "Hoax content"}, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, "You are not authorized to post hoax", testutil.Decode[testutil.ErrorResponse](t, w).Message)

	// Authentication is checked before validation.
	w = env.Request(http.MethodPost, "/api/1.0/hoaxes", map[string]string{"content": "short"}, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)

	for _, content := range []string{"", "123456789", strings.Repeat("x", 5001)} {
		w = env.Request(http.MethodPost, "/api/1.0/hoaxes", map[string]string{"content": content}, token)
		require.Equal(t, http.StatusBadRequest, w.Code, len(content))
		require.Equal(t, "Hoax must be min 10 and max 5000 characters", testutil.Decode[testutil.ErrorResponse](t, w).ValidationErrors["content"])
	}

	w = env.Request(http.MethodPost, "/api/1.0/hoaxes", map[string]string{"content": "Hoax content"}, token)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "Hoax is saved", testutil.Decode[testutil.MessageResponse](t, w).Message)

	var hoax models.Hoax
	require.NoError(t, env.DB.Take(&hoax).Error)
	require.Equal(t, "Hoax content", hoax.Content)
	require.Equal(t, user.ID, hoax.UserID)
	require.Equal(t, env.Clock.Now().UnixMilli(), hoax.Timestamp)
}

func TestUploadAttachmentAndSubmitHoax(t *testing.T) {
	env := testutil.NewEnv(t)
	user := env.AddUser("user1")
	token := env.Token(user)

	w := env.Upload("/api/1.0/hoaxes/attachments", "notes.txt", []byte("just some text in a file"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	uploaded := testutil.Decode[struct {
		ID uint `json:"id"`
	}](t, w)
	require.NotZero(t, uploaded.ID)

	var attachment models.FileAttachment
	require.NoError(t, env.DB.Take(&attachment, uploaded.ID).Error)
	require.Nil(t, attachment.FileType)
	require.True(t, strings.HasSuffix(attachment.Filename, ".txt"))
	require.Nil(t, attachment.HoaxID)

	exists, err := afero.Exists(env.FS, path.Join(env.Files.AttachmentFolder(), attachment.Filename))
	require.NoError(t, err)
	require.True(t, exists)

	w = env.Request(http.MethodPost, "/api/1.0/hoaxes", map[string]any{"content": "Hoax with attachment", "fileAttachment": uploaded.ID}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.Request(http.MethodGet, "/api/1.0/hoaxes", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	page := testutil.Decode[services.Page[services.HoaxView]](t, w)
	require.Len(t, page.Content, 1)
	require.NotNil(t, page.Content[0].FileAttachment)
	require.Equal(t, attachment.Filename, page.Content[0].FileAttachment.Filename)
	require.Contains(t, w.Body.String(), `"fileType":null`)
}

func TestUploadAttachmentLimits(t *testing.T) {
	env := testutil.NewEnv(t, testutil.WithMaxAttachmentSize(1024))

	w := env.Upload("/api/1.0/hoaxes/attachments", "big.bin", make([]byte, 1025))
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "Uploaded file cannot be bigger than 5MB", testutil.Decode[testutil.ErrorResponse](t, w).Message)

	w = env.Upload("/api/1.0/hoaxes/attachments", "ok.bin", make([]byte, 1024))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.Request(http.MethodPost, "/api/1.0/hoaxes/attachments", map[string]string{"file": "nope"}, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "No file uploaded", testutil.Decode[testutil.ErrorResponse](t, w).Message)

	var count int64
	require.NoError(t, env.DB.Model(&models.FileAttachment{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestListHoaxes(t *testing.T) {
	env := testutil.NewEnv(t)
	user1 := env.AddUser("user1")
	user2 := env.AddInactiveUser("user2")

	for i := 0; i < 11; i++ {
		env.AddHoax(user1, "hoax content number "+strconv.Itoa(i))
	}
	latest := env.AddHoax(user2, "hoax content from user2")

	w := env.Request(http.MethodGet, "/api/1.0/hoaxes", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	page := testutil.Decode[services.Page[services.HoaxView]](t, w)
	require.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Content, 10)
	require.Equal(t, latest.ID, page.Content[0].ID)
	require.Equal(t, "user2", page.Content[0].User.Username)
	require.Equal(t, "user2@mail.com", page.Content[0].User.Email)
	require.Nil(t, page.Content[0].FileAttachment)

	w = env.Request(http.MethodGet, userPath(user1.ID)+"/hoaxes?size=5&page=2", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	page = testutil.Decode[services.Page[services.HoaxView]](t, w)
	require.Equal(t, 3, page.TotalPages)
	require.Len(t, page.Content, 1)
	require.Equal(t, user1.ID, page.Content[0].User.ID)

	w = env.Request(http.MethodGet, userPath(user2.ID)+"/hoaxes", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	page = testutil.Decode[services.Page[services.HoaxView]](t, w)
	require.Len(t, page.Content, 1)

	w = env.Request(http.MethodGet, userPath(9999)+"/hoaxes", nil, "")
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, "User not found", testutil.Decode[testutil.ErrorResponse](t, w).Message)
}

func TestDeleteHoax(t *testing.T) {
	env := testutil.NewEnv(t)
	owner := env.AddUser("user1")
	other := env.AddUser("user2")
	hoax := env.AddHoax(owner, "hoax content that user2 wants gone")

	w := env.Request(http.MethodDelete, hoaxPath(hoax.ID), nil, "")
	require.Equal(t, http.StatusForbidden, w.Code)
	require.Equal(t, "You are not authorized to delete this hoax", testutil.Decode[testutil.ErrorResponse](t, w).Message)

	w = env.Request(http.MethodDelete, hoaxPath(hoax.ID), nil, env.Token(other))
	require.Equal(t, http.StatusForbidden, w.Code)

	var count int64
	require.NoError(t, env.DB.Model(&models.Hoax{}).Count(&count).Error)
	require.EqualValues(t, 1, count)

	w = env.Request(http.MethodDelete, hoaxPath(hoax.ID), nil, env.Token(owner))
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, env.DB.Model(&models.Hoax{}).Count(&count).Error)
	require.Zero(t, count)
}
