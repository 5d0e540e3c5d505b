package handlers_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hoaxify/hoaxify/internal/handlers/testutil"
	"github.com/hoaxify/hoaxify/internal/models"
	"github.com/hoaxify/hoaxify/pkg/crypto"
)

func TestPasswordResetRequest(t *testing.T) {
	env := testutil.NewEnv(t)
	user := env.AddUser("user1")

	w := env.Request(http.MethodPost, "/api/1.0/user/password", map[string]string{"email": "nobody@mail.com"}, "")
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, "E-mail is not registered", testutil.Decode[testutil.ErrorResponse](t, w).Message)

	w = env.Request(http.MethodPost, "/api/1.0/user/password", map[string]string{"email": "not-an-email"}, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "E-mail is not valid", testutil.Decode[testutil.ErrorResponse](t, w).ValidationErrors["email"])

	w = env.Request(http.MethodPost, "/api/1.0/user/password", map[string]string{"email": "user1@mail.com"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "Check your e-mail for resetting your password", testutil.Decode[testutil.MessageResponse](t, w).Message)

	var stored models.User
	require.NoError(t, env.DB.Take(&stored, user.ID).Error)
	require.NotEmpty(t, stored.PasswordResetToken)

	msg, ok := env.Mailer.Last()
	require.True(t, ok)
	require.Contains(t, msg.HTML, stored.PasswordResetToken)
}

func TestPasswordResetRequestEmailFailure(t *testing.T) {
	env := testutil.NewEnv(t)
	env.AddUser("user1")
	env.Mailer.FailWith(errors.New("smtp down"))

	w := env.Request(http.MethodPost, "/api/1.0/user/password", map[string]string{"email": "user1@mail.com"}, "")
	require.Equal(t, http.StatusBadGateway, w.Code)
	require.Equal(t, "E-mail Failure", testutil.Decode[testutil.ErrorResponse](t, w).Message)
}

func TestPasswordUpdate(t *testing.T) {
	env := testutil.NewEnv(t)
	user := env.AddInactiveUser("user1")
	oldToken := env.Token(user)
	require.NoError(t, env.DB.Model(user).Update("password_reset_token", "reset-token").Error)

	w := env.Request(http.MethodPut, "/api/1.0/user/password", map[string]string{"passwordResetToken": "unknown", "password": "N3wPassword"}, "")
	require.Equal(t, http.StatusForbidden, w.Code)
	require.Equal(t,
		"You are not authorized to update your password. Please follow the password reset steps again.",
		testutil.Decode[testutil.ErrorResponse](t, w).Message)

	// Token lookup happens before validation.
	w = env.Request(http.MethodPut, "/api/1.0/user/password", map[string]string{"passwordResetToken": "unknown", "password": "weak"}, "")
	require.Equal(t, http.StatusForbidden, w.Code)

	for password, expected := range map[string]string{
		"":           "Password cannot be null",
		"P4ss":       "Password must be at least 6 characters",
		"lowercase1": "Password must have at least 1 uppercase, 1 lowercase letter and 1 number",
	} {
		w = env.Request(http.MethodPut, "/api/1.0/user/password", map[string]string{"passwordResetToken": "reset-token", "password": password}, "")
		require.Equal(t, http.StatusBadRequest, w.Code, password)
		require.Equal(t, expected, testutil.Decode[testutil.ErrorResponse](t, w).ValidationErrors["password"], password)
	}

	w = env.Request(http.MethodPut, "/api/1.0/user/password", map[string]string{"passwordResetToken": "reset-token", "password": "N3wPassword"}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var stored models.User
	require.NoError(t, env.DB.Take(&stored, user.ID).Error)
	require.True(t, crypto.VerifyPassword(stored.Password, "N3wPassword"))
	require.Empty(t, stored.PasswordResetToken)
	require.False(t, stored.Inactive)

	w = env.Request(http.MethodPut, userPath(user.ID), map[string]any{"username": "user1"}, oldToken)
	require.Equal(t, http.StatusForbidden, w.Code)

	login(t, env, "user1@mail.com", "N3wPassword")
}
