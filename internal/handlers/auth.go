package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	iauth "github.com/hoaxify/hoaxify/internal/auth"
	"github.com/hoaxify/hoaxify/internal/middleware"
	"github.com/hoaxify/hoaxify/internal/services"
	appErrors "github.com/hoaxify/hoaxify/pkg/errors"
	"github.com/hoaxify/hoaxify/pkg/metrics"
	appValidator "github.com/hoaxify/hoaxify/pkg/validator"
)

// AuthHandler issues and revokes bearer tokens.
type AuthHandler struct {
	users  *services.UserService
	tokens *iauth.TokenService
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(users *services.UserService, tokens *iauth.TokenService) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	ID       uint    `json:"id"`
	Username string  `json:"username"`
	Image    *string `json:"image"`
	Token    string  `json:"token"`
}

// POST /api/1.0/auth
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, appErrors.ErrAuthentication)
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if err := appValidator.ValidateVar(req.Email, "required,email"); err != nil {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		writeError(c, appErrors.ErrAuthentication)
		return
	}

	user, err := h.users.Authenticate(ctx(c), req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	token, err := h.tokens.CreateToken(ctx(c), user)
	if err != nil {
		writeError(c, err)
		return
	}

	writeJSON(c, http.StatusOK, loginResponse{
		ID:       user.ID,
		Username: user.Username,
		Image:    user.Image,
		Token:    token,
	})
}

// POST /api/1.0/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if token := middleware.BearerToken(c); token != "" {
		if err := h.tokens.DeleteToken(ctx(c), token); err != nil {
			writeError(c, err)
			return
		}
	}
	writeEmpty(c)
}
