package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/hoaxify/hoaxify/internal/services"
	appValidator "github.com/hoaxify/hoaxify/pkg/validator"
)

var (
	resetRequestMessages = appValidator.FieldMessages{
		"email": {"*": "email_invalid"},
	}

	resetUpdateMessages = appValidator.FieldMessages{
		"password": {
			"required":         "password_null",
			"password_pattern": "password_pattern",
			"*":                "password_size",
		},
	}
)

// PasswordResetHandler serves the two steps of the password reset flow.
type PasswordResetHandler struct {
	users *services.UserService
}

// NewPasswordResetHandler constructs a PasswordResetHandler.
func NewPasswordResetHandler(users *services.UserService) *PasswordResetHandler {
	return &PasswordResetHandler{users: users}
}

type passwordResetRequest struct {
	Email string `json:"email" validate:"email"`
}

type passwordUpdateRequest struct {
	PasswordResetToken string `json:"passwordResetToken"`
	Password           string `json:"password" validate:"required,min=6,password_pattern"`
}

// POST /api/1.0/user/password
func (h *PasswordResetHandler) Request(c *gin.Context) {
	var req passwordResetRequest
	if !bindAndValidate(c, &req, resetRequestMessages) {
		return
	}

	if err := h.users.PasswordResetRequest(ctx(c), strings.TrimSpace(req.Email)); err != nil {
		writeError(c, err)
		return
	}
	writeMessage(c, http.StatusOK, "password_reset_request_success")
}

// PUT /api/1.0/user/password
func (h *PasswordResetHandler) Update(c *gin.Context) {
	var req passwordUpdateRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, err)
		return
	}

	if _, err := h.users.FindByPasswordResetToken(ctx(c), req.PasswordResetToken); err != nil {
		writeError(c, err)
		return
	}

	if !validateRequest(c, &req, resetUpdateMessages) {
		return
	}

	if err := h.users.UpdatePassword(ctx(c), req.PasswordResetToken, req.Password); err != nil {
		writeError(c, err)
		return
	}
	writeEmpty(c)
}
