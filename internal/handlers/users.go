package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/hoaxify/hoaxify/internal/middleware"
	"github.com/hoaxify/hoaxify/internal/services"
	"github.com/hoaxify/hoaxify/internal/storage"
	appErrors "github.com/hoaxify/hoaxify/pkg/errors"
	appValidator "github.com/hoaxify/hoaxify/pkg/validator"
)

var (
	errUnauthorizedUserUpdate = appErrors.NewForbidden("unauthorized_user_update")
	errUnauthorizedUserDelete = appErrors.NewForbidden("unauthorized_user_delete")
)

var (
	usernameMessages = map[string]string{
		"required": "username_null",
		"*":        "username_size",
	}

	registerMessages = appValidator.FieldMessages{
		"username": usernameMessages,
		"email": {
			"required": "email_null",
			"*":        "email_invalid",
		},
		"password": {
			"required":         "password_null",
			"password_pattern": "password_pattern",
			"*":                "password_size",
		},
	}

	updateMessages = appValidator.FieldMessages{
		"username": usernameMessages,
	}
)

// UserHandler serves account registration and profile routes.
type UserHandler struct {
	users *services.UserService
}

// NewUserHandler constructs a UserHandler.
func NewUserHandler(users *services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

type createUserRequest struct {
	Username string `json:"username" validate:"required,min=4,max=32"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=32,password_pattern"`
}

type updateUserRequest struct {
	Username string  `json:"username" validate:"required,min=4,max=32"`
	Image    *string `json:"image"`
}

// POST /api/1.0/users
func (h *UserHandler) Create(c *gin.Context) {
	var req createUserRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, err)
		return
	}
	req.Email = strings.TrimSpace(req.Email)

	fields, err := validationErrors(&req, registerMessages)
	if err != nil {
		writeError(c, err)
		return
	}
	if _, invalid := fields["email"]; !invalid {
		inUse, err := h.users.EmailInUse(ctx(c), req.Email)
		if err != nil {
			writeError(c, err)
			return
		}
		if inUse {
			if fields == nil {
				fields = map[string]string{}
			}
			fields["email"] = "email_inuse"
		}
	}
	if len(fields) > 0 {
		writeError(c, appErrors.NewValidation(fields))
		return
	}

	err = h.users.Create(ctx(c), services.CreateUserInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	writeMessage(c, http.StatusOK, "user_create_success")
}

// POST /api/1.0/users/token/:token
func (h *UserHandler) Activate(c *gin.Context) {
	if err := h.users.Activate(ctx(c), c.Param("token")); err != nil {
		writeError(c, err)
		return
	}
	writeMessage(c, http.StatusOK, "account_activation_success")
}

// GET /api/1.0/users
func (h *UserHandler) List(c *gin.Context) {
	page := middleware.GetPage(c)
	authUserID, _ := middleware.AuthenticatedUserID(c)

	result, err := h.users.List(ctx(c), page.Page, page.Size, authUserID)
	if err != nil {
		writeError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, result)
}

// GET /api/1.0/users/:id
func (h *UserHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		writeError(c, services.ErrUserNotFound)
		return
	}

	user, err := h.users.Get(ctx(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, user)
}

// PUT /api/1.0/users/:id
func (h *UserHandler) Update(c *gin.Context) {
	id, _ := parseIDParam(c, "id")
	authUserID, ok := middleware.AuthenticatedUserID(c)
	if !ok || authUserID != id {
		writeError(c, errUnauthorizedUserUpdate)
		return
	}

	var req updateUserRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, err)
		return
	}

	fields, err := validationErrors(&req, updateMessages)
	if err != nil {
		writeError(c, err)
		return
	}
	if key := profileImageError(req.Image); key != "" {
		if fields == nil {
			fields = map[string]string{}
		}
		fields["image"] = key
	}
	if len(fields) > 0 {
		writeError(c, appErrors.NewValidation(fields))
		return
	}

	user, err := h.users.Update(ctx(c), id, services.UpdateUserInput{
		Username: req.Username,
		Image:    req.Image,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, user)
}

// DELETE /api/1.0/users/:id
func (h *UserHandler) Delete(c *gin.Context) {
	id, _ := parseIDParam(c, "id")
	authUserID, ok := middleware.AuthenticatedUserID(c)
	if !ok || authUserID != id {
		writeError(c, errUnauthorizedUserDelete)
		return
	}

	if err := h.users.Delete(ctx(c), id); err != nil {
		writeError(c, err)
		return
	}
	writeEmpty(c)
}

// profileImageError returns the message key for an unacceptable profile
// image, or an empty string when the image is absent or valid.
func profileImageError(image *string) string {
	if image == nil || strings.TrimSpace(*image) == "" {
		return ""
	}

	data, err := storage.DecodeImage(*image)
	if err != nil {
		return "unsupported_image_file"
	}
	if !storage.IsLessThan2MB(data) {
		return "profile_image_size"
	}
	if !storage.IsSupportedFileType(data) {
		return "unsupported_image_file"
	}
	return ""
}
