package services

import (
	"net/http"

	appErrors "github.com/hoaxify/hoaxify/pkg/errors"
)

// Errors returned by the services. Each carries the message key rendered to clients.
var (
	ErrUserNotFound              = appErrors.NewNotFound("user_not_found")
	ErrActivationFailure         = appErrors.NewBadRequest("activation_failure")
	ErrEmailNotInUse             = appErrors.NewNotFound("email_not_inuse")
	ErrUnauthorizedPasswordReset = appErrors.NewForbidden("unauthorized_password_reset")
	ErrUnauthorizedHoaxDelete    = appErrors.NewForbidden("unauthorized_hoax_delete")
	ErrAttachmentTooLarge        = appErrors.New("attachment_size_limit", http.StatusBadRequest)
)

// emailInUse is the validation error raised when registration races on a taken email.
func emailInUse() *appErrors.AppError {
	return appErrors.NewValidation(map[string]string{"email": "email_inuse"})
}
