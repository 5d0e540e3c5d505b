package response

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appErrors "github.com/hoaxify/hoaxify/pkg/errors"
	"github.com/hoaxify/hoaxify/pkg/i18n"
	"github.com/hoaxify/hoaxify/pkg/logger"
)

// LocaleKey is the gin context key holding the negotiated locale.
const LocaleKey = "locale"

// ErrorBody is the payload written for every failed request.
type ErrorBody struct {
	Path             string            `json:"path"`
	Timestamp        int64             `json:"timestamp"`
	Message          string            `json:"message"`
	ValidationErrors map[string]string `json:"validationErrors,omitempty"`
}

// MessageBody carries a single translated message.
type MessageBody struct {
	Message string `json:"message"`
}

// Locale returns the locale negotiated for the request, defaulting to English.
func Locale(c *gin.Context) string {
	if locale := c.GetString(LocaleKey); locale != "" {
		return locale
	}
	return i18n.DefaultLocale
}

// Translate resolves key in the request locale.
func Translate(c *gin.Context, key string) string {
	return i18n.Default().T(Locale(c), key)
}

// Success writes data as the JSON body.
func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, data)
}

// Message writes a translated {message} body.
func Message(c *gin.Context, statusCode int, key string) {
	c.JSON(statusCode, MessageBody{Message: Translate(c, key)})
}

// Empty writes a 200 response without a body.
func Empty(c *gin.Context) {
	c.Status(http.StatusOK)
}

// Error writes a JSON error response derived from an AppError. Message keys
// are translated here and nowhere else.
func Error(c *gin.Context, err error) {
	if err == nil {
		err = appErrors.ErrInternalServer
	}

	appErr := appErrors.FromError(err)
	status := appErr.StatusCode
	if status == 0 {
		status = http.StatusInternalServerError
	}

	if status >= http.StatusInternalServerError {
		logger.WithModule("http").Error("request failed",
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Error(err),
		)
	}

	locale := Locale(c)
	catalog := i18n.Default()

	body := ErrorBody{
		Path:      c.Request.URL.RequestURI(),
		Timestamp: time.Now().UnixMilli(),
		Message:   catalog.T(locale, appErr.Code),
	}
	if len(appErr.ValidationErrors) > 0 {
		body.ValidationErrors = make(map[string]string, len(appErr.ValidationErrors))
		for field, key := range appErr.ValidationErrors {
			body.ValidationErrors[field] = catalog.T(locale, key)
		}
	}

	c.AbortWithStatusJSON(status, body)
}
