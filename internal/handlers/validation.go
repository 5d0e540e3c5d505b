package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	appErrors "github.com/hoaxify/hoaxify/pkg/errors"
	appValidator "github.com/hoaxify/hoaxify/pkg/validator"
)

// MaxJSONBodyBytes caps JSON request bodies. Profile images travel base64
// encoded inside the body, so the cap sits above the 2MB image limit.
const MaxJSONBodyBytes = 3 * 1024 * 1024

var errInvalidRequest = appErrors.NewBadRequest("invalid_request")

// bindJSON decodes the request body into dest. An empty body leaves dest at
// its zero value so that validation reports the missing fields.
func bindJSON(c *gin.Context, dest any) error {
	if c.Request.Body != nil {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxJSONBodyBytes)
	}
	if err := c.ShouldBindJSON(dest); err != nil && !errors.Is(err, io.EOF) {
		return errInvalidRequest.WithInternal(err)
	}
	return nil
}

// validationErrors runs struct validation and maps failures to message keys.
// It returns nil when dest is valid.
func validationErrors(dest any, messages appValidator.FieldMessages) (map[string]string, error) {
	err := appValidator.ValidateStruct(dest)
	if err == nil {
		return nil, nil
	}

	var failures appValidator.ValidationErrors
	if !errors.As(err, &failures) {
		return nil, err
	}
	return failures.MessageKeys(messages), nil
}

// bindAndValidate decodes and validates dest, writing the error response on
// failure.
func bindAndValidate(c *gin.Context, dest any, messages appValidator.FieldMessages) bool {
	if err := bindJSON(c, dest); err != nil {
		writeError(c, err)
		return false
	}
	return validateRequest(c, dest, messages)
}

// validateRequest validates an already decoded dest, writing the error
// response on failure.
func validateRequest(c *gin.Context, dest any, messages appValidator.FieldMessages) bool {
	fields, err := validationErrors(dest, messages)
	if err != nil {
		writeError(c, err)
		return false
	}
	if len(fields) > 0 {
		writeError(c, appErrors.NewValidation(fields))
		return false
	}
	return true
}

func parseIDParam(c *gin.Context, name string) (uint, bool) {
	value, err := strconv.ParseUint(strings.TrimSpace(c.Param(name)), 10, 64)
	if err != nil || value == 0 {
		return 0, false
	}
	return uint(value), true
}
