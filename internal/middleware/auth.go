package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	iauth "github.com/hoaxify/hoaxify/internal/auth"
	"github.com/hoaxify/hoaxify/pkg/logger"
)

const (
	CtxUserIDKey = "userID"
	CtxTokenKey  = "authToken"
)

// TokenVerifier resolves a bearer token to its owning user id.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (uint, error)
}

// TokenAuth attaches the caller's identity when a valid bearer token is
// presented. Requests without a usable token continue unauthenticated; each
// route decides whether identity is required.
func TokenAuth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c)
		if token == "" {
			c.Next()
			return
		}

		userID, err := verifier.Verify(c.Request.Context(), token)
		switch {
		case err == nil:
			c.Set(CtxUserIDKey, userID)
			c.Set(CtxTokenKey, token)
		case errors.Is(err, iauth.ErrInvalidToken):
		default:
			logger.WithModule("auth").Warn("token verification failed", zap.Error(err))
		}

		c.Next()
	}
}

// BearerToken extracts the token from the Authorization header.
func BearerToken(c *gin.Context) string {
	authz := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(authz) < 7 || !strings.EqualFold(authz[:7], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(authz[7:])
}

// AuthenticatedUserID returns the id attached by TokenAuth.
func AuthenticatedUserID(c *gin.Context) (uint, bool) {
	value, ok := c.Get(CtxUserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := value.(uint)
	return id, ok && id != 0
}
