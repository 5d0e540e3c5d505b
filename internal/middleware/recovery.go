package middleware

import (
	stderrors "errors"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/hoaxify/hoaxify/pkg/errors"
	"github.com/hoaxify/hoaxify/pkg/logger"
	"github.com/hoaxify/hoaxify/pkg/response"
)

// Recovery converts panics into the standard 500 error body. A panic caused
// by the client hanging up is logged and the request aborted without a body.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}

			log := logger.WithModule("http").With(
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
			)

			if err, ok := r.(error); ok && clientGone(err) {
				log.Warn("client disconnected", zap.Error(err))
				c.Abort()
				return
			}

			log.Error("panic", zap.Any("error", r), zap.Stack("stack"))
			response.Error(c, errors.ErrInternalServer)
		}()
		c.Next()
	}
}

func clientGone(err error) bool {
	return stderrors.Is(err, syscall.EPIPE) || stderrors.Is(err, syscall.ECONNRESET)
}

// NotFoundHandler returns a translated 404 for unknown routes.
func NotFoundHandler(c *gin.Context) {
	response.Error(c, errors.NewNotFound("route_not_found"))
}
