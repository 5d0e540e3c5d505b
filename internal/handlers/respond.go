package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/hoaxify/hoaxify/pkg/response"
)

// ctx returns the request context so service calls are cancelled with the client.
func ctx(c *gin.Context) context.Context {
	if c.Request == nil {
		return context.Background()
	}
	return c.Request.Context()
}

func writeError(c *gin.Context, err error) {
	response.Error(c, err)
}

func writeJSON(c *gin.Context, status int, data any) {
	response.Success(c, status, data)
}

func writeMessage(c *gin.Context, status int, key string) {
	response.Message(c, status, key)
}

func writeEmpty(c *gin.Context) {
	response.Empty(c)
}
