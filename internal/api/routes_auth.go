package api

import (
	"github.com/gin-gonic/gin"

	"github.com/hoaxify/hoaxify/internal/handlers"
)

func registerAuthRoutes(api *gin.RouterGroup, auth *handlers.AuthHandler, reset *handlers.PasswordResetHandler, limit gin.HandlerFunc) {
	api.POST("/auth", limit, auth.Login)
	api.POST("/logout", auth.Logout)

	password := api.Group("/user/password")
	{
		password.POST("", limit, reset.Request)
		password.PUT("", reset.Update)
	}
}
