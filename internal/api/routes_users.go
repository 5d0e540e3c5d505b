package api

import (
	"github.com/gin-gonic/gin"

	"github.com/hoaxify/hoaxify/internal/handlers"
)

func registerUserRoutes(api *gin.RouterGroup, handler *handlers.UserHandler, hoaxes *handlers.HoaxHandler) {
	users := api.Group("/users")
	{
		users.POST("", handler.Create)
		users.POST("/token/:token", handler.Activate)
		users.GET("", handler.List)
		users.GET("/:id", handler.Get)
		users.PUT("/:id", handler.Update)
		users.DELETE("/:id", handler.Delete)
		users.GET("/:id/hoaxes", hoaxes.ListByUser)
	}
}
