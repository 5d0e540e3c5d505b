package api

import (
	"github.com/gin-gonic/gin"

	"github.com/hoaxify/hoaxify/internal/handlers"
)

func registerHoaxRoutes(api *gin.RouterGroup, handler *handlers.HoaxHandler, attachments *handlers.AttachmentHandler) {
	hoaxes := api.Group("/hoaxes")
	{
		hoaxes.POST("", handler.Create)
		hoaxes.GET("", handler.List)
		hoaxes.DELETE("/:id", handler.Delete)
		hoaxes.POST("/attachments", attachments.Upload)
	}
}
