package api

import (
	"github.com/gin-gonic/gin"

	"github.com/openedu/videovault/internal/handlers"
)

func registerCatalogRoutes(authed *gin.RouterGroup, h *handlers.CatalogHandler) {
	authed.GET("/dashboard", h.Dashboard)
	authed.GET("/categories", h.ListCategories)

	videos := authed.Group("/videos")
	{
		videos.GET("", h.ListVideos)
		videos.GET("/:id", h.GetVideo)
	}
}
