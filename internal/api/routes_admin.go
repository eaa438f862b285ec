package api

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/openedu/videovault/internal/handlers"
	"github.com/openedu/videovault/internal/middleware"
)

func registerAdminRoutes(authed *gin.RouterGroup, db *gorm.DB, h *handlers.AdminHandler) {
	admin := authed.Group("/admin")
	admin.Use(middleware.RequireAdmin(db))

	users := admin.Group("/users")
	{
		users.GET("", h.ListUsers)
		users.POST("", h.CreateUser)
		users.GET("/:id", h.GetUser)
		users.PATCH("/:id", h.UpdateUser)
		users.DELETE("/:id", h.DeleteUser)
		users.POST("/:id/invalidate-sessions", h.InvalidateUserSessions)
	}

	categories := admin.Group("/categories")
	{
		categories.POST("", h.CreateCategory)
		categories.PUT("/:id", h.UpdateCategory)
		categories.DELETE("/:id", h.DeleteCategory)
	}

	videos := admin.Group("/videos")
	{
		videos.GET("", h.ListVideos)
		videos.POST("", h.CreateVideo)
		videos.PUT("/:id", h.UpdateVideo)
		videos.DELETE("/:id", h.DeleteVideo)
	}

	admin.GET("/stats", h.Stats)
}
