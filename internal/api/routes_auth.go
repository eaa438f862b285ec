package api

import (
	"github.com/gin-gonic/gin"

	"github.com/openedu/videovault/internal/handlers"
)

func registerAuthRoutes(api, authed *gin.RouterGroup, h *handlers.AuthHandler) {
	auth := api.Group("/auth")
	{
		auth.POST("/login", h.Login)
		auth.POST("/refresh", h.Refresh)
		// Logout stays outside the auth middleware: it must answer 200 even
		// when the presented credentials are already dead.
		auth.POST("/logout", h.Logout)
	}

	authed.GET("/auth/me", h.Me)
	authed.GET("/auth/sessions", h.Sessions)
}
