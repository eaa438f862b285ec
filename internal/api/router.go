package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/openedu/videovault/internal/app"
	iauth "github.com/openedu/videovault/internal/auth"
	"github.com/openedu/videovault/internal/handlers"
	"github.com/openedu/videovault/internal/middleware"
)

// Deps carries the services the router wires into handlers.
type Deps struct {
	DB       *gorm.DB
	JWT      *iauth.JWTService
	Tokens   *iauth.TokenStore
	Sessions *iauth.SessionStore
	Login    *iauth.LoginService
	Config   *app.Config
}

// NewRouter builds the Gin engine, wires middleware and registers all routes.
func NewRouter(deps Deps) (*gin.Engine, error) {
	if deps.DB == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if deps.JWT == nil || deps.Tokens == nil || deps.Sessions == nil || deps.Login == nil {
		return nil, fmt.Errorf("auth services must be provided")
	}
	if deps.Config == nil {
		return nil, fmt.Errorf("config must be provided")
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())

	r.NoRoute(middleware.NotFoundHandler)

	// Health endpoint (public)
	r.GET("/health", handlers.Health(deps.DB))

	if deps.Config.Monitoring.Prometheus.Enabled {
		endpoint := deps.Config.Monitoring.Prometheus.Endpoint
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	cookieName := deps.Config.Auth.SessionCookieName()
	requireAuth := middleware.Auth(deps.JWT, deps.Tokens, deps.Sessions, cookieName)

	api := r.Group("/api")
	authed := api.Group("")
	authed.Use(requireAuth)

	authHandler := handlers.NewAuthHandler(deps.DB, deps.Login, deps.JWT, deps.Sessions, cookieName)
	registerAuthRoutes(api, authed, authHandler)

	catalogHandler := handlers.NewCatalogHandler(deps.DB)
	registerCatalogRoutes(authed, catalogHandler)

	adminHandler := handlers.NewAdminHandler(deps.DB, deps.Login)
	registerAdminRoutes(authed, deps.DB, adminHandler)

	return r, nil
}
