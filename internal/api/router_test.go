package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/openedu/videovault/internal/app"
	iauth "github.com/openedu/videovault/internal/auth"
	"github.com/openedu/videovault/internal/database"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.Open(database.Config{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	jwtSvc, err := iauth.NewJWTService(iauth.JWTConfig{Secret: "test-secret", Issuer: "test"})
	require.NoError(t, err)

	tokens, err := iauth.NewTokenStore(db, iauth.TokenStoreConfig{})
	require.NoError(t, err)

	sessions, err := iauth.NewSessionStore(db, iauth.SessionConfig{})
	require.NoError(t, err)

	login, err := iauth.NewLoginService(db, jwtSvc, tokens, sessions)
	require.NoError(t, err)

	cfg := &app.Config{}
	cfg.Monitoring.Prometheus.Enabled = true
	cfg.Monitoring.Prometheus.Endpoint = "/metrics"

	router, err := NewRouter(Deps{
		DB:       db,
		JWT:      jwtSvc,
		Tokens:   tokens,
		Sessions: sessions,
		Login:    login,
		Config:   cfg,
	})
	require.NoError(t, err)
	return router
}

func TestRouterPublicAndProtectedRoutes(t *testing.T) {
	router := newTestRouter(t)

	// Health and metrics are public.
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/metrics", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "videovault_")

	// Logout answers 200 even with no credentials.
	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodPost, "/api/auth/logout", strings.NewReader("{}"))
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	// Everything behind the auth middleware rejects anonymous requests.
	for _, path := range []string{"/api/auth/me", "/api/auth/sessions", "/api/dashboard", "/api/videos", "/api/admin/users"} {
		w = httptest.NewRecorder()
		req, _ = http.NewRequest(http.MethodGet, path, nil)
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestRouterUnknownRoute(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/nope", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusNotFound, w.Code)
}
