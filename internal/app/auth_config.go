package app

import (
	"strings"

	"github.com/openedu/videovault/internal/auth"
)

// JWTServiceConfig adapts the auth section for the JWT service.
func (a AuthConfig) JWTServiceConfig() auth.JWTConfig {
	cfg := auth.JWTConfig{
		Secret:          strings.TrimSpace(a.JWT.Secret),
		Issuer:          strings.TrimSpace(a.JWT.Issuer),
		AccessTokenTTL:  a.JWT.AccessTTL,
		RefreshTokenTTL: a.JWT.RefreshTTL,
	}
	if cfg.AccessTokenTTL <= 0 {
		cfg.AccessTokenTTL = auth.DefaultAccessTokenTTL
	}
	if cfg.RefreshTokenTTL <= 0 {
		cfg.RefreshTokenTTL = auth.DefaultRefreshTokenTTL
	}
	return cfg
}

// SessionStoreConfig adapts the auth section for the cookie-session store.
func (a AuthConfig) SessionStoreConfig() auth.SessionConfig {
	cfg := auth.SessionConfig{TTL: a.Session.TTL}
	if cfg.TTL <= 0 {
		cfg.TTL = auth.DefaultSessionTTL
	}
	return cfg
}

// SessionCookieName returns the configured cookie name with a fallback.
func (a AuthConfig) SessionCookieName() string {
	name := strings.TrimSpace(a.Session.CookieName)
	if name == "" {
		return "vv_session"
	}
	return name
}
