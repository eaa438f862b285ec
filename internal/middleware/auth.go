package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	iauth "github.com/openedu/videovault/internal/auth"
	appErrors "github.com/openedu/videovault/pkg/errors"
	"github.com/openedu/videovault/pkg/logger"
	"github.com/openedu/videovault/pkg/metrics"
	"github.com/openedu/videovault/pkg/response"
)

const (
	CtxClaimsKey     = "authClaims"
	CtxUserIDKey     = "userID"
	CtxSessionKeyKey = "sessionKey"

	// DefaultSessionCookie is the cookie carrying the opaque session key.
	DefaultSessionCookie = "vv_session"
)

// Auth authenticates requests over either credential channel. A bearer token
// takes precedence; requests without one fall back to the session cookie.
//
// Both channels run the same second check after the credential itself proves
// valid: is this still the user's current credential, or has a newer login
// replaced it? A superseded bearer token yields TOKEN_NOT_ACTIVE, a superseded
// cookie session yields SESSION_INTERRUPTED and clears the cookie.
func Auth(jwt *iauth.JWTService, tokens *iauth.TokenStore, sessions *iauth.SessionStore, cookieName string) gin.HandlerFunc {
	if cookieName == "" {
		cookieName = DefaultSessionCookie
	}
	log := logger.WithModule("middleware.auth")

	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if len(authz) >= 8 && strings.EqualFold(authz[:7], "Bearer ") {
			authenticateBearer(c, jwt, tokens, strings.TrimSpace(authz[7:]))
			return
		}

		if key, err := c.Cookie(cookieName); err == nil && key != "" {
			authenticateCookie(c, sessions, log, cookieName, key)
			return
		}

		c.Header("WWW-Authenticate", "Bearer")
		response.Error(c, appErrors.ErrUnauthorized)
		c.Abort()
	}
}

func authenticateBearer(c *gin.Context, jwt *iauth.JWTService, tokens *iauth.TokenStore, token string) {
	claims, err := jwt.ValidateAccessToken(token)
	if err != nil {
		// Normalise all validation failures to 401
		c.Header("WWW-Authenticate", "Bearer")
		response.Error(c, appErrors.ErrUnauthorized)
		c.Abort()
		return
	}

	active, err := tokens.IsActive(claims.UserID, claims.ID)
	if err != nil {
		// The active-token check is the whole point of the bearer channel;
		// without it a stolen-but-superseded token would pass, so store
		// errors fail the request rather than falling open.
		response.Error(c, appErrors.Wrap(err, "verify active token"))
		c.Abort()
		return
	}
	if !active {
		metrics.SupersededRejections.WithLabelValues("token").Inc()
		response.Error(c, appErrors.ErrTokenNotActive)
		c.Abort()
		return
	}

	c.Set(CtxClaimsKey, claims)
	c.Set(CtxUserIDKey, claims.UserID)
	c.Next()
}

func authenticateCookie(c *gin.Context, sessions *iauth.SessionStore, log *zap.Logger, cookieName, key string) {
	record, err := sessions.Resolve(key)
	if err != nil {
		if !errors.Is(err, iauth.ErrSessionNotFound) && !errors.Is(err, iauth.ErrSessionExpired) {
			log.Warn("session lookup failed", zap.Error(err))
		}
		clearSessionCookie(c, cookieName)
		response.Error(c, appErrors.ErrUnauthorized)
		c.Abort()
		return
	}

	tracked, err := sessions.IsTracked(record.UserID, key)
	if err != nil {
		// The session itself resolved; only the single-session pairing check
		// failed. Treat the store error as a pass so an infrastructure blip
		// does not log everyone out.
		log.Warn("session pairing check failed, allowing request", zap.Error(err))
		tracked = true
	}
	if !tracked {
		if _, err := sessions.Delete(key); err != nil {
			log.Warn("deleting superseded session failed", zap.Error(err))
		}
		clearSessionCookie(c, cookieName)
		metrics.SupersededRejections.WithLabelValues("session").Inc()
		response.Error(c, appErrors.ErrSessionInterrupted)
		c.Abort()
		return
	}

	c.Set(CtxUserIDKey, record.UserID)
	c.Set(CtxSessionKeyKey, key)
	c.Next()
}

func clearSessionCookie(c *gin.Context, cookieName string) {
	c.SetCookie(cookieName, "", -1, "/", "", false, true)
}

// UserID extracts the authenticated user ID placed by Auth.
func UserID(c *gin.Context) string {
	return c.GetString(CtxUserIDKey)
}

// SessionKey returns the cookie-session key when the request authenticated
// over the cookie channel, or "" on the bearer channel.
func SessionKey(c *gin.Context) string {
	return c.GetString(CtxSessionKeyKey)
}
