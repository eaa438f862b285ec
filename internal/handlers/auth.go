package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	iauth "github.com/openedu/videovault/internal/auth"
	"github.com/openedu/videovault/internal/middleware"
	"github.com/openedu/videovault/internal/models"
	appErrors "github.com/openedu/videovault/pkg/errors"
	"github.com/openedu/videovault/pkg/response"
)

// AuthHandler manages authentication flows (login/refresh/logout/me/sessions).
type AuthHandler struct {
	db         *gorm.DB
	login      *iauth.LoginService
	jwt        *iauth.JWTService
	sessions   *iauth.SessionStore
	cookieName string
}

func NewAuthHandler(db *gorm.DB, login *iauth.LoginService, jwt *iauth.JWTService, sessions *iauth.SessionStore, cookieName string) *AuthHandler {
	if cookieName == "" {
		cookieName = middleware.DefaultSessionCookie
	}
	return &AuthHandler{db: db, login: login, jwt: jwt, sessions: sessions, cookieName: cookieName}
}

type loginRequest struct {
	Username string `json:"username" validate:"required,max=150"`
	Password string `json:"password" validate:"required"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	result, err := h.login.Login(iauth.LoginInput{
		Username: strings.TrimSpace(req.Username),
		Password: req.Password,
		Meta: iauth.ClientMeta{
			IPAddress: clientIP(c),
			UserAgent: models.TruncateUserAgent(c.Request.UserAgent()),
		},
	})
	if err != nil {
		if errors.Is(err, iauth.ErrBadCredentials) || errors.Is(err, iauth.ErrAccountDisabled) {
			// Both collapse into one response so probing cannot tell a wrong
			// password from a disabled account.
			response.Error(c, appErrors.ErrInvalidCredentials)
			return
		}
		response.Error(c, appErrors.Wrap(err, "login failed"))
		return
	}

	c.SetCookie(h.cookieName, result.SessionKey, int(result.SessionTTL.Seconds()), "/", "", false, true)

	response.Success(c, http.StatusOK, gin.H{
		"tokens": tokenResponse{
			AccessToken:  result.Tokens.Access.Token,
			RefreshToken: result.Tokens.Refresh.Token,
		},
		"user":                 userPayload(result.User),
		"sessions_invalidated": result.InvalidatedSessions,
	})
}

// POST /api/auth/logout
//
// Logout is best-effort and unconditional: whatever credentials the client
// presents are revoked if possible, the cookie is cleared, and the reply is
// always 200 so a half-logged-out client can finish tearing down local state.
func (h *AuthHandler) Logout(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	_ = c.ShouldBindJSON(&req)

	userID := middleware.UserID(c)
	sessionKey := middleware.SessionKey(c)

	if userID == "" {
		// Route is reachable without the auth middleware; recover what we can
		// from the raw credentials.
		if authz := c.GetHeader("Authorization"); len(authz) >= 8 && strings.EqualFold(authz[:7], "Bearer ") {
			if claims, err := h.jwt.ValidateAccessToken(strings.TrimSpace(authz[7:])); err == nil {
				userID = claims.UserID
			}
		}
	}
	if sessionKey == "" {
		if key, err := c.Cookie(h.cookieName); err == nil {
			sessionKey = key
		}
	}

	h.login.Logout(userID, strings.TrimSpace(req.RefreshToken), sessionKey)

	c.SetCookie(h.cookieName, "", -1, "/", "", false, true)
	response.Success(c, http.StatusOK, gin.H{"logged_out": true})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// POST /api/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if !bindAndValidate(c, &req) {
		return
	}

	access, err := h.login.Refresh(strings.TrimSpace(req.RefreshToken), iauth.ClientMeta{
		IPAddress: clientIP(c),
		UserAgent: models.TruncateUserAgent(c.Request.UserAgent()),
	})
	if err != nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"access_token": access.Token,
		"expires_at":   access.ExpiresAt,
	})
}

// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	userID := middleware.UserID(c)

	var user models.User
	if err := h.db.Take(&user, "id = ?", userID).Error; err != nil {
		response.Error(c, appErrors.ErrNotFound)
		return
	}

	response.Success(c, http.StatusOK, userPayload(user))
}

// GET /api/auth/sessions
func (h *AuthHandler) Sessions(c *gin.Context) {
	userID := middleware.UserID(c)

	sessions, err := h.sessions.ListForUser(userID)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, "list sessions"))
		return
	}

	current := middleware.SessionKey(c)
	items := make([]gin.H, 0, len(sessions))
	for _, s := range sessions {
		items = append(items, gin.H{
			"id":         s.ID,
			"created_at": s.CreatedAt,
			"ip_address": s.IPAddress,
			"user_agent": s.UserAgent,
			"current":    current != "" && s.SessionKey == current,
		})
	}

	response.SuccessWithMeta(c, http.StatusOK, items, &response.Meta{Count: len(items)})
}

func userPayload(user models.User) gin.H {
	return gin.H{
		"id":            user.ID,
		"username":      user.Username,
		"email":         user.Email,
		"first_name":    user.FirstName,
		"last_name":     user.LastName,
		"is_admin":      user.IsAdmin,
		"is_active":     user.IsActive,
		"last_login_at": user.LastLoginAt,
	}
}
