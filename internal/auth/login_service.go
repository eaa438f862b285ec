package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/openedu/videovault/internal/models"
	"github.com/openedu/videovault/pkg/crypto"
	"github.com/openedu/videovault/pkg/logger"
	"github.com/openedu/videovault/pkg/metrics"
)

var (
	// ErrBadCredentials is returned when the username/password pair is invalid.
	ErrBadCredentials = errors.New("auth: invalid credentials")
	// ErrAccountDisabled signals that the account has been deactivated.
	ErrAccountDisabled = errors.New("auth: account disabled")
	// ErrRefreshRevoked marks a refresh token that has been blacklisted.
	ErrRefreshRevoked = errors.New("auth: refresh token revoked")
)

// LoginInput carries the credentials and client context for a login attempt.
type LoginInput struct {
	Username string
	Password string
	Meta     ClientMeta
}

// LoginResult is everything a successful login produces: the new credentials
// for both channels plus the count of sessions the login displaced.
type LoginResult struct {
	User                models.User
	Tokens              TokenPair
	SessionKey          string
	SessionTTL          time.Duration
	InvalidatedSessions int
	BlacklistedTokens   int
}

// LoginService coordinates the invalidate-then-issue sequence that keeps each
// user down to a single active credential per channel.
type LoginService struct {
	db       *gorm.DB
	jwt      *JWTService
	tokens   *TokenStore
	sessions *SessionStore
	log      *zap.Logger
}

// NewLoginService wires the coordinator with its collaborators.
func NewLoginService(db *gorm.DB, jwt *JWTService, tokens *TokenStore, sessions *SessionStore) (*LoginService, error) {
	if db == nil {
		return nil, errors.New("login service: db is required")
	}
	if jwt == nil {
		return nil, errors.New("login service: jwt service is required")
	}
	if tokens == nil {
		return nil, errors.New("login service: token store is required")
	}
	if sessions == nil {
		return nil, errors.New("login service: session store is required")
	}

	return &LoginService{
		db:       db,
		jwt:      jwt,
		tokens:   tokens,
		sessions: sessions,
		log:      logger.WithModule("auth"),
	}, nil
}

// Login runs the full sequence: authenticate, revoke prior sessions, blacklist
// outstanding tokens (best effort), issue the new pair and cookie session, and
// record the new credential identifiers.
//
// Invalidation happens before issuance, so the only window where two valid
// credentials can coexist is between the upserts of two racing logins; the
// later writer wins, which is the intended most-recent-login-wins behaviour.
func (s *LoginService) Login(input LoginInput) (*LoginResult, error) {
	user, err := s.authenticate(input.Username, input.Password)
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		return nil, err
	}

	invalidated, err := s.sessions.InvalidateUserSessions(user.ID, "")
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		return nil, fmt.Errorf("login: invalidate prior sessions: %w", err)
	}
	if invalidated > 0 {
		metrics.SessionsInvalidated.WithLabelValues("login").Add(float64(invalidated))
		s.log.Info("prior sessions invalidated",
			zap.String("username", user.Username),
			zap.Int("count", invalidated))
	}

	// Blacklisting is defence in depth on top of the ActiveToken replacement;
	// a failure here must not abort the login.
	blacklisted, err := s.tokens.BlacklistOutstanding(user.ID)
	if err != nil {
		s.log.Warn("token blacklisting failed during login",
			zap.String("username", user.Username),
			zap.Error(err))
	}

	pair, err := s.jwt.IssuePair(user.ID)
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		return nil, fmt.Errorf("login: issue token pair: %w", err)
	}

	session, err := s.sessions.Create(user.ID, input.Meta)
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		return nil, fmt.Errorf("login: create session: %w", err)
	}

	if err := s.tokens.RecordOutstanding(user.ID, pair.Refresh.TokenID, pair.Refresh.ExpiresAt); err != nil {
		s.log.Warn("recording outstanding refresh token failed",
			zap.String("username", user.Username),
			zap.Error(err))
	}

	if err := s.tokens.SetActive(user.ID, pair.Access.TokenID, input.Meta); err != nil {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		return nil, fmt.Errorf("login: record active token: %w", err)
	}

	now := time.Now()
	if err := s.db.Model(&user).Updates(map[string]any{
		"last_login_at": now,
		"last_login_ip": input.Meta.IPAddress,
	}).Error; err != nil {
		s.log.Warn("updating last login failed", zap.Error(err))
	}

	metrics.AuthAttempts.WithLabelValues("success").Inc()
	s.log.Info("login succeeded",
		zap.String("username", user.Username),
		zap.String("ip", input.Meta.IPAddress),
		zap.Int("sessions_invalidated", invalidated))

	return &LoginResult{
		User:                user,
		Tokens:              pair,
		SessionKey:          session.SessionKey,
		SessionTTL:          s.sessions.TTL(),
		InvalidatedSessions: invalidated,
		BlacklistedTokens:   blacklisted,
	}, nil
}

func (s *LoginService) authenticate(username, password string) (models.User, error) {
	identity := strings.TrimSpace(username)
	if identity == "" || password == "" {
		return models.User{}, ErrBadCredentials
	}

	var user models.User
	err := s.db.Where("LOWER(username) = LOWER(?)", identity).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, ErrBadCredentials
	}
	if err != nil {
		return models.User{}, fmt.Errorf("login: query user: %w", err)
	}

	if !crypto.VerifyPassword(user.Password, password) {
		return models.User{}, ErrBadCredentials
	}

	if !user.IsActive {
		return models.User{}, ErrAccountDisabled
	}

	return user, nil
}

// Refresh validates the refresh token, checks the blacklist, and issues a new
// access token. The ActiveToken row is re-pointed at the new JTI so that the
// refreshed client does not trip the single-session check on its next request.
func (s *LoginService) Refresh(refreshToken string, meta ClientMeta) (IssuedToken, error) {
	claims, err := s.jwt.ValidateRefreshToken(refreshToken)
	if err != nil {
		return IssuedToken{}, fmt.Errorf("refresh: %w", err)
	}

	revoked, err := s.tokens.IsBlacklisted(claims.ID)
	if err != nil {
		return IssuedToken{}, fmt.Errorf("refresh: check blacklist: %w", err)
	}
	if revoked {
		return IssuedToken{}, ErrRefreshRevoked
	}

	access, err := s.jwt.IssueAccessToken(claims.UserID)
	if err != nil {
		return IssuedToken{}, fmt.Errorf("refresh: issue access token: %w", err)
	}

	if err := s.tokens.SetActive(claims.UserID, access.TokenID, meta); err != nil {
		return IssuedToken{}, fmt.Errorf("refresh: record active token: %w", err)
	}

	return access, nil
}

// Logout revokes the presented credentials best-effort: the refresh token is
// blacklisted, the active-token row dropped, and the cookie session deleted.
// Failures are logged and swallowed; the client is walking away regardless.
func (s *LoginService) Logout(userID, refreshToken, sessionKey string) {
	if refreshToken != "" {
		if claims, err := s.jwt.ValidateRefreshToken(refreshToken); err == nil {
			if err := s.tokens.BlacklistToken(claims.ID); err != nil {
				s.log.Warn("blacklisting refresh token on logout failed", zap.Error(err))
			}
		} else {
			s.log.Warn("malformed refresh token on logout", zap.Error(err))
		}
	}

	var revoked bool

	if userID != "" {
		existed, err := s.tokens.InvalidateActive(userID)
		if err != nil {
			s.log.Warn("invalidating active token on logout failed", zap.Error(err))
		}
		revoked = revoked || existed
	}

	if sessionKey != "" {
		existed, err := s.sessions.Delete(sessionKey)
		if err != nil {
			s.log.Warn("deleting session on logout failed", zap.Error(err))
		}
		revoked = revoked || existed
	}

	// Logouts that presented nothing live, or nothing at all, do not count.
	if revoked {
		metrics.SessionsInvalidated.WithLabelValues("logout").Inc()
	}
}

// ForceInvalidate revokes every credential of the user on both channels
// (admin action). Returns the session and token counts for observability.
func (s *LoginService) ForceInvalidate(userID string) (sessionsInvalidated, tokensBlacklisted int, err error) {
	sessionsInvalidated, err = s.sessions.InvalidateUserSessions(userID, "")
	if err != nil {
		return 0, 0, err
	}

	if _, err := s.tokens.InvalidateActive(userID); err != nil {
		return sessionsInvalidated, 0, err
	}

	tokensBlacklisted, err = s.tokens.BlacklistOutstanding(userID)
	if err != nil {
		s.log.Warn("token blacklisting failed during forced invalidation",
			zap.String("user_id", userID),
			zap.Error(err))
		err = nil
	}

	if sessionsInvalidated > 0 {
		metrics.SessionsInvalidated.WithLabelValues("admin").Add(float64(sessionsInvalidated))
	}

	return sessionsInvalidated, tokensBlacklisted, nil
}
