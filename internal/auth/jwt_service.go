package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Default token lifetimes, overridable through JWTConfig.
const (
	DefaultAccessTokenTTL  = 30 * time.Minute
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// Token type claim values.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// JWTConfig bundles the configuration required to build a JWTService.
type JWTConfig struct {
	Secret          string
	Issuer          string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	Clock           func() time.Time
}

// Claims represents the custom claims embedded in issued JWTs. The registered
// ID claim (JTI) is the credential identifier the single-session check keys on.
type Claims struct {
	UserID    string `json:"uid"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

// IssuedToken pairs a signed token string with its identifying claims.
type IssuedToken struct {
	Token     string
	TokenID   string
	ExpiresAt time.Time
}

// TokenPair is the access/refresh pair returned from a successful login.
type TokenPair struct {
	Access  IssuedToken
	Refresh IssuedToken
}

// JWTService issues and validates the stateless-token credential channel.
type JWTService struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewJWTService constructs a JWTService instance when provided with the required configuration.
func NewJWTService(cfg JWTConfig) (*JWTService, error) {
	if cfg.Secret == "" {
		return nil, errors.New("jwt: secret must be provided")
	}

	accessTTL := cfg.AccessTokenTTL
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTokenTTL
	}

	refreshTTL := cfg.RefreshTokenTTL
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTokenTTL
	}

	now := time.Now
	if cfg.Clock != nil {
		now = cfg.Clock
	}

	return &JWTService{
		secret:     []byte(cfg.Secret),
		issuer:     cfg.Issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        now,
	}, nil
}

// IssueAccessToken signs a fresh access token with a new JTI.
func (s *JWTService) IssueAccessToken(userID string) (IssuedToken, error) {
	return s.issue(userID, TokenTypeAccess, s.accessTTL)
}

// IssueRefreshToken signs a fresh refresh token with a new JTI.
func (s *JWTService) IssueRefreshToken(userID string) (IssuedToken, error) {
	return s.issue(userID, TokenTypeRefresh, s.refreshTTL)
}

// IssuePair signs a new access/refresh token pair for the user.
func (s *JWTService) IssuePair(userID string) (TokenPair, error) {
	access, err := s.IssueAccessToken(userID)
	if err != nil {
		return TokenPair{}, err
	}

	refresh, err := s.IssueRefreshToken(userID)
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{Access: access, Refresh: refresh}, nil
}

func (s *JWTService) issue(userID, tokenType string, ttl time.Duration) (IssuedToken, error) {
	if userID == "" {
		return IssuedToken{}, errors.New("jwt: user id is required")
	}

	now := s.now()
	expiresAt := now.Add(ttl)

	claims := &Claims{
		UserID:    userID,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			Issuer:    s.issuer,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return IssuedToken{}, fmt.Errorf("jwt: sign token: %w", err)
	}

	return IssuedToken{Token: signed, TokenID: claims.ID, ExpiresAt: expiresAt}, nil
}

// ValidateAccessToken parses and validates a signed access token.
func (s *JWTService) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.validate(tokenString, TokenTypeAccess)
}

// ValidateRefreshToken parses and validates a signed refresh token.
func (s *JWTService) ValidateRefreshToken(tokenString string) (*Claims, error) {
	return s.validate(tokenString, TokenTypeRefresh)
}

func (s *JWTService) validate(tokenString, tokenType string) (*Claims, error) {
	if tokenString == "" {
		return nil, errors.New("jwt: token string is empty")
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)

	var claims Claims
	_, err := parser.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("jwt: parse token: %w", err)
	}

	if s.issuer != "" && claims.Issuer != s.issuer {
		return nil, errors.New("jwt: invalid issuer")
	}

	if claims.UserID == "" {
		return nil, errors.New("jwt: missing user id claim")
	}

	if claims.TokenType != tokenType {
		return nil, fmt.Errorf("jwt: token type %q is not %q", claims.TokenType, tokenType)
	}

	if claims.ID == "" {
		return nil, errors.New("jwt: missing token id claim")
	}

	return &claims, nil
}
