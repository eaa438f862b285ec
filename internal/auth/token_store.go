package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/openedu/videovault/internal/cache"
	"github.com/openedu/videovault/internal/models"
)

const (
	activeTokenCachePrefix = "auth:active:"
	activeTokenCacheTTL    = 5 * time.Minute
)

// ClientMeta captures contextual information about the client performing a login.
type ClientMeta struct {
	IPAddress string
	UserAgent string
}

// TokenStoreConfig describes tunable behaviour for the TokenStore.
type TokenStoreConfig struct {
	Cache cache.Store
	Clock func() time.Time
}

// TokenStore owns the ActiveToken table (which JTI is "the" token for a user)
// and the outstanding/blacklist ledger backing forced revocation.
type TokenStore struct {
	db    *gorm.DB
	cache cache.Store
	now   func() time.Time
}

// NewTokenStore constructs a TokenStore backed by the provided database.
func NewTokenStore(db *gorm.DB, cfg TokenStoreConfig) (*TokenStore, error) {
	if db == nil {
		return nil, errors.New("token store: db is required")
	}

	clock := time.Now
	if cfg.Clock != nil {
		clock = cfg.Clock
	}

	return &TokenStore{
		db:    db,
		cache: cfg.Cache,
		now:   clock,
	}, nil
}

// SetActive records tokenID as the single honoured JTI for the user,
// replacing whatever was there before (upsert keyed on user_id).
func (s *TokenStore) SetActive(userID, tokenID string, meta ClientMeta) error {
	if userID == "" || tokenID == "" {
		return errors.New("token store: user id and token id are required")
	}

	record := models.ActiveToken{
		UserID:    userID,
		TokenID:   tokenID,
		IssuedAt:  s.now(),
		IPAddress: meta.IPAddress,
		UserAgent: models.TruncateUserAgent(meta.UserAgent),
	}

	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"token_id", "issued_at", "ip_address", "user_agent"}),
	}).Create(&record).Error
	if err != nil {
		return fmt.Errorf("token store: set active token: %w", err)
	}

	if s.cache != nil {
		_ = s.cache.Set(context.Background(), activeTokenCachePrefix+userID, []byte(tokenID), activeTokenCacheTTL)
	}

	return nil
}

// IsActive reports whether tokenID is the currently honoured JTI for the user.
// A missing row means no token is active, which is a mismatch, not an error.
func (s *TokenStore) IsActive(userID, tokenID string) (bool, error) {
	if userID == "" || tokenID == "" {
		return false, nil
	}

	if s.cache != nil {
		if cached, found, err := s.cache.Get(context.Background(), activeTokenCachePrefix+userID); err == nil && found {
			return string(cached) == tokenID, nil
		}
	}

	var record models.ActiveToken
	err := s.db.Take(&record, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("token store: load active token: %w", err)
	}

	if s.cache != nil {
		_ = s.cache.Set(context.Background(), activeTokenCachePrefix+userID, []byte(record.TokenID), activeTokenCacheTTL)
	}

	return record.TokenID == tokenID, nil
}

// InvalidateActive deletes the user's active-token row. Returns whether a row existed.
func (s *TokenStore) InvalidateActive(userID string) (bool, error) {
	if userID == "" {
		return false, nil
	}

	result := s.db.Delete(&models.ActiveToken{}, "user_id = ?", userID)
	if result.Error != nil {
		return false, fmt.Errorf("token store: invalidate active token: %w", result.Error)
	}

	if s.cache != nil {
		_ = s.cache.Delete(context.Background(), activeTokenCachePrefix+userID)
	}

	return result.RowsAffected > 0, nil
}

// RecordOutstanding adds an issued refresh token to the ledger so it can be
// blacklisted later.
func (s *TokenStore) RecordOutstanding(userID, tokenID string, expiresAt time.Time) error {
	if userID == "" || tokenID == "" {
		return errors.New("token store: user id and token id are required")
	}

	record := models.OutstandingToken{
		UserID:    userID,
		TokenID:   tokenID,
		ExpiresAt: expiresAt,
	}
	if err := s.db.Create(&record).Error; err != nil {
		return fmt.Errorf("token store: record outstanding token: %w", err)
	}
	return nil
}

// BlacklistOutstanding blacklists every outstanding token of the user that is
// not already blacklisted. Idempotent; returns the count newly blacklisted.
func (s *TokenStore) BlacklistOutstanding(userID string) (int, error) {
	if userID == "" {
		return 0, nil
	}

	var ids []string
	err := s.db.Model(&models.OutstandingToken{}).
		Where("user_id = ?", userID).
		Where("id NOT IN (?)", s.db.Model(&models.BlacklistedToken{}).Select("outstanding_token_id")).
		Pluck("id", &ids).Error
	if err != nil {
		return 0, fmt.Errorf("token store: list outstanding tokens: %w", err)
	}

	blacklisted := 0
	for _, id := range ids {
		result := s.db.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.BlacklistedToken{OutstandingTokenID: id})
		if result.Error != nil {
			return blacklisted, fmt.Errorf("token store: blacklist token: %w", result.Error)
		}
		blacklisted += int(result.RowsAffected)
	}

	return blacklisted, nil
}

// BlacklistToken blacklists a single refresh token by JTI. Unknown JTIs are a
// no-op so that logout stays best-effort.
func (s *TokenStore) BlacklistToken(tokenID string) error {
	if tokenID == "" {
		return nil
	}

	var outstanding models.OutstandingToken
	err := s.db.Take(&outstanding, "token_id = ?", tokenID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("token store: find outstanding token: %w", err)
	}

	result := s.db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.BlacklistedToken{OutstandingTokenID: outstanding.ID})
	if result.Error != nil {
		return fmt.Errorf("token store: blacklist token: %w", result.Error)
	}
	return nil
}

// IsBlacklisted reports whether the refresh token JTI has been revoked.
func (s *TokenStore) IsBlacklisted(tokenID string) (bool, error) {
	if tokenID == "" {
		return false, nil
	}

	var count int64
	err := s.db.Model(&models.BlacklistedToken{}).
		Joins("JOIN outstanding_tokens ON outstanding_tokens.id = blacklisted_tokens.outstanding_token_id").
		Where("outstanding_tokens.token_id = ?", tokenID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("token store: check blacklist: %w", err)
	}

	return count > 0, nil
}

// HasActive reports whether the user currently has an active-token row.
func (s *TokenStore) HasActive(userID string) (bool, error) {
	var count int64
	err := s.db.Model(&models.ActiveToken{}).Where("user_id = ?", userID).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("token store: count active tokens: %w", err)
	}
	return count > 0, nil
}

// SweepExpired removes ledger rows whose tokens expired on their own. The
// blacklist rows cascade with them.
func (s *TokenStore) SweepExpired(ctx context.Context) (int64, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	result := s.db.WithContext(ctx).
		Where("expires_at < ?", s.now()).
		Delete(&models.OutstandingToken{})
	if result.Error != nil {
		return 0, fmt.Errorf("token store: sweep expired tokens: %w", result.Error)
	}

	return result.RowsAffected, nil
}
