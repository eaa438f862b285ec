package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/openedu/videovault/internal/models"
	"github.com/openedu/videovault/pkg/crypto"
	"github.com/openedu/videovault/pkg/metrics"
)

// DefaultSessionTTL is the fallback cookie-session lifetime.
const DefaultSessionTTL = 24 * time.Hour

const sessionKeyLength = 32

var (
	// ErrSessionNotFound indicates that no session record matches the provided key.
	ErrSessionNotFound = errors.New("session: not found")
	// ErrSessionExpired signals that the session record outlived its expiry.
	ErrSessionExpired = errors.New("session: expired")
)

// SessionConfig describes tunable behaviour for the SessionStore.
type SessionConfig struct {
	TTL   time.Duration
	Clock func() time.Time
}

// SessionStore manages the cookie-session channel: the underlying session
// records, the per-user tracking rows, and the invalidation that keeps a user
// down to one session.
type SessionStore struct {
	db  *gorm.DB
	ttl time.Duration
	now func() time.Time
}

// NewSessionStore constructs a session manager backed by the provided database.
func NewSessionStore(db *gorm.DB, cfg SessionConfig) (*SessionStore, error) {
	if db == nil {
		return nil, errors.New("session store: db is required")
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}

	clock := time.Now
	if cfg.Clock != nil {
		clock = cfg.Clock
	}

	return &SessionStore{db: db, ttl: ttl, now: clock}, nil
}

// TTL exposes the configured session lifetime (used for the cookie max-age).
func (s *SessionStore) TTL() time.Duration {
	return s.ttl
}

// Create mints a new session record plus its tracking row and returns the
// opaque key destined for the cookie.
func (s *SessionStore) Create(userID string, meta ClientMeta) (*models.UserSession, error) {
	if userID == "" {
		return nil, errors.New("session store: user id is required")
	}

	key, err := crypto.GenerateToken(sessionKeyLength)
	if err != nil {
		return nil, fmt.Errorf("session store: generate session key: %w", err)
	}

	now := s.now()
	record := models.SessionRecord{
		Key:       key,
		UserID:    userID,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.db.Create(&record).Error; err != nil {
		return nil, fmt.Errorf("session store: create session record: %w", err)
	}

	tracking := models.UserSession{
		UserID:     userID,
		SessionKey: key,
		IPAddress:  meta.IPAddress,
		UserAgent:  models.TruncateUserAgent(meta.UserAgent),
	}
	if err := s.db.Create(&tracking).Error; err != nil {
		return nil, fmt.Errorf("session store: create tracking row: %w", err)
	}

	metrics.ActiveSessions.Inc()

	tracking.Session = &record
	return &tracking, nil
}

// Resolve loads the session record for a cookie key, enforcing expiry.
func (s *SessionStore) Resolve(key string) (*models.SessionRecord, error) {
	if key == "" {
		return nil, ErrSessionNotFound
	}

	var record models.SessionRecord
	err := s.db.Take(&record, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("session store: load session record: %w", err)
	}

	if record.ExpiresAt.Before(s.now()) {
		return nil, ErrSessionExpired
	}

	return &record, nil
}

// IsTracked reports whether a tracking row pairs this user with this exact
// session key. This is the single-session check for the cookie channel.
func (s *SessionStore) IsTracked(userID, key string) (bool, error) {
	if userID == "" || key == "" {
		return false, nil
	}

	var count int64
	err := s.db.Model(&models.UserSession{}).
		Where("user_id = ? AND session_key = ?", userID, key).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("session store: check tracking row: %w", err)
	}

	return count > 0, nil
}

// InvalidateUserSessions deletes every session belonging to the user except
// the one matching excludeKey (empty means invalidate unconditionally). The
// underlying session record is removed first; a record already gone (raced
// with independent expiry) is a no-op. Returns the number invalidated.
func (s *SessionStore) InvalidateUserSessions(userID, excludeKey string) (int, error) {
	if userID == "" {
		return 0, nil
	}

	query := s.db.Where("user_id = ?", userID)
	if excludeKey != "" {
		query = query.Where("session_key <> ?", excludeKey)
	}

	var sessions []models.UserSession
	if err := query.Find(&sessions).Error; err != nil {
		return 0, fmt.Errorf("session store: list user sessions: %w", err)
	}

	count := 0
	for _, session := range sessions {
		result := s.db.Delete(&models.SessionRecord{}, "key = ?", session.SessionKey)
		if result.Error != nil {
			return count, fmt.Errorf("session store: delete session record: %w", result.Error)
		}
		if result.RowsAffected > 0 {
			count++
		}
		// The tracking row cascades with the record; remove it explicitly in
		// case the record had already expired away underneath it.
		if err := s.db.Delete(&models.UserSession{}, "id = ?", session.ID).Error; err != nil {
			return count, fmt.Errorf("session store: delete tracking row: %w", err)
		}
	}

	if count > 0 {
		metrics.ActiveSessions.Sub(float64(count))
	}

	return count, nil
}

// Delete removes a single session by key (logout). Missing keys are a no-op.
// The bool reports whether a session record actually existed.
func (s *SessionStore) Delete(key string) (bool, error) {
	if key == "" {
		return false, nil
	}

	if err := s.db.Delete(&models.UserSession{}, "session_key = ?", key).Error; err != nil {
		return false, fmt.Errorf("session store: delete tracking row: %w", err)
	}

	result := s.db.Delete(&models.SessionRecord{}, "key = ?", key)
	if result.Error != nil {
		return false, fmt.Errorf("session store: delete session record: %w", result.Error)
	}

	if result.RowsAffected > 0 {
		metrics.ActiveSessions.Sub(float64(result.RowsAffected))
	}

	return result.RowsAffected > 0, nil
}

// ListForUser returns the user's tracking rows, newest first.
func (s *SessionStore) ListForUser(userID string) ([]models.UserSession, error) {
	var sessions []models.UserSession
	err := s.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("session store: list sessions: %w", err)
	}
	return sessions, nil
}

// CountActive returns the number of tracked sessions across all users.
func (s *SessionStore) CountActive() (int64, error) {
	var count int64
	err := s.db.Model(&models.UserSession{}).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("session store: count sessions: %w", err)
	}
	return count, nil
}

// SweepExpired deletes session records whose expiry is strictly in the past,
// along with their tracking rows. Safe to run concurrently with logins: an
// expired record is never the session of a user mid-login.
func (s *SessionStore) SweepExpired(ctx context.Context) (int64, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	now := s.now()

	var keys []string
	err := s.db.WithContext(ctx).
		Model(&models.SessionRecord{}).
		Where("expires_at < ?", now).
		Pluck("key", &keys).Error
	if err != nil {
		return 0, fmt.Errorf("session store: list expired sessions: %w", err)
	}
	if len(keys) == 0 {
		return 0, nil
	}

	if err := s.db.WithContext(ctx).
		Delete(&models.UserSession{}, "session_key IN ?", keys).Error; err != nil {
		return 0, fmt.Errorf("session store: sweep tracking rows: %w", err)
	}

	result := s.db.WithContext(ctx).
		Delete(&models.SessionRecord{}, "key IN ?", keys)
	if result.Error != nil {
		return 0, fmt.Errorf("session store: sweep session records: %w", result.Error)
	}

	if result.RowsAffected > 0 {
		metrics.ActiveSessions.Sub(float64(result.RowsAffected))
		metrics.SessionsInvalidated.WithLabelValues("sweep").Add(float64(result.RowsAffected))
	}

	return result.RowsAffected, nil
}
