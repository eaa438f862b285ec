package cache

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/openedu/videovault/internal/models"
)

// DatabaseStore keeps cache entries in the primary SQL database. It is the
// fallback when no Redis endpoint is configured, so single-node deployments
// still get the active-token read-through cache.
type DatabaseStore struct {
	db *gorm.DB
}

// NewDatabaseStore constructs a database-backed Store.
func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	if db == nil {
		return nil
	}
	return &DatabaseStore{db: db}
}

func (s *DatabaseStore) guard(ctx context.Context) (context.Context, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("cache: database store not initialised")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return ctx, nil
}

// Set upserts the value for a given key. A non-positive ttl stores the entry
// without expiry.
func (s *DatabaseStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	ctx, err := s.guard(ctx)
	if err != nil {
		return err
	}

	entry := models.CacheEntry{Key: key, Value: value}
	if ttl > 0 {
		entry.ExpiresAt = time.Now().Add(ttl)
	}

	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "expires_at", "updated_at"}),
		}).Create(&entry).Error
}

// Get retrieves a value by key. Expired entries are reaped on read and
// reported as a miss.
func (s *DatabaseStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	ctx, err := s.guard(ctx)
	if err != nil {
		return nil, false, err
	}

	var entry models.CacheEntry
	err = s.db.WithContext(ctx).Take(&entry, "key = ?", key).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, false, nil
	case err != nil:
		return nil, false, err
	}

	if !entry.ExpiresAt.IsZero() && time.Now().After(entry.ExpiresAt) {
		_ = s.Delete(ctx, key)
		return nil, false, nil
	}

	return entry.Value, true, nil
}

// Delete removes keys from the store.
func (s *DatabaseStore) Delete(ctx context.Context, keys ...string) error {
	ctx, err := s.guard(ctx)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}

	return s.db.WithContext(ctx).Where("key IN ?", keys).Delete(&models.CacheEntry{}).Error
}
