package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SessionRecord is the underlying cookie-session store entry. The opaque key
// travels in the browser cookie; expiry is enforced here, not on the tracking
// row that points at it.
type SessionRecord struct {
	Key       string    `gorm:"primaryKey" json:"key"`
	UserID    string    `gorm:"type:uuid;not null;index" json:"user_id"`
	ExpiresAt time.Time `gorm:"index" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// UserSession pairs a user with their one valid SessionRecord. Uniqueness per
// user is procedural (every login invalidates prior rows before creating a new
// one); the database constraint is only on the session key pairing, so a
// transient overlap during the invalidate-then-create window is tolerated.
type UserSession struct {
	ID         string         `gorm:"primaryKey;type:uuid" json:"id"`
	UserID     string         `gorm:"type:uuid;not null;index" json:"user_id"`
	User       *User          `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	SessionKey string         `gorm:"uniqueIndex;not null" json:"-"`
	Session    *SessionRecord `gorm:"foreignKey:SessionKey;references:Key;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt  time.Time      `json:"created_at"`
	IPAddress  string         `json:"ip_address"`
	UserAgent  string         `gorm:"size:500" json:"user_agent"`
}

// BeforeCreate ensures a UUID is present before persisting.
func (s *UserSession) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}
