package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OutstandingToken tracks every refresh token ever issued to a user, keyed by
// its JTI. A refresh token stays cryptographically valid until its own expiry,
// so rejecting it after a forced logout requires this ledger plus the
// blacklist below (defense in depth on top of the ActiveToken replacement).
type OutstandingToken struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	UserID    string    `gorm:"type:uuid;not null;index" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	TokenID   string    `gorm:"uniqueIndex;not null" json:"token_id"`
	ExpiresAt time.Time `gorm:"index" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// BeforeCreate ensures a UUID is present before persisting.
func (t *OutstandingToken) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// BlacklistedToken marks an outstanding refresh token as revoked. Inserting an
// already-blacklisted token is a no-op, never an error.
type BlacklistedToken struct {
	OutstandingTokenID string            `gorm:"primaryKey;type:uuid" json:"outstanding_token_id"`
	OutstandingToken   *OutstandingToken `gorm:"foreignKey:OutstandingTokenID;constraint:OnDelete:CASCADE" json:"-"`
	BlacklistedAt      time.Time         `gorm:"autoCreateTime" json:"blacklisted_at"`
}
