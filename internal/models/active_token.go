package models

import "time"

// MaxUserAgentLength bounds the stored user agent string.
const MaxUserAgentLength = 500

// ActiveToken records the single JWT identifier (JTI) currently honoured for a
// user. One row per user, replaced on every login: this row is what makes a
// freshly issued token "the" token and everything older stale.
type ActiveToken struct {
	UserID    string    `gorm:"primaryKey;type:uuid" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	TokenID   string    `gorm:"not null" json:"token_id"`
	IssuedAt  time.Time `gorm:"autoUpdateTime" json:"issued_at"`
	IPAddress string    `json:"ip_address"`
	UserAgent string    `gorm:"size:500" json:"user_agent"`
}

// TruncateUserAgent trims a raw User-Agent header to the persisted bound.
func TruncateUserAgent(ua string) string {
	if len(ua) > MaxUserAgentLength {
		return ua[:MaxUserAgentLength]
	}
	return ua
}
