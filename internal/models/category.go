package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Category groups videos on the dashboard.
type Category struct {
	ID          string    `gorm:"primaryKey;type:uuid" json:"id"`
	Name        string    `gorm:"uniqueIndex;not null;size:100" json:"name"`
	Description string    `json:"description"`
	Order       int       `gorm:"column:sort_order;default:0" json:"order"`
	Videos      []Video   `gorm:"foreignKey:CategoryID" json:"videos,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// BeforeCreate ensures a UUID is present before persisting.
func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
