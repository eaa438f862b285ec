package database

import (
	"errors"
	"os"
	"strings"

	"gorm.io/gorm"

	"github.com/openedu/videovault/internal/models"
	"github.com/openedu/videovault/pkg/crypto"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.SessionRecord{},
		&models.UserSession{},
		&models.ActiveToken{},
		&models.OutstandingToken{},
		&models.BlacklistedToken{},
		&models.Category{},
		&models.Video{},
		&models.CacheEntry{},
	)
}

// SeedData provisions the initial administrator account when the users table
// is empty. Credentials come from VIDEOVAULT_ADMIN_USERNAME /
// VIDEOVAULT_ADMIN_PASSWORD; seeding is skipped when the password is unset.
func SeedData(db *gorm.DB) error {
	if db == nil {
		return errors.New("nil database handle")
	}

	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	password := strings.TrimSpace(os.Getenv("VIDEOVAULT_ADMIN_PASSWORD"))
	if password == "" {
		return nil
	}

	username := strings.TrimSpace(os.Getenv("VIDEOVAULT_ADMIN_USERNAME"))
	if username == "" {
		username = "admin"
	}

	hash, err := crypto.HashPassword(password)
	if err != nil {
		return err
	}

	admin := models.User{
		Username: username,
		Password: hash,
		IsAdmin:  true,
		IsActive: true,
	}
	return db.Create(&admin).Error
}
