package models

import (
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// youtubePatterns matches the accepted YouTube URL shapes and captures the video ID.
var youtubePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(?:https?://)?(?:www\.)?youtube\.com/watch\?v=([\w-]+)`),
	regexp.MustCompile(`^(?:https?://)?(?:www\.)?youtu\.be/([\w-]+)`),
	regexp.MustCompile(`^(?:https?://)?(?:www\.)?youtube\.com/embed/([\w-]+)`),
}

// Video holds metadata for a YouTube-hosted video. Only metadata lives here;
// the media itself stays on YouTube as an unlisted upload.
type Video struct {
	ID          string    `gorm:"primaryKey;type:uuid" json:"id"`
	Title       string    `gorm:"not null;size:200" json:"title"`
	Description string    `json:"description"`
	YouTubeURL  string    `gorm:"not null;size:500" json:"youtube_url"`
	CategoryID  *string   `gorm:"type:uuid;index" json:"category_id"`
	Category    *Category `gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL" json:"category,omitempty"`
	Order       int       `gorm:"column:sort_order;default:0" json:"order"`
	IsPublished bool      `gorm:"default:true" json:"is_published"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BeforeCreate ensures a UUID is present before persisting.
func (v *Video) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	return nil
}

// IsYouTubeURL reports whether the value is an accepted YouTube URL
// (watch?v=..., youtu.be/... or embed/... forms).
func IsYouTubeURL(value string) bool {
	for _, pattern := range youtubePatterns {
		if pattern.MatchString(value) {
			return true
		}
	}
	return false
}

// YouTubeID extracts the video identifier from the stored URL, or "" when the
// URL does not match any accepted form.
func (v *Video) YouTubeID() string {
	for _, pattern := range youtubePatterns {
		if m := pattern.FindStringSubmatch(v.YouTubeURL); m != nil {
			return m[1]
		}
	}
	return ""
}

// EmbedURL returns the privacy-friendly embed URL for players.
func (v *Video) EmbedURL() string {
	id := v.YouTubeID()
	if id == "" {
		return ""
	}
	return fmt.Sprintf("https://www.youtube-nocookie.com/embed/%s", id)
}

// ThumbnailURL returns the medium-quality thumbnail for the stored video.
func (v *Video) ThumbnailURL() string {
	id := v.YouTubeID()
	if id == "" {
		return ""
	}
	return fmt.Sprintf("https://img.youtube.com/vi/%s/mqdefault.jpg", id)
}
