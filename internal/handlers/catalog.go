package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/openedu/videovault/internal/models"
	appErrors "github.com/openedu/videovault/pkg/errors"
	"github.com/openedu/videovault/pkg/response"
)

// CatalogHandler serves the viewer-facing video catalog. Everything here is
// read-only and limited to published videos; mutation lives on the admin side.
type CatalogHandler struct {
	db *gorm.DB
}

func NewCatalogHandler(db *gorm.DB) *CatalogHandler {
	return &CatalogHandler{db: db}
}

// GET /api/categories
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	var categories []models.Category
	if err := h.db.Order("sort_order ASC, name ASC").Find(&categories).Error; err != nil {
		response.Error(c, appErrors.Wrap(err, "list categories"))
		return
	}

	items := make([]gin.H, 0, len(categories))
	for _, cat := range categories {
		var count int64
		if err := h.db.Model(&models.Video{}).
			Where("category_id = ? AND is_published = ?", cat.ID, true).
			Count(&count).Error; err != nil {
			response.Error(c, appErrors.Wrap(err, "count videos"))
			return
		}
		items = append(items, gin.H{
			"id":          cat.ID,
			"name":        cat.Name,
			"description": cat.Description,
			"order":       cat.Order,
			"video_count": count,
		})
	}

	response.SuccessWithMeta(c, http.StatusOK, items, &response.Meta{Count: len(items)})
}

// GET /api/videos
func (h *CatalogHandler) ListVideos(c *gin.Context) {
	query := h.db.Where("is_published = ?", true)
	if categoryID := c.Query("category"); categoryID != "" {
		query = query.Where("category_id = ?", categoryID)
	}

	var videos []models.Video
	if err := query.Order("sort_order ASC, created_at DESC").Find(&videos).Error; err != nil {
		response.Error(c, appErrors.Wrap(err, "list videos"))
		return
	}

	items := make([]gin.H, 0, len(videos))
	for i := range videos {
		items = append(items, videoPayload(&videos[i]))
	}

	response.SuccessWithMeta(c, http.StatusOK, items, &response.Meta{Count: len(items)})
}

// GET /api/videos/:id
func (h *CatalogHandler) GetVideo(c *gin.Context) {
	var video models.Video
	err := h.db.Preload("Category").
		Where("is_published = ?", true).
		Take(&video, "id = ?", c.Param("id")).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		response.Error(c, appErrors.ErrNotFound)
		return
	}
	if err != nil {
		response.Error(c, appErrors.Wrap(err, "load video"))
		return
	}

	payload := videoPayload(&video)
	payload["description"] = video.Description
	if video.Category != nil {
		payload["category"] = gin.H{"id": video.Category.ID, "name": video.Category.Name}
	}

	response.Success(c, http.StatusOK, payload)
}

// GET /api/dashboard
//
// One round-trip payload for the landing page: every category with its
// published videos, plus the uncategorised remainder.
func (h *CatalogHandler) Dashboard(c *gin.Context) {
	var categories []models.Category
	err := h.db.Order("sort_order ASC, name ASC").
		Preload("Videos", func(db *gorm.DB) *gorm.DB {
			return db.Where("is_published = ?", true).Order("sort_order ASC, created_at DESC")
		}).
		Find(&categories).Error
	if err != nil {
		response.Error(c, appErrors.Wrap(err, "load dashboard"))
		return
	}

	groups := make([]gin.H, 0, len(categories)+1)
	for _, cat := range categories {
		videos := make([]gin.H, 0, len(cat.Videos))
		for i := range cat.Videos {
			videos = append(videos, videoPayload(&cat.Videos[i]))
		}
		groups = append(groups, gin.H{
			"id":     cat.ID,
			"name":   cat.Name,
			"videos": videos,
		})
	}

	var orphans []models.Video
	err = h.db.Where("category_id IS NULL AND is_published = ?", true).
		Order("sort_order ASC, created_at DESC").
		Find(&orphans).Error
	if err != nil {
		response.Error(c, appErrors.Wrap(err, "load uncategorised videos"))
		return
	}
	if len(orphans) > 0 {
		videos := make([]gin.H, 0, len(orphans))
		for i := range orphans {
			videos = append(videos, videoPayload(&orphans[i]))
		}
		groups = append(groups, gin.H{"id": nil, "name": "Uncategorised", "videos": videos})
	}

	response.Success(c, http.StatusOK, gin.H{"categories": groups})
}

func videoPayload(video *models.Video) gin.H {
	return gin.H{
		"id":            video.ID,
		"title":         video.Title,
		"category_id":   video.CategoryID,
		"order":         video.Order,
		"youtube_id":    video.YouTubeID(),
		"embed_url":     video.EmbedURL(),
		"thumbnail_url": video.ThumbnailURL(),
		"created_at":    video.CreatedAt,
	}
}
