package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	iauth "github.com/openedu/videovault/internal/auth"
	"github.com/openedu/videovault/internal/middleware"
	"github.com/openedu/videovault/internal/models"
	"github.com/openedu/videovault/pkg/crypto"
	appErrors "github.com/openedu/videovault/pkg/errors"
	"github.com/openedu/videovault/pkg/response"
)

// AdminHandler owns the management surface: user accounts, the catalog
// behind the viewer API, and forced credential invalidation.
type AdminHandler struct {
	db    *gorm.DB
	login *iauth.LoginService
}

func NewAdminHandler(db *gorm.DB, login *iauth.LoginService) *AdminHandler {
	return &AdminHandler{db: db, login: login}
}

// ---- users ----

type createUserRequest struct {
	Username  string `json:"username" validate:"required,min=3,max=150"`
	Password  string `json:"password" validate:"required,min=8"`
	Email     string `json:"email" validate:"omitempty,email"`
	FirstName string `json:"first_name" validate:"max=150"`
	LastName  string `json:"last_name" validate:"max=150"`
	IsAdmin   bool   `json:"is_admin"`
}

type updateUserRequest struct {
	Password  *string `json:"password" validate:"omitempty,min=8"`
	Email     *string `json:"email" validate:"omitempty,email"`
	FirstName *string `json:"first_name" validate:"omitempty,max=150"`
	LastName  *string `json:"last_name" validate:"omitempty,max=150"`
	IsAdmin   *bool   `json:"is_admin"`
	IsActive  *bool   `json:"is_active"`
}

// GET /api/admin/users
func (h *AdminHandler) ListUsers(c *gin.Context) {
	var users []models.User
	if err := h.db.Order("username ASC").Find(&users).Error; err != nil {
		response.Error(c, appErrors.Wrap(err, "list users"))
		return
	}

	items := make([]gin.H, 0, len(users))
	for _, user := range users {
		items = append(items, userPayload(user))
	}

	response.SuccessWithMeta(c, http.StatusOK, items, &response.Meta{Count: len(items)})
}

// POST /api/admin/users
func (h *AdminHandler) CreateUser(c *gin.Context) {
	var req createUserRequest
	if !bindAndValidate(c, &req) {
		return
	}

	hash, err := crypto.HashPassword(req.Password)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, "hash password"))
		return
	}

	user := models.User{
		Username:  strings.TrimSpace(req.Username),
		Password:  hash,
		Email:     strings.TrimSpace(req.Email),
		FirstName: req.FirstName,
		LastName:  req.LastName,
		IsAdmin:   req.IsAdmin,
		IsActive:  true,
	}
	if err := h.db.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			response.Error(c, appErrors.NewBadRequest("username already taken"))
			return
		}
		response.Error(c, appErrors.Wrap(err, "create user"))
		return
	}

	response.Success(c, http.StatusCreated, userPayload(user))
}

// GET /api/admin/users/:id
func (h *AdminHandler) GetUser(c *gin.Context) {
	user, ok := h.loadUser(c)
	if !ok {
		return
	}
	response.Success(c, http.StatusOK, userPayload(*user))
}

// PATCH /api/admin/users/:id
func (h *AdminHandler) UpdateUser(c *gin.Context) {
	user, ok := h.loadUser(c)
	if !ok {
		return
	}

	var req updateUserRequest
	if !bindAndValidate(c, &req) {
		return
	}

	self := user.ID == middleware.UserID(c)
	updates := map[string]any{}

	if req.Password != nil {
		hash, err := crypto.HashPassword(*req.Password)
		if err != nil {
			response.Error(c, appErrors.Wrap(err, "hash password"))
			return
		}
		updates["password"] = hash
	}
	if req.Email != nil {
		updates["email"] = strings.TrimSpace(*req.Email)
	}
	if req.FirstName != nil {
		updates["first_name"] = *req.FirstName
	}
	if req.LastName != nil {
		updates["last_name"] = *req.LastName
	}
	if req.IsAdmin != nil {
		if self && !*req.IsAdmin {
			response.Error(c, appErrors.NewBadRequest("cannot remove your own administrator access"))
			return
		}
		updates["is_admin"] = *req.IsAdmin
	}
	if req.IsActive != nil {
		if self && !*req.IsActive {
			response.Error(c, appErrors.NewBadRequest("cannot deactivate your own account"))
			return
		}
		updates["is_active"] = *req.IsActive
	}

	if len(updates) > 0 {
		if err := h.db.Model(user).Updates(updates).Error; err != nil {
			response.Error(c, appErrors.Wrap(err, "update user"))
			return
		}
	}

	// Deactivation cuts the user off immediately, not at credential expiry.
	if req.IsActive != nil && !*req.IsActive {
		if _, _, err := h.login.ForceInvalidate(user.ID); err != nil {
			response.Error(c, appErrors.Wrap(err, "invalidate credentials"))
			return
		}
	}

	response.Success(c, http.StatusOK, userPayload(*user))
}

// DELETE /api/admin/users/:id
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	user, ok := h.loadUser(c)
	if !ok {
		return
	}

	if user.ID == middleware.UserID(c) {
		response.Error(c, appErrors.NewBadRequest("cannot delete your own account"))
		return
	}

	if _, _, err := h.login.ForceInvalidate(user.ID); err != nil {
		response.Error(c, appErrors.Wrap(err, "invalidate credentials"))
		return
	}

	if err := h.db.Delete(user).Error; err != nil {
		response.Error(c, appErrors.Wrap(err, "delete user"))
		return
	}

	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// POST /api/admin/users/:id/invalidate-sessions
func (h *AdminHandler) InvalidateUserSessions(c *gin.Context) {
	user, ok := h.loadUser(c)
	if !ok {
		return
	}

	sessions, tokens, err := h.login.ForceInvalidate(user.ID)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, "invalidate credentials"))
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"sessions_invalidated": sessions,
		"tokens_blacklisted":   tokens,
	})
}

func (h *AdminHandler) loadUser(c *gin.Context) (*models.User, bool) {
	var user models.User
	err := h.db.Take(&user, "id = ?", c.Param("id")).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		response.Error(c, appErrors.ErrNotFound)
		return nil, false
	}
	if err != nil {
		response.Error(c, appErrors.Wrap(err, "load user"))
		return nil, false
	}
	return &user, true
}

// ---- categories ----

type categoryRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description"`
	Order       int    `json:"order"`
}

// POST /api/admin/categories
func (h *AdminHandler) CreateCategory(c *gin.Context) {
	var req categoryRequest
	if !bindAndValidate(c, &req) {
		return
	}

	category := models.Category{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Order:       req.Order,
	}
	if err := h.db.Create(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			response.Error(c, appErrors.NewBadRequest("category name already taken"))
			return
		}
		response.Error(c, appErrors.Wrap(err, "create category"))
		return
	}

	response.Success(c, http.StatusCreated, category)
}

// PUT /api/admin/categories/:id
func (h *AdminHandler) UpdateCategory(c *gin.Context) {
	var category models.Category
	err := h.db.Take(&category, "id = ?", c.Param("id")).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		response.Error(c, appErrors.ErrNotFound)
		return
	}
	if err != nil {
		response.Error(c, appErrors.Wrap(err, "load category"))
		return
	}

	var req categoryRequest
	if !bindAndValidate(c, &req) {
		return
	}

	err = h.db.Model(&category).Updates(map[string]any{
		"name":        strings.TrimSpace(req.Name),
		"description": req.Description,
		"sort_order":  req.Order,
	}).Error
	if err != nil {
		response.Error(c, appErrors.Wrap(err, "update category"))
		return
	}

	response.Success(c, http.StatusOK, category)
}

// DELETE /api/admin/categories/:id
//
// Videos in the category are kept and fall back to uncategorised.
func (h *AdminHandler) DeleteCategory(c *gin.Context) {
	result := h.db.Delete(&models.Category{}, "id = ?", c.Param("id"))
	if result.Error != nil {
		response.Error(c, appErrors.Wrap(result.Error, "delete category"))
		return
	}
	if result.RowsAffected == 0 {
		response.Error(c, appErrors.ErrNotFound)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// ---- videos ----

type videoRequest struct {
	Title       string  `json:"title" validate:"required,max=200"`
	Description string  `json:"description"`
	YouTubeURL  string  `json:"youtube_url" validate:"required,max=500,youtube_url"`
	CategoryID  *string `json:"category_id" validate:"omitempty,uuid4"`
	Order       int     `json:"order"`
	IsPublished *bool   `json:"is_published"`
}

// GET /api/admin/videos
//
// Unlike the viewer listing this includes unpublished videos.
func (h *AdminHandler) ListVideos(c *gin.Context) {
	var videos []models.Video
	if err := h.db.Order("sort_order ASC, created_at DESC").Find(&videos).Error; err != nil {
		response.Error(c, appErrors.Wrap(err, "list videos"))
		return
	}

	items := make([]gin.H, 0, len(videos))
	for i := range videos {
		payload := videoPayload(&videos[i])
		payload["is_published"] = videos[i].IsPublished
		payload["youtube_url"] = videos[i].YouTubeURL
		items = append(items, payload)
	}

	response.SuccessWithMeta(c, http.StatusOK, items, &response.Meta{Count: len(items)})
}

// POST /api/admin/videos
func (h *AdminHandler) CreateVideo(c *gin.Context) {
	var req videoRequest
	if !bindAndValidate(c, &req) {
		return
	}

	video := models.Video{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		YouTubeURL:  strings.TrimSpace(req.YouTubeURL),
		CategoryID:  req.CategoryID,
		Order:       req.Order,
		IsPublished: true,
	}
	if req.IsPublished != nil {
		video.IsPublished = *req.IsPublished
	}

	if err := h.db.Create(&video).Error; err != nil {
		response.Error(c, appErrors.Wrap(err, "create video"))
		return
	}

	response.Success(c, http.StatusCreated, video)
}

// PUT /api/admin/videos/:id
func (h *AdminHandler) UpdateVideo(c *gin.Context) {
	var video models.Video
	err := h.db.Take(&video, "id = ?", c.Param("id")).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		response.Error(c, appErrors.ErrNotFound)
		return
	}
	if err != nil {
		response.Error(c, appErrors.Wrap(err, "load video"))
		return
	}

	var req videoRequest
	if !bindAndValidate(c, &req) {
		return
	}

	updates := map[string]any{
		"title":       strings.TrimSpace(req.Title),
		"description": req.Description,
		"youtube_url": strings.TrimSpace(req.YouTubeURL),
		"category_id": req.CategoryID,
		"sort_order":  req.Order,
	}
	if req.IsPublished != nil {
		updates["is_published"] = *req.IsPublished
	}

	if err := h.db.Model(&video).Updates(updates).Error; err != nil {
		response.Error(c, appErrors.Wrap(err, "update video"))
		return
	}

	response.Success(c, http.StatusOK, video)
}

// DELETE /api/admin/videos/:id
func (h *AdminHandler) DeleteVideo(c *gin.Context) {
	result := h.db.Delete(&models.Video{}, "id = ?", c.Param("id"))
	if result.Error != nil {
		response.Error(c, appErrors.Wrap(result.Error, "delete video"))
		return
	}
	if result.RowsAffected == 0 {
		response.Error(c, appErrors.ErrNotFound)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// ---- stats ----

// GET /api/admin/stats
func (h *AdminHandler) Stats(c *gin.Context) {
	counts := map[string]*int64{
		"users":      new(int64),
		"categories": new(int64),
		"videos":     new(int64),
		"sessions":   new(int64),
	}

	queries := []struct {
		model any
		key   string
	}{
		{&models.User{}, "users"},
		{&models.Category{}, "categories"},
		{&models.Video{}, "videos"},
		{&models.UserSession{}, "sessions"},
	}
	for _, q := range queries {
		if err := h.db.Model(q.model).Count(counts[q.key]).Error; err != nil {
			response.Error(c, appErrors.Wrap(err, "count "+q.key))
			return
		}
	}

	var unpublished int64
	if err := h.db.Model(&models.Video{}).Where("is_published = ?", false).Count(&unpublished).Error; err != nil {
		response.Error(c, appErrors.Wrap(err, "count unpublished videos"))
		return
	}

	var recentVideos []models.Video
	if err := h.db.Order("created_at DESC").Limit(5).Find(&recentVideos).Error; err != nil {
		response.Error(c, appErrors.Wrap(err, "list recent videos"))
		return
	}
	recent := make([]gin.H, 0, len(recentVideos))
	for i := range recentVideos {
		payload := videoPayload(&recentVideos[i])
		payload["is_published"] = recentVideos[i].IsPublished
		recent = append(recent, payload)
	}

	response.Success(c, http.StatusOK, gin.H{
		"users":              *counts["users"],
		"categories":         *counts["categories"],
		"videos":             *counts["videos"],
		"unpublished_videos": unpublished,
		"active_sessions":    *counts["sessions"],
		"recent_videos":      recent,
	})
}
