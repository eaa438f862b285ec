package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/openedu/videovault/internal/models"
)

func adminToken(t *testing.T, f *apiFixture) string {
	t.Helper()

	f.createUser(t, "root", "admin-pass-123", true)
	login, _ := f.loginAs(t, "root", "admin-pass-123")
	return login.Tokens.AccessToken
}

func TestAdminCreateUser(t *testing.T) {
	f := newAPIFixture(t)
	token := adminToken(t, f)

	w := f.request(t, http.MethodPost, "/api/admin/users", gin.H{
		"username": "newbie",
		"password": "long-enough-pass",
		"email":    "newbie@example.com",
	}, bearer(token))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var user models.User
	require.NoError(t, f.db.Take(&user, "username = ?", "newbie").Error)
	require.True(t, user.IsActive)
	require.NotEqual(t, "long-enough-pass", user.Password, "password must be stored hashed")

	// Duplicate username is a client error, not a 500.
	w = f.request(t, http.MethodPost, "/api/admin/users", gin.H{
		"username": "newbie",
		"password": "long-enough-pass",
	}, bearer(token))
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminCreateUserValidation(t *testing.T) {
	f := newAPIFixture(t)
	token := adminToken(t, f)

	w := f.request(t, http.MethodPost, "/api/admin/users", gin.H{
		"username": "ok",
		"password": "short",
	}, bearer(token))
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminCannotDemoteOrDeleteSelf(t *testing.T) {
	f := newAPIFixture(t)
	token := adminToken(t, f)

	var self models.User
	require.NoError(t, f.db.Take(&self, "username = ?", "root").Error)

	w := f.request(t, http.MethodPatch, "/api/admin/users/"+self.ID, gin.H{"is_admin": false}, bearer(token))
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = f.request(t, http.MethodPatch, "/api/admin/users/"+self.ID, gin.H{"is_active": false}, bearer(token))
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = f.request(t, http.MethodDelete, "/api/admin/users/"+self.ID, nil, bearer(token))
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminDeactivationRevokesCredentials(t *testing.T) {
	f := newAPIFixture(t)
	token := adminToken(t, f)
	user := f.createUser(t, "alice", "s3cret-pass", false)

	login, _ := f.loginAs(t, "alice", "s3cret-pass")

	w := f.request(t, http.MethodPatch, "/api/admin/users/"+user.ID, gin.H{"is_active": false}, bearer(token))
	require.Equal(t, http.StatusOK, w.Code)

	w = f.request(t, http.MethodGet, "/api/auth/me", nil, bearer(login.Tokens.AccessToken))
	require.Equal(t, http.StatusUnauthorized, w.Code)

	// And the account cannot log back in.
	w = f.request(t, http.MethodPost, "/api/auth/login", gin.H{"username": "alice", "password": "s3cret-pass"}, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminDeleteUserRemovesDependentRows(t *testing.T) {
	f := newAPIFixture(t)
	token := adminToken(t, f)
	user := f.createUser(t, "alice", "s3cret-pass", false)

	f.loginAs(t, "alice", "s3cret-pass")

	w := f.request(t, http.MethodDelete, "/api/admin/users/"+user.ID, nil, bearer(token))
	require.Equal(t, http.StatusOK, w.Code)

	var sessions, tokens int64
	require.NoError(t, f.db.Model(&models.UserSession{}).Where("user_id = ?", user.ID).Count(&sessions).Error)
	require.NoError(t, f.db.Model(&models.ActiveToken{}).Where("user_id = ?", user.ID).Count(&tokens).Error)
	require.Zero(t, sessions)
	require.Zero(t, tokens)
}

func TestAdminVideoCRUD(t *testing.T) {
	f := newAPIFixture(t)
	token := adminToken(t, f)

	// Reject non-YouTube URLs up front.
	w := f.request(t, http.MethodPost, "/api/admin/videos", gin.H{
		"title":       "Bad",
		"youtube_url": "https://vimeo.com/12345",
	}, bearer(token))
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = f.request(t, http.MethodPost, "/api/admin/videos", gin.H{
		"title":       "Intro",
		"youtube_url": "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
	}, bearer(token))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var envelope struct {
		Data models.Video `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	created := envelope.Data
	require.True(t, created.IsPublished, "videos default to published")

	w = f.request(t, http.MethodPut, "/api/admin/videos/"+created.ID, gin.H{
		"title":        "Intro (updated)",
		"youtube_url":  created.YouTubeURL,
		"is_published": false,
	}, bearer(token))
	require.Equal(t, http.StatusOK, w.Code)

	var video models.Video
	require.NoError(t, f.db.Take(&video, "id = ?", created.ID).Error)
	require.Equal(t, "Intro (updated)", video.Title)
	require.False(t, video.IsPublished)

	// Admin listing still shows the now-unpublished video.
	w = f.request(t, http.MethodGet, "/api/admin/videos", nil, bearer(token))
	require.Equal(t, http.StatusOK, w.Code)

	var listing struct {
		Meta struct {
			Count int `json:"count"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listing))
	require.Equal(t, 1, listing.Meta.Count)

	w = f.request(t, http.MethodDelete, "/api/admin/videos/"+created.ID, nil, bearer(token))
	require.Equal(t, http.StatusOK, w.Code)

	w = f.request(t, http.MethodDelete, "/api/admin/videos/"+created.ID, nil, bearer(token))
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminCategoryCRUD(t *testing.T) {
	f := newAPIFixture(t)
	token := adminToken(t, f)

	w := f.request(t, http.MethodPost, "/api/admin/categories", gin.H{"name": "Algebra", "order": 2}, bearer(token))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var envelope struct {
		Data models.Category `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	category := envelope.Data

	w = f.request(t, http.MethodPost, "/api/admin/categories", gin.H{"name": "Algebra"}, bearer(token))
	require.Equal(t, http.StatusBadRequest, w.Code, "duplicate names rejected")

	w = f.request(t, http.MethodPut, "/api/admin/categories/"+category.ID, gin.H{"name": "Geometry", "order": 1}, bearer(token))
	require.Equal(t, http.StatusOK, w.Code)

	var reloaded models.Category
	require.NoError(t, f.db.Take(&reloaded, "id = ?", category.ID).Error)
	require.Equal(t, "Geometry", reloaded.Name)
	require.Equal(t, 1, reloaded.Order)

	// Deleting the category must not delete its videos.
	video := models.Video{
		Title:       "Survivor",
		YouTubeURL:  "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		CategoryID:  &category.ID,
		IsPublished: true,
	}
	require.NoError(t, f.db.Create(&video).Error)

	w = f.request(t, http.MethodDelete, "/api/admin/categories/"+category.ID, nil, bearer(token))
	require.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, f.db.Take(&video, "id = ?", video.ID).Error)
	require.Nil(t, video.CategoryID)
}

func TestAdminStats(t *testing.T) {
	f := newAPIFixture(t)
	token := adminToken(t, f)
	f.createUser(t, "alice", "s3cret-pass", false)
	seedCatalog(t, f)

	w := f.request(t, http.MethodGet, "/api/admin/stats", nil, bearer(token))
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data struct {
			Users             int `json:"users"`
			Categories        int `json:"categories"`
			Videos            int `json:"videos"`
			UnpublishedVideos int `json:"unpublished_videos"`
			ActiveSessions    int `json:"active_sessions"`
			RecentVideos      []struct {
				Title string `json:"title"`
			} `json:"recent_videos"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Equal(t, 2, envelope.Data.Users)
	require.Equal(t, 1, envelope.Data.Categories)
	require.Equal(t, 2, envelope.Data.Videos)
	require.Equal(t, 1, envelope.Data.UnpublishedVideos)
	require.Equal(t, 1, envelope.Data.ActiveSessions, "admin login session")
	require.Len(t, envelope.Data.RecentVideos, 2)
}
