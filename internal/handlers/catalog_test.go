package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/openedu/videovault/internal/models"
)

func seedCatalog(t *testing.T, f *apiFixture) (models.Category, models.Video, models.Video) {
	t.Helper()

	category := models.Category{Name: "Algebra", Order: 1}
	require.NoError(t, f.db.Create(&category).Error)

	published := models.Video{
		Title:       "Linear equations",
		YouTubeURL:  "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		CategoryID:  &category.ID,
		IsPublished: true,
	}
	require.NoError(t, f.db.Create(&published).Error)

	draft := models.Video{
		Title:       "Quadratic equations",
		YouTubeURL:  "https://youtu.be/abc123XYZ_-",
		CategoryID:  &category.ID,
		IsPublished: false,
	}
	require.NoError(t, f.db.Create(&draft).Error)

	return category, published, draft
}

func TestCatalogRequiresAuthentication(t *testing.T) {
	f := newAPIFixture(t)

	for _, path := range []string{"/api/dashboard", "/api/categories", "/api/videos"} {
		w := f.request(t, http.MethodGet, path, nil, nil)
		require.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestListVideosHidesDrafts(t *testing.T) {
	f := newAPIFixture(t)
	f.createUser(t, "alice", "s3cret-pass", false)
	_, published, _ := seedCatalog(t, f)

	login, _ := f.loginAs(t, "alice", "s3cret-pass")

	w := f.request(t, http.MethodGet, "/api/videos", nil, bearer(login.Tokens.AccessToken))
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data []struct {
			ID        string `json:"id"`
			YouTubeID string `json:"youtube_id"`
			EmbedURL  string `json:"embed_url"`
		} `json:"data"`
		Meta struct {
			Count int `json:"count"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Equal(t, 1, envelope.Meta.Count)
	require.Equal(t, published.ID, envelope.Data[0].ID)
	require.Equal(t, "dQw4w9WgXcQ", envelope.Data[0].YouTubeID)
	require.Equal(t, "https://www.youtube-nocookie.com/embed/dQw4w9WgXcQ", envelope.Data[0].EmbedURL)
}

func TestListVideosFiltersByCategory(t *testing.T) {
	f := newAPIFixture(t)
	f.createUser(t, "alice", "s3cret-pass", false)
	category, _, _ := seedCatalog(t, f)

	other := models.Video{
		Title:       "Unrelated",
		YouTubeURL:  "https://www.youtube.com/watch?v=other12345A",
		IsPublished: true,
	}
	require.NoError(t, f.db.Create(&other).Error)

	login, _ := f.loginAs(t, "alice", "s3cret-pass")

	w := f.request(t, http.MethodGet, "/api/videos?category="+category.ID, nil, bearer(login.Tokens.AccessToken))
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Meta struct {
			Count int `json:"count"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Equal(t, 1, envelope.Meta.Count)
}

func TestGetVideoReturnsDraftAsNotFound(t *testing.T) {
	f := newAPIFixture(t)
	f.createUser(t, "alice", "s3cret-pass", false)
	_, published, draft := seedCatalog(t, f)

	login, _ := f.loginAs(t, "alice", "s3cret-pass")

	w := f.request(t, http.MethodGet, "/api/videos/"+published.ID, nil, bearer(login.Tokens.AccessToken))
	require.Equal(t, http.StatusOK, w.Code)

	w = f.request(t, http.MethodGet, "/api/videos/"+draft.ID, nil, bearer(login.Tokens.AccessToken))
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestListCategoriesCountsPublishedOnly(t *testing.T) {
	f := newAPIFixture(t)
	f.createUser(t, "alice", "s3cret-pass", false)
	seedCatalog(t, f)

	login, _ := f.loginAs(t, "alice", "s3cret-pass")

	w := f.request(t, http.MethodGet, "/api/categories", nil, bearer(login.Tokens.AccessToken))
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data []struct {
			Name       string `json:"name"`
			VideoCount int    `json:"video_count"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 1)
	require.Equal(t, "Algebra", envelope.Data[0].Name)
	require.Equal(t, 1, envelope.Data[0].VideoCount)
}

func TestDashboardGroupsByCategoryWithUncategorised(t *testing.T) {
	f := newAPIFixture(t)
	f.createUser(t, "alice", "s3cret-pass", false)
	seedCatalog(t, f)

	orphan := models.Video{
		Title:       "No home",
		YouTubeURL:  "https://www.youtube.com/watch?v=orphan1234_",
		IsPublished: true,
	}
	require.NoError(t, f.db.Create(&orphan).Error)

	login, _ := f.loginAs(t, "alice", "s3cret-pass")

	w := f.request(t, http.MethodGet, "/api/dashboard", nil, bearer(login.Tokens.AccessToken))
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data struct {
			Categories []struct {
				Name   string `json:"name"`
				Videos []struct {
					Title string `json:"title"`
				} `json:"videos"`
			} `json:"categories"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data.Categories, 2)
	require.Equal(t, "Algebra", envelope.Data.Categories[0].Name)
	require.Len(t, envelope.Data.Categories[0].Videos, 1, "drafts stay off the dashboard")
	require.Equal(t, "Uncategorised", envelope.Data.Categories[1].Name)
}

func TestVideoURLFormats(t *testing.T) {
	cases := []struct {
		url string
		id  string
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://vimeo.com/12345", ""},
		{"not a url", ""},
	}

	for i, tc := range cases {
		video := models.Video{YouTubeURL: tc.url}
		require.Equal(t, tc.id, video.YouTubeID(), fmt.Sprintf("case %d: %s", i, tc.url))
		require.Equal(t, tc.id != "", models.IsYouTubeURL(tc.url), tc.url)
	}
}
