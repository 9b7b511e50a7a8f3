package handlers

import (
	"bytes"
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"video-catalog-api/internal/database"
	"video-catalog-api/internal/models"
	"video-catalog-api/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testUploaderID = "uploader-1"
	testOtherID    = "uploader-2"
)

type identity struct {
	userID  string
	email   string
	isAdmin bool
}

func uploader() identity {
	return identity{userID: testUploaderID, email: "uploader@example.com"}
}

// newTestRouter wires the real handlers against an in-memory database and a
// temp asset store, with the auth middleware replaced by a stub that injects
// the given identity.
func newTestRouter(t *testing.T, id identity) (*gin.Engine, *sql.DB) {
	t.Helper()

	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	for _, u := range []identity{uploader(), {userID: testOtherID, email: "other@example.com"}} {
		_, err = db.Exec("INSERT INTO users (id, email, password) VALUES (?, ?, ?)", u.userID, u.email, "x")
		require.NoError(t, err)
	}

	key := make([]byte, 32)
	_, err = rand.Read(key)
	require.NoError(t, err)
	store, err := storage.New(t.TempDir(), key)
	require.NoError(t, err)

	Init(db, store)

	gin.SetMode(gin.TestMode)
	router := gin.New()

	api := router.Group("/api")
	protected := api.Group("")
	protected.Use(func(c *gin.Context) {
		c.Set("user_id", id.userID)
		c.Set("email", id.email)
		c.Set("is_admin", id.isAdmin)
	})
	videos := protected.Group("/videos")
	videos.GET("", ListVideos)
	videos.POST("", UploadVideo)
	videos.DELETE("/:id", DeleteVideo)
	videos.POST("/:id/tags", AttachTag)
	videos.DELETE("/:id/tags/:tag", DetachTag)
	protected.GET("/tags", ListTags)

	return router, db
}

func admitDirect(t *testing.T, name string) models.Video {
	t.Helper()
	video, err := cat.Admit(context.Background(), name, testUploaderID,
		"NO_BLUR", "asset.mp4", time.Now().UTC())
	require.NoError(t, err)
	return video
}

func doJSON(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func uploadRequest(t *testing.T, name, classification string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("name", name))
	require.NoError(t, mw.WriteField("classification", classification))
	fw, err := mw.CreateFormFile("video", "clip.mp4")
	require.NoError(t, err)
	_, err = fw.Write([]byte("fake video bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/videos", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

type listResponse struct {
	Videos []models.Video `json:"videos"`
	Count  int            `json:"count"`
}

func listVideos(t *testing.T, router *gin.Engine, query string) listResponse {
	t.Helper()
	w := doJSON(router, http.MethodGet, "/api/videos"+query, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp listResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestUploadThenList(t *testing.T) {
	router, _ := newTestRouter(t, uploader())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, uploadRequest(t, "my holiday", "FACE_BLURRED"))
	require.Equal(t, http.StatusCreated, w.Code)

	resp := listVideos(t, router, "")
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "my holiday", resp.Videos[0].Name)
	assert.Equal(t, models.ClassificationFaceBlurred, resp.Videos[0].Classification)
	assert.Equal(t, "uploader@example.com", resp.Videos[0].Uploader.Email)
}

func TestUpload_InvalidClassificationPersistsNothing(t *testing.T) {
	router, db := newTestRouter(t, uploader())

	for _, token := range []string{"", "face_blurred", "BLUR_ALL"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, uploadRequest(t, "bad", token))
		assert.Equal(t, http.StatusBadRequest, w.Code, "token %q", token)
	}

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM videos").Scan(&count))
	assert.Equal(t, 0, count)
}

func TestList_SearchAndPagination(t *testing.T) {
	router, _ := newTestRouter(t, uploader())

	admitDirect(t, "cat video")
	admitDirect(t, "Concatenate")
	admitDirect(t, "dog")

	resp := listVideos(t, router, "?q=CAT")
	assert.Equal(t, 2, resp.Count)
	for _, v := range resp.Videos {
		assert.Contains(t, []string{"cat video", "Concatenate"}, v.Name)
	}

	// count reflects the filtered total even when the page is smaller
	resp = listVideos(t, router, "?page=0&size=2")
	assert.Equal(t, 3, resp.Count)
	assert.Len(t, resp.Videos, 2)

	resp = listVideos(t, router, "?page=1&size=2")
	assert.Len(t, resp.Videos, 1)

	resp = listVideos(t, router, "?q=zebra")
	assert.Equal(t, 0, resp.Count)
	assert.Empty(t, resp.Videos)
}

func TestDelete_CommittedBeforeResponse(t *testing.T) {
	router, _ := newTestRouter(t, uploader())
	video := admitDirect(t, "doomed")

	w := doJSON(router, http.MethodDelete, "/api/videos/"+video.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// a list issued after delete returns must not contain the video
	resp := listVideos(t, router, "")
	assert.Equal(t, 0, resp.Count)

	// mutations against the deleted id now miss
	w = doJSON(router, http.MethodPost, "/api/videos/"+video.ID+"/tags", gin.H{"name": "cats"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(router, http.MethodDelete, "/api/videos/"+video.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDelete_OnlyOwnerOrAdmin(t *testing.T) {
	router, _ := newTestRouter(t, identity{userID: testOtherID, email: "other@example.com"})
	video := admitDirect(t, "not yours")

	w := doJSON(router, http.MethodDelete, "/api/videos/"+video.ID, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	admin, _ := newTestRouter(t, identity{userID: "admin-1", email: "admin@example.com", isAdmin: true})
	video = admitDirect(t, "admin may")
	w = doJSON(admin, http.MethodDelete, "/api/videos/"+video.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestTagLifecycleOverHTTP(t *testing.T) {
	router, _ := newTestRouter(t, uploader())
	video := admitDirect(t, "tagged")

	// attach twice, idempotent
	for i := 0; i < 2; i++ {
		w := doJSON(router, http.MethodPost, "/api/videos/"+video.ID+"/tags", gin.H{"name": "cats"})
		require.Equal(t, http.StatusOK, w.Code)
	}

	resp := listVideos(t, router, "")
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, []string{"cats"}, resp.Videos[0].Tags)

	// registry shows the single tag
	w := doJSON(router, http.MethodGet, "/api/tags", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var tagsResp struct {
		Tags  []models.Tag `json:"tags"`
		Count int          `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tagsResp))
	assert.Equal(t, 1, tagsResp.Count)

	// detach, then detach again: both succeed
	for i := 0; i < 2; i++ {
		w = doJSON(router, http.MethodDelete, "/api/videos/"+video.ID+"/tags/cats", nil)
		require.Equal(t, http.StatusOK, w.Code)
	}

	resp = listVideos(t, router, "")
	assert.Empty(t, resp.Videos[0].Tags)

	// a tag that never existed is a 404
	w = doJSON(router, http.MethodDelete, "/api/videos/"+video.ID+"/tags/ghost", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// the detached tag is retained by the registry
	w = doJSON(router, http.MethodGet, "/api/tags", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tagsResp))
	assert.Equal(t, 1, tagsResp.Count)
}

func TestAttachTag_ValidationErrors(t *testing.T) {
	router, _ := newTestRouter(t, uploader())
	video := admitDirect(t, "clip")

	// missing name fails binding
	w := doJSON(router, http.MethodPost, "/api/videos/"+video.ID+"/tags", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// oversized name fails catalog validation
	long := ""
	for i := 0; i < 65; i++ {
		long += "a"
	}
	w = doJSON(router, http.MethodPost, "/api/videos/"+video.ID+"/tags", gin.H{"name": long})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpload_RejectsNonVideoExtension(t *testing.T) {
	router, _ := newTestRouter(t, uploader())

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("name", "readme"))
	require.NoError(t, mw.WriteField("classification", "NO_BLUR"))
	fw, err := mw.CreateFormFile("video", "notes.txt")
	require.NoError(t, err)
	fmt.Fprint(fw, "not a video")
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/videos", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
