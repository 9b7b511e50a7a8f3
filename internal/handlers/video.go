package handlers

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"video-catalog-api/internal/catalog"
	"video-catalog-api/internal/models"
	"video-catalog-api/internal/query"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type VideoRequest struct {
	Name           string `form:"name" binding:"required"`
	Classification string `form:"classification" binding:"required"`
}

type TagRequest struct {
	Name string `json:"name" binding:"required"`
}

// catalogStatus maps the catalog error taxonomy to HTTP statuses.
func catalogStatus(err error) int {
	switch {
	case errors.Is(err, catalog.ErrInvalidClassification),
		errors.Is(err, catalog.ErrInvalidVideoName),
		errors.Is(err, catalog.ErrInvalidTagName):
		return http.StatusBadRequest
	case errors.Is(err, catalog.ErrVideoNotFound),
		errors.Is(err, catalog.ErrTagNotFound):
		return http.StatusNotFound
	case errors.Is(err, catalog.ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// canMutate enforces that only the owning uploader (or an admin) may change
// a catalog entry.
func canMutate(c *gin.Context, video models.Video) bool {
	return c.GetBool("is_admin") || video.UploaderID == c.GetString("user_id")
}

// UploadVideo admits a fully-processed video into the catalog. The
// classification token delivered by the processing pipeline is validated
// before the asset is stored, so a rejected admission persists nothing.
func UploadVideo(c *gin.Context) {
	var req VideoRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, err := models.ParseClassification(req.Classification); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid classification",
			"details": "classification must be one of FACE_BLURRED, BACKGROUND_BLURRED, NO_BLUR",
		})
		return
	}

	file, err := c.FormFile("video")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Video file is required"})
		return
	}

	// Validate file extension
	ext := strings.ToLower(filepath.Ext(file.Filename))
	allowedExts := map[string]bool{".mp4": true, ".mov": true, ".avi": true, ".mkv": true}
	if !allowedExts[ext] {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":              "Invalid file type",
			"details":            "Only video files (.mp4, .mov, .avi, .mkv) are allowed",
			"received_extension": ext,
		})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to open uploaded file"})
		return
	}
	defer src.Close()

	fileName := uuid.New().String() + ext
	if err := assets.Save(fileName, src); err != nil {
		log.Printf("Error saving video asset: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save video"})
		return
	}

	userID := c.GetString("user_id")
	video, err := cat.Admit(c.Request.Context(), req.Name, userID, req.Classification, fileName, time.Now().UTC())
	if err != nil {
		assets.Remove(fileName)
		log.Printf("Error admitting video: %v", err)
		c.JSON(catalogStatus(err), gin.H{"error": "Failed to save video metadata", "details": err.Error()})
		return
	}

	log.Printf("Successfully uploaded video: ID=%s, Name=%s, FileName=%s", video.ID, video.Name, fileName)

	c.JSON(http.StatusCreated, gin.H{
		"id":          video.ID,
		"message":     "Video uploaded successfully",
		"file_name":   fileName,
		"uploaded_by": userID,
	})
}

// ListVideos returns the catalog snapshot. Optional query params: q for a
// case-insensitive name search, page and size for pagination. count always
// reflects the filtered total so clients can render pagers.
func ListVideos(c *gin.Context) {
	videos, err := cat.List(c.Request.Context())
	if err != nil {
		log.Printf("Error fetching videos: %v", err)
		c.JSON(catalogStatus(err), gin.H{"error": "Failed to fetch videos"})
		return
	}

	videos = query.Filter(videos, c.Query("q"))
	total := len(videos)

	page, _ := strconv.Atoi(c.DefaultQuery("page", "0"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "0"))
	videos = query.Page(videos, page, size)

	c.JSON(http.StatusOK, gin.H{
		"videos": videos,
		"count":  total,
	})
}

// DeleteVideo removes a catalog entry, its tag associations and the stored
// asset. The delete is fully committed before the response is sent.
func DeleteVideo(c *gin.Context) {
	videoID := c.Param("id")

	video, err := cat.Get(c.Request.Context(), videoID)
	if err != nil {
		c.JSON(catalogStatus(err), gin.H{"error": "Video not found"})
		return
	}
	if !canMutate(c, video) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the uploader may delete this video"})
		return
	}

	fileName, err := cat.Delete(c.Request.Context(), videoID)
	if err != nil {
		log.Printf("Error deleting video %s: %v", videoID, err)
		c.JSON(catalogStatus(err), gin.H{"error": "Failed to delete video"})
		return
	}

	if err := assets.Remove(fileName); err != nil {
		log.Printf("Error removing asset %s: %v", fileName, err)
	}

	c.JSON(http.StatusOK, gin.H{"message": "Video deleted successfully"})
}

// AttachTag adds a tag to a video, creating the tag on first use. Attaching
// the same tag twice is a no-op.
func AttachTag(c *gin.Context) {
	videoID := c.Param("id")

	var req TagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	video, err := cat.Get(c.Request.Context(), videoID)
	if err != nil {
		c.JSON(catalogStatus(err), gin.H{"error": "Video not found"})
		return
	}
	if !canMutate(c, video) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the uploader may tag this video"})
		return
	}

	if err := cat.AttachTag(c.Request.Context(), videoID, req.Name); err != nil {
		log.Printf("Error attaching tag %q to video %s: %v", req.Name, videoID, err)
		c.JSON(catalogStatus(err), gin.H{"error": "Failed to attach tag", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Tag attached successfully",
		"tag":     req.Name,
	})
}

// DetachTag removes a tag from a video. A tag that is not attached is
// treated as already detached.
func DetachTag(c *gin.Context) {
	videoID := c.Param("id")
	tagName := c.Param("tag")

	video, err := cat.Get(c.Request.Context(), videoID)
	if err != nil {
		c.JSON(catalogStatus(err), gin.H{"error": "Video not found"})
		return
	}
	if !canMutate(c, video) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the uploader may tag this video"})
		return
	}

	if err := cat.DetachTag(c.Request.Context(), videoID, tagName); err != nil {
		log.Printf("Error detaching tag %q from video %s: %v", tagName, videoID, err)
		c.JSON(catalogStatus(err), gin.H{"error": "Failed to detach tag", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Tag detached successfully",
		"tag":     tagName,
	})
}

// ListTags returns every tag known to the registry.
func ListTags(c *gin.Context) {
	tags, err := cat.Tags().ListTags(c.Request.Context())
	if err != nil {
		log.Printf("Error fetching tags: %v", err)
		c.JSON(catalogStatus(err), gin.H{"error": "Failed to fetch tags"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tags":  tags,
		"count": len(tags),
	})
}

// StreamVideo decrypts the stored asset to a temp file and streams it,
// honoring byte-range requests.
func StreamVideo(c *gin.Context) {
	videoID := c.Param("id")

	video, err := cat.Get(c.Request.Context(), videoID)
	if err != nil {
		c.JSON(catalogStatus(err), gin.H{"error": "Video not found"})
		return
	}

	tempDir := filepath.Join(os.TempDir(), "video-catalog")
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		log.Printf("Error creating temp directory: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create temp directory"})
		return
	}

	tempPath := filepath.Join(tempDir, uuid.New().String()+filepath.Ext(video.FileName))
	defer os.Remove(tempPath)

	if err := assets.DecryptTo(video.FileName, tempPath); err != nil {
		log.Printf("Error decrypting video %s: %v", videoID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decrypt video"})
		return
	}

	videoFile, err := os.Open(tempPath)
	if err != nil {
		log.Printf("Error opening decrypted video: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to open video"})
		return
	}
	defer videoFile.Close()

	fileInfo, err := videoFile.Stat()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get video info"})
		return
	}

	// Handle range requests for video streaming
	rangeHeader := c.GetHeader("Range")
	if rangeHeader != "" {
		ranges, err := parseRange(rangeHeader, fileInfo.Size())
		if err != nil {
			c.JSON(http.StatusRequestedRangeNotSatisfiable, gin.H{"error": "Invalid range"})
			return
		}

		length := ranges[1] - ranges[0] + 1
		c.Status(http.StatusPartialContent)
		c.Header("Content-Range", fmt.Sprintf("bytes %d-%d/%d", ranges[0], ranges[1], fileInfo.Size()))
		c.Header("Content-Length", fmt.Sprintf("%d", length))
		c.Header("Accept-Ranges", "bytes")
		c.Header("Content-Type", "video/mp4")

		videoFile.Seek(ranges[0], 0)
		io.CopyN(c.Writer, videoFile, length)
		return
	}

	c.Header("Content-Length", fmt.Sprintf("%d", fileInfo.Size()))
	c.Header("Content-Type", "video/mp4")
	io.Copy(c.Writer, videoFile)
}

func parseRange(rangeHeader string, size int64) ([]int64, error) {
	var start, end int64
	fmt.Sscanf(rangeHeader, "bytes=%d-%d", &start, &end)
	if end == 0 {
		end = size - 1
	}
	if start > end || start < 0 || end >= size {
		return nil, fmt.Errorf("invalid range")
	}
	return []int64{start, end}, nil
}
