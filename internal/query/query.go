// Package query holds the pure search and pagination functions applied to a
// catalog snapshot. Both are deterministic and order-preserving; the same
// inputs always produce the same slice.
package query

import (
	"strings"

	"video-catalog-api/internal/models"
)

// Filter returns the videos whose name contains q as a case-insensitive
// substring. Only the name is matched, not uploader, tags or date. An empty
// q matches everything; no match yields an empty result, never an error.
func Filter(videos []models.Video, q string) []models.Video {
	if q == "" {
		return videos
	}

	q = strings.ToLower(q)
	filtered := make([]models.Video, 0, len(videos))
	for _, video := range videos {
		if strings.Contains(strings.ToLower(video.Name), q) {
			filtered = append(filtered, video)
		}
	}
	return filtered
}

// Page returns the sub-range [page*size, page*size+size) of videos, clipped
// to the available length. A non-positive size disables pagination and a
// negative page is treated as the first.
func Page(videos []models.Video, page, size int) []models.Video {
	if size <= 0 {
		return videos
	}
	if page < 0 {
		page = 0
	}

	start := page * size
	if start >= len(videos) {
		return videos[:0]
	}
	end := start + size
	if end > len(videos) {
		end = len(videos)
	}
	return videos[start:end]
}
