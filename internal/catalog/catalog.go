// Package catalog implements the video catalog core: admission of processed
// uploads, the tag registry and video/tag associations, snapshot reads and
// the delete cascade. All state lives in SQLite behind database/sql; every
// mutation is a single transaction so readers never observe a half-applied
// record.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"video-catalog-api/internal/models"

	"github.com/google/uuid"
)

// GROUP_CONCAT separator for tag names. Unit separator keeps tags containing
// commas intact.
const tagSep = "\x1f"

type Catalog struct {
	db   *sql.DB
	tags *TagRegistry
}

func New(db *sql.DB) *Catalog {
	return &Catalog{db: db, tags: NewTagRegistry(db)}
}

// Tags exposes the registry that backs this catalog.
func (c *Catalog) Tags() *TagRegistry {
	return c.tags
}

// Admit registers a fully-processed video. The classification token is
// validated first; on rejection nothing is stored. The new record starts with
// an empty tag set.
func (c *Catalog) Admit(ctx context.Context, name, uploaderID, token, fileName string, uploadedAt time.Time) (models.Video, error) {
	classification, err := models.ParseClassification(token)
	if err != nil {
		return models.Video{}, fmt.Errorf("%w: %q", ErrInvalidClassification, token)
	}
	if strings.TrimSpace(name) == "" {
		return models.Video{}, fmt.Errorf("%w: name is empty", ErrInvalidVideoName)
	}

	video := models.Video{
		ID:             uuid.New().String(),
		Name:           name,
		Classification: classification,
		FileName:       fileName,
		UploaderID:     uploaderID,
		DateUploaded:   uploadedAt,
		Tags:           []string{},
	}

	_, err = c.db.ExecContext(ctx, `
		INSERT INTO videos (id, name, classification, file_name, uploader_id, date_uploaded)
		VALUES (?, ?, ?, ?, ?, ?)
	`, video.ID, video.Name, string(video.Classification), video.FileName,
		video.UploaderID, video.DateUploaded.Format(time.RFC3339))
	if err != nil {
		return models.Video{}, storageErr("admit video", err)
	}
	return video, nil
}

const videoSelect = `
	SELECT
		v.id,
		v.name,
		v.classification,
		v.file_name,
		v.uploader_id,
		u.email,
		v.date_uploaded,
		COALESCE(GROUP_CONCAT(t.name, char(31)), '')
	FROM videos v
	JOIN users u ON u.id = v.uploader_id
	LEFT JOIN video_tags vt ON vt.video_id = v.id
	LEFT JOIN tags t ON t.id = vt.tag_id
`

// List returns a snapshot of every committed video with the uploader email
// and tag names resolved for display.
func (c *Catalog) List(ctx context.Context) ([]models.Video, error) {
	rows, err := c.db.QueryContext(ctx, videoSelect+`
		GROUP BY v.id
		ORDER BY v.date_uploaded DESC
	`)
	if err != nil {
		return nil, storageErr("list videos", err)
	}
	defer rows.Close()

	var videos []models.Video
	for rows.Next() {
		video, err := scanVideo(rows.Scan)
		if err != nil {
			return nil, storageErr("list videos", err)
		}
		videos = append(videos, video)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list videos", err)
	}
	return videos, nil
}

// Get returns a single video by id.
func (c *Catalog) Get(ctx context.Context, videoID string) (models.Video, error) {
	row := c.db.QueryRowContext(ctx, videoSelect+`
		WHERE v.id = ?
		GROUP BY v.id
	`, videoID)

	video, err := scanVideo(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Video{}, ErrVideoNotFound
	}
	if err != nil {
		return models.Video{}, storageErr("get video", err)
	}
	return video, nil
}

func scanVideo(scan func(...any) error) (models.Video, error) {
	var video models.Video
	var classification, dateUploaded, tagNames string
	err := scan(
		&video.ID,
		&video.Name,
		&classification,
		&video.FileName,
		&video.UploaderID,
		&video.Uploader.Email,
		&dateUploaded,
		&tagNames,
	)
	if err != nil {
		return models.Video{}, err
	}

	video.Classification = models.Classification(classification)
	video.Uploader.ID = video.UploaderID
	video.DateUploaded, err = time.Parse(time.RFC3339, dateUploaded)
	if err != nil {
		return models.Video{}, fmt.Errorf("parse date_uploaded: %w", err)
	}

	video.Tags = []string{}
	if tagNames != "" {
		video.Tags = strings.Split(tagNames, tagSep)
	}
	return video, nil
}

// Delete removes the video and all its tag associations in one transaction
// and returns the stored asset file name so the caller can drop the binary.
// The tags themselves are retained.
func (c *Catalog) Delete(ctx context.Context, videoID string) (string, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return "", storageErr("delete video", err)
	}
	defer tx.Rollback()

	var fileName string
	err = tx.QueryRowContext(ctx, "SELECT file_name FROM videos WHERE id = ?", videoID).
		Scan(&fileName)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrVideoNotFound
	}
	if err != nil {
		return "", storageErr("delete video", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM video_tags WHERE video_id = ?", videoID); err != nil {
		return "", storageErr("delete video", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM videos WHERE id = ?", videoID); err != nil {
		return "", storageErr("delete video", err)
	}

	if err := tx.Commit(); err != nil {
		return "", storageErr("delete video", err)
	}
	return fileName, nil
}

// AttachTag associates tagName with the video, creating the tag on first
// use. Attaching an already-attached tag is a no-op.
func (c *Catalog) AttachTag(ctx context.Context, videoID, tagName string) error {
	if err := validateTagName(tagName); err != nil {
		return err
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("attach tag", err)
	}
	defer tx.Rollback()

	if err := videoExists(ctx, tx, videoID); err != nil {
		return err
	}

	tag, err := ensureTag(ctx, tx, tagName)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO video_tags (video_id, tag_id) VALUES (?, ?)
	`, videoID, tag.ID)
	if err != nil {
		return storageErr("attach tag", err)
	}

	if err := tx.Commit(); err != nil {
		return storageErr("attach tag", err)
	}
	return nil
}

// DetachTag removes the association between the video and tagName. A missing
// association is treated as success so UI retries stay safe; a missing video
// or tag is a not-found error.
func (c *Catalog) DetachTag(ctx context.Context, videoID, tagName string) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("detach tag", err)
	}
	defer tx.Rollback()

	if err := videoExists(ctx, tx, videoID); err != nil {
		return err
	}

	var tagID string
	err = tx.QueryRowContext(ctx, "SELECT id FROM tags WHERE name = ?", tagName).Scan(&tagID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrTagNotFound
	}
	if err != nil {
		return storageErr("detach tag", err)
	}

	_, err = tx.ExecContext(ctx,
		"DELETE FROM video_tags WHERE video_id = ? AND tag_id = ?", videoID, tagID)
	if err != nil {
		return storageErr("detach tag", err)
	}

	if err := tx.Commit(); err != nil {
		return storageErr("detach tag", err)
	}
	return nil
}

func videoExists(ctx context.Context, db dbtx, videoID string) error {
	var one int
	err := db.QueryRowContext(ctx, "SELECT 1 FROM videos WHERE id = ?", videoID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrVideoNotFound
	}
	if err != nil {
		return storageErr("lookup video", err)
	}
	return nil
}
