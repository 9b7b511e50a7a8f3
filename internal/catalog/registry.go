package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"video-catalog-api/internal/models"

	"github.com/google/uuid"
)

// MaxTagNameLen caps tag names; anything longer fails with ErrInvalidTagName.
const MaxTagNameLen = 64

// dbtx is satisfied by both *sql.DB and *sql.Tx so registry lookups can run
// inside a catalog transaction.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// TagRegistry owns the set of distinct tag names. Tags are created on first
// use and never deleted; names are unique and compared case-sensitively with
// no normalization.
type TagRegistry struct {
	db *sql.DB
}

func NewTagRegistry(db *sql.DB) *TagRegistry {
	return &TagRegistry{db: db}
}

// EnsureTag returns the tag with exactly this name, creating it if absent.
// Repeated and concurrent calls with the same name yield the same single tag:
// the insert is a no-op on conflict and the follow-up select reads whichever
// row won.
func (r *TagRegistry) EnsureTag(ctx context.Context, name string) (models.Tag, error) {
	return ensureTag(ctx, r.db, name)
}

func ensureTag(ctx context.Context, db dbtx, name string) (models.Tag, error) {
	if err := validateTagName(name); err != nil {
		return models.Tag{}, err
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO tags (id, name) VALUES (?, ?)
		ON CONFLICT(name) DO NOTHING
	`, uuid.New().String(), name)
	if err != nil {
		return models.Tag{}, storageErr("ensure tag", err)
	}

	var tag models.Tag
	err = db.QueryRowContext(ctx, "SELECT id, name FROM tags WHERE name = ?", name).
		Scan(&tag.ID, &tag.Name)
	if err != nil {
		return models.Tag{}, storageErr("ensure tag", err)
	}
	return tag, nil
}

// ListTags returns a snapshot of every known tag. No ordering is promised;
// callers sort for display.
func (r *TagRegistry) ListTags(ctx context.Context) ([]models.Tag, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name FROM tags ORDER BY name")
	if err != nil {
		return nil, storageErr("list tags", err)
	}
	defer rows.Close()

	var tags []models.Tag
	for rows.Next() {
		var tag models.Tag
		if err := rows.Scan(&tag.ID, &tag.Name); err != nil {
			return nil, storageErr("list tags", err)
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list tags", err)
	}
	return tags, nil
}

func validateTagName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name is empty", ErrInvalidTagName)
	}
	if len(name) > MaxTagNameLen {
		return fmt.Errorf("%w: name exceeds %d bytes", ErrInvalidTagName, MaxTagNameLen)
	}
	return nil
}
