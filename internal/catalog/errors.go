package catalog

import (
	"errors"
	"fmt"
)

var (
	// validation errors, detected before any mutation
	ErrInvalidClassification = errors.New("invalid classification")
	ErrInvalidVideoName      = errors.New("invalid video name")
	ErrInvalidTagName        = errors.New("invalid tag name")

	// lookup errors
	ErrVideoNotFound = errors.New("video not found")
	ErrTagNotFound   = errors.New("tag not found")

	// ErrStorageUnavailable wraps every failure of the underlying database.
	// It is always surfaced to the caller; the catalog never retries.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, ErrStorageUnavailable, err)
}
