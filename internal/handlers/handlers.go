package handlers

import (
	"database/sql"

	"video-catalog-api/internal/catalog"
	"video-catalog-api/internal/storage"
)

var (
	cat    *catalog.Catalog
	assets *storage.Store
)

// Init wires the handlers to their collaborators. Called once from main, and
// from tests with their own database and asset store.
func Init(db *sql.DB, store *storage.Store) {
	cat = catalog.New(db)
	assets = store
}
