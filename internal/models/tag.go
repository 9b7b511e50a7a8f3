package models

// Tag is a catalog-wide label. Names are unique and case-sensitive; tags are
// created on first use and never deleted, so the vocabulary stays stable even
// when a tag's last video goes away.
type Tag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
