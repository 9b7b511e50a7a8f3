package models

import "time"

// Video is a catalog entry for a fully-processed upload. Uploader and Tags
// are denormalized for display: the uploader's email and the tag name set
// resolved at read time.
type Video struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Classification Classification `json:"type"`
	FileName       string         `json:"file_name"`
	UploaderID     string         `json:"uploaderId"`
	Uploader       Uploader       `json:"uploader"`
	DateUploaded   time.Time      `json:"dateUploaded"`
	Tags           []string       `json:"tags"`
}

// Uploader is the catalog's view of the account that owns a video. The
// record itself belongs to the auth layer; the catalog only references it.
type Uploader struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}
