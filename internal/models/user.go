package models

import "time"

const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
)

// User is an account in the auth layer. The catalog itself only ever sees
// the Uploader projection (id + email); deactivating a user blocks login but
// leaves their videos in the catalog.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	IsAdmin   bool      `json:"is_admin"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
