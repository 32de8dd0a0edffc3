package models

import (
	"time"

	"github.com/google/uuid"
)

// User is a registered account.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"` // never exposed in JSON
	CreatedAt    time.Time `json:"created_at"`
}

// File is the metadata record of an uploaded file. Path is the storage key
// relative to the storage root, never an absolute host path.
type File struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	CreatedAt      time.Time `json:"created_at"`
	Path           string    `json:"path"`
	Size           int64     `json:"size"`
	IsDownloadable bool      `json:"is_downloadable"`
	OwnerID        int64     `json:"-"`
}
