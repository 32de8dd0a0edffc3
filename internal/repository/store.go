package repository

import (
	"context"
	"errors"

	"filedrop-backend/internal/models"

	"github.com/google/uuid"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrDuplicateUsername = errors.New("username already exists")
	ErrUnknownOwner      = errors.New("file owner does not exist")
)

// UserStore persists user credentials.
type UserStore interface {
	// CreateUser inserts user and sets its ID and CreatedAt.
	// Returns ErrDuplicateUsername when the username is taken.
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

// FileStore persists file metadata.
type FileStore interface {
	// CreateFile inserts file. Returns ErrUnknownOwner when OwnerID does not reference a user.
	CreateFile(ctx context.Context, file *models.File) error
	// GetFilesByOwnerID lists the owner's files ordered by creation time.
	GetFilesByOwnerID(ctx context.Context, ownerID int64) ([]*models.File, error)
	GetFileByID(ctx context.Context, id uuid.UUID) (*models.File, error)
	// GetFileByPath returns the owner's most recent record stored under path.
	GetFileByPath(ctx context.Context, ownerID int64, path string) (*models.File, error)
}

// Store aggregates every store operation to simplify dependency injection.
type Store interface {
	UserStore
	FileStore
	Ping(ctx context.Context) error
}
