package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"
	"time"

	"filedrop-backend/internal/logger"
	"filedrop-backend/internal/models"
	"filedrop-backend/internal/repository"
	"filedrop-backend/internal/storage"

	"github.com/google/uuid"
)

// FileService streams file content to storage and keeps the metadata records.
type FileService struct {
	store   repository.FileStore
	storage storage.Storage
	now     func() time.Time
}

// NewFileService creates a file service.
func NewFileService(store repository.FileStore, st storage.Storage) *FileService {
	return &FileService{
		store:   store,
		storage: st,
		now:     time.Now,
	}
}

// objectKey places p inside the owner's storage namespace, so one user's
// paths never collide with another's.
func objectKey(ownerID int64, p string) string {
	return path.Join(strconv.FormatInt(ownerID, 10), p)
}

// Upload stores body as filename inside dir and records its metadata for owner.
// A metadata record is created only when the whole body was stored.
func (s *FileService) Upload(ctx context.Context, owner *models.User, dir, filename string, body io.Reader) (*models.File, error) {
	// 1. Build the owner-relative path; dir may not escape the owner's root
	rel, err := storage.Key(dir, filename)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid path or file name", ErrBadRequest)
	}
	name := path.Base(rel)

	// 2. Fresh identifier, also used to make the path unique on collision
	id := uuid.New()

	// 3. Stream to storage
	key := objectKey(owner.ID, rel)
	size, err := s.storage.Put(ctx, key, body)
	if errors.Is(err, storage.ErrExists) {
		rel = path.Join(path.Dir(rel), id.String()+"-"+name)
		key = objectKey(owner.ID, rel)
		size, err = s.storage.Put(ctx, key, body)
	}
	if err != nil {
		if errors.Is(err, storage.ErrInvalidKey) {
			return nil, fmt.Errorf("%w: invalid path or file name", ErrBadRequest)
		}
		logger.Err("upload %s for user %d failed: %v", key, owner.ID, err)
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	// 4. Record metadata with the size measured by storage
	file := &models.File{
		ID:             id,
		Name:           name,
		CreatedAt:      s.now().UTC(),
		Path:           rel,
		Size:           size,
		IsDownloadable: true,
		OwnerID:        owner.ID,
	}

	if err := s.store.CreateFile(ctx, file); err != nil {
		logger.Err("recording upload %s for user %d failed: %v", key, owner.ID, err)
		if rmErr := s.storage.Remove(context.WithoutCancel(ctx), key); rmErr != nil {
			logger.Warn("removing unrecorded upload %s failed: %v", key, rmErr)
		}
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	logger.LogV("user %d uploaded %s (%d bytes) as %s", owner.ID, key, size, id)
	return file, nil
}

// Open resolves a file by id, or by path when id is empty, and opens its
// content. Files of other users are reported as ErrNotFound.
func (s *FileService) Open(ctx context.Context, owner *models.User, fileID, filePath string) (*models.File, io.ReadCloser, error) {
	if fileID == "" && filePath == "" {
		return nil, nil, fmt.Errorf("%w: file_meta_id or path is required", ErrBadRequest)
	}

	file, err := s.lookup(ctx, owner.ID, fileID, filePath)
	if err != nil {
		return nil, nil, err
	}

	if file.OwnerID != owner.ID || !file.IsDownloadable {
		return nil, nil, ErrNotFound
	}

	key := objectKey(file.OwnerID, file.Path)
	rc, err := s.storage.Open(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			logger.Warn("file %s has metadata but no content at %s", file.ID, key)
			return nil, nil, ErrNotFound
		}
		logger.Err("opening %s failed: %v", key, err)
		return nil, nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	return file, rc, nil
}

func (s *FileService) lookup(ctx context.Context, ownerID int64, fileID, filePath string) (*models.File, error) {
	var (
		file *models.File
		err  error
	)
	if fileID != "" {
		id, parseErr := uuid.Parse(fileID)
		if parseErr != nil {
			return nil, ErrNotFound
		}
		file, err = s.store.GetFileByID(ctx, id)
	} else {
		file, err = s.store.GetFileByPath(ctx, ownerID, strings.TrimLeft(path.Clean(filePath), "/"))
	}

	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		logger.Err("file lookup failed: %v", err)
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return file, nil
}

// List returns the metadata of every file owned by owner, oldest first.
func (s *FileService) List(ctx context.Context, owner *models.User) ([]*models.File, error) {
	files, err := s.store.GetFilesByOwnerID(ctx, owner.ID)
	if err != nil {
		logger.Err("listing files of user %d failed: %v", owner.ID, err)
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return files, nil
}
