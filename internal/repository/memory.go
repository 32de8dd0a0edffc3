package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"filedrop-backend/internal/models"

	"github.com/google/uuid"
)

// InMemoryStore is an in-memory Store with the same constraint behaviour as
// the Postgres schema (unique usernames, file owner foreign key).
type InMemoryStore struct {
	mu              sync.RWMutex
	nextUserID      int64
	usersByID       map[int64]*models.User
	usersByUsername map[string]*models.User
	filesByID       map[uuid.UUID]*models.File
	filesByOwner    map[int64][]*models.File
}

// NewInMemoryStore creates an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		usersByID:       make(map[int64]*models.User),
		usersByUsername: make(map[string]*models.User),
		filesByID:       make(map[uuid.UUID]*models.File),
		filesByOwner:    make(map[int64][]*models.File),
	}
}

func (s *InMemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

// --- UserStore ---

func (s *InMemoryStore) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.usersByUsername[user.Username]; exists {
		return ErrDuplicateUsername
	}

	s.nextUserID++
	user.ID = s.nextUserID
	user.CreatedAt = time.Now().UTC()

	stored := *user
	s.usersByID[stored.ID] = &stored
	s.usersByUsername[stored.Username] = &stored
	return nil
}

func (s *InMemoryStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, exists := s.usersByUsername[username]
	if !exists {
		return nil, ErrNotFound
	}
	u := *user
	return &u, nil
}

func (s *InMemoryStore) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, exists := s.usersByID[id]
	if !exists {
		return nil, ErrNotFound
	}
	u := *user
	return &u, nil
}

// --- FileStore ---

func (s *InMemoryStore) CreateFile(ctx context.Context, file *models.File) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.usersByID[file.OwnerID]; !exists {
		return ErrUnknownOwner
	}

	stored := *file
	s.filesByID[stored.ID] = &stored
	s.filesByOwner[stored.OwnerID] = append(s.filesByOwner[stored.OwnerID], &stored)
	return nil
}

func (s *InMemoryStore) GetFilesByOwnerID(ctx context.Context, ownerID int64) ([]*models.File, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	owned := s.filesByOwner[ownerID]
	files := make([]*models.File, 0, len(owned))
	for _, f := range owned {
		c := *f
		files = append(files, &c)
	}
	sort.SliceStable(files, func(i, j int) bool {
		return files[i].CreatedAt.Before(files[j].CreatedAt)
	})
	return files, nil
}

func (s *InMemoryStore) GetFileByID(ctx context.Context, id uuid.UUID) (*models.File, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	file, exists := s.filesByID[id]
	if !exists {
		return nil, ErrNotFound
	}
	f := *file
	return &f, nil
}

func (s *InMemoryStore) GetFileByPath(ctx context.Context, ownerID int64, path string) (*models.File, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *models.File
	for _, f := range s.filesByOwner[ownerID] {
		if f.Path != path {
			continue
		}
		if latest == nil || f.CreatedAt.After(latest.CreatedAt) {
			latest = f
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	f := *latest
	return &f, nil
}
