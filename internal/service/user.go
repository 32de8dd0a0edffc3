package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"filedrop-backend/internal/auth"
	"filedrop-backend/internal/logger"
	"filedrop-backend/internal/models"
	"filedrop-backend/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

// dummyHash is compared against when the username is unknown so that a
// failed login costs one bcrypt comparison either way.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("filedrop-dummy-password"), bcrypt.DefaultCost)

// UserService handles registration, login and token resolution.
type UserService struct {
	store        repository.UserStore
	tokenService *auth.TokenService
	tokenTTL     time.Duration
	bcryptCost   int
}

// NewUserService creates a user service. tokenTTL is the lifetime of tokens issued by Login.
func NewUserService(store repository.UserStore, tokenService *auth.TokenService, tokenTTL time.Duration) *UserService {
	return &UserService{
		store:        store,
		tokenService: tokenService,
		tokenTTL:     tokenTTL,
		bcryptCost:   bcrypt.DefaultCost,
	}
}

// Register creates a new user.
func (s *UserService) Register(ctx context.Context, username, password string) (*models.User, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", ErrBadRequest)
	}

	// Fast path only; the unique index is what actually rejects duplicates.
	if _, err := s.store.GetUserByUsername(ctx, username); err == nil {
		return nil, ErrDuplicateUsername
	} else if !errors.Is(err, repository.ErrNotFound) {
		logger.Err("register: lookup of %q failed: %v", username, err)
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		logger.Err("register: bcrypt failed: %v", err)
		return nil, fmt.Errorf("%w: could not process password", ErrBadRequest)
	}

	user := &models.User{
		Username:     username,
		PasswordHash: string(hash),
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateUsername) {
			return nil, ErrDuplicateUsername
		}
		logger.Err("register: saving user %q failed: %v", username, err)
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	logger.LogV("registered user %q (id=%d)", user.Username, user.ID)
	return user, nil
}

// Authenticate checks username and password. Unknown users and wrong
// passwords both yield ErrInvalidCredentials.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			logger.Err("authenticate: lookup of %q failed: %v", username, err)
			return nil, fmt.Errorf("%w: %w", ErrStorage, err)
		}
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		logger.LogV("authenticate: unknown user %q", username)
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		logger.LogV("authenticate: password mismatch for %q", username)
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// Login authenticates the user and issues an access token.
func (s *UserService) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return "", err
	}

	token, _, err := s.tokenService.Issue(user.Username, s.tokenTTL)
	if err != nil {
		logger.Err("login: issuing token failed: %v", err)
		return "", fmt.Errorf("%w: could not issue token", ErrStorage)
	}
	return token, nil
}

// Resolve returns the user owning token. Every failure is ErrUnauthorized.
func (s *UserService) Resolve(ctx context.Context, token string) (*models.User, error) {
	username, err := s.tokenService.Verify(token)
	if err != nil {
		logger.LogV("resolve: %v", err)
		return nil, ErrUnauthorized
	}

	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			logger.Err("resolve: lookup of %q failed: %v", username, err)
		}
		return nil, ErrUnauthorized
	}
	return user, nil
}
