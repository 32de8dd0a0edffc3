package service

import (
	"context"
	"testing"
	"time"

	"filedrop-backend/internal/auth"
	"filedrop-backend/internal/models"
	"filedrop-backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newUserService(t *testing.T) (*UserService, *repository.InMemoryStore, *auth.TokenService) {
	t.Helper()
	store := repository.NewInMemoryStore()
	tokens, err := auth.NewTokenService("test-secret", 0)
	require.NoError(t, err)
	svc := NewUserService(store, tokens, 30*time.Minute)
	svc.bcryptCost = bcrypt.MinCost
	return svc, store, tokens
}

func TestRegister_Duplicate(t *testing.T) {
	svc, _, _ := newUserService(t)
	ctx := context.Background()

	first, err := svc.Register(ctx, "alice", "pw1")
	require.NoError(t, err)
	assert.NotZero(t, first.ID)
	assert.NotEqual(t, "pw1", first.PasswordHash)

	_, err = svc.Register(ctx, "alice", "other")
	assert.ErrorIs(t, err, ErrDuplicateUsername)

	again, err := svc.Authenticate(ctx, "alice", "pw1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
}

// blindStore hides existing users from the pre-check so the unique
// constraint of the store is what rejects the duplicate.
type blindStore struct {
	*repository.InMemoryStore
}

func (b blindStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return nil, repository.ErrNotFound
}

func TestRegister_StoreConstraintIsAuthoritative(t *testing.T) {
	store := repository.NewInMemoryStore()
	tokens, err := auth.NewTokenService("test-secret", 0)
	require.NoError(t, err)
	svc := NewUserService(blindStore{store}, tokens, time.Minute)
	svc.bcryptCost = bcrypt.MinCost
	ctx := context.Background()

	_, err = svc.Register(ctx, "bob", "pw")
	require.NoError(t, err)
	_, err = svc.Register(ctx, "bob", "pw")
	assert.ErrorIs(t, err, ErrDuplicateUsername)
}

func TestRegister_Validation(t *testing.T) {
	svc, _, _ := newUserService(t)
	ctx := context.Background()

	for _, tc := range []struct{ user, pass string }{
		{"", "pw"},
		{"   ", "pw"},
		{"carol", ""},
	} {
		_, err := svc.Register(ctx, tc.user, tc.pass)
		assert.ErrorIs(t, err, ErrBadRequest, "%q/%q", tc.user, tc.pass)
	}
}

func TestAuthenticate(t *testing.T) {
	svc, _, _ := newUserService(t)
	ctx := context.Background()

	pairs := map[string]string{
		"alice": "pw1",
		"bob":   "correct horse battery staple",
		"émile": "pässwörd",
	}
	for u, p := range pairs {
		_, err := svc.Register(ctx, u, p)
		require.NoError(t, err)
	}

	for u, p := range pairs {
		user, err := svc.Authenticate(ctx, u, p)
		require.NoError(t, err, u)
		assert.Equal(t, u, user.Username)

		_, err = svc.Authenticate(ctx, u, p+"x")
		assert.ErrorIs(t, err, ErrInvalidCredentials, u)
	}

	_, err := svc.Authenticate(ctx, "nobody", "pw1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginAndResolve(t *testing.T) {
	svc, _, _ := newUserService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, "alice", "pw1")
	require.NoError(t, err)

	token, err := svc.Login(ctx, "alice", "pw1")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	user, err := svc.Resolve(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)

	_, err = svc.Login(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestResolve_Failures(t *testing.T) {
	svc, _, tokens := newUserService(t)
	ctx := context.Background()

	_, err := svc.Resolve(ctx, "garbage")
	assert.ErrorIs(t, err, ErrUnauthorized)

	// Valid signature, but the subject was never registered.
	ghost, _, err := tokens.Issue("ghost", time.Minute)
	require.NoError(t, err)
	_, err = svc.Resolve(ctx, ghost)
	assert.ErrorIs(t, err, ErrUnauthorized)

	other, err := auth.NewTokenService("other-secret", 0)
	require.NoError(t, err)
	_, err = svc.Register(ctx, "alice", "pw1")
	require.NoError(t, err)
	forged, _, err := other.Issue("alice", time.Minute)
	require.NoError(t, err)
	_, err = svc.Resolve(ctx, forged)
	assert.ErrorIs(t, err, ErrUnauthorized)
}
