package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func newTestService(t *testing.T) (*TokenService, *fakeClock) {
	t.Helper()
	svc, err := NewTokenService("test-secret", 0)
	require.NoError(t, err)
	clock := &fakeClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	svc.now = clock.Now
	return svc, clock
}

func TestNewTokenService_EmptySecret(t *testing.T) {
	_, err := NewTokenService("", time.Minute)
	assert.Error(t, err)
}

func TestIssueAndVerify(t *testing.T) {
	svc, _ := newTestService(t)

	tok, exp, err := svc.Issue("alice", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 13, 0, 0, 0, time.UTC), exp)

	sub, err := svc.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "alice", sub)
}

func TestIssue_DefaultTTL(t *testing.T) {
	svc, clock := newTestService(t)

	_, exp, err := svc.Issue("alice", 0)
	require.NoError(t, err)
	assert.Equal(t, clock.t.Add(DefaultTTL), exp)
}

func TestVerify_Expiry(t *testing.T) {
	svc, clock := newTestService(t)

	tok, _, err := svc.Issue("alice", time.Minute)
	require.NoError(t, err)

	clock.t = clock.t.Add(30 * time.Second)
	sub, err := svc.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "alice", sub)

	clock.t = clock.t.Add(2 * time.Minute)
	_, err = svc.Verify(tok)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestVerify_Tampered(t *testing.T) {
	svc, _ := newTestService(t)

	tok, _, err := svc.Issue("alice", time.Hour)
	require.NoError(t, err)

	parts := strings.Split(tok, ".")
	require.Len(t, parts, 3)

	payload := []byte(parts[1])
	for i := range payload {
		tampered := make([]byte, len(payload))
		copy(tampered, payload)
		if tampered[i] == 'A' {
			tampered[i] = 'B'
		} else {
			tampered[i] = 'A'
		}
		forged := parts[0] + "." + string(tampered) + "." + parts[2]

		_, err := svc.Verify(forged)
		assert.ErrorIs(t, err, ErrInvalidToken, "byte %d", i)
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	svc, _ := newTestService(t)
	other, err := NewTokenService("another-secret", 0)
	require.NoError(t, err)
	other.now = svc.now

	tok, _, err := other.Issue("alice", time.Hour)
	require.NoError(t, err)

	_, err = svc.Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_Malformed(t *testing.T) {
	svc, _ := newTestService(t)

	for _, tok := range []string{"", "abc", "a.b.c", "Bearer x.y.z"} {
		_, err := svc.Verify(tok)
		assert.ErrorIs(t, err, ErrInvalidToken, tok)
	}
}

func TestVerify_RejectsNoneAlgorithm(t *testing.T) {
	svc, clock := newTestService(t)

	claims := jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(clock.t.Add(time.Hour)),
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = svc.Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_MissingSubjectOrExpiry(t *testing.T) {
	svc, clock := newTestService(t)

	noSub, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(clock.t.Add(time.Hour)),
	}).SignedString(svc.jwtSecret)
	require.NoError(t, err)
	_, err = svc.Verify(noSub)
	assert.ErrorIs(t, err, ErrInvalidToken)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: "alice",
	}).SignedString(svc.jwtSecret)
	require.NoError(t, err)
	_, err = svc.Verify(noExp)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
