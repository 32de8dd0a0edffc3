package api

import (
	"context"
	"net/http"
	"strings"

	"filedrop-backend/internal/models"
)

// contextKey is a private type to avoid key collisions in the request context.
type contextKey string

const userContextKey = contextKey("user")

// AuthMiddleware resolves the bearer token to a user. Every failure gets the
// same 401 so callers cannot tell a bad signature from an unknown user.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok {
			h.respondUnauthorized(w, "Could not validate credentials")
			return
		}

		user, err := h.userService.Resolve(r.Context(), token)
		if err != nil {
			h.respondWithServiceError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// userFromContext returns the user stored by AuthMiddleware.
func userFromContext(ctx context.Context) *models.User {
	user, _ := ctx.Value(userContextKey).(*models.User)
	return user
}
