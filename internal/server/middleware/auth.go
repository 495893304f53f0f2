// Package middleware holds the bearer-token authentication middleware.
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

type contextKey struct{}

// ErrNoUser is returned by UserID when the request was not authenticated.
var ErrNoUser = errors.New("user ID not found in request context")

// TokenValidator checks a bearer token. The server's JWT service implements it.
type TokenValidator interface {
	ValidateToken(token string) (UserIDGetter, error)
}

// UserIDGetter exposes the subject of validated claims.
type UserIDGetter interface {
	GetUserID() uuid.UUID
}

// Unauthorized writes the rejection response. It is a variable so the server
// can render its own JSON envelope.
type Unauthorized func(w http.ResponseWriter, r *http.Request, reason string)

func plainUnauthorized(w http.ResponseWriter, _ *http.Request, _ string) {
	http.Error(w, "Unauthorized", http.StatusUnauthorized)
}

// AuthMiddleware rejects requests without a valid "Bearer <token>" header and
// stores the authenticated user ID in the request context.
func AuthMiddleware(tv TokenValidator, reject Unauthorized) func(http.Handler) http.Handler {
	if reject == nil {
		reject = plainUnauthorized
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				reject(w, r, "missing bearer token")
				return
			}
			claims, err := tv.ValidateToken(token)
			if err != nil {
				reject(w, r, "invalid token")
				return
			}
			userID := claims.GetUserID()
			if userID == uuid.Nil {
				reject(w, r, "token has no subject")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

// WithUserID returns ctx carrying userID.
func WithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, contextKey{}, userID)
}

// UserID extracts the authenticated user ID from ctx.
func UserID(ctx context.Context) (uuid.UUID, error) {
	id, ok := ctx.Value(contextKey{}).(uuid.UUID)
	if !ok {
		return uuid.Nil, ErrNoUser
	}
	return id, nil
}
