package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/airlog/airlog/internal/api/models"
	"github.com/airlog/airlog/internal/auth"
)

type identityKey struct{}

// TokenValidator verifies a bearer token and returns the caller identity.
type TokenValidator interface {
	ValidateAccessToken(token string) (*auth.Identity, error)
}

// Auth rejects requests without a valid bearer token and stores the caller
// identity in the request context.
func Auth(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeProblem(w, r, models.NewUnauthorized(GetRequestID(r.Context()), "missing authorization header"))
				return
			}

			const bearerPrefix = "Bearer "
			if len(authHeader) < len(bearerPrefix) ||
				!strings.EqualFold(authHeader[:len(bearerPrefix)], bearerPrefix) {
				writeProblem(w, r, models.NewUnauthorized(GetRequestID(r.Context()), "invalid authorization header format"))
				return
			}

			tokenString := strings.TrimSpace(authHeader[len(bearerPrefix):])
			if tokenString == "" {
				writeProblem(w, r, models.NewUnauthorized(GetRequestID(r.Context()), "missing bearer token"))
				return
			}

			identity, err := validator.ValidateAccessToken(tokenString)
			if err != nil {
				detail := "authentication failed"
				switch {
				case errors.Is(err, auth.ErrAccessTokenExpired):
					detail = "access token has expired"
				case errors.Is(err, auth.ErrInvalidAccessToken):
					detail = "invalid access token"
				}
				writeProblem(w, r, models.NewUnauthorized(GetRequestID(r.Context()), detail))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// RequireRole rejects authenticated callers whose role does not match.
// It must run after Auth.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := GetIdentity(r.Context())
			if identity == nil {
				writeProblem(w, r, models.NewUnauthorized(GetRequestID(r.Context()), "authentication required"))
				return
			}
			if identity.Role != role {
				writeProblem(w, r, models.NewForbidden(GetRequestID(r.Context()), "restricted to "+role+" users only"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// writeProblem writes a problem without importing the response package,
// which depends on this one.
func writeProblem(w http.ResponseWriter, r *http.Request, problem *models.Problem) {
	problem.Instance = r.URL.Path
	problem.Write(w)
}

// WithIdentity returns a copy of ctx carrying the caller identity.
func WithIdentity(ctx context.Context, identity *auth.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// GetIdentity returns the authenticated caller, or nil.
func GetIdentity(ctx context.Context) *auth.Identity {
	identity, _ := ctx.Value(identityKey{}).(*auth.Identity)
	return identity
}

// GetUserID returns the authenticated user ID, or an empty string.
func GetUserID(ctx context.Context) string {
	if identity := GetIdentity(ctx); identity != nil {
		return identity.UserID
	}
	return ""
}
