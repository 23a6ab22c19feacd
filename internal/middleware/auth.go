package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"blog-api/internal/domain"
	"blog-api/internal/observability"
	"blog-api/internal/security"
)

type contextKey string

const (
	UserKey   contextKey = "user"
	ClaimsKey contextKey = "claims"
)

// Authenticator resolves a bearer token to its user
type Authenticator interface {
	Authenticate(ctx context.Context, bearer string) (*domain.User, *security.AccessClaims, error)
}

// Auth rejects requests without a valid bearer access token
func Auth(authn Authenticator) func(http.Handler) http.Handler {
	return authenticate(authn, true)
}

// OptionalAuth identifies the caller when a bearer token is sent and lets
// anonymous requests through. A bad token is still rejected.
func OptionalAuth(authn Authenticator) func(http.Handler) http.Handler {
	return authenticate(authn, false)
}

func authenticate(authn Authenticator, required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			bearer, ok := bearerToken(r)
			if !ok {
				if !required {
					next.ServeHTTP(w, r)
					return
				}
				w.Header().Set("WWW-Authenticate", "Bearer")
				writeError(w, r, http.StatusUnauthorized, "Not authenticated")
				return
			}

			user, claims, err := authn.Authenticate(r.Context(), bearer)
			switch {
			case errors.Is(err, domain.ErrInactiveUser):
				writeError(w, r, http.StatusForbidden, "Inactive user")
				return
			case errors.Is(err, security.ErrInvalidAccessToken):
				w.Header().Set("WWW-Authenticate", "Bearer")
				writeError(w, r, http.StatusUnauthorized, "Could not validate credentials")
				return
			case err != nil:
				observability.FromContext(r.Context()).Error("authentication failed",
					slog.String("error", err.Error()))
				writeError(w, r, http.StatusInternalServerError, "Internal server error")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user, claims)))
		})
	}
}

// RequireScopes rejects tokens that were not granted every listed scope.
// It must run after Auth.
func RequireScopes(scopes ...string) func(http.Handler) http.Handler {
	challenge := `Bearer scope="` + strings.Join(scopes, " ") + `"`
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				w.Header().Set("WWW-Authenticate", "Bearer")
				writeError(w, r, http.StatusUnauthorized, "Not authenticated")
				return
			}
			for _, scope := range scopes {
				if !claims.HasScope(scope) {
					w.Header().Set("WWW-Authenticate", challenge)
					writeError(w, r, http.StatusForbidden, "Not enough permissions")
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func UserFromContext(ctx context.Context) (*domain.User, bool) {
	user, ok := ctx.Value(UserKey).(*domain.User)
	return user, ok
}

func ClaimsFromContext(ctx context.Context) (*security.AccessClaims, bool) {
	claims, ok := ctx.Value(ClaimsKey).(*security.AccessClaims)
	return claims, ok
}

// WithUser stores the authenticated user and its token claims
func WithUser(ctx context.Context, user *domain.User, claims *security.AccessClaims) context.Context {
	ctx = context.WithValue(ctx, UserKey, user)
	ctx = context.WithValue(ctx, ClaimsKey, claims)
	return observability.WithUserID(ctx, user.ID)
}
