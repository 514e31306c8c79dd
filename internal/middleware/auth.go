package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/platebook/platebook-go/internal/crypto"
	"github.com/platebook/platebook-go/internal/model"
	"github.com/platebook/platebook-go/internal/repository"
)

type contextKey string

const claimsKey contextKey = "claims"

// UserFinder re-confirms that a token subject still exists in the store.
type UserFinder interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
}

// Authenticate returns middleware that authenticates requests from the
// access-token cookie. The token subject is looked up in the store on
// every request so tokens of deleted users stop working immediately;
// that one lookup per request is the price of stateless tokens.
//
// On success the token claims are attached to the request context. On any
// failure the wrapped handler is never invoked.
func Authenticate(cookieName, jwtSecret string, users UserFinder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(cookieName)
			if err != nil || cookie.Value == "" {
				writeError(w, http.StatusUnauthorized, "Authentication required")
				return
			}

			claims, err := crypto.ValidateToken(cookie.Value, jwtSecret, crypto.TokenKindAccess)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			if _, err := users.GetByID(r.Context(), claims.UserID); err != nil {
				if errors.Is(err, repository.ErrUserNotFound) {
					writeError(w, http.StatusUnauthorized, "User not found")
					return
				}
				writeError(w, http.StatusInternalServerError, "Authentication failed")
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole returns middleware that rejects authenticated requests whose
// token role does not match. It must run after Authenticate.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "Authentication required")
				return
			}
			if claims.Role != role {
				writeError(w, http.StatusForbidden, "Forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClaimsFromContext extracts the authenticated token claims from the
// request context.
func ClaimsFromContext(ctx context.Context) (*crypto.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*crypto.Claims)
	return claims, ok
}

// ContextWithClaims attaches claims to a context; handler tests use it to
// exercise protected handlers without running the full middleware chain.
func ContextWithClaims(ctx context.Context, claims *crypto.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"success": false, "message": msg})
}
