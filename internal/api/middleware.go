/**
 * @description
 * Session middleware. A valid bearer token puts the caller's user
 * descriptor on the request context.
 */

package api

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/kioskpay/kioskpay/internal/domain"
)

type userContextKey string

const sessionUserKey userContextKey = "sessionUser"

// SessionMiddleware rejects requests without a valid session token.
func SessionMiddleware(sessions *Sessions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeError(w, http.StatusUnauthorized, "Authorization header required")
				return
			}
			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader {
				writeError(w, http.StatusUnauthorized, "Invalid Authorization header format")
				return
			}

			user, err := sessions.Parse(tokenString)
			if err != nil {
				log.Printf("level=warn component=api msg=\"session rejected\" path=%s err=%v", r.URL.Path, err)
				writeError(w, http.StatusUnauthorized, "Invalid or expired session")
				return
			}

			ctx := context.WithValue(r.Context(), sessionUserKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin only lets admin sessions through.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := SessionUser(r.Context())
		if !ok || user.Kind != domain.AccountAdmin {
			writeError(w, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SessionUser returns the authenticated user from ctx.
func SessionUser(ctx context.Context) (domain.UserDescriptor, bool) {
	user, ok := ctx.Value(sessionUserKey).(domain.UserDescriptor)
	return user, ok
}

func actorFrom(r *http.Request) (domain.Actor, bool) {
	user, ok := SessionUser(r.Context())
	if !ok {
		return domain.Actor{}, false
	}
	return domain.ActorFromDescriptor(user), true
}
