package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/shashiranjanraj/shopfront/pkg/auth"
	"github.com/shashiranjanraj/shopfront/pkg/logger"
	"github.com/shashiranjanraj/shopfront/pkg/response"
)

type identityKey struct{}

type identity struct {
	userID uint
	role   string
}

// WithIdentity stores the authenticated user on ctx.
func WithIdentity(ctx context.Context, userID uint, role string) context.Context {
	return context.WithValue(ctx, identityKey{}, identity{userID: userID, role: role})
}

// UserIDFromCtx returns the authenticated user id.
func UserIDFromCtx(r *http.Request) (uint, bool) {
	id, ok := r.Context().Value(identityKey{}).(identity)
	return id.userID, ok && id.userID != 0
}

// RoleFromCtx returns the authenticated user's role.
func RoleFromCtx(r *http.Request) (string, bool) {
	id, ok := r.Context().Value(identityKey{}).(identity)
	return id.role, ok
}

// Auth requires a valid "Authorization: Bearer <jwt>" header and puts the
// token's user id and role on the request context.
func Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !found || strings.TrimSpace(token) == "" {
			response.Unauthorized(w, "Unauthenticated.")
			return
		}

		claims, err := auth.ValidateToken(strings.TrimSpace(token))
		if err != nil {
			logger.WithCtx(r.Context()).Debug("auth: token rejected", "error", err)
			response.Unauthorized(w, "Invalid or expired token.")
			return
		}

		ctx := WithIdentity(r.Context(), claims.UserID, claims.Role)
		ctx = logger.InjectLogger(ctx, logger.WithCtx(ctx).With("user_id", claims.UserID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
