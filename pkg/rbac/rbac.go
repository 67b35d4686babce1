// Package rbac guards routes by the role carried in the auth token.
package rbac

import (
	"net/http"
	"slices"

	"github.com/shashiranjanraj/shopfront/pkg/logger"
	"github.com/shashiranjanraj/shopfront/pkg/middleware"
	"github.com/shashiranjanraj/shopfront/pkg/response"
)

// HasRole lets a request through only when the caller's role is listed.
// It must be mounted after middleware.Auth; without an identity the
// request is refused.
func HasRole(roles ...string) func(http.Handler) http.Handler {
	roles = slices.Clone(roles)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, _ := middleware.RoleFromCtx(r)
			if role == "" || !slices.Contains(roles, role) {
				userID, _ := middleware.UserIDFromCtx(r)
				logger.WithCtx(r.Context()).Info("rbac: access denied",
					"user_id", userID, "role", role, "path", r.URL.Path)
				response.Forbidden(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
