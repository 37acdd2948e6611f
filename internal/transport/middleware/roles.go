package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/document-repository/internal"
)

// RequireRoles permits only authenticated users whose role name is in the
// given set. RequireRoles("Admin") is the admin guard; the broader
// management guard passes Admin and Director.
func RequireRoles(logger *slog.Logger, roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := internal.UserFromContext(r.Context())
			if !ok || user == nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]string{
					"message":  "Acceso restringido al Repositorio de Dirección.",
					"redirect": "/login",
				})
				return
			}

			if !user.HasAnyRole(roles...) {
				logger.Warn("access denied: insufficient role",
					"user_id", user.ID,
					"role", user.RoleName,
					"required_roles", roles)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_ = json.NewEncoder(w).Encode(map[string]string{
					"message": "No tienes permisos para acceder a esta sección.",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
