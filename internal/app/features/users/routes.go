// internal/app/features/users/routes.go
package users

import (
	"github.com/go-chi/chi/v5"
	"github.com/vocelabs/vocehub/internal/app/system/authz"
	"github.com/vocelabs/vocehub/internal/domain/models"
)

// Routes returns the /users subrouter. Reads are open to any role with
// administrative visibility (the scope policy narrows per record);
// creation is restricted to admin roles up front.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ServeList)
	r.With(authz.RequireRole(models.RoleAdmin, models.RoleAdminOperativo)).
		Post("/", h.ServeCreate)

	r.Route("/{userID}", func(r chi.Router) {
		r.Get("/", h.ServeGet)
		r.Put("/", h.ServeUpdate)
		r.Get("/permissions", h.ServePermissions)
		r.Get("/role", h.ServeRole)
		r.Get("/groups", h.ServeGroups)
		r.Put("/groups", h.ServeSetGroups)
		r.Put("/memberships", h.ServeSetMemberships)
	})

	return r
}
