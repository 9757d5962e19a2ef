// internal/app/features/groups/routes.go
package groups

import (
	"github.com/go-chi/chi/v5"
	"github.com/vocelabs/vocehub/internal/app/system/authz"
	"github.com/vocelabs/vocehub/internal/domain/models"
)

// Routes returns the /groups subrouter. Reads are open to admin roles;
// mutations are admin only, matching who may shape the permission
// catalog itself.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Use(authz.RequireRole(models.RoleAdmin, models.RoleAdminOperativo, models.RoleCoordinador))
	r.Get("/", h.ServeList)
	r.Get("/catalog", h.ServeCatalog)
	r.Get("/{groupID}", h.ServeGet)
	r.Get("/{groupID}/members", h.ServeMembers)

	r.Group(func(r chi.Router) {
		r.Use(authz.RequireAdmin())
		r.Post("/", h.ServeCreate)
		r.Put("/{groupID}", h.ServeUpdate)
		r.Delete("/{groupID}", h.ServeDelete)
	})

	return r
}
