// internal/app/features/coordinations/routes.go
package coordinations

import (
	"github.com/go-chi/chi/v5"
	"github.com/vocelabs/vocehub/internal/app/system/authz"
	"github.com/vocelabs/vocehub/internal/domain/models"
)

// Routes returns the /coordinations subrouter. Reads are scoped per
// record; every lifecycle mutation is admin only, matching the scope
// policy's coordination-edit rule.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Use(authz.RequireRole(models.RoleAdmin, models.RoleAdminOperativo, models.RoleCoordinador))
	r.Get("/", h.ServeList)
	r.Get("/{coordID}", h.ServeGet)

	r.Group(func(r chi.Router) {
		r.Use(authz.RequireAdmin())
		r.Post("/", h.ServeCreate)
		r.Put("/{coordID}", h.ServeUpdate)
		r.Delete("/{coordID}", h.ServeDelete)
		r.Post("/{coordID}/pause", h.ServePause)
		r.Post("/{coordID}/resume", h.ServeResume)
		r.Get("/{coordID}/archive", h.ServeBeginArchive)
		r.Post("/{coordID}/archive/arm", h.ServeArmArchive)
		r.Post("/{coordID}/archive/commit", h.ServeCommitArchive)
		r.Post("/{coordID}/archive/cancel", h.ServeCancelArchive)
		r.Post("/{coordID}/unarchive", h.ServeUnarchive)
	})

	return r
}
