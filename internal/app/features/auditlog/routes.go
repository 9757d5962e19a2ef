// internal/app/features/auditlog/routes.go
package auditlog

import (
	"github.com/go-chi/chi/v5"
	"github.com/vocelabs/vocehub/internal/app/system/authz"
	"github.com/vocelabs/vocehub/internal/domain/models"
)

// Routes returns the /audit subrouter. Admin roles only.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authz.RequireRole(models.RoleAdmin, models.RoleAdminOperativo))
	r.Get("/", h.ServeList)
	return r
}
