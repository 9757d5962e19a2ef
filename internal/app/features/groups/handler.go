// internal/app/features/groups/handler.go
//
// Permission group administration: the catalog of groups, their
// permission sets, and membership counts. Groups are the unit of
// access: a user's rights are the union of their groups' permissions.
package groups

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/vocelabs/vocehub/internal/app/engine/permissions"
	assignmentstore "github.com/vocelabs/vocehub/internal/app/store/assignments"
	"github.com/vocelabs/vocehub/internal/app/store/audit"
	"github.com/vocelabs/vocehub/internal/app/system/auditlog"
	groupstore "github.com/vocelabs/vocehub/internal/app/store/groups"
	"github.com/vocelabs/vocehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler holds the stores the group endpoints need.
type Handler struct {
	Log         *zap.Logger
	Groups      *groupstore.Store
	Assignments *assignmentstore.Store
	Engine      *permissions.Engine
	Audit       *auditlog.Logger
}

func NewHandler(
	log *zap.Logger,
	groups *groupstore.Store,
	assignments *assignmentstore.Store,
	engine *permissions.Engine,
	auditLog *auditlog.Logger,
) *Handler {
	return &Handler{
		Log:         log,
		Groups:      groups,
		Assignments: assignments,
		Engine:      engine,
		Audit:       auditLog,
	}
}

func (h *Handler) auditEvent(ctx context.Context, event audit.Event) {
	h.Audit.Log(ctx, event)
}

func pathID(r *http.Request, param string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, param))
	return id, err == nil
}

// permissionView is one module/action pair in a response body.
type permissionView struct {
	Module string `json:"module"`
	Action string `json:"action"`
}

// groupView is a permission group in a response body.
type groupView struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	DisplayName string           `json:"display_name"`
	Description string           `json:"description,omitempty"`
	Color       string           `json:"color,omitempty"`
	Icon        string           `json:"icon,omitempty"`
	BaseRole    string           `json:"base_role,omitempty"`
	Priority    int              `json:"priority"`
	IsSystem    bool             `json:"is_system"`
	IsActive    bool             `json:"is_active"`
	Permissions []permissionView `json:"permissions"`
	CreatedAt   string           `json:"created_at"`
	UpdatedAt   string           `json:"updated_at"`
}

func makeView(g models.PermissionGroup) groupView {
	perms := make([]permissionView, 0, len(g.Permissions))
	for _, p := range g.Permissions {
		perms = append(perms, permissionView{Module: p.Module, Action: p.Action})
	}
	return groupView{
		ID:          g.ID.Hex(),
		Name:        g.Name,
		DisplayName: g.DisplayName,
		Description: g.Description,
		Color:       g.Color,
		Icon:        g.Icon,
		BaseRole:    string(g.BaseRole),
		Priority:    g.Priority,
		IsSystem:    g.IsSystem,
		IsActive:    g.IsActive,
		Permissions: perms,
		CreatedAt:   g.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   g.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func parsePermissions(in []permissionView) []models.Permission {
	out := make([]models.Permission, 0, len(in))
	for _, p := range in {
		out = append(out, models.Permission{Module: p.Module, Action: p.Action})
	}
	return out
}
