// internal/app/features/groups/list.go
package groups

import (
	"context"
	"net/http"

	"github.com/vocelabs/vocehub/internal/app/features/respond"
	"github.com/vocelabs/vocehub/internal/app/system/authz"
	"github.com/vocelabs/vocehub/internal/app/system/permcat"
	"github.com/vocelabs/vocehub/internal/app/system/timeouts"
	"github.com/vocelabs/vocehub/internal/domain/models"
)

// ServeList handles GET /groups. Full admins see the whole catalog;
// everyone else sees only the groups their role could grant, which is
// what the assignment UI needs and nothing more.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.ActorCtx(r)
	if !ok {
		respond.Forbidden(w)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	var (
		records []models.PermissionGroup
		err     error
	)
	if actor.Role == models.RoleAdmin {
		records, err = h.Groups.GetAll(ctx)
	} else {
		records, err = h.Engine.AssignableGroups(ctx, actor.Role)
	}
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}

	out := make([]groupView, 0, len(records))
	for _, g := range records {
		out = append(out, makeView(g))
	}
	respond.JSON(w, http.StatusOK, map[string]any{"groups": out})
}

// ServeGet handles GET /groups/{groupID}.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "groupID")
	if !ok {
		respond.BadRequest(w, "invalid group id")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	g, err := h.Groups.GetByID(ctx, id)
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, makeView(g))
}

// ServeMembers handles GET /groups/{groupID}/members: how many users
// hold the group. The console shows this before a delete.
func (h *Handler) ServeMembers(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "groupID")
	if !ok {
		respond.BadRequest(w, "invalid group id")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	n, err := h.Assignments.CountByGroup(ctx, id)
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"group_id":     id.Hex(),
		"member_count": n,
	})
}

/// ServeCatalog handles GET /groups/catalog: the static module/action
// catalog the permission editor builds its checkboxes from.
func (h *Handler) ServeCatalog(w http.ResponseWriter, _ *http.Request) {
	type module struct {
		ID      string   `json:"id"`
		Actions []string `json:"actions"`
	}
	mods := permcat.Modules()
	out := make([]module, 0, len(mods))
	for _, m := range mods {
		out = append(out, module{ID: m.ID, Actions: m.Actions})
	}
	respond.JSON(w, http.StatusOK, map[string]any{"modules": out})
}
