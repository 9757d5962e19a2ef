// internal/app/features/groups/edit.go
package groups

import (
	"context"
	"errors"
	"net/http"

	"github.com/vocelabs/vocehub/internal/app/features/respond"
	"github.com/vocelabs/vocehub/internal/app/store/audit"
	groupstore "github.com/vocelabs/vocehub/internal/app/store/groups"
	"github.com/vocelabs/vocehub/internal/app/system/authz"
	"github.com/vocelabs/vocehub/internal/app/system/htmlsanitize"
	"github.com/vocelabs/vocehub/internal/app/system/timeouts"
	"github.com/vocelabs/vocehub/internal/domain/models"
)

type createGroupRequest struct {
	Name        string           `json:"name"`
	DisplayName string           `json:"display_name"`
	Description string           `json:"description"`
	Color       string           `json:"color"`
	Icon        string           `json:"icon"`
	BaseRole    string           `json:"base_role"`
	Priority    int              `json:"priority"`
	Permissions []permissionView `json:"permissions"`
}

// ServeCreate handles POST /groups. Admin only (route middleware).
func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.ActorCtx(r)
	if !ok {
		respond.Forbidden(w)
		return
	}
	var req createGroupRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.BadRequest(w, "invalid request body")
		return
	}
	if req.Name == "" {
		respond.BadRequest(w, "name is required")
		return
	}
	role, err := models.ParseRole(req.BaseRole)
	if err != nil {
		respond.BadRequest(w, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	g, err := h.Groups.Create(ctx, models.PermissionGroup{
		Name:        htmlsanitize.StripTags(req.Name),
		DisplayName: htmlsanitize.StripTags(req.DisplayName),
		Description: htmlsanitize.Sanitize(req.Description),
		Color:       htmlsanitize.StripTags(req.Color),
		Icon:        htmlsanitize.StripTags(req.Icon),
		BaseRole:    role,
		Priority:    req.Priority,
		Permissions: parsePermissions(req.Permissions),
		CreatedBy:   &actor.ID,
	})
	if err != nil {
		if errors.Is(err, groupstore.ErrDuplicateGroupName) {
			respond.Conflict(w, err.Error())
			return
		}
		respond.Err(w, h.Log, err)
		return
	}

	h.auditEvent(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventGroupCreated,
		ActorID:   &actor.ID,
		Success:   true,
		Details:   map[string]string{"group": g.Name},
	})
	respond.JSON(w, http.StatusCreated, makeView(g))
}

type updateGroupRequest struct {
	DisplayName *string          `json:"display_name"`
	Description *string          `json:"description"`
	Color       *string          `json:"color"`
	Icon        *string          `json:"icon"`
	Priority    *int             `json:"priority"`
	IsActive    *bool            `json:"is_active"`
	Permissions []permissionView `json:"permissions"`
}

// ServeUpdate handles PUT /groups/{groupID}. Identity fields (name,
// base role, system flag) are fixed at creation.
func (h *Handler) ServeUpdate(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.ActorCtx(r)
	if !ok {
		respond.Forbidden(w)
		return
	}
	id, ok := pathID(r, "groupID")
	if !ok {
		respond.BadRequest(w, "invalid group id")
		return
	}
	var req updateGroupRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.BadRequest(w, "invalid request body")
		return
	}

	patch := groupstore.Patch{
		Priority:  req.Priority,
		IsActive:  req.IsActive,
		UpdatedBy: &actor.ID,
	}
	if req.DisplayName != nil {
		clean := htmlsanitize.StripTags(*req.DisplayName)
		patch.DisplayName = &clean
	}
	if req.Description != nil {
		clean := htmlsanitize.Sanitize(*req.Description)
		patch.Description = &clean
	}
	if req.Color != nil {
		clean := htmlsanitize.StripTags(*req.Color)
		patch.Color = &clean
	}
	if req.Icon != nil {
		clean := htmlsanitize.StripTags(*req.Icon)
		patch.Icon = &clean
	}
	if req.Permissions != nil {
		patch.Permissions = parsePermissions(req.Permissions)
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Groups.Update(ctx, id, patch); err != nil {
		respond.Err(w, h.Log, err)
		return
	}

	h.auditEvent(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventGroupUpdated,
		ActorID:   &actor.ID,
		Success:   true,
		Details:   map[string]string{"group_id": id.Hex()},
	})

	g, err := h.Groups.GetByID(ctx, id)
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, makeView(g))
}

// ServeDelete handles DELETE /groups/{groupID}. System groups are
// protected; assignments referencing the group are removed first so no
// user is left pointing at a dead group.
func (h *Handler) ServeDelete(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.ActorCtx(r)
	if !ok {
		respond.Forbidden(w)
		return
	}
	id, ok := pathID(r, "groupID")
	if !ok {
		respond.BadRequest(w, "invalid group id")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	g, err := h.Groups.GetByID(ctx, id)
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	if g.IsSystem {
		respond.Conflict(w, groupstore.ErrSystemGroup.Error())
		return
	}

	removed, err := h.Assignments.RemoveGroup(ctx, id)
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	if _, err := h.Groups.Delete(ctx, id); err != nil {
		if errors.Is(err, groupstore.ErrSystemGroup) {
			respond.Conflict(w, err.Error())
			return
		}
		respond.Err(w, h.Log, err)
		return
	}

	h.auditEvent(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventGroupDeleted,
		ActorID:   &actor.ID,
		Success:   true,
		Details:   map[string]string{"group": g.Name},
	})
	respond.JSON(w, http.StatusOK, map[string]any{
		"deleted":             true,
		"assignments_removed": removed,
	})
}
