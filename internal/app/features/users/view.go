// internal/app/features/users/view.go
package users

import (
	"context"
	"net/http"
	"time"

	"github.com/vocelabs/vocehub/internal/app/features/respond"
	"github.com/vocelabs/vocehub/internal/app/policy/scopepolicy"
	"github.com/vocelabs/vocehub/internal/app/system/authz"
	"github.com/vocelabs/vocehub/internal/app/system/timeouts"
)

// ServeGet handles GET /users/{userID}.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.ActorCtx(r)
	if !ok {
		respond.Forbidden(w)
		return
	}
	id, ok := pathID(r, "userID")
	if !ok {
		respond.BadRequest(w, "invalid user id")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	subj, err := h.subjectFor(ctx, id)
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	if !scopepolicy.CanViewUser(actorSubject(actor), subj) {
		respond.Forbidden(w)
		return
	}
	respond.JSON(w, http.StatusOK, makeView(*u, subj))
}

// ServePermissions handles GET /users/{userID}/permissions: the user's
// effective permission set, the union across their assigned groups.
func (h *Handler) ServePermissions(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.ActorCtx(r)
	if !ok {
		respond.Forbidden(w)
		return
	}
	id, ok := pathID(r, "userID")
	if !ok {
		respond.BadRequest(w, "invalid user id")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	subj, err := h.subjectFor(ctx, id)
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	if !scopepolicy.CanViewUser(actorSubject(actor), subj) {
		respond.Forbidden(w)
		return
	}

	set, err := h.Engine.EffectivePermissions(ctx, id)
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	type perm struct {
		Module string `json:"module"`
		Action string `json:"action"`
	}
	perms := make([]perm, 0, set.Len())
	for _, p := range set.Slice() {
		perms = append(perms, perm{Module: p.Module, Action: p.Action})
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"user_id":     id.Hex(),
		"permissions": perms,
	})
}

// ServeRole handles GET /users/{userID}/role: the resolved functional
// role.
func (h *Handler) ServeRole(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.ActorCtx(r)
	if !ok {
		respond.Forbidden(w)
		return
	}
	id, ok := pathID(r, "userID")
	if !ok {
		respond.BadRequest(w, "invalid user id")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	subj, err := h.subjectFor(ctx, id)
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	if !scopepolicy.CanViewUser(actorSubject(actor), subj) {
		respond.Forbidden(w)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"user_id": id.Hex(),
		"role":    subj.Role.String(),
	})
}

// ServeGroups handles GET /users/{userID}/groups: the user's current
// group assignments.
func (h *Handler) ServeGroups(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.ActorCtx(r)
	if !ok {
		respond.Forbidden(w)
		return
	}
	id, ok := pathID(r, "userID")
	if !ok {
		respond.BadRequest(w, "invalid user id")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	subj, err := h.subjectFor(ctx, id)
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	if !scopepolicy.CanViewUser(actorSubject(actor), subj) {
		respond.Forbidden(w)
		return
	}

	as, err := h.Assignments.ListByUser(ctx, id)
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	type assignment struct {
		GroupID    string `json:"group_id"`
		IsPrimary  bool   `json:"is_primary"`
		AssignedAt string `json:"assigned_at"`
	}
	out := make([]assignment, 0, len(as))
	for _, a := range as {
		out = append(out, assignment{
			GroupID:    a.GroupID.Hex(),
			IsPrimary:  a.IsPrimary,
			AssignedAt: a.AssignedAt.UTC().Format(time.RFC3339),
		})
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"user_id":     id.Hex(),
		"assignments": out,
	})
}
