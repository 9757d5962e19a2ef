// internal/app/features/users/assign.go
package users

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/vocelabs/vocehub/internal/app/features/respond"
	"github.com/vocelabs/vocehub/internal/app/policy/scopepolicy"
	"github.com/vocelabs/vocehub/internal/app/store/audit"
	coordinationstore "github.com/vocelabs/vocehub/internal/app/store/coordinations"
	"github.com/vocelabs/vocehub/internal/app/system/authz"
	"github.com/vocelabs/vocehub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type setGroupsRequest struct {
	GroupIDs       []string `json:"group_ids"`
	PrimaryGroupID string   `json:"primary_group_id"`
}

// ServeSetGroups handles PUT /users/{userID}/groups: full replacement of
// the user's group assignments. The engine authorizes every granted
// group against the actor's role, and the scope policy confirms the
// resulting role is one the actor may hand out.
func (h *Handler) ServeSetGroups(w http.ResponseWriter, r *http.Request) {
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
	var req setGroupsRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.BadRequest(w, "invalid request body")
		return
	}

	groupIDs := make([]primitive.ObjectID, 0, len(req.GroupIDs))
	for _, hex := range req.GroupIDs {
		gid, err := primitive.ObjectIDFromHex(hex)
		if err != nil {
			respond.BadRequest(w, "invalid group id "+strconv.Quote(hex))
			return
		}
		groupIDs = append(groupIDs, gid)
	}
	var primaryID primitive.ObjectID
	if req.PrimaryGroupID != "" {
		pid, err := primitive.ObjectIDFromHex(req.PrimaryGroupID)
		if err != nil {
			respond.BadRequest(w, "invalid primary group id")
			return
		}
		primaryID = pid
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	target, err := h.subjectFor(ctx, id)
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	if !scopepolicy.CanEditUser(actorSubject(actor), target) {
		respond.Forbidden(w)
		return
	}
	if err := h.Engine.Authorize(ctx, actor.Role, groupIDs); err != nil {
		respond.Err(w, h.Log, err)
		return
	}

	// The role the groups would confer must itself be assignable by the
	// actor. This closes the escalation path where a coordinator grants
	// a group whose base role outranks them.
	groups, err := h.Groups.GetByIDs(ctx, groupIDs)
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	for _, gid := range groupIDs {
		g := groups[gid]
		if g.BaseRole == "" {
			continue
		}
		if !scopepolicy.CanAssignRole(actor.Role, g.BaseRole) {
			respond.Forbidden(w)
			return
		}
	}

	if err := h.Assignments.SetUserGroups(ctx, id, groupIDs, primaryID, &actor.ID); err != nil {
		respond.Err(w, h.Log, err)
		return
	}

	h.auditEvent(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventGroupsAssigned,
		UserID:    &id,
		ActorID:   &actor.ID,
		Success:   true,
		Details:   map[string]string{"groups": strconv.Itoa(len(groupIDs))},
	})

	subj, err := h.subjectFor(ctx, id)
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"user_id": id.Hex(),
		"role":    subj.Role.String(),
	})
}

type setMembershipsRequest struct {
	CoordinationIDs []string `json:"coordination_ids"`
}

// ServeSetMemberships handles PUT /users/{userID}/memberships: full
// replacement of the user's coordination memberships, under the
// cardinality rules of their current functional role.
func (h *Handler) ServeSetMemberships(w http.ResponseWriter, r *http.Request) {
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
	var req setMembershipsRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.BadRequest(w, "invalid request body")
		return
	}
	coordIDs := make([]primitive.ObjectID, 0, len(req.CoordinationIDs))
	for _, hex := range req.CoordinationIDs {
		cid, err := primitive.ObjectIDFromHex(hex)
		if err != nil {
			respond.BadRequest(w, "invalid coordination id "+strconv.Quote(hex))
			return
		}
		coordIDs = append(coordIDs, cid)
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	target, err := h.subjectFor(ctx, id)
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	if !scopepolicy.CanEditUser(actorSubject(actor), target) {
		respond.Forbidden(w)
		return
	}
	for _, cid := range coordIDs {
		if !scopepolicy.CanViewCoordination(actorSubject(actor), cid) {
			respond.Forbidden(w)
			return
		}
	}

	if err := h.Coordinations.AssignMemberships(ctx, id, target.Role, coordIDs, &actor.ID); err != nil {
		if errors.Is(err, coordinationstore.ErrAlreadyMember) {
			respond.Conflict(w, err.Error())
			return
		}
		respond.Err(w, h.Log, err)
		return
	}

	h.auditEvent(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventMembershipsSet,
		UserID:    &id,
		ActorID:   &actor.ID,
		Success:   true,
		Details:   map[string]string{"coordinations": strconv.Itoa(len(coordIDs))},
	})

	respond.JSON(w, http.StatusOK, map[string]any{
		"user_id":       id.Hex(),
		"coordinations": req.CoordinationIDs,
	})
}
