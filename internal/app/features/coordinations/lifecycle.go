// internal/app/features/coordinations/lifecycle.go
//
// The state-change endpoints: pause/resume, the archive flow, and
// unarchive. Every mutation here goes through the lifecycle engine,
// which owns the validation and the armed-plan bookkeeping.
package coordinations

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/vocelabs/vocehub/internal/app/features/respond"
	"github.com/vocelabs/vocehub/internal/app/store/audit"
	"github.com/vocelabs/vocehub/internal/app/system/authz"
	"github.com/vocelabs/vocehub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func (h *Handler) lifecycleAudit(ctx context.Context, eventType string, coordID, actorID primitive.ObjectID, details map[string]string) {
	h.auditEvent(ctx, audit.Event{
		Category:       audit.CategoryLifecycle,
		EventType:      eventType,
		CoordinationID: &coordID,
		ActorID:        &actorID,
		Success:        true,
		Details:        details,
	})
}

// ServePause handles POST /coordinations/{coordID}/pause.
func (h *Handler) ServePause(w http.ResponseWriter, r *http.Request) {
	actor, _ := authz.ActorCtx(r)
	id, ok := pathID(r, "coordID")
	if !ok {
		respond.BadRequest(w, "invalid coordination id")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Lifecycle.Pause(ctx, id); err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	h.lifecycleAudit(ctx, audit.EventCoordinationPaused, id, actor.ID, nil)
	respond.JSON(w, http.StatusOK, map[string]any{"state": "paused"})
}

// ServeResume handles POST /coordinations/{coordID}/resume.
func (h *Handler) ServeResume(w http.ResponseWriter, r *http.Request) {
	actor, _ := authz.ActorCtx(r)
	id, ok := pathID(r, "coordID")
	if !ok {
		respond.BadRequest(w, "invalid coordination id")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Lifecycle.Resume(ctx, id); err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	h.lifecycleAudit(ctx, audit.EventCoordinationResumed, id, actor.ID, nil)
	respond.JSON(w, http.StatusOK, map[string]any{"state": "active"})
}

// ServeBeginArchive handles GET /coordinations/{coordID}/archive:
// what archiving would move, for the confirm dialog. No state changes.
func (h *Handler) ServeBeginArchive(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "coordID")
	if !ok {
		respond.BadRequest(w, "invalid coordination id")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	snap, err := h.Lifecycle.BeginArchive(ctx, id)
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	executives, err := h.memberViews(ctx, snap.Executives)
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	coordinators, err := h.memberViews(ctx, snap.Coordinators)
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"coordination": makeView(snap.Coordination),
		"executives":   executives,
		"coordinators": coordinators,
	})
}

type armArchiveRequest struct {
	DestinationID string `json:"destination_id"`
}

// ServeArmArchive handles POST /coordinations/{coordID}/archive/arm.
func (h *Handler) ServeArmArchive(w http.ResponseWriter, r *http.Request) {
	actor, _ := authz.ActorCtx(r)
	id, ok := pathID(r, "coordID")
	if !ok {
		respond.BadRequest(w, "invalid coordination id")
		return
	}
	var req armArchiveRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.BadRequest(w, "invalid request body")
		return
	}
	var destID primitive.ObjectID
	if req.DestinationID != "" {
		d, err := primitive.ObjectIDFromHex(req.DestinationID)
		if err != nil {
			respond.BadRequest(w, "invalid destination id")
			return
		}
		destID = d
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	plan, err := h.Lifecycle.ArmArchive(ctx, id, destID)
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}

	h.lifecycleAudit(ctx, audit.EventArchiveArmed, id, actor.ID, map[string]string{
		"plan_id":     plan.ID,
		"destination": plan.DestID.Hex(),
		"members":     strconv.Itoa(len(plan.Snapshot)),
	})
	respond.JSON(w, http.StatusOK, map[string]any{
		"plan_id":  plan.ID,
		"armed_at": plan.ArmedAt.UTC().Format(time.RFC3339),
		"members":  len(plan.Snapshot),
	})
}

type commitArchiveRequest struct {
	PlanID string `json:"plan_id"`
}

// ServeCommitArchive handles POST /coordinations/{coordID}/archive/commit.
func (h *Handler) ServeCommitArchive(w http.ResponseWriter, r *http.Request) {
	actor, _ := authz.ActorCtx(r)
	id, ok := pathID(r, "coordID")
	if !ok {
		respond.BadRequest(w, "invalid coordination id")
		return
	}
	var req commitArchiveRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.BadRequest(w, "invalid request body")
		return
	}
	if req.PlanID == "" {
		respond.BadRequest(w, "plan_id is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Batch())
	defer cancel()

	result, err := h.Lifecycle.CommitArchive(ctx, id, req.PlanID)
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}

	h.lifecycleAudit(ctx, audit.EventCoordinationArchived, id, actor.ID, map[string]string{
		"executives_moved":   strconv.Itoa(result.ExecutivesMoved),
		"coordinators_moved": strconv.Itoa(result.CoordinatorsMoved),
	})
	respond.JSON(w, http.StatusOK, map[string]any{
		"archived":           true,
		"executives_moved":   result.ExecutivesMoved,
		"coordinators_moved": result.CoordinatorsMoved,
	})
}

// ServeCancelArchive handles POST /coordinations/{coordID}/archive/cancel.
func (h *Handler) ServeCancelArchive(w http.ResponseWriter, r *http.Request) {
	actor, _ := authz.ActorCtx(r)
	id, ok := pathID(r, "coordID")
	if !ok {
		respond.BadRequest(w, "invalid coordination id")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	cancelled := h.Lifecycle.CancelArchive(ctx, id)
	if cancelled {
		h.lifecycleAudit(ctx, audit.EventArchiveCancelled, id, actor.ID, nil)
	}
	respond.JSON(w, http.StatusOK, map[string]any{"cancelled": cancelled})
}

// ServeUnarchive handles POST /coordinations/{coordID}/unarchive.
func (h *Handler) ServeUnarchive(w http.ResponseWriter, r *http.Request) {
	actor, _ := authz.ActorCtx(r)
	id, ok := pathID(r, "coordID")
	if !ok {
		respond.BadRequest(w, "invalid coordination id")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Lifecycle.Unarchive(ctx, id); err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	h.lifecycleAudit(ctx, audit.EventCoordinationUnarchived, id, actor.ID, nil)
	respond.JSON(w, http.StatusOK, map[string]any{"state": "active"})
}
