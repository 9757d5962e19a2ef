// internal/app/features/coordinations/edit.go
package coordinations

import (
	"context"
	"errors"
	"net/http"

	"github.com/vocelabs/vocehub/internal/app/features/respond"
	"github.com/vocelabs/vocehub/internal/app/store/audit"
	coordinationstore "github.com/vocelabs/vocehub/internal/app/store/coordinations"
	"github.com/vocelabs/vocehub/internal/app/system/authz"
	"github.com/vocelabs/vocehub/internal/app/system/htmlsanitize"
	"github.com/vocelabs/vocehub/internal/app/system/timeouts"
	"github.com/vocelabs/vocehub/internal/domain/models"
)

type createCoordinationRequest struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ServeCreate handles POST /coordinations.
func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.ActorCtx(r)
	if !ok {
		respond.Forbidden(w)
		return
	}
	var req createCoordinationRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.BadRequest(w, "invalid request body")
		return
	}
	if req.Code == "" {
		respond.BadRequest(w, "code is required")
		return
	}
	if req.Name == "" {
		respond.BadRequest(w, "name is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	c, err := h.Coordinations.Create(ctx, models.Coordination{
		Code:        htmlsanitize.StripTags(req.Code),
		Name:        htmlsanitize.StripTags(req.Name),
		Description: htmlsanitize.Sanitize(req.Description),
	})
	if err != nil {
		if errors.Is(err, coordinationstore.ErrDuplicateCode) {
			respond.Conflict(w, err.Error())
			return
		}
		respond.Err(w, h.Log, err)
		return
	}

	h.auditEvent(ctx, audit.Event{
		Category:       audit.CategoryLifecycle,
		EventType:      audit.EventCoordinationCreated,
		CoordinationID: &c.ID,
		ActorID:        &actor.ID,
		Success:        true,
		Details:        map[string]string{"code": c.Code},
	})
	respond.JSON(w, http.StatusCreated, makeView(c))
}

type updateCoordinationRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ServeUpdate handles PUT /coordinations/{coordID}. The code is fixed
// at creation.
func (h *Handler) ServeUpdate(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.ActorCtx(r)
	if !ok {
		respond.Forbidden(w)
		return
	}
	id, ok := pathID(r, "coordID")
	if !ok {
		respond.BadRequest(w, "invalid coordination id")
		return
	}
	var req updateCoordinationRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.BadRequest(w, "invalid request body")
		return
	}
	if req.Name == "" {
		respond.BadRequest(w, "name is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Coordinations.UpdateInfo(ctx, id,
		htmlsanitize.StripTags(req.Name),
		htmlsanitize.Sanitize(req.Description),
	); err != nil {
		respond.Err(w, h.Log, err)
		return
	}

	h.auditEvent(ctx, audit.Event{
		Category:       audit.CategoryLifecycle,
		EventType:      audit.EventCoordinationUpdated,
		CoordinationID: &id,
		ActorID:        &actor.ID,
		Success:        true,
	})

	c, err := h.Coordinations.GetByID(ctx, id)
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, makeView(c))
}

// ServeDelete handles DELETE /coordinations/{coordID}. Only empty
// coordinations may be deleted; populated ones must go through the
// archive flow.
func (h *Handler) ServeDelete(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.ActorCtx(r)
	if !ok {
		respond.Forbidden(w)
		return
	}
	id, ok := pathID(r, "coordID")
	if !ok {
		respond.BadRequest(w, "invalid coordination id")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	if err := h.Lifecycle.HardDelete(ctx, id); err != nil {
		respond.Err(w, h.Log, err)
		return
	}

	h.auditEvent(ctx, audit.Event{
		Category:       audit.CategoryLifecycle,
		EventType:      audit.EventCoordinationDeleted,
		CoordinationID: &id,
		ActorID:        &actor.ID,
		Success:        true,
	})
	respond.JSON(w, http.StatusOK, map[string]any{"deleted": true})
}
