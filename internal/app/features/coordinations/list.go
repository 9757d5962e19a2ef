// internal/app/features/coordinations/list.go
package coordinations

import (
	"context"
	"net/http"
	"strconv"

	"github.com/vocelabs/vocehub/internal/app/features/respond"
	"github.com/vocelabs/vocehub/internal/app/policy/scopepolicy"
	"github.com/vocelabs/vocehub/internal/app/system/authz"
	"github.com/vocelabs/vocehub/internal/app/system/timeouts"
	coordinationstore "github.com/vocelabs/vocehub/internal/app/store/coordinations"
)

func boolQuery(r *http.Request, key string) *bool {
	v := r.URL.Query().Get(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil
	}
	return &b
}

// ServeList handles GET /coordinations, with optional ?archived= and
// ?operative= filters. Coordinators see only their own coordinations.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.ActorCtx(r)
	if !ok {
		respond.Forbidden(w)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	records, err := h.Coordinations.GetAll(ctx, coordinationstore.ListFilter{
		Archived:  boolQuery(r, "archived"),
		Operative: boolQuery(r, "operative"),
	})
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}

	as := scopepolicy.Subject{ID: actor.ID, Role: actor.Role, CoordinationIDs: actor.CoordinationIDs}
	out := make([]coordinationView, 0, len(records))
	for _, c := range records {
		if !scopepolicy.CanViewCoordination(as, c.ID) {
			continue
		}
		out = append(out, makeView(c))
	}
	respond.JSON(w, http.StatusOK, map[string]any{"coordinations": out})
}

// ServeGet handles GET /coordinations/{coordID}, returning the record
// with its roster.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
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

	as := scopepolicy.Subject{ID: actor.ID, Role: actor.Role, CoordinationIDs: actor.CoordinationIDs}
	if !scopepolicy.CanViewCoordination(as, id) {
		respond.Forbidden(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	c, err := h.Coordinations.GetByID(ctx, id)
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	roster, err := h.Coordinations.Members(ctx, id)
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	executives, err := h.memberViews(ctx, roster.Executives)
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	coordinators, err := h.memberViews(ctx, roster.Coordinators)
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{
		"coordination": makeView(c),
		"executives":   executives,
		"coordinators": coordinators,
	})
}
