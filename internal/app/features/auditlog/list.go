// internal/app/features/auditlog/list.go
package auditlog

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/vocelabs/vocehub/internal/app/features/respond"
	"github.com/vocelabs/vocehub/internal/app/store/audit"
	"github.com/vocelabs/vocehub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const pageSize = 50

// eventView is one audit event in a response body.
type eventView struct {
	ID             string            `json:"id"`
	Timestamp      string            `json:"timestamp"`
	Category       string            `json:"category"`
	EventType      string            `json:"event_type"`
	CoordinationID string            `json:"coordination_id,omitempty"`
	UserID         string            `json:"user_id,omitempty"`
	ActorID        string            `json:"actor_id,omitempty"`
	Success        bool              `json:"success"`
	FailureReason  string            `json:"failure_reason,omitempty"`
	Details        map[string]string `json:"details,omitempty"`
}

func makeEventView(e audit.Event) eventView {
	v := eventView{
		ID:            e.ID.Hex(),
		Timestamp:     e.Timestamp.UTC().Format(time.RFC3339),
		Category:      e.Category,
		EventType:     e.EventType,
		Success:       e.Success,
		FailureReason: e.FailureReason,
		Details:       e.Details,
	}
	if e.CoordinationID != nil {
		v.CoordinationID = e.CoordinationID.Hex()
	}
	if e.UserID != nil {
		v.UserID = e.UserID.Hex()
	}
	if e.ActorID != nil {
		v.ActorID = e.ActorID.Hex()
	}
	return v
}

// ServeList handles GET /audit with category, event_type, user_id,
// coordination_id, start, end, and page query filters.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "audit log list")
	defer cancel()

	q := r.URL.Query()
	page := 1
	if p, err := strconv.Atoi(q.Get("page")); err == nil && p > 0 {
		page = p
	}

	filter := audit.QueryFilter{
		Category:  strings.TrimSpace(q.Get("category")),
		EventType: strings.TrimSpace(q.Get("event_type")),
		Limit:     pageSize,
		Offset:    int64((page - 1) * pageSize),
	}
	if hex := q.Get("user_id"); hex != "" {
		id, err := primitive.ObjectIDFromHex(hex)
		if err != nil {
			respond.BadRequest(w, "invalid user_id")
			return
		}
		filter.UserID = &id
	}
	if hex := q.Get("coordination_id"); hex != "" {
		id, err := primitive.ObjectIDFromHex(hex)
		if err != nil {
			respond.BadRequest(w, "invalid coordination_id")
			return
		}
		filter.CoordinationID = &id
	}
	if v := q.Get("start"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			respond.BadRequest(w, "start must be RFC 3339")
			return
		}
		filter.StartTime = &t
	}
	if v := q.Get("end"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			respond.BadRequest(w, "end must be RFC 3339")
			return
		}
		filter.EndTime = &t
	}

	events, err := h.Audit.Query(ctx, filter)
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	total, err := h.Audit.CountByFilter(ctx, filter)
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}

	out := make([]eventView, 0, len(events))
	for _, e := range events {
		out = append(out, makeEventView(e))
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"events": out,
		"page":   page,
		"total":  total,
	})
}
