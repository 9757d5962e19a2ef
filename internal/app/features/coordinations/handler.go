// internal/app/features/coordinations/handler.go
//
// Coordination administration: the org units executives and
// coordinators belong to, their pause/resume toggle, and the
// arm-then-commit archive flow that moves members before the unit goes
// terminal.
package coordinations

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/vocelabs/vocehub/internal/app/engine/lifecycle"
	"github.com/vocelabs/vocehub/internal/app/store/audit"
	"github.com/vocelabs/vocehub/internal/app/system/auditlog"
	coordinationstore "github.com/vocelabs/vocehub/internal/app/store/coordinations"
	userstore "github.com/vocelabs/vocehub/internal/app/store/users"
	"github.com/vocelabs/vocehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler holds the stores and the lifecycle engine.
type Handler struct {
	Log           *zap.Logger
	Coordinations *coordinationstore.Store
	Users         *userstore.Store
	Lifecycle     *lifecycle.Engine
	Audit         *auditlog.Logger
}

func NewHandler(
	log *zap.Logger,
	coordinations *coordinationstore.Store,
	users *userstore.Store,
	lc *lifecycle.Engine,
	auditLog *auditlog.Logger,
) *Handler {
	return &Handler{
		Log:           log,
		Coordinations: coordinations,
		Users:         users,
		Lifecycle:     lc,
		Audit:         auditLog,
	}
}

func (h *Handler) auditEvent(ctx context.Context, event audit.Event) {
	h.Audit.Log(ctx, event)
}

func pathID(r *http.Request, param string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, param))
	return id, err == nil
}

// coordinationView is a coordination in a response body.
type coordinationView struct {
	ID          string `json:"id"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	State       string `json:"state"`
	Archived    bool   `json:"archived"`
	Operative   bool   `json:"operative"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

func makeView(c models.Coordination) coordinationView {
	return coordinationView{
		ID:          c.ID.Hex(),
		Code:        c.Code,
		Name:        c.Name,
		Description: c.Description,
		State:       string(c.State()),
		Archived:    c.Archived,
		Operative:   c.Operative,
		CreatedAt:   c.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   c.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// memberView is one roster entry, resolved to the user's name for the
// confirm dialog.
type memberView struct {
	UserID   string `json:"user_id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

func (h *Handler) memberViews(ctx context.Context, ms []models.CoordinationMembership) ([]memberView, error) {
	ids := make([]primitive.ObjectID, 0, len(ms))
	for _, m := range ms {
		ids = append(ids, m.UserID)
	}
	users, err := h.Users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]memberView, 0, len(ms))
	for _, m := range ms {
		u := users[m.UserID]
		out = append(out, memberView{
			UserID:   m.UserID.Hex(),
			FullName: u.FullName,
			Email:    u.Email,
			Role:     m.Role.String(),
		})
	}
	return out, nil
}
