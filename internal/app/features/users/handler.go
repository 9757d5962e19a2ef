// internal/app/features/users/handler.go
//
// User administration endpoints: listing and profiles scoped by the
// actor's role, effective permissions, and group/membership assignment.
package users

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vocelabs/vocehub/internal/app/engine/permissions"
	"github.com/vocelabs/vocehub/internal/app/policy/scopepolicy"
	assignmentstore "github.com/vocelabs/vocehub/internal/app/store/assignments"
	"github.com/vocelabs/vocehub/internal/app/store/audit"
	"github.com/vocelabs/vocehub/internal/app/system/auditlog"
	coordinationstore "github.com/vocelabs/vocehub/internal/app/store/coordinations"
	groupstore "github.com/vocelabs/vocehub/internal/app/store/groups"
	userstore "github.com/vocelabs/vocehub/internal/app/store/users"
	"github.com/vocelabs/vocehub/internal/app/system/authz"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler holds the stores and engines the user endpoints need.
type Handler struct {
	Log           *zap.Logger
	Users         *userstore.Store
	Groups        *groupstore.Store
	Assignments   *assignmentstore.Store
	Coordinations *coordinationstore.Store
	Engine        *permissions.Engine
	Audit         *auditlog.Logger
}

func NewHandler(
	log *zap.Logger,
	users *userstore.Store,
	groups *groupstore.Store,
	assignments *assignmentstore.Store,
	coordinations *coordinationstore.Store,
	engine *permissions.Engine,
	auditLog *auditlog.Logger,
) *Handler {
	return &Handler{
		Log:           log,
		Users:         users,
		Groups:        groups,
		Assignments:   assignments,
		Coordinations: coordinations,
		Engine:        engine,
		Audit:         auditLog,
	}
}

// subjectFor resolves a user into the shape the scope policy works on:
// functional role plus coordination memberships.
func (h *Handler) subjectFor(ctx context.Context, userID primitive.ObjectID) (scopepolicy.Subject, error) {
	role, err := h.Engine.FunctionalRole(ctx, userID)
	if err != nil {
		return scopepolicy.Subject{}, err
	}
	coordIDs, err := h.Coordinations.CoordinationIDsByUser(ctx, userID)
	if err != nil {
		return scopepolicy.Subject{}, err
	}
	return scopepolicy.Subject{ID: userID, Role: role, CoordinationIDs: coordIDs}, nil
}

// actorSubject adapts the request's resolved actor.
func actorSubject(a authz.Actor) scopepolicy.Subject {
	return scopepolicy.Subject{ID: a.ID, Role: a.Role, CoordinationIDs: a.CoordinationIDs}
}

func (h *Handler) auditEvent(ctx context.Context, event audit.Event) {
	h.Audit.Log(ctx, event)
}

func pathID(r *http.Request, param string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, param))
	return id, err == nil
}
