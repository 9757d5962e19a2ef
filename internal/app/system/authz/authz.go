// internal/app/system/authz/authz.go

// Package authz resolves the acting user for a request and exposes the
// role predicates handlers check before touching the store.
//
// Authentication itself (sessions, passwords) lives in the fronting
// gateway, which is trusted to set X-Actor-ID to the authenticated
// account id. This service resolves that id into an Actor (functional
// role plus coordination scope) once per request, so every check in the
// request sees one consistent snapshot of the actor's rights.
package authz

import (
	"context"
	"net/http"

	"github.com/vocelabs/vocehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ActorHeader is the request header carrying the authenticated user id.
const ActorHeader = "X-Actor-ID"

// Actor is the resolved acting user: who they are, what functional role
// their group assignments confer, and which coordinations they belong
// to. CoordinationIDs is only populated for roles that have coordination
// membership.
type Actor struct {
	ID              primitive.ObjectID
	Role            models.Role
	CoordinationIDs []primitive.ObjectID
}

// InCoordination reports whether id is among the actor's memberships.
func (a Actor) InCoordination(id primitive.ObjectID) bool {
	for _, cid := range a.CoordinationIDs {
		if cid == id {
			return true
		}
	}
	return false
}

// Resolver turns an authenticated user id into an Actor. Implemented in
// bootstrap over the user store and the permission engine.
type Resolver interface {
	ResolveActor(ctx context.Context, userID primitive.ObjectID) (Actor, error)
}

type ctxKey struct{}

// ActorCtx returns the request's resolved actor and a found flag.
// ok=false means no valid actor header was present; callers must treat
// that as zero privileges.
func ActorCtx(r *http.Request) (Actor, bool) {
	a, ok := r.Context().Value(ctxKey{}).(Actor)
	return a, ok
}

// WithActor injects an actor into a request context. Exported for
// handler tests.
func WithActor(r *http.Request, a Actor) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), ctxKey{}, a))
}

// LoadActor is middleware that resolves X-Actor-ID into an Actor in
// context. A missing or malformed header is not an error here; the
// request proceeds without an actor and fails closed at RequireRole or
// at the policy checks.
func LoadActor(res Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hex := r.Header.Get(ActorHeader)
			if hex == "" {
				next.ServeHTTP(w, r)
				return
			}
			oid, err := primitive.ObjectIDFromHex(hex)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			actor, err := res.ResolveActor(r.Context(), oid)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, WithActor(r, actor))
		})
	}
}

// RequireRole rejects requests whose actor is absent or whose role is
// not in the allowed set. 401 without an actor, 403 with the wrong role.
func RequireRole(allowed ...models.Role) func(http.Handler) http.Handler {
	set := make(map[models.Role]struct{}, len(allowed))
	for _, role := range allowed {
		set[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := ActorCtx(r)
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			if _, ok := set[actor.Role]; !ok {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin is shorthand for RequireRole(admin).
func RequireAdmin() func(http.Handler) http.Handler {
	return RequireRole(models.RoleAdmin)
}
