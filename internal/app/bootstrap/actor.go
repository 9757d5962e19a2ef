// internal/app/bootstrap/actor.go
package bootstrap

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/vocelabs/vocehub/internal/app/engine/permissions"
	coordinationstore "github.com/vocelabs/vocehub/internal/app/store/coordinations"
	userstore "github.com/vocelabs/vocehub/internal/app/store/users"
	"github.com/vocelabs/vocehub/internal/app/system/authz"
)

var errActorDisabled = errors.New("actor account is disabled")

// actorResolver turns the gateway-supplied user id into an Actor:
// functional role from the permission engine, coordination memberships
// from the membership collection. Disabled accounts resolve to an
// error, which the authz middleware treats as no actor at all.
type actorResolver struct {
	users         *userstore.Store
	coordinations *coordinationstore.Store
	engine        *permissions.Engine
}

func (r *actorResolver) ResolveActor(ctx context.Context, userID primitive.ObjectID) (authz.Actor, error) {
	u, err := r.users.GetByID(ctx, userID)
	if err != nil {
		return authz.Actor{}, err
	}
	if u.Status != "active" {
		return authz.Actor{}, errActorDisabled
	}

	role, err := r.engine.FunctionalRole(ctx, userID)
	if err != nil {
		return authz.Actor{}, err
	}

	coordIDs, err := r.coordinations.CoordinationIDsByUser(ctx, userID)
	if err != nil {
		return authz.Actor{}, err
	}

	return authz.Actor{
		ID:              userID,
		Role:            role,
		CoordinationIDs: coordIDs,
	}, nil
}
