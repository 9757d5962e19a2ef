// internal/app/engine/permissions/engine.go
//
// The permission engine computes effective permissions and the
// functional role from group assignments. It works over narrow source
// interfaces so the Mongo stores satisfy it in production and fakes do
// in tests.
package permissions

import (
	"context"

	"github.com/vocelabs/vocehub/internal/app/system/apperr"
	"github.com/vocelabs/vocehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AssignmentSource yields a user's group assignments.
type AssignmentSource interface {
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.GroupAssignment, error)
}

// GroupSource yields permission groups.
type GroupSource interface {
	GetAll(ctx context.Context) ([]models.PermissionGroup, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.PermissionGroup, error)
}

// UserSource yields the user record, for the legacy base_role fallback.
type UserSource interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

type Engine struct {
	assignments AssignmentSource
	groups      GroupSource
	users       UserSource
}

func New(assignments AssignmentSource, groups GroupSource, users UserSource) *Engine {
	return &Engine{assignments: assignments, groups: groups, users: users}
}

// snapshot loads a user's assignments and their groups in one pass so
// every question about the user is answered from the same state.
func (e *Engine) snapshot(ctx context.Context, userID primitive.ObjectID) ([]models.GroupAssignment, map[primitive.ObjectID]models.PermissionGroup, error) {
	as, err := e.assignments.ListByUser(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(as))
	for _, a := range as {
		ids = append(ids, a.GroupID)
	}
	gs, err := e.groups.GetByIDs(ctx, ids)
	if err != nil {
		return nil, nil, err
	}
	return as, gs, nil
}

// EffectivePermissions returns the union of permissions across every
// active group the user is assigned to. A user with no assignments has
// the empty set.
func (e *Engine) EffectivePermissions(ctx context.Context, userID primitive.ObjectID) (models.PermissionSet, error) {
	as, gs, err := e.snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	set := models.PermissionSet{}
	for _, a := range as {
		g, ok := gs[a.GroupID]
		if !ok || !g.IsActive {
			continue
		}
		set = set.Union(g.PermissionSet())
	}
	return set, nil
}

// FunctionalRole resolves the user's operating role: the base role of
// the highest-priority active assigned group, ties broken by the most
// recently assigned. A user with no groups falls back to the legacy
// base_role on the user record, and failing that is unassigned.
func (e *Engine) FunctionalRole(ctx context.Context, userID primitive.ObjectID) (models.Role, error) {
	as, gs, err := e.snapshot(ctx, userID)
	if err != nil {
		return models.RoleUnassigned, err
	}

	var (
		best      models.GroupAssignment
		bestGroup models.PermissionGroup
		found     bool
	)
	for _, a := range as {
		g, ok := gs[a.GroupID]
		if !ok || !g.IsActive || g.BaseRole == "" || g.BaseRole == models.RoleUnassigned {
			continue
		}
		if !found ||
			g.Priority > bestGroup.Priority ||
			(g.Priority == bestGroup.Priority && a.AssignedAt.After(best.AssignedAt)) {
			best, bestGroup, found = a, g, true
		}
	}
	if found {
		return bestGroup.BaseRole, nil
	}

	u, err := e.users.GetByID(ctx, userID)
	if err != nil {
		return models.RoleUnassigned, err
	}
	if u != nil && u.BaseRole != "" && u.BaseRole != models.RoleUnassigned {
		return u.BaseRole, nil
	}
	return models.RoleUnassigned, nil
}

// HasPermission reports whether the user's effective set grants one
// module/action pair.
func (e *Engine) HasPermission(ctx context.Context, userID primitive.ObjectID, module, action string) (bool, error) {
	set, err := e.EffectivePermissions(ctx, userID)
	if err != nil {
		return false, err
	}
	return set.Has(module, action), nil
}

// rolesGrantableByAdminOperativo is the set of base roles an operative
// admin may hand out. Groups with no base role at all are also fair
// game for them.
var rolesGrantableByAdminOperativo = map[models.Role]struct{}{
	models.RoleAdminOperativo: {},
	models.RoleCoordinador:    {},
	models.RoleSupervisor:     {},
	models.RoleEjecutivo:      {},
	models.RoleEvaluador:      {},
}

func grantable(actorRole models.Role, g models.PermissionGroup) bool {
	switch actorRole {
	case models.RoleAdmin:
		return true
	case models.RoleAdminOperativo:
		if g.BaseRole == "" || g.BaseRole == models.RoleUnassigned {
			return true
		}
		_, ok := rolesGrantableByAdminOperativo[g.BaseRole]
		return ok
	default:
		return false
	}
}

// AssignableGroups returns the groups an actor with the given role may
// grant to other users. Full admins see everything; operative admins
// see everything except admin-level groups; nobody else can grant.
func (e *Engine) AssignableGroups(ctx context.Context, actorRole models.Role) ([]models.PermissionGroup, error) {
	all, err := e.groups.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.PermissionGroup, 0, len(all))
	for _, g := range all {
		if grantable(actorRole, g) {
			out = append(out, g)
		}
	}
	return out, nil
}

// Authorize verifies that an actor may grant every group in groupIDs.
// It is called before any assignment mutation.
func (e *Engine) Authorize(ctx context.Context, actorRole models.Role, groupIDs []primitive.ObjectID) error {
	if len(groupIDs) == 0 {
		if !actorRole.Administrative() {
			return apperr.Authorizationf("role %s cannot manage group assignments", actorRole)
		}
		return nil
	}
	gs, err := e.groups.GetByIDs(ctx, groupIDs)
	if err != nil {
		return err
	}
	for _, id := range groupIDs {
		g, ok := gs[id]
		if !ok {
			return apperr.Validationf("unknown group %s", id.Hex())
		}
		if !grantable(actorRole, g) {
			return apperr.Authorizationf("role %s cannot grant group %s", actorRole, g.Name)
		}
	}
	return nil
}
