// internal/app/policy/scopepolicy/scopepolicy.go
//
// Pure predicates deciding which users and coordinations an actor may
// see and change. Handlers resolve roles and memberships first and call
// these before every read or mutation; client-side filtering is never
// trusted.
package scopepolicy

import (
	"github.com/vocelabs/vocehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Subject is an actor or a target reduced to what the policy needs:
// the resolved functional role and the coordination memberships.
type Subject struct {
	ID              primitive.ObjectID
	Role            models.Role
	CoordinationIDs []primitive.ObjectID
}

func (s Subject) inCoordination(id primitive.ObjectID) bool {
	for _, c := range s.CoordinationIDs {
		if c == id {
			return true
		}
	}
	return false
}

// sharesCoordination reports whether the two subjects overlap in at
// least one coordination.
func sharesCoordination(a, b Subject) bool {
	for _, id := range b.CoordinationIDs {
		if a.inCoordination(id) {
			return true
		}
	}
	return false
}

// CanViewUser reports whether actor may see target in the admin
// console.
func CanViewUser(actor, target Subject) bool {
	if actor.ID == target.ID {
		return true
	}
	switch actor.Role {
	case models.RoleAdmin:
		return true
	case models.RoleAdminOperativo:
		return target.Role == models.RoleCoordinador || target.Role == models.RoleEjecutivo
	case models.RoleCoordinador:
		return target.Role == models.RoleEjecutivo && sharesCoordination(actor, target)
	case models.RoleSupervisor, models.RoleEjecutivo, models.RoleEvaluador, models.RoleUnassigned:
		return false
	}
	return false
}

// CanEditUser reports whether actor may change target's record,
// assignments, or memberships.
func CanEditUser(actor, target Subject) bool {
	switch actor.Role {
	case models.RoleAdmin:
		return true
	case models.RoleAdminOperativo:
		return target.Role == models.RoleCoordinador || target.Role == models.RoleEjecutivo
	case models.RoleCoordinador:
		// A coordinator manages only the ejecutivos of their own
		// coordinations, never a fellow coordinador.
		return target.Role == models.RoleEjecutivo && sharesCoordination(actor, target)
	case models.RoleSupervisor, models.RoleEjecutivo, models.RoleEvaluador, models.RoleUnassigned:
		return false
	}
	return false
}

// CanViewCoordination reports whether actor may see a coordination.
func CanViewCoordination(actor Subject, coordinationID primitive.ObjectID) bool {
	switch actor.Role {
	case models.RoleAdmin, models.RoleAdminOperativo:
		return true
	case models.RoleCoordinador:
		return actor.inCoordination(coordinationID)
	case models.RoleSupervisor, models.RoleEjecutivo, models.RoleEvaluador, models.RoleUnassigned:
		return false
	}
	return false
}

// CanEditCoordination reports whether actor may change a coordination's
// record or lifecycle. Only full admins hold that right; operative
// admins observe, coordinators belong.
func CanEditCoordination(actor Subject, coordinationID primitive.ObjectID) bool {
	return actor.Role == models.RoleAdmin
}

// CanAssignRole reports whether actor may place target into the given
// role. The coordinador row encodes the no-escalation rule: a
// coordinator can never promote a managed user to coordinador.
func CanAssignRole(actorRole, targetRole models.Role) bool {
	switch actorRole {
	case models.RoleAdmin:
		return true
	case models.RoleAdminOperativo:
		switch targetRole {
		case models.RoleAdminOperativo, models.RoleCoordinador, models.RoleSupervisor, models.RoleEjecutivo, models.RoleEvaluador, models.RoleUnassigned:
			return true
		case models.RoleAdmin:
			return false
		}
		return false
	case models.RoleCoordinador:
		return targetRole == models.RoleEjecutivo
	case models.RoleSupervisor, models.RoleEjecutivo, models.RoleEvaluador, models.RoleUnassigned:
		return false
	}
	return false
}

// Scope bounds a listing query. All means unrestricted; otherwise the
// query is limited to CoordinationIDs, and an empty set means the actor
// sees nothing.
type Scope struct {
	All             bool
	CoordinationIDs []primitive.ObjectID
}

// Empty reports whether the scope admits no records at all.
func (s Scope) Empty() bool { return !s.All && len(s.CoordinationIDs) == 0 }

// ListScope returns the coordination scope for listing users and
// rosters.
func ListScope(actor Subject) Scope {
	switch actor.Role {
	case models.RoleAdmin, models.RoleAdminOperativo:
		return Scope{All: true}
	case models.RoleCoordinador:
		return Scope{CoordinationIDs: actor.CoordinationIDs}
	case models.RoleSupervisor, models.RoleEjecutivo, models.RoleEvaluador, models.RoleUnassigned:
		return Scope{}
	}
	return Scope{}
}
