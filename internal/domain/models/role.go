// internal/domain/models/role.go
package models

import "fmt"

// Role is the closed set of functional roles the console understands.
// A user's functional role is derived from their permission-group
// assignments (see engine/permissions); the string values are what the
// store persists and what group records carry in base_role.
type Role string

const (
	RoleAdmin          Role = "admin"
	RoleAdminOperativo Role = "admin_operativo"
	RoleCoordinador    Role = "coordinador"
	RoleSupervisor     Role = "supervisor"
	RoleEjecutivo      Role = "ejecutivo"
	RoleEvaluador      Role = "evaluador"

	// RoleUnassigned is the sentinel for users with no group assignments
	// and no legacy base role. It carries zero privileges; it is not an
	// error condition.
	RoleUnassigned Role = "unassigned"
)

// AllRoles lists every assignable role (RoleUnassigned excluded).
var AllRoles = []Role{
	RoleAdmin,
	RoleAdminOperativo,
	RoleCoordinador,
	RoleSupervisor,
	RoleEjecutivo,
	RoleEvaluador,
}

// ParseRole converts a stored string into a Role. Unknown values are
// rejected rather than passed through, so a corrupted record cannot
// smuggle an open-ended role into authorization checks.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleAdminOperativo, RoleCoordinador, RoleSupervisor, RoleEjecutivo, RoleEvaluador:
		return Role(s), nil
	case RoleUnassigned:
		return RoleUnassigned, nil
	case "":
		return RoleUnassigned, nil
	}
	return RoleUnassigned, fmt.Errorf("unknown role %q", s)
}

// SingleCoordination reports whether the role belongs to exactly one
// coordination at a time.
func (r Role) SingleCoordination() bool {
	return r == RoleEjecutivo || r == RoleSupervisor
}

// MultiCoordination reports whether the role may belong to several
// coordinations simultaneously.
func (r Role) MultiCoordination() bool {
	return r == RoleCoordinador
}

// HasCoordination reports whether the role participates in coordination
// membership at all. Administrative and evaluator roles do not.
func (r Role) HasCoordination() bool {
	return r.SingleCoordination() || r.MultiCoordination()
}

// Administrative reports whether the role carries console-wide
// management rights.
func (r Role) Administrative() bool {
	return r == RoleAdmin || r == RoleAdminOperativo
}

func (r Role) String() string { return string(r) }
