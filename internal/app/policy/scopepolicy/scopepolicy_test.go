// internal/app/policy/scopepolicy/scopepolicy_test.go
package scopepolicy

import (
	"testing"

	"github.com/vocelabs/vocehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func subject(role models.Role, coordIDs ...primitive.ObjectID) Subject {
	return Subject{ID: primitive.NewObjectID(), Role: role, CoordinationIDs: coordIDs}
}

func TestCanViewUser(t *testing.T) {
	coordA := primitive.NewObjectID()
	coordB := primitive.NewObjectID()

	tests := []struct {
		name   string
		actor  Subject
		target Subject
		want   bool
	}{
		{"admin sees anyone", subject(models.RoleAdmin), subject(models.RoleAdmin), true},
		{"operativo sees coordinador", subject(models.RoleAdminOperativo), subject(models.RoleCoordinador, coordA), true},
		{"operativo sees ejecutivo", subject(models.RoleAdminOperativo), subject(models.RoleEjecutivo, coordA), true},
		{"operativo blind to admin", subject(models.RoleAdminOperativo), subject(models.RoleAdmin), false},
		{"operativo blind to supervisor", subject(models.RoleAdminOperativo), subject(models.RoleSupervisor, coordA), false},
		{"coordinador sees own ejecutivo", subject(models.RoleCoordinador, coordA), subject(models.RoleEjecutivo, coordA), true},
		{"coordinador blind to other coordination", subject(models.RoleCoordinador, coordA), subject(models.RoleEjecutivo, coordB), false},
		{"coordinador blind to fellow coordinador", subject(models.RoleCoordinador, coordA), subject(models.RoleCoordinador, coordA), false},
		{"ejecutivo has no admin visibility", subject(models.RoleEjecutivo, coordA), subject(models.RoleEjecutivo, coordA), false},
		{"evaluador has no admin visibility", subject(models.RoleEvaluador), subject(models.RoleEjecutivo, coordA), false},
		{"unassigned has no admin visibility", subject(models.RoleUnassigned), subject(models.RoleEjecutivo, coordA), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanViewUser(tc.actor, tc.target); got != tc.want {
				t.Errorf("CanViewUser = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestCanViewUserSelf(t *testing.T) {
	actor := subject(models.RoleEjecutivo)
	if !CanViewUser(actor, actor) {
		t.Error("a user should always see their own record")
	}
}

func TestCanEditUser(t *testing.T) {
	coordA := primitive.NewObjectID()

	tests := []struct {
		name   string
		actor  Subject
		target Subject
		want   bool
	}{
		{"admin edits anyone", subject(models.RoleAdmin), subject(models.RoleAdmin), true},
		{"operativo edits coordinador", subject(models.RoleAdminOperativo), subject(models.RoleCoordinador, coordA), true},
		{"operativo cannot edit admin", subject(models.RoleAdminOperativo), subject(models.RoleAdmin), false},
		{"coordinador edits own ejecutivo", subject(models.RoleCoordinador, coordA), subject(models.RoleEjecutivo, coordA), true},
		{"coordinador cannot edit fellow coordinador", subject(models.RoleCoordinador, coordA), subject(models.RoleCoordinador, coordA), false},
		{"ejecutivo edits nobody", subject(models.RoleEjecutivo, coordA), subject(models.RoleEjecutivo, coordA), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanEditUser(tc.actor, tc.target); got != tc.want {
				t.Errorf("CanEditUser = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestCanViewCoordination(t *testing.T) {
	coordA := primitive.NewObjectID()
	coordB := primitive.NewObjectID()

	tests := []struct {
		name  string
		actor Subject
		coord primitive.ObjectID
		want  bool
	}{
		{"admin", subject(models.RoleAdmin), coordA, true},
		{"operativo sees all coordinations", subject(models.RoleAdminOperativo), coordA, true},
		{"coordinador sees own", subject(models.RoleCoordinador, coordA), coordA, true},
		{"coordinador blind to other", subject(models.RoleCoordinador, coordA), coordB, false},
		{"ejecutivo blind", subject(models.RoleEjecutivo, coordA), coordA, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanViewCoordination(tc.actor, tc.coord); got != tc.want {
				t.Errorf("CanViewCoordination = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestCanEditCoordination(t *testing.T) {
	coordA := primitive.NewObjectID()
	if !CanEditCoordination(subject(models.RoleAdmin), coordA) {
		t.Error("admin should edit coordinations")
	}
	if CanEditCoordination(subject(models.RoleAdminOperativo), coordA) {
		t.Error("operativo admin observes coordinations but does not edit them")
	}
	if CanEditCoordination(subject(models.RoleCoordinador, coordA), coordA) {
		t.Error("membership does not grant coordination edit rights")
	}
}

func TestCanAssignRole(t *testing.T) {
	tests := []struct {
		actor  models.Role
		target models.Role
		want   bool
	}{
		{models.RoleAdmin, models.RoleAdmin, true},
		{models.RoleAdmin, models.RoleEjecutivo, true},
		{models.RoleAdminOperativo, models.RoleAdmin, false},
		{models.RoleAdminOperativo, models.RoleAdminOperativo, true},
		{models.RoleAdminOperativo, models.RoleCoordinador, true},
		{models.RoleAdminOperativo, models.RoleEvaluador, true},
		{models.RoleCoordinador, models.RoleEjecutivo, true},
		{models.RoleCoordinador, models.RoleCoordinador, false}, // no escalation
		{models.RoleCoordinador, models.RoleSupervisor, false},
		{models.RoleSupervisor, models.RoleEjecutivo, false},
		{models.RoleEjecutivo, models.RoleEjecutivo, false},
		{models.RoleUnassigned, models.RoleEjecutivo, false},
	}

	for _, tc := range tests {
		if got := CanAssignRole(tc.actor, tc.target); got != tc.want {
			t.Errorf("CanAssignRole(%s, %s) = %v, want %v", tc.actor, tc.target, got, tc.want)
		}
	}
}

func TestListScope(t *testing.T) {
	coordA := primitive.NewObjectID()
	coordB := primitive.NewObjectID()

	if s := ListScope(subject(models.RoleAdmin)); !s.All {
		t.Error("admin scope should be unrestricted")
	}
	if s := ListScope(subject(models.RoleAdminOperativo)); !s.All {
		t.Error("operativo scope should be unrestricted")
	}

	s := ListScope(subject(models.RoleCoordinador, coordA, coordB))
	if s.All {
		t.Fatal("coordinador scope must be restricted")
	}
	if len(s.CoordinationIDs) != 2 {
		t.Fatalf("expected 2 coordinations in scope, got %d", len(s.CoordinationIDs))
	}

	if s := ListScope(subject(models.RoleEjecutivo, coordA)); !s.Empty() {
		t.Error("ejecutivo should have an empty scope")
	}
	if s := ListScope(subject(models.RoleUnassigned)); !s.Empty() {
		t.Error("unassigned should have an empty scope")
	}
}
