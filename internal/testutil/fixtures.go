// internal/testutil/fixtures.go
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/vocelabs/vocehub/internal/domain/models"
)

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser creates an active test user.
func (f *Fixtures) CreateUser(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:         primitive.NewObjectID(),
		Email:      email,
		EmailCI:    text.Fold(email),
		FullName:   fullName,
		FullNameCI: text.Fold(fullName),
		Status:     "active",
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateDisabledUser creates a test user with disabled status.
func (f *Fixtures) CreateDisabledUser(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:         primitive.NewObjectID(),
		Email:      email,
		EmailCI:    text.Fold(email),
		FullName:   fullName,
		FullNameCI: text.Fold(fullName),
		Status:     "disabled",
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("failed to create disabled test user: %v", err)
	}
	return user
}

// CreateGroup creates an active permission group with the given base
// role and priority.
func (f *Fixtures) CreateGroup(ctx context.Context, name string, baseRole models.Role, priority int, perms ...models.Permission) models.PermissionGroup {
	f.t.Helper()

	now := time.Now().UTC()
	group := models.PermissionGroup{
		ID:          primitive.NewObjectID(),
		Name:        name,
		NameCI:      text.Fold(name),
		DisplayName: name,
		BaseRole:    baseRole,
		Priority:    priority,
		IsActive:    true,
		Permissions: perms,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if _, err := f.db.Collection("permission_groups").InsertOne(ctx, group); err != nil {
		f.t.Fatalf("failed to create test group: %v", err)
	}
	return group
}

// CreateSystemGroup creates a protected system group.
func (f *Fixtures) CreateSystemGroup(ctx context.Context, name string, baseRole models.Role, priority int, perms ...models.Permission) models.PermissionGroup {
	f.t.Helper()

	group := f.CreateGroup(ctx, name, baseRole, priority, perms...)
	if _, err := f.db.Collection("permission_groups").UpdateOne(ctx,
		bson.M{"_id": group.ID},
		bson.M{"$set": bson.M{"is_system": true}},
	); err != nil {
		f.t.Fatalf("failed to mark test group as system: %v", err)
	}
	group.IsSystem = true
	return group
}

// CreateAssignment links a user to a permission group.
func (f *Fixtures) CreateAssignment(ctx context.Context, userID, groupID primitive.ObjectID, primary bool) models.GroupAssignment {
	f.t.Helper()

	a := models.GroupAssignment{
		ID:         primitive.NewObjectID(),
		UserID:     userID,
		GroupID:    groupID,
		IsPrimary:  primary,
		AssignedAt: time.Now().UTC(),
	}

	if _, err := f.db.Collection("group_assignments").InsertOne(ctx, a); err != nil {
		f.t.Fatalf("failed to create test assignment: %v", err)
	}
	return a
}

// CreateCoordination creates an active, operative coordination.
func (f *Fixtures) CreateCoordination(ctx context.Context, code, name string) models.Coordination {
	f.t.Helper()

	now := time.Now().UTC()
	coord := models.Coordination{
		ID:        primitive.NewObjectID(),
		Code:      code,
		Name:      name,
		NameCI:    text.Fold(name),
		Archived:  false,
		Operative: true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := f.db.Collection("coordinations").InsertOne(ctx, coord); err != nil {
		f.t.Fatalf("failed to create test coordination: %v", err)
	}
	return coord
}

// CreateArchivedCoordination creates a coordination already archived.
func (f *Fixtures) CreateArchivedCoordination(ctx context.Context, code, name string) models.Coordination {
	f.t.Helper()

	now := time.Now().UTC()
	coord := models.Coordination{
		ID:        primitive.NewObjectID(),
		Code:      code,
		Name:      name,
		NameCI:    text.Fold(name),
		Archived:  true,
		Operative: false,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := f.db.Collection("coordinations").InsertOne(ctx, coord); err != nil {
		f.t.Fatalf("failed to create archived test coordination: %v", err)
	}
	return coord
}

// CreateMembership places a user in a coordination with the given role.
func (f *Fixtures) CreateMembership(ctx context.Context, userID, coordID primitive.ObjectID, role models.Role) models.CoordinationMembership {
	f.t.Helper()

	m := models.CoordinationMembership{
		ID:             primitive.NewObjectID(),
		UserID:         userID,
		CoordinationID: coordID,
		Role:           role,
		AssignedAt:     time.Now().UTC(),
	}

	if _, err := f.db.Collection("coordination_memberships").InsertOne(ctx, m); err != nil {
		f.t.Fatalf("failed to create test membership: %v", err)
	}
	return m
}
