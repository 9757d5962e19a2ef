package assignmentstore_test

import (
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	assignmentstore "github.com/vocelabs/vocehub/internal/app/store/assignments"
	"github.com/vocelabs/vocehub/internal/app/system/indexes"
	"github.com/vocelabs/vocehub/internal/testutil"
)

func newStore(t *testing.T) *assignmentstore.Store {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	return assignmentstore.New(db, testutil.TestClient(db), zap.NewNop())
}

func TestAddAndList(t *testing.T) {
	store := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	g1 := primitive.NewObjectID()
	g2 := primitive.NewObjectID()

	if err := store.Add(ctx, userID, g1, false, nil); err != nil {
		t.Fatalf("Add g1 failed: %v", err)
	}
	if err := store.Add(ctx, userID, g2, true, nil); err != nil {
		t.Fatalf("Add g2 failed: %v", err)
	}

	got, err := store.ListByUser(ctx, userID)
	if err != nil {
		t.Fatalf("ListByUser failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 assignments, got %d", len(got))
	}

	// Adding the same group twice is rejected by the unique index.
	if err := store.Add(ctx, userID, g1, false, nil); !errors.Is(err, assignmentstore.ErrAlreadyAssigned) {
		t.Errorf("duplicate add: got %v, want ErrAlreadyAssigned", err)
	}
}

func TestAddPrimaryDisplacesPrevious(t *testing.T) {
	store := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	g1 := primitive.NewObjectID()
	g2 := primitive.NewObjectID()

	if err := store.Add(ctx, userID, g1, true, nil); err != nil {
		t.Fatalf("Add g1 failed: %v", err)
	}
	if err := store.Add(ctx, userID, g2, true, nil); err != nil {
		t.Fatalf("Add g2 failed: %v", err)
	}

	assertSinglePrimary(t, store, userID, g2)
}

func TestSetUserGroupsReplacesSet(t *testing.T) {
	store := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	g1 := primitive.NewObjectID()
	g2 := primitive.NewObjectID()
	g3 := primitive.NewObjectID()

	if err := store.SetUserGroups(ctx, userID, []primitive.ObjectID{g1, g2}, g1, nil); err != nil {
		t.Fatalf("first SetUserGroups failed: %v", err)
	}

	before, err := store.ListByUser(ctx, userID)
	if err != nil {
		t.Fatalf("ListByUser failed: %v", err)
	}
	g1AssignedAt := before[0].AssignedAt
	for _, a := range before {
		if a.GroupID == g1 {
			g1AssignedAt = a.AssignedAt
		}
	}

	// Replace: keep g1, drop g2, add g3, move primary to g3.
	if err := store.SetUserGroups(ctx, userID, []primitive.ObjectID{g1, g3}, g3, nil); err != nil {
		t.Fatalf("second SetUserGroups failed: %v", err)
	}

	after, err := store.ListByUser(ctx, userID)
	if err != nil {
		t.Fatalf("ListByUser failed: %v", err)
	}
	if len(after) != 2 {
		t.Fatalf("expected 2 assignments, got %d", len(after))
	}
	for _, a := range after {
		switch a.GroupID {
		case g1:
			if a.IsPrimary {
				t.Error("g1 should no longer be primary")
			}
			// Re-saved groups keep their original assignment time so the
			// role tie-break stays stable.
			if !a.AssignedAt.Equal(g1AssignedAt) {
				t.Errorf("g1 assigned_at changed: %v -> %v", g1AssignedAt, a.AssignedAt)
			}
		case g3:
			if !a.IsPrimary {
				t.Error("g3 should be primary")
			}
		default:
			t.Errorf("unexpected group %s", a.GroupID.Hex())
		}
	}

	assertSinglePrimary(t, store, userID, g3)
}

func TestSetUserGroupsValidation(t *testing.T) {
	store := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	g1 := primitive.NewObjectID()

	// Duplicate ids rejected.
	if err := store.SetUserGroups(ctx, userID, []primitive.ObjectID{g1, g1}, primitive.NilObjectID, nil); err == nil {
		t.Error("expected error for duplicate group ids")
	}

	// Primary outside the set rejected.
	if err := store.SetUserGroups(ctx, userID, []primitive.ObjectID{g1}, primitive.NewObjectID(), nil); err == nil {
		t.Error("expected error for out-of-set primary")
	}

	// Clearing all groups is a legal replacement.
	if err := store.SetUserGroups(ctx, userID, []primitive.ObjectID{g1}, g1, nil); err != nil {
		t.Fatalf("SetUserGroups failed: %v", err)
	}
	if err := store.SetUserGroups(ctx, userID, nil, primitive.NilObjectID, nil); err != nil {
		t.Fatalf("clearing SetUserGroups failed: %v", err)
	}
	got, err := store.ListByUser(ctx, userID)
	if err != nil {
		t.Fatalf("ListByUser failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no assignments, got %d", len(got))
	}
}

func TestRemoveGroupCascade(t *testing.T) {
	store := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	groupID := primitive.NewObjectID()
	u1 := primitive.NewObjectID()
	u2 := primitive.NewObjectID()

	if err := store.Add(ctx, u1, groupID, false, nil); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := store.Add(ctx, u2, groupID, false, nil); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	n, err := store.CountByGroup(ctx, groupID)
	if err != nil || n != 2 {
		t.Fatalf("CountByGroup: n=%d err=%v", n, err)
	}

	removed, err := store.RemoveGroup(ctx, groupID)
	if err != nil {
		t.Fatalf("RemoveGroup failed: %v", err)
	}
	if removed != 2 {
		t.Errorf("expected 2 removals, got %d", removed)
	}

	n, err = store.CountByGroup(ctx, groupID)
	if err != nil || n != 0 {
		t.Errorf("after cascade: n=%d err=%v", n, err)
	}
}

func assertSinglePrimary(t *testing.T, store *assignmentstore.Store, userID, wantGroup primitive.ObjectID) {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	got, err := store.ListByUser(ctx, userID)
	if err != nil {
		t.Fatalf("ListByUser failed: %v", err)
	}
	primaries := 0
	for _, a := range got {
		if a.IsPrimary {
			primaries++
			if a.GroupID != wantGroup {
				t.Errorf("primary is %s, want %s", a.GroupID.Hex(), wantGroup.Hex())
			}
		}
	}
	if primaries != 1 {
		t.Errorf("expected exactly 1 primary, got %d", primaries)
	}
}
