// internal/app/engine/lifecycle/lifecycle_test.go
package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	coordinationstore "github.com/vocelabs/vocehub/internal/app/store/coordinations"
	"github.com/vocelabs/vocehub/internal/app/system/apperr"
	"github.com/vocelabs/vocehub/internal/app/system/notify"
	"github.com/vocelabs/vocehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type fakeSource struct {
	coords  map[primitive.ObjectID]models.Coordination
	members map[primitive.ObjectID][]models.CoordinationMembership

	archiveErr error // injected failure for Archive
	deleted    []primitive.ObjectID
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		coords:  map[primitive.ObjectID]models.Coordination{},
		members: map[primitive.ObjectID][]models.CoordinationMembership{},
	}
}

func (f *fakeSource) addCoordination(code string, archived, operative bool) primitive.ObjectID {
	id := primitive.NewObjectID()
	f.coords[id] = models.Coordination{ID: id, Code: code, Name: code, Archived: archived, Operative: operative}
	return id
}

func (f *fakeSource) addMember(coordID primitive.ObjectID, role models.Role) primitive.ObjectID {
	userID := primitive.NewObjectID()
	f.members[coordID] = append(f.members[coordID], models.CoordinationMembership{
		ID: primitive.NewObjectID(), UserID: userID, CoordinationID: coordID, Role: role,
	})
	return userID
}

func (f *fakeSource) GetByID(_ context.Context, id primitive.ObjectID) (models.Coordination, error) {
	c, ok := f.coords[id]
	if !ok {
		return models.Coordination{}, mongo.ErrNoDocuments
	}
	return c, nil
}

func (f *fakeSource) SetOperative(_ context.Context, id primitive.ObjectID, operative bool) error {
	c := f.coords[id]
	c.Operative = operative
	f.coords[id] = c
	return nil
}

func (f *fakeSource) SetArchived(_ context.Context, id primitive.ObjectID, archived bool) error {
	c := f.coords[id]
	c.Archived = archived
	c.Operative = !archived
	f.coords[id] = c
	return nil
}

func (f *fakeSource) HardDelete(_ context.Context, id primitive.ObjectID) error {
	if len(f.members[id]) > 0 {
		return coordinationstore.ErrHasMembers
	}
	delete(f.coords, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeSource) Members(_ context.Context, coordID primitive.ObjectID) (coordinationstore.Roster, error) {
	var r coordinationstore.Roster
	for _, m := range f.members[coordID] {
		if m.Role == models.RoleCoordinador {
			r.Coordinators = append(r.Coordinators, m)
		} else {
			r.Executives = append(r.Executives, m)
		}
	}
	return r, nil
}

func (f *fakeSource) MemberCount(_ context.Context, coordID primitive.ObjectID) (int64, error) {
	return int64(len(f.members[coordID])), nil
}

func (f *fakeSource) Archive(_ context.Context, sourceID, destID primitive.ObjectID, snapshot []models.CoordinationMembership) (coordinationstore.ReassignResult, error) {
	if f.archiveErr != nil {
		return coordinationstore.ReassignResult{}, f.archiveErr
	}
	live := make(map[primitive.ObjectID]models.Role)
	for _, m := range f.members[sourceID] {
		live[m.UserID] = m.Role
	}
	if len(live) != len(snapshot) {
		return coordinationstore.ReassignResult{}, coordinationstore.ErrMembershipMoved
	}
	var result coordinationstore.ReassignResult
	for _, m := range snapshot {
		role, ok := live[m.UserID]
		if !ok || role != m.Role {
			return coordinationstore.ReassignResult{}, coordinationstore.ErrMembershipMoved
		}
		m.CoordinationID = destID
		f.members[destID] = append(f.members[destID], m)
		if m.Role == models.RoleCoordinador {
			result.CoordinatorsMoved++
		} else {
			result.ExecutivesMoved++
		}
	}
	delete(f.members, sourceID)
	c := f.coords[sourceID]
	c.Archived = true
	c.Operative = false
	f.coords[sourceID] = c
	return result, nil
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestEngine(src *fakeSource) (*Engine, *fakeClock, *notify.Recorder) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	rec := &notify.Recorder{}
	eng := New(src, rec, zap.NewNop(), WithClock(clock.Now))
	return eng, clock, rec
}

func TestPauseResume(t *testing.T) {
	src := newFakeSource()
	id := src.addCoordination("NORTE", false, true)
	eng, _, _ := newTestEngine(src)
	ctx := context.Background()

	if err := eng.Pause(ctx, id); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	if src.coords[id].Operative {
		t.Fatal("coordination should be paused")
	}
	if got := src.coords[id].State(); got != models.CoordinationPaused {
		t.Fatalf("state = %s, want paused", got)
	}

	if err := eng.Resume(ctx, id); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if !src.coords[id].Operative {
		t.Fatal("coordination should be operative again")
	}
}

func TestPauseArchivedRejected(t *testing.T) {
	src := newFakeSource()
	id := src.addCoordination("VIEJA", true, false)
	eng, _, _ := newTestEngine(src)

	if err := eng.Pause(context.Background(), id); !apperr.IsConflict(err) {
		t.Fatalf("expected conflict pausing an archived coordination, got %v", err)
	}
	if err := eng.Resume(context.Background(), id); !apperr.IsConflict(err) {
		t.Fatalf("expected conflict resuming an archived coordination, got %v", err)
	}
}

func TestBeginArchiveSnapshot(t *testing.T) {
	src := newFakeSource()
	id := src.addCoordination("NORTE", false, true)
	src.addMember(id, models.RoleEjecutivo)
	src.addMember(id, models.RoleSupervisor)
	src.addMember(id, models.RoleCoordinador)
	eng, _, _ := newTestEngine(src)

	snap, err := eng.BeginArchive(context.Background(), id)
	if err != nil {
		t.Fatalf("BeginArchive: %v", err)
	}
	if len(snap.Executives) != 2 {
		t.Errorf("executives = %d, want 2 (ejecutivo + supervisor)", len(snap.Executives))
	}
	if len(snap.Coordinators) != 1 {
		t.Errorf("coordinators = %d, want 1", len(snap.Coordinators))
	}
	// No mutation yet.
	if src.coords[id].Archived {
		t.Error("BeginArchive must not mutate state")
	}
}

func TestArmArchiveValidation(t *testing.T) {
	src := newFakeSource()
	source := src.addCoordination("NORTE", false, true)
	paused := src.addCoordination("PAUSA", false, false)
	archived := src.addCoordination("VIEJA", true, false)
	eng, _, _ := newTestEngine(src)
	ctx := context.Background()

	if _, err := eng.ArmArchive(ctx, source, primitive.NilObjectID); !apperr.IsValidation(err) {
		t.Errorf("missing destination: expected validation error, got %v", err)
	}
	if _, err := eng.ArmArchive(ctx, source, source); !apperr.IsValidation(err) {
		t.Errorf("destination = source: expected validation error, got %v", err)
	}
	if _, err := eng.ArmArchive(ctx, source, primitive.NewObjectID()); !apperr.IsValidation(err) {
		t.Errorf("unknown destination: expected validation error, got %v", err)
	}
	if _, err := eng.ArmArchive(ctx, source, paused); !apperr.IsConflict(err) {
		t.Errorf("paused destination: expected conflict, got %v", err)
	}
	if _, err := eng.ArmArchive(ctx, source, archived); !apperr.IsConflict(err) {
		t.Errorf("archived destination: expected conflict, got %v", err)
	}
	if _, err := eng.ArmArchive(ctx, archived, source); !apperr.IsConflict(err) {
		t.Errorf("archived source: expected conflict, got %v", err)
	}
}

func TestCommitBeforeDelayRejected(t *testing.T) {
	src := newFakeSource()
	source := src.addCoordination("NORTE", false, true)
	dest := src.addCoordination("SUR", false, true)
	eng, clock, _ := newTestEngine(src)
	ctx := context.Background()

	plan, err := eng.ArmArchive(ctx, source, dest)
	if err != nil {
		t.Fatalf("ArmArchive: %v", err)
	}

	if _, err := eng.CommitArchive(ctx, source, plan.ID); !apperr.IsConflict(err) {
		t.Fatalf("immediate commit: expected conflict, got %v", err)
	}
	clock.Advance(DefaultArmDelay - time.Millisecond)
	if _, err := eng.CommitArchive(ctx, source, plan.ID); !apperr.IsConflict(err) {
		t.Fatalf("commit 1ms early: expected conflict, got %v", err)
	}
	if src.coords[source].Archived {
		t.Fatal("rejected commit must not mutate state")
	}
}

func TestCommitAfterDelay(t *testing.T) {
	src := newFakeSource()
	source := src.addCoordination("NORTE", false, true)
	dest := src.addCoordination("SUR", false, true)
	src.addMember(source, models.RoleEjecutivo)
	src.addMember(source, models.RoleEjecutivo)
	src.addMember(source, models.RoleCoordinador)
	eng, clock, rec := newTestEngine(src)
	ctx := context.Background()

	plan, err := eng.ArmArchive(ctx, source, dest)
	if err != nil {
		t.Fatalf("ArmArchive: %v", err)
	}
	clock.Advance(DefaultArmDelay)

	result, err := eng.CommitArchive(ctx, source, plan.ID)
	if err != nil {
		t.Fatalf("CommitArchive: %v", err)
	}
	if result.ExecutivesMoved != 2 || result.CoordinatorsMoved != 1 {
		t.Fatalf("moved %d/%d, want 2/1", result.ExecutivesMoved, result.CoordinatorsMoved)
	}
	if !src.coords[source].Archived || src.coords[source].Operative {
		t.Fatal("source should be archived and non-operative")
	}
	if len(src.members[dest]) != 3 {
		t.Fatalf("destination roster = %d, want 3", len(src.members[dest]))
	}

	results := rec.Results()
	if len(results) != 1 || !results[0].Success {
		t.Fatalf("expected one success notification, got %+v", results)
	}

	// The plan is consumed; a second commit finds nothing armed.
	if _, err := eng.CommitArchive(ctx, source, plan.ID); !apperr.IsConflict(err) {
		t.Fatalf("second commit: expected conflict, got %v", err)
	}
}

func TestReArmResetsDelay(t *testing.T) {
	src := newFakeSource()
	source := src.addCoordination("NORTE", false, true)
	dest := src.addCoordination("SUR", false, true)
	eng, clock, _ := newTestEngine(src)
	ctx := context.Background()

	first, err := eng.ArmArchive(ctx, source, dest)
	if err != nil {
		t.Fatalf("ArmArchive: %v", err)
	}
	clock.Advance(DefaultArmDelay)

	second, err := eng.ArmArchive(ctx, source, dest)
	if err != nil {
		t.Fatalf("re-arm: %v", err)
	}
	if second.ID == first.ID {
		t.Fatal("re-arming should mint a new plan")
	}

	// The old plan is gone and the new one has a fresh ArmedAt.
	if _, err := eng.CommitArchive(ctx, source, first.ID); !apperr.IsConflict(err) {
		t.Fatalf("stale plan id: expected conflict, got %v", err)
	}
	if _, err := eng.CommitArchive(ctx, source, second.ID); !apperr.IsConflict(err) {
		t.Fatalf("commit right after re-arm: expected conflict, got %v", err)
	}
}

func TestCancelArchive(t *testing.T) {
	src := newFakeSource()
	source := src.addCoordination("NORTE", false, true)
	dest := src.addCoordination("SUR", false, true)
	eng, clock, _ := newTestEngine(src)
	ctx := context.Background()

	plan, err := eng.ArmArchive(ctx, source, dest)
	if err != nil {
		t.Fatalf("ArmArchive: %v", err)
	}
	if !eng.CancelArchive(ctx, source) {
		t.Fatal("CancelArchive should report a cleared plan")
	}
	if eng.CancelArchive(ctx, source) {
		t.Fatal("second cancel should find nothing")
	}

	clock.Advance(DefaultArmDelay)
	if _, err := eng.CommitArchive(ctx, source, plan.ID); !apperr.IsConflict(err) {
		t.Fatalf("commit after cancel: expected conflict, got %v", err)
	}
	if src.coords[source].Archived {
		t.Fatal("cancel must leave state untouched")
	}
}

func TestCommitRevalidatesState(t *testing.T) {
	ctx := context.Background()

	t.Run("source archived by another actor", func(t *testing.T) {
		src := newFakeSource()
		source := src.addCoordination("NORTE", false, true)
		dest := src.addCoordination("SUR", false, true)
		eng, clock, _ := newTestEngine(src)

		plan, _ := eng.ArmArchive(ctx, source, dest)
		clock.Advance(DefaultArmDelay)
		c := src.coords[source]
		c.Archived = true
		src.coords[source] = c

		if _, err := eng.CommitArchive(ctx, source, plan.ID); !apperr.IsConflict(err) {
			t.Fatalf("expected conflict, got %v", err)
		}
	})

	t.Run("destination no longer active", func(t *testing.T) {
		src := newFakeSource()
		source := src.addCoordination("NORTE", false, true)
		dest := src.addCoordination("SUR", false, true)
		eng, clock, _ := newTestEngine(src)

		plan, _ := eng.ArmArchive(ctx, source, dest)
		clock.Advance(DefaultArmDelay)
		c := src.coords[dest]
		c.Operative = false
		src.coords[dest] = c

		if _, err := eng.CommitArchive(ctx, source, plan.ID); !apperr.IsConflict(err) {
			t.Fatalf("expected conflict, got %v", err)
		}
		if src.coords[source].Archived {
			t.Fatal("source must stay unarchived")
		}
	})

	t.Run("roster drifted since arming", func(t *testing.T) {
		src := newFakeSource()
		source := src.addCoordination("NORTE", false, true)
		dest := src.addCoordination("SUR", false, true)
		src.addMember(source, models.RoleEjecutivo)
		eng, clock, _ := newTestEngine(src)

		plan, _ := eng.ArmArchive(ctx, source, dest)
		clock.Advance(DefaultArmDelay)
		src.addMember(source, models.RoleEjecutivo) // joined after arming

		if _, err := eng.CommitArchive(ctx, source, plan.ID); !apperr.IsConflict(err) {
			t.Fatalf("expected conflict, got %v", err)
		}
	})
}

func TestCommitStoreFailureIsIntegrity(t *testing.T) {
	src := newFakeSource()
	source := src.addCoordination("NORTE", false, true)
	dest := src.addCoordination("SUR", false, true)
	src.addMember(source, models.RoleEjecutivo)
	eng, clock, rec := newTestEngine(src)
	ctx := context.Background()

	plan, err := eng.ArmArchive(ctx, source, dest)
	if err != nil {
		t.Fatalf("ArmArchive: %v", err)
	}
	clock.Advance(DefaultArmDelay)

	src.archiveErr = errors.New("write conflict, transaction aborted")
	_, err = eng.CommitArchive(ctx, source, plan.ID)
	if !apperr.IsIntegrity(err) {
		t.Fatalf("expected integrity error, got %v", err)
	}
	if src.coords[source].Archived {
		t.Fatal("failed commit must leave the source unarchived")
	}

	results := rec.Results()
	if len(results) != 1 || results[0].Success {
		t.Fatalf("expected one failure notification, got %+v", results)
	}

	// The plan survives; the operator may retry once the store recovers.
	src.archiveErr = nil
	if _, err := eng.CommitArchive(ctx, source, plan.ID); err != nil {
		t.Fatalf("retry after store recovery: %v", err)
	}
}

func TestUnarchive(t *testing.T) {
	src := newFakeSource()
	archived := src.addCoordination("VIEJA", true, false)
	active := src.addCoordination("NORTE", false, true)
	eng, _, _ := newTestEngine(src)
	ctx := context.Background()

	if err := eng.Unarchive(ctx, archived); err != nil {
		t.Fatalf("Unarchive: %v", err)
	}
	c := src.coords[archived]
	if c.Archived || !c.Operative {
		t.Fatal("unarchived coordination should be active and operative")
	}
	// Memberships are not restored.
	if len(src.members[archived]) != 0 {
		t.Fatal("unarchive must not resurrect memberships")
	}

	if err := eng.Unarchive(ctx, active); !apperr.IsConflict(err) {
		t.Fatalf("unarchiving an active coordination: expected conflict, got %v", err)
	}
}

func TestHardDelete(t *testing.T) {
	src := newFakeSource()
	empty := src.addCoordination("VACIA", false, true)
	populated := src.addCoordination("NORTE", false, true)
	src.addMember(populated, models.RoleEjecutivo)
	eng, _, _ := newTestEngine(src)
	ctx := context.Background()

	if err := eng.HardDelete(ctx, populated); !apperr.IsConflict(err) {
		t.Fatalf("deleting a populated coordination: expected conflict, got %v", err)
	}
	if err := eng.HardDelete(ctx, empty); err != nil {
		t.Fatalf("HardDelete: %v", err)
	}
	if _, ok := src.coords[empty]; ok {
		t.Fatal("coordination should be gone")
	}
}
