package audit_test

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/vocelabs/vocehub/internal/app/store/audit"
	"github.com/vocelabs/vocehub/internal/testutil"
)

func TestLogAndGetByUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes failed: %v", err)
	}

	userID := primitive.NewObjectID()
	actorID := primitive.NewObjectID()
	event := audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventGroupsAssigned,
		UserID:    &userID,
		ActorID:   &actorID,
		Success:   true,
		Details:   map[string]string{"groups": "supervisores"},
	}

	if err := store.Log(ctx, event); err != nil {
		t.Fatalf("Log failed: %v", err)
	}

	events, err := store.GetByUser(ctx, userID, 10)
	if err != nil {
		t.Fatalf("GetByUser failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	got := events[0]
	if got.EventType != audit.EventGroupsAssigned {
		t.Errorf("event type: got %q", got.EventType)
	}
	if got.ActorID == nil || *got.ActorID != actorID {
		t.Errorf("actor id not preserved")
	}
	if got.Timestamp.IsZero() {
		t.Error("timestamp not defaulted")
	}
	if got.Details["groups"] != "supervisores" {
		t.Errorf("details: %+v", got.Details)
	}
}

func TestQueryFilters(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	coordID := primitive.NewObjectID()
	otherCoord := primitive.NewObjectID()
	base := time.Now().UTC().Add(-time.Hour)

	log := func(eventType, category string, cid *primitive.ObjectID, at time.Time) {
		t.Helper()
		if err := store.Log(ctx, audit.Event{
			Category:       category,
			EventType:      eventType,
			CoordinationID: cid,
			Timestamp:      at,
			Success:        true,
		}); err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}

	log(audit.EventCoordinationPaused, audit.CategoryLifecycle, &coordID, base)
	log(audit.EventCoordinationResumed, audit.CategoryLifecycle, &coordID, base.Add(10*time.Minute))
	log(audit.EventCoordinationArchived, audit.CategoryLifecycle, &otherCoord, base.Add(20*time.Minute))
	log(audit.EventGroupCreated, audit.CategoryAdmin, nil, base.Add(30*time.Minute))

	tests := []struct {
		name   string
		filter audit.QueryFilter
		want   int
	}{
		{"by coordination", audit.QueryFilter{CoordinationID: &coordID}, 2},
		{"by coordination set", audit.QueryFilter{CoordinationIDs: []primitive.ObjectID{coordID, otherCoord}}, 3},
		{"by category", audit.QueryFilter{Category: audit.CategoryAdmin}, 1},
		{"by event type", audit.QueryFilter{EventType: audit.EventCoordinationPaused}, 1},
		{"by time window", audit.QueryFilter{
			StartTime: timePtr(base.Add(5 * time.Minute)),
			EndTime:   timePtr(base.Add(25 * time.Minute)),
		}, 2},
		{"everything", audit.QueryFilter{}, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, err := store.Query(ctx, tt.filter)
			if err != nil {
				t.Fatalf("Query failed: %v", err)
			}
			if len(events) != tt.want {
				t.Errorf("got %d events, want %d", len(events), tt.want)
			}

			n, err := store.CountByFilter(ctx, tt.filter)
			if err != nil {
				t.Fatalf("CountByFilter failed: %v", err)
			}
			if n != int64(tt.want) {
				t.Errorf("count: got %d, want %d", n, tt.want)
			}
		})
	}
}

func TestQueryOrderAndPaging(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		if err := store.Log(ctx, audit.Event{
			Category:  audit.CategoryAdmin,
			EventType: audit.EventUserUpdated,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Success:   true,
		}); err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}

	page, err := store.Query(ctx, audit.QueryFilter{Limit: 2, Offset: 1})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("expected 2 events, got %d", len(page))
	}
	// Most recent first; offset 1 skips the newest.
	if !page[0].Timestamp.After(page[1].Timestamp) {
		t.Error("events not in descending time order")
	}

	recent, err := store.GetRecent(ctx, 3)
	if err != nil {
		t.Fatalf("GetRecent failed: %v", err)
	}
	if len(recent) != 3 {
		t.Errorf("expected 3 recent events, got %d", len(recent))
	}
}

func timePtr(t time.Time) *time.Time { return &t }
