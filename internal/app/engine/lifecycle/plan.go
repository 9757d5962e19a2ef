// internal/app/engine/lifecycle/plan.go
package lifecycle

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vocelabs/vocehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ReassignmentPlan is an armed intent to archive one coordination and
// move its members elsewhere. Plans live in memory only: losing them on
// restart just means the operator re-arms, which is safer than
// resurrecting a stale intent.
type ReassignmentPlan struct {
	ID       string
	SourceID primitive.ObjectID
	DestID   primitive.ObjectID
	Snapshot []models.CoordinationMembership
	ArmedAt  time.Time
}

// planner holds armed plans keyed by source coordination. Arming the
// same source again replaces the previous plan; commit-time
// re-validation is the real guard against concurrent operators.
type planner struct {
	mu    sync.Mutex
	plans map[primitive.ObjectID]ReassignmentPlan
}

func newPlanner() *planner {
	return &planner{plans: make(map[primitive.ObjectID]ReassignmentPlan)}
}

func (p *planner) arm(sourceID, destID primitive.ObjectID, snapshot []models.CoordinationMembership, armedAt time.Time) ReassignmentPlan {
	plan := ReassignmentPlan{
		ID:       uuid.NewString(),
		SourceID: sourceID,
		DestID:   destID,
		Snapshot: snapshot,
		ArmedAt:  armedAt,
	}
	p.mu.Lock()
	p.plans[sourceID] = plan
	p.mu.Unlock()
	return plan
}

func (p *planner) get(sourceID primitive.ObjectID) (ReassignmentPlan, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	plan, ok := p.plans[sourceID]
	return plan, ok
}

func (p *planner) clear(sourceID primitive.ObjectID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.plans[sourceID]; !ok {
		return false
	}
	delete(p.plans, sourceID)
	return true
}
