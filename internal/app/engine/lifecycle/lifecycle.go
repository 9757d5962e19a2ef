// internal/app/engine/lifecycle/lifecycle.go
//
// The lifecycle engine drives coordination state changes: the
// pause/resume toggle and the arm-then-commit archive flow with member
// reassignment. Archiving is deliberate by construction: the operator
// arms a plan against a snapshot of the roster, waits out a delay, and
// only then may commit, with the engine re-validating everything at
// commit time.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	coordinationstore "github.com/vocelabs/vocehub/internal/app/store/coordinations"
	"github.com/vocelabs/vocehub/internal/app/system/apperr"
	"github.com/vocelabs/vocehub/internal/app/system/notify"
	"github.com/vocelabs/vocehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// DefaultArmDelay is how long an armed plan must rest before it can be
// committed.
const DefaultArmDelay = 5 * time.Second

// Source is the slice of the coordination store the engine needs.
type Source interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Coordination, error)
	SetOperative(ctx context.Context, id primitive.ObjectID, operative bool) error
	SetArchived(ctx context.Context, id primitive.ObjectID, archived bool) error
	HardDelete(ctx context.Context, id primitive.ObjectID) error
	Members(ctx context.Context, coordinationID primitive.ObjectID) (coordinationstore.Roster, error)
	MemberCount(ctx context.Context, coordinationID primitive.ObjectID) (int64, error)
	Archive(ctx context.Context, sourceID, destID primitive.ObjectID, snapshot []models.CoordinationMembership) (coordinationstore.ReassignResult, error)
}

type Engine struct {
	coords   Source
	notifier notify.Notifier
	log      *zap.Logger

	clock func() time.Time
	delay time.Duration

	plans *planner
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces the wall clock. Tests use this to step time past
// the arming delay.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) { e.clock = clock }
}

// WithArmDelay overrides DefaultArmDelay.
func WithArmDelay(d time.Duration) Option {
	return func(e *Engine) { e.delay = d }
}

func New(coords Source, notifier notify.Notifier, log *zap.Logger, opts ...Option) *Engine {
	e := &Engine{
		coords:   coords,
		notifier: notifier,
		log:      log,
		clock:    time.Now,
		delay:    DefaultArmDelay,
		plans:    newPlanner(),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *Engine) load(ctx context.Context, id primitive.ObjectID) (models.Coordination, error) {
	c, err := e.coords.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Coordination{}, apperr.Validationf("coordination %s not found", id.Hex())
		}
		return models.Coordination{}, err
	}
	return c, nil
}

// Pause takes an active coordination out of operation. Membership is
// untouched and the change is reversible with Resume.
func (e *Engine) Pause(ctx context.Context, id primitive.ObjectID) error {
	c, err := e.load(ctx, id)
	if err != nil {
		return err
	}
	if c.Archived {
		return apperr.Conflictf("coordination %s is archived", c.Code)
	}
	return e.coords.SetOperative(ctx, id, false)
}

// Resume puts a paused coordination back in operation.
func (e *Engine) Resume(ctx context.Context, id primitive.ObjectID) error {
	c, err := e.load(ctx, id)
	if err != nil {
		return err
	}
	if c.Archived {
		return apperr.Conflictf("coordination %s is archived", c.Code)
	}
	return e.coords.SetOperative(ctx, id, true)
}

// Snapshot is what BeginArchive shows the operator before they pick a
// destination: the coordination plus its roster at that moment.
type Snapshot struct {
	Coordination models.Coordination
	Executives   []models.CoordinationMembership
	Coordinators []models.CoordinationMembership
}

// Memberships flattens the snapshot roster.
func (s Snapshot) Memberships() []models.CoordinationMembership {
	out := make([]models.CoordinationMembership, 0, len(s.Executives)+len(s.Coordinators))
	out = append(out, s.Executives...)
	out = append(out, s.Coordinators...)
	return out
}

// BeginArchive reports what archiving would move. No state changes.
func (e *Engine) BeginArchive(ctx context.Context, sourceID primitive.ObjectID) (Snapshot, error) {
	c, err := e.load(ctx, sourceID)
	if err != nil {
		return Snapshot{}, err
	}
	if c.Archived {
		return Snapshot{}, apperr.Conflictf("coordination %s is already archived", c.Code)
	}
	roster, err := e.coords.Members(ctx, sourceID)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Coordination: c, Executives: roster.Executives, Coordinators: roster.Coordinators}, nil
}

// ArmArchive validates the move and arms a plan. The snapshot is taken
// now; commit verifies the roster has not drifted from it. Arming the
// same source again replaces the previous plan and restarts the delay.
func (e *Engine) ArmArchive(ctx context.Context, sourceID, destID primitive.ObjectID) (ReassignmentPlan, error) {
	if destID.IsZero() {
		return ReassignmentPlan{}, apperr.Validationf("destination coordination is required")
	}
	if destID == sourceID {
		return ReassignmentPlan{}, apperr.Validationf("destination must differ from the coordination being archived")
	}

	snap, err := e.BeginArchive(ctx, sourceID)
	if err != nil {
		return ReassignmentPlan{}, err
	}
	dest, err := e.load(ctx, destID)
	if err != nil {
		return ReassignmentPlan{}, err
	}
	if dest.State() != models.CoordinationActive {
		return ReassignmentPlan{}, apperr.Conflictf("destination %s is not active", dest.Code)
	}

	plan := e.plans.arm(sourceID, destID, snap.Memberships(), e.clock())
	e.log.Info("archive armed",
		zap.String("plan_id", plan.ID),
		zap.String("source", snap.Coordination.Code),
		zap.String("dest", dest.Code),
		zap.Int("members", len(plan.Snapshot)))
	return plan, nil
}

// CommitResult reports a completed archive.
type CommitResult struct {
	ExecutivesMoved   int
	CoordinatorsMoved int
}

// CommitArchive executes an armed plan: re-validates both coordinations,
// moves the snapshot members, and archives the source, all atomically.
// The arming delay is measured here from ArmedAt; a client cannot rush
// it by claiming time has passed.
func (e *Engine) CommitArchive(ctx context.Context, sourceID primitive.ObjectID, planID string) (CommitResult, error) {
	plan, ok := e.plans.get(sourceID)
	if !ok || plan.ID != planID {
		return CommitResult{}, apperr.Conflictf("no armed archive plan %s for this coordination", planID)
	}

	if elapsed := e.clock().Sub(plan.ArmedAt); elapsed < e.delay {
		return CommitResult{}, apperr.Conflictf("archive confirmation not yet available, retry in %s",
			(e.delay - elapsed).Round(time.Millisecond))
	}

	source, err := e.load(ctx, sourceID)
	if err != nil {
		return CommitResult{}, err
	}
	if source.Archived {
		e.plans.clear(sourceID)
		return CommitResult{}, apperr.Conflictf("coordination %s was already archived", source.Code)
	}
	dest, err := e.load(ctx, plan.DestID)
	if err != nil {
		return CommitResult{}, err
	}
	if dest.State() != models.CoordinationActive {
		return CommitResult{}, apperr.Conflictf("destination %s is no longer active", dest.Code)
	}

	moved, err := e.coords.Archive(ctx, sourceID, plan.DestID, plan.Snapshot)
	if err != nil {
		if errors.Is(err, coordinationstore.ErrMembershipMoved) {
			return CommitResult{}, apperr.Conflictf("membership changed since the plan was armed, re-arm to continue")
		}
		werr := apperr.Integrityf(err, "archive of %s failed and was rolled back", source.Code)
		e.notifier.Notify(ctx, notify.Result{
			Success: false,
			Message: fmt.Sprintf("Could not archive %s", source.Code),
			Detail:  werr.Message,
		})
		return CommitResult{}, werr
	}

	e.plans.clear(sourceID)
	result := CommitResult{ExecutivesMoved: moved.ExecutivesMoved, CoordinatorsMoved: moved.CoordinatorsMoved}
	e.log.Info("coordination archived",
		zap.String("source", source.Code),
		zap.String("dest", dest.Code),
		zap.Int("executives_moved", result.ExecutivesMoved),
		zap.Int("coordinators_moved", result.CoordinatorsMoved))
	e.notifier.Notify(ctx, notify.Result{
		Success: true,
		Message: fmt.Sprintf("%s archived", source.Code),
		Detail: fmt.Sprintf("%d executives and %d coordinators moved to %s",
			result.ExecutivesMoved, result.CoordinatorsMoved, dest.Code),
	})
	return result, nil
}

// CancelArchive discards an armed plan. No store side effects.
func (e *Engine) CancelArchive(_ context.Context, sourceID primitive.ObjectID) bool {
	return e.plans.clear(sourceID)
}

// Unarchive returns an archived coordination to the active state.
// Memberships moved away at archive time are not restored.
func (e *Engine) Unarchive(ctx context.Context, id primitive.ObjectID) error {
	c, err := e.load(ctx, id)
	if err != nil {
		return err
	}
	if !c.Archived {
		return apperr.Conflictf("coordination %s is not archived", c.Code)
	}
	return e.coords.SetArchived(ctx, id, false)
}

// HardDelete removes a coordination permanently. Only empty
// coordinations may go; anything with members must be archived instead.
func (e *Engine) HardDelete(ctx context.Context, id primitive.ObjectID) error {
	c, err := e.load(ctx, id)
	if err != nil {
		return err
	}
	n, err := e.coords.MemberCount(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return apperr.Conflictf("coordination %s still has %d members", c.Code, n)
	}
	e.plans.clear(id)
	if err := e.coords.HardDelete(ctx, id); err != nil {
		if errors.Is(err, coordinationstore.ErrHasMembers) {
			return apperr.Conflictf("coordination %s still has members", c.Code)
		}
		return err
	}
	return nil
}
