// internal/app/store/coordinations/coordinationstore.go
//
// Coordinations and their memberships share one store because the
// archive/reassign flow has to move members and flip coordination flags
// inside a single transaction.
package coordinationstore

import (
	"context"
	"errors"
	"time"

	"github.com/vocelabs/vocehub/internal/app/system/apperr"
	"github.com/vocelabs/vocehub/internal/app/system/normalize"
	"github.com/vocelabs/vocehub/internal/app/system/txn"
	"github.com/vocelabs/vocehub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type Store struct {
	coords  *mongo.Collection
	members *mongo.Collection
	client  *mongo.Client
	log     *zap.Logger
}

func New(db *mongo.Database, client *mongo.Client, log *zap.Logger) *Store {
	return &Store{
		coords:  db.Collection("coordinations"),
		members: db.Collection("coordination_memberships"),
		client:  client,
		log:     log,
	}
}

var (
	ErrDuplicateCode   = errors.New("a coordination with this code already exists")
	ErrHasMembers      = errors.New("coordination still has members")
	ErrAlreadyMember   = errors.New("user already belongs to this coordination")
	ErrMembershipMoved = errors.New("membership changed since the snapshot was taken")
)

// ListFilter narrows GetAll. Nil fields match everything.
type ListFilter struct {
	Archived  *bool
	Operative *bool
}

// GetAll returns coordinations sorted by code.
func (s *Store) GetAll(ctx context.Context, f ListFilter) ([]models.Coordination, error) {
	q := bson.M{}
	if f.Archived != nil {
		q["archived"] = *f.Archived
	}
	if f.Operative != nil {
		q["operative"] = *f.Operative
	}
	opts := options.Find().SetSort(bson.D{{Key: "code", Value: 1}})
	cur, err := s.coords.Find(ctx, q, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Coordination
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Coordination, error) {
	var c models.Coordination
	if err := s.coords.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return models.Coordination{}, err
	}
	return c, nil
}

func (s *Store) GetByCode(ctx context.Context, code string) (models.Coordination, error) {
	var c models.Coordination
	if err := s.coords.FindOne(ctx, bson.M{"code": normalize.Code(code)}).Decode(&c); err != nil {
		return models.Coordination{}, err
	}
	return c, nil
}

// Create inserts a new coordination. New coordinations start unarchived
// and operative. Codes are stored uppercase.
func (s *Store) Create(ctx context.Context, c models.Coordination) (models.Coordination, error) {
	now := time.Now().UTC()
	c.ID = primitive.NewObjectID()
	c.Code = normalize.Code(c.Code)
	c.Name = normalize.Name(c.Name)
	c.NameCI = text.Fold(c.Name)
	c.Archived = false
	c.Operative = true
	c.CreatedAt = now
	c.UpdatedAt = now

	if c.Code == "" {
		return models.Coordination{}, errors.New("coordination code is required")
	}
	if c.Name == "" {
		return models.Coordination{}, errors.New("coordination name is required")
	}

	if _, err := s.coords.InsertOne(ctx, c); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Coordination{}, ErrDuplicateCode
		}
		return models.Coordination{}, err
	}
	return c, nil
}

// UpdateInfo changes name and description. Code is immutable after
// creation.
func (s *Store) UpdateInfo(ctx context.Context, id primitive.ObjectID, name, description string) error {
	name = normalize.Name(name)
	if name == "" {
		return errors.New("coordination name is required")
	}
	_, err := s.coords.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"name":        name,
		"name_ci":     text.Fold(name),
		"description": description,
		"updated_at":  time.Now().UTC(),
	}})
	return err
}

// SetOperative flips the pause flag. Archived coordinations cannot be
// made operative.
func (s *Store) SetOperative(ctx context.Context, id primitive.ObjectID, operative bool) error {
	q := bson.M{"_id": id}
	if operative {
		q["archived"] = false
	}
	res, err := s.coords.UpdateOne(ctx, q, bson.M{"$set": bson.M{
		"operative":  operative,
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// SetArchived flips the archive flag. Archiving also clears operative;
// unarchiving restores it.
func (s *Store) SetArchived(ctx context.Context, id primitive.ObjectID, archived bool) error {
	res, err := s.coords.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"archived":   archived,
		"operative":  !archived,
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// HardDelete removes a coordination permanently. It refuses while any
// membership still points at it.
func (s *Store) HardDelete(ctx context.Context, id primitive.ObjectID) error {
	body := func(ctx context.Context) error {
		n, err := s.members.CountDocuments(ctx, bson.M{"coordination_id": id})
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrHasMembers
		}
		res, err := s.coords.DeleteOne(ctx, bson.M{"_id": id})
		if err != nil {
			return err
		}
		if res.DeletedCount == 0 {
			return mongo.ErrNoDocuments
		}
		return nil
	}
	return txn.Run(ctx, s.client, s.log, body)
}

// Roster is the membership of one coordination split the way the admin
// console displays it: supervisors and ejecutivos on one side,
// coordinadores on the other.
type Roster struct {
	Executives   []models.CoordinationMembership
	Coordinators []models.CoordinationMembership
}

// Members returns the full roster of a coordination.
func (s *Store) Members(ctx context.Context, coordinationID primitive.ObjectID) (Roster, error) {
	cur, err := s.members.Find(ctx, bson.M{"coordination_id": coordinationID})
	if err != nil {
		return Roster{}, err
	}
	defer cur.Close(ctx)

	var r Roster
	for cur.Next(ctx) {
		var m models.CoordinationMembership
		if err := cur.Decode(&m); err != nil {
			return Roster{}, err
		}
		if m.Role == models.RoleCoordinador {
			r.Coordinators = append(r.Coordinators, m)
		} else {
			r.Executives = append(r.Executives, m)
		}
	}
	return r, cur.Err()
}

// MemberCount reports how many memberships a coordination has.
func (s *Store) MemberCount(ctx context.Context, coordinationID primitive.ObjectID) (int64, error) {
	return s.members.CountDocuments(ctx, bson.M{"coordination_id": coordinationID})
}

// ListByUser returns a user's memberships.
func (s *Store) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.CoordinationMembership, error) {
	cur, err := s.members.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.CoordinationMembership
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CoordinationIDsByUser returns the ids of every coordination a user
// belongs to, in no particular order.
func (s *Store) CoordinationIDsByUser(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	ms, err := s.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(ms))
	for _, m := range ms {
		ids = append(ids, m.CoordinationID)
	}
	return ids, nil
}

// UserIDsInCoordinations returns the distinct user ids holding any
// membership in the given coordinations. The scope filter uses this to
// bound a coordinator's user listing.
func (s *Store) UserIDsInCoordinations(ctx context.Context, coordinationIDs []primitive.ObjectID) ([]primitive.ObjectID, error) {
	if len(coordinationIDs) == 0 {
		return nil, nil
	}
	raw, err := s.members.Distinct(ctx, "user_id", bson.M{"coordination_id": bson.M{"$in": coordinationIDs}})
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(raw))
	for _, v := range raw {
		if id, ok := v.(primitive.ObjectID); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// AssignMemberships replaces a user's coordination set for one role.
// Cardinality is enforced here: ejecutivo and supervisor may hold at
// most one coordination, coordinador any number, every other role none.
func (s *Store) AssignMemberships(ctx context.Context, userID primitive.ObjectID, role models.Role, coordinationIDs []primitive.ObjectID, assignedBy *primitive.ObjectID) error {
	switch {
	case role.SingleCoordination():
		if len(coordinationIDs) > 1 {
			return apperr.Validationf("role %s allows membership in one coordination only", role)
		}
	case role.MultiCoordination():
		// any count
	default:
		if len(coordinationIDs) > 0 {
			return apperr.Validationf("role %s cannot hold coordination memberships", role)
		}
	}

	seen := make(map[primitive.ObjectID]struct{}, len(coordinationIDs))
	for _, id := range coordinationIDs {
		if _, dup := seen[id]; dup {
			return apperr.Validationf("duplicate coordination id %s", id.Hex())
		}
		seen[id] = struct{}{}
	}

	now := time.Now().UTC()
	body := func(ctx context.Context) error {
		// Memberships may only target live coordinations.
		if len(coordinationIDs) > 0 {
			n, err := s.coords.CountDocuments(ctx, bson.M{
				"_id":      bson.M{"$in": coordinationIDs},
				"archived": false,
			})
			if err != nil {
				return err
			}
			if n != int64(len(coordinationIDs)) {
				return apperr.Conflictf("one or more coordinations are missing or archived")
			}
		}

		if _, err := s.members.DeleteMany(ctx, bson.M{"user_id": userID}); err != nil {
			return err
		}
		if len(coordinationIDs) == 0 {
			return nil
		}
		docs := make([]interface{}, 0, len(coordinationIDs))
		for _, cid := range coordinationIDs {
			docs = append(docs, models.CoordinationMembership{
				ID:             primitive.NewObjectID(),
				UserID:         userID,
				CoordinationID: cid,
				Role:           role,
				AssignedAt:     now,
				AssignedBy:     assignedBy,
			})
		}
		if _, err := s.members.InsertMany(ctx, docs); err != nil {
			if wafflemongo.IsDup(err) {
				return ErrAlreadyMember
			}
			return err
		}
		return nil
	}
	return txn.Run(ctx, s.client, s.log, body)
}

// RemoveUser drops every membership a user holds. Called on user delete.
func (s *Store) RemoveUser(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	res, err := s.members.DeleteMany(ctx, bson.M{"user_id": userID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// ReassignResult reports what BulkReassign moved.
type ReassignResult struct {
	ExecutivesMoved   int
	CoordinatorsMoved int
}

// reassign is the transactional core of BulkReassign and Archive. It
// must run inside a session.
func (s *Store) reassign(ctx context.Context, sourceID, destID primitive.ObjectID, snapshot []models.CoordinationMembership, result *ReassignResult) error {
	now := time.Now().UTC()
	*result = ReassignResult{}

	var dest models.Coordination
	if err := s.coords.FindOne(ctx, bson.M{"_id": destID}).Decode(&dest); err != nil {
		return err
	}
	if dest.Archived {
		return errors.New("destination coordination is archived")
	}

	// Verify the source roster still matches the snapshot exactly.
	current, err := s.Members(ctx, sourceID)
	if err != nil {
		return err
	}
	live := make(map[primitive.ObjectID]models.Role, len(current.Executives)+len(current.Coordinators))
	for _, m := range append(current.Executives, current.Coordinators...) {
		live[m.UserID] = m.Role
	}
	if len(live) != len(snapshot) {
		return ErrMembershipMoved
	}
	for _, m := range snapshot {
		role, ok := live[m.UserID]
		if !ok || role != m.Role {
			return ErrMembershipMoved
		}
	}

	// Members already holding a destination row (a coordinador can sit in
	// both coordinations at once) must have their source row deleted, not
	// updated: updating would collide with the unique (user, coordination)
	// index, and a write error aborts the whole transaction server-side,
	// so it cannot be caught and compensated for mid-session.
	userIDs := make([]primitive.ObjectID, 0, len(snapshot))
	for _, m := range snapshot {
		userIDs = append(userIDs, m.UserID)
	}
	cur, err := s.members.Find(ctx, bson.M{
		"coordination_id": destID,
		"user_id":         bson.M{"$in": userIDs},
	})
	if err != nil {
		return err
	}
	var existing []models.CoordinationMembership
	if err := cur.All(ctx, &existing); err != nil {
		return err
	}
	inDest := make(map[primitive.ObjectID]bool, len(existing))
	for _, m := range existing {
		inDest[m.UserID] = true
	}

	for _, m := range snapshot {
		if inDest[m.UserID] {
			res, err := s.members.DeleteOne(ctx, bson.M{
				"user_id": m.UserID, "coordination_id": sourceID, "role": m.Role,
			})
			if err != nil {
				return err
			}
			if res.DeletedCount == 0 {
				return ErrMembershipMoved
			}
		} else {
			res, err := s.members.UpdateOne(ctx,
				bson.M{"user_id": m.UserID, "coordination_id": sourceID, "role": m.Role},
				bson.M{"$set": bson.M{"coordination_id": destID, "assigned_at": now}})
			if err != nil {
				return err
			}
			if res.MatchedCount == 0 {
				return ErrMembershipMoved
			}
		}
		if m.Role == models.RoleCoordinador {
			result.CoordinatorsMoved++
		} else {
			result.ExecutivesMoved++
		}
	}
	return nil
}

// BulkReassign moves every membership in snapshot from the source
// coordination to the destination in one transaction. The snapshot is
// the roster the caller showed the operator when the move was armed; if
// any of those memberships has since changed (user removed, role
// changed, already moved) the whole call fails with ErrMembershipMoved
// and nothing is written.
func (s *Store) BulkReassign(ctx context.Context, sourceID, destID primitive.ObjectID, snapshot []models.CoordinationMembership) (ReassignResult, error) {
	var result ReassignResult
	body := func(ctx context.Context) error {
		return s.reassign(ctx, sourceID, destID, snapshot, &result)
	}
	if err := txn.RunRequired(ctx, s.client, body); err != nil {
		return ReassignResult{}, err
	}
	return result, nil
}

// Archive reassigns the snapshot and archives the source coordination
// in the same transaction, so a failed move never leaves the source
// archived with stranded members.
func (s *Store) Archive(ctx context.Context, sourceID, destID primitive.ObjectID, snapshot []models.CoordinationMembership) (ReassignResult, error) {
	var result ReassignResult
	body := func(ctx context.Context) error {
		if err := s.reassign(ctx, sourceID, destID, snapshot, &result); err != nil {
			return err
		}
		res, err := s.coords.UpdateOne(ctx,
			bson.M{"_id": sourceID, "archived": false},
			bson.M{"$set": bson.M{
				"archived":   true,
				"operative":  false,
				"updated_at": time.Now().UTC(),
			}})
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			return ErrMembershipMoved
		}
		return nil
	}
	if err := txn.RunRequired(ctx, s.client, body); err != nil {
		return ReassignResult{}, err
	}
	return result, nil
}
