// internal/app/store/assignments/assignmentstore.go
//
// Group assignments tie a user to the permission groups that feed the
// effective-permission computation. The set-replace operation runs in a
// transaction so readers never observe a user with zero groups mid-swap.
package assignmentstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vocelabs/vocehub/internal/app/system/txn"
	"github.com/vocelabs/vocehub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Store struct {
	c      *mongo.Collection
	client *mongo.Client
	log    *zap.Logger
}

func New(db *mongo.Database, client *mongo.Client, log *zap.Logger) *Store {
	return &Store{c: db.Collection("group_assignments"), client: client, log: log}
}

var ErrAlreadyAssigned = errors.New("user already has this group")

// ListByUser returns a user's assignments in one query, so callers see
// a consistent snapshot. Order is unspecified; the permission engine
// tie-breaks on AssignedAt itself.
func (s *Store) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.GroupAssignment, error) {
	cur, err := s.c.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.GroupAssignment
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByUsers batch-loads assignments for many users, keyed by user id.
func (s *Store) ListByUsers(ctx context.Context, userIDs []primitive.ObjectID) (map[primitive.ObjectID][]models.GroupAssignment, error) {
	out := make(map[primitive.ObjectID][]models.GroupAssignment, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"user_id": bson.M{"$in": userIDs}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var a models.GroupAssignment
		if err := cur.Decode(&a); err != nil {
			return nil, err
		}
		out[a.UserID] = append(out[a.UserID], a)
	}
	return out, cur.Err()
}

// CountByGroup reports how many users hold a given group.
func (s *Store) CountByGroup(ctx context.Context, groupID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"group_id": groupID})
}

// Add assigns a single group to a user. primary marks the group as the
// one whose base role wins ties in the effective-role computation; when
// set, any existing primary flag on the user's other assignments is
// cleared in the same transaction.
func (s *Store) Add(ctx context.Context, userID, groupID primitive.ObjectID, primary bool, assignedBy *primitive.ObjectID) error {
	doc := models.GroupAssignment{
		ID:         primitive.NewObjectID(),
		UserID:     userID,
		GroupID:    groupID,
		IsPrimary:  primary,
		AssignedAt: time.Now().UTC(),
		AssignedBy: assignedBy,
	}
	body := func(ctx context.Context) error {
		if primary {
			_, err := s.c.UpdateMany(ctx,
				bson.M{"user_id": userID, "is_primary": true},
				bson.M{"$set": bson.M{"is_primary": false}})
			if err != nil {
				return err
			}
		}
		if _, err := s.c.InsertOne(ctx, doc); err != nil {
			if wafflemongo.IsDup(err) {
				return ErrAlreadyAssigned
			}
			return err
		}
		return nil
	}
	return txn.Run(ctx, s.client, s.log, body)
}

// Remove drops one group from a user. Returns the number of documents
// deleted (0 or 1).
func (s *Store) Remove(ctx context.Context, userID, groupID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"user_id": userID, "group_id": groupID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// SetUserGroups replaces a user's full assignment set in one
// transaction. primaryID, when non-zero, must be one of groupIDs and
// becomes the primary assignment; at most one assignment ends up
// primary. Duplicate group ids are rejected.
func (s *Store) SetUserGroups(ctx context.Context, userID primitive.ObjectID, groupIDs []primitive.ObjectID, primaryID primitive.ObjectID, assignedBy *primitive.ObjectID) error {
	seen := make(map[primitive.ObjectID]struct{}, len(groupIDs))
	for _, id := range groupIDs {
		if _, dup := seen[id]; dup {
			return fmt.Errorf("duplicate group id %s", id.Hex())
		}
		seen[id] = struct{}{}
	}
	if !primaryID.IsZero() {
		if _, ok := seen[primaryID]; !ok {
			return errors.New("primary group must be among the assigned groups")
		}
	}

	now := time.Now().UTC()
	body := func(ctx context.Context) error {
		// Preserve AssignedAt for groups the user already holds so the
		// tie-break ordering survives a no-op re-save.
		existing, err := s.ListByUser(ctx, userID)
		if err != nil {
			return err
		}
		assignedAt := make(map[primitive.ObjectID]time.Time, len(existing))
		for _, a := range existing {
			assignedAt[a.GroupID] = a.AssignedAt
		}

		if _, err := s.c.DeleteMany(ctx, bson.M{"user_id": userID}); err != nil {
			return err
		}
		if len(groupIDs) == 0 {
			return nil
		}

		docs := make([]interface{}, 0, len(groupIDs))
		for _, gid := range groupIDs {
			at, had := assignedAt[gid]
			if !had {
				at = now
			}
			docs = append(docs, models.GroupAssignment{
				ID:         primitive.NewObjectID(),
				UserID:     userID,
				GroupID:    gid,
				IsPrimary:  gid == primaryID,
				AssignedAt: at,
				AssignedBy: assignedBy,
			})
		}
		_, err = s.c.InsertMany(ctx, docs)
		return err
	}
	return txn.Run(ctx, s.client, s.log, body)
}

// RemoveGroup strips a group from every user that holds it. Called when
// a group is deleted. Returns the number of assignments removed.
func (s *Store) RemoveGroup(ctx context.Context, groupID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"group_id": groupID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// RemoveUser strips every assignment from a user. Called on user delete.
func (s *Store) RemoveUser(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"user_id": userID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
