// internal/app/store/groups/groupstore.go
package groupstore

import (
	"context"
	"errors"
	"time"

	"github.com/vocelabs/vocehub/internal/app/system/permcat"
	"github.com/vocelabs/vocehub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("permission_groups")}
}

var (
	ErrDuplicateGroupName = errors.New("a permission group with this name already exists")
	ErrSystemGroup        = errors.New("system groups cannot be deleted")
)

// GetAll returns every group, active and inactive, sorted by descending
// priority then name. The permission engine and the assignable-groups
// filter both work from this list.
func (s *Store) GetAll(ctx context.Context) ([]models.PermissionGroup, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "priority", Value: -1},
		{Key: "name_ci", Value: 1},
	})
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var groups []models.PermissionGroup
	if err := cur.All(ctx, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// GetByID returns a single group.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.PermissionGroup, error) {
	var g models.PermissionGroup
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&g); err != nil {
		return models.PermissionGroup{}, err
	}
	return g, nil
}

// GetByIDs fetches a batch of groups keyed by id. Missing ids are simply
// absent from the map.
func (s *Store) GetByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.PermissionGroup, error) {
	out := make(map[primitive.ObjectID]models.PermissionGroup, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var g models.PermissionGroup
		if err := cur.Decode(&g); err != nil {
			return nil, err
		}
		out[g.ID] = g
	}
	return out, cur.Err()
}

// GetByName looks a group up by its folded machine name.
func (s *Store) GetByName(ctx context.Context, name string) (models.PermissionGroup, error) {
	var g models.PermissionGroup
	if err := s.c.FindOne(ctx, bson.M{"name_ci": text.Fold(name)}).Decode(&g); err != nil {
		return models.PermissionGroup{}, err
	}
	return g, nil
}

// Create inserts a new group. The permission set is validated against
// the catalog and the base role against the closed role enum before any
// write.
func (s *Store) Create(ctx context.Context, g models.PermissionGroup) (models.PermissionGroup, error) {
	if _, err := models.ParseRole(string(g.BaseRole)); err != nil {
		return models.PermissionGroup{}, err
	}
	if err := permcat.Validate(g.Permissions); err != nil {
		return models.PermissionGroup{}, err
	}

	now := time.Now().UTC()
	g.ID = primitive.NewObjectID()
	g.NameCI = text.Fold(g.Name)
	g.IsActive = true
	g.CreatedAt = now
	g.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, g); err != nil {
		if wafflemongo.IsDup(err) {
			return models.PermissionGroup{}, ErrDuplicateGroupName
		}
		return models.PermissionGroup{}, err
	}
	return g, nil
}

// Patch describes a group update. Nil fields stay unchanged; identity
// (ID, Name, BaseRole, IsSystem) is not patchable.
type Patch struct {
	DisplayName *string
	Description *string
	Color       *string
	Icon        *string
	Priority    *int
	IsActive    *bool
	Permissions []models.Permission // nil = unchanged, empty slice = clear
	UpdatedBy   *primitive.ObjectID
}

// Update applies a patch. Permission sets are validated against the
// catalog; a system group may have its set changed but never emptied.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, p Patch) error {
	set := bson.M{"updated_at": time.Now().UTC()}

	if p.Permissions != nil {
		if err := permcat.Validate(p.Permissions); err != nil {
			return err
		}
		if len(p.Permissions) == 0 {
			g, err := s.GetByID(ctx, id)
			if err != nil {
				return err
			}
			if g.IsSystem {
				return errors.New("system groups must keep at least one permission")
			}
		}
		set["permissions"] = p.Permissions
	}
	if p.DisplayName != nil {
		set["display_name"] = *p.DisplayName
	}
	if p.Description != nil {
		set["description"] = *p.Description
	}
	if p.Color != nil {
		set["color"] = *p.Color
	}
	if p.Icon != nil {
		set["icon"] = *p.Icon
	}
	if p.Priority != nil {
		set["priority"] = *p.Priority
	}
	if p.IsActive != nil {
		set["is_active"] = *p.IsActive
	}
	if p.UpdatedBy != nil {
		set["updated_by"] = *p.UpdatedBy
	}

	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	return err
}

// Delete removes a non-system group. Returns the number of documents
// deleted (0 or 1). Assignments referencing the group are the caller's
// responsibility (the assignment store removes them first).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	g, err := s.GetByID(ctx, id)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return 0, nil
		}
		return 0, err
	}
	if g.IsSystem {
		return 0, ErrSystemGroup
	}
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
