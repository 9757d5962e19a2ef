// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
We aggregate errors so any problem is visible and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	if err := ensureUsers(ctx, db); err != nil {
		problems = append(problems, "users: "+err.Error())
	}
	if err := ensurePermissionGroups(ctx, db); err != nil {
		problems = append(problems, "permission_groups: "+err.Error())
	}
	if err := ensureGroupAssignments(ctx, db); err != nil {
		problems = append(problems, "group_assignments: "+err.Error())
	}
	if err := ensureCoordinations(ctx, db); err != nil {
		problems = append(problems, "coordinations: "+err.Error())
	}
	if err := ensureCoordinationMemberships(ctx, db); err != nil {
		problems = append(problems, "coordination_memberships: "+err.Error())
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func sameBoolPtr(a, b *bool) bool {
	av := false
	bv := false
	if a != nil {
		av = *a
	}
	if b != nil {
		bv = *b
	}
	return av == bv
}

// Best-effort duplicate-detector (works cross-vendors)
func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 { // E11000 duplicate key error index
				return true
			}
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "E11000") || strings.Contains(strings.ToLower(s), "duplicate key")
}

// ensureIndexSet reconciles the desired indexes against what the
// collection already has: same keys and options are reused, same keys
// with different options (or a stale name) are dropped and recreated,
// anything missing is created.
func ensureIndexSet(ctx context.Context, coll *mongo.Collection, desired []mongo.IndexModel) error {
	existing := map[string]existingIndex{} // keySig -> index
	cur, err := coll.Indexes().List(ctx)
	if err == nil {
		defer cur.Close(ctx)
		for cur.Next(ctx) {
			var idx existingIndex
			if err := cur.Decode(&idx); err != nil {
				zap.L().Warn("failed to decode existing index",
					zap.String("collection", coll.Name()),
					zap.Error(err))
				continue
			}
			existing[keySig(idx.Key)] = idx
		}
	}

	var errs []string
	for _, m := range desired {
		var desiredName string
		var desiredUnique *bool
		if m.Options != nil {
			if m.Options.Name != nil {
				desiredName = *m.Options.Name
			}
			if m.Options.Unique != nil {
				desiredUnique = m.Options.Unique
			}
		}
		desiredSig := keySig(m.Keys.(bson.D))
		start := time.Now()

		if ex, ok := existing[desiredSig]; ok {
			sameName := desiredName == "" || ex.Name == desiredName
			if sameBoolPtr(desiredUnique, ex.Unique) && sameName {
				zap.L().Debug("reusing existing index",
					zap.String("collection", coll.Name()),
					zap.String("name", ex.Name),
					zap.String("keys", desiredSig))
				continue
			}

			// Options or name mismatch (e.g., upgrading to unique, or a
			// stale auto-generated name). Drop & recreate.
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				zap.L().Warn("drop existing index failed",
					zap.String("collection", coll.Name()),
					zap.String("name", ex.Name),
					zap.Error(err))
				errs = append(errs, fmt.Sprintf("%s(%s): drop failed: %v", coll.Name(), desiredName, err))
				continue
			}
		}

		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			if isDuplicateKeyErr(err) && desiredUnique != nil && *desiredUnique {
				errs = append(errs, fmt.Sprintf("%s(%s): cannot create unique index, duplicates present on %s", coll.Name(), desiredName, desiredSig))
			} else {
				errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), desiredName, err))
			}
			continue
		}
		zap.L().Info("index ensured",
			zap.String("collection", coll.Name()),
			zap.String("name", desiredName),
			zap.String("keys", desiredSig),
			zap.Bool("unique", desiredUnique != nil && *desiredUnique),
			zap.String("took", time.Since(start).String()))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Collection-specific index sets                                              */
/* -------------------------------------------------------------------------- */

func ensureUsers(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("users")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Email must be unique across all users (case/diacritics folded)
		{
			Keys:    bson.D{{Key: "email_ci", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_users_emailci"),
		},
		// List pages: filter by status + name sort + stable tiebreak
		{
			Keys: bson.D{
				{Key: "status", Value: 1},
				{Key: "full_name_ci", Value: 1},
				{Key: "_id", Value: 1},
			},
			Options: options.Index().SetName("idx_users_status_fullnameci__id"),
		},
		// Name prefix search + stable sort
		{
			Keys:    bson.D{{Key: "full_name_ci", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_users_fullnameci__id"),
		},
	})
}

func ensurePermissionGroups(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("permission_groups")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// No duplicate group names (case/diacritics folded via name_ci)
		{
			Keys:    bson.D{{Key: "name_ci", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_pgroups_nameci"),
		},
		// Role resolution order: highest priority first, then name
		{
			Keys: bson.D{
				{Key: "priority", Value: -1},
				{Key: "name_ci", Value: 1},
			},
			Options: options.Index().SetName("idx_pgroups_priority_nameci"),
		},
		// Active-group scans for effective permission computation
		{
			Keys:    bson.D{{Key: "is_active", Value: 1}, {Key: "priority", Value: -1}},
			Options: options.Index().SetName("idx_pgroups_active_priority"),
		},
	})
}

func ensureGroupAssignments(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("group_assignments")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Exactly one assignment per (user, group)
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "group_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_ga_user_group"),
		},
		// Fast: a user's assignments, primary flag first
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "is_primary", Value: -1}},
			Options: options.Index().SetName("idx_ga_user_primary"),
		},
		// Fast: member counts and cascade removal per group
		{
			Keys:    bson.D{{Key: "group_id", Value: 1}, {Key: "user_id", Value: 1}},
			Options: options.Index().SetName("idx_ga_group_user"),
		},
	})
}

func ensureCoordinations(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("coordinations")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Codes are uppercase and globally unique
		{
			Keys:    bson.D{{Key: "code", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_coords_code"),
		},
		// List pages: archived/operative filters + name sort + tiebreak
		{
			Keys: bson.D{
				{Key: "archived", Value: 1},
				{Key: "operative", Value: 1},
				{Key: "name_ci", Value: 1},
				{Key: "_id", Value: 1},
			},
			Options: options.Index().SetName("idx_coords_arch_oper_nameci__id"),
		},
		// Name prefix search
		{
			Keys:    bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_coords_nameci__id"),
		},
	})
}

func ensureCoordinationMemberships(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("coordination_memberships")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Exactly one membership per (user, coordination)
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "coordination_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_cm_user_coord"),
		},
		// Fast: roster listing per coordination (+role segmentation)
		{
			Keys:    bson.D{{Key: "coordination_id", Value: 1}, {Key: "role", Value: 1}, {Key: "user_id", Value: 1}},
			Options: options.Index().SetName("idx_cm_coord_role_user"),
		},
		// Fast: a user's memberships (+role segmentation)
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "role", Value: 1}, {Key: "coordination_id", Value: 1}},
			Options: options.Index().SetName("idx_cm_user_role_coord"),
		},
	})
}
