// internal/domain/models/groupassignment.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GroupAssignment is the authoritative join between users and permission
// groups. Exactly one document per (user_id, group_id); at most one
// assignment per user carries IsPrimary.
//
// AssignedAt participates in role resolution: when two of a user's groups
// tie on priority, the more recently assigned group's base role wins.
type GroupAssignment struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID  `bson:"user_id" json:"user_id"`
	GroupID   primitive.ObjectID  `bson:"group_id" json:"group_id"`
	IsPrimary bool                `bson:"is_primary" json:"is_primary"`
	AssignedAt time.Time          `bson:"assigned_at" json:"assigned_at"`
	AssignedBy *primitive.ObjectID `bson:"assigned_by,omitempty" json:"assigned_by,omitempty"`
}
