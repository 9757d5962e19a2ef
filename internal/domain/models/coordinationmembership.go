// internal/domain/models/coordinationmembership.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CoordinationMembership links a user to a coordination. One collection
// serves every role; the legacy split between a coordination_id column
// for executives and a join table for coordinators is gone.
//
// Cardinality is role-dependent and enforced at the store boundary:
// ejecutivo and supervisor hold exactly one membership at a time,
// coordinador holds one or more, all other roles hold none. No membership
// may reference an archived coordination.
type CoordinationMembership struct {
	ID             primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID         primitive.ObjectID  `bson:"user_id" json:"user_id"`
	CoordinationID primitive.ObjectID  `bson:"coordination_id" json:"coordination_id"`
	Role           Role                `bson:"role" json:"role"`
	AssignedAt     time.Time           `bson:"assigned_at" json:"assigned_at"`
	AssignedBy     *primitive.ObjectID `bson:"assigned_by,omitempty" json:"assigned_by,omitempty"`
}
