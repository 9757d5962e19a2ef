// internal/domain/models/coordination.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CoordinationState is the derived lifecycle state of a coordination.
type CoordinationState string

const (
	CoordinationActive   CoordinationState = "active"
	CoordinationPaused   CoordinationState = "paused"
	CoordinationArchived CoordinationState = "archived"
)

// Coordination is an organizational unit grouping executives under one or
// more coordinators.
//
// Two independent flags are stored rather than a single state column:
// Archived is the terminal logical-delete flag, and Operative is the
// orthogonal workload toggle (a non-operative coordination still logs in
// and is visible; it just receives no new assignments). State() derives
// the lifecycle state from the pair.
type Coordination struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	Code        string             `bson:"code" json:"code"` // unique, uppercase
	Name        string             `bson:"name" json:"name"`
	NameCI      string             `bson:"name_ci" json:"-"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`

	Archived  bool `bson:"archived" json:"archived"`
	Operative bool `bson:"operative" json:"operative"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// State derives the lifecycle state. Archived dominates the operative
// flag.
func (c Coordination) State() CoordinationState {
	if c.Archived {
		return CoordinationArchived
	}
	if !c.Operative {
		return CoordinationPaused
	}
	return CoordinationActive
}
