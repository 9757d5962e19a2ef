// internal/domain/models/permissiongroup.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PermissionGroup is a reusable bundle of permissions plus the functional
// role it confers. Users may hold several groups at once; their effective
// permission set is the union across all of them, and their functional
// role comes from the highest-priority group.
//
// Identity (ID, Name) is immutable after creation. The permission set and
// priority are mutable by admins through the store's Update.
type PermissionGroup struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	Name        string             `bson:"name" json:"name"` // machine name, unique
	NameCI      string             `bson:"name_ci" json:"-"`
	DisplayName string             `bson:"display_name" json:"display_name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Color       string             `bson:"color,omitempty" json:"color,omitempty"`
	Icon        string             `bson:"icon,omitempty" json:"icon,omitempty"`

	// BaseRole is the functional role this group confers. Priority breaks
	// ties between a user's groups: higher wins, latest assignment wins
	// among equals.
	BaseRole Role `bson:"base_role" json:"base_role"`
	Priority int  `bson:"priority" json:"priority"`

	// System groups ship with the product and cannot be deleted.
	IsSystem bool `bson:"is_system" json:"is_system"`
	IsActive bool `bson:"is_active" json:"is_active"`

	Permissions []Permission `bson:"permissions" json:"permissions"`

	CreatedAt time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time           `bson:"updated_at" json:"updated_at"`
	CreatedBy *primitive.ObjectID `bson:"created_by,omitempty" json:"created_by,omitempty"`
	UpdatedBy *primitive.ObjectID `bson:"updated_by,omitempty" json:"updated_by,omitempty"`
}

// PermissionSet returns the group's permissions as a set.
func (g PermissionGroup) PermissionSet() PermissionSet {
	return NewPermissionSet(g.Permissions)
}
