// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents a console account: admins, coordinators, supervisors,
// executives, evaluators.
//
// NOTE:
//   - Group assignments are not embedded on User.
//     Use the group_assignments collection to discover a user's groups.
//   - Coordination membership is not embedded either; it lives in the
//     coordination_memberships collection for every role.
//   - BaseRole is the legacy single-role field kept for accounts created
//     before permission groups existed. The functional role is resolved
//     from group assignments and falls back to BaseRole only when a user
//     has no assignments at all.
type User struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email      string             `bson:"email" json:"email"`
	EmailCI    string             `bson:"email_ci" json:"-"` // lowercase, diacritics-stripped
	FullName   string             `bson:"full_name" json:"full_name"`
	FullNameCI string             `bson:"full_name_ci" json:"-"`
	Phone      string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Status     string             `bson:"status" json:"status"` // active | disabled

	BaseRole Role `bson:"base_role,omitempty" json:"base_role,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
