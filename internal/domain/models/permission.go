// internal/domain/models/permission.go
package models

import "sort"

// Permission is a single (module, action) pair, e.g. {users edit} or
// {coordinations archive}. The valid pairs live in the permcat catalog.
type Permission struct {
	Module string `bson:"module" json:"module"`
	Action string `bson:"action" json:"action"`
}

// PermissionSet is a set of permissions. Sets are additive: a user's
// effective set is the union across all assigned groups, never an
// intersection or an override.
type PermissionSet map[Permission]struct{}

// NewPermissionSet builds a set from a slice, dropping duplicates.
func NewPermissionSet(perms []Permission) PermissionSet {
	s := make(PermissionSet, len(perms))
	for _, p := range perms {
		s[p] = struct{}{}
	}
	return s
}

// Has reports membership.
func (s PermissionSet) Has(module, action string) bool {
	_, ok := s[Permission{Module: module, Action: action}]
	return ok
}

// Union merges other into a new set, leaving both inputs unchanged.
func (s PermissionSet) Union(other PermissionSet) PermissionSet {
	out := make(PermissionSet, len(s)+len(other))
	for p := range s {
		out[p] = struct{}{}
	}
	for p := range other {
		out[p] = struct{}{}
	}
	return out
}

// Slice returns the permissions sorted by module then action, for stable
// JSON responses and test comparisons.
func (s PermissionSet) Slice() []Permission {
	out := make([]Permission, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Module != out[j].Module {
			return out[i].Module < out[j].Module
		}
		return out[i].Action < out[j].Action
	})
	return out
}

func (s PermissionSet) Len() int { return len(s) }
