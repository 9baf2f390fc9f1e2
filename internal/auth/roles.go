package auth

import "github.com/spec-kit/library-console/internal/domain"

// Role is re-exported from domain so route tables read naturally.
type Role = domain.Role

const (
	RoleAdmin     = domain.RoleAdmin
	RoleLibrarian = domain.RoleLibrarian
	RoleReader    = domain.RoleReader
)

// RoleSet is a route requirement. An empty set admits any authenticated identity.
type RoleSet []Role

// Common requirements.
var (
	RolesAll    = RoleSet(domain.RolesAll)
	RolesStaff  = RoleSet(domain.RolesStaff)
	RolesReader = RoleSet(domain.RolesReader)
	RolesAdmin  = RoleSet{domain.RoleAdmin}
)

// Contains reports whether role is a member of the set.
func (s RoleSet) Contains(role Role) bool {
	for _, r := range s {
		if r == role {
			return true
		}
	}
	return false
}
