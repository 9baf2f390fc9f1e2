package domain

import (
	"strings"
	"time"
)

// Role is the single role carried by every identity.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleLibrarian Role = "librarian"
	RoleReader    Role = "reader"
)

// Common role sets used by route requirements.
var (
	RolesAll    = []Role{RoleAdmin, RoleLibrarian, RoleReader}
	RolesStaff  = []Role{RoleAdmin, RoleLibrarian}
	RolesReader = []Role{RoleReader}
)

// IsValid reports whether the role belongs to the closed set.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleLibrarian, RoleReader:
		return true
	default:
		return false
	}
}

// IsStaff reports whether the role can manage the catalog and loans.
func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleLibrarian
}

// NormalizeRole lowercases a raw role and defaults empty values to reader.
func NormalizeRole(raw string) Role {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return RoleReader
	}
	return Role(raw)
}

// ParseRole safely parses a string into a Role.
func ParseRole(raw string) (Role, bool) {
	role := NormalizeRole(raw)
	return role, role.IsValid()
}

// DiscountCategory drives the rent discount applied by the API.
type DiscountCategory string

const (
	DiscountNone      DiscountCategory = "none"
	DiscountStudent   DiscountCategory = "student"
	DiscountLoyal     DiscountCategory = "loyal"
	DiscountPensioner DiscountCategory = "pensioner"
	DiscountVIP       DiscountCategory = "vip"
)

// DiscountCategories lists every category in display order.
var DiscountCategories = []DiscountCategory{DiscountNone, DiscountStudent, DiscountLoyal, DiscountPensioner, DiscountVIP}

// User is a library account as returned by the API.
type User struct {
	ID               string
	Username         string
	Role             Role
	FirstName        string
	LastName         string
	MiddleName       string
	Address          string
	Phone            string
	DiscountCategory DiscountCategory
	CreatedAt        *time.Time
	UpdatedAt        *time.Time
}

// UserRef is either a bare user id or an embedded user record.
type UserRef struct {
	ID   string
	User *User
}

// Name renders the reference the way lists display it.
func (r UserRef) Name() string {
	if r.User != nil && r.User.Username != "" {
		return r.User.Username
	}
	return r.ID
}

// UserProfileUpdate carries editable profile fields. Empty fields are omitted.
type UserProfileUpdate struct {
	FirstName  string `json:"firstName,omitempty"`
	LastName   string `json:"lastName,omitempty"`
	MiddleName string `json:"middleName,omitempty"`
	Address    string `json:"address,omitempty"`
	Phone      string `json:"phone,omitempty"`
}
