package auth

import (
	"time"

	"github.com/spec-kit/library-console/internal/domain"
)

// Identity is the current operator as known to the console. A nil *Identity
// means nobody is signed in.
type Identity struct {
	ID               string
	Username         string
	Role             Role
	FirstName        string
	LastName         string
	MiddleName       string
	Address          string
	Phone            string
	DiscountCategory domain.DiscountCategory
	ExpiresAt        *time.Time
}

// DisplayName prefers the full name and falls back to the username.
func (i *Identity) DisplayName() string {
	if i == nil {
		return ""
	}
	name := i.FirstName
	if i.LastName != "" {
		if name != "" {
			name += " "
		}
		name += i.LastName
	}
	if name == "" {
		return i.Username
	}
	return name
}

func (i *Identity) clone() *Identity {
	if i == nil {
		return nil
	}
	c := *i
	if i.ExpiresAt != nil {
		t := *i.ExpiresAt
		c.ExpiresAt = &t
	}
	return &c
}

// merge overlays the non-empty profile fields onto a copy of i.
func (i *Identity) merge(p domain.User) *Identity {
	out := i.clone()
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&out.ID, p.ID)
	set(&out.Username, p.Username)
	set(&out.FirstName, p.FirstName)
	set(&out.LastName, p.LastName)
	set(&out.MiddleName, p.MiddleName)
	set(&out.Address, p.Address)
	set(&out.Phone, p.Phone)
	if p.Role != "" {
		out.Role = p.Role
	}
	if p.DiscountCategory != "" {
		out.DiscountCategory = p.DiscountCategory
	}
	return out
}
