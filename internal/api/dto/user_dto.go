package dto

import (
	"encoding/json"

	"github.com/spec-kit/library-console/internal/domain"
)

// User is the wire form of an account.
type User struct {
	ID               string `json:"id"`
	MongoID          string `json:"_id"`
	Username         string `json:"username"`
	Role             string `json:"role"`
	FirstName        string `json:"firstName"`
	LastName         string `json:"lastName"`
	MiddleName       string `json:"middleName"`
	Address          string `json:"address"`
	Phone            string `json:"phone"`
	DiscountCategory string `json:"discountCategory"`
	CreatedAt        string `json:"createdAt"`
	UpdatedAt        string `json:"updatedAt"`
}

// UserEnvelope accepts both {user:{...}} and a bare user object.
type UserEnvelope struct {
	User
	Wrapped *User `json:"user"`
}

// Unwrap returns the wrapped user when present.
func (e UserEnvelope) Unwrap() User {
	if e.Wrapped != nil {
		return *e.Wrapped
	}
	return e.User
}

// User maps a wire user. Roles are lowercased and default to reader.
func (m Mapper) User(raw User) domain.User {
	return domain.User{
		ID:               pick(raw.MongoID, raw.ID),
		Username:         raw.Username,
		Role:             domain.NormalizeRole(raw.Role),
		FirstName:        raw.FirstName,
		LastName:         raw.LastName,
		MiddleName:       raw.MiddleName,
		Address:          raw.Address,
		Phone:            raw.Phone,
		DiscountCategory: domain.DiscountCategory(raw.DiscountCategory),
		CreatedAt:        parseTime(raw.CreatedAt),
		UpdatedAt:        parseTime(raw.UpdatedAt),
	}
}

// UserRef maps a field that is either a user id or an embedded user.
func (m Mapper) UserRef(ref Ref, fallbackID string) domain.UserRef {
	if !ref.IsObject() {
		return domain.UserRef{ID: pick(ref.ID, fallbackID)}
	}
	var raw User
	if err := unmarshal(ref.Raw, &raw); err != nil {
		return domain.UserRef{ID: fallbackID}
	}
	u := m.User(raw)
	return domain.UserRef{ID: u.ID, User: &u}
}

// UsernameCheck is the response of the username availability check.
type UsernameCheck struct {
	Taken bool `json:"taken"`
}

// Message is a bare {message} response.
type Message struct {
	Message string `json:"message"`
}

func unmarshal(raw json.RawMessage, v any) error {
	return json.Unmarshal(raw, v)
}
