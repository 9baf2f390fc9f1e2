package service

import (
	"context"
	"strings"

	"github.com/spec-kit/library-console/internal/api/dto"
	"github.com/spec-kit/library-console/internal/client"
	"github.com/spec-kit/library-console/internal/domain"
	apperrors "github.com/spec-kit/library-console/pkg/util/errorutil"
)

// MinPasswordLength is enforced before a password change is sent.
const MinPasswordLength = 6

// UserService manages accounts.
type UserService struct {
	api    API
	mapper dto.Mapper
}

// UserFilters define account listing parameters.
type UserFilters struct {
	ListFilters
	Role domain.Role
}

// NewUserService constructs the service.
func NewUserService(deps Dependencies) *UserService {
	return &UserService{api: deps.API, mapper: deps.Mapper}
}

// List returns one page of accounts.
func (s *UserService) List(ctx context.Context, f UserFilters) (domain.Page[domain.User], error) {
	p := f.params()
	p["role"] = string(f.Role)
	raw, err := s.api.GetRaw(ctx, "/users", p)
	if err != nil {
		return domain.Page[domain.User]{}, err
	}
	return dto.DecodePage(raw, s.mapper.User)
}

// Get fetches an account. The id "me" addresses the signed-in account.
func (s *UserService) Get(ctx context.Context, id string) (domain.User, error) {
	var raw dto.UserEnvelope
	if err := s.api.Get(ctx, resource("users", id), nil, &raw); err != nil {
		return domain.User{}, err
	}
	return s.mapper.User(raw.Unwrap()), nil
}

// Update changes profile fields.
func (s *UserService) Update(ctx context.Context, id string, in domain.UserProfileUpdate) (domain.User, error) {
	var raw dto.UserEnvelope
	if err := s.api.Put(ctx, resource("users", id), in, &raw); err != nil {
		return domain.User{}, err
	}
	return s.mapper.User(raw.Unwrap()), nil
}

// Delete removes an account.
func (s *UserService) Delete(ctx context.Context, id string) error {
	return s.api.Delete(ctx, resource("users", id), nil)
}

// SetRole changes the role of an account.
func (s *UserService) SetRole(ctx context.Context, id string, role domain.Role) (domain.User, error) {
	if !role.IsValid() {
		return domain.User{}, apperrors.NewValidationError("unknown role", map[string]any{"role": string(role)})
	}
	var raw dto.UserEnvelope
	if err := s.api.Post(ctx, resource("users", id, "role"), map[string]string{"role": string(role)}, &raw); err != nil {
		return domain.User{}, err
	}
	return s.mapper.User(raw.Unwrap()), nil
}

// SetDiscount changes the discount category of an account.
func (s *UserService) SetDiscount(ctx context.Context, id string, category domain.DiscountCategory) (domain.User, error) {
	var raw dto.UserEnvelope
	body := map[string]string{"discountCategory": string(category)}
	if err := s.api.Post(ctx, resource("users", id, "discount"), body, &raw); err != nil {
		return domain.User{}, err
	}
	return s.mapper.User(raw.Unwrap()), nil
}

// ChangeMyPassword changes the signed-in account's password.
func (s *UserService) ChangeMyPassword(ctx context.Context, current, next string) (string, error) {
	if err := validatePassword(next); err != nil {
		return "", err
	}
	var resp dto.Message
	body := map[string]string{"currentPassword": current, "newPassword": next}
	if err := s.api.Post(ctx, "/users/me/change-password", body, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// AdminChangePassword sets another account's password.
func (s *UserService) AdminChangePassword(ctx context.Context, id, next string) (string, error) {
	if err := validatePassword(next); err != nil {
		return "", err
	}
	var resp dto.Message
	if err := s.api.Post(ctx, resource("users", id, "change-password"), map[string]string{"newPassword": next}, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// CheckUsername reports whether username is taken. Failures read as "free"
// so the registration form is never blocked by the check itself.
func (s *UserService) CheckUsername(ctx context.Context, username string) bool {
	username = strings.TrimSpace(username)
	if username == "" {
		return false
	}
	var resp dto.UsernameCheck
	if err := s.api.Get(ctx, "/users/check-username", client.Params{"username": username}, &resp); err != nil {
		return false
	}
	return resp.Taken
}

func validatePassword(p string) error {
	if len(p) < MinPasswordLength {
		return apperrors.NewValidationError("password too short", map[string]any{"min": MinPasswordLength})
	}
	return nil
}
