package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/library-console/internal/auth"
	"github.com/spec-kit/library-console/internal/domain"
	"github.com/spec-kit/library-console/internal/service"
	apperrors "github.com/spec-kit/library-console/pkg/util/errorutil"
)

// UserDirectory is the account API used by the user pages.
type UserDirectory interface {
	List(ctx context.Context, f service.UserFilters) (domain.Page[domain.User], error)
	Get(ctx context.Context, id string) (domain.User, error)
	Update(ctx context.Context, id string, in domain.UserProfileUpdate) (domain.User, error)
	SetRole(ctx context.Context, id string, role domain.Role) (domain.User, error)
	SetDiscount(ctx context.Context, id string, category domain.DiscountCategory) (domain.User, error)
	ChangeMyPassword(ctx context.Context, current, next string) (string, error)
	AdminChangePassword(ctx context.Context, id, next string) (string, error)
}

// ProfileSource loads the signed-in account.
type ProfileSource interface {
	Profile(ctx context.Context) (domain.User, error)
}

// UsersHandler serves account management and the operator's own profile.
type UsersHandler struct {
	*Base
	users   UserDirectory
	profile ProfileSource
}

// NewUsersHandler constructs handler.
func NewUsersHandler(base *Base, users UserDirectory, profile ProfileSource) *UsersHandler {
	return &UsersHandler{Base: base, users: users, profile: profile}
}

// List handles GET /users. Librarians only see readers.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	f := service.UserFilters{ListFilters: listFilters(c), Role: domain.Role(c.Query("role"))}
	if ident := h.identity.Current(); ident != nil && ident.Role == auth.RoleLibrarian {
		f.Role = domain.RoleReader
	}
	page, err := h.users.List(c.UserContext(), f)
	if err != nil {
		return err
	}
	data := pageData(c, page.Pager(f.Page, f.Limit))
	data["Users"] = page.Items
	data["Filters"] = f
	data["Discounts"] = domain.DiscountCategories
	return h.Render(c, "users", "Users", data)
}

// EditPage handles GET /users/:id/edit.
func (h *UsersHandler) EditPage(c *fiber.Ctx) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	user, err := h.users.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return h.Render(c, "user_edit", "Edit user", fiber.Map{"User": user, "Roles": domain.RolesAll})
}

// SetRole handles POST /users/:id/edit.
func (h *UsersHandler) SetRole(c *fiber.Ctx) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	back := "/users/" + id + "/edit"
	var form RolePayload
	if err := c.BodyParser(&form); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
	}
	if err := form.Validate(); err != nil {
		return h.fail(c, formError(err), back)
	}
	if _, err := h.users.SetRole(c.UserContext(), id, domain.NormalizeRole(form.Role)); err != nil {
		return h.fail(c, err, back)
	}
	return h.done(c, "Role updated", "/users")
}

// SetDiscount handles POST /users/:id/discount.
func (h *UsersHandler) SetDiscount(c *fiber.Ctx) error {
	id, err := idParam(c)
	if err != nil {
		return h.fail(c, err, "/users")
	}
	var form DiscountPayload
	if err := c.BodyParser(&form); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
	}
	if err := form.Validate(); err != nil {
		return h.fail(c, formError(err), "/users")
	}
	if _, err := h.users.SetDiscount(c.UserContext(), id, domain.DiscountCategory(form.DiscountCategory)); err != nil {
		return h.fail(c, err, "/users")
	}
	return h.done(c, "Discount updated", "/users")
}

// MyProfile handles GET /profile.
func (h *UsersHandler) MyProfile(c *fiber.Ctx) error {
	user, err := h.profile.Profile(c.UserContext())
	if err != nil {
		return err
	}
	return h.Render(c, "profile", "My profile", fiber.Map{"User": user, "Self": true})
}

// UserProfile handles GET /users/:id/profile.
func (h *UsersHandler) UserProfile(c *fiber.Ctx) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	user, err := h.users.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return h.Render(c, "profile", "Profile", fiber.Map{"User": user, "Self": false})
}

// UpdateMyProfile handles POST /profile.
func (h *UsersHandler) UpdateMyProfile(c *fiber.Ctx) error {
	ident := h.identity.Current()
	if ident == nil || ident.ID == "" {
		return apperrors.NewUnauthorized("sign in required")
	}
	return h.updateProfile(c, ident.ID, "/profile")
}

// UpdateUserProfile handles POST /users/:id/profile.
func (h *UsersHandler) UpdateUserProfile(c *fiber.Ctx) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	return h.updateProfile(c, id, "/users/"+id+"/profile")
}

func (h *UsersHandler) updateProfile(c *fiber.Ctx, id, back string) error {
	var form ProfilePayload
	if err := c.BodyParser(&form); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
	}
	if err := form.Validate(); err != nil {
		return h.fail(c, formError(err), back)
	}
	if _, err := h.users.Update(c.UserContext(), id, form.update()); err != nil {
		return h.fail(c, err, back)
	}
	return h.done(c, "Profile saved", back)
}

// ChangePassword handles POST /profile/password. Staff may set another
// user's password by naming them.
func (h *UsersHandler) ChangePassword(c *fiber.Ctx) error {
	var form PasswordPayload
	if err := c.BodyParser(&form); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
	}
	back := "/profile"
	if form.UserID != "" {
		back = "/users/" + form.UserID + "/profile"
	}
	if err := form.Validate(); err != nil {
		return h.fail(c, formError(err), back)
	}

	var (
		msg string
		err error
	)
	if form.UserID == "" {
		msg, err = h.users.ChangeMyPassword(c.UserContext(), form.CurrentPassword, form.NewPassword)
	} else {
		ident := h.identity.Current()
		if ident == nil || !ident.Role.IsStaff() {
			return apperrors.NewForbidden("only staff can change another user's password")
		}
		msg, err = h.users.AdminChangePassword(c.UserContext(), form.UserID, form.NewPassword)
	}
	if err != nil {
		return h.fail(c, err, back)
	}
	if msg == "" {
		msg = "Password changed"
	}
	return h.done(c, msg, back)
}
