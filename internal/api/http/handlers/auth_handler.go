package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/library-console/internal/auth"
	"github.com/spec-kit/library-console/internal/domain"
)

// SessionManager signs operators in and out.
type SessionManager interface {
	Login(ctx context.Context, req domain.LoginRequest) (*auth.Identity, error)
	Register(ctx context.Context, req domain.RegisterRequest) (*auth.Identity, error)
	Logout(ctx context.Context) error
}

// UsernameChecker reports whether a username is already registered.
type UsernameChecker interface {
	CheckUsername(ctx context.Context, username string) bool
}

// AuthHandler serves the sign-in, registration and sign-out actions.
type AuthHandler struct {
	*Base
	session SessionManager
	users   UsernameChecker
}

// NewAuthHandler constructs handler.
func NewAuthHandler(base *Base, session SessionManager, users UsernameChecker) *AuthHandler {
	return &AuthHandler{Base: base, session: session, users: users}
}

// LoginPage handles GET /login.
func (h *AuthHandler) LoginPage(c *fiber.Ctx) error {
	return h.Render(c, "login", "Sign in", fiber.Map{"Form": LoginPayload{}})
}

// Login handles POST /login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var form LoginPayload
	if err := c.BodyParser(&form); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
	}
	if err := form.Validate(); err != nil {
		return h.loginError(c, form, formError(err))
	}

	ident, err := h.session.Login(c.UserContext(), domain.LoginRequest{Username: form.Username, Password: form.Password})
	if err != nil {
		return h.loginError(c, form, err)
	}
	if ident == nil {
		h.logger.Warn("login returned no usable credential", zap.String("username", form.Username))
		return h.Render(c, "login", "Sign in", fiber.Map{"Form": LoginPayload{Username: form.Username}, "Error": "Sign in failed"})
	}
	return c.Redirect(auth.HomePath, fiber.StatusSeeOther)
}

func (h *AuthHandler) loginError(c *fiber.Ctx, form LoginPayload, err error) error {
	c.Status(fiber.StatusUnprocessableEntity)
	return h.Render(c, "login", "Sign in", fiber.Map{
		"Form":  LoginPayload{Username: form.Username},
		"Error": errorText(err),
	})
}

// RegisterPage handles GET /register.
func (h *AuthHandler) RegisterPage(c *fiber.Ctx) error {
	return h.Render(c, "register", "Register", fiber.Map{"Form": RegisterPayload{}})
}

// Register handles POST /register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var form RegisterPayload
	if err := c.BodyParser(&form); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
	}
	if err := form.Validate(); err != nil {
		return h.registerError(c, form, formError(err), false)
	}

	req := form.request()
	if h.users != nil && h.users.CheckUsername(c.UserContext(), req.Username) {
		return h.registerError(c, form, nil, true)
	}

	ident, err := h.session.Register(c.UserContext(), req)
	if err != nil {
		return h.registerError(c, form, err, false)
	}
	if ident == nil {
		h.flash.Success("Account created, please sign in")
		return c.Redirect(auth.LoginPath, fiber.StatusSeeOther)
	}
	return c.Redirect(auth.HomePath, fiber.StatusSeeOther)
}

func (h *AuthHandler) registerError(c *fiber.Ctx, form RegisterPayload, err error, taken bool) error {
	form.Password = ""
	c.Status(fiber.StatusUnprocessableEntity)
	return h.Render(c, "register", "Register", fiber.Map{
		"Form":          form,
		"Error":         errorText(err),
		"UsernameTaken": taken,
	})
}

// Logout handles POST /logout.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := h.session.Logout(c.UserContext()); err != nil {
		h.logger.Warn("logout", zap.Error(err))
	}
	return c.Redirect(auth.LoginPath, fiber.StatusSeeOther)
}

// Forbidden handles GET /forbidden.
func (h *AuthHandler) Forbidden(c *fiber.Ctx) error {
	c.Status(fiber.StatusForbidden)
	return h.Render(c, "forbidden", "Access denied", nil)
}
