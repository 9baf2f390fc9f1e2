package auth

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Redirect targets chosen by the guard.
const (
	LoginPath     = "/login"
	ForbiddenPath = "/forbidden"
	HomePath      = "/books"
)

const identityKey = "auth_identity"

// Decision is the outcome of a route check.
type Decision struct {
	Allowed  bool
	Redirect string
}

// Guard gates console routes on the current identity.
type Guard struct {
	policy Policy
	logger *zap.Logger
}

// NewGuard constructs a guard over policy.
func NewGuard(policy Policy, logger *zap.Logger) *Guard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Guard{policy: policy, logger: logger}
}

// Check sends anonymous operators to the login view and authenticated ones
// lacking a required role to the forbidden view.
func (g *Guard) Check(required RoleSet) Decision {
	if !g.policy.IsAuthenticated() {
		return Decision{Redirect: LoginPath}
	}
	if !g.policy.SatisfiesRouteRequirement(required) {
		return Decision{Redirect: ForbiddenPath}
	}
	return Decision{Allowed: true}
}

// Require admits the request when Check allows it and redirects otherwise.
// With no roles any authenticated identity passes.
func (g *Guard) Require(roles ...Role) fiber.Handler {
	required := RoleSet(roles)
	return func(c *fiber.Ctx) error {
		d := g.Check(required)
		if !d.Allowed {
			g.logger.Debug("route denied",
				zap.String("path", c.Path()),
				zap.Any("required", required),
				zap.String("redirect", d.Redirect))
			return c.Redirect(d.Redirect, fiber.StatusFound)
		}
		c.Locals(identityKey, g.policy.source.Current())
		return c.Next()
	}
}

// GuestOnly keeps signed-in operators away from the login and register views.
func (g *Guard) GuestOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if g.policy.IsAuthenticated() {
			return c.Redirect(HomePath, fiber.StatusFound)
		}
		return c.Next()
	}
}

// IdentityFromContext returns the identity admitted by Require.
func IdentityFromContext(c *fiber.Ctx) (*Identity, bool) {
	ident, ok := c.Locals(identityKey).(*Identity)
	return ident, ok && ident != nil
}
