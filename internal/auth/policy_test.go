package auth

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type staticIdentity struct{ ident *Identity }

func (s staticIdentity) Current() *Identity { return s.ident }

func TestPolicyWithoutIdentity(t *testing.T) {
	p := NewPolicy(staticIdentity{})

	assert.False(t, p.IsAuthenticated())
	assert.False(t, p.HasRole())
	assert.False(t, p.HasRole(RoleAdmin))
	assert.False(t, p.HasRole(RoleAdmin, RoleLibrarian, RoleReader))
	assert.True(t, p.SatisfiesRouteRequirement(nil))
}

func TestPolicyHasRole(t *testing.T) {
	p := NewPolicy(staticIdentity{&Identity{ID: "u1", Role: RoleLibrarian}})

	assert.True(t, p.IsAuthenticated())
	assert.True(t, p.HasRole(RoleLibrarian))
	assert.False(t, p.HasRole(RoleAdmin))
	assert.True(t, p.HasRole(RoleAdmin, RoleLibrarian))
	assert.False(t, p.HasRole())
	assert.True(t, p.SatisfiesRouteRequirement(RolesStaff))
	assert.False(t, p.SatisfiesRouteRequirement(RolesReader))
	assert.True(t, p.SatisfiesRouteRequirement(RoleSet{}))
}

func TestGuardCheck(t *testing.T) {
	cases := []struct {
		name     string
		ident    *Identity
		required RoleSet
		want     Decision
	}{
		{"anonymous", nil, RolesAll, Decision{Redirect: LoginPath}},
		{"anonymous any", nil, nil, Decision{Redirect: LoginPath}},
		{"reader on staff route", &Identity{ID: "u", Role: RoleReader}, RolesStaff, Decision{Redirect: ForbiddenPath}},
		{"librarian on admin route", &Identity{ID: "u", Role: RoleLibrarian}, RolesAdmin, Decision{Redirect: ForbiddenPath}},
		{"admin on staff route", &Identity{ID: "u", Role: RoleAdmin}, RolesStaff, Decision{Allowed: true}},
		{"any identity", &Identity{ID: "u", Role: RoleReader}, nil, Decision{Allowed: true}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := NewGuard(NewPolicy(staticIdentity{tc.ident}), zap.NewNop())
			assert.Equal(t, tc.want, g.Check(tc.required))
		})
	}
}

func guardApp(ident *Identity) *fiber.App {
	g := NewGuard(NewPolicy(staticIdentity{ident}), zap.NewNop())
	app := fiber.New()
	app.Get("/loans", g.Require(RoleAdmin, RoleLibrarian), func(c *fiber.Ctx) error {
		who, ok := IdentityFromContext(c)
		if !ok {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		return c.SendString(who.ID)
	})
	app.Get("/login", g.GuestOnly(), func(c *fiber.Ctx) error {
		return c.SendString("login form")
	})
	return app
}

func TestGuardRequireRedirects(t *testing.T) {
	resp, err := guardApp(nil).Test(httptest.NewRequest("GET", "/loans", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, LoginPath, resp.Header.Get("Location"))

	resp, err = guardApp(&Identity{ID: "r1", Role: RoleReader}).Test(httptest.NewRequest("GET", "/loans", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, ForbiddenPath, resp.Header.Get("Location"))
}

func TestGuardRequireAdmits(t *testing.T) {
	resp, err := guardApp(&Identity{ID: "s1", Role: RoleLibrarian}).Test(httptest.NewRequest("GET", "/loans", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "s1", string(body))
}

func TestGuardGuestOnly(t *testing.T) {
	resp, err := guardApp(&Identity{ID: "s1", Role: RoleAdmin}).Test(httptest.NewRequest("GET", "/login", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, HomePath, resp.Header.Get("Location"))

	resp, err = guardApp(nil).Test(httptest.NewRequest("GET", "/login", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
