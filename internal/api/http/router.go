package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/library-console/internal/api/http/handlers"
	"github.com/spec-kit/library-console/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Guard        *auth.Guard
	Health       *handlers.HealthHandler
	Auth         *handlers.AuthHandler
	Books        *handlers.BooksHandler
	Users        *handlers.UsersHandler
	Loans        *handlers.LoansHandler
	Reservations *handlers.ReservationsHandler
	Theme        *handlers.ThemeHandler
}

// RegisterRoutes wires console routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	g := cfg.Guard
	all := g.Require(auth.RolesAll...)
	staff := g.Require(auth.RolesStaff...)
	reader := g.Require(auth.RolesReader...)
	admin := g.Require(auth.RolesAdmin...)

	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/status", cfg.Health.Status)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.Redirect(auth.LoginPath, fiber.StatusFound)
	})
	app.Get("/login", g.GuestOnly(), cfg.Auth.LoginPage)
	app.Post("/login", g.GuestOnly(), cfg.Auth.Login)
	app.Get("/register", g.GuestOnly(), cfg.Auth.RegisterPage)
	app.Post("/register", g.GuestOnly(), cfg.Auth.Register)
	app.Post("/logout", cfg.Auth.Logout)
	app.Get("/forbidden", cfg.Auth.Forbidden)
	app.Post("/theme", cfg.Theme.Toggle)

	books := app.Group("/books")
	books.Get("/", all, cfg.Books.List)
	books.Post("/", staff, cfg.Books.Create)
	books.Get("/new", staff, cfg.Books.New)
	books.Get("/edit/:id", staff, cfg.Books.Edit)
	books.Post("/edit/:id", staff, cfg.Books.Update)
	books.Post("/:id/delete", staff, cfg.Books.Delete)
	books.Post("/:id/release", staff, cfg.Books.Release)
	books.Post("/:id/reserve", reader, cfg.Books.Reserve)

	users := app.Group("/users")
	users.Get("/", staff, cfg.Users.List)
	users.Get("/:id/edit", admin, cfg.Users.EditPage)
	users.Post("/:id/edit", admin, cfg.Users.SetRole)
	users.Post("/:id/discount", staff, cfg.Users.SetDiscount)
	users.Get("/:id/profile", staff, cfg.Users.UserProfile)
	users.Post("/:id/profile", staff, cfg.Users.UpdateUserProfile)

	app.Get("/profile", all, cfg.Users.MyProfile)
	app.Post("/profile", all, cfg.Users.UpdateMyProfile)
	app.Post("/profile/password", all, cfg.Users.ChangePassword)

	loans := app.Group("/loans")
	loans.Get("/", staff, cfg.Loans.List)
	loans.Get("/mine", reader, cfg.Loans.Mine)
	loans.Get("/issue", staff, cfg.Loans.IssuePage)
	loans.Post("/issue", staff, cfg.Loans.Issue)
	loans.Get("/return", staff, cfg.Loans.ReturnPage)
	loans.Post("/return/:id", staff, cfg.Loans.Return)
	loans.Post("/:id/renew", staff, cfg.Loans.Renew)

	reservations := app.Group("/reservations")
	reservations.Get("/", staff, cfg.Reservations.List)
	reservations.Get("/mine", reader, cfg.Reservations.Mine)
	reservations.Get("/admin", staff, cfg.Reservations.List)
	reservations.Post("/:id/cancel", all, cfg.Reservations.Cancel)
}
