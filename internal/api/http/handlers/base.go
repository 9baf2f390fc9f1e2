package handlers

import (
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/library-console/internal/auth"
	"github.com/spec-kit/library-console/internal/domain"
	"github.com/spec-kit/library-console/internal/notify"
	"github.com/spec-kit/library-console/internal/preferences"
	"github.com/spec-kit/library-console/internal/service"
	"github.com/spec-kit/library-console/internal/views"
	apperrors "github.com/spec-kit/library-console/pkg/util/errorutil"
)

// BusyState reports whether API calls are in flight.
type BusyState interface {
	Busy() bool
	InFlight() int
}

// Base carries what every page needs to render its frame.
type Base struct {
	identity auth.IdentitySource
	theme    *preferences.ThemeStore
	flash    *notify.Flash
	busy     BusyState
	logger   *zap.Logger
}

// NewBase constructs the shared page renderer.
func NewBase(identity auth.IdentitySource, theme *preferences.ThemeStore, flash *notify.Flash, busy BusyState, logger *zap.Logger) *Base {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Base{identity: identity, theme: theme, flash: flash, busy: busy, logger: logger}
}

// Render draws view inside the layout. Pending flash messages are consumed.
func (b *Base) Render(c *fiber.Ctx, view, title string, data fiber.Map) error {
	bind := fiber.Map{
		"Title": title,
		"Theme": string(preferences.ThemeLight),
		"Flash": b.flash.Drain(),
		"Busy":  b.busy != nil && b.busy.Busy(),
		"Path":  c.Path(),
	}
	if ident := b.identity.Current(); ident != nil {
		bind["Identity"] = ident
	}
	if b.theme != nil {
		bind["Theme"] = string(b.theme.Current())
	}
	for k, v := range data {
		bind[k] = v
	}
	return c.Render(view, bind, views.Layout)
}

// RenderError draws the error page, or the JSON envelope for API style paths.
func (b *Base) RenderError(c *fiber.Ctx, de *apperrors.DomainError) error {
	c.Status(de.HTTPStatus)
	if wantsJSON(c) {
		body := fiber.Map{"code": de.Code, "message": de.Message}
		if len(de.Details) > 0 {
			body["details"] = de.Details
		}
		return c.JSON(fiber.Map{"error": body})
	}
	return b.Render(c, "error", "Error", fiber.Map{
		"Status":  de.HTTPStatus,
		"Code":    de.Code,
		"Message": de.Message,
	})
}

// fail reports a failed form action and sends the operator back. Remote
// failures were already announced by the API client, so only local ones are
// flashed here.
func (b *Base) fail(c *fiber.Ctx, err error, back string) error {
	var remote apperrors.RemoteError
	if !errors.As(err, &remote) {
		b.flash.Error(errorText(err))
	}
	b.logger.Debug("action failed", zap.String("path", c.Path()), zap.Error(err))
	return c.Redirect(back, fiber.StatusSeeOther)
}

// done flashes a success message and redirects.
func (b *Base) done(c *fiber.Ctx, text, next string) error {
	b.flash.Success(text)
	return c.Redirect(next, fiber.StatusSeeOther)
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Message
	}
	return apperrors.ToDomainError(err).Message
}

func wantsJSON(c *fiber.Ctx) bool {
	return strings.HasPrefix(c.Path(), "/status") ||
		strings.HasPrefix(c.Path(), "/health") ||
		c.Accepts(fiber.MIMETextHTML, fiber.MIMEApplicationJSON) == fiber.MIMEApplicationJSON
}

// listFilters reads the common list query parameters.
func listFilters(c *fiber.Ctx) service.ListFilters {
	return service.ListFilters{
		Query:  strings.TrimSpace(c.Query("q")),
		Page:   max(1, c.QueryInt("page", 1)),
		Limit:  c.QueryInt("limit", domain.DefaultPageLimit),
		SortBy: c.Query("sortBy"),
		Order:  c.Query("order"),
	}
}

// pagerBase returns the current URL without its page parameter, ready for
// "page=N" to be appended.
func pagerBase(c *fiber.Ctx) string {
	vals := url.Values{}
	c.Request().URI().QueryArgs().VisitAll(func(k, v []byte) {
		if string(k) != "page" {
			vals.Add(string(k), string(v))
		}
	})
	if len(vals) == 0 {
		return c.Path() + "?"
	}
	return c.Path() + "?" + vals.Encode() + "&"
}

func pageData(c *fiber.Ctx, pager domain.Pager) fiber.Map {
	return fiber.Map{
		"Pager":     pager,
		"PagerBase": pagerBase(c),
		"PrevPage":  pager.Page - 1,
		"NextPage":  pager.Page + 1,
	}
}

func idParam(c *fiber.Ctx) (string, error) {
	id := c.Params("id")
	if !domain.IsObjectID(id) {
		return "", apperrors.NewValidationError("invalid id", map[string]any{"id": id})
	}
	return id, nil
}

func queryBool(c *fiber.Ctx, key string) bool {
	v, err := strconv.ParseBool(c.Query(key))
	return err == nil && v
}
