package handlers

import (
	"net/url"

	"github.com/gofiber/fiber/v2"
)

// ThemeHandler flips the console colour scheme.
type ThemeHandler struct {
	*Base
}

// NewThemeHandler constructs handler.
func NewThemeHandler(base *Base) *ThemeHandler {
	return &ThemeHandler{Base: base}
}

// Toggle handles POST /theme and sends the operator back to the page they
// came from. Only the path of the referer is reused.
func (h *ThemeHandler) Toggle(c *fiber.Ctx) error {
	if _, err := h.theme.Toggle(c.UserContext()); err != nil {
		return err
	}
	back := "/"
	if u, err := url.Parse(c.Get(fiber.HeaderReferer)); err == nil && u.Path != "" {
		back = u.RequestURI()
	}
	return c.Redirect(back, fiber.StatusSeeOther)
}
