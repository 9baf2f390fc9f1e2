package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/library-console/internal/domain"
	"github.com/spec-kit/library-console/internal/service"
)

// ReservationBook is the reservation API used by the reservation pages.
type ReservationBook interface {
	List(ctx context.Context, f service.ReservationFilters) (domain.Page[domain.Reservation], error)
	Mine(ctx context.Context, f service.ReservationFilters) (domain.Page[domain.Reservation], error)
	Cancel(ctx context.Context, id, reason string) (domain.CancelResult, error)
}

// ReservationsHandler serves reservation listings and cancellation.
type ReservationsHandler struct {
	*Base
	reservations ReservationBook
}

// NewReservationsHandler constructs handler.
func NewReservationsHandler(base *Base, reservations ReservationBook) *ReservationsHandler {
	return &ReservationsHandler{Base: base, reservations: reservations}
}

// Mine handles GET /reservations/mine.
func (h *ReservationsHandler) Mine(c *fiber.Ctx) error {
	return h.list(c, true)
}

// List handles GET /reservations and GET /reservations/admin.
func (h *ReservationsHandler) List(c *fiber.Ctx) error {
	return h.list(c, false)
}

func (h *ReservationsHandler) list(c *fiber.Ctx, mine bool) error {
	f := service.ReservationFilters{ListFilters: listFilters(c), Status: domain.ReservationStatus(c.Query("status"))}

	var (
		page domain.Page[domain.Reservation]
		err  error
	)
	if mine {
		page, err = h.reservations.Mine(c.UserContext(), f)
	} else {
		page, err = h.reservations.List(c.UserContext(), f)
	}
	if err != nil {
		return err
	}
	data := pageData(c, page.Pager(f.Page, f.Limit))
	data["Reservations"] = page.Items
	data["Filters"] = f
	data["Mine"] = mine
	title := "Reservations"
	if mine {
		title = "My reservations"
	}
	return h.Render(c, "reservations", title, data)
}

// Cancel handles POST /reservations/:id/cancel.
func (h *ReservationsHandler) Cancel(c *fiber.Ctx) error {
	back := "/reservations"
	if ident := h.identity.Current(); ident != nil && !ident.Role.IsStaff() {
		back = "/reservations/mine"
	}
	id, err := idParam(c)
	if err != nil {
		return h.fail(c, err, back)
	}
	result, err := h.reservations.Cancel(c.UserContext(), id, c.FormValue("reason"))
	if err != nil {
		return h.fail(c, err, back)
	}
	return h.done(c, result.Message, back)
}
