package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/library-console/internal/domain"
	"github.com/spec-kit/library-console/internal/service"
)

// BookCatalog is the catalog API used by the book pages.
type BookCatalog interface {
	List(ctx context.Context, f service.BookFilters) (domain.Page[domain.Book], error)
	Get(ctx context.Context, id string) (domain.Book, error)
	Create(ctx context.Context, in domain.BookInput) (domain.Book, error)
	Update(ctx context.Context, id string, in domain.BookInput) (domain.Book, error)
	Delete(ctx context.Context, id string) error
	ReleaseReservation(ctx context.Context, id string) error
}

// Reserver creates reservations.
type Reserver interface {
	Create(ctx context.Context, req domain.CreateReservation) (domain.Reservation, error)
}

// BooksHandler serves the catalog pages.
type BooksHandler struct {
	*Base
	books        BookCatalog
	reservations Reserver
}

// NewBooksHandler constructs handler.
func NewBooksHandler(base *Base, books BookCatalog, reservations Reserver) *BooksHandler {
	return &BooksHandler{Base: base, books: books, reservations: reservations}
}

// List handles GET /books.
func (h *BooksHandler) List(c *fiber.Ctx) error {
	f := service.BookFilters{ListFilters: listFilters(c), Genre: c.Query("genre")}
	page, err := h.books.List(c.UserContext(), f)
	if err != nil {
		return err
	}
	data := pageData(c, page.Pager(f.Page, f.Limit))
	data["Books"] = page.Items
	data["Filters"] = f
	return h.Render(c, "books", "Books", data)
}

// New handles GET /books/new.
func (h *BooksHandler) New(c *fiber.Ctx) error {
	return h.Render(c, "book_form", "New book", fiber.Map{
		"Book": domain.Book{},
		"Form": BookPayload{Available: true},
	})
}

// Create handles POST /books.
func (h *BooksHandler) Create(c *fiber.Ctx) error {
	form, err := parseBook(c)
	if err != nil {
		return h.formError(c, domain.Book{}, form, err)
	}
	if _, err := h.books.Create(c.UserContext(), form.input()); err != nil {
		return h.formError(c, domain.Book{}, form, err)
	}
	return h.done(c, "Book saved", "/books")
}

// Edit handles GET /books/edit/:id.
func (h *BooksHandler) Edit(c *fiber.Ctx) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	book, err := h.books.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return h.Render(c, "book_form", "Edit book", fiber.Map{"Book": book, "Form": bookPayloadFrom(book)})
}

// Update handles POST /books/edit/:id.
func (h *BooksHandler) Update(c *fiber.Ctx) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	book := domain.Book{ID: id}
	form, err := parseBook(c)
	if err != nil {
		return h.formError(c, book, form, err)
	}
	if _, err := h.books.Update(c.UserContext(), id, form.input()); err != nil {
		return h.formError(c, book, form, err)
	}
	return h.done(c, "Book saved", "/books")
}

// Delete handles POST /books/:id/delete.
func (h *BooksHandler) Delete(c *fiber.Ctx) error {
	id, err := idParam(c)
	if err != nil {
		return h.fail(c, err, "/books")
	}
	if err := h.books.Delete(c.UserContext(), id); err != nil {
		return h.fail(c, err, "/books")
	}
	return h.done(c, "Book deleted", "/books")
}

// Release handles POST /books/:id/release.
func (h *BooksHandler) Release(c *fiber.Ctx) error {
	id, err := idParam(c)
	if err != nil {
		return h.fail(c, err, "/books")
	}
	if err := h.books.ReleaseReservation(c.UserContext(), id); err != nil {
		return h.fail(c, err, "/books")
	}
	return h.done(c, "Reservation released", "/books")
}

// Reserve handles POST /books/:id/reserve.
func (h *BooksHandler) Reserve(c *fiber.Ctx) error {
	id, err := idParam(c)
	if err != nil {
		return h.fail(c, err, "/books")
	}
	var form ReservePayload
	if err := c.BodyParser(&form); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
	}
	if err := form.Validate(); err != nil {
		return h.fail(c, formError(err), "/books")
	}
	req := domain.CreateReservation{BookID: id, DesiredDays: form.DesiredDays}
	if _, err := h.reservations.Create(c.UserContext(), req); err != nil {
		return h.fail(c, err, "/books")
	}
	return h.done(c, "Book reserved", "/reservations/mine")
}

func (h *BooksHandler) formError(c *fiber.Ctx, book domain.Book, form BookPayload, err error) error {
	c.Status(fiber.StatusUnprocessableEntity)
	title := "New book"
	if book.ID != "" {
		title = "Edit book"
	}
	return h.Render(c, "book_form", title, fiber.Map{"Book": book, "Form": form, "Error": errorText(err)})
}

func parseBook(c *fiber.Ctx) (BookPayload, error) {
	var form BookPayload
	if err := c.BodyParser(&form); err != nil {
		return form, fiber.NewError(fiber.StatusBadRequest, "invalid payload")
	}
	return form, formError(form.Validate())
}
