package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/spec-kit/library-console/internal/api/dto"
	"github.com/spec-kit/library-console/internal/domain"
	apperrors "github.com/spec-kit/library-console/pkg/util/errorutil"
)

// BookService manages the catalog.
type BookService struct {
	api    API
	mapper dto.Mapper
}

// BookFilters define catalog listing parameters.
type BookFilters struct {
	ListFilters
	Genre     string
	Available *bool
}

// NewBookService constructs the service.
func NewBookService(deps Dependencies) *BookService {
	return &BookService{api: deps.API, mapper: deps.Mapper}
}

// List returns one page of the catalog.
func (s *BookService) List(ctx context.Context, f BookFilters) (domain.Page[domain.Book], error) {
	p := f.params()
	p["genre"] = f.Genre
	p["available"] = f.Available

	raw, err := s.api.GetRaw(ctx, "/books", p)
	if err != nil {
		return domain.Page[domain.Book]{}, err
	}
	return dto.DecodePage(raw, s.mapper.Book)
}

// Get fetches one book.
func (s *BookService) Get(ctx context.Context, id string) (domain.Book, error) {
	var raw dto.Book
	if err := s.api.Get(ctx, resource("books", id), nil, &raw); err != nil {
		return domain.Book{}, err
	}
	return s.mapper.Book(raw), nil
}

// Create adds a book.
func (s *BookService) Create(ctx context.Context, in domain.BookInput) (domain.Book, error) {
	if err := validateBook(in); err != nil {
		return domain.Book{}, err
	}
	var raw dto.Book
	if err := s.api.Post(ctx, "/books", in, &raw); err != nil {
		return domain.Book{}, err
	}
	return s.mapper.Book(raw), nil
}

// Update replaces the editable fields of a book.
func (s *BookService) Update(ctx context.Context, id string, in domain.BookInput) (domain.Book, error) {
	if err := validateBook(in); err != nil {
		return domain.Book{}, err
	}
	var raw dto.Book
	if err := s.api.Put(ctx, resource("books", id), in, &raw); err != nil {
		return domain.Book{}, err
	}
	return s.mapper.Book(raw), nil
}

// Delete removes a book.
func (s *BookService) Delete(ctx context.Context, id string) error {
	return s.api.Delete(ctx, resource("books", id), nil)
}

// ReleaseReservation clears the reservation hold on a book.
func (s *BookService) ReleaseReservation(ctx context.Context, id string) error {
	return s.api.Post(ctx, resource("books", id, "release-reservation"), struct{}{}, nil)
}

func validateBook(in domain.BookInput) error {
	details := map[string]any{}
	if len(strings.TrimSpace(in.Title)) < 2 {
		details["title"] = "must be at least 2 characters"
	}
	if in.Deposit < 0 {
		details["deposit"] = "must not be negative"
	}
	if in.RentPrice < 0 {
		details["rentPrice"] = "must not be negative"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError(fmt.Sprintf("invalid book: %d field(s)", len(details)), details)
	}
	return nil
}
