package service

import (
	"context"

	"github.com/spec-kit/library-console/internal/api/dto"
	"github.com/spec-kit/library-console/internal/domain"
	apperrors "github.com/spec-kit/library-console/pkg/util/errorutil"
)

// AutoCancelReason is recorded when a reservation is dropped because its
// book could not be issued.
const AutoCancelReason = "Book already issued or unavailable"

// ReservationService manages reservations.
type ReservationService struct {
	api    API
	mapper dto.Mapper
}

// ReservationFilters define reservation listing parameters.
type ReservationFilters struct {
	ListFilters
	Status domain.ReservationStatus
}

// NewReservationService constructs the service.
func NewReservationService(deps Dependencies) *ReservationService {
	return &ReservationService{api: deps.API, mapper: deps.Mapper}
}

// Create reserves a book for a reader.
func (s *ReservationService) Create(ctx context.Context, req domain.CreateReservation) (domain.Reservation, error) {
	if req.DesiredDays < 1 {
		return domain.Reservation{}, apperrors.NewValidationError("desired days must be positive", map[string]any{"desiredDays": req.DesiredDays})
	}
	var raw dto.Reservation
	if err := s.api.Post(ctx, "/loans/reserve", req, &raw); err != nil {
		return domain.Reservation{}, err
	}
	return s.mapper.Reservation(raw), nil
}

// List returns one page of every reservation.
func (s *ReservationService) List(ctx context.Context, f ReservationFilters) (domain.Page[domain.Reservation], error) {
	return s.page(ctx, "/reservations", f)
}

// Mine returns one page of the signed-in reader's reservations.
func (s *ReservationService) Mine(ctx context.Context, f ReservationFilters) (domain.Page[domain.Reservation], error) {
	return s.page(ctx, "/reservations/mine", f)
}

func (s *ReservationService) page(ctx context.Context, path string, f ReservationFilters) (domain.Page[domain.Reservation], error) {
	p := f.params()
	p["status"] = string(f.Status)
	raw, err := s.api.GetRaw(ctx, path, p)
	if err != nil {
		return domain.Page[domain.Reservation]{}, err
	}
	return dto.DecodePage(raw, s.mapper.Reservation)
}

type cancelRequest struct {
	Reason string `json:"reason,omitempty"`
}

// Cancel cancels a reservation with an optional reason.
func (s *ReservationService) Cancel(ctx context.Context, id, reason string) (domain.CancelResult, error) {
	var raw dto.CancelResult
	if err := s.api.Post(ctx, resource("reservations", id, "cancel"), cancelRequest{Reason: reason}, &raw); err != nil {
		return domain.CancelResult{}, err
	}
	return s.mapper.CancelResult(raw), nil
}

// AutoCancel drops a reservation whose book turned out to be unavailable.
func (s *ReservationService) AutoCancel(ctx context.Context, id string) error {
	return s.api.Post(ctx, resource("reservations", id, "cancel"), cancelRequest{Reason: AutoCancelReason}, nil)
}
