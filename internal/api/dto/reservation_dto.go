package dto

import "github.com/spec-kit/library-console/internal/domain"

// Reservation is the wire form of a reservation.
type Reservation struct {
	ID           string `json:"id"`
	MongoID      string `json:"_id"`
	Book         Ref    `json:"book"`
	BookID       string `json:"bookId"`
	Reader       Ref    `json:"reader"`
	ReaderID     string `json:"readerId"`
	DesiredDays  Number `json:"desiredDays"`
	Status       string `json:"status"`
	CancelReason string `json:"cancelReason"`
	CreatedAt    string `json:"createdAt"`
	UpdatedAt    string `json:"updatedAt"`
}

// Reservation maps a wire reservation.
func (m Mapper) Reservation(raw Reservation) domain.Reservation {
	return domain.Reservation{
		ID:           pick(raw.MongoID, raw.ID),
		Book:         m.BookRef(raw.Book, raw.BookID),
		Reader:       m.UserRef(raw.Reader, raw.ReaderID),
		DesiredDays:  raw.DesiredDays.Int(),
		Status:       domain.ReservationStatus(raw.Status),
		CancelReason: raw.CancelReason,
		CreatedAt:    parseTime(raw.CreatedAt),
		UpdatedAt:    parseTime(raw.UpdatedAt),
	}
}

// CancelResult is the response of POST /reservations/{id}/cancel.
// Some API versions return the reservation itself instead of an envelope.
type CancelResult struct {
	Reservation
	Message string       `json:"message"`
	Wrapped *Reservation `json:"reservation"`
}

// CancelResult maps a cancellation response.
func (m Mapper) CancelResult(raw CancelResult) domain.CancelResult {
	res := raw.Reservation
	if raw.Wrapped != nil {
		res = *raw.Wrapped
	}
	msg := raw.Message
	if msg == "" {
		msg = "Cancelled"
	}
	return domain.CancelResult{Message: msg, Reservation: m.Reservation(res)}
}
