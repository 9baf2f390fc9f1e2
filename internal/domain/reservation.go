package domain

import "time"

// ReservationStatus is the lifecycle of a reservation.
type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "pending"
	ReservationFulfilled ReservationStatus = "fulfilled"
	ReservationCancelled ReservationStatus = "cancelled"
)

// Reservation is a reader's request to borrow a book.
type Reservation struct {
	ID           string
	Book         BookRef
	Reader       UserRef
	DesiredDays  int
	Status       ReservationStatus
	CancelReason string
	CreatedAt    *time.Time
	UpdatedAt    *time.Time
}

// IsPending reports whether the reservation can still be issued or cancelled.
func (r Reservation) IsPending() bool {
	return r.Status == ReservationPending
}

// CreateReservation is the payload of POST /loans/reserve.
type CreateReservation struct {
	BookID      string `json:"bookId"`
	ReaderID    string `json:"readerId,omitempty"`
	DesiredDays int    `json:"desiredDays"`
}

// CancelResult is returned when a reservation is cancelled.
type CancelResult struct {
	Message     string
	Reservation Reservation
}
