package domain

import "time"

// Book is a catalog entry.
type Book struct {
	ID             string
	Title          string
	Author         string
	ThumbnailURL   string
	Deposit        float64
	RentPrice      float64
	Genre          string
	Available      bool
	Quantity       *int
	AvailableCount *int
	IsReserved     bool
	ReservedUntil  *time.Time
	CreatedAt      *time.Time
	UpdatedAt      *time.Time
}

// HasCopies reports whether at least one copy can be issued right now.
func (b Book) HasCopies() bool {
	if !b.Available {
		return false
	}
	if b.AvailableCount != nil {
		return *b.AvailableCount > 0
	}
	return true
}

// BookInput is the create/update payload for a book.
type BookInput struct {
	Title        string  `json:"title"`
	Author       string  `json:"author"`
	ThumbnailURL string  `json:"thumbnailUrl,omitempty"`
	Deposit      float64 `json:"deposit"`
	RentPrice    float64 `json:"rentPrice"`
	Genre        string  `json:"genre"`
	Available    *bool   `json:"available,omitempty"`
	Quantity     *int    `json:"quantity,omitempty"`
}

// BookRef is either a bare book id or an embedded book record.
type BookRef struct {
	ID   string
	Book *Book
}

// Title renders the reference the way lists display it.
func (r BookRef) Title() string {
	if r.Book != nil && r.Book.Title != "" {
		return r.Book.Title
	}
	return r.ID
}
