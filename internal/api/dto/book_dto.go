package dto

import "github.com/spec-kit/library-console/internal/domain"

// Book is the wire form of a catalog entry.
type Book struct {
	ID             string `json:"id"`
	MongoID        string `json:"_id"`
	Title          string `json:"title"`
	Author         string `json:"author"`
	ThumbnailURL   string `json:"thumbnailUrl"`
	Deposit        Number `json:"deposit"`
	RentPrice      Number `json:"rentPrice"`
	Genre          string `json:"genre"`
	Available      *bool  `json:"available"`
	Quantity       *int   `json:"quantity"`
	AvailableCount *int   `json:"availableCount"`
	IsReserved     bool   `json:"isReserved"`
	ReservedUntil  string `json:"reservedUntil"`
	CreatedAt      string `json:"createdAt"`
	UpdatedAt      string `json:"updatedAt"`
}

// Book maps a wire book. Availability defaults to true when the API omits it.
func (m Mapper) Book(raw Book) domain.Book {
	available := true
	if raw.Available != nil {
		available = *raw.Available
	}
	return domain.Book{
		ID:             pick(raw.MongoID, raw.ID),
		Title:          raw.Title,
		Author:         raw.Author,
		ThumbnailURL:   m.AssetURL(raw.ThumbnailURL),
		Deposit:        raw.Deposit.Float(),
		RentPrice:      raw.RentPrice.Float(),
		Genre:          raw.Genre,
		Available:      available,
		Quantity:       raw.Quantity,
		AvailableCount: raw.AvailableCount,
		IsReserved:     raw.IsReserved,
		ReservedUntil:  parseTime(raw.ReservedUntil),
		CreatedAt:      parseTime(raw.CreatedAt),
		UpdatedAt:      parseTime(raw.UpdatedAt),
	}
}

// BookRef maps a field that is either a book id or an embedded book.
func (m Mapper) BookRef(ref Ref, fallbackID string) domain.BookRef {
	if !ref.IsObject() {
		return domain.BookRef{ID: pick(ref.ID, fallbackID)}
	}
	var raw Book
	if err := unmarshal(ref.Raw, &raw); err != nil {
		return domain.BookRef{ID: fallbackID}
	}
	b := m.Book(raw)
	return domain.BookRef{ID: b.ID, Book: &b}
}

// UploadResult is returned by the image upload endpoint.
type UploadResult struct {
	URL string `json:"url"`
}
