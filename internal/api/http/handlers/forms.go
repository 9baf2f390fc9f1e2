package handlers

import (
	"errors"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/nyaruka/phonenumbers"

	"github.com/spec-kit/library-console/internal/domain"
	"github.com/spec-kit/library-console/internal/service"
	apperrors "github.com/spec-kit/library-console/pkg/util/errorutil"
)

const (
	phoneRegion      = "UA"
	phoneCountryCode = 380
)

var objectID = validation.Match(domain.ObjectIDPattern()).Error("must be a valid id")

// LoginPayload is the sign-in form.
type LoginPayload struct {
	Username string `form:"username"`
	Password string `form:"password"`
}

// Validate checks the payload.
func (r LoginPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

// RegisterPayload is the self-registration form.
type RegisterPayload struct {
	Username   string `form:"username"`
	Password   string `form:"password"`
	FirstName  string `form:"firstName"`
	LastName   string `form:"lastName"`
	MiddleName string `form:"middleName"`
	Address    string `form:"address"`
	Phone      string `form:"phone"`
}

// Validate checks the payload.
func (r RegisterPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(3, 64), is.PrintableASCII),
		validation.Field(&r.Password, validation.Required, validation.Length(service.MinPasswordLength, 128)),
		validation.Field(&r.FirstName, validation.Length(0, 100)),
		validation.Field(&r.LastName, validation.Length(0, 100)),
		validation.Field(&r.MiddleName, validation.Length(0, 100)),
		validation.Field(&r.Address, validation.Length(0, 250)),
		validation.Field(&r.Phone, validation.By(ukrainianPhone)),
	)
}

func (r RegisterPayload) request() domain.RegisterRequest {
	return domain.RegisterRequest{
		Username:   strings.TrimSpace(r.Username),
		Password:   r.Password,
		FirstName:  strings.TrimSpace(r.FirstName),
		LastName:   strings.TrimSpace(r.LastName),
		MiddleName: strings.TrimSpace(r.MiddleName),
		Address:    strings.TrimSpace(r.Address),
		Phone:      normalizePhone(r.Phone),
	}
}

// ProfilePayload is the editable part of a user profile.
type ProfilePayload struct {
	FirstName  string `form:"firstName"`
	LastName   string `form:"lastName"`
	MiddleName string `form:"middleName"`
	Address    string `form:"address"`
	Phone      string `form:"phone"`
}

// Validate checks the payload.
func (r ProfilePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.Length(0, 100)),
		validation.Field(&r.LastName, validation.Length(0, 100)),
		validation.Field(&r.MiddleName, validation.Length(0, 100)),
		validation.Field(&r.Address, validation.Length(0, 250)),
		validation.Field(&r.Phone, validation.By(ukrainianPhone)),
	)
}

func (r ProfilePayload) update() domain.UserProfileUpdate {
	return domain.UserProfileUpdate{
		FirstName:  strings.TrimSpace(r.FirstName),
		LastName:   strings.TrimSpace(r.LastName),
		MiddleName: strings.TrimSpace(r.MiddleName),
		Address:    strings.TrimSpace(r.Address),
		Phone:      normalizePhone(r.Phone),
	}
}

// PasswordPayload changes the operator's own password, or another user's
// when UserID is set.
type PasswordPayload struct {
	UserID          string `form:"userId"`
	CurrentPassword string `form:"currentPassword"`
	NewPassword     string `form:"newPassword"`
}

// Validate checks the payload.
func (r PasswordPayload) Validate() error {
	var current []validation.Rule
	if r.UserID == "" {
		current = append(current, validation.Required)
	}
	return validation.ValidateStruct(&r,
		validation.Field(&r.UserID, objectID),
		validation.Field(&r.CurrentPassword, current...),
		validation.Field(&r.NewPassword, validation.Required, validation.Length(service.MinPasswordLength, 128)),
	)
}

// BookPayload is the create and edit form of a book.
type BookPayload struct {
	Title        string  `form:"title"`
	Author       string  `form:"author"`
	Genre        string  `form:"genre"`
	ThumbnailURL string  `form:"thumbnailUrl"`
	RentPrice    float64 `form:"rentPrice"`
	Deposit      float64 `form:"deposit"`
	Available    bool    `form:"available"`
}

// Validate checks the payload.
func (r BookPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required, validation.Length(2, 200)),
		validation.Field(&r.Author, validation.Length(0, 200)),
		validation.Field(&r.ThumbnailURL, is.URL),
		validation.Field(&r.RentPrice, validation.Min(0.0)),
		validation.Field(&r.Deposit, validation.Min(0.0)),
	)
}

func (r BookPayload) input() domain.BookInput {
	available := r.Available
	return domain.BookInput{
		Title:        strings.TrimSpace(r.Title),
		Author:       strings.TrimSpace(r.Author),
		Genre:        strings.TrimSpace(r.Genre),
		ThumbnailURL: strings.TrimSpace(r.ThumbnailURL),
		RentPrice:    r.RentPrice,
		Deposit:      r.Deposit,
		Available:    &available,
	}
}

func bookPayloadFrom(b domain.Book) BookPayload {
	return BookPayload{
		Title:        b.Title,
		Author:       b.Author,
		Genre:        b.Genre,
		ThumbnailURL: b.ThumbnailURL,
		RentPrice:    b.RentPrice,
		Deposit:      b.Deposit,
		Available:    b.Available,
	}
}

// ReservePayload reserves a book for the signed-in reader.
type ReservePayload struct {
	DesiredDays int `form:"desiredDays"`
}

// Validate checks the payload.
func (r ReservePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.DesiredDays, validation.Required, validation.Min(1), validation.Max(domain.LoanMaxDays)),
	)
}

// Ways of choosing the loan length on the issue page.
const (
	IssueByDays = "days"
	IssueByDate = "date"
)

// IssuePayload is the issue form. It is also bound from the query string to
// prefill the page, where the loan length comes either as days or as a due date.
type IssuePayload struct {
	UserID        string `form:"userId" query:"userId"`
	BookID        string `form:"bookId" query:"bookId"`
	Days          int    `form:"days" query:"days"`
	Mode          string `form:"mode" query:"mode"`
	DueDate       string `form:"dueDate" query:"dueDate"`
	ReservationID string `form:"reservationId" query:"reservationId"`
}

// Validate checks the payload.
func (r IssuePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.UserID, validation.Required, objectID),
		validation.Field(&r.BookID, validation.Required, objectID),
		validation.Field(&r.Days, validation.Required, validation.Min(domain.LoanMinDays), validation.Max(domain.LoanMaxDays)),
		validation.Field(&r.ReservationID, objectID),
	)
}

// ByDate reports whether the loan length is given as a due date.
func (r IssuePayload) ByDate() bool {
	if r.Mode != "" {
		return r.Mode == IssueByDate
	}
	return r.DueDate != "" && r.Days == 0
}

// Complete reports whether the form carries enough to request a preview.
func (r IssuePayload) Complete() bool {
	if r.UserID == "" || r.BookID == "" {
		return false
	}
	if r.ByDate() {
		return r.DueDate != ""
	}
	return r.Days > 0
}

// ValidatePreview checks the payload before a quote is requested. A due date
// must fall between tomorrow and the longest loan.
func (r IssuePayload) ValidatePreview(now time.Time) error {
	length := validation.Field(&r.Days, validation.Required, validation.Min(domain.LoanMinDays), validation.Max(domain.LoanMaxDays))
	if r.ByDate() {
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		length = validation.Field(&r.DueDate, validation.Required, validation.Date(domain.DateLayout).
			Min(today.AddDate(0, 0, domain.LoanMinDays)).
			Max(today.AddDate(0, 0, domain.LoanMaxDays)).
			RangeError("must be within 1-60 days"))
	}
	return validation.ValidateStruct(&r,
		validation.Field(&r.UserID, validation.Required, objectID),
		validation.Field(&r.BookID, validation.Required, objectID),
		length,
		validation.Field(&r.ReservationID, objectID),
	)
}

// previewRequest builds the quote request. In days mode the due date is
// derived from the day count.
func (r IssuePayload) previewRequest(now time.Time) domain.IssuePreviewRequest {
	req := domain.IssuePreviewRequest{UserID: r.UserID, BookID: r.BookID}
	if r.ByDate() {
		req.DueDate = r.DueDate
		return req
	}
	req.Days = r.Days
	req.DueDate = domain.DueDateFromDays(now, r.Days)
	return req
}

// ReturnPayload confirms a return with an optional damage grade.
type ReturnPayload struct {
	DamageLevel string `form:"damageLevel" query:"damageLevel"`
}

// RenewPayload extends a loan.
type RenewPayload struct {
	ExtraDays int `form:"extraDays"`
}

// Validate checks the payload.
func (r RenewPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ExtraDays, validation.Required, validation.Min(1), validation.Max(domain.LoanMaxDays)),
	)
}

// RolePayload changes a user's role.
type RolePayload struct {
	Role string `form:"role"`
}

// Validate checks the payload.
func (r RolePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Role, validation.Required, validation.In(
			string(domain.RoleAdmin), string(domain.RoleLibrarian), string(domain.RoleReader),
		)),
	)
}

// DiscountPayload changes a reader's discount category.
type DiscountPayload struct {
	DiscountCategory string `form:"discountCategory"`
}

// Validate checks the payload.
func (r DiscountPayload) Validate() error {
	allowed := make([]interface{}, 0, len(domain.DiscountCategories))
	for _, d := range domain.DiscountCategories {
		allowed = append(allowed, string(d))
	}
	return validation.ValidateStruct(&r,
		validation.Field(&r.DiscountCategory, validation.Required, validation.In(allowed...)),
	)
}

func ukrainianPhone(value interface{}) error {
	s, _ := value.(string)
	if strings.TrimSpace(s) == "" {
		return nil
	}
	num, err := phonenumbers.Parse(s, phoneRegion)
	if err != nil {
		return errors.New("must be a phone number")
	}
	if num.GetCountryCode() != phoneCountryCode || !phonenumbers.IsValidNumber(num) {
		return errors.New("must be a valid Ukrainian phone number")
	}
	return nil
}

// normalizePhone renders valid numbers in E.164 and leaves anything else as typed.
func normalizePhone(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	num, err := phonenumbers.Parse(s, phoneRegion)
	if err != nil {
		return s
	}
	return phonenumbers.Format(num, phonenumbers.E164)
}

// formError turns validation failures into a console validation error.
func formError(err error) error {
	if err == nil {
		return nil
	}
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		return apperrors.NewValidationError(err.Error(), nil)
	}
	details := make(map[string]any, len(verrs))
	for field, e := range verrs {
		details[field] = e.Error()
	}
	return apperrors.NewValidationError(verrs.Error(), details)
}
