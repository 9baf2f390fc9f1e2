package domain

import (
	"math"
	"regexp"
	"time"
)

// Loan duration bounds enforced before an issue request is sent.
const (
	LoanMinDays = 1
	LoanMaxDays = 60
)

// DateLayout is the calendar date format exchanged with the API.
const DateLayout = "2006-01-02"

// LoanStatus is the lifecycle of a loan.
type LoanStatus string

const (
	LoanIssued   LoanStatus = "issued"
	LoanReturned LoanStatus = "returned"
)

// Loan is a book lent to a reader.
type Loan struct {
	ID                 string
	Book               BookRef
	Reader             UserRef
	IssueDate          *time.Time
	ExpectedReturnDate *time.Time
	ActualReturnDate   *time.Time
	RentPerDay         float64
	Days               int
	DiscountCategory   DiscountCategory
	DiscountPercent    float64
	TotalRent          float64
	Deposit            float64
	Penalty            float64
	DamageFee          float64
	Status             LoanStatus
	CreatedAt          *time.Time
	UpdatedAt          *time.Time
}

// IssueRequest is the payload of POST /loans/issue.
type IssueRequest struct {
	UserID string `json:"userId"`
	BookID string `json:"bookId"`
	Days   int    `json:"days"`
}

// IssuePreviewRequest is the payload of POST /loans/issue/preview.
type IssuePreviewRequest struct {
	UserID  string `json:"userId"`
	BookID  string `json:"bookId"`
	Days    int    `json:"days,omitempty"`
	DueDate string `json:"dueDate,omitempty"`
}

// IssuePreview is the rent quote for a prospective loan.
type IssuePreview struct {
	Days               int
	DiscountPercent    float64
	RentPerDay         float64
	TotalRent          float64
	Deposit            float64
	PayableNow         float64
	ExpectedReturnDate *time.Time
}

// BaseRent is the rent before the discount was applied.
func (p IssuePreview) BaseRent() float64 {
	return BaseRent(p.TotalRent, p.DiscountPercent)
}

// IssueResult is returned by a successful issue.
type IssueResult struct {
	Loan       Loan
	PayableNow float64
}

// ReturnRequest is the payload of POST /loans/return/{id}.
type ReturnRequest struct {
	Damaged     bool    `json:"damaged"`
	DamageFee   float64 `json:"damageFee,omitempty"`
	DamageLevel string  `json:"damageLevel,omitempty"`
}

// ReturnPreview is the penalty quote for returning a loan today.
type ReturnPreview struct {
	Penalty         float64
	PenaltyPerDay   float64
	AlreadyReturned bool
}

// PenaltyNow is the overdue penalty that applies if the loan is returned now.
func (p ReturnPreview) PenaltyNow() float64 {
	if p.AlreadyReturned {
		return 0
	}
	return p.Penalty
}

// ReturnSettlement summarizes the money movement of a return.
type ReturnSettlement struct {
	Penalty         float64
	DamageFee       float64
	DepositReturned float64
	ExtraToPay      float64
}

// ReturnResult is returned by a successful return.
type ReturnResult struct {
	Loan       Loan
	Settlement ReturnSettlement
}

// DamageLevel is one selectable damage grade with its fee.
type DamageLevel struct {
	Value string
	Label string
	Fee   float64
}

// DamageFee looks up the fee for level. An empty or unknown level costs nothing.
func DamageFee(levels []DamageLevel, level string) float64 {
	if level == "" {
		return 0
	}
	for _, l := range levels {
		if l.Value == level {
			return l.Fee
		}
	}
	return 0
}

// BaseRent reverses a percentage discount, rounding to the nearest unit.
func BaseRent(totalRent, discountPercent float64) float64 {
	if discountPercent <= 0 {
		return totalRent
	}
	denom := (100 - discountPercent) / 100
	if denom == 0 {
		denom = 1
	}
	return math.Round(totalRent / denom)
}

// TotalToPay is what the reader owes on return after the deposit is applied.
func TotalToPay(damageFee, penalty, deposit float64) float64 {
	return math.Max(0, damageFee+penalty-deposit)
}

// BaseWithoutOverdue is what the reader owes for damage alone.
func BaseWithoutOverdue(damageFee, deposit float64) float64 {
	return math.Max(0, damageFee-deposit)
}

// DueClass grades how close a due date is.
type DueClass string

const (
	DueOK     DueClass = "ok"
	DueWarn   DueClass = "warn"
	DueDanger DueClass = "danger"
)

// DaysLeft counts whole days between now and due, rounding down.
func DaysLeft(due, now time.Time) int {
	return int(math.Floor(due.Sub(now).Hours() / 24))
}

// ClassifyDue returns danger when overdue, warn within one day, ok otherwise.
func ClassifyDue(due, now time.Time) DueClass {
	d := DaysLeft(due, now)
	switch {
	case d < 0:
		return DueDanger
	case d <= 1:
		return DueWarn
	default:
		return DueOK
	}
}

// ValidLoanDays reports whether days is within the allowed loan duration.
func ValidLoanDays(days int) bool {
	return days >= LoanMinDays && days <= LoanMaxDays
}

// ClampLoanDays forces days into the allowed loan duration.
func ClampLoanDays(days int) int {
	return min(LoanMaxDays, max(LoanMinDays, days))
}

// DueDateFromDays returns the calendar date days after now.
func DueDateFromDays(now time.Time, days int) string {
	return now.AddDate(0, 0, days).Format(DateLayout)
}

var objectIDPattern = regexp.MustCompile(`^[a-fA-F0-9]{24}$`)

// ObjectIDPattern matches the 24 hex character identifiers used by the API.
func ObjectIDPattern() *regexp.Regexp { return objectIDPattern }

// IsObjectID reports whether id looks like an API identifier.
func IsObjectID(id string) bool {
	return objectIDPattern.MatchString(id)
}

var issueConflictPattern = regexp.MustCompile(`(?i)(unavailable|issued|недоступ|вже видан)`)

// IsIssueConflict reports whether an issue failure message says the book cannot be lent.
func IsIssueConflict(message string) bool {
	return issueConflictPattern.MatchString(message)
}
