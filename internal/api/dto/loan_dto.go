package dto

import "github.com/spec-kit/library-console/internal/domain"

// Loan is the wire form of a loan.
type Loan struct {
	ID                 string `json:"id"`
	MongoID            string `json:"_id"`
	Book               Ref    `json:"book"`
	BookID             string `json:"bookId"`
	Reader             Ref    `json:"reader"`
	ReaderID           string `json:"readerId"`
	IssueDate          string `json:"issueDate"`
	ExpectedReturnDate string `json:"expectedReturnDate"`
	ActualReturnDate   string `json:"actualReturnDate"`
	RentPerDay         Number `json:"rentPerDay"`
	Days               Number `json:"days"`
	DiscountCategory   string `json:"discountCategory"`
	DiscountPercent    Number `json:"discountPercent"`
	TotalRent          Number `json:"totalRent"`
	Deposit            Number `json:"deposit"`
	Penalty            Number `json:"penalty"`
	DamageFee          Number `json:"damageFee"`
	Status             string `json:"status"`
	CreatedAt          string `json:"createdAt"`
	UpdatedAt          string `json:"updatedAt"`
}

// Loan maps a wire loan. Status defaults to issued.
func (m Mapper) Loan(raw Loan) domain.Loan {
	status := domain.LoanStatus(raw.Status)
	if status == "" {
		status = domain.LoanIssued
	}
	return domain.Loan{
		ID:                 pick(raw.MongoID, raw.ID),
		Book:               m.BookRef(raw.Book, raw.BookID),
		Reader:             m.UserRef(raw.Reader, raw.ReaderID),
		IssueDate:          parseTime(raw.IssueDate),
		ExpectedReturnDate: parseTime(raw.ExpectedReturnDate),
		ActualReturnDate:   parseTime(raw.ActualReturnDate),
		RentPerDay:         raw.RentPerDay.Float(),
		Days:               raw.Days.Int(),
		DiscountCategory:   domain.DiscountCategory(raw.DiscountCategory),
		DiscountPercent:    raw.DiscountPercent.Float(),
		TotalRent:          raw.TotalRent.Float(),
		Deposit:            raw.Deposit.Float(),
		Penalty:            raw.Penalty.Float(),
		DamageFee:          raw.DamageFee.Float(),
		Status:             status,
		CreatedAt:          parseTime(raw.CreatedAt),
		UpdatedAt:          parseTime(raw.UpdatedAt),
	}
}

// IssuePreview is the wire form of a rent quote.
type IssuePreview struct {
	Days               Number `json:"days"`
	DiscountPercent    Number `json:"discountPercent"`
	RentPerDay         Number `json:"rentPerDay"`
	TotalRent          Number `json:"totalRent"`
	Deposit            Number `json:"deposit"`
	PayableNow         Number `json:"payableNow"`
	ExpectedReturnDate string `json:"expectedReturnDate"`
}

// IssuePreview maps a rent quote.
func (m Mapper) IssuePreview(raw IssuePreview) domain.IssuePreview {
	return domain.IssuePreview{
		Days:               raw.Days.Int(),
		DiscountPercent:    raw.DiscountPercent.Float(),
		RentPerDay:         raw.RentPerDay.Float(),
		TotalRent:          raw.TotalRent.Float(),
		Deposit:            raw.Deposit.Float(),
		PayableNow:         raw.PayableNow.Float(),
		ExpectedReturnDate: parseTime(raw.ExpectedReturnDate),
	}
}

// IssueResult is the response of POST /loans/issue.
type IssueResult struct {
	Loan       Loan   `json:"loan"`
	PayableNow Number `json:"payableNow"`
}

// IssueResult maps an issue response.
func (m Mapper) IssueResult(raw IssueResult) domain.IssueResult {
	return domain.IssueResult{Loan: m.Loan(raw.Loan), PayableNow: raw.PayableNow.Float()}
}

// ReturnPreview is the response of GET /loans/preview-return/{id}.
type ReturnPreview struct {
	Penalty         Number `json:"penalty"`
	PenaltyPerDay   Number `json:"penaltyPerDay"`
	AlreadyReturned bool   `json:"alreadyReturned"`
}

// ReturnPreview maps a penalty quote.
func (m Mapper) ReturnPreview(raw ReturnPreview) domain.ReturnPreview {
	return domain.ReturnPreview{
		Penalty:         raw.Penalty.Float(),
		PenaltyPerDay:   raw.PenaltyPerDay.Float(),
		AlreadyReturned: raw.AlreadyReturned,
	}
}

// ReturnResult is the response of POST /loans/return/{id}.
type ReturnResult struct {
	Loan       Loan `json:"loan"`
	Settlement struct {
		Penalty         Number `json:"penalty"`
		DamageFee       Number `json:"damageFee"`
		DepositReturned Number `json:"depositReturned"`
		ExtraToPay      Number `json:"extraToPay"`
	} `json:"settlement"`
}

// ReturnResult maps a return response.
func (m Mapper) ReturnResult(raw ReturnResult) domain.ReturnResult {
	return domain.ReturnResult{
		Loan: m.Loan(raw.Loan),
		Settlement: domain.ReturnSettlement{
			Penalty:         raw.Settlement.Penalty.Float(),
			DamageFee:       raw.Settlement.DamageFee.Float(),
			DepositReturned: raw.Settlement.DepositReturned.Float(),
			ExtraToPay:      raw.Settlement.ExtraToPay.Float(),
		},
	}
}

// DamageLevel is one entry of GET /loans/damage-levels.
type DamageLevel struct {
	Value string `json:"value"`
	Label string `json:"label"`
	Fee   Number `json:"fee"`
}

// DamageLevel maps a damage grade.
func (m Mapper) DamageLevel(raw DamageLevel) domain.DamageLevel {
	return domain.DamageLevel{Value: raw.Value, Label: raw.Label, Fee: raw.Fee.Float()}
}
