package service

import (
	"context"

	"github.com/spec-kit/library-console/internal/api/dto"
	"github.com/spec-kit/library-console/internal/client"
	"github.com/spec-kit/library-console/internal/domain"
	apperrors "github.com/spec-kit/library-console/pkg/util/errorutil"
)

// LoanService issues, returns and renews loans.
type LoanService struct {
	api    API
	mapper dto.Mapper
}

// LoanFilters define loan listing parameters.
type LoanFilters struct {
	ListFilters
	Status domain.LoanStatus
	Reader string
}

// NewLoanService constructs the service.
func NewLoanService(deps Dependencies) *LoanService {
	return &LoanService{api: deps.API, mapper: deps.Mapper}
}

// List returns one page of loans.
func (s *LoanService) List(ctx context.Context, f LoanFilters) (domain.Page[domain.Loan], error) {
	p := f.params()
	p["status"] = string(f.Status)
	p["reader"] = f.Reader
	return s.page(ctx, "/loans", p)
}

// Overdue returns one page of overdue loans.
func (s *LoanService) Overdue(ctx context.Context, f ListFilters) (domain.Page[domain.Loan], error) {
	return s.page(ctx, "/loans/overdue", f.params())
}

func (s *LoanService) page(ctx context.Context, path string, p client.Params) (domain.Page[domain.Loan], error) {
	raw, err := s.api.GetRaw(ctx, path, p)
	if err != nil {
		return domain.Page[domain.Loan]{}, err
	}
	return dto.DecodePage(raw, s.mapper.Loan)
}

// Get fetches one loan.
func (s *LoanService) Get(ctx context.Context, id string) (domain.Loan, error) {
	var raw dto.Loan
	if err := s.api.Get(ctx, resource("loans", id), nil, &raw); err != nil {
		return domain.Loan{}, err
	}
	return s.mapper.Loan(raw), nil
}

// Preview quotes the rent for a prospective loan.
func (s *LoanService) Preview(ctx context.Context, req domain.IssuePreviewRequest) (domain.IssuePreview, error) {
	if req.DueDate == "" && !domain.ValidLoanDays(req.Days) {
		return domain.IssuePreview{}, loanDaysError(req.Days)
	}
	var raw dto.IssuePreview
	if err := s.api.Post(ctx, "/loans/issue/preview", req, &raw); err != nil {
		return domain.IssuePreview{}, err
	}
	return s.mapper.IssuePreview(raw), nil
}

// Issue lends a book to a reader.
func (s *LoanService) Issue(ctx context.Context, req domain.IssueRequest) (domain.IssueResult, error) {
	if !domain.ValidLoanDays(req.Days) {
		return domain.IssueResult{}, loanDaysError(req.Days)
	}
	var raw dto.IssueResult
	if err := s.api.Post(ctx, "/loans/issue", req, &raw); err != nil {
		return domain.IssueResult{}, err
	}
	return s.mapper.IssueResult(raw), nil
}

// PreviewReturn quotes the overdue penalty for returning a loan today.
func (s *LoanService) PreviewReturn(ctx context.Context, id string) (domain.ReturnPreview, error) {
	var raw dto.ReturnPreview
	if err := s.api.Get(ctx, resource("loans", "preview-return", id), nil, &raw); err != nil {
		return domain.ReturnPreview{}, err
	}
	return s.mapper.ReturnPreview(raw), nil
}

// Return closes a loan.
func (s *LoanService) Return(ctx context.Context, id string, req domain.ReturnRequest) (domain.ReturnResult, error) {
	var raw dto.ReturnResult
	if err := s.api.Post(ctx, resource("loans", "return", id), req, &raw); err != nil {
		return domain.ReturnResult{}, err
	}
	return s.mapper.ReturnResult(raw), nil
}

// Renew extends a loan by extraDays.
func (s *LoanService) Renew(ctx context.Context, id string, extraDays int) (domain.Loan, error) {
	if extraDays < 1 {
		return domain.Loan{}, apperrors.NewValidationError("extra days must be positive", map[string]any{"extraDays": extraDays})
	}
	var raw dto.Loan
	body := map[string]int{"extraDays": extraDays}
	if err := s.api.Post(ctx, resource("loans", "renew", id), body, &raw); err != nil {
		return domain.Loan{}, err
	}
	return s.mapper.Loan(raw), nil
}

// DamageLevels lists the damage grades and their fees.
func (s *LoanService) DamageLevels(ctx context.Context) ([]domain.DamageLevel, error) {
	var raw []dto.DamageLevel
	if err := s.api.Get(ctx, "/loans/damage-levels", nil, &raw); err != nil {
		return nil, err
	}
	out := make([]domain.DamageLevel, 0, len(raw))
	for _, l := range raw {
		out = append(out, s.mapper.DamageLevel(l))
	}
	return out, nil
}

func loanDaysError(days int) error {
	return apperrors.NewValidationError("loan days out of range", map[string]any{
		"days": days,
		"min":  domain.LoanMinDays,
		"max":  domain.LoanMaxDays,
	})
}
