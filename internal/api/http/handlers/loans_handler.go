package handlers

import (
	"context"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/library-console/internal/client"
	"github.com/spec-kit/library-console/internal/domain"
	"github.com/spec-kit/library-console/internal/service"
	"github.com/spec-kit/library-console/internal/views"
)

// quickDays are the durations offered as one-click links on the issue page.
var quickDays = []int{3, 5, 7, 10, 14, 21, 30, 45, 60}

// LoanDesk is the loan API used by the circulation pages.
type LoanDesk interface {
	List(ctx context.Context, f service.LoanFilters) (domain.Page[domain.Loan], error)
	Overdue(ctx context.Context, f service.ListFilters) (domain.Page[domain.Loan], error)
	Get(ctx context.Context, id string) (domain.Loan, error)
	Preview(ctx context.Context, req domain.IssuePreviewRequest) (domain.IssuePreview, error)
	Issue(ctx context.Context, req domain.IssueRequest) (domain.IssueResult, error)
	PreviewReturn(ctx context.Context, id string) (domain.ReturnPreview, error)
	Return(ctx context.Context, id string, req domain.ReturnRequest) (domain.ReturnResult, error)
	Renew(ctx context.Context, id string, extraDays int) (domain.Loan, error)
	DamageLevels(ctx context.Context) ([]domain.DamageLevel, error)
}

// ReservationCanceller drops a reservation that can no longer be issued.
type ReservationCanceller interface {
	AutoCancel(ctx context.Context, id string) error
}

// ReaderLister pages through accounts for the issue page's reader picker.
type ReaderLister interface {
	List(ctx context.Context, f service.UserFilters) (domain.Page[domain.User], error)
}

// BookLister pages through the catalog for the issue page's book picker.
type BookLister interface {
	List(ctx context.Context, f service.BookFilters) (domain.Page[domain.Book], error)
}

// LoansHandler serves the issue, return and loan listing pages.
type LoansHandler struct {
	*Base
	loans        LoanDesk
	reservations ReservationCanceller
	readers      ReaderLister
	books        BookLister
	now          func() time.Time
}

// NewLoansHandler constructs handler.
func NewLoansHandler(base *Base, loans LoanDesk, reservations ReservationCanceller, readers ReaderLister, books BookLister) *LoansHandler {
	return &LoansHandler{
		Base:         base,
		loans:        loans,
		reservations: reservations,
		readers:      readers,
		books:        books,
		now:          time.Now,
	}
}

// List handles GET /loans.
func (h *LoansHandler) List(c *fiber.Ctx) error {
	f := service.LoanFilters{
		ListFilters: listFilters(c),
		Status:      domain.LoanStatus(c.Query("status")),
		Reader:      c.Query("reader"),
	}
	overdue := queryBool(c, "overdue")

	var (
		page domain.Page[domain.Loan]
		err  error
	)
	if overdue {
		page, err = h.loans.Overdue(c.UserContext(), f.ListFilters)
	} else {
		page, err = h.loans.List(c.UserContext(), f)
	}
	if err != nil {
		return err
	}
	data := pageData(c, page.Pager(f.Page, f.Limit))
	data["Loans"] = page.Items
	data["Filters"] = f
	data["Overdue"] = overdue
	return h.Render(c, "loans", "Loans", data)
}

// Mine handles GET /loans/mine.
func (h *LoansHandler) Mine(c *fiber.Ctx) error {
	ident := h.identity.Current()
	f := service.LoanFilters{ListFilters: listFilters(c)}
	if ident != nil {
		f.Reader = ident.ID
	}
	page, err := h.loans.List(c.UserContext(), f)
	if err != nil {
		return err
	}
	data := pageData(c, page.Pager(f.Page, f.Limit))
	data["Loans"] = page.Items
	return h.Render(c, "loans_mine", "My loans", data)
}

// IssuePage handles GET /loans/issue. The form is prefilled from the query,
// readers and available books can be picked from paged lists and a preview
// is requested once reader, book and loan length are known.
func (h *LoansHandler) IssuePage(c *fiber.Ctx) error {
	var form IssuePayload
	if err := c.QueryParser(&form); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid query")
	}
	if form.ByDate() {
		form.Mode = IssueByDate
		form.Days = 0
	} else {
		form.Mode = IssueByDays
		form.DueDate = ""
		if form.Days != 0 {
			form.Days = domain.ClampLoanDays(form.Days)
		} else {
			form.Days = 7
		}
	}

	state := issueState{
		form:        form,
		readersQ:    strings.TrimSpace(c.Query("readersQ")),
		readersPage: max(1, c.QueryInt("readersPage", 1)),
		booksQ:      strings.TrimSpace(c.Query("booksQ")),
		booksPage:   max(1, c.QueryInt("booksPage", 1)),
	}
	ctx := c.UserContext()
	now := h.now()

	data := fiber.Map{
		"Form":      form,
		"ByDate":    form.ByDate(),
		"QuickDays": state.quickDays(),
		"DaysURL":   state.withMode(IssueByDays).url(),
		"DateURL":   state.withMode(IssueByDate).url(),
		"MinDue":    domain.DueDateFromDays(now, domain.LoanMinDays),
		"MaxDue":    domain.DueDateFromDays(now, domain.LoanMaxDays),
		"Keep":      state.hidden("userId", "bookId", "days", "mode", "dueDate"),
		"Readers":   h.readerPicker(ctx, state),
		"Books":     h.bookPicker(ctx, state),
	}
	if form.Complete() {
		if err := form.ValidatePreview(now); err != nil {
			data["Error"] = errorText(formError(err))
		} else {
			preview, err := h.loans.Preview(ctx, form.previewRequest(now))
			if err != nil {
				data["Error"] = errorText(err)
			} else {
				data["Preview"] = preview
			}
		}
	}
	return h.Render(c, "loan_issue", "Issue", data)
}

func (h *LoansHandler) readerPicker(ctx context.Context, s issueState) issuePicker {
	f := service.UserFilters{
		ListFilters: service.ListFilters{Query: s.readersQ, Page: s.readersPage, Limit: domain.DefaultPageLimit},
		Role:        domain.RoleReader,
	}
	picker := issuePicker{Query: s.readersQ, Keep: s.hidden("readersQ", "readersPage")}
	page, err := h.readers.List(ctx, f)
	if err != nil {
		h.logger.Warn("load readers for issue", zap.Error(err))
		picker.Error = errorText(err)
		return picker
	}
	for _, u := range page.Items {
		next := s
		next.form.UserID = u.ID
		if u.ID != s.form.UserID {
			next.form.BookID = ""
			next.form.DueDate = ""
		}
		picker.Items = append(picker.Items, issueChoice{
			ID:       u.ID,
			Label:    u.Username,
			Detail:   strings.TrimSpace(u.LastName + " " + u.FirstName),
			URL:      next.url(),
			Selected: u.ID == s.form.UserID,
		})
	}
	picker.page(page.Pager(f.Page, f.Limit), func(p int) string {
		next := s
		next.readersPage = p
		return next.url()
	})
	return picker
}

func (h *LoansHandler) bookPicker(ctx context.Context, s issueState) issuePicker {
	available := true
	f := service.BookFilters{
		ListFilters: service.ListFilters{Query: s.booksQ, Page: s.booksPage, Limit: domain.DefaultPageLimit},
		Available:   &available,
	}
	picker := issuePicker{Query: s.booksQ, Keep: s.hidden("booksQ", "booksPage")}
	page, err := h.books.List(ctx, f)
	if err != nil {
		h.logger.Warn("load books for issue", zap.Error(err))
		picker.Error = errorText(err)
		return picker
	}
	for _, b := range page.Items {
		if !b.HasCopies() {
			continue
		}
		next := s
		next.form.BookID = b.ID
		picker.Items = append(picker.Items, issueChoice{
			ID:       b.ID,
			Label:    b.Title,
			Detail:   b.Author + " · " + views.Money(b.RentPrice) + "/day",
			URL:      next.url(),
			Selected: b.ID == s.form.BookID,
		})
	}
	picker.page(page.Pager(f.Page, f.Limit), func(p int) string {
		next := s
		next.booksPage = p
		return next.url()
	})
	return picker
}

// Issue handles POST /loans/issue. When the book turns out to be unavailable
// the reservation that led here is cancelled.
func (h *LoansHandler) Issue(c *fiber.Ctx) error {
	var form IssuePayload
	if err := c.BodyParser(&form); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
	}
	back := issueURL(form)
	if err := form.Validate(); err != nil {
		return h.fail(c, formError(err), back)
	}

	result, err := h.loans.Issue(c.UserContext(), domain.IssueRequest{
		UserID: form.UserID,
		BookID: form.BookID,
		Days:   form.Days,
	})
	if err != nil {
		h.cancelStaleReservation(c, form, err)
		return h.fail(c, err, back)
	}
	return h.done(c, "Issued. Payable now: "+views.Money(result.PayableNow), "/loans")
}

func (h *LoansHandler) cancelStaleReservation(c *fiber.Ctx, form IssuePayload, issueErr error) {
	if form.ReservationID == "" {
		return
	}
	apiErr, ok := client.AsAPIError(issueErr)
	if !ok || !domain.IsIssueConflict(apiErr.Message+" "+apiErr.Friendly()) {
		return
	}
	if err := h.reservations.AutoCancel(c.UserContext(), form.ReservationID); err != nil {
		h.logger.Warn("auto-cancel reservation", zap.String("reservation_id", form.ReservationID), zap.Error(err))
		return
	}
	h.flash.Info("Reservation cancelled: book unavailable")
}

// ReturnPage handles GET /loans/return. With loanId it also shows the
// penalty and damage quote for that loan.
func (h *LoansHandler) ReturnPage(c *fiber.Ctx) error {
	f := service.LoanFilters{ListFilters: listFilters(c), Status: domain.LoanIssued}
	page, err := h.loans.List(c.UserContext(), f)
	if err != nil {
		return err
	}
	data := pageData(c, page.Pager(f.Page, f.Limit))
	data["Loans"] = page.Items

	loanID := c.Query("loanId")
	if loanID == "" {
		return h.Render(c, "loan_return", "Return", data)
	}
	if !domain.IsObjectID(loanID) {
		data["Error"] = "Invalid loan id"
		return h.Render(c, "loan_return", "Return", data)
	}

	ctx := c.UserContext()
	loan, err := h.loans.Get(ctx, loanID)
	if err != nil {
		data["Error"] = errorText(err)
		return h.Render(c, "loan_return", "Return", data)
	}
	preview, err := h.loans.PreviewReturn(ctx, loanID)
	if err != nil {
		data["Error"] = errorText(err)
	}
	levels, err := h.loans.DamageLevels(ctx)
	if err != nil {
		h.logger.Warn("load damage levels", zap.Error(err))
	}

	level := c.Query("damageLevel")
	fee := domain.DamageFee(levels, level)
	data["Loan"] = loan
	data["Preview"] = preview
	data["PenaltyNow"] = preview.PenaltyNow()
	data["DamageLevels"] = levels
	data["DamageLevel"] = level
	data["DamageFee"] = fee
	data["BaseWithoutOverdue"] = domain.BaseWithoutOverdue(fee, loan.Deposit)
	data["TotalToPay"] = domain.TotalToPay(fee, preview.PenaltyNow(), loan.Deposit)
	return h.Render(c, "loan_return", "Return", data)
}

// Return handles POST /loans/return/:id.
func (h *LoansHandler) Return(c *fiber.Ctx) error {
	id, err := idParam(c)
	if err != nil {
		return h.fail(c, err, "/loans/return")
	}
	var form ReturnPayload
	if err := c.BodyParser(&form); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
	}

	req := domain.ReturnRequest{}
	if form.DamageLevel != "" {
		levels, err := h.loans.DamageLevels(c.UserContext())
		if err != nil {
			return h.fail(c, err, "/loans/return?loanId="+id)
		}
		req.Damaged = true
		req.DamageLevel = form.DamageLevel
		req.DamageFee = domain.DamageFee(levels, form.DamageLevel)
	}

	result, err := h.loans.Return(c.UserContext(), id, req)
	if err != nil {
		return h.fail(c, err, "/loans/return?loanId="+id)
	}
	s := result.Settlement
	return h.done(c, "Returned. Extra to pay: "+views.Money(s.ExtraToPay)+", deposit returned: "+views.Money(s.DepositReturned), "/loans/return")
}

// Renew handles POST /loans/:id/renew.
func (h *LoansHandler) Renew(c *fiber.Ctx) error {
	id, err := idParam(c)
	if err != nil {
		return h.fail(c, err, "/loans")
	}
	var form RenewPayload
	if err := c.BodyParser(&form); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
	}
	if err := form.Validate(); err != nil {
		return h.fail(c, formError(err), "/loans")
	}
	loan, err := h.loans.Renew(c.UserContext(), id, form.ExtraDays)
	if err != nil {
		return h.fail(c, err, "/loans")
	}
	due := "-"
	if loan.ExpectedReturnDate != nil {
		due = loan.ExpectedReturnDate.Format(domain.DateLayout)
	}
	return h.done(c, "Loan renewed until "+due, "/loans")
}

func issueURL(f IssuePayload) string {
	return issueState{form: f}.url()
}

// issueState is everything the issue page keeps in its URL.
type issueState struct {
	form        IssuePayload
	readersQ    string
	readersPage int
	booksQ      string
	booksPage   int
}

func (s issueState) values() url.Values {
	q := url.Values{}
	set := func(key, val string) {
		if val != "" {
			q.Set(key, val)
		}
	}
	setPage := func(key string, page int) {
		if page > 1 {
			q.Set(key, strconv.Itoa(page))
		}
	}
	set("userId", s.form.UserID)
	set("bookId", s.form.BookID)
	if s.form.ByDate() {
		q.Set("mode", IssueByDate)
		set("dueDate", s.form.DueDate)
	} else if s.form.Days > 0 {
		q.Set("days", strconv.Itoa(s.form.Days))
	}
	set("reservationId", s.form.ReservationID)
	set("readersQ", s.readersQ)
	setPage("readersPage", s.readersPage)
	set("booksQ", s.booksQ)
	setPage("booksPage", s.booksPage)
	return q
}

func (s issueState) url() string {
	return "/loans/issue?" + s.values().Encode()
}

func (s issueState) withMode(mode string) issueState {
	s.form.Mode = mode
	if mode == IssueByDate {
		s.form.Days = 0
		return s
	}
	s.form.DueDate = ""
	if s.form.Days == 0 {
		s.form.Days = 7
	}
	return s
}

func (s issueState) quickDays() []issueChoice {
	out := make([]issueChoice, 0, len(quickDays))
	for _, d := range quickDays {
		next := s.withMode(IssueByDays)
		next.form.Days = d
		out = append(out, issueChoice{
			Label:    strconv.Itoa(d) + "d",
			URL:      next.url(),
			Selected: !s.form.ByDate() && s.form.Days == d,
		})
	}
	return out
}

// hidden returns the state as form fields, minus the keys a form sets itself.
func (s issueState) hidden(drop ...string) []hiddenField {
	q := s.values()
	for _, key := range drop {
		q.Del(key)
	}
	keys := make([]string, 0, len(q))
	for key := range q {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	out := make([]hiddenField, 0, len(keys))
	for _, key := range keys {
		out = append(out, hiddenField{Name: key, Value: q.Get(key)})
	}
	return out
}

type hiddenField struct {
	Name  string
	Value string
}

type issueChoice struct {
	ID       string
	Label    string
	Detail   string
	URL      string
	Selected bool
}

// issuePicker is one paged list on the issue page.
type issuePicker struct {
	Items   []issueChoice
	Query   string
	Keep    []hiddenField
	Page    int
	PrevURL string
	NextURL string
	Error   string
}

func (p *issuePicker) page(pager domain.Pager, link func(int) string) {
	p.Page = pager.Page
	if pager.CanPrev {
		p.PrevURL = link(pager.Page - 1)
	}
	if pager.CanNext {
		p.NextURL = link(pager.Page + 1)
	}
}
