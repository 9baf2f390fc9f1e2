package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/library-console/internal/api/http/handlers"
	"github.com/spec-kit/library-console/internal/auth"
	"github.com/spec-kit/library-console/internal/client"
	"github.com/spec-kit/library-console/internal/domain"
	"github.com/spec-kit/library-console/internal/nav"
	"github.com/spec-kit/library-console/internal/notify"
	"github.com/spec-kit/library-console/internal/observability"
	"github.com/spec-kit/library-console/internal/persistence"
	"github.com/spec-kit/library-console/internal/preferences"
	"github.com/spec-kit/library-console/internal/service"
	"github.com/spec-kit/library-console/internal/views"
)

const (
	readerID      = "64b7f0c2a1b2c3d4e5f60718"
	bookID        = "64b7f0c2a1b2c3d4e5f60719"
	loanID        = "64b7f0c2a1b2c3d4e5f6071a"
	reservationID = "64b7f0c2a1b2c3d4e5f6071b"
)

type identityBox struct {
	mu    sync.Mutex
	ident *auth.Identity
}

func (b *identityBox) Current() *auth.Identity {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ident
}

func (b *identityBox) set(ident *auth.Identity) {
	b.mu.Lock()
	b.ident = ident
	b.mu.Unlock()
}

type fakeSession struct {
	box      *identityBox
	loginErr error
}

func (s *fakeSession) Login(_ context.Context, req domain.LoginRequest) (*auth.Identity, error) {
	if s.loginErr != nil {
		return nil, s.loginErr
	}
	ident := &auth.Identity{ID: readerID, Username: req.Username, Role: auth.RoleReader}
	s.box.set(ident)
	return ident, nil
}

func (s *fakeSession) Register(ctx context.Context, req domain.RegisterRequest) (*auth.Identity, error) {
	return s.Login(ctx, domain.LoginRequest{Username: req.Username, Password: req.Password})
}

func (s *fakeSession) Logout(context.Context) error {
	s.box.set(nil)
	return nil
}

type fakeBooks struct {
	mu      sync.Mutex
	listFn  func(ctx context.Context) error
	items   []domain.Book
	total   *int
	listed  []service.BookFilters
	created []domain.BookInput
}

func (f *fakeBooks) List(ctx context.Context, bf service.BookFilters) (domain.Page[domain.Book], error) {
	f.mu.Lock()
	f.listed = append(f.listed, bf)
	f.mu.Unlock()
	if f.listFn != nil {
		if err := f.listFn(ctx); err != nil {
			return domain.Page[domain.Book]{}, err
		}
	}
	if f.items != nil {
		return domain.Page[domain.Book]{Items: f.items, Total: f.total}, nil
	}
	return domain.Page[domain.Book]{Items: []domain.Book{{ID: bookID, Title: "The Master and Margarita", RentPrice: 12, Deposit: 200, Available: true}}}, nil
}

func (f *fakeBooks) Get(context.Context, string) (domain.Book, error) {
	return domain.Book{ID: bookID, Title: "Kobzar"}, nil
}

func (f *fakeBooks) Create(_ context.Context, in domain.BookInput) (domain.Book, error) {
	f.created = append(f.created, in)
	return domain.Book{ID: bookID, Title: in.Title}, nil
}

func (f *fakeBooks) Update(_ context.Context, id string, in domain.BookInput) (domain.Book, error) {
	return domain.Book{ID: id, Title: in.Title}, nil
}

func (f *fakeBooks) Delete(context.Context, string) error             { return nil }
func (f *fakeBooks) ReleaseReservation(context.Context, string) error { return nil }

type fakeReservations struct {
	autoCancelled []string
}

func (f *fakeReservations) Create(_ context.Context, req domain.CreateReservation) (domain.Reservation, error) {
	return domain.Reservation{ID: reservationID, DesiredDays: req.DesiredDays}, nil
}

func (f *fakeReservations) AutoCancel(_ context.Context, id string) error {
	f.autoCancelled = append(f.autoCancelled, id)
	return nil
}

func (f *fakeReservations) List(context.Context, service.ReservationFilters) (domain.Page[domain.Reservation], error) {
	return domain.Page[domain.Reservation]{}, nil
}

func (f *fakeReservations) Mine(context.Context, service.ReservationFilters) (domain.Page[domain.Reservation], error) {
	return domain.Page[domain.Reservation]{}, nil
}

func (f *fakeReservations) Cancel(context.Context, string, string) (domain.CancelResult, error) {
	return domain.CancelResult{Message: "Cancelled"}, nil
}

type fakeLoans struct {
	issueErr error
	previews []domain.IssuePreviewRequest
}

func (f *fakeLoans) List(context.Context, service.LoanFilters) (domain.Page[domain.Loan], error) {
	return domain.Page[domain.Loan]{}, nil
}

func (f *fakeLoans) Overdue(context.Context, service.ListFilters) (domain.Page[domain.Loan], error) {
	return domain.Page[domain.Loan]{}, nil
}

func (f *fakeLoans) Get(context.Context, string) (domain.Loan, error) {
	due := time.Now().Add(-48 * time.Hour)
	return domain.Loan{ID: loanID, Deposit: 50, ExpectedReturnDate: &due, Status: domain.LoanIssued}, nil
}

func (f *fakeLoans) Preview(_ context.Context, req domain.IssuePreviewRequest) (domain.IssuePreview, error) {
	f.previews = append(f.previews, req)
	days := req.Days
	if days == 0 {
		days = 12
	}
	return domain.IssuePreview{Days: days, TotalRent: 90, DiscountPercent: 10, PayableNow: 290}, nil
}

func (f *fakeLoans) Issue(context.Context, domain.IssueRequest) (domain.IssueResult, error) {
	if f.issueErr != nil {
		return domain.IssueResult{}, f.issueErr
	}
	return domain.IssueResult{PayableNow: 150}, nil
}

func (f *fakeLoans) PreviewReturn(context.Context, string) (domain.ReturnPreview, error) {
	return domain.ReturnPreview{Penalty: 20, PenaltyPerDay: 10}, nil
}

func (f *fakeLoans) Return(context.Context, string, domain.ReturnRequest) (domain.ReturnResult, error) {
	return domain.ReturnResult{}, nil
}

func (f *fakeLoans) Renew(context.Context, string, int) (domain.Loan, error) {
	return domain.Loan{ID: loanID}, nil
}

func (f *fakeLoans) DamageLevels(context.Context) ([]domain.DamageLevel, error) {
	return []domain.DamageLevel{{Value: "minor", Label: "Minor", Fee: 100}}, nil
}

type fakeUsers struct {
	mu         sync.Mutex
	listedRole domain.Role
	listed     []service.UserFilters
	taken      bool
}

func (f *fakeUsers) List(_ context.Context, uf service.UserFilters) (domain.Page[domain.User], error) {
	f.mu.Lock()
	f.listedRole = uf.Role
	f.listed = append(f.listed, uf)
	f.mu.Unlock()
	return domain.Page[domain.User]{Items: []domain.User{{ID: readerID, Username: "reader1", Role: domain.RoleReader}}}, nil
}

func (f *fakeUsers) Get(_ context.Context, id string) (domain.User, error) {
	return domain.User{ID: id, Username: "reader1", Role: domain.RoleReader}, nil
}

func (f *fakeUsers) Update(_ context.Context, id string, _ domain.UserProfileUpdate) (domain.User, error) {
	return domain.User{ID: id}, nil
}

func (f *fakeUsers) SetRole(_ context.Context, id string, role domain.Role) (domain.User, error) {
	return domain.User{ID: id, Role: role}, nil
}

func (f *fakeUsers) SetDiscount(_ context.Context, id string, c domain.DiscountCategory) (domain.User, error) {
	return domain.User{ID: id, DiscountCategory: c}, nil
}

func (f *fakeUsers) ChangeMyPassword(context.Context, string, string) (string, error) {
	return "", nil
}

func (f *fakeUsers) AdminChangePassword(context.Context, string, string) (string, error) {
	return "Password updated", nil
}

func (f *fakeUsers) Profile(context.Context) (domain.User, error) {
	return domain.User{ID: readerID, Username: "reader1"}, nil
}

func (f *fakeUsers) CheckUsername(context.Context, string) bool { return f.taken }

type fixture struct {
	app          *fiber.App
	box          *identityBox
	flash        *notify.Flash
	theme        *preferences.ThemeStore
	books        *fakeBooks
	loans        *fakeLoans
	users        *fakeUsers
	reservations *fakeReservations
	session      *fakeSession
}

func newFixture(t *testing.T, ident *auth.Identity) *fixture {
	t.Helper()
	box := &identityBox{ident: ident}
	policy := auth.NewPolicy(box)
	logger := zap.NewNop()
	metrics := observability.NewMetrics()

	f := &fixture{
		box:          box,
		flash:        notify.NewFlash(0),
		theme:        preferences.NewThemeStore(context.Background(), persistence.NewMemoryStore(), logger),
		books:        &fakeBooks{},
		loans:        &fakeLoans{},
		users:        &fakeUsers{},
		reservations: &fakeReservations{},
	}
	f.session = &fakeSession{box: box}

	base := handlers.NewBase(box, f.theme, f.flash, client.NewBusyTracker(), logger)
	app := fiber.New(fiber.Config{Views: views.New(policy)})
	RegisterMiddlewares(app, MiddlewareConfig{Logger: logger, Metrics: metrics, RenderError: base.RenderError})
	RegisterRoutes(app, RouteConfig{
		Guard:        auth.NewGuard(policy, logger),
		Health:       handlers.NewHealthHandler("library-console", "test", persistence.NewMemoryStore(), client.NewBusyTracker(), box, metrics),
		Auth:         handlers.NewAuthHandler(base, f.session, f.users),
		Books:        handlers.NewBooksHandler(base, f.books, f.reservations),
		Users:        handlers.NewUsersHandler(base, f.users, f.users),
		Loans:        handlers.NewLoansHandler(base, f.loans, f.reservations, f.users, f.books),
		Reservations: handlers.NewReservationsHandler(base, f.reservations),
		Theme:        handlers.NewThemeHandler(base),
	})
	f.app = app
	return f
}

func (f *fixture) do(t *testing.T, method, target string, form url.Values) (int, string, string) {
	t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	}
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, resp.Header.Get(fiber.HeaderLocation), string(raw)
}

// html escapes s the way the view engine does for attribute values.
func html(s string) string {
	return strings.ReplaceAll(s, "&", "&amp;")
}

func staff() *auth.Identity {
	return &auth.Identity{ID: "64b7f0c2a1b2c3d4e5f60700", Username: "admin", Role: auth.RoleAdmin}
}

func librarian() *auth.Identity {
	return &auth.Identity{ID: "64b7f0c2a1b2c3d4e5f60701", Username: "lib", Role: auth.RoleLibrarian}
}

func reader() *auth.Identity {
	return &auth.Identity{ID: readerID, Username: "reader1", Role: auth.RoleReader}
}

func TestGuardedRoutesRedirect(t *testing.T) {
	anon := newFixture(t, nil)
	status, loc, _ := anon.do(t, fiber.MethodGet, "/books", nil)
	assert.Equal(t, fiber.StatusFound, status)
	assert.Equal(t, auth.LoginPath, loc)

	r := newFixture(t, reader())
	status, loc, _ = r.do(t, fiber.MethodGet, "/users", nil)
	assert.Equal(t, fiber.StatusFound, status)
	assert.Equal(t, auth.ForbiddenPath, loc)

	status, loc, _ = r.do(t, fiber.MethodGet, "/login", nil)
	assert.Equal(t, fiber.StatusFound, status)
	assert.Equal(t, auth.HomePath, loc)

	status, loc, _ = anon.do(t, fiber.MethodGet, "/", nil)
	assert.Equal(t, fiber.StatusFound, status)
	assert.Equal(t, auth.LoginPath, loc)
}

func TestBooksPageRendersCatalog(t *testing.T) {
	f := newFixture(t, staff())
	status, _, body := f.do(t, fiber.MethodGet, "/books?q=master", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, body, "The Master and Margarita")
	assert.Contains(t, body, "12₴")
	assert.Contains(t, body, "/books/edit/"+bookID)
}

func TestLoginFlow(t *testing.T) {
	f := newFixture(t, nil)

	status, _, body := f.do(t, fiber.MethodPost, "/login", url.Values{"username": {"reader1"}})
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	assert.Contains(t, body, "cannot be blank")
	assert.Nil(t, f.box.Current())

	status, loc, _ := f.do(t, fiber.MethodPost, "/login", url.Values{"username": {"reader1"}, "password": {"secret1"}})
	assert.Equal(t, fiber.StatusSeeOther, status)
	assert.Equal(t, auth.HomePath, loc)
	require.NotNil(t, f.box.Current())

	status, loc, _ = f.do(t, fiber.MethodPost, "/logout", nil)
	assert.Equal(t, fiber.StatusSeeOther, status)
	assert.Equal(t, auth.LoginPath, loc)
	assert.Nil(t, f.box.Current())
}

func TestLoginShowsRemoteFailureInline(t *testing.T) {
	f := newFixture(t, nil)
	f.session.loginErr = &client.APIError{Status: 401, Code: "INVALID_CREDENTIALS", Message: "Invalid credentials"}

	status, _, body := f.do(t, fiber.MethodPost, "/login", url.Values{"username": {"reader1"}, "password": {"wrong"}})
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	assert.Contains(t, body, "Invalid username or password")
}

func TestRegisterRejectsTakenUsername(t *testing.T) {
	f := newFixture(t, nil)
	f.users.taken = true

	status, _, body := f.do(t, fiber.MethodPost, "/register", url.Values{"username": {"reader1"}, "password": {"secret1"}})
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	assert.Contains(t, body, "already taken")
	assert.Nil(t, f.box.Current())
}

func TestIssuePagePrefillsAndClampsDays(t *testing.T) {
	f := newFixture(t, librarian())
	status, _, body := f.do(t, fiber.MethodGet, "/loans/issue?userId="+readerID+"&bookId="+bookID+"&days=90", nil)
	require.Equal(t, fiber.StatusOK, status)
	require.Len(t, f.loans.previews, 1)
	assert.Equal(t, 60, f.loans.previews[0].Days)
	assert.Equal(t, domain.DueDateFromDays(time.Now(), 60), f.loans.previews[0].DueDate)
	assert.Contains(t, body, "Payable now: 290₴")
	assert.Contains(t, body, "Base rent: 100₴")
	assert.Contains(t, body, `name="days" value="60"`)
}

func TestIssuePagePreviewsByDueDate(t *testing.T) {
	f := newFixture(t, librarian())
	due := time.Now().AddDate(0, 0, 12).Format(domain.DateLayout)
	status, _, body := f.do(t, fiber.MethodGet, "/loans/issue?mode=date&userId="+readerID+"&bookId="+bookID+"&dueDate="+due, nil)
	require.Equal(t, fiber.StatusOK, status)

	require.Len(t, f.loans.previews, 1)
	assert.Equal(t, domain.IssuePreviewRequest{UserID: readerID, BookID: bookID, DueDate: due}, f.loans.previews[0])
	assert.Contains(t, body, `name="dueDate"`)
	assert.Contains(t, body, `name="days" value="12"`)
}

func TestIssuePageRejectsPastDueDate(t *testing.T) {
	f := newFixture(t, librarian())
	past := time.Now().AddDate(0, 0, -1).Format(domain.DateLayout)
	status, _, body := f.do(t, fiber.MethodGet, "/loans/issue?mode=date&userId="+readerID+"&bookId="+bookID+"&dueDate="+past, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Empty(t, f.loans.previews)
	assert.Contains(t, body, "within 1-60 days")
}

func TestIssuePagePicksReader(t *testing.T) {
	f := newFixture(t, librarian())
	status, _, body := f.do(t, fiber.MethodGet, "/loans/issue?bookId="+bookID+"&readersQ=petr&readersPage=2", nil)
	require.Equal(t, fiber.StatusOK, status)

	require.Len(t, f.users.listed, 1)
	listed := f.users.listed[0]
	assert.Equal(t, domain.RoleReader, listed.Role)
	assert.Equal(t, "petr", listed.Query)
	assert.Equal(t, 2, listed.Page)

	// Picking a reader resets the book so it is chosen for that reader.
	pick := url.Values{"userId": {readerID}, "days": {"7"}, "readersQ": {"petr"}, "readersPage": {"2"}}
	assert.Contains(t, body, `href="/loans/issue?`+html(pick.Encode())+`"`)
	assert.Empty(t, f.loans.previews)
}

func TestIssuePagePicksAvailableBook(t *testing.T) {
	f := newFixture(t, librarian())
	none := 0
	total := 40
	f.books.items = []domain.Book{
		{ID: bookID, Title: "Kobzar", Author: "Shevchenko", RentPrice: 10, Available: true},
		{ID: loanID, Title: "Sold Out Atlas", Available: true, AvailableCount: &none},
	}
	f.books.total = &total

	status, _, body := f.do(t, fiber.MethodGet, "/loans/issue?userId="+readerID+"&booksQ=kob", nil)
	require.Equal(t, fiber.StatusOK, status)

	require.Len(t, f.books.listed, 1)
	listed := f.books.listed[0]
	require.NotNil(t, listed.Available)
	assert.True(t, *listed.Available)
	assert.Equal(t, "kob", listed.Query)

	assert.Contains(t, body, "Kobzar")
	assert.NotContains(t, body, "Sold Out Atlas")
	pick := url.Values{"userId": {readerID}, "bookId": {bookID}, "days": {"7"}, "booksQ": {"kob"}}
	assert.Contains(t, body, `href="/loans/issue?`+html(pick.Encode())+`"`)
	next := url.Values{"userId": {readerID}, "days": {"7"}, "booksQ": {"kob"}, "booksPage": {"2"}}
	assert.Contains(t, body, `href="/loans/issue?`+html(next.Encode())+`"`)
}

func TestIssueConflictCancelsReservation(t *testing.T) {
	f := newFixture(t, librarian())
	f.loans.issueErr = &client.APIError{Status: 409, Code: "BOOK_UNAVAILABLE", Message: "Book already issued"}

	form := url.Values{"userId": {readerID}, "bookId": {bookID}, "days": {"7"}, "reservationId": {reservationID}}
	status, loc, _ := f.do(t, fiber.MethodPost, "/loans/issue", form)
	assert.Equal(t, fiber.StatusSeeOther, status)
	assert.Contains(t, loc, "/loans/issue?")
	assert.Equal(t, []string{reservationID}, f.reservations.autoCancelled)

	msgs := f.flash.Drain()
	require.Len(t, msgs, 1)
	assert.Equal(t, "Reservation cancelled: book unavailable", msgs[0].Text)
}

func TestIssueSuccessFlashesPayable(t *testing.T) {
	f := newFixture(t, librarian())
	form := url.Values{"userId": {readerID}, "bookId": {bookID}, "days": {"7"}}
	status, loc, _ := f.do(t, fiber.MethodPost, "/loans/issue", form)
	assert.Equal(t, fiber.StatusSeeOther, status)
	assert.Equal(t, "/loans", loc)
	assert.Empty(t, f.reservations.autoCancelled)

	msgs := f.flash.Drain()
	require.Len(t, msgs, 1)
	assert.Equal(t, "Issued. Payable now: 150₴", msgs[0].Text)
}

func TestIssueValidationIsLocal(t *testing.T) {
	f := newFixture(t, librarian())
	form := url.Values{"userId": {"bad"}, "bookId": {bookID}, "days": {"7"}}
	status, _, _ := f.do(t, fiber.MethodPost, "/loans/issue", form)
	assert.Equal(t, fiber.StatusSeeOther, status)

	msgs := f.flash.Drain()
	require.Len(t, msgs, 1)
	assert.Equal(t, notify.LevelError, msgs[0].Level)
}

func TestReturnPageTotals(t *testing.T) {
	f := newFixture(t, staff())
	status, _, body := f.do(t, fiber.MethodGet, "/loans/return?loanId="+loanID+"&damageLevel=minor", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, body, "Total to pay: 70₴")
	assert.Contains(t, body, "Penalty now: 20₴")
	assert.Contains(t, body, "Damage fee: 100₴ · Without overdue: 50₴")
}

func TestLibrarianSeesReadersOnly(t *testing.T) {
	f := newFixture(t, librarian())
	status, _, body := f.do(t, fiber.MethodGet, "/users?role=admin", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, domain.RoleReader, f.users.listedRole)
	assert.Contains(t, body, "reader1")

	admin := newFixture(t, staff())
	_, _, _ = admin.do(t, fiber.MethodGet, "/users?role=admin", nil)
	assert.Equal(t, domain.RoleAdmin, admin.users.listedRole)
}

func TestRequestedNavigationWins(t *testing.T) {
	f := newFixture(t, staff())
	f.books.listFn = func(ctx context.Context) error {
		nav.Navigate(ctx, "/login")
		return &client.APIError{Status: 401, Code: "TOKEN_EXPIRED"}
	}

	status, loc, _ := f.do(t, fiber.MethodGet, "/books", nil)
	assert.Equal(t, fiber.StatusSeeOther, status)
	assert.Equal(t, "/login", loc)
}

func TestRemoteFailureRendersErrorPage(t *testing.T) {
	f := newFixture(t, staff())
	f.books.listFn = func(context.Context) error {
		return &client.APIError{Status: 404, Code: "BOOK_NOT_FOUND"}
	}

	status, _, body := f.do(t, fiber.MethodGet, "/books", nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Contains(t, body, "Book not found")

	status, _, _ = f.do(t, fiber.MethodGet, "/nowhere", nil)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestThemeToggle(t *testing.T) {
	f := newFixture(t, nil)
	req := httptest.NewRequest(fiber.MethodPost, "/theme", nil)
	req.Header.Set(fiber.HeaderReferer, "http://evil.example/login?x=1")
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login?x=1", resp.Header.Get(fiber.HeaderLocation))
	assert.Equal(t, preferences.ThemeDark, f.theme.Current())

	_, _, body := f.do(t, fiber.MethodGet, "/login", nil)
	assert.Contains(t, body, `data-theme="dark"`)
}

func TestStatusReportsIdentity(t *testing.T) {
	f := newFixture(t, reader())
	status, _, body := f.do(t, fiber.MethodGet, "/status", nil)
	require.Equal(t, fiber.StatusOK, status)

	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &out))
	assert.Equal(t, false, out["busy"])
	ident, ok := out["identity"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "reader1", ident["username"])
	assert.Equal(t, "reader", ident["role"])
}

func TestReserveRequiresDays(t *testing.T) {
	f := newFixture(t, reader())
	status, loc, _ := f.do(t, fiber.MethodPost, "/books/"+bookID+"/reserve", url.Values{"desiredDays": {"0"}})
	assert.Equal(t, fiber.StatusSeeOther, status)
	assert.Equal(t, "/books", loc)

	status, loc, _ = f.do(t, fiber.MethodPost, "/books/"+bookID+"/reserve", url.Values{"desiredDays": {"5"}})
	assert.Equal(t, fiber.StatusSeeOther, status)
	assert.Equal(t, "/reservations/mine", loc)
}
