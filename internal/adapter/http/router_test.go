package http

import (
	"bytes"
	"context"
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"loanlink-backend/internal/adapter/middleware"
	"loanlink-backend/internal/adapter/repository/gormrepo"
	"loanlink-backend/internal/domain/payment"
	"loanlink-backend/internal/domain/user"
	"loanlink-backend/internal/infrastructure/db"
	"loanlink-backend/internal/infrastructure/metrics"
	"loanlink-backend/internal/testutil/identitymock"
	"loanlink-backend/internal/testutil/paymentmock"
	appuc "loanlink-backend/internal/usecase/application"
	loanuc "loanlink-backend/internal/usecase/loan"
	payuc "loanlink-backend/internal/usecase/payment"
	useruc "loanlink-backend/internal/usecase/user"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm/logger"
)

// -------- helpers --------

type testServer struct {
	e        *echo.Echo
	payments *paymentmock.Provider
}

// newTestServer wires the real router over in-memory sqlite and miniredis.
// Bearer tokens are the caller's email.
func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gdb, err := db.OpenGormWithDialector(sqlite.Open(":memory:"), logger.Silent)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, _ := gdb.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	repos := gormrepo.Repos(gdb)
	for _, u := range []user.User{
		{ID: "u-admin", Email: "admin@x.com", Role: user.RoleAdmin},
		{ID: "u-m1", Email: "m1@x.com", Role: user.RoleManager},
		{ID: "u-m2", Email: "m2@x.com", Role: user.RoleManager},
		{ID: "u-a", Email: "a@x.com", Role: user.RoleUser},
	} {
		u := u
		if err := repos.Users.Create(context.Background(), &u); err != nil {
			t.Fatalf("seed user: %v", err)
		}
	}

	tx := gormrepo.NewGormUoW(gdb)
	m := metrics.New()
	pay := &paymentmock.Provider{}

	s := &testServer{payments: pay}
	s.e = NewRouter(RouterConfig{
		Metrics:        m,
		Verifier:       &identitymock.Verifier{},
		Users:          repos.Users,
		Redis:          rdb,
		IdempotencyTTL: time.Minute,

		Health: NewHandler(map[string]Check{
			"redis": func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		}),
		UserH:        NewUserHandler(useruc.NewUsecase(repos.Users, tx, nil, "")),
		LoanH:        NewLoanHandler(loanuc.NewUsecase(repos.Loans, tx, nil, m, 6)),
		ApplicationH: NewApplicationHandler(appuc.NewUsecase(repos.Applications, repos.Loans, repos.Users, tx, pay, 1000, "usd", nil, m, time.Second)),
		PaymentH:     NewPaymentHandler(payuc.NewUsecase(repos.Applications, pay, nil, 1000, "usd", time.Second)),
	})
	return s
}

func (s *testServer) do(t *testing.T, method, path, token string, body any, hdr ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("bad json: %v; raw=%s", err, rec.Body.String())
	}
	return v
}

func expectCode(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d; body=%s", rec.Code, want, rec.Body.String())
	}
}

type loanView struct {
	ID         string `json:"id"`
	LoanID     string `json:"loanId"`
	Title      string `json:"title"`
	Status     string `json:"status"`
	ShowOnHome bool   `json:"showOnHome"`
	CreatedBy  string `json:"createdBy"`
}

type appView struct {
	ID            string `json:"id"`
	ApplicationID string `json:"applicationId"`
	Status        string `json:"status"`
	FeeStatus     string `json:"applicationFeeStatus"`
	Payment       struct {
		TransactionID string `json:"transactionId"`
	} `json:"payment"`
}

func (s *testServer) createLoan(t *testing.T, manager, title string) loanView {
	t.Helper()
	rec := s.do(t, stdhttp.MethodPost, "/loans", manager, map[string]any{
		"title":    title,
		"category": "personal",
		"interest": 5.5,
		"maxLimit": 10000,
		"emiPlans": []string{"6m", "12m"},
	})
	expectCode(t, rec, stdhttp.StatusCreated)
	return decode[loanView](t, rec)
}

// -------- tests --------

func TestRouter_Gates(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"health is open", stdhttp.MethodGet, "/health", "", stdhttp.StatusOK},
		{"public loans are open", stdhttp.MethodGet, "/public/loans", "", stdhttp.StatusOK},
		{"role lookup is open", stdhttp.MethodGet, "/users/m1@x.com/role", "", stdhttp.StatusOK},
		{"role lookup unknown", stdhttp.MethodGet, "/users/nobody@x.com/role", "", stdhttp.StatusNotFound},
		{"loans need auth", stdhttp.MethodGet, "/loans", "", stdhttp.StatusUnauthorized},
		{"loans with auth", stdhttp.MethodGet, "/loans", "a@x.com", stdhttp.StatusOK},
		{"create loan needs manager", stdhttp.MethodPost, "/loans", "a@x.com", stdhttp.StatusForbidden},
		{"admin is not a manager", stdhttp.MethodGet, "/loans/my-loans", "admin@x.com", stdhttp.StatusForbidden},
		{"user list needs admin", stdhttp.MethodGet, "/users", "m1@x.com", stdhttp.StatusForbidden},
		{"user list as admin", stdhttp.MethodGet, "/users", "admin@x.com", stdhttp.StatusOK},
		{"application list needs staff", stdhttp.MethodGet, "/loan-applications", "a@x.com", stdhttp.StatusForbidden},
		{"application list as admin", stdhttp.MethodGet, "/loan-applications", "admin@x.com", stdhttp.StatusOK},
		{"bad status filter", stdhttp.MethodGet, "/loan-applications?status=done", "m1@x.com", stdhttp.StatusBadRequest},
		{"unknown route", stdhttp.MethodGet, "/nope", "", stdhttp.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectCode(t, s.do(t, tt.method, tt.path, tt.token, nil), tt.want)
		})
	}
}

func TestRouter_RoleLookup(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, stdhttp.MethodGet, "/users/m1@x.com/role", "", nil)
	expectCode(t, rec, stdhttp.StatusOK)
	got := decode[useruc.RoleView](t, rec)
	if got.Role != "manager" || got.Email != "m1@x.com" {
		t.Fatalf("unexpected role view: %+v", got)
	}
}

func TestRouter_UserUpsertIsIdempotent(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, stdhttp.MethodPost, "/users", "new@x.com", map[string]any{"displayName": "New", "role": "manager"})
	expectCode(t, rec, stdhttp.StatusCreated)
	if got := decode[user.User](t, rec); got.Role != user.RoleManager {
		t.Fatalf("role = %q, want manager", got.Role)
	}

	rec = s.do(t, stdhttp.MethodPost, "/users", "new@x.com", map[string]any{"role": "user"})
	expectCode(t, rec, stdhttp.StatusOK)
	if got := decode[user.User](t, rec); got.Role != user.RoleManager {
		t.Fatalf("second upsert changed role to %q", got.Role)
	}

	rec = s.do(t, stdhttp.MethodPost, "/users", "sneaky@x.com", map[string]any{"role": "admin"})
	expectCode(t, rec, stdhttp.StatusForbidden)
}

func TestRouter_AdminManagesUsers(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, stdhttp.MethodPatch, "/users/a@x.com/role", "admin@x.com", map[string]any{"role": "wizard"})
	expectCode(t, rec, stdhttp.StatusBadRequest)

	rec = s.do(t, stdhttp.MethodPatch, "/users/a@x.com/role", "admin@x.com", map[string]any{})
	expectCode(t, rec, stdhttp.StatusUnprocessableEntity)

	rec = s.do(t, stdhttp.MethodPatch, "/users/a@x.com/role", "admin@x.com", map[string]any{"role": "manager"})
	expectCode(t, rec, stdhttp.StatusOK)

	rec = s.do(t, stdhttp.MethodPatch, "/users/m2@x.com/suspend", "admin@x.com", map[string]any{"suspended": true})
	expectCode(t, rec, stdhttp.StatusBadRequest)

	rec = s.do(t, stdhttp.MethodPatch, "/users/m2@x.com/suspend", "admin@x.com", map[string]any{"suspended": true, "reason": "fraud"})
	expectCode(t, rec, stdhttp.StatusOK)

	// suspended managers lose their gates
	expectCode(t, s.do(t, stdhttp.MethodGet, "/loans/my-loans", "m2@x.com", nil), stdhttp.StatusForbidden)
}

func TestRouter_LoanValidation(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, stdhttp.MethodPost, "/loans", "m1@x.com", map[string]any{"title": "", "interest": -1, "maxLimit": 0})
	expectCode(t, rec, stdhttp.StatusUnprocessableEntity)
	body := decode[ErrorResponse](t, rec)
	for _, f := range []string{"title", "interest", "maxLimit"} {
		if !containsField(body.Details, f) {
			t.Fatalf("missing detail for %s: %+v", f, body.Details)
		}
	}

	rec = s.do(t, stdhttp.MethodPost, "/loans", "m1@x.com", "not an object")
	expectCode(t, rec, stdhttp.StatusBadRequest)
}

func containsField(list []FieldError, field string) bool {
	for _, e := range list {
		if e.Field == field {
			return true
		}
	}
	return false
}

func TestRouter_LoanOwnership(t *testing.T) {
	s := newTestServer(t)
	l := s.createLoan(t, "m1@x.com", "Starter")
	if l.Status != "active" || l.ShowOnHome || l.CreatedBy != "m1@x.com" || !strings.HasPrefix(l.LoanID, "LN") {
		t.Fatalf("unexpected new loan: %+v", l)
	}

	// m2 patching m1's loan is forbidden and changes nothing
	rec := s.do(t, stdhttp.MethodPatch, "/loans/"+l.ID, "m2@x.com", map[string]any{"title": "Hijacked"})
	expectCode(t, rec, stdhttp.StatusForbidden)
	rec = s.do(t, stdhttp.MethodGet, "/loans/"+l.ID, "a@x.com", nil)
	expectCode(t, rec, stdhttp.StatusOK)
	if got := decode[loanView](t, rec); got.Title != "Starter" {
		t.Fatalf("title changed to %q", got.Title)
	}

	// owner can patch by display id
	rec = s.do(t, stdhttp.MethodPatch, "/loans/"+l.LoanID, "m1@x.com", map[string]any{"title": "Starter Plus"})
	expectCode(t, rec, stdhttp.StatusOK)
	if got := decode[loanView](t, rec); got.Title != "Starter Plus" {
		t.Fatalf("title = %q", got.Title)
	}

	// visibility only through admin
	rec = s.do(t, stdhttp.MethodPatch, "/loans/"+l.ID, "m1@x.com", map[string]any{"showOnHome": true})
	expectCode(t, rec, stdhttp.StatusForbidden)

	rec = s.do(t, stdhttp.MethodPatch, "/loans/"+l.ID, "m1@x.com", map[string]any{})
	expectCode(t, rec, stdhttp.StatusBadRequest)
	rec = s.do(t, stdhttp.MethodPatch, "/loans/"+l.ID, "m1@x.com", map[string]any{"title": "   "})
	expectCode(t, rec, stdhttp.StatusBadRequest)

	mine := decode[[]loanView](t, s.do(t, stdhttp.MethodGet, "/loans/my-loans", "m1@x.com", nil))
	if len(mine) != 1 || mine[0].ID != l.ID {
		t.Fatalf("my-loans = %+v", mine)
	}
	if others := decode[[]loanView](t, s.do(t, stdhttp.MethodGet, "/loans/my-loans", "m2@x.com", nil)); len(others) != 0 {
		t.Fatalf("m2 sees %d loans", len(others))
	}

	expectCode(t, s.do(t, stdhttp.MethodDelete, "/loans/"+l.ID, "m2@x.com", nil), stdhttp.StatusForbidden)
	expectCode(t, s.do(t, stdhttp.MethodDelete, "/loans/"+l.ID, "m1@x.com", nil), stdhttp.StatusOK)
	expectCode(t, s.do(t, stdhttp.MethodGet, "/loans/"+l.ID, "m1@x.com", nil), stdhttp.StatusNotFound)
	expectCode(t, s.do(t, stdhttp.MethodDelete, "/loans/"+l.ID, "admin@x.com", nil), stdhttp.StatusNotFound)
}

func TestRouter_PublicVisibility(t *testing.T) {
	s := newTestServer(t)
	l := s.createLoan(t, "m1@x.com", "L2")

	public := func() []loanView {
		rec := s.do(t, stdhttp.MethodGet, "/public/loans", "", nil)
		expectCode(t, rec, stdhttp.StatusOK)
		return decode[[]loanView](t, rec)
	}
	if got := public(); len(got) != 0 {
		t.Fatalf("new loan must not be public: %+v", got)
	}

	expectCode(t, s.do(t, stdhttp.MethodPatch, "/loans/"+l.ID+"/show", "m1@x.com", map[string]any{"showOnHome": true}), stdhttp.StatusForbidden)
	expectCode(t, s.do(t, stdhttp.MethodPatch, "/loans/"+l.ID+"/show", "admin@x.com", map[string]any{}), stdhttp.StatusUnprocessableEntity)
	expectCode(t, s.do(t, stdhttp.MethodPatch, "/loans/"+l.ID+"/show", "admin@x.com", map[string]any{"showOnHome": true}), stdhttp.StatusOK)
	if got := public(); len(got) != 1 || got[0].ID != l.ID {
		t.Fatalf("public after show = %+v", got)
	}

	expectCode(t, s.do(t, stdhttp.MethodPatch, "/loans/"+l.ID+"/show", "admin@x.com", map[string]any{"showOnHome": false}), stdhttp.StatusOK)
	if got := public(); len(got) != 0 {
		t.Fatalf("public after hide = %+v", got)
	}
}

func TestRouter_LoanApproval(t *testing.T) {
	s := newTestServer(t)
	l := s.createLoan(t, "m1@x.com", "Approve me")

	expectCode(t, s.do(t, stdhttp.MethodPatch, "/loans/"+l.ID+"/approve", "m1@x.com", nil), stdhttp.StatusForbidden)

	rec := s.do(t, stdhttp.MethodPatch, "/loans/"+l.ID+"/approve", "admin@x.com", nil)
	expectCode(t, rec, stdhttp.StatusOK)
	if got := decode[loanView](t, rec); got.Status != "approved" {
		t.Fatalf("status = %q", got.Status)
	}
	rec = s.do(t, stdhttp.MethodPatch, "/loans/"+l.ID+"/reject", "admin@x.com", nil)
	expectCode(t, rec, stdhttp.StatusOK)
	if got := decode[loanView](t, rec); got.Status != "rejected" {
		t.Fatalf("status = %q", got.Status)
	}
	expectCode(t, s.do(t, stdhttp.MethodPatch, "/loans/missing/approve", "admin@x.com", nil), stdhttp.StatusNotFound)
}

func applicationBody(loanID string) map[string]any {
	return map[string]any{
		"loanId":        loanID,
		"firstName":     "Ada",
		"lastName":      "Lovelace",
		"contactNumber": "+15550100",
		"nationalId":    "N-1",
		"monthlyIncome": 4200,
		"amount":        1500,
	}
}

func TestRouter_ApplicationFlow(t *testing.T) {
	s := newTestServer(t)
	l := s.createLoan(t, "m1@x.com", "L1")

	key := "3f2b8c1e-7d4a-4e2b-9c1f-5a6b7c8d9e0f"
	rec := s.do(t, stdhttp.MethodPost, "/loan-applications", "a@x.com", applicationBody(l.ID), middleware.HeaderIdempotencyKey, key)
	expectCode(t, rec, stdhttp.StatusCreated)
	app := decode[appView](t, rec)
	if app.Status != "pending" || app.FeeStatus != "unpaid" || !strings.HasPrefix(app.ApplicationID, "APP") {
		t.Fatalf("unexpected new application: %+v", app)
	}

	replay := s.do(t, stdhttp.MethodPost, "/loan-applications", "a@x.com", applicationBody(l.ID), middleware.HeaderIdempotencyKey, key)
	expectCode(t, replay, stdhttp.StatusCreated)
	if decode[appView](t, replay).ID != app.ID {
		t.Fatalf("replay created a second application")
	}
	if mine := decode[[]appView](t, s.do(t, stdhttp.MethodGet, "/loan-applications/my-applications", "a@x.com", nil)); len(mine) != 1 {
		t.Fatalf("my-applications = %d, want 1", len(mine))
	}

	// other applicants cannot read or cancel it
	expectCode(t, s.do(t, stdhttp.MethodGet, "/loan-applications/"+app.ID, "b@x.com", nil), stdhttp.StatusForbidden)
	expectCode(t, s.do(t, stdhttp.MethodPatch, "/loan-applications/"+app.ID+"/cancel", "b@x.com", nil), stdhttp.StatusForbidden)
	expectCode(t, s.do(t, stdhttp.MethodGet, "/loan-applications/"+app.ApplicationID, "m2@x.com", nil), stdhttp.StatusOK)

	// admin is not a manager for application review
	expectCode(t, s.do(t, stdhttp.MethodPatch, "/loan-applications/"+app.ID+"/approve", "admin@x.com", nil), stdhttp.StatusForbidden)

	rec = s.do(t, stdhttp.MethodPatch, "/loan-applications/"+app.ID+"/approve", "m1@x.com", nil)
	expectCode(t, rec, stdhttp.StatusOK)
	if got := decode[appView](t, rec); got.Status != "approved" {
		t.Fatalf("status = %q", got.Status)
	}

	// approve then cancel fails and leaves the record approved
	expectCode(t, s.do(t, stdhttp.MethodPatch, "/loan-applications/"+app.ID+"/cancel", "a@x.com", nil), stdhttp.StatusBadRequest)
	expectCode(t, s.do(t, stdhttp.MethodPatch, "/loan-applications/"+app.ID+"/reject", "m1@x.com", nil), stdhttp.StatusBadRequest)
	rec = s.do(t, stdhttp.MethodGet, "/loan-applications/"+app.ID, "a@x.com", nil)
	expectCode(t, rec, stdhttp.StatusOK)
	if got := decode[appView](t, rec); got.Status != "approved" {
		t.Fatalf("status after failed cancel = %q", got.Status)
	}

	filtered := decode[[]appView](t, s.do(t, stdhttp.MethodGet, "/loan-applications?status=approved", "m1@x.com", nil))
	if len(filtered) != 1 {
		t.Fatalf("approved filter = %d, want 1", len(filtered))
	}
}

func TestRouter_ApplicationUnknownLoan(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, stdhttp.MethodPost, "/loan-applications", "a@x.com", applicationBody("missing"),
		middleware.HeaderIdempotencyKey, strings.Repeat("c", 32))
	expectCode(t, rec, stdhttp.StatusBadRequest)
}

func TestRouter_PayFee(t *testing.T) {
	s := newTestServer(t)
	l := s.createLoan(t, "m1@x.com", "L1")
	rec := s.do(t, stdhttp.MethodPost, "/loan-applications", "a@x.com", applicationBody(l.ID),
		middleware.HeaderIdempotencyKey, strings.Repeat("d", 32))
	expectCode(t, rec, stdhttp.StatusCreated)
	app := decode[appView](t, rec)

	confirms := 0
	s.payments.ConfirmFn = func(_ context.Context, txID string) (*payment.Record, error) {
		confirms++
		if txID != "pi_ok" {
			return nil, payment.ErrNotSucceeded
		}
		return &payment.Record{TransactionID: txID, Amount: 1000, Currency: "usd", ApplicationID: app.ApplicationID}, nil
	}

	expectCode(t, s.do(t, stdhttp.MethodPatch, "/loan-applications/"+app.ID+"/pay", "a@x.com", map[string]any{}), stdhttp.StatusUnprocessableEntity)
	expectCode(t, s.do(t, stdhttp.MethodPatch, "/loan-applications/"+app.ID+"/pay", "b@x.com", map[string]any{"transactionId": "pi_ok"}), stdhttp.StatusForbidden)
	expectCode(t, s.do(t, stdhttp.MethodPatch, "/loan-applications/"+app.ID+"/pay", "a@x.com", map[string]any{"transactionId": "pi_pending"}), stdhttp.StatusBadRequest)

	rec = s.do(t, stdhttp.MethodPatch, "/loan-applications/"+app.ID+"/pay", "a@x.com", map[string]any{"transactionId": "pi_ok"})
	expectCode(t, rec, stdhttp.StatusOK)
	paid := decode[appView](t, rec)
	if paid.FeeStatus != "paid" || paid.Payment.TransactionID != "pi_ok" {
		t.Fatalf("unexpected paid application: %+v", paid)
	}

	// second confirmation is a no-op
	before := confirms
	rec = s.do(t, stdhttp.MethodPatch, "/loan-applications/"+app.ID+"/pay", "a@x.com", map[string]any{"transactionId": "pi_ok"})
	expectCode(t, rec, stdhttp.StatusOK)
	if confirms != before {
		t.Fatalf("provider called again for a paid application")
	}

	// paid applications cannot get a new intent
	expectCode(t, s.do(t, stdhttp.MethodPost, "/create-payment-intent", "a@x.com", map[string]any{"applicationId": app.ID},
		middleware.HeaderIdempotencyKey, strings.Repeat("e", 32)), stdhttp.StatusConflict)
}

func TestRouter_PayFee_IntentFromAnotherApplication(t *testing.T) {
	s := newTestServer(t)
	l := s.createLoan(t, "m1@x.com", "L1")
	mine := decode[appView](t, s.do(t, stdhttp.MethodPost, "/loan-applications", "a@x.com", applicationBody(l.ID)))
	theirs := decode[appView](t, s.do(t, stdhttp.MethodPost, "/loan-applications", "b@x.com", applicationBody(l.ID)))

	bound := ""
	s.payments.ConfirmFn = func(_ context.Context, txID string) (*payment.Record, error) {
		return &payment.Record{TransactionID: txID, Email: "a@x.com", Amount: 1000, Currency: "usd", ApplicationID: bound}, nil
	}

	// an intent with no application attached pays for nothing
	expectCode(t, s.do(t, stdhttp.MethodPatch, "/loan-applications/"+mine.ID+"/pay", "a@x.com", map[string]any{"transactionId": "pi_1"}), stdhttp.StatusBadRequest)
	expectCode(t, s.do(t, stdhttp.MethodPatch, "/loan-applications/"+theirs.ID+"/pay", "b@x.com", map[string]any{"transactionId": "pi_1"}), stdhttp.StatusBadRequest)

	bound = mine.ApplicationID
	expectCode(t, s.do(t, stdhttp.MethodPatch, "/loan-applications/"+mine.ID+"/pay", "a@x.com", map[string]any{"transactionId": "pi_1"}), stdhttp.StatusOK)
	expectCode(t, s.do(t, stdhttp.MethodPatch, "/loan-applications/"+theirs.ID+"/pay", "b@x.com", map[string]any{"transactionId": "pi_1"}), stdhttp.StatusBadRequest)

	rec := s.do(t, stdhttp.MethodGet, "/loan-applications/"+theirs.ID, "b@x.com", nil)
	expectCode(t, rec, stdhttp.StatusOK)
	if got := decode[appView](t, rec); got.FeeStatus != "unpaid" {
		t.Fatalf("fee status = %q, want unpaid", got.FeeStatus)
	}
}

func TestRouter_CreatePaymentIntent(t *testing.T) {
	s := newTestServer(t)
	var got payment.IntentRequest
	s.payments.CreateIntentFn = func(_ context.Context, in payment.IntentRequest) (*payment.Intent, error) {
		got = in
		return &payment.Intent{ID: "pi_1", ClientSecret: "pi_1_secret", Amount: in.Amount, Currency: in.Currency}, nil
	}

	rec := s.do(t, stdhttp.MethodPost, "/create-payment-intent", "a@x.com", map[string]any{},
		middleware.HeaderIdempotencyKey, strings.Repeat("f", 32))
	expectCode(t, rec, stdhttp.StatusOK)
	intent := decode[payment.Intent](t, rec)
	if intent.ClientSecret != "pi_1_secret" || intent.Amount != 1000 || intent.Currency != "usd" {
		t.Fatalf("unexpected intent: %+v", intent)
	}
	if got.Email != "a@x.com" {
		t.Fatalf("intent email = %q", got.Email)
	}

	rec = s.do(t, stdhttp.MethodPost, "/create-payment-intent", "a@x.com", map[string]any{"amount": -5},
		middleware.HeaderIdempotencyKey, strings.Repeat("9", 32))
	expectCode(t, rec, stdhttp.StatusUnprocessableEntity)
}

func TestRouter_Metrics(t *testing.T) {
	s := newTestServer(t)
	s.createLoan(t, "m1@x.com", "Counted")

	rec := s.do(t, stdhttp.MethodGet, "/metrics", "", nil)
	expectCode(t, rec, stdhttp.StatusOK)
	body := rec.Body.String()
	for _, want := range []string{
		`loanlink_http_requests_total{method="POST",route="/loans",status="201"} 1`,
		`loanlink_loan_transitions_total{status="active"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics missing %q", want)
		}
	}
}

func TestRouter_RequestID(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, stdhttp.MethodGet, "/health", "", nil)
	if rec.Header().Get(echo.HeaderXRequestID) == "" {
		t.Fatalf("missing request id header")
	}
	rec = s.do(t, stdhttp.MethodGet, "/health", "", nil, echo.HeaderXRequestID, "given-id")
	if got := rec.Header().Get(echo.HeaderXRequestID); got != "given-id" {
		t.Fatalf("request id = %q, want given-id", got)
	}
}
