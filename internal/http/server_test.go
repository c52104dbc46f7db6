package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/cache"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/notify"
	"fintrack/internal/services"
	"fintrack/internal/storage/memory"
)

type testServer struct {
	srv   *Server
	store *memory.Store
}

func newTestServer(t *testing.T, opts Options) *testServer {
	t.Helper()
	store := memory.New()
	dash := services.NewDashboardService(store, cache.NewLRUCache[*services.Dashboard](8, time.Minute), core.Money{})
	ledger := services.NewLedgerService(store, nil, notify.NewInAppNotifier(store), dash, false)
	deps := Deps{
		Ledger:        ledger,
		Budgets:       services.NewBudgetService(store, dash, false),
		Bills:         services.NewBillService(store, ledger, dash, false),
		Goals:         services.NewGoalService(store, dash),
		Settings:      services.NewSettingsService(store, dash),
		Dashboard:     dash,
		Notifications: store,
		Auth:          auth.NewLocalAuthenticator(store),
		Tokens:        auth.NewTokenIssuer("test-secret", time.Hour),
		Checks: map[string]func(context.Context) error{
			"storage": func(context.Context) error { return nil },
		},
	}
	if opts.RateLimitPerMinute == 0 {
		opts.RateLimitPerMinute = 1000
	}
	opts.Logger = applog.New(applog.Config{Output: io.Discard})
	s := NewServer(":0", deps, opts)
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })
	return &testServer{srv: s, store: store}
}

func (ts *testServer) do(t *testing.T, method, path, body string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rr := httptest.NewRecorder()
	ts.srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return v
}

func TestHealthAndReady(t *testing.T) {
	ts := newTestServer(t, Options{})
	for _, path := range []string{"/healthz", "/readyz"} {
		rr := ts.do(t, http.MethodGet, path, "")
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}

	ts.srv.deps.Checks["broker"] = func(context.Context) error { return errors.New("down") }
	rr := ts.do(t, http.MethodGet, "/readyz", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
	body := decode[map[string]any](t, rr)
	checks := body["checks"].(map[string]any)
	if checks["storage"] != "ok" || !strings.HasPrefix(checks["broker"].(string), "failed") {
		t.Errorf("unexpected checks %v", checks)
	}
}

func TestMiddlewareHeaders(t *testing.T) {
	ts := newTestServer(t, Options{})
	rr := ts.do(t, http.MethodGet, "/healthz", "", "X-Request-ID", "abc-123")
	if got := rr.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Errorf("request id = %q", got)
	}
	if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Errorf("missing security headers: %v", rr.Header())
	}

	rr = ts.do(t, http.MethodGet, "/healthz", "")
	if !strings.HasPrefix(rr.Header().Get("X-Request-ID"), "req_") {
		t.Errorf("generated request id = %q", rr.Header().Get("X-Request-ID"))
	}
}

func TestTransactionsAPI(t *testing.T) {
	ts := newTestServer(t, Options{})

	tests := []struct {
		name string
		body string
		want int
	}{
		{"valid expense", `{"type":"expense","amount":"12.34","description":"Lunch","category":"Food & Dining","date":"2024-11-05"}`, http.StatusCreated},
		{"comma decimal", `{"type":"income","amount":"1500,00","description":"Salary","category":"Income"}`, http.StatusCreated},
		{"bad amount", `{"type":"expense","amount":"abc","description":"x","category":"Other"}`, http.StatusUnprocessableEntity},
		{"zero amount", `{"type":"expense","amount":"0","description":"x","category":"Other"}`, http.StatusUnprocessableEntity},
		{"bad type", `{"type":"transfer","amount":"1","description":"x","category":"Other"}`, http.StatusUnprocessableEntity},
		{"missing description", `{"type":"expense","amount":"1","description":"  ","category":"Other"}`, http.StatusUnprocessableEntity},
		{"bad date", `{"type":"expense","amount":"1","description":"x","category":"Other","date":"05/11/2024"}`, http.StatusUnprocessableEntity},
		{"malformed json", `{"type":`, http.StatusBadRequest},
		{"unknown field", `{"type":"expense","amount":"1","description":"x","category":"Other","note":"?"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := ts.do(t, http.MethodPost, "/api/transactions", tt.body)
			if rr.Code != tt.want {
				t.Fatalf("status=%d want %d body=%s", rr.Code, tt.want, rr.Body.String())
			}
		})
	}

	rr := ts.do(t, http.MethodGet, "/api/transactions", "")
	list := decode[struct {
		Transactions []struct {
			Amount          int64  `json:"amount"`
			Type            string `json:"type"`
			FormattedAmount string `json:"formattedAmount"`
		} `json:"transactions"`
	}](t, rr)
	if len(list.Transactions) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(list.Transactions))
	}
	var expense bool
	for _, tx := range list.Transactions {
		if tx.Type == "expense" {
			expense = true
			if tx.Amount != 1234 || tx.FormattedAmount != "-$12.34" {
				t.Errorf("expense view = %+v", tx)
			}
		}
	}
	if !expense {
		t.Error("expense missing from list")
	}

	if rr := ts.do(t, http.MethodDelete, "/api/transactions", ""); rr.Code != http.StatusNoContent {
		t.Fatalf("clear status=%d", rr.Code)
	}
	if txs, _ := ts.store.LoadTransactions(context.Background()); len(txs) != 0 {
		t.Errorf("expected empty ledger, got %d", len(txs))
	}
}

func TestBudgetsAPI(t *testing.T) {
	ts := newTestServer(t, Options{})

	rr := ts.do(t, http.MethodPost, "/api/budgets", `{"category":"Pets","limit":"80.00"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status=%d body=%s", rr.Code, rr.Body.String())
	}
	created := decode[struct {
		ID             string `json:"id"`
		Limit          int64  `json:"limit"`
		FormattedLimit string `json:"formattedLimit"`
	}](t, rr)
	if created.Limit != 8000 || created.FormattedLimit != "$80.00" {
		t.Errorf("created = %+v", created)
	}

	steps := []struct {
		name, method, path, body string
		want                     int
	}{
		{"duplicate category", http.MethodPost, "/api/budgets", `{"category":"Pets","limit":"10"}`, http.StatusConflict},
		{"zero limit", http.MethodPost, "/api/budgets", `{"category":"Gifts","limit":"0"}`, http.StatusUnprocessableEntity},
		{"update limit", http.MethodPut, "/api/budgets/" + created.ID, `{"limit":"90"}`, http.StatusOK},
		{"update unknown", http.MethodPut, "/api/budgets/nope", `{"limit":"90"}`, http.StatusNotFound},
		{"toggle", http.MethodPost, "/api/budgets/" + created.ID + "/toggle", "", http.StatusOK},
		{"toggle unknown", http.MethodPost, "/api/budgets/nope/toggle", "", http.StatusNotFound},
		{"bad notification channel", http.MethodPut, "/api/budgets/notifications", `{"notificationType":"sms"}`, http.StatusUnprocessableEntity},
		{"notifications", http.MethodPut, "/api/budgets/notifications", `{"notifyAt75":false,"notifyAt90":true,"notifyOverBudget":true,"notificationType":"both"}`, http.StatusOK},
		{"delete", http.MethodDelete, "/api/budgets/" + created.ID, "", http.StatusNoContent},
		{"delete again", http.MethodDelete, "/api/budgets/" + created.ID, "", http.StatusNotFound},
		{"unknown template", http.MethodPost, "/api/budgets/template", `{"template":"envelope"}`, http.StatusUnprocessableEntity},
		{"template", http.MethodPost, "/api/budgets/template", `{"template":"5030"}`, http.StatusOK},
	}
	for _, st := range steps {
		rr := ts.do(t, st.method, st.path, st.body)
		if rr.Code != st.want {
			t.Fatalf("%s: status=%d want %d body=%s", st.name, rr.Code, st.want, rr.Body.String())
		}
	}

	rr = ts.do(t, http.MethodGet, "/api/budgets", "")
	settings := decode[struct {
		Budgets          []json.RawMessage `json:"budgets"`
		NotifyAt75       bool              `json:"notifyAt75"`
		NotificationType string            `json:"notificationType"`
	}](t, rr)
	if len(settings.Budgets) != 5 || settings.NotifyAt75 || settings.NotificationType != "both" {
		t.Errorf("template should replace budgets and keep preferences: %+v", settings)
	}

	rr = ts.do(t, http.MethodGet, "/api/budgets/summary", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("summary status=%d", rr.Code)
	}
	summary := decode[struct {
		Overview struct {
			TotalBudget int64 `json:"totalBudget"`
		} `json:"overview"`
		Budgets []json.RawMessage `json:"budgets"`
	}](t, rr)
	if summary.Overview.TotalBudget != 350000 || len(summary.Budgets) != 5 {
		t.Errorf("summary = %+v", summary)
	}
}

func TestBillsAPI(t *testing.T) {
	ts := newTestServer(t, Options{})

	rr := ts.do(t, http.MethodPost, "/api/bills", `{"name":"Internet","amount":"79.99","dueDate":"2030-01-15","frequency":"monthly","category":"Utilities"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status=%d body=%s", rr.Code, rr.Body.String())
	}
	created := decode[struct {
		Bill struct {
			ID string `json:"id"`
		} `json:"bill"`
	}](t, rr)

	bad := ts.do(t, http.MethodPost, "/api/bills", `{"name":"X","amount":"1","dueDate":"2030-01-15","frequency":"daily","category":"Other"}`)
	if bad.Code != http.StatusUnprocessableEntity {
		t.Errorf("bad frequency status=%d", bad.Code)
	}

	rr = ts.do(t, http.MethodGet, "/api/bills", "")
	list := decode[struct {
		Bills []struct {
			Status string `json:"status"`
		} `json:"bills"`
		TotalDue int64 `json:"totalDue"`
	}](t, rr)
	if len(list.Bills) != 1 || list.Bills[0].Status != "pending" || list.TotalDue != 7999 {
		t.Fatalf("bills = %+v", list)
	}

	rr = ts.do(t, http.MethodPost, "/api/bills/"+created.Bill.ID+"/pay", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("pay status=%d body=%s", rr.Code, rr.Body.String())
	}
	paid := decode[struct {
		Bill struct {
			Paid bool `json:"paid"`
		} `json:"bill"`
		Transaction struct {
			Amount   int64  `json:"amount"`
			Category string `json:"category"`
		} `json:"transaction"`
	}](t, rr)
	if !paid.Bill.Paid || paid.Transaction.Amount != 7999 || paid.Transaction.Category != "Utilities" {
		t.Errorf("paid = %+v", paid)
	}

	if rr := ts.do(t, http.MethodPost, "/api/bills/"+created.Bill.ID+"/pay", ""); rr.Code != http.StatusConflict {
		t.Errorf("second payment status=%d", rr.Code)
	}
	if rr := ts.do(t, http.MethodPost, "/api/bills/missing/pay", ""); rr.Code != http.StatusNotFound {
		t.Errorf("unknown bill status=%d", rr.Code)
	}
}

func TestGoalsAPI(t *testing.T) {
	ts := newTestServer(t, Options{})

	rr := ts.do(t, http.MethodPost, "/api/goals", `{"name":"Car","targetAmount":"1000","currentAmount":"250","monthlyContribution":"50"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status=%d body=%s", rr.Code, rr.Body.String())
	}
	created := decode[struct {
		Goal struct {
			ID string `json:"id"`
		} `json:"goal"`
		FormattedTarget string `json:"formattedTarget"`
	}](t, rr)
	if created.FormattedTarget != "$1,000.00" {
		t.Errorf("formatted target = %q", created.FormattedTarget)
	}

	if rr := ts.do(t, http.MethodPost, "/api/goals", `{"name":"","targetAmount":"10"}`); rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("unnamed goal status=%d", rr.Code)
	}

	rr = ts.do(t, http.MethodPost, "/api/goals/"+created.Goal.ID+"/contribute", `{"amount":"1000"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("contribute status=%d body=%s", rr.Code, rr.Body.String())
	}
	g := decode[struct {
		CurrentAmount int64   `json:"currentAmount"`
		Progress      float64 `json:"progress"`
	}](t, rr)
	if g.CurrentAmount != 125000 || g.Progress != 125 {
		t.Errorf("contribution past the target should be kept: %+v", g)
	}

	if rr := ts.do(t, http.MethodPost, "/api/goals/missing/contribute", `{"amount":"1"}`); rr.Code != http.StatusNotFound {
		t.Errorf("unknown goal status=%d", rr.Code)
	}
	rr = ts.do(t, http.MethodGet, "/api/goals", "")
	if list := decode[struct {
		Goals []json.RawMessage `json:"goals"`
	}](t, rr); len(list.Goals) != 1 {
		t.Errorf("goals = %d", len(list.Goals))
	}
}

func TestSettingsAPI(t *testing.T) {
	ts := newTestServer(t, Options{})

	rr := ts.do(t, http.MethodPut, "/api/settings", `{"currency":"eur","displayName":"  Ana "}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("update status=%d body=%s", rr.Code, rr.Body.String())
	}
	u := decode[core.UserSettings](t, rr)
	if u.Currency != core.EUR || u.DisplayName != "Ana" || u.Theme != core.ThemeLight {
		t.Errorf("settings = %+v", u)
	}

	if rr := ts.do(t, http.MethodPut, "/api/settings", `{"theme":"neon"}`); rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("invalid theme status=%d", rr.Code)
	}

	// amounts follow the new currency
	ts.do(t, http.MethodPost, "/api/transactions", `{"type":"expense","amount":"5","description":"Coffee","category":"Food & Dining"}`)
	rr = ts.do(t, http.MethodGet, "/api/transactions", "")
	if !strings.Contains(rr.Body.String(), `"formattedAmount":"-€5.00"`) {
		t.Errorf("expected euro formatting, got %s", rr.Body.String())
	}
}

func TestDashboardAPI(t *testing.T) {
	ts := newTestServer(t, Options{})

	if rr := ts.do(t, http.MethodGet, "/api/dashboard?months=abc", ""); rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("bad months status=%d", rr.Code)
	}

	rr := ts.do(t, http.MethodGet, "/api/dashboard?months=3", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	d := decode[struct {
		Balance          int64             `json:"balance"`
		FormattedBalance string            `json:"formattedBalance"`
		SpendingTrend    []json.RawMessage `json:"spendingTrend"`
		Budgets          []json.RawMessage `json:"budgets"`
	}](t, rr)
	if d.Balance != 0 || d.FormattedBalance != "$0.00" || len(d.SpendingTrend) != 3 || len(d.Budgets) != 8 {
		t.Errorf("dashboard = %+v", d)
	}
}

func TestNotificationsAPI(t *testing.T) {
	ts := newTestServer(t, Options{})
	n := core.Notification{ID: "n1", Category: "Housing", Threshold: core.Threshold90, Percentage: 92,
		Spent: core.Money{Cents: 110400}, Limit: core.Money{Cents: 120000}, Channel: core.NotifyInApp, CreatedAt: time.Now()}
	if err := ts.store.AddNotification(context.Background(), n); err != nil {
		t.Fatal(err)
	}

	if rr := ts.do(t, http.MethodGet, "/api/notifications?limit=0", ""); rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("bad limit status=%d", rr.Code)
	}
	rr := ts.do(t, http.MethodGet, "/api/notifications", "")
	list := decode[struct {
		Notifications []struct {
			ID      string `json:"id"`
			Message string `json:"message"`
		} `json:"notifications"`
	}](t, rr)
	if len(list.Notifications) != 1 || list.Notifications[0].Message == "" {
		t.Errorf("notifications = %+v", list)
	}
}

func TestAuthFlow(t *testing.T) {
	ts := newTestServer(t, Options{AuthEnabled: true})

	if rr := ts.do(t, http.MethodGet, "/api/dashboard", ""); rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rr.Code)
	}
	if rr := ts.do(t, http.MethodGet, "/healthz", ""); rr.Code != http.StatusOK {
		t.Fatalf("health must stay public, got %d", rr.Code)
	}

	signup := `{"email":"ana@example.com","password":"secret1","displayName":"Ana"}`
	rr := ts.do(t, http.MethodPost, "/api/auth/signup", signup)
	if rr.Code != http.StatusCreated {
		t.Fatalf("signup status=%d body=%s", rr.Code, rr.Body.String())
	}
	created := decode[struct {
		PasswordStrength struct {
			Score int    `json:"score"`
			Label string `json:"label"`
		} `json:"passwordStrength"`
	}](t, rr)
	if created.PasswordStrength.Score != 2 || created.PasswordStrength.Label != "Fair" {
		t.Errorf("password strength = %+v", created.PasswordStrength)
	}
	long := `{"email":"bo@example.com","password":"` + strings.Repeat("x", 73) + `","displayName":"Bo"}`
	if rr := ts.do(t, http.MethodPost, "/api/auth/signup", long); rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("73 byte password status=%d", rr.Code)
	}
	if rr := ts.do(t, http.MethodPost, "/api/auth/signup", signup); rr.Code != http.StatusConflict {
		t.Errorf("duplicate signup status=%d", rr.Code)
	}
	if rr := ts.do(t, http.MethodPost, "/api/auth/signup", `{"email":"bad","password":"secret1","displayName":"B"}`); rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("invalid email status=%d", rr.Code)
	}

	if rr := ts.do(t, http.MethodPost, "/api/auth/login", `{"email":"ana@example.com","password":"wrong"}`); rr.Code != http.StatusUnauthorized {
		t.Errorf("wrong password status=%d", rr.Code)
	}
	rr = ts.do(t, http.MethodPost, "/api/auth/login", `{"email":"ana@example.com","password":"secret1"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("login status=%d", rr.Code)
	}
	session := decode[struct {
		Token string `json:"token"`
		User  struct {
			DisplayName string `json:"displayName"`
		} `json:"user"`
	}](t, rr)
	if session.Token == "" || session.User.DisplayName != "Ana" {
		t.Fatalf("session = %+v", session)
	}

	if rr := ts.do(t, http.MethodGet, "/api/dashboard", "", "Authorization", "Bearer "+session.Token); rr.Code != http.StatusOK {
		t.Errorf("authorized dashboard status=%d", rr.Code)
	}
	if rr := ts.do(t, http.MethodGet, "/api/dashboard", "", "Authorization", "Bearer garbage"); rr.Code != http.StatusUnauthorized {
		t.Errorf("bad token status=%d", rr.Code)
	}
}

func TestRateLimit(t *testing.T) {
	ts := newTestServer(t, Options{RateLimitPerMinute: 2})
	for i := 0; i < 2; i++ {
		if rr := ts.do(t, http.MethodGet, "/healthz", ""); rr.Code != http.StatusOK {
			t.Fatalf("request %d status=%d", i, rr.Code)
		}
	}
	rr := ts.do(t, http.MethodGet, "/healthz", "")
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After")
	}
	body := decode[map[string]string](t, rr)
	if body["error"] == "" || body["requestId"] == "" {
		t.Errorf("error body = %v", body)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	ts := newTestServer(t, Options{})
	if rr := ts.do(t, http.MethodPatch, "/api/transactions", ""); rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("status=%d", rr.Code)
	}
}
