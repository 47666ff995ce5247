package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"bizops/internal/core"
	"bizops/internal/ledger"
	applog "bizops/internal/log"
	"bizops/internal/reporting"
	"bizops/internal/store/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, opts Options) *Server {
	t.Helper()
	store := memory.New()
	if opts.Logger == nil {
		cfg := applog.DefaultConfig()
		cfg.Output = io.Discard
		opts.Logger = applog.New(cfg)
	}
	srv := NewServer(opts, Services{
		Accounts:     ledger.NewAccountService(store),
		Transactions: ledger.NewTransactionService(store, nil),
		Budgets:      ledger.NewBudgetService(store),
		Reports:      reporting.NewEngine(store, store, store),
	})
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(bytes.NewReader(rr.Body.Bytes())).Decode(&v), rr.Body.String())
	return v
}

func createAccount(t *testing.T, srv *Server, name string) core.Account {
	t.Helper()
	rr := do(t, srv, http.MethodPost, "/api/accounts", `{"name":"`+name+`","type":"checking"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return decode[core.Account](t, rr)
}

func createTransaction(t *testing.T, srv *Server, body string) core.Transaction {
	t.Helper()
	rr := do(t, srv, http.MethodPost, "/api/transactions", body)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return decode[core.Transaction](t, rr)
}

func TestHealthAndReady(t *testing.T) {
	srv := newTestServer(t, Options{})

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := do(t, srv, http.MethodGet, path, "")
		assert.Equal(t, http.StatusOK, rr.Code, path)
		assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	}
}

func TestReadyReportsStoreFailure(t *testing.T) {
	srv := newTestServer(t, Options{Ready: func(context.Context) error { return errors.New("db down") }})

	rr := do(t, srv, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	body := decode[map[string]any](t, rr)
	assert.Equal(t, "not_ready", body["status"])
}

func TestMiddlewareHeaders(t *testing.T) {
	srv := newTestServer(t, Options{})

	rr := do(t, srv, http.MethodGet, "/api/accounts", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, strings.HasPrefix(rr.Header().Get("X-Request-ID"), "req_"))
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "[]\n", rr.Body.String())
}

func TestSuspiciousRequestIsRejected(t *testing.T) {
	srv := newTestServer(t, Options{})

	rr := do(t, srv, http.MethodGet, "/api/transactions?category=../../etc/passwd", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAccountLifecycle(t *testing.T) {
	srv := newTestServer(t, Options{})
	a := createAccount(t, srv, "Operating")
	assert.True(t, a.IsActive)
	assert.True(t, a.Balance.IsZero())

	rr := do(t, srv, http.MethodGet, "/api/accounts/"+a.ID, "")
	require.Equal(t, http.StatusOK, rr.Code)

	rr = do(t, srv, http.MethodPatch, "/api/accounts/"+a.ID, `{"name":"Main","isActive":false}`)
	require.Equal(t, http.StatusOK, rr.Code)
	updated := decode[core.Account](t, rr)
	assert.Equal(t, "Main", updated.Name)
	assert.False(t, updated.IsActive)

	rr = do(t, srv, http.MethodDelete, "/api/accounts/"+a.ID, "")
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = do(t, srv, http.MethodDelete, "/api/accounts/"+a.ID, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	rr = do(t, srv, http.MethodGet, "/api/accounts/"+a.ID, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCreateAccountValidation(t *testing.T) {
	srv := newTestServer(t, Options{})

	tests := []struct {
		name string
		body string
	}{
		{"empty name", `{"name":"  ","type":"checking"}`},
		{"bad type", `{"name":"x","type":"vault"}`},
		{"unknown field", `{"name":"x","type":"cash","owner":"me"}`},
		{"malformed", `{"name":`},
		{"empty body", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, srv, http.MethodPost, "/api/accounts", tt.body)
			assert.Equal(t, http.StatusBadRequest, rr.Code, rr.Body.String())
			assert.NotEmpty(t, decode[ErrorBody](t, rr).Error)
		})
	}
}

func TestUpdateBalance(t *testing.T) {
	srv := newTestServer(t, Options{})
	a := createAccount(t, srv, "Operating")
	path := "/api/accounts/" + a.ID + "/balance"

	rr := do(t, srv, http.MethodPut, path, `{"amount":"150"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	rr = do(t, srv, http.MethodPut, path, `{"amount":"-30"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "120", decode[core.Account](t, rr).Balance.String())

	rr = do(t, srv, http.MethodPut, path+"?mode=set", `{"amount":"500.25"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "500.25", decode[core.Account](t, rr).Balance.String())

	rr = do(t, srv, http.MethodPut, path+"?mode=delta", `{"amount":0.75}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "501", decode[core.Account](t, rr).Balance.String())
}

func TestUpdateBalanceErrors(t *testing.T) {
	srv := newTestServer(t, Options{})
	a := createAccount(t, srv, "Operating")

	tests := []struct {
		name string
		path string
		body string
		want int
	}{
		{"missing amount", "/api/accounts/" + a.ID + "/balance", `{}`, http.StatusBadRequest},
		{"bad amount", "/api/accounts/" + a.ID + "/balance", `{"amount":"abc"}`, http.StatusBadRequest},
		{"bad mode", "/api/accounts/" + a.ID + "/balance?mode=replace", `{"amount":"1"}`, http.StatusBadRequest},
		{"unknown account", "/api/accounts/nope/balance", `{"amount":"1"}`, http.StatusNotFound},
		{"unknown account set", "/api/accounts/nope/balance?mode=set", `{"amount":"1"}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, srv, http.MethodPut, tt.path, tt.body)
			assert.Equal(t, tt.want, rr.Code, rr.Body.String())
		})
	}
}

func TestTransactionsFlow(t *testing.T) {
	srv := newTestServer(t, Options{})

	sale := createTransaction(t, srv, `{"type":"income","status":"paid","category":"sales","amount":"100","date":"2024-01-02","description":"Invoice 1","customerId":"c-1"}`)
	rent := createTransaction(t, srv, `{"type":"expense","category":"rent","amount":"40","date":"2024-01-05","description":"Rent"}`)
	assert.Equal(t, core.StatusPending, rent.Status)
	createTransaction(t, srv, `{"type":"income","status":"overdue","category":"services","amount":"25","date":"2024-01-09","description":"Service call"}`)

	rr := do(t, srv, http.MethodGet, "/api/transactions?type=income", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[[]core.Transaction](t, rr), 2)

	rr = do(t, srv, http.MethodGet, "/api/transactions?customerId=c-1", "")
	got := decode[[]core.Transaction](t, rr)
	require.Len(t, got, 1)
	assert.Equal(t, sale.ID, got[0].ID)

	rr = do(t, srv, http.MethodGet, "/api/transactions?startDate=2024-01-03&endDate=2024-01-31", "")
	assert.Len(t, decode[[]core.Transaction](t, rr), 2)

	rr = do(t, srv, http.MethodGet, "/api/transactions/payable", "")
	payable := decode[[]core.Transaction](t, rr)
	require.Len(t, payable, 1)
	assert.Equal(t, rent.ID, payable[0].ID)

	rr = do(t, srv, http.MethodGet, "/api/transactions/receivable", "")
	assert.Len(t, decode[[]core.Transaction](t, rr), 1)

	rr = do(t, srv, http.MethodPost, "/api/transactions/"+rent.ID+"/pay", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, core.StatusPaid, decode[core.Transaction](t, rr).Status)

	rr = do(t, srv, http.MethodGet, "/api/transactions/payable", "")
	assert.Empty(t, decode[[]core.Transaction](t, rr))

	rr = do(t, srv, http.MethodDelete, "/api/transactions/"+sale.ID, "")
	assert.Equal(t, http.StatusNoContent, rr.Code)
	rr = do(t, srv, http.MethodGet, "/api/transactions/"+sale.ID, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	rr = do(t, srv, http.MethodPost, "/api/transactions/"+sale.ID+"/pay", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestTransactionValidation(t *testing.T) {
	srv := newTestServer(t, Options{})

	rr := do(t, srv, http.MethodPost, "/api/transactions", `{"type":"income","category":"sales","amount":"-5","date":"2024-01-02","description":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "amount", decode[ErrorBody](t, rr).Field)

	for _, amount := range []string{`"1e50000000"`, `1e50000000`, `"12.34567"`, `"0.00001"`} {
		rr = do(t, srv, http.MethodPost, "/api/transactions", `{"type":"income","category":"sales","amount":`+amount+`,"date":"2024-01-02","description":"x"}`)
		assert.Equal(t, http.StatusBadRequest, rr.Code, amount)
		assert.Less(t, rr.Body.Len(), 512, amount)
		assert.Contains(t, rr.Body.String(), "invalid amount", amount)
	}

	a := createAccount(t, srv, "Operating")
	rr = do(t, srv, http.MethodPut, "/api/accounts/"+a.ID+"/balance", `{"amount":"9999999999999999"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	rr = do(t, srv, http.MethodPut, "/api/accounts/"+a.ID+"/balance", `{"amount":"1"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "amount", decode[ErrorBody](t, rr).Field)

	rr = do(t, srv, http.MethodGet, "/api/transactions?status=lost", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, srv, http.MethodGet, "/api/transactions?startDate=2024-02-01&endDate=2024-01-01", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestBudgetsFlow(t *testing.T) {
	srv := newTestServer(t, Options{})

	rr := do(t, srv, http.MethodPost, "/api/budgets", `{"name":"Q1 marketing","category":"marketing","amount":"1000","startDate":"2024-01-01","endDate":"2024-03-31"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	b := decode[core.Budget](t, rr)

	rr = do(t, srv, http.MethodGet, "/api/budgets?category=marketing&startDate=2024-03-01&endDate=2024-04-30", "")
	assert.Len(t, decode[[]core.Budget](t, rr), 1)
	rr = do(t, srv, http.MethodGet, "/api/budgets?startDate=2024-04-01&endDate=2024-04-30", "")
	assert.Empty(t, decode[[]core.Budget](t, rr))

	rr = do(t, srv, http.MethodPatch, "/api/budgets/"+b.ID, `{"amount":"1200"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "1200", decode[core.Budget](t, rr).Amount.String())

	rr = do(t, srv, http.MethodPost, "/api/budgets", `{"name":"bad","category":"rent","amount":"10","startDate":"2024-02-01","endDate":"2024-01-01"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, srv, http.MethodDelete, "/api/budgets/"+b.ID, "")
	assert.Equal(t, http.StatusNoContent, rr.Code)
	rr = do(t, srv, http.MethodGet, "/api/budgets/"+b.ID, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestReports(t *testing.T) {
	srv := newTestServer(t, Options{})

	createTransaction(t, srv, `{"type":"income","status":"paid","category":"sales","amount":"100","date":"2024-01-02","description":"a"}`)
	createTransaction(t, srv, `{"type":"expense","status":"paid","category":"rent","amount":"40","date":"2024-01-05","description":"b"}`)
	createTransaction(t, srv, `{"type":"expense","status":"pending","category":"rent","amount":"999","date":"2024-01-06","description":"c"}`)
	rr := do(t, srv, http.MethodPost, "/api/budgets", `{"name":"Rent","category":"rent","amount":"50","startDate":"2024-01-01","endDate":"2024-01-31"}`)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = do(t, srv, http.MethodGet, "/api/reports/cash-flow?startDate=2024-01-01&endDate=2024-01-10", "")
	require.Equal(t, http.StatusOK, rr.Code)
	cf := decode[core.CashFlowReport](t, rr)
	assert.Equal(t, "100", cf.TotalIncome.String())
	assert.Equal(t, "40", cf.TotalExpense.String())
	assert.Equal(t, "60", cf.NetCashFlow.String())
	assert.Len(t, cf.DailyCashFlow, 10)

	rr = do(t, srv, http.MethodGet, "/api/reports/profit-and-loss?startDate=2024-01-01&endDate=2024-01-31", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "60", decode[core.ProfitAndLoss](t, rr).Profit.String())

	rr = do(t, srv, http.MethodGet, "/api/reports/budget-vs-actual?startDate=2024-01-01&endDate=2024-01-31", "")
	require.Equal(t, http.StatusOK, rr.Code)
	bva := decode[[]core.BudgetVsActual](t, rr)
	require.Len(t, bva, 1)
	assert.Equal(t, "40", bva[0].Actual.String())
	assert.Equal(t, "10", bva[0].Variance.String())

	a := createAccount(t, srv, "Cash")
	rr = do(t, srv, http.MethodPut, "/api/accounts/"+a.ID+"/balance", `{"amount":"75.5"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	rr = do(t, srv, http.MethodGet, "/api/reports/account-balances", "")
	require.Equal(t, http.StatusOK, rr.Code)
	balances := decode[core.AccountBalances](t, rr)
	assert.Equal(t, "75.5", balances.TotalBalance.String())
	assert.Len(t, balances.Accounts, 1)
}

func TestReportRangeIsRequired(t *testing.T) {
	srv := newTestServer(t, Options{})

	for _, path := range []string{
		"/api/reports/cash-flow",
		"/api/reports/profit-and-loss?startDate=2024-01-01",
		"/api/reports/budget-vs-actual?startDate=2024-01-31&endDate=2024-01-01",
		"/api/reports/cash-flow?startDate=01/01/2024&endDate=2024-01-31",
	} {
		rr := do(t, srv, http.MethodGet, path, "")
		assert.Equal(t, http.StatusBadRequest, rr.Code, path)
	}
}

func TestReportRangeOverFiveYears(t *testing.T) {
	srv := newTestServer(t, Options{})

	for _, path := range []string{
		"/api/reports/cash-flow?startDate=2000-01-01&endDate=2999-12-31",
		"/api/reports/profit-and-loss?startDate=2000-01-01&endDate=2999-12-31",
		"/api/reports/budget-vs-actual?startDate=2019-12-31&endDate=2024-12-31",
	} {
		rr := do(t, srv, http.MethodGet, path, "")
		require.Equal(t, http.StatusBadRequest, rr.Code, path)
		assert.Less(t, rr.Body.Len(), 512, path)
		body := decode[map[string]string](t, rr)
		assert.Equal(t, "endDate", body["field"], path)
	}

	rr := do(t, srv, http.MethodGet, "/api/reports/cash-flow?startDate=2020-01-01&endDate=2024-12-31", "")
	require.Equal(t, http.StatusOK, rr.Code)
	report := decode[core.CashFlowReport](t, rr)
	assert.Len(t, report.DailyCashFlow, core.MaxReportDays)

	rr = do(t, srv, http.MethodGet, "/metrics", "")
	assert.Contains(t, rr.Body.String(), "report_cache_misses_total 1\n")
}

func TestReportCacheInvalidatedOnWrite(t *testing.T) {
	srv := newTestServer(t, Options{})
	const path = "/api/reports/profit-and-loss?startDate=2024-01-01&endDate=2024-01-31"

	createTransaction(t, srv, `{"type":"income","status":"paid","category":"sales","amount":"10","date":"2024-01-02","description":"a"}`)
	first := decode[core.ProfitAndLoss](t, do(t, srv, http.MethodGet, path, ""))
	again := decode[core.ProfitAndLoss](t, do(t, srv, http.MethodGet, path, ""))
	assert.Equal(t, first.Revenue.String(), again.Revenue.String())

	tx := createTransaction(t, srv, `{"type":"income","category":"sales","amount":"5","date":"2024-01-03","description":"b"}`)
	pending := decode[core.ProfitAndLoss](t, do(t, srv, http.MethodGet, path, ""))
	assert.Equal(t, "10", pending.Revenue.String())

	rr := do(t, srv, http.MethodPost, "/api/transactions/"+tx.ID+"/pay", "")
	require.Equal(t, http.StatusOK, rr.Code)
	paid := decode[core.ProfitAndLoss](t, do(t, srv, http.MethodGet, path, ""))
	assert.Equal(t, "15", paid.Revenue.String())

	rr = do(t, srv, http.MethodGet, "/metrics", "")
	assert.Contains(t, rr.Body.String(), "report_cache_hits_total 1")
}

func TestRateLimitOnlyAppliesToWrites(t *testing.T) {
	srv := newTestServer(t, Options{RateLimitPerMinute: 2})

	createAccount(t, srv, "one")
	createAccount(t, srv, "two")
	rr := do(t, srv, http.MethodPost, "/api/accounts", `{"name":"three","type":"cash"}`)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "60", rr.Header().Get("Retry-After"))

	for i := 0; i < 5; i++ {
		rr = do(t, srv, http.MethodGet, "/api/accounts", "")
		assert.Equal(t, http.StatusOK, rr.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, Options{})

	rr := do(t, srv, http.MethodPut, "/api/transactions", `{}`)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}
