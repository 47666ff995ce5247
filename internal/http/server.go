package http

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"bizops/internal/cache"
	"bizops/internal/core"
	"bizops/internal/ledger"
	applog "bizops/internal/log"
	"bizops/internal/middleware/ratelimit"
	"bizops/internal/middleware/security"
	"bizops/internal/middleware/trace"
	"bizops/internal/reporting"
)

const cacheCleanupInterval = 10 * time.Minute

// Services are the domain dependencies the handlers call into.
type Services struct {
	Accounts     *ledger.AccountService
	Transactions *ledger.TransactionService
	Budgets      *ledger.BudgetService
	Reports      *reporting.Engine
}

// Options tune the server. Zero values fall back to defaults.
type Options struct {
	Addr               string
	RateLimitPerMinute int
	ReportCacheTTL     time.Duration
	ReportCacheSize    int
	// Ready reports whether the backing store is reachable.
	Ready  func(ctx context.Context) error
	Logger *applog.Logger
}

type appMetrics struct {
	uptime      time.Time
	writes      int64
	cacheHits   int64
	cacheMisses int64
}

type Server struct {
	http.Server
	services Services
	ready    func(ctx context.Context) error
	logger   *applog.Logger

	cacheManager  *cache.Manager
	cashFlowCache *cache.Loader[core.CashFlowReport]
	pnlCache      *cache.Loader[core.ProfitAndLoss]
	bvaCache      *cache.Loader[[]core.BudgetVsActual]
	balancesCache *cache.Loader[core.AccountBalances]

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware
	appMetrics       *appMetrics

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(opts Options, services Services) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	if opts.ReportCacheSize <= 0 {
		opts.ReportCacheSize = 256
	}
	if opts.ReportCacheTTL <= 0 {
		opts.ReportCacheTTL = time.Minute
	}

	detector := security.NewDetector()
	s := &Server{
		services:         services,
		ready:            opts.Ready,
		logger:           logger.WithComponent(applog.ComponentHTTP),
		cacheManager:     cache.NewManager(),
		cashFlowCache:    cache.NewLoader(cache.NewLRUCache[core.CashFlowReport](opts.ReportCacheSize, opts.ReportCacheTTL)),
		pnlCache:         cache.NewLoader(cache.NewLRUCache[core.ProfitAndLoss](opts.ReportCacheSize, opts.ReportCacheTTL)),
		bvaCache:         cache.NewLoader(cache.NewLRUCache[[]core.BudgetVsActual](opts.ReportCacheSize, opts.ReportCacheTTL)),
		balancesCache:    cache.NewLoader(cache.NewLRUCache[core.AccountBalances](1, opts.ReportCacheTTL)),
		rateLimiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		securityDetector: detector,
		traceMiddleware:  trace.NewMiddleware(logger, detector.ExtractClientIP),
		appMetrics:       &appMetrics{uptime: time.Now()},
	}
	s.cacheManager.Register(s.cashFlowCache)
	s.cacheManager.Register(s.pnlCache)
	s.cacheManager.Register(s.bvaCache)
	s.cacheManager.Register(s.balancesCache)
	s.cacheManager.StartCleanup(cacheCleanupInterval)

	mux := http.NewServeMux()
	s.routes(mux)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           s.middleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("GET /api/accounts", s.handleListAccounts)
	mux.HandleFunc("POST /api/accounts", s.handleCreateAccount)
	mux.HandleFunc("GET /api/accounts/{id}", s.handleGetAccount)
	mux.HandleFunc("PATCH /api/accounts/{id}", s.handleUpdateAccount)
	mux.HandleFunc("DELETE /api/accounts/{id}", s.handleDeleteAccount)
	mux.HandleFunc("PUT /api/accounts/{id}/balance", s.handleUpdateBalance)

	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	mux.HandleFunc("GET /api/transactions/payable", s.handleAccountsPayable)
	mux.HandleFunc("GET /api/transactions/receivable", s.handleAccountsReceivable)
	mux.HandleFunc("GET /api/transactions/{id}", s.handleGetTransaction)
	mux.HandleFunc("PATCH /api/transactions/{id}", s.handleUpdateTransaction)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)
	mux.HandleFunc("POST /api/transactions/{id}/pay", s.handlePayTransaction)

	mux.HandleFunc("GET /api/budgets", s.handleListBudgets)
	mux.HandleFunc("POST /api/budgets", s.handleCreateBudget)
	mux.HandleFunc("GET /api/budgets/{id}", s.handleGetBudget)
	mux.HandleFunc("PATCH /api/budgets/{id}", s.handleUpdateBudget)
	mux.HandleFunc("DELETE /api/budgets/{id}", s.handleDeleteBudget)

	mux.HandleFunc("GET /api/reports/cash-flow", s.handleCashFlow)
	mux.HandleFunc("GET /api/reports/profit-and-loss", s.handleProfitAndLoss)
	mux.HandleFunc("GET /api/reports/budget-vs-actual", s.handleBudgetVsActual)
	mux.HandleFunc("GET /api/reports/account-balances", s.handleAccountBalances)
}

// middleware wraps h as trace -> security -> rate limit -> h, outermost first.
func (s *Server) middleware(h http.Handler) http.Handler {
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	limit := s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, ratelimit.MutatingOnly,
		func(w http.ResponseWriter, r *http.Request) {
			applog.FromContext(r.Context()).WithComponent(applog.ComponentRateLimit).WarnContext(r.Context(),
				"Rate limit exceeded",
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path)
			TooManyRequestsError().Write(w)
		})

	h = limit(h)
	h = s.securityDetector.Middleware(true)(h)
	h = headers.Middleware(h)
	return s.traceMiddleware.Middleware(h)
}

// invalidateReports drops every cached report after a write.
func (s *Server) invalidateReports() {
	atomic.AddInt64(&s.appMetrics.writes, 1)
	s.cacheManager.PurgeAll()
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
