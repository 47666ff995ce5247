package http

import (
	"context"
	"net/http"
	"sync/atomic"

	"bizops/internal/cache"
	"bizops/internal/core"
	applog "bizops/internal/log"
)

const (
	reportCashFlow        = "cash-flow"
	reportProfitAndLoss   = "profit-and-loss"
	reportBudgetVsActual  = "budget-vs-actual"
	reportAccountBalances = "account-balances"
)

func (s *Server) handleCashFlow(w http.ResponseWriter, r *http.Request) {
	serveRangeReport(s, w, r, reportCashFlow, s.cashFlowCache, s.services.Reports.CashFlow)
}

func (s *Server) handleProfitAndLoss(w http.ResponseWriter, r *http.Request) {
	serveRangeReport(s, w, r, reportProfitAndLoss, s.pnlCache, s.services.Reports.ProfitAndLoss)
}

func (s *Server) handleBudgetVsActual(w http.ResponseWriter, r *http.Request) {
	serveRangeReport(s, w, r, reportBudgetVsActual, s.bvaCache, s.services.Reports.BudgetVsActual)
}

func (s *Server) handleAccountBalances(w http.ResponseWriter, r *http.Request) {
	report, hit, err := s.balancesCache.GetOrLoad(r.Context(), reportAccountBalances, s.services.Reports.AccountBalances)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.recordReport(r, reportAccountBalances, "", "", hit)
	NewJSONResponse().Body(report).Write(w)
}

// serveRangeReport answers a report over the required startDate/endDate
// query, caching by range until the next write.
func serveRangeReport[T any](s *Server, w http.ResponseWriter, r *http.Request, name string,
	loader *cache.Loader[T], compute func(context.Context, core.DateRange) (T, error)) {
	rng, err := ParseDateRange(r.URL.Query(), true)
	if err != nil {
		writeError(w, r, err)
		return
	}
	start, end := rng.Start.String(), rng.End.String()

	report, hit, err := loader.GetOrLoad(r.Context(), name+":"+start+":"+end, func(ctx context.Context) (T, error) {
		return compute(ctx, *rng)
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.recordReport(r, name, start, end, hit)
	NewJSONResponse().Body(report).Write(w)
}

func (s *Server) recordReport(r *http.Request, name, start, end string, hit bool) {
	if hit {
		atomic.AddInt64(&s.appMetrics.cacheHits, 1)
	} else {
		atomic.AddInt64(&s.appMetrics.cacheMisses, 1)
	}
	applog.NewStructuredLogger(applog.FromContext(r.Context())).LogReportServed(r.Context(), name, start, end, hit)
}
