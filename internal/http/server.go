// Package http exposes the ledger as a JSON API. Callers identify
// themselves with the X-Owner-ID header; the server treats owner ids as
// opaque strings.
package http

import (
	"net/http"
	"time"

	"moliya/internal/middleware/ratelimit"
	"moliya/internal/middleware/trace"
	"moliya/internal/services"
)

type Server struct {
	ledger    *services.LedgerService
	budgets   *services.BudgetService
	goals     *services.GoalService
	recurring *services.RecurringProcessor

	baseCurrency string
	limiter      *ratelimit.Limiter
}

// NewServer wires the API routes and middleware into an *http.Server
// ready to ListenAndServe.
func NewServer(addr string, ledger *services.LedgerService, budgets *services.BudgetService, goals *services.GoalService, recurring *services.RecurringProcessor, baseCurrency string) *http.Server {
	s := &Server{
		ledger:       ledger,
		budgets:      budgets,
		goals:        goals,
		recurring:    recurring,
		baseCurrency: baseCurrency,
		limiter:      ratelimit.NewLimiter(120),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("GET /api/ledger", s.handleLedger)
	mux.HandleFunc("GET /api/convert", s.handleConvert)
	mux.HandleFunc("GET /api/budgets/{id}/status", s.handleBudgetStatus)
	mux.HandleFunc("GET /api/goals/{id}", s.handleGoalProgress)
	mux.HandleFunc("POST /api/goals/{id}/contributions", s.handleGoalContribution)

	handler := s.limiter.Middleware(callerKey)(mux)
	handler = trace.Middleware(handler)

	return &http.Server{
		Addr:           addr,
		Handler:        handler,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 16,
	}
}

// callerKey picks the rate-limit bucket: the owner when identified,
// the remote address otherwise.
func callerKey(r *http.Request) string {
	if owner := r.Header.Get(ownerHeader); owner != "" {
		return owner
	}
	return r.RemoteAddr
}
