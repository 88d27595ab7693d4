package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"moliya/internal/core"
)

const ownerHeader = "X-Owner-ID"

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type createTransactionRequest struct {
	AccountID int64  `json:"account_id"`
	Amount    string `json:"amount"`
	Kind      string `json:"kind"`
	Category  string `json:"category"`
}

type transactionResponse struct {
	ID             int64  `json:"id"`
	AccountID      int64  `json:"account_id"`
	Amount         string `json:"amount"`
	Kind           string `json:"kind"`
	Category       string `json:"category"`
	Date           string `json:"date"`
	BudgetExceeded bool   `json:"budget_exceeded,omitempty"`
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	var req createTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	res, err := s.ledger.CreateTransaction(r.Context(), owner, req.AccountID, amount,
		core.Kind(strings.ToUpper(strings.TrimSpace(req.Kind))), req.Category)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, transactionResponse{
		ID:             res.Transaction.ID,
		AccountID:      res.Transaction.AccountID,
		Amount:         res.Transaction.Amount.String(),
		Kind:           string(res.Transaction.Kind),
		Category:       res.Transaction.Category,
		Date:           res.Transaction.Date.Format(time.RFC3339),
		BudgetExceeded: res.BudgetExceeded,
	})
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}
	year, month := parseYearMonth(r)

	txs, err := s.ledger.ListTransactions(r.Context(), owner, year, month)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	out := make([]transactionResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, transactionResponse{
			ID:        tx.ID,
			AccountID: tx.AccountID,
			Amount:    tx.Amount.String(),
			Kind:      string(tx.Kind),
			Category:  tx.Category,
			Date:      tx.Date.Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"year":         year,
		"month":        month,
		"transactions": out,
	})
}

type accountResponse struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Type    string `json:"type"`
	Balance string `json:"balance"`
}

// handleLedger materializes any due recurring entries first, so the
// overview the caller sees already includes scheduled activity.
func (s *Server) handleLedger(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	if _, err := s.recurring.MaterializeDue(r.Context(), owner, time.Now()); err != nil {
		// The overview is still valid without the latest recurring
		// entries; log and continue.
		slog.ErrorContext(r.Context(), "Recurring materialization failed on ledger view",
			"owner", owner, "error", err)
	}

	currency := strings.TrimSpace(r.URL.Query().Get("currency"))
	if currency == "" {
		currency = s.baseCurrency
	}

	ov, err := s.ledger.Overview(r.Context(), owner, currency)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	accounts := make([]accountResponse, 0, len(ov.Accounts))
	for _, a := range ov.Accounts {
		accounts = append(accounts, accountResponse{
			ID:      a.ID,
			Name:    a.Name,
			Type:    string(a.Type),
			Balance: a.Balance.String(),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"accounts": accounts,
		"total":    ov.Total.String(),
		"currency": ov.CurrencyCode,
		"as_of":    ov.AsOf.Format(time.RFC3339),
	})
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireOwner(w, r); !ok {
		return
	}

	q := r.URL.Query()
	amount, err := core.ParseAmount(q.Get("amount"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	from := strings.TrimSpace(q.Get("from"))
	to := strings.TrimSpace(q.Get("to"))
	if from == "" || to == "" {
		writeError(w, http.StatusBadRequest, "from and to currency codes are required")
		return
	}

	converted, err := s.ledger.Convert(r.Context(), amount, from, to)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"amount":    amount.String(),
		"from":      strings.ToUpper(from),
		"to":        strings.ToUpper(to),
		"converted": converted.String(),
	})
}

func (s *Server) handleBudgetStatus(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid budget id")
		return
	}

	st, err := s.budgets.Status(r.Context(), owner, id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"budget_id": st.Budget.ID,
		"category":  st.Budget.Category,
		"month":     st.Budget.Month,
		"year":      st.Budget.Year,
		"limit":     st.Limit.String(),
		"spent":     st.Spent.String(),
		"percent":   st.Percent,
		"exceeded":  st.Spent.GreaterThan(st.Limit),
	})
}

func (s *Server) handleGoalProgress(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid goal id")
		return
	}

	goal, pct, err := s.goals.Progress(r.Context(), owner, id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, goalResponse(goal, pct))
}

type contributeRequest struct {
	AccountID int64  `json:"account_id"`
	Amount    string `json:"amount"`
}

func (s *Server) handleGoalContribution(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid goal id")
		return
	}

	var req contributeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	goal, err := s.goals.Contribute(r.Context(), owner, id, req.AccountID, amount)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, goalResponse(goal, goal.ProgressPercent()))
}

func goalResponse(g core.FinancialGoal, pct int) map[string]any {
	return map[string]any{
		"goal_id":        g.ID,
		"title":          g.Title,
		"target_amount":  g.TargetAmount.String(),
		"current_amount": g.CurrentAmount.String(),
		"progress":       pct,
	}
}

// --- helpers ---

func requireOwner(w http.ResponseWriter, r *http.Request) (string, bool) {
	owner := strings.TrimSpace(r.Header.Get(ownerHeader))
	if owner == "" {
		writeError(w, http.StatusUnauthorized, "missing "+ownerHeader+" header")
		return "", false
	}
	return owner, true
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

// parseYearMonth reads year and month query parameters, defaulting to
// the current UTC month to match how dates are stored.
func parseYearMonth(r *http.Request) (year, month int) {
	now := time.Now().UTC()
	year = now.Year()
	month = int(now.Month())

	if v := strings.TrimSpace(r.URL.Query().Get("year")); v != "" {
		if y, err := strconv.Atoi(v); err == nil {
			year = y
		}
	}
	if v := strings.TrimSpace(r.URL.Query().Get("month")); v != "" {
		if m, err := strconv.Atoi(v); err == nil && m >= 1 && m <= 12 {
			month = m
		}
	}
	return year, month
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeDomainError maps core errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidCategory),
		errors.Is(err, core.ErrInvalidKind),
		errors.Is(err, core.ErrInvalidFrequency),
		errors.Is(err, core.ErrInvalidCurrency):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, core.ErrAccountNotOwned):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, core.ErrAccountNotFound),
		errors.Is(err, core.ErrCurrencyNotFound),
		errors.Is(err, core.ErrBudgetNotFound),
		errors.Is(err, core.ErrGoalNotFound),
		errors.Is(err, core.ErrRecurringNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, core.ErrInsufficientFunds):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		slog.ErrorContext(r.Context(), "Request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
