package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"moliya/internal/cache"
	"moliya/internal/core"
	"moliya/internal/storage"
)

const (
	currencyCacheSize = 64
	currencyCacheTTL  = 5 * time.Minute
)

// LedgerService is the entry point for direct transaction entry and
// currency conversion. Every balance mutation goes through the store's
// atomic apply-and-record unit.
type LedgerService struct {
	store      Store
	budgets    *BudgetService
	publisher  EventPublisher
	currencies *cache.TTLCache[core.Currency]
	now        func() time.Time
}

func NewLedgerService(store Store, budgets *BudgetService, publisher EventPublisher) *LedgerService {
	return &LedgerService{
		store:      store,
		budgets:    budgets,
		publisher:  publisher,
		currencies: cache.New[core.Currency](currencyCacheSize, currencyCacheTTL),
		now:        time.Now,
	}
}

// CreateTransactionResult pairs the recorded transaction with the
// advisory budget signal. BudgetExceeded never blocks the commit.
type CreateTransactionResult struct {
	Transaction    core.Transaction
	BudgetExceeded bool
}

func (s *LedgerService) CreateTransaction(ctx context.Context, owner string, accountID int64, amount decimal.Decimal, kind core.Kind, category string) (CreateTransactionResult, error) {
	category = strings.TrimSpace(category)
	if err := (core.Transaction{Amount: amount, Kind: kind, Category: category}).Validate(); err != nil {
		return CreateTransactionResult{}, err
	}

	account, err := s.store.GetAccount(ctx, owner, accountID)
	if err != nil {
		return CreateTransactionResult{}, fmt.Errorf("load account: %w", err)
	}

	// Stored dates are UTC, so period matching has to be too.
	at := s.now().UTC()

	// Advisory only. A failed check is logged and ignored so budget
	// trouble can never block a valid ledger entry.
	exceeded := false
	if kind == core.Expense {
		accountCurrency, curErr := s.store.GetCurrency(ctx, account.CurrencyID)
		if curErr != nil {
			slog.WarnContext(ctx, "Budget check skipped, currency unavailable",
				"account_id", accountID, "error", curErr)
		} else {
			exceeded, curErr = s.budgets.CheckBeforeCommit(ctx, owner, category, amount, accountCurrency, int(at.Month()), at.Year())
			if curErr != nil {
				slog.WarnContext(ctx, "Budget check failed",
					"owner", owner, "category", category, "error", curErr)
				exceeded = false
			}
		}
	}

	tx, err := s.store.ApplyTransaction(ctx, storage.ApplyTransactionParams{
		Owner:     owner,
		AccountID: accountID,
		Amount:    amount,
		Kind:      kind,
		Category:  category,
		At:        at,
	})
	if err != nil {
		return CreateTransactionResult{}, err
	}

	if exceeded {
		slog.WarnContext(ctx, "Budget limit exceeded",
			"owner", owner, "category", category, "transaction_id", tx.ID)
	}

	publishRecorded(ctx, s.publisher, tx.ID)

	return CreateTransactionResult{Transaction: tx, BudgetExceeded: exceeded}, nil
}

// Convert translates an amount between two currency codes using the
// stored rates. Lookups are cached briefly; external rate updates become
// visible when the cache entry expires.
func (s *LedgerService) Convert(ctx context.Context, amount decimal.Decimal, fromCode, toCode string) (decimal.Decimal, error) {
	from, err := s.currency(ctx, fromCode)
	if err != nil {
		return decimal.Decimal{}, err
	}
	to, err := s.currency(ctx, toCode)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return core.Convert(amount, from, to)
}

// Overview lists the owner's accounts with every balance converted into
// one display currency and summed.
func (s *LedgerService) Overview(ctx context.Context, owner, targetCode string) (core.LedgerOverview, error) {
	target, err := s.currency(ctx, targetCode)
	if err != nil {
		return core.LedgerOverview{}, err
	}
	accounts, err := s.store.ListAccounts(ctx, owner)
	if err != nil {
		return core.LedgerOverview{}, fmt.Errorf("list accounts: %w", err)
	}

	total := decimal.Zero
	for _, a := range accounts {
		cur, err := s.store.GetCurrency(ctx, a.CurrencyID)
		if err != nil {
			return core.LedgerOverview{}, fmt.Errorf("account %d currency: %w", a.ID, err)
		}
		converted, err := core.Convert(a.Balance, cur, target)
		if err != nil {
			return core.LedgerOverview{}, fmt.Errorf("convert balance of account %d: %w", a.ID, err)
		}
		total = total.Add(converted)
	}

	return core.LedgerOverview{
		Accounts:     accounts,
		Total:        total,
		CurrencyCode: target.Code,
		AsOf:         s.now(),
	}, nil
}

// ListTransactions returns the owner's transactions for one month.
func (s *LedgerService) ListTransactions(ctx context.Context, owner string, year, month int) ([]core.Transaction, error) {
	return s.store.ListTransactions(ctx, owner, year, month)
}

func (s *LedgerService) currency(ctx context.Context, code string) (core.Currency, error) {
	key := strings.ToUpper(strings.TrimSpace(code))
	if cur, ok := s.currencies.Get(key); ok {
		return cur, nil
	}
	cur, err := s.store.GetCurrencyByCode(ctx, key)
	if err != nil {
		return core.Currency{}, err
	}
	s.currencies.Set(key, cur)
	return cur, nil
}

// publishRecorded fans a recorded-transaction event out to the broker.
// Failure is logged, never surfaced: the ledger row is already durable.
func publishRecorded(ctx context.Context, pub EventPublisher, transactionID int64) {
	if pub == nil {
		return
	}
	if err := pub.PublishTransactionRecorded(ctx, transactionID); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			"transaction_id", transactionID, "error", err)
	}
}
