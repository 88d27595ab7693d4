// Package services provides the ledger operations: transaction entry,
// currency conversion, recurring materialization, budget tracking and
// goal contributions. Services hold no state of their own; persistence
// goes through the Store port.
package services

import (
	"context"
	"time"

	"moliya/internal/core"
	"moliya/internal/storage"
)

// Store is the persistence port the services operate against. The
// SQLite repository is the production implementation; tests may
// substitute their own.
type Store interface {
	GetCurrency(ctx context.Context, id int64) (core.Currency, error)
	GetCurrencyByCode(ctx context.Context, code string) (core.Currency, error)

	GetAccount(ctx context.Context, owner string, id int64) (core.Account, error)
	ListAccounts(ctx context.Context, owner string) ([]core.Account, error)

	ApplyTransaction(ctx context.Context, p storage.ApplyTransactionParams) (core.Transaction, error)
	ListTransactions(ctx context.Context, owner string, year, month int) ([]core.Transaction, error)

	ListDueRecurring(ctx context.Context, owner string, asOf time.Time) ([]core.RecurringTransaction, error)
	ListOwnersWithDueRecurring(ctx context.Context, asOf time.Time) ([]string, error)
	MaterializeRecurring(ctx context.Context, owner string, rec core.RecurringTransaction, category string, at, next time.Time) (core.Transaction, error)

	GetBudget(ctx context.Context, owner string, id int64) (core.Budget, error)
	FindBudget(ctx context.Context, owner, category string, month, year int) (core.Budget, error)
	SumExpensesByCategory(ctx context.Context, owner, category string, month, year int) ([]core.CurrencySum, error)

	GetGoal(ctx context.Context, owner string, id int64) (core.FinancialGoal, error)
	ContributeToGoal(ctx context.Context, p storage.ContributeParams) (core.Transaction, core.FinancialGoal, error)
}

// The repository must keep satisfying the port.
var _ Store = (*storage.SQLiteRepository)(nil)

// EventPublisher notifies downstream consumers about recorded
// transactions. Publishing is best-effort: the ledger mutation is the
// source of truth and never waits on the broker.
type EventPublisher interface {
	PublishTransactionRecorded(ctx context.Context, transactionID int64) error
}
