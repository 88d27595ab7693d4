package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"moliya/internal/core"
)

// Seed loads a small development dataset: the base currency plus USD and
// RUB rates, two accounts and a savings goal for one owner. Safe to call
// only on an empty database.
func (r *SQLiteRepository) Seed(ctx context.Context, owner string) error {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM currencies`).Scan(&n); err != nil {
		return fmt.Errorf("count currencies: %w", err)
	}
	if n > 0 {
		slog.InfoContext(ctx, "Seed skipped, database not empty")
		return nil
	}

	uzs, err := r.CreateCurrency(ctx, core.Currency{Code: "UZS", Name: "Uzbek som", Rate: decimal.NewFromInt(1)})
	if err != nil {
		return fmt.Errorf("seed UZS: %w", err)
	}
	usd, err := r.CreateCurrency(ctx, core.Currency{Code: "USD", Name: "US dollar", Symbol: "$", Rate: decimal.NewFromInt(12800)})
	if err != nil {
		return fmt.Errorf("seed USD: %w", err)
	}
	if _, err := r.CreateCurrency(ctx, core.Currency{Code: "RUB", Name: "Russian ruble", Rate: decimal.NewFromInt(140)}); err != nil {
		return fmt.Errorf("seed RUB: %w", err)
	}

	if _, err := r.CreateAccount(ctx, core.Account{
		Owner: owner, Name: "Humo Card", Type: core.Card,
		Balance: decimal.NewFromInt(5000000), CurrencyID: uzs.ID,
	}); err != nil {
		return fmt.Errorf("seed card account: %w", err)
	}
	if _, err := r.CreateAccount(ctx, core.Account{
		Owner: owner, Name: "Cash Wallet", Type: core.Cash,
		Balance: decimal.NewFromInt(100), CurrencyID: usd.ID,
	}); err != nil {
		return fmt.Errorf("seed cash account: %w", err)
	}

	if _, err := r.CreateGoal(ctx, core.FinancialGoal{
		Owner: owner, Title: "New iPhone",
		TargetAmount:  decimal.NewFromInt(1200),
		CurrentAmount: decimal.NewFromInt(450),
		CurrencyID:    usd.ID,
	}); err != nil {
		return fmt.Errorf("seed goal: %w", err)
	}

	slog.InfoContext(ctx, "Seed data created", "owner", owner)
	return nil
}
