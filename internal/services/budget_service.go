package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"moliya/internal/core"
)

// BudgetService computes per-category spend against monthly limits.
// All comparisons happen in the budget's own currency.
type BudgetService struct {
	store Store
}

func NewBudgetService(store Store) *BudgetService {
	return &BudgetService{store: store}
}

// Spent sums the owner's expenses matching the budget's category and
// month, converted into the budget's currency.
func (s *BudgetService) Spent(ctx context.Context, owner string, b core.Budget) (decimal.Decimal, error) {
	budgetCurrency, err := s.store.GetCurrency(ctx, b.CurrencyID)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("budget currency: %w", err)
	}
	sums, err := s.store.SumExpensesByCategory(ctx, owner, b.Category, b.Month, b.Year)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("sum expenses: %w", err)
	}

	spent := decimal.Zero
	for _, sum := range sums {
		converted, err := core.Convert(sum.Total, core.Currency{Code: sum.CurrencyCode, Rate: sum.Rate}, budgetCurrency)
		if err != nil {
			return decimal.Decimal{}, fmt.Errorf("convert %s spend: %w", sum.CurrencyCode, err)
		}
		spent = spent.Add(converted)
	}
	return spent, nil
}

// Status reports how far along a budget is. Percent is not capped, so a
// blown budget reads over 100.
func (s *BudgetService) Status(ctx context.Context, owner string, budgetID int64) (core.BudgetStatus, error) {
	b, err := s.store.GetBudget(ctx, owner, budgetID)
	if err != nil {
		return core.BudgetStatus{}, err
	}
	spent, err := s.Spent(ctx, owner, b)
	if err != nil {
		return core.BudgetStatus{}, err
	}
	return core.BudgetStatus{
		Budget:  b,
		Spent:   spent,
		Limit:   b.LimitAmount,
		Percent: b.PercentUsed(spent),
	}, nil
}

// CheckBeforeCommit reports whether adding amount (in accountCurrency)
// to the matching budget's month would push it past its limit. No
// matching budget means no objection.
func (s *BudgetService) CheckBeforeCommit(ctx context.Context, owner, category string, amount decimal.Decimal, accountCurrency core.Currency, month, year int) (bool, error) {
	b, err := s.store.FindBudget(ctx, owner, category, month, year)
	if err != nil {
		if errors.Is(err, core.ErrBudgetNotFound) {
			return false, nil
		}
		return false, err
	}
	spent, err := s.Spent(ctx, owner, b)
	if err != nil {
		return false, err
	}
	budgetCurrency, err := s.store.GetCurrency(ctx, b.CurrencyID)
	if err != nil {
		return false, fmt.Errorf("budget currency: %w", err)
	}
	pending, err := core.Convert(amount, accountCurrency, budgetCurrency)
	if err != nil {
		return false, fmt.Errorf("convert pending amount: %w", err)
	}
	return spent.Add(pending).GreaterThan(b.LimitAmount), nil
}
