package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"moliya/internal/core"
	"moliya/internal/storage"
)

// GoalService moves money from an account into a savings goal. The
// debit and the goal update commit in one transaction.
type GoalService struct {
	store     Store
	publisher EventPublisher
	now       func() time.Time
}

func NewGoalService(store Store, publisher EventPublisher) *GoalService {
	return &GoalService{store: store, publisher: publisher, now: time.Now}
}

// Contribute debits amount from the account and credits the goal with
// the equivalent in the goal's currency. The ledger entry is categorized
// under the goal's title.
func (s *GoalService) Contribute(ctx context.Context, owner string, goalID, accountID int64, amount decimal.Decimal) (core.FinancialGoal, error) {
	if amount.Sign() <= 0 {
		return core.FinancialGoal{}, core.ErrInvalidAmount
	}

	goal, err := s.store.GetGoal(ctx, owner, goalID)
	if err != nil {
		return core.FinancialGoal{}, err
	}
	account, err := s.store.GetAccount(ctx, owner, accountID)
	if err != nil {
		return core.FinancialGoal{}, err
	}

	accountCurrency, err := s.store.GetCurrency(ctx, account.CurrencyID)
	if err != nil {
		return core.FinancialGoal{}, fmt.Errorf("account currency: %w", err)
	}
	goalCurrency, err := s.store.GetCurrency(ctx, goal.CurrencyID)
	if err != nil {
		return core.FinancialGoal{}, fmt.Errorf("goal currency: %w", err)
	}
	converted, err := core.Convert(amount, accountCurrency, goalCurrency)
	if err != nil {
		return core.FinancialGoal{}, fmt.Errorf("convert contribution: %w", err)
	}

	tx, updated, err := s.store.ContributeToGoal(ctx, storage.ContributeParams{
		Owner:     owner,
		GoalID:    goalID,
		AccountID: accountID,
		Amount:    amount,
		Converted: converted,
		Category:  "Goal: " + goal.Title,
		At:        s.now(),
	})
	if err != nil {
		return core.FinancialGoal{}, err
	}

	slog.InfoContext(ctx, "Goal contribution recorded",
		"owner", owner,
		"goal_id", goalID,
		"transaction_id", tx.ID,
		"progress_percent", updated.ProgressPercent())

	publishRecorded(ctx, s.publisher, tx.ID)

	return updated, nil
}

// Progress fetches a goal and its capped completion percentage.
func (s *GoalService) Progress(ctx context.Context, owner string, goalID int64) (core.FinancialGoal, int, error) {
	goal, err := s.store.GetGoal(ctx, owner, goalID)
	if err != nil {
		return core.FinancialGoal{}, 0, err
	}
	return goal, goal.ProgressPercent(), nil
}
