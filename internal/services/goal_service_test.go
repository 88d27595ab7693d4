package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"moliya/internal/core"
)

func TestContributeCrossCurrency(t *testing.T) {
	f := newFixture(t)
	pub := &capturePublisher{}
	svc := NewGoalService(f.repo, pub)
	card := f.account(t, "alice", "Humo Card", f.uzs, "5000000")

	goal, err := f.repo.CreateGoal(context.Background(), core.FinancialGoal{
		Owner: "alice", Title: "New iPhone",
		TargetAmount: d(t, "1200"), CurrentAmount: d(t, "450"),
		CurrencyID: f.usd.ID,
	})
	if err != nil {
		t.Fatalf("create goal: %v", err)
	}

	// 1,280,000 UZS buys exactly 100 USD of progress.
	updated, err := svc.Contribute(context.Background(), "alice", goal.ID, card.ID, d(t, "1280000"))
	if err != nil {
		t.Fatalf("contribute: %v", err)
	}
	if !updated.CurrentAmount.Equal(d(t, "550")) {
		t.Errorf("current = %s USD, want 550", updated.CurrentAmount)
	}
	if updated.ProgressPercent() != 45 {
		t.Errorf("progress = %d, want 45", updated.ProgressPercent())
	}

	acc, err := f.repo.GetAccount(context.Background(), "alice", card.ID)
	if err != nil {
		t.Fatalf("reload account: %v", err)
	}
	if !acc.Balance.Equal(d(t, "3720000")) {
		t.Errorf("balance = %s UZS, want 3720000", acc.Balance)
	}

	txs, err := f.repo.ListTransactions(context.Background(), "alice", time.Now().UTC().Year(), int(time.Now().UTC().Month()))
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("got %d transactions, want 1", len(txs))
	}
	if txs[0].Category != "Goal: New iPhone" {
		t.Errorf("category = %q, want %q", txs[0].Category, "Goal: New iPhone")
	}
	if ids := pub.published(); len(ids) != 1 || ids[0] != txs[0].ID {
		t.Errorf("published ids = %v, want [%d]", ids, txs[0].ID)
	}
}

func TestContributeRejectsNonPositiveAmount(t *testing.T) {
	f := newFixture(t)
	svc := NewGoalService(f.repo, nil)

	if _, err := svc.Contribute(context.Background(), "alice", 1, 1, d(t, "0")); !errors.Is(err, core.ErrInvalidAmount) {
		t.Errorf("error = %v, want ErrInvalidAmount", err)
	}
}

func TestContributeInsufficientFundsLeavesGoalUntouched(t *testing.T) {
	f := newFixture(t)
	svc := NewGoalService(f.repo, nil)
	wallet := f.account(t, "alice", "Cash Wallet", f.usd, "50")

	goal, err := f.repo.CreateGoal(context.Background(), core.FinancialGoal{
		Owner: "alice", Title: "New iPhone",
		TargetAmount: d(t, "1200"), CurrentAmount: d(t, "450"),
		CurrencyID: f.usd.ID,
	})
	if err != nil {
		t.Fatalf("create goal: %v", err)
	}

	if _, err := svc.Contribute(context.Background(), "alice", goal.ID, wallet.ID, d(t, "100")); !errors.Is(err, core.ErrInsufficientFunds) {
		t.Fatalf("error = %v, want ErrInsufficientFunds", err)
	}

	reloaded, err := f.repo.GetGoal(context.Background(), "alice", goal.ID)
	if err != nil {
		t.Fatalf("reload goal: %v", err)
	}
	if !reloaded.CurrentAmount.Equal(d(t, "450")) {
		t.Errorf("current = %s, want unchanged 450", reloaded.CurrentAmount)
	}
	acc, err := f.repo.GetAccount(context.Background(), "alice", wallet.ID)
	if err != nil {
		t.Fatalf("reload account: %v", err)
	}
	if !acc.Balance.Equal(d(t, "50")) {
		t.Errorf("balance = %s, want unchanged 50", acc.Balance)
	}
}

func TestContributeForeignGoal(t *testing.T) {
	f := newFixture(t)
	svc := NewGoalService(f.repo, nil)
	wallet := f.account(t, "alice", "Cash Wallet", f.usd, "500")

	goal, err := f.repo.CreateGoal(context.Background(), core.FinancialGoal{
		Owner: "bob", Title: "Bob's Fund",
		TargetAmount: d(t, "1000"), CurrentAmount: d(t, "0"),
		CurrencyID: f.usd.ID,
	})
	if err != nil {
		t.Fatalf("create goal: %v", err)
	}

	if _, err := svc.Contribute(context.Background(), "alice", goal.ID, wallet.ID, d(t, "100")); !errors.Is(err, core.ErrGoalNotFound) {
		t.Errorf("error = %v, want ErrGoalNotFound", err)
	}
}

func TestProgressCapsAtHundred(t *testing.T) {
	f := newFixture(t)
	svc := NewGoalService(f.repo, nil)

	goal, err := f.repo.CreateGoal(context.Background(), core.FinancialGoal{
		Owner: "alice", Title: "Overfunded",
		TargetAmount: d(t, "100"), CurrentAmount: d(t, "250"),
		CurrencyID: f.usd.ID,
	})
	if err != nil {
		t.Fatalf("create goal: %v", err)
	}

	_, pct, err := svc.Progress(context.Background(), "alice", goal.ID)
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	if pct != 100 {
		t.Errorf("progress = %d, want capped 100", pct)
	}
}
