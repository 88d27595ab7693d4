package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"moliya/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("create repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

// fixture creates a currency and an account with the given balance.
func fixture(t *testing.T, repo *SQLiteRepository, owner, code, rate, balance string) core.Account {
	t.Helper()
	ctx := context.Background()
	cur, err := repo.GetCurrencyByCode(ctx, code)
	if errors.Is(err, core.ErrCurrencyNotFound) {
		cur, err = repo.CreateCurrency(ctx, core.Currency{Code: code, Rate: d(rate)})
	}
	if err != nil {
		t.Fatalf("currency fixture: %v", err)
	}
	acc, err := repo.CreateAccount(ctx, core.Account{
		Owner: owner, Name: owner + " " + code, Type: core.Card,
		Balance: d(balance), CurrencyID: cur.ID,
	})
	if err != nil {
		t.Fatalf("account fixture: %v", err)
	}
	return acc
}

func TestApplyTransactionBalanceMath(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	acc := fixture(t, repo, "alice", "UZS", "1", "1000")
	at := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	steps := []struct {
		kind    core.Kind
		amount  string
		balance string
	}{
		{core.Income, "500", "1500"},
		{core.Expense, "200", "1300"},
		{core.Expense, "1300", "0"},
		{core.Income, "0.25", "0.25"},
	}
	for i, step := range steps {
		tx, err := repo.ApplyTransaction(ctx, ApplyTransactionParams{
			Owner: "alice", AccountID: acc.ID, Amount: d(step.amount),
			Kind: step.kind, Category: "Test", At: at,
		})
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if tx.ID == 0 {
			t.Fatalf("step %d: transaction id not assigned", i)
		}
		got, err := repo.GetAccount(ctx, "alice", acc.ID)
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if !got.Balance.Equal(d(step.balance)) {
			t.Errorf("step %d: balance = %s, want %s", i, got.Balance, step.balance)
		}
	}

	txs, err := repo.ListTransactions(ctx, "alice", 2024, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(txs) != len(steps) {
		t.Errorf("transaction count = %d, want %d", len(txs), len(steps))
	}
}

func TestApplyTransactionInsufficientFunds(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	acc := fixture(t, repo, "alice", "UZS", "1", "100")

	_, err := repo.ApplyTransaction(ctx, ApplyTransactionParams{
		Owner: "alice", AccountID: acc.ID, Amount: d("100.01"),
		Kind: core.Expense, Category: "Food", At: time.Now().UTC(),
	})
	if !errors.Is(err, core.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	// Neither the balance nor the log may change on failure.
	got, err := repo.GetAccount(ctx, "alice", acc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Balance.Equal(d("100")) {
		t.Errorf("balance changed to %s after failed debit", got.Balance)
	}
	now := time.Now().UTC()
	txs, err := repo.ListTransactions(ctx, "alice", now.Year(), int(now.Month()))
	if err != nil {
		t.Fatal(err)
	}
	if len(txs) != 0 {
		t.Errorf("transaction log has %d rows after failed debit", len(txs))
	}
}

func TestApplyTransactionOwnership(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	acc := fixture(t, repo, "alice", "UZS", "1", "100")

	_, err := repo.ApplyTransaction(ctx, ApplyTransactionParams{
		Owner: "mallory", AccountID: acc.ID, Amount: d("10"),
		Kind: core.Income, Category: "Salary", At: time.Now().UTC(),
	})
	if !errors.Is(err, core.ErrAccountNotOwned) {
		t.Fatalf("expected ErrAccountNotOwned, got %v", err)
	}

	_, err = repo.ApplyTransaction(ctx, ApplyTransactionParams{
		Owner: "alice", AccountID: 9999, Amount: d("10"),
		Kind: core.Income, Category: "Salary", At: time.Now().UTC(),
	})
	if !errors.Is(err, core.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestGetAccountDoesNotLeakForeignData(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	acc := fixture(t, repo, "alice", "UZS", "1", "100")

	got, err := repo.GetAccount(ctx, "mallory", acc.ID)
	if !errors.Is(err, core.ErrAccountNotOwned) {
		t.Fatalf("expected ErrAccountNotOwned, got %v", err)
	}
	if got.ID != 0 || got.Owner != "" || !got.Balance.IsZero() {
		t.Errorf("foreign account data leaked: %+v", got)
	}
}

func TestMaterializeRecurringAdvancesNextDate(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	acc := fixture(t, repo, "alice", "UZS", "1", "10000")

	due := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rec, err := repo.CreateRecurring(ctx, "alice", core.RecurringTransaction{
		AccountID: acc.ID, Amount: d("100"), Kind: core.Expense,
		Category: "Rent", Frequency: core.Monthly, NextDate: due,
	})
	if err != nil {
		t.Fatal(err)
	}

	next := rec.NextAfter(rec.NextDate)
	tx, err := repo.MaterializeRecurring(ctx, "alice", rec, "Auto: Rent", due, next)
	if err != nil {
		t.Fatal(err)
	}
	if tx.Category != "Auto: Rent" {
		t.Errorf("category = %q, want %q", tx.Category, "Auto: Rent")
	}

	dues, err := repo.ListDueRecurring(ctx, "alice", due)
	if err != nil {
		t.Fatal(err)
	}
	if len(dues) != 0 {
		t.Errorf("template still due after materialization: %v", dues)
	}

	wantNext := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	laterDues, err := repo.ListDueRecurring(ctx, "alice", wantNext)
	if err != nil {
		t.Fatal(err)
	}
	if len(laterDues) != 1 || !laterDues[0].NextDate.Equal(wantNext) {
		t.Errorf("next_date after materialization = %v, want %v", laterDues, wantNext)
	}
}

func TestMaterializeRecurringDetectsConcurrentAdvance(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	acc := fixture(t, repo, "alice", "UZS", "1", "10000")

	due := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rec, err := repo.CreateRecurring(ctx, "alice", core.RecurringTransaction{
		AccountID: acc.ID, Amount: d("100"), Kind: core.Expense,
		Category: "Rent", Frequency: core.Weekly, NextDate: due,
	})
	if err != nil {
		t.Fatal(err)
	}

	next := rec.NextAfter(rec.NextDate)
	if _, err := repo.MaterializeRecurring(ctx, "alice", rec, "Auto: Rent", due, next); err != nil {
		t.Fatal(err)
	}

	// Second call with the stale snapshot must roll back entirely.
	_, err = repo.MaterializeRecurring(ctx, "alice", rec, "Auto: Rent", due, next)
	if !errors.Is(err, core.ErrRecurringNotFound) {
		t.Fatalf("expected ErrRecurringNotFound on stale advance, got %v", err)
	}
	got, err := repo.GetAccount(ctx, "alice", acc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Balance.Equal(d("9900")) {
		t.Errorf("balance = %s after aborted double materialization, want 9900", got.Balance)
	}
}

func TestFindBudgetCaseInsensitive(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	cur, err := repo.CreateCurrency(ctx, core.Currency{Code: "UZS", Rate: d("1")})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := repo.CreateBudget(ctx, core.Budget{
		Owner: "alice", Category: "Food", LimitAmount: d("500000"),
		CurrencyID: cur.ID, Month: 3, Year: 2024,
	}); err != nil {
		t.Fatal(err)
	}

	for _, cat := range []string{"Food", "food", "FOOD", " food "} {
		b, err := repo.FindBudget(ctx, "alice", cat, 3, 2024)
		if err != nil {
			t.Errorf("FindBudget(%q) error = %v", cat, err)
			continue
		}
		if b.Category != "Food" {
			t.Errorf("FindBudget(%q) category = %q", cat, b.Category)
		}
	}

	// Stored spacing must not matter either.
	if _, err := repo.CreateBudget(ctx, core.Budget{
		Owner: "alice", Category: " Grocery ", LimitAmount: d("100000"),
		CurrencyID: cur.ID, Month: 3, Year: 2024,
	}); err != nil {
		t.Fatal(err)
	}
	b, err := repo.FindBudget(ctx, "alice", "grocery", 3, 2024)
	if err != nil {
		t.Fatalf("FindBudget with untrimmed stored category: %v", err)
	}
	if !b.LimitAmount.Equal(d("100000")) {
		t.Errorf("FindBudget picked the wrong row: %+v", b)
	}

	if _, err := repo.FindBudget(ctx, "alice", "Food", 4, 2024); !errors.Is(err, core.ErrBudgetNotFound) {
		t.Errorf("wrong month: got %v, want ErrBudgetNotFound", err)
	}
	if _, err := repo.FindBudget(ctx, "bob", "Food", 3, 2024); !errors.Is(err, core.ErrBudgetNotFound) {
		t.Errorf("wrong owner: got %v, want ErrBudgetNotFound", err)
	}
}

func TestSumExpensesByCategory(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	uzsAcc := fixture(t, repo, "alice", "UZS", "1", "10000000")
	usdAcc := fixture(t, repo, "alice", "USD", "12800", "1000")
	otherOwner := fixture(t, repo, "bob", "UZS", "1", "10000000")

	march := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	april := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)

	apply := func(acc core.Account, owner, amount, category string, kind core.Kind, at time.Time) {
		t.Helper()
		if _, err := repo.ApplyTransaction(ctx, ApplyTransactionParams{
			Owner: owner, AccountID: acc.ID, Amount: d(amount),
			Kind: kind, Category: category, At: at,
		}); err != nil {
			t.Fatal(err)
		}
	}

	apply(uzsAcc, "alice", "450000", "Food", core.Expense, march)
	apply(uzsAcc, "alice", "100000", "food", core.Expense, march) // case-insensitive match
	apply(usdAcc, "alice", "10", "FOOD", core.Expense, march)     // other currency
	apply(uzsAcc, "alice", "99999", "Transport", core.Expense, march)
	apply(uzsAcc, "alice", "77777", "Food", core.Income, march)  // wrong kind
	apply(uzsAcc, "alice", "55555", "Food", core.Expense, april) // out of window
	apply(otherOwner, "bob", "11111", "Food", core.Expense, march)

	sums, err := repo.SumExpensesByCategory(ctx, "alice", "Food", 3, 2024)
	if err != nil {
		t.Fatal(err)
	}
	if len(sums) != 2 {
		t.Fatalf("currency groups = %d, want 2 (%v)", len(sums), sums)
	}
	byCode := map[string]core.CurrencySum{}
	for _, s := range sums {
		byCode[s.CurrencyCode] = s
	}
	if !byCode["UZS"].Total.Equal(d("550000")) {
		t.Errorf("UZS total = %s, want 550000", byCode["UZS"].Total)
	}
	if !byCode["USD"].Total.Equal(d("10")) || !byCode["USD"].Rate.Equal(d("12800")) {
		t.Errorf("USD sum = %+v, want total 10 rate 12800", byCode["USD"])
	}
}

func TestMonthWindowFractionalSeconds(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	acc := fixture(t, repo, "alice", "UZS", "1", "10000")

	// time.Now() stamps almost always carry a fractional part, so the
	// first instant of a month must still land inside that month.
	firstOfMarch := time.Date(2024, 3, 1, 0, 0, 0, 500_000_000, time.UTC)
	lastOfFebruary := time.Date(2024, 2, 29, 23, 59, 59, 999_999_999, time.UTC)

	apply := func(amount string, at time.Time) {
		t.Helper()
		if _, err := repo.ApplyTransaction(ctx, ApplyTransactionParams{
			Owner: "alice", AccountID: acc.ID, Amount: d(amount),
			Kind: core.Expense, Category: "Food", At: at,
		}); err != nil {
			t.Fatal(err)
		}
	}
	apply("100", firstOfMarch)
	apply("70", lastOfFebruary)

	march, err := repo.SumExpensesByCategory(ctx, "alice", "Food", 3, 2024)
	if err != nil {
		t.Fatal(err)
	}
	if len(march) != 1 || !march[0].Total.Equal(d("100")) {
		t.Errorf("march sums = %+v, want single UZS total 100", march)
	}
	february, err := repo.SumExpensesByCategory(ctx, "alice", "Food", 2, 2024)
	if err != nil {
		t.Fatal(err)
	}
	if len(february) != 1 || !february[0].Total.Equal(d("70")) {
		t.Errorf("february sums = %+v, want single UZS total 70", february)
	}

	marchTxs, err := repo.ListTransactions(ctx, "alice", 2024, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(marchTxs) != 1 || !marchTxs[0].Date.Equal(firstOfMarch) {
		t.Errorf("march transactions = %+v, want the boundary expense only", marchTxs)
	}
}

func TestContributeToGoalAtomic(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	acc := fixture(t, repo, "alice", "USD", "12800", "500")
	usd, err := repo.GetCurrencyByCode(ctx, "USD")
	if err != nil {
		t.Fatal(err)
	}
	goal, err := repo.CreateGoal(ctx, core.FinancialGoal{
		Owner: "alice", Title: "New iPhone",
		TargetAmount: d("1200"), CurrentAmount: d("450"), CurrencyID: usd.ID,
	})
	if err != nil {
		t.Fatal(err)
	}

	tx, updated, err := repo.ContributeToGoal(ctx, ContributeParams{
		Owner: "alice", GoalID: goal.ID, AccountID: acc.ID,
		Amount: d("100"), Converted: d("100"),
		Category: "Goal: New iPhone", At: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatal(err)
	}
	if tx.Kind != core.Expense || tx.Category != "Goal: New iPhone" {
		t.Errorf("contribution transaction = %+v", tx)
	}
	if !updated.CurrentAmount.Equal(d("550")) {
		t.Errorf("goal current = %s, want 550", updated.CurrentAmount)
	}
	if updated.ProgressPercent() != 45 {
		t.Errorf("progress = %d, want 45", updated.ProgressPercent())
	}

	got, err := repo.GetAccount(ctx, "alice", acc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Balance.Equal(d("400")) {
		t.Errorf("balance = %s, want 400", got.Balance)
	}
}

func TestContributeToGoalInsufficientFundsRollsBack(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	acc := fixture(t, repo, "alice", "USD", "12800", "50")
	usd, err := repo.GetCurrencyByCode(ctx, "USD")
	if err != nil {
		t.Fatal(err)
	}
	goal, err := repo.CreateGoal(ctx, core.FinancialGoal{
		Owner: "alice", Title: "Vacation", TargetAmount: d("1000"),
		CurrentAmount: d("0"), CurrencyID: usd.ID,
	})
	if err != nil {
		t.Fatal(err)
	}

	_, _, err = repo.ContributeToGoal(ctx, ContributeParams{
		Owner: "alice", GoalID: goal.ID, AccountID: acc.ID,
		Amount: d("100"), Converted: d("100"),
		Category: "Goal: Vacation", At: time.Now().UTC(),
	})
	if !errors.Is(err, core.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	g, err := repo.GetGoal(ctx, "alice", goal.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !g.CurrentAmount.IsZero() {
		t.Errorf("goal current = %s after failed contribution, want 0", g.CurrentAmount)
	}
}

func TestGetTransactionDetail(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	acc := fixture(t, repo, "alice", "USD", "12800", "500")

	at := time.Date(2024, 6, 2, 9, 30, 0, 0, time.UTC)
	tx, err := repo.ApplyTransaction(ctx, ApplyTransactionParams{
		Owner: "alice", AccountID: acc.ID, Amount: d("25.50"),
		Kind: core.Expense, Category: "Shopping", At: at,
	})
	if err != nil {
		t.Fatal(err)
	}

	detail, err := repo.GetTransactionDetail(ctx, tx.ID)
	if err != nil {
		t.Fatal(err)
	}
	if detail.Owner != "alice" || detail.CurrencyCode != "USD" || detail.AccountName != acc.Name {
		t.Errorf("detail = %+v", detail)
	}
	if !detail.Transaction.Amount.Equal(d("25.50")) || !detail.Transaction.Date.Equal(at) {
		t.Errorf("detail transaction = %+v", detail.Transaction)
	}
}

func TestSeedIsIdempotent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.Seed(ctx, "test@example.com"); err != nil {
		t.Fatal(err)
	}
	if err := repo.Seed(ctx, "test@example.com"); err != nil {
		t.Fatal(err)
	}

	accounts, err := repo.ListAccounts(ctx, "test@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if len(accounts) != 2 {
		t.Errorf("accounts after double seed = %d, want 2", len(accounts))
	}
	usd, err := repo.GetCurrencyByCode(ctx, "USD")
	if err != nil {
		t.Fatal(err)
	}
	if !usd.Rate.Equal(d("12800")) {
		t.Errorf("USD rate = %s, want 12800", usd.Rate)
	}
}
