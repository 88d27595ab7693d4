// Package storage implements the persistence port on SQLite: plain-data
// reads plus the atomic units of work that pair a balance change with
// its transaction record.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"moliya/internal/core"

	_ "modernc.org/sqlite"
)

// dateLayout pads nanoseconds to nine digits. RFC3339Nano trims trailing
// zeros, and variable-width strings break the TEXT range comparisons the
// month windows and due queries rely on.
const dateLayout = "2006-01-02T15:04:05.000000000Z07:00"

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// A single connection serializes every write transaction, which is
	// the row-locking guarantee the debit/credit path depends on.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA foreign_keys = ON; PRAGMA busy_timeout = 5000;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("set pragmas: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// withTx runs fn inside a transaction, rolling back on error. Every
// mutation below either fully commits or leaves no partial state.
func (r *SQLiteRepository) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// --- currencies ---

func (r *SQLiteRepository) CreateCurrency(ctx context.Context, c core.Currency) (core.Currency, error) {
	if err := c.Validate(); err != nil {
		return core.Currency{}, err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO currencies (code, name, symbol, rate) VALUES (?, ?, ?, ?)`,
		strings.ToUpper(c.Code), c.Name, c.Symbol, c.Rate.String())
	if err != nil {
		return core.Currency{}, fmt.Errorf("insert currency: %w", err)
	}
	c.ID, err = res.LastInsertId()
	if err != nil {
		return core.Currency{}, fmt.Errorf("currency id: %w", err)
	}
	c.Code = strings.ToUpper(c.Code)
	return c, nil
}

func (r *SQLiteRepository) GetCurrency(ctx context.Context, id int64) (core.Currency, error) {
	return r.scanCurrency(r.db.QueryRowContext(ctx,
		`SELECT id, code, name, symbol, rate FROM currencies WHERE id = ?`, id))
}

func (r *SQLiteRepository) GetCurrencyByCode(ctx context.Context, code string) (core.Currency, error) {
	return r.scanCurrency(r.db.QueryRowContext(ctx,
		`SELECT id, code, name, symbol, rate FROM currencies WHERE code = ?`, strings.ToUpper(strings.TrimSpace(code))))
}

func (r *SQLiteRepository) scanCurrency(row *sql.Row) (core.Currency, error) {
	var c core.Currency
	var rate string
	err := row.Scan(&c.ID, &c.Code, &c.Name, &c.Symbol, &rate)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Currency{}, core.ErrCurrencyNotFound
	}
	if err != nil {
		return core.Currency{}, fmt.Errorf("scan currency: %w", err)
	}
	c.Rate, err = decimal.NewFromString(rate)
	if err != nil {
		return core.Currency{}, fmt.Errorf("parse currency rate: %w", err)
	}
	return c, nil
}

// --- accounts ---

func (r *SQLiteRepository) CreateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	if a.Type == "" {
		a.Type = core.Cash
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (owner, name, type, balance, currency_id) VALUES (?, ?, ?, ?, ?)`,
		a.Owner, a.Name, string(a.Type), a.Balance.String(), a.CurrencyID)
	if err != nil {
		return core.Account{}, fmt.Errorf("insert account: %w", err)
	}
	a.ID, err = res.LastInsertId()
	if err != nil {
		return core.Account{}, fmt.Errorf("account id: %w", err)
	}
	return a, nil
}

// GetAccount loads an account and enforces ownership. A row owned by a
// different owner yields ErrAccountNotOwned with no account data.
func (r *SQLiteRepository) GetAccount(ctx context.Context, owner string, id int64) (core.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, owner, name, type, balance, currency_id FROM accounts WHERE id = ?`, id)
	a, err := scanAccount(row)
	if err != nil {
		return core.Account{}, err
	}
	if a.Owner != owner {
		return core.Account{}, core.ErrAccountNotOwned
	}
	return a, nil
}

func (r *SQLiteRepository) ListAccounts(ctx context.Context, owner string) ([]core.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, owner, name, type, balance, currency_id FROM accounts WHERE owner = ? ORDER BY id`, owner)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var out []core.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (core.Account, error) {
	var a core.Account
	var typ, balance string
	err := row.Scan(&a.ID, &a.Owner, &a.Name, &typ, &balance, &a.CurrencyID)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, core.ErrAccountNotFound
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("scan account: %w", err)
	}
	a.Type = core.AccountType(typ)
	a.Balance, err = decimal.NewFromString(balance)
	if err != nil {
		return core.Account{}, fmt.Errorf("parse account balance: %w", err)
	}
	return a, nil
}

// --- the atomic apply-and-record unit ---

type ApplyTransactionParams struct {
	Owner     string
	AccountID int64
	Amount    decimal.Decimal
	Kind      core.Kind
	Category  string
	At        time.Time
}

// ApplyTransaction mutates the account balance and appends the matching
// transaction row as one unit. An EXPENSE that would overdraw the
// account fails with ErrInsufficientFunds and changes nothing.
func (r *SQLiteRepository) ApplyTransaction(ctx context.Context, p ApplyTransactionParams) (core.Transaction, error) {
	var created core.Transaction
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		created, err = applyInTx(ctx, tx, p)
		return err
	})
	if err != nil {
		return core.Transaction{}, err
	}

	slog.InfoContext(ctx, "Transaction applied",
		"transaction_id", created.ID,
		"account_id", created.AccountID,
		"kind", string(created.Kind),
		"amount", created.Amount.String(),
		"category", created.Category)

	return created, nil
}

func applyInTx(ctx context.Context, tx *sql.Tx, p ApplyTransactionParams) (core.Transaction, error) {
	a, err := scanAccount(tx.QueryRowContext(ctx,
		`SELECT id, owner, name, type, balance, currency_id FROM accounts WHERE id = ?`, p.AccountID))
	if err != nil {
		return core.Transaction{}, err
	}
	if a.Owner != p.Owner {
		return core.Transaction{}, core.ErrAccountNotOwned
	}

	var newBalance decimal.Decimal
	switch p.Kind {
	case core.Income:
		newBalance = a.Balance.Add(p.Amount)
	case core.Expense:
		if a.Balance.LessThan(p.Amount) {
			return core.Transaction{}, core.ErrInsufficientFunds
		}
		newBalance = a.Balance.Sub(p.Amount)
	default:
		return core.Transaction{}, core.ErrInvalidKind
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE accounts SET balance = ? WHERE id = ?`, newBalance.String(), a.ID); err != nil {
		return core.Transaction{}, fmt.Errorf("update balance: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO transactions (account_id, amount, kind, category, date) VALUES (?, ?, ?, ?, ?)`,
		a.ID, p.Amount.String(), string(p.Kind), p.Category, p.At.UTC().Format(dateLayout))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction id: %w", err)
	}

	return core.Transaction{
		ID:        id,
		AccountID: a.ID,
		Amount:    p.Amount,
		Kind:      p.Kind,
		Category:  p.Category,
		Date:      p.At.UTC(),
	}, nil
}

// --- transactions (read side) ---

func (r *SQLiteRepository) ListTransactions(ctx context.Context, owner string, year, month int) ([]core.Transaction, error) {
	start, end := monthWindow(year, month)
	rows, err := r.db.QueryContext(ctx,
		`SELECT t.id, t.account_id, t.amount, t.kind, t.category, t.date
		 FROM transactions t
		 JOIN accounts a ON a.id = t.account_id
		 WHERE a.owner = ? AND t.date >= ? AND t.date < ?
		 ORDER BY t.date DESC, t.id DESC`, owner, start, end)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// GetTransactionDetail loads one transaction with its account and
// currency context, as needed for statement rows.
func (r *SQLiteRepository) GetTransactionDetail(ctx context.Context, id int64) (core.TransactionDetail, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT t.id, t.account_id, t.amount, t.kind, t.category, t.date, a.owner, a.name, c.code
		 FROM transactions t
		 JOIN accounts a ON a.id = t.account_id
		 JOIN currencies c ON c.id = a.currency_id
		 WHERE t.id = ?`, id)

	var d core.TransactionDetail
	var amount, kind, date string
	err := row.Scan(&d.Transaction.ID, &d.Transaction.AccountID, &amount, &kind,
		&d.Transaction.Category, &date, &d.Owner, &d.AccountName, &d.CurrencyCode)
	if errors.Is(err, sql.ErrNoRows) {
		return core.TransactionDetail{}, fmt.Errorf("transaction %d not found", id)
	}
	if err != nil {
		return core.TransactionDetail{}, fmt.Errorf("scan transaction detail: %w", err)
	}
	d.Transaction.Kind = core.Kind(kind)
	if d.Transaction.Amount, err = decimal.NewFromString(amount); err != nil {
		return core.TransactionDetail{}, fmt.Errorf("parse amount: %w", err)
	}
	if d.Transaction.Date, err = time.Parse(dateLayout, date); err != nil {
		return core.TransactionDetail{}, fmt.Errorf("parse date: %w", err)
	}
	return d, nil
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var t core.Transaction
	var amount, kind, date string
	if err := row.Scan(&t.ID, &t.AccountID, &amount, &kind, &t.Category, &date); err != nil {
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}
	t.Kind = core.Kind(kind)
	var err error
	if t.Amount, err = decimal.NewFromString(amount); err != nil {
		return core.Transaction{}, fmt.Errorf("parse amount: %w", err)
	}
	if t.Date, err = time.Parse(dateLayout, date); err != nil {
		return core.Transaction{}, fmt.Errorf("parse date: %w", err)
	}
	return t, nil
}

// --- recurring transactions ---

func (r *SQLiteRepository) CreateRecurring(ctx context.Context, owner string, rec core.RecurringTransaction) (core.RecurringTransaction, error) {
	if err := rec.Validate(); err != nil {
		return core.RecurringTransaction{}, err
	}
	if _, err := r.GetAccount(ctx, owner, rec.AccountID); err != nil {
		return core.RecurringTransaction{}, err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO recurring_transactions (account_id, amount, kind, category, frequency, next_date)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.AccountID, rec.Amount.String(), string(rec.Kind), rec.Category,
		string(rec.Frequency), rec.NextDate.UTC().Format(dateLayout))
	if err != nil {
		return core.RecurringTransaction{}, fmt.Errorf("insert recurring: %w", err)
	}
	rec.ID, err = res.LastInsertId()
	if err != nil {
		return core.RecurringTransaction{}, fmt.Errorf("recurring id: %w", err)
	}
	return rec, nil
}

// ListDueRecurring returns every template for owner with next_date at or
// before asOf, ordered stably by id.
func (r *SQLiteRepository) ListDueRecurring(ctx context.Context, owner string, asOf time.Time) ([]core.RecurringTransaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT rt.id, rt.account_id, rt.amount, rt.kind, rt.category, rt.frequency, rt.next_date
		 FROM recurring_transactions rt
		 JOIN accounts a ON a.id = rt.account_id
		 WHERE a.owner = ? AND rt.next_date <= ?
		 ORDER BY rt.id`, owner, asOf.UTC().Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("list due recurring: %w", err)
	}
	defer rows.Close()

	var out []core.RecurringTransaction
	for rows.Next() {
		var rec core.RecurringTransaction
		var amount, kind, freq, next string
		if err := rows.Scan(&rec.ID, &rec.AccountID, &amount, &kind, &rec.Category, &freq, &next); err != nil {
			return nil, fmt.Errorf("scan recurring: %w", err)
		}
		rec.Kind = core.Kind(kind)
		rec.Frequency = core.Frequency(freq)
		if rec.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("parse recurring amount: %w", err)
		}
		if rec.NextDate, err = time.Parse(dateLayout, next); err != nil {
			return nil, fmt.Errorf("parse next date: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ListOwnersWithDueRecurring returns the distinct owners that have at
// least one due template, for the periodic worker's fan-out.
func (r *SQLiteRepository) ListOwnersWithDueRecurring(ctx context.Context, asOf time.Time) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT a.owner
		 FROM recurring_transactions rt
		 JOIN accounts a ON a.id = rt.account_id
		 WHERE rt.next_date <= ?
		 ORDER BY a.owner`, asOf.UTC().Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("list owners with due recurring: %w", err)
	}
	defer rows.Close()

	var owners []string
	for rows.Next() {
		var o string
		if err := rows.Scan(&o); err != nil {
			return nil, fmt.Errorf("scan owner: %w", err)
		}
		owners = append(owners, o)
	}
	return owners, rows.Err()
}

// MaterializeRecurring applies one due occurrence: balance change,
// transaction row and next_date advance, all in a single unit. The funds
// check runs inside the transaction, so a concurrent debit cannot slip
// between check and write.
func (r *SQLiteRepository) MaterializeRecurring(ctx context.Context, owner string, rec core.RecurringTransaction, category string, at, next time.Time) (core.Transaction, error) {
	var created core.Transaction
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		created, err = applyInTx(ctx, tx, ApplyTransactionParams{
			Owner:     owner,
			AccountID: rec.AccountID,
			Amount:    rec.Amount,
			Kind:      rec.Kind,
			Category:  category,
			At:        at,
		})
		if err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx,
			`UPDATE recurring_transactions SET next_date = ? WHERE id = ? AND next_date = ?`,
			next.UTC().Format(dateLayout), rec.ID, rec.NextDate.UTC().Format(dateLayout))
		if err != nil {
			return fmt.Errorf("advance next date: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("advance next date: %w", err)
		}
		// Zero rows means another invocation already advanced this
		// occurrence; abort so it is not materialized twice.
		if n == 0 {
			return core.ErrRecurringNotFound
		}
		return nil
	})
	if err != nil {
		return core.Transaction{}, err
	}
	return created, nil
}

// --- budgets ---

func (r *SQLiteRepository) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	if b.Name == "" {
		b.Name = core.BudgetMonthly
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO budgets (owner, name, category, limit_amount, currency_id, month, year)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		b.Owner, string(b.Name), b.Category, b.LimitAmount.String(), b.CurrencyID, b.Month, b.Year)
	if err != nil {
		return core.Budget{}, fmt.Errorf("insert budget: %w", err)
	}
	b.ID, err = res.LastInsertId()
	if err != nil {
		return core.Budget{}, fmt.Errorf("budget id: %w", err)
	}
	return b, nil
}

func (r *SQLiteRepository) GetBudget(ctx context.Context, owner string, id int64) (core.Budget, error) {
	return scanBudget(r.db.QueryRowContext(ctx,
		`SELECT id, owner, name, category, limit_amount, currency_id, month, year
		 FROM budgets WHERE id = ? AND owner = ?`, id, owner))
}

// FindBudget locates the owner's budget for a category and period.
// Category comparison is core.Budget.Matches' job, so stored rows with
// odd case or spacing still hit.
func (r *SQLiteRepository) FindBudget(ctx context.Context, owner, category string, month, year int) (core.Budget, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, owner, name, category, limit_amount, currency_id, month, year
		 FROM budgets
		 WHERE owner = ? AND month = ? AND year = ?
		 ORDER BY id`, owner, month, year)
	if err != nil {
		return core.Budget{}, fmt.Errorf("query budgets: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return core.Budget{}, err
		}
		if b.Matches(category, month, year) {
			return b, nil
		}
	}
	if err := rows.Err(); err != nil {
		return core.Budget{}, fmt.Errorf("iterate budgets: %w", err)
	}
	return core.Budget{}, core.ErrBudgetNotFound
}

func scanBudget(row rowScanner) (core.Budget, error) {
	var b core.Budget
	var name, limit string
	err := row.Scan(&b.ID, &b.Owner, &name, &b.Category, &limit, &b.CurrencyID, &b.Month, &b.Year)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, core.ErrBudgetNotFound
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("scan budget: %w", err)
	}
	b.Name = core.BudgetName(name)
	if b.LimitAmount, err = decimal.NewFromString(limit); err != nil {
		return core.Budget{}, fmt.Errorf("parse budget limit: %w", err)
	}
	return b, nil
}

// SumExpensesByCategory aggregates the owner's EXPENSE transactions for
// one category (case-insensitive) within a month window, grouped by the
// account currency. Amount arithmetic stays in Go decimals; SQL only
// collects the raw magnitudes.
func (r *SQLiteRepository) SumExpensesByCategory(ctx context.Context, owner, category string, month, year int) ([]core.CurrencySum, error) {
	start, end := monthWindow(year, month)
	rows, err := r.db.QueryContext(ctx,
		`SELECT c.code, c.rate, t.amount
		 FROM transactions t
		 JOIN accounts a ON a.id = t.account_id
		 JOIN currencies c ON c.id = a.currency_id
		 WHERE a.owner = ? AND t.kind = 'EXPENSE'
		   AND lower(t.category) = lower(?)
		   AND t.date >= ? AND t.date < ?`,
		owner, strings.TrimSpace(category), start, end)
	if err != nil {
		return nil, fmt.Errorf("sum expenses: %w", err)
	}
	defer rows.Close()

	totals := make(map[string]*core.CurrencySum)
	var order []string
	for rows.Next() {
		var code, rate, amount string
		if err := rows.Scan(&code, &rate, &amount); err != nil {
			return nil, fmt.Errorf("scan expense row: %w", err)
		}
		amt, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("parse expense amount: %w", err)
		}
		sum, ok := totals[code]
		if !ok {
			rt, err := decimal.NewFromString(rate)
			if err != nil {
				return nil, fmt.Errorf("parse rate: %w", err)
			}
			sum = &core.CurrencySum{CurrencyCode: code, Rate: rt}
			totals[code] = sum
			order = append(order, code)
		}
		sum.Total = sum.Total.Add(amt)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]core.CurrencySum, 0, len(order))
	for _, code := range order {
		out = append(out, *totals[code])
	}
	return out, nil
}

// --- financial goals ---

func (r *SQLiteRepository) CreateGoal(ctx context.Context, g core.FinancialGoal) (core.FinancialGoal, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO financial_goals (owner, title, target_amount, current_amount, currency_id)
		 VALUES (?, ?, ?, ?, ?)`,
		g.Owner, g.Title, g.TargetAmount.String(), g.CurrentAmount.String(), g.CurrencyID)
	if err != nil {
		return core.FinancialGoal{}, fmt.Errorf("insert goal: %w", err)
	}
	g.ID, err = res.LastInsertId()
	if err != nil {
		return core.FinancialGoal{}, fmt.Errorf("goal id: %w", err)
	}
	return g, nil
}

func (r *SQLiteRepository) GetGoal(ctx context.Context, owner string, id int64) (core.FinancialGoal, error) {
	return scanGoal(r.db.QueryRowContext(ctx,
		`SELECT id, owner, title, target_amount, current_amount, currency_id
		 FROM financial_goals WHERE id = ? AND owner = ?`, id, owner))
}

func scanGoal(row rowScanner) (core.FinancialGoal, error) {
	var g core.FinancialGoal
	var target, current string
	err := row.Scan(&g.ID, &g.Owner, &g.Title, &target, &current, &g.CurrencyID)
	if errors.Is(err, sql.ErrNoRows) {
		return core.FinancialGoal{}, core.ErrGoalNotFound
	}
	if err != nil {
		return core.FinancialGoal{}, fmt.Errorf("scan goal: %w", err)
	}
	if g.TargetAmount, err = decimal.NewFromString(target); err != nil {
		return core.FinancialGoal{}, fmt.Errorf("parse goal target: %w", err)
	}
	if g.CurrentAmount, err = decimal.NewFromString(current); err != nil {
		return core.FinancialGoal{}, fmt.Errorf("parse goal current: %w", err)
	}
	return g, nil
}

type ContributeParams struct {
	Owner     string
	GoalID    int64
	AccountID int64
	Amount    decimal.Decimal // in the account currency
	Converted decimal.Decimal // in the goal currency
	Category  string
	At        time.Time
}

// ContributeToGoal debits the account, records the transaction and
// increments the goal's accumulated amount in one unit.
func (r *SQLiteRepository) ContributeToGoal(ctx context.Context, p ContributeParams) (core.Transaction, core.FinancialGoal, error) {
	var created core.Transaction
	var updated core.FinancialGoal
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		g, err := scanGoal(tx.QueryRowContext(ctx,
			`SELECT id, owner, title, target_amount, current_amount, currency_id
			 FROM financial_goals WHERE id = ? AND owner = ?`, p.GoalID, p.Owner))
		if err != nil {
			return err
		}

		created, err = applyInTx(ctx, tx, ApplyTransactionParams{
			Owner:     p.Owner,
			AccountID: p.AccountID,
			Amount:    p.Amount,
			Kind:      core.Expense,
			Category:  p.Category,
			At:        p.At,
		})
		if err != nil {
			return err
		}

		g.CurrentAmount = g.CurrentAmount.Add(p.Converted)
		if _, err := tx.ExecContext(ctx,
			`UPDATE financial_goals SET current_amount = ? WHERE id = ?`,
			g.CurrentAmount.String(), g.ID); err != nil {
			return fmt.Errorf("update goal amount: %w", err)
		}
		updated = g
		return nil
	})
	if err != nil {
		return core.Transaction{}, core.FinancialGoal{}, err
	}

	slog.InfoContext(ctx, "Goal contribution applied",
		"goal_id", updated.ID,
		"transaction_id", created.ID,
		"amount", p.Amount.String(),
		"converted", p.Converted.String())

	return created, updated, nil
}

// monthWindow returns the half-open [start, end) bounds for a calendar
// month in UTC. Stored dates are fixed-width UTC strings, so the bounds
// compare correctly as text.
func monthWindow(year, month int) (string, string) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	return start.Format(dateLayout), end.Format(dateLayout)
}
