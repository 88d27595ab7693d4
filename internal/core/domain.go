package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  Kind = "INCOME"
	Expense Kind = "EXPENSE"
)

const (
	Weekly  Frequency = "WEEKLY"
	Monthly Frequency = "MONTHLY"
)

const (
	Cash AccountType = "CASH"
	Card AccountType = "CARD"
)

const (
	BudgetMonthly BudgetName = "MONTHLY"
	BudgetStipend BudgetName = "STIPEND"
	BudgetOther   BudgetName = "OTHER"
)

type (
	Kind        string
	Frequency   string
	AccountType string
	BudgetName  string

	// Currency holds an exchange rate expressed as the value of one unit
	// in the common base unit. Rates are maintained by an external admin
	// process; this core only reads them.
	Currency struct {
		ID     int64
		Code   string // 3-letter identifier, unique
		Name   string
		Symbol string
		Rate   decimal.Decimal
	}

	// Account is a per-owner balance bucket denominated in one currency.
	// The balance is mutated only through the atomic apply-and-record
	// unit in storage, never directly.
	Account struct {
		ID         int64
		Owner      string
		Name       string
		Type       AccountType
		Balance    decimal.Decimal
		CurrencyID int64
	}

	// Transaction is an append-only audit record. Rows are never updated
	// or deleted after creation.
	Transaction struct {
		ID        int64
		AccountID int64
		Amount    decimal.Decimal // positive magnitude
		Kind      Kind
		Category  string
		Date      time.Time
	}

	// RecurringTransaction is a template that periodically generates a
	// transaction. Only the materialization path advances NextDate.
	RecurringTransaction struct {
		ID        int64
		AccountID int64
		Amount    decimal.Decimal
		Kind      Kind
		Category  string
		Frequency Frequency
		NextDate  time.Time
	}

	// Budget is a per-owner spending limit for one category within a
	// (month, year) period. Read-only after creation.
	Budget struct {
		ID          int64
		Owner       string
		Name        BudgetName
		Category    string
		LimitAmount decimal.Decimal
		CurrencyID  int64
		Month       int
		Year        int
	}

	// FinancialGoal accumulates contributions toward a target amount.
	// CurrentAmount only ever increases.
	FinancialGoal struct {
		ID            int64
		Owner         string
		Title         string
		TargetAmount  decimal.Decimal
		CurrentAmount decimal.Decimal
		CurrencyID    int64
	}
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidCategory   = errors.New("empty category")
	ErrInvalidCurrency   = errors.New("missing or zero-rate currency")
	ErrInvalidKind       = errors.New("invalid transaction kind")
	ErrInvalidFrequency  = errors.New("invalid frequency")

	ErrAccountNotOwned = errors.New("account not owned by requester")

	ErrAccountNotFound   = errors.New("account not found")
	ErrCurrencyNotFound  = errors.New("currency not found")
	ErrBudgetNotFound    = errors.New("budget not found")
	ErrGoalNotFound      = errors.New("goal not found")
	ErrRecurringNotFound = errors.New("recurring transaction not found")
)

func (k Kind) Validate() error {
	switch k {
	case Income, Expense:
		return nil
	}
	return ErrInvalidKind
}

func (f Frequency) Validate() error {
	switch f {
	case Weekly, Monthly:
		return nil
	}
	return ErrInvalidFrequency
}

func (c Currency) Validate() error {
	if len(strings.TrimSpace(c.Code)) != 3 {
		return ErrInvalidCurrency
	}
	if c.Rate.Sign() <= 0 {
		return ErrInvalidCurrency
	}
	return nil
}

func (t Transaction) Validate() error {
	if t.Amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrInvalidCategory
	}
	return t.Kind.Validate()
}

func (r RecurringTransaction) Validate() error {
	if r.Amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(r.Category) == "" {
		return ErrInvalidCategory
	}
	if err := r.Kind.Validate(); err != nil {
		return err
	}
	if err := r.Frequency.Validate(); err != nil {
		return err
	}
	if r.NextDate.IsZero() {
		return errors.New("next date cannot be zero")
	}
	return nil
}

// NextAfter returns the due date following d for this template's
// frequency: 30 days for MONTHLY, 7 days for WEEKLY.
func (r RecurringTransaction) NextAfter(d time.Time) time.Time {
	if r.Frequency == Monthly {
		return d.AddDate(0, 0, 30)
	}
	return d.AddDate(0, 0, 7)
}

// Matches reports whether this budget covers the given category and
// period. Category matching is case-insensitive.
func (b Budget) Matches(category string, month, year int) bool {
	return b.Month == month && b.Year == year &&
		strings.EqualFold(strings.TrimSpace(b.Category), strings.TrimSpace(category))
}

// PercentUsed returns floor(spent / limit * 100), or 0 when the limit is
// not positive. Deliberately not capped at 100: values above signal
// overspend.
func (b Budget) PercentUsed(spent decimal.Decimal) int {
	if b.LimitAmount.Sign() <= 0 {
		return 0
	}
	pct := spent.Div(b.LimitAmount).Mul(decimal.NewFromInt(100))
	return int(pct.IntPart())
}

// ProgressPercent returns min(100, floor(current / target * 100)), or 0
// when the target is not positive. Unlike budget consumption this IS
// capped at 100.
func (g FinancialGoal) ProgressPercent() int {
	if g.TargetAmount.Sign() <= 0 {
		return 0
	}
	pct := g.CurrentAmount.Div(g.TargetAmount).Mul(decimal.NewFromInt(100))
	if pct.GreaterThan(decimal.NewFromInt(100)) {
		return 100
	}
	return int(pct.IntPart())
}
