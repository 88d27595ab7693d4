package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// CurrencySum is an amount aggregated per account currency, with the
// rate captured at query time so conversion happens on consistent data.
type CurrencySum struct {
	CurrencyCode string
	Rate         decimal.Decimal
	Total        decimal.Decimal
}

// TransactionDetail is a transaction enriched with the account and
// currency it belongs to, as needed for statements.
type TransactionDetail struct {
	Transaction  Transaction
	Owner        string
	AccountName  string
	CurrencyCode string
}

// BudgetStatus is the consumption report for one budget period.
type BudgetStatus struct {
	Budget  Budget
	Spent   decimal.Decimal
	Limit   decimal.Decimal
	Percent int
}

// LedgerOverview is a compact per-owner summary: accounts plus the total
// balance converted into one display currency.
type LedgerOverview struct {
	Accounts     []Account
	Total        decimal.Decimal
	CurrencyCode string
	AsOf         time.Time
}
