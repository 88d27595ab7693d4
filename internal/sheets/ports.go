// Package sheets defines the outbound port for statement export and the
// row shape appended to a spreadsheet.
package sheets

import "context"

// StatementRow is one exported ledger entry. Amounts travel as strings
// so the spreadsheet shows exactly what the ledger stored.
type StatementRow struct {
	Date      string
	Owner     string
	Account   string
	Category  string
	Kind      string
	Amount    string
	Currency  string
	Reference string
}

// StatementAppender writes one row to the statement and returns an
// adapter-specific row reference.
type StatementAppender interface {
	Append(ctx context.Context, row StatementRow) (rowRef string, err error)
}
