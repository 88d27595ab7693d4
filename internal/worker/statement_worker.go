// Package worker drains transaction events into the statement export.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"moliya/internal/amqp"
	"moliya/internal/cache"
	"moliya/internal/core"
	"moliya/internal/sheets"
	"moliya/internal/storage"
)

const (
	dedupeSize = 4096
	dedupeTTL  = 24 * time.Hour
)

// DetailLoader is the slice of the repository the worker needs.
type DetailLoader interface {
	GetTransactionDetail(ctx context.Context, id int64) (core.TransactionDetail, error)
}

var _ DetailLoader = (*storage.SQLiteRepository)(nil)

// StatementWorker appends each recorded transaction to the statement
// sheet. EventID-keyed dedupe keeps redelivered messages from producing
// duplicate rows.
type StatementWorker struct {
	store    DetailLoader
	appender sheets.StatementAppender
	seen     *cache.TTLCache[struct{}]
}

func NewStatementWorker(store DetailLoader, appender sheets.StatementAppender) *StatementWorker {
	return &StatementWorker{
		store:    store,
		appender: appender,
		seen:     cache.New[struct{}](dedupeSize, dedupeTTL),
	}
}

// HandleTransactionRecorded exports one event. Returning an error nacks
// the message for redelivery.
func (w *StatementWorker) HandleTransactionRecorded(ctx context.Context, msg *amqp.TransactionRecordedMessage) error {
	if msg.EventID != "" {
		if _, dup := w.seen.Get(msg.EventID); dup {
			slog.InfoContext(ctx, "Skipping duplicate transaction event",
				"event_id", msg.EventID,
				"transaction_id", msg.TransactionID)
			return nil
		}
	}

	detail, err := w.store.GetTransactionDetail(ctx, msg.TransactionID)
	if err != nil {
		return fmt.Errorf("load transaction %d: %w", msg.TransactionID, err)
	}

	ref, err := w.appender.Append(ctx, statementRow(detail, msg.EventID))
	if err != nil {
		return fmt.Errorf("append to statement: %w", err)
	}

	if msg.EventID != "" {
		w.seen.Set(msg.EventID, struct{}{})
	}

	slog.InfoContext(ctx, "Exported transaction to statement",
		"transaction_id", msg.TransactionID,
		"event_id", msg.EventID,
		"row_ref", ref)

	return nil
}

func statementRow(d core.TransactionDetail, eventID string) sheets.StatementRow {
	return sheets.StatementRow{
		Date:      d.Transaction.Date.UTC().Format("2006-01-02"),
		Owner:     d.Owner,
		Account:   d.AccountName,
		Category:  d.Transaction.Category,
		Kind:      string(d.Transaction.Kind),
		Amount:    d.Transaction.Amount.String(),
		Currency:  d.CurrencyCode,
		Reference: eventID,
	}
}
