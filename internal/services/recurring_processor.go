package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"moliya/internal/core"
)

const defaultFanout = 4

// RecurringProcessor turns due recurring templates into real ledger
// transactions and advances their schedules.
type RecurringProcessor struct {
	store     Store
	publisher EventPublisher
	fanout    int
}

// NewRecurringProcessor builds a processor that handles up to fanout
// owners concurrently; fanout <= 0 picks the default.
func NewRecurringProcessor(store Store, publisher EventPublisher, fanout int) *RecurringProcessor {
	if fanout <= 0 {
		fanout = defaultFanout
	}
	return &RecurringProcessor{store: store, publisher: publisher, fanout: fanout}
}

// MaterializeDue processes every template of one owner whose next date
// is at or before asOf. A template several periods behind is caught up
// one period at a time. An entry that the account cannot cover is
// skipped without advancing the schedule, so it is retried on the next
// run.
func (p *RecurringProcessor) MaterializeDue(ctx context.Context, owner string, asOf time.Time) ([]core.Transaction, error) {
	due, err := p.store.ListDueRecurring(ctx, owner, asOf)
	if err != nil {
		return nil, fmt.Errorf("list due recurring: %w", err)
	}

	var created []core.Transaction
	for _, rec := range due {
		for !rec.NextDate.After(asOf) {
			next := rec.NextAfter(rec.NextDate)

			tx, err := p.store.MaterializeRecurring(ctx, owner, rec, "Auto: "+rec.Category, rec.NextDate, next)
			switch {
			case errors.Is(err, core.ErrInsufficientFunds):
				slog.WarnContext(ctx, "Recurring entry skipped, insufficient funds",
					"recurring_id", rec.ID, "owner", owner, "due", rec.NextDate.Format("2006-01-02"))
			case errors.Is(err, core.ErrRecurringNotFound):
				// Another run advanced this template first.
				slog.InfoContext(ctx, "Recurring entry already materialized elsewhere",
					"recurring_id", rec.ID, "owner", owner)
			case err != nil:
				return created, fmt.Errorf("materialize recurring %d: %w", rec.ID, err)
			default:
				created = append(created, tx)
				publishRecorded(ctx, p.publisher, tx.ID)
				slog.InfoContext(ctx, "Materialized recurring transaction",
					"recurring_id", rec.ID,
					"transaction_id", tx.ID,
					"amount", rec.Amount.String(),
					"next_date", next.Format("2006-01-02"))
				rec.NextDate = next
				continue
			}
			break
		}
	}
	return created, nil
}

// ProcessAllDue materializes due templates for every owner that has
// any, fanning out per owner. One owner's failure does not block the
// others; the first error is reported after the whole sweep.
func (p *RecurringProcessor) ProcessAllDue(ctx context.Context, asOf time.Time) (int, error) {
	owners, err := p.store.ListOwnersWithDueRecurring(ctx, asOf)
	if err != nil {
		return 0, fmt.Errorf("list owners with due recurring: %w", err)
	}

	slog.InfoContext(ctx, "Processing recurring transactions",
		"owners", len(owners),
		"as_of", asOf.Format("2006-01-02"))

	var (
		mu    sync.Mutex
		total int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.fanout)
	for _, owner := range owners {
		g.Go(func() error {
			created, err := p.MaterializeDue(gctx, owner, asOf)
			mu.Lock()
			total += len(created)
			mu.Unlock()
			if err != nil {
				slog.ErrorContext(gctx, "Recurring processing failed for owner",
					"owner", owner, "error", err)
				return err
			}
			return nil
		})
	}
	err = g.Wait()

	slog.InfoContext(ctx, "Recurring processing complete",
		"materialized", total, "owners", len(owners))
	return total, err
}
