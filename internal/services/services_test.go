package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"moliya/internal/core"
	"moliya/internal/storage"
)

func d(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	v, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return v
}

// fixture wires the services against a real SQLite store with the
// familiar two-currency setup: UZS as base (rate 1) and USD at 12800.
type fixture struct {
	repo *storage.SQLiteRepository
	uzs  core.Currency
	usd  core.Currency
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	ctx := context.Background()
	uzs, err := repo.CreateCurrency(ctx, core.Currency{Code: "UZS", Name: "Uzbek Som", Rate: d(t, "1")})
	if err != nil {
		t.Fatalf("create UZS: %v", err)
	}
	usd, err := repo.CreateCurrency(ctx, core.Currency{Code: "USD", Name: "US Dollar", Symbol: "$", Rate: d(t, "12800")})
	if err != nil {
		t.Fatalf("create USD: %v", err)
	}
	return &fixture{repo: repo, uzs: uzs, usd: usd}
}

func (f *fixture) account(t *testing.T, owner, name string, cur core.Currency, balance string) core.Account {
	t.Helper()
	a, err := f.repo.CreateAccount(context.Background(), core.Account{
		Owner:      owner,
		Name:       name,
		Type:       core.Card,
		Balance:    d(t, balance),
		CurrencyID: cur.ID,
	})
	if err != nil {
		t.Fatalf("create account %s: %v", name, err)
	}
	return a
}

func fixedClock(t *testing.T, value string) func() time.Time {
	t.Helper()
	at, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("bad clock value %q: %v", value, err)
	}
	return func() time.Time { return at }
}

// capturePublisher records published transaction ids for assertions.
type capturePublisher struct {
	mu  sync.Mutex
	ids []int64
	err error
}

func (p *capturePublisher) PublishTransactionRecorded(_ context.Context, id int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.ids = append(p.ids, id)
	return nil
}

func (p *capturePublisher) published() []int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]int64(nil), p.ids...)
}
