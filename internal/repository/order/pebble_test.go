package order

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"agentshop/internal/domain"
)

func newTestRepo(t *testing.T) *PebbleRepo {
	t.Helper()
	repo, err := NewPebble(t.TempDir())
	if err != nil {
		t.Fatalf("open pebble: %v", err)
	}
	t.Cleanup(func() {
		if err := repo.Close(); err != nil {
			t.Errorf("close pebble: %v", err)
		}
	})
	return repo
}

func testOrder(id string, createdAt time.Time) domain.Order {
	return domain.Order{
		ID:        id,
		ReceiptID: "rcpt-" + id,
		Customer:  domain.CustomerInfo{Name: "Ada", Email: "ada@example.com"},
		Lines: []domain.OrderLine{
			{ItemID: "sku-a", Quantity: 1, UnitPriceCents: 1000, TotalCents: 1000, Currency: "USD"},
		},
		Totals:    domain.OrderTotals{SubtotalCents: 1000, TotalCents: 1080, Currency: "USD"},
		Status:    domain.OrderStatusConfirmed,
		CreatedAt: createdAt,
	}
}

func TestPebbleSaveAndGet(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	o := testOrder("ord-1", time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	if err := repo.Save(ctx, o); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := repo.GetByID(ctx, "ord-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != o.ID || got.ReceiptID != o.ReceiptID || got.Totals != o.Totals {
		t.Fatalf("unexpected order: %+v", got)
	}
	if len(got.Lines) != 1 || got.Lines[0] != o.Lines[0] {
		t.Fatalf("unexpected lines: %+v", got.Lines)
	}
}

func TestPebbleGetMissing(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.GetByID(context.Background(), "nope")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPebbleIndexUpsert(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	createdAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	entry := domain.OrderIndexEntry{OrderID: "ord-1", CustomerEmail: "ada@example.com", TotalCents: 100, Status: "confirmed", CreatedAt: createdAt}
	if err := repo.AppendToIndex(ctx, entry); err != nil {
		t.Fatalf("append: %v", err)
	}
	entry.TotalCents = 200
	if err := repo.AppendToIndex(ctx, entry); err != nil {
		t.Fatalf("re-append: %v", err)
	}

	entries, err := repo.ListIndex(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected merged entry, got %d", len(entries))
	}
	if entries[0].TotalCents != 200 {
		t.Fatalf("expected last write to win, got %+v", entries[0])
	}
}

func TestPebbleConcurrentIndexAppendsNoLostUpdates(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			entry := domain.OrderIndexEntry{
				OrderID:   fmt.Sprintf("ord-%02d", i),
				CreatedAt: time.Now(),
			}
			if err := repo.AppendToIndex(ctx, entry); err != nil {
				t.Errorf("append %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	entries, err := repo.ListIndex(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != n {
		t.Fatalf("lost index updates: expected %d, got %d", n, len(entries))
	}
}

func TestPebbleListIndexNewestFirst(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		entry := domain.OrderIndexEntry{
			OrderID:   fmt.Sprintf("ord-%d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := repo.AppendToIndex(ctx, entry); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	entries, err := repo.ListIndex(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].CreatedAt.After(entries[i-1].CreatedAt) {
			t.Fatalf("entries not newest-first: %+v", entries)
		}
	}
}

func TestPebbleRebuildIndex(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// Orders saved without index entries, plus one stale entry.
	for i := 0; i < 3; i++ {
		if err := repo.Save(ctx, testOrder(fmt.Sprintf("ord-%d", i), base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("save: %v", err)
		}
	}
	stale := domain.OrderIndexEntry{OrderID: "ord-0", TotalCents: -1, CreatedAt: base}
	if err := repo.AppendToIndex(ctx, stale); err != nil {
		t.Fatalf("append stale: %v", err)
	}

	count, err := repo.RebuildIndex(ctx)
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 rebuilt entries, got %d", count)
	}

	entries, err := repo.ListIndex(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	for _, e := range entries {
		if e.TotalCents != 1080 || e.CustomerEmail != "ada@example.com" {
			t.Fatalf("entry not re-derived from order: %+v", e)
		}
	}
}
