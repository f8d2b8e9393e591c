package order

import (
	"context"

	"agentshop/internal/domain"
)

// Repository persists order records and maintains the secondary listing
// index. Save and AppendToIndex are idempotent per order ID; AppendToIndex
// must be safe under concurrent appends from independent checkouts.
type Repository interface {
	Save(ctx context.Context, order domain.Order) error
	AppendToIndex(ctx context.Context, entry domain.OrderIndexEntry) error
	GetByID(ctx context.Context, orderID string) (*domain.Order, error)
	ListIndex(ctx context.Context) ([]domain.OrderIndexEntry, error)
	// RebuildIndex re-derives every index entry from the stored orders and
	// returns the number of entries written. Orders are the source of truth;
	// the index is never read back to repair itself.
	RebuildIndex(ctx context.Context) (int, error)
}
