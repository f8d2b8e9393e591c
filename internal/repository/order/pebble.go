package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/cockroachdb/pebble"

	"agentshop/internal/domain"
)

const (
	orderKeyPrefix = "order/"
	indexKeyPrefix = "idx/"
)

// PebbleRepo is an embedded order store for local and single-node
// deployments. Every order and index entry lives under its own key, so
// concurrent index appends are plain per-key writes with no read-modify-write
// of a shared collection.
type PebbleRepo struct {
	db *pebble.DB
}

func NewPebble(dir string) (*PebbleRepo, error) {
	db, err := pebble.Open(filepath.Clean(dir), &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("pebble open: %w", err)
	}
	return &PebbleRepo{db: db}, nil
}

func (r *PebbleRepo) Close() error { return r.db.Close() }

func (r *PebbleRepo) Save(ctx context.Context, o domain.Order) error {
	data, err := json.Marshal(o)
	if err != nil {
		return err
	}
	// Sync write: a paid order must survive a crash.
	return r.db.Set([]byte(orderKeyPrefix+o.ID), data, pebble.Sync)
}

func (r *PebbleRepo) AppendToIndex(ctx context.Context, e domain.OrderIndexEntry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return r.db.Set([]byte(indexKeyPrefix+e.OrderID), data, pebble.Sync)
}

func (r *PebbleRepo) GetByID(ctx context.Context, orderID string) (*domain.Order, error) {
	val, closer, err := r.db.Get([]byte(orderKeyPrefix + orderID))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	defer closer.Close()

	var o domain.Order
	if err := json.Unmarshal(val, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *PebbleRepo) ListIndex(ctx context.Context) ([]domain.OrderIndexEntry, error) {
	it, err := r.db.NewIter(prefixBounds(indexKeyPrefix))
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var entries []domain.OrderIndexEntry
	for it.First(); it.Valid(); it.Next() {
		var e domain.OrderIndexEntry
		if err := json.Unmarshal(it.Value(), &e); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := it.Error(); err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
	return entries, nil
}

func (r *PebbleRepo) RebuildIndex(ctx context.Context) (int, error) {
	it, err := r.db.NewIter(prefixBounds(orderKeyPrefix))
	if err != nil {
		return 0, err
	}
	defer it.Close()

	count := 0
	for it.First(); it.Valid(); it.Next() {
		var o domain.Order
		if err := json.Unmarshal(it.Value(), &o); err != nil {
			return count, err
		}
		if err := r.AppendToIndex(ctx, domain.IndexEntryFromOrder(o)); err != nil {
			return count, err
		}
		count++
	}
	if err := it.Error(); err != nil {
		return count, err
	}
	return count, nil
}

func prefixBounds(prefix string) *pebble.IterOptions {
	upper := append([]byte(prefix[:len(prefix)-1]), prefix[len(prefix)-1]+1)
	return &pebble.IterOptions{
		LowerBound: []byte(prefix),
		UpperBound: upper,
	}
}
