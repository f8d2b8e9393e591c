package order

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"agentshop/internal/domain"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) Save(ctx context.Context, o domain.Order) error {
	const q = `
INSERT INTO orders (id, credential_id, receipt_id, customer_name, customer_email, shipping_address, lines,
                    subtotal_cents, shipping_fee_cents, tax_cents, total_cents, currency, status, note, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
ON CONFLICT (id) DO UPDATE
SET credential_id = EXCLUDED.credential_id,
    receipt_id = EXCLUDED.receipt_id,
    customer_name = EXCLUDED.customer_name,
    customer_email = EXCLUDED.customer_email,
    shipping_address = EXCLUDED.shipping_address,
    lines = EXCLUDED.lines,
    subtotal_cents = EXCLUDED.subtotal_cents,
    shipping_fee_cents = EXCLUDED.shipping_fee_cents,
    tax_cents = EXCLUDED.tax_cents,
    total_cents = EXCLUDED.total_cents,
    currency = EXCLUDED.currency,
    status = EXCLUDED.status,
    note = EXCLUDED.note
`
	_, err := r.pool.Exec(ctx, q,
		o.ID, o.CredentialID, o.ReceiptID, o.Customer.Name, o.Customer.Email, o.ShippingAddress, o.Lines,
		o.Totals.SubtotalCents, o.Totals.ShippingFeeCents, o.Totals.TaxCents, o.Totals.TotalCents,
		o.Totals.Currency, o.Status, o.Note, o.CreatedAt,
	)
	return err
}

func (r *postgresRepo) AppendToIndex(ctx context.Context, e domain.OrderIndexEntry) error {
	// Merge keyed by order_id; concurrent appends never overwrite each other.
	const q = `
INSERT INTO order_index (order_id, customer_email, customer_name, total_cents, currency, status, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (order_id) DO UPDATE
SET customer_email = EXCLUDED.customer_email,
    customer_name = EXCLUDED.customer_name,
    total_cents = EXCLUDED.total_cents,
    currency = EXCLUDED.currency,
    status = EXCLUDED.status
`
	_, err := r.pool.Exec(ctx, q, e.OrderID, e.CustomerEmail, e.CustomerName, e.TotalCents, e.Currency, e.Status, e.CreatedAt)
	return err
}

func (r *postgresRepo) GetByID(ctx context.Context, orderID string) (*domain.Order, error) {
	const q = `
SELECT id, credential_id, receipt_id, customer_name, customer_email, shipping_address, lines,
       subtotal_cents, shipping_fee_cents, tax_cents, total_cents, currency, status, note, created_at
FROM orders
WHERE id = $1
`
	var o domain.Order
	if err := r.pool.QueryRow(ctx, q, orderID).Scan(
		&o.ID,
		&o.CredentialID,
		&o.ReceiptID,
		&o.Customer.Name,
		&o.Customer.Email,
		&o.ShippingAddress,
		&o.Lines,
		&o.Totals.SubtotalCents,
		&o.Totals.ShippingFeeCents,
		&o.Totals.TaxCents,
		&o.Totals.TotalCents,
		&o.Totals.Currency,
		&o.Status,
		&o.Note,
		&o.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

func (r *postgresRepo) ListIndex(ctx context.Context) ([]domain.OrderIndexEntry, error) {
	const q = `
SELECT order_id, customer_email, customer_name, total_cents, currency, status, created_at
FROM order_index
ORDER BY created_at DESC
`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.OrderIndexEntry
	for rows.Next() {
		var e domain.OrderIndexEntry
		if err := rows.Scan(
			&e.OrderID,
			&e.CustomerEmail,
			&e.CustomerName,
			&e.TotalCents,
			&e.Currency,
			&e.Status,
			&e.CreatedAt,
		); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *postgresRepo) RebuildIndex(ctx context.Context) (int, error) {
	const q = `
INSERT INTO order_index (order_id, customer_email, customer_name, total_cents, currency, status, created_at)
SELECT id, customer_email, customer_name, total_cents, currency, status, created_at
FROM orders
ON CONFLICT (order_id) DO UPDATE
SET customer_email = EXCLUDED.customer_email,
    customer_name = EXCLUDED.customer_name,
    total_cents = EXCLUDED.total_cents,
    currency = EXCLUDED.currency,
    status = EXCLUDED.status
`
	cmd, err := r.pool.Exec(ctx, q)
	if err != nil {
		return 0, err
	}
	return int(cmd.RowsAffected()), nil
}
