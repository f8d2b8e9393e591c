package checkout

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"agentshop/internal/domain"
	"agentshop/internal/payment"
)

// BuildOrderInput carries the validated pieces an order record is assembled
// from. Credential is nil for the stored-instrument flow.
type BuildOrderInput struct {
	Credential *domain.PaymentCredential
	Receipt    *payment.CaptureReceipt
	Customer   domain.CustomerInfo
	Address    domain.ShippingAddress
	Lines      []domain.CartLine
	Totals     domain.OrderTotals
	Note       string
	Now        time.Time
}

// BuildOrder assembles the canonical order record. It performs no I/O and is
// only invoked after a successful capture, so status is always confirmed.
func BuildOrder(in BuildOrderInput) domain.Order {
	lines := make([]domain.OrderLine, 0, len(in.Lines))
	for _, l := range in.Lines {
		lines = append(lines, domain.OrderLine{
			ItemID:         l.ItemID,
			Quantity:       l.Quantity,
			UnitPriceCents: l.UnitPriceCents,
			TotalCents:     l.UnitPriceCents * int64(l.Quantity),
			Currency:       l.Currency,
		})
	}

	credentialID := ""
	if in.Credential != nil {
		credentialID = in.Credential.ID
	}

	return domain.Order{
		ID:              newOrderID(in.Now),
		CredentialID:    credentialID,
		ReceiptID:       in.Receipt.ReceiptID,
		Customer:        in.Customer,
		ShippingAddress: in.Address,
		Lines:           lines,
		Totals:          in.Totals,
		Status:          domain.OrderStatusConfirmed,
		Note:            in.Note,
		CreatedAt:       in.Now.UTC(),
	}
}

// newOrderID generates a fresh order identifier: millisecond timestamp prefix
// plus a random suffix. Uniqueness only needs to hold within one deployment's
// lifetime.
func newOrderID(now time.Time) string {
	var buf [6]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return fmt.Sprintf("ord-%d-%d", now.UnixMilli(), now.UnixNano()%1_000_000)
	}
	return fmt.Sprintf("ord-%d-%s", now.UnixMilli(), base64.RawURLEncoding.EncodeToString(buf[:]))
}
