package checkout

import (
	"github.com/shopspring/decimal"

	"agentshop/internal/domain"
)

// TotalsCalculator maps a cart to order totals. It is pure and deterministic;
// the same instance serves both pre-checkout quotes and capture-time
// reconciliation so the shipping waiver can never diverge between the two.
type TotalsCalculator struct {
	flatShippingFeeCents       int64
	freeShippingThresholdCents int64
	taxRate                    decimal.Decimal
}

// NewTotalsCalculator builds a calculator with a flat shipping fee, a
// free-shipping threshold, and a single flat tax rate applied regardless of
// destination.
func NewTotalsCalculator(flatShippingFeeCents, freeShippingThresholdCents int64, taxRate decimal.Decimal) *TotalsCalculator {
	return &TotalsCalculator{
		flatShippingFeeCents:       flatShippingFeeCents,
		freeShippingThresholdCents: freeShippingThresholdCents,
		taxRate:                    taxRate,
	}
}

// Compute derives subtotal, shipping, tax, and total in minor units.
// Shipping is waived when prepaidShipping is set or the subtotal reaches the
// free-shipping threshold. Tax is rounded half-up to the minor unit.
func (c *TotalsCalculator) Compute(lines []domain.CartLine, prepaidShipping bool) domain.OrderTotals {
	var subtotal int64
	currency := ""
	for _, line := range lines {
		subtotal += line.UnitPriceCents * int64(line.Quantity)
		if currency == "" {
			currency = line.Currency
		}
	}
	if currency == "" {
		currency = "USD"
	}

	var shipping int64
	if !prepaidShipping && subtotal < c.freeShippingThresholdCents {
		shipping = c.flatShippingFeeCents
	}

	// decimal.Round rounds half away from zero, which is half-up for the
	// non-negative amounts handled here.
	tax := decimal.NewFromInt(subtotal).Mul(c.taxRate).Round(0).IntPart()

	return domain.OrderTotals{
		SubtotalCents:    subtotal,
		ShippingFeeCents: shipping,
		TaxCents:         tax,
		TotalCents:       subtotal + shipping + tax,
		Currency:         currency,
	}
}
