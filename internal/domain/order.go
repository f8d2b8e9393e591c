package domain

import "time"

// OrderStatusConfirmed is the only status this subsystem assigns. Later
// lifecycle states belong to downstream fulfillment.
const OrderStatusConfirmed = "confirmed"

// OrderTotals is derived from a cart plus shipping policy, never trusted from
// client input.
type OrderTotals struct {
	SubtotalCents    int64  `json:"subtotalCents"`
	ShippingFeeCents int64  `json:"shippingFeeCents"`
	TaxCents         int64  `json:"taxCents"`
	TotalCents       int64  `json:"totalCents"`
	Currency         string `json:"currency"`
}

// CustomerInfo identifies the purchaser on the order record.
type CustomerInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ShippingAddress stores destination fields captured at checkout.
type ShippingAddress struct {
	FirstName  string `json:"firstName,omitempty"`
	LastName   string `json:"lastName,omitempty"`
	Country    string `json:"country,omitempty"`
	StreetName string `json:"streetName,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	City       string `json:"city,omitempty"`
}

// OrderLine snapshots a cart line into the order record.
type OrderLine struct {
	ItemID         string `json:"itemId"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unitPriceCents"`
	TotalCents     int64  `json:"totalCents"`
	Currency       string `json:"currency"`
}

// Order is the canonical record of a confirmed purchase. Once persisted it is
// owned by the order store.
type Order struct {
	ID              string          `json:"id"`
	CredentialID    string          `json:"credentialId,omitempty"`
	ReceiptID       string          `json:"receiptId"`
	Customer        CustomerInfo    `json:"customer"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	Lines           []OrderLine     `json:"lines"`
	Totals          OrderTotals     `json:"totals"`
	Status          string          `json:"status"`
	Note            string          `json:"note,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// OrderIndexEntry is a denormalized projection of Order kept in a secondary
// collection for listing without loading full order bodies. It is always
// derived from the Order, never from the index itself.
type OrderIndexEntry struct {
	OrderID       string    `json:"orderId"`
	CustomerEmail string    `json:"customerEmail"`
	CustomerName  string    `json:"customerName"`
	TotalCents    int64     `json:"totalCents"`
	Currency      string    `json:"currency"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
}

// IndexEntryFromOrder derives the listing projection for an order.
func IndexEntryFromOrder(o Order) OrderIndexEntry {
	return OrderIndexEntry{
		OrderID:       o.ID,
		CustomerEmail: o.Customer.Email,
		CustomerName:  o.Customer.Name,
		TotalCents:    o.Totals.TotalCents,
		Currency:      o.Totals.Currency,
		Status:        o.Status,
		CreatedAt:     o.CreatedAt,
	}
}
