package domain

// CartLine is one line of a cart snapshot submitted for checkout.
// ItemID is unique within a cart; callers merge duplicate lines before
// submission. Immutable once captured.
type CartLine struct {
	ItemID         string `json:"itemId"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unitPriceCents"`
	Currency       string `json:"currency"`
}
