package domain

import "time"

// Credential statuses as reported by the payment gateway.
const (
	CredentialStatusAuthorized = "authorized"
	CredentialStatusCaptured   = "captured"
	CredentialStatusExpired    = "expired"
	CredentialStatusInvalid    = "invalid"
)

// PaymentCredential is a pre-authorized, time-bounded payment permission bound
// to one identity, one cart fingerprint, and one amount. It is issued upstream
// and consumed exactly once by capture.
type PaymentCredential struct {
	ID                    string    `json:"id"`
	OwnerIdentity         string    `json:"ownerIdentity"`
	AuthorizedAmountCents int64     `json:"authorizedAmountCents"`
	Currency              string    `json:"currency"`
	CartFingerprint       string    `json:"cartFingerprint"`
	IssuedAt              time.Time `json:"issuedAt"`
	ExpiresAt             time.Time `json:"expiresAt"`
	Status                string    `json:"status"`
}
