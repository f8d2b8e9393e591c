package payment

import (
	"context"
	"errors"

	"agentshop/internal/domain"
)

// Capture receipt statuses reported by the processor.
const (
	CaptureSucceeded      = "succeeded"
	CaptureFailed         = "failed"
	CaptureRequiresAction = "requiresAction"
)

var (
	// ErrOutcomeUnknown means a capture was attempted but its outcome could
	// not be confirmed (timeout, transport failure, processor 5xx). The charge
	// may have gone through; callers must not retry and must not treat this
	// as a plain failure.
	ErrOutcomeUnknown = errors.New("capture outcome unknown")
	// ErrAlreadyCaptured is the processor's idempotent-conflict response when
	// a credential was already consumed by another capture.
	ErrAlreadyCaptured = errors.New("credential already captured")
)

// CaptureError is a definitive processor-side capture rejection.
type CaptureError struct {
	Code    string
	Message string
}

func (e *CaptureError) Error() string {
	return "capture rejected: " + e.Code + ": " + e.Message
}

// CaptureReceipt is the processor's record of a finalized charge attempt.
type CaptureReceipt struct {
	ReceiptID     string `json:"receiptId"`
	Status        string `json:"status"`
	FailureReason string `json:"failureReason,omitempty"`
}

// AuthorizeAndCaptureInput describes a single-shot charge against a stored
// instrument. IdempotencyKey makes processor-side retries safe; this client
// never retries on its own.
type AuthorizeAndCaptureInput struct {
	Identity       string
	InstrumentID   string
	AmountCents    int64
	Currency       string
	IdempotencyKey string
}

// Gateway is the boundary to the external payment processor. Lookup failures
// for unknown credentials are reported as domain.ErrNotFound.
type Gateway interface {
	LookupCredential(ctx context.Context, credentialID string) (*domain.PaymentCredential, error)
	Capture(ctx context.Context, credentialID string) (*CaptureReceipt, error)
	AuthorizeAndCapture(ctx context.Context, in AuthorizeAndCaptureInput) (*CaptureReceipt, error)
}
