package checkout

import (
	"errors"
	"fmt"
)

// ErrorKind tags each checkout failure so callers can react per kind instead
// of guessing from a message or status code.
type ErrorKind string

const (
	KindUnauthenticated           ErrorKind = "unauthenticated"
	KindCredentialNotFound        ErrorKind = "credential_not_found"
	KindOwnershipMismatch         ErrorKind = "ownership_mismatch"
	KindCredentialExpired         ErrorKind = "credential_expired"
	KindCartChanged               ErrorKind = "cart_changed"
	KindAmountMismatch            ErrorKind = "amount_mismatch"
	KindCaptureFailed             ErrorKind = "capture_failed"
	KindCaptureOutcomeUnknown     ErrorKind = "capture_outcome_unknown"
	KindCredentialAlreadyCaptured ErrorKind = "credential_already_captured"
	KindPersistenceFailed         ErrorKind = "persistence_failed"
	KindIndexUpdateFailed         ErrorKind = "index_update_failed"
)

// Error is a tagged checkout failure.
type Error struct {
	Kind    ErrorKind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

func newError(kind ErrorKind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

// KindOf extracts the error kind, or empty string for untagged errors.
func KindOf(err error) ErrorKind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ""
}
