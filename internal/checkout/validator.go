package checkout

import (
	"context"
	"errors"
	"time"

	"agentshop/internal/domain"
)

// Difference tolerated between the recomputed total and the authorized amount,
// in minor units.
const amountToleranceCents = 1

// CredentialSource resolves payment credentials, normally the gateway.
type CredentialSource interface {
	LookupCredential(ctx context.Context, credentialID string) (*domain.PaymentCredential, error)
}

// Validator checks a payment credential against the current cart state before
// any capture is allowed. Validate is side-effect free and idempotent.
type Validator struct {
	credentials CredentialSource
	totals      *TotalsCalculator
}

func NewValidator(credentials CredentialSource, totals *TotalsCalculator) *Validator {
	return &Validator{credentials: credentials, totals: totals}
}

// Validate runs the ordered credential checks, short-circuiting on the first
// failure: existence, ownership, status, freshness, cart integrity, amount
// reconciliation. On success it returns the reconciled totals and the
// resolved credential.
func (v *Validator) Validate(ctx context.Context, credentialID, identity string, lines []domain.CartLine, prepaidShipping bool, now time.Time) (domain.OrderTotals, *domain.PaymentCredential, error) {
	cred, err := v.credentials.LookupCredential(ctx, credentialID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.OrderTotals{}, nil, newError(KindCredentialNotFound, "payment authorization not found, please re-authorize", err)
		}
		return domain.OrderTotals{}, nil, err
	}

	if cred.OwnerIdentity != identity {
		return domain.OrderTotals{}, nil, newError(KindOwnershipMismatch, "payment authorization belongs to a different account", nil)
	}

	switch cred.Status {
	case domain.CredentialStatusAuthorized:
	case domain.CredentialStatusCaptured:
		return domain.OrderTotals{}, nil, newError(KindCredentialAlreadyCaptured, "payment authorization was already used", nil)
	default:
		return domain.OrderTotals{}, nil, newError(KindCredentialExpired, "payment authorization is no longer valid, please re-authorize", nil)
	}

	// expiresAt itself counts as expired.
	if !now.Before(cred.ExpiresAt) {
		return domain.OrderTotals{}, nil, newError(KindCredentialExpired, "payment authorization expired, please re-authorize", nil)
	}

	if Fingerprint(lines) != cred.CartFingerprint {
		return domain.OrderTotals{}, nil, newError(KindCartChanged, "cart changed since authorization, please re-confirm your order", nil)
	}

	totals := v.totals.Compute(lines, prepaidShipping)
	if totals.Currency != cred.Currency {
		return domain.OrderTotals{}, nil, newError(KindAmountMismatch, "order currency does not match the authorized amount", nil)
	}
	diff := totals.TotalCents - cred.AuthorizedAmountCents
	if diff < -amountToleranceCents || diff > amountToleranceCents {
		return domain.OrderTotals{}, nil, newError(KindAmountMismatch, "order total does not match the authorized amount, please re-confirm", nil)
	}

	return totals, cred, nil
}
