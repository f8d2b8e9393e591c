package checkout

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"agentshop/internal/domain"
	"agentshop/internal/payment"
)

// State names the orchestrator's position in the checkout pipeline.
type State string

const (
	StateReceived            State = "received"
	StateCredentialValidated State = "credential_validated"
	StateCaptured            State = "captured"
	StateOrderPersisted      State = "order_persisted"
	StateCompleted           State = "completed"
	StateRejected            State = "rejected"
	StateFailed              State = "failed"
)

// OrderStore persists confirmed orders and maintains the listing index.
type OrderStore interface {
	Save(ctx context.Context, order domain.Order) error
	AppendToIndex(ctx context.Context, entry domain.OrderIndexEntry) error
}

// MetricsSink records checkout outcomes. Nil disables recording.
type MetricsSink interface {
	ObserveCheckout(outcome string)
	ObserveCaptureSeconds(seconds float64)
}

// EventPublisher announces confirmed orders. Nil disables publishing; failures
// are best-effort and never affect the checkout result.
type EventPublisher interface {
	OrderConfirmed(ctx context.Context, order domain.Order) error
}

// Input is a credential-based checkout request.
type Input struct {
	CredentialID    string
	Identity        string
	Lines           []domain.CartLine
	Customer        domain.CustomerInfo
	Address         domain.ShippingAddress
	Note            string
	PrepaidShipping bool
}

// InstrumentInput is a stored-instrument checkout request.
type InstrumentInput struct {
	Identity        string
	InstrumentID    string
	Lines           []domain.CartLine
	Customer        domain.CustomerInfo
	Address         domain.ShippingAddress
	Note            string
	PrepaidShipping bool
}

// Result reports where the pipeline ended and what it produced. When
// PersistenceFailed is set the charge succeeded but the order record could not
// be written; the caller must still treat the purchase as placed.
type Result struct {
	State             State
	Order             *domain.Order
	Totals            domain.OrderTotals
	PersistenceFailed bool
	IndexStale        bool
}

// Service orchestrates the checkout pipeline: validate, capture, build,
// persist, index. Each request runs one independent instance of the flow; the
// only cross-request shared state is the store's index.
type Service struct {
	gateway   payment.Gateway
	store     OrderStore
	totals    *TotalsCalculator
	validator *Validator
	logger    *log.Logger
	metrics   MetricsSink
	events    EventPublisher
	now       func() time.Time
}

func New(gateway payment.Gateway, store OrderStore, totals *TotalsCalculator, logger *log.Logger, metrics MetricsSink, events EventPublisher) *Service {
	return &Service{
		gateway:   gateway,
		store:     store,
		totals:    totals,
		validator: NewValidator(gateway, totals),
		logger:    logger,
		metrics:   metrics,
		events:    events,
		now:       time.Now,
	}
}

// Quote computes the totals a client would be charged, using the same
// calculator the capture-time reconciliation uses.
func (s *Service) Quote(lines []domain.CartLine, prepaidShipping bool) domain.OrderTotals {
	return s.totals.Compute(lines, prepaidShipping)
}

// CheckoutWithCredential runs the pre-authorized flow. Validation failures
// reject the request before any charge; the capture call is attempted at most
// once.
func (s *Service) CheckoutWithCredential(ctx context.Context, in Input) (Result, error) {
	res := Result{State: StateReceived}

	totals, cred, err := s.validator.Validate(ctx, in.CredentialID, in.Identity, in.Lines, in.PrepaidShipping, s.now())
	if err != nil {
		res.State = StateRejected
		s.observe("rejected")
		return res, err
	}
	res.State = StateCredentialValidated
	res.Totals = totals

	started := s.now()
	receipt, err := s.gateway.Capture(ctx, cred.ID)
	s.observeCapture(started)
	if err != nil {
		res.State = StateFailed
		s.observe("failed")
		return res, wrapCaptureError(err)
	}
	if receipt.Status != payment.CaptureSucceeded {
		res.State = StateFailed
		s.observe("failed")
		return res, newError(KindCaptureFailed, captureFailureMessage(receipt), nil)
	}
	res.State = StateCaptured

	return s.finalize(ctx, res, BuildOrderInput{
		Credential: cred,
		Receipt:    receipt,
		Customer:   in.Customer,
		Address:    in.Address,
		Lines:      in.Lines,
		Totals:     totals,
		Note:       in.Note,
		Now:        s.now(),
	})
}

// CheckoutWithInstrument runs the stored-instrument flow: totals are computed
// directly and the charge is authorized and captured in one idempotency-keyed
// call.
func (s *Service) CheckoutWithInstrument(ctx context.Context, in InstrumentInput) (Result, error) {
	res := Result{State: StateReceived}

	totals := s.totals.Compute(in.Lines, in.PrepaidShipping)
	res.State = StateCredentialValidated
	res.Totals = totals

	started := s.now()
	receipt, err := s.gateway.AuthorizeAndCapture(ctx, payment.AuthorizeAndCaptureInput{
		Identity:       in.Identity,
		InstrumentID:   in.InstrumentID,
		AmountCents:    totals.TotalCents,
		Currency:       totals.Currency,
		IdempotencyKey: uuid.NewString(),
	})
	s.observeCapture(started)
	if err != nil {
		res.State = StateFailed
		s.observe("failed")
		return res, wrapCaptureError(err)
	}
	if receipt.Status != payment.CaptureSucceeded {
		res.State = StateFailed
		s.observe("failed")
		return res, newError(KindCaptureFailed, captureFailureMessage(receipt), nil)
	}
	res.State = StateCaptured

	return s.finalize(ctx, res, BuildOrderInput{
		Receipt:  receipt,
		Customer: in.Customer,
		Address:  in.Address,
		Lines:    in.Lines,
		Totals:   totals,
		Note:     in.Note,
		Now:      s.now(),
	})
}

// finalize builds and persists the order after a successful capture. From this
// point on the money has moved, so failures are reported alongside success
// instead of replacing it.
func (s *Service) finalize(ctx context.Context, res Result, in BuildOrderInput) (Result, error) {
	order := BuildOrder(in)
	res.Order = &order

	if err := s.store.Save(ctx, order); err != nil {
		// The customer was charged; never report this as a payment failure.
		// Escalate for manual reconciliation instead.
		s.logger.Printf("ALERT: order persistence failed after capture: order=%s receipt=%s credential=%s err=%v",
			order.ID, order.ReceiptID, order.CredentialID, err)
		res.PersistenceFailed = true
		s.observe("degraded")
		return res, nil
	}
	res.State = StateOrderPersisted

	if err := s.store.AppendToIndex(ctx, domain.IndexEntryFromOrder(order)); err != nil {
		s.logger.Printf("order index update failed: order=%s err=%v", order.ID, err)
		res.IndexStale = true
	}
	res.State = StateCompleted
	s.observe("completed")

	if s.events != nil {
		if err := s.events.OrderConfirmed(ctx, order); err != nil {
			s.logger.Printf("order event publish failed: order=%s err=%v", order.ID, err)
		}
	}

	return res, nil
}

func (s *Service) observe(outcome string) {
	if s.metrics != nil {
		s.metrics.ObserveCheckout(outcome)
	}
}

func (s *Service) observeCapture(started time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveCaptureSeconds(s.now().Sub(started).Seconds())
	}
}

// wrapCaptureError tags gateway capture errors so each outcome stays
// distinguishable: an unknown outcome must never be retried or reported as a
// plain decline, and an idempotent conflict must never trigger a second charge.
func wrapCaptureError(err error) error {
	switch {
	case errors.Is(err, payment.ErrOutcomeUnknown):
		return newError(KindCaptureOutcomeUnknown, "payment outcome could not be confirmed; do not retry before checking with support", err)
	case errors.Is(err, payment.ErrAlreadyCaptured):
		return newError(KindCredentialAlreadyCaptured, "this payment authorization was already used", err)
	case errors.Is(err, domain.ErrNotFound):
		return newError(KindCredentialNotFound, "payment authorization not found, please re-authorize", err)
	default:
		var capErr *payment.CaptureError
		if errors.As(err, &capErr) {
			return newError(KindCaptureFailed, "payment could not be completed: "+capErr.Message, err)
		}
		return newError(KindCaptureFailed, "payment could not be completed", err)
	}
}

func captureFailureMessage(receipt *payment.CaptureReceipt) string {
	if receipt.Status == payment.CaptureRequiresAction {
		return "payment requires additional verification and could not be completed automatically"
	}
	if receipt.FailureReason != "" {
		return "payment could not be completed: " + receipt.FailureReason
	}
	return "payment could not be completed"
}
