package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"agentshop/internal/checkout"
	"agentshop/internal/domain"
)

type lineItemRequest struct {
	ItemID         string `json:"itemId"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unitPriceCents"`
	Currency       string `json:"currency"`
}

type addressRequest struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Country    string `json:"country"`
	StreetName string `json:"streetName"`
	PostalCode string `json:"postalCode"`
	City       string `json:"city"`
}

type contactRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type checkoutRequest struct {
	CredentialID    string            `json:"credentialId"`
	InstrumentID    string            `json:"instrumentId"`
	LineItems       []lineItemRequest `json:"lineItems"`
	ShippingAddress addressRequest    `json:"shippingAddress"`
	CustomerContact contactRequest    `json:"customerContact"`
	Note            string            `json:"note"`
}

type checkoutResponse struct {
	OrderID  string             `json:"orderId"`
	Totals   domain.OrderTotals `json:"totals"`
	Status   string             `json:"status"`
	Degraded bool               `json:"degraded,omitempty"`
}

type quoteRequest struct {
	LineItems       []lineItemRequest `json:"lineItems"`
	PrepaidShipping bool              `json:"prepaidShipping"`
}

// cartLines validates and converts the submitted line items. Duplicate item
// IDs are rejected; callers merge quantities before submission.
func cartLines(items []lineItemRequest) ([]domain.CartLine, error) {
	if len(items) == 0 {
		return nil, errors.New("lineItems required")
	}
	seen := make(map[string]struct{}, len(items))
	lines := make([]domain.CartLine, 0, len(items))
	for _, it := range items {
		if it.ItemID == "" {
			return nil, errors.New("itemId required")
		}
		if _, ok := seen[it.ItemID]; ok {
			return nil, errors.New("duplicate itemId: " + it.ItemID)
		}
		seen[it.ItemID] = struct{}{}
		if it.Quantity <= 0 {
			return nil, errors.New("quantity must be positive")
		}
		if it.UnitPriceCents < 0 {
			return nil, errors.New("unitPriceCents must not be negative")
		}
		lines = append(lines, domain.CartLine{
			ItemID:         it.ItemID,
			Quantity:       it.Quantity,
			UnitPriceCents: it.UnitPriceCents,
			Currency:       it.Currency,
		})
	}
	return lines, nil
}

func checkoutHandler(svc checkoutService, prepaidShipping bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req checkoutRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"errorKind": "bad_request", "message": "invalid request body"})
			return
		}

		lines, err := cartLines(req.LineItems)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"errorKind": "bad_request", "message": err.Error()})
			return
		}

		if (req.CredentialID == "") == (req.InstrumentID == "") {
			c.JSON(http.StatusBadRequest, gin.H{"errorKind": "bad_request", "message": "exactly one of credentialId or instrumentId required"})
			return
		}

		who := identityFromContext(c)
		customer := domain.CustomerInfo{Name: req.CustomerContact.Name, Email: req.CustomerContact.Email}
		if customer.Email == "" {
			customer.Email = who
		}
		address := domain.ShippingAddress{
			FirstName:  req.ShippingAddress.FirstName,
			LastName:   req.ShippingAddress.LastName,
			Country:    req.ShippingAddress.Country,
			StreetName: req.ShippingAddress.StreetName,
			PostalCode: req.ShippingAddress.PostalCode,
			City:       req.ShippingAddress.City,
		}

		var res checkout.Result
		if req.CredentialID != "" {
			res, err = svc.CheckoutWithCredential(c.Request.Context(), checkout.Input{
				CredentialID:    req.CredentialID,
				Identity:        who,
				Lines:           lines,
				Customer:        customer,
				Address:         address,
				Note:            req.Note,
				PrepaidShipping: prepaidShipping,
			})
		} else {
			res, err = svc.CheckoutWithInstrument(c.Request.Context(), checkout.InstrumentInput{
				Identity:        who,
				InstrumentID:    req.InstrumentID,
				Lines:           lines,
				Customer:        customer,
				Address:         address,
				Note:            req.Note,
				PrepaidShipping: prepaidShipping,
			})
		}
		if err != nil {
			writeCheckoutError(c, err)
			return
		}

		c.JSON(http.StatusOK, checkoutResponse{
			OrderID:  res.Order.ID,
			Totals:   res.Totals,
			Status:   domain.OrderStatusConfirmed,
			Degraded: res.PersistenceFailed,
		})
	}
}

func quoteHandler(svc checkoutService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req quoteRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"errorKind": "bad_request", "message": "invalid request body"})
			return
		}
		lines, err := cartLines(req.LineItems)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"errorKind": "bad_request", "message": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"totals": svc.Quote(lines, req.PrepaidShipping)})
	}
}

// writeCheckoutError maps tagged checkout errors onto HTTP statuses. Each
// kind stays distinguishable so clients can tell a stale cart from an
// unauthorized or failed payment.
func writeCheckoutError(c *gin.Context, err error) {
	var ce *checkout.Error
	if !errors.As(err, &ce) {
		c.JSON(http.StatusInternalServerError, gin.H{"errorKind": "internal", "message": "checkout failed unexpectedly"})
		return
	}

	status := http.StatusInternalServerError
	switch ce.Kind {
	case checkout.KindUnauthenticated:
		status = http.StatusUnauthorized
	case checkout.KindOwnershipMismatch:
		status = http.StatusForbidden
	case checkout.KindCredentialExpired:
		status = http.StatusGone
	case checkout.KindCredentialNotFound:
		status = http.StatusNotFound
	case checkout.KindCartChanged, checkout.KindAmountMismatch:
		status = http.StatusBadRequest
	case checkout.KindCaptureFailed, checkout.KindCaptureOutcomeUnknown, checkout.KindCredentialAlreadyCaptured:
		status = http.StatusPaymentRequired
	}

	c.JSON(status, gin.H{"errorKind": string(ce.Kind), "message": ce.Message})
}
