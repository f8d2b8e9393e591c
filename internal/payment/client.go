package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"agentshop/internal/config"
	"agentshop/internal/domain"
)

const idempotencyHeader = "Idempotency-Key"

// Client talks to the payment processor's HTTP API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewClient builds a processor client from gateway configuration.
func NewClient(cfg config.Gateway) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
	}
}

type credentialResponse struct {
	ID                    string    `json:"id"`
	OwnerIdentity         string    `json:"ownerIdentity"`
	AuthorizedAmountCents int64     `json:"authorizedAmountCents"`
	Currency              string    `json:"currency"`
	CartFingerprint       string    `json:"cartFingerprint"`
	IssuedAt              time.Time `json:"issuedAt"`
	ExpiresAt             time.Time `json:"expiresAt"`
	Status                string    `json:"status"`
}

type processorError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (c *Client) LookupCredential(ctx context.Context, credentialID string) (*domain.PaymentCredential, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/credentials/"+credentialID, nil)
	if err != nil {
		return nil, fmt.Errorf("http new request: %w", err)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("credential lookup: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var out credentialResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return nil, fmt.Errorf("decode credential: %w", err)
		}
		return &domain.PaymentCredential{
			ID:                    out.ID,
			OwnerIdentity:         out.OwnerIdentity,
			AuthorizedAmountCents: out.AuthorizedAmountCents,
			Currency:              out.Currency,
			CartFingerprint:       out.CartFingerprint,
			IssuedAt:              out.IssuedAt,
			ExpiresAt:             out.ExpiresAt,
			Status:                out.Status,
		}, nil
	case http.StatusNotFound:
		return nil, domain.ErrNotFound
	default:
		return nil, fmt.Errorf("credential lookup: unexpected status %d", resp.StatusCode)
	}
}

// Capture finalizes a previously authorized charge. Any transport failure or
// processor 5xx resolves to ErrOutcomeUnknown because the charge may have
// succeeded on the processor's side.
func (c *Client) Capture(ctx context.Context, credentialID string) (*CaptureReceipt, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/credentials/"+credentialID+"/capture", nil)
	if err != nil {
		return nil, fmt.Errorf("http new request: %w", err)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOutcomeUnknown, err)
	}
	defer resp.Body.Close()

	return c.decodeCaptureResponse(resp)
}

// AuthorizeAndCapture performs a single-shot charge against a stored
// instrument, keyed for processor-side idempotency.
func (c *Client) AuthorizeAndCapture(ctx context.Context, in AuthorizeAndCaptureInput) (*CaptureReceipt, error) {
	body, err := json.Marshal(map[string]any{
		"identity":     in.Identity,
		"instrumentId": in.InstrumentID,
		"amountCents":  in.AmountCents,
		"currency":     in.Currency,
	})
	if err != nil {
		return nil, fmt.Errorf("encode charge: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/charges", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("http new request: %w", err)
	}
	c.authorize(req)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(idempotencyHeader, in.IdempotencyKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOutcomeUnknown, err)
	}
	defer resp.Body.Close()

	return c.decodeCaptureResponse(resp)
}

func (c *Client) decodeCaptureResponse(resp *http.Response) (*CaptureReceipt, error) {
	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
		var out CaptureReceipt
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			// The processor accepted the capture but we could not read the
			// receipt; the outcome stands unconfirmed.
			return nil, fmt.Errorf("%w: decode receipt: %v", ErrOutcomeUnknown, err)
		}
		return &out, nil
	case resp.StatusCode == http.StatusConflict:
		return nil, ErrAlreadyCaptured
	case resp.StatusCode == http.StatusNotFound:
		return nil, domain.ErrNotFound
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: processor status %d", ErrOutcomeUnknown, resp.StatusCode)
	default:
		var perr processorError
		if err := json.NewDecoder(resp.Body).Decode(&perr); err != nil || perr.Code == "" {
			perr = processorError{Code: "rejected", Message: fmt.Sprintf("processor status %d", resp.StatusCode)}
		}
		return nil, &CaptureError{Code: perr.Code, Message: perr.Message}
	}
}

func (c *Client) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}
