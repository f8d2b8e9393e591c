package httpserver

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"agentshop/internal/domain"
)

func indexFixture() []domain.OrderIndexEntry {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return []domain.OrderIndexEntry{
		{OrderID: "ord-1", CustomerEmail: "buyer@example.com", TotalCents: 100, CreatedAt: now},
		{OrderID: "ord-2", CustomerEmail: "other@example.com", TotalCents: 200, CreatedAt: now},
	}
}

func TestListOrdersFiltersForCustomers(t *testing.T) {
	router := newTestRouter(t, Deps{Orders: &stubOrderReader{entries: indexFixture()}})
	rec := doJSON(router, http.MethodGet, "/orders", "customer-token", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	if !strings.Contains(body, "ord-1") || strings.Contains(body, "ord-2") {
		t.Fatalf("expected only own orders, got %s", body)
	}
	if !strings.Contains(body, `"total":1`) {
		t.Fatalf("unexpected total: %s", body)
	}
}

func TestListOrdersServiceSeesAll(t *testing.T) {
	router := newTestRouter(t, Deps{Orders: &stubOrderReader{entries: indexFixture()}})
	rec := doJSON(router, http.MethodGet, "/orders", "agent-token", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"total":2`) {
		t.Fatalf("expected all orders for service token: %s", rec.Body.String())
	}
}

func TestListOrdersEmptyIsArray(t *testing.T) {
	router := newTestRouter(t, Deps{Orders: &stubOrderReader{}})
	rec := doJSON(router, http.MethodGet, "/orders", "customer-token", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"results":[]`) {
		t.Fatalf("expected empty array, got %s", rec.Body.String())
	}
}

func TestGetOrderOwnership(t *testing.T) {
	order := &domain.Order{ID: "ord-1", Customer: domain.CustomerInfo{Email: "other@example.com"}}
	router := newTestRouter(t, Deps{Orders: &stubOrderReader{order: order}})

	// Another customer's order reads as not found, not forbidden.
	rec := doJSON(router, http.MethodGet, "/orders/ord-1", "customer-token", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for foreign order, got %d", rec.Code)
	}

	rec = doJSON(router, http.MethodGet, "/orders/ord-1", "agent-token", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for service token, got %d", rec.Code)
	}
}

func TestGetOrderMissing(t *testing.T) {
	router := newTestRouter(t, Deps{Orders: &stubOrderReader{getErr: domain.ErrNotFound}})
	rec := doJSON(router, http.MethodGet, "/orders/nope", "customer-token", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestGetOrderOwnReturnsBody(t *testing.T) {
	order := &domain.Order{
		ID:       "ord-1",
		Customer: domain.CustomerInfo{Email: "buyer@example.com"},
		Totals:   domain.OrderTotals{TotalCents: 108, Currency: "USD"},
	}
	router := newTestRouter(t, Deps{Orders: &stubOrderReader{order: order}})
	rec := doJSON(router, http.MethodGet, "/orders/ord-1", "customer-token", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"id":"ord-1"`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}
