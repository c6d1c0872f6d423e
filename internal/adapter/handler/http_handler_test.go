package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jcastrom/pospoint/internal/core/domain"
	"github.com/jcastrom/pospoint/internal/core/register"
	"github.com/jcastrom/pospoint/internal/metrics"
)

type fakeStore struct {
	mu        sync.Mutex
	products  []domain.Product
	movements []domain.InventoryMovement
	sales     []domain.SaleRequest
	applyErr  error
}

func (f *fakeStore) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return f.products, nil
}

func (f *fakeStore) ApplyMovement(ctx context.Context, m domain.InventoryMovement) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.applyErr != nil {
		return f.applyErr
	}
	f.movements = append(f.movements, m)
	return nil
}

func (f *fakeStore) RecordSale(ctx context.Context, req domain.SaleRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sales = append(f.sales, req)
	return nil
}

type fakeIdem struct {
	mu   sync.Mutex
	seen map[string]bool
}

func (f *fakeIdem) SetIdempotency(ctx context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.seen == nil {
		f.seen = make(map[string]bool)
	}
	if f.seen[key] {
		return false, nil
	}
	f.seen[key] = true
	return true, nil
}

func newTestHandler(store *fakeStore) *HTTPHandler {
	svc := register.NewService(store, &fakeIdem{})
	m := metrics.NewServerMetrics(prometheus.NewRegistry())
	return NewHTTPHandler(svc, m)
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) apiResponse {
	t.Helper()
	var resp apiResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func TestListProducts(t *testing.T) {
	store := &fakeStore{products: []domain.Product{
		{ID: 1, Name: "notebook", Price: 9.99, Stock: 5},
	}}
	h := newTestHandler(store)

	rec := httptest.NewRecorder()
	h.ListProducts(rec, httptest.NewRequest(http.MethodGet, "/api/products", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	resp := decodeResponse(t, rec)
	if !resp.Success {
		t.Errorf("expected success, got: %+v", resp)
	}

	data, _ := json.Marshal(resp.Data)
	var products []productResponse
	json.Unmarshal(data, &products)
	if len(products) != 1 || products[0].Name != "notebook" {
		t.Errorf("unexpected products: %+v", products)
	}
}

func TestApplyMovement_Success(t *testing.T) {
	store := &fakeStore{}
	h := newTestHandler(store)

	body := `{"product_id":1,"delta":-2,"reason":"sale","user_id":7,"idempotency_key":"k1"}`
	rec := httptest.NewRecorder()
	h.ApplyMovement(rec, httptest.NewRequest(http.MethodPost, "/api/inventory/movements", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}
	if len(store.movements) != 1 {
		t.Fatalf("expected 1 movement, got %d", len(store.movements))
	}
	if m := store.movements[0]; m.ProductID != 1 || m.Delta != -2 || m.UserID != 7 || m.Key != "k1" {
		t.Errorf("unexpected movement: %+v", m)
	}
}

func TestApplyMovement_Duplicate(t *testing.T) {
	store := &fakeStore{}
	h := newTestHandler(store)

	body := `{"product_id":1,"delta":-2,"reason":"sale","user_id":7,"idempotency_key":"k1"}`
	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		h.ApplyMovement(rec, httptest.NewRequest(http.MethodPost, "/api/inventory/movements", strings.NewReader(body)))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, rec.Code)
		}
	}

	if len(store.movements) != 1 {
		t.Errorf("duplicate movement applied, got %d applications", len(store.movements))
	}
}

func TestApplyMovement_InsufficientStock(t *testing.T) {
	store := &fakeStore{applyErr: domain.ErrInsufficientStock}
	h := newTestHandler(store)

	body := `{"product_id":1,"delta":-20,"reason":"sale","user_id":7}`
	rec := httptest.NewRecorder()
	h.ApplyMovement(rec, httptest.NewRequest(http.MethodPost, "/api/inventory/movements", strings.NewReader(body)))

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	resp := decodeResponse(t, rec)
	if resp.Success || resp.Message != "insufficient stock" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestApplyMovement_UnknownProduct(t *testing.T) {
	store := &fakeStore{applyErr: domain.ErrUnknownProduct}
	h := newTestHandler(store)

	body := `{"product_id":99,"delta":-1,"reason":"sale","user_id":7}`
	rec := httptest.NewRecorder()
	h.ApplyMovement(rec, httptest.NewRequest(http.MethodPost, "/api/inventory/movements", strings.NewReader(body)))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestApplyMovement_InvalidBody(t *testing.T) {
	h := newTestHandler(&fakeStore{})

	rec := httptest.NewRecorder()
	h.ApplyMovement(rec, httptest.NewRequest(http.MethodPost, "/api/inventory/movements", strings.NewReader("{broken")))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestRecordSale_Success(t *testing.T) {
	store := &fakeStore{}
	h := newTestHandler(store)

	body := `{"id":"sale-1","user_id":7,"total":19.98,"details":[{"product_id":1,"quantity":2,"unit_price":9.99,"subtotal":19.98}]}`
	rec := httptest.NewRecorder()
	h.RecordSale(rec, httptest.NewRequest(http.MethodPost, "/api/sales", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}
	if len(store.sales) != 1 {
		t.Fatalf("expected 1 sale, got %d", len(store.sales))
	}
	if s := store.sales[0]; s.UserID != 7 || len(s.Details) != 1 {
		t.Errorf("unexpected sale: %+v", s)
	}
}

func TestRecordSale_MissingUser(t *testing.T) {
	h := newTestHandler(&fakeStore{})

	body := `{"total":5,"details":[{"product_id":1,"quantity":1,"unit_price":5,"subtotal":5}]}`
	rec := httptest.NewRecorder()
	h.RecordSale(rec, httptest.NewRequest(http.MethodPost, "/api/sales", strings.NewReader(body)))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
