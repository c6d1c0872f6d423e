package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/jcastrom/pospoint/internal/core/domain"
	"github.com/jcastrom/pospoint/internal/core/register"
	"github.com/jcastrom/pospoint/internal/metrics"
)

type HTTPHandler struct {
	register *register.Service
	metrics  *metrics.ServerMetrics
}

func NewHTTPHandler(svc *register.Service, m *metrics.ServerMetrics) *HTTPHandler {
	return &HTTPHandler{register: svc, metrics: m}
}

type productResponse struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Stock int     `json:"stock"`
}

type movementRequest struct {
	ProductID int64  `json:"product_id"`
	Delta     int    `json:"delta"`
	Reason    string `json:"reason"`
	UserID    int64  `json:"user_id"`
	Key       string `json:"idempotency_key"`
}

type saleDetailRequest struct {
	ProductID int64   `json:"product_id"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	Subtotal  float64 `json:"subtotal"`
}

type saleRequest struct {
	ID      string              `json:"id"`
	UserID  int64               `json:"user_id"`
	Total   float64             `json:"total"`
	Details []saleDetailRequest `json:"details"`
}

type apiResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func (h *HTTPHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	products, err := h.register.ListProducts(r.Context())
	if err != nil {
		h.writeError(w, "products", start, http.StatusInternalServerError, "internal error")
		return
	}

	out := make([]productResponse, 0, len(products))
	for _, p := range products {
		out = append(out, productResponse{ID: p.ID, Name: p.Name, Price: p.Price, Stock: p.Stock})
	}
	h.observe("products", start, http.StatusOK)
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Data: out})
}

func (h *HTTPHandler) ApplyMovement(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req movementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "movements", start, http.StatusBadRequest, "invalid request body")
		return
	}

	err := h.register.ApplyMovement(r.Context(), domain.InventoryMovement{
		ProductID: req.ProductID,
		Delta:     req.Delta,
		Reason:    req.Reason,
		UserID:    req.UserID,
		Key:       req.Key,
	})
	if err != nil {
		status := http.StatusInternalServerError
		message := "internal error"

		switch {
		case errors.Is(err, register.ErrInvalidMovement):
			status = http.StatusBadRequest
			message = "invalid movement"
		case errors.Is(err, domain.ErrUnknownProduct):
			status = http.StatusNotFound
			message = "unknown product"
		case errors.Is(err, domain.ErrInsufficientStock):
			status = http.StatusConflict
			message = "insufficient stock"
		}

		h.writeError(w, "movements", start, status, message)
		return
	}

	h.observe("movements", start, http.StatusOK)
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: "movement recorded"})
}

func (h *HTTPHandler) RecordSale(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req saleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "sales", start, http.StatusBadRequest, "invalid request body")
		return
	}

	sale := domain.SaleRequest{
		ID:        req.ID,
		UserID:    req.UserID,
		Total:     req.Total,
		CreatedAt: time.Now(),
	}
	for _, d := range req.Details {
		sale.Details = append(sale.Details, domain.SaleDetail{
			ProductID: d.ProductID,
			Quantity:  d.Quantity,
			UnitPrice: d.UnitPrice,
			Subtotal:  d.Subtotal,
		})
	}

	if err := h.register.RecordSale(r.Context(), sale); err != nil {
		status := http.StatusInternalServerError
		message := "internal error"

		if errors.Is(err, register.ErrNoUser) || errors.Is(err, register.ErrEmptySale) {
			status = http.StatusBadRequest
			message = err.Error()
		}

		h.writeError(w, "sales", start, status, message)
		return
	}

	h.observe("sales", start, http.StatusOK)
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: "sale recorded"})
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, handlerName string, start time.Time, status int, message string) {
	h.observe(handlerName, start, status)
	writeJSON(w, status, apiResponse{Success: false, Message: message})
}

func (h *HTTPHandler) observe(handlerName string, start time.Time, status int) {
	if h.metrics == nil {
		return
	}
	h.metrics.Requests.WithLabelValues(handlerName, strconv.Itoa(status)).Inc()
	h.metrics.LatencyMS.WithLabelValues(handlerName).Observe(float64(time.Since(start).Milliseconds()))
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
