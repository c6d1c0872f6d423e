package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jcastrom/pospoint/internal/core/domain"
	"github.com/jcastrom/pospoint/internal/port"
)

// Client talks to the POS API. It implements the catalog, movement and
// sale ports; the bearer token is resolved from the credential provider
// once per request, never read from ambient state.
type Client struct {
	baseURL string
	http    *http.Client
	creds   port.CredentialProvider
}

func NewClient(baseURL string, creds port.CredentialProvider, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		creds:   creds,
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// flexFloat decodes a JSON number or a numeric string. Legacy catalog
// records serialize price as a string.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("parse price %q: %w", s, err)
	}
	*f = flexFloat(v)
	return nil
}

type productDTO struct {
	ID    int64     `json:"id"`
	Name  string    `json:"name"`
	Price flexFloat `json:"price"`
	Stock *int      `json:"stock,omitempty"`
}

type movementDTO struct {
	ProductID int64  `json:"product_id"`
	Delta     int    `json:"delta"`
	Reason    string `json:"reason"`
	UserID    int64  `json:"user_id"`
	Key       string `json:"idempotency_key,omitempty"`
}

type saleDetailDTO struct {
	ProductID int64   `json:"product_id"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	Subtotal  float64 `json:"subtotal"`
}

type saleDTO struct {
	ID      string          `json:"id"`
	UserID  int64           `json:"user_id"`
	Total   float64         `json:"total"`
	Details []saleDetailDTO `json:"details"`
}

func (c *Client) FetchCatalog(ctx context.Context) ([]domain.ProductRecord, error) {
	var dtos []productDTO
	if err := c.do(ctx, http.MethodGet, "/api/products", nil, &dtos); err != nil {
		return nil, err
	}

	records := make([]domain.ProductRecord, 0, len(dtos))
	for _, d := range dtos {
		records = append(records, domain.ProductRecord{
			ID:    d.ID,
			Name:  d.Name,
			Price: float64(d.Price),
			Stock: d.Stock,
		})
	}
	return records, nil
}

func (c *Client) WriteInventoryMovement(ctx context.Context, m domain.InventoryMovement) error {
	body := movementDTO{
		ProductID: m.ProductID,
		Delta:     m.Delta,
		Reason:    m.Reason,
		UserID:    m.UserID,
		Key:       m.Key,
	}
	return c.do(ctx, http.MethodPost, "/api/inventory/movements", body, nil)
}

func (c *Client) WriteSale(ctx context.Context, req domain.SaleRequest) error {
	body := saleDTO{
		ID:     req.ID,
		UserID: req.UserID,
		Total:  req.Total,
	}
	for _, d := range req.Details {
		body.Details = append(body.Details, saleDetailDTO{
			ProductID: d.ProductID,
			Quantity:  d.Quantity,
			UnitPrice: d.UnitPrice,
			Subtotal:  d.Subtotal,
		})
	}
	return c.do(ctx, http.MethodPost, "/api/sales", body, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.creds != nil {
		token, err := c.creds.Token(ctx)
		if err != nil {
			return fmt.Errorf("resolve credentials: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("%s %s: decode response (status %d): %w", method, path, resp.StatusCode, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !env.Success {
		msg := env.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return fmt.Errorf("%s %s: %s", method, path, msg)
	}

	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("%s %s: decode data: %w", method, path, err)
		}
	}
	return nil
}
