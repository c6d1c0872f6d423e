package port

import (
	"context"

	"github.com/jcastrom/pospoint/internal/core/domain"
)

// InventoryStore is the server-side persistence boundary.
type InventoryStore interface {
	// ListProducts returns the full catalog in id order.
	ListProducts(ctx context.Context) ([]domain.Product, error)

	// ApplyMovement adjusts stock by the movement's delta and records the
	// movement row, atomically. Stock is never driven below zero.
	ApplyMovement(ctx context.Context, m domain.InventoryMovement) error

	// RecordSale inserts the sale and its detail rows atomically.
	RecordSale(ctx context.Context, req domain.SaleRequest) error
}
