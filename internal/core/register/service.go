package register

import (
	"context"
	"errors"
	"fmt"

	"github.com/jcastrom/pospoint/internal/core/domain"
	"github.com/jcastrom/pospoint/internal/port"
)

var (
	ErrInvalidMovement = errors.New("invalid movement")
	ErrNoUser          = errors.New("missing user")
	ErrEmptySale       = errors.New("sale has no details")
)

// Service applies inventory movements and records sales on behalf of the
// HTTP handlers. Movements and sales carrying an idempotency key are
// applied at most once; a duplicate is reported as success without
// touching the store, so a client retrying a partially failed checkout
// does not decrement stock twice.
type Service struct {
	store port.InventoryStore
	idem  port.IdempotencyStore
}

func NewService(store port.InventoryStore, idem port.IdempotencyStore) *Service {
	return &Service{store: store, idem: idem}
}

func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.store.ListProducts(ctx)
}

func (s *Service) ApplyMovement(ctx context.Context, m domain.InventoryMovement) error {
	if m.ProductID <= 0 || m.Delta == 0 || m.Reason == "" {
		return ErrInvalidMovement
	}

	if m.Key != "" && s.idem != nil {
		ok, err := s.idem.SetIdempotency(ctx, "movement:"+m.Key)
		if err != nil {
			return fmt.Errorf("idempotency check failed: %w", err)
		}
		if !ok {
			return nil
		}
	}

	return s.store.ApplyMovement(ctx, m)
}

func (s *Service) RecordSale(ctx context.Context, req domain.SaleRequest) error {
	if req.UserID <= 0 {
		return ErrNoUser
	}
	if len(req.Details) == 0 {
		return ErrEmptySale
	}

	if req.ID != "" && s.idem != nil {
		ok, err := s.idem.SetIdempotency(ctx, "sale:"+req.ID)
		if err != nil {
			return fmt.Errorf("idempotency check failed: %w", err)
		}
		if !ok {
			return nil
		}
	}

	return s.store.RecordSale(ctx, req)
}
