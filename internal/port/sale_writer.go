package port

import (
	"context"

	"github.com/jcastrom/pospoint/internal/core/domain"
)

// MovementWriter records one inventory movement on the remote side. A
// write the server rejects comes back as an error carrying the server's
// message.
type MovementWriter interface {
	WriteInventoryMovement(ctx context.Context, m domain.InventoryMovement) error
}

// SaleWriter records a finalized sale on the remote side.
type SaleWriter interface {
	WriteSale(ctx context.Context, req domain.SaleRequest) error
}
