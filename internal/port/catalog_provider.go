package port

import (
	"context"

	"github.com/jcastrom/pospoint/internal/core/domain"
)

// CatalogProvider fetches the full product catalog from the remote POS API.
type CatalogProvider interface {
	FetchCatalog(ctx context.Context) ([]domain.ProductRecord, error)
}
