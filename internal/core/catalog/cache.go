package catalog

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/jcastrom/pospoint/internal/core/domain"
	"github.com/jcastrom/pospoint/internal/port"
)

// DefaultStock is assumed for legacy catalog records that omit stock.
const DefaultStock = 10

// Cache holds the last fetched product catalog plus a reservation ledger.
// The snapshot is canonical remote state; reservations are the client's
// optimistic holds for items already in a cart. The two are kept apart so
// a reload never loses or double-counts a pending reservation: Load swaps
// the snapshot and clears the ledger in one step.
type Cache struct {
	provider port.CatalogProvider

	mu       sync.Mutex
	products map[int64]domain.Product
	order    []int64
	reserved map[int64]int

	group singleflight.Group
}

func NewCache(provider port.CatalogProvider) *Cache {
	return &Cache{
		provider: provider,
		products: make(map[int64]domain.Product),
		reserved: make(map[int64]int),
	}
}

// Load fetches the catalog and replaces the snapshot wholesale, discarding
// all reservations. Concurrent calls collapse into a single fetch. On
// fetch failure the previous snapshot and ledger are kept so the caller
// can keep operating on stale data.
func (c *Cache) Load(ctx context.Context) error {
	_, err, _ := c.group.Do("load", func() (interface{}, error) {
		records, err := c.provider.FetchCatalog(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetch catalog: %w", err)
		}

		products := make(map[int64]domain.Product, len(records))
		order := make([]int64, 0, len(records))
		for _, r := range records {
			stock := DefaultStock
			if r.Stock != nil {
				stock = *r.Stock
			}
			if _, dup := products[r.ID]; !dup {
				order = append(order, r.ID)
			}
			products[r.ID] = domain.Product{
				ID:    r.ID,
				Name:  r.Name,
				Price: r.Price,
				Stock: stock,
			}
		}

		c.mu.Lock()
		c.products = products
		c.order = order
		c.reserved = make(map[int64]int)
		c.mu.Unlock()

		return nil, nil
	})
	return err
}

// Get returns the product with its projected available stock, i.e. the
// snapshot stock minus what is reserved.
func (c *Cache) Get(id int64) (domain.Product, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.products[id]
	if !ok {
		return domain.Product{}, false
	}
	p.Stock -= c.reserved[id]
	return p, true
}

// Products returns the projected catalog in listing order.
func (c *Cache) Products() []domain.Product {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]domain.Product, 0, len(c.order))
	for _, id := range c.order {
		p := c.products[id]
		p.Stock -= c.reserved[id]
		out = append(out, p)
	}
	return out
}

// Available is the projected stock for one product; 0 for unknown ids.
func (c *Cache) Available(id int64) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.products[id]
	if !ok {
		return 0
	}
	return p.Stock - c.reserved[id]
}

// Reserve places an optimistic hold of qty units. It fails when the
// product is unknown or qty exceeds the projected available stock, so the
// displayed stock can never go negative.
func (c *Cache) Reserve(id int64, qty int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.products[id]
	if !ok || qty > p.Stock-c.reserved[id] {
		return false
	}
	c.reserved[id] += qty
	return true
}

// Release returns qty units of a hold. The ledger never goes negative
// even if a release races a reload that already cleared it.
func (c *Cache) Release(id int64, qty int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.reserved[id] <= qty {
		delete(c.reserved, id)
		return
	}
	c.reserved[id] -= qty
}
