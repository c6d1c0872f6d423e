package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jcastrom/pospoint/internal/core/catalog"
	"github.com/jcastrom/pospoint/internal/core/domain"
	"github.com/jcastrom/pospoint/internal/port"
)

var (
	ErrInvalidQuantity   = errors.New("quantity must be positive")
	ErrUnknownProduct    = errors.New("unknown product")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrNoUser            = errors.New("no authenticated user")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrCheckoutInFlight  = errors.New("checkout already in flight")
)

// RemoteWriteError reports which remote write of a checkout failed. For a
// movement write it names the product, so the operator knows which lines
// were already committed remotely before the abort.
type RemoteWriteError struct {
	Op          string // "movement" or "sale"
	ProductID   int64
	ProductName string
	Err         error
}

func (e *RemoteWriteError) Error() string {
	if e.Op == "movement" {
		return fmt.Sprintf("inventory movement for %q (id %d) failed: %v", e.ProductName, e.ProductID, e.Err)
	}
	return fmt.Sprintf("sale write failed: %v", e.Err)
}

func (e *RemoteWriteError) Unwrap() error {
	return e.Err
}

// State is the engine's checkout lifecycle phase.
type State string

const (
	StateIdle       State = "idle"
	StateBuilding   State = "building"
	StateCommitting State = "committing"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
)

// DefaultWriteTimeout bounds each remote write so a call that never
// resolves cannot leave the engine committing forever.
const DefaultWriteTimeout = 10 * time.Second

// Engine owns the cart for one register session. It reserves stock
// against the catalog cache as items come and go, and finalizes the cart
// with a two-phase remote commit: one inventory movement per line, then
// the sale record.
type Engine struct {
	catalog      *catalog.Cache
	movements    port.MovementWriter
	sales        port.SaleWriter
	writeTimeout time.Duration

	mu    sync.Mutex
	state State
	cart  domain.Cart
	keys  map[int64]string // per-line movement idempotency keys
}

func NewEngine(cat *catalog.Cache, movements port.MovementWriter, sales port.SaleWriter, writeTimeout time.Duration) *Engine {
	if writeTimeout <= 0 {
		writeTimeout = DefaultWriteTimeout
	}
	return &Engine{
		catalog:      cat,
		movements:    movements,
		sales:        sales,
		writeTimeout: writeTimeout,
		state:        StateIdle,
		keys:         make(map[int64]string),
	}
}

func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Lines returns the current cart contents.
func (e *Engine) Lines() []domain.CartLine {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cart.Lines()
}

// Total is the running cart total; 0 for an empty cart.
func (e *Engine) Total() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cart.Total()
}

// AddToCart reserves qty units of the product and merges them into the
// cart. Nothing changes when the quantity is invalid or exceeds the
// available stock.
func (e *Engine) AddToCart(productID int64, qty int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == StateCommitting {
		return ErrCheckoutInFlight
	}
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	p, ok := e.catalog.Get(productID)
	if !ok {
		return fmt.Errorf("%w: id %d", ErrUnknownProduct, productID)
	}
	if !e.catalog.Reserve(productID, qty) {
		return fmt.Errorf("%w: %d of %q available, requested %d", ErrInsufficientStock, p.Stock, p.Name, qty)
	}

	e.cart.Add(p, qty)
	if _, ok := e.keys[productID]; !ok {
		// Minted once per line and reused on a manual retry after a
		// partial failure, so the server can drop duplicates.
		e.keys[productID] = uuid.NewString()
	}
	e.state = StateBuilding
	return nil
}

// DiscardFromCart drops the product's line and returns its reservation to
// the catalog. Discarding a product that is not in the cart is a no-op.
func (e *Engine) DiscardFromCart(productID int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == StateCommitting {
		return ErrCheckoutInFlight
	}

	qty, ok := e.cart.Remove(productID)
	if !ok {
		return nil
	}
	e.catalog.Release(productID, qty)
	delete(e.keys, productID)

	if e.cart.Len() == 0 {
		e.state = StateIdle
	} else {
		e.state = StateBuilding
	}
	return nil
}

// Checkout commits the cart: one inventory movement per line in cart
// order, sequential, then the sale record. The first failed movement
// aborts the rest — movements already written stay committed remotely and
// the cart is kept so the operator can inspect and decide. On success the
// cart is cleared and the catalog reloaded to pick up true remote stock.
//
// Checkout is not retried automatically. A manual retry re-sends the same
// per-line idempotency keys, so already-applied movements are not applied
// twice.
func (e *Engine) Checkout(ctx context.Context, userID int64) (*domain.SaleRequest, error) {
	e.mu.Lock()
	if e.state == StateCommitting {
		e.mu.Unlock()
		return nil, ErrCheckoutInFlight
	}
	if userID <= 0 {
		e.mu.Unlock()
		return nil, ErrNoUser
	}
	if e.cart.Len() == 0 {
		e.mu.Unlock()
		return nil, ErrEmptyCart
	}
	lines := e.cart.Lines()
	keys := make(map[int64]string, len(e.keys))
	for id, k := range e.keys {
		keys[id] = k
	}
	e.state = StateCommitting
	e.mu.Unlock()

	for _, l := range lines {
		m := domain.InventoryMovement{
			ProductID: l.Product.ID,
			Delta:     -l.Quantity,
			Reason:    domain.MovementReasonSale,
			UserID:    userID,
			Key:       keys[l.Product.ID],
		}
		if err := e.writeMovement(ctx, m); err != nil {
			e.setState(StateFailed)
			return nil, &RemoteWriteError{
				Op:          "movement",
				ProductID:   l.Product.ID,
				ProductName: l.Product.Name,
				Err:         err,
			}
		}
	}

	req := domain.NewSaleRequest(uuid.NewString(), userID, lines)
	if err := e.writeSale(ctx, req); err != nil {
		// The movements above are already committed remotely; there is
		// no compensation, only the operator's judgment.
		e.setState(StateFailed)
		return nil, &RemoteWriteError{Op: "sale", Err: err}
	}

	e.mu.Lock()
	e.cart.Clear()
	e.keys = make(map[int64]string)
	e.state = StateCompleted
	e.mu.Unlock()

	// The sale consumed the reservations for real; only a fresh snapshot
	// reflects true remote stock again. A failed reload keeps the stale
	// projection, which is still safe to sell against.
	if err := e.catalog.Load(ctx); err != nil {
		log.Printf("checkout: catalog reload after sale failed: %v", err)
	}

	return &req, nil
}

func (e *Engine) writeMovement(ctx context.Context, m domain.InventoryMovement) error {
	wctx, cancel := context.WithTimeout(ctx, e.writeTimeout)
	defer cancel()
	return e.movements.WriteInventoryMovement(wctx, m)
}

func (e *Engine) writeSale(ctx context.Context, req domain.SaleRequest) error {
	wctx, cancel := context.WithTimeout(ctx, e.writeTimeout)
	defer cancel()
	return e.sales.WriteSale(wctx, req)
}

func (e *Engine) setState(s State) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}
