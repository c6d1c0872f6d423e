package domain

// MovementReasonSale marks a stock change caused by a committed sale.
const MovementReasonSale = "sale"

// InventoryMovement is a single inventory ledger write: a stock delta
// (negative for a sale), the reason, and the user who caused it. Key is an
// idempotency key so re-sending the same movement after a partial failure
// is applied at most once.
type InventoryMovement struct {
	ProductID int64
	Delta     int
	Reason    string
	UserID    int64
	Key       string
}
