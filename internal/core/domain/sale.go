package domain

import "time"

// SaleDetail is one line of a committed sale.
type SaleDetail struct {
	ProductID int64
	Quantity  int
	UnitPrice float64
	Subtotal  float64
}

// SaleRequest is the snapshot of a cart at commit time. It is built once
// and never mutated afterwards.
type SaleRequest struct {
	ID        string
	UserID    int64
	Total     float64
	Details   []SaleDetail
	CreatedAt time.Time
}

// NewSaleRequest snapshots the cart into an immutable sale request.
func NewSaleRequest(id string, userID int64, lines []CartLine) SaleRequest {
	req := SaleRequest{
		ID:        id,
		UserID:    userID,
		CreatedAt: time.Now(),
	}
	for _, l := range lines {
		req.Details = append(req.Details, SaleDetail{
			ProductID: l.Product.ID,
			Quantity:  l.Quantity,
			UnitPrice: l.Product.Price,
			Subtotal:  l.Subtotal(),
		})
		req.Total += l.Subtotal()
	}
	return req
}
