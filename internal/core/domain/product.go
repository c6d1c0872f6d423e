package domain

// Product is one entry of the catalog as the cashier sees it: the unit
// price and the stock currently believed to be available for sale.
type Product struct {
	ID    int64
	Name  string
	Price float64
	Stock int
}

// ProductRecord is a raw catalog entry as returned by the product listing.
// Stock is a pointer because legacy records omit it; the catalog cache
// fills in the fallback.
type ProductRecord struct {
	ID    int64
	Name  string
	Price float64
	Stock *int
}
