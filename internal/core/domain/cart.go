package domain

// CartLine is one product in the cart. A cart holds at most one line per
// product id; adding the same product again merges quantities.
type CartLine struct {
	Product  Product
	Quantity int
}

func (l CartLine) Subtotal() float64 {
	return l.Product.Price * float64(l.Quantity)
}

// Cart is the uncommitted set of selections for one pending sale. Lines
// keep insertion order so the commit sequence is deterministic.
type Cart struct {
	lines []CartLine
}

// Add merges qty into an existing line for the product or appends a new
// one.
func (c *Cart) Add(p Product, qty int) {
	for i := range c.lines {
		if c.lines[i].Product.ID == p.ID {
			c.lines[i].Quantity += qty
			return
		}
	}
	c.lines = append(c.lines, CartLine{Product: p, Quantity: qty})
}

// Remove drops the line for productID and reports the quantity it held.
// Removing an absent product is not an error.
func (c *Cart) Remove(productID int64) (int, bool) {
	for i := range c.lines {
		if c.lines[i].Product.ID == productID {
			qty := c.lines[i].Quantity
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return qty, true
		}
	}
	return 0, false
}

// Lines returns a copy of the cart contents in insertion order.
func (c *Cart) Lines() []CartLine {
	out := make([]CartLine, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *Cart) Len() int {
	return len(c.lines)
}

// Total is the sum of quantity times unit price over all lines; 0 for an
// empty cart.
func (c *Cart) Total() float64 {
	var total float64
	for _, l := range c.lines {
		total += l.Subtotal()
	}
	return total
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.lines = nil
}
