// Package cart holds the mutable working set for a single checkout session:
// an ordered list of product lines plus an optionally bound customer. A Cart
// never touches the transaction log or customer balances; it only feeds the
// settlement in service.Settle.
package cart

import (
	"zirng/backend/internal/domain"
)

type Cart struct {
	lines    []domain.CartLine
	customer *domain.Customer
}

func New() *Cart {
	return &Cart{lines: make([]domain.CartLine, 0, 8)}
}

// AddProduct appends a new line with quantity 1, or increments the existing
// line for the same product id. No stock check: stock is advisory elsewhere.
func (c *Cart) AddProduct(product domain.Product) {
	for i := range c.lines {
		if c.lines[i].Product.ID == product.ID {
			c.lines[i].Quantity++
			return
		}
	}
	c.lines = append(c.lines, domain.CartLine{Product: product, Quantity: 1})
}

// RemoveProduct deletes the whole line regardless of quantity.
func (c *Cart) RemoveProduct(productID string) {
	for i := range c.lines {
		if c.lines[i].Product.ID == productID {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return
		}
	}
}

// SetQuantity replaces the line's quantity; qty <= 0 removes the line.
// It never creates a line that did not already exist.
func (c *Cart) SetQuantity(productID string, qty int) {
	if qty <= 0 {
		c.RemoveProduct(productID)
		return
	}
	for i := range c.lines {
		if c.lines[i].Product.ID == productID {
			c.lines[i].Quantity = qty
			return
		}
	}
}

// SetDiscount replaces the line's discount. No clamping happens here; the
// settlement clamps the cart total at zero instead.
func (c *Cart) SetDiscount(productID string, discount int64) {
	for i := range c.lines {
		if c.lines[i].Product.ID == productID {
			c.lines[i].Discount = discount
			return
		}
	}
}

// BindCustomer attaches the customer loans will be recorded against.
// Passing nil unbinds.
func (c *Cart) BindCustomer(customer *domain.Customer) {
	if customer == nil {
		c.customer = nil
		return
	}
	bound := *customer
	c.customer = &bound
}

func (c *Cart) Customer() *domain.Customer {
	if c.customer == nil {
		return nil
	}
	bound := *c.customer
	return &bound
}

// Clear empties the cart and unbinds the customer. Called after a successful
// checkout or an explicit cancel.
func (c *Cart) Clear() {
	c.lines = c.lines[:0]
	c.customer = nil
}

func (c *Cart) Empty() bool {
	return len(c.lines) == 0
}

// Lines returns a deep copy of the cart's lines in insertion order, so a
// settled transaction's snapshot cannot be altered by later cart mutation.
func (c *Cart) Lines() []domain.CartLine {
	snapshot := make([]domain.CartLine, len(c.lines))
	copy(snapshot, c.lines)
	return snapshot
}

// Totals computes {subtotal, discount, total}. Total is clamped at zero: a
// cart whose discounts exceed its subtotal settles at zero, never negative.
func (c *Cart) Totals() domain.CartTotals {
	var totals domain.CartTotals
	for _, line := range c.lines {
		totals.Subtotal += int64(line.Quantity) * line.Product.Price
		totals.Discount += line.Discount
	}
	totals.Total = totals.Subtotal - totals.Discount
	if totals.Total < 0 {
		totals.Total = 0
	}
	return totals
}
