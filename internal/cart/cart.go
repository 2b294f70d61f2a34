// Package cart holds the customer's checkout draft. Prices here are for display only;
// the order workflow re-reads every product before committing.
package cart

import (
	"errors"
	"sort"

	"github.com/shopspring/decimal"
)

var ErrInvalidQuantity = errors.New("quantity must be greater than zero")

// Line is one product in the draft.
type Line struct {
	ProductID string          `json:"product_id" validate:"required"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity" validate:"gt=0"`
}

// Cart is a draft order. It is not safe for concurrent use.
type Cart struct {
	lines []Line
}

// New builds a cart from lines, merging repeats of the same product.
func New(lines ...Line) (*Cart, error) {
	c := &Cart{}
	for _, l := range lines {
		if err := c.Add(l); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Add puts a line in the cart, increasing the quantity if the product is already there.
func (c *Cart) Add(l Line) error {
	if l.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	if i := c.index(l.ProductID); i >= 0 {
		c.lines[i].Quantity += l.Quantity
		return nil
	}
	c.lines = append(c.lines, l)
	return nil
}

// UpdateQuantity sets the quantity of a product; zero or less removes it.
func (c *Cart) UpdateQuantity(productID string, qty int) {
	i := c.index(productID)
	if i < 0 {
		return
	}
	if qty <= 0 {
		c.Remove(productID)
		return
	}
	c.lines[i].Quantity = qty
}

// Remove drops a product from the cart.
func (c *Cart) Remove(productID string) {
	if i := c.index(productID); i >= 0 {
		c.lines = append(c.lines[:i], c.lines[i+1:]...)
	}
}

// Clear empties the cart. Calling it on an empty cart is a no-op.
func (c *Cart) Clear() {
	c.lines = nil
}

// Lines returns a copy of the lines ordered by product id.
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out
}

func (c *Cart) Len() int {
	return len(c.lines)
}

func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

// Total is the display subtotal from the snapshot prices.
func (c *Cart) Total() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range c.lines {
		sum = sum.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return sum
}

func (c *Cart) index(productID string) int {
	for i, l := range c.lines {
		if l.ProductID == productID {
			return i
		}
	}
	return -1
}
