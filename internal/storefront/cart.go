// Package storefront holds the shopper side of the shop: the cart, its
// persistence between runs, and checkout.
package storefront

import (
	"slices"

	"github.com/shopspring/decimal"

	"shopfront/internal/models"
)

// Line is one cart entry. Name and Price are captured when the product is
// first added.
type Line struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Qty       int             `json:"qty"`
}

// Subtotal returns price times quantity.
func (l Line) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Qty)))
}

// Cart is an ordered set of lines keyed by product id. The zero value is
// an empty cart.
type Cart struct {
	Lines []Line `json:"lines"`
}

// Add puts qty units of a product in the cart, merging with an existing
// line for the same product. A qty below 1 counts as 1.
func (c *Cart) Add(productID int64, name string, price decimal.Decimal, qty int) {
	if qty < 1 {
		qty = 1
	}
	if i := c.index(productID); i >= 0 {
		c.Lines[i].Qty += qty
		return
	}
	c.Lines = append(c.Lines, Line{ProductID: productID, Name: name, Price: price, Qty: qty})
}

// SetQty sets the quantity of a line. Zero or less removes it. It reports
// whether the product was in the cart.
func (c *Cart) SetQty(productID int64, qty int) bool {
	i := c.index(productID)
	if i < 0 {
		return false
	}
	if qty <= 0 {
		c.Lines = slices.Delete(c.Lines, i, i+1)
		return true
	}
	c.Lines[i].Qty = qty
	return true
}

// Remove drops a line. It reports whether the product was in the cart.
func (c *Cart) Remove(productID int64) bool {
	return c.SetQty(productID, 0)
}

// Total returns the sum of price times quantity over all lines.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.Lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// Count returns the number of units in the cart.
func (c *Cart) Count() int {
	n := 0
	for _, l := range c.Lines {
		n += l.Qty
	}
	return n
}

// Empty reports whether the cart has no lines.
func (c *Cart) Empty() bool { return len(c.Lines) == 0 }

// Clear removes every line.
func (c *Cart) Clear() { c.Lines = nil }

// OrderLines converts the cart into checkout lines.
func (c *Cart) OrderLines() []models.OrderLine {
	out := make([]models.OrderLine, len(c.Lines))
	for i, l := range c.Lines {
		out[i] = models.OrderLine{ProductID: l.ProductID, Name: l.Name, Price: l.Price, Qty: l.Qty}
	}
	return out
}

func (c *Cart) index(productID int64) int {
	return slices.IndexFunc(c.Lines, func(l Line) bool { return l.ProductID == productID })
}
