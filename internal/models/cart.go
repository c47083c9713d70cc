package models

import (
	"iter"

	"github.com/shopspring/decimal"
)

// Cart is the ordered list of snapshots awaiting checkout.
// A product added three times appears three times.
type Cart []ProductSnapshot

// CartLine is one row of the grouped cart.
type CartLine struct {
	Product  ProductSnapshot `json:"product"`
	Quantity int             `json:"quantity"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// Grouped yields (product, quantity) pairs in first-seen order.
// The sequence can be ranged over any number of times.
func (c Cart) Grouped() iter.Seq2[ProductSnapshot, int] {
	return func(yield func(ProductSnapshot, int) bool) {
		counts := make(map[string]int, len(c))
		var order []ProductSnapshot
		for _, item := range c {
			if _, seen := counts[item.ID]; !seen {
				order = append(order, item)
			}
			counts[item.ID]++
		}
		for _, p := range order {
			if !yield(p, counts[p.ID]) {
				return
			}
		}
	}
}

// Lines materializes Grouped with per-line subtotals.
func (c Cart) Lines() []CartLine {
	lines := []CartLine{}
	for p, qty := range c.Grouped() {
		lines = append(lines, CartLine{
			Product:  p,
			Quantity: qty,
			Subtotal: p.Price.Mul(decimal.NewFromInt(int64(qty))),
		})
	}
	return lines
}

// Total sums the price of every entry.
func (c Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c {
		total = total.Add(item.Price)
	}
	return total
}

// Counts returns purchased units per product id.
func (c Cart) Counts() map[string]int {
	counts := make(map[string]int)
	for _, item := range c {
		counts[item.ID]++
	}
	return counts
}

// With returns a new cart with quantity copies of p appended.
func (c Cart) With(p ProductSnapshot, quantity int) Cart {
	next := make(Cart, 0, len(c)+quantity)
	next = append(next, c...)
	for i := 0; i < quantity; i++ {
		next = append(next, p)
	}
	return next
}

// Without returns a new cart with one entry removed for every entry of ordered,
// matching by product id from the front. Entries of ordered not in c are ignored.
func (c Cart) Without(ordered Cart) Cart {
	pending := ordered.Counts()
	next := make(Cart, 0, len(c))
	for _, item := range c {
		if pending[item.ID] > 0 {
			pending[item.ID]--
			continue
		}
		next = append(next, item)
	}
	return next
}
