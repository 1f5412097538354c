// Package cart models the shopping bag: line items keyed by product and size.
package cart

import (
	"slices"

	"github.com/shopspring/decimal"

	"github.com/aurelius/storefront/pkg/validate"
)

// Item is a single cart line. ProductID and Size together identify the line.
type Item struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gte=1"`
	Size      string `json:"size,omitempty"`
	Color     string `json:"color,omitempty"`
}

func (i Item) matches(productID, size string) bool {
	return i.ProductID == productID && i.Size == size
}

// PriceFunc resolves the unit price of a product. ok is false for products
// that no longer exist.
type PriceFunc func(productID string) (price decimal.Decimal, ok bool)

// Cart is an ordered list of items, insertion order preserved. At most one
// item exists per (ProductID, Size).
type Cart []Item

// Add merges quantity into the line for (productID, size), appending a new
// line when none exists. Quantities below one count as one.
func (c Cart) Add(productID string, quantity int, size string) Cart {
	if quantity < 1 {
		quantity = 1
	}
	out := slices.Clone(c)
	for i := range out {
		if out[i].matches(productID, size) {
			out[i].Quantity += quantity
			return out
		}
	}
	return append(out, Item{ProductID: productID, Quantity: quantity, Size: size})
}

// Remove drops every line matching (productID, size).
func (c Cart) Remove(productID, size string) Cart {
	out := make(Cart, 0, len(c))
	for _, it := range c {
		if !it.matches(productID, size) {
			out = append(out, it)
		}
	}
	return out
}

// SetQuantity replaces the quantity of the matching line. Callers clamp the
// quantity before calling.
func (c Cart) SetQuantity(productID string, quantity int, size string) Cart {
	out := slices.Clone(c)
	for i := range out {
		if out[i].matches(productID, size) {
			out[i].Quantity = quantity
		}
	}
	return out
}

// Find returns the line for (productID, size).
func (c Cart) Find(productID, size string) (Item, bool) {
	for _, it := range c {
		if it.matches(productID, size) {
			return it, true
		}
	}
	return Item{}, false
}

// Total sums unit price times quantity. Lines whose product cannot be
// resolved contribute nothing.
func (c Cart) Total(prices PriceFunc) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range c {
		price, ok := prices(it.ProductID)
		if !ok {
			continue
		}
		sum = sum.Add(price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return sum
}

// ItemCount sums quantities across all lines.
func (c Cart) ItemCount() int {
	n := 0
	for _, it := range c {
		n += it.Quantity
	}
	return n
}

// Validate checks every line and the one-line-per-(product, size) rule.
func (c Cart) Validate() error {
	if err := validate.Each(c); err != nil {
		return err
	}
	type lineKey struct{ productID, size string }
	seen := make(map[lineKey]struct{}, len(c))
	for _, it := range c {
		k := lineKey{it.ProductID, it.Size}
		if _, dup := seen[k]; dup {
			return &validate.Error{Fields: map[string]string{"items": "must not contain duplicate lines"}}
		}
		seen[k] = struct{}{}
	}
	return nil
}
