// Package wishlist models the set of saved product ids.
package wishlist

import (
	"slices"

	"github.com/aurelius/storefront/internal/domain/catalog"
	"github.com/aurelius/storefront/pkg/validate"
)

// Wishlist is a set of product ids kept in the order they were saved.
type Wishlist []string

// Contains reports whether productID is saved.
func (w Wishlist) Contains(productID string) bool {
	return slices.Contains(w, productID)
}

// Toggle removes productID if present and appends it otherwise.
func (w Wishlist) Toggle(productID string) Wishlist {
	if w.Contains(productID) {
		out := make(Wishlist, 0, len(w))
		for _, id := range w {
			if id != productID {
				out = append(out, id)
			}
		}
		return out
	}
	return append(slices.Clone(w), productID)
}

// Products returns the saved products that still exist, in catalog order.
func (w Wishlist) Products(products []catalog.Product) []catalog.Product {
	out := make([]catalog.Product, 0, len(w))
	for _, p := range products {
		if w.Contains(p.ID) {
			out = append(out, p)
		}
	}
	return out
}

// Validate rejects empty and duplicate ids.
func (w Wishlist) Validate() error {
	return validate.Var("wishlist", []string(w), "unique,dive,required")
}
