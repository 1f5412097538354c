package catalog

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// SortOrder selects how a product listing is ordered.
type SortOrder string

const (
	SortFeatured  SortOrder = "featured"
	SortNewest    SortOrder = "newest"
	SortPriceLow  SortOrder = "price-low"
	SortPriceHigh SortOrder = "price-high"
)

const (
	// DefaultSearchLimit caps search results.
	DefaultSearchLimit = 5
	// DefaultRelatedLimit caps the related products strip.
	DefaultRelatedLimit = 4
	// DefaultPageSize is the initial number of products shown on the shop page.
	DefaultPageSize = 8
)

// FilterByCategory returns the products in category, or all of them for
// CategoryAll and the empty category.
func FilterByCategory(products []Product, category Category) []Product {
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if category == CategoryAll || category == "" || p.Category == category {
			out = append(out, p)
		}
	}
	return out
}

// Sort returns a sorted copy of products. Newest is the reverse of declaration
// order; unknown orders fall back to featured.
func Sort(products []Product, order SortOrder) []Product {
	out := slices.Clone(products)
	switch order {
	case SortPriceLow:
		slices.SortStableFunc(out, func(a, b Product) int { return a.Price.Cmp(b.Price) })
	case SortPriceHigh:
		slices.SortStableFunc(out, func(a, b Product) int { return b.Price.Cmp(a.Price) })
	case SortNewest:
		slices.Reverse(out)
	}
	return out
}

// Search matches query case-insensitively against product name and category.
// The query is used as typed, surrounding whitespace included. An empty query
// yields no results.
//
// The scan is linear; fine for a catalog of a few hundred items.
func Search(products []Product, query string, limit int) []Product {
	if query == "" {
		return []Product{}
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	q := strings.ToLower(query)
	out := make([]Product, 0, limit)
	for _, p := range products {
		if len(out) == limit {
			break
		}
		if strings.Contains(strings.ToLower(p.Name), q) ||
			strings.Contains(strings.ToLower(string(p.Category)), q) {
			out = append(out, p)
		}
	}
	return out
}

// Related returns up to limit other products from the same category, in
// catalog order.
func Related(products []Product, current Product, limit int) []Product {
	if limit <= 0 {
		limit = DefaultRelatedLimit
	}
	out := make([]Product, 0, limit)
	for _, p := range products {
		if len(out) == limit {
			break
		}
		if p.Category == current.Category && p.ID != current.ID {
			out = append(out, p)
		}
	}
	return out
}

// Bestsellers returns the flagged products in catalog order.
func Bestsellers(products []Product) []Product {
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if p.Bestseller {
			out = append(out, p)
		}
	}
	return out
}

// Page returns the first visible products and whether more remain.
func Page(products []Product, visible int) ([]Product, bool) {
	if visible <= 0 {
		visible = DefaultPageSize
	}
	if visible >= len(products) {
		return products, false
	}
	return products[:visible], true
}

// ResolveSlug finds the product with slug. Unknown slugs resolve to the first
// catalog entry; ErrNotFound is returned only for an empty catalog.
func ResolveSlug(products []Product, slug string) (Product, error) {
	if len(products) == 0 {
		return Product{}, ErrNotFound
	}
	for _, p := range products {
		if p.Slug == slug {
			return p, nil
		}
	}
	return products[0], nil
}

// Index is an id lookup over a product list.
type Index map[string]Product

// NewIndex builds an Index over products.
func NewIndex(products []Product) Index {
	idx := make(Index, len(products))
	for _, p := range products {
		idx[p.ID] = p
	}
	return idx
}

// PriceOf returns the unit price of the product with id.
func (idx Index) PriceOf(id string) (decimal.Decimal, bool) {
	p, ok := idx[id]
	if !ok {
		return decimal.Zero, false
	}
	return p.Price, true
}
