package commerce

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/aurelius/storefront/internal/domain/catalog"
	"github.com/aurelius/storefront/internal/domain/review"
)

// ShopQuery selects a shop listing.
type ShopQuery struct {
	Category catalog.Category
	Sort     catalog.SortOrder
	// Visible is how many products are revealed; zero means one page.
	Visible int
}

// ShopPage is one rendering of the shop listing.
type ShopPage struct {
	Products []catalog.Product
	// Matched counts products in the category before paging.
	Matched int
	HasMore bool
}

// Shop filters, sorts and pages the catalog.
func (m *Manager) Shop(_ context.Context, q ShopQuery) ShopPage {
	matched := catalog.Sort(catalog.FilterByCategory(m.products, q.Category), q.Sort)
	products, more := catalog.Page(matched, q.Visible)
	return ShopPage{
		Products: products,
		Matched:  len(matched),
		HasMore:  more,
	}
}

// Search returns up to catalog.DefaultSearchLimit matches for query.
func (m *Manager) Search(_ context.Context, query string) []catalog.Product {
	return catalog.Search(m.products, query, catalog.DefaultSearchLimit)
}

// Bestsellers returns the flagged products.
func (m *Manager) Bestsellers(_ context.Context) []catalog.Product {
	return catalog.Bestsellers(m.products)
}

// FAQs returns the help page entries.
func (m *Manager) FAQs(ctx context.Context) ([]catalog.FAQItem, error) {
	return m.catalog.FAQs(ctx)
}

// ProductDetail is everything the product page shows.
type ProductDetail struct {
	Product    catalog.Product
	Related    []catalog.Product
	Reviews    review.List
	Rating     decimal.Decimal
	Wishlisted bool
}

// ProductDetail resolves slug, falling back to the first product for unknown
// slugs.
func (m *Manager) ProductDetail(ctx context.Context, slug string) (*ProductDetail, error) {
	p, err := catalog.ResolveSlug(m.products, slug)
	if err != nil {
		return nil, err
	}
	reviews, err := m.reviews.Published(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	return &ProductDetail{
		Product:    p,
		Related:    catalog.Related(m.products, p, catalog.DefaultRelatedLimit),
		Reviews:    reviews,
		Rating:     review.AverageRating(reviews),
		Wishlisted: m.Wishlist(ctx).Contains(p.ID),
	}, nil
}
