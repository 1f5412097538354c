package commerce

import (
	"context"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/aurelius/storefront/internal/domain/catalog"
	"github.com/aurelius/storefront/internal/domain/wishlist"
	"github.com/aurelius/storefront/internal/storage"
)

// Wishlist returns the saved product ids.
func (m *Manager) Wishlist(ctx context.Context) wishlist.Wishlist {
	return storage.Read[wishlist.Wishlist](ctx, m.gw, storage.KeyWishlist)
}

// ToggleWishlist saves productID, or removes it if already saved. Toggling an
// id missing from the catalog leaves the wishlist unchanged.
func (m *Manager) ToggleWishlist(ctx context.Context, productID string) (wishlist.Wishlist, error) {
	if _, ok := m.index[productID]; !ok {
		m.lg.Debug("Ignoring wishlist toggle for unknown product", zap.String("product_id", productID))
		return m.Wishlist(ctx), nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	w, err := storage.Mutate(ctx, m.gw, storage.KeyWishlist, func(w wishlist.Wishlist) (wishlist.Wishlist, error) {
		next := w.Toggle(productID)
		if next == nil {
			next = wishlist.Wishlist{}
		}
		return next, nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "toggle wishlist")
	}
	m.lg.Debug("Wishlist toggled",
		zap.String("product_id", productID),
		zap.Bool("saved", w.Contains(productID)),
	)
	return w, nil
}

// WishlistProducts returns the saved products that exist in the catalog.
func (m *Manager) WishlistProducts(ctx context.Context) []catalog.Product {
	return m.Wishlist(ctx).Products(m.products)
}
