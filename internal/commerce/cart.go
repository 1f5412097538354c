package commerce

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/aurelius/storefront/internal/domain/cart"
	"github.com/aurelius/storefront/internal/domain/catalog"
	"github.com/aurelius/storefront/internal/storage"
)

// ErrInvalidQuantity is returned by UpdateQuantity for quantities below one.
var ErrInvalidQuantity = errors.New("quantity must be at least 1")

// Line is a cart item resolved against the catalog. Product is nil when the
// item refers to a product that no longer exists.
type Line struct {
	Item     cart.Item
	Product  *catalog.Product
	Subtotal decimal.Decimal
}

// Cart returns the stored cart.
func (m *Manager) Cart(ctx context.Context) cart.Cart {
	return storage.Read[cart.Cart](ctx, m.gw, storage.KeyCart)
}

// AddToCart adds quantity of productID in size, merging into an existing line.
// Unknown products are stored anyway and simply never resolve.
func (m *Manager) AddToCart(ctx context.Context, productID string, quantity int, size string) (cart.Cart, error) {
	if _, ok := m.index[productID]; !ok {
		m.lg.Debug("Adding unknown product to cart", zap.String("product_id", productID))
	}
	return m.mutateCart(ctx, "add", func(c cart.Cart) (cart.Cart, error) {
		return c.Add(productID, quantity, size), nil
	})
}

// RemoveFromCart removes the line for (productID, size).
func (m *Manager) RemoveFromCart(ctx context.Context, productID, size string) (cart.Cart, error) {
	return m.mutateCart(ctx, "remove", func(c cart.Cart) (cart.Cart, error) {
		return c.Remove(productID, size), nil
	})
}

// UpdateQuantity sets the quantity of the line for (productID, size).
func (m *Manager) UpdateQuantity(ctx context.Context, productID string, quantity int, size string) (cart.Cart, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	return m.mutateCart(ctx, "update", func(c cart.Cart) (cart.Cart, error) {
		return c.SetQuantity(productID, quantity, size), nil
	})
}

// ClearCart empties the cart.
func (m *Manager) ClearCart(ctx context.Context) error {
	_, err := m.mutateCart(ctx, "clear", func(cart.Cart) (cart.Cart, error) {
		return cart.Cart{}, nil
	})
	return err
}

func (m *Manager) mutateCart(ctx context.Context, op string, fn func(cart.Cart) (cart.Cart, error)) (cart.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mutateCartLocked(ctx, op, fn)
}

func (m *Manager) mutateCartLocked(ctx context.Context, op string, fn func(cart.Cart) (cart.Cart, error)) (cart.Cart, error) {
	c, err := storage.Mutate(ctx, m.gw, storage.KeyCart, func(c cart.Cart) (cart.Cart, error) {
		next, err := fn(c)
		if next == nil {
			next = cart.Cart{}
		}
		return next, err
	})
	if err != nil {
		return nil, errors.Wrapf(err, "%s cart", op)
	}
	m.cartMutations.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op)))
	m.lg.Debug("Cart updated",
		zap.String("op", op),
		zap.Int("lines", len(c)),
		zap.Int("items", c.ItemCount()),
	)
	return c, nil
}

// CartTotal prices the stored cart against the catalog.
func (m *Manager) CartTotal(ctx context.Context) decimal.Decimal {
	return m.Cart(ctx).Total(m.index.PriceOf)
}

// ItemCount returns the number of units in the cart.
func (m *Manager) ItemCount(ctx context.Context) int {
	return m.Cart(ctx).ItemCount()
}

// CartLines resolves every cart item for display.
func (m *Manager) CartLines(ctx context.Context) []Line {
	c := m.Cart(ctx)
	lines := make([]Line, 0, len(c))
	for _, it := range c {
		l := Line{Item: it, Subtotal: decimal.Zero}
		if p, ok := m.index[it.ProductID]; ok {
			l.Product = &p
			l.Subtotal = p.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
		}
		lines = append(lines, l)
	}
	return lines
}
