package commerce

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/aurelius/storefront/internal/domain/cart"
	"github.com/aurelius/storefront/internal/domain/order"
	"github.com/aurelius/storefront/internal/pending"
)

// Checkout validates the form and the cart, then places the order after the
// checkout delay and clears the cart. Validation errors are returned
// immediately and nothing is started. While a checkout is pending, further
// calls fail with pending.ErrInFlight.
func (m *Manager) Checkout(ctx context.Context, customer order.Customer, method order.PaymentMethod) (*pending.Op[*order.Order], error) {
	req := order.PlaceOrderRequest{
		Items:         m.Cart(ctx),
		Customer:      trimCustomer(customer),
		PaymentMethod: method,
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	return pending.Start(ctx, &m.checkoutGate, m.checkoutDelay, func(ctx context.Context) (*order.Order, error) {
		m.mu.Lock()
		defer m.mu.Unlock()

		o, err := m.orders.PlaceOrder(ctx, req)
		if err != nil {
			return nil, errors.Wrap(err, "place order")
		}
		m.ordersPlaced.Add(ctx, 1, metric.WithAttributes(attribute.String("payment_method", string(o.PaymentMethod))))
		m.lg.Info("Order placed",
			zap.String("order_id", o.ID),
			zap.String("total", o.Total.String()),
			zap.Int("items", o.ItemCount()),
		)

		if _, err := m.mutateCartLocked(ctx, "clear", func(cart.Cart) (cart.Cart, error) {
			return cart.Cart{}, nil
		}); err != nil {
			// The order is stored at this point, so checkout still succeeds.
			m.lg.Warn("Clear cart after checkout failed", zap.String("order_id", o.ID), zap.Error(err))
		}
		return o, nil
	})
}

// Orders returns the order history, most recent first.
func (m *Manager) Orders(ctx context.Context) (order.List, error) {
	return m.orders.List(ctx)
}

func trimCustomer(c order.Customer) order.Customer {
	return order.Customer{
		Name:    strings.TrimSpace(c.Name),
		Email:   strings.TrimSpace(c.Email),
		Phone:   strings.TrimSpace(c.Phone),
		Address: strings.TrimSpace(c.Address),
	}
}
