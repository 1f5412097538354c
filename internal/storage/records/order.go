package records

import (
	"context"
	"fmt"

	"github.com/aurelius/storefront/internal/domain/order"
	"github.com/aurelius/storefront/internal/storage"
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository keeps the order history under storage.KeyOrders.
type OrderRepository struct {
	gw *storage.Gateway
}

// NewOrderRepository returns an OrderRepository that uses the given gateway.
func NewOrderRepository(gw *storage.Gateway) *OrderRepository {
	return &OrderRepository{gw: gw}
}

// List returns the stored orders, most recent first.
func (r *OrderRepository) List(ctx context.Context) (order.List, error) {
	return storage.Read[order.List](ctx, r.gw, storage.KeyOrders), nil
}

// Prepend stores o at the head of the history.
func (r *OrderRepository) Prepend(ctx context.Context, o *order.Order) error {
	_, err := storage.Mutate(ctx, r.gw, storage.KeyOrders, func(list order.List) (order.List, error) {
		for _, existing := range list {
			if existing.ID == o.ID {
				return nil, order.ErrDuplicateID
			}
		}
		next := make(order.List, 0, len(list)+1)
		next = append(next, *o)
		return append(next, list...), nil
	})
	if err != nil {
		return fmt.Errorf("prepending order %s: %w", o.ID, err)
	}
	return nil
}
