// Package order implements checkout: turning a cart snapshot and customer
// details into a stored order.
package order

import (
	"context"
	"slices"
	"time"

	"github.com/go-faster/errors"

	"github.com/aurelius/storefront/internal/domain/cart"
)

// Sentinel errors for order placement.
var (
	ErrEmptyCart            = errors.New("cart is empty")
	ErrInvalidPaymentMethod = errors.New("payment method must be cod or card")
	ErrDuplicateID          = errors.New("order id already exists")
)

// PlaceOrderRequest holds the input for placing an order.
type PlaceOrderRequest struct {
	Items         cart.Cart
	Customer      Customer
	PaymentMethod PaymentMethod
}

// Validate rejects requests that must not produce an order.
func (r PlaceOrderRequest) Validate() error {
	if len(r.Items) == 0 {
		return ErrEmptyCart
	}
	if !r.PaymentMethod.Valid() {
		return ErrInvalidPaymentMethod
	}
	if err := r.Customer.Validate(); err != nil {
		return err
	}
	return nil
}

// Service encapsulates order placement business logic.
type Service struct {
	orders Repository
	prices cart.PriceFunc
	ids    *IDGenerator
	now    func() time.Time
}

// NewService creates an order Service. prices resolves catalog prices for the
// order total.
func NewService(orders Repository, prices cart.PriceFunc, ids *IDGenerator) *Service {
	if ids == nil {
		ids = NewIDGenerator(DefaultIDPrefix)
	}
	return &Service{
		orders: orders,
		prices: prices,
		ids:    ids,
		now:    time.Now,
	}
}

// PlaceOrder validates the request, snapshots the items, totals them against
// the catalog and stores the order at the head of the history. Nothing is
// stored when validation fails.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*Order, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.orders.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	taken := make(map[string]struct{}, len(existing))
	for _, o := range existing {
		taken[o.ID] = struct{}{}
		s.ids.Observe(o.ID)
	}

	o := &Order{
		Items:         slices.Clone([]cart.Item(req.Items)),
		Total:         req.Items.Total(s.prices),
		Customer:      req.Customer,
		PaymentMethod: req.PaymentMethod,
		CreatedAt:     s.now().UTC(),
		Status:        StatusProcessing,
	}

	for range maxIDAttempts {
		id, err := s.ids.Next(func(id string) bool {
			_, ok := taken[id]
			return ok
		})
		if err != nil {
			return nil, err
		}
		o.ID = id

		err = s.orders.Prepend(ctx, o)
		if errors.Is(err, ErrDuplicateID) {
			// Another writer took the id after we listed.
			taken[id] = struct{}{}
			continue
		}
		if err != nil {
			return nil, errors.Wrap(err, "create order")
		}
		return o, nil
	}
	return nil, ErrIDSpaceExhausted
}

// List returns the order history, most recent first.
func (s *Service) List(ctx context.Context) (List, error) {
	return s.orders.List(ctx)
}
