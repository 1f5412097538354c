package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/aurelius/storefront/internal/domain/cart"
	"github.com/aurelius/storefront/pkg/validate"
)

// PaymentMethod is how the customer intends to pay.
type PaymentMethod string

const (
	// PaymentCOD defers payment until delivery.
	PaymentCOD  PaymentMethod = "cod"
	PaymentCard PaymentMethod = "card"
)

// Valid reports whether m is a supported payment method.
func (m PaymentMethod) Valid() bool {
	return m == PaymentCOD || m == PaymentCard
}

// Status tracks fulfillment progress. It only ever moves forward.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
)

var statusRank = map[Status]int{
	StatusProcessing: 0,
	StatusShipped:    1,
	StatusDelivered:  2,
}

// CanAdvanceTo reports whether next is a later stage than s.
func (s Status) CanAdvanceTo(next Status) bool {
	from, ok := statusRank[s]
	if !ok {
		return false
	}
	to, ok := statusRank[next]
	return ok && to > from
}

// Customer holds the contact and delivery details captured at checkout.
type Customer struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone" validate:"required"`
	Address string `json:"address" validate:"required"`
}

// Validate checks that every checkout field is filled in.
func (c Customer) Validate() error {
	return validate.Struct(c)
}

// Order is an immutable record of a completed checkout.
type Order struct {
	ID            string          `json:"id" validate:"required"`
	Items         []cart.Item     `json:"items" validate:"required,min=1,dive"`
	Total         decimal.Decimal `json:"total"`
	Customer      Customer        `json:"customer"`
	PaymentMethod PaymentMethod   `json:"paymentMethod" validate:"oneof=cod card"`
	CreatedAt     time.Time       `json:"date"`
	Status        Status          `json:"status" validate:"oneof=processing shipped delivered"`
}

// ItemCount sums the quantities in the order snapshot.
func (o Order) ItemCount() int {
	return cart.Cart(o.Items).ItemCount()
}

// List is the order history, most recent first.
type List []Order

// Validate checks every stored order.
func (l List) Validate() error {
	return validate.Each(l)
}

// Repository defines persistence operations for orders.
type Repository interface {
	List(ctx context.Context) (List, error)
	// Prepend stores o in front of the existing history. It returns
	// ErrDuplicateID when an order with the same id is already stored.
	Prepend(ctx context.Context, o *Order) error
}
