// Package commerce is the state layer behind the storefront: cart, wishlist,
// checkout, reviews and newsletter state, written through to the persistence
// gateway on every mutation.
//
// A Manager is created once per process and passed to whatever needs it.
// Mutating calls are serialized, and each one is a read-modify-write of its
// record so other processes sharing the backend do not lose updates to the
// same key.
package commerce

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"

	"github.com/aurelius/storefront/internal/domain/catalog"
	"github.com/aurelius/storefront/internal/domain/newsletter"
	"github.com/aurelius/storefront/internal/domain/order"
	"github.com/aurelius/storefront/internal/domain/review"
	"github.com/aurelius/storefront/internal/pending"
	"github.com/aurelius/storefront/internal/storage"
	"github.com/aurelius/storefront/internal/storage/records"
)

// Default simulated latencies.
const (
	DefaultCheckoutDelay   = 2 * time.Second
	DefaultNewsletterDelay = 1500 * time.Millisecond
)

const meterName = "github.com/aurelius/storefront/internal/commerce"

// Options configures a Manager. Zero values select defaults.
type Options struct {
	CheckoutDelay   time.Duration
	NewsletterDelay time.Duration
	OrderPrefix     string

	Logger        *zap.Logger
	MeterProvider metric.MeterProvider
}

func (o *Options) setDefaults() {
	if o.CheckoutDelay <= 0 {
		o.CheckoutDelay = DefaultCheckoutDelay
	}
	if o.NewsletterDelay <= 0 {
		o.NewsletterDelay = DefaultNewsletterDelay
	}
	if o.OrderPrefix == "" {
		o.OrderPrefix = order.DefaultIDPrefix
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.MeterProvider == nil {
		o.MeterProvider = noop.NewMeterProvider()
	}
}

// Manager owns the storefront state of one customer profile.
type Manager struct {
	gw       *storage.Gateway
	catalog  catalog.Repository
	products []catalog.Product
	index    catalog.Index

	orders     *order.Service
	reviews    *review.Service
	newsletter *newsletter.Service

	lg              *zap.Logger
	checkoutDelay   time.Duration
	newsletterDelay time.Duration
	checkoutGate    pending.Gate
	newsletterGate  pending.Gate

	mu sync.Mutex

	cartMutations metric.Int64Counter
	ordersPlaced  metric.Int64Counter
	subscriptions metric.Int64Counter
}

// New loads the catalog and wires the domain services over gw.
func New(ctx context.Context, gw *storage.Gateway, cat catalog.Repository, opts Options) (*Manager, error) {
	opts.setDefaults()

	products, err := cat.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "load catalog")
	}
	index := catalog.NewIndex(products)

	m := &Manager{
		gw:              gw,
		catalog:         cat,
		products:        products,
		index:           index,
		orders:          order.NewService(records.NewOrderRepository(gw), index.PriceOf, order.NewIDGenerator(opts.OrderPrefix)),
		reviews:         review.NewService(records.NewReviewRepository(gw)),
		newsletter:      newsletter.NewService(records.NewNewsletterRepository(gw)),
		lg:              opts.Logger,
		checkoutDelay:   opts.CheckoutDelay,
		newsletterDelay: opts.NewsletterDelay,
	}

	meter := opts.MeterProvider.Meter(meterName)
	if m.cartMutations, err = meter.Int64Counter("storefront.cart.mutations",
		metric.WithDescription("Cart mutations by operation"),
	); err != nil {
		return nil, errors.Wrap(err, "cart mutations counter")
	}
	if m.ordersPlaced, err = meter.Int64Counter("storefront.orders.placed",
		metric.WithDescription("Orders stored by checkout"),
	); err != nil {
		return nil, errors.Wrap(err, "orders counter")
	}
	if m.subscriptions, err = meter.Int64Counter("storefront.newsletter.subscriptions",
		metric.WithDescription("New newsletter subscribers"),
	); err != nil {
		return nil, errors.Wrap(err, "subscriptions counter")
	}

	return m, nil
}

// Gateway returns the persistence gateway the manager writes through.
func (m *Manager) Gateway() *storage.Gateway {
	return m.gw
}
