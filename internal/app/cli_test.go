package app

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap/zaptest"

	"github.com/aurelius/storefront/internal/domain/cart"
	"github.com/aurelius/storefront/internal/domain/order"
	"github.com/aurelius/storefront/internal/storage"
)

func newTestEnv(t *testing.T) *Env {
	t.Helper()
	cfg := &Config{
		Storage:    StorageConfig{Driver: "memory"},
		Checkout:   CheckoutConfig{Delay: time.Millisecond, OrderPrefix: "AUR-"},
		Newsletter: NewsletterConfig{Delay: time.Millisecond},
	}
	env, err := Open(context.Background(), zaptest.NewLogger(t), noop.NewMeterProvider(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = env.Close() })
	return env
}

func execute(t *testing.T, env *Env, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := env.Execute(context.Background(), args, &out)
	return out.String(), err
}

func TestExecute_CartFlow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	out, err := execute(t, env, "cart", "add", "1", "-qty", "2", "-size", "42")
	require.NoError(t, err)
	assert.Contains(t, out, "Onyx Oxford Brogues")
	assert.Contains(t, out, "$698.00")

	_, err = execute(t, env, "cart", "add", "-size", "42", "1")
	require.NoError(t, err)
	assert.Equal(t,
		cart.Cart{{ProductID: "1", Quantity: 3, Size: "42"}},
		storage.Read[cart.Cart](ctx, env.Gateway(), storage.KeyCart),
	)

	_, err = execute(t, env, "cart", "set", "1", "-size", "42", "-qty", "0")
	require.NoError(t, err)
	assert.Equal(t, 1, storage.Read[cart.Cart](ctx, env.Gateway(), storage.KeyCart)[0].Quantity)

	out, err = execute(t, env, "cart", "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "your bag is empty")
}

func TestExecute_Checkout(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := execute(t, env, "cart", "add", "1")
	require.NoError(t, err)

	out, err := execute(t, env, "checkout",
		"-name", "Julian Reyes",
		"-email", "julian@example.com",
		"-phone", "+1 555 0100",
		"-address", "12 Savile Row",
		"-payment", "card",
	)
	require.NoError(t, err)
	assert.Contains(t, out, "order AUR-")
	assert.Contains(t, out, "$349.00")

	orders := storage.Read[order.List](ctx, env.Gateway(), storage.KeyOrders)
	require.Len(t, orders, 1)
	assert.Equal(t, order.PaymentCard, orders[0].PaymentMethod)
	assert.Empty(t, storage.Read[cart.Cart](ctx, env.Gateway(), storage.KeyCart))

	out, err = execute(t, env, "orders")
	require.NoError(t, err)
	assert.Contains(t, out, orders[0].ID)
	assert.Contains(t, out, "processing")
}

func TestExecute_CheckoutMissingFields(t *testing.T) {
	env := newTestEnv(t)

	_, err := execute(t, env, "cart", "add", "2")
	require.NoError(t, err)

	_, err = execute(t, env, "checkout", "-name", "Julian")
	require.Error(t, err)
	assert.Empty(t, storage.Read[order.List](context.Background(), env.Gateway(), storage.KeyOrders))
}

func TestExecute_Wishlist(t *testing.T) {
	env := newTestEnv(t)

	out, err := execute(t, env, "wishlist", "toggle", "4")
	require.NoError(t, err)
	assert.Contains(t, out, "Gold Coast Navigator")

	out, err = execute(t, env, "wishlist", "toggle", "4")
	require.NoError(t, err)
	assert.Contains(t, out, "your wishlist is empty")
}

func TestExecute_Catalog(t *testing.T) {
	env := newTestEnv(t)

	out, err := execute(t, env, "catalog", "-sort", "price-high", "-visible", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Onyx Oxford Brogues")
	assert.Contains(t, out, "Gold Coast Navigator")
	assert.Contains(t, out, "showing 2 of 5")

	_, err = execute(t, env, "catalog", "-category", "hats")
	require.ErrorIs(t, err, ErrUsage)

	out, err = execute(t, env, "search", "nothing", "matches")
	require.NoError(t, err)
	assert.Contains(t, out, "no products found")

	out, err = execute(t, env, "product", "heritage-leather-belt")
	require.NoError(t, err)
	assert.Contains(t, out, "Heritage Stitch Belt")
}

func TestExecute_Reviews(t *testing.T) {
	env := newTestEnv(t)

	out, err := execute(t, env, "review", "submit", "3", "-author", "Mara", "-rating", "4", "-comment", "Solid buckle", "-publish")
	require.NoError(t, err)
	assert.Contains(t, out, "published")

	out, err = execute(t, env, "review", "list", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "average 4.0")
	assert.Contains(t, out, "Solid buckle")
}

func TestExecute_Newsletter(t *testing.T) {
	env := newTestEnv(t)

	out, err := execute(t, env, "popup")
	require.NoError(t, err)
	assert.Contains(t, out, "popup active")

	out, err = execute(t, env, "subscribe", "-popup", "ana@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "welcome")

	out, err = execute(t, env, "popup")
	require.NoError(t, err)
	assert.Contains(t, out, "popup dismissed")

	_, err = execute(t, env, "subscribe", "not-an-email")
	require.Error(t, err)
}

func TestExecute_Doctor(t *testing.T) {
	env := newTestEnv(t)

	out, err := execute(t, env, "doctor")
	require.NoError(t, err)
	assert.Contains(t, out, "storage:memory")
	assert.Contains(t, out, "ok")
}

func TestExecute_Usage(t *testing.T) {
	env := newTestEnv(t)

	out, err := execute(t, env)
	require.ErrorIs(t, err, ErrUsage)
	assert.Contains(t, out, "usage: aurelius")

	_, err = execute(t, env, "teleport")
	require.ErrorIs(t, err, ErrUsage)

	_, err = execute(t, env, "cart", "juggle")
	require.ErrorIs(t, err, ErrUsage)
}
