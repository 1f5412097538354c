package records

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aurelius/storefront/internal/domain/cart"
	"github.com/aurelius/storefront/internal/domain/order"
	"github.com/aurelius/storefront/internal/domain/review"
	"github.com/aurelius/storefront/internal/domain/wishlist"
	"github.com/aurelius/storefront/internal/storage"
	"github.com/aurelius/storefront/internal/storage/memory"
)

func newGateway(t *testing.T) *storage.Gateway {
	t.Helper()
	return storage.NewGateway(memory.New(), nil)
}

// flakyBackend fails the next Get once failNext is set.
type flakyBackend struct {
	*memory.Backend
	failNext atomic.Bool
}

func (f *flakyBackend) Get(ctx context.Context, key string) ([]byte, error) {
	if f.failNext.CompareAndSwap(true, false) {
		return nil, errors.New("i/o timeout")
	}
	return f.Backend.Get(ctx, key)
}

func (f *flakyBackend) Update(ctx context.Context, key string, fn storage.UpdateFunc) error {
	return storage.ReadModifyWrite(ctx, f, key, fn)
}

func testOrder(id string) *order.Order {
	return &order.Order{
		ID:    id,
		Items: []cart.Item{{ProductID: "1", Quantity: 1}},
		Total: decimal.NewFromInt(349),
		Customer: order.Customer{
			Name:    "Ana",
			Email:   "ana@example.com",
			Phone:   "555-0100",
			Address: "1 Main St",
		},
		PaymentMethod: order.PaymentCOD,
		CreatedAt:     time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Status:        order.StatusProcessing,
	}
}

func TestOrderRepository_Prepend(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository(newGateway(t))

	empty, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	require.NoError(t, repo.Prepend(ctx, testOrder("AUR-AAAAAA")))
	require.NoError(t, repo.Prepend(ctx, testOrder("AUR-BBBBBB")))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "AUR-BBBBBB", list[0].ID)
	assert.Equal(t, "AUR-AAAAAA", list[1].ID)
	assert.True(t, decimal.NewFromInt(349).Equal(list[0].Total))
}

func TestOrderRepository_PrependDuplicate(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository(newGateway(t))

	require.NoError(t, repo.Prepend(ctx, testOrder("AUR-AAAAAA")))
	err := repo.Prepend(ctx, testOrder("AUR-AAAAAA"))
	require.ErrorIs(t, err, order.ErrDuplicateID)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestOrderRepository_ConcurrentPrepend(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository(newGateway(t))

	ids := []string{"AUR-000001", "AUR-000002", "AUR-000003", "AUR-000004", "AUR-000005"}
	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, repo.Prepend(ctx, testOrder(id)))
		}()
	}
	wg.Wait()

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, len(ids))
}

func TestOrderRepository_PrependAfterFailedReadKeepsHistory(t *testing.T) {
	ctx := context.Background()
	backend := &flakyBackend{Backend: memory.New()}
	repo := NewOrderRepository(storage.NewGateway(backend, nil))

	for _, id := range []string{"AUR-000001", "AUR-000002", "AUR-000003"} {
		require.NoError(t, repo.Prepend(ctx, testOrder(id)))
	}

	backend.failNext.Store(true)
	err := repo.Prepend(ctx, testOrder("AUR-000004"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "i/o timeout")

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)

	require.NoError(t, repo.Prepend(ctx, testOrder("AUR-000004")))
	list, err = repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 4)
	assert.Equal(t, "AUR-000004", list[0].ID)
	assert.Equal(t, "AUR-000001", list[3].ID)
}

func TestRecordTypesRoundTrip(t *testing.T) {
	ctx := context.Background()
	gw := newGateway(t)

	items := cart.Cart{
		{ProductID: "1", Quantity: 2, Size: "42", Color: "Cognac"},
		{ProductID: "4", Quantity: 1},
	}
	require.NoError(t, storage.Write(ctx, gw, storage.KeyCart, items))
	assert.Equal(t, items, storage.Read[cart.Cart](ctx, gw, storage.KeyCart))

	wl := wishlist.Wishlist{"4", "2"}
	require.NoError(t, storage.Write(ctx, gw, storage.KeyWishlist, wl))
	assert.Equal(t, wl, storage.Read[wishlist.Wishlist](ctx, gw, storage.KeyWishlist))

	want := testOrder("AUR-7F3K2Q")
	want.Items = []cart.Item(items)
	want.Total = decimal.RequireFromString("349.99")
	want.PaymentMethod = order.PaymentCard
	want.CreatedAt = time.Date(2026, 3, 14, 15, 9, 26, 535897000, time.FixedZone("CET", 3600))
	want.Status = order.StatusShipped
	require.NoError(t, storage.Write(ctx, gw, storage.KeyOrders, order.List{*want}))

	got := storage.Read[order.List](ctx, gw, storage.KeyOrders)
	require.Len(t, got, 1)
	assert.Equal(t, want.ID, got[0].ID)
	assert.Equal(t, want.Items, got[0].Items)
	assert.True(t, want.Total.Equal(got[0].Total), "total %s", got[0].Total)
	assert.Equal(t, want.Customer, got[0].Customer)
	assert.Equal(t, want.PaymentMethod, got[0].PaymentMethod)
	assert.True(t, want.CreatedAt.Equal(got[0].CreatedAt), "created at %s", got[0].CreatedAt)
	assert.Equal(t, want.Status, got[0].Status)
}

func TestOrderRepository_CorruptHistoryReadsEmpty(t *testing.T) {
	ctx := context.Background()
	gw := newGateway(t)
	require.NoError(t, gw.PutRaw(ctx, storage.KeyOrders, []byte(`[{"id":""}]`)))

	list, err := NewOrderRepository(gw).List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestReviewRepository_Append(t *testing.T) {
	ctx := context.Background()
	repo := NewReviewRepository(newGateway(t))

	first := review.Review{ID: "r1", ProductID: "1", Author: "A", Rating: 5, Status: review.StatusPublished}
	second := review.Review{ID: "r2", ProductID: "2", Author: "B", Rating: 3, Status: review.StatusPending}
	require.NoError(t, repo.Append(ctx, first))
	require.NoError(t, repo.Append(ctx, second))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "r1", list[0].ID)
	assert.Equal(t, "r2", list[1].ID)
}

func TestNewsletterRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewNewsletterRepository(newGateway(t))

	added, err := repo.Add(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.True(t, added)

	added, err = repo.Add(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.False(t, added)

	subs, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, subs, 1)

	assert.False(t, repo.PopupDismissed(ctx))
	require.NoError(t, repo.DismissPopup(ctx))
	assert.True(t, repo.PopupDismissed(ctx))
}
