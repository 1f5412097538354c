// Package storagetest holds a conformance suite every storage.Backend must
// pass.
package storagetest

import (
	"context"
	"strconv"
	"sync"
	"testing"

	"github.com/go-faster/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aurelius/storefront/internal/storage"
)

// Run exercises b through the full Backend contract.
func Run(t *testing.T, b storage.Backend) {
	t.Helper()
	ctx := context.Background()

	t.Run("Ping", func(t *testing.T) {
		require.NoError(t, b.Ping(ctx))
	})

	t.Run("MissingKey", func(t *testing.T) {
		_, err := b.Get(ctx, "aur_missing")
		require.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("PutGetOverwrite", func(t *testing.T) {
		require.NoError(t, b.Put(ctx, "aur_cart", []byte(`[{"productId":"1","quantity":2,"size":"42"}]`)))
		got, err := b.Get(ctx, "aur_cart")
		require.NoError(t, err)
		assert.JSONEq(t, `[{"productId":"1","quantity":2,"size":"42"}]`, string(got))

		require.NoError(t, b.Put(ctx, "aur_cart", []byte(`[]`)))
		got, err = b.Get(ctx, "aur_cart")
		require.NoError(t, err)
		assert.JSONEq(t, `[]`, string(got))
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, b.Put(ctx, "aur_popup_dismissed", []byte(`true`)))
		require.NoError(t, b.Delete(ctx, "aur_popup_dismissed"))
		_, err := b.Get(ctx, "aur_popup_dismissed")
		require.ErrorIs(t, err, storage.ErrNotFound)

		require.NoError(t, b.Delete(ctx, "aur_popup_dismissed"), "deleting an absent key succeeds")
	})

	t.Run("UpdateAbsentKey", func(t *testing.T) {
		require.NoError(t, b.Delete(ctx, "aur_wishlist"))
		require.NoError(t, b.Update(ctx, "aur_wishlist", func(current []byte) ([]byte, error) {
			assert.Nil(t, current)
			return []byte(`["4"]`), nil
		}))
		got, err := b.Get(ctx, "aur_wishlist")
		require.NoError(t, err)
		assert.JSONEq(t, `["4"]`, string(got))
	})

	t.Run("UpdateAbortsOnError", func(t *testing.T) {
		require.NoError(t, b.Put(ctx, "aur_orders", []byte(`[]`)))
		rejected := errors.New("rejected")
		err := b.Update(ctx, "aur_orders", func([]byte) ([]byte, error) {
			return nil, rejected
		})
		require.ErrorIs(t, err, rejected)

		got, err := b.Get(ctx, "aur_orders")
		require.NoError(t, err)
		assert.JSONEq(t, `[]`, string(got))
	})

	t.Run("UpdateNoLostUpdates", func(t *testing.T) {
		require.NoError(t, b.Delete(ctx, "aur_reviews"))

		const workers = 20
		var wg sync.WaitGroup
		for range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.NoError(t, b.Update(ctx, "aur_reviews", func(current []byte) ([]byte, error) {
					n := 0
					if current != nil {
						var err error
						if n, err = strconv.Atoi(string(current)); err != nil {
							return nil, err
						}
					}
					return []byte(strconv.Itoa(n + 1)), nil
				}))
			}()
		}
		wg.Wait()

		got, err := b.Get(ctx, "aur_reviews")
		require.NoError(t, err)
		assert.Equal(t, strconv.Itoa(workers), string(got))
	})

	t.Run("GatewayRoundTrip", func(t *testing.T) {
		g := storage.NewGateway(b, nil)
		in := []string{"4", "2"}
		require.NoError(t, storage.Write(ctx, g, storage.KeyWishlist, in))
		assert.Equal(t, in, storage.Read[[]string](ctx, g, storage.KeyWishlist))
	})
}
