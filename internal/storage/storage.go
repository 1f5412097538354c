// Package storage implements the persistence gateway: JSON records stored
// under fixed keys in a pluggable key-value backend.
//
// Reads never fail the caller. A missing, unreadable, malformed or invalid
// record degrades to the zero value of its type and is logged. Writes are
// synchronous and report backend failures. Mutations are atomic per key across
// every process sharing the backend and never write after a failed read.
package storage

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned by a Backend when a key holds no value.
var ErrNotFound = errors.New("record not found")

// Key names a persisted record.
type Key string

// Fixed record keys.
const (
	KeyCart           Key = "aur_cart"
	KeyWishlist       Key = "aur_wishlist"
	KeyOrders         Key = "aur_orders"
	KeyReviews        Key = "aur_reviews"
	KeySubscribers    Key = "aur_subscribers"
	KeyPopupDismissed Key = "aur_popup_dismissed"
)

// Keys lists every record key in a stable order.
var Keys = []Key{
	KeyCart,
	KeyWishlist,
	KeyOrders,
	KeyReviews,
	KeySubscribers,
	KeyPopupDismissed,
}

// Known reports whether k is one of the fixed record keys.
func (k Key) Known() bool {
	for _, known := range Keys {
		if k == known {
			return true
		}
	}
	return false
}

// Backend is a durable key-value store holding raw JSON documents.
type Backend interface {
	// Get returns the stored bytes or an error wrapping ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	// Update replaces the value at key with the result of fn, excluding
	// concurrent Updates of the same key by any client of the store. Nothing
	// is written when the read or fn fails. fn may run more than once.
	Update(ctx context.Context, key string, fn UpdateFunc) error
	Ping(ctx context.Context) error
	Close() error
}

// UpdateFunc maps the stored bytes of a key, nil when absent, to the bytes
// that replace them.
type UpdateFunc func(current []byte) ([]byte, error)

// ReadModifyWrite applies fn to key through b's Get and Put. It provides no
// exclusion of its own; callers hold whatever lock guards key.
func ReadModifyWrite(ctx context.Context, b Backend, key string, fn UpdateFunc) error {
	current, err := b.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return err
		}
		current = nil
	}
	next, err := fn(current)
	if err != nil {
		return err
	}
	return b.Put(ctx, key, next)
}

// Validatable is implemented by record types that check their own shape after
// decoding.
type Validatable interface {
	Validate() error
}
