// Package memory provides an in-process storage backend.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/go-faster/errors"

	"github.com/aurelius/storefront/internal/storage"
)

var _ storage.Backend = (*Backend)(nil)

// Backend keeps records in a map. The zero value is not usable; call New.
type Backend struct {
	mu      sync.RWMutex
	records map[string][]byte
}

// New returns an empty Backend.
func New() *Backend {
	return &Backend{records: make(map[string][]byte)}
}

// Get returns a copy of the value stored at key.
func (b *Backend) Get(_ context.Context, key string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	v, ok := b.records[key]
	if !ok {
		return nil, errors.Wrapf(storage.ErrNotFound, "key %s", key)
	}
	return slices.Clone(v), nil
}

// Put stores a copy of value at key.
func (b *Backend) Put(_ context.Context, key string, value []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.records[key] = slices.Clone(value)
	return nil
}

// Delete removes key.
func (b *Backend) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.records, key)
	return nil
}

// Update applies fn to the value at key while holding the write lock.
func (b *Backend) Update(_ context.Context, key string, fn storage.UpdateFunc) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	next, err := fn(slices.Clone(b.records[key]))
	if err != nil {
		return err
	}
	b.records[key] = slices.Clone(next)
	return nil
}

// Ping always succeeds.
func (b *Backend) Ping(context.Context) error { return nil }

// Close is a no-op.
func (b *Backend) Close() error { return nil }
