package storage

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/go-faster/errors"
	"go.uber.org/zap"
)

// Gateway reads and writes typed records through a Backend.
type Gateway struct {
	backend Backend
	lg      *zap.Logger

	mu    sync.Mutex
	locks map[Key]*sync.Mutex
}

// NewGateway returns a Gateway over backend. A nil logger disables logging.
func NewGateway(backend Backend, lg *zap.Logger) *Gateway {
	if lg == nil {
		lg = zap.NewNop()
	}
	return &Gateway{
		backend: backend,
		lg:      lg,
		locks:   make(map[Key]*sync.Mutex),
	}
}

// Backend returns the underlying store.
func (g *Gateway) Backend() Backend {
	return g.backend
}

// Ping checks that the backend is reachable.
func (g *Gateway) Ping(ctx context.Context) error {
	return g.backend.Ping(ctx)
}

// Close releases the backend.
func (g *Gateway) Close() error {
	return g.backend.Close()
}

// Raw returns the stored bytes for key. The boolean is false when the key is
// absent or the backend could not be read.
func (g *Gateway) Raw(ctx context.Context, key Key) ([]byte, bool) {
	data, err := g.backend.Get(ctx, string(key))
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			g.lg.Warn("Read failed, using empty record",
				zap.String("key", string(key)),
				zap.Error(err),
			)
		}
		return nil, false
	}
	return data, true
}

// PutRaw stores already-encoded JSON under key.
func (g *Gateway) PutRaw(ctx context.Context, key Key, data []byte) error {
	if !json.Valid(data) {
		return errors.Errorf("record %s is not valid JSON", key)
	}
	if err := g.backend.Put(ctx, string(key), data); err != nil {
		return errors.Wrapf(err, "write %s", key)
	}
	return nil
}

// Has reports whether key holds a value.
func (g *Gateway) Has(ctx context.Context, key Key) bool {
	_, ok := g.Raw(ctx, key)
	return ok
}

// Delete removes key. Deleting an absent key is not an error.
func (g *Gateway) Delete(ctx context.Context, key Key) error {
	if err := g.backend.Delete(ctx, string(key)); err != nil && !errors.Is(err, ErrNotFound) {
		return errors.Wrapf(err, "delete %s", key)
	}
	return nil
}

func (g *Gateway) keyLock(key Key) *sync.Mutex {
	g.mu.Lock()
	defer g.mu.Unlock()

	l, ok := g.locks[key]
	if !ok {
		l = new(sync.Mutex)
		g.locks[key] = l
	}
	return l
}

// Read decodes the record stored under key. Absent, unparsable and invalid
// records all yield the zero value of T.
func Read[T any](ctx context.Context, g *Gateway, key Key) T {
	data, ok := g.Raw(ctx, key)
	if !ok {
		var zero T
		return zero
	}
	return decode[T](g, key, data)
}

func decode[T any](g *Gateway, key Key, data []byte) T {
	var zero T
	if data == nil {
		return zero
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		g.lg.Warn("Corrupt record, using empty value",
			zap.String("key", string(key)),
			zap.Error(err),
		)
		return zero
	}
	if val, ok := any(v).(Validatable); ok {
		if err := val.Validate(); err != nil {
			g.lg.Warn("Invalid record, using empty value",
				zap.String("key", string(key)),
				zap.Error(err),
			)
			return zero
		}
	}
	return v
}

// Write encodes v as JSON and stores it under key.
func Write[T any](ctx context.Context, g *Gateway, key Key, v T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "encode %s", key)
	}
	if err := g.backend.Put(ctx, string(key), data); err != nil {
		return errors.Wrapf(err, "write %s", key)
	}
	return nil
}

// Mutate performs a read-modify-write of the record under key through
// Backend.Update, so concurrent mutations from this or any other process
// sharing the backend do not lose updates. A malformed or invalid record is
// replaced as if it were absent, but a failed read aborts the mutation.
// Nothing is written when fn returns an error.
func Mutate[T any](ctx context.Context, g *Gateway, key Key, fn func(T) (T, error)) (T, error) {
	l := g.keyLock(key)
	l.Lock()
	defer l.Unlock()

	var (
		current, next T
		fnErr         error
	)
	err := g.backend.Update(ctx, string(key), func(data []byte) ([]byte, error) {
		current = decode[T](g, key, data)
		next, fnErr = fn(current)
		if fnErr != nil {
			return nil, fnErr
		}
		out, err := json.Marshal(next)
		if err != nil {
			return nil, errors.Wrapf(err, "encode %s", key)
		}
		return out, nil
	})
	switch {
	case fnErr != nil:
		return current, fnErr
	case err != nil:
		return current, errors.Wrapf(err, "update %s", key)
	}
	return next, nil
}
