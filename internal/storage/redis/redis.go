// Package redis stores records in Redis under a namespaced key prefix.
package redis

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	goredis "github.com/redis/go-redis/v9"

	"github.com/aurelius/storefront/internal/storage"
)

const (
	defaultNamespace = "aurelius"

	// maxUpdateAttempts bounds optimistic retries when a watched key changes.
	maxUpdateAttempts = 32
)

var _ storage.Backend = (*Backend)(nil)

type cmdable interface {
	Ping(context.Context) *goredis.StatusCmd
	Get(context.Context, string) *goredis.StringCmd
	Set(context.Context, string, any, time.Duration) *goredis.StatusCmd
	Del(context.Context, ...string) *goredis.IntCmd
	Watch(context.Context, func(*goredis.Tx) error, ...string) error
}

// Config describes how to reach Redis. URL takes precedence over Address.
type Config struct {
	URL          string
	Address      string
	Password     string
	DB           int
	Namespace    string
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Backend implements storage.Backend on top of a Redis client.
type Backend struct {
	store     cmdable
	raw       *goredis.Client
	namespace string
}

// New connects to Redis and verifies connectivity.
func New(ctx context.Context, cfg Config) (*Backend, error) {
	opts, err := optionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	raw := goredis.NewClient(opts)
	if err := raw.Ping(ctx).Err(); err != nil {
		_ = raw.Close()
		return nil, errors.Wrap(err, "ping redis")
	}
	return newBackend(raw, raw, cfg.Namespace), nil
}

func newBackend(store cmdable, raw *goredis.Client, namespace string) *Backend {
	if namespace == "" {
		namespace = defaultNamespace
	}
	return &Backend{store: store, raw: raw, namespace: namespace}
}

func optionsFromConfig(cfg Config) (*goredis.Options, error) {
	if cfg.URL == "" && cfg.Address == "" {
		return nil, errors.New("redis url or address is required")
	}
	var opts *goredis.Options
	if cfg.URL != "" {
		parsed, err := goredis.ParseURL(cfg.URL)
		if err != nil {
			return nil, errors.Wrap(err, "parse redis url")
		}
		opts = parsed
	} else {
		opts = &goredis.Options{
			Addr:     cfg.Address,
			Password: cfg.Password,
			DB:       cfg.DB,
		}
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = cfg.ReadTimeout
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = cfg.WriteTimeout
	}
	return opts, nil
}

func (b *Backend) key(key string) string {
	return b.namespace + ":" + strings.TrimSpace(key)
}

// Get returns the value stored at key.
func (b *Backend) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := b.store.Get(ctx, b.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, errors.Wrapf(storage.ErrNotFound, "key %s", key)
		}
		return nil, errors.Wrapf(err, "redis get %s", key)
	}
	return v, nil
}

// Put stores value at key without expiry.
func (b *Backend) Put(ctx context.Context, key string, value []byte) error {
	if err := b.store.Set(ctx, b.key(key), value, 0).Err(); err != nil {
		return errors.Wrapf(err, "redis set %s", key)
	}
	return nil
}

// Delete removes key.
func (b *Backend) Delete(ctx context.Context, key string) error {
	if err := b.store.Del(ctx, b.key(key)).Err(); err != nil {
		return errors.Wrapf(err, "redis del %s", key)
	}
	return nil
}

// Update applies fn to the value at key in a WATCH/MULTI transaction,
// retrying when another client changes the key first.
func (b *Backend) Update(ctx context.Context, key string, fn storage.UpdateFunc) error {
	k := b.key(key)
	txf := func(tx *goredis.Tx) error {
		current, err := tx.Get(ctx, k).Bytes()
		if err != nil {
			if !errors.Is(err, goredis.Nil) {
				return errors.Wrapf(err, "redis get %s", key)
			}
			current = nil
		}

		next, err := fn(current)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, k, next, 0)
			return nil
		})
		return err
	}

	for range maxUpdateAttempts {
		err := b.store.Watch(ctx, txf, k)
		if errors.Is(err, goredis.TxFailedErr) {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			continue
		}
		return err
	}
	return errors.Errorf("redis update %s: key kept changing", key)
}

// Ping verifies the connection.
func (b *Backend) Ping(ctx context.Context) error {
	return b.store.Ping(ctx).Err()
}

// Close shuts down the underlying client if available.
func (b *Backend) Close() error {
	if b.raw == nil {
		return nil
	}
	return b.raw.Close()
}
