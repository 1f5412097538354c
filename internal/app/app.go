package app

import (
	"context"
	"io"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/aurelius/storefront/internal/commerce"
	"github.com/aurelius/storefront/internal/domain/catalog"
	"github.com/aurelius/storefront/internal/storage"
	"github.com/aurelius/storefront/internal/storage/embedded"
	"github.com/aurelius/storefront/internal/storage/file"
	"github.com/aurelius/storefront/internal/storage/memory"
	"github.com/aurelius/storefront/internal/storage/postgres"
	"github.com/aurelius/storefront/internal/storage/redis"
)

// Run opens the configured store, executes the command in args and closes
// the store. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config, args []string, out io.Writer) error {
	env, err := Open(ctx, lg, m.MeterProvider(), cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := env.Close(); err != nil {
			lg.Warn("Close storage", zap.Error(err))
		}
	}()

	return env.Execute(ctx, args, out)
}

// Env holds the long-lived dependencies shared by every command.
type Env struct {
	cfg     *Config
	lg      *zap.Logger
	meter   metric.MeterProvider
	gw      *storage.Gateway
	catalog catalog.Repository
}

// Open connects the storage backend and loads the catalog.
func Open(ctx context.Context, lg *zap.Logger, mp metric.MeterProvider, cfg *Config) (*Env, error) {
	lg.Debug("Opening storage", zap.String("driver", cfg.Storage.Driver))

	backend, err := openBackend(ctx, cfg.Storage)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s storage", cfg.Storage.Driver)
	}

	cat, err := openCatalog(cfg.Catalog)
	if err != nil {
		_ = backend.Close()
		return nil, errors.Wrap(err, "load catalog")
	}

	return &Env{
		cfg:     cfg,
		lg:      lg,
		meter:   mp,
		gw:      storage.NewGateway(backend, lg.Named("storage")),
		catalog: cat,
	}, nil
}

// Gateway returns the persistence gateway.
func (e *Env) Gateway() *storage.Gateway {
	return e.gw
}

// Close releases the storage backend.
func (e *Env) Close() error {
	return e.gw.Close()
}

// manager builds a Manager whose log lines carry the command name and a
// fresh correlation id.
func (e *Env) manager(ctx context.Context, command string) (*commerce.Manager, *zap.Logger, error) {
	lg := e.lg.With(
		zap.String("command", command),
		zap.String("command_id", uuid.NewString()),
	)
	m, err := commerce.New(ctx, e.gw, e.catalog, commerce.Options{
		CheckoutDelay:   e.cfg.Checkout.Delay,
		NewsletterDelay: e.cfg.Newsletter.Delay,
		OrderPrefix:     e.cfg.Checkout.OrderPrefix,
		Logger:          lg,
		MeterProvider:   e.meter,
	})
	if err != nil {
		return nil, nil, errors.Wrap(err, "create manager")
	}
	return m, lg, nil
}

func openBackend(ctx context.Context, cfg StorageConfig) (storage.Backend, error) {
	switch cfg.Driver {
	case "memory":
		return memory.New(), nil
	case "file":
		return file.New(cfg.Dir)
	case "redis":
		return redis.New(ctx, redis.Config{
			URL:          cfg.RedisURL,
			Namespace:    cfg.RedisNamespace,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		})
	case "postgres":
		return postgres.New(ctx, cfg.PostgresURL)
	default:
		return nil, errors.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func openCatalog(cfg CatalogConfig) (catalog.Repository, error) {
	if cfg.File != "" {
		return embedded.LoadFile(cfg.File)
	}
	return embedded.NewCatalogRepository()
}
