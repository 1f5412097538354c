package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"

	"github.com/aurelius/storefront/db"
	appkg "github.com/aurelius/storefront/internal/app"
	"github.com/aurelius/storefront/internal/domain/review"
	"github.com/aurelius/storefront/internal/storage"
)

func main() {
	var reviewsFile string

	flag.StringVar(&reviewsFile, "reviews-file", "", "path to reviews JSON file (built-in demo reviews when empty)")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, reviewsFile); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, reviewsFile string) error {
	cfg, err := appkg.LoadConfig()
	if err != nil {
		return err
	}

	slog.Info("opening storage", slog.String("driver", cfg.Storage.Driver))
	env, err := appkg.Open(ctx, zap.NewNop(), noop.NewMeterProvider(), cfg)
	if err != nil {
		return err
	}
	defer func() { _ = env.Close() }()

	if err := seedReviews(ctx, env.Gateway(), reviewsFile); err != nil {
		return errors.Wrap(err, "seed reviews")
	}
	return nil
}

func seedReviews(ctx context.Context, gw *storage.Gateway, reviewsFile string) error {
	data := db.Reviews
	if reviewsFile != "" {
		slog.Info("reading reviews file", slog.String("path", reviewsFile))

		var err error
		data, err = os.ReadFile(reviewsFile)
		if err != nil {
			return errors.Wrap(err, "read reviews file")
		}
	}

	var seed review.List
	if err := json.Unmarshal(data, &seed); err != nil {
		return errors.Wrap(err, "parse reviews JSON")
	}
	if err := seed.Validate(); err != nil {
		return err
	}

	slog.Info("upserting reviews", slog.Int("count", len(seed)))

	_, err := storage.Mutate(ctx, gw, storage.KeyReviews, func(stored review.List) (review.List, error) {
		byID := make(map[string]int, len(stored))
		for i, r := range stored {
			byID[r.ID] = i
		}
		next := append(review.List{}, stored...)
		for _, r := range seed {
			if i, ok := byID[r.ID]; ok {
				next[i] = r
			} else {
				next = append(next, r)
				byID[r.ID] = len(next) - 1
			}
			slog.Info("upserted review", slog.String("id", r.ID), slog.String("product_id", r.ProductID))
		}
		return next, nil
	})
	return err
}
