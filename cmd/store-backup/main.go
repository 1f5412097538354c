package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"

	appkg "github.com/aurelius/storefront/internal/app"
	"github.com/aurelius/storefront/internal/backup"
)

func main() {
	var file string

	flag.StringVar(&file, "file", "aurelius-backup.ndjson.gz", "path of the backup archive")
	flag.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), "usage: store-backup [-file path] export|import")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	mode := flag.Arg(0)
	if mode != "export" && mode != "import" {
		slog.Error("unknown mode", slog.String("mode", mode))
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, mode, file); err != nil {
		slog.Error("backup failed", slog.String("mode", mode), slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, mode, file string) error {
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

	var stats backup.Stats
	switch mode {
	case "export":
		stats, err = export(ctx, env, file)
	case "import":
		stats, err = restore(ctx, env, file)
	}
	if err != nil {
		return err
	}

	slog.Info(mode+" completed",
		slog.String("file", file),
		slog.Int("written", stats.Written),
		slog.Int("skipped", stats.Skipped),
	)
	return nil
}

func export(ctx context.Context, env *appkg.Env, path string) (backup.Stats, error) {
	f, err := os.Create(path)
	if err != nil {
		return backup.Stats{}, errors.Wrapf(err, "create %s", path)
	}

	stats, err := backup.Export(ctx, env.Gateway(), f)
	if err != nil {
		_ = f.Close()
		return stats, err
	}
	if err := f.Close(); err != nil {
		return stats, errors.Wrapf(err, "close %s", path)
	}
	return stats, nil
}

func restore(ctx context.Context, env *appkg.Env, path string) (backup.Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return backup.Stats{}, errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	return backup.Import(ctx, env.Gateway(), f)
}
