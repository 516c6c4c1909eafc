// Command order-export dumps orders from the persistent store into a
// gzip-compressed NDJSON file.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"

	"github.com/xenking/shiptrack/internal/domain/order"
	"github.com/xenking/shiptrack/internal/storage/postgres"
)

func main() {
	var (
		databaseURL string
		out         string
		status      string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&out, "out", "", "output file (default exports/orders-<date>.ndjson.gz)")
	flag.StringVar(&status, "status", "", "only export orders in this status")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if out == "" {
		out = filepath.Join("exports", "orders-"+time.Now().UTC().Format("2006-01-02")+".ndjson.gz")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, out, status); err != nil {
		slog.Error("order export failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, databaseURL, out, status string) error {
	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	repo := postgres.NewOrderRepository(pool)
	var orders []order.Order
	if status != "" {
		s, err := order.ParseStatus(status)
		if err != nil {
			return err
		}
		orders, err = repo.ListByStatus(ctx, s)
		if err != nil {
			return errors.Wrap(err, "list orders")
		}
	} else {
		orders, err = repo.List(ctx)
		if err != nil {
			return errors.Wrap(err, "list orders")
		}
	}

	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return errors.Wrap(err, "create output dir")
	}
	f, err := os.Create(out)
	if err != nil {
		return errors.Wrap(err, "create output file")
	}
	defer func() { _ = f.Close() }()

	zw := pgzip.NewWriter(f)
	n, err := writeExport(zw, orders)
	if err != nil {
		return errors.Wrap(err, "write export")
	}
	if err := zw.Close(); err != nil {
		return errors.Wrap(err, "flush gzip")
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(err, "close output file")
	}

	slog.Info("order export completed",
		slog.String("file", out),
		slog.Int("orders", n),
	)
	return nil
}
