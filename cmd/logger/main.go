package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"main/internal/application/service/ingest"
	"main/internal/config"
	interfaces "main/internal/domain/interfaces"
	"main/internal/infrastructure/coinbase"
	"main/internal/infrastructure/metrics"
	"main/internal/infrastructure/store"
	infrahttp "main/internal/interfaces/http"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}

	client := coinbase.NewClient(coinbase.Config{
		FeedURL:          cfg.Feed.URL,
		ProductsURL:      cfg.Feed.ProductsURL,
		HandshakeTimeout: cfg.Feed.HandshakeTimeout,
	}, logger)

	// Startup-only dependency: the pool cannot be sized without the symbol
	// universe, so discovery failure is fatal.
	symbols, err := client.OnlineSymbols(ctx)
	if err != nil {
		logger.Fatalf("symbol discovery failed: %v", err)
	}
	logger.WithField("symbols", len(symbols)).Info("discovered online symbols")

	registry := prometheus.NewRegistry()
	pipelineMetrics := metrics.New(registry)

	newStore := func(id int) (interfaces.TickStore, error) {
		return store.NewStore(cfg.Ingest.DataRoot, time.Now(), logger.WithField("connection", id))
	}
	pool := ingest.NewPool(client, newStore, ingest.Options{
		FlushInterval:       cfg.Ingest.FlushInterval,
		MaxBufferedTicks:    cfg.Ingest.FlushMaxTicks,
		RotateCheckInterval: cfg.Ingest.RotateCheck,
	}, logger, pipelineMetrics)

	handler := infrahttp.NewHandler(cfg.Ingest.DataRoot, cfg.Health.MaxFileAge, registry)
	server := &http.Server{
		Addr:    cfg.HTTP.Addr(),
		Handler: handler,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return pool.Run(gctx, symbols, cfg.Ingest.Connections)
	})
	g.Go(func() error {
		logger.Infof("HTTP server listening on %s", cfg.HTTP.Addr())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("daemon stopped with error: %v", err)
	}
	logger.Info("daemon stopped")
}
