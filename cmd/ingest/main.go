// Package main provides the live ingestion entry point: it subscribes to the
// record feed and loads normalized events into the staging store.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"event-analytics-lab/internal/config"
	"event-analytics-lab/internal/ingestion"
	"event-analytics-lab/internal/observability"
	"event-analytics-lab/internal/storage"
	"event-analytics-lab/internal/storage/memory"
	"event-analytics-lab/internal/storage/migrations"
	pgstore "event-analytics-lab/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	jobName := flag.String("job", "", "Job whose schema drives ingestion (default: first configured job)")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load configuration")
	}

	job, err := selectJob(cfg, *jobName)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to select job")
	}

	// Metrics server
	if cfg.Metrics.Addr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("ok"))
			})
			logger.Info().Str("addr", cfg.Metrics.Addr).Msg("Starting metrics server")
			if err := http.ListenAndServe(cfg.Metrics.Addr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Msg("Metrics server error")
			}
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info().Stringer("signal", sig).Msg("Initiating graceful shutdown")
		cancel()

		select {
		case sig := <-sigCh:
			logger.Warn().Stringer("signal", sig).Msg("Forcing immediate shutdown")
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Warn().Msg("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		}
	}()

	eventStore, cleanup, err := createEventStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create event store")
	}
	defer cleanup()

	source, err := ingestion.NewWSRecordSource(ctx, cfg.Ingest.Endpoint, nil, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("endpoint", cfg.Ingest.Endpoint).Msg("Failed to connect to record feed")
	}
	defer source.Close()

	runner := ingestion.NewRunner(ingestion.RunnerOptions{
		Source:        source,
		Schema:        job.Schema.ToSchema(),
		EventStore:    eventStore,
		BatchSize:     cfg.Ingest.BatchSize,
		FlushInterval: cfg.Ingest.FlushInterval,
		Logger:        logger,
	})

	logger.Info().
		Str("series", job.Schema.SeriesID).
		Str("endpoint", cfg.Ingest.Endpoint).
		Msg("Ingestion started")

	if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("Ingestion failed")
	}

	logger.Info().Msg("Shutdown complete")
}

// selectJob picks the configured job whose schema drives ingestion.
func selectJob(cfg *config.Config, name string) (*config.JobSpec, error) {
	if len(cfg.Jobs) == 0 {
		return nil, errors.New("no jobs configured")
	}
	if name == "" {
		return &cfg.Jobs[0], nil
	}
	for i := range cfg.Jobs {
		if cfg.Jobs[i].Name == name {
			return &cfg.Jobs[i], nil
		}
	}
	return nil, errors.New("no job named " + name)
}

// createEventStore builds the staging store for the configured backend.
// Events stage in postgres under the warehouse backend; the memory backend
// exists for local smoke runs.
func createEventStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (storage.EventStore, func(), error) {
	switch cfg.Storage.Backend {
	case "memory":
		return memory.NewEventStore(), func() {}, nil
	case "warehouse":
		if cfg.Storage.PostgresDSN == "" {
			return nil, nil, errors.New("postgres_dsn is required for the warehouse backend")
		}
		pool, err := pgstore.NewPool(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		logger.Info().Msg("Postgres migrations applied")
		return pgstore.NewEventStore(pool), pool.Close, nil
	default:
		return nil, nil, errors.New("backend " + cfg.Storage.Backend + " cannot stage events")
	}
}
