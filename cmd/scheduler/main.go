// Package main provides the scheduled analysis entry point: each configured
// job with a cron schedule runs its analysis against the warehouse.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"event-analytics-lab/internal/config"
	"event-analytics-lab/internal/observability"
	"event-analytics-lab/internal/orchestrator"
	"event-analytics-lab/internal/scheduler"
	"event-analytics-lab/internal/storage"
	chstore "event-analytics-lab/internal/storage/clickhouse"
	"event-analytics-lab/internal/storage/duckdb"
	"event-analytics-lab/internal/storage/memory"
	"event-analytics-lab/internal/storage/migrations"
	pgstore "event-analytics-lab/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	runOnStart := flag.Bool("run-on-start", false, "Run every job once at startup")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load configuration")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stores, cleanup, err := createStores(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create stores")
	}
	defer cleanup()

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

	sched := scheduler.New(logger)

	scheduled := 0
	for _, job := range cfg.Jobs {
		aj := &analysisJob{
			name: job.Name,
			orch: orchestrator.New(orchestrator.Options{
				EventStore:            stores.eventStore,
				RunStore:              stores.runStore,
				TemporalPointStore:    stores.temporalStore,
				MatchupAggregateStore: stores.matchupStore,
				Jobs:                  []config.JobSpec{job},
				Logger:                logger,
			}),
			ctx: ctx,
		}

		if *runOnStart {
			if err := sched.RunNow(aj); err != nil {
				logger.Error().Err(err).Str("job", job.Name).Msg("Startup run failed")
			}
		}
		if job.Schedule == "" {
			continue
		}
		if err := sched.AddJob(job.Schedule, aj); err != nil {
			logger.Fatal().Err(err).Str("job", job.Name).Msg("Failed to register job")
		}
		scheduled++
	}

	if scheduled == 0 && !*runOnStart {
		logger.Fatal().Msg("No jobs carry a schedule; nothing to do")
	}

	sched.Start()
	defer sched.Stop()

	logger.Info().Int("jobs", scheduled).Msg("Scheduler running")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info().Stringer("signal", sig).Msg("Shutting down")
	cancel()
}

// analysisJob adapts one configured job to the scheduler's Job interface.
type analysisJob struct {
	name string
	orch *orchestrator.Orchestrator
	ctx  context.Context
}

func (j *analysisJob) Name() string { return j.name }

func (j *analysisJob) Run() error {
	result, err := j.orch.Run(j.ctx)
	if err != nil {
		return err
	}
	if len(result.Errors) > 0 {
		return errors.New(result.Errors[0])
	}
	return nil
}

// jobStores bundles the staging store with the derived-table stores.
type jobStores struct {
	eventStore    storage.EventStore
	runStore      storage.RunStore
	temporalStore storage.TemporalPointStore
	matchupStore  storage.MatchupAggregateStore
}

// createStores wires the configured backend. The warehouse backend stages
// events in postgres and lands derived tables in clickhouse; the duckdb
// backend keeps derived tables in a local file but still stages in postgres.
func createStores(ctx context.Context, cfg *config.Config) (*jobStores, func(), error) {
	if cfg.Storage.Backend == "memory" {
		return &jobStores{
			eventStore:    memory.NewEventStore(),
			runStore:      memory.NewRunStore(),
			temporalStore: memory.NewTemporalPointStore(),
			matchupStore:  memory.NewMatchupAggregateStore(),
		}, func() {}, nil
	}

	if cfg.Storage.PostgresDSN == "" {
		return nil, nil, errors.New("postgres_dsn is required to stage events")
	}
	pool, err := pgstore.NewPool(ctx, cfg.Storage.PostgresDSN)
	if err != nil {
		return nil, nil, err
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, err
	}

	stores := &jobStores{eventStore: pgstore.NewEventStore(pool)}

	switch cfg.Storage.Backend {
	case "warehouse":
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.Storage.ClickhouseDSN)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		stores.runStore = chstore.NewRunStore(conn)
		stores.temporalStore = chstore.NewTemporalPointStore(conn)
		stores.matchupStore = chstore.NewMatchupAggregateStore(conn)
		return stores, func() { conn.Close(); pool.Close() }, nil
	case "duckdb":
		db, err := duckdb.Open(ctx, cfg.Storage.DuckDBPath)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		if err := db.CreateTables(ctx); err != nil {
			db.Close()
			pool.Close()
			return nil, nil, err
		}
		stores.runStore = duckdb.NewRunStore(db)
		stores.temporalStore = duckdb.NewTemporalPointStore(db)
		stores.matchupStore = duckdb.NewMatchupAggregateStore(db)
		return stores, func() { db.Close(); pool.Close() }, nil
	default:
		pool.Close()
		return nil, nil, errors.New("unknown backend " + cfg.Storage.Backend)
	}
}
