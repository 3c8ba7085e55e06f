// Package main renders markdown and CSV reports from the stored derived
// tables of one series.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"event-analytics-lab/internal/config"
	"event-analytics-lab/internal/reporting"
	"event-analytics-lab/internal/storage"
	chstore "event-analytics-lab/internal/storage/clickhouse"
	"event-analytics-lab/internal/storage/duckdb"
	"event-analytics-lab/internal/storage/migrations"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	seriesID := flag.String("series", "", "Series to report on (required)")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	if *seriesID == "" {
		logger.Fatal().Msg("--series is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load configuration")
	}

	ctx := context.Background()

	runStore, temporalStore, matchupStore, cleanup, err := createDerivedStores(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create stores")
	}
	defer cleanup()

	gen := reporting.NewGenerator(runStore, temporalStore, matchupStore).
		WithThresholds(seriesThresholds(cfg, *seriesID))

	report, err := gen.Generate(ctx, *seriesID)
	if err != nil {
		logger.Fatal().Err(err).Str("series", *seriesID).Msg("Report generation failed")
	}

	if err := os.MkdirAll(cfg.Report.OutputDir, 0o755); err != nil {
		logger.Fatal().Err(err).Msg("Creating output directory failed")
	}

	written, err := writeFormats(cfg, *seriesID, report)
	if err != nil {
		logger.Fatal().Err(err).Msg("Writing report failed")
	}

	fmt.Println("Report generated:")
	for _, f := range written {
		fmt.Printf("  - %s\n", f)
	}
}

// writeFormats renders the configured formats and returns the written paths.
func writeFormats(cfg *config.Config, seriesID string, report *reporting.Report) ([]string, error) {
	var written []string
	write := func(name, content string) error {
		path := filepath.Join(cfg.Report.OutputDir, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return err
		}
		written = append(written, path)
		return nil
	}

	for _, format := range cfg.Report.Formats {
		switch format {
		case "markdown":
			if err := write(seriesID+".md", reporting.RenderMarkdown(report)); err != nil {
				return nil, err
			}
		case "csv":
			for name, content := range map[string]string{
				seriesID + "_runs.csv":     reporting.RenderRunsCSV(report.RunSummary),
				seriesID + "_temporal.csv": reporting.RenderTemporalCSV(report.TemporalPoints),
				seriesID + "_matchups.csv": reporting.RenderMatchupsCSV(report.Matchups),
			} {
				if err := write(name, content); err != nil {
					return nil, err
				}
			}
		default:
			return nil, errors.New("unknown report format " + format)
		}
	}
	return written, nil
}

// seriesThresholds pulls the report thresholds from the series' configured jobs.
func seriesThresholds(cfg *config.Config, seriesID string) (minRunLength int, dominanceFactor float64) {
	for _, job := range cfg.Jobs {
		if job.Schema.SeriesID != seriesID {
			continue
		}
		switch job.Kind {
		case config.JobKindStreaks:
			minRunLength = job.Streaks.MinLength
		case config.JobKindMatchup:
			dominanceFactor = job.Matchup.DominanceFactor
		}
	}
	return minRunLength, dominanceFactor
}

// createDerivedStores opens the derived-table stores for the configured backend.
func createDerivedStores(ctx context.Context, cfg *config.Config) (
	storage.RunStore,
	storage.TemporalPointStore,
	storage.MatchupAggregateStore,
	func(),
	error,
) {
	switch cfg.Storage.Backend {
	case "warehouse":
		if cfg.Storage.ClickhouseDSN == "" {
			return nil, nil, nil, nil, errors.New("clickhouse_dsn is required for the warehouse backend")
		}
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.Storage.ClickhouseDSN)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		cleanup := func() { conn.Close() }
		return chstore.NewRunStore(conn), chstore.NewTemporalPointStore(conn), chstore.NewMatchupAggregateStore(conn), cleanup, nil
	case "duckdb":
		db, err := duckdb.Open(ctx, cfg.Storage.DuckDBPath)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		if err := db.CreateTables(ctx); err != nil {
			db.Close()
			return nil, nil, nil, nil, err
		}
		cleanup := func() { db.Close() }
		return duckdb.NewRunStore(db), duckdb.NewTemporalPointStore(db), duckdb.NewMatchupAggregateStore(db), cleanup, nil
	default:
		return nil, nil, nil, nil, errors.New("backend " + cfg.Storage.Backend + " has no persistent derived tables")
	}
}
