// Package main provides the E2E pipeline entry point.
// Executes: ingestion -> analysis jobs -> reporting over fixture data.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"event-analytics-lab/internal/config"
	"event-analytics-lab/internal/domain"
	"event-analytics-lab/internal/ingestion"
	"event-analytics-lab/internal/ingestion/stub"
	"event-analytics-lab/internal/normalize"
	"event-analytics-lab/internal/orchestrator"
	"event-analytics-lab/internal/reporting"
	"event-analytics-lab/internal/storage/memory"
)

const (
	resultsSeries = "blitz-results"
	gamesSeries   = "blitz-games"
)

func main() {
	outputDir := flag.String("output-dir", "reports", "Output directory for generated files")
	verbose := flag.Bool("verbose", false, "Verbose output")
	flag.Parse()

	level := zerolog.InfoLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info().Stringer("signal", sig).Msg("Cancelling pipeline")
		cancel()
	}()

	eventStore := memory.NewEventStore()
	runStore := memory.NewRunStore()
	temporalStore := memory.NewTemporalPointStore()
	matchupStore := memory.NewMatchupAggregateStore()

	// Stage 1: ingest fixture records into the staging store.
	logger.Info().Msg("Ingesting fixture data")
	for _, feed := range []struct {
		schema  normalize.Schema
		records []domain.RawRecord
	}{
		{schema: resultsSchema(), records: resultRecords()},
		{schema: gamesSchema(), records: gameRecords()},
	} {
		runner := ingestion.NewRunner(ingestion.RunnerOptions{
			Source:     stub.NewStreamSource(feed.schema.SeriesID, feed.records),
			Schema:     feed.schema,
			EventStore: eventStore,
			Logger:     logger,
		})
		if err := runner.Run(ctx); err != nil {
			logger.Fatal().Err(err).Str("series", feed.schema.SeriesID).Msg("Ingestion failed")
		}
	}

	// Stage 2: run the analysis jobs.
	orch := orchestrator.New(orchestrator.Options{
		EventStore:            eventStore,
		RunStore:              runStore,
		TemporalPointStore:    temporalStore,
		MatchupAggregateStore: matchupStore,
		Jobs:                  demoJobs(),
		Logger:                logger,
	})

	result, err := orch.Run(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("Orchestrator failed")
	}
	for _, e := range result.Errors {
		logger.Warn().Str("error", e).Msg("Job error")
	}

	// Stage 3: render reports, one per series, with a fixed clock so reruns
	// over the same fixtures produce identical files.
	fixedTime := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)
	gen := reporting.NewGenerator(runStore, temporalStore, matchupStore).
		WithClock(func() time.Time { return fixedTime }).
		WithThresholds(3, 1.5)

	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		logger.Fatal().Err(err).Msg("Creating output directory failed")
	}

	for _, seriesID := range []string{resultsSeries, gamesSeries} {
		report, err := gen.Generate(ctx, seriesID)
		if err != nil {
			logger.Fatal().Err(err).Str("series", seriesID).Msg("Report generation failed")
		}
		if err := writeReport(*outputDir, seriesID, report); err != nil {
			logger.Fatal().Err(err).Str("series", seriesID).Msg("Writing report failed")
		}
	}

	fmt.Println("E2E pipeline completed:")
	fmt.Printf("  Runs detected:       %d\n", result.RunsDetected)
	fmt.Printf("  Points normalized:   %d\n", result.PointsNormalized)
	fmt.Printf("  Matchups aggregated: %d\n", result.MatchupsAggregated)
	fmt.Printf("  Reports written to:  %s\n", *outputDir)
}

// writeReport renders one series' markdown and CSV files.
func writeReport(dir, seriesID string, report *reporting.Report) error {
	md := reporting.RenderMarkdown(report)
	if err := os.WriteFile(filepath.Join(dir, seriesID+".md"), []byte(md), 0o644); err != nil {
		return err
	}
	files := map[string]string{
		seriesID + "_runs.csv":     reporting.RenderRunsCSV(report.RunSummary),
		seriesID + "_temporal.csv": reporting.RenderTemporalCSV(report.TemporalPoints),
		seriesID + "_matchups.csv": reporting.RenderMatchupsCSV(report.Matchups),
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			return err
		}
	}
	return nil
}

// resultsSchema maps one-row-per-player-per-game fixtures.
func resultsSchema() normalize.Schema {
	return normalize.Schema{
		SeriesID:        resultsSeries,
		EntityField:     "player",
		OccurredAtField: "played_at",
		CategoryField:   "result",
		CategoryDomain:  []string{domain.CategoryWin, domain.CategoryLoss, domain.CategoryDraw},
		FoldEntityCase:  true,
	}
}

// gamesSchema maps one-row-per-game fixtures with both participants.
func gamesSchema() normalize.Schema {
	return normalize.Schema{
		SeriesID:        gamesSeries,
		EntityField:     "white",
		OccurredAtField: "played_at",
		CategoryField:   "outcome",
		FirstField:      "white",
		SecondField:     "black",
		CategoryDomain:  []string{domain.CategoryFirstWin, domain.CategorySecondWin, domain.CategoryDraw},
		FoldEntityCase:  true,
	}
}

func demoJobs() []config.JobSpec {
	return []config.JobSpec{
		{
			Name:   "result-streaks",
			Kind:   config.JobKindStreaks,
			Schema: config.SchemaConfig{SeriesID: resultsSeries, CategoryDomain: []string{domain.CategoryWin, domain.CategoryLoss, domain.CategoryDraw}},
		},
		{
			Name:   "monthly-games",
			Kind:   config.JobKindTempo,
			Schema: config.SchemaConfig{SeriesID: resultsSeries},
			Temporal: config.TemporalParams{
				PeriodLayout: "2006-01",
				Agg:          "count",
				Lag:          1,
				Precision:    1,
				Eras: []config.EraRule{
					{Label: "Opening month", Until: "2026-02"},
					{Label: "Season", From: "2026-02"},
				},
			},
		},
		{
			Name:    "rivalries",
			Kind:    config.JobKindMatchup,
			Schema:  config.SchemaConfig{SeriesID: gamesSeries},
			Matchup: config.MatchupParams{MinTotal: 2, DominanceFactor: 1.5, FoldCase: true},
		},
	}
}

// resultRecords is a two-player month of blitz from each player's side.
func resultRecords() []domain.RawRecord {
	games := []struct {
		day    int
		player string
		result string
	}{
		{2, "alice", "win"}, {2, "bob", "loss"},
		{3, "alice", "win"}, {3, "bob", "loss"},
		{5, "alice", "win"}, {5, "bob", "loss"},
		{9, "alice", "loss"}, {9, "bob", "win"},
		{12, "alice", "draw"}, {12, "bob", "draw"},
		{33, "alice", "win"}, {33, "bob", "loss"},
		{34, "alice", "loss"}, {34, "bob", "win"},
		{36, "alice", "loss"}, {36, "bob", "win"},
		{37, "alice", "loss"}, {37, "bob", "win"},
	}
	records := make([]domain.RawRecord, 0, len(games))
	for _, g := range games {
		records = append(records, domain.RawRecord{
			"player":    g.player,
			"played_at": fixtureDay(g.day),
			"result":    g.result,
		})
	}
	return records
}

// gameRecords is the same month, one row per game.
func gameRecords() []domain.RawRecord {
	games := []struct {
		day     int
		white   string
		black   string
		outcome string
	}{
		{2, "alice", "bob", "first_win"},
		{3, "bob", "alice", "second_win"},
		{5, "alice", "bob", "first_win"},
		{9, "bob", "alice", "first_win"},
		{12, "alice", "bob", "draw"},
		{33, "alice", "bob", "first_win"},
		{34, "bob", "alice", "first_win"},
		{36, "alice", "bob", "second_win"},
		{37, "bob", "alice", "first_win"},
	}
	records := make([]domain.RawRecord, 0, len(games))
	for _, g := range games {
		records = append(records, domain.RawRecord{
			"white":     g.white,
			"black":     g.black,
			"played_at": fixtureDay(g.day),
			"outcome":   g.outcome,
		})
	}
	return records
}

// fixtureDay returns an RFC3339 timestamp day days into January 2026.
func fixtureDay(day int) string {
	return time.Date(2026, 1, 1, 18, 0, 0, 0, time.UTC).AddDate(0, 0, day-1).Format(time.RFC3339)
}
