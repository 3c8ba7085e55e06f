// Package orchestrator runs the configured analysis jobs end to end.
// It coordinates: load events → compute per job kind → persist derived tables.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"event-analytics-lab/internal/config"
	"event-analytics-lab/internal/domain"
	"event-analytics-lab/internal/matchup"
	"event-analytics-lab/internal/observability"
	"event-analytics-lab/internal/storage"
	"event-analytics-lab/internal/streaks"
	"event-analytics-lab/internal/temporal"
)

// Orchestrator coordinates job execution over the configured stores.
type Orchestrator struct {
	eventStore        storage.EventStore
	runStore          storage.RunStore
	temporalStore     storage.TemporalPointStore
	matchupStore      storage.MatchupAggregateStore
	jobs              []config.JobSpec
	maxEntityRoutines int
	logger            zerolog.Logger
}

// Options for creating an Orchestrator.
type Options struct {
	EventStore            storage.EventStore
	RunStore              storage.RunStore
	TemporalPointStore    storage.TemporalPointStore
	MatchupAggregateStore storage.MatchupAggregateStore

	Jobs []config.JobSpec

	// MaxEntityRoutines bounds per-entity parallelism in run detection.
	// Defaults to GOMAXPROCS.
	MaxEntityRoutines int

	Logger zerolog.Logger
}

// New creates a new Orchestrator.
func New(opts Options) *Orchestrator {
	maxRoutines := opts.MaxEntityRoutines
	if maxRoutines <= 0 {
		maxRoutines = runtime.GOMAXPROCS(0)
	}
	return &Orchestrator{
		eventStore:        opts.EventStore,
		runStore:          opts.RunStore,
		temporalStore:     opts.TemporalPointStore,
		matchupStore:      opts.MatchupAggregateStore,
		jobs:              opts.Jobs,
		maxEntityRoutines: maxRoutines,
		logger:            opts.Logger.With().Str("component", "orchestrator").Logger(),
	}
}

// RunResult contains results from orchestrator execution.
type RunResult struct {
	JobsCompleted      int
	RunsDetected       int
	PointsNormalized   int
	MatchupsAggregated int
	Errors             []string
}

// Run executes every configured job in order. A job that fails validation or
// computation is recorded in Errors and does not stop the remaining jobs;
// a store failure aborts the run.
func (o *Orchestrator) Run(ctx context.Context) (*RunResult, error) {
	result := &RunResult{}

	for _, job := range o.jobs {
		start := time.Now()
		o.logger.Info().Str("job", job.Name).Str("kind", job.Kind).Msg("job starting")

		events, err := o.eventStore.GetBySeries(ctx, job.Schema.SeriesID)
		if err != nil {
			observability.RecordPipelineRun(job.Kind, "error", time.Since(start).Seconds())
			return nil, fmt.Errorf("job %s: load events: %w", job.Name, err)
		}

		var created int
		switch job.Kind {
		case config.JobKindStreaks:
			created, err = o.runStreaks(ctx, job, events)
			result.RunsDetected += created
		case config.JobKindTempo:
			created, err = o.runTemporal(ctx, job, events)
			result.PointsNormalized += created
		case config.JobKindMatchup:
			created, err = o.runMatchup(ctx, job, events)
			result.MatchupsAggregated += created
		default:
			err = fmt.Errorf("unknown job kind %q", job.Kind)
		}

		elapsed := time.Since(start)
		if err != nil {
			if isStoreError(err) {
				observability.RecordPipelineRun(job.Kind, "error", elapsed.Seconds())
				return nil, fmt.Errorf("job %s: %w", job.Name, err)
			}
			observability.RecordPipelineRun(job.Kind, "rejected", elapsed.Seconds())
			result.Errors = append(result.Errors, fmt.Sprintf("job %s: %v", job.Name, err))
			o.logger.Error().Str("job", job.Name).Err(err).Msg("job rejected")
			continue
		}

		observability.RecordPipelineRun(job.Kind, "ok", elapsed.Seconds())
		result.JobsCompleted++
		o.logger.Info().
			Str("job", job.Name).
			Int("events", len(events)).
			Int("created", created).
			Dur("elapsed", elapsed).
			Msg("job completed")
	}

	observability.DefaultMetrics.LastSuccessfulPipeline.SetToCurrentTime()
	o.logger.Info().
		Int("jobs", result.JobsCompleted).
		Int("runs", result.RunsDetected).
		Int("points", result.PointsNormalized).
		Int("matchups", result.MatchupsAggregated).
		Int("errors", len(result.Errors)).
		Msg("pipeline completed")

	return result, nil
}

// runStreaks detects runs per entity in parallel. Entities share nothing, so
// each partition runs in its own goroutine; the merge is sorted afterwards so
// output order never depends on scheduling.
func (o *Orchestrator) runStreaks(ctx context.Context, job config.JobSpec, events []*domain.Event) (int, error) {
	byEntity := make(map[string][]*domain.Event)
	entities := make([]string, 0)
	for _, e := range events {
		if _, ok := byEntity[e.EntityID]; !ok {
			entities = append(entities, e.EntityID)
		}
		byEntity[e.EntityID] = append(byEntity[e.EntityID], e)
	}

	cfg := streaks.Config{
		Domain: job.Schema.CategoryDomain,
		Allow:  job.Streaks.Allow,
	}

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		firstErr error
		all      []*domain.Run
	)
	sem := make(chan struct{}, o.maxEntityRoutines)

	for _, entityID := range entities {
		wg.Add(1)
		sem <- struct{}{}
		go func(partition []*domain.Event) {
			defer wg.Done()
			defer func() { <-sem }()

			runs, err := streaks.Detect(partition, cfg)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			all = append(all, runs...)
		}(byEntity[entityID])
	}
	wg.Wait()

	if firstErr != nil {
		return 0, firstErr
	}
	sort.Slice(all, func(a, b int) bool {
		if all[a].EntityID != all[b].EntityID {
			return all[a].EntityID < all[b].EntityID
		}
		if all[a].StartMs != all[b].StartMs {
			return all[a].StartMs < all[b].StartMs
		}
		return all[a].Category < all[b].Category
	})

	if len(all) == 0 {
		return 0, nil
	}
	if err := o.runStore.InsertBulk(ctx, all); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			o.logger.Debug().Str("job", job.Name).Msg("runs already stored, skipping")
			return 0, nil
		}
		return 0, storeError{fmt.Errorf("insert runs: %w", err)}
	}
	observability.DefaultMetrics.RunsDetected.Add(float64(len(all)))
	return len(all), nil
}

// runTemporal collapses events into one value per period and normalizes the
// series against its peak.
func (o *Orchestrator) runTemporal(ctx context.Context, job config.JobSpec, events []*domain.Event) (int, error) {
	agg, err := parseAgg(job.Temporal.Agg)
	if err != nil {
		return 0, err
	}

	series := temporal.BuildSeries(events, job.Temporal.PeriodLayout, agg)

	cfg := temporal.Config{
		SeriesID:  job.Schema.SeriesID,
		Lag:       job.Temporal.Lag,
		Precision: job.Temporal.Precision,
	}
	if job.Temporal.PeakToDate {
		cfg.PeakMode = temporal.PeakToDate
	}
	if len(job.Temporal.Eras) > 0 {
		rules := make([]temporal.Rule, 0, len(job.Temporal.Eras))
		for _, era := range job.Temporal.Eras {
			rules = append(rules, temporal.Rule{Label: era.Label, From: era.From, Until: era.Until})
		}
		cfg.Classifier = temporal.NewClassifier(rules)
	}

	points, err := temporal.Normalize(series, cfg)
	if err != nil {
		return 0, err
	}

	if len(points) == 0 {
		return 0, nil
	}
	if err := o.temporalStore.InsertBulk(ctx, points); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			o.logger.Debug().Str("job", job.Name).Msg("points already stored, skipping")
			return 0, nil
		}
		return 0, storeError{fmt.Errorf("insert temporal points: %w", err)}
	}
	observability.DefaultMetrics.PointsNormalized.Add(float64(len(points)))
	return len(points), nil
}

// runMatchup canonicalizes pairs and accumulates head-to-head counts.
func (o *Orchestrator) runMatchup(ctx context.Context, job config.JobSpec, events []*domain.Event) (int, error) {
	aggs, err := matchup.Aggregate(events, matchup.Config{
		SeriesID:        job.Schema.SeriesID,
		MinTotal:        job.Matchup.MinTotal,
		DominanceFactor: job.Matchup.DominanceFactor,
		FoldCase:        job.Matchup.FoldCase,
		Allow:           job.Matchup.Allow,
	})
	if err != nil {
		return 0, err
	}

	if len(aggs) == 0 {
		return 0, nil
	}
	if err := o.matchupStore.InsertBulk(ctx, aggs); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			o.logger.Debug().Str("job", job.Name).Msg("aggregates already stored, skipping")
			return 0, nil
		}
		return 0, storeError{fmt.Errorf("insert matchup aggregates: %w", err)}
	}
	observability.DefaultMetrics.MatchupsAggregated.Add(float64(len(aggs)))
	return len(aggs), nil
}

func parseAgg(name string) (temporal.Agg, error) {
	switch name {
	case "", "count":
		return temporal.AggCount, nil
	case "sum":
		return temporal.AggSum, nil
	case "mean":
		return temporal.AggMean, nil
	default:
		return 0, fmt.Errorf("unknown aggregation %q", name)
	}
}

// storeError marks failures of the persistence layer, which abort the run
// instead of being collected per job.
type storeError struct{ err error }

func (e storeError) Error() string { return e.err.Error() }
func (e storeError) Unwrap() error { return e.err }

func isStoreError(err error) bool {
	var se storeError
	return errors.As(err, &se)
}
