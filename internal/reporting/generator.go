package reporting

import (
	"context"
	"sort"
	"time"

	"event-analytics-lab/internal/matchup"
	"event-analytics-lab/internal/observability"
	"event-analytics-lab/internal/storage"
	"event-analytics-lab/internal/streaks"
)

// Generator produces reports from stored derived tables.
type Generator struct {
	runStore        storage.RunStore
	temporalStore   storage.TemporalPointStore
	matchupStore    storage.MatchupAggregateStore
	minRunLength    int
	dominanceFactor float64
	now             func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(
	runStore storage.RunStore,
	temporalStore storage.TemporalPointStore,
	matchupStore storage.MatchupAggregateStore,
) *Generator {
	return &Generator{
		runStore:        runStore,
		temporalStore:   temporalStore,
		matchupStore:    matchupStore,
		minRunLength:    3,
		dominanceFactor: matchup.DefaultDominanceFactor,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// WithThresholds sets the run-length threshold for the RunsAtLeast column and
// the dominance factor for matchup classification.
func (g *Generator) WithThresholds(minRunLength int, dominanceFactor float64) *Generator {
	if minRunLength > 0 {
		g.minRunLength = minRunLength
	}
	if dominanceFactor > 0 {
		g.dominanceFactor = dominanceFactor
	}
	return g
}

// Generate produces a complete report for one series.
func (g *Generator) Generate(ctx context.Context, seriesID string) (*Report, error) {
	runSummary, err := g.generateRunSummary(ctx, seriesID)
	if err != nil {
		return nil, err
	}

	temporalRows, err := g.generateTemporalRows(ctx, seriesID)
	if err != nil {
		return nil, err
	}

	matchupRows, err := g.generateMatchupRows(ctx, seriesID)
	if err != nil {
		return nil, err
	}

	observability.RecordReportGenerated()

	return &Report{
		GeneratedAt:    g.now(),
		SeriesID:       seriesID,
		RunSummary:     runSummary,
		MinRunLength:   g.minRunLength,
		TemporalPoints: temporalRows,
		Matchups:       matchupRows,
	}, nil
}

// generateRunSummary collapses stored runs into one row per (entity, category).
func (g *Generator) generateRunSummary(ctx context.Context, seriesID string) ([]RunSummaryRow, error) {
	runs, err := g.runStore.GetBySeries(ctx, seriesID)
	if err != nil {
		return nil, err
	}

	type pair struct {
		entityID string
		category string
	}
	counts := make(map[pair]int)
	order := make([]pair, 0)
	for _, r := range runs {
		p := pair{entityID: r.EntityID, category: r.Category}
		if _, seen := counts[p]; !seen {
			order = append(order, p)
		}
		counts[p]++
	}

	rows := make([]RunSummaryRow, 0, len(order))
	for _, p := range order {
		atLeast := streaks.CountRunsAtLeast(runs, p.category, g.minRunLength)
		rows = append(rows, RunSummaryRow{
			EntityID:    p.entityID,
			Category:    p.category,
			Longest:     streaks.LongestRun(runs, p.entityID, p.category),
			Runs:        counts[p],
			RunsAtLeast: atLeast[p.entityID],
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].EntityID != rows[j].EntityID {
			return rows[i].EntityID < rows[j].EntityID
		}
		return rows[i].Category < rows[j].Category
	})
	return rows, nil
}

// generateTemporalRows copies stored points in period order.
func (g *Generator) generateTemporalRows(ctx context.Context, seriesID string) ([]TemporalRow, error) {
	points, err := g.temporalStore.GetBySeries(ctx, seriesID)
	if err != nil {
		return nil, err
	}

	rows := make([]TemporalRow, len(points))
	for i, p := range points {
		rows[i] = TemporalRow{
			Period:              p.Period,
			Value:               p.Value,
			Peak:                p.Peak,
			PctOfPeak:           p.PctOfPeak,
			PeriodOverPeriodPct: p.PeriodOverPeriodPct,
			Label:               p.Label,
		}
	}
	return rows, nil
}

// generateMatchupRows classifies each stored aggregate's dominance.
func (g *Generator) generateMatchupRows(ctx context.Context, seriesID string) ([]MatchupRow, error) {
	aggs, err := g.matchupStore.GetBySeries(ctx, seriesID)
	if err != nil {
		return nil, err
	}

	rows := make([]MatchupRow, len(aggs))
	for i, agg := range aggs {
		rows[i] = MatchupRow{
			First:      agg.Key.First,
			Second:     agg.Key.Second,
			FirstWins:  agg.FirstWins,
			SecondWins: agg.SecondWins,
			Draws:      agg.Draws,
			Total:      agg.Total,
			Dominance:  matchup.Dominance(agg.FirstWins, agg.SecondWins, g.dominanceFactor),
		}
	}
	return rows, nil
}
