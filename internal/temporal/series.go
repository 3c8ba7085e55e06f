package temporal

import (
	"sort"
	"time"

	"event-analytics-lab/internal/domain"
)

// Agg selects how event values collapse into one value per period.
type Agg int

const (
	// AggCount counts events per period, ignoring values.
	AggCount Agg = iota
	// AggSum sums event values per period; nil values contribute nothing.
	AggSum
	// AggMean averages non-nil event values per period.
	AggMean
)

// BuildSeries buckets events into periods and aggregates one value per
// period, producing the raw series Normalize consumes. periodLayout is a Go
// time layout applied in UTC ("2006-01" for monthly, "2006-01-02" for daily).
func BuildSeries(events []*domain.Event, periodLayout string, agg Agg) []Point {
	if len(events) == 0 {
		return nil
	}

	sums := make(map[string]float64)
	counts := make(map[string]float64)
	valued := make(map[string]float64) // events with a non-nil value, for AggMean

	for _, e := range events {
		period := time.UnixMilli(e.OccurredAt).UTC().Format(periodLayout)
		counts[period]++
		if e.Value != nil {
			sums[period] += *e.Value
			valued[period]++
		}
	}

	periods := make([]string, 0, len(counts))
	for p := range counts {
		periods = append(periods, p)
	}
	sort.Strings(periods)

	series := make([]Point, 0, len(periods))
	for _, p := range periods {
		var v float64
		switch agg {
		case AggSum:
			v = sums[p]
		case AggMean:
			if valued[p] == 0 {
				continue // no measurable values in this period
			}
			v = sums[p] / valued[p]
		default:
			v = counts[p]
		}
		series = append(series, Point{Period: p, Value: v})
	}
	return series
}
