// Package temporal computes peak-relative percentages and period-over-period
// deltas over uniquely-keyed ordered series (monthly question counts, daily
// observations), with safe-divide semantics throughout.
package temporal

import (
	"sort"

	"event-analytics-lab/internal/domain"
	"event-analytics-lab/internal/normalize"
)

// Point is one raw (period, value) observation of a series.
type Point struct {
	Period string
	Value  float64
}

// PeakMode selects the reference peak for pct_of_peak.
type PeakMode int

const (
	// PeakGlobal normalizes against the maximum over the full series.
	PeakGlobal PeakMode = iota
	// PeakToDate normalizes against the running maximum seen so far.
	PeakToDate
)

// Config carries the caller-supplied parameters for series normalization.
type Config struct {
	SeriesID string

	// Lag is the fixed number of periods for period-over-period change,
	// measured by position in the sorted series, not calendar arithmetic:
	// a gap in the series shifts which prior value is compared.
	// 12 gives year-over-year on monthly data; 0 disables the delta.
	Lag int

	// Precision is the decimal precision for all emitted percentages
	// (1 for rates and changes, 2 for generic ratios).
	Precision int

	PeakMode PeakMode

	// Classifier optionally labels each period; nil leaves labels empty.
	Classifier *Classifier
}

// Normalize computes pct_of_peak and period-over-period change for a series.
//
// Periods must be unique; a duplicate fails the batch with a
// *normalize.ValidationError. The input may arrive in any order and is sorted
// by period ascending. Ratios with a zero denominator come back nil, never an
// error or infinity.
func Normalize(series []Point, cfg Config) ([]*domain.TemporalPoint, error) {
	if len(series) == 0 {
		return nil, nil
	}

	ordered := make([]Point, len(series))
	copy(ordered, series)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Period < ordered[j].Period })

	seen := make(map[string]struct{}, len(ordered))
	for i, p := range ordered {
		if p.Period == "" {
			return nil, &normalize.ValidationError{RecordIndex: i, Field: "period", Reason: "missing or empty"}
		}
		if _, dup := seen[p.Period]; dup {
			return nil, &normalize.ValidationError{RecordIndex: i, Field: "period", Reason: "duplicate period: " + p.Period}
		}
		seen[p.Period] = struct{}{}
	}

	globalPeak := 0.0
	for i, p := range ordered {
		if i == 0 || p.Value > globalPeak {
			globalPeak = p.Value
		}
	}

	points := make([]*domain.TemporalPoint, len(ordered))
	runningPeak := 0.0
	for i, p := range ordered {
		if i == 0 || p.Value > runningPeak {
			runningPeak = p.Value
		}

		peak := globalPeak
		if cfg.PeakMode == PeakToDate {
			peak = runningPeak
		}

		point := &domain.TemporalPoint{
			SeriesID:  cfg.SeriesID,
			Period:    p.Period,
			Value:     p.Value,
			Peak:      peak,
			PctOfPeak: SafePct(p.Value, peak, cfg.Precision),
			Label:     cfg.Classifier.Label(p.Period),
		}

		if cfg.Lag > 0 && i >= cfg.Lag {
			prior := ordered[i-cfg.Lag].Value
			point.PeriodOverPeriodPct = SafePct(p.Value-prior, prior, cfg.Precision)
		}

		points[i] = point
	}

	return points, nil
}
