package domain

// TemporalPoint is one row of a normalized monthly or daily series.
// Corresponds to temporal_points table in the warehouse.
//
// Period keys are ISO-formatted strings ("2023-01", "2026-02-14"), unique per
// series and totally ordered lexicographically.
type TemporalPoint struct {
	SeriesID            string   // reporting series identifier
	Period              string   // month or day key
	Value               float64  // observed value for the period
	Peak                float64  // reference peak (global or to-date, per config)
	PctOfPeak           *float64 // round(value/peak*100, precision), nil when peak is 0
	PeriodOverPeriodPct *float64 // change vs. the value lag positions earlier, nil when undefined
	Label               string   // era/label classification, "" when no rule matched
}
