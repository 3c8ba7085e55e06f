package reporting

import "time"

// Report is the rendered view of one series' derived tables.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	SeriesID    string

	// Streak summary (sorted by entity_id, category)
	RunSummary []RunSummaryRow

	// MinRunLength is the threshold behind the RunsAtLeast column.
	MinRunLength int

	// Peak-normalized series (sorted by period)
	TemporalPoints []TemporalRow

	// Head-to-head aggregates (sorted by total descending)
	Matchups []MatchupRow
}

// RunSummaryRow summarizes one entity's runs of one category.
type RunSummaryRow struct {
	EntityID    string
	Category    string
	Longest     int // longest run length
	Runs        int // total maximal runs
	RunsAtLeast int // runs with length >= MinRunLength
}

// TemporalRow is one period of the normalized series.
type TemporalRow struct {
	Period              string
	Value               float64
	Peak                float64
	PctOfPeak           *float64 // nil when the peak is zero
	PeriodOverPeriodPct *float64 // nil when undefined
	Label               string
}

// MatchupRow is one canonical pair with its dominance classification.
type MatchupRow struct {
	First      string
	Second     string
	FirstWins  int
	SecondWins int
	Draws      int
	Total      int
	Dominance  string
}
