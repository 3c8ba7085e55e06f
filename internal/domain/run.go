package domain

// Run is a maximal contiguous subsequence of events for one entity sharing
// the same category. Computed fresh per query by the streaks detector and
// never mutated afterwards. Corresponds to runs table in the warehouse.
type Run struct {
	SeriesID string // reporting series identifier
	EntityID string // subject the run belongs to
	Category string // constant category across the run
	Length   int    // number of events in the run, >= 1
	StartMs  int64  // OccurredAt of the first event in the run
	EndMs    int64  // OccurredAt of the last event in the run
}
