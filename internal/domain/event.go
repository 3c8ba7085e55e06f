package domain

// RawRecord is one unvalidated record from an upstream source (API dump,
// staging table export, live feed frame). Field names are source-specific;
// a normalize.Schema maps them onto Event fields.
type RawRecord map[string]any

// Event is the normalized unit of input consumed by all analytical components.
// Corresponds to events table in PostgreSQL.
type Event struct {
	SeriesID   string   // reporting series identifier (e.g. "chess_blitz", "berlin_weather")
	EntityID   string   // subject being tracked: player username, tag name, or "global"
	OccurredAt int64    // Unix timestamp in milliseconds; ordering key within an entity
	Seq        int      // original input position; stable tie-break for equal OccurredAt
	Category   string   // bounded categorical outcome
	Value      *float64 // optional numeric measure, nil when absent or non-numeric
	First      string   // first participant slot for matchup events, "" otherwise
	Second     string   // second participant slot for matchup events, "" otherwise
}

// Outcome categories for game-result events.
const (
	CategoryWin  = "win"
	CategoryLoss = "loss"
	CategoryDraw = "draw"
)

// Sky categories for daily weather observations.
const (
	CategoryGloomy = "gloomy"
	CategoryClear  = "clear"
)

// Outcome categories for matchup events, relative to the (First, Second)
// participant order as listed on the input record.
const (
	CategoryFirstWin  = "first_win"
	CategorySecondWin = "second_win"
)

// IsMatchup reports whether the event carries a participant pair.
func (e *Event) IsMatchup() bool {
	return e.First != "" || e.Second != ""
}
