package domain

import (
	"errors"
	"strings"
)

// ErrSelfPair is returned when both participants of a matchup resolve to the
// same identifier after case normalization. Degenerate input per data contract.
var ErrSelfPair = errors.New("matchup participants are equal")

// MatchupKey is the canonical unordered pair of participants.
// First < Second under lexicographic order, so (a,b) and (b,a) always
// canonicalize to the same key.
type MatchupKey struct {
	First  string
	Second string
}

// NewMatchupKey canonicalizes a participant pair. When foldCase is set,
// identifiers are lower-cased before comparison (the policy used for
// usernames). swapped reports whether the input order was reversed, so the
// caller can re-attribute slot-relative outcomes.
func NewMatchupKey(a, b string, foldCase bool) (key MatchupKey, swapped bool, err error) {
	if foldCase {
		a = strings.ToLower(a)
		b = strings.ToLower(b)
	}
	if a == b {
		return MatchupKey{}, false, ErrSelfPair
	}
	if a < b {
		return MatchupKey{First: a, Second: b}, false, nil
	}
	return MatchupKey{First: b, Second: a}, true, nil
}

// Less orders keys lexicographically by (First, Second). Used for
// deterministic tie-breaking in aggregate output.
func (k MatchupKey) Less(other MatchupKey) bool {
	if k.First != other.First {
		return k.First < other.First
	}
	return k.Second < other.Second
}

// MatchupAggregate holds accumulated outcome counts for one canonical pair.
// Invariant: Total = FirstWins + SecondWins + Draws, Total >= 1.
// Corresponds to matchup_aggregates table in the warehouse.
type MatchupAggregate struct {
	SeriesID   string
	Key        MatchupKey
	FirstWins  int // wins attributed to the canonical first slot
	SecondWins int // wins attributed to the canonical second slot
	Draws      int
	Total      int
}
