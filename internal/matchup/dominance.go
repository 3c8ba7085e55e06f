package matchup

import "strings"

// DefaultDominanceFactor is the multiplicative win-count gap used when the
// caller does not supply one.
const DefaultDominanceFactor = 1.5

// Dominance labels for a finished aggregate.
const (
	DominanceFirst  = "first dominates"
	DominanceSecond = "second dominates"
	DominanceClose  = "close rivalry"
)

// Dominance classifies a pair: one side dominates when its win count exceeds
// the other's by more than factor times; otherwise the pair is a close
// rivalry. Pure function over the final aggregate, independent of
// accumulation.
func Dominance(firstWins, secondWins int, factor float64) string {
	if factor <= 0 {
		factor = DefaultDominanceFactor
	}
	switch {
	case float64(firstWins) > factor*float64(secondWins) && firstWins > 0:
		return DominanceFirst
	case float64(secondWins) > factor*float64(firstWins) && secondWins > 0:
		return DominanceSecond
	default:
		return DominanceClose
	}
}

func fold(s string) string {
	return strings.ToLower(s)
}
