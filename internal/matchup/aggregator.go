// Package matchup canonicalizes unordered participant pairs and accumulates
// head-to-head outcome counts per pair.
package matchup

import (
	"sort"

	"event-analytics-lab/internal/domain"
	"event-analytics-lab/internal/normalize"
)

// Config carries the caller-supplied parameters for pairwise aggregation.
// The source pipelines disagree on minimum-sample thresholds (2, 3, 5, 30)
// for structurally identical calculations, so the threshold is always the
// caller's choice here.
type Config struct {
	SeriesID string

	// MinTotal filters output to pairs with Total >= MinTotal (inclusive).
	// Zero keeps every pair.
	MinTotal int

	// DominanceFactor is the multiplicative win-count gap that separates a
	// dominated pair from a close rivalry. DefaultDominanceFactor when zero.
	DominanceFactor float64

	// FoldCase lower-cases participant identifiers before comparison,
	// the policy used for usernames.
	FoldCase bool

	// Allow restricts aggregation to pairs involving at least one listed
	// entity (the tracked-player whitelist of the source reports, lifted to
	// configuration). Empty means all pairs. Matching follows FoldCase.
	Allow []string
}

// Aggregate canonicalizes each matchup event's pair and accumulates win/draw
// counts attributing outcomes to the canonical first and second slots. Which
// slot a participant arrived in ("white"/"black", "home"/"away") is discarded
// once canonicalized.
//
// Events must carry both participants and a slot-relative outcome category
// (first_win, second_win, draw); anything else fails the batch with a
// *normalize.ValidationError, as does a pair that collapses to a self-pair
// under case normalization.
//
// Output is filtered to Total >= MinTotal and ordered by Total descending,
// ties broken by key lexicographic order for determinism.
func Aggregate(events []*domain.Event, cfg Config) ([]*domain.MatchupAggregate, error) {
	allow := allowSet(cfg)

	accum := make(map[domain.MatchupKey]*domain.MatchupAggregate)

	for i, e := range events {
		if e.First == "" || e.Second == "" {
			return nil, &normalize.ValidationError{RecordIndex: i, Field: "participants", Reason: "both participant slots are required"}
		}

		key, swapped, err := domain.NewMatchupKey(e.First, e.Second, cfg.FoldCase)
		if err != nil {
			return nil, &normalize.ValidationError{RecordIndex: i, Field: "participants", Reason: err.Error()}
		}

		if allow != nil {
			if _, first := allow[key.First]; !first {
				if _, second := allow[key.Second]; !second {
					continue
				}
			}
		}

		agg, ok := accum[key]
		if !ok {
			agg = &domain.MatchupAggregate{SeriesID: cfg.SeriesID, Key: key}
			accum[key] = agg
		}

		switch e.Category {
		case domain.CategoryFirstWin:
			if swapped {
				agg.SecondWins++
			} else {
				agg.FirstWins++
			}
		case domain.CategorySecondWin:
			if swapped {
				agg.FirstWins++
			} else {
				agg.SecondWins++
			}
		case domain.CategoryDraw:
			agg.Draws++
		default:
			return nil, &normalize.ValidationError{RecordIndex: i, Field: "category", Reason: "not a matchup outcome: " + e.Category}
		}
		agg.Total++
	}

	result := make([]*domain.MatchupAggregate, 0, len(accum))
	for _, agg := range accum {
		if agg.Total >= cfg.MinTotal {
			result = append(result, agg)
		}
	}
	sort.Slice(result, func(a, b int) bool {
		if result[a].Total != result[b].Total {
			return result[a].Total > result[b].Total
		}
		return result[a].Key.Less(result[b].Key)
	})
	return result, nil
}

func allowSet(cfg Config) map[string]struct{} {
	if len(cfg.Allow) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(cfg.Allow))
	for _, entity := range cfg.Allow {
		if cfg.FoldCase {
			entity = fold(entity)
		}
		set[entity] = struct{}{}
	}
	return set
}
