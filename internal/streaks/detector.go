// Package streaks partitions per-entity ordered event sequences into maximal
// runs of a constant category (consecutive wins, consecutive gloomy days).
package streaks

import (
	"sort"

	"event-analytics-lab/internal/domain"
	"event-analytics-lab/internal/normalize"
)

// Config carries the caller-supplied parameters for run detection.
// No process-wide state: every knob is passed in explicitly.
type Config struct {
	// Domain is the declared set of legal categories. An event whose category
	// falls outside it fails the batch. Empty means any category.
	Domain []string

	// Allow restricts detection to the listed entities. Empty means all.
	// Replaces the per-report hard-coded entity whitelists of the source
	// pipelines with a single parameter.
	Allow []string
}

// Detect scans each entity's ordered event sequence once and emits all
// maximal runs of constant category.
//
// Run identity follows the gaps-and-islands technique: within an entity,
// every event gets a running index i and, separately, a running index j
// within the subsequence sharing its category. The difference i-j is constant
// inside a maximal run and changes exactly at a category transition, so
// grouping by (entity, category, i-j) yields run length and boundaries.
//
// Detect is pure and idempotent. An empty input produces no runs. Output is
// one row per (entity, category, run), Length >= 1, sorted by
// (entity_id ASC, start ASC, category ASC).
func Detect(events []*domain.Event, cfg Config) ([]*domain.Run, error) {
	if len(events) == 0 {
		return nil, nil
	}

	categories := toSet(cfg.Domain)
	allow := toSet(cfg.Allow)

	// Work on a sorted copy: detection must not depend on input order,
	// and callers keep their slice untouched.
	ordered := make([]*domain.Event, len(events))
	copy(ordered, events)
	normalize.SortEvents(ordered)

	type runKey struct {
		entityID string
		category string
		runID    int
	}

	entityIdx := make(map[string]int)            // i: position within entity
	categoryIdx := make(map[[2]string]int)       // j: position within (entity, category)
	accum := make(map[runKey]*domain.Run)        // open and closed runs
	order := make([]runKey, 0, len(ordered)/2+1) // first-seen order for stable collection

	for _, e := range ordered {
		if categories != nil {
			if _, legal := categories[e.Category]; !legal {
				return nil, &normalize.ValidationError{
					RecordIndex: e.Seq,
					Field:       "category",
					Reason:      "outside declared domain: " + e.Category,
				}
			}
		}
		if allow != nil {
			if _, ok := allow[e.EntityID]; !ok {
				continue
			}
		}

		i := entityIdx[e.EntityID]
		entityIdx[e.EntityID] = i + 1

		ck := [2]string{e.EntityID, e.Category}
		j := categoryIdx[ck]
		categoryIdx[ck] = j + 1

		key := runKey{entityID: e.EntityID, category: e.Category, runID: i - j}
		run, ok := accum[key]
		if !ok {
			run = &domain.Run{
				SeriesID: e.SeriesID,
				EntityID: e.EntityID,
				Category: e.Category,
				StartMs:  e.OccurredAt,
				EndMs:    e.OccurredAt,
			}
			accum[key] = run
			order = append(order, key)
		}
		run.Length++
		run.EndMs = e.OccurredAt
	}

	runs := make([]*domain.Run, 0, len(order))
	for _, key := range order {
		runs = append(runs, accum[key])
	}
	sort.Slice(runs, func(a, b int) bool {
		if runs[a].EntityID != runs[b].EntityID {
			return runs[a].EntityID < runs[b].EntityID
		}
		if runs[a].StartMs != runs[b].StartMs {
			return runs[a].StartMs < runs[b].StartMs
		}
		return runs[a].Category < runs[b].Category
	})
	return runs, nil
}

// LongestRun returns the maximum run length for (entity, category), or 0 when
// the entity has no runs of that category. Answers "longest win streak".
func LongestRun(runs []*domain.Run, entityID, category string) int {
	longest := 0
	for _, r := range runs {
		if r.EntityID == entityID && r.Category == category && r.Length > longest {
			longest = r.Length
		}
	}
	return longest
}

// CountRunsAtLeast counts, per entity, the runs of the given category with
// Length >= n. Answers "hot streaks of 3+" and "tilt streaks of 3+".
func CountRunsAtLeast(runs []*domain.Run, category string, n int) map[string]int {
	counts := make(map[string]int)
	for _, r := range runs {
		if r.Category == category && r.Length >= n {
			counts[r.EntityID]++
		}
	}
	return counts
}

func toSet(values []string) map[string]struct{} {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
