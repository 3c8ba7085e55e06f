package normalize

import (
	"sort"

	"event-analytics-lab/internal/domain"
)

// SortEvents orders events by (entity_id ASC, occurred_at ASC, seq ASC).
// Seq carries the original input position, so equal timestamps keep their
// input order (stable total order per entity).
func SortEvents(events []*domain.Event) {
	sort.Slice(events, func(i, j int) bool {
		return compareEvents(events[i], events[j]) < 0
	})
}

// compareEvents returns:
//   - negative if a < b
//   - zero if a == b
//   - positive if a > b
func compareEvents(a, b *domain.Event) int {
	if a.EntityID != b.EntityID {
		if a.EntityID < b.EntityID {
			return -1
		}
		return 1
	}
	if a.OccurredAt != b.OccurredAt {
		if a.OccurredAt < b.OccurredAt {
			return -1
		}
		return 1
	}
	if a.Seq != b.Seq {
		if a.Seq < b.Seq {
			return -1
		}
		return 1
	}
	return 0
}
