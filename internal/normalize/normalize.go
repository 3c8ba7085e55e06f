// Package normalize shapes heterogeneous source records into the uniform
// event type consumed by the streaks, temporal, and matchup components.
package normalize

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"event-analytics-lab/internal/domain"
)

// dateLayouts are the timestamp formats accepted by default for string
// occurred_at values, tried in order.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006-01",
}

// Normalize validates and shapes raw records into events.
//
// It is a pure transform: no I/O, no retries. A record missing entity_id or
// occurred_at, or whose category is outside the declared domain, fails the
// whole batch with a *ValidationError. Numeric coercion failures on the value
// field are not errors; the value becomes nil (safe-cast semantics).
//
// Output is grouped by entity, each group sorted by OccurredAt ascending with
// ties resolved by original input position.
func Normalize(records []domain.RawRecord, schema Schema) ([]*domain.Event, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}

	categories := schema.categorySet()
	events := make([]*domain.Event, 0, len(records))

	for i, rec := range records {
		entity, ok := coerceString(rec[schema.EntityField])
		if !ok || entity == "" {
			return nil, &ValidationError{RecordIndex: i, Field: "entity_id", Reason: "missing or empty"}
		}
		if schema.FoldEntityCase {
			entity = strings.ToLower(entity)
		}

		occurredAt, ok := coerceTimestamp(rec[schema.OccurredAtField], schema.layouts())
		if !ok {
			return nil, &ValidationError{RecordIndex: i, Field: "occurred_at", Reason: "missing or not a timestamp"}
		}

		ev := &domain.Event{
			SeriesID:   schema.SeriesID,
			EntityID:   entity,
			OccurredAt: occurredAt,
			Seq:        i,
		}

		if schema.CategoryField != "" {
			category, ok := coerceString(rec[schema.CategoryField])
			if !ok || category == "" {
				return nil, &ValidationError{RecordIndex: i, Field: "category", Reason: "missing or empty"}
			}
			if categories != nil {
				if _, legal := categories[category]; !legal {
					return nil, &ValidationError{RecordIndex: i, Field: "category", Reason: "outside declared domain: " + category}
				}
			}
			ev.Category = category
		}

		if schema.ValueField != "" {
			// Safe cast: a non-numeric value is nil, never a hard failure.
			if v, ok := coerceFloat(rec[schema.ValueField]); ok {
				ev.Value = &v
			}
		}

		if schema.FirstField != "" {
			first, _ := coerceString(rec[schema.FirstField])
			second, _ := coerceString(rec[schema.SecondField])
			if schema.FoldEntityCase {
				first = strings.ToLower(first)
				second = strings.ToLower(second)
			}
			ev.First = first
			ev.Second = second
		}

		events = append(events, ev)
	}

	SortEvents(events)
	return events, nil
}

func (s Schema) layouts() []string {
	if len(s.TimeLayouts) > 0 {
		return s.TimeLayouts
	}
	return dateLayouts
}

// coerceString accepts string values only; other types are not identifiers.
func coerceString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

// coerceTimestamp accepts unix milliseconds as any numeric type, or a string
// in one of the accepted layouts (converted to unix milliseconds, UTC).
func coerceTimestamp(v any, layouts []string) (int64, bool) {
	switch t := v.(type) {
	case int64:
		return t, true
	case int:
		return int64(t), true
	case float64:
		return int64(t), true
	case json.Number:
		ms, err := t.Int64()
		return ms, err == nil
	case time.Time:
		return t.UnixMilli(), true
	case string:
		for _, layout := range layouts {
			if parsed, err := time.ParseInLocation(layout, t, time.UTC); err == nil {
				return parsed.UnixMilli(), true
			}
		}
		return 0, false
	default:
		return 0, false
	}
}

// coerceFloat mirrors warehouse TRY_CAST semantics for numeric measures.
func coerceFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
