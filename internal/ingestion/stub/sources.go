// Package stub provides in-memory record sources for tests and local runs.
package stub

import (
	"context"

	"event-analytics-lab/internal/domain"
)

// RecordSource returns fixed in-memory records.
// Records can be intentionally unordered to test normalization ordering.
// Implements ingestion.RecordSource.
type RecordSource struct {
	seriesID string
	records  []domain.RawRecord
	tsField  string
}

// NewRecordSource creates a stub source serving the given records for one
// series. tsField names the record field holding the unix-ms timestamp used
// for range filtering.
func NewRecordSource(seriesID, tsField string, records []domain.RawRecord) *RecordSource {
	return &RecordSource{seriesID: seriesID, records: records, tsField: tsField}
}

// Fetch returns records within the time range [from, to].
// Returns copies to prevent mutation.
func (s *RecordSource) Fetch(_ context.Context, seriesID string, from, to int64) ([]domain.RawRecord, error) {
	if seriesID != s.seriesID {
		return nil, nil
	}

	var result []domain.RawRecord
	for _, rec := range s.records {
		ts, ok := timestampOf(rec, s.tsField)
		if ok && (ts < from || ts > to) {
			continue
		}
		cp := make(domain.RawRecord, len(rec))
		for k, v := range rec {
			cp[k] = v
		}
		result = append(result, cp)
	}
	return result, nil
}

// StreamSource replays fixed records over a channel.
// Implements ingestion.StreamSource.
type StreamSource struct {
	seriesID string
	records  []domain.RawRecord
}

// NewStreamSource creates a stub stream source.
func NewStreamSource(seriesID string, records []domain.RawRecord) *StreamSource {
	return &StreamSource{seriesID: seriesID, records: records}
}

// Subscribe sends all records and closes the channel.
func (s *StreamSource) Subscribe(ctx context.Context, seriesID string) (<-chan domain.RawRecord, error) {
	ch := make(chan domain.RawRecord, len(s.records))

	go func() {
		defer close(ch)
		if seriesID != s.seriesID {
			return
		}
		for _, rec := range s.records {
			select {
			case ch <- rec:
			case <-ctx.Done():
				return
			}
		}
	}()

	return ch, nil
}

// timestampOf extracts an int64 timestamp from a record field.
func timestampOf(rec domain.RawRecord, field string) (int64, bool) {
	switch v := rec[field].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}
