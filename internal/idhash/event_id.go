// Package idhash computes deterministic identifiers for warehouse rows.
package idhash

import (
	"crypto/sha256"
	"fmt"

	"github.com/mr-tron/base58"
)

// ComputeEventID computes a deterministic event identifier.
// Formula: base58(SHA256(series_id|entity_id|occurred_at|seq)).
// The same logical event always hashes to the same id, so re-ingesting a
// batch is a duplicate-key error rather than a silent double count.
func ComputeEventID(seriesID, entityID string, occurredAt int64, seq int) string {
	data := fmt.Sprintf("%s|%s|%d|%d", seriesID, entityID, occurredAt, seq)
	hash := sha256.Sum256([]byte(data))
	return base58.Encode(hash[:])
}

// ComputeRunID computes a deterministic run identifier.
// Formula: base58(SHA256(series_id|entity_id|category|start_ms)).
func ComputeRunID(seriesID, entityID, category string, startMs int64) string {
	data := fmt.Sprintf("%s|%s|%s|%d", seriesID, entityID, category, startMs)
	hash := sha256.Sum256([]byte(data))
	return base58.Encode(hash[:])
}
