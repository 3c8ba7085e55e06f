package normalize

import "fmt"

// ValidationError describes a malformed input record: a missing required
// field, a category outside the declared domain, or a degenerate participant
// pair. It identifies the offending record and field so that the upstream
// data contract violation can be located. A ValidationError aborts the
// enclosing batch; it is never retried internally.
type ValidationError struct {
	RecordIndex int    // position of the record in the input batch
	Field       string // canonical field name that failed validation
	Reason      string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("record %d: field %q: %s", e.RecordIndex, e.Field, e.Reason)
}
