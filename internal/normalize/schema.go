package normalize

import "fmt"

// Schema describes how raw source records map onto domain.Event fields and
// which values are legal. One Schema per source table; the engine itself
// carries no schema registry (schema-on-read only).
type Schema struct {
	SeriesID string // stamped onto every produced event

	// Field mapping: raw record key per canonical field.
	// EntityField and OccurredAtField are required; the rest are optional.
	EntityField     string
	OccurredAtField string
	CategoryField   string
	ValueField      string
	FirstField      string
	SecondField     string

	// CategoryDomain is the declared set of legal categories. A record whose
	// category falls outside it is rejected. Empty means any category.
	CategoryDomain []string

	// TimeLayouts are tried in order when OccurredAt is a string.
	// Defaults to dateLayouts when empty.
	TimeLayouts []string

	// FoldEntityCase lower-cases entity and participant identifiers,
	// the comparison policy used for usernames.
	FoldEntityCase bool
}

// Validate checks that the schema itself is usable before any record is read.
func (s Schema) Validate() error {
	if s.SeriesID == "" {
		return fmt.Errorf("schema: series id is required")
	}
	if s.EntityField == "" {
		return fmt.Errorf("schema: entity field is required")
	}
	if s.OccurredAtField == "" {
		return fmt.Errorf("schema: occurred_at field is required")
	}
	return nil
}

// categorySet returns the domain as a lookup set, or nil when unbounded.
func (s Schema) categorySet() map[string]struct{} {
	if len(s.CategoryDomain) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(s.CategoryDomain))
	for _, c := range s.CategoryDomain {
		set[c] = struct{}{}
	}
	return set
}
