// Package duckdb provides an embedded analytical store for the derived
// tables. It serves single-node deployments where running ClickHouse is
// not worth the operational cost.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2"
)

// DB wraps database/sql for dependency injection.
type DB struct {
	*sql.DB
}

// Open opens a DuckDB database at the given path and verifies the
// connection. An empty path opens an in-memory database.
func Open(ctx context.Context, path string) (*DB, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping duckdb: %w", err)
	}

	return &DB{DB: db}, nil
}

// Close closes the database.
func (d *DB) Close() error {
	return d.DB.Close()
}

// CreateTables creates the derived tables if they don't exist.
// Should be called once during initialization.
func (d *DB) CreateTables(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			series_id TEXT NOT NULL,
			entity_id TEXT NOT NULL,
			category TEXT NOT NULL,
			length INTEGER NOT NULL,
			start_ms BIGINT NOT NULL,
			end_ms BIGINT NOT NULL,
			PRIMARY KEY (series_id, entity_id, category, start_ms)
		);

		CREATE TABLE IF NOT EXISTS temporal_points (
			series_id TEXT NOT NULL,
			period TEXT NOT NULL,
			value DOUBLE NOT NULL,
			peak DOUBLE NOT NULL,
			pct_of_peak DOUBLE,
			period_over_period_pct DOUBLE,
			label TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (series_id, period)
		);

		CREATE TABLE IF NOT EXISTS matchup_aggregates (
			series_id TEXT NOT NULL,
			first TEXT NOT NULL,
			second TEXT NOT NULL,
			first_wins INTEGER NOT NULL,
			second_wins INTEGER NOT NULL,
			draws INTEGER NOT NULL,
			total INTEGER NOT NULL,
			PRIMARY KEY (series_id, first, second)
		);
	`

	// Split and execute each statement
	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := d.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("execute schema statement: %w", err)
		}
	}

	return nil
}

// isDuplicateKeyError checks if error indicates a primary key violation.
func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	// The duckdb driver surfaces constraint violations as plain errors.
	msg := err.Error()
	return strings.Contains(msg, "Constraint Error") ||
		strings.Contains(msg, "PRIMARY KEY or UNIQUE constraint")
}
