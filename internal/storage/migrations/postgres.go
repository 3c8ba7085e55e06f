package migrations

import (
	"context"
	"fmt"
	"io/fs"
	"strings"

	"event-analytics-lab/internal/storage/postgres"
)

// RunPostgresMigrations creates the staging schema (the events table and
// its indexes). Postgres executes a whole file as one multi-statement
// exec, so no statement splitting is needed here.
func RunPostgresMigrations(ctx context.Context, pool *postgres.Pool) error {
	files, err := sqlFiles(postgresFS, "postgres")
	if err != nil {
		return err
	}

	for _, file := range files {
		data, err := fs.ReadFile(postgresFS, "postgres/"+file)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", file, err)
		}
		if strings.TrimSpace(string(data)) == "" {
			continue
		}
		if _, err := pool.Exec(ctx, string(data)); err != nil {
			return fmt.Errorf("apply migration %s: %w", file, err)
		}
	}

	return nil
}
