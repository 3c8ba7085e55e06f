// Package config loads the YAML configuration driving ingestion, analysis
// jobs, and reporting.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"event-analytics-lab/internal/normalize"
)

// Job kinds.
const (
	JobKindStreaks = "streaks"
	JobKindTempo   = "temporal"
	JobKindMatchup = "matchup"
)

// Config represents the application configuration.
type Config struct {
	Storage StorageConfig `yaml:"storage"`
	Ingest  IngestConfig  `yaml:"ingest"`
	Metrics MetricsConfig `yaml:"metrics"`
	Report  ReportConfig  `yaml:"report"`
	Jobs    []JobSpec     `yaml:"jobs"`
}

// StorageConfig selects the storage backend and its connection strings.
type StorageConfig struct {
	// Backend is one of "memory", "warehouse" (postgres + clickhouse),
	// or "duckdb" (embedded, single node).
	Backend       string `yaml:"backend"`
	PostgresDSN   string `yaml:"postgres_dsn"`
	ClickhouseDSN string `yaml:"clickhouse_dsn"`
	DuckDBPath    string `yaml:"duckdb_path"`
}

// IngestConfig holds record feed configuration.
type IngestConfig struct {
	Endpoint      string        `yaml:"endpoint"` // WebSocket URL of the record feed
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
}

// MetricsConfig holds the Prometheus exposition endpoint configuration.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// ReportConfig holds report output configuration.
type ReportConfig struct {
	OutputDir string   `yaml:"output_dir"`
	Formats   []string `yaml:"formats"` // markdown, csv
}

// JobSpec describes one analysis job over one series.
type JobSpec struct {
	Name     string       `yaml:"name"`
	Kind     string       `yaml:"kind"`     // streaks, temporal, matchup
	Schedule string       `yaml:"schedule"` // cron expression, empty means manual
	Schema   SchemaConfig `yaml:"schema"`

	Streaks  StreaksParams  `yaml:"streaks"`
	Temporal TemporalParams `yaml:"temporal"`
	Matchup  MatchupParams  `yaml:"matchup"`
}

// SchemaConfig mirrors normalize.Schema for YAML binding.
type SchemaConfig struct {
	SeriesID        string   `yaml:"series_id"`
	EntityField     string   `yaml:"entity_field"`
	OccurredAtField string   `yaml:"occurred_at_field"`
	CategoryField   string   `yaml:"category_field"`
	ValueField      string   `yaml:"value_field"`
	FirstField      string   `yaml:"first_field"`
	SecondField     string   `yaml:"second_field"`
	CategoryDomain  []string `yaml:"category_domain"`
	TimeLayouts     []string `yaml:"time_layouts"`
	FoldEntityCase  bool     `yaml:"fold_entity_case"`
}

// ToSchema converts the YAML binding into a normalize.Schema.
func (s SchemaConfig) ToSchema() normalize.Schema {
	return normalize.Schema{
		SeriesID:        s.SeriesID,
		EntityField:     s.EntityField,
		OccurredAtField: s.OccurredAtField,
		CategoryField:   s.CategoryField,
		ValueField:      s.ValueField,
		FirstField:      s.FirstField,
		SecondField:     s.SecondField,
		CategoryDomain:  s.CategoryDomain,
		TimeLayouts:     s.TimeLayouts,
		FoldEntityCase:  s.FoldEntityCase,
	}
}

// StreaksParams configures a run detection job.
type StreaksParams struct {
	Allow     []string `yaml:"allow"`      // entity allow-list, empty means all
	MinLength int      `yaml:"min_length"` // report count threshold, e.g. 3 for hot streaks
}

// TemporalParams configures a peak normalization job.
type TemporalParams struct {
	PeriodLayout string    `yaml:"period_layout"` // Go time layout, e.g. "2006-01"
	Agg          string    `yaml:"agg"`           // count, sum, mean
	Lag          int       `yaml:"lag"`           // positions back for period-over-period
	Precision    int       `yaml:"precision"`
	PeakToDate   bool      `yaml:"peak_to_date"`
	Eras         []EraRule `yaml:"eras"`
}

// EraRule labels periods within [from, until).
type EraRule struct {
	Label string `yaml:"label"`
	From  string `yaml:"from"`
	Until string `yaml:"until"`
}

// MatchupParams configures a head-to-head aggregation job.
type MatchupParams struct {
	MinTotal        int      `yaml:"min_total"`
	DominanceFactor float64  `yaml:"dominance_factor"`
	FoldCase        bool     `yaml:"fold_case"`
	Allow           []string `yaml:"allow"` // participant filter, empty means all
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyDefaults sets default values for missing configuration.
func (c *Config) applyDefaults() {
	if c.Storage.Backend == "" {
		c.Storage.Backend = "memory"
	}

	if c.Ingest.BatchSize == 0 {
		c.Ingest.BatchSize = 500
	}
	if c.Ingest.FlushInterval == 0 {
		c.Ingest.FlushInterval = 5 * time.Second
	}

	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9090"
	}

	if c.Report.OutputDir == "" {
		c.Report.OutputDir = "reports"
	}
	if len(c.Report.Formats) == 0 {
		c.Report.Formats = []string{"markdown"}
	}

	for i := range c.Jobs {
		job := &c.Jobs[i]
		if job.Temporal.PeriodLayout == "" {
			job.Temporal.PeriodLayout = "2006-01"
		}
		if job.Temporal.Agg == "" {
			job.Temporal.Agg = "count"
		}
		if job.Temporal.Lag == 0 {
			job.Temporal.Lag = 1
		}
		if job.Temporal.Precision == 0 {
			job.Temporal.Precision = 1
		}
		if job.Matchup.MinTotal == 0 {
			job.Matchup.MinTotal = 1
		}
		if job.Matchup.DominanceFactor == 0 {
			job.Matchup.DominanceFactor = 1.5
		}
		if job.Streaks.MinLength == 0 {
			job.Streaks.MinLength = 3
		}
	}
}

// Validate checks backend and job kinds.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "memory", "warehouse", "duckdb":
	default:
		return fmt.Errorf("unknown storage backend: %s", c.Storage.Backend)
	}

	names := make(map[string]struct{}, len(c.Jobs))
	for _, job := range c.Jobs {
		if job.Name == "" {
			return fmt.Errorf("job without a name")
		}
		if _, dup := names[job.Name]; dup {
			return fmt.Errorf("duplicate job name: %s", job.Name)
		}
		names[job.Name] = struct{}{}

		switch job.Kind {
		case JobKindStreaks, JobKindTempo, JobKindMatchup:
		default:
			return fmt.Errorf("job %s: unknown kind: %s", job.Name, job.Kind)
		}

		if job.Schema.SeriesID == "" {
			return fmt.Errorf("job %s: schema.series_id is required", job.Name)
		}
	}

	return nil
}
