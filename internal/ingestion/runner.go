package ingestion

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"event-analytics-lab/internal/domain"
	"event-analytics-lab/internal/normalize"
	"event-analytics-lab/internal/observability"
	"event-analytics-lab/internal/storage"
)

// Runner pulls raw records from a stream source, normalizes them in
// batches, and loads them into the event staging store.
type Runner struct {
	source        StreamSource
	schema        normalize.Schema
	eventStore    storage.EventStore
	batchSize     int
	flushInterval time.Duration
	logger        zerolog.Logger

	buffer []domain.RawRecord
	// seqOffset keeps Seq unique across flushed batches: Normalize assigns
	// Seq from the in-batch index, the offset shifts it to a global position.
	seqOffset int
}

// RunnerOptions contains configuration for creating a Runner.
type RunnerOptions struct {
	Source        StreamSource
	Schema        normalize.Schema
	EventStore    storage.EventStore
	BatchSize     int           // Default: 500 records per flush
	FlushInterval time.Duration // Default: 5s - flush partial batches periodically
	Logger        zerolog.Logger
}

// NewRunner creates a new ingestion runner.
func NewRunner(opts RunnerOptions) *Runner {
	batchSize := opts.BatchSize
	if batchSize == 0 {
		batchSize = 500
	}

	flushInterval := opts.FlushInterval
	if flushInterval == 0 {
		flushInterval = 5 * time.Second
	}

	return &Runner{
		source:        opts.Source,
		schema:        opts.Schema,
		eventStore:    opts.EventStore,
		batchSize:     batchSize,
		flushInterval: flushInterval,
		logger:        opts.Logger.With().Str("component", "ingest_runner").Str("series_id", opts.Schema.SeriesID).Logger(),
	}
}

// Run consumes the stream until the context is cancelled or the source
// closes its channel. Buffered records are flushed before returning.
func (r *Runner) Run(ctx context.Context) error {
	recordsCh, err := r.source.Subscribe(ctx, r.schema.SeriesID)
	if err != nil {
		return err
	}
	r.logger.Info().Msg("subscribed to record stream")

	flushTicker := time.NewTicker(r.flushInterval)
	defer flushTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.flush(context.WithoutCancel(ctx))
			r.logger.Info().Msg("runner stopping")
			return ctx.Err()

		case rec, ok := <-recordsCh:
			if !ok {
				r.flush(ctx)
				r.logger.Info().Msg("record stream closed")
				return nil
			}
			r.buffer = append(r.buffer, rec)
			if len(r.buffer) >= r.batchSize {
				r.flush(ctx)
			}

		case <-flushTicker.C:
			r.flush(ctx)
		}
	}
}

// flush normalizes and stores the buffered records. A validation failure
// rejects the whole batch; storage duplicates are expected and skipped.
func (r *Runner) flush(ctx context.Context) {
	if len(r.buffer) == 0 {
		return
	}

	start := time.Now()
	batch := r.buffer
	r.buffer = nil

	events, err := normalize.Normalize(batch, r.schema)
	if err != nil {
		var verr *normalize.ValidationError
		if errors.As(err, &verr) {
			observability.RecordValidationFailure(verr.Field)
			r.logger.Error().
				Int("record_index", verr.RecordIndex).
				Str("field", verr.Field).
				Str("reason", verr.Reason).
				Int("batch_size", len(batch)).
				Msg("batch rejected by validation")
			return
		}
		r.logger.Error().Err(err).Msg("normalize failed")
		return
	}

	for _, e := range events {
		e.Seq += r.seqOffset
	}
	r.seqOffset += len(batch)

	if err := r.eventStore.InsertBulk(ctx, events); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			// Replayed feed segment, already staged
			r.logger.Debug().Int("events", len(events)).Msg("duplicate batch skipped")
			return
		}
		r.logger.Error().Err(err).Msg("store batch failed")
		return
	}

	observability.RecordFlush(len(batch), time.Since(start).Seconds())
	observability.RecordEventsStored(len(events))
	observability.DefaultMetrics.LastSuccessfulIngestion.Set(float64(time.Now().Unix()))

	r.logger.Info().
		Int("records", len(batch)).
		Int("events", len(events)).
		Dur("took", time.Since(start)).
		Msg("batch flushed")
}
