// Package scheduler triggers analysis runs on cron expressions. Each
// configured report job registers under its own schedule; runs of different
// jobs may overlap, runs of the same job are serialized by cron.
package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Job is one schedulable analysis run.
type Job interface {
	Run() error
	Name() string
}

// Scheduler dispatches registered jobs on their cron schedules.
type Scheduler struct {
	cron *cron.Cron
	log  zerolog.Logger
}

// New creates a scheduler. Schedules use the six-field cron format
// (seconds first), plus the @hourly / @every descriptors.
func New(log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithSeconds()),
		log:  log.With().Str("component", "scheduler").Logger(),
	}
}

// Start begins dispatching in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Msg("Job dispatch started")
}

// Stop stops dispatching and blocks until in-flight runs finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("Job dispatch stopped")
}

// AddJob registers a job under a cron schedule, e.g. "0 0 6 * * *" for
// daily at 06:00 or "@every 15m". A run that returns an error is logged
// and the schedule stays active.
func (s *Scheduler) AddJob(schedule string, job Job) error {
	_, err := s.cron.AddFunc(schedule, func() {
		started := time.Now()
		s.log.Debug().Str("job", job.Name()).Msg("Analysis run starting")

		if err := job.Run(); err != nil {
			s.log.Error().
				Err(err).
				Str("job", job.Name()).
				Msg("Analysis run failed")
			return
		}
		s.log.Debug().
			Str("job", job.Name()).
			Dur("elapsed", time.Since(started)).
			Msg("Analysis run finished")
	})
	if err != nil {
		return fmt.Errorf("register job %q: %w", job.Name(), err)
	}

	s.log.Info().
		Str("schedule", schedule).
		Str("job", job.Name()).
		Msg("Job scheduled")

	return nil
}

// RunNow executes a job synchronously, outside its schedule. Used for
// run-on-start and manual backfills.
func (s *Scheduler) RunNow(job Job) error {
	s.log.Info().Str("job", job.Name()).Msg("Running job on demand")
	return job.Run()
}
