package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

// CycleFunc runs one synchronous evaluation cycle for the named due
// jobs. startup is true only for the immediate first cycle.
type CycleFunc func(ctx context.Context, due []string, startup bool) error

type job struct {
	name     string
	interval time.Duration
	next     time.Time
}

// Scheduler drives any number of jobs with independent cadences from a
// single loop. Jobs due at the same wake-up are handed to one cycle, so
// evaluation cycles never overlap; a slow cycle delays later jobs
// rather than running them concurrently.
type Scheduler struct {
	jobs   []job
	logger zerolog.Logger
}

// New constructs an empty Scheduler.
func New(logger zerolog.Logger) *Scheduler {
	return &Scheduler{logger: logger.With().Str("component", "scheduler").Logger()}
}

// Add registers a job. Must be called before Run.
func (s *Scheduler) Add(name string, interval time.Duration) {
	if interval <= 0 {
		panic("scheduler: job interval must be positive")
	}
	s.jobs = append(s.jobs, job{name: name, interval: interval})
}

// Run blocks until ctx is cancelled. Every job fires immediately on the
// first cycle, then on its own cadence measured from cycle completion,
// so a hung fetch delays subsequent scheduling but never stacks cycles.
// Cycle errors are logged and never stop the loop.
func (s *Scheduler) Run(ctx context.Context, cycle CycleFunc) error {
	if len(s.jobs) == 0 {
		return errors.New("scheduler: no jobs registered")
	}

	now := time.Now()
	for i := range s.jobs {
		s.jobs[i].next = now
	}

	startup := true
	for {
		earliest := s.jobs[0].next
		for _, j := range s.jobs[1:] {
			if j.next.Before(earliest) {
				earliest = j.next
			}
		}

		timer := time.NewTimer(time.Until(earliest))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		woke := time.Now()
		var due []string
		for _, j := range s.jobs {
			if !j.next.After(woke) {
				due = append(due, j.name)
			}
		}
		if len(due) == 0 {
			continue
		}

		s.logger.Debug().Strs("due", due).Bool("startup", startup).Msg("executing cycle")
		if err := cycle(ctx, due, startup); err != nil {
			s.logger.Error().Err(err).Strs("due", due).Msg("cycle failed")
		}
		startup = false

		done := time.Now()
		for i := range s.jobs {
			if !s.jobs[i].next.After(woke) {
				s.jobs[i].next = done.Add(s.jobs[i].interval)
			}
		}
	}
}
