package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"cantonwatch/internal/fetcher"
	"cantonwatch/internal/metrics"
	"cantonwatch/internal/scheduler"
	"cantonwatch/internal/storage"
)

// PageJob is an alert evaluated against the parsed dashboard snapshot.
// All page jobs due in one cycle share a single fetch and parse.
type PageJob struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context, snap metrics.Snapshot, startup bool)
}

// SideJob is an alert with its own data source (the FAAM monitors); it
// runs inside the same cycle but does not consume the page snapshot.
type SideJob struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Service orchestrates fetch, parse, persistence, and evaluation.
type Service struct {
	fetcher   fetcher.PageFetcher
	snapshots storage.SnapshotStore
	logger    zerolog.Logger

	pageJobs []PageJob
	sideJobs []SideJob
}

// New constructs the monitoring service. snapshots may be nil when no
// database is configured.
func New(f fetcher.PageFetcher, snapshots storage.SnapshotStore, logger zerolog.Logger) *Service {
	return &Service{
		fetcher:   f,
		snapshots: snapshots,
		logger:    logger.With().Str("component", "service").Logger(),
	}
}

// AddPageJob registers a snapshot-driven alert.
func (s *Service) AddPageJob(j PageJob) {
	s.pageJobs = append(s.pageJobs, j)
}

// AddSideJob registers a self-fetching alert.
func (s *Service) AddSideJob(j SideJob) {
	s.sideJobs = append(s.sideJobs, j)
}

// Run blocks, driving all registered jobs until ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	if len(s.pageJobs)+len(s.sideJobs) == 0 {
		return fmt.Errorf("no alerts enabled")
	}

	sched := scheduler.New(s.logger)
	for _, j := range s.pageJobs {
		sched.Add(j.Name, j.Interval)
	}
	for _, j := range s.sideJobs {
		sched.Add(j.Name, j.Interval)
	}

	return sched.Run(ctx, s.Cycle)
}

// Cycle executes one synchronous evaluation cycle for the due jobs:
// fetch, parse, persist the snapshot, then evaluate each due alert in
// registration order. A fetch failure aborts the page-driven part of
// the tick; side jobs still run, and the loop is unaffected going
// forward.
func (s *Service) Cycle(ctx context.Context, due []string, startup bool) error {
	dueSet := make(map[string]bool, len(due))
	for _, name := range due {
		dueSet[name] = true
	}

	var cycleErr error
	if pageDue := s.duePageJobs(dueSet); len(pageDue) > 0 {
		cycleErr = s.runPageJobs(ctx, pageDue, startup)
	}

	for _, j := range s.sideJobs {
		if !dueSet[j.Name] {
			continue
		}
		if err := j.Run(ctx); err != nil {
			s.logger.Error().Err(err).Str("job", j.Name).Msg("side job failed")
		}
	}

	return cycleErr
}

func (s *Service) duePageJobs(dueSet map[string]bool) []PageJob {
	var jobs []PageJob
	for _, j := range s.pageJobs {
		if dueSet[j.Name] {
			jobs = append(jobs, j)
		}
	}
	return jobs
}

func (s *Service) runPageJobs(ctx context.Context, jobs []PageJob, startup bool) error {
	raw, err := s.fetcher.FetchPage(ctx)
	if err != nil {
		return fmt.Errorf("fetch page: %w", err)
	}

	snap := metrics.Parse(raw)
	s.logger.Debug().Int("periods", len(snap)).Msg("snapshot parsed")

	// fire and forget: persistence never blocks or fails evaluation
	if s.snapshots != nil {
		if err := s.snapshots.AppendSnapshot(ctx, time.Now().UTC(), snap); err != nil {
			s.logger.Warn().Err(err).Msg("failed to persist snapshot")
		}
	}

	for _, j := range jobs {
		j.Run(ctx, snap, startup)
	}
	return nil
}
