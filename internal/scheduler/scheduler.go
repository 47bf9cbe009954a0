package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/user/yt-ingest/internal/ingest"
	"github.com/user/yt-ingest/internal/metrics"
)

// Runner executes one ingestion run
type Runner interface {
	Run(ctx context.Context, ref string, limit int) (*ingest.Result, error)
}

// VideoCounter reports the number of stored videos
type VideoCounter interface {
	CountVideos(ctx context.Context) (int64, error)
}

// Scheduler re-ingests one channel periodically so snapshots accumulate
type Scheduler struct {
	runner   Runner
	counter  VideoCounter
	ref      string
	limit    int
	interval time.Duration
	running  atomic.Bool
	mu       sync.Mutex // held while a run is in progress
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	last     atomic.Pointer[ingest.Result]
}

// NewScheduler creates a scheduler ingesting ref every interval
func NewScheduler(runner Runner, counter VideoCounter, ref string, limit int, interval time.Duration) *Scheduler {
	return &Scheduler{
		runner:   runner,
		counter:  counter,
		ref:      ref,
		limit:    limit,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start runs one ingestion immediately, then one per interval
func (s *Scheduler) Start(ctx context.Context) {
	if s.interval <= 0 {
		log.Info().Msg("Scheduler is disabled")
		return
	}

	s.wg.Add(1)
	go s.run(ctx)
}

// run is the main scheduler loop
func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()

	s.execute(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	log.Info().Dur("interval", s.interval).Str("channel", s.ref).Msg("Scheduler started periodic execution")

	for {
		select {
		case <-ticker.C:
			s.execute(ctx)
		case <-s.stopCh:
			log.Info().Msg("Scheduler stopped")
			return
		case <-ctx.Done():
			log.Info().Msg("Scheduler context cancelled")
			return
		}
	}
}

// execute runs a single ingestion, skipping the trigger if one is in progress
func (s *Scheduler) execute(ctx context.Context) {
	if !s.TryRun(ctx) {
		log.Warn().Msg("Ingest run already in progress, skipping this trigger")
	}
}

// TryRun runs one ingestion now. Returns false if a run is already in progress.
func (s *Scheduler) TryRun(ctx context.Context) bool {
	if !s.mu.TryLock() {
		return false
	}
	defer s.mu.Unlock()

	s.running.Store(true)
	defer s.running.Store(false)

	res, err := s.runner.Run(ctx, s.ref, s.limit)
	if err != nil {
		log.Error().Err(err).Str("channel", s.ref).Msg("Scheduled ingest failed")
	}
	if res != nil {
		s.last.Store(res)
	}

	if s.counter != nil {
		if count, err := s.counter.CountVideos(ctx); err == nil {
			metrics.SetStoredVideos(count)
		}
	}
	return true
}

// Stop gracefully stops the scheduler and waits for an in-flight run
func (s *Scheduler) Stop() {
	log.Info().Msg("Stopping scheduler...")
	s.stopOnce.Do(func() { close(s.stopCh) })
	s.wg.Wait()
}

// IsRunning returns true if an ingestion is currently running
func (s *Scheduler) IsRunning() bool {
	return s.running.Load()
}

// LastResult returns the most recent run result, or nil before the first run
func (s *Scheduler) LastResult() *ingest.Result {
	return s.last.Load()
}
