// Package scheduler warms the source caches: it resolves a configured
// set of assets right after startup and again whenever the cache
// bucket rolls over, so interactive requests hit a hot cache.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"AssetHist/internal/search"
	applogger "AssetHist/pkg/logger"
	"AssetHist/pkg/parallel"
)

const (
	preloadDelay = 5 * time.Second
	// historyYears is how far back warm-up fetches reach.
	historyYears = 20
)

// Config controls the scheduler.
type Config struct {
	// Assets to resolve on each run.
	Assets []string
	// Concurrency caps parallel warm-up jobs.
	Concurrency int
	// Preload runs a warm-up shortly after Start.
	Preload bool
	// RolloverHourUTC is the hour the cache bucket resets; the daily
	// run fires right after it.
	RolloverHourUTC int
}

// Scheduler runs daily cache warm-ups.
type Scheduler struct {
	svc *search.Service
	log *applogger.Logger
	cfg Config

	mu      sync.Mutex
	cancel  context.CancelFunc
	stopped chan struct{}
}

// New creates a scheduler.
func New(svc *search.Service, log *applogger.Logger, cfg Config) *Scheduler {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 2
	}
	return &Scheduler{svc: svc, log: log, cfg: cfg}
}

// Start launches the background loop: an optional preload after a
// short delay, then one run per day right after the bucket rollover.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.stopped = make(chan struct{})

	go s.loop(ctx)
}

// Stop terminates the loop and waits for it to exit.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, stopped := s.cancel, s.stopped
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		<-stopped
	}
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.stopped)

	if s.cfg.Preload {
		select {
		case <-time.After(preloadDelay):
			s.RunOnce(ctx)
		case <-ctx.Done():
			return
		}
	}

	for {
		wait := time.Until(s.nextRun(time.Now().UTC()))
		select {
		case <-time.After(wait):
			s.RunOnce(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// nextRun returns the next daily run time: the rollover hour UTC,
// today if still ahead, otherwise tomorrow.
func (s *Scheduler) nextRun(now time.Time) time.Time {
	run := time.Date(now.Year(), now.Month(), now.Day(), s.cfg.RolloverHourUTC, 0, 0, 0, time.UTC)
	if !run.After(now) {
		run = run.AddDate(0, 0, 1)
	}
	return run
}

// RunOnce resolves every configured asset, collecting failures instead
// of aborting: one broken upstream must not block warming the rest.
// Returns the number of failed jobs.
func (s *Scheduler) RunOnce(ctx context.Context) int {
	return s.Run(ctx, s.cfg.Assets)
}

// Run warms a specific set of assets with the same collect-all
// semantics as RunOnce. An empty set is a no-op.
func (s *Scheduler) Run(ctx context.Context, assets []string) int {
	if len(assets) == 0 {
		return 0
	}

	maxDate := time.Now().UTC()
	minDate := maxDate.AddDate(-historyYears, 0, 0)

	tasks := make([]parallel.Task[string], len(assets))
	for i, asset := range assets {
		asset := asset
		tasks[i] = func(ctx context.Context) (string, error) {
			if _, err := s.svc.Search(ctx, []string{asset}, minDate, maxDate); err != nil {
				return asset, fmt.Errorf("warm %s: %w", asset, err)
			}
			return asset, nil
		}
	}

	start := time.Now()
	failed := 0
	for _, res := range parallel.RunAll(ctx, tasks, s.cfg.Concurrency) {
		if res.Err != nil {
			failed++
			if s.log != nil {
				s.log.Warn("cache warm-up job failed", applogger.Error(res.Err))
			}
		}
	}

	if s.log != nil {
		s.log.Info("cache warm-up finished",
			applogger.Int("assets", len(assets)),
			applogger.Int("failed", failed),
			applogger.Duration("took", time.Since(start)),
		)
	}
	return failed
}
