/*
scheduler.go - Periodic sweep and model refresh

PURPOSE:
  Derived figures depend on "today": cooldowns expire, rewards become
  overdue. The scheduler re-derives the model on an interval so the
  model gauges stay current without a UI request. It also runs the
  TECH-block sweep, so state loaded at startup gets its blocks written
  before the first command arrives.

DESIGN:
  - One background goroutine driven by a ticker
  - Runs once immediately on Start
  - Sweep goes through the controller, so it is serialized with every
    other command and persisted like one

USAGE:
  s := NewSweepScheduler(ctrl, logger)
  s.Start()
  defer s.Stop()

SEE ALSO:
  - ingest/controller.go: Sweep
  - metrics.go: gauges refreshed here
*/
package api

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/warp/booking-ops/derive"
	"github.com/warp/booking-ops/ingest"
)

// DefaultSweepInterval is used when the scheduler is created without one.
const DefaultSweepInterval = 15 * time.Minute

// SweepScheduler periodically sweeps and refreshes the model gauges.
type SweepScheduler struct {
	Ctrl          *ingest.Controller
	Logger        *slog.Logger
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewSweepScheduler creates a scheduler with the default interval.
func NewSweepScheduler(ctrl *ingest.Controller, logger *slog.Logger) *SweepScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SweepScheduler{
		Ctrl:          ctrl,
		Logger:        logger,
		CheckInterval: DefaultSweepInterval,
		Enabled:       true,
	}
}

// Start begins the scheduler. Calling Start twice is a no-op.
func (s *SweepScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.Enabled {
		s.Logger.Info("scheduler disabled")
		return
	}
	if s.ticker != nil {
		return
	}

	s.ticker = time.NewTicker(s.CheckInterval)
	s.stop = make(chan struct{})
	s.wg.Add(1)
	go s.run(s.ticker.C, s.stop)

	s.Logger.Info("scheduler started", "interval", s.CheckInterval)
}

// Stop stops the scheduler and waits for an in-flight run.
func (s *SweepScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ticker == nil {
		return
	}
	s.ticker.Stop()
	close(s.stop)
	s.wg.Wait()
	s.ticker = nil
	s.Logger.Info("scheduler stopped")
}

func (s *SweepScheduler) run(tick <-chan time.Time, stop <-chan struct{}) {
	defer s.wg.Done()

	s.RunNow(context.Background())
	for {
		select {
		case <-tick:
			s.RunNow(context.Background())
		case <-stop:
			return
		}
	}
}

// RunNow sweeps and refreshes the gauges immediately.
func (s *SweepScheduler) RunNow(ctx context.Context) (ingest.SweepSummary, error) {
	sum, err := s.Ctrl.Sweep(ctx)
	if err != nil {
		s.Logger.Error("scheduled sweep failed", "error", err)
		return sum, err
	}

	st := s.Ctrl.State()
	in := st.Input(s.Ctrl.Now())
	m := derive.Derive(in)
	observeModel(m, derive.Rewards(in, m))
	return sum, nil
}
