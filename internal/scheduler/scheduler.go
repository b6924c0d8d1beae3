// Package scheduler runs the controlled-burn loop: a single goroutine
// polls the store each tick, admits work against a durable in-flight
// count, and fans each eligible burn out to its own execution goroutine.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/solpyre/solpyre/internal/burn"
	"github.com/solpyre/solpyre/internal/models"
)

type Scheduler struct {
	repo burn.BurnRepoInterface
	exec *Executor
	log  zerolog.Logger

	tickInterval    time.Duration
	backoffInterval time.Duration
	inFlightWindow  time.Duration

	mu      sync.Mutex
	running bool
	quit    chan struct{}

	loopWg sync.WaitGroup
	execWg sync.WaitGroup
}

func New(repo burn.BurnRepoInterface, exec *Executor, cfg *Config, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		repo:            repo,
		exec:            exec,
		log:             log.With().Str("component", "scheduler").Logger(),
		tickInterval:    cfg.TickInterval,
		backoffInterval: cfg.BackoffInterval,
		inFlightWindow:  cfg.InFlightWindow,
	}
}

// Start launches the loop. Idempotent: starting a running scheduler is a
// no-op. If the loop previously exited because the remote kill-switch
// flipped, Start brings it back.
func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.quit = make(chan struct{})
	quit := s.quit
	s.mu.Unlock()

	s.loopWg.Add(1)
	go s.run(quit)
	s.log.Info().Msg("scheduler started")
}

// Stop halts admission and dispatch, then waits for the loop and for every
// dispatched attempt to reach its own terminal state. In-flight chain
// submissions are never cancelled; a burn already sent cannot be unsent.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.quit)
	s.mu.Unlock()

	s.loopWg.Wait()
	s.execWg.Wait()
	s.log.Info().Msg("scheduler stopped")
}

// Running reports whether the loop is live.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) run(quit chan struct{}) {
	defer s.loopWg.Done()

	for {
		select {
		case <-quit:
			return
		default:
		}

		ctx := context.Background()

		cfg, err := s.repo.GetSystemConfig(ctx)
		if err != nil {
			s.log.Error().Err(err).Msg("failed to load system config")
			if !s.sleep(quit, s.backoffInterval) {
				return
			}
			continue
		}

		if !cfg.IsRunning {
			// Remote kill-switch. Terminal for this loop: Start must be
			// called again to resume.
			s.log.Info().Msg("scheduler disabled by config, exiting loop")
			s.mu.Lock()
			s.running = false
			s.mu.Unlock()
			return
		}

		inFlight, err := s.repo.CountInFlightExecutions(ctx, time.Now().Add(-s.inFlightWindow))
		if err != nil {
			s.log.Error().Err(err).Msg("failed to count in-flight executions")
			if !s.sleep(quit, s.backoffInterval) {
				return
			}
			continue
		}

		slots := AvailableSlots(cfg.MaxWorkers, int(inFlight))
		if slots == 0 {
			// At capacity: backpressure, no selection this tick.
			if !s.sleep(quit, s.backoffInterval) {
				return
			}
			continue
		}

		burns, err := s.selectEligible(ctx, time.Now(), cfg.MaxRetries, slots)
		if err != nil {
			s.log.Error().Err(err).Msg("failed to select eligible burns")
			if !s.sleep(quit, s.backoffInterval) {
				return
			}
			continue
		}

		if len(burns) > 0 {
			s.log.Debug().
				Int("selected", len(burns)).
				Int("slots", slots).
				Int64("in_flight", inFlight).
				Msg("dispatching burns")
		}

		for i := range burns {
			b := burns[i]
			s.execWg.Add(1)
			go func() {
				defer s.execWg.Done()
				// Executions outlive the loop on purpose: Stop halts new
				// work, it does not abort work already dispatched.
				s.exec.Execute(context.Background(), &b, cfg)
			}()
		}

		if !s.sleep(quit, s.tickInterval) {
			return
		}
	}
}

// selectEligible is the job selector. Zero capacity short-circuits without
// touching the store.
func (s *Scheduler) selectEligible(ctx context.Context, now time.Time, maxRetries, capacity int) ([]models.ScheduledBurn, error) {
	if capacity <= 0 {
		return nil, nil
	}
	return s.repo.FindEligibleBurns(ctx, now, maxRetries, capacity)
}

// sleep waits d or until quit closes; false means the scheduler stopped.
func (s *Scheduler) sleep(quit chan struct{}, d time.Duration) bool {
	select {
	case <-quit:
		return false
	case <-time.After(d):
		return true
	}
}
