/*
scheduler.go - Background maintenance scheduler

PURPOSE:
  Runs the two periodic jobs the program needs without operator action:
  - Birthday bonus sweep: grants today's bonuses to members who have not
    received one yet this year.
  - Reconciliation sweep: audits every cached balance against the ledger
    and repairs drift.

DESIGN:
  - One goroutine, two tickers, graceful stop via channel + WaitGroup
  - Both jobs run once immediately on start so a restart never loses a day
  - Job errors are logged and the scheduler keeps running

USAGE:
  sched := NewScheduler(svc, cfg, log)
  sched.Start()
  // ... later
  sched.Stop()

SEE ALSO:
  - loyalty/bonus.go: GrantDueBirthdayBonuses
  - loyalty/reconcile.go: ReconcileAll
*/
package api

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/tribe/loyalty-engine/config"
	"github.com/tribe/loyalty-engine/loyalty"
)

// Scheduler runs the birthday and reconciliation sweeps in the background.
type Scheduler struct {
	Service *loyalty.Service
	Config  config.SchedulerConfig
	Log     *slog.Logger

	bonusTicker     *time.Ticker
	reconcileTicker *time.Ticker
	stop            chan struct{}
	wg              sync.WaitGroup
	mu              sync.Mutex
	started         bool
}

// NewScheduler creates a scheduler; call Start to begin sweeping.
func NewScheduler(svc *loyalty.Service, cfg config.SchedulerConfig, log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{
		Service: svc,
		Config:  cfg,
		Log:     log,
		stop:    make(chan struct{}),
	}
}

// Start begins the background sweeps.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.Config.Enabled {
		s.Log.Info("scheduler disabled, not starting")
		return
	}
	if s.started {
		return
	}
	s.started = true

	s.bonusTicker = time.NewTicker(s.Config.BonusSweepInterval)
	s.reconcileTicker = time.NewTicker(s.Config.ReconcileInterval)
	s.wg.Add(1)
	go s.run()

	s.Log.Info("scheduler started",
		"bonus_interval", s.Config.BonusSweepInterval,
		"reconcile_interval", s.Config.ReconcileInterval)
}

// Stop halts the sweeps and waits for any in-flight job to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.bonusTicker.Stop()
	s.reconcileTicker.Stop()
	close(s.stop)
	s.wg.Wait()
	s.started = false
	s.Log.Info("scheduler stopped")
}

func (s *Scheduler) run() {
	defer s.wg.Done()

	// Run both once on start
	s.sweepBonuses()
	s.sweepReconciliation()

	for {
		select {
		case <-s.bonusTicker.C:
			s.sweepBonuses()
		case <-s.reconcileTicker.C:
			s.sweepReconciliation()
		case <-s.stop:
			return
		}
	}
}

func (s *Scheduler) sweepBonuses() {
	granted, err := s.Service.GrantDueBirthdayBonuses(context.Background())
	if err != nil {
		s.Log.Error("birthday sweep failed", "error", err)
		return
	}
	if granted > 0 {
		s.Log.Info("birthday sweep completed", "granted", granted)
	}
}

func (s *Scheduler) sweepReconciliation() {
	reports, err := s.Service.ReconcileAll(context.Background())
	if err != nil {
		s.Log.Error("reconciliation sweep failed", "error", err)
		return
	}
	if len(reports) > 0 {
		s.Log.Warn("reconciliation sweep repaired balances", "corrected", len(reports))
	}
}

// RunNow triggers both sweeps immediately (admin/testing hook).
func (s *Scheduler) RunNow() {
	s.sweepBonuses()
	s.sweepReconciliation()
}
