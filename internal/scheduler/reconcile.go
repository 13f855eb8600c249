// Package scheduler runs the periodic steady-state reconciliation that keeps
// the durable stores converged while the engine is up.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/faithadeola/library-system/internal/audit"
)

// ReconcileFunc runs one reconciliation pass over every store and returns the
// per-store reports for auditing.
type ReconcileFunc func() (any, error)

// ReconcileScheduler manages periodic reconciliation runs.
type ReconcileScheduler struct {
	schedule  string
	reconcile ReconcileFunc
	auditor   *audit.Auditor

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	cancelFunc context.CancelFunc
}

// NewReconcileScheduler creates a new scheduler instance. schedule is a
// standard five-field cron expression.
func NewReconcileScheduler(schedule string, reconcile ReconcileFunc, auditor *audit.Auditor) *ReconcileScheduler {
	return &ReconcileScheduler{
		schedule:  schedule,
		reconcile: reconcile,
		auditor:   auditor,
		cron:      cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
	}
}

// Start begins the scheduler.
func (s *ReconcileScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	entryID, err := s.cron.AddFunc(s.schedule, func() {
		s.runReconcile()
	})
	if err != nil {
		return fmt.Errorf("failed to schedule reconcile job: %w", err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	log.Printf("Reconcile scheduler: started with schedule '%s'", s.schedule)

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop gracefully stops the scheduler, waiting for a running pass to finish.
func (s *ReconcileScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.isRunning = false
	s.cancelFunc = nil

	log.Printf("Reconcile scheduler: stopped")
}

// RunNow triggers an immediate reconciliation pass.
func (s *ReconcileScheduler) RunNow() {
	go s.runReconcile()
}

// IsRunning returns whether the scheduler is active.
func (s *ReconcileScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRunTime returns when the next pass will occur.
func (s *ReconcileScheduler) GetNextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}

	for _, entry := range s.cron.Entries() {
		if entry.ID == s.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}

func (s *ReconcileScheduler) runReconcile() {
	log.Printf("Scheduled reconcile: starting")
	startTime := time.Now()

	reports, err := s.reconcile()
	if err != nil {
		log.Printf("Scheduled reconcile: failed: %v", err)
		return
	}

	duration := time.Since(startTime)
	log.Printf("Scheduled reconcile: completed in %v", duration.Round(time.Millisecond))

	if s.auditor != nil {
		if _, err := s.auditor.SaveJSON(reports); err != nil {
			log.Printf("Scheduled reconcile: failed to save audit snapshot: %v", err)
		}
	}
}
